// Package exercise holds the per-exercise state machine: it sequences the
// content service calls for one study session and manages the derived
// interactive state (quiz answers and score, cloze blanks).
package exercise

import (
	"context"
	"strings"
	"sync"

	"lesewerk/internal/config"
	"lesewerk/internal/models"
	"lesewerk/internal/observability"
	"lesewerk/internal/services"
	contextutils "lesewerk/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// State identifies where a session is in its lifecycle.
type State string

// Session states
const (
	StateIdle       State = "idle"       // StateIdle is the initial state, nothing generated yet
	StateGenerating State = "generating" // StateGenerating means the story chain is in flight
	StateReady      State = "ready"      // StateReady means content is available for study
	StateScored     State = "scored"     // StateScored means the quiz has been submitted
)

// Session is the state container for one active exercise. All transitions are
// methods; fields are never mutated from outside.
type Session struct {
	mu      sync.Mutex
	content services.ContentServiceInterface
	cfg     *config.Config
	logger  *observability.Logger

	state        State
	text         *models.GeneratedText
	translations []models.TranslationPair
	quiz         []models.QuizQuestion
	answers      map[int]string
	score        int
	stepErrors   []string

	cloze        *models.ClozeExercise
	clozeAnswers []string

	// Supersession guard: a new Generate cancels the previous chain and
	// results tagged with a stale generation number are dropped.
	generation int
	cancelPrev context.CancelFunc
}

// Snapshot is an immutable view of the session for rendering.
type Snapshot struct {
	State        State                    `json:"state"`
	Text         *models.GeneratedText    `json:"text,omitempty"`
	Translations []models.TranslationPair `json:"translations,omitempty"`
	Quiz         []models.QuizQuestion    `json:"quiz,omitempty"`
	Answers      map[int]string           `json:"answers,omitempty"`
	Score        int                      `json:"score"`
	Cloze        *models.ClozeExercise    `json:"cloze,omitempty"`
	ClozeAnswers []string                 `json:"cloze_answers,omitempty"`
	StepErrors   []string                 `json:"step_errors,omitempty"`
}

// NewSession creates an idle session.
func NewSession(content services.ContentServiceInterface, cfg *config.Config, logger *observability.Logger) *Session {
	return &Session{
		content: content,
		cfg:     cfg,
		logger:  logger,
		state:   StateIdle,
		answers: make(map[int]string),
	}
}

// Snapshot returns a copy of the renderable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make(map[int]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	return Snapshot{
		State:        s.state,
		Text:         s.text,
		Translations: append([]models.TranslationPair(nil), s.translations...),
		Quiz:         append([]models.QuizQuestion(nil), s.quiz...),
		Answers:      answers,
		Score:        s.score,
		Cloze:        s.cloze,
		ClozeAnswers: append([]string(nil), s.clozeAnswers...),
		StepErrors:   append([]string(nil), s.stepErrors...),
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generate runs the full chain: story, then sentence translation, then quiz.
// The three calls are strictly sequential because each downstream prompt is
// built from the previous result. Content fetched before a failing step is
// kept: a quiz failure still leaves the story and translations readable, with
// the step error recorded for display. Only a story failure aborts.
// A Generate issued while another is in flight supersedes it.
func (s *Session) Generate(ctx context.Context, req *models.ExerciseRequest) (err error) {
	ctx, span := observability.TraceExerciseFunction(ctx, "generate",
		attribute.String("exercise.level", req.Level),
		attribute.String("exercise.theme", req.Theme),
		attribute.Int("exercise.word_count", req.WordCount),
	)
	defer observability.FinishSpan(span, &err)

	if err := req.Validate(s.cfg.Levels.Levels, s.cfg.Exercise.MinStoryWords, s.cfg.Exercise.MaxStoryWords); err != nil {
		return err
	}

	s.mu.Lock()
	if s.cancelPrev != nil {
		s.cancelPrev()
	}
	genCtx, cancel := context.WithCancel(ctx)
	s.cancelPrev = cancel
	s.generation++
	gen := s.generation

	// Entering generating clears all derived state from the previous text.
	prevState := s.state
	s.state = StateGenerating
	s.clearDerivedLocked()
	s.mu.Unlock()

	text, serr := s.content.GenerateStory(genCtx, req)
	if serr != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.generation {
			return nil // superseded, the newer chain owns the state
		}
		s.state = prevState
		return serr
	}

	var pairs []models.TranslationPair
	var quiz []models.QuizQuestion
	var stepErrors []string

	pairs, terr := s.content.TranslateSentences(genCtx, text.Body)
	if terr != nil {
		stepErrors = append(stepErrors, contextutils.UserMessage(terr))
		s.logger.Warn(ctx, "Sentence translation failed, keeping story", map[string]interface{}{
			"error": terr.Error(),
		})
	}

	quiz, qerr := s.content.GenerateQuiz(genCtx, text.Body, s.cfg.Exercise.QuizQuestions)
	if qerr != nil {
		stepErrors = append(stepErrors, contextutils.UserMessage(qerr))
		s.logger.Warn(ctx, "Quiz generation failed, keeping story", map[string]interface{}{
			"error": qerr.Error(),
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil // superseded mid-chain
	}
	s.text = text
	s.translations = pairs
	s.quiz = quiz
	s.stepErrors = stepErrors
	s.state = StateReady
	return nil
}

// clearDerivedLocked resets everything derived from the previous text.
// Caller holds the lock.
func (s *Session) clearDerivedLocked() {
	s.text = nil
	s.translations = nil
	s.quiz = nil
	s.answers = make(map[int]string)
	s.score = 0
	s.stepErrors = nil
	s.cloze = nil
	s.clozeAnswers = nil
}

// Answer records the learner's choice for one question. Overwrite semantics:
// answering the same index again replaces the earlier choice.
func (s *Session) Answer(qIndex int, choice string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "cannot answer in state %s", s.state)
	}
	if qIndex < 0 || qIndex >= len(s.quiz) {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "question index %d out of range", qIndex)
	}
	s.answers[qIndex] = choice
	return nil
}

// Submit scores the quiz: one point per index whose recorded answer equals the
// correct answer. Unanswered questions count as wrong.
func (s *Session) Submit() (result0 int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return 0, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "cannot submit in state %s", s.state)
	}
	if len(s.quiz) == 0 {
		return 0, contextutils.WrapError(contextutils.ErrInvalidInput, "no quiz to submit")
	}

	score := 0
	for i, q := range s.quiz {
		if answer, ok := s.answers[i]; ok && answer == q.CorrectAnswer {
			score++
		}
	}
	s.score = score
	s.state = StateScored
	return score, nil
}

// ResetQuiz clears answers and score and returns to the ready state.
func (s *Session) ResetQuiz() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateScored && s.state != StateReady {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "cannot reset in state %s", s.state)
	}
	s.answers = make(map[int]string)
	s.score = 0
	s.state = StateReady
	return nil
}

// StartCloze fetches a cloze exercise over the current text. On failure the
// session state is unchanged and the error carries the user-facing message.
func (s *Session) StartCloze(ctx context.Context) (err error) {
	ctx, span := observability.TraceExerciseFunction(ctx, "start_cloze")
	defer observability.FinishSpan(span, &err)

	s.mu.Lock()
	if s.state != StateReady || s.text == nil {
		s.mu.Unlock()
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "no text available in state %s", s.state)
	}
	body := s.text.Body
	level := s.text.Level
	s.mu.Unlock()

	cloze, err := s.content.GenerateClozeFromText(ctx, body, level)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cloze = cloze
	s.clozeAnswers = make([]string, len(cloze.Answers))
	return nil
}

// StartClozeFromWords fetches a cloze exercise built around a vocabulary list,
// independent of the current text.
func (s *Session) StartClozeFromWords(ctx context.Context, words []string, level string) (err error) {
	ctx, span := observability.TraceExerciseFunction(ctx, "start_cloze_from_words",
		attribute.Int("cloze.word_count", len(words)),
	)
	defer observability.FinishSpan(span, &err)

	cloze, err := s.content.GenerateClozeFromWords(ctx, words, level)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cloze = cloze
	s.clozeAnswers = make([]string, len(cloze.Answers))
	return nil
}

// AnswerCloze records the learner's text for one blank.
func (s *Session) AnswerCloze(index int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cloze == nil {
		return contextutils.WrapError(contextutils.ErrInvalidInput, "no cloze exercise active")
	}
	if index < 0 || index >= len(s.clozeAnswers) {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "blank index %d out of range", index)
	}
	s.clozeAnswers[index] = text
	return nil
}

// CheckCloze grades the blanks: exact match ignoring case and surrounding
// whitespace. Returns per-blank correctness.
func (s *Session) CheckCloze() (result0 []bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cloze == nil {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "no cloze exercise active")
	}

	results := make([]bool, len(s.cloze.Answers))
	for i, want := range s.cloze.Answers {
		results[i] = foldEqual(s.clozeAnswers[i], want)
	}
	return results, nil
}

// ClearCloze drops the cloze state and returns to plain reading.
func (s *Session) ClearCloze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cloze = nil
	s.clozeAnswers = nil
}

// CurrentSnapshotForSave builds a SavedText from the session, or an error when
// there is nothing to save.
func (s *Session) CurrentSnapshotForSave() (result0 *models.SavedText, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.text == nil {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "no text to save")
	}
	return &models.SavedText{
		Title:        s.text.Title,
		Body:         s.text.Body,
		Level:        s.text.Level,
		Translations: append([]models.TranslationPair(nil), s.translations...),
		Quiz:         append([]models.QuizQuestion(nil), s.quiz...),
	}, nil
}

// LoadSaved restores an archived text into the session as if it had just been
// generated. Any in-flight generation is superseded.
func (s *Session) LoadSaved(text models.SavedText) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelPrev != nil {
		s.cancelPrev()
		s.cancelPrev = nil
	}
	s.generation++
	s.clearDerivedLocked()

	s.text = &models.GeneratedText{Title: text.Title, Body: text.Body, Level: text.Level}
	s.translations = append([]models.TranslationPair(nil), text.Translations...)
	s.quiz = append([]models.QuizQuestion(nil), text.Quiz...)
	s.state = StateReady
}

// foldEqual compares two answers ignoring case and surrounding whitespace.
func foldEqual(got, want string) bool {
	return strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want))
}

// Sentences returns the German sentences of the current text in document
// order, preferring the model's own segmentation when translations exist.
func (s *Session) Sentences() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.translations) > 0 {
		sentences := make([]string, len(s.translations))
		for i, p := range s.translations {
			sentences[i] = p.German
		}
		return sentences
	}
	if s.text != nil {
		return models.SplitSentences(s.text.Body)
	}
	return nil
}
