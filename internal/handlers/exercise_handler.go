package handlers

import (
	"net/http"

	"lesewerk/internal/config"
	"lesewerk/internal/exercise"
	"lesewerk/internal/models"
	"lesewerk/internal/observability"
	"lesewerk/internal/store"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ExerciseHandler drives the single active exercise session: generation,
// quiz answering and scoring, and cloze exercises.
type ExerciseHandler struct {
	session *exercise.Session
	store   *store.Store
	cfg     *config.Config
	logger  *observability.Logger
}

// NewExerciseHandler creates a new ExerciseHandler instance
func NewExerciseHandler(session *exercise.Session, st *store.Store, cfg *config.Config, logger *observability.Logger) *ExerciseHandler {
	return &ExerciseHandler{
		session: session,
		store:   st,
		cfg:     cfg,
		logger:  logger,
	}
}

// GenerateRequest is the payload for starting a new exercise.
type GenerateRequest struct {
	Level     string `json:"level" binding:"required"`
	Theme     string `json:"theme"`
	WordCount int    `json:"word_count"`
	Mood      string `json:"mood"`
}

// Generate starts a new generation chain and returns the resulting session
// state. An in-flight generation is superseded.
func (h *ExerciseHandler) Generate(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "generate_exercise")
	defer observability.FinishSpan(span, nil)

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	exReq := &models.ExerciseRequest{
		Level:     req.Level,
		Theme:     models.SanitizeInput(req.Theme),
		WordCount: req.WordCount,
		Mood:      models.SanitizeInput(req.Mood),
	}
	span.SetAttributes(
		attribute.String("exercise.level", exReq.Level),
		attribute.String("exercise.theme", exReq.Theme),
	)

	if err := h.session.Generate(ctx, exReq); err != nil {
		h.logger.Error(ctx, "Exercise generation failed", err)
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.session.Snapshot())
}

// State returns the current session snapshot.
func (h *ExerciseHandler) State(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "exercise_state")
	defer observability.FinishSpan(span, nil)

	c.JSON(http.StatusOK, h.session.Snapshot())
}

// AnswerRequest is the payload for recording a quiz choice.
type AnswerRequest struct {
	Question int    `json:"question"`
	Choice   string `json:"choice" binding:"required"`
}

// Answer records a quiz choice. Re-answering a question overwrites the
// earlier choice.
func (h *ExerciseHandler) Answer(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "answer_question")
	defer observability.FinishSpan(span, nil)

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}
	span.SetAttributes(attribute.Int("quiz.question", req.Question))

	if err := h.session.Answer(req.Question, req.Choice); err != nil {
		h.logger.Warn(ctx, "Quiz answer rejected", map[string]interface{}{"error": err.Error()})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recorded": true})
}

// Submit scores the quiz and returns the score.
func (h *ExerciseHandler) Submit(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_quiz")
	defer observability.FinishSpan(span, nil)

	score, err := h.session.Submit()
	if err != nil {
		h.logger.Warn(ctx, "Quiz submit rejected", map[string]interface{}{"error": err.Error()})
		HandleAppError(c, err)
		return
	}
	span.SetAttributes(attribute.Int("quiz.score", score))

	snapshot := h.session.Snapshot()
	c.JSON(http.StatusOK, gin.H{"score": score, "total": len(snapshot.Quiz)})
}

// ResetQuiz clears answers and score so the quiz can be retaken.
func (h *ExerciseHandler) ResetQuiz(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "reset_quiz")
	defer observability.FinishSpan(span, nil)

	if err := h.session.ResetQuiz(); err != nil {
		h.logger.Warn(ctx, "Quiz reset rejected", map[string]interface{}{"error": err.Error()})
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

// ClozeFromWordsRequest is the payload for a vocabulary-driven cloze exercise.
type ClozeFromWordsRequest struct {
	Words []string `json:"words" binding:"required"`
	Level string   `json:"level" binding:"required"`
}

// StartCloze builds a cloze exercise from the current text.
func (h *ExerciseHandler) StartCloze(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "start_cloze")
	defer observability.FinishSpan(span, nil)

	if err := h.session.StartCloze(ctx); err != nil {
		h.logger.Error(ctx, "Cloze generation failed", err)
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.session.Snapshot())
}

// StartClozeFromWords builds a cloze exercise around a word list.
func (h *ExerciseHandler) StartClozeFromWords(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "start_cloze_from_words")
	defer observability.FinishSpan(span, nil)

	var req ClozeFromWordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}
	if len(req.Words) == 0 {
		HandleValidationError(c, "words", req.Words, "at least one word is required")
		return
	}
	if !h.cfg.IsValidLevel(req.Level) {
		HandleValidationError(c, "level", req.Level, "unknown language level")
		return
	}
	span.SetAttributes(attribute.Int("cloze.word_count", len(req.Words)))

	if err := h.session.StartClozeFromWords(ctx, req.Words, req.Level); err != nil {
		h.logger.Error(ctx, "Cloze generation failed", err)
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.session.Snapshot())
}

// ClozeAnswerRequest is the payload for filling in one blank.
type ClozeAnswerRequest struct {
	Blank int    `json:"blank"`
	Text  string `json:"text"`
}

// AnswerCloze records the learner's text for one blank.
func (h *ExerciseHandler) AnswerCloze(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "answer_cloze")
	defer observability.FinishSpan(span, nil)

	var req ClozeAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	if err := h.session.AnswerCloze(req.Blank, req.Text); err != nil {
		h.logger.Warn(ctx, "Cloze answer rejected", map[string]interface{}{"error": err.Error()})
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recorded": true})
}

// CheckCloze grades the blanks and returns per-blank correctness.
func (h *ExerciseHandler) CheckCloze(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "check_cloze")
	defer observability.FinishSpan(span, nil)

	results, err := h.session.CheckCloze()
	if err != nil {
		h.logger.Warn(ctx, "Cloze check rejected", map[string]interface{}{"error": err.Error()})
		HandleAppError(c, err)
		return
	}

	correct := 0
	for _, r := range results {
		if r {
			correct++
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "correct": correct, "total": len(results)})
}

// ClearCloze drops the cloze exercise and returns to plain reading.
func (h *ExerciseHandler) ClearCloze(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "clear_cloze")
	defer observability.FinishSpan(span, nil)

	h.session.ClearCloze()
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// SaveCurrent archives the current text with its translations and quiz.
func (h *ExerciseHandler) SaveCurrent(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "save_current_text")
	defer observability.FinishSpan(span, nil)

	snapshot, err := h.session.CurrentSnapshotForSave()
	if err != nil {
		HandleAppError(c, err)
		return
	}

	added, err := h.store.SaveText(ctx, *snapshot)
	if err != nil {
		h.logger.Error(ctx, "Failed to save text", err)
		HandleAppError(c, err)
		return
	}
	span.SetAttributes(attribute.Bool("text.added", added))

	c.JSON(http.StatusOK, gin.H{"saved": added, "duplicate": !added})
}
