// Package services provides the content generation service: prompt
// construction, calls to the OpenAI-compatible generation endpoint, and
// schema-validated parsing of the responses.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"lesewerk/internal/config"
	"lesewerk/internal/models"
	"lesewerk/internal/observability"
	contextutils "lesewerk/internal/utils"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// JSON Schema definitions for structured responses. They are sent in the
// 'grammar' field when the provider supports it and are always enforced
// locally after parsing, so a provider without grammar support gets the same
// guarantees.
const (
	// SentencePairsSchema constrains sentence-by-sentence translation output.
	SentencePairsSchema = `{
		"type": "array",
		"items": {
			"type": "object",
			"properties": {
				"german": {"type": "string"},
				"english": {"type": "string"}
			},
			"required": ["german", "english"]
		}
	}`

	// QuizSchema constrains comprehension quiz output.
	QuizSchema = `{
		"type": "array",
		"items": {
			"type": "object",
			"properties": {
				"question": {"type": "string"},
				"options": {"type": "array", "items": {"type": "string"}, "minItems": 4, "maxItems": 4},
				"correct_answer": {"type": "string"}
			},
			"required": ["question", "options", "correct_answer"]
		}
	}`

	// ExplainWordSchema constrains word explanation output.
	ExplainWordSchema = `{
		"type": "object",
		"properties": {
			"explanation": {"type": "string"},
			"examples": {"type": "array", "items": {"type": "string"}, "minItems": 2, "maxItems": 2}
		},
		"required": ["explanation", "examples"]
	}`

	// ClozeSchema constrains cloze exercise output.
	ClozeSchema = `{
		"type": "object",
		"properties": {
			"cloze_text": {"type": "string"},
			"answers": {"type": "array", "items": {"type": "string"}, "minItems": 1}
		},
		"required": ["cloze_text", "answers"]
	}`

	// DistractorsSchema constrains distractor generation output.
	DistractorsSchema = `{
		"type": "array",
		"items": {"type": "string"},
		"minItems": 3,
		"maxItems": 3
	}`
)

// sentencePairTolerance bounds how far the model's own segmentation may
// diverge from the naive splitter before the result is rejected. The naive
// splitter over-splits around abbreviations, so exact equality is too strict.
const sentencePairTolerance = 2

// ContentServiceInterface defines the content generation operations.
type ContentServiceInterface interface {
	GenerateStory(ctx context.Context, req *models.ExerciseRequest) (*models.GeneratedText, error)
	GenerateRandomTheme(ctx context.Context, level, mood string) (string, error)
	Translate(ctx context.Context, text string) (string, error)
	TranslateWord(ctx context.Context, term string) (string, error)
	TranslateSentences(ctx context.Context, text string) ([]models.TranslationPair, error)
	GenerateQuiz(ctx context.Context, text string, count int) ([]models.QuizQuestion, error)
	ExplainWord(ctx context.Context, term, level string) (*models.WordExplanation, error)
	GenerateClozeFromText(ctx context.Context, text, level string) (*models.ClozeExercise, error)
	GenerateClozeFromWords(ctx context.Context, words []string, level string) (*models.ClozeExercise, error)
	GenerateDistractors(ctx context.Context, word, contextSentence string) ([]string, error)
	Shutdown(ctx context.Context) error
}

// AIService implements ContentServiceInterface against an OpenAI-compatible API.
type AIService struct {
	httpClient      *http.Client
	cfg             *config.Config
	templateManager *AITemplateManager
	logger          *observability.Logger

	// Limits total concurrent generation requests.
	semaphore chan struct{}
}

var _ ContentServiceInterface = (*AIService)(nil)

// NewAIService creates a new content service instance.
func NewAIService(cfg *config.Config, logger *observability.Logger) *AIService {
	templateManager, err := NewAITemplateManager()
	if err != nil {
		logger.Error(context.Background(), "Failed to create template manager", err, map[string]interface{}{})
		panic(err) // templates are embedded, failure here is a build defect
	}

	httpClient := &http.Client{
		Timeout: config.AIRequestTimeout - 5*time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}

	return &AIService{
		httpClient:      httpClient,
		cfg:             cfg,
		templateManager: templateManager,
		logger:          logger,
		semaphore:       make(chan struct{}, cfg.Server.MaxAIConcurrent),
	}
}

// Shutdown waits for in-flight requests to drain and closes idle connections.
func (s *AIService) Shutdown(ctx context.Context) error {
	deadline := time.Now().Add(config.AIShutdownTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	ticker := time.NewTicker(config.AIShutdownPollInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		if len(s.semaphore) == 0 {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.httpClient.CloseIdleConnections()
	s.logger.Info(ctx, "Content service shutdown completed")
	return nil
}

// acquireSlot reserves a concurrency slot or fails immediately at capacity.
func (s *AIService) acquireSlot() error {
	select {
	case s.semaphore <- struct{}{}:
		return nil
	default:
		return contextutils.WrapErrorf(contextutils.ErrServiceAtCapacity, "at capacity (%d concurrent requests)", cap(s.semaphore))
	}
}

func (s *AIService) releaseSlot() {
	<-s.semaphore
}

// chatRequest represents a request to the OpenAI-compatible API
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Grammar     string        `json:"grammar,omitempty"`
}

// chatMessage represents a chat message in the API request
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse represents a response from the OpenAI-compatible API
type chatResponse struct {
	Choices []chatChoice  `json:"choices"`
	Error   *chatAPIError `json:"error,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatAPIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// callModel sends one prompt (and optional grammar schema) to the configured
// provider and returns the raw response content. Transport and provider
// failures come back as ErrGenerationFailed, malformed envelopes as
// ErrResponseInvalid; callers never see raw transport errors.
func (s *AIService) callModel(ctx context.Context, prompt, grammar string) (result0 string, err error) {
	_, span := observability.TraceAIFunction(ctx, "call_model",
		attribute.String("ai.provider", s.cfg.Provider.Code),
		attribute.String("ai.model", s.cfg.Provider.Model),
		attribute.Int("prompt.length", len(prompt)),
		attribute.Bool("grammar.enabled", grammar != ""),
	)
	defer observability.FinishSpan(span, &err)

	if prompt == "" {
		return "", contextutils.WrapError(contextutils.ErrProviderConfigInvalid, "prompt cannot be empty")
	}
	if s.cfg.Provider.URL == "" {
		span.SetAttributes(attribute.String("call.result", "no_url_configured"))
		return "", contextutils.WrapErrorf(contextutils.ErrProviderConfigInvalid, "no base URL configured for provider %q", s.cfg.Provider.Code)
	}
	if s.cfg.Provider.Model == "" {
		span.SetAttributes(attribute.String("call.result", "empty_model"))
		return "", contextutils.WrapError(contextutils.ErrProviderConfigInvalid, "model is required")
	}

	if err := s.acquireSlot(); err != nil {
		span.SetAttributes(attribute.String("call.result", "at_capacity"))
		return "", err
	}
	defer s.releaseSlot()

	reqBody := chatRequest{
		Model:       s.cfg.Provider.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   s.cfg.Provider.MaxTokens,
	}
	if s.cfg.Provider.SupportsGrammar && grammar != "" {
		reqBody.Grammar = grammar
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		span.SetAttributes(attribute.String("call.result", "marshal_failed"))
		return "", contextutils.WrapErrorf(err, "failed to marshal request body")
	}

	url := s.cfg.Provider.URL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		span.SetAttributes(attribute.String("call.result", "request_creation_failed"))
		return "", contextutils.WrapErrorf(err, "failed to create HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "lesewerk/1.0")
	if s.cfg.Provider.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Provider.APIKey)
	}

	startTime := time.Now()
	resp, err := s.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		s.logger.Error(ctx, "Generation HTTP request failed", err, map[string]interface{}{
			"duration": duration.String(),
			"url":      url,
		})
		span.SetAttributes(attribute.String("call.result", "http_request_failed"), attribute.String("duration", duration.String()))
		return "", contextutils.WrapErrorf(contextutils.ErrGenerationFailed, "HTTP request failed after %v: %v", duration, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Warn(ctx, "Failed to close response body", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	s.logger.Debug(ctx, "Generation request completed", map[string]interface{}{
		"duration":    duration.String(),
		"status_code": resp.StatusCode,
	})

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.SetAttributes(attribute.String("call.result", "body_read_failed"))
		return "", contextutils.WrapErrorf(contextutils.ErrGenerationFailed, "failed to read response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		span.SetAttributes(attribute.String("call.result", "http_error"), attribute.Int("status_code", resp.StatusCode))
		return "", contextutils.WrapErrorf(contextutils.ErrGenerationFailed, "API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		span.SetAttributes(attribute.String("call.result", "json_unmarshal_failed"))
		return "", contextutils.WrapErrorf(contextutils.ErrResponseInvalid, "failed to parse API response: %v", err)
	}
	if chatResp.Error != nil {
		span.SetAttributes(attribute.String("call.result", "api_error"), attribute.String("error_type", chatResp.Error.Type))
		return "", contextutils.WrapErrorf(contextutils.ErrGenerationFailed, "API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		span.SetAttributes(attribute.String("call.result", "no_choices"))
		return "", contextutils.WrapError(contextutils.ErrResponseInvalid, "no choices in response")
	}

	content := chatResp.Choices[0].Message.Content
	if content == "" {
		span.SetAttributes(attribute.String("call.result", "empty_content"))
		return "", contextutils.WrapError(contextutils.ErrResponseInvalid, "model returned empty content")
	}

	span.SetAttributes(attribute.String("call.result", "success"), attribute.Int("content_length", len(content)))
	return content, nil
}

// cleanJSONResponse strips markdown code fences some providers wrap around JSON.
func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(strings.TrimSpace(response), "```")
	}
	return strings.TrimSpace(response)
}

// validateAgainstSchema checks a raw JSON document against one of the schema
// constants. Any violation is a response-invalid error.
func validateAgainstSchema(document, schema string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(document),
	)
	if err != nil {
		return contextutils.WrapErrorf(contextutils.ErrResponseInvalid, "schema validation errored: %v", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return contextutils.WrapErrorf(contextutils.ErrResponseInvalid, "response failed schema validation: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// parseStructured cleans, schema-checks and unmarshals a structured response.
func parseStructured(response, schema string, out interface{}) error {
	cleaned := cleanJSONResponse(response)
	if err := validateAgainstSchema(cleaned, schema); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return contextutils.WrapErrorf(contextutils.ErrResponseInvalid, "failed to parse structured response: %v", err)
	}
	return nil
}

// GenerateStory generates a level-appropriate story for the request.
func (s *AIService) GenerateStory(ctx context.Context, req *models.ExerciseRequest) (result *models.GeneratedText, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "generate_story",
		attribute.String("exercise.level", req.Level),
		attribute.Int("exercise.word_count", req.WordCount),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.templateManager.RenderTemplate(StoryPromptTemplate, AITemplateData{
		Level:            req.Level,
		LevelDescription: s.cfg.LevelDescription(req.Level),
		Theme:            models.SanitizeInput(req.Theme),
		Mood:             models.SanitizeInput(req.Mood),
		WordCount:        req.WordCount,
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render story prompt")
	}

	body, err := s.callModel(ctx, prompt, "")
	if err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, contextutils.WrapError(contextutils.ErrResponseInvalid, "generated story is empty")
	}

	return &models.GeneratedText{
		Title: req.Theme,
		Body:  body,
		Level: req.Level,
	}, nil
}

// GenerateRandomTheme asks the model for a fresh story theme. The result is
// trimmed and unquoted because models tend to over-format short answers.
func (s *AIService) GenerateRandomTheme(ctx context.Context, level, mood string) (result string, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "generate_random_theme",
		attribute.String("exercise.level", level),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.templateManager.RenderTemplate(RandomThemePromptTemplate, AITemplateData{
		Level:            level,
		LevelDescription: s.cfg.LevelDescription(level),
		Mood:             models.SanitizeInput(mood),
	})
	if err != nil {
		return "", contextutils.WrapErrorf(err, "failed to render theme prompt")
	}

	theme, err := s.callModel(ctx, prompt, "")
	if err != nil {
		return "", err
	}

	return stripSurroundingQuotes(strings.TrimSpace(theme)), nil
}

// stripSurroundingQuotes removes one pair of surrounding quote characters.
func stripSurroundingQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	pairs := map[byte]byte{'"': '"', '\'': '\'', '`': '`'}
	if closing, ok := pairs[s[0]]; ok && s[len(s)-1] == closing {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// Translate translates a whole text from German to English.
func (s *AIService) Translate(ctx context.Context, text string) (result string, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "translate",
		attribute.Int("translate.text_length", len(text)),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.templateManager.RenderTemplate(TranslateTextPromptTemplate, AITemplateData{
		Text: text,
	})
	if err != nil {
		return "", contextutils.WrapErrorf(err, "failed to render translation prompt")
	}

	translated, err := s.callModel(ctx, prompt, "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(translated), nil
}

// TranslateWord translates a single term, most common meaning only.
func (s *AIService) TranslateWord(ctx context.Context, term string) (result string, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "translate_word",
		attribute.String("translate.term", term),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.templateManager.RenderTemplate(TranslateWordPromptTemplate, AITemplateData{
		Word: models.SanitizeInput(term),
	})
	if err != nil {
		return "", contextutils.WrapErrorf(err, "failed to render word translation prompt")
	}

	translated, err := s.callModel(ctx, prompt, "")
	if err != nil {
		return "", err
	}
	return stripSurroundingQuotes(strings.TrimSpace(translated)), nil
}

// TranslateSentences asks the model to segment the text into sentences and
// translate each. The model's segmentation is a trust boundary: shape and both
// fields per entry are checked, and the pair count is compared against a naive
// sentence split of the input. A large divergence fails closed.
func (s *AIService) TranslateSentences(ctx context.Context, text string) (result []models.TranslationPair, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "translate_sentences",
		attribute.Int("translate.text_length", len(text)),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.templateManager.RenderTemplate(SentencePairsPromptTemplate, AITemplateData{
		Text: text,
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render sentence translation prompt")
	}

	response, err := s.callModel(ctx, prompt, SentencePairsSchema)
	if err != nil {
		return nil, err
	}

	var pairs []models.TranslationPair
	if err := parseStructured(response, SentencePairsSchema, &pairs); err != nil {
		return nil, err
	}

	if len(pairs) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrResponseInvalid, "no sentence pairs returned")
	}
	for i, p := range pairs {
		if strings.TrimSpace(p.German) == "" || strings.TrimSpace(p.English) == "" {
			return nil, contextutils.WrapErrorf(contextutils.ErrValidationFailed, "sentence pair %d has an empty field", i)
		}
	}

	expected := len(models.SplitSentences(text))
	if diff := len(pairs) - expected; diff > sentencePairTolerance || diff < -sentencePairTolerance {
		span.SetAttributes(attribute.Int("translate.expected_sentences", expected), attribute.Int("translate.got_pairs", len(pairs)))
		return nil, contextutils.WrapErrorf(contextutils.ErrValidationFailed,
			"sentence count mismatch: input splits into %d sentences but model returned %d pairs", expected, len(pairs))
	}

	return pairs, nil
}

// GenerateQuiz builds comprehension questions over the text. Each question is
// checked post-parse for the four-unique-options and correct-answer-membership
// invariants; a violation is treated as a parse failure, not passed through.
func (s *AIService) GenerateQuiz(ctx context.Context, text string, count int) (result []models.QuizQuestion, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "generate_quiz",
		attribute.Int("quiz.question_count", count),
	)
	defer observability.FinishSpan(span, &err)

	if count <= 0 {
		count = config.DefaultQuizQuestions
	}

	prompt, err := s.templateManager.RenderTemplate(QuizPromptTemplate, AITemplateData{
		Text:  text,
		Count: count,
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render quiz prompt")
	}

	response, err := s.callModel(ctx, prompt, QuizSchema)
	if err != nil {
		return nil, err
	}

	var questions []models.QuizQuestion
	if err := parseStructured(response, QuizSchema, &questions); err != nil {
		return nil, err
	}

	if len(questions) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrResponseInvalid, "no quiz questions returned")
	}
	for i := range questions {
		if err := questions[i].Validate(); err != nil {
			return nil, contextutils.WrapErrorf(err, "quiz question %d invalid", i)
		}
	}

	return questions, nil
}

// ExplainWord produces a level-appropriate explanation with example sentences.
func (s *AIService) ExplainWord(ctx context.Context, term, level string) (result *models.WordExplanation, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "explain_word",
		attribute.String("explain.term", term),
		attribute.String("exercise.level", level),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.templateManager.RenderTemplate(ExplainWordPromptTemplate, AITemplateData{
		Word:             models.SanitizeInput(term),
		Level:            level,
		LevelDescription: s.cfg.LevelDescription(level),
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render explanation prompt")
	}

	response, err := s.callModel(ctx, prompt, ExplainWordSchema)
	if err != nil {
		return nil, err
	}

	var explanation models.WordExplanation
	if err := parseStructured(response, ExplainWordSchema, &explanation); err != nil {
		return nil, err
	}
	if err := explanation.Validate(s.cfg.Exercise.ExplainExamples); err != nil {
		return nil, err
	}

	return &explanation, nil
}

// GenerateClozeFromText lets the model pick words to blank in an existing text.
func (s *AIService) GenerateClozeFromText(ctx context.Context, text, level string) (result *models.ClozeExercise, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "generate_cloze_from_text",
		attribute.String("exercise.level", level),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.templateManager.RenderTemplate(ClozeFromTextPromptTemplate, AITemplateData{
		Text:             text,
		Level:            level,
		LevelDescription: s.cfg.LevelDescription(level),
		Count:            s.cfg.Exercise.ClozeBlanks,
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render cloze prompt")
	}

	return s.parseCloze(ctx, prompt, nil)
}

// GenerateClozeFromWords generates a text around the given vocabulary with one
// blank per word.
func (s *AIService) GenerateClozeFromWords(ctx context.Context, words []string, level string) (result *models.ClozeExercise, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "generate_cloze_from_words",
		attribute.String("exercise.level", level),
		attribute.Int("cloze.word_count", len(words)),
	)
	defer observability.FinishSpan(span, &err)

	if len(words) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "word list is empty")
	}
	sanitized := make([]string, len(words))
	for i, w := range words {
		sanitized[i] = models.SanitizeInput(w)
	}

	prompt, err := s.templateManager.RenderTemplate(ClozeFromWordsPromptTemplate, AITemplateData{
		Words:            sanitized,
		Level:            level,
		LevelDescription: s.cfg.LevelDescription(level),
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render cloze prompt")
	}

	return s.parseCloze(ctx, prompt, sanitized)
}

// parseCloze runs the cloze call and enforces the blank/answer contract. This
// is the most error-prone model contract in the system, so the alignment is
// validated defensively rather than assumed.
func (s *AIService) parseCloze(ctx context.Context, prompt string, requiredWords []string) (*models.ClozeExercise, error) {
	response, err := s.callModel(ctx, prompt, ClozeSchema)
	if err != nil {
		return nil, err
	}

	var cloze models.ClozeExercise
	if err := parseStructured(response, ClozeSchema, &cloze); err != nil {
		return nil, err
	}
	if err := cloze.Validate(); err != nil {
		return nil, err
	}

	// When the caller supplied the vocabulary, every word must be answered
	// exactly once.
	if requiredWords != nil {
		if len(cloze.Answers) != len(requiredWords) {
			return nil, contextutils.WrapErrorf(contextutils.ErrValidationFailed,
				"expected %d answers for supplied words, got %d", len(requiredWords), len(cloze.Answers))
		}
		for _, w := range requiredWords {
			found := false
			for _, a := range cloze.Answers {
				if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(w)) {
					found = true
					break
				}
			}
			if !found {
				return nil, contextutils.WrapErrorf(contextutils.ErrValidationFailed, "supplied word %q missing from answers", w)
			}
		}
	}

	return &cloze, nil
}

// GenerateDistractors produces exactly three plausible but incorrect options
// for a blanked word in context.
func (s *AIService) GenerateDistractors(ctx context.Context, word, contextSentence string) (result []string, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "generate_distractors",
		attribute.String("distractors.word", word),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.templateManager.RenderTemplate(DistractorsPromptTemplate, AITemplateData{
		Word:            models.SanitizeInput(word),
		ContextSentence: models.SanitizeInput(contextSentence),
		Count:           s.cfg.Exercise.DistractorCount,
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render distractor prompt")
	}

	response, err := s.callModel(ctx, prompt, DistractorsSchema)
	if err != nil {
		return nil, err
	}

	var distractors []string
	if err := parseStructured(response, DistractorsSchema, &distractors); err != nil {
		return nil, err
	}

	if len(distractors) != s.cfg.Exercise.DistractorCount {
		return nil, contextutils.WrapErrorf(contextutils.ErrValidationFailed,
			"expected %d distractors, got %d", s.cfg.Exercise.DistractorCount, len(distractors))
	}
	seen := make(map[string]bool, len(distractors))
	for _, d := range distractors {
		lower := strings.ToLower(strings.TrimSpace(d))
		if lower == "" {
			return nil, contextutils.WrapError(contextutils.ErrValidationFailed, "empty distractor")
		}
		if lower == strings.ToLower(strings.TrimSpace(word)) {
			return nil, contextutils.WrapErrorf(contextutils.ErrValidationFailed, "distractor %q equals the correct word", d)
		}
		if seen[lower] {
			return nil, contextutils.WrapErrorf(contextutils.ErrValidationFailed, "duplicate distractor %q", d)
		}
		seen[lower] = true
	}

	return distractors, nil
}
