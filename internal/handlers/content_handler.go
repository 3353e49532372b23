package handlers

import (
	"net/http"

	"lesewerk/internal/config"
	"lesewerk/internal/models"
	"lesewerk/internal/observability"
	"lesewerk/internal/services"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ContentHandler exposes the stateless content operations: translation,
// word lookups and random theme suggestions.
type ContentHandler struct {
	content services.ContentServiceInterface
	cfg     *config.Config
	logger  *observability.Logger
}

// NewContentHandler creates a new ContentHandler instance
func NewContentHandler(content services.ContentServiceInterface, cfg *config.Config, logger *observability.Logger) *ContentHandler {
	return &ContentHandler{
		content: content,
		cfg:     cfg,
		logger:  logger,
	}
}

// TranslateRequest is the payload for whole-text translation.
type TranslateRequest struct {
	Text string `json:"text" binding:"required"`
}

// TranslateText translates a full German text to English.
func (h *ContentHandler) TranslateText(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "translate_text")
	defer observability.FinishSpan(span, nil)

	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn(ctx, "Invalid translation request format", map[string]interface{}{"error": err.Error()})
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	text := models.SanitizeInput(req.Text)
	if text == "" {
		HandleValidationError(c, "text", req.Text, "text cannot be empty")
		return
	}
	span.SetAttributes(attribute.Int("translation.text_length", len(text)))

	translated, err := h.content.Translate(ctx, text)
	if err != nil {
		h.logger.Error(ctx, "Translation failed", err)
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"translation": translated})
}

// WordRequest is the payload for single-word operations.
type WordRequest struct {
	Word    string `json:"word" binding:"required"`
	Level   string `json:"level"`
	Context string `json:"context"`
}

// TranslateWord translates a single German term, using sense disambiguation
// from the model rather than a dictionary lookup.
func (h *ContentHandler) TranslateWord(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "translate_word")
	defer observability.FinishSpan(span, nil)

	var req WordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	word := models.SanitizeInput(req.Word)
	if word == "" {
		HandleValidationError(c, "word", req.Word, "word cannot be empty")
		return
	}
	span.SetAttributes(attribute.String("word.term", word))

	translation, err := h.content.TranslateWord(ctx, word)
	if err != nil {
		h.logger.Error(ctx, "Word translation failed", err)
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"word": word, "translation": translation})
}

// ExplainWord returns a learner-level explanation of a term with example
// sentences.
func (h *ContentHandler) ExplainWord(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "explain_word")
	defer observability.FinishSpan(span, nil)

	var req WordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	word := models.SanitizeInput(req.Word)
	if word == "" {
		HandleValidationError(c, "word", req.Word, "word cannot be empty")
		return
	}
	level := req.Level
	if level == "" {
		level = h.cfg.Levels.Levels[0]
	}
	if !h.cfg.IsValidLevel(level) {
		HandleValidationError(c, "level", req.Level, "unknown language level")
		return
	}
	span.SetAttributes(
		attribute.String("word.term", word),
		attribute.String("word.level", level),
	)

	explanation, err := h.content.ExplainWord(ctx, word, level)
	if err != nil {
		h.logger.Error(ctx, "Word explanation failed", err)
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, explanation)
}

// Distractors returns wrong-answer candidates for a word in context.
func (h *ContentHandler) Distractors(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "distractors")
	defer observability.FinishSpan(span, nil)

	var req WordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	word := models.SanitizeInput(req.Word)
	if word == "" {
		HandleValidationError(c, "word", req.Word, "word cannot be empty")
		return
	}
	if models.SanitizeInput(req.Context) == "" {
		HandleValidationError(c, "context", req.Context, "context sentence is required")
		return
	}
	span.SetAttributes(attribute.String("word.term", word))

	distractors, err := h.content.GenerateDistractors(ctx, word, req.Context)
	if err != nil {
		h.logger.Error(ctx, "Distractor generation failed", err)
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"word": word, "distractors": distractors})
}

// RandomTheme suggests a story theme for the given level and mood.
func (h *ContentHandler) RandomTheme(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "random_theme")
	defer observability.FinishSpan(span, nil)

	level := c.Query("level")
	if level == "" {
		level = h.cfg.Levels.Levels[0]
	}
	if !h.cfg.IsValidLevel(level) {
		HandleValidationError(c, "level", level, "unknown language level")
		return
	}
	mood := models.SanitizeInput(c.Query("mood"))
	span.SetAttributes(
		attribute.String("theme.level", level),
		attribute.String("theme.mood", mood),
	)

	theme, err := h.content.GenerateRandomTheme(ctx, level, mood)
	if err != nil {
		h.logger.Error(ctx, "Random theme generation failed", err)
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

// Levels lists the configured language levels with their descriptions.
func (h *ContentHandler) Levels(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "levels")
	defer observability.FinishSpan(span, nil)

	levels := make([]gin.H, 0, len(h.cfg.Levels.Levels))
	for _, l := range h.cfg.Levels.Levels {
		levels = append(levels, gin.H{
			"level":       l,
			"description": h.cfg.LevelDescription(l),
		})
	}
	c.JSON(http.StatusOK, gin.H{"levels": levels})
}
