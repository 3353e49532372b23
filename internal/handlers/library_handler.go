package handlers

import (
	"net/http"
	"strconv"

	"lesewerk/internal/config"
	"lesewerk/internal/exercise"
	"lesewerk/internal/models"
	"lesewerk/internal/observability"
	"lesewerk/internal/store"
	contextutils "lesewerk/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// LibraryHandler serves the persisted collections: favorite word lists and
// the saved text archive.
type LibraryHandler struct {
	store   *store.Store
	session *exercise.Session
	cfg     *config.Config
	logger  *observability.Logger
}

// NewLibraryHandler creates a new LibraryHandler instance
func NewLibraryHandler(st *store.Store, session *exercise.Session, cfg *config.Config, logger *observability.Logger) *LibraryHandler {
	return &LibraryHandler{
		store:   st,
		session: session,
		cfg:     cfg,
		logger:  logger,
	}
}

// GetFavoriteLists returns all favorite lists.
func (h *LibraryHandler) GetFavoriteLists(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_favorite_lists")
	defer observability.FinishSpan(span, nil)

	lists, err := h.store.FavoriteLists(ctx)
	if err != nil {
		h.logger.Error(ctx, "Failed to load favorite lists", err)
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lists": lists})
}

// FavoriteListRequest is the payload for creating a list.
type FavoriteListRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateFavoriteList creates a new empty list.
func (h *LibraryHandler) CreateFavoriteList(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_favorite_list")
	defer observability.FinishSpan(span, nil)

	var req FavoriteListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	name := models.SanitizeInput(req.Name)
	if name == "" {
		HandleValidationError(c, "name", req.Name, "list name cannot be empty")
		return
	}

	if h.cfg.Exercise.MaxFavoriteLists > 0 {
		lists, err := h.store.FavoriteLists(ctx)
		if err != nil {
			HandleAppError(c, err)
			return
		}
		if len(lists) >= h.cfg.Exercise.MaxFavoriteLists {
			HandleValidationError(c, "name", name, "maximum number of lists reached")
			return
		}
	}

	list, err := h.store.AddFavoriteList(ctx, name)
	if err != nil {
		h.logger.Error(ctx, "Failed to create favorite list", err)
		HandleAppError(c, err)
		return
	}
	span.SetAttributes(attribute.String("list.id", list.ID))

	c.JSON(http.StatusCreated, list)
}

// DeleteFavoriteList removes a list by id.
func (h *LibraryHandler) DeleteFavoriteList(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_favorite_list")
	defer observability.FinishSpan(span, nil)

	id := c.Param("id")
	span.SetAttributes(attribute.String("list.id", id))

	if err := h.store.DeleteFavoriteList(ctx, id); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// FavoriteWordRequest is the payload for adding a word to a list.
type FavoriteWordRequest struct {
	German  string `json:"german" binding:"required"`
	English string `json:"english"`
}

// AddFavoriteWord adds a word to a list. Duplicates are reported, not errors.
func (h *LibraryHandler) AddFavoriteWord(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "add_favorite_word")
	defer observability.FinishSpan(span, nil)

	var req FavoriteWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	listID := c.Param("id")
	word := models.FavoriteWord{
		German:  models.SanitizeInput(req.German),
		English: models.SanitizeInput(req.English),
	}
	if word.German == "" {
		HandleValidationError(c, "german", req.German, "word cannot be empty")
		return
	}
	span.SetAttributes(
		attribute.String("list.id", listID),
		attribute.String("word.german", word.German),
	)

	if err := h.store.AddFavoriteWord(ctx, listID, word); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": true})
}

// RemoveFavoriteWord removes a word from a list by its German term.
func (h *LibraryHandler) RemoveFavoriteWord(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "remove_favorite_word")
	defer observability.FinishSpan(span, nil)

	listID := c.Param("id")
	term := c.Param("word")
	span.SetAttributes(
		attribute.String("list.id", listID),
		attribute.String("word.german", term),
	)

	if err := h.store.RemoveFavoriteWord(ctx, listID, term); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// GetSavedTexts returns the archive in save order.
func (h *LibraryHandler) GetSavedTexts(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_saved_texts")
	defer observability.FinishSpan(span, nil)

	texts, err := h.store.SavedTexts(ctx)
	if err != nil {
		h.logger.Error(ctx, "Failed to load saved texts", err)
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"texts": texts})
}

// LoadSavedText restores an archived text into the active session.
func (h *LibraryHandler) LoadSavedText(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "load_saved_text")
	defer observability.FinishSpan(span, nil)

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		HandleValidationError(c, "index", c.Param("index"), "index must be a number")
		return
	}

	texts, err := h.store.SavedTexts(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	if index < 0 || index >= len(texts) {
		HandleAppError(c, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "no saved text at index %d", index))
		return
	}
	span.SetAttributes(attribute.Int("text.index", index))

	h.session.LoadSaved(texts[index])
	c.JSON(http.StatusOK, h.session.Snapshot())
}

// DeleteTextRequest identifies an archive entry by its body.
type DeleteTextRequest struct {
	Body string `json:"body" binding:"required"`
}

// DeleteSavedText removes an archive entry by exact body match.
func (h *LibraryHandler) DeleteSavedText(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_saved_text")
	defer observability.FinishSpan(span, nil)

	var req DeleteTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	if err := h.store.DeleteText(ctx, req.Body); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ExportTexts downloads the archive as one plain-text document.
func (h *LibraryHandler) ExportTexts(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "export_texts")
	defer observability.FinishSpan(span, nil)

	content, err := h.store.ExportTexts(ctx)
	if err != nil {
		h.logger.Error(ctx, "Failed to export texts", err)
		HandleAppError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="saved_texts.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
}
