package store

import (
	"context"
	"encoding/json"

	"lesewerk/internal/config"
	"lesewerk/internal/models"
	"lesewerk/internal/observability"
	contextutils "lesewerk/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// SavedTexts loads the archive in save order. A missing or malformed value
// yields an empty slice, never an error.
func (s *Store) SavedTexts(ctx context.Context) (result0 []models.SavedText, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "saved_texts")
	defer observability.FinishSpan(span, &err)

	raw, err := s.get(ctx, config.StoreKeySavedTexts)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return []models.SavedText{}, nil
	}

	var texts []models.SavedText
	if err := json.Unmarshal([]byte(raw), &texts); err != nil {
		s.logger.Warn(ctx, "Malformed saved texts value, treating as empty", map[string]interface{}{
			"error": err.Error(),
		})
		return []models.SavedText{}, nil
	}
	return texts, nil
}

func (s *Store) saveSavedTexts(ctx context.Context, texts []models.SavedText) error {
	data, err := json.Marshal(texts)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to serialize saved texts")
	}
	return s.set(ctx, config.StoreKeySavedTexts, string(data))
}

// SaveText appends a snapshot to the archive. Saving a text whose body already
// exists (exact string match) is a no-op. Returns true when the archive grew.
func (s *Store) SaveText(ctx context.Context, text models.SavedText) (result0 bool, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "save_text", attribute.String("text.title", text.Title))
	defer observability.FinishSpan(span, &err)

	if text.Body == "" {
		return false, contextutils.WrapError(contextutils.ErrInvalidInput, "text body is required")
	}

	texts, err := s.SavedTexts(ctx)
	if err != nil {
		return false, err
	}

	for _, existing := range texts {
		if existing.Body == text.Body {
			span.SetAttributes(attribute.Bool("text.duplicate", true))
			return false, nil
		}
	}

	texts = append(texts, text)
	if err := s.saveSavedTexts(ctx, texts); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteText removes the archive entry whose body matches exactly.
func (s *Store) DeleteText(ctx context.Context, body string) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "delete_text")
	defer observability.FinishSpan(span, &err)

	texts, err := s.SavedTexts(ctx)
	if err != nil {
		return err
	}

	for i, t := range texts {
		if t.Body == body {
			texts = append(texts[:i], texts[i+1:]...)
			return s.saveSavedTexts(ctx, texts)
		}
	}
	return contextutils.WrapError(contextutils.ErrRecordNotFound, "no saved text with matching body")
}
