package store

import (
	"context"
	"encoding/json"

	"lesewerk/internal/config"
	"lesewerk/internal/models"
	"lesewerk/internal/observability"
	contextutils "lesewerk/internal/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// FavoriteLists loads all favorite lists. A missing or malformed value yields
// an empty slice, never an error.
func (s *Store) FavoriteLists(ctx context.Context) (result0 []models.FavoriteList, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "favorite_lists")
	defer observability.FinishSpan(span, &err)

	raw, err := s.get(ctx, config.StoreKeyFavoriteLists)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return []models.FavoriteList{}, nil
	}

	var lists []models.FavoriteList
	if err := json.Unmarshal([]byte(raw), &lists); err != nil {
		s.logger.Warn(ctx, "Malformed favorite lists value, treating as empty", map[string]interface{}{
			"error": err.Error(),
		})
		return []models.FavoriteList{}, nil
	}
	return lists, nil
}

// saveFavoriteLists overwrites the whole collection.
func (s *Store) saveFavoriteLists(ctx context.Context, lists []models.FavoriteList) error {
	data, err := json.Marshal(lists)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to serialize favorite lists")
	}
	return s.set(ctx, config.StoreKeyFavoriteLists, string(data))
}

// AddFavoriteList creates a new empty list and returns it.
func (s *Store) AddFavoriteList(ctx context.Context, name string) (result0 *models.FavoriteList, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "add_favorite_list", attribute.String("list.name", name))
	defer observability.FinishSpan(span, &err)

	if name == "" {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "list name is required")
	}

	lists, err := s.FavoriteLists(ctx)
	if err != nil {
		return nil, err
	}

	list := models.FavoriteList{
		ID:    uuid.NewString(),
		Name:  name,
		Words: []models.FavoriteWord{},
	}
	lists = append(lists, list)

	if err := s.saveFavoriteLists(ctx, lists); err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteFavoriteList removes a list by id.
func (s *Store) DeleteFavoriteList(ctx context.Context, id string) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "delete_favorite_list", attribute.String("list.id", id))
	defer observability.FinishSpan(span, &err)

	lists, err := s.FavoriteLists(ctx)
	if err != nil {
		return err
	}

	for i, l := range lists {
		if l.ID == id {
			lists = append(lists[:i], lists[i+1:]...)
			return s.saveFavoriteLists(ctx, lists)
		}
	}
	return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "no favorite list with id %s", id)
}

// AddFavoriteWord adds a word to a list. Duplicate terms (case-insensitive)
// are a no-op, not an error.
func (s *Store) AddFavoriteWord(ctx context.Context, listID string, word models.FavoriteWord) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "add_favorite_word",
		attribute.String("list.id", listID),
		attribute.String("word.german", word.German),
	)
	defer observability.FinishSpan(span, &err)

	if word.German == "" {
		return contextutils.WrapError(contextutils.ErrInvalidInput, "word is required")
	}

	lists, err := s.FavoriteLists(ctx)
	if err != nil {
		return err
	}

	for i := range lists {
		if lists[i].ID == listID {
			if !lists[i].AddWord(word) {
				span.SetAttributes(attribute.Bool("word.duplicate", true))
				return nil
			}
			return s.saveFavoriteLists(ctx, lists)
		}
	}
	return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "no favorite list with id %s", listID)
}

// RemoveFavoriteWord removes a word from a list by its German term.
func (s *Store) RemoveFavoriteWord(ctx context.Context, listID, term string) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "remove_favorite_word",
		attribute.String("list.id", listID),
		attribute.String("word.german", term),
	)
	defer observability.FinishSpan(span, &err)

	lists, err := s.FavoriteLists(ctx)
	if err != nil {
		return err
	}

	for i := range lists {
		if lists[i].ID == listID {
			if !lists[i].RemoveWord(term) {
				return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "word %q not in list", term)
			}
			return s.saveFavoriteLists(ctx, lists)
		}
	}
	return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "no favorite list with id %s", listID)
}
