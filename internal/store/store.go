// Package store persists the two client collections (favorite lists and
// saved texts) as string-keyed JSON blobs in a local sqlite file, the
// server-side analog of the browser's local storage. Reads are fail-soft:
// an absent or malformed value is treated as an empty collection. Writes
// replace the whole value.
package store

import (
	"context"
	"database/sql"
	"sync"

	"lesewerk/internal/config"
	"lesewerk/internal/observability"
	contextutils "lesewerk/internal/utils"

	"go.nhat.io/otelsql"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

var (
	otelDriverOnce      sync.Once
	otelDriverNameCache string
	otelDriverErr       error
)

// Store wraps the sqlite-backed key-value table.
type Store struct {
	db     *sql.DB
	logger *observability.Logger
}

// Open opens (and if needed creates) the store file.
func Open(cfg config.StoreConfig, logger *observability.Logger) (result0 *Store, err error) {
	ctx, span := observability.TraceStoreFunction(context.Background(), "open",
		attribute.String("store.path", cfg.Path),
	)
	defer observability.FinishSpan(span, &err)

	otelDriverOnce.Do(func() {
		otelDriverNameCache, otelDriverErr = otelsql.Register("sqlite",
			otelsql.WithDatabaseName(cfg.Path),
			otelsql.WithSystem(semconv.DBSystemSqlite),
		)
	})
	if otelDriverErr != nil {
		return nil, contextutils.WrapError(otelDriverErr, "failed to register otelsql driver")
	}

	db, err := sql.Open(otelDriverNameCache, cfg.Path)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrStoreUnavailable, "failed to open store: "+err.Error())
	}

	// Single local file, single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error(ctx, "Failed to close store after schema failure", closeErr)
		}
		return nil, contextutils.WrapError(contextutils.ErrStoreUnavailable, "failed to create kv table: "+err.Error())
	}

	logger.Info(ctx, "Store opened", map[string]interface{}{"path": cfg.Path})
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// get returns the raw value for a key, or "" when the key is absent.
func (s *Store) get(ctx context.Context, key string) (result0 string, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "get", attribute.String("store.key", key))
	defer observability.FinishSpan(span, &err)

	var value string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", contextutils.WrapError(contextutils.ErrStoreUnavailable, "failed to read key "+key+": "+err.Error())
	}
	return value, nil
}

// set overwrites the value for a key.
func (s *Store) set(ctx context.Context, key, value string) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "set", attribute.String("store.key", key))
	defer observability.FinishSpan(span, &err)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrStoreUnavailable, "failed to write key "+key+": "+err.Error())
	}
	return nil
}

// Clear removes a key entirely. Used by the maintenance CLI.
func (s *Store) Clear(ctx context.Context, key string) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "clear", attribute.String("store.key", key))
	defer observability.FinishSpan(span, &err)

	if _, err = s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return contextutils.WrapError(contextutils.ErrStoreUnavailable, "failed to clear key "+key+": "+err.Error())
	}
	return nil
}
