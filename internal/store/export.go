package store

import (
	"context"
	"fmt"
	"strings"

	"lesewerk/internal/observability"
)

// ExportTexts renders the archive as one plain-text document: each entry as a
// titled block with a `--- title (level) ---` header, a blank line, the body,
// and a trailing blank line.
func (s *Store) ExportTexts(ctx context.Context) (result0 string, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "export_texts")
	defer observability.FinishSpan(span, &err)

	texts, err := s.SavedTexts(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, t := range texts {
		fmt.Fprintf(&b, "--- %s (%s) ---\n\n%s\n\n", t.Title, t.Level, t.Body)
	}
	return b.String(), nil
}
