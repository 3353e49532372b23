package exercise

import (
	"context"

	"lesewerk/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// Speaker renders one sentence of speech and returns when playback finishes.
// Implementations are expected to honor context cancellation mid-sentence.
type Speaker interface {
	Speak(ctx context.Context, sentence string) error
}

// SpeakAll reads the current text aloud, one sentence at a time in document
// order, each exactly once. The next sentence starts only after the previous
// one returns, so playback never overlaps. Cancelling the context stops
// playback cleanly and is not reported as an error.
func (s *Session) SpeakAll(ctx context.Context, speaker Speaker) (err error) {
	sentences := s.Sentences()

	ctx, span := observability.TraceExerciseFunction(ctx, "speak_all",
		attribute.Int("speech.sentence_count", len(sentences)),
	)
	defer observability.FinishSpan(span, &err)

	for i, sentence := range sentences {
		if ctx.Err() != nil {
			span.SetAttributes(attribute.Int("speech.stopped_at", i))
			return nil
		}
		if err := speaker.Speak(ctx, sentence); err != nil {
			if ctx.Err() != nil {
				span.SetAttributes(attribute.Int("speech.stopped_at", i))
				return nil
			}
			return err
		}
	}
	return nil
}
