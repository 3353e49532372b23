package exercise

import (
	"context"
	"testing"

	"lesewerk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSpeaker records spoken sentences and can cancel mid-run.
type recordingSpeaker struct {
	spoken      []string
	cancelAfter int
	cancel      context.CancelFunc
	err         error
}

func (r *recordingSpeaker) Speak(_ context.Context, sentence string) error {
	r.spoken = append(r.spoken, sentence)
	if r.cancel != nil && len(r.spoken) == r.cancelAfter {
		r.cancel()
	}
	return r.err
}

func TestSpeakAll_DocumentOrderExactlyOnce(t *testing.T) {
	session := newTestSession(&fakeContent{})
	require.NoError(t, session.Generate(context.Background(), validRequest()))

	speaker := &recordingSpeaker{}
	require.NoError(t, session.SpeakAll(context.Background(), speaker))

	assert.Equal(t, []string{"Anna wohnt in Berlin.", "Sie arbeitet viel."}, speaker.spoken)
}

func TestSpeakAll_FallsBackToNaiveSplitWithoutTranslations(t *testing.T) {
	session := newTestSession(&fakeContent{})
	session.LoadSaved(models.SavedText{
		Title: "T",
		Body:  "Erster Satz. Zweiter Satz!",
		Level: "A2",
	})

	speaker := &recordingSpeaker{}
	require.NoError(t, session.SpeakAll(context.Background(), speaker))

	assert.Equal(t, []string{"Erster Satz.", "Zweiter Satz!"}, speaker.spoken)
}

func TestSpeakAll_CancellationIsACleanStop(t *testing.T) {
	session := newTestSession(&fakeContent{})
	require.NoError(t, session.Generate(context.Background(), validRequest()))

	ctx, cancel := context.WithCancel(context.Background())
	speaker := &recordingSpeaker{cancelAfter: 1, cancel: cancel}

	require.NoError(t, session.SpeakAll(ctx, speaker))
	assert.Len(t, speaker.spoken, 1, "no further sentence after cancellation")
}

func TestSpeakAll_SpeakerErrorPropagates(t *testing.T) {
	session := newTestSession(&fakeContent{})
	require.NoError(t, session.Generate(context.Background(), validRequest()))

	speaker := &recordingSpeaker{err: assert.AnError}
	err := session.SpeakAll(context.Background(), speaker)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSpeakAll_NoText(t *testing.T) {
	session := newTestSession(&fakeContent{})

	speaker := &recordingSpeaker{}
	require.NoError(t, session.SpeakAll(context.Background(), speaker))
	assert.Empty(t, speaker.spoken)
}
