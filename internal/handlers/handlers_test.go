package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"lesewerk/internal/config"
	"lesewerk/internal/exercise"
	"lesewerk/internal/models"
	"lesewerk/internal/observability"
	"lesewerk/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeContent serves canned answers so router tests never hit a model.
type fakeContent struct{}

func (fakeContent) GenerateStory(_ context.Context, req *models.ExerciseRequest) (*models.GeneratedText, error) {
	return &models.GeneratedText{Title: req.Theme, Body: "Anna wohnt in Berlin. Sie arbeitet viel.", Level: req.Level}, nil
}

func (fakeContent) GenerateRandomTheme(context.Context, string, string) (string, error) {
	return "Ein Besuch im Zoo", nil
}

func (fakeContent) Translate(context.Context, string) (string, error) {
	return "Anna lives in Berlin.", nil
}

func (fakeContent) TranslateWord(context.Context, string) (string, error) {
	return "to live", nil
}

func (fakeContent) TranslateSentences(context.Context, string) ([]models.TranslationPair, error) {
	return []models.TranslationPair{
		{German: "Anna wohnt in Berlin.", English: "Anna lives in Berlin."},
		{German: "Sie arbeitet viel.", English: "She works a lot."},
	}, nil
}

func (fakeContent) GenerateQuiz(context.Context, string, int) ([]models.QuizQuestion, error) {
	return []models.QuizQuestion{
		{Question: "Wo wohnt Anna?", Options: []string{"Berlin", "Hamburg", "München", "Köln"}, CorrectAnswer: "Berlin"},
	}, nil
}

func (fakeContent) ExplainWord(context.Context, string, string) (*models.WordExplanation, error) {
	return &models.WordExplanation{Explanation: "wohnen means to live", Examples: []string{"a", "b"}}, nil
}

func (fakeContent) GenerateClozeFromText(context.Context, string, string) (*models.ClozeExercise, error) {
	return &models.ClozeExercise{ClozeText: "Anna ___ in Berlin.", Answers: []string{"wohnt"}}, nil
}

func (fakeContent) GenerateClozeFromWords(_ context.Context, words []string, _ string) (*models.ClozeExercise, error) {
	text := ""
	for range words {
		text += "___ "
	}
	return &models.ClozeExercise{ClozeText: text, Answers: words}, nil
}

func (fakeContent) GenerateDistractors(context.Context, string, string) ([]string, error) {
	return []string{"läuft", "schwimmt", "fliegt"}, nil
}

func (fakeContent) Shutdown(context.Context) error { return nil }

func routerConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "8080", CORSOrigins: []string{"http://localhost"}},
		Levels: config.LevelConfig{
			Levels:       []string{"A1", "A2", "B1", "B2", "C1", "C2"},
			Descriptions: map[string]string{"A2": "Elementary"},
		},
		Exercise: config.ExerciseConfig{
			MinStoryWords:    50,
			MaxStoryWords:    400,
			QuizQuestions:    1,
			ClozeBlanks:      5,
			ExplainExamples:  2,
			DistractorCount:  3,
			MaxFavoriteLists: 2,
		},
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := routerConfig()
	logger := observability.NewLogger(&config.OpenTelemetryConfig{})

	st, err := store.Open(config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	session := exercise.NewSession(fakeContent{}, cfg, logger)
	return NewRouter(cfg, fakeContent{}, session, st, logger)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestLevelsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/v1/levels", nil)
	require.Equal(t, http.StatusOK, w.Code)

	levels := decodeBody(t, w)["levels"].([]interface{})
	assert.Len(t, levels, 6)
}

func TestGenerateAndQuizFlow(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/exercise/generate", map[string]interface{}{
		"level":      "A2",
		"theme":      "Ein Tag in Berlin",
		"word_count": 120,
	})
	require.Equal(t, http.StatusOK, w.Code)

	state := decodeBody(t, w)
	assert.Equal(t, "ready", state["state"])
	assert.NotNil(t, state["text"])

	w = doJSON(t, router, http.MethodPost, "/v1/exercise/quiz/answer", map[string]interface{}{
		"question": 0,
		"choice":   "Berlin",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/exercise/quiz/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)

	result := decodeBody(t, w)
	assert.Equal(t, float64(1), result["score"])
	assert.Equal(t, float64(1), result["total"])
}

func TestGenerate_UnknownLevelRejected(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/exercise/generate", map[string]interface{}{
		"level":      "X9",
		"theme":      "Berlin",
		"word_count": 120,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeBody(t, w)["code"])
}

func TestSaveCurrentText_DuplicateReported(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/exercise/generate", map[string]interface{}{
		"level":      "A2",
		"theme":      "Ein Tag in Berlin",
		"word_count": 120,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/exercise/save", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["saved"])

	w = doJSON(t, router, http.MethodPost, "/v1/exercise/save", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["saved"])
	assert.Equal(t, true, body["duplicate"])
}

func TestClozeFlow(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/exercise/generate", map[string]interface{}{
		"level":      "A2",
		"theme":      "Ein Tag in Berlin",
		"word_count": 120,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/exercise/cloze", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decodeBody(t, w)["cloze"])

	w = doJSON(t, router, http.MethodPost, "/v1/exercise/cloze/answer", map[string]interface{}{
		"blank": 0,
		"text":  "wohnt",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/exercise/cloze/check", nil)
	require.Equal(t, http.StatusOK, w.Code)

	result := decodeBody(t, w)
	assert.Equal(t, float64(1), result["correct"])
	assert.Equal(t, float64(1), result["total"])
}

func TestFavoritesEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/favorites", map[string]string{"name": "Verbs"})
	require.Equal(t, http.StatusCreated, w.Code)
	listID := decodeBody(t, w)["id"].(string)
	require.NotEmpty(t, listID)

	w = doJSON(t, router, http.MethodPost, "/v1/favorites/"+listID+"/words", map[string]string{
		"german":  "fahren",
		"english": "to drive",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/favorites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	lists := decodeBody(t, w)["lists"].([]interface{})
	require.Len(t, lists, 1)

	w = doJSON(t, router, http.MethodDelete, "/v1/favorites/"+listID+"/words/fahren", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/v1/favorites/"+listID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/v1/favorites/"+listID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RECORD_NOT_FOUND", decodeBody(t, w)["code"])
}

func TestFavorites_ListLimitEnforced(t *testing.T) {
	router := newTestRouter(t)

	for _, name := range []string{"One", "Two"} {
		w := doJSON(t, router, http.MethodPost, "/v1/favorites", map[string]string{"name": name})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, router, http.MethodPost, "/v1/favorites", map[string]string{"name": "Three"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTextsEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/exercise/generate", map[string]interface{}{
		"level":      "A2",
		"theme":      "Ein Tag in Berlin",
		"word_count": 120,
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodPost, "/v1/exercise/save", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/texts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	texts := decodeBody(t, w)["texts"].([]interface{})
	require.Len(t, texts, 1)

	w = doJSON(t, router, http.MethodPost, "/v1/texts/0/load", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decodeBody(t, w)["state"])

	w = doJSON(t, router, http.MethodPost, "/v1/texts/9/load", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/texts/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "--- Ein Tag in Berlin (A2) ---")
}

func TestWordEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/words/translate", map[string]string{"word": "wohnen"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "to live", decodeBody(t, w)["translation"])

	w = doJSON(t, router, http.MethodPost, "/v1/words/explain", map[string]string{"word": "wohnen", "level": "A2"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeBody(t, w)["explanation"], "to live")

	w = doJSON(t, router, http.MethodPost, "/v1/words/distractors", map[string]string{
		"word":    "wohnt",
		"context": "Anna wohnt in Berlin.",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["distractors"], 3)

	w = doJSON(t, router, http.MethodPost, "/v1/words/translate", map[string]string{"word": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRandomThemeEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/v1/theme/random?level=A2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ein Besuch im Zoo", decodeBody(t, w)["theme"])

	w = doJSON(t, router, http.MethodGet, "/v1/theme/random?level=Z1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranslateEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/translate", map[string]string{"text": "Anna wohnt in Berlin."})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Anna lives in Berlin.", decodeBody(t, w)["translation"])
}
