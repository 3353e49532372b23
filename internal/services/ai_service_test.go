package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lesewerk/internal/config"
	"lesewerk/internal/models"
	"lesewerk/internal/observability"
	contextutils "lesewerk/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{MaxAIConcurrent: 2},
		Provider: config.ProviderConfig{
			Name:            "Test",
			Code:            "test",
			URL:             url,
			Model:           "test-model",
			SupportsGrammar: true,
		},
		Levels: config.LevelConfig{
			Levels:       []string{"A1", "A2", "B1", "B2", "C1", "C2"},
			Descriptions: map[string]string{"A2": "Elementary"},
		},
		Exercise: config.ExerciseConfig{
			MinStoryWords:   50,
			MaxStoryWords:   400,
			QuizQuestions:   5,
			ClozeBlanks:     5,
			ExplainExamples: 2,
			DistractorCount: 3,
		},
	}
}

func newTestService(t *testing.T, handler http.HandlerFunc) (*AIService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := observability.NewLogger(&config.OpenTelemetryConfig{})
	return NewAIService(testConfig(server.URL), logger), server
}

// chatReply wraps content into an OpenAI-compatible completion envelope.
func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestGenerateStory_Success(t *testing.T) {
	story := "Anna wohnt in Berlin. Sie arbeitet in einem Café. Jeden Morgen fährt sie mit dem Fahrrad."
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		chatReply(t, w, story)
	})

	req := &models.ExerciseRequest{Level: "A2", Theme: "Ein Tag in Berlin", WordCount: 120}
	text, err := svc.GenerateStory(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Ein Tag in Berlin", text.Title)
	assert.Equal(t, "A2", text.Level)
	assert.Equal(t, story, text.Body)
}

func TestGenerateStory_HTTPError(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	req := &models.ExerciseRequest{Level: "A2", Theme: "Berlin", WordCount: 120}
	_, err := svc.GenerateStory(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeGenerationFailed, contextutils.GetErrorCode(err))
}

func TestGenerateStory_NoURLConfigured(t *testing.T) {
	logger := observability.NewLogger(&config.OpenTelemetryConfig{})
	svc := NewAIService(testConfig(""), logger)

	req := &models.ExerciseRequest{Level: "A2", Theme: "Berlin", WordCount: 120}
	_, err := svc.GenerateStory(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeProviderConfigInvalid, contextutils.GetErrorCode(err))
}

func TestGenerateRandomTheme_StripsQuotes(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		chatReply(t, w, `"Ein Besuch im Zoo"`)
	})

	theme, err := svc.GenerateRandomTheme(context.Background(), "A2", "")
	require.NoError(t, err)
	assert.Equal(t, "Ein Besuch im Zoo", theme)
}

func TestTranslateWord_StripsQuotes(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		chatReply(t, w, "'to drive'")
	})

	translation, err := svc.TranslateWord(context.Background(), "fahren")
	require.NoError(t, err)
	assert.Equal(t, "to drive", translation)
}

func TestTranslateSentences_Success(t *testing.T) {
	pairs := `[
		{"german": "Anna wohnt in Berlin.", "english": "Anna lives in Berlin."},
		{"german": "Sie arbeitet viel.", "english": "She works a lot."}
	]`
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Grammar, "grammar schema should be sent when the provider supports it")
		chatReply(t, w, pairs)
	})

	result, err := svc.TranslateSentences(context.Background(), "Anna wohnt in Berlin. Sie arbeitet viel.")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "Anna wohnt in Berlin.", result[0].German)
	assert.Equal(t, "She works a lot.", result[1].English)
}

func TestTranslateSentences_CountMismatchFailsClosed(t *testing.T) {
	// One input sentence but four pairs back, beyond the tolerance.
	pairs := `[
		{"german": "a.", "english": "a."},
		{"german": "b.", "english": "b."},
		{"german": "c.", "english": "c."},
		{"german": "d.", "english": "d."}
	]`
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		chatReply(t, w, pairs)
	})

	_, err := svc.TranslateSentences(context.Background(), "Anna wohnt in Berlin.")
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))
}

func TestTranslateSentences_EmptyFieldRejected(t *testing.T) {
	pairs := `[{"german": "Anna wohnt in Berlin.", "english": "  "}]`
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		chatReply(t, w, pairs)
	})

	_, err := svc.TranslateSentences(context.Background(), "Anna wohnt in Berlin.")
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))
}

func TestGenerateQuiz_SuccessWithMarkdownFences(t *testing.T) {
	quiz := "```json\n" + `[{
		"question": "Wo wohnt Anna?",
		"options": ["Berlin", "Hamburg", "München", "Köln"],
		"correct_answer": "Berlin"
	}]` + "\n```"
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		chatReply(t, w, quiz)
	})

	questions, err := svc.GenerateQuiz(context.Background(), "Anna wohnt in Berlin.", 1)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Berlin", questions[0].CorrectAnswer)
}

func TestGenerateQuiz_ThreeOptionsRejectedBySchema(t *testing.T) {
	quiz := `[{
		"question": "Wo wohnt Anna?",
		"options": ["Berlin", "Hamburg", "München"],
		"correct_answer": "Berlin"
	}]`
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		chatReply(t, w, quiz)
	})

	_, err := svc.GenerateQuiz(context.Background(), "Anna wohnt in Berlin.", 1)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeResponseInvalid, contextutils.GetErrorCode(err))
}

func TestGenerateQuiz_CorrectAnswerNotAmongOptions(t *testing.T) {
	quiz := `[{
		"question": "Wo wohnt Anna?",
		"options": ["Berlin", "Hamburg", "München", "Köln"],
		"correct_answer": "Dresden"
	}]`
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		chatReply(t, w, quiz)
	})

	_, err := svc.GenerateQuiz(context.Background(), "Anna wohnt in Berlin.", 1)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))
}

func TestExplainWord_Success(t *testing.T) {
	explanation := `{
		"explanation": "fahren means to drive or travel by vehicle",
		"examples": ["Ich fahre nach Hause.", "Wir fahren mit dem Zug."]
	}`
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		chatReply(t, w, explanation)
	})

	result, err := svc.ExplainWord(context.Background(), "fahren", "A2")
	require.NoError(t, err)
	assert.Contains(t, result.Explanation, "to drive")
	assert.Len(t, result.Examples, 2)
}

func TestGenerateClozeFromText_BlankMismatchRejected(t *testing.T) {
	cloze := `{
		"cloze_text": "Anna ___ nach Berlin. Sie ___ dort. Es ___ schön.",
		"answers": ["fährt", "wohnt"]
	}`
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		chatReply(t, w, cloze)
	})

	_, err := svc.GenerateClozeFromText(context.Background(), "Anna fährt nach Berlin.", "A2")
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))
}

func TestGenerateClozeFromWords_Success(t *testing.T) {
	cloze := `{
		"cloze_text": "Anna ___ nach Berlin und ___ dort ein Jahr.",
		"answers": ["fährt", "wohnt"]
	}`
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		chatReply(t, w, cloze)
	})

	result, err := svc.GenerateClozeFromWords(context.Background(), []string{"fährt", "wohnt"}, "A2")
	require.NoError(t, err)
	assert.Equal(t, 2, result.BlankCount())
	assert.Equal(t, []string{"fährt", "wohnt"}, result.Answers)
}

func TestGenerateClozeFromWords_MissingSuppliedWord(t *testing.T) {
	cloze := `{
		"cloze_text": "Anna ___ nach Berlin und ___ dort.",
		"answers": ["fährt", "bleibt"]
	}`
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		chatReply(t, w, cloze)
	})

	_, err := svc.GenerateClozeFromWords(context.Background(), []string{"fährt", "wohnt"}, "A2")
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))
}

func TestGenerateClozeFromWords_EmptyWordList(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected for empty word list")
	})

	_, err := svc.GenerateClozeFromWords(context.Background(), nil, "A2")
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeInvalidInput, contextutils.GetErrorCode(err))
}

func TestGenerateDistractors_Success(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		chatReply(t, w, `["läuft", "schwimmt", "fliegt"]`)
	})

	distractors, err := svc.GenerateDistractors(context.Background(), "fährt", "Anna fährt nach Berlin.")
	require.NoError(t, err)
	assert.Equal(t, []string{"läuft", "schwimmt", "fliegt"}, distractors)
}

func TestGenerateDistractors_DuplicateRejected(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		chatReply(t, w, `["läuft", "Läuft", "fliegt"]`)
	})

	_, err := svc.GenerateDistractors(context.Background(), "fährt", "Anna fährt nach Berlin.")
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))
}

func TestGenerateDistractors_EqualToWordRejected(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		chatReply(t, w, `["Fährt", "läuft", "fliegt"]`)
	})

	_, err := svc.GenerateDistractors(context.Background(), "fährt", "Anna fährt nach Berlin.")
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))
}

func TestCallModel_APIErrorEnvelope(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": {"message": "model overloaded", "type": "server_error"}}`))
	})

	_, err := svc.Translate(context.Background(), "Hallo Welt.")
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeGenerationFailed, contextutils.GetErrorCode(err))
}

func TestCallModel_EmptyChoices(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": []}`))
	})

	_, err := svc.Translate(context.Background(), "Hallo Welt.")
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeResponseInvalid, contextutils.GetErrorCode(err))
}

func TestCleanJSONResponse(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSONResponse("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSONResponse("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSONResponse(`  {"a":1}  `))
}

func TestStripSurroundingQuotes(t *testing.T) {
	assert.Equal(t, "abc", stripSurroundingQuotes(`"abc"`))
	assert.Equal(t, "abc", stripSurroundingQuotes("'abc'"))
	assert.Equal(t, `"abc`, stripSurroundingQuotes(`"abc`))
	assert.Equal(t, "a", stripSurroundingQuotes("a"))
}

func TestShutdown_CompletesWithoutInflightRequests(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		chatReply(t, w, "ok")
	})

	start := time.Now()
	require.NoError(t, svc.Shutdown(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}
