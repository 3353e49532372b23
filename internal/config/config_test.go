package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewConfig_LoadsYAML(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: "9090"
  log_level: "debug"
provider:
  name: "Ollama"
  code: "ollama"
  url: "http://localhost:11434/v1"
  model: "llama3.1"
  supports_grammar: true
store:
  path: "test.db"
`)
	t.Setenv("LESEWERK_CONFIG_FILE", path)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "ollama", cfg.Provider.Code)
	assert.True(t, cfg.Provider.SupportsGrammar)
	assert.Equal(t, "test.db", cfg.Store.Path)
}

func TestNewConfig_AppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
provider:
  code: "ollama"
  url: "http://localhost:11434/v1"
  model: "llama3.1"
`)
	t.Setenv("LESEWERK_CONFIG_FILE", path)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DefaultMaxAIConcurrent, cfg.Server.MaxAIConcurrent)
	assert.Equal(t, []string{"A1", "A2", "B1", "B2", "C1", "C2"}, cfg.Levels.Levels)
	assert.Equal(t, DefaultMinStoryWords, cfg.Exercise.MinStoryWords)
	assert.Equal(t, DefaultMaxStoryWords, cfg.Exercise.MaxStoryWords)
	assert.Equal(t, DefaultQuizQuestions, cfg.Exercise.QuizQuestions)
	assert.Equal(t, "lesewerk.db", cfg.Store.Path)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: "8080"
provider:
  code: "ollama"
  url: "http://localhost:11434/v1"
  model: "llama3.1"
`)
	t.Setenv("LESEWERK_CONFIG_FILE", path)
	t.Setenv("LESEWERK_SERVER_PORT", "7070")
	t.Setenv("LESEWERK_SERVER_DEBUG", "true")
	t.Setenv("LESEWERK_PROVIDER_MODEL", "mistral")
	t.Setenv("LESEWERK_SERVER_CORS_ORIGINS", "http://a,http://b")
	t.Setenv("LESEWERK_OPEN_TELEMETRY_SAMPLING_RATE", "0.25")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "mistral", cfg.Provider.Model)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 0.25, cfg.OpenTelemetry.SamplingRate, 0.0001)
}

func TestNewConfig_MissingFile(t *testing.T) {
	t.Setenv("LESEWERK_CONFIG_FILE", filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	_, err := NewConfig()
	assert.Error(t, err)
}

func TestConfig_IsValidLevel(t *testing.T) {
	cfg := &Config{Levels: LevelConfig{Levels: []string{"A1", "A2"}}}

	assert.True(t, cfg.IsValidLevel("A1"))
	assert.False(t, cfg.IsValidLevel("a1"))
	assert.False(t, cfg.IsValidLevel("C2"))
}

func TestConfig_LevelDescription(t *testing.T) {
	cfg := &Config{Levels: LevelConfig{
		Levels:       []string{"A1"},
		Descriptions: map[string]string{"A1": "Beginner"},
	}}

	assert.Equal(t, "Beginner", cfg.LevelDescription("A1"))
	assert.Equal(t, "B1", cfg.LevelDescription("B1"))
}
