// Package config handles application configuration loading from a YAML file
// with environment variable overrides.
package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"

	contextutils "lesewerk/internal/utils"

	"gopkg.in/yaml.v3"
)

// ProviderConfig defines the generation endpoint for one provider
type ProviderConfig struct {
	Name            string `json:"name" yaml:"name"`
	Code            string `json:"code" yaml:"code"`
	URL             string `json:"url" yaml:"url"`
	Model           string `json:"model" yaml:"model"`
	APIKey          string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	SupportsGrammar bool   `json:"supports_grammar,omitempty" yaml:"supports_grammar,omitempty"`
	MaxTokens       int    `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port            string   `json:"port" yaml:"port"`
	Debug           bool     `json:"debug" yaml:"debug"`
	LogLevel        string   `json:"log_level" yaml:"log_level"`
	CORSOrigins     []string `json:"cors_origins" yaml:"cors_origins"`
	MaxAIConcurrent int      `json:"max_ai_concurrent" yaml:"max_ai_concurrent"`
}

// LevelConfig represents the proficiency scale for the target language
type LevelConfig struct {
	Levels       []string          `json:"levels" yaml:"levels"`
	Descriptions map[string]string `json:"descriptions" yaml:"descriptions"`
}

// ExerciseConfig bounds generated content
type ExerciseConfig struct {
	MinStoryWords    int `json:"min_story_words" yaml:"min_story_words"`
	MaxStoryWords    int `json:"max_story_words" yaml:"max_story_words"`
	QuizQuestions    int `json:"quiz_questions" yaml:"quiz_questions"`
	ClozeBlanks      int `json:"cloze_blanks" yaml:"cloze_blanks"`
	ExplainExamples  int `json:"explain_examples" yaml:"explain_examples"`
	DistractorCount  int `json:"distractor_count" yaml:"distractor_count"`
	MaxFavoriteLists int `json:"max_favorite_lists" yaml:"max_favorite_lists"`
}

// StoreConfig represents local persistence configuration
type StoreConfig struct {
	Path string `json:"path" yaml:"path"`
}

// OpenTelemetryConfig represents observability configuration
type OpenTelemetryConfig struct {
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`
	Protocol       string            `json:"protocol" yaml:"protocol"`
	Insecure       bool              `json:"insecure" yaml:"insecure"`
	ServiceName    string            `json:"service_name" yaml:"service_name"`
	ServiceVersion string            `json:"service_version" yaml:"service_version"`
	SamplingRate   float64           `json:"sampling_rate" yaml:"sampling_rate"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	EnableTracing  bool              `json:"enable_tracing" yaml:"enable_tracing"`
	EnableLogging  bool              `json:"enable_logging" yaml:"enable_logging"`
}

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig        `json:"server" yaml:"server"`
	Provider      ProviderConfig      `json:"provider" yaml:"provider"`
	Levels        LevelConfig         `json:"levels" yaml:"levels"`
	Exercise      ExerciseConfig      `json:"exercise" yaml:"exercise"`
	Store         StoreConfig         `json:"store" yaml:"store"`
	OpenTelemetry OpenTelemetryConfig `json:"open_telemetry" yaml:"open_telemetry"`
}

// IsValidLevel reports whether level is part of the configured proficiency scale.
func (c *Config) IsValidLevel(level string) bool {
	for _, l := range c.Levels.Levels {
		if l == level {
			return true
		}
	}
	return false
}

// LevelDescription returns the configured description for a level, or the level itself.
func (c *Config) LevelDescription(level string) string {
	if desc, ok := c.Levels.Descriptions[level]; ok {
		return desc
	}
	return level
}

// applyDefaults fills in values the config file may omit.
func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.MaxAIConcurrent <= 0 {
		c.Server.MaxAIConcurrent = DefaultMaxAIConcurrent
	}
	if len(c.Levels.Levels) == 0 {
		c.Levels.Levels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}
	}
	if c.Exercise.MinStoryWords <= 0 {
		c.Exercise.MinStoryWords = DefaultMinStoryWords
	}
	if c.Exercise.MaxStoryWords <= 0 {
		c.Exercise.MaxStoryWords = DefaultMaxStoryWords
	}
	if c.Exercise.QuizQuestions <= 0 {
		c.Exercise.QuizQuestions = DefaultQuizQuestions
	}
	if c.Exercise.ClozeBlanks <= 0 {
		c.Exercise.ClozeBlanks = DefaultClozeBlanks
	}
	if c.Exercise.ExplainExamples <= 0 {
		c.Exercise.ExplainExamples = DefaultExplainExamples
	}
	if c.Exercise.DistractorCount <= 0 {
		c.Exercise.DistractorCount = DefaultDistractorCount
	}
	if c.Store.Path == "" {
		c.Store.Path = "lesewerk.db"
	}
}

// NewConfig loads configuration from the YAML file first, then overrides with environment variables
func NewConfig() (result0 *Config, err error) {
	path := os.Getenv("LESEWERK_CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}

	config, err := loadConfigFromFile(path)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config from %s: %w", path, err)
	}

	overrideStructFromEnv(config, "LESEWERK")
	config.applyDefaults()

	return config, nil
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (result0 *Config, err error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(yamlFile, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// overrideStructFromEnv overrides struct fields with environment variables derived
// from the yaml tag chain, e.g. LESEWERK_SERVER_PORT for Server.Port.
func overrideStructFromEnv(v interface{}, prefix string) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if !field.CanSet() {
			continue
		}

		yamlTag := strings.Split(typ.Field(i).Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		envKey := prefix + "_" + strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))

		switch field.Kind() {
		case reflect.String:
			if envVal := os.Getenv(envKey); envVal != "" {
				field.SetString(envVal)
			}
		case reflect.Int, reflect.Int64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if intVal, err := strconv.ParseInt(envVal, 10, 64); err == nil {
					field.SetInt(intVal)
				}
			}
		case reflect.Float64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if floatVal, err := strconv.ParseFloat(envVal, 64); err == nil {
					field.SetFloat(floatVal)
				}
			}
		case reflect.Bool:
			if envVal := os.Getenv(envKey); envVal != "" {
				if boolVal, err := strconv.ParseBool(envVal); err == nil {
					field.SetBool(boolVal)
				}
			}
		case reflect.Slice:
			if envVal := os.Getenv(envKey); envVal != "" && field.Type().Elem().Kind() == reflect.String {
				field.Set(reflect.ValueOf(strings.Split(envVal, ",")))
			}
		case reflect.Struct:
			if field.CanAddr() {
				overrideStructFromEnv(field.Addr().Interface(), envKey)
			}
		}
	}
}
