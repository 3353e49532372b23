package config

import "time"

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout = 60 * time.Second
	AIRequestTimeout   = 3 * time.Minute
	AIShutdownTimeout  = 30 * time.Second

	// Server shutdown
	ServerShutdownTimeout = 10 * time.Second

	// Polling intervals
	AIShutdownPollInterval = 100 * time.Millisecond
)

// Generation defaults
const (
	DefaultMaxAIConcurrent = 4
	DefaultMinStoryWords   = 50
	DefaultMaxStoryWords   = 400
	DefaultQuizQuestions   = 5
	DefaultClozeBlanks     = 5
	DefaultExplainExamples = 2
	DefaultDistractorCount = 3
)

// Language constants. The app teaches German to English speakers.
const (
	SourceLanguage = "German"
	TargetLanguage = "English"
)

// Store keys for the two persisted collections
const (
	StoreKeyFavoriteLists = "favorite_lists"
	StoreKeySavedTexts    = "saved_texts"
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self'; img-src 'self' data:; media-src 'self' blob: data:;"
)
