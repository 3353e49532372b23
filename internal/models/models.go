// Package models defines the domain types shared by the content service,
// the exercise orchestrator and the store.
package models

import (
	"strings"

	contextutils "lesewerk/internal/utils"
)

// BlankMarker is the placeholder for a cloze gap inside generated text.
const BlankMarker = "___"

// QuizOptionCount is the fixed number of answer options per quiz question.
const QuizOptionCount = 4

// ExerciseRequest describes one generation request. Not persisted.
type ExerciseRequest struct {
	Level     string `json:"level"`
	Theme     string `json:"theme"`
	WordCount int    `json:"word_count"`
	Mood      string `json:"mood"`
}

// Validate checks the request against the configured proficiency scale and word bounds.
func (r *ExerciseRequest) Validate(levels []string, minWords, maxWords int) error {
	valid := false
	for _, l := range levels {
		if l == r.Level {
			valid = true
			break
		}
	}
	if !valid {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown level %q", r.Level)
	}
	if strings.TrimSpace(r.Theme) == "" {
		return contextutils.WrapError(contextutils.ErrInvalidInput, "theme is required")
	}
	if r.WordCount < minWords || r.WordCount > maxWords {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "word count %d outside %d..%d", r.WordCount, minWords, maxWords)
	}
	return nil
}

// GeneratedText is a produced story. Immutable once created.
type GeneratedText struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Level string `json:"level"`
}

// TranslationPair aligns one source sentence with its translation.
// A slice of pairs is ordered and reconstructs reading order.
type TranslationPair struct {
	German  string `json:"german"`
	English string `json:"english"`
}

// QuizQuestion is one multiple-choice comprehension question.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// Validate enforces the structural invariants: exactly four unique options and
// a correct answer that is one of them. Violations are validation errors, the
// same class as a schema failure, and must never reach rendering unchecked.
func (q *QuizQuestion) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return contextutils.WrapError(contextutils.ErrValidationFailed, "question text is empty")
	}
	if len(q.Options) != QuizOptionCount {
		return contextutils.WrapErrorf(contextutils.ErrValidationFailed, "expected %d options, got %d", QuizOptionCount, len(q.Options))
	}
	seen := make(map[string]bool, len(q.Options))
	correctFound := false
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return contextutils.WrapError(contextutils.ErrValidationFailed, "empty answer option")
		}
		if seen[opt] {
			return contextutils.WrapErrorf(contextutils.ErrValidationFailed, "duplicate answer option %q", opt)
		}
		seen[opt] = true
		if opt == q.CorrectAnswer {
			correctFound = true
		}
	}
	if !correctFound {
		return contextutils.WrapErrorf(contextutils.ErrValidationFailed, "correct answer %q not among options", q.CorrectAnswer)
	}
	return nil
}

// ClozeExercise is a fill-in-the-blank exercise. Answers are ordered by the
// left-to-right occurrence of their blanks.
type ClozeExercise struct {
	ClozeText string   `json:"cloze_text"`
	Answers   []string `json:"answers"`
}

// BlankCount returns the number of blank markers in the text.
func (c *ClozeExercise) BlankCount() int {
	return strings.Count(c.ClozeText, BlankMarker)
}

// Validate enforces the blank/answer alignment contract: the number of blank
// markers must equal the number of answers, and no answer may be empty.
func (c *ClozeExercise) Validate() error {
	if strings.TrimSpace(c.ClozeText) == "" {
		return contextutils.WrapError(contextutils.ErrValidationFailed, "cloze text is empty")
	}
	if len(c.Answers) == 0 {
		return contextutils.WrapError(contextutils.ErrValidationFailed, "cloze exercise has no answers")
	}
	if blanks := c.BlankCount(); blanks != len(c.Answers) {
		return contextutils.WrapErrorf(contextutils.ErrValidationFailed, "blank count %d does not match answer count %d", blanks, len(c.Answers))
	}
	for i, a := range c.Answers {
		if strings.TrimSpace(a) == "" {
			return contextutils.WrapErrorf(contextutils.ErrValidationFailed, "empty answer at index %d", i)
		}
	}
	return nil
}

// WordExplanation is a level-appropriate explanation of a single term.
type WordExplanation struct {
	Explanation string   `json:"explanation"`
	Examples    []string `json:"examples"`
}

// Validate checks the expected shape: one explanation plus example sentences.
func (w *WordExplanation) Validate(exampleCount int) error {
	if strings.TrimSpace(w.Explanation) == "" {
		return contextutils.WrapError(contextutils.ErrValidationFailed, "explanation is empty")
	}
	if len(w.Examples) != exampleCount {
		return contextutils.WrapErrorf(contextutils.ErrValidationFailed, "expected %d example sentences, got %d", exampleCount, len(w.Examples))
	}
	return nil
}

// FavoriteWord is an immutable term/translation pair.
type FavoriteWord struct {
	German  string `json:"german"`
	English string `json:"english"`
}

// FavoriteList is a named set of favorite words, deduplicated
// case-insensitively on the German term.
type FavoriteList struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Words []FavoriteWord `json:"words"`
}

// HasWord reports whether the list already contains the term, ignoring case.
func (l *FavoriteList) HasWord(term string) bool {
	for _, w := range l.Words {
		if strings.EqualFold(w.German, term) {
			return true
		}
	}
	return false
}

// AddWord appends the word unless an equal term is already present. Returns
// true when the list changed.
func (l *FavoriteList) AddWord(word FavoriteWord) bool {
	if l.HasWord(word.German) {
		return false
	}
	l.Words = append(l.Words, word)
	return true
}

// RemoveWord deletes the word matching the term, ignoring case. Returns true
// when the list changed.
func (l *FavoriteList) RemoveWord(term string) bool {
	for i, w := range l.Words {
		if strings.EqualFold(w.German, term) {
			l.Words = append(l.Words[:i], l.Words[i+1:]...)
			return true
		}
	}
	return false
}

// SavedText is an archived snapshot of a generated exercise. Entries are
// deduplicated by exact body match and kept in save order.
type SavedText struct {
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	Level        string            `json:"level"`
	Translations []TranslationPair `json:"translations"`
	Quiz         []QuizQuestion    `json:"quiz"`
}

// SanitizeInput sanitizes user input for safe embedding in prompts:
// trims whitespace and strips control characters.
func SanitizeInput(input string) string {
	result := strings.TrimSpace(input)
	var b strings.Builder
	b.Grow(len(result))
	for _, r := range result {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SplitSentences naively segments text on sentence-final punctuation. It is a
// cross-check against the model's own segmentation, not a full tokenizer:
// abbreviations and ordinals will over-split, which is why callers compare
// counts with a tolerance instead of requiring equality.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			// Consume closing quotes attached to the sentence end.
			for i+1 < len(runes) && (runes[i+1] == '"' || runes[i+1] == '“' || runes[i+1] == '”') {
				i++
				current.WriteRune(runes[i])
			}
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
