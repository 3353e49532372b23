// Package services provides embedded templates for generation prompts
package services

import (
	"embed"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var aiTemplatesFS embed.FS

// Template names as constants
const (
	StoryPromptTemplate          = "story_prompt.tmpl"
	RandomThemePromptTemplate    = "random_theme_prompt.tmpl"
	TranslateTextPromptTemplate  = "translate_text_prompt.tmpl"
	TranslateWordPromptTemplate  = "translate_word_prompt.tmpl"
	SentencePairsPromptTemplate  = "sentence_pairs_prompt.tmpl"
	QuizPromptTemplate           = "quiz_prompt.tmpl"
	ExplainWordPromptTemplate    = "explain_word_prompt.tmpl"
	ClozeFromTextPromptTemplate  = "cloze_from_text_prompt.tmpl"
	ClozeFromWordsPromptTemplate = "cloze_from_words_prompt.tmpl"
	DistractorsPromptTemplate    = "distractors_prompt.tmpl"
)

// AITemplateData holds data for rendering prompt templates
type AITemplateData struct {
	Level            string
	LevelDescription string
	Theme            string
	Mood             string
	WordCount        int
	Text             string
	Word             string
	Words            []string
	ContextSentence  string
	Count            int
}

// AITemplateManager manages generation prompt templates
type AITemplateManager struct {
	templates *template.Template
}

// NewAITemplateManager creates a new template manager
func NewAITemplateManager() (result0 *AITemplateManager, err error) {
	templates, err := template.New("").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(aiTemplatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	return &AITemplateManager{
		templates: templates,
	}, nil
}

// RenderTemplate renders a template with the given data
func (tm *AITemplateManager) RenderTemplate(templateName string, data AITemplateData) (result0 string, err error) {
	var buf strings.Builder
	err = tm.templates.ExecuteTemplate(&buf, templateName, data)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
