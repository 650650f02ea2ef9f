package model

import (
	"fmt"
	"strings"
)

// OptionsPerQuestion is the number of answer options every question must carry.
const OptionsPerQuestion = 4

// Question is a single multiple-choice question as produced by the generator.
// The JSON field names match the response schema sent to Gemini.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// Validate checks the structural invariants of a generated question: non-empty
// text, exactly four distinct options, and a correct answer that matches one of
// them verbatim. Records that fail are dropped by the generator, never coerced.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("question text is empty")
	}
	if len(q.Options) != OptionsPerQuestion {
		return fmt.Errorf("expected %d options, got %d", OptionsPerQuestion, len(q.Options))
	}
	seen := make(map[string]struct{}, OptionsPerQuestion)
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("option text is empty")
		}
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("duplicate option %q", opt)
		}
		seen[opt] = struct{}{}
	}
	if _, ok := seen[q.CorrectAnswer]; !ok {
		return fmt.Errorf("correct answer %q is not one of the options", q.CorrectAnswer)
	}
	return nil
}

// HasOption reports whether opt is one of the question's answer options.
func (q Question) HasOption(opt string) bool {
	for _, o := range q.Options {
		if o == opt {
			return true
		}
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Language string

const (
	LanguageEnglish    Language = "english"
	LanguageVietnamese Language = "vietnamese"
	LanguageSpanish    Language = "spanish"
	LanguageFrench     Language = "french"
	LanguageGerman     Language = "german"
	LanguageJapanese   Language = "japanese"
)

func (l Language) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageVietnamese, LanguageSpanish, LanguageFrench, LanguageGerman, LanguageJapanese:
		return true
	}
	return false
}

// GenerationRequest carries the parameters for one question batch.
type GenerationRequest struct {
	Topic      string
	Difficulty Difficulty
	Language   Language
	Count      int
}
