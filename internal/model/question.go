package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamType distinguishes the written test from the field driving test.
// Trial marks results of the standalone practice quiz.
type ExamType string

const (
	ExamTypeTheory    ExamType = "theory"
	ExamTypePractical ExamType = "practical"
	ExamTypeTrial     ExamType = "trial"
)

// Language is a question language variant.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageAmharic Language = "am"
)

// Difficulty grades a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuestionText is the text of a question in one language.
type QuestionText struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// ExamQuestion is a multiple-choice question of the question bank.
// CorrectAnswer is a zero-based index into Options; translations share the
// option order so the index holds for every language.
type ExamQuestion struct {
	ID            uuid.UUID                 `json:"id"`
	ExamType      ExamType                  `json:"exam_type"`
	Language      Language                  `json:"language"`
	Category      string                    `json:"category"`
	Difficulty    Difficulty                `json:"difficulty"`
	Question      string                    `json:"question"`
	Options       []string                  `json:"options"`
	CorrectAnswer int                       `json:"correct_answer"`
	Translations  map[Language]QuestionText `json:"translations,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
	DeletedAt     *time.Time                `json:"deleted_at,omitempty"`
}

// Localize returns the question text in lang, falling back to the base
// language when no translation exists.
func (q *ExamQuestion) Localize(lang Language) QuestionText {
	if lang != q.Language {
		if t, ok := q.Translations[lang]; ok && t.Question != "" && len(t.Options) == len(q.Options) {
			return t
		}
	}
	return QuestionText{Question: q.Question, Options: q.Options}
}

// QuestionForTaker is a delivered question without the correct answer.
type QuestionForTaker struct {
	ID       uuid.UUID `json:"id"`
	Question string    `json:"question"`
	Options  []string  `json:"options"`
}

// QuestionRequest is the payload for creating or editing a question.
type QuestionRequest struct {
	ExamType      ExamType                  `json:"exam_type" binding:"required,oneof=theory practical"`
	Language      Language                  `json:"language" binding:"required,oneof=en am"`
	Category      string                    `json:"category" binding:"required,min=2,max=100"`
	Difficulty    Difficulty                `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Question      string                    `json:"question" binding:"required,min=1,max=2000"`
	Options       []string                  `json:"options" binding:"required,min=2,max=6,dive,required,max=500"`
	CorrectAnswer *int                      `json:"correct_answer" binding:"required,min=0"`
	Translations  map[Language]QuestionText `json:"translations" binding:"omitempty"`
}

// QuestionFilter narrows question bank listings.
type QuestionFilter struct {
	ExamType ExamType
	Language Language
	Category string
}

// QuestionListQuery is the admin listing filter for the question bank.
type QuestionListQuery struct {
	ExamType ExamType `form:"exam_type" binding:"omitempty,oneof=theory practical"`
	Language Language `form:"language" binding:"omitempty,oneof=en am"`
	Category string   `form:"category" binding:"omitempty,max=100"`
	Page     int      `form:"page" binding:"omitempty,min=1"`
	PerPage  int      `form:"per_page" binding:"omitempty,min=1"`
}
