package model

import (
	"time"

	"github.com/google/uuid"
)

// AnswerOutcome is the graded outcome of one question position.
type AnswerOutcome struct {
	QuestionID uuid.UUID `json:"question_id"`
	Submitted  int       `json:"submitted"`
	IsCorrect  bool      `json:"is_correct"`
}

// ExamResult is the immutable record of one completed or cancelled attempt.
type ExamResult struct {
	ID             uuid.UUID       `json:"id"`
	UserID         int             `json:"user_id"`
	UserName       string          `json:"user_name"`
	ScheduleID     *uuid.UUID      `json:"schedule_id,omitempty"`
	ExamType       ExamType        `json:"exam_type"`
	Answers        []AnswerOutcome `json:"answers"`
	CorrectAnswers int             `json:"correct_answers"`
	TotalQuestions int             `json:"total_questions"`
	Score          int             `json:"score"`
	Passed         bool            `json:"passed"`
	Threshold      int             `json:"threshold"`
	TimeSpent      int             `json:"time_spent"`
	Language       Language        `json:"language"`
	Attempt        int             `json:"attempt"`
	Cancelled      bool            `json:"cancelled"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SubmitExamRequest is the payload for submitting an exam. Null entries in
// Answers mark unanswered questions.
type SubmitExamRequest struct {
	UserID    int      `json:"userId" binding:"omitempty,min=1"`
	UserName  string   `json:"userName" binding:"omitempty,max=100"`
	Answers   []*int   `json:"answers" binding:"omitempty"`
	TimeSpent int      `json:"timeSpent" binding:"min=0"`
	Language  Language `json:"language" binding:"omitempty,oneof=en am"`
	Cancelled bool     `json:"cancelled"`
}

// ResultSummary is the submission response body.
type ResultSummary struct {
	ID             uuid.UUID `json:"id"`
	Score          int       `json:"score"`
	Passed         bool      `json:"passed"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	Attempt        int       `json:"attempt"`
	Cancelled      bool      `json:"cancelled"`
}

// Summary returns the client-facing summary of the result.
func (r *ExamResult) Summary() ResultSummary {
	return ResultSummary{
		ID:             r.ID,
		Score:          r.Score,
		Passed:         r.Passed,
		CorrectAnswers: r.CorrectAnswers,
		TotalQuestions: r.TotalQuestions,
		Attempt:        r.Attempt,
		Cancelled:      r.Cancelled,
	}
}

// TrialSubmitRequest is the payload for submitting a trial quiz.
type TrialSubmitRequest struct {
	UserName  string `json:"userName" binding:"omitempty,max=100"`
	Answers   []*int `json:"answers" binding:"omitempty"`
	TimeSpent int    `json:"timeSpent" binding:"min=0"`
}
