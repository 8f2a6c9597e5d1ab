package model

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleStatus enumerates the states of a booked exam attempt.
type ScheduleStatus string

const (
	ScheduleStatusScheduled ScheduleStatus = "scheduled"
	ScheduleStatusApproved  ScheduleStatus = "approved"
	ScheduleStatusCompleted ScheduleStatus = "completed"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"
	ScheduleStatusExpired   ScheduleStatus = "expired"
)

// Closed reports whether no further attempt can be made on the schedule.
func (s ScheduleStatus) Closed() bool {
	return s == ScheduleStatusCompleted || s == ScheduleStatusCancelled || s == ScheduleStatusExpired
}

// ExamSchedule is a user's booked attempt at an exam.
// QuestionIDs is fixed on first delivery and defines the positional order
// submitted answers are graded against.
type ExamSchedule struct {
	ID          uuid.UUID      `json:"id"`
	UserID      int            `json:"user_id"`
	ExamType    ExamType       `json:"exam_type"`
	ScheduledAt time.Time      `json:"scheduled_at"`
	Location    string         `json:"location"`
	ExaminerID  *int           `json:"examiner_id,omitempty"`
	Status      ScheduleStatus `json:"status"`
	QuestionIDs []uuid.UUID    `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BookExamRequest is the payload for booking an exam.
type BookExamRequest struct {
	ExamType    ExamType   `json:"exam_type" binding:"required,oneof=theory practical"`
	ScheduledAt *time.Time `json:"scheduled_at" binding:"required_if=ExamType practical"`
	Location    string     `json:"location" binding:"required,min=2,max=255"`
}

// ExamMeta is the exam metadata delivered alongside the questions.
type ExamMeta struct {
	ID       uuid.UUID `json:"id"`
	Type     ExamType  `json:"type"`
	Date     string    `json:"date"`
	Time     string    `json:"time"`
	Location string    `json:"location"`
}

// ExamPaper is the Redis-cached payload sent to exam takers (no correct answers).
type ExamPaper struct {
	Exam      ExamMeta           `json:"exam"`
	Language  Language           `json:"language"`
	Questions []QuestionForTaker `json:"questions"`
}

// TrialPaper is a trial quiz paper with the session identifier used to submit it.
type TrialPaper struct {
	TrialID   uuid.UUID          `json:"trial_id"`
	Language  Language           `json:"language"`
	Questions []QuestionForTaker `json:"questions"`
}

// ExaminerLoad is an examiner's live count of approved or scheduled
// practical exams.
type ExaminerLoad struct {
	ExaminerID int    `json:"examiner_id"`
	Name       string `json:"name"`
	Load       int    `json:"load"`
}

// ScheduleFilter narrows admin schedule listings.
type ScheduleFilter struct {
	Status   ScheduleStatus
	ExamType ExamType
}

// TrialSession is the Redis-held state of an ongoing trial quiz.
type TrialSession struct {
	ID          uuid.UUID   `json:"id"`
	UserID      int         `json:"user_id"`
	Language    Language    `json:"language"`
	QuestionIDs []uuid.UUID `json:"question_ids"`
}

// ExamState is the resumable state of an exam in progress: its status and
// the answers autosaved so far, keyed by question position.
type ExamState struct {
	ExamID    uuid.UUID      `json:"exam_id"`
	Status    ScheduleStatus `json:"status"`
	Delivered bool           `json:"delivered"`
	Questions int            `json:"questions"`
	Answers   map[int]int    `json:"answers"`
}

// AnswerDraft is one autosaved answer queued for persistence.
type AnswerDraft struct {
	ScheduleID uuid.UUID `json:"schedule_id"`
	UserID     int       `json:"user_id"`
	Position   int       `json:"position"`
	Answer     int       `json:"answer"`
}

// TakeExamQuery selects the language of a delivered paper.
type TakeExamQuery struct {
	Language Language `form:"language" binding:"omitempty,oneof=en am"`
}

// TrialQuery configures a trial quiz.
type TrialQuery struct {
	Language Language `form:"language" binding:"omitempty,oneof=en am"`
	Count    int      `form:"count" binding:"omitempty,oneof=20 50"`
}

// ScheduleListQuery is the admin listing filter for booked exams.
type ScheduleListQuery struct {
	Status   ScheduleStatus `form:"status" binding:"omitempty,oneof=scheduled approved completed cancelled expired"`
	ExamType ExamType       `form:"exam_type" binding:"omitempty,oneof=theory practical"`
	Page     int            `form:"page" binding:"omitempty,min=1"`
	PerPage  int            `form:"per_page" binding:"omitempty,min=1"`
}
