package service

import (
	"context"
	"time"

	"github.com/dlms/dlms-backend/internal/model"
	"github.com/dlms/dlms-backend/internal/repository"
	"github.com/google/uuid"
)

// UserStore is the user persistence used by AuthService.
type UserStore interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
}

// QuestionStore is the question bank persistence.
type QuestionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamQuestion, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.ExamQuestion, error)
	SampleIDs(ctx context.Context, examType model.ExamType, n int) ([]uuid.UUID, error)
	PoolIDs(ctx context.Context, examType model.ExamType, n int) ([]uuid.UUID, error)
	List(ctx context.Context, f model.QuestionFilter, limit, offset int) ([]model.ExamQuestion, int, error)
	Create(ctx context.Context, q *model.ExamQuestion) error
	Update(ctx context.Context, q *model.ExamQuestion) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// ScheduleStore is the exam schedule persistence.
type ScheduleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSchedule, error)
	Create(ctx context.Context, s *model.ExamSchedule) error
	ListByUser(ctx context.Context, userID int) ([]model.ExamSchedule, error)
	List(ctx context.Context, f model.ScheduleFilter, limit, offset int) ([]model.ExamSchedule, int, error)
	SetQuestionIDsIfEmpty(ctx context.Context, id uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ScheduleStatus) error
	ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error)
	ExaminerLoads(ctx context.Context) ([]model.ExaminerLoad, error)
	AssignExaminer(ctx context.Context, id uuid.UUID, choose repository.AssignFunc) (*model.ExamSchedule, error)
}

// ResultStore is the exam result persistence.
type ResultStore interface {
	Create(ctx context.Context, res *model.ExamResult, closeStatus model.ScheduleStatus) error
	ListByUser(ctx context.Context, userID int) ([]model.ExamResult, error)
}

// LicenseStore is the license ledger persistence.
type LicenseStore interface {
	GetDetail(ctx context.Context, licenseNumber string) (*model.License, string, error)
	ListViolations(ctx context.Context, licenseID int) ([]model.Violation, error)
	RecordViolation(ctx context.Context, licenseNumber string, v *model.Violation, points repository.PointsFunc) (*model.License, error)
}

// DraftStore reads persisted autosave drafts.
type DraftStore interface {
	ListBySchedule(ctx context.Context, scheduleID uuid.UUID, userID int) (map[int]int, error)
}

// ExamCache holds the hot exam state kept outside PostgreSQL: delivered
// papers, trial sessions and autosaved answers. Lookups return nil on a
// miss rather than an error.
type ExamCache interface {
	GetPaper(ctx context.Context, scheduleID uuid.UUID, lang model.Language) (*model.ExamPaper, error)
	SetPaper(ctx context.Context, paper *model.ExamPaper, ttl time.Duration) error
	InvalidatePapers(ctx context.Context) (int, error)

	SaveTrial(ctx context.Context, t *model.TrialSession, ttl time.Duration) error
	TakeTrial(ctx context.Context, trialID uuid.UUID) (*model.TrialSession, error)

	SaveAnswer(ctx context.Context, scheduleID uuid.UUID, userID, position, answer int) error
	Answers(ctx context.Context, scheduleID uuid.UUID, userID int) (map[int]int, error)
	ClearAnswers(ctx context.Context, scheduleID uuid.UUID, userID int) error
}
