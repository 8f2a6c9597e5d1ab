package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlms/dlms-backend/internal/balancer"
	"github.com/dlms/dlms-backend/internal/config"
	"github.com/dlms/dlms-backend/internal/model"
	"github.com/dlms/dlms-backend/internal/repository"
	"github.com/dlms/dlms-backend/internal/response"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Assignment is the outcome of approving a practical exam.
type Assignment struct {
	Schedule *model.ExamSchedule `json:"exam"`
	Examiner model.ExaminerLoad  `json:"examiner"`
}

// ScheduleService handles exam booking, approval and lifecycle.
type ScheduleService struct {
	cfg       *config.Config
	schedules ScheduleStore
	rng       balancer.Rand
	log       zerolog.Logger
	now       func() time.Time
}

// NewScheduleService creates a new ScheduleService. A nil rng breaks
// workload ties with the global random source.
func NewScheduleService(cfg *config.Config, schedules ScheduleStore, rng balancer.Rand, log zerolog.Logger) *ScheduleService {
	return &ScheduleService{
		cfg:       cfg,
		schedules: schedules,
		rng:       rng,
		log:       log.With().Str("component", "schedule_service").Logger(),
		now:       time.Now,
	}
}

// Book schedules an exam for a user. Theory exams default to now.
func (s *ScheduleService) Book(ctx context.Context, userID int, req model.BookExamRequest) (*model.ExamSchedule, error) {
	scheduledAt := s.now().UTC()
	if req.ScheduledAt != nil {
		scheduledAt = req.ScheduledAt.UTC()
	}
	if req.ExamType == model.ExamTypePractical && scheduledAt.Before(s.now().Add(-time.Minute)) {
		return nil, invalid("scheduled_at", "scheduled_at must not be in the past")
	}

	sched := &model.ExamSchedule{
		UserID:      userID,
		ExamType:    req.ExamType,
		ScheduledAt: scheduledAt,
		Location:    strings.TrimSpace(req.Location),
		Status:      model.ScheduleStatusScheduled,
	}
	if err := s.schedules.Create(ctx, sched); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	s.log.Info().
		Str("exam_id", sched.ID.String()).
		Int("user_id", userID).
		Str("exam_type", string(sched.ExamType)).
		Msg("Exam booked")
	return sched, nil
}

// Approve approves a practical exam and assigns the active examiner with
// the fewest approved or scheduled practical exams, ties broken at random.
// Workloads are read and the assignment written under one lock, so
// concurrent approvals see each other's assignments.
func (s *ScheduleService) Approve(ctx context.Context, scheduleID uuid.UUID) (*Assignment, error) {
	var picked model.ExaminerLoad

	sched, err := s.schedules.AssignExaminer(ctx, scheduleID, func(sched *model.ExamSchedule, loads []model.ExaminerLoad) (int, error) {
		if sched.ExamType != model.ExamTypePractical {
			return 0, ErrTheoryNoApproval
		}
		if sched.Status != model.ScheduleStatusScheduled {
			return 0, ErrInvalidTransition
		}

		candidates := make([]balancer.Load, len(loads))
		for i, l := range loads {
			candidates[i] = balancer.Load{ExaminerID: l.ExaminerID, Count: l.Load}
		}
		chosen, err := balancer.PickLeastLoaded(candidates, s.rng)
		if err != nil {
			return 0, err
		}
		for _, l := range loads {
			if l.ExaminerID == chosen.ExaminerID {
				picked = l
				break
			}
		}
		return chosen.ExaminerID, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	s.log.Info().
		Str("exam_id", scheduleID.String()).
		Int("examiner_id", picked.ExaminerID).
		Int("examiner_load", picked.Load).
		Msg("Practical exam approved")

	return &Assignment{Schedule: sched, Examiner: picked}, nil
}

// Cancel cancels an open schedule.
func (s *ScheduleService) Cancel(ctx context.Context, scheduleID uuid.UUID) error {
	sched, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if sched.Status.Closed() {
		return ErrInvalidTransition
	}
	if err := s.schedules.UpdateStatus(ctx, scheduleID, model.ScheduleStatusCancelled); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return ErrInvalidTransition
		}
		return err
	}
	s.log.Info().Str("exam_id", scheduleID.String()).Msg("Exam cancelled")
	return nil
}

// ListMine returns a user's schedules.
func (s *ScheduleService) ListMine(ctx context.Context, userID int) ([]model.ExamSchedule, error) {
	schedules, err := s.schedules.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if schedules == nil {
		schedules = []model.ExamSchedule{}
	}
	return schedules, nil
}

// ListAll returns a filtered page of schedules for administrators.
func (s *ScheduleService) ListAll(ctx context.Context, f model.ScheduleFilter, page, perPage int) ([]model.ExamSchedule, *response.Pagination, error) {
	page, perPage = response.ClampPage(page, perPage)

	schedules, total, err := s.schedules.List(ctx, f, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if schedules == nil {
		schedules = []model.ExamSchedule{}
	}
	return schedules, response.NewPagination(page, perPage, total), nil
}

// ExaminerWorkloads returns the live workload of every active examiner.
func (s *ScheduleService) ExaminerWorkloads(ctx context.Context) ([]model.ExaminerLoad, error) {
	loads, err := s.schedules.ExaminerLoads(ctx)
	if err != nil {
		return nil, err
	}
	if loads == nil {
		loads = []model.ExaminerLoad{}
	}
	return loads, nil
}

// ExpireOverdue expires practical schedules whose expiry window has passed.
func (s *ScheduleService) ExpireOverdue(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.PracticalExpiryWindow)
	n, err := s.schedules.ExpireOverdue(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int64("count", n).Msg("Expired overdue practical exams")
	}
	return n, nil
}
