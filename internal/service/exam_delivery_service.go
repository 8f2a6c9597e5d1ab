package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dlms/dlms-backend/internal/config"
	"github.com/dlms/dlms-backend/internal/model"
	"github.com/dlms/dlms-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExamDeliveryService selects and serves exam papers to exam takers.
type ExamDeliveryService struct {
	cfg       *config.Config
	schedules ScheduleStore
	questions QuestionStore
	drafts    DraftStore
	cache     ExamCache
	log       zerolog.Logger
	now       func() time.Time
}

// NewExamDeliveryService creates a new ExamDeliveryService.
func NewExamDeliveryService(
	cfg *config.Config,
	schedules ScheduleStore,
	questions QuestionStore,
	drafts DraftStore,
	cache ExamCache,
	log zerolog.Logger,
) *ExamDeliveryService {
	return &ExamDeliveryService{
		cfg:       cfg,
		schedules: schedules,
		questions: questions,
		drafts:    drafts,
		cache:     cache,
		log:       log.With().Str("component", "exam_delivery").Logger(),
		now:       time.Now,
	}
}

// Deliver returns the paper of a scheduled exam in the requested language.
// The question set is fixed on first delivery; later calls, in any
// language, return the same questions in the same order.
func (s *ExamDeliveryService) Deliver(ctx context.Context, scheduleID uuid.UUID, userID int, lang model.Language) (*model.ExamPaper, error) {
	if lang == "" {
		lang = model.LanguageEnglish
	}

	sched, err := ownedSchedule(ctx, s.schedules, scheduleID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAvailable(ctx, sched); err != nil {
		return nil, err
	}

	cached, err := s.cache.GetPaper(ctx, scheduleID, lang)
	if err != nil {
		s.log.Warn().Err(err).Str("exam_id", scheduleID.String()).Msg("Paper cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	ids := sched.QuestionIDs
	if len(ids) == 0 {
		fresh, err := s.selectQuestions(ctx, sched.ExamType)
		if err != nil {
			return nil, err
		}
		ids, err = s.schedules.SetQuestionIDsIfEmpty(ctx, scheduleID, fresh)
		if err != nil {
			return nil, fmt.Errorf("fix question set: %w", err)
		}
	}

	questions, err := s.questions.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	paper := &model.ExamPaper{
		Exam: model.ExamMeta{
			ID:       sched.ID,
			Type:     sched.ExamType,
			Date:     sched.ScheduledAt.Format("2006-01-02"),
			Time:     sched.ScheduledAt.Format("15:04"),
			Location: sched.Location,
		},
		Language:  lang,
		Questions: localize(questions, lang),
	}

	if err := s.cache.SetPaper(ctx, paper, s.cfg.PaperCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("exam_id", scheduleID.String()).Msg("Paper cache write failed")
	}

	s.log.Info().
		Str("exam_id", scheduleID.String()).
		Int("user_id", userID).
		Str("language", string(lang)).
		Int("questions", len(paper.Questions)).
		Msg("Exam delivered")

	return paper, nil
}

// Trial starts a standalone practice quiz of count theory questions.
func (s *ExamDeliveryService) Trial(ctx context.Context, userID int, lang model.Language, count int) (*model.TrialPaper, error) {
	if lang == "" {
		lang = model.LanguageEnglish
	}
	switch {
	case count == 0:
		count = s.cfg.TrialQuestionCount
	case !slices.Contains(config.TrialSizes, count):
		return nil, invalid("count", "count must be 20 or 50")
	}

	ids, err := s.questions.SampleIDs(ctx, model.ExamTypeTheory, count)
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrNoQuestions
	}

	questions, err := s.questions.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	session := &model.TrialSession{
		ID:          uuid.New(),
		UserID:      userID,
		Language:    lang,
		QuestionIDs: ids,
	}
	if err := s.cache.SaveTrial(ctx, session, s.cfg.TrialSessionTTL); err != nil {
		return nil, fmt.Errorf("save trial: %w", err)
	}

	return &model.TrialPaper{
		TrialID:   session.ID,
		Language:  lang,
		Questions: localize(questions, lang),
	}, nil
}

// State returns the resumable state of an exam: autosaved answers from
// Redis, or from the persisted drafts when the hash has been evicted.
func (s *ExamDeliveryService) State(ctx context.Context, scheduleID uuid.UUID, userID int) (*model.ExamState, error) {
	sched, err := ownedSchedule(ctx, s.schedules, scheduleID, userID)
	if err != nil {
		return nil, err
	}

	answers, err := s.cache.Answers(ctx, scheduleID, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("exam_id", scheduleID.String()).Msg("Autosave cache read failed")
	}
	if len(answers) == 0 && !sched.Status.Closed() {
		answers, err = s.drafts.ListBySchedule(ctx, scheduleID, userID)
		if err != nil {
			return nil, fmt.Errorf("load drafts: %w", err)
		}
	}
	if answers == nil {
		answers = map[int]int{}
	}

	return &model.ExamState{
		ExamID:    sched.ID,
		Status:    sched.Status,
		Delivered: len(sched.QuestionIDs) > 0,
		Questions: len(sched.QuestionIDs),
		Answers:   answers,
	}, nil
}

// Autosave records one in-progress answer of a delivered exam.
func (s *ExamDeliveryService) Autosave(ctx context.Context, scheduleID uuid.UUID, userID, position, answer int) error {
	sched, err := ownedSchedule(ctx, s.schedules, scheduleID, userID)
	if err != nil {
		return err
	}
	if sched.Status.Closed() {
		return ErrExamNotAvailable
	}
	if len(sched.QuestionIDs) == 0 {
		return ErrNotDelivered
	}
	if position < 0 || position >= len(sched.QuestionIDs) {
		return invalid("position", fmt.Sprintf("position must be between 0 and %d", len(sched.QuestionIDs)-1))
	}
	return s.cache.SaveAnswer(ctx, scheduleID, userID, position, answer)
}

// checkAvailable applies the availability rules. Theory exams are never
// gated by scheduling; practical exams need an approved schedule with an
// examiner and expire once the window after scheduled_at has passed.
func (s *ExamDeliveryService) checkAvailable(ctx context.Context, sched *model.ExamSchedule) error {
	if sched.Status.Closed() {
		if sched.Status == model.ScheduleStatusExpired {
			return ErrExamExpired
		}
		return ErrExamNotAvailable
	}
	if sched.ExamType == model.ExamTypeTheory {
		return nil
	}

	if sched.Status != model.ScheduleStatusApproved || sched.ExaminerID == nil {
		return ErrExamNotAvailable
	}
	if s.now().After(sched.ScheduledAt.Add(s.cfg.PracticalExpiryWindow)) {
		err := s.schedules.UpdateStatus(ctx, sched.ID, model.ScheduleStatusExpired)
		if err != nil && !errors.Is(err, repository.ErrStaleState) {
			s.log.Error().Err(err).Str("exam_id", sched.ID.String()).Msg("Failed to mark exam expired")
		}
		return ErrExamExpired
	}
	return nil
}

func (s *ExamDeliveryService) selectQuestions(ctx context.Context, examType model.ExamType) ([]uuid.UUID, error) {
	var (
		ids []uuid.UUID
		err error
	)
	if examType == model.ExamTypePractical {
		ids, err = s.questions.PoolIDs(ctx, examType, s.cfg.PracticalQuestionCount)
	} else {
		ids, err = s.questions.SampleIDs(ctx, examType, s.cfg.TheoryQuestionCount)
	}
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrNoQuestions
	}
	return ids, nil
}

func localize(questions []model.ExamQuestion, lang model.Language) []model.QuestionForTaker {
	out := make([]model.QuestionForTaker, len(questions))
	for i := range questions {
		text := questions[i].Localize(lang)
		out[i] = model.QuestionForTaker{
			ID:       questions[i].ID,
			Question: text.Question,
			Options:  text.Options,
		}
	}
	return out
}

// ownedSchedule loads a schedule and hides schedules of other users.
func ownedSchedule(ctx context.Context, schedules ScheduleStore, id uuid.UUID, userID int) (*model.ExamSchedule, error) {
	sched, err := schedules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sched.UserID != userID {
		return nil, ErrNotFound
	}
	return sched, nil
}
