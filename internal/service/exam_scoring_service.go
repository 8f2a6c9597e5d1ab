package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dlms/dlms-backend/internal/config"
	"github.com/dlms/dlms-backend/internal/model"
	"github.com/dlms/dlms-backend/internal/repository"
	"github.com/dlms/dlms-backend/internal/scoring"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SubmitInput is a submission of a scheduled exam.
type SubmitInput struct {
	ScheduleID uuid.UUID
	UserID     int
	UserName   string
	Answers    []*int
	TimeSpent  int
	Language   model.Language
	Cancelled  bool
}

// TrialSubmitInput is a submission of a trial quiz.
type TrialSubmitInput struct {
	TrialID   uuid.UUID
	UserID    int
	UserName  string
	Answers   []*int
	TimeSpent int
}

// ExamScoringService grades submissions and records results.
type ExamScoringService struct {
	cfg       *config.Config
	schedules ScheduleStore
	questions QuestionStore
	results   ResultStore
	drafts    DraftStore
	cache     ExamCache
	log       zerolog.Logger
}

// NewExamScoringService creates a new ExamScoringService.
func NewExamScoringService(
	cfg *config.Config,
	schedules ScheduleStore,
	questions QuestionStore,
	results ResultStore,
	drafts DraftStore,
	cache ExamCache,
	log zerolog.Logger,
) *ExamScoringService {
	return &ExamScoringService{
		cfg:       cfg,
		schedules: schedules,
		questions: questions,
		results:   results,
		drafts:    drafts,
		cache:     cache,
		log:       log.With().Str("component", "exam_scoring").Logger(),
	}
}

// Submit grades a scheduled exam against its delivered question set and
// records the result. Each schedule accepts exactly one submission.
func (s *ExamScoringService) Submit(ctx context.Context, in SubmitInput) (*model.ExamResult, error) {
	sched, err := ownedSchedule(ctx, s.schedules, in.ScheduleID, in.UserID)
	if err != nil {
		return nil, err
	}
	switch sched.Status {
	case model.ScheduleStatusCompleted, model.ScheduleStatusCancelled:
		return nil, ErrAlreadySubmitted
	case model.ScheduleStatusExpired:
		return nil, ErrExamExpired
	}
	if len(sched.QuestionIDs) == 0 {
		return nil, ErrNotDelivered
	}

	items, err := s.answerKey(ctx, sched.QuestionIDs)
	if err != nil {
		return nil, err
	}

	var graded scoring.Result
	closeStatus := model.ScheduleStatusCompleted
	if in.Cancelled {
		graded = scoring.Cancelled(items, s.cfg.PassThreshold)
		closeStatus = model.ScheduleStatusCancelled
	} else {
		graded, err = scoring.Score(items, flattenAnswers(in.Answers), s.cfg.PassThreshold)
		if err != nil {
			return nil, err
		}
	}

	scheduleID := sched.ID
	result := newResult(graded, in.UserID, in.UserName, sched.ExamType, in.TimeSpent, in.Language)
	result.ScheduleID = &scheduleID
	result.Cancelled = in.Cancelled

	if err := s.results.Create(ctx, result, closeStatus); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("save result: %w", err)
	}

	if err := s.cache.ClearAnswers(ctx, sched.ID, in.UserID); err != nil {
		s.log.Warn().Err(err).Str("exam_id", sched.ID.String()).Msg("Failed to clear autosaved answers")
	}

	s.log.Info().
		Str("exam_id", sched.ID.String()).
		Int("user_id", in.UserID).
		Int("score", result.Score).
		Bool("passed", result.Passed).
		Int("attempt", result.Attempt).
		Bool("cancelled", result.Cancelled).
		Msg("Exam submitted and graded")

	return result, nil
}

// SubmitAutosaved submits a scheduled exam using the answers autosaved so
// far, as done when a WebSocket client finishes the exam. Persisted drafts
// stand in when the Redis hash has been evicted.
func (s *ExamScoringService) SubmitAutosaved(ctx context.Context, scheduleID uuid.UUID, userID int, userName string, lang model.Language) (*model.ExamResult, error) {
	sched, err := ownedSchedule(ctx, s.schedules, scheduleID, userID)
	if err != nil {
		return nil, err
	}

	saved, err := s.cache.Answers(ctx, scheduleID, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("exam_id", scheduleID.String()).Msg("Autosave cache read failed")
	}
	if len(saved) == 0 && !sched.Status.Closed() {
		saved, err = s.drafts.ListBySchedule(ctx, scheduleID, userID)
		if err != nil {
			return nil, fmt.Errorf("load drafts: %w", err)
		}
	}

	answers := make([]*int, len(sched.QuestionIDs))
	for pos, ans := range saved {
		if pos >= 0 && pos < len(answers) {
			ans := ans
			answers[pos] = &ans
		}
	}

	return s.Submit(ctx, SubmitInput{
		ScheduleID: scheduleID,
		UserID:     userID,
		UserName:   userName,
		Answers:    answers,
		Language:   lang,
	})
}

// SubmitTrial grades a trial quiz. The trial session is consumed, so a
// trial can be submitted once.
func (s *ExamScoringService) SubmitTrial(ctx context.Context, in TrialSubmitInput) (*model.ExamResult, error) {
	session, err := s.cache.TakeTrial(ctx, in.TrialID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrTrialNotFound
	}
	if session.UserID != in.UserID {
		s.restoreTrial(ctx, session)
		return nil, ErrTrialNotFound
	}

	items, err := s.answerKey(ctx, session.QuestionIDs)
	if err != nil {
		return nil, err
	}
	graded, err := scoring.Score(items, flattenAnswers(in.Answers), s.cfg.TrialPassThreshold)
	if err != nil {
		return nil, err
	}

	result := newResult(graded, in.UserID, in.UserName, model.ExamTypeTrial, in.TimeSpent, session.Language)
	if err := s.results.Create(ctx, result, ""); err != nil {
		s.restoreTrial(ctx, session)
		return nil, fmt.Errorf("save result: %w", err)
	}

	s.log.Info().
		Str("trial_id", in.TrialID.String()).
		Int("user_id", in.UserID).
		Int("score", result.Score).
		Bool("passed", result.Passed).
		Msg("Trial submitted and graded")

	return result, nil
}

func (s *ExamScoringService) restoreTrial(ctx context.Context, session *model.TrialSession) {
	if err := s.cache.SaveTrial(ctx, session, s.cfg.TrialSessionTTL); err != nil {
		s.log.Error().Err(err).Str("trial_id", session.ID.String()).Msg("Failed to restore trial session")
	}
}

// ListResults returns a user's results, newest first.
func (s *ExamScoringService) ListResults(ctx context.Context, userID int) ([]model.ExamResult, error) {
	results, err := s.results.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.ExamResult{}
	}
	return results, nil
}

// answerKey resolves the delivered question IDs, soft-deleted ones
// included, into positional scoring items.
func (s *ExamScoringService) answerKey(ctx context.Context, ids []uuid.UUID) ([]scoring.Item, error) {
	questions, err := s.questions.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) != len(ids) {
		return nil, fmt.Errorf("delivered question set incomplete: %d of %d found", len(questions), len(ids))
	}

	items := make([]scoring.Item, len(questions))
	for i, q := range questions {
		items[i] = scoring.Item{
			QuestionID:  q.ID,
			Correct:     q.CorrectAnswer,
			OptionCount: len(q.Options),
		}
	}
	return items, nil
}

// flattenAnswers maps null entries to scoring.Unanswered.
func flattenAnswers(answers []*int) []int {
	out := make([]int, len(answers))
	for i, a := range answers {
		if a == nil {
			out[i] = scoring.Unanswered
			continue
		}
		out[i] = *a
	}
	return out
}

func newResult(graded scoring.Result, userID int, userName string, examType model.ExamType, timeSpent int, lang model.Language) *model.ExamResult {
	if lang == "" {
		lang = model.LanguageEnglish
	}
	outcomes := make([]model.AnswerOutcome, len(graded.Outcomes))
	for i, o := range graded.Outcomes {
		outcomes[i] = model.AnswerOutcome{QuestionID: o.QuestionID, Submitted: o.Submitted, IsCorrect: o.IsCorrect}
	}
	return &model.ExamResult{
		UserID:         userID,
		UserName:       userName,
		ExamType:       examType,
		Answers:        outcomes,
		CorrectAnswers: graded.CorrectCount,
		TotalQuestions: graded.Total,
		Score:          graded.Percentage,
		Passed:         graded.Passed,
		Threshold:      graded.Threshold,
		TimeSpent:      timeSpent,
		Language:       lang,
	}
}
