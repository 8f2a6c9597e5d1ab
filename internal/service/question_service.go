package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dlms/dlms-backend/internal/model"
	"github.com/dlms/dlms-backend/internal/response"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// QuestionService handles question bank administration.
type QuestionService struct {
	questions QuestionStore
	cache     ExamCache
	log       zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions QuestionStore, cache ExamCache, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questions: questions,
		cache:     cache,
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// Get retrieves a live question with its answer key.
func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*model.ExamQuestion, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.DeletedAt != nil {
		return nil, ErrNotFound
	}
	return q, nil
}

// List returns a filtered page of live questions.
func (s *QuestionService) List(ctx context.Context, f model.QuestionFilter, page, perPage int) ([]model.ExamQuestion, *response.Pagination, error) {
	page, perPage = response.ClampPage(page, perPage)

	questions, total, err := s.questions.List(ctx, f, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if questions == nil {
		questions = []model.ExamQuestion{}
	}
	return questions, response.NewPagination(page, perPage, total), nil
}

// Create adds a question to the bank.
func (s *QuestionService) Create(ctx context.Context, req *model.QuestionRequest) (*model.ExamQuestion, error) {
	q, err := buildQuestion(req)
	if err != nil {
		return nil, err
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	s.invalidate(ctx)
	return q, nil
}

// Update replaces a live question's content. Papers already delivered keep
// their question IDs, so an edit changes the text and answer key they are
// graded against.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.QuestionRequest) (*model.ExamQuestion, error) {
	q, err := buildQuestion(req)
	if err != nil {
		return nil, err
	}
	q.ID = id
	if err := s.questions.Update(ctx, q); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return q, nil
}

// Delete soft-deletes a question. It leaves the delivery pool but stays
// resolvable for grading papers that already contain it.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.questions.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *QuestionService) invalidate(ctx context.Context) {
	n, err := s.cache.InvalidatePapers(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Paper cache invalidation failed")
		return
	}
	if n > 0 {
		s.log.Debug().Int("papers", n).Msg("Paper cache invalidated")
	}
}

// buildQuestion checks the invariants binding tags cannot express: the
// correct answer indexes an option, and every translation has the same
// number of options as the base text.
func buildQuestion(req *model.QuestionRequest) (*model.ExamQuestion, error) {
	fields := map[string]string{}

	correct := -1
	if req.CorrectAnswer != nil {
		correct = *req.CorrectAnswer
	}
	if correct < 0 || correct >= len(req.Options) {
		fields["correct_answer"] = fmt.Sprintf("correct_answer must be between 0 and %d", len(req.Options)-1)
	}

	translations := make(map[model.Language]model.QuestionText, len(req.Translations))
	for lang, t := range req.Translations {
		key := "translations." + string(lang)
		switch {
		case lang != model.LanguageEnglish && lang != model.LanguageAmharic:
			fields[key] = "unsupported language"
		case lang == req.Language:
			fields[key] = "translation repeats the base language"
		case strings.TrimSpace(t.Question) == "":
			fields[key] = "question is required"
		case len(t.Options) != len(req.Options):
			fields[key] = fmt.Sprintf("must have %d options", len(req.Options))
		default:
			translations[lang] = t
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	return &model.ExamQuestion{
		ExamType:      req.ExamType,
		Language:      req.Language,
		Category:      strings.TrimSpace(req.Category),
		Difficulty:    req.Difficulty,
		Question:      strings.TrimSpace(req.Question),
		Options:       req.Options,
		CorrectAnswer: correct,
		Translations:  translations,
	}, nil
}
