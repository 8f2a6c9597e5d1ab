package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dlms/dlms-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, exam_type, language, category, difficulty, question, options,
	correct_answer, translations, created_at, updated_at, deleted_at`

func scanQuestion(row interface{ Scan(dest ...any) error }) (*model.ExamQuestion, error) {
	q := &model.ExamQuestion{}
	var options, translations []byte
	if err := row.Scan(&q.ID, &q.ExamType, &q.Language, &q.Category, &q.Difficulty, &q.Question,
		&options, &q.CorrectAnswer, &translations, &q.CreatedAt, &q.UpdatedAt, &q.DeletedAt); err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return nil, fmt.Errorf("decode options of %s: %w", q.ID, err)
	}
	if len(translations) > 0 {
		if err := json.Unmarshal(translations, &q.Translations); err != nil {
			return nil, fmt.Errorf("decode translations of %s: %w", q.ID, err)
		}
	}
	return q, nil
}

func encodeQuestionJSON(q *model.ExamQuestion) (options, translations []byte, err error) {
	if options, err = json.Marshal(q.Options); err != nil {
		return nil, nil, err
	}
	tr := q.Translations
	if tr == nil {
		tr = map[model.Language]model.QuestionText{}
	}
	if translations, err = json.Marshal(tr); err != nil {
		return nil, nil, err
	}
	return options, translations, nil
}

// GetByID retrieves a question, including soft-deleted ones.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamQuestion, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM exam_questions WHERE id = $1`, id))
}

// ListByIDs retrieves questions by ID in the order of ids, including
// soft-deleted ones so already-delivered papers stay gradable. IDs with no
// row are skipped.
func (r *QuestionRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.ExamQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM exam_questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*model.ExamQuestion, len(ids))
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		byID[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	questions := make([]model.ExamQuestion, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			questions = append(questions, *q)
		}
	}
	return questions, nil
}

// SampleIDs picks up to n random live question IDs of an exam type,
// without replacement.
func (r *QuestionRepository) SampleIDs(ctx context.Context, examType model.ExamType, n int) ([]uuid.UUID, error) {
	return r.collectIDs(ctx,
		`SELECT id FROM exam_questions
		 WHERE exam_type = $1 AND deleted_at IS NULL
		 ORDER BY random()
		 LIMIT $2`, examType, n)
}

// PoolIDs returns up to n live question IDs of an exam type in creation order.
func (r *QuestionRepository) PoolIDs(ctx context.Context, examType model.ExamType, n int) ([]uuid.UUID, error) {
	return r.collectIDs(ctx,
		`SELECT id FROM exam_questions
		 WHERE exam_type = $1 AND deleted_at IS NULL
		 ORDER BY created_at, id
		 LIMIT $2`, examType, n)
}

func (r *QuestionRepository) collectIDs(ctx context.Context, sql string, args ...any) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// List retrieves live questions matching the filter with pagination.
func (r *QuestionRepository) List(ctx context.Context, f model.QuestionFilter, limit, offset int) ([]model.ExamQuestion, int, error) {
	where := ` WHERE deleted_at IS NULL`
	var args []any
	if f.ExamType != "" {
		args = append(args, f.ExamType)
		where += ` AND exam_type = $` + strconv.Itoa(len(args))
	}
	if f.Language != "" {
		args = append(args, f.Language)
		where += ` AND language = $` + strconv.Itoa(len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where += ` AND category = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exam_questions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + questionColumns + ` FROM exam_questions` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var questions []model.ExamQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, err
		}
		questions = append(questions, *q)
	}
	return questions, total, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.ExamQuestion) error {
	options, translations, err := encodeQuestionJSON(q)
	if err != nil {
		return fmt.Errorf("encode question: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_questions (exam_type, language, category, difficulty, question, options, correct_answer, translations)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		q.ExamType, q.Language, q.Category, q.Difficulty, q.Question, options, q.CorrectAnswer, translations,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Update overwrites a live question.
func (r *QuestionRepository) Update(ctx context.Context, q *model.ExamQuestion) error {
	options, translations, err := encodeQuestionJSON(q)
	if err != nil {
		return fmt.Errorf("encode question: %w", err)
	}
	err = r.pool.QueryRow(ctx,
		`UPDATE exam_questions
		 SET exam_type = $2, language = $3, category = $4, difficulty = $5, question = $6,
		     options = $7, correct_answer = $8, translations = $9, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL
		 RETURNING created_at, updated_at`,
		q.ID, q.ExamType, q.Language, q.Category, q.Difficulty, q.Question, options, q.CorrectAnswer, translations,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	return notFound(err)
}

// SoftDelete removes a question from the delivery pool.
func (r *QuestionRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_questions SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
