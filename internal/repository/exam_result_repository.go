package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dlms/dlms-backend/internal/database"
	"github.com/dlms/dlms-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamResultRepository handles exam result data access.
type ExamResultRepository struct {
	pool *pgxpool.Pool
}

// NewExamResultRepository creates a new ExamResultRepository.
func NewExamResultRepository(pool *pgxpool.Pool) *ExamResultRepository {
	return &ExamResultRepository{pool: pool}
}

// Create persists a result in one transaction:
//  1. a per-user advisory lock serializes attempt numbering,
//  2. the linked schedule (if any) is closed with closeStatus, failing with
//     ErrStaleState when it is already closed,
//  3. attempt is set to the count of the user's prior results plus one,
//  4. the result row is inserted and autosave drafts are discarded.
func (r *ExamResultRepository) Create(ctx context.Context, res *model.ExamResult, closeStatus model.ScheduleStatus) error {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := advisoryLock(ctx, tx, lockNamespaceAttempt, int32(res.UserID)); err != nil {
			return fmt.Errorf("acquire attempt lock: %w", err)
		}

		if res.ScheduleID != nil {
			tag, err := tx.Exec(ctx,
				`UPDATE exam_schedules SET status = $2, updated_at = NOW()
				 WHERE id = $1 AND status NOT IN ('completed', 'cancelled', 'expired')`,
				*res.ScheduleID, closeStatus)
			if err != nil {
				return fmt.Errorf("close schedule: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return ErrStaleState
			}
		}

		var prior int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM exam_results WHERE user_id = $1`, res.UserID,
		).Scan(&prior); err != nil {
			return fmt.Errorf("count attempts: %w", err)
		}
		res.Attempt = prior + 1

		if err := tx.QueryRow(ctx,
			`INSERT INTO exam_results (user_id, user_name, schedule_id, exam_type, answers, correct_answers,
			                           total_questions, score, passed, threshold, time_spent, language, attempt, cancelled)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			 RETURNING id, created_at`,
			res.UserID, res.UserName, res.ScheduleID, res.ExamType, answers, res.CorrectAnswers,
			res.TotalQuestions, res.Score, res.Passed, res.Threshold, res.TimeSpent, res.Language, res.Attempt, res.Cancelled,
		).Scan(&res.ID, &res.CreatedAt); err != nil {
			return fmt.Errorf("insert result: %w", err)
		}

		if res.ScheduleID != nil {
			if _, err := tx.Exec(ctx,
				`DELETE FROM exam_answer_drafts WHERE schedule_id = $1 AND user_id = $2`,
				*res.ScheduleID, res.UserID); err != nil {
				return fmt.Errorf("discard drafts: %w", err)
			}
		}
		return nil
	})
}

// ListByUser retrieves a user's results, newest first.
func (r *ExamResultRepository) ListByUser(ctx context.Context, userID int) ([]model.ExamResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, user_name, schedule_id, exam_type, answers, correct_answers, total_questions,
		        score, passed, threshold, time_spent, language, attempt, cancelled, created_at
		 FROM exam_results
		 WHERE user_id = $1
		 ORDER BY attempt DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.ExamResult
	for rows.Next() {
		var res model.ExamResult
		var answers []byte
		if err := rows.Scan(&res.ID, &res.UserID, &res.UserName, &res.ScheduleID, &res.ExamType, &answers,
			&res.CorrectAnswers, &res.TotalQuestions, &res.Score, &res.Passed, &res.Threshold, &res.TimeSpent,
			&res.Language, &res.Attempt, &res.Cancelled, &res.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answers, &res.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of %s: %w", res.ID, err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
