package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnswerDraftRepository handles autosaved answer persistence.
type AnswerDraftRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerDraftRepository creates a new AnswerDraftRepository.
func NewAnswerDraftRepository(pool *pgxpool.Pool) *AnswerDraftRepository {
	return &AnswerDraftRepository{pool: pool}
}

// Upsert stores the latest answer for one position. Drafts of schedules
// that are already closed are ignored.
func (r *AnswerDraftRepository) Upsert(ctx context.Context, scheduleID uuid.UUID, userID, position, answer int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_answer_drafts (schedule_id, user_id, position, answer)
		 SELECT $1, $2, $3, $4
		 WHERE EXISTS (
		     SELECT 1 FROM exam_schedules
		     WHERE id = $1 AND user_id = $2 AND status NOT IN ('completed', 'cancelled', 'expired')
		 )
		 ON CONFLICT (schedule_id, user_id, position) DO UPDATE
		 SET answer = EXCLUDED.answer, updated_at = NOW()`,
		scheduleID, userID, position, answer)
	return err
}

// ListBySchedule returns the persisted drafts as position → answer.
func (r *AnswerDraftRepository) ListBySchedule(ctx context.Context, scheduleID uuid.UUID, userID int) (map[int]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT position, answer FROM exam_answer_drafts
		 WHERE schedule_id = $1 AND user_id = $2`, scheduleID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drafts := make(map[int]int)
	for rows.Next() {
		var pos, ans int
		if err := rows.Scan(&pos, &ans); err != nil {
			return nil, err
		}
		drafts[pos] = ans
	}
	return drafts, rows.Err()
}
