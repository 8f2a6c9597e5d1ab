package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dlms/dlms-backend/internal/database"
	"github.com/dlms/dlms-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AssignFunc decides which examiner receives a schedule given the live
// workloads. It runs while the assignment lock is held.
type AssignFunc func(s *model.ExamSchedule, loads []model.ExaminerLoad) (examinerID int, err error)

// ExamScheduleRepository handles exam schedule data access.
type ExamScheduleRepository struct {
	pool *pgxpool.Pool
}

// NewExamScheduleRepository creates a new ExamScheduleRepository.
func NewExamScheduleRepository(pool *pgxpool.Pool) *ExamScheduleRepository {
	return &ExamScheduleRepository{pool: pool}
}

const scheduleColumns = `id, user_id, exam_type, scheduled_at, location, examiner_id, status,
	question_ids, created_at, updated_at`

func scanSchedule(row interface{ Scan(dest ...any) error }) (*model.ExamSchedule, error) {
	s := &model.ExamSchedule{}
	if err := row.Scan(&s.ID, &s.UserID, &s.ExamType, &s.ScheduledAt, &s.Location, &s.ExaminerID,
		&s.Status, &s.QuestionIDs, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func collectSchedules(rows pgx.Rows) ([]model.ExamSchedule, error) {
	defer rows.Close()
	var out []model.ExamSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// GetByID retrieves a schedule by its UUID.
func (r *ExamScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSchedule, error) {
	return scanSchedule(r.pool.QueryRow(ctx,
		`SELECT `+scheduleColumns+` FROM exam_schedules WHERE id = $1`, id))
}

// Create inserts a new schedule.
func (r *ExamScheduleRepository) Create(ctx context.Context, s *model.ExamSchedule) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_schedules (user_id, exam_type, scheduled_at, location, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		s.UserID, s.ExamType, s.ScheduledAt, s.Location, s.Status,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// ListByUser retrieves all schedules of a user, newest first.
func (r *ExamScheduleRepository) ListByUser(ctx context.Context, userID int) ([]model.ExamSchedule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+scheduleColumns+` FROM exam_schedules
		 WHERE user_id = $1
		 ORDER BY scheduled_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectSchedules(rows)
}

// List retrieves schedules matching the filter with pagination.
func (r *ExamScheduleRepository) List(ctx context.Context, f model.ScheduleFilter, limit, offset int) ([]model.ExamSchedule, int, error) {
	where := ` WHERE TRUE`
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}
	if f.ExamType != "" {
		args = append(args, f.ExamType)
		where += ` AND exam_type = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exam_schedules`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + scheduleColumns + ` FROM exam_schedules` + where +
		` ORDER BY scheduled_at ASC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	schedules, err := collectSchedules(rows)
	return schedules, total, err
}

// SetQuestionIDsIfEmpty stores the delivered question set unless one is
// already stored, and returns whichever set is stored afterwards. Concurrent
// first deliveries therefore agree on a single set.
func (r *ExamScheduleRepository) SetQuestionIDsIfEmpty(ctx context.Context, id uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	var stored []uuid.UUID
	err := r.pool.QueryRow(ctx,
		`UPDATE exam_schedules
		 SET question_ids = $2, updated_at = NOW()
		 WHERE id = $1 AND question_ids IS NULL
		 RETURNING question_ids`, id, ids,
	).Scan(&stored)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	err = r.pool.QueryRow(ctx,
		`SELECT question_ids FROM exam_schedules WHERE id = $1`, id,
	).Scan(&stored)
	if err != nil {
		return nil, notFound(err)
	}
	return stored, nil
}

// UpdateStatus moves a schedule to status unless it is already closed.
func (r *ExamScheduleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ScheduleStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_schedules SET status = $2, updated_at = NOW()
		 WHERE id = $1 AND status NOT IN ('completed', 'cancelled', 'expired')`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleState
	}
	return nil
}

// ExpireOverdue marks practical schedules whose scheduled time is before
// cutoff and that were never taken as expired. Returns the number expired.
func (r *ExamScheduleRepository) ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_schedules SET status = 'expired', updated_at = NOW()
		 WHERE exam_type = 'practical'
		   AND status IN ('scheduled', 'approved')
		   AND scheduled_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ExaminerLoads returns the live workload of every active examiner.
func (r *ExamScheduleRepository) ExaminerLoads(ctx context.Context) ([]model.ExaminerLoad, error) {
	return examinerLoads(ctx, r.pool)
}

func examinerLoads(ctx context.Context, q dbtx) ([]model.ExaminerLoad, error) {
	rows, err := q.Query(ctx,
		`SELECT u.id, u.name, COUNT(s.id)
		 FROM users u
		 LEFT JOIN exam_schedules s
		   ON s.examiner_id = u.id
		  AND s.exam_type = 'practical'
		  AND s.status IN ('approved', 'scheduled')
		 WHERE u.role = 'examiner' AND u.active
		 GROUP BY u.id, u.name
		 ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loads []model.ExaminerLoad
	for rows.Next() {
		var l model.ExaminerLoad
		if err := rows.Scan(&l.ExaminerID, &l.Name, &l.Load); err != nil {
			return nil, err
		}
		loads = append(loads, l)
	}
	return loads, rows.Err()
}

// AssignExaminer approves a schedule and assigns the examiner chosen by
// choose. Assignments are serialized through a transaction-scoped advisory
// lock, so the workloads choose sees cannot change before the write commits.
func (r *ExamScheduleRepository) AssignExaminer(ctx context.Context, id uuid.UUID, choose AssignFunc) (*model.ExamSchedule, error) {
	var assigned *model.ExamSchedule

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := advisoryLock(ctx, tx, lockNamespaceAssignment, 0); err != nil {
			return fmt.Errorf("acquire assignment lock: %w", err)
		}

		s, err := scanSchedule(tx.QueryRow(ctx,
			`SELECT `+scheduleColumns+` FROM exam_schedules WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		loads, err := examinerLoads(ctx, tx)
		if err != nil {
			return fmt.Errorf("read workloads: %w", err)
		}

		examinerID, err := choose(s, loads)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx,
			`UPDATE exam_schedules
			 SET status = 'approved', examiner_id = $2, updated_at = NOW()
			 WHERE id = $1 AND status = 'scheduled'`, id, examinerID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrStaleState
		}

		s.Status = model.ScheduleStatusApproved
		s.ExaminerID = &examinerID
		assigned = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assigned, nil
}
