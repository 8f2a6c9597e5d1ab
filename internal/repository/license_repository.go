package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dlms/dlms-backend/internal/database"
	"github.com/dlms/dlms-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateLicense is returned when the license number or holder
// already has a license.
var ErrDuplicateLicense = errors.New("license already issued")

// PointsFunc validates a locked license against the violation being
// recorded and returns the license's new point balance.
type PointsFunc func(l *model.License) (newPoints int, err error)

// LicenseRepository handles license and violation data access.
type LicenseRepository struct {
	pool *pgxpool.Pool
}

// NewLicenseRepository creates a new LicenseRepository.
func NewLicenseRepository(pool *pgxpool.Pool) *LicenseRepository {
	return &LicenseRepository{pool: pool}
}

const licenseColumns = `l.id, l.user_id, l.license_number, l.class, l.issue_date, l.expiry_date,
	l.status, l.points, l.max_points, l.created_at, l.updated_at`

func scanLicense(row interface{ Scan(dest ...any) error }, extra ...any) (*model.License, error) {
	l := &model.License{}
	dest := []any{&l.ID, &l.UserID, &l.LicenseNumber, &l.Class, &l.IssueDate, &l.ExpiryDate,
		&l.Status, &l.Points, &l.MaxPoints, &l.CreatedAt, &l.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, notFound(err)
	}
	return l, nil
}

// Issue inserts a new license. Points start at zero.
func (r *LicenseRepository) Issue(ctx context.Context, l *model.License) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO licenses (user_id, license_number, class, issue_date, expiry_date, status, max_points)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, points, created_at, updated_at`,
		l.UserID, l.LicenseNumber, l.Class, l.IssueDate, l.ExpiryDate, l.Status, l.MaxPoints,
	).Scan(&l.ID, &l.Points, &l.CreatedAt, &l.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateLicense
	}
	return err
}

// GetDetail retrieves a license by number with its holder's name.
func (r *LicenseRepository) GetDetail(ctx context.Context, licenseNumber string) (*model.License, string, error) {
	var holder string
	l, err := scanLicense(r.pool.QueryRow(ctx,
		`SELECT `+licenseColumns+`, u.name
		 FROM licenses l JOIN users u ON u.id = l.user_id
		 WHERE l.license_number = $1`, licenseNumber), &holder)
	if err != nil {
		return nil, "", err
	}
	return l, holder, nil
}

// ListViolations retrieves a license's violation history, newest first.
func (r *LicenseRepository) ListViolations(ctx context.Context, licenseID int) ([]model.Violation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, license_id, user_id, violation_type, points, location, occurred_at, officer_id, created_at
		 FROM violations
		 WHERE license_id = $1
		 ORDER BY occurred_at DESC, created_at DESC`, licenseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var violations []model.Violation
	for rows.Next() {
		var v model.Violation
		if err := rows.Scan(&v.ID, &v.LicenseID, &v.UserID, &v.ViolationType, &v.Points,
			&v.Location, &v.OccurredAt, &v.OfficerID, &v.CreatedAt); err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}

// RecordViolation appends v and updates the license's points atomically.
// The license row is locked for the duration of the transaction so
// concurrent recordings against the same license apply one after another.
func (r *LicenseRepository) RecordViolation(ctx context.Context, licenseNumber string, v *model.Violation, points PointsFunc) (*model.License, error) {
	var updated *model.License

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		l, err := scanLicense(tx.QueryRow(ctx,
			`SELECT `+licenseColumns+` FROM licenses l WHERE l.license_number = $1 FOR UPDATE`, licenseNumber))
		if err != nil {
			return err
		}

		newPoints, err := points(l)
		if err != nil {
			return err
		}

		v.LicenseID = l.ID
		v.UserID = l.UserID
		if err := tx.QueryRow(ctx,
			`INSERT INTO violations (license_id, user_id, violation_type, points, location, occurred_at, officer_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id, created_at`,
			v.LicenseID, v.UserID, v.ViolationType, v.Points, v.Location, v.OccurredAt, v.OfficerID,
		).Scan(&v.ID, &v.CreatedAt); err != nil {
			return fmt.Errorf("insert violation: %w", err)
		}

		if err := tx.QueryRow(ctx,
			`UPDATE licenses SET points = $2, updated_at = NOW()
			 WHERE id = $1
			 RETURNING points, updated_at`, l.ID, newPoints,
		).Scan(&l.Points, &l.UpdatedAt); err != nil {
			return fmt.Errorf("update points: %w", err)
		}

		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
