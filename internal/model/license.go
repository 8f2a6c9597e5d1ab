package model

import (
	"time"

	"github.com/google/uuid"
)

// LicenseStatus is operator-set; it is never derived from points.
type LicenseStatus string

const (
	LicenseStatusValid     LicenseStatus = "Valid"
	LicenseStatusExpired   LicenseStatus = "Expired"
	LicenseStatusSuspended LicenseStatus = "Suspended"
	LicenseStatusRevoked   LicenseStatus = "Revoked"
)

// License is a user's driving license with its demerit point balance.
type License struct {
	ID            int           `json:"id"`
	UserID        int           `json:"user_id"`
	LicenseNumber string        `json:"license_number"`
	Class         string        `json:"class"`
	IssueDate     time.Time     `json:"issue_date"`
	ExpiryDate    time.Time     `json:"expiry_date"`
	Status        LicenseStatus `json:"status"`
	Points        int           `json:"points"`
	MaxPoints     int           `json:"max_points"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// AtMaxPoints reports whether the license has reached its point ceiling.
func (l *License) AtMaxPoints() bool {
	return l.Points >= l.MaxPoints
}

// Violation is an append-only traffic violation recorded by an officer.
type Violation struct {
	ID            uuid.UUID `json:"id"`
	LicenseID     int       `json:"license_id"`
	UserID        int       `json:"user_id"`
	ViolationType string    `json:"violation_type"`
	Points        int       `json:"points"`
	Location      string    `json:"location"`
	OccurredAt    time.Time `json:"date"`
	OfficerID     int       `json:"officer_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// RecordViolationRequest is the payload for recording a violation.
type RecordViolationRequest struct {
	UserID        int        `json:"userId" binding:"required,min=1"`
	LicenseNumber string     `json:"licenseNumber" binding:"required,max=50"`
	ViolationType string     `json:"violationType" binding:"required,max=100"`
	Points        int        `json:"points" binding:"required,min=1"`
	Location      string     `json:"location" binding:"required,max=255"`
	Date          *time.Time `json:"date" binding:"omitempty"`
}

// LicenseDetail is a license with its holder and violation history.
type LicenseDetail struct {
	License
	HolderName  string      `json:"holder_name"`
	AtMaxPoints bool        `json:"at_max_points"`
	Violations  []Violation `json:"violations"`
}
