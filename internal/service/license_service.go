package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dlms/dlms-backend/internal/config"
	"github.com/dlms/dlms-backend/internal/ledger"
	"github.com/dlms/dlms-backend/internal/model"
	"github.com/rs/zerolog"
)

// RecordViolationInput is a violation reported by a traffic police officer.
type RecordViolationInput struct {
	OfficerID     int
	UserID        int
	LicenseNumber string
	ViolationType string
	Points        int
	Location      string
	OccurredAt    *time.Time
}

// LicenseService records violations and reads the license ledger.
type LicenseService struct {
	cfg      *config.Config
	catalog  *config.ViolationCatalog
	licenses LicenseStore
	log      zerolog.Logger
	now      func() time.Time
}

// NewLicenseService creates a new LicenseService.
func NewLicenseService(cfg *config.Config, catalog *config.ViolationCatalog, licenses LicenseStore, log zerolog.Logger) *LicenseService {
	return &LicenseService{
		cfg:      cfg,
		catalog:  catalog,
		licenses: licenses,
		log:      log.With().Str("component", "license_service").Logger(),
		now:      time.Now,
	}
}

// RecordViolation validates the assessment against the catalog, then
// appends the violation and adds its points to the license in one
// transaction. The balance is clamped at the license's maximum; reaching
// it does not change the license status.
func (s *LicenseService) RecordViolation(ctx context.Context, in RecordViolationInput) (*model.Violation, *model.License, error) {
	in.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
	in.ViolationType = strings.TrimSpace(in.ViolationType)
	in.Location = strings.TrimSpace(in.Location)

	missing := map[string]string{}
	if in.LicenseNumber == "" {
		missing["licenseNumber"] = "licenseNumber is required"
	}
	if in.ViolationType == "" {
		missing["violationType"] = "violationType is required"
	}
	if in.Location == "" {
		missing["location"] = "location is required"
	}
	if len(missing) > 0 {
		return nil, nil, &ValidationError{Fields: missing}
	}

	catalogPoints, ok := s.catalog.Points(in.ViolationType)
	if !ok {
		return nil, nil, invalid("violationType", fmt.Sprintf("unknown violation type %q", in.ViolationType))
	}
	if err := ledger.CheckAssessment(catalogPoints, in.Points); err != nil {
		return nil, nil, invalid("points", err.Error())
	}

	occurred := s.now().UTC()
	if in.OccurredAt != nil {
		occurred = *in.OccurredAt
	}

	v := &model.Violation{
		ViolationType: in.ViolationType,
		Points:        in.Points,
		Location:      in.Location,
		OccurredAt:    occurred,
		OfficerID:     in.OfficerID,
	}

	license, err := s.licenses.RecordViolation(ctx, in.LicenseNumber, v, func(l *model.License) (int, error) {
		if l.UserID != in.UserID {
			return 0, ErrNotFound
		}
		ceiling := l.MaxPoints
		if ceiling <= 0 {
			ceiling = s.cfg.MaxLicensePoints
		}
		next, _ := ledger.Apply(l.Points, in.Points, ceiling)
		return next, nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().
		Str("license_number", license.LicenseNumber).
		Str("violation_type", v.ViolationType).
		Int("points", v.Points).
		Int("balance", license.Points).
		Bool("at_max_points", license.AtMaxPoints()).
		Int("officer_id", in.OfficerID).
		Msg("Violation recorded")

	return v, license, nil
}

// GetLicenseDetail returns a license with its holder and violation history.
func (s *LicenseService) GetLicenseDetail(ctx context.Context, licenseNumber string) (*model.LicenseDetail, error) {
	license, holder, err := s.licenses.GetDetail(ctx, licenseNumber)
	if err != nil {
		return nil, err
	}

	violations, err := s.licenses.ListViolations(ctx, license.ID)
	if err != nil {
		return nil, fmt.Errorf("list violations: %w", err)
	}
	if violations == nil {
		violations = []model.Violation{}
	}

	return &model.LicenseDetail{
		License:     *license,
		HolderName:  holder,
		AtMaxPoints: license.AtMaxPoints(),
		Violations:  violations,
	}, nil
}

// Catalog returns the violation types with their canonical points.
func (s *LicenseService) Catalog() []config.ViolationType {
	return s.catalog.Types()
}
