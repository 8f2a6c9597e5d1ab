package handler

import (
	"net/http"
	"strings"

	"github.com/dlms/dlms-backend/internal/middleware"
	"github.com/dlms/dlms-backend/internal/model"
	"github.com/dlms/dlms-backend/internal/response"
	"github.com/dlms/dlms-backend/internal/service"
	"github.com/dlms/dlms-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LicenseHandler handles traffic police endpoints.
type LicenseHandler struct {
	licenseService *service.LicenseService
	log            zerolog.Logger
}

// NewLicenseHandler creates a new LicenseHandler.
func NewLicenseHandler(licenseService *service.LicenseService, log zerolog.Logger) *LicenseHandler {
	return &LicenseHandler{
		licenseService: licenseService,
		log:            log.With().Str("component", "license_handler").Logger(),
	}
}

// RecordViolation godoc
// POST /api/v1/traffic-police/violations
// Records a violation and adds its points to the holder's license.
func (h *LicenseHandler) RecordViolation(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.RecordViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	violation, license, err := h.licenseService.RecordViolation(c.Request.Context(), service.RecordViolationInput{
		OfficerID:     claims.UserID,
		UserID:        req.UserID,
		LicenseNumber: req.LicenseNumber,
		ViolationType: req.ViolationType,
		Points:        req.Points,
		Location:      req.Location,
		OccurredAt:    req.Date,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusCreated, gin.H{
		"violation":     violation,
		"license":       license,
		"at_max_points": license.AtMaxPoints(),
	}, "violation recorded")
}

// GetLicense godoc
// GET /api/v1/traffic-police/license/:license_number
// Returns the license, its holder and violation history newest first.
func (h *LicenseHandler) GetLicense(c *gin.Context) {
	number := strings.TrimSpace(c.Param("license_number"))
	if number == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.licenseService.GetLicenseDetail(c.Request.Context(), number)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"license": detail})
}

// ListViolationTypes godoc
// GET /api/v1/traffic-police/violation-types
func (h *LicenseHandler) ListViolationTypes(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"violation_types": h.licenseService.Catalog()})
}
