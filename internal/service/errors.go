package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/dlms/dlms-backend/internal/balancer"
	"github.com/dlms/dlms-backend/internal/repository"
	"github.com/dlms/dlms-backend/internal/scoring"
)

// Domain errors. Handlers map them to response codes with errors.Is.
var (
	ErrNotFound           = repository.ErrNotFound
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExamNotAvailable   = errors.New("exam is not available")
	ErrExamExpired        = errors.New("exam has expired")
	ErrNotDelivered       = errors.New("exam questions have not been delivered")
	ErrAlreadySubmitted   = errors.New("exam already submitted")
	ErrNoQuestions        = scoring.ErrNoQuestions
	ErrTheoryNoApproval   = errors.New("theory exams are not approved")
	ErrInvalidTransition  = errors.New("invalid schedule status transition")
	ErrNoExaminers        = balancer.ErrNoExaminers
	ErrTrialNotFound      = errors.New("trial session not found")
)

// ValidationError carries field-level messages for business rule failures
// that binding tags cannot express.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
