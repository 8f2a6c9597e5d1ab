package handler

import (
	"errors"
	"net/http"

	"github.com/dlms/dlms-backend/internal/response"
	"github.com/dlms/dlms-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// statusFor maps a service error to its HTTP status and error code.
func statusFor(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.ErrInvalidCredentials
	case errors.Is(err, service.ErrExamNotAvailable):
		return http.StatusBadRequest, response.ErrExamNotAvailable
	case errors.Is(err, service.ErrExamExpired):
		return http.StatusBadRequest, response.ErrExamExpired
	case errors.Is(err, service.ErrNotDelivered):
		return http.StatusBadRequest, response.ErrExamNotDelivered
	case errors.Is(err, service.ErrAlreadySubmitted):
		return http.StatusConflict, response.ErrAlreadySubmitted
	case errors.Is(err, service.ErrNoQuestions):
		return http.StatusUnprocessableEntity, response.ErrNoQuestions
	case errors.Is(err, service.ErrTheoryNoApproval):
		return http.StatusBadRequest, response.ErrTheoryNoApproval
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, response.ErrInvalidTransition
	case errors.Is(err, service.ErrNoExaminers):
		return http.StatusConflict, response.ErrNoExaminers
	case errors.Is(err, service.ErrTrialNotFound):
		return http.StatusNotFound, response.ErrTrialNotAvailable
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// fail writes the error response for err and logs it. Business rule
// failures carrying fields become VALIDATION_ERROR responses.
func fail(c *gin.Context, log zerolog.Logger, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		log.Debug().Str("path", c.FullPath()).Interface("fields", verr.Fields).Msg("Validation failed")
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, verr.Fields)
		return
	}

	status, code := statusFor(err)
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("path", c.FullPath()).Str("code", string(code)).Msg("Request failed")
	response.Fail(c, status, code)
}
