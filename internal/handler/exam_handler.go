package handler

import (
	"net/http"

	"github.com/dlms/dlms-backend/internal/middleware"
	"github.com/dlms/dlms-backend/internal/model"
	"github.com/dlms/dlms-backend/internal/response"
	"github.com/dlms/dlms-backend/internal/service"
	"github.com/dlms/dlms-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExamHandler handles the citizen side of the exam workflow.
type ExamHandler struct {
	delivery  *service.ExamDeliveryService
	scoring   *service.ExamScoringService
	schedules *service.ScheduleService
	log       zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(
	delivery *service.ExamDeliveryService,
	scoring *service.ExamScoringService,
	schedules *service.ScheduleService,
	log zerolog.Logger,
) *ExamHandler {
	return &ExamHandler{
		delivery:  delivery,
		scoring:   scoring,
		schedules: schedules,
		log:       log.With().Str("component", "exam_handler").Logger(),
	}
}

// TakeExam godoc
// GET /api/v1/exams/take/:exam_id?language=en|am
// Delivers the exam paper. The question set is fixed on first delivery.
func (h *ExamHandler) TakeExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var q model.TakeExamQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.delivery.Deliver(c.Request.Context(), examID, claims.UserID, q.Language)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// SubmitExam godoc
// POST /api/v1/exams/take/:exam_id/submit
// Grades the submitted answers and records the attempt.
func (h *ExamHandler) SubmitExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	// The token identity wins over any userId in the body.
	userName := req.UserName
	if userName == "" {
		userName = claims.Name
	}

	result, err := h.scoring.Submit(c.Request.Context(), service.SubmitInput{
		ScheduleID: examID,
		UserID:     claims.UserID,
		UserName:   userName,
		Answers:    req.Answers,
		TimeSpent:  req.TimeSpent,
		Language:   req.Language,
		Cancelled:  req.Cancelled,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusCreated, gin.H{"result": result.Summary()}, "exam submitted")
}

// GetExamState godoc
// GET /api/v1/exams/take/:exam_id/state
// Returns the exam status and the answers autosaved so far.
func (h *ExamHandler) GetExamState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.delivery.State(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// BookExam godoc
// POST /api/v1/exams/schedule
// Books a theory or practical exam for the current user.
func (h *ExamHandler) BookExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.BookExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sched, err := h.schedules.Book(c.Request.Context(), claims.UserID, req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": sched})
}

// ListMyExams godoc
// GET /api/v1/exams/my
func (h *ExamHandler) ListMyExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	exams, err := h.schedules.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// ListResults godoc
// GET /api/v1/exams/results
// Returns the current user's results, newest attempt first.
func (h *ExamHandler) ListResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.scoring.ListResults(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// StartTrial godoc
// GET /api/v1/exams/trial?language=&count=
// Starts a practice quiz of 20 or 50 theory questions.
func (h *ExamHandler) StartTrial(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var q model.TrialQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.delivery.Trial(c.Request.Context(), claims.UserID, q.Language, q.Count)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// SubmitTrial godoc
// POST /api/v1/exams/trial/:trial_id/submit
func (h *ExamHandler) SubmitTrial(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	trialID, err := uuid.Parse(c.Param("trial_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.TrialSubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	userName := req.UserName
	if userName == "" {
		userName = claims.Name
	}

	result, err := h.scoring.SubmitTrial(c.Request.Context(), service.TrialSubmitInput{
		TrialID:   trialID,
		UserID:    claims.UserID,
		UserName:  userName,
		Answers:   req.Answers,
		TimeSpent: req.TimeSpent,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"result": result.Summary()})
}
