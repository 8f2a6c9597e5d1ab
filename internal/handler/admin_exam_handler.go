package handler

import (
	"net/http"

	"github.com/dlms/dlms-backend/internal/model"
	"github.com/dlms/dlms-backend/internal/response"
	"github.com/dlms/dlms-backend/internal/service"
	"github.com/dlms/dlms-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AdminExamHandler handles exam schedule administration.
type AdminExamHandler struct {
	schedules *service.ScheduleService
	log       zerolog.Logger
}

// NewAdminExamHandler creates a new AdminExamHandler.
func NewAdminExamHandler(schedules *service.ScheduleService, log zerolog.Logger) *AdminExamHandler {
	return &AdminExamHandler{
		schedules: schedules,
		log:       log.With().Str("component", "admin_exam_handler").Logger(),
	}
}

// ListExams godoc
// GET /api/v1/admin/exams?status=&exam_type=&page=&per_page=
func (h *AdminExamHandler) ListExams(c *gin.Context) {
	var q model.ScheduleListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	filter := model.ScheduleFilter{Status: q.Status, ExamType: q.ExamType}
	exams, pagination, err := h.schedules.ListAll(c.Request.Context(), filter, q.Page, q.PerPage)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// ApproveExam godoc
// POST /api/v1/admin/exams/:exam_id/approve
// Approves a practical exam and assigns the least-loaded examiner.
func (h *AdminExamHandler) ApproveExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	assignment, err := h.schedules.Approve(c.Request.Context(), examID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, assignment, "exam approved")
}

// CancelExam godoc
// POST /api/v1/admin/exams/:exam_id/cancel
func (h *AdminExamHandler) CancelExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.schedules.Cancel(c.Request.Context(), examID); err != nil {
		fail(c, h.log, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, gin.H{}, "exam cancelled")
}

// ExaminerWorkload godoc
// GET /api/v1/admin/examiners/workload
// Returns each active examiner's live count of open practical exams.
func (h *AdminExamHandler) ExaminerWorkload(c *gin.Context) {
	loads, err := h.schedules.ExaminerWorkloads(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"examiners": loads})
}
