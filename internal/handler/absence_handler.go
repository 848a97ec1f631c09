package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/pkg/response"
)

type absenceService interface {
	List(ctx context.Context, filter models.AbsenceFilter) ([]models.Absence, error)
	Record(ctx context.Context, in models.NewAbsence, actorID int64) (*models.Absence, error)
}

// AbsenceHandler records and lists student absences.
type AbsenceHandler struct {
	service absenceService
}

// NewAbsenceHandler constructs an AbsenceHandler.
func NewAbsenceHandler(svc absenceService) *AbsenceHandler {
	return &AbsenceHandler{service: svc}
}

// List godoc
// @Summary List absences
// @Tags Absences
// @Produce json
// @Param studentId query int false "Student ID"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /absences [get]
func (h *AbsenceHandler) List(c *gin.Context) {
	studentID, ok := queryID(c, "studentId")
	if !ok {
		return
	}
	filter := models.AbsenceFilter{StudentID: studentID, Date: strings.TrimSpace(c.Query("date"))}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, nonNil(items), len(items))
}

// Record godoc
// @Summary Record absence
// @Description reportedBy defaults to the authenticated user
// @Tags Absences
// @Accept json
// @Produce json
// @Param payload body models.NewAbsence true "Absence payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /absences [post]
func (h *AbsenceHandler) Record(c *gin.Context) {
	var req models.NewAbsence
	if !bindJSON(c, &req) {
		return
	}
	absence, err := h.service.Record(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, absence)
}
