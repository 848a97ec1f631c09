package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/pkg/response"
)

type roundService interface {
	List(ctx context.Context, filter models.BusRoundFilter) ([]models.BusRound, error)
	Get(ctx context.Context, id int64) (*models.BusRound, error)
	Create(ctx context.Context, in models.NewBusRound, actorID int64) (*models.BusRound, error)
	Update(ctx context.Context, id int64, patch models.BusRoundPatch, actorID int64) (*models.BusRound, error)
	Delete(ctx context.Context, id int64, actorID int64) error
	Start(ctx context.Context, id int64, actorID int64) (*models.BusRound, error)
	Stop(ctx context.Context, id int64, actorID int64) (*models.BusRound, error)
	Students(ctx context.Context, roundID int64) ([]models.RoundStudent, error)
	Assign(ctx context.Context, roundID int64, in models.NewRoundStudent, actorID int64) (*models.RoundStudent, error)
	Remove(ctx context.Context, roundID, studentID int64, actorID int64) error
}

// RoundHandler exposes bus round endpoints including the start/stop workflow.
type RoundHandler struct {
	service roundService
}

// NewRoundHandler constructs a RoundHandler.
func NewRoundHandler(svc roundService) *RoundHandler {
	return &RoundHandler{service: svc}
}

// List godoc
// @Summary List bus rounds
// @Tags Rounds
// @Produce json
// @Param status query string false "Round status" Enums(pending, in_progress, completed)
// @Param busId query int false "Bus ID"
// @Success 200 {object} response.Envelope
// @Router /bus-rounds [get]
func (h *RoundHandler) List(c *gin.Context) {
	var filter models.BusRoundFilter
	status, ok := queryEnum(c, "status", string(models.RoundPending), string(models.RoundInProgress), string(models.RoundCompleted))
	if !ok {
		return
	}
	if status != "" {
		s := models.RoundStatus(status)
		filter.Status = &s
	}
	if filter.BusID, ok = queryID(c, "busId"); !ok {
		return
	}

	rounds, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, nonNil(rounds), len(rounds))
}

// Get godoc
// @Summary Get bus round
// @Tags Rounds
// @Produce json
// @Param id path int true "Round ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bus-rounds/{id} [get]
func (h *RoundHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	round, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, round)
}

// Create godoc
// @Summary Create bus round
// @Description Status defaults to pending
// @Tags Rounds
// @Accept json
// @Produce json
// @Param payload body models.NewBusRound true "Round payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /bus-rounds [post]
func (h *RoundHandler) Create(c *gin.Context) {
	var req models.NewBusRound
	if !bindJSON(c, &req) {
		return
	}
	round, err := h.service.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, round)
}

// Update godoc
// @Summary Update bus round
// @Description Setting status here emits no notification
// @Tags Rounds
// @Accept json
// @Produce json
// @Param id path int true "Round ID"
// @Param payload body models.BusRoundPatch true "Partial round payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bus-rounds/{id} [put]
func (h *RoundHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.BusRoundPatch
	if !bindJSON(c, &req) {
		return
	}
	round, err := h.service.Update(c.Request.Context(), id, req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, round)
}

// Delete godoc
// @Summary Delete bus round
// @Tags Rounds
// @Param id path int true "Round ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /bus-rounds/{id} [delete]
func (h *RoundHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Start godoc
// @Summary Start bus round
// @Description Moves the round to in_progress and notifies round_started
// @Tags Rounds
// @Produce json
// @Param id path int true "Round ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bus-rounds/{id}/start [post]
func (h *RoundHandler) Start(c *gin.Context) {
	h.transition(c, h.service.Start)
}

// Stop godoc
// @Summary Stop bus round
// @Description Moves the round to completed and notifies round_completed
// @Tags Rounds
// @Produce json
// @Param id path int true "Round ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bus-rounds/{id}/stop [post]
func (h *RoundHandler) Stop(c *gin.Context) {
	h.transition(c, h.service.Stop)
}

func (h *RoundHandler) transition(c *gin.Context, apply func(context.Context, int64, int64) (*models.BusRound, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	round, err := apply(c.Request.Context(), id, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, round)
}

// Students godoc
// @Summary List round assignments
// @Tags Rounds
// @Produce json
// @Param id path int true "Round ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bus-rounds/{id}/students [get]
func (h *RoundHandler) Students(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	items, err := h.service.Students(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, nonNil(items), len(items))
}

// AssignStudent godoc
// @Summary Assign student to round
// @Tags Rounds
// @Accept json
// @Produce json
// @Param id path int true "Round ID"
// @Param payload body models.NewRoundStudent true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bus-rounds/{id}/students [post]
func (h *RoundHandler) AssignStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.NewRoundStudent
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Assign(c.Request.Context(), id, req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// RemoveStudent godoc
// @Summary Remove student from round
// @Tags Rounds
// @Param id path int true "Round ID"
// @Param studentId path int true "Student ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /bus-rounds/{id}/students/{studentId} [delete]
func (h *RoundHandler) RemoveStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	studentID, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	if err := h.service.Remove(c.Request.Context(), id, studentID, actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
