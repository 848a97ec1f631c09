package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/pkg/response"
)

type busService interface {
	List(ctx context.Context) ([]models.Bus, error)
	Get(ctx context.Context, id int64) (*models.Bus, error)
	Create(ctx context.Context, in models.NewBus, actorID int64) (*models.Bus, error)
	Update(ctx context.Context, id int64, patch models.BusPatch, actorID int64) (*models.Bus, error)
	Delete(ctx context.Context, id int64, actorID int64) error
}

// BusHandler exposes fleet endpoints.
type BusHandler struct {
	service busService
}

// NewBusHandler constructs a BusHandler.
func NewBusHandler(svc busService) *BusHandler {
	return &BusHandler{service: svc}
}

// List godoc
// @Summary List buses
// @Tags Buses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /buses [get]
func (h *BusHandler) List(c *gin.Context) {
	buses, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, nonNil(buses), len(buses))
}

// Get godoc
// @Summary Get bus
// @Tags Buses
// @Produce json
// @Param id path int true "Bus ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /buses/{id} [get]
func (h *BusHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	bus, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bus)
}

// Create godoc
// @Summary Create bus
// @Tags Buses
// @Accept json
// @Produce json
// @Param payload body models.NewBus true "Bus payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /buses [post]
func (h *BusHandler) Create(c *gin.Context) {
	var req models.NewBus
	if !bindJSON(c, &req) {
		return
	}
	bus, err := h.service.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, bus)
}

// Update godoc
// @Summary Update bus
// @Tags Buses
// @Accept json
// @Produce json
// @Param id path int true "Bus ID"
// @Param payload body models.BusPatch true "Partial bus payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /buses/{id} [put]
func (h *BusHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.BusPatch
	if !bindJSON(c, &req) {
		return
	}
	bus, err := h.service.Update(c.Request.Context(), id, req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bus)
}

// Delete godoc
// @Summary Delete bus
// @Tags Buses
// @Param id path int true "Bus ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /buses/{id} [delete]
func (h *BusHandler) Delete(c *gin.Context) {
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
