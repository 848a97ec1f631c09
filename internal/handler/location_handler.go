package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/pkg/response"
)

type locationService interface {
	Record(ctx context.Context, in models.NewLocation, actorID int64) (*models.Location, error)
	Latest(ctx context.Context, busID int64) (*models.Location, error)
}

// LocationHandler accepts GPS fixes and serves the latest position per bus.
type LocationHandler struct {
	service locationService
}

// NewLocationHandler constructs a LocationHandler.
func NewLocationHandler(svc locationService) *LocationHandler {
	return &LocationHandler{service: svc}
}

// Record godoc
// @Summary Record bus location
// @Tags Tracking
// @Accept json
// @Produce json
// @Param payload body models.NewLocation true "Location fix"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /locations [post]
func (h *LocationHandler) Record(c *gin.Context) {
	var req models.NewLocation
	if !bindJSON(c, &req) {
		return
	}
	location, err := h.service.Record(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, location)
}

// Latest godoc
// @Summary Latest bus location
// @Tags Tracking
// @Produce json
// @Param id path int true "Bus ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /buses/{id}/locations [get]
func (h *LocationHandler) Latest(c *gin.Context) {
	busID, ok := pathID(c, "id")
	if !ok {
		return
	}
	location, err := h.service.Latest(c.Request.Context(), busID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, location)
}
