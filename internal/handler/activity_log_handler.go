package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/internal/service"
	"github.com/noah-isme/schoolbus-api/pkg/response"
)

type activityLogService interface {
	List(ctx context.Context, filter models.ActivityLogFilter) ([]models.ActivityLog, error)
	Export(ctx context.Context, filter models.ActivityLogFilter, format string) (*service.ExportResult, error)
}

// ActivityLogHandler serves the audit trail.
type ActivityLogHandler struct {
	service activityLogService
}

// NewActivityLogHandler constructs an ActivityLogHandler.
func NewActivityLogHandler(svc activityLogService) *ActivityLogHandler {
	return &ActivityLogHandler{service: svc}
}

// List godoc
// @Summary List activity logs
// @Description Newest first
// @Tags Activity Logs
// @Produce json
// @Param userId query int false "Acting user ID"
// @Param action query string false "Action name"
// @Param limit query int false "Maximum number of entries"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /activity-logs [get]
func (h *ActivityLogHandler) List(c *gin.Context) {
	filter, ok := activityFilter(c)
	if !ok {
		return
	}
	logs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, nonNil(logs), len(logs))
}

// Export godoc
// @Summary Export activity logs
// @Tags Activity Logs
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "Export format" Enums(csv, pdf)
// @Param userId query int false "Acting user ID"
// @Param action query string false "Action name"
// @Param limit query int false "Maximum number of entries"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /activity-logs/export [get]
func (h *ActivityLogHandler) Export(c *gin.Context) {
	filter, ok := activityFilter(c)
	if !ok {
		return
	}
	result, err := h.service.Export(c.Request.Context(), filter, c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func activityFilter(c *gin.Context) (models.ActivityLogFilter, bool) {
	var (
		filter models.ActivityLogFilter
		ok     bool
	)
	if filter.UserID, ok = queryID(c, "userId"); !ok {
		return filter, false
	}
	if filter.Limit, ok = queryLimit(c); !ok {
		return filter, false
	}
	filter.Action = strings.TrimSpace(c.Query("action"))
	return filter, true
}
