package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/pkg/response"
)

type notificationService interface {
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	Send(ctx context.Context, in models.NewNotification, actorID int64) (*models.Notification, error)
}

var notificationTypes = []string{
	string(models.NotificationArrival),
	string(models.NotificationWillArrive),
	string(models.NotificationDelay),
	string(models.NotificationRoundStarted),
	string(models.NotificationRoundCompleted),
	string(models.NotificationAbsent),
	string(models.NotificationStudentOnBus),
	string(models.NotificationStudentOffBus),
	string(models.NotificationGeneral),
}

// NotificationHandler lists and sends notifications.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(svc notificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// List godoc
// @Summary List notifications
// @Description Newest first
// @Tags Notifications
// @Produce json
// @Param recipientId query int false "Recipient user ID"
// @Param type query string false "Notification type"
// @Param limit query int false "Maximum number of entries"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	var (
		filter models.NotificationFilter
		ok     bool
	)
	if filter.RecipientID, ok = queryID(c, "recipientId"); !ok {
		return
	}
	kind, ok := queryEnum(c, "type", notificationTypes...)
	if !ok {
		return
	}
	if kind != "" {
		t := models.NotificationType(kind)
		filter.Type = &t
	}
	if filter.Limit, ok = queryLimit(c); !ok {
		return
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, nonNil(items), len(items))
}

// Send godoc
// @Summary Send notification
// @Description senderId defaults to the authenticated user
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body models.NewNotification true "Notification payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /notifications [post]
func (h *NotificationHandler) Send(c *gin.Context) {
	var req models.NewNotification
	if !bindJSON(c, &req) {
		return
	}
	notification, err := h.service.Send(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notification)
}
