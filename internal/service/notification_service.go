package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/internal/validation"
)

type notificationRepository interface {
	CreateNotification(ctx context.Context, in models.NewNotification) (*models.Notification, error)
	ListNotifications(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
}

// NotificationService sends and lists notifications.
type NotificationService struct {
	repo     notificationRepository
	activity activityRecorder
	logger   *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationRepository, activity activityRecorder, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if activity == nil {
		activity = noopRecorder{}
	}
	return &NotificationService{repo: repo, activity: activity, logger: logger}
}

// List returns notifications newest first.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	notifications, err := s.repo.ListNotifications(ctx, filter)
	if err != nil {
		return nil, storageError(err, "notification", "list notifications")
	}
	return notifications, nil
}

// Send stores a notification. The sender defaults to the acting user when
// the payload leaves it out.
func (s *NotificationService) Send(ctx context.Context, in models.NewNotification, actorID int64) (*models.Notification, error) {
	if !in.SenderID.Set {
		in.SenderID = actorRef(actorID)
	}
	in, err := validation.NewNotification(in)
	if err != nil {
		return nil, validationError(err, "invalid notification payload")
	}
	notification, err := s.repo.CreateNotification(ctx, in)
	if err != nil {
		return nil, storageError(err, "notification", "send notification")
	}

	s.activity.Record(actorID, models.ActionSendNotification, map[string]interface{}{
		"notificationId": notification.ID,
		"type":           notification.Type,
		"recipientId":    notification.RecipientID,
	})
	return notification, nil
}
