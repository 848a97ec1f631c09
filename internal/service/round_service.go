package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/internal/repository"
	"github.com/noah-isme/schoolbus-api/internal/validation"
	appErrors "github.com/noah-isme/schoolbus-api/pkg/errors"
)

type roundRepository interface {
	GetBusRound(ctx context.Context, id int64) (*models.BusRound, error)
	ListBusRounds(ctx context.Context, filter models.BusRoundFilter) ([]models.BusRound, error)
	CreateBusRound(ctx context.Context, in models.NewBusRound) (*models.BusRound, error)
	UpdateBusRound(ctx context.Context, id int64, patch models.BusRoundPatch) (*models.BusRound, error)
	DeleteBusRound(ctx context.Context, id int64) error
	TransitionRound(ctx context.Context, id int64, from []models.RoundStatus, to models.RoundStatus) (*models.BusRound, error)

	ListRoundStudents(ctx context.Context, roundID int64) ([]models.RoundStudent, error)
	AssignStudentToRound(ctx context.Context, in models.NewRoundStudent) (*models.RoundStudent, error)
	RemoveStudentFromRound(ctx context.Context, roundID, studentID int64) error

	CreateNotification(ctx context.Context, in models.NewNotification) (*models.Notification, error)
}

// RoundServiceConfig tunes the round workflow.
type RoundServiceConfig struct {
	// StrictTransitions requires pending before start and in_progress
	// before stop. When false both transitions are unconditional.
	StrictTransitions bool
}

// RoundService drives bus rounds through pending, in_progress and completed
// and manages the students assigned to each round.
type RoundService struct {
	repo     roundRepository
	activity activityRecorder
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      RoundServiceConfig
}

// NewRoundService constructs a RoundService.
func NewRoundService(repo roundRepository, activity activityRecorder, metrics *MetricsService, cfg RoundServiceConfig, logger *zap.Logger) *RoundService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if activity == nil {
		activity = noopRecorder{}
	}
	return &RoundService{repo: repo, activity: activity, metrics: metrics, logger: logger, cfg: cfg}
}

// List returns rounds filtered by status and bus.
func (s *RoundService) List(ctx context.Context, filter models.BusRoundFilter) ([]models.BusRound, error) {
	rounds, err := s.repo.ListBusRounds(ctx, filter)
	if err != nil {
		return nil, storageError(err, "bus round", "list bus rounds")
	}
	return rounds, nil
}

// Get returns a round by ID.
func (s *RoundService) Get(ctx context.Context, id int64) (*models.BusRound, error) {
	round, err := s.repo.GetBusRound(ctx, id)
	if err != nil {
		return nil, storageError(err, "bus round", "load bus round")
	}
	return round, nil
}

// Create schedules a new round.
func (s *RoundService) Create(ctx context.Context, in models.NewBusRound, actorID int64) (*models.BusRound, error) {
	in, err := validation.NewBusRound(in)
	if err != nil {
		return nil, validationError(err, "invalid create bus round payload")
	}
	round, err := s.repo.CreateBusRound(ctx, in)
	if err != nil {
		return nil, storageError(err, "bus round", "create bus round")
	}

	s.activity.Record(actorID, models.ActionCreateBusRound, map[string]interface{}{
		"roundId": round.ID,
		"name":    round.Name,
		"busId":   round.BusID,
	})
	return round, nil
}

// Update applies a partial update. A status supplied here is stored as is
// and emits no notification.
func (s *RoundService) Update(ctx context.Context, id int64, patch models.BusRoundPatch, actorID int64) (*models.BusRound, error) {
	patch, err := validation.BusRoundPatch(patch)
	if err != nil {
		return nil, validationError(err, "invalid update bus round payload")
	}
	round, err := s.repo.UpdateBusRound(ctx, id, patch)
	if err != nil {
		return nil, storageError(err, "bus round", "update bus round")
	}

	s.activity.Record(actorID, models.ActionUpdateBusRound, map[string]interface{}{
		"roundId": round.ID,
		"fields":  patchFields(patch),
	})
	return round, nil
}

// Delete removes a round and its student assignments.
func (s *RoundService) Delete(ctx context.Context, id int64, actorID int64) error {
	round, err := s.repo.GetBusRound(ctx, id)
	if err != nil {
		return storageError(err, "bus round", "load bus round")
	}
	if err := s.repo.DeleteBusRound(ctx, id); err != nil {
		return storageError(err, "bus round", "delete bus round")
	}

	s.activity.Record(actorID, models.ActionDeleteBusRound, map[string]interface{}{
		"roundId": round.ID,
		"name":    round.Name,
	})
	return nil
}

// Start moves a round to in_progress and notifies "<name> has started".
func (s *RoundService) Start(ctx context.Context, id int64, actorID int64) (*models.BusRound, error) {
	return s.transition(ctx, id, actorID, roundStart)
}

// Stop moves a round to completed and notifies "<name> has been completed".
func (s *RoundService) Stop(ctx context.Context, id int64, actorID int64) (*models.BusRound, error) {
	return s.transition(ctx, id, actorID, roundStop)
}

type roundStep struct {
	from         models.RoundStatus
	to           models.RoundStatus
	action       string
	notification models.NotificationType
	suffix       string
	verb         string
}

var (
	roundStart = roundStep{
		from:         models.RoundPending,
		to:           models.RoundInProgress,
		action:       models.ActionStartBusRound,
		notification: models.NotificationRoundStarted,
		suffix:       "has started",
		verb:         "start",
	}
	roundStop = roundStep{
		from:         models.RoundInProgress,
		to:           models.RoundCompleted,
		action:       models.ActionStopBusRound,
		notification: models.NotificationRoundCompleted,
		suffix:       "has been completed",
		verb:         "stop",
	}
)

func (s *RoundService) transition(ctx context.Context, id int64, actorID int64, step roundStep) (*models.BusRound, error) {
	var from []models.RoundStatus
	if s.cfg.StrictTransitions {
		from = []models.RoundStatus{step.from}
	}

	round, err := s.repo.TransitionRound(ctx, id, from, step.to)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			s.metrics.ObserveRoundTransition(string(step.to), false)
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
				fmt.Sprintf("round must be %s to %s", step.from, step.verb))
		}
		return nil, storageError(err, "bus round", step.verb+" bus round")
	}
	s.metrics.ObserveRoundTransition(string(step.to), true)

	notification, err := s.repo.CreateNotification(ctx, models.NewNotification{
		Type:     step.notification,
		Message:  fmt.Sprintf("%s %s", round.Name, step.suffix),
		RoundID:  models.SomeID(round.ID),
		BusID:    models.OptionalFromPtr(round.BusID),
		SenderID: actorRef(actorID),
	})
	if err != nil {
		s.logger.Error("failed to create round notification", zap.Int64("round_id", round.ID), zap.Error(err))
		return nil, storageError(err, "notification", "create round notification")
	}

	s.activity.Record(actorID, step.action, map[string]interface{}{
		"roundId":        round.ID,
		"status":         round.Status,
		"notificationId": notification.ID,
	})
	return round, nil
}

// Students lists the assignments of a round in boarding order.
func (s *RoundService) Students(ctx context.Context, roundID int64) ([]models.RoundStudent, error) {
	if _, err := s.repo.GetBusRound(ctx, roundID); err != nil {
		return nil, storageError(err, "bus round", "load bus round")
	}
	assignments, err := s.repo.ListRoundStudents(ctx, roundID)
	if err != nil {
		return nil, storageError(err, "round student", "list round students")
	}
	return assignments, nil
}

// Assign adds a student to the round at the given position. The round id
// always comes from the path.
func (s *RoundService) Assign(ctx context.Context, roundID int64, in models.NewRoundStudent, actorID int64) (*models.RoundStudent, error) {
	in.RoundID = roundID
	in, err := validation.NewRoundStudent(in)
	if err != nil {
		return nil, validationError(err, "invalid round assignment payload")
	}
	if _, err := s.repo.GetBusRound(ctx, roundID); err != nil {
		return nil, storageError(err, "bus round", "load bus round")
	}

	assignment, err := s.repo.AssignStudentToRound(ctx, in)
	if err != nil {
		return nil, storageError(err, "round student", "assign student to round")
	}

	s.activity.Record(actorID, models.ActionAssignStudent, map[string]interface{}{
		"roundId":   roundID,
		"studentId": in.StudentID,
		"order":     assignment.Order,
	})
	return assignment, nil
}

// Remove unassigns a student. It fails with not found when the student is
// not on the round.
func (s *RoundService) Remove(ctx context.Context, roundID, studentID int64, actorID int64) error {
	assignments, err := s.Students(ctx, roundID)
	if err != nil {
		return err
	}
	assigned := false
	for _, a := range assignments {
		if a.StudentID != nil && *a.StudentID == studentID {
			assigned = true
			break
		}
	}
	if !assigned {
		return appErrors.Clone(appErrors.ErrNotFound, "student is not assigned to this round")
	}

	if err := s.repo.RemoveStudentFromRound(ctx, roundID, studentID); err != nil {
		return storageError(err, "round student", "remove student from round")
	}

	s.activity.Record(actorID, models.ActionRemoveStudent, map[string]interface{}{
		"roundId":   roundID,
		"studentId": studentID,
	})
	return nil
}

// actorRef references the acting user, or nothing for system actions.
func actorRef(actorID int64) models.OptionalID {
	if actorID <= 0 {
		return models.OptionalID{}
	}
	return models.SomeID(actorID)
}
