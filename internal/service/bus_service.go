package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/internal/validation"
)

type busRepository interface {
	GetBus(ctx context.Context, id int64) (*models.Bus, error)
	ListBuses(ctx context.Context) ([]models.Bus, error)
	CreateBus(ctx context.Context, in models.NewBus) (*models.Bus, error)
	UpdateBus(ctx context.Context, id int64, patch models.BusPatch) (*models.Bus, error)
	DeleteBus(ctx context.Context, id int64) error
}

// BusService manages the fleet.
type BusService struct {
	repo     busRepository
	activity activityRecorder
	logger   *zap.Logger
}

// NewBusService constructs a BusService.
func NewBusService(repo busRepository, activity activityRecorder, logger *zap.Logger) *BusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if activity == nil {
		activity = noopRecorder{}
	}
	return &BusService{repo: repo, activity: activity, logger: logger}
}

// List returns every bus ordered by id.
func (s *BusService) List(ctx context.Context) ([]models.Bus, error) {
	buses, err := s.repo.ListBuses(ctx)
	if err != nil {
		return nil, storageError(err, "bus", "list buses")
	}
	return buses, nil
}

// Get returns a bus by ID.
func (s *BusService) Get(ctx context.Context, id int64) (*models.Bus, error) {
	bus, err := s.repo.GetBus(ctx, id)
	if err != nil {
		return nil, storageError(err, "bus", "load bus")
	}
	return bus, nil
}

// Create registers a new bus.
func (s *BusService) Create(ctx context.Context, in models.NewBus, actorID int64) (*models.Bus, error) {
	in, err := validation.NewBus(in)
	if err != nil {
		return nil, validationError(err, "invalid create bus payload")
	}
	bus, err := s.repo.CreateBus(ctx, in)
	if err != nil {
		return nil, storageError(err, "bus", "create bus")
	}

	s.activity.Record(actorID, models.ActionCreateBus, map[string]interface{}{
		"busId":     bus.ID,
		"busNumber": bus.BusNumber,
		"driverId":  bus.DriverID,
	})
	return bus, nil
}

// Update applies a partial bus update.
func (s *BusService) Update(ctx context.Context, id int64, patch models.BusPatch, actorID int64) (*models.Bus, error) {
	patch, err := validation.BusPatch(patch)
	if err != nil {
		return nil, validationError(err, "invalid update bus payload")
	}
	bus, err := s.repo.UpdateBus(ctx, id, patch)
	if err != nil {
		return nil, storageError(err, "bus", "update bus")
	}

	s.activity.Record(actorID, models.ActionUpdateBus, map[string]interface{}{
		"busId":  bus.ID,
		"fields": patchFields(patch),
	})
	return bus, nil
}

// Delete removes a bus and its recorded locations.
func (s *BusService) Delete(ctx context.Context, id int64, actorID int64) error {
	bus, err := s.repo.GetBus(ctx, id)
	if err != nil {
		return storageError(err, "bus", "load bus")
	}
	if err := s.repo.DeleteBus(ctx, id); err != nil {
		return storageError(err, "bus", "delete bus")
	}

	s.activity.Record(actorID, models.ActionDeleteBus, map[string]interface{}{
		"busId":     bus.ID,
		"busNumber": bus.BusNumber,
	})
	return nil
}
