package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/internal/validation"
)

type locationRepository interface {
	GetBus(ctx context.Context, id int64) (*models.Bus, error)
	RecordLocation(ctx context.Context, in models.NewLocation) (*models.Location, error)
	GetLatestBusLocation(ctx context.Context, busID int64) (*models.Location, error)
}

// LocationService records and serves bus positions.
type LocationService struct {
	repo     locationRepository
	activity activityRecorder
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewLocationService constructs a LocationService.
func NewLocationService(repo locationRepository, activity activityRecorder, metrics *MetricsService, logger *zap.Logger) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if activity == nil {
		activity = noopRecorder{}
	}
	return &LocationService{repo: repo, activity: activity, metrics: metrics, logger: logger}
}

// Record stores a GPS fix reported by a client.
func (s *LocationService) Record(ctx context.Context, in models.NewLocation, actorID int64) (*models.Location, error) {
	in, err := validation.NewLocation(in)
	if err != nil {
		return nil, validationError(err, "invalid location payload")
	}
	location, err := s.repo.RecordLocation(ctx, in)
	if err != nil {
		return nil, storageError(err, "location", "record location")
	}
	s.metrics.ObserveLocation("api")

	s.activity.Record(actorID, models.ActionRecordLocation, map[string]interface{}{
		"locationId": location.ID,
		"busId":      location.BusID,
	})
	return location, nil
}

// Latest returns the most recent fix of a bus. Both an unknown bus and a bus
// without fixes are reported as not found.
func (s *LocationService) Latest(ctx context.Context, busID int64) (*models.Location, error) {
	if _, err := s.repo.GetBus(ctx, busID); err != nil {
		return nil, storageError(err, "bus", "load bus")
	}
	location, err := s.repo.GetLatestBusLocation(ctx, busID)
	if err != nil {
		return nil, storageError(err, "location", "load latest location")
	}
	return location, nil
}
