package service

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/schoolbus-api/internal/models"
)

type trackingRepository interface {
	ListBusRounds(ctx context.Context, filter models.BusRoundFilter) ([]models.BusRound, error)
	RecordLocation(ctx context.Context, in models.NewLocation) (*models.Location, error)
}

// TrackingSimulatorConfig positions the simulated fleet.
type TrackingSimulatorConfig struct {
	Interval  time.Duration
	CenterLat float64
	CenterLng float64
	// Spread is the maximum offset in degrees from the centre.
	Spread float64
}

// TrackingSimulator feeds jittered positions for every bus on an in-progress
// round, standing in for on-board GPS units.
type TrackingSimulator struct {
	repo    trackingRepository
	metrics *MetricsService
	logger  *zap.Logger
	cfg     TrackingSimulatorConfig
	rnd     *rand.Rand
}

// NewTrackingSimulator constructs a TrackingSimulator.
func NewTrackingSimulator(repo trackingRepository, metrics *MetricsService, cfg TrackingSimulatorConfig, logger *zap.Logger) *TrackingSimulator {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Spread <= 0 {
		cfg.Spread = 0.01
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingSimulator{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run ticks until ctx is cancelled.
func (s *TrackingSimulator) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	s.logger.Info("tracking simulator started", zap.Duration("interval", s.cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("tracking simulator stopped")
			return
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				s.logger.Warn("tracking simulator tick failed", zap.Error(err))
			}
		}
	}
}

// Tick records one position per bus with an in-progress round and returns
// the recorded fixes. Run is the only concurrent caller.
func (s *TrackingSimulator) Tick(ctx context.Context) ([]models.Location, error) {
	status := models.RoundInProgress
	rounds, err := s.repo.ListBusRounds(ctx, models.BusRoundFilter{Status: &status})
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(rounds))
	recorded := make([]models.Location, 0, len(rounds))
	for _, round := range rounds {
		if round.BusID == nil || seen[*round.BusID] {
			continue
		}
		busID := *round.BusID
		seen[busID] = true

		location, err := s.repo.RecordLocation(ctx, models.NewLocation{
			BusID:     busID,
			Latitude:  s.jitter(s.cfg.CenterLat),
			Longitude: s.jitter(s.cfg.CenterLng),
		})
		if err != nil {
			s.logger.Warn("failed to record simulated location", zap.Int64("bus_id", busID), zap.Error(err))
			continue
		}
		s.metrics.ObserveLocation("simulator")
		recorded = append(recorded, *location)
	}
	return recorded, nil
}

func (s *TrackingSimulator) jitter(center float64) string {
	offset := (s.rnd.Float64()*2 - 1) * s.cfg.Spread
	return strconv.FormatFloat(center+offset, 'f', 6, 64)
}
