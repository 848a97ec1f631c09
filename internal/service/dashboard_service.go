package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/schoolbus-api/internal/models"
)

type dashboardRepository interface {
	DashboardStats(ctx context.Context, recentNotifications int) (*models.DashboardStats, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	RecentNotifications int
	CacheTTL            time.Duration
}

// DashboardService serves the admin dashboard counters, optionally through
// the Redis cache.
type DashboardService struct {
	repo   dashboardRepository
	cache  *CacheService
	logger *zap.Logger
	cfg    DashboardServiceConfig

	// generation advances on every invalidation.
	generation atomic.Uint64
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(repo dashboardRepository, cache *CacheService, cfg DashboardServiceConfig, logger *zap.Logger) *DashboardService {
	if cfg.RecentNotifications <= 0 {
		cfg.RecentNotifications = 5
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, logger: logger, cfg: cfg}
}

func (s *DashboardService) cacheKey() string {
	return fmt.Sprintf("dash:stats:%d", s.cfg.RecentNotifications)
}

// Stats returns the dashboard counters and whether they came from cache.
// Cache failures degrade to a direct read.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, bool, error) {
	key := s.cacheKey()
	var cached models.DashboardStats
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		if cached.RecentNotifications == nil {
			cached.RecentNotifications = []models.Notification{}
		}
		return &cached, true, nil
	}

	gen := s.generation.Load()
	stats, err := s.repo.DashboardStats(ctx, s.cfg.RecentNotifications)
	if err != nil {
		return nil, false, storageError(err, "dashboard", "load dashboard stats")
	}
	if stats.RecentNotifications == nil {
		stats.RecentNotifications = []models.Notification{}
	}

	if err := s.cache.Set(ctx, key, stats, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	// A mutation landed while we were reading; the value just cached may
	// predate it.
	if s.generation.Load() != gen {
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}
	return stats, false, nil
}

// HandleActivity drops the cached counters after any mutation. It is
// registered as an ActivityHook.
func (s *DashboardService) HandleActivity(ctx context.Context, action string) {
	if action == models.ActionLogin {
		return
	}
	s.generation.Add(1)
	if err := s.cache.Invalidate(ctx, s.cacheKey()); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.String("action", action), zap.Error(err))
	}
}
