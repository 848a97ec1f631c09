package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/internal/repository"
	"github.com/noah-isme/schoolbus-api/internal/validation"
	"github.com/noah-isme/schoolbus-api/pkg/jobs"
)

const activityQueueName = "activity_log"

type activityStore interface {
	LogActivity(ctx context.Context, in models.NewActivityLog) (*models.ActivityLog, error)
}

// activityRecorder is the audit seam used by the mutating services.
type activityRecorder interface {
	Record(actorID int64, action string, details map[string]interface{})
}

type noopRecorder struct{}

func (noopRecorder) Record(int64, string, map[string]interface{}) {}

// ActivityHook runs on the audit worker after each entry has been handled,
// whether or not the write succeeded.
type ActivityHook func(ctx context.Context, action string)

// ActivityRecorderConfig sizes the audit queue.
type ActivityRecorderConfig struct {
	Workers      int
	Buffer       int
	WriteTimeout time.Duration
}

// ActivityRecorder appends activity log entries asynchronously. Entries are
// never retried; failures are logged and dropped.
type ActivityRecorder struct {
	store   activityStore
	queue   *jobs.Queue
	logger  *zap.Logger
	timeout time.Duration

	mu    sync.RWMutex
	hooks []ActivityHook
}

// NewActivityRecorder wires the recorder to its worker queue.
func NewActivityRecorder(store activityStore, cfg ActivityRecorderConfig, metrics *MetricsService, logger *zap.Logger) *ActivityRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	r := &ActivityRecorder{store: store, logger: logger, timeout: cfg.WriteTimeout}
	r.queue = jobs.NewQueue(activityQueueName, r.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.Buffer,
		MaxRetries: 0,
		Logger:     logger,
		Observer:   metrics.ObserveJob,
	})
	return r
}

// Start launches the audit workers.
func (r *ActivityRecorder) Start(ctx context.Context) {
	r.queue.Start(ctx)
}

// Stop drains pending entries and stops the workers.
func (r *ActivityRecorder) Stop() {
	r.queue.Stop()
}

// OnRecord registers a hook called after every handled entry.
func (r *ActivityRecorder) OnRecord(hook ActivityHook) {
	if hook == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// Record enqueues an entry attributed to actorID. A non-positive actorID
// records an anonymous entry.
func (r *ActivityRecorder) Record(actorID int64, action string, details map[string]interface{}) {
	entry := models.NewActivityLog{Action: action, Details: types.JSONText("{}")}
	if actorID > 0 {
		entry.UserID = &actorID
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			r.logger.Warn("failed to encode activity details", zap.String("action", action), zap.Error(err))
		} else {
			entry.Details = types.JSONText(raw)
		}
	}

	normalised, err := validation.NewActivityLog(entry)
	if err != nil {
		r.logger.Warn("invalid activity log entry", zap.String("action", action), zap.Error(err))
		return
	}

	if err := r.queue.Enqueue(jobs.Job{Type: normalised.Action, Payload: normalised}); err != nil {
		r.logger.Warn("failed to record activity log", zap.String("action", action), zap.Error(err))
	}
}

func (r *ActivityRecorder) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.NewActivityLog)
	if !ok {
		return fmt.Errorf("unexpected activity payload %T", job.Payload)
	}

	// Buffered entries are still written after the parent is cancelled.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	_, err := r.store.LogActivity(writeCtx, entry)
	if err != nil && entry.UserID != nil && danglingActor(err) {
		// The actor was deleted after acting, possibly by this very operation.
		r.logger.Info("activity actor no longer exists, recording without user",
			zap.String("action", entry.Action), zap.Int64("actor_id", *entry.UserID))
		_, err = r.store.LogActivity(writeCtx, detachActor(entry))
	}

	r.mu.RLock()
	hooks := append([]ActivityHook(nil), r.hooks...)
	r.mu.RUnlock()
	for _, hook := range hooks {
		hook(writeCtx, entry.Action)
	}

	if err != nil {
		return fmt.Errorf("write activity log %s: %w", entry.Action, err)
	}
	return nil
}

func danglingActor(err error) bool {
	var ce *repository.ConstraintError
	return errors.As(err, &ce) && ce.Field == "userId" && errors.Is(err, repository.ErrInvalidReference)
}

// detachActor moves the user reference into details as actorId.
func detachActor(entry models.NewActivityLog) models.NewActivityLog {
	details := map[string]interface{}{}
	if len(entry.Details) > 0 {
		if err := json.Unmarshal(entry.Details, &details); err != nil || details == nil {
			details = map[string]interface{}{}
		}
	}
	details["actorId"] = *entry.UserID
	if raw, err := json.Marshal(details); err == nil {
		entry.Details = types.JSONText(raw)
	}
	entry.UserID = nil
	return entry
}
