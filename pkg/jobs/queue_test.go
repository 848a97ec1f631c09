package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDrainsOnStop(t *testing.T) {
	var handled int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&handled, 1)
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 64})
	q.Start(context.Background())

	for i := 0; i < 20; i++ {
		require.NoError(t, q.Enqueue(Job{Type: "noop"}))
	}
	q.Stop()

	assert.Equal(t, int32(20), atomic.LoadInt32(&handled))
	assert.Error(t, q.Enqueue(Job{Type: "late"}))
}

func TestQueueAssignsIDs(t *testing.T) {
	var mu sync.Mutex
	ids := map[string]bool{}
	q := NewQueue("ids", func(ctx context.Context, job Job) error {
		mu.Lock()
		ids[job.ID] = true
		mu.Unlock()
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{}))
	}
	q.Stop()
	assert.Len(t, ids, 5)
	assert.False(t, ids[""])
}

func TestQueueNoRetriesWhenZero(t *testing.T) {
	var calls int32
	var outcomes []string
	var mu sync.Mutex
	q := NewQueue("fail", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	}, QueueConfig{MaxRetries: 0, Observer: func(_, outcome string) {
		mu.Lock()
		outcomes = append(outcomes, outcome)
		mu.Unlock()
	}})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{Type: "once"}))
	q.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{OutcomeFailed}, outcomes)
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{Type: "flaky"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
	q.Stop()
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{}))
	q.Stop()
}

func TestEnqueueAfterParentCancelStillDrains(t *testing.T) {
	var handled int32
	q := NewQueue("shutdown", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&handled, 1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 128})
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	cancel()

	for i := 0; i < 100; i++ {
		require.NoError(t, q.Enqueue(Job{Type: "late"}))
	}
	q.Stop()

	assert.Equal(t, int32(100), atomic.LoadInt32(&handled))
}
