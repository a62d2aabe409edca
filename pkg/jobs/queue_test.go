package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	done := make(chan struct{})
	handler := func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}

	core, logs := observer.New(zap.WarnLevel)
	q := NewQueue("snapshots", handler, QueueConfig{
		Workers:    2,
		MaxRetries: 2,
		RetryDelay: 10 * time.Millisecond,
		Logger:     zap.New(core),
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "rebuild"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&attempts))

	// The retry warning names the queue and the worker that hit the failure.
	entries := logs.FilterMessage("job failed, retrying").All()
	require.NotEmpty(t, entries)
	fields := entries[0].ContextMap()
	assert.Equal(t, "snapshots", fields["queue"])
	worker, ok := fields["worker"].(int64)
	require.True(t, ok)
	assert.Contains(t, []int64{1, 2}, worker)
}

func TestQueueEnqueueBeforeStartFails(t *testing.T) {
	q := NewQueue("snapshots", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "j1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not started")
}
