package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesTasks(t *testing.T) {
	var handled int64
	q := NewQueue("test", func(ctx context.Context, task Task) error {
		atomic.AddInt64(&handled, 1)
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 8})

	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Task{ID: "t"}))
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&handled) == 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQueueRetriesThenDrops(t *testing.T) {
	var attempts int64
	q := NewQueue("test", func(ctx context.Context, task Task) error {
		atomic.AddInt64(&attempts, 1)
		return errors.New("boom")
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Task{ID: "t"}))

	// One initial attempt plus two retries, then the task is dropped.
	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&attempts) == 3
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(3), atomic.LoadInt64(&attempts))
}

func TestQueueEnqueueBeforeStartFails(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, task Task) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Task{ID: "t"}))
}
