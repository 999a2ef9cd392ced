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

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := New("idle", func(context.Context, Task[string]) error { return nil }, Config{})
	err := q.Enqueue(Task[string]{ID: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not started")
}

func TestQueueProcessesTasks(t *testing.T) {
	done := make(chan string, 3)
	q := New("ok", func(_ context.Context, task Task[string]) error {
		done <- task.Payload
		return nil
	}, Config{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for _, p := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Task[string]{ID: p, Payload: p}))
	}

	got := map[string]bool{}
	for i := 0; i < 3; i++ {
		select {
		case p := <-done:
			got[p] = true
		case <-time.After(2 * time.Second):
			t.Fatal("task not processed")
		}
	}
	assert.Len(t, got, 3)
	assert.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestQueueRetriesThenGivesUp(t *testing.T) {
	var attempts atomic.Int32
	q := New("flaky", func(context.Context, Task[int]) error {
		attempts.Add(1)
		return errors.New("boom")
	}, Config{MaxRetries: 2, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Task[int]{ID: "x", Payload: 1}))

	assert.Eventually(t, func() bool { return q.Failed() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, int64(0), q.Pending())
}

func TestQueueRetrySucceeds(t *testing.T) {
	var attempts atomic.Int32
	q := New("second-try", func(context.Context, Task[int]) error {
		if attempts.Add(1) == 1 {
			return errors.New("transient")
		}
		return nil
	}, Config{RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Task[int]{ID: "y"}))
	assert.Eventually(t, func() bool { return attempts.Load() == 2 && q.Pending() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(0), q.Failed())
}

func TestQueueEnqueueAfterStop(t *testing.T) {
	q := New("stopped", func(context.Context, Task[int]) error { return nil }, Config{})
	q.Start(context.Background())
	q.Stop()
	assert.Error(t, q.Enqueue(Task[int]{ID: "z"}))
}
