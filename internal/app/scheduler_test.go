package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler_MissingDependencies(t *testing.T) {
	_, err := NewScheduler(time.Second, nil, nil)
	assert.Error(t, err)
}

func TestScheduler_FiresImmediatelyAndRepeats(t *testing.T) {
	var ticks atomic.Int64
	sched, err := NewScheduler(10*time.Millisecond, &mockLogger{}, func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestScheduler_TickErrorDoesNotStopSchedule(t *testing.T) {
	var ticks atomic.Int64
	sched, err := NewScheduler(10*time.Millisecond, &mockLogger{}, func(ctx context.Context) error {
		ticks.Add(1)
		return errors.New("tick failed")
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	require.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_TickPanicDoesNotStopSchedule(t *testing.T) {
	var ticks atomic.Int64
	logger := &mockLogger{}
	sched, err := NewScheduler(10*time.Millisecond, logger, func(ctx context.Context) error {
		ticks.Add(1)
		panic("boom")
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	require.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	var ticks atomic.Int64
	sched, err := NewScheduler(5*time.Millisecond, &mockLogger{}, func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return ticks.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}

	stopped := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, ticks.Load())
}

func TestScheduler_DefaultInterval(t *testing.T) {
	sched, err := NewScheduler(0, &mockLogger{}, func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, defaultTickInterval, sched.interval)
}
