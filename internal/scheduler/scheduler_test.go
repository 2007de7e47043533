package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOnceRecordsStatus(t *testing.T) {
	fail := true
	r := NewRunner("discover", func(context.Context) error {
		if fail {
			return errors.New("redis down")
		}
		return nil
	}, nil)

	require.Error(t, r.RunOnce(context.Background()))
	st := r.Status()
	assert.Equal(t, 1, st.Runs)
	assert.Equal(t, "redis down", st.LastError)
	assert.True(t, st.LastOkAt.IsZero())

	fail = false
	require.NoError(t, r.RunOnce(context.Background()))
	st = r.Status()
	assert.Equal(t, 2, st.Runs)
	assert.Empty(t, st.LastError)
	assert.False(t, st.LastOkAt.IsZero())
	assert.False(t, st.Running)
}

func TestRunOnceRejectsOverlap(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	r := NewRunner("discover", func(context.Context) error {
		close(started)
		<-release
		return nil
	}, nil)

	done := make(chan error, 1)
	go func() { done <- r.RunOnce(context.Background()) }()
	<-started

	assert.ErrorIs(t, r.RunOnce(context.Background()), ErrBusy)
	assert.True(t, r.Status().Running)

	close(release)
	assert.NoError(t, <-done)
}

func TestEveryRunsImmediatelyAndStopsOnCancel(t *testing.T) {
	var runs atomic.Int64
	r := NewRunner("discover", func(context.Context) error {
		runs.Add(1)
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		Every(ctx, time.Hour, r)
		close(stopped)
	}()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Every did not return after cancel")
	}
}

func TestEveryWaitsForRunningTask(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool
	r := NewRunner("discover", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
		return ctx.Err()
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		Every(ctx, time.Hour, r)
		close(stopped)
	}()

	<-started
	cancel()
	<-stopped
	assert.True(t, finished.Load())
}
