// Package scheduler reruns a task on a fixed interval and tracks its status.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// ErrBusy is returned by RunOnce when the previous run is still going.
var ErrBusy = errors.New("scheduler: task already running")

type Status struct {
	Running      bool          `json:"running"`
	Runs         int           `json:"runs"`
	LastRunAt    time.Time     `json:"last_run_at,omitempty"`
	LastOkAt     time.Time     `json:"last_ok_at,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
	LastDuration time.Duration `json:"last_duration"`
}

type Runner struct {
	name string
	task Task
	log  *zap.Logger

	mu     sync.Mutex
	status Status
}

func NewRunner(name string, task Task, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{name: name, task: task, log: log.With(zap.String("task", name))}
}

// RunOnce runs the task unless a run is already in progress.
func (r *Runner) RunOnce(ctx context.Context) error {
	r.mu.Lock()
	if r.status.Running {
		r.mu.Unlock()
		return ErrBusy
	}
	start := time.Now()
	r.status.Running = true
	r.status.LastRunAt = start
	r.mu.Unlock()

	err := r.task(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.Running = false
	r.status.Runs++
	r.status.LastDuration = time.Since(start)
	if err != nil {
		r.status.LastError = err.Error()
		r.log.Error("[scheduler] run failed", zap.Error(err))
	} else {
		r.status.LastError = ""
		r.status.LastOkAt = time.Now()
		r.log.Info("[scheduler] run ok", zap.Duration("took", r.status.LastDuration))
	}
	return err
}

func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Every runs r immediately and then on each tick until ctx is done. Ticks
// that land while a run is in progress are skipped. Every returns once ctx
// is done and any run it started has finished.
func Every(ctx context.Context, interval time.Duration, r *Runner) {
	t := time.NewTicker(interval)
	defer t.Stop()

	var wg sync.WaitGroup
	run := func() {
		defer wg.Done()
		if err := r.RunOnce(ctx); errors.Is(err, ErrBusy) {
			r.log.Warn("[scheduler] previous run still going; tick skipped")
		}
	}

	// run immediately
	wg.Add(1)
	go run()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-t.C:
			wg.Add(1)
			go run()
		}
	}
}
