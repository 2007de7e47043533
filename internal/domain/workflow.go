package domain

import "time"

type StepStatus string

const (
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

type WorkflowStep struct {
	Name        string     `json:"name"`
	Status      StepStatus `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// WorkflowExecution is append-only while running and terminal once Status is
// completed or failed.
type WorkflowExecution struct {
	ID        string         `json:"id"`
	CompanyID string         `json:"company_id"`
	Steps     []WorkflowStep `json:"steps"`
	Status    StepStatus     `json:"status"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
}

func (w *WorkflowExecution) Terminal() bool {
	return w.Status == StepCompleted || w.Status == StepFailed
}

// Begin appends a running step and returns its index.
func (w *WorkflowExecution) Begin(name string, now time.Time) int {
	if w.Terminal() {
		return -1
	}
	w.Steps = append(w.Steps, WorkflowStep{Name: name, Status: StepRunning, StartedAt: now})
	return len(w.Steps) - 1
}

// End closes step i. A failed step also fails the execution.
func (w *WorkflowExecution) End(i int, err error, now time.Time) {
	if i < 0 || i >= len(w.Steps) || w.Steps[i].Status != StepRunning {
		return
	}
	w.Steps[i].CompletedAt = &now
	if err != nil {
		w.Steps[i].Status = StepFailed
		w.Steps[i].Error = err.Error()
		w.finish(StepFailed, now)
		return
	}
	w.Steps[i].Status = StepCompleted
}

// Complete marks a non-terminal execution completed.
func (w *WorkflowExecution) Complete(now time.Time) {
	w.finish(StepCompleted, now)
}

// FailedStep returns the name of the first failed step, or "".
func (w *WorkflowExecution) FailedStep() string {
	for _, s := range w.Steps {
		if s.Status == StepFailed {
			return s.Name
		}
	}
	return ""
}

func (w *WorkflowExecution) finish(s StepStatus, now time.Time) {
	if w.Terminal() {
		return
	}
	w.Status = s
	w.EndedAt = &now
}
