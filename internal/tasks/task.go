// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TASK STATUS
// =============================================================================

// Status represents the current state of a background task.
type Status string

const (
	// StatusQueued indicates the task is waiting to be executed
	StatusQueued Status = "Queued"

	// StatusRunning indicates the task is currently executing
	StatusRunning Status = "Running"

	// StatusComplete indicates the task finished successfully
	StatusComplete Status = "Complete"

	// StatusFailed indicates the task encountered an error
	StatusFailed Status = "Failed"

	// StatusCanceled indicates the task was canceled
	StatusCanceled Status = "Canceled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// =============================================================================
// TASK STRUCTURE
// =============================================================================

// WorkFunc is the cancellable unit of work a task executes. It must
// observe ctx at its own checkpoints and return promptly once ctx is
// done.
type WorkFunc func(ctx context.Context) error

// Task represents a background unit of work that runs without blocking
// the caller.
type Task struct {
	// ID is a unique identifier for this task
	ID string

	// Description is a human-readable description of the work
	Description string

	// Status is the current state of the task
	Status Status

	// StartTime is when the task started running
	StartTime time.Time

	// EndTime is when the task reached a terminal state
	EndTime time.Time

	// Error is the error message if the task failed
	Error string

	// RowsDone / RowsTotal track work progress. RowsTotal is -1 when
	// the total is unknown.
	RowsDone  int64
	RowsTotal int64

	// run is the unit of work executed by the runner
	run WorkFunc

	// cancel is the context cancel function for this task
	cancel context.CancelFunc

	// mu protects concurrent access to the task
	mu sync.RWMutex
}

// New creates a queued task around a unit of work.
func New(description string, work WorkFunc) *Task {
	return &Task{
		ID:          uuid.New().String(),
		Description: description,
		Status:      StatusQueued,
		RowsTotal:   -1,
		run:         work,
	}
}

// =============================================================================
// TASK METHODS
// =============================================================================

// SetStatus updates the task status (thread-safe), validating the
// transition. Valid transitions: Queued -> Running -> terminal.
func (t *Task) SetStatus(status Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !validTransition(t.Status, status) {
		return fmt.Errorf("invalid status transition from %s to %s", t.Status, status)
	}
	t.Status = status
	return nil
}

// validTransition checks if a status transition is allowed.
func validTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusQueued:
		return to == StatusRunning || to == StatusCanceled
	case StatusRunning:
		return to == StatusComplete || to == StatusFailed || to == StatusCanceled
	default:
		// Terminal states are final.
		return false
	}
}

// GetStatus returns the current task status (thread-safe).
func (t *Task) GetStatus() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

// SetProgress updates the progress counters (thread-safe).
func (t *Task) SetProgress(done, total int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if done > t.RowsDone {
		t.RowsDone = done
	}
	t.RowsTotal = total
}

// Progress returns the current progress counters (thread-safe).
func (t *Task) Progress() (done, total int64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.RowsDone, t.RowsTotal
}

// SetError sets the error message and marks the task as failed.
func (t *Task) SetError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.Error = err.Error()
		t.Status = StatusFailed
		t.EndTime = time.Now()
	}
}

// GetError returns the error message (thread-safe).
func (t *Task) GetError() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Error
}

// MarkStarted marks the task as running.
func (t *Task) MarkStarted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = StatusRunning
	t.StartTime = time.Now()
}

// MarkComplete marks the task as successfully completed.
func (t *Task) MarkComplete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = StatusComplete
	t.EndTime = time.Now()
}

// MarkCanceled marks the task as canceled.
func (t *Task) MarkCanceled() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = StatusCanceled
	t.EndTime = time.Now()
}

// SetCancelFunc stores the context cancel function for this task. It
// must only be called once, by the runner, before the task is marked
// running.
func (t *Task) SetCancelFunc(cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel = cancel
}

// Cancel requests cancellation. The cancellation flag is one-way: a
// running task's context is cancelled and the work winds down at its
// next checkpoint; a queued task is canceled in place.
// Returns true if the task accepted the cancellation.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Status != StatusRunning && t.Status != StatusQueued {
		return false
	}
	if t.cancel != nil {
		t.cancel()
	}
	if t.Status == StatusQueued {
		t.Status = StatusCanceled
		t.EndTime = time.Now()
	}
	return true
}

// work returns the unit of work (thread-safe).
func (t *Task) work() WorkFunc {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.run
}

// Duration returns how long the task has been running or took to
// reach a terminal state.
func (t *Task) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.StartTime.IsZero() {
		return 0
	}
	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}

// IsRunning returns true if the task is currently running.
func (t *Task) IsRunning() bool {
	return t.GetStatus() == StatusRunning
}

// IsComplete returns true if the task reached a terminal state.
func (t *Task) IsComplete() bool {
	status := t.GetStatus()
	return status == StatusComplete || status == StatusFailed || status == StatusCanceled
}

// Summary returns a one-line summary of the task.
func (t *Task) Summary() string {
	status := t.GetStatus()
	duration := t.Duration()

	summary := fmt.Sprintf("[%s] %s - %s", t.ID[:8], t.Description, status)
	if duration > 0 {
		summary += fmt.Sprintf(" (%.1fs)", duration.Seconds())
	}
	return summary
}

// Clone creates a thread-safe copy of the task for reading. The unit
// of work and cancel function are not carried over; clones are
// snapshots, not executable tasks.
func (t *Task) Clone() *Task {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return &Task{
		ID:          t.ID,
		Description: t.Description,
		Status:      t.Status,
		StartTime:   t.StartTime,
		EndTime:     t.EndTime,
		Error:       t.Error,
		RowsDone:    t.RowsDone,
		RowsTotal:   t.RowsTotal,
	}
}
