// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// =============================================================================
// TASK QUEUE
// =============================================================================

// Queue manages a queue of background tasks with thread-safe operations.
type Queue struct {
	// tasks is the list of all tasks (both queued and completed)
	tasks []*Task

	// running tracks currently running tasks by ID
	running map[string]*Task

	// maxHistory is the maximum number of completed tasks to keep
	maxHistory int

	// maxQueueSize is the maximum number of queued tasks allowed (0 = unlimited)
	maxQueueSize int

	// mu protects concurrent access to the queue
	mu sync.RWMutex

	// notifyChan sends notifications when tasks reach terminal states
	notifyChan chan Notification
}

// Notification reports a task terminal-state change. It is advisory
// queue-level observability; the per-run callbacks of the submitting
// layer are the primary notification contract.
type Notification struct {
	TaskID      string
	Description string
	Status      Status
	Error       string
	Duration    time.Duration
	RowsDone    int64
}

// =============================================================================
// QUEUE CREATION
// =============================================================================

// NewQueue creates a new task queue.
// maxHistory sets the maximum number of completed tasks to keep (0 = unlimited).
func NewQueue(maxHistory int) *Queue {
	return NewQueueWithOptions(maxHistory, 0)
}

// NewQueueWithOptions creates a new task queue with custom settings.
// maxHistory: maximum number of completed tasks to keep (0 = unlimited)
// maxQueueSize: maximum number of queued tasks allowed (0 = unlimited)
func NewQueueWithOptions(maxHistory, maxQueueSize int) *Queue {
	return &Queue{
		tasks:        make([]*Task, 0),
		running:      make(map[string]*Task),
		maxHistory:   maxHistory,
		maxQueueSize: maxQueueSize,
		notifyChan:   make(chan Notification, 100),
	}
}

// =============================================================================
// TASK MANAGEMENT
// =============================================================================

// Add adds a new task to the queue.
// Returns an error if the queue has reached its maximum size.
func (q *Queue) Add(task *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.maxQueueSize > 0 {
		queuedCount := 0
		for _, t := range q.tasks {
			if t.GetStatus() == StatusQueued {
				queuedCount++
			}
		}
		if queuedCount >= q.maxQueueSize {
			return fmt.Errorf("queue is full: %d queued tasks (max: %d)", queuedCount, q.maxQueueSize)
		}
	}

	_ = task.SetStatus(StatusQueued)
	q.tasks = append(q.tasks, task)
	return nil
}

// Get retrieves a snapshot of a task by ID.
// Returns nil if the task is not found.
func (q *Queue) Get(id string) *Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for _, task := range q.tasks {
		if task.ID == id {
			return task.Clone()
		}
	}
	return nil
}

// Cancel cancels a task by ID. Returns whether cancellation was
// accepted and whether the task was still queued (never started) when
// it happened. Uses a write lock to prevent races with tasks
// transitioning states.
func (q *Queue) Cancel(id string) (canceled, wasQueued bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Running task: cancel its context; the work winds down on its own.
	if task, ok := q.running[id]; ok {
		return task.Cancel(), false
	}

	// Queued task: cancel in place.
	for _, task := range q.tasks {
		if task.ID == id && task.GetStatus() == StatusQueued {
			task.MarkCanceled()
			q.notify(Notification{
				TaskID:      task.ID,
				Description: task.Description,
				Status:      StatusCanceled,
			})
			return true, true
		}
	}

	return false, false
}

// MarkRunning marks a task as running. Returns false if the task is no
// longer queued (e.g. it was canceled before a worker picked it up).
func (q *Queue) MarkRunning(task *Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if task.GetStatus() != StatusQueued {
		return false
	}
	task.MarkStarted()
	q.running[task.ID] = task
	return true
}

// SetProgress updates the row progress of a running task by ID.
// Returns false if no such task is running.
func (q *Queue) SetProgress(id string, done, total int64) bool {
	q.mu.RLock()
	task, ok := q.running[id]
	q.mu.RUnlock()

	if !ok {
		return false
	}
	task.SetProgress(done, total)
	return true
}

// MarkComplete marks a task as complete and removes it from running.
func (q *Queue) MarkComplete(task *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task.MarkComplete()
	delete(q.running, task.ID)

	done, _ := task.Progress()
	q.notify(Notification{
		TaskID:      task.ID,
		Description: task.Description,
		Status:      StatusComplete,
		Duration:    task.Duration(),
		RowsDone:    done,
	})

	q.cleanupLocked()
}

// MarkFailed marks a task as failed and removes it from running.
func (q *Queue) MarkFailed(task *Task, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task.SetError(err)
	delete(q.running, task.ID)

	done, _ := task.Progress()
	q.notify(Notification{
		TaskID:      task.ID,
		Description: task.Description,
		Status:      StatusFailed,
		Error:       err.Error(),
		Duration:    task.Duration(),
		RowsDone:    done,
	})

	q.cleanupLocked()
}

// MarkCanceled marks a task as canceled and removes it from running.
func (q *Queue) MarkCanceled(task *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task.MarkCanceled()
	delete(q.running, task.ID)

	done, _ := task.Progress()
	q.notify(Notification{
		TaskID:      task.ID,
		Description: task.Description,
		Status:      StatusCanceled,
		Duration:    task.Duration(),
		RowsDone:    done,
	})

	q.cleanupLocked()
}

// =============================================================================
// QUEUE QUERIES
// =============================================================================

// All returns a snapshot of all tasks.
func (q *Queue) All() []*Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]*Task, len(q.tasks))
	for i, task := range q.tasks {
		result[i] = task.Clone()
	}
	return result
}

// Running returns a snapshot of all running tasks.
func (q *Queue) Running() []*Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]*Task, 0, len(q.running))
	for _, task := range q.running {
		result = append(result, task.Clone())
	}
	return result
}

// Queued returns all queued (not yet started) tasks.
// IMPORTANT: Returns original task pointers (not clones) so the runner
// executes the originals rather than snapshots.
func (q *Queue) Queued() []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	result := make([]*Task, 0)
	for _, task := range q.tasks {
		if task.GetStatus() == StatusQueued {
			result = append(result, task)
		}
	}
	return result
}

// Completed returns all tasks in a terminal state.
func (q *Queue) Completed() []*Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]*Task, 0)
	for _, task := range q.tasks {
		if task.IsComplete() {
			result = append(result, task.Clone())
		}
	}
	return result
}

// Count returns the total number of tasks.
func (q *Queue) Count() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.tasks)
}

// RunningCount returns the number of running tasks.
func (q *Queue) RunningCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.running)
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// Notifications returns the notification channel.
// Consumers can read from this channel to observe task terminal states.
func (q *Queue) Notifications() <-chan Notification {
	return q.notifyChan
}

// notify sends a notification (must be called with lock held).
func (q *Queue) notify(notification Notification) {
	select {
	case q.notifyChan <- notification:
		// Notification sent successfully
	default:
		// Channel full, drop notification and log warning
		log.Printf("WARNING: Notification channel full, dropped notification for task %s (status: %s)",
			notification.TaskID, notification.Status)
	}
}

// =============================================================================
// CLEANUP
// =============================================================================

// cleanupLocked removes old completed tasks to keep history size
// manageable. Must be called with lock held. Removal is FIFO over the
// task slice, not completion-time ordered.
func (q *Queue) cleanupLocked() {
	if q.maxHistory <= 0 {
		return
	}

	completedCount := 0
	for _, task := range q.tasks {
		if task.IsComplete() {
			completedCount++
		}
	}

	if completedCount > q.maxHistory {
		toRemove := completedCount - q.maxHistory
		newTasks := make([]*Task, 0, len(q.tasks)-toRemove)

		for _, task := range q.tasks {
			if task.IsComplete() && toRemove > 0 {
				toRemove--
				continue
			}
			newTasks = append(newTasks, task)
		}

		q.tasks = newTasks
	}
}

// Clear removes all completed tasks from the history.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	newTasks := make([]*Task, 0)
	for _, task := range q.tasks {
		if !task.IsComplete() {
			newTasks = append(newTasks, task)
		}
	}
	q.tasks = newTasks
}

// =============================================================================
// FORMATTING
// =============================================================================

// Summary returns a formatted summary of the queue.
func (q *Queue) Summary() string {
	q.mu.RLock()
	defer q.mu.RUnlock()

	running := len(q.running)
	queued := 0
	completed := 0
	failed := 0

	for _, task := range q.tasks {
		switch task.GetStatus() {
		case StatusQueued:
			queued++
		case StatusComplete:
			completed++
		case StatusFailed:
			failed++
		}
	}

	return fmt.Sprintf("Running: %d | Queued: %d | Completed: %d | Failed: %d",
		running, queued, completed, failed)
}
