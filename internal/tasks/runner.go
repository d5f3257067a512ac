// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// TASK RUNNER
// =============================================================================

// Runner executes background tasks from a queue on a bounded pool.
type Runner struct {
	queue         *Queue
	wg            sync.WaitGroup
	stop          chan struct{}
	stopped       atomic.Bool   // Flag to prevent new tasks after Stop() is called
	maxConcurrent int           // Maximum number of concurrent tasks
	semaphore     chan struct{} // Semaphore to limit concurrency
	taskTimeout   time.Duration // Timeout for each task (0 = no timeout)
}

// DefaultMaxConcurrent is the default worker pool size.
const DefaultMaxConcurrent = 4

// NewRunner creates a new task runner for the given queue with the
// default pool size and no task timeout.
func NewRunner(queue *Queue) *Runner {
	return NewRunnerWithOptions(queue, DefaultMaxConcurrent, 0)
}

// NewRunnerWithOptions creates a new task runner with custom settings.
// maxConcurrent: maximum number of tasks to run concurrently
// taskTimeout: deadline per task (0 = no timeout). A timed-out task is
// cancelled through the same cooperative signal as a user cancel.
func NewRunnerWithOptions(queue *Queue, maxConcurrent int, taskTimeout time.Duration) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Runner{
		queue:         queue,
		stop:          make(chan struct{}),
		maxConcurrent: maxConcurrent,
		semaphore:     make(chan struct{}, maxConcurrent),
		taskTimeout:   taskTimeout,
	}
}

// =============================================================================
// RUNNER LIFECYCLE
// =============================================================================

// Start begins processing tasks from the queue.
func (r *Runner) Start() {
	go r.processLoop()
}

// Stop gracefully stops the runner.
// Waits for currently running tasks to complete.
func (r *Runner) Stop() {
	r.stopped.Store(true) // Set flag to prevent new task spawns
	close(r.stop)
	r.wg.Wait()
}

// =============================================================================
// TASK PROCESSING
// =============================================================================

// processLoop continuously processes tasks from the queue.
func (r *Runner) processLoop() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if r.stopped.Load() {
				return
			}

			for _, task := range r.queue.Queued() {
				if r.stopped.Load() {
					return
				}

				// Acquire semaphore (blocks if at max concurrency)
				select {
				case r.semaphore <- struct{}{}:
					r.wg.Add(1)
					go r.executeTask(task)
				case <-r.stop:
					return
				}
			}
		}
	}
}

// executeTask executes a single task.
func (r *Runner) executeTask(task *Task) {
	defer r.wg.Done()
	defer func() { <-r.semaphore }() // Release semaphore when done

	var ctx context.Context
	var cancel context.CancelFunc
	if r.taskTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), r.taskTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	defer cancel()

	// The cancel func must be in place before the task becomes
	// cancellable-as-running, so an accepted Cancel always reaches the
	// context.
	task.SetCancelFunc(cancel)

	// The task may have been canceled between Queued() and here.
	if !r.queue.MarkRunning(task) {
		return
	}

	work := task.work()
	var err error
	if work == nil {
		err = fmt.Errorf("task has no unit of work")
	} else {
		err = work(ctx)
	}

	// Both an explicit cancel and a timeout arrive through the context;
	// either way the work wound down cooperatively and the terminal
	// state is Canceled, not Failed.
	switch {
	case ctx.Err() != nil:
		r.queue.MarkCanceled(task)
	case err != nil:
		r.queue.MarkFailed(task, err)
	default:
		r.queue.MarkComplete(task)
	}
}
