// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/tablex/internal/table"
	"github.com/jeranaias/tablex/internal/tasks"
)

// =============================================================================
// EXPORT SERVICE
// =============================================================================

// Callbacks are the notification sinks for one submitted run. They are
// invoked from the worker goroutine executing the run, in the order
// produced: any number of OnProgress calls followed by exactly one of
// OnComplete, OnFailure, or OnCancelled. Nil callbacks are skipped.
//
// Callbacks must be fast and must not block; a UI layer should hand the
// values off to its own event loop.
type Callbacks struct {
	OnProgress  func(Progress)
	OnComplete  func(*Result)
	OnFailure   func(error)
	OnCancelled func(rows int64)
}

// Service submits export runs to the background task host. The
// interactive caller only submits requests and receives notifications;
// retrieval and rendering happen on pool workers.
type Service struct {
	orch   *Orchestrator
	queue  *tasks.Queue
	runner *tasks.Runner

	// cbs keeps the sinks of not-yet-finished runs so a cancel of a
	// still-queued run can deliver its terminal notification.
	mu  sync.Mutex
	cbs map[string]Callbacks
}

// NewService creates a service over a data source and registry.
// maxConcurrent bounds the worker pool; taskTimeout (0 = none) cancels
// overlong runs through the cooperative cancellation signal.
func NewService(source table.DataSource, registry *Registry, maxConcurrent int, taskTimeout time.Duration) *Service {
	queue := tasks.NewQueue(100)
	return &Service{
		orch:   NewOrchestrator(source, registry),
		queue:  queue,
		runner: tasks.NewRunnerWithOptions(queue, maxConcurrent, taskTimeout),
		cbs:    make(map[string]Callbacks),
	}
}

// Start begins processing submitted runs.
func (s *Service) Start() {
	s.runner.Start()
}

// Stop gracefully stops the worker pool, waiting for running exports.
func (s *Service) Stop() {
	s.runner.Stop()
}

// Queue exposes the underlying task queue for status display.
func (s *Service) Queue() *tasks.Queue {
	return s.queue
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit validates the request synchronously and enqueues the run.
// A malformed request (unknown format, bad chunk size) is rejected here
// with an *InvalidRequestError before any worker is scheduled. On
// success the run's task ID is returned for cancellation and status
// lookups.
func (s *Service) Submit(req Request, cb Callbacks) (string, error) {
	if err := s.orch.Validate(req); err != nil {
		return "", err
	}

	var task *tasks.Task
	work := func(ctx context.Context) error {
		return s.execute(ctx, task.ID, req)
	}
	task = tasks.New(fmt.Sprintf("export %s (%s)", req.Format, req.Mode), work)

	s.mu.Lock()
	s.cbs[task.ID] = cb
	s.mu.Unlock()

	if err := s.queue.Add(task); err != nil {
		s.forget(task.ID)
		return "", err
	}
	return task.ID, nil
}

// Cancel requests cancellation of a run. A run still waiting for a
// worker is canceled in place and its OnCancelled sink fires with zero
// rows; a running one winds down at its next chunk boundary.
func (s *Service) Cancel(id string) bool {
	canceled, wasQueued := s.queue.Cancel(id)
	if canceled && wasQueued {
		if cb, ok := s.take(id); ok && cb.OnCancelled != nil {
			cb.OnCancelled(0)
		}
	}
	return canceled
}

// execute runs one export on a pool worker and fires the run's terminal
// sink exactly once. The returned error drives the task's final status.
func (s *Service) execute(ctx context.Context, id string, req Request) error {
	res, runErr := s.orch.Run(ctx, req, func(p Progress) {
		s.queue.SetProgress(id, p.Done, p.Total)
		s.dispatchProgress(id, p)
	})

	cb, ok := s.take(id)
	if !ok {
		return runErr
	}

	switch {
	case runErr == nil:
		s.queue.SetProgress(id, res.Rows, res.Rows)
		if cb.OnComplete != nil {
			cb.OnComplete(res)
		}
		return nil
	case IsCancelled(runErr):
		var c *CancelledError
		errors.As(runErr, &c)
		if cb.OnCancelled != nil {
			cb.OnCancelled(c.Rows)
		}
		return runErr
	default:
		if cb.OnFailure != nil {
			cb.OnFailure(runErr)
		}
		return runErr
	}
}

// dispatchProgress invokes the run's OnProgress sink without consuming
// the callback entry.
func (s *Service) dispatchProgress(id string, p Progress) {
	s.mu.Lock()
	cb, ok := s.cbs[id]
	s.mu.Unlock()

	if ok && cb.OnProgress != nil {
		cb.OnProgress(p)
	}
}

// take removes and returns the callbacks for a run.
func (s *Service) take(id string) (Callbacks, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, ok := s.cbs[id]
	if ok {
		delete(s.cbs, id)
	}
	return cb, ok
}

// forget drops the callbacks for a run without delivering.
func (s *Service) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cbs, id)
}
