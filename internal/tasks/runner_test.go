// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// waitForStatus polls until the task reaches the wanted status.
func waitForStatus(t *testing.T, q *Queue, id string, want Status) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if task := q.Get(id); task != nil && task.Status == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	task := q.Get(id)
	t.Fatalf("task never reached %s, stuck at %s", want, task.Status)
}

func TestRunnerExecutesTask(t *testing.T) {
	q := NewQueue(10)
	r := NewRunner(q)
	r.Start()
	defer r.Stop()

	var ran atomic.Bool
	task := New("test", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	_ = q.Add(task)

	waitForStatus(t, q, task.ID, StatusComplete)
	if !ran.Load() {
		t.Error("work should have run")
	}
}

func TestRunnerMarksFailure(t *testing.T) {
	q := NewQueue(10)
	r := NewRunner(q)
	r.Start()
	defer r.Stop()

	task := New("test", func(ctx context.Context) error {
		return errors.New("boom")
	})
	_ = q.Add(task)

	waitForStatus(t, q, task.ID, StatusFailed)
	if got := q.Get(task.ID).Error; got != "boom" {
		t.Errorf("expected error message, got %q", got)
	}
}

func TestRunnerConcurrencyBound(t *testing.T) {
	q := NewQueue(10)
	r := NewRunnerWithOptions(q, 2, 0)
	r.Start()
	defer r.Stop()

	var current, peak atomic.Int32
	block := make(chan struct{})

	for i := 0; i < 5; i++ {
		task := New("test", func(ctx context.Context) error {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-block
			current.Add(-1)
			return nil
		})
		_ = q.Add(task)
	}

	// Let the pool pick up work, then release everything.
	time.Sleep(300 * time.Millisecond)
	close(block)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && len(q.Completed()) < 5 {
		time.Sleep(10 * time.Millisecond)
	}

	if got := peak.Load(); got > 2 {
		t.Errorf("expected at most 2 concurrent tasks, saw %d", got)
	}
	if len(q.Completed()) != 5 {
		t.Errorf("expected 5 completed tasks, got %d", len(q.Completed()))
	}
}

func TestRunnerCancellation(t *testing.T) {
	q := NewQueue(10)
	r := NewRunner(q)
	r.Start()
	defer r.Stop()

	started := make(chan struct{})
	task := New("test", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	_ = q.Add(task)

	<-started
	if canceled, wasQueued := q.Cancel(task.ID); !canceled || wasQueued {
		t.Fatalf("expected running cancel, got (%v, %v)", canceled, wasQueued)
	}

	waitForStatus(t, q, task.ID, StatusCanceled)
}

func TestRunnerTimeoutEndsCanceled(t *testing.T) {
	q := NewQueue(10)
	r := NewRunnerWithOptions(q, 1, 50*time.Millisecond)
	r.Start()
	defer r.Stop()

	task := New("test", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	_ = q.Add(task)

	// A timeout travels the same signal as a cancel, so the terminal
	// state is Canceled rather than Failed.
	waitForStatus(t, q, task.ID, StatusCanceled)
}

func TestRunnerSkipsTaskCanceledBeforePickup(t *testing.T) {
	q := NewQueue(10)
	task := New("test", func(ctx context.Context) error {
		t.Error("canceled task must never run")
		return nil
	})
	_ = q.Add(task)
	q.Cancel(task.ID)

	r := NewRunner(q)
	r.Start()
	defer r.Stop()

	time.Sleep(200 * time.Millisecond)
	if got := q.Get(task.ID).Status; got != StatusCanceled {
		t.Errorf("expected canceled, got %s", got)
	}
}

func TestRunnerStopWaitsForRunningTasks(t *testing.T) {
	q := NewQueue(10)
	r := NewRunner(q)
	r.Start()

	var finished atomic.Bool
	started := make(chan struct{})
	task := New("test", func(ctx context.Context) error {
		close(started)
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
		return nil
	})
	_ = q.Add(task)

	<-started
	r.Stop()

	if !finished.Load() {
		t.Error("Stop should wait for running work to finish")
	}
}
