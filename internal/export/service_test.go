// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/tablex/internal/tasks"
)

// terminalRecorder collects callback invocations for one run.
type terminalRecorder struct {
	mu        sync.Mutex
	progress  []Progress
	terminals int

	done      chan string // receives "complete", "failure", or "cancelled"
	result    *Result
	failure   error
	cancelled int64
}

func newTerminalRecorder() *terminalRecorder {
	return &terminalRecorder{done: make(chan string, 1)}
}

func (r *terminalRecorder) callbacks() Callbacks {
	return Callbacks{
		OnProgress: func(p Progress) {
			r.mu.Lock()
			r.progress = append(r.progress, p)
			r.mu.Unlock()
		},
		OnComplete: func(res *Result) {
			r.mu.Lock()
			r.terminals++
			r.result = res
			r.mu.Unlock()
			r.done <- "complete"
		},
		OnFailure: func(err error) {
			r.mu.Lock()
			r.terminals++
			r.failure = err
			r.mu.Unlock()
			r.done <- "failure"
		},
		OnCancelled: func(rows int64) {
			r.mu.Lock()
			r.terminals++
			r.cancelled = rows
			r.mu.Unlock()
			r.done <- "cancelled"
		},
	}
}

func (r *terminalRecorder) wait(t *testing.T) string {
	t.Helper()
	select {
	case outcome := <-r.done:
		return outcome
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a terminal callback")
		return ""
	}
}

func newTestService(src *fakeSource, timeout time.Duration) *Service {
	registry := NewRegistry()
	RegisterBuiltins(registry)
	return NewService(src, registry, 2, timeout)
}

func TestServiceSubmitRejectsUnknownFormatSynchronously(t *testing.T) {
	svc := newTestService(newFakeSource(10), 0)

	_, err := svc.Submit(Request{
		Format: "docx",
		Dest:   &bytes.Buffer{},
		Mode:   ModeAllResults,
	}, Callbacks{})

	var ivErr *InvalidRequestError
	if !errors.As(err, &ivErr) {
		t.Fatalf("expected InvalidRequestError, got %v", err)
	}
	if svc.Queue().Count() != 0 {
		t.Error("rejected request must not enqueue a task")
	}
}

func TestServiceRunToCompletion(t *testing.T) {
	src := newFakeSource(250)
	svc := newTestService(src, 0)
	svc.Start()
	defer svc.Stop()

	rec := newTerminalRecorder()
	id, err := svc.Submit(Request{
		Format:    "csv",
		Dest:      &bytes.Buffer{},
		Mode:      ModeAllResults,
		ChunkSize: 100,
	}, rec.callbacks())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if outcome := rec.wait(t); outcome != "complete" {
		t.Fatalf("expected completion, got %s (%v)", outcome, rec.failure)
	}
	if rec.result.Rows != 250 {
		t.Errorf("expected 250 rows, got %d", rec.result.Rows)
	}
	if rec.terminals != 1 {
		t.Errorf("expected exactly one terminal callback, got %d", rec.terminals)
	}
	if len(rec.progress) != 3 {
		t.Errorf("expected 3 progress reports, got %d", len(rec.progress))
	}

	// Queue status converges after the callback fires.
	deadline := time.Now().Add(2 * time.Second)
	for {
		task := svc.Queue().Get(id)
		if task != nil && task.Status == tasks.StatusComplete {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("task never reached complete: %+v", task)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServiceRunFailure(t *testing.T) {
	src := newFakeSource(250)
	src.failOnCall = 1
	svc := newTestService(src, 0)
	svc.Start()
	defer svc.Stop()

	rec := newTerminalRecorder()
	if _, err := svc.Submit(Request{
		Format: "csv",
		Dest:   &bytes.Buffer{},
		Mode:   ModeAllResults,
	}, rec.callbacks()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if outcome := rec.wait(t); outcome != "failure" {
		t.Fatalf("expected failure, got %s", outcome)
	}
	if rec.failure == nil {
		t.Fatal("failure callback should carry the error")
	}
	if rec.terminals != 1 {
		t.Errorf("expected exactly one terminal callback, got %d", rec.terminals)
	}
}

func TestServiceCancelQueuedRun(t *testing.T) {
	src := newFakeSource(10)
	svc := newTestService(src, 0)
	// Runner intentionally not started: the task stays queued.

	rec := newTerminalRecorder()
	id, err := svc.Submit(Request{
		Format: "csv",
		Dest:   &bytes.Buffer{},
		Mode:   ModeAllResults,
	}, rec.callbacks())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if !svc.Cancel(id) {
		t.Fatal("cancel of a queued run should be accepted")
	}
	if outcome := rec.wait(t); outcome != "cancelled" {
		t.Fatalf("expected cancellation, got %s", outcome)
	}
	if rec.cancelled != 0 {
		t.Errorf("a never-started run exports 0 rows, got %d", rec.cancelled)
	}

	// A worker starting later must not resurrect the canceled task.
	svc.Start()
	defer svc.Stop()
	time.Sleep(200 * time.Millisecond)
	if rec.terminals != 1 {
		t.Errorf("expected exactly one terminal callback, got %d", rec.terminals)
	}
	if task := svc.Queue().Get(id); task.Status != tasks.StatusCanceled {
		t.Errorf("expected canceled status, got %s", task.Status)
	}
}

func TestServiceCancelRunningRun(t *testing.T) {
	src := newFakeSource(250)
	svc := newTestService(src, 0)

	rec := newTerminalRecorder()
	id, err := svc.Submit(Request{
		Format:    "csv",
		Dest:      &bytes.Buffer{},
		Mode:      ModeAllResults,
		ChunkSize: 100,
	}, rec.callbacks())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// Cancel from inside the first retrieval so the next chunk boundary
	// observes it.
	src.afterCall = 1
	src.afterCallFn = func() { svc.Cancel(id) }

	svc.Start()
	defer svc.Stop()

	if outcome := rec.wait(t); outcome != "cancelled" {
		t.Fatalf("expected cancellation, got %s", outcome)
	}
	if rec.cancelled != 100 {
		t.Errorf("expected 100 rows before cancellation, got %d", rec.cancelled)
	}
	if rec.terminals != 1 {
		t.Errorf("expected exactly one terminal callback, got %d", rec.terminals)
	}
}

func TestServiceTimeoutCancelsRun(t *testing.T) {
	src := newFakeSource(250)
	src.delay = 100 * time.Millisecond
	svc := newTestService(src, 50*time.Millisecond)
	svc.Start()
	defer svc.Stop()

	rec := newTerminalRecorder()
	if _, err := svc.Submit(Request{
		Format:    "csv",
		Dest:      &bytes.Buffer{},
		Mode:      ModeAllResults,
		ChunkSize: 100,
	}, rec.callbacks()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// A timeout is delivered through the same cancellation signal, so
	// the run ends Cancelled rather than Failed.
	if outcome := rec.wait(t); outcome != "cancelled" {
		t.Fatalf("expected cancellation on timeout, got %s", outcome)
	}
}
