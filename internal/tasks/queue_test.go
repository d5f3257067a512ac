// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"testing"
)

func TestQueueAddAndGet(t *testing.T) {
	q := NewQueue(10)
	task := New("export xlsx (all_results)", nil)

	if err := q.Add(task); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if q.Count() != 1 {
		t.Errorf("expected 1 task, got %d", q.Count())
	}

	got := q.Get(task.ID)
	if got == nil || got.ID != task.ID {
		t.Fatal("expected to retrieve the task by ID")
	}
	// Get returns snapshots.
	got.Status = StatusFailed
	if task.GetStatus() != StatusQueued {
		t.Error("mutating a snapshot must not affect the queued task")
	}
}

func TestQueueMaxSize(t *testing.T) {
	q := NewQueueWithOptions(10, 2)

	if err := q.Add(New("a", nil)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := q.Add(New("b", nil)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := q.Add(New("c", nil)); err == nil {
		t.Error("expected queue-full error")
	}
}

func TestQueueCancelQueuedTask(t *testing.T) {
	q := NewQueue(10)
	task := New("test", nil)
	_ = q.Add(task)

	canceled, wasQueued := q.Cancel(task.ID)
	if !canceled || !wasQueued {
		t.Fatalf("expected (true, true), got (%v, %v)", canceled, wasQueued)
	}
	if task.GetStatus() != StatusCanceled {
		t.Errorf("expected canceled, got %s", task.GetStatus())
	}

	// Terminal notification is emitted for the queued cancel.
	select {
	case n := <-q.Notifications():
		if n.TaskID != task.ID || n.Status != StatusCanceled {
			t.Errorf("unexpected notification: %+v", n)
		}
	default:
		t.Error("expected a cancellation notification")
	}
}

func TestQueueCancelUnknownTask(t *testing.T) {
	q := NewQueue(10)

	if canceled, _ := q.Cancel("no-such-id"); canceled {
		t.Error("cancel of an unknown task should be refused")
	}
}

func TestMarkRunningRefusesCanceledTask(t *testing.T) {
	q := NewQueue(10)
	task := New("test", nil)
	_ = q.Add(task)

	q.Cancel(task.ID)

	if q.MarkRunning(task) {
		t.Error("a canceled task must not start running")
	}
	if q.RunningCount() != 0 {
		t.Errorf("expected no running tasks, got %d", q.RunningCount())
	}
}

func TestQueueLifecycleNotifications(t *testing.T) {
	q := NewQueue(10)
	task := New("test", nil)
	_ = q.Add(task)

	if !q.MarkRunning(task) {
		t.Fatal("queued task should start")
	}
	if q.RunningCount() != 1 {
		t.Errorf("expected 1 running task, got %d", q.RunningCount())
	}

	task.SetProgress(42, 100)
	q.MarkComplete(task)

	if q.RunningCount() != 0 {
		t.Errorf("expected 0 running tasks, got %d", q.RunningCount())
	}

	n := <-q.Notifications()
	if n.Status != StatusComplete {
		t.Errorf("expected complete notification, got %s", n.Status)
	}
	if n.RowsDone != 42 {
		t.Errorf("expected 42 rows in notification, got %d", n.RowsDone)
	}
}

func TestQueueSetProgressByID(t *testing.T) {
	q := NewQueue(10)
	task := New("test", nil)
	_ = q.Add(task)

	if q.SetProgress(task.ID, 10, 100) {
		t.Error("progress for a non-running task should be refused")
	}

	q.MarkRunning(task)
	if !q.SetProgress(task.ID, 10, 100) {
		t.Error("progress for a running task should be accepted")
	}
	if done, total := task.Progress(); done != 10 || total != 100 {
		t.Errorf("expected (10, 100), got (%d, %d)", done, total)
	}
}

func TestQueueHistoryCleanup(t *testing.T) {
	q := NewQueue(2)

	for i := 0; i < 5; i++ {
		task := New("test", nil)
		_ = q.Add(task)
		q.MarkRunning(task)
		q.MarkComplete(task)
	}

	completed := q.Completed()
	if len(completed) != 2 {
		t.Errorf("expected history capped at 2, got %d", len(completed))
	}
}

func TestQueueQueuedReturnsOriginals(t *testing.T) {
	q := NewQueue(10)
	task := New("test", nil)
	_ = q.Add(task)

	queued := q.Queued()
	if len(queued) != 1 {
		t.Fatalf("expected 1 queued task, got %d", len(queued))
	}
	if queued[0] != task {
		t.Error("Queued must return the original task pointer for the runner")
	}
}
