// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks provides the background execution host for long-running
// work such as export runs. Work is submitted as a cancellable unit and
// executed on a bounded worker pool, keeping retrieval and rendering
// off the interactive thread.
//
// # Key Types
//
//   - Task: one unit of work with a status state machine
//   - Queue: thread-safe task queue with terminal-state notifications
//   - Runner: semaphore-bounded pool that executes queued tasks
//
// # Guarantees
//
// A task reaches exactly one terminal state (Complete, Failed, or
// Canceled). Cancellation is cooperative: the task's context is
// cancelled and the work observes it at its own checkpoints, never
// pre-emptively. An optional per-task timeout triggers the same
// cancellation signal after a deadline; the work itself carries no
// clock dependency.
package tasks
