// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jeranaias/tablex/internal/table"
)

// =============================================================================
// EXPORT REQUEST
// =============================================================================

// Mode selects the export scope. The three scopes have incompatible
// retrieval strategies and are never silently unified: all-results
// pages through the source, current-page issues exactly one retrieval,
// and selected-rows exports a caller-provided snapshot without touching
// the source at all.
type Mode string

const (
	// ModeAllResults exports every row matching the query's filters
	ModeAllResults Mode = "all_results"

	// ModeCurrentPage exports the single page the query describes
	ModeCurrentPage Mode = "current_page"

	// ModeSelectedRows exports an explicit row snapshot
	ModeSelectedRows Mode = "selected_rows"
)

// DefaultChunkSize is the chunk size used when a request leaves it zero.
const DefaultChunkSize = 1000

// Request describes one export run.
type Request struct {
	// Format is the registry identifier of the target format
	Format string

	// Dest is the opaque write target. Owned exclusively by this run;
	// two runs must never share a destination.
	Dest io.Writer

	// Mode selects the export scope
	Mode Mode

	// Title is the report title (empty = DefaultTitle)
	Title string

	// Query drives retrieval for ModeAllResults and ModeCurrentPage.
	// ModeSelectedRows ignores it for retrieval.
	Query table.Query

	// Selection is the authoritative row snapshot for ModeSelectedRows
	Selection []table.Row

	// ChunkSize bounds each retrieval page in ModeAllResults (0 = default)
	ChunkSize int64
}

// DefaultTitle is used when a request carries no report title.
const DefaultTitle = "Report"

// chunkSize returns the effective chunk size for the request.
func (r Request) chunkSize() int64 {
	if r.ChunkSize == 0 {
		return DefaultChunkSize
	}
	return r.ChunkSize
}

// =============================================================================
// PROGRESS AND RESULT
// =============================================================================

// Progress reports rows completed so far against the expected total.
// Total is table.TotalUnknown when the source cannot count cheaply.
// Done is monotonically non-decreasing within one run.
type Progress struct {
	Done  int64
	Total int64
}

// ProgressFunc receives progress notifications at chunk granularity,
// never per individual row.
type ProgressFunc func(Progress)

// Result is the immutable outcome of a completed run.
type Result struct {
	// Dest is the destination handle the run wrote to
	Dest io.Writer

	// Rows is the number of data rows exported
	Rows int64

	// Elapsed is the wall-clock run duration
	Elapsed time.Duration

	// Warnings lists non-fatal anomalies (e.g. counted total and
	// retrieved rows disagreeing under concurrent mutation)
	Warnings []string
}

// =============================================================================
// RUN STATE
// =============================================================================

// State is the run state machine: Idle -> Running -> terminal. The
// terminal states are exclusive and final.
type State string

const (
	StateIdle      State = "Idle"
	StateRunning   State = "Running"
	StateCompleted State = "Completed"
	StateFailed    State = "Failed"
	StateCancelled State = "Cancelled"
)

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator drives one export run from request to terminal outcome:
// paginated retrieval, exporter feeding, progress reporting, and
// cooperative cancellation.
//
// The data source and registry are shared, long-lived collaborators;
// the orchestrator never mutates them and keeps no state between runs,
// so one instance may serve concurrent runs.
type Orchestrator struct {
	source   table.DataSource
	registry *Registry
}

// NewOrchestrator creates an orchestrator over a data source and a
// registry.
func NewOrchestrator(source table.DataSource, registry *Registry) *Orchestrator {
	return &Orchestrator{source: source, registry: registry}
}

// Validate checks a request without starting a run. All failures are
// *InvalidRequestError and are safe to surface synchronously to the
// caller.
func (o *Orchestrator) Validate(req Request) error {
	if req.Dest == nil {
		return &InvalidRequestError{Reason: "destination is nil"}
	}
	if req.ChunkSize < 0 {
		return &InvalidRequestError{Reason: fmt.Sprintf("chunk size must be >= 1, got %d", req.ChunkSize)}
	}
	if _, err := o.registry.Resolve(req.Format); err != nil {
		return &InvalidRequestError{Reason: err.Error(), Err: err}
	}

	switch req.Mode {
	case ModeAllResults, ModeCurrentPage:
		if err := req.Query.Validate(); err != nil {
			return &InvalidRequestError{Reason: err.Error(), Err: err}
		}
	case ModeSelectedRows:
		cols := o.source.Columns()
		for i, row := range req.Selection {
			if err := table.ValidateRow(cols, row); err != nil {
				return &InvalidRequestError{
					Reason: fmt.Sprintf("selection row %d: %v", i, err),
					Err:    err,
				}
			}
		}
	default:
		return &InvalidRequestError{Reason: fmt.Sprintf("unknown export mode: %q", req.Mode)}
	}
	return nil
}

// Run executes one export run to its terminal outcome.
//
// The return contract mirrors the run state machine: a nil error is
// Completed, a *CancelledError is Cancelled (carrying the rows exported
// before the cancellation was observed), and any other error is Failed.
// No outcome is ever silently swallowed, and the orchestrator never
// retries: resubmitting is the caller's decision.
//
// Cancellation is cooperative via ctx and is observed at chunk
// boundaries only; retrieval and rendering are the only points where
// the run blocks.
func (o *Orchestrator) Run(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	start := time.Now()

	if err := o.Validate(req); err != nil {
		return nil, err
	}
	exp, err := o.registry.Resolve(req.Format)
	if err != nil {
		// Unreachable after Validate, kept for direct callers.
		return nil, &InvalidRequestError{Reason: err.Error(), Err: err}
	}
	cols := o.source.Columns()

	// An empty selection completes immediately with zero rows; the
	// exporter is not invoked and no artifact is produced.
	if req.Mode == ModeSelectedRows && len(req.Selection) == 0 {
		return &Result{Dest: req.Dest, Rows: 0, Elapsed: time.Since(start)}, nil
	}

	stream, total, err := o.buildStream(ctx, req, cols, progress)
	if err != nil {
		// A cancel or timeout landing inside the up-front retrieval
		// (current-page fetch, all-results count) is a cancellation,
		// not a failure.
		if isCtxCancel(err) {
			return nil, &CancelledError{Rows: 0}
		}
		return nil, err
	}

	meta := Meta{
		Title:        req.Title,
		GeneratedAt:  time.Now().UTC(),
		TotalRows:    total,
		QuerySummary: req.Query.Summary(),
	}
	if meta.Title == "" {
		meta.Title = DefaultTitle
	}

	rows, expErr := exp.Export(cols, stream, req.Dest, meta)

	// A retrieval failure ends the stream early; the exporter then sees
	// a normal end-of-rows and finalizes best-effort. The run is still
	// Failed, and the partially written destination is not usable.
	// Retrieval aborted by the run's own cancellation signal is a
	// cancellation, not a failure.
	if serr := stream.Err(); serr != nil {
		if isCtxCancel(serr) {
			return nil, &CancelledError{Rows: rows}
		}
		return nil, serr
	}
	if expErr != nil {
		var rerr *RenderError
		if errors.As(expErr, &rerr) {
			return nil, expErr
		}
		return nil, &RenderError{Format: req.Format, Offset: rows, Err: expErr}
	}
	if stream.Cancelled() {
		return nil, &CancelledError{Rows: rows}
	}

	return &Result{
		Dest:     req.Dest,
		Rows:     rows,
		Elapsed:  time.Since(start),
		Warnings: stream.Warnings(),
	}, nil
}

// isCtxCancel reports whether an error chain bottoms out in the run's
// own cancellation signal.
func isCtxCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// buildStream assembles the mode-specific row stream and the expected
// total for progress reporting.
func (o *Orchestrator) buildStream(ctx context.Context, req Request, cols []table.Column, progress ProgressFunc) (runStream, int64, error) {
	switch req.Mode {
	case ModeSelectedRows:
		// The snapshot is authoritative: no retrieval, snapshot order.
		total := int64(len(req.Selection))
		return newSliceStream(req.Selection, total, progress), total, nil

	case ModeCurrentPage:
		// A single retrieval using the request's window as given.
		if err := ctx.Err(); err != nil {
			return nil, 0, &CancelledError{Rows: 0}
		}
		page, err := o.source.Rows(ctx, req.Query)
		if err != nil {
			return nil, 0, err
		}
		for i, row := range page {
			if verr := table.ValidateRow(cols, row); verr != nil {
				return nil, 0, &table.DataSourceError{Query: req.Query, Err: fmt.Errorf("row %d: %w", i, verr)}
			}
		}
		total := int64(len(page))
		return newSliceStream(page, total, progress), total, nil

	case ModeAllResults:
		if err := ctx.Err(); err != nil {
			return nil, 0, &CancelledError{Rows: 0}
		}
		total, err := o.source.TotalCount(ctx, req.Query.Filters)
		if err != nil {
			return nil, 0, err
		}
		if total < 0 {
			total = table.TotalUnknown
		}
		return newChunkStream(ctx, o.source, cols, req.Query, req.chunkSize(), total, progress), total, nil

	default:
		return nil, 0, &InvalidRequestError{Reason: fmt.Sprintf("unknown export mode: %q", req.Mode)}
	}
}
