// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"context"
	"fmt"

	"github.com/jeranaias/tablex/internal/table"
)

// =============================================================================
// RUN STREAM
// =============================================================================

// runStream is the orchestrator-side view of a row stream: the exporter
// contract plus the terminal flags the orchestrator inspects after the
// exporter returns.
type runStream interface {
	RowStream

	// Cancelled reports whether the stream stopped because the run's
	// cancellation signal was observed.
	Cancelled() bool

	// Warnings returns non-fatal anomalies recorded during retrieval.
	Warnings() []string
}

// =============================================================================
// SLICE STREAM
// =============================================================================

// sliceStream streams an already-materialized row slice: the current
// page of a ModeCurrentPage run or the snapshot of a ModeSelectedRows
// run. The whole slice is one chunk, so exactly one progress
// notification is emitted once it has been consumed.
type sliceStream struct {
	rows     []table.Row
	total    int64
	progress ProgressFunc

	idx      int
	cur      table.Row
	reported bool
}

func newSliceStream(rows []table.Row, total int64, progress ProgressFunc) *sliceStream {
	return &sliceStream{rows: rows, total: total, progress: progress}
}

func (s *sliceStream) Next() bool {
	if s.idx < len(s.rows) {
		s.cur = s.rows[s.idx]
		s.idx++
		return true
	}
	if !s.reported && len(s.rows) > 0 {
		s.reported = true
		if s.progress != nil {
			s.progress(Progress{Done: int64(len(s.rows)), Total: s.total})
		}
	}
	return false
}

func (s *sliceStream) Row() table.Row     { return s.cur }
func (s *sliceStream) Err() error         { return nil }
func (s *sliceStream) Cancelled() bool    { return false }
func (s *sliceStream) Warnings() []string { return nil }

// =============================================================================
// CHUNK STREAM
// =============================================================================

// chunkStream pulls pages of chunk size from the data source on demand,
// starting at offset zero. Retrieval continues until a page comes back
// short (end-of-data) or the counted total is reached, whichever bound
// is hit first; this keeps the run finite even when the source's count
// and its actual page lengths disagree.
//
// Progress is reported when a chunk has been fully handed to the
// exporter, and the cancellation signal is polled before each fetch.
type chunkStream struct {
	ctx      context.Context
	src      table.DataSource
	cols     []table.Column
	base     table.Query
	chunk    int64
	total    int64 // counted total, or table.TotalUnknown
	progress ProgressFunc

	buf       []table.Row
	idx       int
	cur       table.Row
	offset    int64
	done      int64
	short     bool
	eof       bool
	cancelled bool
	err       error
	warnings  []string
}

func newChunkStream(ctx context.Context, src table.DataSource, cols []table.Column, base table.Query, chunk, total int64, progress ProgressFunc) *chunkStream {
	return &chunkStream{
		ctx:      ctx,
		src:      src,
		cols:     cols,
		base:     base,
		chunk:    chunk,
		total:    total,
		progress: progress,
	}
}

func (s *chunkStream) Next() bool {
	if s.err != nil || s.cancelled {
		return false
	}

	if s.idx < len(s.buf) {
		s.cur = s.buf[s.idx]
		s.idx++
		return true
	}

	// The previous chunk has been fully consumed by the exporter:
	// account for it and notify at chunk granularity.
	if len(s.buf) > 0 {
		s.done += int64(len(s.buf))
		s.buf = nil
		s.idx = 0
		if s.progress != nil {
			s.progress(Progress{Done: s.done, Total: s.total})
		}
	}

	if s.eof {
		return false
	}

	// Bound checks: short page means the source ran out of data; a
	// counted total bounds the run even if the source keeps producing.
	if s.short {
		s.finish()
		return false
	}
	if s.total >= 0 && s.done >= s.total {
		s.finish()
		return false
	}

	// Cancellation is polled before each fetch; this is the run's only
	// preemption point.
	select {
	case <-s.ctx.Done():
		s.cancelled = true
		return false
	default:
	}

	q := s.base.WithPage(s.offset, s.chunk)
	page, err := s.src.Rows(s.ctx, q)
	if err != nil {
		s.err = err
		return false
	}
	for i, row := range page {
		if verr := table.ValidateRow(s.cols, row); verr != nil {
			s.err = &table.DataSourceError{Query: q, Err: fmt.Errorf("row %d: %w", i, verr)}
			return false
		}
	}

	if int64(len(page)) < s.chunk {
		s.short = true
	}
	s.offset += int64(len(page))

	if len(page) == 0 {
		s.finish()
		return false
	}

	s.buf = page
	s.cur = s.buf[0]
	s.idx = 1
	return true
}

// finish marks end-of-data and records a warning when the counted total
// and the rows actually retrieved disagree (e.g. concurrent writes
// changed the table mid-export).
func (s *chunkStream) finish() {
	if s.eof {
		return
	}
	s.eof = true
	if s.total >= 0 && s.done != s.total {
		s.warnings = append(s.warnings,
			fmt.Sprintf("data source counted %d rows but returned %d", s.total, s.done))
	}
}

func (s *chunkStream) Row() table.Row     { return s.cur }
func (s *chunkStream) Err() error         { return s.err }
func (s *chunkStream) Cancelled() bool    { return s.cancelled }
func (s *chunkStream) Warnings() []string { return s.warnings }
