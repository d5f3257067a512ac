// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package table

import (
	"context"
	"fmt"
)

// =============================================================================
// DATA SOURCE CONTRACT
// =============================================================================

// TotalUnknown is the sentinel TotalCount returns when a source cannot
// count cheaply. Progress reporting degrades to rows-completed-only.
const TotalUnknown int64 = -1

// DataSource is the capability contract a data layer implements to
// supply queryable tabular data. Implementations may be in-memory,
// SQL-backed, remote APIs, or anything else.
//
// Implementations must tolerate concurrent Rows calls with different
// queries without corrupting each other's results; beyond that the
// export pipeline assigns them no locking responsibility.
type DataSource interface {
	// Columns returns the ordered column descriptors. Pure and stable
	// within one export run.
	Columns() []Column

	// TotalCount returns the number of rows matching the filters, or
	// TotalUnknown if counting is unsupported or expensive.
	TotalCount(ctx context.Context, filters []Filter) (int64, error)

	// Rows returns one page of rows matching the query, in a
	// deterministic order for a fixed query against unchanged data.
	// The result length must not exceed query.Limit when a limit is set.
	Rows(ctx context.Context, query Query) ([]Row, error)
}

// =============================================================================
// ERRORS
// =============================================================================

// DataSourceError wraps a retrieval failure together with the query
// that failed. The export pipeline treats it as fatal for the run.
type DataSourceError struct {
	Query Query
	Err   error
}

// Error implements the error interface.
func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source query failed (offset=%d limit=%d): %v",
		e.Query.Offset, e.Query.Limit, e.Err)
}

// Unwrap returns the underlying error.
func (e *DataSourceError) Unwrap() error {
	return e.Err
}
