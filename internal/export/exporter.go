// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"io"
	"time"

	"github.com/jeranaias/tablex/internal/table"
)

// =============================================================================
// FORMAT IDENTIFIERS
// =============================================================================

// Built-in format identifiers. The registry is open to more.
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// =============================================================================
// ROW STREAM
// =============================================================================

// RowStream is a lazy, forward-only, finite sequence of rows. Exporters
// consume it incrementally and must not materialize the full row set;
// that is what allows all-results exports of large tables to stream.
//
// Usage follows the sql.Rows pattern:
//
//	for rows.Next() {
//	    row := rows.Row()
//	    ...
//	}
//
// After Next returns false the exporter finalizes the destination and
// returns. Retrieval failures are surfaced to the orchestrator through
// Err, not to the exporter.
type RowStream interface {
	// Next advances to the next row. It returns false when the stream
	// is exhausted, failed, or cancelled.
	Next() bool

	// Row returns the current row. Only valid after Next returned true.
	Row() table.Row

	// Err returns the retrieval error that ended the stream, if any.
	Err() error
}

// =============================================================================
// EXPORTER CONTRACT
// =============================================================================

// Meta is report metadata handed to exporters for document headers.
type Meta struct {
	// Title is the report title
	Title string

	// GeneratedAt is the UTC generation timestamp
	GeneratedAt time.Time

	// TotalRows is the expected row count, or table.TotalUnknown
	TotalRows int64

	// QuerySummary is a short description of the active filters/sort
	QuerySummary string
}

// Exporter renders an ordered column list plus a row stream into a
// destination for one output format.
//
// Export must flush and finalize the destination before returning. On
// failure the destination is left in an implementation-defined state;
// callers must not treat a partially written artifact as usable.
// Exporters never touch the data source.
type Exporter interface {
	// Export writes the document and returns the number of data rows
	// written. Render failures are reported as *RenderError.
	Export(cols []table.Column, rows RowStream, dest io.Writer, meta Meta) (int64, error)

	// FileExtension returns the appropriate file extension (e.g. ".xlsx").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}
