// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jeranaias/tablex/internal/table"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter writes a machine-readable document: report metadata plus
// the rows as an array of objects. Rows are framed one at a time so the
// document streams without buffering the full export.
//
// NOTE: values are emitted with full fidelity and do not go through the
// display formatting the text formats use. This keeps the exported JSON
// a faithful representation of the source data.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// jsonHeader is the metadata block preceding the row array.
type jsonHeader struct {
	Title        string `json:"title"`
	GeneratedAt  string `json:"generated_at"`
	TotalRows    *int64 `json:"total_rows,omitempty"`
	QuerySummary string `json:"query_summary,omitempty"`
}

// Export writes the stream to dest as JSON.
func (e *JSONExporter) Export(cols []table.Column, rows RowStream, dest io.Writer, meta Meta) (int64, error) {
	header := jsonHeader{
		Title:        meta.Title,
		GeneratedAt:  meta.GeneratedAt.Format(time.RFC3339),
		QuerySummary: meta.QuerySummary,
	}
	if meta.TotalRows >= 0 {
		total := meta.TotalRows
		header.TotalRows = &total
	}

	head, err := json.Marshal(header)
	if err != nil {
		return 0, &RenderError{Format: FormatJSON, Offset: 0, Err: err}
	}
	// Open the envelope: reuse the marshaled header minus its closing
	// brace, then append the row array by hand.
	if _, err := dest.Write(append(head[:len(head)-1], []byte(",\"rows\":[")...)); err != nil {
		return 0, &RenderError{Format: FormatJSON, Offset: 0, Err: err}
	}

	var n int64
	for rows.Next() {
		data, err := json.Marshal(rows.Row())
		if err != nil {
			return n, &RenderError{Format: FormatJSON, Offset: n, Err: err}
		}
		if n > 0 {
			if _, err := dest.Write([]byte(",")); err != nil {
				return n, &RenderError{Format: FormatJSON, Offset: n, Err: err}
			}
		}
		if _, err := dest.Write(data); err != nil {
			return n, &RenderError{Format: FormatJSON, Offset: n, Err: err}
		}
		n++
	}

	if _, err := dest.Write([]byte("]}\n")); err != nil {
		return n, &RenderError{Format: FormatJSON, Offset: n, Err: err}
	}
	return n, nil
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
