// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/csv"
	"io"

	"github.com/jeranaias/tablex/internal/table"
)

// =============================================================================
// CSV EXPORTER
// =============================================================================

// CSVExporter writes a plain RFC 4180 document: one header row of
// column titles followed by the data rows. Report metadata is omitted
// on purpose so the output stays machine-consumable.
type CSVExporter struct{}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export writes the stream to dest as CSV.
func (e *CSVExporter) Export(cols []table.Column, rows RowStream, dest io.Writer, meta Meta) (int64, error) {
	w := csv.NewWriter(dest)

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Title
	}
	if err := w.Write(header); err != nil {
		return 0, &RenderError{Format: FormatCSV, Offset: 0, Err: err}
	}

	var n int64
	record := make([]string, len(cols))
	for rows.Next() {
		row := rows.Row()
		for i, c := range cols {
			record[i] = cellText(c.Type, row[c.Key])
		}
		if err := w.Write(record); err != nil {
			return n, &RenderError{Format: FormatCSV, Offset: n, Err: err}
		}
		n++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return n, &RenderError{Format: FormatCSV, Offset: n, Err: err}
	}
	return n, nil
}

// FileExtension returns the file extension for CSV.
func (e *CSVExporter) FileExtension() string {
	return ".csv"
}

// MimeType returns the MIME type for CSV.
func (e *CSVExporter) MimeType() string {
	return "text/csv"
}
