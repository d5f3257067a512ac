// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"testing"
	"time"
)

func TestPDFExport(t *testing.T) {
	var buf bytes.Buffer
	exp := NewPDFExporter()

	meta := Meta{
		Title:        "Orders",
		GeneratedAt:  time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
		TotalRows:    2,
		QuerySummary: "no filters",
	}

	n, err := exp.Export(reportColumns(), newSliceStream(reportRows(), 2, nil), &buf, meta)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows, got %d", n)
	}

	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("output does not start with a PDF header")
	}
	if buf.Len() < 1000 {
		t.Errorf("document suspiciously small: %d bytes", buf.Len())
	}
}

func TestPDFExportManyRowsPaginates(t *testing.T) {
	var buf bytes.Buffer
	exp := NewPDFExporter()

	rows := testRows(500)
	n, err := exp.Export(testColumns(), newSliceStream(rows, 500, nil), &buf, Meta{
		Title:       "Large",
		GeneratedAt: time.Now(),
		TotalRows:   500,
	})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if n != 500 {
		t.Errorf("expected 500 rows, got %d", n)
	}

	var small bytes.Buffer
	if _, err := exp.Export(testColumns(), newSliceStream(testRows(5), 5, nil), &small, Meta{
		Title:       "Small",
		GeneratedAt: time.Now(),
		TotalRows:   5,
	}); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	// 500 rows do not fit one landscape A4 page, so the document must
	// grow substantially past the single-page export.
	if buf.Len() <= small.Len()*2 {
		t.Errorf("expected paginated document to be larger: %d vs %d bytes", buf.Len(), small.Len())
	}
}
