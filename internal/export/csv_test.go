// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/tablex/internal/table"
)

func reportColumns() []table.Column {
	return []table.Column{
		{Key: "name", Title: "Name", Type: table.TypeText},
		{Key: "amount", Title: "Amount", Type: table.TypeCurrency},
		{Key: "active", Title: "Active", Type: table.TypeBool},
		{Key: "created", Title: "Created", Type: table.TypeDate},
	}
}

func reportRows() []table.Row {
	return []table.Row{
		{
			"name":    "Acme, Inc.",
			"amount":  1234.5,
			"active":  true,
			"created": time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			"name":    "Globex",
			"amount":  nil,
			"active":  false,
			"created": time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestCSVExport(t *testing.T) {
	var buf bytes.Buffer
	exp := NewCSVExporter()

	rows := newSliceStream(reportRows(), 2, nil)
	n, err := exp.Export(reportColumns(), rows, &buf, Meta{Title: "Orders"})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows, got %d", n)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "Name,Amount,Active,Created" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[1] != `"Acme, Inc.","1,234.50",Yes,2025-03-14` {
		t.Errorf("unexpected row: %q", lines[1])
	}
	if lines[2] != "Globex,,No,2025-06-02" {
		t.Errorf("unexpected row: %q", lines[2])
	}
}

func TestCSVExportEmptyStream(t *testing.T) {
	var buf bytes.Buffer
	exp := NewCSVExporter()

	n, err := exp.Export(reportColumns(), newSliceStream(nil, 0, nil), &buf, Meta{})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 rows, got %d", n)
	}
	if got := strings.TrimRight(buf.String(), "\n"); got != "Name,Amount,Active,Created" {
		t.Errorf("expected headers-only document, got %q", got)
	}
}
