// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jeranaias/tablex/internal/table"
)

// =============================================================================
// XLSX EXPORTER
// =============================================================================

// xlsx sheet layout: report block in rows 1-4, header in headerRow,
// data from headerRow+1 down.
const (
	xlsxSheetName = "Data"
	xlsxHeaderRow = 6
)

// XLSXExporter writes a spreadsheet with a report block (title,
// generation timestamp, totals, query summary), a styled frozen header
// row, and typed data cells. Rows go through the excelize stream writer
// so the workbook never holds the full export in memory.
type XLSXExporter struct{}

// NewXLSXExporter creates a new spreadsheet exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Export writes the stream to dest as an xlsx workbook.
func (e *XLSXExporter) Export(cols []table.Column, rows RowStream, dest io.Writer, meta Meta) (int64, error) {
	f := excelize.NewFile()
	defer f.Close()

	wrap := func(offset int64, err error) (int64, error) {
		return offset, &RenderError{Format: FormatXLSX, Offset: offset, Err: err}
	}

	if err := f.SetSheetName("Sheet1", xlsxSheetName); err != nil {
		return wrap(0, err)
	}
	sw, err := f.NewStreamWriter(xlsxSheetName)
	if err != nil {
		return wrap(0, err)
	}

	styles, err := newXLSXStyles(f)
	if err != nil {
		return wrap(0, err)
	}

	// Column widths and frozen panes must be configured before the
	// first row is streamed.
	for i, c := range cols {
		w := float64(len(c.Title)) + 2
		if w < 10 {
			w = 10
		}
		if w > 60 {
			w = 60
		}
		if err := sw.SetColWidth(i+1, i+1, w); err != nil {
			return wrap(0, err)
		}
	}
	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      xlsxHeaderRow,
		TopLeftCell: fmt.Sprintf("A%d", xlsxHeaderRow+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return wrap(0, err)
	}

	if err := e.writeReportBlock(sw, styles, meta); err != nil {
		return wrap(0, err)
	}
	if err := e.writeHeader(sw, styles, cols); err != nil {
		return wrap(0, err)
	}

	var n int64
	for rows.Next() {
		row := rows.Row()
		cells := make([]interface{}, len(cols))
		for i, c := range cols {
			cells[i] = xlsxCell(styles, c.Type, row[c.Key])
		}
		cellRef, err := excelize.CoordinatesToCellName(1, xlsxHeaderRow+1+int(n))
		if err != nil {
			return wrap(n, err)
		}
		if err := sw.SetRow(cellRef, cells); err != nil {
			return wrap(n, err)
		}
		n++
	}

	if err := sw.Flush(); err != nil {
		return wrap(n, err)
	}
	if err := f.Write(dest); err != nil {
		return wrap(n, err)
	}
	return n, nil
}

// writeReportBlock writes the title and metadata lines above the table.
func (e *XLSXExporter) writeReportBlock(sw *excelize.StreamWriter, styles *xlsxStyles, meta Meta) error {
	if err := sw.SetRow("A1", []interface{}{
		excelize.Cell{StyleID: styles.title, Value: meta.Title},
	}); err != nil {
		return err
	}
	if err := sw.SetRow("A2", []interface{}{
		"Generated at: " + meta.GeneratedAt.Format(time.RFC3339),
	}); err != nil {
		return err
	}
	if meta.TotalRows >= 0 {
		if err := sw.SetRow("A3", []interface{}{
			fmt.Sprintf("Total items: %d", meta.TotalRows),
		}); err != nil {
			return err
		}
	}
	if meta.QuerySummary != "" {
		if err := sw.SetRow("A4", []interface{}{
			"Query: " + meta.QuerySummary,
		}); err != nil {
			return err
		}
	}
	return nil
}

// writeHeader writes the styled column title row.
func (e *XLSXExporter) writeHeader(sw *excelize.StreamWriter, styles *xlsxStyles, cols []table.Column) error {
	cells := make([]interface{}, len(cols))
	for i, c := range cols {
		cells[i] = excelize.Cell{StyleID: styles.header, Value: c.Title}
	}
	cellRef, err := excelize.CoordinatesToCellName(1, xlsxHeaderRow)
	if err != nil {
		return err
	}
	return sw.SetRow(cellRef, cells)
}

// =============================================================================
// STYLES AND CELLS
// =============================================================================

// xlsxStyles holds the style IDs the exporter registers once per run.
type xlsxStyles struct {
	title    int
	header   int
	currency int
	date     int
}

func newXLSXStyles(f *excelize.File) (*xlsxStyles, error) {
	title, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
	})
	if err != nil {
		return nil, err
	}
	// Built-in number formats: 4 = "#,##0.00", 14 = short date.
	currency, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}
	date, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		return nil, err
	}
	return &xlsxStyles{title: title, header: header, currency: currency, date: date}, nil
}

// xlsxCell maps a row value to a typed spreadsheet cell. Numeric and
// date values stay native so the spreadsheet can sort and aggregate;
// everything else is rendered as display text.
func xlsxCell(styles *xlsxStyles, typ table.ColumnType, v any) interface{} {
	if v == nil {
		return excelize.Cell{Value: ""}
	}

	switch typ {
	case table.TypeCurrency:
		if f, ok := cellFloat(v); ok {
			return excelize.Cell{StyleID: styles.currency, Value: f}
		}
	case table.TypeNumber:
		if f, ok := cellFloat(v); ok {
			return excelize.Cell{Value: f}
		}
	case table.TypeDate:
		if t, ok := v.(time.Time); ok {
			return excelize.Cell{StyleID: styles.date, Value: t}
		}
	case table.TypeBool:
		if b, ok := v.(bool); ok {
			return excelize.Cell{Value: b}
		}
	}

	return excelize.Cell{Value: cellText(typ, v)}
}

// FileExtension returns the file extension for xlsx.
func (e *XLSXExporter) FileExtension() string {
	return ".xlsx"
}

// MimeType returns the MIME type for xlsx.
func (e *XLSXExporter) MimeType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
