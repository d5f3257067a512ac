// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/jeranaias/tablex/internal/table"
)

// =============================================================================
// PDF EXPORTER
// =============================================================================

// PDF page geometry (mm, A4 landscape).
const (
	pdfMargin    = 10.0
	pdfRowH      = 6.0
	pdfHeaderH   = 7.0
	pdfFooterPad = 14.0
)

// PDFExporter writes a paginated landscape document: a report block
// followed by a grid table whose header row repeats on every page.
// Pages are emitted as rows stream in, so the document builds
// incrementally.
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Export writes the stream to dest as a PDF document.
func (e *PDFExporter) Export(cols []table.Column, rows RowStream, dest io.Writer, meta Meta) (int64, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Core fonts are latin-1; translate row text accordingly.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	e.writeReportBlock(pdf, tr, meta)

	pageW, pageH := pdf.GetPageSize()
	colW := (pageW - 2*pdfMargin) / float64(len(cols))
	breakY := pageH - pdfFooterPad

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(221, 221, 221)
		for _, c := range cols {
			pdf.CellFormat(colW, pdfHeaderH, fitText(pdf, tr(c.Title), colW), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(pdfHeaderH)
	}
	drawHeader()

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetFillColor(245, 245, 245)

	var n int64
	for rows.Next() {
		if pdf.GetY()+pdfRowH > breakY {
			pdf.AddPage()
			drawHeader()
			pdf.SetFont("Helvetica", "", 8)
			pdf.SetFillColor(245, 245, 245)
		}

		row := rows.Row()
		fill := n%2 == 1
		for _, c := range cols {
			text := fitText(pdf, tr(cellText(c.Type, row[c.Key])), colW)
			pdf.CellFormat(colW, pdfRowH, text, "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(pdfRowH)

		if pdf.Err() {
			return n, &RenderError{Format: FormatPDF, Offset: n, Err: pdf.Error()}
		}
		n++
	}

	if err := pdf.Output(dest); err != nil {
		return n, &RenderError{Format: FormatPDF, Offset: n, Err: err}
	}
	return n, nil
}

// writeReportBlock writes the title and metadata lines above the table.
func (e *PDFExporter) writeReportBlock(pdf *fpdf.Fpdf, tr func(string) string, meta Meta) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr(meta.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, "Generated at: "+meta.GeneratedAt.Format(time.RFC3339), "", 1, "L", false, 0, "")
	if meta.TotalRows >= 0 {
		pdf.CellFormat(0, 5, printer.Sprintf("Total items: %d", meta.TotalRows), "", 1, "L", false, 0, "")
	}
	if meta.QuerySummary != "" {
		pdf.CellFormat(0, 5, tr("Query: "+meta.QuerySummary), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

// fitText truncates a string with an ellipsis so it fits one cell.
func fitText(pdf *fpdf.Fpdf, s string, cellW float64) string {
	const pad = 2.0
	max := cellW - pad
	if pdf.GetStringWidth(s) <= max {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if pdf.GetStringWidth(candidate) <= max {
			return candidate
		}
	}
	return ""
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return ".pdf"
}

// MimeType returns the MIME type for PDF.
func (e *PDFExporter) MimeType() string {
	return "application/pdf"
}
