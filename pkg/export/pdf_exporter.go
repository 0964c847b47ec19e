package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin     = 10.0
	pdfLineHeight = 5.0
	pdfMaxCell    = 120
)

// PDFExporter renders tables as a simple bordered PDF grid. Wide tables switch to
// landscape; long cell text wraps inside the cell.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

func (e *PDFExporter) ContentType() string { return "application/pdf" }

func (e *PDFExporter) Extension() string { return "pdf" }

// Render draws the title, a header row and one row per record.
func (e *PDFExporter) Render(t Table) ([]byte, error) {
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("pdf requires at least one column")
	}
	orientation := "P"
	if len(t.Columns) > 5 {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pdfMargin, 15, pdfMargin)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := pdf.GetPageSize()
	colWidth := (pageWidth - 2*pdfMargin) / float64(len(t.Columns))

	if t.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(t.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range t.Columns {
		pdf.CellFormat(colWidth, 8, tr(clip(col)), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i := range t.Rows {
		cells := make([][][]byte, len(t.Columns))
		lines := 1
		for j := range t.Columns {
			cells[j] = pdf.SplitLines([]byte(tr(clip(t.Cell(i, j)))), colWidth-2)
			if len(cells[j]) > lines {
				lines = len(cells[j])
			}
		}
		height := float64(lines) * pdfLineHeight
		_, pageHeight := pdf.GetPageSize()
		_, _, _, bottom := pdf.GetMargins()
		if pdf.GetY()+height > pageHeight-bottom {
			pdf.AddPage()
		}
		x, y := pdf.GetXY()
		for j := range t.Columns {
			pdf.Rect(x+float64(j)*colWidth, y, colWidth, height, "D")
			for k, line := range cells[j] {
				pdf.SetXY(x+float64(j)*colWidth+1, y+float64(k)*pdfLineHeight)
				pdf.CellFormat(colWidth-2, pdfLineHeight, string(line), "", 0, "L", false, 0, "")
			}
		}
		pdf.SetXY(x, y+height)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func clip(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	if len([]rune(s)) <= pdfMaxCell {
		return s
	}
	return string([]rune(s)[:pdfMaxCell]) + "..."
}
