package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a tabular PDF. Pages are landscape so a
// full timetable row (day, times, course and the three resources) fits on one
// line.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

const (
	pdfTableWidth = 277.0 // A4 landscape minus margins
	pdfRowHeight  = 7.0
	pdfBreakAt    = 185.0
)

// Render creates a PDF document with an optional title and table body. Column
// widths follow the dataset's relative weights and the header row repeats on
// every page.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}

	widths := columnWidths(data)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	writeHeader := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], 8, header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	writeHeader()

	fill := false
	pdf.SetFillColor(245, 245, 245)
	for _, row := range data.Rows {
		if pdf.GetY() > pdfBreakAt {
			pdf.AddPage()
			writeHeader()
			pdf.SetFillColor(245, 245, 245)
		}
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], pdfRowHeight, row[header], "1", 0, "", fill, 0, "")
		}
		pdf.Ln(-1)
		fill = !fill
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(data Dataset) []float64 {
	weights := make([]float64, len(data.Headers))
	var total float64
	for i, header := range data.Headers {
		w := data.Widths[header]
		if w <= 0 {
			w = 1
		}
		weights[i] = w
		total += w
	}
	widths := make([]float64, len(weights))
	for i, w := range weights {
		widths[i] = pdfTableWidth * w / total
	}
	return widths
}
