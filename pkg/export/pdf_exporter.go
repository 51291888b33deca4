package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin      = 10.0
	pdfLabelWidth  = 24.0
	pdfHeaderShade = 220
)

// PDFExporter lays datasets out as a bordered table on a landscape A4 page.
// Label columns get a fixed narrow width and content columns share the rest.
type PDFExporter struct{}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

func (e *PDFExporter) ContentType() string { return "application/pdf" }

func (e *PDFExporter) Extension() string { return "pdf" }

// Render draws the title block, a shaded header row and one line per row.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()

	pageWidth, _ := pdf.GetPageSize()
	widths := columnWidths(pageWidth-2*pdfMargin, len(data.Headers), data.LabelColumns)

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 9, data.Title, "", 1, "L", false, 0, "")
	}
	if data.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, data.Subtitle, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	drawHeader := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(pdfHeaderShade, pdfHeaderShade, pdfHeaderShade)
		for col, header := range data.Headers {
			pdf.CellFormat(widths[col], 8, header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			drawHeader()
		}
	})
	drawHeader()

	for _, row := range data.Rows {
		for col := range data.Headers {
			align := "C"
			if col >= data.LabelColumns {
				align = "L"
			}
			pdf.CellFormat(widths[col], 9, data.cell(row, col), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(usable float64, columns, labels int) []float64 {
	if labels < 0 || labels >= columns {
		labels = 0
	}
	widths := make([]float64, columns)
	rest := usable - float64(labels)*pdfLabelWidth
	for col := range widths {
		if col < labels {
			widths[col] = pdfLabelWidth
			continue
		}
		widths[col] = rest / float64(columns-labels)
	}
	return widths
}
