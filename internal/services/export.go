package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// Exporter renders one study result into a downloadable PDF. The document
// layout is fixed: a title, a timestamp line, then the input and result
// sections as flowing multiline text.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Render(input, output, kindLabel string, ts time.Time) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()

	// Core fonts only cover cp1252; translate what we can and let the rest
	// degrade rather than fail the export.
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 10, tr(fmt.Sprintf("Study Assistant — %s", kindLabel)), "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(110, 110, 110)
	doc.CellFormat(0, 6, ts.Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	doc.Ln(4)

	doc.SetTextColor(0, 0, 0)
	writeSection(doc, tr, "Input", input)
	writeSection(doc, tr, "Result", output)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSection(doc *fpdf.Fpdf, tr func(string) string, heading, body string) {
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 8, heading, "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(0, 5, tr(body), "", "L", false)
	doc.Ln(4)
}
