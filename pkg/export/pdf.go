package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions tunes PDF output.
type PDFOptions struct {
	Landscape   bool
	GeneratedAt time.Time
}

// PDF renders the table on A4 pages with a repeated header row and a
// footer carrying the page number.
func PDF(t Table, opts PDFOptions) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	orientation, usable := "P", 190.0
	if opts.Landscape {
		orientation, usable = "L", 277.0
	}
	doc := gofpdf.New(orientation, "mm", "A4", "")
	doc.SetMargins(10, 15, 10)
	doc.SetAutoPageBreak(true, 15)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	widths := t.widths(usable)

	header := func() {
		doc.SetFont("Arial", "B", 10)
		doc.SetFillColor(230, 236, 245)
		for i, c := range t.Columns {
			doc.CellFormat(widths[i], 8, tr(c.Header), "1", 0, "C", true, 0, "")
		}
		doc.Ln(-1)
		doc.SetFont("Arial", "", 9)
	}
	doc.SetHeaderFunc(func() {
		if doc.PageNo() > 1 {
			header()
		}
	})
	doc.SetFooterFunc(func() {
		doc.SetY(-12)
		doc.SetFont("Arial", "I", 8)
		left := ""
		if !opts.GeneratedAt.IsZero() {
			left = "Dibuat " + opts.GeneratedAt.Format("02 Jan 2006 15:04")
		}
		doc.CellFormat(usable/2, 6, left, "", 0, "L", false, 0, "")
		doc.CellFormat(usable/2, 6, fmt.Sprintf("Halaman %d", doc.PageNo()), "", 0, "R", false, 0, "")
	})

	doc.AddPage()
	if t.Title != "" {
		doc.SetFont("Arial", "B", 14)
		doc.CellFormat(0, 10, tr(t.Title), "", 1, "C", false, 0, "")
		doc.Ln(3)
	}
	header()
	for _, row := range t.Rows {
		for i, cell := range row {
			doc.CellFormat(widths[i], 7, tr(cell), "1", 0, "L", false, 0, "")
		}
		doc.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := doc.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
