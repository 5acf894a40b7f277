package render

import (
	"time"

	"github.com/go-pdf/fpdf"
)

const inch = 72.0

// canvas draws with the origin at the bottom-left corner of the page, which
// keeps the layout code in page geometry terms.
type canvas struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	width  float64
	height float64
}

func newCanvas(title string, issuedAt time.Time) *canvas {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("prescreveai", false)
	pdf.SetCreationDate(issuedAt)
	pdf.AddPage()

	w, h := pdf.GetPageSize()
	return &canvas{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		width:  w,
		height: h,
	}
}

func (c *canvas) font(style string, size float64) {
	c.pdf.SetFont("Helvetica", style, size)
}

func (c *canvas) text(x, y float64, s string) {
	c.pdf.Text(x, c.height-y, c.tr(s))
}

func (c *canvas) centered(x, y float64, s string) {
	s = c.tr(s)
	c.pdf.Text(x-c.pdf.GetStringWidth(s)/2, c.height-y, s)
}

func (c *canvas) rect(x, y, w, h float64) {
	c.pdf.Rect(x, c.height-y-h, w, h, "D")
}

func (c *canvas) line(x1, y1, x2, y2 float64) {
	c.pdf.Line(x1, c.height-y1, x2, c.height-y2)
}

func (c *canvas) newPage() {
	c.pdf.AddPage()
}

// box draws a titled rectangle and returns the baseline of its first row.
func (c *canvas) box(x, y, w, h float64, title string) float64 {
	c.rect(x, y, w, h)
	c.font("B", 9)
	c.text(x+5, y+h-15, title)
	c.line(x, y+h-20, x+w, y+h-20)
	return y + h - 35
}
