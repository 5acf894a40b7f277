// Package render draws parsed prescriptions onto fixed-layout PDF pages.
package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/andremillet/prescreveai/internal/domain/prescription"
	"github.com/andremillet/prescreveai/internal/shorthand"
)

// Template selects a page layout.
type Template string

const (
	// TemplateDefault is the controlled-prescription form with emitter,
	// buyer and supplier boxes.
	TemplateDefault Template = "memed"
	// TemplateSimple is a plain numbered list.
	TemplateSimple Template = "simple"
)

// ErrUnknownTemplate is returned for template identifiers other than the
// ones above.
var ErrUnknownTemplate = errors.New("unknown template")

// ParseTemplate resolves a template identifier. The empty string selects
// TemplateDefault.
func ParseTemplate(s string) (Template, error) {
	switch t := Template(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TemplateDefault, nil
	case TemplateDefault, TemplateSimple:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, s)
	}
}

// Filename is the conventional output name for a template.
func (t Template) Filename() string {
	return "prescricao_" + string(t) + ".pdf"
}

// Document is everything a layout draws. It is built per request.
type Document struct {
	Medications []shorthand.Record
	Emitter     prescription.Emitter
	Patient     *prescription.Patient
	Clinic      string
	IssuedAt    time.Time
}

// Renderer writes a document using the given template.
type Renderer interface {
	Render(w io.Writer, t Template, doc Document) error
}

// PDFRenderer renders documents as PDF.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDF renderer
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render draws doc with layout t and writes the PDF to w.
func (r *PDFRenderer) Render(w io.Writer, t Template, doc Document) error {
	pdf, err := build(t, doc)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// RenderFile renders doc into a new file at path.
func RenderFile(r Renderer, path string, t Template, doc Document) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return r.Render(f, t, doc)
}

func build(t Template, doc Document) (*fpdf.Fpdf, error) {
	if doc.IssuedAt.IsZero() {
		doc.IssuedAt = time.Now()
	}
	switch t {
	case TemplateDefault:
		return buildDefault(doc), nil
	case TemplateSimple:
		return buildSimple(doc), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, t)
	}
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
