package render

import (
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/andremillet/prescreveai/internal/shorthand"
)

func buildSimple(doc Document) *fpdf.Fpdf {
	c := newCanvas("Prescrição Médica Simples", doc.IssuedAt)

	c.font("B", 16)
	c.text(inch, c.height-inch, "Prescrição Médica Simples")

	y := c.height - 1.5*inch
	c.font("", 12)
	c.text(inch, y, "Dr(a). "+doc.Emitter.Name)
	c.text(inch, y-20, "CRM: "+doc.Emitter.CRM)
	c.text(inch, y-40, "Data: "+formatDate(doc.IssuedAt))
	if doc.Patient != nil && doc.Patient.Name != "" {
		c.text(inch, y-60, "Paciente: "+doc.Patient.Name)
	}

	c.font("B", 14)
	c.text(inch, y-80, "Medicações:")

	c.font("", 12)
	y -= 100
	for i, med := range doc.Medications {
		c.text(inch, y, fmt.Sprintf("%d. %s", i+1, shorthand.Format(med)))
		y -= 20
		if y < inch {
			c.newPage()
			c.font("", 12)
			y = c.height - inch
		}
	}

	return c.pdf
}
