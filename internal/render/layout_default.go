package render

import (
	"github.com/go-pdf/fpdf"

	"github.com/andremillet/prescreveai/internal/shorthand"
)

const (
	marginLeft   = inch
	marginTop    = 792 - inch
	marginBottom = inch
	boxWidth     = 3.5 * inch
	boxHeight    = 1.2 * inch
	boxGap       = 0.2 * inch
	lineHeight   = 15.0
	// Medications below this line continue on a new page.
	minMedicationY = marginBottom + 1.5*inch
)

func buildDefault(doc Document) *fpdf.Fpdf {
	c := newCanvas("Receituário de Controle Especial", doc.IssuedAt)
	right := c.width - inch
	sideX := marginLeft + boxWidth + boxGap
	sideWidth := right - sideX

	// Header
	if doc.Clinic != "" {
		c.font("B", 14)
		c.text(marginLeft, marginTop, doc.Clinic)
	}
	c.font("B", 12)
	c.text(marginLeft+1.5*inch, marginTop-lineHeight, doc.Emitter.Name)
	c.font("", 10)
	c.text(marginLeft+1.5*inch, marginTop-2*lineHeight, "CRM "+doc.Emitter.CRM)

	// Emitter identification
	emitterY := marginTop - 0.7*inch - 70
	y := c.box(marginLeft, emitterY, boxWidth, boxHeight, "IDENTIFICAÇÃO DO EMITENTE")
	c.font("", 8)
	for _, row := range []string{
		"Nome: " + doc.Emitter.Name,
		"CRM: " + doc.Emitter.CRM,
		"Endereço: " + doc.Emitter.Address,
		"Telefone: " + doc.Emitter.Phone,
		"Cidade e UF: " + doc.Emitter.CityState,
	} {
		c.text(marginLeft+5, y, row)
		y -= 10
	}

	// Prescription form header
	c.rect(sideX, emitterY, sideWidth, boxHeight)
	c.font("B", 10)
	c.centered(sideX+sideWidth/2, emitterY+boxHeight-20, "RECEITUÁRIO DE CONTROLE ESPECIAL")
	c.font("", 9)
	c.text(sideX+10, emitterY+boxHeight-45, "DATA: "+formatDate(doc.IssuedAt))
	c.text(sideX+10, emitterY+boxHeight-60, "1a. via farmácia")
	c.text(sideX+10, emitterY+boxHeight-75, "2a. via paciente")

	// Patient
	patientY := emitterY - boxGap - 30
	c.font("B", 10)
	c.text(marginLeft, patientY, "PACIENTE")
	if p := doc.Patient; p != nil {
		c.font("", 9)
		c.text(marginLeft+70, patientY, p.Name)
		if p.Document != "" {
			c.text(marginLeft+70, patientY-12, "CPF: "+p.Document)
		}
		if p.Address != "" {
			c.text(marginLeft+250, patientY-12, "Endereço: "+p.Address)
		}
	}
	c.line(marginLeft, patientY-25, right, patientY-25)

	// Medications
	y = patientY - 0.5*inch - 20
	c.font("", 10)
	for _, med := range doc.Medications {
		if y < minMedicationY {
			c.newPage()
			c.font("", 10)
			y = marginTop - 0.5*inch
		}
		c.text(marginLeft, y, shorthand.Format(med))
		y -= lineHeight
	}

	// Signature
	sigY := y - 0.5*inch
	c.line(c.width/2-inch, sigY, c.width/2+inch, sigY)
	c.font("", 8)
	c.centered(c.width/2, sigY-10, "ASSINATURA")

	// Buyer and supplier
	lowerY := marginBottom + 0.5*inch
	y = c.box(marginLeft, lowerY, boxWidth, boxHeight, "IDENTIFICAÇÃO DO COMPRADOR")
	c.font("", 8)
	for _, row := range []string{"Nome:", "Ident.:", "Órg. Emissor:", "End.:", "Cidade e UF:", "Telefone:"} {
		c.text(marginLeft+5, y, row)
		y -= 10
	}

	y = c.box(sideX, lowerY, sideWidth, boxHeight, "IDENTIFICAÇÃO DO FORNECEDOR")
	c.font("", 8)
	c.text(sideX+5, y, "Data:")
	c.line(sideX+5, y-20, sideX+sideWidth-5, y-20)
	c.text(sideX+5, y-30, "Assinatura do Farmacêutico")

	// Footer
	c.font("", 7)
	c.centered(c.width/2, marginBottom-0.2*inch, doc.Emitter.Address)
	c.centered(c.width/2, marginBottom-0.35*inch, doc.Emitter.CityState)

	return c.pdf
}
