package r5

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andremillet/prescreveai/internal/domain/prescription"
	"github.com/andremillet/prescreveai/internal/shorthand"
)

// ucumCodes maps shorthand units to UCUM. Units without a UCUM equivalent
// keep only their display unit.
var ucumCodes = map[string]string{
	"MG":    "mg",
	"ML":    "mL",
	"G":     "g",
	"MCG":   "ug",
	"UI":    "[iU]",
	"MG/ML": "mg/mL",
	"%":     "%",
}

// BundleOptions carries the optional context of an export.
type BundleOptions struct {
	Emitter  *prescription.Emitter
	Patient  *prescription.Patient
	IssuedAt time.Time
}

// NewBundle maps parsed records to a collection Bundle holding one
// MedicationRequest per record, in input order, preceded by the
// Practitioner and Patient when given.
func NewBundle(records []shorthand.Record, opts BundleOptions) *Bundle {
	if opts.IssuedAt.IsZero() {
		opts.IssuedAt = time.Now().UTC()
	}

	b := &Bundle{
		ResourceType: "Bundle",
		ID:           uuid.NewString(),
		Type:         BundleTypeCollection,
		Timestamp:    opts.IssuedAt,
	}

	var requester *Reference
	if e := opts.Emitter; e != nil && !e.IsZero() {
		p := practitionerFrom(*e)
		url := "urn:uuid:" + p.ID
		b.Entry = append(b.Entry, BundleEntry{FullURL: url, Resource: p})
		requester = &Reference{Reference: url, Type: "Practitioner", Display: e.Name}
	}

	subject := Reference{Display: "Paciente não identificado"}
	if pt := opts.Patient; pt != nil && pt.Name != "" {
		p := patientFrom(*pt)
		url := "urn:uuid:" + p.ID
		b.Entry = append(b.Entry, BundleEntry{FullURL: url, Resource: p})
		subject = Reference{Reference: url, Type: "Patient", Display: pt.Name}
	}

	for i, rec := range records {
		mr := medicationRequestFrom(rec, i+1, subject, requester, opts.IssuedAt)
		b.Entry = append(b.Entry, BundleEntry{FullURL: "urn:uuid:" + mr.ID, Resource: mr})
	}
	return b
}

func medicationRequestFrom(rec shorthand.Record, seq int, subject Reference, requester *Reference, at time.Time) *MedicationRequest {
	line := shorthand.Format(rec)
	dosage := Dosage{
		Sequence:           seq,
		Text:               line,
		PatientInstruction: rec.Posology,
	}
	if q := doseQuantity(rec.Dosage); q != nil {
		dosage.DoseAndRate = []DoseAndRate{{DoseQuantity: q}}
	}
	if rec.Comment != nil && *rec.Comment != "" {
		dosage.AdditionalInstruction = []CodeableConcept{{Text: *rec.Comment}}
	}

	return &MedicationRequest{
		ResourceType:              "MedicationRequest",
		ID:                        uuid.NewString(),
		Status:                    StatusActive,
		Intent:                    IntentOrder,
		Medication:                CodeableReference{Concept: &CodeableConcept{Text: rec.Name}},
		Subject:                   subject,
		AuthoredOn:                at,
		Requester:                 requester,
		RenderedDosageInstruction: line,
		DosageInstruction:         []Dosage{dosage},
	}
}

// doseQuantity splits a dosage such as "0.5MG" into value and unit.
func doseQuantity(dosage string) *Quantity {
	i := strings.IndexFunc(dosage, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if i <= 0 {
		return nil
	}
	value, err := strconv.ParseFloat(dosage[:i], 64)
	if err != nil {
		return nil
	}
	unit := dosage[i:]
	q := &Quantity{Value: value, Unit: unit}
	if code, ok := ucumCodes[unit]; ok {
		q.System = SystemUCUM
		q.Code = code
	}
	return q
}

func practitionerFrom(e prescription.Emitter) *Practitioner {
	p := &Practitioner{
		ResourceType: "Practitioner",
		ID:           uuid.NewString(),
		Active:       true,
		Identifier:   []Identifier{{Use: "official", System: SystemCRM, Value: e.CRM}},
		Name:         []HumanName{{Use: "official", Text: e.Name}},
	}
	if e.Phone != "" {
		p.Telecom = []ContactPoint{{System: "phone", Value: e.Phone, Use: "work"}}
	}
	if addr := joinNonEmpty(", ", e.Address, e.CityState); addr != "" {
		p.Address = []Address{{Use: "work", Text: addr}}
	}
	return p
}

func patientFrom(pt prescription.Patient) *Patient {
	p := &Patient{
		ResourceType: "Patient",
		ID:           uuid.NewString(),
		Name:         []HumanName{{Use: "official", Text: pt.Name}},
	}
	if pt.Document != "" {
		p.Identifier = []Identifier{{Use: "official", System: SystemCPF, Value: pt.Document}}
	}
	if pt.Address != "" {
		p.Address = []Address{{Use: "home", Text: pt.Address}}
	}
	return p
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
