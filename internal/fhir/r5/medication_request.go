package r5

import (
	"encoding/json"
	"strings"
	"time"
)

// MedicationRequest represents a FHIR R5 MedicationRequest resource.
// One is produced per parsed medication record.
type MedicationRequest struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id,omitempty"`

	// Status of the prescription
	Status string `json:"status"` // active | on-hold | cancelled | completed | entered-in-error | stopped | draft | unknown

	// Intent of the request
	Intent string `json:"intent"` // proposal | plan | order | original-order | reflex-order | filler-order | instance-order | option

	// Medication being requested (R5 uses CodeableReference)
	Medication CodeableReference `json:"medication"`

	// Subject (patient) for whom the medication is prescribed
	Subject Reference `json:"subject"`

	// When request was initially authored
	AuthoredOn time.Time `json:"authoredOn"`

	// Who/What requested the medication
	Requester *Reference `json:"requester,omitempty"`

	// Rendered dosage instruction (human-readable sig)
	RenderedDosageInstruction string `json:"renderedDosageInstruction,omitempty"`

	// Dosage instructions
	DosageInstruction []Dosage `json:"dosageInstruction,omitempty"`
}

// Dosage contains dosage instructions for the medication.
type Dosage struct {
	Sequence              int               `json:"sequence,omitempty"`
	Text                  string            `json:"text,omitempty"`
	AdditionalInstruction []CodeableConcept `json:"additionalInstruction,omitempty"`
	PatientInstruction    string            `json:"patientInstruction,omitempty"`
	DoseAndRate           []DoseAndRate     `json:"doseAndRate,omitempty"`
}

// DoseAndRate contains dose/rate information.
type DoseAndRate struct {
	DoseQuantity *Quantity `json:"doseQuantity,omitempty"`
}

// GetMedicationDisplay returns the medication name.
func (m *MedicationRequest) GetMedicationDisplay() string {
	if m.Medication.Concept != nil {
		return m.Medication.Concept.Text
	}
	return ""
}

// GetDoseQuantity returns the first dose quantity, if any.
func (m *MedicationRequest) GetDoseQuantity() *Quantity {
	for _, d := range m.DosageInstruction {
		for _, dr := range d.DoseAndRate {
			if dr.DoseQuantity != nil {
				return dr.DoseQuantity
			}
		}
	}
	return nil
}

// GetSigText returns the patient instruction of the first dosage.
func (m *MedicationRequest) GetSigText() string {
	if len(m.DosageInstruction) > 0 {
		return m.DosageInstruction[0].PatientInstruction
	}
	return ""
}

// ToJSON serializes the MedicationRequest to JSON.
func (m *MedicationRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// extractIDFromReference extracts the ID from a reference like "Patient/123"
// or "urn:uuid:123".
func extractIDFromReference(ref string) string {
	if i := strings.LastIndexAny(ref, "/:"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// GetRequesterID returns the ID part of the requester reference.
func (m *MedicationRequest) GetRequesterID() string {
	if m.Requester == nil {
		return ""
	}
	return extractIDFromReference(m.Requester.Reference)
}
