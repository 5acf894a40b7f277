package r5

import "time"

// Patient represents a FHIR R5 Patient resource.
type Patient struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id,omitempty"`
	Identifier   []Identifier `json:"identifier,omitempty"`
	Name         []HumanName  `json:"name,omitempty"`
	Address      []Address    `json:"address,omitempty"`
}

// Practitioner represents a FHIR R5 Practitioner resource.
type Practitioner struct {
	ResourceType string         `json:"resourceType"`
	ID           string         `json:"id,omitempty"`
	Identifier   []Identifier   `json:"identifier,omitempty"`
	Active       bool           `json:"active,omitempty"`
	Name         []HumanName    `json:"name,omitempty"`
	Telecom      []ContactPoint `json:"telecom,omitempty"`
	Address      []Address      `json:"address,omitempty"`
}

// GetCRM returns the practitioner's CRM license number.
func (p *Practitioner) GetCRM() string {
	for _, id := range p.Identifier {
		if id.System == SystemCRM {
			return id.Value
		}
	}
	return ""
}

// Bundle is a FHIR R5 Bundle resource.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Meta         *Meta         `json:"meta,omitempty"`
	Type         string        `json:"type"`
	Timestamp    time.Time     `json:"timestamp,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

// BundleEntry holds one resource of a Bundle.
type BundleEntry struct {
	FullURL  string `json:"fullUrl,omitempty"`
	Resource any    `json:"resource"`
}

// MedicationRequests returns the MedicationRequest entries in order.
func (b *Bundle) MedicationRequests() []*MedicationRequest {
	var out []*MedicationRequest
	for _, e := range b.Entry {
		if mr, ok := e.Resource.(*MedicationRequest); ok {
			out = append(out, mr)
		}
	}
	return out
}
