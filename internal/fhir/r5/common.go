// Package r5 provides the FHIR R5 data structures used to export parsed
// prescriptions.
package r5

import "time"

// Meta contains metadata about a resource.
type Meta struct {
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
	Source      string    `json:"source,omitempty"`
	Profile     []string  `json:"profile,omitempty"`
}

// Identifier represents a FHIR Identifier.
type Identifier struct {
	Use    string           `json:"use,omitempty"` // usual | official | temp | secondary | old
	Type   *CodeableConcept `json:"type,omitempty"`
	System string           `json:"system,omitempty"`
	Value  string           `json:"value,omitempty"`
}

// CodeableConcept represents a concept with text and codings.
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Coding represents a code from a terminology system.
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// Reference represents a reference to another resource.
type Reference struct {
	Reference string `json:"reference,omitempty"`
	Type      string `json:"type,omitempty"`
	Display   string `json:"display,omitempty"`
}

// CodeableReference is new in FHIR R5 - can be either a CodeableConcept or a Reference.
type CodeableReference struct {
	Concept   *CodeableConcept `json:"concept,omitempty"`
	Reference *Reference       `json:"reference,omitempty"`
}

// Quantity represents a measured amount.
type Quantity struct {
	Value  float64 `json:"value,omitempty"`
	Unit   string  `json:"unit,omitempty"`
	System string  `json:"system,omitempty"`
	Code   string  `json:"code,omitempty"`
}

// HumanName represents a human name.
type HumanName struct {
	Use  string `json:"use,omitempty"` // usual | official | temp | nickname | anonymous | old | maiden
	Text string `json:"text,omitempty"`
}

// Address represents a postal address.
type Address struct {
	Use  string `json:"use,omitempty"` // home | work | temp | old | billing
	Text string `json:"text,omitempty"`
}

// ContactPoint represents a contact detail.
type ContactPoint struct {
	System string `json:"system,omitempty"` // phone | fax | email | pager | url | sms | other
	Value  string `json:"value,omitempty"`
	Use    string `json:"use,omitempty"` // home | work | temp | old | mobile
}

// Code systems
const (
	SystemUCUM = "http://unitsofmeasure.org"
	SystemCPF  = "urn:oid:2.16.840.1.113883.13.237"
	SystemCRM  = "urn:prescreveai:crm"
)

// Medication request statuses
const (
	StatusActive = "active"
	StatusDraft  = "draft"
)

// Medication request intents
const (
	IntentOrder    = "order"
	IntentProposal = "proposal"
)

// Bundle types
const (
	BundleTypeCollection = "collection"
)
