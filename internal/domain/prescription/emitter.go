// Package prescription holds the prescriber identity and the domain events
// emitted when a prescription document is issued.
package prescription

import (
	"errors"
	"strings"
)

// Emitter identifies the prescribing professional printed on a document. It
// is supplied with every rendering request and never retained between them.
type Emitter struct {
	Name      string `json:"nome" toml:"nome" example:"Dra. Maria Souza"`
	CRM       string `json:"crm" toml:"crm" example:"52-123456"`
	Address   string `json:"endereco" toml:"endereco" example:"Rua das Flores, 100"`
	Phone     string `json:"telefone" toml:"telefone" example:"(21) 99999-0000"`
	CityState string `json:"cidade_uf" toml:"cidade_uf" example:"Rio de Janeiro/RJ"`
}

// ErrEmitterIncomplete is returned by Validate when name or CRM is missing.
var ErrEmitterIncomplete = errors.New("emitter name and crm are required")

// Validate checks the fields every layout depends on.
func (e Emitter) Validate() error {
	if strings.TrimSpace(e.Name) == "" || strings.TrimSpace(e.CRM) == "" {
		return ErrEmitterIncomplete
	}
	return nil
}

// IsZero reports whether no field is set.
func (e Emitter) IsZero() bool {
	return e == Emitter{}
}

// Patient is the optional patient block of a document.
type Patient struct {
	Name     string `json:"nome" example:"JOSE DA SILVA"`
	Document string `json:"cpf,omitempty" example:"000.000.000-00"`
	Address  string `json:"endereco,omitempty"`
}
