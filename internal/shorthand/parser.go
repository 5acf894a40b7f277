// Package shorthand parses the "!MED" prescription shorthand into medication
// records and formats those records back into printable lines.
//
// A shorthand line looks like
//
//	!MED AMITRIPTILINA 25MG NOITE; DIPIRONA 500MG [SE FEBRE] 6/6H
//
// Each semicolon-separated item names a drug, a dosage (number plus unit), an
// optional bracketed comment and the posology. Parse is pure and safe for
// concurrent use.
package shorthand

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Marker is the literal prefix every shorthand line must start with.
const Marker = "!MED "

// Units is the closed dosage-unit vocabulary accepted after the quantity.
var Units = []string{
	"MG", "ML", "G", "MCG", "UI", "MG/ML", "GOTAS", "COMPRIMIDOS", "CÁPSULAS", "CAPSULAS", "%",
}

// Record is one prescribed drug line.
type Record struct {
	Name     string  `json:"nome" example:"AMITRIPTILINA"`
	Dosage   string  `json:"dosagem" example:"25MG"`
	Comment  *string `json:"comentario" example:"APOS O JANTAR"`
	Posology string  `json:"posologia" example:"NOITE"`
}

// Result is the wire form of a parse outcome: either the records or the
// error message, never both.
type Result struct {
	Medications []Record `json:"medicacoes,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// NewResult folds the return values of Parse into a Result.
func NewResult(records []Record, err error) Result {
	if err != nil {
		return Result{Error: err.Error()}
	}
	return Result{Medications: records}
}

var itemPattern = regexp.MustCompile(
	`(?i)^(.*?)\s+(\d+\.?\d*(?:` + unitAlternation() + `))\s*(?:\[(.*?)\])?\s*(.*)$`,
)

// unitAlternation orders units longest first so that MG/ML wins over MG.
func unitAlternation() string {
	units := append([]string(nil), Units...)
	sort.SliceStable(units, func(i, j int) bool {
		return len([]rune(units[i])) > len([]rune(units[j]))
	})
	quoted := make([]string, len(units))
	for i, u := range units {
		quoted[i] = regexp.QuoteMeta(u)
	}
	return strings.Join(quoted, "|")
}

// Parse converts a shorthand line into its ordered medication records. Any
// rejected item fails the whole line; the returned error is a *ParseError.
func Parse(input string) ([]Record, error) {
	if !strings.HasPrefix(input, Marker) {
		return nil, &ParseError{Kind: ErrMissingMarker}
	}

	var items []string
	for _, raw := range strings.Split(strings.TrimSpace(input[len(Marker):]), ";") {
		if item := strings.TrimSpace(raw); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return nil, &ParseError{Kind: ErrEmptyInput}
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		rec, err := parseItem(item)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseItem(item string) (Record, error) {
	m := itemPattern.FindStringSubmatch(item)
	if m == nil {
		return Record{}, &ParseError{Kind: ErrUnparsableItem, Item: item}
	}

	name := strings.TrimSpace(m[1])
	dosage := strings.TrimSpace(m[2])
	posology := strings.TrimSpace(m[4])

	if name == "" {
		return Record{}, &ParseError{Kind: ErrEmptyName, Item: item}
	}
	if strings.IndexFunc(dosage, unicode.IsDigit) < 0 {
		return Record{}, &ParseError{Kind: ErrInvalidDosage, Item: item}
	}
	if posology == "" {
		return Record{}, &ParseError{Kind: ErrEmptyPosology, Item: item}
	}

	rec := Record{
		Name:     upper(name),
		Dosage:   upper(dosage),
		Posology: upper(posology),
	}
	if c := strings.TrimSpace(m[3]); c != "" {
		c = upper(c)
		rec.Comment = &c
	}
	return rec, nil
}

// upper builds a fresh Caser per call; Casers are not safe for concurrent use.
func upper(s string) string {
	return cases.Upper(language.BrazilianPortuguese).String(s)
}

func lower(s string) string {
	return cases.Lower(language.BrazilianPortuguese).String(s)
}
