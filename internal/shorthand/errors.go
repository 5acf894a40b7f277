package shorthand

import (
	"errors"
	"fmt"
)

// Sentinel errors for every way a shorthand line can be rejected.
var (
	ErrMissingMarker  = errors.New("missing marker")
	ErrEmptyInput     = errors.New("empty input")
	ErrUnparsableItem = errors.New("unparsable item")
	ErrEmptyName      = errors.New("empty name")
	ErrInvalidDosage  = errors.New("invalid dosage")
	ErrEmptyPosology  = errors.New("empty posology")
)

// ParseError is returned by Parse for every rejected line. Kind is one of the
// sentinel errors above; Item holds the raw offending item when one applies.
type ParseError struct {
	Kind error
	Item string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrMissingMarker:
		return fmt.Sprintf("Input must start with '%s'", Marker)
	case ErrEmptyInput:
		return "No valid medications found in input."
	case ErrUnparsableItem:
		return "Could not parse medication item: " + e.Item
	case ErrEmptyName:
		return "Medication name cannot be empty in: " + e.Item
	case ErrInvalidDosage:
		return "Dosage must contain at least one number in: " + e.Item
	case ErrEmptyPosology:
		return "Posology cannot be empty in: " + e.Item
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Item)
}

// Unwrap lets errors.Is match the sentinel kind.
func (e *ParseError) Unwrap() error { return e.Kind }

// KindOf returns a stable snake_case label for err, suitable for metric
// labels and log fields. Errors that did not come from Parse yield "unknown".
func KindOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingMarker):
		return "missing_marker"
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrUnparsableItem):
		return "unparsable_item"
	case errors.Is(err, ErrEmptyName):
		return "empty_name"
	case errors.Is(err, ErrInvalidDosage):
		return "invalid_dosage"
	case errors.Is(err, ErrEmptyPosology):
		return "empty_posology"
	default:
		return "unknown"
	}
}
