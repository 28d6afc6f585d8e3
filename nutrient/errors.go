package nutrient

import "fmt"

// InvalidInputError reports a caller-supplied value outside its domain.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func invalid(field, value string) *InvalidInputError {
	return &InvalidInputError{Field: field, Value: value}
}

// UnsupportedLevelError means the quantity table has no range for a
// (crop, nutrient, level) triple. The engine never emits such a level, so
// this is an internal defect rather than bad input.
type UnsupportedLevelError struct {
	Crop     Crop
	Nutrient Nutrient
	Level    Level
}

func (e *UnsupportedLevelError) Error() string {
	return fmt.Sprintf("no quantity range for %s %s at level %s", e.Crop, e.Nutrient, e.Level)
}
