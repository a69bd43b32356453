package enums

import "fmt"

// SequenceType tells Mollie how a payment relates to a mandate.
type SequenceType string

const (
	SequenceTypeOneoff    SequenceType = "oneoff"
	SequenceTypeFirst     SequenceType = "first"
	SequenceTypeRecurring SequenceType = "recurring"
)

var validSequenceTypes = []SequenceType{
	SequenceTypeOneoff,
	SequenceTypeFirst,
	SequenceTypeRecurring,
}

// String implements fmt.Stringer.
func (s SequenceType) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SequenceType) IsValid() bool {
	for _, candidate := range validSequenceTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSequenceType converts raw input into a SequenceType.
func ParseSequenceType(value string) (SequenceType, error) {
	for _, candidate := range validSequenceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sequence type %q", value)
}
