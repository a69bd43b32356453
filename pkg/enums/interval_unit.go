package enums

import "fmt"

// IntervalUnit is the time unit of a billing interval.
type IntervalUnit string

const (
	IntervalUnitDays   IntervalUnit = "days"
	IntervalUnitWeeks  IntervalUnit = "weeks"
	IntervalUnitMonths IntervalUnit = "months"
)

var validIntervalUnits = []IntervalUnit{
	IntervalUnitDays,
	IntervalUnitWeeks,
	IntervalUnitMonths,
}

// String implements fmt.Stringer.
func (u IntervalUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is known.
func (u IntervalUnit) IsValid() bool {
	for _, candidate := range validIntervalUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseIntervalUnit converts raw input into an IntervalUnit.
// Singular forms are accepted since provider payloads use both.
func ParseIntervalUnit(value string) (IntervalUnit, error) {
	for _, candidate := range validIntervalUnits {
		if string(candidate) == value || string(candidate) == value+"s" {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid interval unit %q", value)
}
