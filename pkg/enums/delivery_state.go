package enums

import "fmt"

// DeliveryState is the lifecycle of a warehouse delivery order.
type DeliveryState string

const (
	DeliveryStateDraft     DeliveryState = "draft"
	DeliveryStateWaiting   DeliveryState = "waiting"
	DeliveryStateConfirmed DeliveryState = "confirmed"
	DeliveryStateAssigned  DeliveryState = "assigned"
	DeliveryStateDone      DeliveryState = "done"
	DeliveryStateCancel    DeliveryState = "cancel"
)

var validDeliveryStates = []DeliveryState{
	DeliveryStateDraft,
	DeliveryStateWaiting,
	DeliveryStateConfirmed,
	DeliveryStateAssigned,
	DeliveryStateDone,
	DeliveryStateCancel,
}

// String implements fmt.Stringer.
func (s DeliveryState) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s DeliveryState) IsValid() bool {
	for _, candidate := range validDeliveryStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDeliveryState converts raw input into a DeliveryState.
func ParseDeliveryState(value string) (DeliveryState, error) {
	for _, candidate := range validDeliveryStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery state %q", value)
}
