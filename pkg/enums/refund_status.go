package enums

import "fmt"

// RefundStatus mirrors the Mollie refund state machine.
type RefundStatus string

const (
	RefundStatusQueued     RefundStatus = "queued"
	RefundStatusPending    RefundStatus = "pending"
	RefundStatusProcessing RefundStatus = "processing"
	RefundStatusRefunded   RefundStatus = "refunded"
	RefundStatusFailed     RefundStatus = "failed"
	RefundStatusCanceled   RefundStatus = "canceled"
)

var validRefundStatuses = []RefundStatus{
	RefundStatusQueued,
	RefundStatusPending,
	RefundStatusProcessing,
	RefundStatusRefunded,
	RefundStatusFailed,
	RefundStatusCanceled,
}

// String implements fmt.Stringer.
func (r RefundStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r RefundStatus) IsValid() bool {
	for _, candidate := range validRefundStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRefundStatus converts raw input into a RefundStatus.
func ParseRefundStatus(value string) (RefundStatus, error) {
	for _, candidate := range validRefundStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund status %q", value)
}
