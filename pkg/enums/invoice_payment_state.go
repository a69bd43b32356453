package enums

import "fmt"

// InvoicePaymentState tracks how much of an invoice has been settled.
type InvoicePaymentState string

const (
	InvoicePaymentStateNotPaid   InvoicePaymentState = "not_paid"
	InvoicePaymentStateInPayment InvoicePaymentState = "in_payment"
	InvoicePaymentStatePartial   InvoicePaymentState = "partial"
	InvoicePaymentStatePaid      InvoicePaymentState = "paid"
	InvoicePaymentStateReversed  InvoicePaymentState = "reversed"
)

var validInvoicePaymentStates = []InvoicePaymentState{
	InvoicePaymentStateNotPaid,
	InvoicePaymentStateInPayment,
	InvoicePaymentStatePartial,
	InvoicePaymentStatePaid,
	InvoicePaymentStateReversed,
}

// String implements fmt.Stringer.
func (s InvoicePaymentState) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s InvoicePaymentState) IsValid() bool {
	for _, candidate := range validInvoicePaymentStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInvoicePaymentState converts raw input into an InvoicePaymentState.
func ParseInvoicePaymentState(value string) (InvoicePaymentState, error) {
	for _, candidate := range validInvoicePaymentStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice payment state %q", value)
}
