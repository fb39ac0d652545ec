package enums

import "fmt"

// PaymentType records how the user paid for an order.
type PaymentType string

const (
	PaymentTypeOnline PaymentType = "ONLINE"
	PaymentTypeCOD    PaymentType = "COD"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeOnline,
	PaymentTypeCOD,
}

// String implements fmt.Stringer.
func (p PaymentType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentType.
func (p PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}
