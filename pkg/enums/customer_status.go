package enums

import "fmt"

// CustomerStatus tracks whether a USD customer is active.
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive"
)

var validCustomerStatuses = []CustomerStatus{
	CustomerStatusActive,
	CustomerStatusInactive,
}

// String implements fmt.Stringer.
func (c CustomerStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CustomerStatus.
func (c CustomerStatus) IsValid() bool {
	for _, candidate := range validCustomerStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCustomerStatus converts raw input into a CustomerStatus.
func ParseCustomerStatus(value string) (CustomerStatus, error) {
	for _, candidate := range validCustomerStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer status %q", value)
}
