package enums

import "fmt"

// ExchangeStatus tracks the lifecycle of a dollar exchange.
type ExchangeStatus string

const (
	ExchangeStatusPending   ExchangeStatus = "pending"
	ExchangeStatusCompleted ExchangeStatus = "completed"
	ExchangeStatusCanceled  ExchangeStatus = "canceled"
	ExchangeStatusArchived  ExchangeStatus = "archived"
)

var validExchangeStatuses = []ExchangeStatus{
	ExchangeStatusPending,
	ExchangeStatusCompleted,
	ExchangeStatusCanceled,
	ExchangeStatusArchived,
}

// String implements fmt.Stringer.
func (e ExchangeStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known ExchangeStatus.
func (e ExchangeStatus) IsValid() bool {
	for _, candidate := range validExchangeStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseExchangeStatus converts raw input into an ExchangeStatus.
func ParseExchangeStatus(value string) (ExchangeStatus, error) {
	for _, candidate := range validExchangeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid exchange status %q", value)
}
