package enums

import "fmt"

// ShippingStatus tracks the lifecycle of an export shipment.
type ShippingStatus string

const (
	ShippingStatusInProgress ShippingStatus = "in progress"
	ShippingStatusShipped    ShippingStatus = "shipped"
	ShippingStatusDelivered  ShippingStatus = "delivered"
	ShippingStatusOnHold     ShippingStatus = "on hold"
	ShippingStatusCanceled   ShippingStatus = "canceled"
)

var validShippingStatuses = []ShippingStatus{
	ShippingStatusInProgress,
	ShippingStatusShipped,
	ShippingStatusDelivered,
	ShippingStatusOnHold,
	ShippingStatusCanceled,
}

// shippingTransitions is the authoritative transition table. Any pair not
// listed here is an invalid transition. Canceled is terminal.
var shippingTransitions = map[ShippingStatus][]ShippingStatus{
	ShippingStatusInProgress: {ShippingStatusShipped, ShippingStatusOnHold},
	ShippingStatusShipped:    {ShippingStatusDelivered, ShippingStatusOnHold},
	ShippingStatusOnHold:     {ShippingStatusInProgress, ShippingStatusShipped},
	ShippingStatusDelivered:  {},
	ShippingStatusCanceled:   {},
}

// String implements fmt.Stringer.
func (s ShippingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingStatus.
func (s ShippingStatus) IsValid() bool {
	for _, candidate := range validShippingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the transition table allows moving from s to next.
func (s ShippingStatus) CanTransitionTo(next ShippingStatus) bool {
	for _, candidate := range shippingTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseShippingStatus converts raw input into a ShippingStatus.
func ParseShippingStatus(value string) (ShippingStatus, error) {
	for _, candidate := range validShippingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping status %q", value)
}
