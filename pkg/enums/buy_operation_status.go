package enums

import "fmt"

// BuyOperationStatus tracks the lifecycle of a gold purchase.
type BuyOperationStatus string

const (
	BuyOperationStatusPending   BuyOperationStatus = "pending"
	BuyOperationStatusShipped   BuyOperationStatus = "shipped"
	BuyOperationStatusCompleted BuyOperationStatus = "completed"
	BuyOperationStatusOnHold    BuyOperationStatus = "on hold"
	BuyOperationStatusCanceled  BuyOperationStatus = "canceled"
	BuyOperationStatusArchived  BuyOperationStatus = "archived"
)

var validBuyOperationStatuses = []BuyOperationStatus{
	BuyOperationStatusPending,
	BuyOperationStatusShipped,
	BuyOperationStatusCompleted,
	BuyOperationStatusOnHold,
	BuyOperationStatusCanceled,
	BuyOperationStatusArchived,
}

// String implements fmt.Stringer.
func (s BuyOperationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BuyOperationStatus.
func (s BuyOperationStatus) IsValid() bool {
	for _, candidate := range validBuyOperationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseBuyOperationStatus converts raw input into a BuyOperationStatus.
func ParseBuyOperationStatus(value string) (BuyOperationStatus, error) {
	for _, candidate := range validBuyOperationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid buy operation status %q", value)
}
