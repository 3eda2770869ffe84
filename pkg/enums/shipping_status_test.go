package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippingStatusTransitions(t *testing.T) {
	cases := []struct {
		from    ShippingStatus
		to      ShippingStatus
		allowed bool
	}{
		{ShippingStatusInProgress, ShippingStatusShipped, true},
		{ShippingStatusInProgress, ShippingStatusOnHold, true},
		{ShippingStatusInProgress, ShippingStatusDelivered, false},
		{ShippingStatusShipped, ShippingStatusDelivered, true},
		{ShippingStatusShipped, ShippingStatusOnHold, true},
		{ShippingStatusShipped, ShippingStatusInProgress, false},
		{ShippingStatusOnHold, ShippingStatusInProgress, true},
		{ShippingStatusOnHold, ShippingStatusShipped, true},
		{ShippingStatusOnHold, ShippingStatusDelivered, false},
		{ShippingStatusDelivered, ShippingStatusShipped, false},
		{ShippingStatusCanceled, ShippingStatusInProgress, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, terminal := range []ShippingStatus{ShippingStatusDelivered, ShippingStatusCanceled} {
		for _, next := range validShippingStatuses {
			assert.False(t, terminal.CanTransitionTo(next), "%s should be terminal", terminal)
		}
	}
}

func TestParseShippingStatus(t *testing.T) {
	status, err := ParseShippingStatus("on hold")
	require.NoError(t, err)
	assert.Equal(t, ShippingStatusOnHold, status)

	_, err = ParseShippingStatus("returned")
	assert.Error(t, err)
}
