package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateBuyOperation      OutboxAggregateType = "buy_operation"
	AggregateShippingOperation OutboxAggregateType = "shipping_operation"
	AggregateSellOperation     OutboxAggregateType = "sell_operation"
	AggregatePayment           OutboxAggregateType = "payment"
	AggregatePartner           OutboxAggregateType = "partner"
	AggregateUsdCustomer       OutboxAggregateType = "usd_customer"
	AggregateDollarExchange    OutboxAggregateType = "dollar_exchange"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateBuyOperation,
	AggregateShippingOperation,
	AggregateSellOperation,
	AggregatePayment,
	AggregatePartner,
	AggregateUsdCustomer,
	AggregateDollarExchange,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventBuyOperationCreated   OutboxEventType = "buy_operation_created"
	EventBuyOperationUpdated   OutboxEventType = "buy_operation_updated"
	EventBuyOperationDeleted   OutboxEventType = "buy_operation_deleted"
	EventShipmentCreated       OutboxEventType = "shipment_created"
	EventShipmentStatusChanged OutboxEventType = "shipment_status_changed"
	EventShipmentCanceled      OutboxEventType = "shipment_canceled"
	EventPaymentRecorded       OutboxEventType = "payment_recorded"
	EventPaymentCanceled       OutboxEventType = "payment_canceled"
	EventSellCreated           OutboxEventType = "sell_created"
	EventSellUpdated           OutboxEventType = "sell_updated"
	EventSellDeleted           OutboxEventType = "sell_deleted"
	EventExchangeCreated       OutboxEventType = "exchange_created"
	EventExchangeUpdated       OutboxEventType = "exchange_updated"
	EventExchangeDeleted       OutboxEventType = "exchange_deleted"
	EventExchangeRestored      OutboxEventType = "exchange_restored"
	EventPartnerDeleted        OutboxEventType = "partner_deleted"
	EventPartnerRestored       OutboxEventType = "partner_restored"
	EventCustomerDeleted       OutboxEventType = "customer_deleted"
	EventCustomerRestored      OutboxEventType = "customer_restored"
)

var validOutboxEventTypes = []OutboxEventType{
	EventBuyOperationCreated,
	EventBuyOperationUpdated,
	EventBuyOperationDeleted,
	EventShipmentCreated,
	EventShipmentStatusChanged,
	EventShipmentCanceled,
	EventPaymentRecorded,
	EventPaymentCanceled,
	EventSellCreated,
	EventSellUpdated,
	EventSellDeleted,
	EventExchangeCreated,
	EventExchangeUpdated,
	EventExchangeDeleted,
	EventExchangeRestored,
	EventPartnerDeleted,
	EventPartnerRestored,
	EventCustomerDeleted,
	EventCustomerRestored,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
