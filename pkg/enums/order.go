package enums

import "fmt"

// OrderType selects how many delivery days an order spans.
type OrderType string

const (
	OrderTypeOneTime OrderType = "ONETIME"
	OrderTypeWeekly  OrderType = "WEEKLY"
	OrderTypeMonthly OrderType = "MONTHLY"
)

var validOrderTypes = []OrderType{
	OrderTypeOneTime,
	OrderTypeWeekly,
	OrderTypeMonthly,
}

// String implements fmt.Stringer.
func (t OrderType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known OrderType.
func (t OrderType) IsValid() bool {
	for _, candidate := range validOrderTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// DeliveryDays returns the number of consecutive calendar days the order covers.
func (t OrderType) DeliveryDays() int {
	switch t {
	case OrderTypeWeekly:
		return 7
	case OrderTypeMonthly:
		return 30
	default:
		return 1
	}
}

// IsSubscription reports whether rows are expanded one unit per day.
func (t OrderType) IsSubscription() bool {
	return t == OrderTypeWeekly || t == OrderTypeMonthly
}

// ParseOrderType converts raw input into an OrderType.
func ParseOrderType(value string) (OrderType, error) {
	for _, candidate := range validOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order type %q", value)
}

// OrderStatus tracks the aggregate lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusPreparing      OrderStatus = "PREPARING"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsFinal reports whether the order can no longer change.
func (s OrderStatus) IsFinal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
