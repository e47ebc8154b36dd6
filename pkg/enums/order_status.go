package enums

// OrderStatus is the fulfillment state of an order. Only admins change it.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

func (s OrderStatus) String() string { return string(s) }

// IsValid reports whether s is a known status.
func (s OrderStatus) IsValid() bool { return member(orderStatuses, s) }

// ParseOrderStatus is used for admin list filters.
func ParseOrderStatus(value string) (OrderStatus, error) {
	return parse(orderStatuses, value, "order status")
}
