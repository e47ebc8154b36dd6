package enums

// PaymentStatus tracks where an order stands with the payment provider.
// Dashboard revenue counts paid orders only.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

var paymentStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded}

func (p PaymentStatus) String() string { return string(p) }

func (p PaymentStatus) IsValid() bool { return member(paymentStatuses, p) }

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	return parse(paymentStatuses, value, "payment status")
}
