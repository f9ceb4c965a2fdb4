package domain

// Transition is the outcome a provider event asks for.
type Transition int

const (
	// TransitionNone records the payload without touching statuses.
	TransitionNone Transition = iota
	TransitionComplete
	TransitionFail
)

func (t Transition) String() string {
	switch t {
	case TransitionComplete:
		return "complete"
	case TransitionFail:
		return "fail"
	default:
		return "none"
	}
}

// Order statuses as stored on the orders table. Kept here as plain strings
// so the payment context does not import the order context.
const (
	OrderStatusPaid = "paid"
	OrderFailed     = "failed"
)

// Resolution is the next state of a payment and its order.
type Resolution struct {
	PaymentStatus Status
	OrderStatus   string
	// Changed is false when the event left both statuses untouched.
	Changed bool
	// OrderPaid is true only on the transition into paid.
	OrderPaid bool
}

// Resolve applies t to the current statuses. Re-applying an outcome is a
// no-op, a completed payment is never failed afterwards and a paid order
// is never marked failed.
func Resolve(payment Status, order string, t Transition) Resolution {
	res := Resolution{PaymentStatus: payment, OrderStatus: order}
	switch t {
	case TransitionComplete:
		res.PaymentStatus = StatusCompleted
		res.OrderStatus = OrderStatusPaid
	case TransitionFail:
		if payment != StatusCompleted {
			res.PaymentStatus = StatusFailed
		}
		if order != OrderStatusPaid {
			res.OrderStatus = OrderFailed
		}
	}
	res.Changed = res.PaymentStatus != payment || res.OrderStatus != order
	res.OrderPaid = res.OrderStatus == OrderStatusPaid && order != OrderStatusPaid
	return res
}

// Reconciliation reports what a webhook did to the matched payment.
type Reconciliation struct {
	PaymentID  string
	OrderID    string
	Transition Transition
	Resolution
}
