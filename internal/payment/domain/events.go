package domain

// EventOrderPaid is published once per order when it first becomes paid.
const EventOrderPaid = "OrderPaid"

type OrderPaid struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Method    Method `json:"method"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}
