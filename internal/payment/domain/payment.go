package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrPaymentNotFound = errors.New("payment not found")

type Method string

const (
	MethodPayPal   Method = "paypal"
	MethodCoinbase Method = "coinbase"
)

// ParseMethod maps a submitted form value to a method; anything other
// than "coinbase" means PayPal.
func ParseMethod(v string) Method {
	if Method(v) == MethodCoinbase {
		return MethodCoinbase
	}
	return MethodPayPal
}

type Status string

const (
	StatusCreated   Status = "created"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Payment is one attempt to pay an order through a gateway.
type Payment struct {
	ID                string
	OrderID           string
	Method            Method
	Status            Status
	ProviderPaymentID string
	RawPayload        json.RawMessage
	Amount            decimal.Decimal
	Currency          string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewPayment mirrors the order amount and currency at creation time.
func NewPayment(orderID string, method Method, amount decimal.Decimal, currency string) Payment {
	now := time.Now().UTC()
	return Payment{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Method:    method,
		Status:    StatusCreated,
		Amount:    amount,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
