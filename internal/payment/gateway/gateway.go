// Package gateway defines the outbound charge contract shared by the
// PayPal and Coinbase Commerce adapters.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/altiq/storefront/internal/payment/domain"
)

// ErrNotConfigured is wrapped when an adapter has no credentials.
var ErrNotConfigured = errors.New("gateway not configured")

// Error is returned by every adapter failure.
type Error struct {
	Provider domain.Method
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error for provider and op.
func Errorf(provider domain.Method, op, format string, args ...any) error {
	return &Error{Provider: provider, Op: op, Err: fmt.Errorf(format, args...)}
}

type ChargeRequest struct {
	OrderID     string
	Name        string
	Description string
	Amount      decimal.Decimal
	Currency    string
	SuccessURL  string
	CancelURL   string
}

type Charge struct {
	RedirectURL string
	ProviderID  string
}

type Gateway interface {
	Method() domain.Method
	CreateCharge(ctx context.Context, req ChargeRequest) (Charge, error)
}

// Registry resolves the adapter for a payment method.
type Registry map[domain.Method]Gateway

func NewRegistry(gws ...Gateway) Registry {
	r := make(Registry, len(gws))
	for _, g := range gws {
		r[g.Method()] = g
	}
	return r
}

// Get returns an adapter that always fails with ErrNotConfigured when no
// adapter is registered for m.
func (r Registry) Get(m domain.Method) Gateway {
	if g, ok := r[m]; ok {
		return g
	}
	return unconfigured(m)
}

type unconfigured domain.Method

func (u unconfigured) Method() domain.Method { return domain.Method(u) }

func (u unconfigured) CreateCharge(context.Context, ChargeRequest) (Charge, error) {
	return Charge{}, &Error{Provider: domain.Method(u), Op: "create charge", Err: ErrNotConfigured}
}

// FormatAmount renders an exact two-decimal string, never exponent notation.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
