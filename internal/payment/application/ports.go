package application

import (
	"context"

	"github.com/altiq/storefront/internal/payment/domain"
)

type PaymentRepository interface {
	// Reconcile locks the payment matching ev, stores ev.Raw and applies
	// ev.Transition to the payment and its order in one transaction.
	// It returns domain.ErrPaymentNotFound when nothing matches.
	Reconcile(ctx context.Context, ev domain.Event) (domain.Reconciliation, error)
}
