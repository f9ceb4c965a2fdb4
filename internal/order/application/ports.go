package application

import (
	"context"

	catalog "github.com/altiq/storefront/internal/catalog/domain"
	"github.com/altiq/storefront/internal/order/domain"
	payment "github.com/altiq/storefront/internal/payment/domain"
	"github.com/altiq/storefront/internal/payment/gateway"
)

type PackageLookup interface {
	GetActive(ctx context.Context, slug string) (catalog.Package, error)
}

type GatewayResolver interface {
	Get(m payment.Method) gateway.Gateway
}

type CheckoutRepository interface {
	// CreateWithPayment inserts the order, its items and the payment atomically.
	CreateWithPayment(ctx context.Context, o domain.Order, p payment.Payment) error
	MarkPaymentPending(ctx context.Context, paymentID, providerID string) error
	// MarkCheckoutFailed fails both the payment and its order.
	MarkCheckoutFailed(ctx context.Context, orderID, paymentID string) error
}

// FulfillmentTx exposes the statements run while the order row is locked.
type FulfillmentTx interface {
	PackageNames(ctx context.Context, slugs []string) (map[string]string, error)
	// GetOrCreateCode stores candidate unless the (order, package) pair
	// already has a code, and returns the stored code either way.
	GetOrCreateCode(ctx context.Context, packageSlug, candidate string) (domain.Code, error)
	MarkThankYouSent(ctx context.Context) error
}

type FulfillmentRepository interface {
	// WithLockedOrder runs fn inside a transaction holding SELECT ... FOR
	// UPDATE on the order. fn's error rolls the transaction back.
	WithLockedOrder(ctx context.Context, orderID string, fn func(ctx context.Context, o domain.Order, tx FulfillmentTx) error) error
}

type Mailer interface {
	SendThankYou(ctx context.Context, o domain.Order, codes []CodeLine) error
}
