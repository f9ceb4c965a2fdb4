package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	catalog "github.com/altiq/storefront/internal/catalog/domain"
	"github.com/altiq/storefront/internal/order/domain"
	payment "github.com/altiq/storefront/internal/payment/domain"
	"github.com/altiq/storefront/internal/payment/gateway"
	"github.com/altiq/storefront/pkg/validation"
)

const (
	SuccessPath = "/checkout/success/"
	FailurePath = "/checkout/failure/"
)

type ValidationError = validation.Error

type CheckoutRequest struct {
	PackageSlug   string `form:"-"`
	CustomerName  string `form:"customer_name" validate:"required,max=200"`
	CompanyName   string `form:"company_name" validate:"max=200"`
	Email         string `form:"email" validate:"required,email,max=254"`
	Phone         string `form:"phone" validate:"max=50"`
	PaymentMethod string `form:"payment_method"`
}

type CheckoutResult struct {
	OrderID     string
	PaymentID   string
	RedirectURL string
	// Failed is true when the gateway refused the charge and the order was
	// marked failed. RedirectURL then points at the failure page.
	Failed bool
}

type Checkout struct {
	log      *slog.Logger
	packages PackageLookup
	repo     CheckoutRepository
	gateways GatewayResolver
	validate *validation.Validator
	baseURL  string
	tracer   trace.Tracer
}

func NewCheckout(log *slog.Logger, packages PackageLookup, repo CheckoutRepository, gateways GatewayResolver, baseURL string) *Checkout {
	return &Checkout{
		log:      log,
		packages: packages,
		repo:     repo,
		gateways: gateways,
		validate: validation.New(),
		baseURL:  baseURL,
		tracer:   otel.Tracer("order-checkout"),
	}
}

// Start validates the form, creates the pending order and payment, and asks
// the selected gateway for a redirect. Validation and unknown packages fail
// before any state is written. Gateway errors never surface as errors: the
// order is failed and the result redirects to the failure page.
func (c *Checkout) Start(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	ctx, span := c.tracer.Start(ctx, "StartCheckout")
	defer span.End()

	if err := c.validate.Struct(req); err != nil {
		return CheckoutResult{}, err
	}

	pkg, err := c.packages.GetActive(ctx, req.PackageSlug)
	if err != nil {
		return CheckoutResult{}, err
	}

	method := payment.ParseMethod(req.PaymentMethod)
	o := domain.NewOrder(pkg.Slug, domain.Customer{
		Name:    req.CustomerName,
		Company: req.CompanyName,
		Email:   req.Email,
		Phone:   req.Phone,
	}, pkg.Price, catalog.Currency)
	p := payment.NewPayment(o.ID, method, o.Amount, o.Currency)
	span.SetAttributes(attribute.String("order.id", o.ID), attribute.String("payment.method", string(method)))

	if err := c.repo.CreateWithPayment(ctx, o, p); err != nil {
		return CheckoutResult{}, fmt.Errorf("create order: %w", err)
	}
	c.log.Info("checkout started", "order_id", o.ID, "payment_id", p.ID, "package", pkg.Slug, "method", method)

	res := CheckoutResult{OrderID: o.ID, PaymentID: p.ID}
	charge, err := c.gateways.Get(method).CreateCharge(ctx, gateway.ChargeRequest{
		OrderID:     o.ID,
		Name:        pkg.Name,
		Description: pkg.ShortDescription,
		Amount:      o.Amount,
		Currency:    o.Currency,
		SuccessURL:  c.baseURL + SuccessPath,
		CancelURL:   c.baseURL + FailurePath,
	})
	if err != nil {
		span.RecordError(err)
		c.log.Error("gateway charge failed", "order_id", o.ID, "method", method, "not_configured", errors.Is(err, gateway.ErrNotConfigured), "err", err)
		if ferr := c.repo.MarkCheckoutFailed(context.WithoutCancel(ctx), o.ID, p.ID); ferr != nil {
			c.log.Error("mark checkout failed", "order_id", o.ID, "err", ferr)
		}
		res.Failed = true
		res.RedirectURL = FailurePath
		return res, nil
	}

	if err := c.repo.MarkPaymentPending(ctx, p.ID, charge.ProviderID); err != nil {
		return CheckoutResult{}, fmt.Errorf("record provider id: %w", err)
	}
	res.RedirectURL = charge.RedirectURL
	return res, nil
}
