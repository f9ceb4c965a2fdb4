package paypal

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/plutov/paypal/v4"

	"github.com/altiq/storefront/internal/payment/domain"
	"github.com/altiq/storefront/internal/payment/gateway"
)

type Config struct {
	ClientID     string
	ClientSecret string
	Live         bool
	// APIBase overrides the sandbox/live endpoint.
	APIBase string
	Timeout time.Duration
}

// Adapter creates PayPal orders with intent CAPTURE.
type Adapter struct {
	log *slog.Logger
	cfg Config
}

func New(log *slog.Logger, cfg Config) *Adapter {
	if cfg.APIBase == "" {
		cfg.APIBase = paypal.APIBaseSandBox
		if cfg.Live {
			cfg.APIBase = paypal.APIBaseLive
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Adapter{log: log, cfg: cfg}
}

func (a *Adapter) Method() domain.Method { return domain.MethodPayPal }

// CreateCharge obtains a client-credentials token and creates the order.
// A fresh client per call keeps token state out of concurrent requests.
func (a *Adapter) CreateCharge(ctx context.Context, req gateway.ChargeRequest) (gateway.Charge, error) {
	if a.cfg.ClientID == "" || a.cfg.ClientSecret == "" {
		return gateway.Charge{}, &gateway.Error{Provider: domain.MethodPayPal, Op: "create charge", Err: gateway.ErrNotConfigured}
	}

	client, err := paypal.NewClient(a.cfg.ClientID, a.cfg.ClientSecret, a.cfg.APIBase)
	if err != nil {
		return gateway.Charge{}, &gateway.Error{Provider: domain.MethodPayPal, Op: "new client", Err: err}
	}
	client.Client = &http.Client{Timeout: a.cfg.Timeout}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	token, err := client.GetAccessToken(ctx)
	if err != nil {
		return gateway.Charge{}, &gateway.Error{Provider: domain.MethodPayPal, Op: "access token", Err: err}
	}
	if token == nil || token.Token == "" {
		return gateway.Charge{}, gateway.Errorf(domain.MethodPayPal, "access token", "access token missing from response")
	}

	currency := req.Currency
	if currency == "" {
		currency = "MXN"
	}
	units := []paypal.PurchaseUnitRequest{{
		Amount: &paypal.PurchaseUnitAmount{
			Currency: strings.ToUpper(currency),
			Value:    gateway.FormatAmount(req.Amount),
		},
		CustomID: req.OrderID,
	}}
	appCtx := &paypal.ApplicationContext{
		ReturnURL: req.SuccessURL,
		CancelURL: req.CancelURL,
	}

	order, err := client.CreateOrder(ctx, "CAPTURE", units, nil, appCtx)
	if err != nil {
		return gateway.Charge{}, &gateway.Error{Provider: domain.MethodPayPal, Op: "create order", Err: err}
	}

	if order == nil || order.ID == "" {
		return gateway.Charge{}, gateway.Errorf(domain.MethodPayPal, "create order", "provider id missing from response")
	}
	approval := approvalURL(order)
	if approval == "" {
		return gateway.Charge{}, gateway.Errorf(domain.MethodPayPal, "create order", "approval URL not found in response")
	}
	a.log.Info("paypal order created", "order_id", req.OrderID, "provider_id", order.ID)
	return gateway.Charge{RedirectURL: approval, ProviderID: order.ID}, nil
}

func approvalURL(order *paypal.Order) string {
	if order == nil {
		return ""
	}
	for _, link := range order.Links {
		if link.Rel == "approve" {
			return link.Href
		}
	}
	return ""
}
