package coinbase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/altiq/storefront/internal/payment/domain"
	"github.com/altiq/storefront/internal/payment/gateway"
)

const (
	DefaultAPIBase = "https://api.commerce.coinbase.com"
	APIVersion     = "2018-03-22"
)

type Config struct {
	APIKey  string
	APIBase string
	Timeout time.Duration
}

// Adapter creates fixed-price Coinbase Commerce charges.
type Adapter struct {
	log    *slog.Logger
	cfg    Config
	client *resty.Client
}

func New(log *slog.Logger, cfg Config) *Adapter {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIBase, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-CC-Api-Key", cfg.APIKey).
		SetHeader("X-CC-Version", APIVersion)
	return &Adapter{log: log, cfg: cfg, client: client}
}

func (a *Adapter) Method() domain.Method { return domain.MethodCoinbase }

type localPrice struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type chargeRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	PricingType string            `json:"pricing_type"`
	LocalPrice  localPrice        `json:"local_price"`
	Metadata    map[string]string `json:"metadata"`
	RedirectURL string            `json:"redirect_url"`
	CancelURL   string            `json:"cancel_url"`
}

type chargeResponse struct {
	Data struct {
		ID        string `json:"id"`
		HostedURL string `json:"hosted_url"`
	} `json:"data"`
}

func (a *Adapter) CreateCharge(ctx context.Context, req gateway.ChargeRequest) (gateway.Charge, error) {
	if a.cfg.APIKey == "" {
		return gateway.Charge{}, &gateway.Error{Provider: domain.MethodCoinbase, Op: "create charge", Err: gateway.ErrNotConfigured}
	}

	currency := req.Currency
	if currency == "" {
		currency = "MXN"
	}
	body := chargeRequest{
		Name:        req.Name,
		Description: req.Description,
		PricingType: "fixed_price",
		LocalPrice: localPrice{
			Amount:   gateway.FormatAmount(req.Amount),
			Currency: strings.ToUpper(currency),
		},
		Metadata:    map[string]string{"order_id": req.OrderID},
		RedirectURL: req.SuccessURL,
		CancelURL:   req.CancelURL,
	}

	var out chargeResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/charges")
	if err != nil {
		return gateway.Charge{}, &gateway.Error{Provider: domain.MethodCoinbase, Op: "create charge", Err: err}
	}
	if resp.IsError() {
		return gateway.Charge{}, gateway.Errorf(domain.MethodCoinbase, "create charge", "unexpected status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Data.HostedURL == "" {
		return gateway.Charge{}, gateway.Errorf(domain.MethodCoinbase, "create charge", "hosted_url missing from response")
	}
	if out.Data.ID == "" {
		return gateway.Charge{}, gateway.Errorf(domain.MethodCoinbase, "create charge", "provider id missing from response")
	}

	a.log.Info("coinbase charge created", "order_id", req.OrderID, "provider_id", out.Data.ID)
	return gateway.Charge{RedirectURL: out.Data.HostedURL, ProviderID: out.Data.ID}, nil
}
