package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "github.com/altiq/storefront/internal/catalog/domain"
	"github.com/altiq/storefront/internal/order/domain"
	payment "github.com/altiq/storefront/internal/payment/domain"
	"github.com/altiq/storefront/internal/payment/gateway"
	"github.com/altiq/storefront/internal/payment/gateway/paypal"
)

type stubPackages map[string]catalog.Package

func (s stubPackages) GetActive(_ context.Context, slug string) (catalog.Package, error) {
	p, ok := s[slug]
	if !ok || !p.IsActive {
		return catalog.Package{}, catalog.ErrPackageNotFound
	}
	return p, nil
}

type memCheckoutRepo struct {
	orders   map[string]domain.Order
	payments map[string]payment.Payment
	err      error
}

func newMemCheckoutRepo() *memCheckoutRepo {
	return &memCheckoutRepo{orders: map[string]domain.Order{}, payments: map[string]payment.Payment{}}
}

func (m *memCheckoutRepo) CreateWithPayment(_ context.Context, o domain.Order, p payment.Payment) error {
	if m.err != nil {
		return m.err
	}
	m.orders[o.ID] = o
	m.payments[p.ID] = p
	return nil
}

func (m *memCheckoutRepo) MarkPaymentPending(_ context.Context, paymentID, providerID string) error {
	p := m.payments[paymentID]
	p.Status = payment.StatusPending
	p.ProviderPaymentID = providerID
	m.payments[paymentID] = p
	return nil
}

func (m *memCheckoutRepo) MarkCheckoutFailed(_ context.Context, orderID, paymentID string) error {
	o := m.orders[orderID]
	o.Status = domain.StatusFailed
	m.orders[orderID] = o
	p := m.payments[paymentID]
	p.Status = payment.StatusFailed
	m.payments[paymentID] = p
	return nil
}

func (m *memCheckoutRepo) onlyOrder(t *testing.T) (domain.Order, payment.Payment) {
	t.Helper()
	require.Len(t, m.orders, 1)
	require.Len(t, m.payments, 1)
	var (
		o domain.Order
		p payment.Payment
	)
	for _, v := range m.orders {
		o = v
	}
	for _, v := range m.payments {
		p = v
	}
	return o, p
}

type stubGateway struct {
	method payment.Method
	charge gateway.Charge
	err    error
	got    []gateway.ChargeRequest
}

func (s *stubGateway) Method() payment.Method { return s.method }

func (s *stubGateway) CreateCharge(_ context.Context, req gateway.ChargeRequest) (gateway.Charge, error) {
	s.got = append(s.got, req)
	return s.charge, s.err
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

var packages = stubPackages{
	"pilot-line-mx": {Slug: "pilot-line-mx", Name: "Linea piloto", Price: decimal.NewFromInt(15000), IsActive: true},
	"basic":         {Slug: "basic", Name: "Basico", Price: decimal.NewFromInt(500), IsActive: true},
	"retired":       {Slug: "retired", Name: "Retirado", Price: decimal.NewFromInt(100), IsActive: false},
}

func validRequest(slug, method string) CheckoutRequest {
	return CheckoutRequest{PackageSlug: slug, CustomerName: "Ana Lopez", Email: "ana@example.com", PaymentMethod: method}
}

func TestCheckoutPayPalPilotLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/oauth2/token":
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":32400}`))
		case "/v2/checkout/orders":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"PAYPAL-ID-123","status":"CREATED","links":[{"href":"https://paypal.test/approve","rel":"approve","method":"GET"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	pp := paypal.New(discardLogger(), paypal.Config{ClientID: "id", ClientSecret: "secret", APIBase: srv.URL, Timeout: time.Second})
	repo := newMemCheckoutRepo()
	c := NewCheckout(discardLogger(), packages, repo, gateway.NewRegistry(pp), "https://altiq.test")

	res, err := c.Start(context.Background(), validRequest("pilot-line-mx", "paypal"))
	require.NoError(t, err)
	assert.False(t, res.Failed)
	assert.Equal(t, "https://paypal.test/approve", res.RedirectURL)

	o, p := repo.onlyOrder(t)
	assert.Equal(t, res.OrderID, o.ID)
	assert.True(t, o.Amount.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, "MXN", o.Currency)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, payment.MethodPayPal, p.Method)
	assert.Equal(t, payment.StatusPending, p.Status)
	assert.Equal(t, "PAYPAL-ID-123", p.ProviderPaymentID)
	assert.True(t, p.Amount.Equal(o.Amount))
	assert.Equal(t, o.ID, p.OrderID)
}

func TestCheckoutSelectsGatewayAndURLs(t *testing.T) {
	pp := &stubGateway{method: payment.MethodPayPal, charge: gateway.Charge{RedirectURL: "https://pp", ProviderID: "PP1"}}
	cb := &stubGateway{method: payment.MethodCoinbase, charge: gateway.Charge{RedirectURL: "https://cb", ProviderID: "CB1"}}
	c := NewCheckout(discardLogger(), packages, newMemCheckoutRepo(), gateway.NewRegistry(pp, cb), "https://altiq.test")

	res, err := c.Start(context.Background(), validRequest("basic", "coinbase"))
	require.NoError(t, err)
	assert.Equal(t, "https://cb", res.RedirectURL)
	require.Len(t, cb.got, 1)
	assert.Equal(t, "https://altiq.test/checkout/success/", cb.got[0].SuccessURL)
	assert.Equal(t, "https://altiq.test/checkout/failure/", cb.got[0].CancelURL)
	assert.Equal(t, "Basico", cb.got[0].Name)
	assert.Equal(t, res.OrderID, cb.got[0].OrderID)

	for _, m := range []string{"", "paypal", "bitcoin"} {
		res, err = c.Start(context.Background(), validRequest("basic", m))
		require.NoError(t, err)
		assert.Equal(t, "https://pp", res.RedirectURL, m)
	}
	assert.Len(t, pp.got, 3)
}

func TestCheckoutGatewayFailure(t *testing.T) {
	tests := []struct {
		name     string
		registry gateway.Registry
	}{
		{"remote error", gateway.NewRegistry(&stubGateway{method: payment.MethodPayPal, err: gateway.Errorf(payment.MethodPayPal, "create order", "boom")})},
		{"not configured", gateway.NewRegistry()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemCheckoutRepo()
			c := NewCheckout(discardLogger(), packages, repo, tt.registry, "https://altiq.test")

			res, err := c.Start(context.Background(), validRequest("basic", "paypal"))
			require.NoError(t, err)
			assert.True(t, res.Failed)
			assert.Equal(t, FailurePath, res.RedirectURL)

			o, p := repo.onlyOrder(t)
			assert.Equal(t, domain.StatusFailed, o.Status)
			assert.Equal(t, payment.StatusFailed, p.Status)
		})
	}
}

func TestCheckoutValidationCreatesNothing(t *testing.T) {
	repo := newMemCheckoutRepo()
	gw := &stubGateway{method: payment.MethodPayPal}
	c := NewCheckout(discardLogger(), packages, repo, gateway.NewRegistry(gw), "https://altiq.test")

	_, err := c.Start(context.Background(), CheckoutRequest{PackageSlug: "basic", Email: "not-an-email"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "customer_name")
	assert.Contains(t, verr.Fields, "email")
	assert.Empty(t, repo.orders)
	assert.Empty(t, gw.got)
}

func TestCheckoutUnknownPackageCreatesNothing(t *testing.T) {
	repo := newMemCheckoutRepo()
	c := NewCheckout(discardLogger(), packages, repo, gateway.NewRegistry(), "https://altiq.test")

	for _, slug := range []string{"missing", "retired"} {
		_, err := c.Start(context.Background(), validRequest(slug, "paypal"))
		assert.ErrorIs(t, err, catalog.ErrPackageNotFound, slug)
	}
	assert.Empty(t, repo.orders)
}

func TestCheckoutRepositoryError(t *testing.T) {
	repo := newMemCheckoutRepo()
	repo.err = errors.New("db down")
	gw := &stubGateway{method: payment.MethodPayPal}
	c := NewCheckout(discardLogger(), packages, repo, gateway.NewRegistry(gw), "https://altiq.test")

	_, err := c.Start(context.Background(), validRequest("basic", "paypal"))
	assert.ErrorIs(t, err, repo.err)
	assert.Empty(t, gw.got)
}
