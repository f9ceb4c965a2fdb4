package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "github.com/altiq/storefront/internal/catalog/domain"
	"github.com/altiq/storefront/internal/order/application"
	"github.com/altiq/storefront/pkg/validation"
)

type stubCheckout struct {
	got []application.CheckoutRequest
	res application.CheckoutResult
	err error
}

func (s *stubCheckout) Start(_ context.Context, req application.CheckoutRequest) (application.CheckoutResult, error) {
	s.got = append(s.got, req)
	return s.res, s.err
}

func newTestHandler(c Checkout, limit func(http.Handler) http.Handler) http.Handler {
	return NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), c).Routes(limit)
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func checkoutForm() url.Values {
	return url.Values{
		"customer_name":  {"Ana Lopez"},
		"company_name":   {"Manufacturas del Norte"},
		"email":          {"ana@example.com"},
		"phone":          {"+52 81 0000 0000"},
		"payment_method": {"coinbase"},
	}
}

func TestStartRedirectsToGateway(t *testing.T) {
	c := &stubCheckout{res: application.CheckoutResult{OrderID: "o1", RedirectURL: "https://paypal.test/approve"}}
	rr := postForm(newTestHandler(c, nil), "/pilot-line-mx", checkoutForm())

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "https://paypal.test/approve", rr.Header().Get("Location"))
	require.Len(t, c.got, 1)
	assert.Equal(t, application.CheckoutRequest{
		PackageSlug:   "pilot-line-mx",
		CustomerName:  "Ana Lopez",
		CompanyName:   "Manufacturas del Norte",
		Email:         "ana@example.com",
		Phone:         "+52 81 0000 0000",
		PaymentMethod: "coinbase",
	}, c.got[0])
}

func TestStartGatewayFailureRedirectsToFailurePage(t *testing.T) {
	c := &stubCheckout{res: application.CheckoutResult{Failed: true, RedirectURL: application.FailurePath}}
	rr := postForm(newTestHandler(c, nil), "/basic", checkoutForm())
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/checkout/failure/", rr.Header().Get("Location"))
}

func TestStartErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &validation.Error{Fields: map[string]string{"email": "Enter a valid email address."}}, http.StatusUnprocessableEntity},
		{"unknown package", catalog.ErrPackageNotFound, http.StatusNotFound},
		{"internal", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postForm(newTestHandler(&stubCheckout{err: tt.err}, nil), "/basic", checkoutForm())
			assert.Equal(t, tt.code, rr.Code)
		})
	}

	rr := postForm(newTestHandler(&stubCheckout{err: &validation.Error{Fields: map[string]string{"email": "Enter a valid email address."}}}, nil), "/basic", checkoutForm())
	assert.JSONEq(t, `{"errors":{"email":"Enter a valid email address."}}`, rr.Body.String())
}

func TestResultPages(t *testing.T) {
	h := newTestHandler(&stubCheckout{}, nil)
	for path, status := range map[string]string{"/success/": "success", "/failure/": "failure"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"status":"`+status+`"`)
	}
}

func TestFormLimitWrapsPostOnly(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	h := newTestHandler(&stubCheckout{}, deny)
	assert.Equal(t, http.StatusTooManyRequests, postForm(h, "/basic", checkoutForm()).Code)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/success/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
