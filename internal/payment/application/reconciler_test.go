package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altiq/storefront/internal/payment/domain"
)

type row struct {
	paymentID   string
	orderID     string
	method      domain.Method
	providerID  string
	status      domain.Status
	orderStatus string
	raw         []byte
}

// memRepo mirrors the postgres repository on an in-memory table.
type memRepo struct {
	rows     []*row
	paidSent []string
	err      error
}

func (m *memRepo) Reconcile(_ context.Context, ev domain.Event) (domain.Reconciliation, error) {
	if m.err != nil {
		return domain.Reconciliation{}, m.err
	}
	var hit *row
	for _, r := range m.rows {
		if r.method == ev.Method && r.providerID == ev.ProviderID {
			hit = r
		}
	}
	if hit == nil {
		return domain.Reconciliation{}, domain.ErrPaymentNotFound
	}
	hit.raw = ev.Raw
	res := domain.Resolve(hit.status, hit.orderStatus, ev.Transition)
	hit.status, hit.orderStatus = res.PaymentStatus, res.OrderStatus
	if res.OrderPaid {
		m.paidSent = append(m.paidSent, hit.orderID)
	}
	return domain.Reconciliation{PaymentID: hit.paymentID, OrderID: hit.orderID, Transition: ev.Transition, Resolution: res}, nil
}

func newReconciler(repo PaymentRepository) *Reconciler {
	return NewReconciler(slog.New(slog.NewTextHandler(io.Discard, nil)), repo)
}

func TestHandlePayPalCompletes(t *testing.T) {
	repo := &memRepo{rows: []*row{{paymentID: "p1", orderID: "o1", method: domain.MethodPayPal, providerID: "PAYPAL-ID-123", status: domain.StatusPending, orderStatus: "pending"}}}
	r := newReconciler(repo)

	body := []byte(`{"event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"PAYPAL-ID-123"}}`)
	out, err := r.Handle(context.Background(), domain.MethodPayPal, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, out)
	assert.Equal(t, domain.StatusCompleted, repo.rows[0].status)
	assert.Equal(t, "paid", repo.rows[0].orderStatus)
	assert.JSONEq(t, string(body), string(repo.rows[0].raw))

	out, err = r.Handle(context.Background(), domain.MethodPayPal, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, out)
	assert.Equal(t, []string{"o1"}, repo.paidSent, "paid event emitted once")
}

func TestHandleCoinbaseOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantOutcome Outcome
		wantStatus  domain.Status
		wantOrder   string
	}{
		{"confirmed", `{"type":"charge:confirmed","data":{"id":"C1"}}`, OutcomeOK, domain.StatusCompleted, "paid"},
		{"timeline completed", `{"type":"charge:pending","data":{"id":"C1","timeline":[{"status":"NEW"},{"status":"COMPLETED"}]}}`, OutcomeOK, domain.StatusCompleted, "paid"},
		{"expired", `{"type":"charge:expired","data":{"id":"C1"}}`, OutcomeOK, domain.StatusFailed, "failed"},
		{"inconclusive", `{"type":"charge:pending","data":{"id":"C1","timeline":[{"status":"NEW"}]}}`, OutcomeIgnored, domain.StatusPending, "pending"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memRepo{rows: []*row{{paymentID: "p1", orderID: "o1", method: domain.MethodCoinbase, providerID: "C1", status: domain.StatusPending, orderStatus: "pending"}}}
			out, err := newReconciler(repo).Handle(context.Background(), domain.MethodCoinbase, []byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, out)
			assert.Equal(t, tt.wantStatus, repo.rows[0].status)
			assert.Equal(t, tt.wantOrder, repo.rows[0].orderStatus)
			assert.NotEmpty(t, repo.rows[0].raw)
		})
	}
}

func TestHandleFailAfterPaidKeepsPaid(t *testing.T) {
	repo := &memRepo{rows: []*row{{paymentID: "p1", orderID: "o1", method: domain.MethodCoinbase, providerID: "C1", status: domain.StatusCompleted, orderStatus: "paid"}}}
	out, err := newReconciler(repo).Handle(context.Background(), domain.MethodCoinbase, []byte(`{"type":"charge:failed","data":{"id":"C1"}}`))
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, out)
	assert.Equal(t, domain.StatusCompleted, repo.rows[0].status)
	assert.Equal(t, "paid", repo.rows[0].orderStatus)
}

func TestHandleUnknownPaymentIgnored(t *testing.T) {
	repo := &memRepo{rows: []*row{{paymentID: "p1", orderID: "o1", method: domain.MethodPayPal, providerID: "C1", status: domain.StatusPending, orderStatus: "pending"}}}
	out, err := newReconciler(repo).Handle(context.Background(), domain.MethodCoinbase, []byte(`{"type":"charge:confirmed","data":{"id":"C1"}}`))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out)
	assert.Equal(t, domain.StatusPending, repo.rows[0].status, "match requires the same method")
}

func TestHandleMalformed(t *testing.T) {
	r := newReconciler(&memRepo{})
	for _, body := range []string{`not json`, `[]`, `{}`, ``, `{"resource":{}}`} {
		_, err := r.Handle(context.Background(), domain.MethodPayPal, []byte(body))
		assert.ErrorIs(t, err, domain.ErrMalformedPayload, body)
	}
	_, err := r.Handle(context.Background(), domain.MethodCoinbase, []byte(`{"type":"charge:confirmed","data":{}}`))
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
}

func TestHandleRepositoryError(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := newReconciler(&memRepo{err: boom}).Handle(context.Background(), domain.MethodPayPal, []byte(`{"resource":{"id":"X"}}`))
	assert.ErrorIs(t, err, boom)
}
