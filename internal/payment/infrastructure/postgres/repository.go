package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altiq/storefront/internal/payment/domain"
	"github.com/altiq/storefront/pkg/outbox"
	"github.com/altiq/storefront/pkg/tracing"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// Reconcile locks the most recent payment for (method, provider id) and
// then its order. The raw payload is always stored; statuses follow
// domain.Resolve and the OrderPaid event is appended to the outbox in the
// same transaction.
func (r *Repository) Reconcile(ctx context.Context, ev domain.Event) (domain.Reconciliation, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Reconciliation{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var (
		rec      = domain.Reconciliation{Transition: ev.Transition}
		status   domain.Status
		amount   string
		currency string
	)
	err = tx.QueryRow(ctx, `SELECT id, order_id, status, amount::text, currency FROM payments
		WHERE method = $1 AND provider_payment_id = $2
		ORDER BY created_at DESC LIMIT 1 FOR UPDATE`,
		ev.Method, ev.ProviderID).Scan(&rec.PaymentID, &rec.OrderID, &status, &amount, &currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Reconciliation{}, domain.ErrPaymentNotFound
	}
	if err != nil {
		return domain.Reconciliation{}, fmt.Errorf("lock payment: %w", err)
	}

	var orderStatus string
	if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, rec.OrderID).Scan(&orderStatus); err != nil {
		return domain.Reconciliation{}, fmt.Errorf("lock order %s: %w", rec.OrderID, err)
	}

	rec.Resolution = domain.Resolve(status, orderStatus, ev.Transition)

	if _, err := tx.Exec(ctx, `UPDATE payments SET status = $1, raw_payload = $2, updated_at = now() WHERE id = $3`,
		rec.PaymentStatus, []byte(ev.Raw), rec.PaymentID); err != nil {
		return domain.Reconciliation{}, fmt.Errorf("update payment: %w", err)
	}
	if rec.OrderStatus != orderStatus {
		if _, err := tx.Exec(ctx, `UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`,
			rec.OrderStatus, rec.OrderID); err != nil {
			return domain.Reconciliation{}, fmt.Errorf("update order: %w", err)
		}
	}

	if rec.OrderPaid {
		payload, err := json.Marshal(domain.OrderPaid{
			OrderID:   rec.OrderID,
			PaymentID: rec.PaymentID,
			Method:    ev.Method,
			Amount:    amount,
			Currency:  currency,
		})
		if err != nil {
			return domain.Reconciliation{}, err
		}
		err = outbox.Append(ctx, tx, outbox.Event{
			AggregateType: "order",
			AggregateID:   rec.OrderID,
			Type:          domain.EventOrderPaid,
			Payload:       payload,
			Headers:       map[string]string{"source": "payment-webhook"},
			Traceparent:   tracing.Traceparent(ctx),
		})
		if err != nil {
			return domain.Reconciliation{}, fmt.Errorf("append outbox: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Reconciliation{}, err
	}
	return rec, nil
}
