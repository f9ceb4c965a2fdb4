package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/altiq/storefront/internal/payment/domain"
)

type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeIgnored Outcome = "ignored"
)

// Reconciler turns provider webhooks into payment and order updates.
type Reconciler struct {
	log    *slog.Logger
	repo   PaymentRepository
	tracer trace.Tracer
}

func NewReconciler(log *slog.Logger, repo PaymentRepository) *Reconciler {
	return &Reconciler{log: log, repo: repo, tracer: otel.Tracer("payment-reconciler")}
}

// Handle parses body for method and reconciles it. A malformed body returns
// an error wrapping domain.ErrMalformedPayload.
func (r *Reconciler) Handle(ctx context.Context, method domain.Method, body []byte) (Outcome, error) {
	ctx, span := r.tracer.Start(ctx, "ReconcileWebhook")
	defer span.End()

	var (
		ev  domain.Event
		err error
	)
	switch method {
	case domain.MethodPayPal:
		ev, err = domain.ParsePayPal(body)
	case domain.MethodCoinbase:
		ev, err = domain.ParseCoinbase(body)
	default:
		err = fmt.Errorf("%w: unknown method %q", domain.ErrMalformedPayload, method)
	}
	if err != nil {
		r.log.Warn("webhook rejected", "method", method, "err", err)
		return "", err
	}
	span.SetAttributes(
		attribute.String("payment.method", string(ev.Method)),
		attribute.String("payment.provider_id", ev.ProviderID),
	)

	rec, err := r.repo.Reconcile(ctx, ev)
	if errors.Is(err, domain.ErrPaymentNotFound) {
		r.log.Info("webhook for unknown payment ignored", "method", method, "provider_id", ev.ProviderID, "type", ev.Type)
		return OutcomeIgnored, nil
	}
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("reconcile %s %s: %w", method, ev.ProviderID, err)
	}

	if ev.Transition == domain.TransitionNone {
		r.log.Info("webhook payload stored", "payment_id", rec.PaymentID, "type", ev.Type)
		return OutcomeIgnored, nil
	}
	r.log.Info("payment reconciled",
		"payment_id", rec.PaymentID,
		"order_id", rec.OrderID,
		"transition", ev.Transition.String(),
		"payment_status", rec.PaymentStatus,
		"order_status", rec.OrderStatus,
		"changed", rec.Changed,
	)
	return OutcomeOK, nil
}
