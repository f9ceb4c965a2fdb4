package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/altiq/storefront/internal/payment/application"
	"github.com/altiq/storefront/internal/payment/domain"
	"github.com/altiq/storefront/pkg/httpx"
)

const maxBodyBytes = 1 << 20

type Reconciler interface {
	Handle(ctx context.Context, method domain.Method, body []byte) (application.Outcome, error)
}

// Deduper short-circuits exact redeliveries of a webhook body and replays
// the outcome recorded for the first delivery.
type Deduper interface {
	DeliveryKey(provider string, body []byte) string
	Seen(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
	Remember(ctx context.Context, key, value string) error
	Recall(ctx context.Context, key string) (string, error)
}

type Handler struct {
	log        *slog.Logger
	reconciler Reconciler
	dedup      Deduper
	tracer     trace.Tracer
}

// NewHandler serves the provider webhooks. dedup may be nil.
func NewHandler(log *slog.Logger, reconciler Reconciler, dedup Deduper) *Handler {
	return &Handler{
		log:        log,
		reconciler: reconciler,
		dedup:      dedup,
		tracer:     otel.Tracer("payment-webhook-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/paypal/webhook/", h.webhook(domain.MethodPayPal))
	r.Post("/coinbase/webhook/", h.webhook(domain.MethodCoinbase))
	return r
}

func (h *Handler) webhook(method domain.Method) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.tracer.Start(r.Context(), "Webhook")
		defer span.End()

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		var key string
		if h.dedup != nil {
			key = h.dedup.DeliveryKey(string(method), body)
			seen, err := h.dedup.Seen(ctx, key)
			switch {
			case err != nil:
				h.log.Warn("webhook dedup unavailable", "method", method, "err", err)
				key = ""
			case seen:
				h.log.Info("duplicate webhook skipped", "method", method, "key", key)
				httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": string(h.recall(ctx, key))})
				return
			}
		}

		outcome, err := h.reconciler.Handle(ctx, method, body)
		if err != nil {
			h.release(ctx, key)
			if errors.Is(err, domain.ErrMalformedPayload) {
				http.Error(w, "malformed payload", http.StatusBadRequest)
				return
			}
			h.log.Error("webhook processing failed", "method", method, "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if key != "" {
			if err := h.dedup.Remember(ctx, key, string(outcome)); err != nil {
				h.log.Warn("webhook outcome not recorded", "key", key, "err", err)
			}
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": string(outcome)})
	}
}

func (h *Handler) release(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := h.dedup.Release(context.WithoutCancel(ctx), key); err != nil {
		h.log.Warn("webhook dedup release failed", "key", key, "err", err)
	}
}

// recall reports the first delivery's outcome. A delivery still in flight
// has no outcome yet and answers ok.
func (h *Handler) recall(ctx context.Context, key string) application.Outcome {
	v, err := h.dedup.Recall(ctx, key)
	if err != nil {
		h.log.Warn("webhook outcome lookup failed", "key", key, "err", err)
		return application.OutcomeOK
	}
	if application.Outcome(v) == application.OutcomeIgnored {
		return application.OutcomeIgnored
	}
	return application.OutcomeOK
}
