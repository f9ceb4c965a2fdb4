package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	catalog "github.com/altiq/storefront/internal/catalog/domain"
	"github.com/altiq/storefront/internal/order/application"
	"github.com/altiq/storefront/pkg/httpx"
)

type Checkout interface {
	Start(ctx context.Context, req application.CheckoutRequest) (application.CheckoutResult, error)
}

type Handler struct {
	log      *slog.Logger
	checkout Checkout
	tracer   trace.Tracer
}

func NewHandler(log *slog.Logger, checkout Checkout) *Handler {
	return &Handler{
		log:      log,
		checkout: checkout,
		tracer:   otel.Tracer("order-http"),
	}
}

// Routes serves the checkout endpoints. formLimit, when non-nil, wraps the
// form POST only.
func (h *Handler) Routes(formLimit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/success/", h.success)
	r.Get("/failure/", h.failure)
	r.Group(func(r chi.Router) {
		if formLimit != nil {
			r.Use(formLimit)
		}
		r.Post("/{slug}", h.start)
	})
	return r
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "StartCheckout")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return
	}
	req := application.CheckoutRequest{
		PackageSlug:   chi.URLParam(r, "slug"),
		CustomerName:  r.PostForm.Get("customer_name"),
		CompanyName:   r.PostForm.Get("company_name"),
		Email:         r.PostForm.Get("email"),
		Phone:         r.PostForm.Get("phone"),
		PaymentMethod: r.PostForm.Get("payment_method"),
	}

	res, err := h.checkout.Start(ctx, req)
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": verr.Fields})
		return
	case errors.Is(err, catalog.ErrPackageNotFound):
		httpx.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "package not found"})
		return
	case err != nil:
		h.log.Error("checkout failed", "slug", req.PackageSlug, "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	http.Redirect(w, r, res.RedirectURL, http.StatusSeeOther)
}

func (h *Handler) success(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Gracias por tu compra. Recibiras un correo de confirmacion en cuanto se acredite el pago.",
	})
}

func (h *Handler) failure(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "failure",
		"message": "No pudimos procesar el pago. Intenta de nuevo o elige otro metodo de pago.",
	})
}
