package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/altiq/storefront/internal/catalog/domain"
	"github.com/altiq/storefront/pkg/httpx"
)

type Lister interface {
	ListActive(ctx context.Context) ([]domain.Package, error)
}

type Handler struct {
	log     *slog.Logger
	catalog Lister
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, catalog Lister) *Handler {
	return &Handler{
		log:     log,
		catalog: catalog,
		tracer:  otel.Tracer("catalog-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listPackages)
	return r
}

func (h *Handler) listPackages(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListPackages")
	defer span.End()

	pkgs, err := h.catalog.ListActive(ctx)
	if err != nil {
		h.log.Error("list packages failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if pkgs == nil {
		pkgs = []domain.Package{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"packages": pkgs})
}
