package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/altiq/storefront/internal/contact/application"
	"github.com/altiq/storefront/internal/contact/domain"
	"github.com/altiq/storefront/pkg/httpx"
	"github.com/altiq/storefront/pkg/validation"
)

type Submitter interface {
	SubmitQuote(ctx context.Context, f application.QuoteForm) (domain.QuoteRequest, error)
	SubmitMeeting(ctx context.Context, f application.MeetingForm) (domain.MeetingRequest, error)
}

type Handler struct {
	log    *slog.Logger
	svc    Submitter
	tracer trace.Tracer
}

func NewHandler(log *slog.Logger, svc Submitter) *Handler {
	return &Handler{log: log, svc: svc, tracer: otel.Tracer("contact-http")}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/quote", h.quote)
	r.Post("/meeting", h.meeting)
	return r
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmitQuote")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return
	}
	f := r.PostForm
	q, err := h.svc.SubmitQuote(ctx, application.QuoteForm{
		FullName:         f.Get("full_name"),
		CompanyName:      f.Get("company_name"),
		Email:            f.Get("email"),
		Phone:            f.Get("phone"),
		Industry:         f.Get("industry"),
		Location:         f.Get("location"),
		CurrentChallenge: f.Get("current_challenge"),
		DesiredOutcome:   f.Get("desired_outcome"),
	})
	if !h.writeError(w, err) {
		httpx.WriteJSON(w, http.StatusCreated, map[string]any{"id": q.ID, "status": "received"})
	}
}

func (h *Handler) meeting(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmitMeeting")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return
	}
	f := r.PostForm
	m, err := h.svc.SubmitMeeting(ctx, application.MeetingForm{
		FullName:           f.Get("full_name"),
		CompanyName:        f.Get("company_name"),
		Email:              f.Get("email"),
		Phone:              f.Get("phone"),
		MeetingType:        f.Get("meeting_type"),
		PreferredDate:      f.Get("preferred_date"),
		PreferredTimeRange: f.Get("preferred_time_range"),
		Notes:              f.Get("notes"),
	})
	if !h.writeError(w, err) {
		httpx.WriteJSON(w, http.StatusCreated, map[string]any{"id": m.ID, "status": "received", "meeting_type": m.MeetingType})
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": verr.Fields})
		return true
	}
	h.log.Error("contact request failed", "err", err)
	httpx.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	return true
}
