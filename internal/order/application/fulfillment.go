package application

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/altiq/storefront/internal/order/domain"
)

// CodeLine is one package code listed in the confirmation email.
type CodeLine struct {
	PackageSlug string
	PackageName string
	Code        string
}

type FulfillOutcome string

const (
	FulfillSent        FulfillOutcome = "sent"
	FulfillAlreadySent FulfillOutcome = "already_sent"
	FulfillNoPackages  FulfillOutcome = "no_packages"
	FulfillNoEmail     FulfillOutcome = "no_email"
)

type Fulfillment struct {
	log    *slog.Logger
	repo   FulfillmentRepository
	mailer Mailer
	tracer trace.Tracer
}

func NewFulfillment(log *slog.Logger, repo FulfillmentRepository, mailer Mailer) *Fulfillment {
	return &Fulfillment{log: log, repo: repo, mailer: mailer, tracer: otel.Tracer("order-fulfillment")}
}

// Fulfill issues one code per distinct package of a paid order and sends a
// single confirmation email. The guard check, code creation, send and guard
// update all happen under the order row lock, so concurrent or repeated
// calls send at most one email. A send error rolls back the codes and
// leaves the guard unset.
func (f *Fulfillment) Fulfill(ctx context.Context, orderID string) (FulfillOutcome, error) {
	ctx, span := f.tracer.Start(ctx, "Fulfill", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	var outcome FulfillOutcome
	err := f.repo.WithLockedOrder(ctx, orderID, func(ctx context.Context, o domain.Order, tx FulfillmentTx) error {
		if o.Status != domain.StatusPaid {
			return fmt.Errorf("%w: status %s", domain.ErrOrderNotPaid, o.Status)
		}
		if o.Customer.Email == "" {
			outcome = FulfillNoEmail
			return nil
		}
		if o.ThankYouEmailSent {
			outcome = FulfillAlreadySent
			return nil
		}

		slugs := o.PackageSlugs()
		if len(slugs) == 0 {
			f.log.Warn("paid order has no packages", "order_id", o.ID)
			outcome = FulfillNoPackages
			return tx.MarkThankYouSent(ctx)
		}

		names, err := tx.PackageNames(ctx, slugs)
		if err != nil {
			return fmt.Errorf("package names: %w", err)
		}
		lines := make([]CodeLine, 0, len(slugs))
		for _, slug := range slugs {
			code, err := tx.GetOrCreateCode(ctx, slug, domain.GenerateCode(slug))
			if err != nil {
				return fmt.Errorf("code for %s: %w", slug, err)
			}
			name := names[slug]
			if name == "" {
				name = slug
			}
			lines = append(lines, CodeLine{PackageSlug: slug, PackageName: name, Code: code.Code})
		}

		if err := f.mailer.SendThankYou(ctx, o, lines); err != nil {
			return fmt.Errorf("send confirmation: %w", err)
		}
		outcome = FulfillSent
		return tx.MarkThankYouSent(ctx)
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	f.log.Info("order fulfilled", "order_id", orderID, "outcome", outcome)
	return outcome, nil
}
