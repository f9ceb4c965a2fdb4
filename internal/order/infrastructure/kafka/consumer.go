package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/altiq/storefront/internal/order/application"
	"github.com/altiq/storefront/internal/order/domain"
	payment "github.com/altiq/storefront/internal/payment/domain"
	"github.com/altiq/storefront/pkg/outbox"
	"github.com/altiq/storefront/pkg/tracing"
)

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Fulfiller interface {
	Fulfill(ctx context.Context, orderID string) (application.FulfillOutcome, error)
}

type Idempotency interface {
	Key(topic string, partition int, offset int64) string
	Seen(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Consumer runs fulfillment for every OrderPaid event on the payment topic.
// Run returns an error, leaving the message uncommitted, when fulfillment
// still fails after the last retry.
type Consumer struct {
	log      *slog.Logger
	reader   Reader
	svc      Fulfiller
	idem     Idempotency
	tracer   trace.Tracer
	attempts int
	backoff  time.Duration
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

func NewConsumer(log *slog.Logger, reader Reader, svc Fulfiller, idem Idempotency) *Consumer {
	return &Consumer{
		log:      log,
		reader:   reader,
		svc:      svc,
		idem:     idem,
		tracer:   otel.Tracer("fulfillment-consumer"),
		attempts: 3,
		backoff:  time.Second,
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.handle(ctx, msg); err != nil {
			// Uncommitted: the group resumes from this offset after restart.
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fulfillment stopped at offset %d: %w", msg.Offset, err)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.log.Error("commit failed", "topic", msg.Topic, "offset", msg.Offset, "err", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	if t := tracing.HeaderValue(msg.Headers, outbox.HeaderEventType); t != payment.EventOrderPaid {
		c.log.Debug("event skipped", "type", t, "offset", msg.Offset)
		return nil
	}

	key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
	seen, err := c.idem.Seen(ctx, key)
	if err != nil {
		c.log.Warn("idempotency check failed", "key", key, "err", err)
	} else if seen {
		c.log.Info("duplicate message skipped", "key", key)
		return nil
	}

	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "ConsumeOrderPaid")
	defer span.End()

	var event payment.OrderPaid
	if err := json.Unmarshal(msg.Value, &event); err != nil || event.OrderID == "" {
		c.log.Error("invalid OrderPaid payload", "offset", msg.Offset, "err", err)
		return nil
	}
	span.SetAttributes(attribute.String("order.id", event.OrderID))

	for attempt := 1; ; attempt++ {
		outcome, err := c.svc.Fulfill(msgCtx, event.OrderID)
		if err == nil {
			c.log.Info("fulfillment done", "order_id", event.OrderID, "outcome", outcome)
			return nil
		}
		if errors.Is(err, domain.ErrOrderNotFound) || errors.Is(err, domain.ErrOrderNotPaid) {
			c.log.Warn("fulfillment rejected", "order_id", event.OrderID, "err", err)
			return nil
		}
		if attempt >= c.attempts || !sleep(ctx, c.backoff*time.Duration(attempt)) {
			span.RecordError(err)
			c.log.Error("fulfillment failed", "order_id", event.OrderID, "attempts", attempt, "err", err)
			if rerr := c.idem.Release(context.WithoutCancel(ctx), key); rerr != nil {
				c.log.Warn("idempotency release failed", "key", key, "err", rerr)
			}
			return err
		}
		c.log.Warn("fulfillment retry", "order_id", event.OrderID, "attempt", attempt, "err", err)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
