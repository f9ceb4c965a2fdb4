package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/altiq/storefront/internal/config"
	orderapp "github.com/altiq/storefront/internal/order/application"
	orderkafka "github.com/altiq/storefront/internal/order/infrastructure/kafka"
	ordermail "github.com/altiq/storefront/internal/order/infrastructure/mail"
	orderpg "github.com/altiq/storefront/internal/order/infrastructure/postgres"
	"github.com/altiq/storefront/internal/platform/postgres"
	"github.com/altiq/storefront/pkg/idempotency"
	"github.com/altiq/storefront/pkg/logging"
	"github.com/altiq/storefront/pkg/shutdown"
	"github.com/altiq/storefront/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "fulfillment-worker", cfg.OTELEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	pool, err := postgres.Connect(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	idem := idempotency.NewStore(rdb, cfg.ConsumerDedupTTL)

	mailer := ordermail.NewSender(log, ordermail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.FromEmail,
	})
	svc := orderapp.NewFulfillment(log, orderpg.NewRepository(log, pool), mailer)

	reader := orderkafka.NewReader(cfg.Brokers(), cfg.EventsTopic, "fulfillment-worker")
	consumer := orderkafka.NewConsumer(log, reader, svc, idem)

	log.Info("fulfillment worker started", "topic", cfg.EventsTopic)
	if err := consumer.Run(ctx); err != nil {
		log.Error("consumer stopped", "err", err)
		os.Exit(1)
	}
	log.Info("fulfillment worker shutdown")
}
