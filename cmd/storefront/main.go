package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	catalogapp "github.com/altiq/storefront/internal/catalog/application"
	cataloghttp "github.com/altiq/storefront/internal/catalog/infrastructure/http"
	catalogpg "github.com/altiq/storefront/internal/catalog/infrastructure/postgres"
	"github.com/altiq/storefront/internal/config"
	contactapp "github.com/altiq/storefront/internal/contact/application"
	contacthttp "github.com/altiq/storefront/internal/contact/infrastructure/http"
	contactpg "github.com/altiq/storefront/internal/contact/infrastructure/postgres"
	orderapp "github.com/altiq/storefront/internal/order/application"
	orderhttp "github.com/altiq/storefront/internal/order/infrastructure/http"
	orderpg "github.com/altiq/storefront/internal/order/infrastructure/postgres"
	paymentapp "github.com/altiq/storefront/internal/payment/application"
	"github.com/altiq/storefront/internal/payment/gateway"
	"github.com/altiq/storefront/internal/payment/gateway/coinbase"
	"github.com/altiq/storefront/internal/payment/gateway/paypal"
	paymenthttp "github.com/altiq/storefront/internal/payment/infrastructure/http"
	paymentpg "github.com/altiq/storefront/internal/payment/infrastructure/postgres"
	"github.com/altiq/storefront/internal/platform/postgres"
	"github.com/altiq/storefront/pkg/httpx"
	"github.com/altiq/storefront/pkg/idempotency"
	"github.com/altiq/storefront/pkg/logging"
	"github.com/altiq/storefront/pkg/outbox"
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

	tp, err := tracing.Init(ctx, "storefront", cfg.OTELEndpoint, log)
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

	if err := postgres.Migrate(ctx, log, pool); err != nil {
		log.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	catalog := catalogapp.NewService(catalogpg.NewRepository(log, pool))
	if err := catalog.EnsureDefaults(ctx, cfg.IsTest()); err != nil {
		log.Error("seed packages failed", "err", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	idem := idempotency.NewStore(rdb, cfg.WebhookDedupTTL)

	gateways := gateway.NewRegistry(
		paypal.New(log, paypal.Config{
			ClientID:     cfg.PayPalClientID,
			ClientSecret: cfg.PayPalClientSecret,
			Live:         cfg.PayPalLive(),
			Timeout:      cfg.GatewayTimeout,
		}),
		coinbase.New(log, coinbase.Config{
			APIKey:  cfg.CoinbaseAPIKey,
			Timeout: cfg.GatewayTimeout,
		}),
	)

	checkout := orderapp.NewCheckout(log, catalog, orderpg.NewRepository(log, pool), gateways, cfg.BaseURL)
	reconciler := paymentapp.NewReconciler(log, paymentpg.NewRepository(log, pool))
	contact := contactapp.NewService(log, contactpg.NewRepository(log, pool))
	limiter := httpx.NewRateLimiter(cfg.FormRateRPS, cfg.FormRateBurst)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Mount("/services", cataloghttp.NewHandler(log, catalog).Routes())
	r.Mount("/checkout", orderhttp.NewHandler(log, checkout).Routes(limiter.Middleware))
	r.Mount("/payments", paymenthttp.NewHandler(log, reconciler, idem).Routes())
	r.Mount("/contact", limiter.Middleware(contacthttp.NewHandler(log, contact).Routes()))

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2*cfg.GatewayTimeout + 5*time.Second,
	}

	// Outbox relay publishes OrderPaid events for the fulfillment worker.
	writer := outbox.NewWriter(cfg.Brokers())
	defer writer.Close()
	relay := outbox.NewRelay(log, outbox.NewPGStore(log, pool), outbox.NewDispatcher(log, writer, cfg.EventsTopic), "storefront-relay")
	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("storefront shutdown complete")
}
