package main

import (
	"fmt"

	"github.com/spf13/cobra"

	catalogapp "github.com/altiq/storefront/internal/catalog/application"
	catalogpg "github.com/altiq/storefront/internal/catalog/infrastructure/postgres"
	orderapp "github.com/altiq/storefront/internal/order/application"
	ordermail "github.com/altiq/storefront/internal/order/infrastructure/mail"
	orderpg "github.com/altiq/storefront/internal/order/infrastructure/postgres"
	"github.com/altiq/storefront/internal/platform/postgres"
	"github.com/altiq/storefront/pkg/outbox"
)

func migrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := e.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			return postgres.Migrate(cmd.Context(), e.log, pool)
		},
	}
}

func seedCmd(e *env) *cobra.Command {
	var testPrices bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create or update the default service packages",
		Long: `Upserts the basic, medium and master packages.

In test environments (ALTIQ_ENV=test or testing) every price is set to 1 MXN
so the full payment flow can be exercised with real gateways.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := e.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := catalogapp.NewService(catalogpg.NewRepository(e.log, pool))
			if err := svc.EnsureDefaults(cmd.Context(), testPrices || e.cfg.IsTest()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "packages seeded")
			return nil
		},
	}
	cmd.Flags().BoolVar(&testPrices, "test-prices", false, "force every price to the test amount")
	return cmd
}

func fulfillCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "fulfill <order-id>",
		Short: "Issue codes and send the confirmation email for a paid order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := e.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := orderpg.NewRepository(e.log, pool)
			mailer := ordermail.NewSender(e.log, ordermail.Config{
				Host:     e.cfg.SMTPHost,
				Port:     e.cfg.SMTPPort,
				Username: e.cfg.SMTPUsername,
				Password: e.cfg.SMTPPassword,
				From:     e.cfg.FromEmail,
			})
			outcome, err := orderapp.NewFulfillment(e.log, repo, mailer).Fulfill(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			codes, err := repo.Codes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s: %s\n", args[0], outcome)
			for _, c := range codes {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\t%s\n", c.PackageSlug, c.Code)
			}
			return nil
		},
	}
}

func outboxCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and drive the event outbox",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Dispatch pending outbox rows once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := e.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			writer := outbox.NewWriter(e.cfg.Brokers())
			defer writer.Close()
			relay := outbox.NewRelay(e.log, outbox.NewPGStore(e.log, pool), outbox.NewDispatcher(e.log, writer, e.cfg.EventsTopic), "storefrontctl")

			total := 0
			for {
				n, err := relay.Tick(cmd.Context())
				if err != nil {
					return err
				}
				if n == 0 {
					break
				}
				total += n
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dispatched %d events\n", total)
			return nil
		},
	})
	return cmd
}
