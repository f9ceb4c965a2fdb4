package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/altiq/storefront/internal/config"
	"github.com/altiq/storefront/internal/platform/postgres"
	"github.com/altiq/storefront/pkg/logging"
	"github.com/altiq/storefront/pkg/shutdown"
)

var Version = "dev"

// env is shared by every subcommand once the root PersistentPreRunE ran.
type env struct {
	cfg *config.Config
	log *slog.Logger
}

func (e *env) connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := postgres.Connect(ctx, e.cfg.PGURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

func main() {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	e := &env{}
	rootCmd := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Operator commands for the AltIQ storefront",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			e.cfg = cfg
			e.log = logging.New(cfg.LogLevel)
			return nil
		},
	}

	rootCmd.AddCommand(migrateCmd(e))
	rootCmd.AddCommand(seedCmd(e))
	rootCmd.AddCommand(fulfillCmd(e))
	rootCmd.AddCommand(outboxCmd(e))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
