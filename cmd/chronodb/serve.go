package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chronodb/chronodb/internal/catalog"
	"github.com/chronodb/chronodb/internal/config"
	"github.com/chronodb/chronodb/internal/server"
)

// openCatalog builds the configured catalog backend. The returned closer is
// a no-op for the in-memory catalog.
func openCatalog(cfg *config.CatalogConfig) (catalog.Catalog, func() error, error) {
	switch {
	case cfg.SQLitePath != "":
		db, err := catalog.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case cfg.SchemaPath != "":
		schema, err := config.LoadSchema(cfg.SchemaPath)
		if err != nil {
			return nil, nil, err
		}
		mem, err := config.BuildCatalog(schema)
		if err != nil {
			return nil, nil, err
		}
		return mem, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("no catalog backend configured")
	}
}

func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pruning HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}

			cat, closeCat, err := openCatalog(&cfg.Catalog)
			if err != nil {
				return err
			}
			defer closeCat()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.NewServer(cat, cfg.ListenAddr, newLogger()).Start(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "chronodb.yaml", "server config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
