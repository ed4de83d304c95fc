package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/chronodb/chronodb/internal/config"
	"github.com/chronodb/chronodb/internal/predicate"
	"github.com/chronodb/chronodb/internal/server"
)

func newPruneCmd() *cobra.Command {
	var (
		schemaPath string
		sqlitePath string
		table      string
		where      string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Resolve a WHERE clause to the surviving chunks of one hypertable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, closeCat, err := openCatalog(&config.CatalogConfig{
				SQLitePath: sqlitePath,
				SchemaPath: schemaPath,
			})
			if err != nil {
				return err
			}
			defer closeCat()

			var preds []predicate.Comparison
			if where != "" {
				preds, err = predicate.ParseWhere(where)
				if err != nil {
					return err
				}
			}

			plan, err := server.BuildPlan(cmd.Context(), cat, table, preds, newLogger())
			if err != nil {
				return err
			}

			if server.ParseFormat(format) == server.FormatJSON {
				return server.WritePlanJSON(os.Stdout, plan)
			}
			return server.WritePlanText(os.Stdout, plan)
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "catalog schema file (in-memory catalog)")
	cmd.Flags().StringVar(&sqlitePath, "db", "", "catalog SQLite database")
	cmd.Flags().StringVarP(&table, "table", "t", "", "hypertable name")
	cmd.Flags().StringVarP(&where, "where", "w", "", "WHERE clause")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	cmd.MarkFlagRequired("table")
	return cmd
}
