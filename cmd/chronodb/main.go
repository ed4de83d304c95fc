// chronodb serves and inspects hypertable chunk pruning plans.
package main

import (
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
)

var verbose bool

func newLogger() log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	if verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	return log.With(logger, "ts", log.DefaultTimestampUTC)
}

func main() {
	root := &cobra.Command{
		Use:           "chronodb",
		Short:         "Hypertable chunk pruning service and tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newPruneCmd())
	root.AddCommand(newSnapshotCmd())

	if err := root.Execute(); err != nil {
		level.Error(newLogger()).Log("err", err)
		os.Exit(1)
	}
}
