package main

import (
	"log/slog"

	"github.com/couchcryptid/hydrogen-audit-service/internal/observability"
	"github.com/spf13/cobra"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	modelPath    string
	featuresPath string
	logLevel     string
	logFormat    string
}

func (o *rootOptions) logger() *slog.Logger {
	return observability.NewLogger(o.logLevel, o.logFormat)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "hydrocheck",
		Short:         "Audit reported hydrogen plant capacity against a trained model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.modelPath, "model", "artifacts/capacity_model.json", "model artifact path")
	pf.StringVar(&opts.featuresPath, "features", "artifacts/features.json", "feature list artifact path")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", "text", "log format (json, text)")

	cmd.AddCommand(newTrainCmd(opts), newCheckCmd(opts))
	return cmd
}
