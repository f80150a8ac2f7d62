package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"TrendWatch/internal/app"
	"TrendWatch/internal/config"
	"TrendWatch/internal/logging"
)

// errRunFailed is returned after the failure was already logged.
var errRunFailed = errors.New("run failed")

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "trendwatch",
		Short:         "Fetch trending posts, render a digest and post it to a webhook",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if configFlag != "" {
				cfg = config.LoadFrom(configFlag)
			}
			logger := logging.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := app.New(cfg, logger).Run(ctx); err != nil {
				logger.Error("application stopped", "error", err)
				return errRunFailed
			}
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (overrides TRENDWATCH_CONFIG)")

	return rootCmd
}
