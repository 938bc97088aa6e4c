package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"roomcheck/internal/config"
	"roomcheck/internal/daemonrun"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var configPath string
	var opts daemonrun.Options

	cmd := &cobra.Command{
		Use:           "roomcheckd",
		Short:         "Serve inspection records over HTTP",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return daemonrun.Run(cmd.Context(), cfg, opts)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Override logging.level")
	cmd.Flags().BoolVar(&opts.Development, "dev", false, "Development logging with source locations")
	return cmd
}
