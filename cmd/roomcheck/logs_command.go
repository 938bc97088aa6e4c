package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"roomcheck/internal/daemonctl"
	"roomcheck/internal/logs"
)

const followWait = 20 * time.Second

type logSource func(ctx context.Context, offset int64, limit int, wait bool) (logs.Chunk, error)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show roomcheckd log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			source := fileLogSource(logs.DaemonLogPath(cfg))
			if running, _ := daemonctl.Running(cfg); running {
				if client, err := ctx.client(); err == nil {
					source = apiLogSource(client)
				}
			}
			return streamLogs(runCtx, cmd.OutOrStdout(), source, lines, follow)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines as they are written")
	return cmd
}

func fileLogSource(path string) logSource {
	return func(ctx context.Context, offset int64, limit int, wait bool) (logs.Chunk, error) {
		opts := logs.Options{Offset: offset, Limit: limit}
		if wait {
			opts.Wait = followWait
		}
		return logs.Tail(ctx, path, opts)
	}
}

func apiLogSource(client *daemonctl.Client) logSource {
	return func(ctx context.Context, offset int64, limit int, wait bool) (logs.Chunk, error) {
		resp, err := client.Logs(ctx, offset, limit, wait)
		if err != nil {
			return logs.Chunk{}, err
		}
		return logs.Chunk{Lines: resp.Lines, Offset: resp.Offset}, nil
	}
}

func streamLogs(ctx context.Context, out io.Writer, source logSource, lines int, follow bool) error {
	if lines <= 0 {
		lines = 50
	}
	chunk, err := source(ctx, -1, lines, false)
	if err != nil {
		return fmt.Errorf("read logs: %w", err)
	}
	for _, line := range chunk.Lines {
		fmt.Fprintln(out, line)
	}
	if !follow {
		return nil
	}
	offset := chunk.Offset
	for {
		chunk, err = source(ctx, offset, 0, true)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if errors.Is(err, daemonctl.ErrAPIUnavailable) {
				return fmt.Errorf("daemon went away: %w", err)
			}
			return fmt.Errorf("read logs: %w", err)
		}
		for _, line := range chunk.Lines {
			fmt.Fprintln(out, line)
		}
		offset = chunk.Offset
	}
}
