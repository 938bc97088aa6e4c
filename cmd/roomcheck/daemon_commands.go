package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"roomcheck/internal/api"
	"roomcheck/internal/daemonctl"
	"roomcheck/internal/daemonrun"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the roomcheck daemon",
	}

	var runDevelopment bool
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := ""
			if ctx.logLevelFlag != nil {
				level = *ctx.logLevelFlag
			}
			return daemonrun.Run(cmd.Context(), ctx.configValue(), daemonrun.Options{
				LogLevel:    level,
				Development: runDevelopment,
			})
		},
	}
	runCmd.Flags().BoolVar(&runDevelopment, "dev", false, "Development logging with source locations")

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			cfg := ctx.configValue()
			running, err := daemonctl.Running(cfg)
			if err != nil {
				return err
			}
			if running {
				fmt.Fprintln(stdout, "Daemon already running")
				return nil
			}
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon not running, launching...")
			opts := daemonctl.LaunchOptions{ConfigPath: ctx.configPath()}
			if ctx.logLevelFlag != nil {
				opts.LogLevel = *ctx.logLevelFlag
			}
			if err := daemonctl.Launch(exe, opts); err != nil {
				return err
			}
			if _, err := daemonctl.WaitForClient(cmd.Context(), cfg, 10*time.Second); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon started")
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			pid, err := daemonctl.Stop(ctx.configValue(), 10*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Daemon stopped (pid %d)\n", pid)
			return nil
		},
	}

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and readiness checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			stdout := cmd.OutOrStdout()
			running, err := daemonctl.Running(cfg)
			if err != nil {
				return err
			}
			if !running {
				if statusJSON {
					return writeJSON(cmd, api.DaemonStatus{})
				}
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			if statusJSON {
				return writeJSON(cmd, status)
			}
			renderDaemonStatus(cmd, status)
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")

	daemonCmd.AddCommand(runCmd, startCmd, stopCmd, statusCmd)
	return daemonCmd
}

func renderDaemonStatus(cmd *cobra.Command, status api.DaemonStatus) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Process", statusOK, "pid "+strconv.Itoa(status.PID), colorize))
	storeKind, storeDetail := statusOK, status.StorePath
	if status.ReadOnly {
		storeKind, storeDetail = statusWarn, storeDetail+" (read-only)"
	}
	fmt.Fprintln(out, renderStatusLine("Store", storeKind, storeDetail, colorize))
	if status.Connected {
		who := status.UID
		if status.Anonymous {
			who += " (anonymous)"
		}
		fmt.Fprintln(out, renderStatusLine("Identity", statusOK, who, colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Identity", statusWarn, "not connected; writes refused", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Records", statusInfo, fmt.Sprintf("%d (snapshot v%d)", status.RecordCount, status.SnapshotVersion), colorize))
	refineKind, refineDetail := statusOK, "enabled"
	if !status.RefineEnabled {
		refineKind, refineDetail = statusInfo, "disabled (no llm.api_key)"
	}
	fmt.Fprintln(out, renderStatusLine("Refinement", refineKind, refineDetail, colorize))

	if len(status.Checks) == 0 {
		return
	}
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Readiness", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, c := range status.Checks {
		fmt.Fprintln(out, renderStatusLine(c.Name, checkKind(c.Passed), c.Detail, colorize))
	}
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}
