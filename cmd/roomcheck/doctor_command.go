package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"roomcheck/internal/api"
	"roomcheck/internal/notifications"
	"roomcheck/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run readiness checks against the configured environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLocal(cmd, func(env *localEnv) error {
				results := preflight.RunAll(cmd.Context(), env.cfg, env.store)
				if jsonOutput {
					if err := writeJSON(cmd, api.FromChecks(results)); err != nil {
						return err
					}
				} else {
					out := cmd.OutOrStdout()
					colorize := shouldColorize(out)
					for _, line := range renderSectionHeader("Readiness", colorize) {
						fmt.Fprintln(out, line)
					}
					for _, r := range results {
						fmt.Fprintln(out, renderStatusLine(r.Name, checkKind(r.Passed), r.Detail, colorize))
					}
				}
				if failed := preflight.Failed(results); len(failed) > 0 {
					return fmt.Errorf("%d readiness checks failed", len(failed))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if cfg.Notifications.NtfyTopic == "" {
				return errors.New("notifications.ntfy_topic is not configured")
			}
			svc := notifications.NewService(cfg)
			if err := svc.Publish(cmd.Context(), notifications.EventTest, notifications.Payload{"message": "roomcheck notifications are working"}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
