package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"roomcheck/internal/api"
	"roomcheck/internal/notifications"
	"roomcheck/internal/refine"
)

func newRefineCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "refine <note>",
		Short: "Turn a rough defect note into a title, polished note and grade",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			gateway := refine.NewFromConfig(cfg, ctx.logger())
			suggestion, err := gateway.Refine(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, api.FromSuggestion(suggestion))
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Title: %s\n", suggestion.Title)
			fmt.Fprintf(out, "Grade: %s\n", gradeLabel(suggestion.Grade, colorize))
			fmt.Fprintf(out, "Note:  %s\n", suggestion.Note)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	var notify bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a markdown quality report over the most recent inspections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLocal(cmd, func(env *localEnv) error {
				records, err := env.adapter.Snapshot(cmd.Context())
				if err != nil {
					return err
				}
				report, err := refine.NewFromConfig(env.cfg, env.logger).DailyReport(cmd.Context(), records)
				if err != nil {
					return err
				}
				report = strings.TrimSpace(report)
				fmt.Fprintln(cmd.OutOrStdout(), report)
				if !notify {
					return nil
				}
				if strings.TrimSpace(env.cfg.Notifications.NtfyTopic) == "" {
					return fmt.Errorf("notifications.ntfy_topic is not configured")
				}
				err = notifications.NewService(env.cfg).Publish(cmd.Context(), notifications.EventDailyReport,
					notifications.Payload{"summary": report})
				if err != nil {
					return fmt.Errorf("publish report: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", false, "Also publish the report to the ntfy topic")
	return cmd
}
