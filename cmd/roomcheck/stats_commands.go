package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"roomcheck/internal/analytics"
	"roomcheck/internal/api"
	"roomcheck/internal/config"
	"roomcheck/internal/fileutil"
	"roomcheck/internal/inspection"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var month string
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show monthly inspection statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLocal(cmd, func(env *localEnv) error {
				records, err := env.adapter.Snapshot(cmd.Context())
				if err != nil {
					return err
				}
				key := resolveMonth(month, time.Now().In(env.cfg.ExportLocation()))
				stats := analytics.MonthlyStats(records, key)
				if jsonOutput {
					return writeJSON(cmd, api.StatsResponse{Stats: stats})
				}
				renderStats(cmd, stats)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default current month, \"all\" for every record)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// resolveMonth defaults to the current month; "all" selects every record.
func resolveMonth(month string, now time.Time) string {
	month = strings.TrimSpace(month)
	switch {
	case month == "":
		return inspection.MonthKey(now)
	case strings.EqualFold(month, "all"):
		return ""
	default:
		return month
	}
}

func renderStats(cmd *cobra.Command, stats analytics.Stats) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	title := "All months"
	if stats.Month != "" {
		title = stats.Month
	}
	for _, line := range renderSectionHeader("Inspections "+title, colorize) {
		fmt.Fprintln(out, line)
	}
	failedKind := statusOK
	if stats.FailedRooms > 0 {
		failedKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Rooms inspected", statusInfo, strconv.Itoa(stats.Inspected), colorize))
	fmt.Fprintln(out, renderStatusLine("Total defects", statusInfo, strconv.Itoa(stats.TotalDefects), colorize))
	fmt.Fprintln(out, renderStatusLine("Rooms with grade A", failedKind, strconv.Itoa(stats.FailedRooms), colorize))
	fmt.Fprintln(out, renderStatusLine("Anomaly rate", statusInfo, fmt.Sprintf("%.1f%%", stats.AnomalyRate*100), colorize))
	fmt.Fprintln(out)

	if len(stats.TopDefects) == 0 {
		fmt.Fprintln(out, "No defects recorded")
		return
	}
	rows := make([][]string, 0, len(stats.TopDefects))
	for i, tc := range stats.TopDefects {
		rows = append(rows, []string{strconv.Itoa(i + 1), tc.Title, strconv.Itoa(tc.Count)})
	}
	fmt.Fprint(out, renderTable([]string{"#", "Defect", "Count"}, rows, []columnAlignment{alignRight, alignLeft, alignRight}))
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var format string
	var month string
	var outputDir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export inspections to CSV or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("unsupported export format %q (use csv or xlsx)", format)
			}
			return ctx.withLocal(cmd, func(env *localEnv) error {
				records, err := env.adapter.Snapshot(cmd.Context())
				if err != nil {
					return err
				}
				if m := strings.TrimSpace(month); m != "" && !strings.EqualFold(m, "all") {
					records = selectRecords(records, m, "", 0)
				}
				path, err := writeExport(env.cfg, records, format, outputDir, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d inspections to %s\n", len(records), path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Export format: csv or xlsx")
	cmd.Flags().StringVar(&month, "month", "", "Only export one month (YYYY-MM)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory to write the file into")
	return cmd
}

func writeExport(cfg *config.Config, records []inspection.Record, format, dir string, now time.Time) (string, error) {
	opts := analytics.ExportOptionsFromConfig(cfg)
	var buf bytes.Buffer
	var err error
	switch format {
	case "xlsx":
		err = analytics.WriteXLSX(&buf, records, opts)
	default:
		err = analytics.WriteCSV(&buf, records, opts)
	}
	if err != nil {
		return "", fmt.Errorf("render %s: %w", format, err)
	}

	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	expanded, err := config.ExpandPath(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(expanded, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(expanded, analytics.ExportFilename(cfg.Export.FilenamePrefix, now.In(opts.Location), format))
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
