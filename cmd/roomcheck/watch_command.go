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

	"roomcheck/internal/api"
	"roomcheck/internal/daemonctl"
	"roomcheck/internal/inspection"
)

const remoteRetryDelay = 2 * time.Second

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var remote bool
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the inspection history as it changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			if remote {
				client, err := ctx.client()
				if err != nil {
					return err
				}
				return watchRemote(runCtx, client, out, once)
			}
			return ctx.withLocal(cmd, func(env *localEnv) error {
				feed := env.adapter.Feed()
				defer feed.Close()
				for {
					select {
					case <-runCtx.Done():
						return nil
					case records, ok := <-feed.C():
						if !ok {
							return nil
						}
						printSnapshot(out, time.Now(), len(records), newestOf(api.FromRecords(records)))
						if once {
							return nil
						}
					}
				}
			})
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Follow a running daemon over its HTTP API")
	cmd.Flags().BoolVar(&once, "once", false, "Print the first snapshot and exit")
	return cmd
}

func watchRemote(ctx context.Context, client *daemonctl.Client, out io.Writer, once bool) error {
	var since uint64
	first := true
	for {
		snap, err := client.Snapshot(ctx, since, !first)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			if !errors.Is(err, daemonctl.ErrAPIUnavailable) {
				return err
			}
			fmt.Fprintf(out, "%s daemon unreachable, retrying\n", time.Now().Format(time.TimeOnly))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(remoteRetryDelay):
			}
			continue
		}
		if first || snap.Version != since {
			first = false
			since = snap.Version
			printSnapshot(out, time.Now(), len(snap.Records), newestOf(snap.Records))
			if once {
				return nil
			}
		}
	}
}

func newestOf(records []api.InspectionRecord) *api.InspectionRecord {
	if len(records) == 0 {
		return nil
	}
	return &records[0]
}

func printSnapshot(out io.Writer, now time.Time, count int, newest *api.InspectionRecord) {
	line := fmt.Sprintf("%s %d inspections", now.Format(time.TimeOnly), count)
	if newest != nil {
		result := "PASS"
		if newest.IssueCount > 0 {
			result = fmt.Sprintf("%d issues", newest.IssueCount)
			if newest.HasGradeA {
				result += " (" + string(inspection.GradeA) + ")"
			}
		}
		line += fmt.Sprintf("; latest room %s by %s, %s", newest.RoomID, truncate(newest.Inspector, 16), result)
	}
	fmt.Fprintln(out, line)
}
