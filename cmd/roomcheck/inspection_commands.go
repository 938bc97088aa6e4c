package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"roomcheck/internal/analytics"
	"roomcheck/internal/api"
	"roomcheck/internal/imaging"
	"roomcheck/internal/inspection"
	"roomcheck/internal/logging"
	"roomcheck/internal/recordsync"
	"roomcheck/internal/refine"
)

type submitFlags struct {
	edit       string
	room       string
	inspector  string
	bed        string
	water      string
	templates  []string
	issues     []string
	photos     []string
	marks      []string
	removals   []string
	refine     bool
	jsonOutput bool
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var flags submitFlags
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Record a room inspection, or edit an existing one with --edit",
		Long: `Record a room inspection.

Issues come from quick templates (--template team:label[:note]) and free-form
entries (--issue team:grade:title[:note]). Issues are numbered from 1 in that
order, templates first; --photo N=path and --mark N=x,y refer to those numbers.
Marks use the photo's pixel coordinates after compression.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLocal(cmd, func(env *localEnv) error {
				return runSubmit(cmd, env, flags)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.edit, "edit", "", "Record id to replace")
	f.StringVar(&flags.room, "room", "", "Room number")
	f.StringVar(&flags.inspector, "inspector", "", "Inspector name")
	f.StringVar(&flags.bed, "bed", "", "Bed crew member")
	f.StringVar(&flags.water, "water", "", "Water crew member")
	f.StringArrayVar(&flags.templates, "template", nil, "Quick issue as team:label[:note] (repeatable)")
	f.StringArrayVar(&flags.issues, "issue", nil, "Custom issue as team:grade:title[:note] (repeatable)")
	f.StringArrayVar(&flags.photos, "photo", nil, "Attach a photo to issue N as N=path (repeatable)")
	f.StringArrayVar(&flags.marks, "mark", nil, "Circle a spot on issue N's photo as N=x,y (repeatable)")
	f.StringArrayVar(&flags.removals, "remove-issue", nil, "Entry id to drop when editing (repeatable)")
	f.BoolVar(&flags.refine, "refine", false, "Rewrite custom issue notes with the refinement model")
	f.BoolVar(&flags.jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runSubmit(cmd *cobra.Command, env *localEnv, flags submitFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	session := inspection.NewSession("", "")
	if id := strings.TrimSpace(flags.edit); id != "" {
		loaded, err := env.adapter.Load(ctx, id)
		if err != nil {
			return err
		}
		session = loaded
	}
	overwrite(&session.RoomID, flags.room)
	overwrite(&session.Inspector, flags.inspector)
	if strings.TrimSpace(session.Inspector) == "" {
		session.Inspector = loadLastInspector(env.cfg)
	}
	overwrite(&session.BedStaff, flags.bed)
	overwrite(&session.WaterStaff, flags.water)

	for _, id := range flags.removals {
		if !session.RemoveEntry(inspection.EntryID(strings.TrimSpace(id))) {
			return fmt.Errorf("entry %s is not part of this inspection", id)
		}
	}

	drafts, err := buildDrafts(flags)
	if err != nil {
		return err
	}

	imagingOpts, err := imaging.OptionsFromConfig(env.cfg.Imaging)
	if err != nil {
		return fmt.Errorf("imaging options: %w", err)
	}
	codec := imaging.NewCodec(imagingOpts)
	if err := attachPhotos(drafts, flags, codec); err != nil {
		return err
	}

	if flags.refine {
		gateway := refine.NewFromConfig(env.cfg, env.logger)
		for i := range drafts {
			if !drafts[i].IsCustom || strings.TrimSpace(drafts[i].Note) == "" {
				continue
			}
			refined, err := gateway.RefineDraft(ctx, drafts[i])
			if err != nil {
				logging.WarnWithContext(env.logger, "note refinement failed; keeping the original wording", "refine_failed",
					logging.Int("issue", i+1),
					logging.Error(err),
				)
				continue
			}
			drafts[i] = refined
		}
	}

	builder := inspection.NewBuilder()
	for i, d := range drafts {
		entry, err := builder.Finalize(d)
		if err != nil {
			return fmt.Errorf("issue %d: %w", i+1, err)
		}
		session.AddEntry(entry)
	}

	id, err := env.adapter.Submit(ctx, session)
	if err != nil {
		return err
	}
	if err := saveLastInspector(env.cfg, session.Inspector); err != nil {
		logging.WarnWithContext(env.logger, "could not remember the inspector", "last_inspector_write_failed",
			logging.String("path", env.cfg.LastInspectorPath()),
			logging.Error(err),
		)
	}
	if flags.jsonOutput {
		return writeJSON(cmd, api.SubmitResponse{ID: id, Created: !session.IsEdit()})
	}

	summary := session.Summarize()
	verb := "Recorded"
	if session.IsEdit() {
		verb = "Updated"
	}
	severity := ""
	if summary.HasSevere {
		severity = ", includes grade A"
	}
	fmt.Fprintf(out, "%s inspection %s for room %s (%d issues%s)\n", verb, id, session.RoomID, summary.IssueCount, severity)
	return nil
}

func overwrite(field *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*field = v
	}
}

func buildDrafts(flags submitFlags) ([]inspection.Draft, error) {
	drafts := make([]inspection.Draft, 0, len(flags.templates)+len(flags.issues))
	for _, value := range flags.templates {
		d, err := parseTemplateFlag(value)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	for _, value := range flags.issues {
		d, err := parseIssueFlag(value)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

func attachPhotos(drafts []inspection.Draft, flags submitFlags, codec *imaging.Codec) error {
	for _, value := range flags.photos {
		idx, path, err := parseIndexed(value, len(drafts))
		if err != nil {
			return fmt.Errorf("--photo %w", err)
		}
		raw, err := readInputFile(path)
		if err != nil {
			return err
		}
		photo, err := codec.Compress(raw)
		if err != nil {
			return fmt.Errorf("issue %d photo: %w", idx+1, err)
		}
		drafts[idx].AttachPhoto(photo)
	}
	for _, value := range flags.marks {
		idx, coords, err := parseIndexed(value, len(drafts))
		if err != nil {
			return fmt.Errorf("--mark %w", err)
		}
		at, err := parsePoint(coords)
		if err != nil {
			return fmt.Errorf("--mark %w", err)
		}
		if err := drafts[idx].Annotate(codec, at); err != nil {
			return fmt.Errorf("issue %d: %w", idx+1, err)
		}
	}
	return nil
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var month string
	var room string
	var limit int
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List inspections, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLocal(cmd, func(env *localEnv) error {
				records, err := env.adapter.Snapshot(cmd.Context())
				if err != nil {
					return err
				}
				records = selectRecords(records, month, room, limit)
				if jsonOutput {
					return writeJSON(cmd, api.SnapshotResponse{Records: api.FromRecords(records)})
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No inspections recorded")
					return nil
				}
				fmt.Fprint(out, renderHistory(records, analytics.ExportOptionsFromConfig(env.cfg), shouldColorize(out)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Only show one month (YYYY-MM)")
	cmd.Flags().StringVar(&room, "room", "", "Only show one room")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most N records")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func selectRecords(records []inspection.Record, month, room string, limit int) []inspection.Record {
	month = strings.TrimSpace(month)
	room = strings.TrimSpace(room)
	out := make([]inspection.Record, 0, len(records))
	for _, rec := range records {
		if month != "" && !analytics.InMonth(rec, month) {
			continue
		}
		if room != "" && rec.RoomID != room {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func renderHistory(records []inspection.Record, opts analytics.ExportOptions, colorize bool) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		issues := "PASS"
		if n := rec.DefectCount(); n > 0 {
			issues = strconv.Itoa(n)
			if rec.HasGradeA {
				issues = paint(issues+" (A)", ansiRed, colorize)
			}
		}
		rows = append(rows, []string{
			formatWhen(rec.CreatedAt, opts.Location),
			rec.RoomID,
			rec.Inspector,
			displayName(rec.BedStaff, opts.Unfilled),
			displayName(rec.WaterStaff, opts.Unfilled),
			issues,
			rec.ID,
		})
	}
	return renderTable(
		[]string{"When", "Room", "Inspector", "Bed", "Water", "Issues", "ID"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func formatWhen(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one inspection with its issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLocal(cmd, func(env *localEnv) error {
				rec, err := env.adapter.Get(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, api.RecordResponse{Record: api.FromRecord(rec)})
				}
				renderRecord(cmd.OutOrStdout(), rec, analytics.ExportOptionsFromConfig(env.cfg), shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderRecord(out io.Writer, rec inspection.Record, opts analytics.ExportOptions, colorize bool) {
	for _, line := range renderSectionHeader("Room "+rec.RoomID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "ID:         %s\n", rec.ID)
	fmt.Fprintf(out, "When:       %s\n", formatWhen(rec.CreatedAt, opts.Location))
	fmt.Fprintf(out, "Inspector:  %s\n", rec.Inspector)
	fmt.Fprintf(out, "Bed crew:   %s\n", displayName(rec.BedStaff, opts.Unfilled))
	fmt.Fprintf(out, "Water crew: %s\n", displayName(rec.WaterStaff, opts.Unfilled))
	fmt.Fprintf(out, "Severe:     %s\n", yesNo(rec.HasGradeA))
	fmt.Fprintln(out)
	if len(rec.Issues) == 0 {
		fmt.Fprintln(out, "No issues (PASS)")
		return
	}
	rows := make([][]string, 0, len(rec.Issues))
	for i, e := range rec.Issues {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(e.Team),
			e.Title,
			gradeLabel(e.Grade, colorize),
			e.Note,
			yesNo(e.HasPhoto()),
			string(e.ID),
		})
	}
	fmt.Fprint(out, renderTableSpec(tableSpec{
		headers: []string{"#", "Team", "Title", "Grade", "Note", "Photo", "Entry"},
		aligns:  []columnAlignment{alignRight},
		wrap:    []int{4},
	}, rows))
}

func newAssignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <id> <bed|water> <name>",
		Short: "Set the bed or water crew member on a recorded inspection",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := inspection.ParseSlot(args[1])
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 3 {
				name = args[2]
			}
			return ctx.withLocal(cmd, func(env *localEnv) error {
				if err := env.adapter.PatchStaff(cmd.Context(), strings.TrimSpace(args[0]), slot, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s crew on %s to %s\n", slot, args[0],
					displayName(strings.TrimSpace(name), analytics.ExportOptionsFromConfig(env.cfg).Unfilled))
				return nil
			})
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var passphrase string
	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete one inspection, or every inspection with --all",
		Args: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return errors.New("pass either an id or --all, not both")
			}
			if !all && len(args) != 1 {
				return errors.New("an inspection id is required (or --all)")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			typed := passphrase
			if !cmd.Flags().Changed("passphrase") {
				var err error
				typed, err = promptLine(cmd, "Enter the delete passphrase: ")
				if err != nil {
					return err
				}
			}
			return ctx.withLocal(cmd, func(env *localEnv) error {
				out := cmd.OutOrStdout()
				if all {
					n, err := env.adapter.DeleteAll(cmd.Context(), typed)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Deleted %d inspections\n", n)
					return nil
				}
				id := strings.TrimSpace(args[0])
				removed, err := env.adapter.DeleteOne(cmd.Context(), id, typed)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(out, "Inspection %s was already gone\n", id)
					return nil
				}
				fmt.Fprintf(out, "Deleted inspection %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Delete every inspection")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "Delete passphrase (prompted when omitted)")
	return cmd
}

func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", recordsync.ErrWrongPassphrase
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import inspections exported with `history --json`",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInputFile(args[0])
			if err != nil {
				return err
			}
			var payload api.SnapshotResponse
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			records := make([]inspection.Record, 0, len(payload.Records))
			for _, dto := range payload.Records {
				rec, err := api.ToRecord(dto)
				if err != nil {
					return err
				}
				records = append(records, rec)
			}
			return ctx.withLocal(cmd, func(env *localEnv) error {
				n, err := env.adapter.Import(cmd.Context(), records)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d inspections\n", n, len(records))
				return nil
			})
		},
	}
}
