// Package refine turns an inspector's shorthand note into a polished defect
// entry and writes the daily quality report, both through a text oracle.
//
// Refinement is best-effort. Any failure surfaces as ErrUnavailable and the
// caller's draft is never modified on that path.
package refine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"roomcheck/internal/analytics"
	"roomcheck/internal/config"
	"roomcheck/internal/inspection"
	"roomcheck/internal/language"
	"roomcheck/internal/logging"
	"roomcheck/internal/services/llm"
)

// ReportWindow is how many of the most recent records the daily report reads.
const ReportWindow = 30

// ErrUnavailable covers an unreachable oracle, an error status and a reply
// that does not parse into a suggestion.
var ErrUnavailable = errors.New("refinement unavailable")

// Oracle is the text-generation capability.
type Oracle interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Suggestion is the oracle's rewrite of a note.
type Suggestion struct {
	Title string           `json:"title"`
	Note  string           `json:"note"`
	Grade inspection.Grade `json:"grade"`
}

// Options configures a Gateway.
type Options struct {
	Language     string
	PropertyName string
	Timeout      time.Duration
	Logger       *slog.Logger
}

// Gateway wraps an Oracle with the prompts and the failure policy.
type Gateway struct {
	oracle   Oracle
	language string
	property string
	timeout  time.Duration
	logger   *slog.Logger
}

// New builds a gateway over oracle.
func New(oracle Oracle, opts Options) *Gateway {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if strings.TrimSpace(opts.Language) == "" {
		opts.Language = "zh-TW"
	}
	if strings.TrimSpace(opts.PropertyName) == "" {
		opts.PropertyName = "the hotel"
	}
	return &Gateway{
		oracle:   oracle,
		language: language.PromptName(opts.Language),
		property: opts.PropertyName,
		timeout:  opts.Timeout,
		logger:   logging.NewComponentLogger(opts.Logger, "refine"),
	}
}

// NewFromConfig builds a gateway backed by the configured LLM endpoint.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Gateway {
	return New(llm.NewClient(llm.ConfigFrom(cfg)), Options{
		Language:     cfg.LLM.Language,
		PropertyName: cfg.LLM.PropertyName,
		Timeout:      time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		Logger:       logger,
	})
}

// Refine asks the oracle to rewrite note as a professional defect entry.
func (g *Gateway) Refine(ctx context.Context, note string) (Suggestion, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return Suggestion{}, fmt.Errorf("%w: empty note", ErrUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	content, err := g.oracle.CompleteJSON(ctx, g.refinePrompt(), "Inspector note:\n"+note)
	if err != nil {
		return Suggestion{}, g.unavailable("refine", err)
	}
	var raw struct {
		Title string `json:"title"`
		Note  string `json:"note"`
		Grade string `json:"grade"`
	}
	if err := llm.DecodeLLMJSON(content, &raw); err != nil {
		return Suggestion{}, g.unavailable("refine", fmt.Errorf("parse suggestion: %w", err))
	}
	grade, err := inspection.ParseGrade(raw.Grade)
	if err != nil {
		return Suggestion{}, g.unavailable("refine", err)
	}
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return Suggestion{}, g.unavailable("refine", inspection.ErrEmptyTitle)
	}
	return Suggestion{Title: title, Note: strings.TrimSpace(raw.Note), Grade: grade}, nil
}

// RefineDraft applies a suggestion for the draft's note. On failure the
// original draft is returned untouched alongside the error.
func (g *Gateway) RefineDraft(ctx context.Context, d inspection.Draft) (inspection.Draft, error) {
	s, err := g.Refine(ctx, d.Note)
	if err != nil {
		return d, err
	}
	d.Title = s.Title
	d.Note = s.Note
	d.Grade = s.Grade
	return d, nil
}

// DailyReport writes a markdown quality report over the most recent records.
// records must be newest first.
func (g *Gateway) DailyReport(ctx context.Context, records []inspection.Record) (string, error) {
	digest := analytics.RecentDigest(records, ReportWindow)
	if len(digest) == 0 {
		return "", fmt.Errorf("%w: no records to report on", ErrUnavailable)
	}
	data, err := json.Marshal(digest)
	if err != nil {
		return "", fmt.Errorf("encode digest: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	report, err := g.oracle.CompleteText(ctx, g.reportPrompt(), "Inspection data:\n"+string(data))
	if err != nil {
		return "", g.unavailable("daily report", err)
	}
	return report, nil
}

func (g *Gateway) unavailable(op string, err error) error {
	logging.WarnWithContext(g.logger, op+" failed", "oracle_unavailable",
		logging.Error(err),
		logging.String(logging.FieldImpact, "entry left as typed"),
		logging.String(logging.FieldErrorHint, "check [llm] api_key and model"),
	)
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func (g *Gateway) refinePrompt() string {
	return fmt.Sprintf(`You are a professional housekeeping inspector at %s.
Rewrite the inspector's note as a professional defect description and judge its severity.
Grades: A = room fails inspection, B = 10 point deduction, C = 2 to 5 point deduction.
Write title and note in %s. The title is a short defect label.
Respond with JSON only: {"title": "...", "note": "...", "grade": "A"|"B"|"C"}`, g.property, g.language)
}

func (g *Gateway) reportPrompt() string {
	return fmt.Sprintf(`You are the housekeeping manager at %s.
Write a daily housekeeping quality report from the inspection data. Each item lists a room and its defects as title(grade), or PASS.
Include three sections: today's overview, key defects, improvement suggestions.
Use Markdown. Write in %s.`, g.property, g.language)
}
