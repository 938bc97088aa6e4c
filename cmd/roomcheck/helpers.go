package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"roomcheck/internal/config"
	"roomcheck/internal/fileutil"
	"roomcheck/internal/imaging"
	"roomcheck/internal/inspection"
)

// parseIssueFlag reads "team:grade:title[:note]". The note may itself contain
// colons.
func parseIssueFlag(value string) (inspection.Draft, error) {
	parts := strings.SplitN(value, ":", 4)
	if len(parts) < 3 {
		return inspection.Draft{}, fmt.Errorf("issue %q: expected team:grade:title[:note]", value)
	}
	team, err := inspection.ParseTeam(parts[0])
	if err != nil {
		return inspection.Draft{}, fmt.Errorf("issue %q: %w", value, err)
	}
	grade, err := inspection.ParseGrade(parts[1])
	if err != nil {
		return inspection.Draft{}, fmt.Errorf("issue %q: %w", value, err)
	}
	d := inspection.FromCustom(team)
	d.Grade = grade
	d.Title = strings.TrimSpace(parts[2])
	if len(parts) == 4 {
		d.Note = strings.TrimSpace(parts[3])
	}
	return d, nil
}

// parseTemplateFlag reads "team:label[:note]" and takes the grade from the
// matching quick issue.
func parseTemplateFlag(value string) (inspection.Draft, error) {
	parts := strings.SplitN(value, ":", 3)
	if len(parts) < 2 {
		return inspection.Draft{}, fmt.Errorf("template %q: expected team:label[:note]", value)
	}
	team, err := inspection.ParseTeam(parts[0])
	if err != nil {
		return inspection.Draft{}, fmt.Errorf("template %q: %w", value, err)
	}
	label := strings.TrimSpace(parts[1])
	tpl, ok := inspection.FindTemplate(team, label)
	if !ok {
		return inspection.Draft{}, fmt.Errorf("template %q: no %s quick issue named %q (see `roomcheck templates`)", value, team, label)
	}
	d := inspection.FromTemplate(team, tpl.Label, tpl.Grade)
	if len(parts) == 3 {
		d.Note = strings.TrimSpace(parts[2])
	}
	return d, nil
}

// parseIndexed reads "N=value" with a 1-based N no larger than count.
func parseIndexed(value string, count int) (int, string, error) {
	idx, rest, ok := strings.Cut(value, "=")
	if !ok {
		return 0, "", fmt.Errorf("%q: expected N=value", value)
	}
	n, err := strconv.Atoi(strings.TrimSpace(idx))
	if err != nil || n < 1 || n > count {
		return 0, "", fmt.Errorf("%q: issue number must be between 1 and %d", value, count)
	}
	return n - 1, strings.TrimSpace(rest), nil
}

func parsePoint(value string) (imaging.Point, error) {
	xs, ys, ok := strings.Cut(value, ",")
	if !ok {
		return imaging.Point{}, fmt.Errorf("%q: expected x,y", value)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err := errors.Join(errX, errY); err != nil {
		return imaging.Point{}, fmt.Errorf("%q: %w", value, err)
	}
	return imaging.Point{X: x, Y: y}, nil
}

func readInputFile(path string) ([]byte, error) {
	expanded, err := config.ExpandPath(strings.TrimSpace(path))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", expanded, err)
	}
	return data, nil
}

// loadLastInspector returns the inspector of the previous successful submit, or
// "" when none was remembered.
func loadLastInspector(cfg *config.Config) string {
	data, err := os.ReadFile(cfg.LastInspectorPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveLastInspector(cfg *config.Config, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || name == loadLastInspector(cfg) {
		return nil
	}
	return fileutil.WriteFileAtomic(cfg.LastInspectorPath(), []byte(name+"\n"), 0o644)
}

func displayName(name, unfilled string) string {
	if strings.TrimSpace(name) == "" {
		return unfilled
	}
	return name
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
