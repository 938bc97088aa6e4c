package analytics

import (
	"bufio"
	"io"
	"strings"
	"time"

	"roomcheck/internal/config"
	"roomcheck/internal/inspection"
	"roomcheck/internal/textutil"
)

const (
	passTitle = "無 (PASS)"
	photoYes  = "有"
	photoNo   = "否"
	bom       = "\uFEFF"
	// noteColumn is always quoted, matching exports produced before this tool.
	noteColumn = 8
)

// Header is the export column order.
var Header = []string{"日期", "房號", "查房員", "床組人員", "水組人員", "組別", "缺失項目", "等級", "備註", "有無照片"}

var teamLabels = map[inspection.Team]string{
	inspection.TeamBed:   "床組",
	inspection.TeamWater: "水組",
}

// ExportOptions controls how records are flattened into rows.
type ExportOptions struct {
	Location   *time.Location
	DateLayout string
	// Unfilled replaces blank crew names.
	Unfilled string
}

// DefaultExportOptions renders dates in Taipei time.
func DefaultExportOptions() ExportOptions {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		loc = time.FixedZone("CST", 8*60*60)
	}
	return ExportOptions{Location: loc, DateLayout: "2006/1/2", Unfilled: "未填寫"}
}

// ExportOptionsFromConfig reads the [export] section.
func ExportOptionsFromConfig(cfg *config.Config) ExportOptions {
	opts := DefaultExportOptions()
	opts.Location = cfg.ExportLocation()
	if label := cfg.Export.UnfilledLabel; label != "" {
		opts.Unfilled = label
	}
	return opts
}

func (o ExportOptions) date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	loc := o.Location
	if loc == nil {
		loc = time.UTC
	}
	layout := o.DateLayout
	if layout == "" {
		layout = "2006/1/2"
	}
	return t.In(loc).Format(layout)
}

func (o ExportOptions) staff(name string) string {
	if strings.TrimSpace(name) == "" {
		return o.Unfilled
	}
	return name
}

// Rows flattens records into export rows: one per defect entry, or a single
// PASS row for a record without entries.
func Rows(records []inspection.Record, opts ExportOptions) [][]string {
	var rows [][]string
	for _, r := range records {
		prefix := []string{
			opts.date(r.CreatedAt),
			r.RoomID,
			r.Inspector,
			opts.staff(r.BedStaff),
			opts.staff(r.WaterStaff),
		}
		if len(r.Issues) == 0 {
			rows = append(rows, append(prefix, "", passTitle, "", "", photoNo))
			continue
		}
		for _, e := range r.Issues {
			photo := photoNo
			if e.HasPhoto() {
				photo = photoYes
			}
			row := append([]string(nil), prefix...)
			rows = append(rows, append(row, teamLabels[e.Team], e.Title, string(e.Grade), e.Note, photo))
		}
	}
	return rows
}

// WriteCSV writes a BOM-prefixed CSV export. Fields containing a comma, quote
// or line break are quoted with inner quotes doubled; the note column is
// always quoted.
func WriteCSV(w io.Writer, records []inspection.Record, opts ExportOptions) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(bom); err != nil {
		return err
	}
	writeCSVRow(bw, Header, -1)
	for _, row := range Rows(records, opts) {
		writeCSVRow(bw, row, noteColumn)
	}
	return bw.Flush()
}

func writeCSVRow(w *bufio.Writer, fields []string, forceQuote int) {
	for i, field := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		if i == forceQuote || strings.ContainsAny(field, ",\"\r\n") {
			w.WriteByte('"')
			w.WriteString(strings.ReplaceAll(field, `"`, `""`))
			w.WriteByte('"')
			continue
		}
		w.WriteString(field)
	}
	w.WriteByte('\n')
}

// ExportFilename names an export file after its date, e.g.
// Inspection_2024-06-01.csv. The prefix is sanitized for the filesystem.
func ExportFilename(prefix string, now time.Time, ext string) string {
	prefix = textutil.SanitizeFileName(prefix)
	if prefix == "" {
		prefix = "Inspection"
	}
	ext = strings.TrimPrefix(ext, ".")
	return prefix + "_" + now.Format("2006-01-02") + "." + ext
}
