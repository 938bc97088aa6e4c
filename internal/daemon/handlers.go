package daemon

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"roomcheck/internal/analytics"
	"roomcheck/internal/api"
	"roomcheck/internal/imaging"
	"roomcheck/internal/inspection"
	"roomcheck/internal/logging"
	"roomcheck/internal/logs"
	"roomcheck/internal/notifications"
	"roomcheck/internal/refine"
	"roomcheck/internal/roster"
)

func (s *apiServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Status())
}

// handleSnapshot returns the latest snapshot. With wait=1 and a since
// version the request blocks until a newer snapshot exists or the poll
// window closes, in which case the current snapshot is returned unchanged.
func (s *apiServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	wait := query.Get("wait") == "1" || strings.EqualFold(query.Get("wait"), "true")

	var (
		version uint64
		records []inspection.Record
	)
	if wait {
		ctx, cancel := context.WithTimeout(r.Context(), maxLongPoll)
		version, records, _ = s.daemon.cache.wait(ctx, since)
		cancel()
	} else {
		version, records = s.daemon.cache.current()
	}

	if month := strings.TrimSpace(query.Get("month")); month != "" {
		records = filterMonth(records, month)
	}
	s.writeJSON(w, http.StatusOK, api.SnapshotResponse{Version: version, Records: api.FromRecords(records)})
}

func (s *apiServer) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := s.daemon.adapter.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, "get inspection", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.RecordResponse{Record: api.FromRecord(record)})
}

// handleSubmit serves both POST (new inspection) and PUT (edit in place).
func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitRequest
	if !s.decode(w, r, &req) {
		return
	}
	if id := r.PathValue("id"); id != "" {
		req.ID = id
	}

	session := inspection.NewSession("", "")
	if req.ID != "" {
		loaded, err := s.daemon.adapter.Load(r.Context(), req.ID)
		if err != nil {
			s.writeFailure(w, r, "load inspection", err)
			return
		}
		session = loaded
	}
	if err := api.ApplySubmit(session, req, inspection.NewBuilder()); err != nil {
		s.writeFailure(w, r, "submit inspection", err)
		return
	}

	id, err := s.daemon.adapter.Submit(r.Context(), session)
	if err != nil {
		s.writeFailure(w, r, "submit inspection", err)
		return
	}
	logging.WithContext(r.Context(), s.log()).Info("inspection submitted",
		logging.String(logging.FieldRoomID, session.RoomID),
		logging.String("record_id", id),
		logging.Int("issues", len(session.Entries)),
		logging.Bool("edit", session.IsEdit()),
	)
	status := http.StatusOK
	if !session.IsEdit() {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, api.SubmitResponse{ID: id, Created: !session.IsEdit()})
}

func (s *apiServer) handlePatchStaff(w http.ResponseWriter, r *http.Request) {
	var req api.StaffPatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	slot, err := inspection.ParseSlot(req.Slot)
	if err != nil {
		s.writeFailure(w, r, "patch staff", err)
		return
	}
	if err := s.daemon.adapter.PatchStaff(r.Context(), r.PathValue("id"), slot, strings.TrimSpace(req.Name)); err != nil {
		s.writeFailure(w, r, "patch staff", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	removed, err := s.daemon.adapter.DeleteOne(r.Context(), r.PathValue("id"), r.Header.Get(api.HeaderPassphrase))
	if err != nil {
		s.writeFailure(w, r, "delete inspection", err)
		return
	}
	deleted := 0
	if removed {
		deleted = 1
	}
	s.writeJSON(w, http.StatusOK, api.DeleteResponse{Deleted: deleted})
}

func (s *apiServer) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := s.daemon.adapter.DeleteAll(r.Context(), r.Header.Get(api.HeaderPassphrase))
	if err != nil {
		s.writeFailure(w, r, "delete all inspections", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.DeleteResponse{Deleted: n})
}

// monthParam reads ?month=, defaulting to the current month. "all" selects
// every record.
func monthParam(r *http.Request, now time.Time) string {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	switch {
	case month == "":
		return inspection.MonthKey(now)
	case strings.EqualFold(month, "all"):
		return ""
	default:
		return month
	}
}

func filterMonth(records []inspection.Record, month string) []inspection.Record {
	if strings.EqualFold(month, "all") {
		return records
	}
	out := make([]inspection.Record, 0, len(records))
	for _, rec := range records {
		if analytics.InMonth(rec, month) {
			out = append(out, rec)
		}
	}
	return out
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	_, records := s.daemon.cache.current()
	stats := analytics.MonthlyStats(records, monthParam(r, time.Now()))
	s.writeJSON(w, http.StatusOK, api.StatsResponse{Stats: stats})
}

func (s *apiServer) handleExport(w http.ResponseWriter, r *http.Request) {
	_, records := s.daemon.cache.current()
	if month := strings.TrimSpace(r.URL.Query().Get("month")); month != "" {
		records = filterMonth(records, month)
	}

	cfg := s.daemon.cfg
	opts := analytics.ExportOptionsFromConfig(cfg)
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "csv"
	}

	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case "csv":
		contentType = "text/csv; charset=utf-8"
		err = analytics.WriteCSV(&buf, records, opts)
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = analytics.WriteXLSX(&buf, records, opts)
	default:
		s.writeError(w, http.StatusBadRequest, "validation", fmt.Sprintf("unsupported export format %q", format))
		return
	}
	if err != nil {
		s.writeFailure(w, r, "export", err)
		return
	}

	name := analytics.ExportFilename(cfg.Export.FilenamePrefix, time.Now().In(opts.Location), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

func (s *apiServer) handleRefine(w http.ResponseWriter, r *http.Request) {
	var req api.RefineRequest
	if !s.decode(w, r, &req) {
		return
	}
	suggestion, err := s.daemon.refiner.Refine(r.Context(), req.Note)
	if err != nil {
		s.writeFailure(w, r, "refine", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSuggestion(suggestion))
}

func (s *apiServer) handleReport(w http.ResponseWriter, r *http.Request) {
	_, records := s.daemon.cache.current()
	report, err := s.daemon.refiner.DailyReport(r.Context(), records)
	if err != nil {
		s.writeFailure(w, r, "daily report", err)
		return
	}
	used := min(len(records), refine.ReportWindow)
	if r.URL.Query().Get("notify") == "1" {
		if err := s.daemon.notifier.Publish(r.Context(), notifications.EventDailyReport, notifications.Payload{"summary": report}); err != nil {
			logging.WarnWithContext(logging.WithContext(r.Context(), s.log()), "report notification failed", "notification_failed",
				logging.Error(err),
			)
		}
	}
	s.writeJSON(w, http.StatusOK, api.ReportResponse{Markdown: report, Records: used})
}

func (s *apiServer) handleRoster(w http.ResponseWriter, r *http.Request) {
	list, err := s.daemon.roster.Load(r.Context())
	if err != nil {
		s.writeFailure(w, r, "load roster", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.RosterResponse{Bed: list.Bed, Water: list.Water})
}

func (s *apiServer) handleRosterAdd(w http.ResponseWriter, r *http.Request) {
	var req api.RosterRequest
	if !s.decode(w, r, &req) {
		return
	}
	target, err := roster.ParseTarget(req.Slot)
	if err != nil {
		s.writeFailure(w, r, "add staff", err)
		return
	}
	list, err := s.daemon.roster.Add(r.Context(), req.Name, target)
	if err != nil {
		s.writeFailure(w, r, "add staff", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.RosterResponse{Bed: list.Bed, Water: list.Water})
}

func (s *apiServer) handleRosterRemove(w http.ResponseWriter, r *http.Request) {
	list, err := s.daemon.roster.Remove(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeFailure(w, r, "remove staff", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.RosterResponse{Bed: list.Bed, Water: list.Water})
}

// handleLogs tails the daemon log. Without ?offset= it returns the last
// ?limit= lines; with wait=1 it blocks for new lines up to the poll window.
func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := logs.Options{Offset: -1, Limit: 200}
	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		offset, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || offset < 0 {
			s.writeError(w, http.StatusBadRequest, "validation", fmt.Sprintf("invalid offset %q", raw))
			return
		}
		opts.Offset = offset
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, http.StatusBadRequest, "validation", fmt.Sprintf("invalid limit %q", raw))
			return
		}
		opts.Limit = limit
	}
	if query.Get("wait") == "1" {
		opts.Wait = maxLongPoll
	}

	chunk, err := logs.Tail(r.Context(), s.daemon.logPath, opts)
	if err != nil && r.Context().Err() == nil {
		s.writeFailure(w, r, "tail logs", err)
		return
	}
	lines := chunk.Lines
	if lines == nil {
		lines = []string{}
	}
	s.writeJSON(w, http.StatusOK, api.LogsResponse{Lines: lines, Offset: chunk.Offset})
}

func (s *apiServer) handleRooms(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.FromRegistry(s.daemon.rooms))
}

func (s *apiServer) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.TemplatesResponse{
		Water: inspection.Templates(inspection.TeamWater),
		Bed:   inspection.Templates(inspection.TeamBed),
	})
}

// handleCompress takes the raw capture bytes as the request body.
func (s *apiServer) handleCompress(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPhotoBody))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, "validation", err.Error())
		return
	}
	photo, err := s.daemon.codec.Compress(raw)
	if err != nil {
		s.writeFailure(w, r, "compress photo", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromPhoto(photo))
}

func (s *apiServer) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	var req api.AnnotateRequest
	if !s.decode(w, r, &req) {
		return
	}
	photo, err := imaging.ParseDataURL(req.Photo)
	if err != nil {
		s.writeFailure(w, r, "annotate photo", err)
		return
	}
	at := imaging.Point{X: req.X, Y: req.Y}
	if req.DisplayWidth > 0 || req.DisplayHeight > 0 {
		native := imaging.Size{W: float64(photo.Width), H: float64(photo.Height)}
		at, err = imaging.MapClick(imaging.Size{W: req.DisplayWidth, H: req.DisplayHeight}, at, native)
		if err != nil {
			s.writeFailure(w, r, "annotate photo", err)
			return
		}
	}
	annotated, err := s.daemon.codec.Annotate(photo, at)
	if err != nil {
		s.writeFailure(w, r, "annotate photo", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromPhoto(annotated))
}
