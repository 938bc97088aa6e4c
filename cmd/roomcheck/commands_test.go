package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"roomcheck/internal/api"
	"roomcheck/internal/recordsync"
	"roomcheck/internal/testsupport"
)

func TestConfigInitValidateAndShow(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithAuthToken("tok-123"))

	out := env.mustRun(t, "config", "validate")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out = env.mustRun(t, "config", "init", "--path", target)
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	out = env.mustRun(t, "config", "show")
	requireContains(t, out, redacted)
	if strings.Contains(out, "tok-123") || strings.Contains(out, "2468") {
		t.Fatalf("secrets leaked in config show: %s", out)
	}
	out = env.mustRun(t, "config", "show", "--reveal")
	requireContains(t, out, "2468")
}

func TestRoomsAndTemplates(t *testing.T) {
	out, _, err := runCLI(t, "", []string{"rooms", "--json"})
	if err != nil {
		t.Fatalf("rooms: %v", err)
	}
	var rooms api.RoomsResponse
	if err := json.Unmarshal([]byte(out), &rooms); err != nil {
		t.Fatalf("decode rooms: %v", err)
	}
	if len(rooms.Floors) != 4 {
		t.Fatalf("expected 4 floors, got %d", len(rooms.Floors))
	}

	out, _, err = runCLI(t, "", []string{"templates", "--team", "water"})
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	requireContains(t, out, "馬桶汙垢/尿漬")
	if strings.Contains(out, "鋪床污漬/破損") {
		t.Fatal("bed template listed for water filter")
	}
}

func TestSubmitHistoryShowAndEdit(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.mustRun(t, "submit",
		"--room", "305", "--inspector", "Amy", "--bed", "Ben",
		"--template", "water:馬桶汙垢/尿漬",
		"--issue", "bed:C:枕頭歪斜:left: near window",
	)
	requireContains(t, out, "Recorded inspection")
	requireContains(t, out, "2 issues, includes grade A")
	id := submittedID(t, out)

	out = env.mustRun(t, "history")
	requireContains(t, out, "305")
	requireContains(t, out, "Amy")
	requireContains(t, out, "未填寫")

	out = env.mustRun(t, "show", id, "--json")
	var resp api.RecordResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode show: %v", err)
	}
	rec := resp.Record
	if rec.IssueCount != 2 || !rec.HasGradeA || rec.Issues[1].Note != "left: near window" {
		t.Fatalf("unexpected record %+v", rec)
	}

	out = env.mustRun(t, "submit", "--edit", id, "--water", "Cara", "--remove-issue", rec.Issues[0].ID)
	requireContains(t, out, "Updated inspection "+id)
	requireContains(t, out, "(1 issues)")

	out = env.mustRun(t, "show", id)
	requireContains(t, out, "Cara")
	requireContains(t, out, "枕頭歪斜")
	if strings.Contains(out, "馬桶汙垢/尿漬") {
		t.Fatalf("removed issue still shown: %s", out)
	}

	env.mustRun(t, "assign", id, "bed", "Dan")
	out = env.mustRun(t, "show", id)
	requireContains(t, out, "Dan")
}

func TestSubmitRemembersLastInspector(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := env.run(t, "submit", "--room", "201"); err == nil {
		t.Fatal("expected submit without any known inspector to fail")
	}

	env.mustRun(t, "submit", "--room", "201", "--inspector", "Amy")
	out := env.mustRun(t, "submit", "--room", "202", "--issue", "bed:B:灰塵")
	id := submittedID(t, out)
	out = env.mustRun(t, "show", id)
	requireContains(t, out, "Amy")

	data, err := os.ReadFile(env.cfg.LastInspectorPath())
	if err != nil {
		t.Fatalf("read last inspector: %v", err)
	}
	if strings.TrimSpace(string(data)) != "Amy" {
		t.Fatalf("unexpected last inspector %q", data)
	}

	env.mustRun(t, "submit", "--room", "203", "--inspector", "Ben")
	out = env.mustRun(t, "submit", "--room", "204")
	out = env.mustRun(t, "show", submittedID(t, out))
	requireContains(t, out, "Ben")
}

func TestSubmitValidation(t *testing.T) {
	env := setupCLITestEnv(t)
	tests := map[string][]string{
		"missing inspector": {"submit", "--room", "305"},
		"unknown template":  {"submit", "--room", "305", "--inspector", "Amy", "--template", "water:not a template"},
		"bad grade":         {"submit", "--room", "305", "--inspector", "Amy", "--issue", "bed:D:x"},
		"blank title":       {"submit", "--room", "305", "--inspector", "Amy", "--issue", "bed:A: "},
		"photo out of range": {"submit", "--room", "305", "--inspector", "Amy",
			"--issue", "bed:A:x", "--photo", "2=/tmp/none.jpg"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if _, _, err := env.run(t, args...); err == nil {
				t.Fatalf("expected %v to fail", args)
			}
		})
	}
	out := env.mustRun(t, "history")
	requireContains(t, out, "No inspections recorded")
}

func TestSubmitWithPhotoAndMark(t *testing.T) {
	env := setupCLITestEnv(t)
	photo := writePNG(t, t.TempDir(), 1600, 800)

	out := env.mustRun(t, "submit", "--room", "201", "--inspector", "Amy",
		"--issue", "water:B:鏡面水痕",
		"--photo", "1="+photo,
		"--mark", "1=100,100",
	)
	id := submittedID(t, out)

	out = env.mustRun(t, "show", id, "--json")
	var resp api.RecordResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode show: %v", err)
	}
	if !strings.HasPrefix(resp.Record.Issues[0].Photo, "data:image/jpeg;base64,") {
		t.Fatalf("expected jpeg data url, got %.40q", resp.Record.Issues[0].Photo)
	}
}

func TestDeleteRequiresPassphrase(t *testing.T) {
	env := setupCLITestEnv(t)
	id := submittedID(t, env.mustRun(t, "submit", "--room", "201", "--inspector", "Amy"))

	if _, _, err := env.run(t, "delete", id, "--passphrase", "0000"); !errors.Is(err, recordsync.ErrWrongPassphrase) {
		t.Fatalf("expected wrong passphrase, got %v", err)
	}
	if _, _, err := env.run(t, "delete", id, "--all"); err == nil {
		t.Fatal("expected id with --all to fail")
	}

	out, _, err := env.runWithInput(t, "2468\n", "delete", id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	requireContains(t, out, "Deleted inspection "+id)
	out = env.mustRun(t, "delete", id, "--passphrase", "2468")
	requireContains(t, out, "Inspection "+id+" was already gone")

	env.mustRun(t, "submit", "--room", "202", "--inspector", "Amy")
	env.mustRun(t, "submit", "--room", "203", "--inspector", "Amy")
	out = env.mustRun(t, "delete", "--all", "--passphrase", "2468")
	requireContains(t, out, "Deleted 2 inspections")
}

func TestHistoryJSONImportRoundTrip(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "submit", "--room", "201", "--inspector", "Amy", "--issue", "bed:A:床單污漬")
	env.mustRun(t, "submit", "--room", "202", "--inspector", "Ben")

	dump := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(dump, []byte(env.mustRun(t, "history", "--json")), 0o644); err != nil {
		t.Fatal(err)
	}
	env.mustRun(t, "delete", "--all", "--passphrase", "2468")

	out := env.mustRun(t, "import", dump)
	requireContains(t, out, "Imported 2 of 2")

	out = env.mustRun(t, "history", "--room", "201")
	requireContains(t, out, "201")
	if strings.Contains(out, "202") {
		t.Fatalf("room filter ignored: %s", out)
	}
}

func TestStatsAndExport(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "submit", "--room", "201", "--inspector", "Amy", "--issue", "bed:A:床單污漬")
	env.mustRun(t, "submit", "--room", "202", "--inspector", "Amy", "--issue", "bed:C:床單污漬")
	env.mustRun(t, "submit", "--room", "203", "--inspector", "Amy")

	out := env.mustRun(t, "stats", "--month", "all", "--json")
	var stats api.StatsResponse
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Inspected != 3 || stats.TotalDefects != 2 || stats.FailedRooms != 1 {
		t.Fatalf("unexpected stats %+v", stats.Stats)
	}
	if len(stats.TopDefects) != 1 || stats.TopDefects[0].Count != 2 {
		t.Fatalf("unexpected top defects %+v", stats.TopDefects)
	}

	out = env.mustRun(t, "stats")
	requireContains(t, out, "Rooms inspected")
	requireContains(t, out, "床單污漬")

	dir := t.TempDir()
	out = env.mustRun(t, "export", "--output", dir)
	requireContains(t, out, "Exported 3 inspections")
	matches, _ := filepath.Glob(filepath.Join(dir, "*.csv"))
	if len(matches) != 1 {
		t.Fatalf("expected one csv, got %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "\uFEFF") {
		t.Fatal("csv missing BOM")
	}

	env.mustRun(t, "export", "--format", "xlsx", "--output", dir)
	if matches, _ := filepath.Glob(filepath.Join(dir, "*.xlsx")); len(matches) != 1 {
		t.Fatalf("expected one xlsx, got %v", matches)
	}
	if _, _, err := env.run(t, "export", "--format", "pdf"); err == nil {
		t.Fatal("expected pdf export to fail")
	}
}

func TestStaffCommands(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithRoster([]string{"Ben"}, []string{"Cara"}))

	out := env.mustRun(t, "staff", "list")
	requireContains(t, out, "Ben")
	requireContains(t, out, "Cara")

	env.mustRun(t, "staff", "add", "Dan", "--to", "water")
	out = env.mustRun(t, "staff", "list", "--json")
	var list api.RosterResponse
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode roster: %v", err)
	}
	if len(list.Water) != 2 || len(list.Bed) != 1 {
		t.Fatalf("unexpected roster %+v", list)
	}

	env.mustRun(t, "staff", "remove", "Ben")
	out = env.mustRun(t, "staff", "list", "--json", "--search", "a")
	list = api.RosterResponse{}
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode roster: %v", err)
	}
	if len(list.Bed) != 0 || len(list.Water) != 2 {
		t.Fatalf("unexpected roster after remove %+v", list)
	}
	if _, _, err := env.run(t, "staff", "add", "  "); err == nil {
		t.Fatal("expected blank name to fail")
	}
}

func TestRefineAndReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ResponseFormat any `json:"response_format"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		content := "## 今日概況\n一切正常"
		if req.ResponseFormat != nil {
			content = `{"title":"床頭櫃積灰","note":"床頭櫃表面有明顯灰塵","grade":"B"}`
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
		})
	}))
	defer server.Close()

	env := setupCLITestEnv(t, testsupport.WithLLM(server.URL))
	out := env.mustRun(t, "refine", "dusty", "nightstand")
	requireContains(t, out, "床頭櫃積灰")
	requireContains(t, out, "Grade: B")

	env.mustRun(t, "submit", "--room", "201", "--inspector", "Amy")
	out = env.mustRun(t, "report")
	requireContains(t, out, "今日概況")
}

func TestRefineWithoutKeyFails(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "refine", "dusty"); err == nil {
		t.Fatal("expected refine without api key to fail")
	}
	// --refine falls back to the original wording.
	out := env.mustRun(t, "submit", "--room", "201", "--inspector", "Amy", "--issue", "bed:C:灰塵:dusty", "--refine")
	requireContains(t, out, "(1 issues)")
}

func TestPhotoCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := t.TempDir()
	src := writePNG(t, dir, 1600, 800)

	out := env.mustRun(t, "photo", "compress", src, "--json")
	var photo api.PhotoResponse
	if err := json.Unmarshal([]byte(out), &photo); err != nil {
		t.Fatalf("decode photo: %v", err)
	}
	if photo.Width != 800 || photo.Height != 400 {
		t.Fatalf("expected 800x400, got %dx%d", photo.Width, photo.Height)
	}

	target := filepath.Join(dir, "marked.jpg")
	out = env.mustRun(t, "photo", "annotate", src, "--at", "200,100", "--display", "400x200", "--output", target)
	requireContains(t, out, "800x400")
	if info, err := os.Stat(target); err != nil || info.Size() == 0 {
		t.Fatalf("expected annotated jpeg at %s: %v", target, err)
	}

	if _, _, err := env.run(t, "photo", "annotate", src, "--json"); err == nil {
		t.Fatal("expected annotate without --at to fail")
	}
}

func TestDoctorAndWatchOnce(t *testing.T) {
	env := setupCLITestEnv(t)
	out := env.mustRun(t, "doctor")
	requireContains(t, out, "Readiness")
	requireContains(t, out, "[OK]")

	env.mustRun(t, "submit", "--room", "201", "--inspector", "Amy")
	out = env.mustRun(t, "watch", "--once")
	requireContains(t, out, "1 inspections")
	requireContains(t, out, "latest room 201 by Amy, PASS")
}

func TestDaemonStatusWhenStopped(t *testing.T) {
	env := setupCLITestEnv(t)
	out := env.mustRun(t, "daemon", "status")
	requireContains(t, out, "Daemon is not running")
	out = env.mustRun(t, "daemon", "stop")
	requireContains(t, out, "Daemon is not running")
}
