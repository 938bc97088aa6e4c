package daemonctl_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"roomcheck/internal/api"
	"roomcheck/internal/daemonctl"
	"roomcheck/internal/testsupport"
)

func TestNewClientEmptyBind(t *testing.T) {
	client, err := daemonctl.NewClient("  ", "")
	if err != nil || client != nil {
		t.Fatalf("expected nil client, got %v %v", client, err)
	}
	if _, err := client.Status(context.Background()); !errors.Is(err, daemonctl.ErrAPIUnavailable) {
		t.Fatalf("expected ErrAPIUnavailable from nil client, got %v", err)
	}
}

func TestClientStatusAndSnapshot(t *testing.T) {
	var gotQuery, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/api/status":
			_ = json.NewEncoder(w).Encode(api.DaemonStatus{Running: true, PID: 42, RecordCount: 3})
		case "/api/inspections":
			gotQuery = r.URL.RawQuery
			_ = json.NewEncoder(w).Encode(api.SnapshotResponse{
				Version: 7,
				Records: []api.InspectionRecord{{ID: "r1", RoomID: "201"}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := daemonctl.NewClient(server.URL, "secret")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.PID != 42 || status.RecordCount != 3 {
		t.Fatalf("unexpected status %+v", status)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}

	snap, err := client.Snapshot(context.Background(), 6, true)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Version != 7 || len(snap.Records) != 1 || snap.Records[0].RoomID != "201" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if !strings.Contains(gotQuery, "since=6") || !strings.Contains(gotQuery, "wait=1") {
		t.Fatalf("unexpected query %q", gotQuery)
	}
}

func TestClientDecodesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/inspections/abc" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "not connected", Kind: "unavailable"})
	}))
	defer server.Close()

	client, _ := daemonctl.NewClient(strings.TrimPrefix(server.URL, "http://"), "")
	_, err := client.Submit(context.Background(), api.SubmitRequest{ID: "abc", RoomID: "201"})
	var apiErr *daemonctl.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable || apiErr.Kind != "unavailable" || apiErr.Message != "not connected" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestClientUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	client, _ := daemonctl.NewClient(addr, "")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Status(ctx); !errors.Is(err, daemonctl.ErrAPIUnavailable) {
		t.Fatalf("expected ErrAPIUnavailable, got %v", err)
	}
}

func TestRunningFollowsLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	running, err := daemonctl.Running(cfg)
	if err != nil || running {
		t.Fatalf("expected not running before data dir exists, got %v %v", running, err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	if running, err := daemonctl.Running(cfg); err != nil || !running {
		t.Fatalf("expected running while locked, got %v %v", running, err)
	}
	_ = lock.Unlock()
	if running, err := daemonctl.Running(cfg); err != nil || running {
		t.Fatalf("expected not running after unlock, got %v %v", running, err)
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := daemonctl.Stop(cfg, time.Second); !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestWaitForClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(api.DaemonStatus{Running: true})
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = server.URL
	client, err := daemonctl.WaitForClient(context.Background(), cfg, 2*time.Second)
	if err != nil || client == nil {
		t.Fatalf("WaitForClient: %v", err)
	}
}

func TestClientLogs(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		_ = json.NewEncoder(w).Encode(api.LogsResponse{Lines: []string{"started"}, Offset: 8})
	}))
	defer server.Close()

	client, err := daemonctl.NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out, err := client.Logs(context.Background(), -1, 20, false)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(out.Lines) != 1 || out.Offset != 8 {
		t.Fatalf("unexpected logs %+v", out)
	}
	if _, err := client.Logs(context.Background(), 8, 0, true); err != nil {
		t.Fatalf("Logs follow: %v", err)
	}
	if queries[0] != "limit=20" {
		t.Fatalf("unexpected tail query %q", queries[0])
	}
	if queries[1] != "offset=8&wait=1" {
		t.Fatalf("unexpected follow query %q", queries[1])
	}
}
