package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"roomcheck/internal/logs"
)

func TestLogsCommandReadsLocalFile(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := env.cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(logs.DaemonLogPath(env.cfg), []byte("alpha\nbeta\ngamma\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := env.mustRun(t, "logs", "-n", "2")
	if out != "beta\ngamma\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestStreamLogsFollowsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var offsets []int64
	calls := 0
	source := func(_ context.Context, offset int64, limit int, wait bool) (logs.Chunk, error) {
		offsets = append(offsets, offset)
		calls++
		switch calls {
		case 1:
			if limit != 5 || wait {
				t.Errorf("unexpected first call limit=%d wait=%v", limit, wait)
			}
			return logs.Chunk{Lines: []string{"one"}, Offset: 4}, nil
		case 2:
			return logs.Chunk{Lines: []string{"two"}, Offset: 8}, nil
		default:
			cancel()
			return logs.Chunk{}, context.Canceled
		}
	}

	var buf bytes.Buffer
	if err := streamLogs(ctx, &buf, source, 5, true); err != nil {
		t.Fatalf("streamLogs: %v", err)
	}
	if buf.String() != "one\ntwo\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if len(offsets) != 3 || offsets[0] != -1 || offsets[1] != 4 || offsets[2] != 8 {
		t.Fatalf("unexpected offsets %v", offsets)
	}
}

func TestStreamLogsReportsSourceError(t *testing.T) {
	source := func(context.Context, int64, int, bool) (logs.Chunk, error) {
		return logs.Chunk{}, errors.New("permission denied")
	}
	var buf bytes.Buffer
	if err := streamLogs(context.Background(), &buf, source, 0, false); err == nil {
		t.Fatal("expected error")
	}
}
