package daemonrun

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"roomcheck/internal/testsupport"
)

func TestWritePIDFileAndReadPID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if got := ReadPID(cfg); got != 0 {
		t.Fatalf("expected 0 before the daemon runs, got %d", got)
	}
	if err := writePIDFile(filepath.Join(cfg.Paths.DataDir, "roomcheckd.pid")); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	if got := ReadPID(cfg); got != os.Getpid() {
		t.Fatalf("expected pid %d, got %d", os.Getpid(), got)
	}
}

func TestRunServesUntilCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, Options{LogLevel: "error"}) }()

	deadline := time.Now().Add(5 * time.Second)
	for ReadPID(cfg) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if ReadPID(cfg) == 0 {
		t.Fatal("daemon never wrote its pid file")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.DataDir, "roomcheckd.pid")); !os.IsNotExist(err) {
		t.Fatalf("expected pid file removed, got %v", err)
	}
}
