package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"roomcheck/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), logs.DaemonLogName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	chunk, err := logs.Tail(context.Background(), path, logs.Options{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(chunk.Lines) != 2 || chunk.Lines[0] != "b" || chunk.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", chunk.Lines)
	}
	if chunk.Offset != 6 {
		t.Fatalf("expected offset at end of file, got %d", chunk.Offset)
	}

	appendLog(t, path, "d\npartial")
	chunk, err = logs.Tail(context.Background(), path, logs.Options{Offset: chunk.Offset})
	if err != nil {
		t.Fatalf("Tail from offset: %v", err)
	}
	if len(chunk.Lines) != 1 || chunk.Lines[0] != "d" || chunk.Offset != 8 {
		t.Fatalf("expected only the complete line, got %#v at %d", chunk.Lines, chunk.Offset)
	}
}

func TestTailMissingFile(t *testing.T) {
	chunk, err := logs.Tail(context.Background(), filepath.Join(t.TempDir(), "none.log"), logs.Options{Offset: -1, Limit: 10})
	if err != nil || len(chunk.Lines) != 0 || chunk.Offset != 0 {
		t.Fatalf("expected empty chunk, got %+v %v", chunk, err)
	}
}

func TestTailRestartsAfterTruncation(t *testing.T) {
	path := writeLog(t, "x\n")
	chunk, err := logs.Tail(context.Background(), path, logs.Options{Offset: 500})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(chunk.Lines) != 1 || chunk.Lines[0] != "x" {
		t.Fatalf("expected re-read from start, got %#v", chunk.Lines)
	}
}

func TestTailFollowWaits(t *testing.T) {
	path := writeLog(t, "start\n")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan logs.Chunk, 1)
	go func() {
		chunk, err := logs.Tail(ctx, path, logs.Options{Offset: 6, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow tail error: %v", err)
		}
		done <- chunk
	}()

	time.Sleep(100 * time.Millisecond)
	appendLog(t, path, "later\n")

	select {
	case chunk := <-done:
		if len(chunk.Lines) != 1 || chunk.Lines[0] != "later" {
			t.Fatalf("unexpected follow lines: %#v", chunk.Lines)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("tail follow did not return")
	}
}

func TestTailWaitTimesOut(t *testing.T) {
	path := writeLog(t, "only\n")
	chunk, err := logs.Tail(context.Background(), path, logs.Options{Offset: 5, Wait: 50 * time.Millisecond})
	if err != nil || len(chunk.Lines) != 0 || chunk.Offset != 5 {
		t.Fatalf("expected empty chunk at same offset, got %+v %v", chunk, err)
	}
}
