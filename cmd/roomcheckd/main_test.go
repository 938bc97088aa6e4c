package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCommandFlags(t *testing.T) {
	cmd := newCommand()
	for _, name := range []string{"config", "log-level", "dev"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("missing --%s flag", name)
		}
	}
}

func TestCommandRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[paths\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cmd := newCommand()
	cmd.SetArgs([]string{"--config", path})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected config load error, got %v", err)
	}
}
