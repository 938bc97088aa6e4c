package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"roomcheck/internal/config"
	"roomcheck/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	for _, key := range []string{
		"ROOMCHECK_LLM_API_KEY",
		"ROOMCHECK_AUTH_TOKEN",
		"ROOMCHECK_API_TOKEN",
		"ROOMCHECK_APP_ID",
		"ROOMCHECK_DELETE_PASSPHRASE",
	} {
		t.Setenv(key, "")
	}

	opts = append([]testsupport.ConfigOption{testsupport.WithPassphrase("2468")}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	base := filepath.Dir(cfg.Paths.DataDir)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, "", append([]string{"--config", e.configPath}, args...))
}

func (e *cliTestEnv) runWithInput(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, stdin, append([]string{"--config", e.configPath}, args...))
}

func (e *cliTestEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v (stderr: %s)", args, err, stderr)
	}
	return out
}

func runCLI(t *testing.T, stdin string, args []string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	path := filepath.Join(dir, "capture.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// submittedID pulls the record id out of submit's confirmation line.
func submittedID(t *testing.T, out string) string {
	t.Helper()
	fields := strings.Fields(out)
	for i, f := range fields {
		if f == "inspection" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	t.Fatalf("no record id in %q", out)
	return ""
}
