package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"roomcheck/internal/config"
	"roomcheck/internal/daemon"
	"roomcheck/internal/fileutil"
	"roomcheck/internal/logging"
	"roomcheck/internal/logs"
	"roomcheck/internal/store"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the roomcheck daemon and blocks until the context is cancelled
// or the process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	logPath := logs.DaemonLogPath(cfg)
	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logConfigSnapshot(logger, cfg)
	pidPath := filepath.Join(cfg.Paths.DataDir, "roomcheckd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(cfg, store.WithLogger(logger))
	if err != nil {
		logger.Error("open record store", logging.Error(err))
		return err
	}

	d, err := daemon.New(cfg, st, logger)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	d.RunPreflight(signalCtx)
	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that no other roomcheckd uses this data directory"),
			logging.String(logging.FieldImpact, "inspections are not served"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("roomcheck daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return fileutil.WriteFileAtomic(path, []byte(value), 0o644)
}

// ReadPID returns the pid recorded by a running daemon, or 0.
func ReadPID(cfg *config.Config) int {
	data, err := os.ReadFile(filepath.Join(cfg.Paths.DataDir, "roomcheckd.pid"))
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("data_dir", cfg.Paths.DataDir),
		logging.String("api_bind", cfg.Paths.APIBind),
		logging.Bool("api_token_present", strings.TrimSpace(cfg.Paths.APIToken) != ""),
		logging.String("app_id", cfg.Store.AppID),
		logging.Bool("read_only", cfg.Store.ReadOnly),
		logging.Bool("room_registry_enforced", cfg.Store.RoomRegistryEnforced),
		logging.Bool("auth_offline", cfg.Auth.Offline),
		logging.Bool("auth_token_present", strings.TrimSpace(cfg.Auth.Token) != ""),
		logging.Bool("llm_key_present", strings.TrimSpace(cfg.LLM.APIKey) != ""),
		logging.String("llm_model", cfg.LLM.Model),
		logging.Bool("ntfy_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.String("export_timezone", cfg.Export.Timezone),
	)
}
