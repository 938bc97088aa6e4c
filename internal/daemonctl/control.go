package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"roomcheck/internal/config"
	"roomcheck/internal/daemonrun"
)

// ErrDaemonNotRunning indicates no daemon holds the data directory lock.
var ErrDaemonNotRunning = errors.New("daemon not running")

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

// Running reports whether a daemon currently holds the lock on cfg's data
// directory.
func Running(cfg *config.Config) (bool, error) {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("probe daemon lock: %w", err)
	}
	if ok {
		_ = lock.Unlock()
		return false, nil
	}
	return true, nil
}

// Launch starts a detached "daemon run" process of executablePath.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon", "run"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient waits until the daemon answers on its API and returns a client.
func WaitForClient(ctx context.Context, cfg *config.Config, timeout time.Duration) (*Client, error) {
	client, err := NewClient(cfg.Paths.APIBind, cfg.Paths.APIToken)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("%w: paths.api_bind is empty", ErrAPIUnavailable)
	}
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		probeCtx, cancel := context.WithTimeout(ctx, time.Second)
		_, err := client.Status(probeCtx)
		cancel()
		if err == nil {
			return client, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// Stop sends SIGTERM to the running daemon and waits for it to release the
// lock.
func Stop(cfg *config.Config, timeout time.Duration) (int, error) {
	running, err := Running(cfg)
	if err != nil {
		return 0, err
	}
	if !running {
		return 0, ErrDaemonNotRunning
	}
	pid := daemonrun.ReadPID(cfg)
	if pid <= 0 {
		return 0, fmt.Errorf("unable to determine daemon pid (data dir: %s)", cfg.Paths.DataDir)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return 0, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if running, err := Running(cfg); err == nil && !running {
			return pid, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return pid, fmt.Errorf("daemon %d did not stop within %s", pid, timeout)
}
