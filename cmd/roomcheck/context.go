package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"roomcheck/internal/config"
	"roomcheck/internal/daemonctl"
	"roomcheck/internal/identity"
	"roomcheck/internal/logging"
	"roomcheck/internal/recordsync"
	"roomcheck/internal/roster"
	"roomcheck/internal/store"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// logger writes command diagnostics to stderr. Commands stay quiet below warn
// unless --log-level asks for more.
func (c *commandContext) logger() *slog.Logger {
	level := "warn"
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		level = *c.logLevelFlag
	}
	format := "console"
	if cfg := c.configValue(); cfg != nil && cfg.Logging.Format != "" {
		format = cfg.Logging.Format
	}
	logger, err := logging.New(logging.Options{Level: level, Format: format})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// localEnv is a direct handle on the record store, shared safely with a
// running daemon.
type localEnv struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	adapter *recordsync.Adapter
	roster  *roster.Service
}

func (c *commandContext) openLocal(ctx context.Context) (*localEnv, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.logger()
	st, err := store.Open(cfg, store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	opts := recordsync.OptionsFromConfig(cfg)
	opts.Logger = logger
	adapter := recordsync.New(st, identity.NewLocal(cfg), opts)
	if _, err := adapter.Connect(ctx); err != nil {
		logging.WarnWithContext(logger, "identity gate failed; store is read-only for this command", "identity_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check [auth] offline and token settings"),
		)
	}

	return &localEnv{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		adapter: adapter,
		roster:  roster.New(st, cfg, roster.WithWriteGate(adapter.CanWrite), roster.WithLogger(logger)),
	}, nil
}

func (e *localEnv) Close() error {
	e.adapter.Disconnect()
	return e.store.Close()
}

func (c *commandContext) withLocal(cmd *cobra.Command, fn func(*localEnv) error) error {
	env, err := c.openLocal(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env)
}

func (c *commandContext) client() (*daemonctl.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := daemonctl.NewClient(cfg.Paths.APIBind, cfg.Paths.APIToken)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("%w: paths.api_bind is empty", daemonctl.ErrAPIUnavailable)
	}
	return client, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
