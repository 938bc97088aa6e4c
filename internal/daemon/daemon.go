package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"roomcheck/internal/api"
	"roomcheck/internal/config"
	"roomcheck/internal/identity"
	"roomcheck/internal/imaging"
	"roomcheck/internal/inspection"
	"roomcheck/internal/logging"
	"roomcheck/internal/logs"
	"roomcheck/internal/notifications"
	"roomcheck/internal/preflight"
	"roomcheck/internal/recordsync"
	"roomcheck/internal/refine"
	"roomcheck/internal/roster"
	"roomcheck/internal/store"
)

const defaultReconnectInterval = 30 * time.Second

// Refiner is the oracle-backed part of the API.
type Refiner interface {
	Refine(ctx context.Context, note string) (refine.Suggestion, error)
	DailyReport(ctx context.Context, records []inspection.Record) (string, error)
}

// Daemon serves the inspection records of one data directory and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	adapter  *recordsync.Adapter
	roster   *roster.Service
	refiner  Refiner
	codec    *imaging.Codec
	rooms    *inspection.Registry
	notifier notifications.Service
	cache    *snapshotCache
	api      *apiServer

	lockPath  string
	logPath   string
	lock      *flock.Flock
	reconnect time.Duration

	mu     sync.Mutex
	checks []preflight.Result

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithRefiner replaces the configured refinement gateway.
func WithRefiner(r Refiner) Option {
	return func(d *Daemon) { d.refiner = r }
}

// WithIdentity replaces the identity provider built from configuration.
func WithIdentity(p identity.Provider) Option {
	return func(d *Daemon) {
		d.adapter = recordsync.New(d.store, p, d.adapterOptions())
	}
}

// WithReconnectInterval sets how often a disconnected daemon retries the
// identity gate.
func WithReconnectInterval(interval time.Duration) Option {
	return func(d *Daemon) {
		if interval > 0 {
			d.reconnect = interval
		}
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	imagingOpts, err := imaging.OptionsFromConfig(cfg.Imaging)
	if err != nil {
		return nil, fmt.Errorf("imaging options: %w", err)
	}

	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     st,
		codec:     imaging.NewCodec(imagingOpts),
		rooms:     inspection.DefaultRegistry(),
		notifier:  notifications.NewService(cfg),
		cache:     newSnapshotCache(),
		lockPath:  cfg.LockPath(),
		logPath:   logs.DaemonLogPath(cfg),
		lock:      flock.New(cfg.LockPath()),
		reconnect: defaultReconnectInterval,
	}
	d.adapter = recordsync.New(st, identity.NewLocal(cfg), d.adapterOptions())
	d.refiner = refine.NewFromConfig(cfg, logger)
	for _, opt := range opts {
		opt(d)
	}
	d.roster = roster.New(st, cfg, roster.WithWriteGate(d.adapter.CanWrite), roster.WithLogger(logger))

	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = srv
	return d, nil
}

func (d *Daemon) adapterOptions() recordsync.Options {
	opts := recordsync.OptionsFromConfig(d.cfg)
	opts.Notifier = d.notifier
	opts.Logger = d.logger
	return opts
}

// Start acquires the daemon lock, connects the sync adapter, begins feeding
// the snapshot cache and starts the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another roomcheck daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start api: %w", err)
	}
	d.cancel = cancel

	if _, err := d.adapter.Connect(runCtx); err != nil {
		logging.WarnWithContext(d.logger, "identity gate failed; serving read-only", "identity_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "submissions and deletions are refused until reconnect"),
			logging.String(logging.FieldErrorHint, "check [auth] offline and token settings"),
		)
		if perr := d.notifier.Publish(runCtx, notifications.EventError, notifications.Payload{
			"context": "identity gate",
			"error":   err.Error(),
		}); perr != nil {
			d.logger.Debug("error notification failed", logging.Error(perr))
		}
	}

	feed := d.adapter.Feed()
	d.wg.Add(2)
	go d.consume(runCtx, feed)
	go d.reconnectLoop(runCtx)

	d.running.Store(true)
	d.logger.Info("roomcheck daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldCollection, d.adapter.Collection()),
	)
	return nil
}

func (d *Daemon) consume(ctx context.Context, feed *recordsync.Feed) {
	defer d.wg.Done()
	go func() {
		<-ctx.Done()
		feed.Close()
	}()
	for records := range feed.C() {
		version := d.cache.publish(records)
		d.logger.Debug("snapshot delivered",
			logging.Int("records", len(records)),
			logging.Any("version", version),
		)
	}
}

func (d *Daemon) reconnectLoop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.reconnect)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if _, connected := d.adapter.Identity(); connected {
			continue
		}
		if id, err := d.adapter.Connect(ctx); err == nil {
			d.logger.Info("identity gate reconnected", logging.String("uid", id.UID))
		}
	}
}

// Stop halts the feed and the HTTP API and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.wg.Wait()
	d.adapter.Disconnect()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("roomcheck daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the address the API listens on, empty when it is disabled or
// not started.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// RunPreflight executes the readiness checks and keeps the results for the
// status endpoint.
func (d *Daemon) RunPreflight(ctx context.Context) []preflight.Result {
	results := preflight.RunAll(ctx, d.cfg, d.store)
	d.mu.Lock()
	d.checks = results
	d.mu.Unlock()
	for _, r := range preflight.Failed(results) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
		)
	}
	return results
}

// TestNotification sends a test message through the configured notifier.
func (d *Daemon) TestNotification(ctx context.Context) error {
	return d.notifier.Publish(ctx, notifications.EventTest, notifications.Payload{"message": "roomcheck notifications are working"})
}

// Status returns the current daemon status.
func (d *Daemon) Status() api.DaemonStatus {
	version, records := d.cache.current()
	d.mu.Lock()
	checks := api.FromChecks(d.checks)
	d.mu.Unlock()

	status := api.DaemonStatus{
		Running:         d.running.Load(),
		PID:             os.Getpid(),
		StorePath:       d.store.Path(),
		LockFilePath:    d.lockPath,
		ReadOnly:        d.store.ReadOnly(),
		SnapshotVersion: version,
		RecordCount:     len(records),
		RefineEnabled:   d.cfg.LLM.APIKey != "",
		Checks:          checks,
	}
	if id, ok := d.adapter.Identity(); ok {
		status.Connected = true
		status.UID = id.UID
		status.Anonymous = id.Anonymous
	}
	return status
}
