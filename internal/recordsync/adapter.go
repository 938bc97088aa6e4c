package recordsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"roomcheck/internal/config"
	"roomcheck/internal/identity"
	"roomcheck/internal/inspection"
	"roomcheck/internal/logging"
	"roomcheck/internal/notifications"
	"roomcheck/internal/store"
)

// DocumentStore is the persistence capability the adapter relies on.
type DocumentStore interface {
	Create(ctx context.Context, collection string, data json.RawMessage) (store.Document, error)
	Replace(ctx context.Context, collection, id string, data json.RawMessage) error
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	Delete(ctx context.Context, collection, id string) (bool, error)
	Get(ctx context.Context, collection, id string) (store.Document, error)
	List(ctx context.Context, collection string) ([]store.Document, error)
	Import(ctx context.Context, collection string, docs []store.Document) (int, error)
	Watch(collection string) *store.Watcher
}

// Options configures an Adapter.
type Options struct {
	AppID      string
	Timeout    time.Duration
	Passphrase string
	// Rooms restricts submissions to known rooms. Nil accepts any room.
	Rooms    *inspection.Registry
	Notifier notifications.Service
	Logger   *slog.Logger
}

// OptionsFromConfig derives adapter options from configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		AppID:      cfg.Store.AppID,
		Timeout:    cfg.StoreTimeout(),
		Passphrase: cfg.Store.DeletePassphrase,
	}
	if cfg.Store.RoomRegistryEnforced {
		opts.Rooms = inspection.DefaultRegistry()
	}
	return opts
}

// Adapter maps sessions onto store documents and store changes back onto
// sorted record snapshots.
//
// Writes require an established identity; reads work without one so a client
// whose identity gate fails keeps a read-only view. A successful write is not
// reflected locally: snapshots come only from the feed.
type Adapter struct {
	store      DocumentStore
	ident      identity.Provider
	notifier   notifications.Service
	logger     *slog.Logger
	collection string
	timeout    time.Duration
	passphrase string
	rooms      *inspection.Registry
	now        func() time.Time

	mu       sync.Mutex
	identity *identity.Identity
	feeds    map[*Feed]struct{}
}

// New builds an adapter. It does not contact the identity provider; call
// Connect before writing.
func New(st DocumentStore, ident identity.Provider, opts Options) *Adapter {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Notifier == nil {
		opts.Notifier = notifications.NewService(&config.Config{})
	}
	return &Adapter{
		store:      st,
		ident:      ident,
		notifier:   opts.Notifier,
		logger:     logging.NewComponentLogger(opts.Logger, "recordsync"),
		collection: store.InspectionsCollection(opts.AppID),
		timeout:    opts.Timeout,
		passphrase: strings.TrimSpace(opts.Passphrase),
		rooms:      opts.Rooms,
		now:        time.Now,
		feeds:      make(map[*Feed]struct{}),
	}
}

// Collection returns the namespaced collection path records are stored under.
func (a *Adapter) Collection() string { return a.collection }

// Connect establishes the identity gate. On failure the adapter stays (or
// becomes) read-only and writes fail with ErrUnavailable. On success every
// live feed is re-attached and re-delivers a full snapshot.
func (a *Adapter) Connect(ctx context.Context) (identity.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	id, err := a.ident.Establish(ctx)
	a.mu.Lock()
	if err != nil {
		a.identity = nil
		a.mu.Unlock()
		logging.WarnWithContext(a.logger, "identity gate failed", "identity_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "writes disabled until reconnect"),
			logging.String(logging.FieldErrorHint, "check [auth] settings or network"),
		)
		return identity.Identity{}, fmt.Errorf("connect: %w: %w", ErrUnavailable, err)
	}
	a.identity = &id
	feeds := make([]*Feed, 0, len(a.feeds))
	for f := range a.feeds {
		feeds = append(feeds, f)
	}
	a.mu.Unlock()

	for _, f := range feeds {
		f.reattach()
	}
	a.logger.Info("identity established", logging.String("uid", id.UID), logging.Bool("anonymous", id.Anonymous))
	return id, nil
}

// Disconnect drops the identity, returning the adapter to read-only mode.
func (a *Adapter) Disconnect() {
	a.mu.Lock()
	a.identity = nil
	a.mu.Unlock()
}

// Identity returns the established identity, if any.
func (a *Adapter) Identity() (identity.Identity, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.identity == nil {
		return identity.Identity{}, false
	}
	return *a.identity, true
}

// CanWrite returns ErrUnavailable while no identity is established. Other
// writers sharing the store use it as their gate.
func (a *Adapter) CanWrite() error {
	return a.requireIdentity("write")
}

func (a *Adapter) requireIdentity(op string) error {
	if _, ok := a.Identity(); !ok {
		return fmt.Errorf("%s: %w: no identity established", op, ErrUnavailable)
	}
	return nil
}

// Submit persists a session. A new session creates a record with a fresh id
// and a store-assigned creation time. A session opened from an existing record
// replaces that record in full, keeping its id, creation time and month key.
func (a *Adapter) Submit(ctx context.Context, s *inspection.Session) (string, error) {
	if err := s.Validate(a.rooms); err != nil {
		return "", err
	}
	if err := a.requireIdentity("submit"); err != nil {
		return "", err
	}

	rec := s.ToRecord(a.now())
	body, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("submit: encode record: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	id := rec.ID
	if s.IsEdit() {
		if err := a.store.Replace(ctx, a.collection, id, body); err != nil {
			return "", classify("submit", err)
		}
	} else {
		doc, err := a.store.Create(ctx, a.collection, body)
		if err != nil {
			return "", classify("submit", err)
		}
		id = doc.ID
	}

	ctx = logging.WithEntryID(ctx, id)
	logging.WithContext(ctx, a.logger).Info("inspection submitted",
		logging.String(logging.FieldRoomID, rec.RoomID),
		logging.Int("issues", rec.IssueCount),
		logging.Bool("edit", s.IsEdit()),
	)
	if rec.HasGradeA {
		a.publish(ctx, notifications.EventSevereInspection, notifications.Payload{
			"room":      rec.RoomID,
			"inspector": rec.Inspector,
			"titles":    severeTitles(rec.Issues),
		})
	}
	return id, nil
}

// Get returns one record.
func (a *Adapter) Get(ctx context.Context, id string) (inspection.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	doc, err := a.store.Get(ctx, a.collection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return inspection.Record{}, fmt.Errorf("load %s: %w", id, ErrNotFound)
		}
		return inspection.Record{}, classify("load", err)
	}
	return decodeRecord(doc)
}

// Load opens a record for editing as an independent session.
func (a *Adapter) Load(ctx context.Context, id string) (*inspection.Session, error) {
	rec, err := a.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return inspection.FromRecord(rec), nil
}

// PatchStaff sets one crew name on a persisted record, leaving every other
// field untouched.
func (a *Adapter) PatchStaff(ctx context.Context, id string, slot inspection.StaffSlot, name string) error {
	if slot != inspection.SlotBed && slot != inspection.SlotWater {
		return fmt.Errorf("%w: %q", inspection.ErrInvalidSlot, slot)
	}
	if err := a.requireIdentity("patch staff"); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if err := a.store.Update(ctx, a.collection, id, map[string]any{slot.Field(): strings.TrimSpace(name)}); err != nil {
		return classify("patch staff", err)
	}
	return nil
}

// Snapshot lists every record once, newest first.
func (a *Adapter) Snapshot(ctx context.Context) ([]inspection.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	docs, err := a.store.List(ctx, a.collection)
	if err != nil {
		return nil, classify("snapshot", err)
	}
	records := make([]inspection.Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := decodeRecord(doc)
		if err != nil {
			logging.WarnWithContext(a.logger, "skipping undecodable record", "record_decode_failed",
				logging.String("id", doc.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "record hidden from history"),
			)
			continue
		}
		records = append(records, rec)
	}
	SortNewestFirst(records)
	return records, nil
}

// Import writes records verbatim, keeping ids and creation times where present.
func (a *Adapter) Import(ctx context.Context, records []inspection.Record) (int, error) {
	if err := a.requireIdentity("import"); err != nil {
		return 0, err
	}
	docs := make([]store.Document, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		body, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("import: encode %s: %w", rec.ID, err)
		}
		docs = append(docs, store.Document{ID: rec.ID, Data: body, CreatedAt: rec.CreatedAt})
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	n, err := a.store.Import(ctx, a.collection, docs)
	if err != nil {
		return 0, classify("import", err)
	}
	return n, nil
}

// SortNewestFirst orders records by creation time, newest first. Records
// without a creation time count as the epoch and sort last; ties keep their
// input order.
func SortNewestFirst(records []inspection.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

func decodeRecord(doc store.Document) (inspection.Record, error) {
	var rec inspection.Record
	if err := json.Unmarshal(doc.Data, &rec); err != nil {
		return inspection.Record{}, fmt.Errorf("decode record %s: %w", doc.ID, err)
	}
	rec.ID = doc.ID
	rec.CreatedAt = doc.CreatedAt
	return rec, nil
}

func severeTitles(entries []inspection.DefectEntry) string {
	var titles []string
	for _, e := range entries {
		if e.Grade == inspection.GradeA {
			titles = append(titles, e.Title)
		}
	}
	return strings.Join(titles, ", ")
}

func (a *Adapter) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := a.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logging.WarnWithContext(a.logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "operator not alerted"),
		)
	}
}
