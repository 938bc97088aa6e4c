package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"roomcheck/internal/config"
	"roomcheck/internal/logging"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrReadOnly is returned for writes against a read-only store.
	ErrReadOnly = errors.New("store is read-only")
	// ErrInvalidDocument is returned for bodies that are not JSON objects.
	ErrInvalidDocument = errors.New("document body must be a JSON object")
)

// Document is one stored JSON body with its store-owned metadata. CreatedAt is
// zero for documents imported without a timestamp.
type Document struct {
	ID        string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is a namespaced JSON document collection backed by SQLite.
type Store struct {
	db       *sql.DB
	path     string
	readOnly bool
	logger   *slog.Logger
	now      func() time.Time

	hub      *changeHub
	interval time.Duration
	stop     context.CancelFunc
	wg       sync.WaitGroup
	pollMu   sync.Mutex
	pollConn *sql.Conn

	// lastVersion is the data_version baseline, -1 until first read. Guarded
	// by pollMu.
	lastVersion int64
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logging.NewComponentLogger(logger, "store") }
}

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithReadOnly refuses every write with ErrReadOnly.
func WithReadOnly(readOnly bool) Option {
	return func(s *Store) { s.readOnly = readOnly }
}

// WithWatchInterval sets how often writes by other processes are polled for.
// Zero disables polling.
func WithWatchInterval(d time.Duration) Option {
	return func(s *Store) { s.interval = d }
}

// Open initializes or connects to the document database inside the data dir.
func Open(cfg *config.Config, opts ...Option) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	opts = append([]Option{func(s *Store) {
		s.readOnly = cfg.Store.ReadOnly
		s.interval = cfg.WatchInterval()
	}}, opts...)
	return OpenPath(cfg.StorePath(), opts...)
}

// OpenPath opens the database at path.
func OpenPath(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	s := &Store{
		db:       db,
		path:     path,
		logger:   logging.NewComponentLogger(nil, "store"),
		now:      time.Now,
		hub:      newChangeHub(),
		interval: 500 * time.Millisecond,

		lastVersion: -1,
	}
	for _, opt := range opts {
		opt(s)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
	}
	if !s.readOnly {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.wg.Add(1)
	go s.pollExternalWrites(ctx)

	return s, nil
}

// Close stops change polling and closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.stop != nil {
		s.stop()
	}
	s.wg.Wait()
	s.hub.closeAll()
	s.pollMu.Lock()
	if s.pollConn != nil {
		_ = s.pollConn.Close()
		s.pollConn = nil
	}
	s.pollMu.Unlock()
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// ReadOnly reports whether writes are refused.
func (s *Store) ReadOnly() bool { return s.readOnly }

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func (s *Store) checkWritable() error {
	if s.readOnly {
		return ErrReadOnly
	}
	return nil
}

func validateBody(data json.RawMessage) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return ErrInvalidDocument
	}
	return nil
}

// Create inserts data under a freshly generated id. created_at is assigned
// here and never changes afterwards.
func (s *Store) Create(ctx context.Context, collection string, data json.RawMessage) (Document, error) {
	if err := s.checkWritable(); err != nil {
		return Document{}, err
	}
	if err := validateBody(data); err != nil {
		return Document{}, err
	}
	id := uuid.NewString()
	stamp := s.timestamp()
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		collection, id, string(data), stamp, stamp,
	); err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}
	s.logger.Debug("document created", logging.String(logging.FieldCollection, collection), logging.String("id", id))
	s.hub.notify(collection)
	created := parseTime(stamp)
	return Document{ID: id, Data: append(json.RawMessage(nil), data...), CreatedAt: created, UpdatedAt: created}, nil
}

// Set writes data under a caller-chosen id, creating the document when it is
// missing and keeping its created_at otherwise.
func (s *Store) Set(ctx context.Context, collection, id string, data json.RawMessage) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	if err := validateBody(data); err != nil {
		return err
	}
	stamp := s.timestamp()
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		collection, id, string(data), stamp, stamp,
	); err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	s.hub.notify(collection)
	return nil
}

// Replace overwrites the body of an existing document.
func (s *Store) Replace(ctx context.Context, collection, id string, data json.RawMessage) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	if err := validateBody(data); err != nil {
		return err
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(data), s.timestamp(), collection, id,
	)
	if err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	s.logger.Debug("document replaced", logging.String(logging.FieldCollection, collection), logging.String("id", id))
	s.hub.notify(collection)
	return nil
}

// Update merges top-level fields into an existing document. Fields absent
// from patch are left untouched; a nil value removes the field.
func (s *Store) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE documents SET data = json_patch(data, ?), updated_at = ? WHERE collection = ? AND id = ?`,
		string(body), s.timestamp(), collection, id,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	s.hub.notify(collection)
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) (bool, error) {
	if err := s.checkWritable(); err != nil {
		return false, err
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	s.hub.notify(collection)
	return true, nil
}

// Get fetches a single document.
func (s *Store) Get(ctx context.Context, collection, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, data, created_at, updated_at FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// List returns every document in collection in insertion order.
func (s *Store) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data, created_at, updated_at FROM documents WHERE collection = ? ORDER BY rowid`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Import writes documents verbatim, keeping their ids and creation times. An
// existing document with the same id is overwritten. It returns the number of
// documents written.
func (s *Store) Import(ctx context.Context, collection string, docs []Document) (int, error) {
	if err := s.checkWritable(); err != nil {
		return 0, err
	}
	for _, doc := range docs {
		if doc.ID == "" {
			return 0, fmt.Errorf("import: document without id")
		}
		if err := validateBody(doc.Data); err != nil {
			return 0, fmt.Errorf("import %s: %w", doc.ID, err)
		}
	}

	written := 0
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		stamp := s.timestamp()
		for _, doc := range docs {
			var created any
			if !doc.CreatedAt.IsZero() {
				created = doc.CreatedAt.UTC().Format(time.RFC3339Nano)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
                 ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data,
                     created_at = excluded.created_at, updated_at = excluded.updated_at`,
				collection, doc.ID, string(doc.Data), created, stamp,
			); err != nil {
				return err
			}
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		written = len(docs)
		return nil
	})
	if err != nil {
		if isSQLiteReadOnly(err) {
			err = errors.Join(ErrReadOnly, err)
		}
		return 0, fmt.Errorf("import documents: %w", err)
	}
	if written > 0 {
		s.hub.notify(collection)
	}
	return written, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDocument(scanner interface{ Scan(dest ...any) error }) (Document, error) {
	var (
		id         string
		data       string
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &data, &createdRaw, &updatedRaw); err != nil {
		return Document{}, err
	}
	doc := Document{ID: id, Data: json.RawMessage(data)}
	if createdRaw.Valid {
		doc.CreatedAt = parseTime(createdRaw.String)
	}
	if updatedRaw.Valid {
		doc.UpdatedAt = parseTime(updatedRaw.String)
	}
	return doc, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
