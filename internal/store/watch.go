package store

import (
	"context"
	"sync"
	"time"

	"roomcheck/internal/logging"
)

// Watcher receives a signal whenever its collection may have changed. Signals
// coalesce: a receiver that falls behind sees one pending signal, not one per
// write.
type Watcher struct {
	hub        *changeHub
	collection string
	ch         chan struct{}
	once       sync.Once
}

// C returns the signal channel. It is closed when the watcher or the store is
// closed.
func (w *Watcher) C() <-chan struct{} { return w.ch }

// Close unregisters the watcher. It is safe to call more than once.
func (w *Watcher) Close() {
	w.once.Do(func() { w.hub.remove(w) })
}

// Watch registers for change signals on collection. Writes made through this
// Store signal immediately; writes by other processes are picked up by
// polling the database's data_version. The first watcher records the
// data_version baseline before Watch returns, so an external commit made
// right after it is signalled.
func (s *Store) Watch(collection string) *Watcher {
	w := s.hub.add(collection)
	if s.interval > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.seedDataVersion(ctx); err != nil {
			s.logger.Debug("data_version seed failed", logging.Error(err))
		}
	}
	return w
}

type changeHub struct {
	mu       sync.Mutex
	watchers map[*Watcher]struct{}
	closed   bool
}

func newChangeHub() *changeHub {
	return &changeHub{watchers: make(map[*Watcher]struct{})}
}

func (h *changeHub) add(collection string) *Watcher {
	w := &Watcher{hub: h, collection: collection, ch: make(chan struct{}, 1)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(w.ch)
		return w
	}
	h.watchers[w] = struct{}{}
	return w
}

func (h *changeHub) remove(w *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.watchers[w]; ok {
		delete(h.watchers, w)
		close(w.ch)
	}
}

func (h *changeHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers)
}

// notify signals watchers of collection, or every watcher when collection is
// empty.
func (h *changeHub) notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for w := range h.watchers {
		if collection != "" && w.collection != collection {
			continue
		}
		select {
		case w.ch <- struct{}{}:
		default:
		}
	}
}

func (h *changeHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for w := range h.watchers {
		delete(h.watchers, w)
		close(w.ch)
	}
	h.closed = true
}

// pollExternalWrites watches PRAGMA data_version on a dedicated connection.
// The value changes whenever another connection commits, which covers other
// processes sharing the database file.
func (s *Store) pollExternalWrites(ctx context.Context) {
	defer s.wg.Done()
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if s.hub.count() == 0 {
			continue
		}
		changed, err := s.observeDataVersion(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Debug("data_version poll failed", logging.Error(err))
			}
			continue
		}
		if changed {
			s.hub.notify("")
		}
	}
}

// seedDataVersion records the baseline unless one is already held. A stale
// baseline left from an earlier watcher only costs a spurious signal.
func (s *Store) seedDataVersion(ctx context.Context) error {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	if s.lastVersion >= 0 {
		return nil
	}
	version, err := s.dataVersionLocked(ctx)
	if err != nil {
		return err
	}
	s.lastVersion = version
	return nil
}

// observeDataVersion reads data_version and reports whether it moved since
// the baseline. The first successful read only sets the baseline.
func (s *Store) observeDataVersion(ctx context.Context) (bool, error) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	version, err := s.dataVersionLocked(ctx)
	if err != nil {
		return false, err
	}
	changed := s.lastVersion >= 0 && version != s.lastVersion
	s.lastVersion = version
	return changed, nil
}

// dataVersionLocked must be called with pollMu held.
func (s *Store) dataVersionLocked(ctx context.Context) (int64, error) {
	if s.pollConn == nil {
		conn, err := s.db.Conn(ctx)
		if err != nil {
			return 0, err
		}
		s.pollConn = conn
	}
	var version int64
	if err := s.pollConn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&version); err != nil {
		_ = s.pollConn.Close()
		s.pollConn = nil
		return 0, err
	}
	return version, nil
}
