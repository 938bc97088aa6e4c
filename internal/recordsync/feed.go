package recordsync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"roomcheck/internal/inspection"
	"roomcheck/internal/logging"
)

const feedRetryDelay = 2 * time.Second

// Feed streams full record snapshots, newest first. Each value supersedes
// every earlier one; snapshots that were outdated before the consumer read
// them are dropped rather than queued.
type Feed struct {
	adapter *Adapter
	ch      chan []inspection.Record
	done    chan struct{}
	exited  chan struct{}
	resub   chan struct{}
	once    sync.Once
}

// Feed opens a live snapshot stream. The first value is the current state.
func (a *Adapter) Feed() *Feed {
	f := &Feed{
		adapter: a,
		ch:      make(chan []inspection.Record),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
		resub:   make(chan struct{}, 1),
	}
	a.mu.Lock()
	a.feeds[f] = struct{}{}
	a.mu.Unlock()
	go f.run()
	return f
}

// C returns the snapshot channel. It is closed once the feed is closed.
func (f *Feed) C() <-chan []inspection.Record { return f.ch }

// Close stops the feed. When it returns no further snapshot will be sent and
// the channel is closed. Close is idempotent.
func (f *Feed) Close() {
	f.once.Do(func() {
		f.adapter.mu.Lock()
		delete(f.adapter.feeds, f)
		f.adapter.mu.Unlock()
		close(f.done)
		<-f.exited
		close(f.ch)
	})
}

func (f *Feed) reattach() {
	select {
	case f.resub <- struct{}{}:
	default:
	}
}

func (f *Feed) run() {
	defer close(f.exited)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-f.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	watcher := f.adapter.store.Watch(f.adapter.collection)
	defer func() { watcher.Close() }()

	var (
		out    chan<- []inspection.Record
		latest []inspection.Record
		retry  <-chan time.Time
		dirty  = true
	)
	for {
		if dirty {
			dirty = false
			snap, err := f.adapter.Snapshot(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logging.WarnWithContext(f.adapter.logger, "snapshot refresh failed", "snapshot_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "history view is stale"),
				)
				retry = time.After(feedRetryDelay)
			} else {
				latest, out, retry = snap, f.ch, nil
			}
		}

		select {
		case <-f.done:
			return
		case out <- latest:
			out, latest = nil, nil
		case _, ok := <-watcher.C():
			if !ok {
				// Store closed; nothing more will change.
				<-f.done
				return
			}
			dirty = true
		case <-f.resub:
			watcher.Close()
			watcher = f.adapter.store.Watch(f.adapter.collection)
			dirty = true
		case <-retry:
			dirty = true
		}
	}
}

// Unsubscribe cancels a callback subscription.
type Unsubscribe func()

// Subscribe invokes onSnapshot with every snapshot until the returned
// Unsubscribe is called. Callbacks run on one goroutine, in order. Once
// Unsubscribe returns no new callback starts; it may be called from inside
// the callback.
func (a *Adapter) Subscribe(onSnapshot func([]inspection.Record)) Unsubscribe {
	feed := a.Feed()
	var (
		// mu spans the closed check and the callback it admits.
		mu         sync.Mutex
		closed     atomic.Bool
		delivering atomic.Bool
	)
	go func() {
		for snap := range feed.C() {
			mu.Lock()
			if !closed.Load() {
				delivering.Store(true)
				onSnapshot(snap)
				delivering.Store(false)
			}
			mu.Unlock()
		}
	}()
	return func() {
		closed.Store(true)
		// A callback already running has passed its check and no later one
		// can. Otherwise wait out a check that may have just admitted one.
		if !delivering.Load() {
			mu.Lock()
			mu.Unlock() //nolint:staticcheck // barrier
		}
		// Close waits for the sender, not for the callback goroutine.
		go feed.Close()
	}
}
