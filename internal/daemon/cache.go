package daemon

import (
	"context"
	"sync"

	"roomcheck/internal/inspection"
)

// snapshotCache holds the latest delivered snapshot. Every publish bumps the
// version and wakes long-polling readers; version 0 means nothing has been
// delivered yet.
type snapshotCache struct {
	mu      sync.Mutex
	version uint64
	records []inspection.Record
	changed chan struct{}
}

func newSnapshotCache() *snapshotCache {
	return &snapshotCache{changed: make(chan struct{})}
}

func (c *snapshotCache) publish(records []inspection.Record) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = records
	c.version++
	close(c.changed)
	c.changed = make(chan struct{})
	return c.version
}

func (c *snapshotCache) current() (uint64, []inspection.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version, c.records
}

// wait blocks until a snapshot newer than since exists or ctx ends. On
// cancellation the current snapshot is returned with the context error.
func (c *snapshotCache) wait(ctx context.Context, since uint64) (uint64, []inspection.Record, error) {
	for {
		c.mu.Lock()
		version, records, changed := c.version, c.records, c.changed
		c.mu.Unlock()
		if version > since {
			return version, records, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return version, records, ctx.Err()
		}
	}
}
