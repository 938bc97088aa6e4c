package recordsync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"roomcheck/internal/logging"
	"roomcheck/internal/notifications"
)

// CheckPassphrase compares a typed confirmation against the configured delete
// passphrase. It is a guard against accidental taps, not access control.
func (a *Adapter) CheckPassphrase(typed string) error {
	if strings.TrimSpace(typed) != a.passphrase {
		return ErrWrongPassphrase
	}
	return nil
}

// DeleteOne removes one record after the passphrase check and reports whether
// it existed. Deleting a record that is already gone succeeds with false and
// is neither logged nor announced.
func (a *Adapter) DeleteOne(ctx context.Context, id, passphrase string) (bool, error) {
	if err := a.CheckPassphrase(passphrase); err != nil {
		return false, err
	}
	if err := a.requireIdentity("delete"); err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	removed, err := a.store.Delete(ctx, a.collection, id)
	if err != nil {
		return false, classify("delete", err)
	}
	if !removed {
		return false, nil
	}
	ctx = logging.WithEntryID(ctx, id)
	logging.WithContext(ctx, a.logger).Info("inspection deleted")
	a.publish(ctx, notifications.EventRecordsPurged, notifications.Payload{"count": 1, "scope": id})
	return true, nil
}

// DeleteAll removes every record after the passphrase check and returns how
// many were deleted. Deletion is per record; on failure the records already
// removed stay removed and the count reflects them.
func (a *Adapter) DeleteAll(ctx context.Context, passphrase string) (int, error) {
	if err := a.CheckPassphrase(passphrase); err != nil {
		return 0, err
	}
	if err := a.requireIdentity("delete all"); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	docs, err := a.store.List(ctx, a.collection)
	if err != nil {
		return 0, classify("delete all", err)
	}

	deleted := 0
	var errs []error
	for _, doc := range docs {
		removed, err := a.store.Delete(ctx, a.collection, doc.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", doc.ID, err))
			continue
		}
		if removed {
			deleted++
		}
	}

	if deleted > 0 {
		a.logger.Info("inspections purged", logging.Int("count", deleted))
		a.publish(ctx, notifications.EventRecordsPurged, notifications.Payload{"count": deleted, "scope": "all"})
	}
	if len(errs) > 0 {
		return deleted, classify("delete all", errors.Join(errs...))
	}
	return deleted, nil
}
