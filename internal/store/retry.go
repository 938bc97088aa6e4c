package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

const (
	sqliteBusyCode          = 5
	sqliteReadOnlyCode      = 8
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func sqliteCode(err error) (int, bool) {
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		// Extended result codes carry the primary code in the low byte.
		return coder.Code() & 0xff, true
	}
	return 0, false
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqliteCode(err); ok && code == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func isSQLiteReadOnly(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqliteCode(err); ok && code == sqliteReadOnlyCode {
		return true
	}
	return strings.Contains(err.Error(), "readonly database")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if isSQLiteReadOnly(err) {
		return nil, errors.Join(ErrReadOnly, err)
	}
	return res, err
}
