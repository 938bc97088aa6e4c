package recordsync

import (
	"errors"
	"fmt"

	"roomcheck/internal/store"
)

var (
	// ErrUnavailable covers an unreachable or slow store and a missing
	// identity. The caller keeps its session and may retry.
	ErrUnavailable = errors.New("record store unavailable")
	// ErrRejected means the store refused the write.
	ErrRejected = errors.New("record store rejected the request")
	// ErrNotFound accompanies ErrRejected or stands alone on reads when the
	// record no longer exists.
	ErrNotFound = errors.New("record not found")
	// ErrWrongPassphrase is a validation failure on the delete confirmation.
	ErrWrongPassphrase = errors.New("delete confirmation passphrase does not match")
)

func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrRejected, ErrNotFound)
	case errors.Is(err, store.ErrReadOnly), errors.Is(err, store.ErrInvalidDocument):
		return fmt.Errorf("%s: %w: %w", op, ErrRejected, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
}
