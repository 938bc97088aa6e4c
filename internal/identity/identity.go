// Package identity establishes the session identity that gates store writes.
//
// A configured token yields a named identity. Without one, an anonymous uid is
// generated once and persisted in the data directory so the same installation
// keeps the same uid across restarts.
package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"roomcheck/internal/config"
	"roomcheck/internal/fileutil"
)

// ErrUnavailable means no identity could be established. Writes must be
// refused until a later attempt succeeds.
var ErrUnavailable = errors.New("identity unavailable")

// Identity is an opaque established session.
type Identity struct {
	UID       string    `json:"uid"`
	Anonymous bool      `json:"anonymous"`
	Since     time.Time `json:"since"`
}

// Provider establishes identities.
type Provider interface {
	Establish(ctx context.Context) (Identity, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (Identity, error)

func (f ProviderFunc) Establish(ctx context.Context) (Identity, error) { return f(ctx) }

// Local is the built-in provider.
type Local struct {
	path    string
	token   string
	offline bool

	mu  sync.Mutex
	now func() time.Time
}

// NewLocal builds a provider from the [auth] section and the data directory.
func NewLocal(cfg *config.Config) *Local {
	return &Local{
		path:    cfg.IdentityPath(),
		token:   cfg.Auth.Token,
		offline: cfg.Auth.Offline,
		now:     time.Now,
	}
}

// Establish returns the token identity when a token is configured, otherwise
// the persisted anonymous identity, creating it on first use.
func (l *Local) Establish(ctx context.Context) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if l.offline {
		return Identity{}, fmt.Errorf("%w: offline mode", ErrUnavailable)
	}
	if token := strings.TrimSpace(l.token); token != "" {
		sum := sha256.Sum256([]byte(token))
		return Identity{UID: "tok-" + hex.EncodeToString(sum[:8]), Since: l.now().UTC()}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		var id Identity
		if err := json.Unmarshal(data, &id); err != nil || id.UID == "" {
			return Identity{}, fmt.Errorf("%w: corrupt identity file %s", ErrUnavailable, l.path)
		}
		return id, nil
	case errors.Is(err, fs.ErrNotExist):
		return l.create()
	default:
		return Identity{}, fmt.Errorf("%w: read identity: %v", ErrUnavailable, err)
	}
}

func (l *Local) create() (Identity, error) {
	id := Identity{UID: uuid.NewString(), Anonymous: true, Since: l.now().UTC()}
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return Identity{}, fmt.Errorf("encode identity: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := fileutil.WriteFileAtomic(l.path, data, 0o600); err != nil {
		return Identity{}, fmt.Errorf("%w: persist identity: %v", ErrUnavailable, err)
	}
	return id, nil
}
