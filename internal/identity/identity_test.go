package identity_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"roomcheck/internal/config"
	"roomcheck/internal/identity"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	return &cfg
}

func TestAnonymousIdentityPersists(t *testing.T) {
	cfg := testConfig(t)
	first, err := identity.NewLocal(cfg).Establish(context.Background())
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if !first.Anonymous || first.UID == "" {
		t.Fatalf("unexpected identity %+v", first)
	}
	second, err := identity.NewLocal(cfg).Establish(context.Background())
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if second.UID != first.UID {
		t.Fatalf("uid changed across providers: %q vs %q", first.UID, second.UID)
	}
}

func TestTokenIdentityIsStable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Token = "secret"
	a, err := identity.NewLocal(cfg).Establish(context.Background())
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	b, _ := identity.NewLocal(cfg).Establish(context.Background())
	if a.Anonymous || a.UID != b.UID || a.UID == "" {
		t.Fatalf("unexpected token identities %+v %+v", a, b)
	}
	if _, err := os.Stat(cfg.IdentityPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("token identity should not write a file: %v", err)
	}
}

func TestOfflineAndCorrupt(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Offline = true
	if _, err := identity.NewLocal(cfg).Establish(context.Background()); !errors.Is(err, identity.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	cfg = testConfig(t)
	if err := os.WriteFile(cfg.IdentityPath(), []byte("{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := identity.NewLocal(cfg).Establish(context.Background()); !errors.Is(err, identity.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for corrupt file, got %v", err)
	}
}
