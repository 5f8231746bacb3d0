package web

import (
	"testing"
	"time"

	"ftpbrowser/config"
)

func TestCredentialStoreExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewCredentialStore(time.Minute)
	store.now = func() time.Time { return now }

	id := store.Put(config.Credentials{Host: "h", Username: "u", Password: "p"})
	creds, ok := store.Get(id)
	if !ok || creds.Password != "p" {
		t.Fatalf("expected stored credentials, got %v %v", creds, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get(id); ok {
		t.Error("expected entry to expire")
	}
	if store.Len() != 0 {
		t.Errorf("expected expired entry to be pruned, got %d", store.Len())
	}
}

func TestCredentialStoreDelete(t *testing.T) {
	store := NewCredentialStore(time.Hour)
	a := store.Put(config.Credentials{Host: "a"})
	b := store.Put(config.Credentials{Host: "b"})
	if a == b {
		t.Fatal("expected distinct ids")
	}

	store.Delete(a)
	if _, ok := store.Get(a); ok {
		t.Error("expected a to be gone")
	}
	if creds, ok := store.Get(b); !ok || creds.Host != "b" {
		t.Error("expected b to remain")
	}
}
