package testsupport

import (
	"context"
	"testing"

	"podium/internal/config"
	"podium/internal/history"
)

// MustOpenHistory opens a history.Store for tests and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddSession stores a session for tests.
func AddSession(t testing.TB, store *history.Store, session history.Session) *history.Session {
	t.Helper()

	stored, err := store.Add(context.Background(), session)
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return stored
}
