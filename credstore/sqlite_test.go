package credstore

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.db")

	store, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.Get(ctx, KeyToken); err != nil || ok {
		t.Errorf("Expected empty store, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, KeyToken, "tok-1"); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	got, ok, err := store.Get(ctx, KeyToken)
	if err != nil || !ok || got != "tok-1" {
		t.Errorf("Expected tok-1, got %q ok=%v err=%v", got, ok, err)
	}

	// Overwrite.
	if err := store.Set(ctx, KeyToken, "tok-2"); err != nil {
		t.Fatalf("Failed to overwrite: %v", err)
	}
	got, _, _ = store.Get(ctx, KeyToken)
	if got != "tok-2" {
		t.Errorf("Expected tok-2 after overwrite, got %q", got)
	}

	if err := store.Delete(ctx, KeyToken); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, KeyToken); ok {
		t.Errorf("Expected key gone after delete")
	}

	// Deleting an absent key is not an error.
	if err := store.Delete(ctx, KeyToken); err != nil {
		t.Errorf("Expected idempotent delete, got %v", err)
	}
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.db")

	store, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if err := store.Set(ctx, KeyToken, "tok-persist"); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	if err := store.Set(ctx, KeyUser, `{"id":"usr_1"}`); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	reopened, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.Get(ctx, KeyToken)
	if err != nil || !ok || got != "tok-persist" {
		t.Errorf("Expected token to survive reopen, got %q ok=%v err=%v", got, ok, err)
	}
	if _, ok, _ := reopened.Get(ctx, KeyUser); !ok {
		t.Errorf("Expected profile to survive reopen")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	got, ok, _ := store.Get(ctx, "k")
	if !ok || got != "v" {
		t.Errorf("Expected v, got %q ok=%v", got, ok)
	}

	store.Delete(ctx, "k")
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Errorf("Expected key gone after delete")
	}
	if err := store.Close(); err != nil {
		t.Errorf("Expected Close to be a no-op, got %v", err)
	}
}
