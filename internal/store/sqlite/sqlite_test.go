package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/woo-consulting/apimeter/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(st.Close)
	return st
}

func TestLoad_MissingRow(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Blob("api_usage").Load(context.Background())
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	b := st.Blob("api_usage")
	payload := []byte(`{"GEMINI_API":{}}`)
	if err := b.Save(ctx, payload); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload mismatch: %s", got)
	}
}

func TestSave_ReplacesRow(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	b := st.Blob("api_budgets")

	if err := b.Save(ctx, []byte("first")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := b.Save(ctx, []byte("second")); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("expected latest payload, got %s", got)
	}
}

func TestBlobs_AreIndependent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.Blob("api_usage").Save(ctx, []byte("usage")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := st.Blob("cost_log").Load(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("other blob must stay absent, got %v", err)
	}
}

func TestNew_ReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	first, err := New(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := first.Blob("api_usage").Save(ctx, []byte("persisted")); err != nil {
		t.Fatalf("save: %v", err)
	}
	first.Close()

	second, err := New(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer second.Close()

	got, err := second.Blob("api_usage").Load(ctx)
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if string(got) != "persisted" {
		t.Errorf("expected persisted payload, got %s", got)
	}
}
