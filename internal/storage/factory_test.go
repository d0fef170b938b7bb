package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewStoreMemory(t *testing.T) {
	for _, kind := range []string{"", DefaultStoreKind} {
		store, err := NewStore(kind, "")
		if err != nil {
			t.Fatalf("new memory store: %v", err)
		}
		if _, ok := store.(*MemoryStore); !ok {
			t.Fatalf("expected memory store for %q, got %T", kind, store)
		}
		if err := CloseIfSupported(store); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
}

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore("sqlite", filepath.Join(t.TempDir(), "genelab.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := NewStore("sqlite", ""); err == nil {
		t.Fatal("expected sqlite path error")
	}
}

func TestNewStoreUnsupported(t *testing.T) {
	if _, err := NewStore("unknown", ""); err == nil {
		t.Fatal("expected unsupported store error")
	}
}
