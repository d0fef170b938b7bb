package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"genelab/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "genelab.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	exerciseStore(t, newTestSQLiteStore(t))
}

func TestSQLiteStoreUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	run := model.RunRecord{VersionedRecord: CurrentVersion(), ID: "r1", Generations: 1, CreatedAtUTC: "2026-01-01T00:00:00Z"}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	run.Generations = 9
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("update run: %v", err)
	}
	loaded, ok, err := store.GetRun(ctx, "r1")
	if err != nil || !ok || loaded.Generations != 9 {
		t.Fatalf("expected updated run, got %+v ok=%t err=%v", loaded, ok, err)
	}
	runs, err := store.ListRuns(ctx)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected one run, got %d err=%v", len(runs), err)
	}
}

func TestSQLiteStoreRejectsVersionMismatch(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	record := model.DNARecord{VersionedRecord: model.VersionedRecord{SchemaVersion: 2, CodecVersion: 1}, ID: "old"}
	if err := store.SaveDNA(ctx, record); err != nil {
		t.Fatalf("save dna: %v", err)
	}
	if _, _, err := store.GetDNA(ctx, "old"); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "genelab.db"))
	if _, _, err := store.GetRun(context.Background(), "r"); err == nil {
		t.Fatal("expected not initialized error")
	}
	if err := NewSQLiteStore("").Init(context.Background()); err == nil {
		t.Fatal("expected path required error")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close of uninitialized store: %v", err)
	}
}
