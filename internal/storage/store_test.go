package storage

import (
	"context"
	"testing"

	"genelab/internal/model"
)

// exerciseStore runs the same round trips against any backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	record := model.DNARecord{
		VersionedRecord: CurrentVersion(),
		ID:              "dna-1",
		Framed:          []byte{0xFF, 24, 1, 22, 255, 3, 0, 21, 0xFF},
		Alphabet:        34,
		Fitness:         2.5,
		Fingerprint:     "abc",
	}
	if err := store.SaveDNA(ctx, record); err != nil {
		t.Fatalf("save dna: %v", err)
	}
	loaded, ok, err := store.GetDNA(ctx, record.ID)
	if err != nil {
		t.Fatalf("get dna: %v", err)
	}
	if !ok || loaded.ID != record.ID || string(loaded.Framed) != string(record.Framed) || loaded.Fitness != 2.5 {
		t.Fatalf("unexpected dna loaded: %+v", loaded)
	}
	if _, ok, err := store.GetDNA(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing dna, ok=%t err=%v", ok, err)
	}

	population := model.Population{
		VersionedRecord: CurrentVersion(),
		ID:              "pop-1",
		MemberIDs:       []string{"dna-1", "dna-2"},
		Generation:      3,
	}
	if err := store.SavePopulation(ctx, population); err != nil {
		t.Fatalf("save population: %v", err)
	}
	loadedPopulation, ok, err := store.GetPopulation(ctx, population.ID)
	if err != nil {
		t.Fatalf("get population: %v", err)
	}
	if !ok || len(loadedPopulation.MemberIDs) != 2 || loadedPopulation.Generation != 3 {
		t.Fatalf("unexpected population loaded: %+v", loadedPopulation)
	}

	for _, run := range []model.RunRecord{
		{VersionedRecord: CurrentVersion(), ID: "run-b", Strategy: "group", CreatedAtUTC: "2026-01-02T00:00:00Z"},
		{VersionedRecord: CurrentVersion(), ID: "run-a", Strategy: "single", CreatedAtUTC: "2026-01-01T00:00:00Z", BestFitness: 4},
		{VersionedRecord: CurrentVersion(), ID: "run-c", Strategy: "dual", CreatedAtUTC: "2026-01-02T00:00:00Z"},
	} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", run.ID, err)
		}
	}
	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "run-a" || runs[1].ID != "run-b" || runs[2].ID != "run-c" {
		t.Fatalf("unexpected run order: %+v", runs)
	}
	run, ok, err := store.GetRun(ctx, "run-a")
	if err != nil || !ok || run.BestFitness != 4 || run.Strategy != "single" {
		t.Fatalf("unexpected run: %+v ok=%t err=%v", run, ok, err)
	}

	if err := store.SaveFitnessHistory(ctx, "run-a", []float64{1, 2, 2, 3}); err != nil {
		t.Fatalf("save fitness history: %v", err)
	}
	history, ok, err := store.GetFitnessHistory(ctx, "run-a")
	if err != nil || !ok || len(history) != 4 || history[3] != 3 {
		t.Fatalf("unexpected history: %v ok=%t err=%v", history, ok, err)
	}

	diagnostics := []model.GenerationDiagnostics{{Generation: 1, BestFitness: 3, MeanFitness: 1.5, Evaluated: 40, FingerprintDiversity: 12}}
	if err := store.SaveGenerationDiagnostics(ctx, "run-a", diagnostics); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	loadedDiagnostics, ok, err := store.GetGenerationDiagnostics(ctx, "run-a")
	if err != nil || !ok || len(loadedDiagnostics) != 1 || loadedDiagnostics[0] != diagnostics[0] {
		t.Fatalf("unexpected diagnostics: %+v ok=%t err=%v", loadedDiagnostics, ok, err)
	}

	lineage := []model.LineageRecord{{Fingerprint: "f2", ParentFingerprint: "f1", Generation: 2, Operation: "codon.point"}}
	if err := store.SaveLineage(ctx, "run-a", lineage); err != nil {
		t.Fatalf("save lineage: %v", err)
	}
	loadedLineage, ok, err := store.GetLineage(ctx, "run-a")
	if err != nil || !ok || len(loadedLineage) != 1 || loadedLineage[0] != lineage[0] {
		t.Fatalf("unexpected lineage: %+v ok=%t err=%v", loadedLineage, ok, err)
	}
	if _, ok, err := store.GetLineage(ctx, "run-missing"); err != nil || ok {
		t.Fatalf("expected missing lineage, ok=%t err=%v", ok, err)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	exerciseStore(t, store)
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveRun(context.Background(), model.RunRecord{ID: "r"}); err == nil {
		t.Fatal("expected not initialized error")
	}
}

func TestMemoryStoreCopiesSlices(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	history := []float64{1, 2}
	if err := store.SaveFitnessHistory(ctx, "r", history); err != nil {
		t.Fatalf("save: %v", err)
	}
	history[0] = 99
	got, _, _ := store.GetFitnessHistory(ctx, "r")
	if got[0] != 1 {
		t.Fatalf("store aliased caller slice: %v", got)
	}
}
