package genelab

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"genelab/internal/dna"
	"genelab/internal/model"
	"genelab/internal/stats"
)

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Age              string
	Strategy         string
	Environment      string
	Seed             int64
	Generations      int
	Accepted         int
	FinalBestFitness float64
}

// HistoryRequest addresses one stored run, either by id or as the most
// recent one.
type HistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type DNAItem struct {
	ID          string
	DNA         dna.DNA
	Alphabet    int
	Fitness     float64
	Fingerprint string
}

// Runs lists stored runs, newest first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	runs, err := c.newestRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}

	out := make([]RunItem, 0, len(runs))
	for _, r := range runs {
		item := RunItem{
			RunID:            r.ID,
			CreatedAtUTC:     r.CreatedAtUTC,
			Strategy:         r.Strategy,
			Environment:      r.Environment,
			Seed:             r.Seed,
			Generations:      r.Generations,
			Accepted:         r.Accepted,
			FinalBestFitness: r.BestFitness,
		}
		if created, err := time.Parse(createdAtLayout, r.CreatedAtUTC); err == nil {
			item.Age = humanize.Time(created)
		}
		out = append(out, item)
	}
	return out, nil
}

// BestDNA returns the best candidate a run recorded.
func (c *Client) BestDNA(ctx context.Context, req HistoryRequest) (DNAItem, error) {
	run, err := c.resolveRun(ctx, req)
	if err != nil {
		return DNAItem{}, err
	}
	return c.dnaItem(ctx, run.BestDNAID)
}

// PopulationSnapshot returns the members alive when a run finished.
func (c *Client) PopulationSnapshot(ctx context.Context, req HistoryRequest) ([]DNAItem, error) {
	run, err := c.resolveRun(ctx, req)
	if err != nil {
		return nil, err
	}
	population, ok, err := c.store.GetPopulation(ctx, run.PopulationID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("population not found for run id: %s", run.ID)
	}
	ids := population.MemberIDs
	if req.Limit > 0 && len(ids) > req.Limit {
		ids = ids[:req.Limit]
	}
	out := make([]DNAItem, 0, len(ids))
	for _, id := range ids {
		item, err := c.dnaItem(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req HistoryRequest) ([]float64, error) {
	run, err := c.resolveRun(ctx, req)
	if err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", run.ID)
	}
	return limit(history, req.Limit), nil
}

func (c *Client) Diagnostics(ctx context.Context, req HistoryRequest) ([]model.GenerationDiagnostics, error) {
	run, err := c.resolveRun(ctx, req)
	if err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", run.ID)
	}
	return limit(diagnostics, req.Limit), nil
}

func (c *Client) Lineage(ctx context.Context, req HistoryRequest) ([]model.LineageRecord, error) {
	run, err := c.resolveRun(ctx, req)
	if err != nil {
		return nil, err
	}
	lineage, ok, err := c.store.GetLineage(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("lineage not found for run id: %s", run.ID)
	}
	return limit(lineage, req.Limit), nil
}

// Export writes a stored run's artifacts as JSON and CSV files.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	run, err := c.resolveRun(ctx, HistoryRequest{RunID: req.RunID, Latest: req.Latest})
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	best, err := c.dnaItem(ctx, run.BestDNAID)
	if err != nil {
		return ExportSummary{}, err
	}
	artifacts := stats.RunArtifacts{Run: run, BestDNA: best.DNA}
	if artifacts.BestByGeneration, err = c.FitnessHistory(ctx, HistoryRequest{RunID: run.ID}); err != nil {
		return ExportSummary{}, err
	}
	if artifacts.Diagnostics, err = c.Diagnostics(ctx, HistoryRequest{RunID: run.ID}); err != nil {
		return ExportSummary{}, err
	}
	if artifacts.Lineage, err = c.Lineage(ctx, HistoryRequest{RunID: run.ID}); err != nil {
		return ExportSummary{}, err
	}

	dir, err := stats.WriteRunArtifacts(req.OutDir, artifacts)
	if err != nil {
		return ExportSummary{}, err
	}
	log.Infof("exported run %s to %s", run.ID, dir)
	return ExportSummary{RunID: run.ID, Directory: filepath.Clean(dir)}, nil
}

func (c *Client) resolveRun(ctx context.Context, req HistoryRequest) (model.RunRecord, error) {
	if req.RunID != "" && req.Latest {
		return model.RunRecord{}, errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return model.RunRecord{}, errors.New("limit must be >= 0")
	}
	if req.RunID == "" && !req.Latest {
		return model.RunRecord{}, errors.New("run id or latest is required")
	}
	if err := c.Init(ctx); err != nil {
		return model.RunRecord{}, err
	}

	if req.Latest {
		runs, err := c.newestRuns(ctx)
		if err != nil {
			return model.RunRecord{}, err
		}
		if len(runs) == 0 {
			return model.RunRecord{}, errors.New("no runs available")
		}
		return runs[0], nil
	}
	run, ok, err := c.store.GetRun(ctx, req.RunID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if !ok {
		return model.RunRecord{}, fmt.Errorf("run not found: %s", req.RunID)
	}
	return run, nil
}

func (c *Client) newestRuns(ctx context.Context) ([]model.RunRecord, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	slices.Reverse(runs)
	return runs, nil
}

func (c *Client) dnaItem(ctx context.Context, id string) (DNAItem, error) {
	record, ok, err := c.store.GetDNA(ctx, id)
	if err != nil {
		return DNAItem{}, err
	}
	if !ok {
		return DNAItem{}, fmt.Errorf("dna not found: %s", id)
	}
	d, err := dna.ParseFramed(record.Framed)
	if err != nil {
		return DNAItem{}, fmt.Errorf("decode dna %s: %w", id, err)
	}
	return DNAItem{
		ID:          record.ID,
		DNA:         d,
		Alphabet:    record.Alphabet,
		Fitness:     record.Fitness,
		Fingerprint: record.Fingerprint,
	}, nil
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
