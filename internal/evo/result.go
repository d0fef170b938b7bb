package evo

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"genelab/internal/logging"
	"genelab/internal/model"
)

var log = logging.Get("evo")

// RunResult is what every strategy reports when it stops.
type RunResult struct {
	Strategy string
	// BestByGeneration holds the best-ever fitness after each generation or
	// iteration; it never decreases.
	BestByGeneration []float64
	Best             CachedClient
	Generations      int
	Accepted         int
	Evaluations      int
	Diagnostics      []model.GenerationDiagnostics
	// Lineage records every accepted improvement in order.
	Lineage []model.LineageRecord
	Elapsed time.Duration
}

func (r RunResult) Summary() string {
	return fmt.Sprintf("%s: best fitness %s after %s generations, %s evaluations, %s improvements (%s genes, %s codons) in %s",
		r.Strategy,
		humanize.Ftoa(r.Best.Fitness),
		humanize.Comma(int64(r.Generations)),
		humanize.Comma(int64(r.Evaluations)),
		humanize.Comma(int64(r.Accepted)),
		humanize.Comma(int64(r.Best.DNA.Genes())),
		humanize.Comma(int64(r.Best.DNA.Len())),
		r.Elapsed.Round(time.Millisecond),
	)
}
