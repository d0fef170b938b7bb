package genelab

import (
	"encoding/hex"
	"fmt"

	"genelab/internal/config"
	"genelab/internal/dna"
	"genelab/internal/logging"
)

// RequestFromConfig maps a loaded configuration onto a run request. The
// config's seed DNA is hex encoded flat form.
func RequestFromConfig(cfg config.Config) (RunRequest, error) {
	if err := cfg.Validate(); err != nil {
		return RunRequest{}, err
	}
	req := RunRequest{
		Strategy:             cfg.Strategy,
		Environment:          cfg.Environment,
		Target:               cfg.Target,
		Iterations:           cfg.Iterations,
		MaxAccepted:          cfg.MaxAccepted,
		Capacity:             cfg.Capacity,
		Threshold:            cfg.Threshold,
		RecombineSlots:       cfg.RecombineSlots,
		SwapOneIn:            cfg.SwapOneIn,
		Selection:            cfg.Selector,
		FitnessPostprocessor: cfg.Postprocessor,
		MinMutations:         cfg.MinMutations,
		MaxMutations:         cfg.MaxMutations,
		CrossoverMutateOneIn: cfg.CrossoverMutateOneIn,
		MaxGeneLength:        cfg.MaxGeneLength,
		MaxGenes:             cfg.MaxGenes,
		OperatorWeights:      cfg.OperatorWeights,
		Alphabet:             cfg.Alphabet,
		Seed:                 cfg.Seed,
	}
	if cfg.SeedDNA != "" {
		raw, err := hex.DecodeString(cfg.SeedDNA)
		if err != nil {
			return RunRequest{}, fmt.Errorf("seed dna: %w", err)
		}
		seed := dna.Parse(raw)
		req.SeedDNA = &seed
	}
	return req, nil
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{StoreKind: cfg.Store, DBPath: cfg.DBPath, ExportsDir: cfg.ExportsDir}
}

func ConfigureLogging(cfg config.Config) {
	logging.Configure(cfg.LogVerbosity, cfg.LogPath)
}
