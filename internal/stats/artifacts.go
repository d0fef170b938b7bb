// Package stats writes run artifacts to disk for offline inspection.
package stats

import (
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"genelab/internal/dna"
	"genelab/internal/model"
)

const (
	RunFile         = "run.json"
	FitnessFile     = "fitness_history.json"
	SeriesFile      = "fitness_series.csv"
	DiagnosticsFile = "generation_diagnostics.json"
	LineageFile     = "lineage.json"
	BestDNAFile     = "best_dna.json"
)

type RunArtifacts struct {
	Run              model.RunRecord
	BestDNA          dna.DNA
	BestByGeneration []float64
	Diagnostics      []model.GenerationDiagnostics
	Lineage          []model.LineageRecord
}

type bestDNA struct {
	Fingerprint string `json:"fingerprint"`
	Genes       int    `json:"genes"`
	Codons      int    `json:"codons"`
	// Flat is the hex encoded flat form, genes separated by 00.
	Flat     string `json:"flat"`
	Readable string `json:"readable"`
}

// WriteRunArtifacts writes one directory per run under baseDir and returns
// its path.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, RunFile), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, FitnessFile), map[string]any{"best_by_generation": artifacts.BestByGeneration, "final_best_fitness": artifacts.Run.BestFitness}); err != nil {
		return "", err
	}
	if err := WriteFitnessSeries(runDir, artifacts.BestByGeneration); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, DiagnosticsFile), artifacts.Diagnostics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, LineageFile), artifacts.Lineage); err != nil {
		return "", err
	}
	best := bestDNA{
		Fingerprint: artifacts.BestDNA.Fingerprint(),
		Genes:       artifacts.BestDNA.Genes(),
		Codons:      artifacts.BestDNA.Len(),
		Flat:        hex.EncodeToString(artifacts.BestDNA.Bytes()),
		Readable:    artifacts.BestDNA.String(),
	}
	if err := writeJSON(filepath.Join(runDir, BestDNAFile), best); err != nil {
		return "", err
	}
	return runDir, nil
}

func WriteFitnessSeries(runDir string, bestByGeneration []float64) error {
	file, err := os.Create(filepath.Join(runDir, SeriesFile))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best_fitness"}); err != nil {
		return err
	}
	for i, best := range bestByGeneration {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(best, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadFitnessSeries reads a series written by WriteFitnessSeries. A missing
// file reports false.
func ReadFitnessSeries(runDir string) ([]float64, bool, error) {
	file, err := os.Open(filepath.Join(runDir, SeriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}

	var series []float64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 2 {
			return nil, false, fmt.Errorf("fitness series row must have 2 columns")
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, value)
	}
	return series, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
