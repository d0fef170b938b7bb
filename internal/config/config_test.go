package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "run.toml", `
strategy = "group"
environment = "target"
target = 42
capacity = 30
threshold = 6
iterations = 25
seed = 7
seed_dna = "1701"

[operator_weights]
"codon.point" = 3.0
"dna.creation" = 0.5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Strategy != StrategyGroup || cfg.Environment != EnvironmentTarget || cfg.Target != 42 {
		t.Fatalf("unexpected run settings: %+v", cfg)
	}
	if cfg.Capacity != 30 || cfg.Threshold != 6 || cfg.Iterations != 25 || cfg.Seed != 7 || cfg.SeedDNA != "1701" {
		t.Fatalf("unexpected population settings: %+v", cfg)
	}
	if cfg.OperatorWeights["codon.point"] != 3 || cfg.OperatorWeights["dna.creation"] != 0.5 {
		t.Fatalf("unexpected operator weights: %v", cfg.OperatorWeights)
	}
	if cfg.MaxMutations != 5 || cfg.Store != "memory" {
		t.Fatalf("expected defaults to survive load: %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "run.yaml", `
strategy: single-bounded
max_accepted: 4
min_mutations: 2
max_mutations: 3
store: sqlite
db_path: runs.db
log_verbosity: 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Strategy != StrategySingleBounded || cfg.MaxAccepted != 4 {
		t.Fatalf("unexpected strategy settings: %+v", cfg)
	}
	if cfg.MinMutations != 2 || cfg.MaxMutations != 3 || cfg.Store != "sqlite" || cfg.DBPath != "runs.db" || cfg.LogVerbosity != 2 {
		t.Fatalf("unexpected settings: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		file string
		body string
		want string
	}{
		{name: "extension", file: "run.json", body: "{}", want: "unsupported config format"},
		{name: "toml syntax", file: "run.toml", body: "strategy = ", want: "decode"},
		{name: "yaml syntax", file: "run.yml", body: "strategy: [", want: "decode"},
		{name: "strategy", file: "run.toml", body: `strategy = "annealing"`, want: "unknown strategy"},
		{name: "bounded", file: "run.toml", body: `strategy = "single-bounded"`, want: "max_accepted"},
		{name: "threshold", file: "run.yaml", body: "threshold: 50", want: "threshold"},
		{name: "sqlite path", file: "run.yaml", body: "store: sqlite", want: "db_path"},
		{name: "weights", file: "run.toml", body: "[operator_weights]\n\"codon.point\" = -1.0", want: "operator weight"},
		{name: "alphabet", file: "run.yaml", body: "alphabet: 254", want: "alphabet"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.file, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected read error")
	}
}
