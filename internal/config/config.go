// Package config loads run configuration files. TOML and YAML are accepted,
// chosen by file extension.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	StrategySingle        = "single"
	StrategySingleBounded = "single-bounded"
	StrategyGroup         = "group"
	StrategyDual          = "dual"

	EnvironmentBranch = "branch"
	EnvironmentTarget = "target"
)

type Config struct {
	Strategy    string `toml:"strategy" yaml:"strategy"`
	Environment string `toml:"environment" yaml:"environment"`
	// Target is the integer the "target" environment steers toward.
	Target int64 `toml:"target" yaml:"target"`
	// Seed is the flat-form seed DNA written as hex, genes separated by "00".
	SeedDNA string `toml:"seed_dna" yaml:"seed_dna"`

	Capacity       int    `toml:"capacity" yaml:"capacity"`
	Threshold      int    `toml:"threshold" yaml:"threshold"`
	RecombineSlots int    `toml:"recombine_slots" yaml:"recombine_slots"`
	SwapOneIn      int    `toml:"swap_one_in" yaml:"swap_one_in"`
	Selector       string `toml:"selector" yaml:"selector"`
	Postprocessor  string `toml:"postprocessor" yaml:"postprocessor"`

	// Iterations bounds every strategy: iterations for single, generations
	// or turns for the population strategies.
	Iterations  int `toml:"iterations" yaml:"iterations"`
	MaxAccepted int `toml:"max_accepted" yaml:"max_accepted"`

	MinMutations         int                `toml:"min_mutations" yaml:"min_mutations"`
	MaxMutations         int                `toml:"max_mutations" yaml:"max_mutations"`
	CrossoverMutateOneIn int                `toml:"crossover_mutate_one_in" yaml:"crossover_mutate_one_in"`
	MaxGeneLength        int                `toml:"max_gene_length" yaml:"max_gene_length"`
	MaxGenes             int                `toml:"max_genes" yaml:"max_genes"`
	OperatorWeights      map[string]float64 `toml:"operator_weights" yaml:"operator_weights"`

	Alphabet int   `toml:"alphabet" yaml:"alphabet"`
	Seed     int64 `toml:"seed" yaml:"seed"`

	Store      string `toml:"store" yaml:"store"`
	DBPath     string `toml:"db_path" yaml:"db_path"`
	ExportsDir string `toml:"exports_dir" yaml:"exports_dir"`

	LogVerbosity int    `toml:"log_verbosity" yaml:"log_verbosity"`
	LogPath      string `toml:"log_path" yaml:"log_path"`
}

func Default() Config {
	return Config{
		Strategy:             StrategySingle,
		Environment:          EnvironmentBranch,
		Capacity:             50,
		Threshold:            10,
		SwapOneIn:            27,
		Selector:             "elite",
		Postprocessor:        "none",
		Iterations:           1000,
		MinMutations:         1,
		MaxMutations:         5,
		CrossoverMutateOneIn: 5,
		MaxGeneLength:        8,
		MaxGenes:             64,
		Store:                "memory",
		LogVerbosity:         1,
	}
}

// Load reads path over Default and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format: %q", ext)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Strategy {
	case StrategySingle, StrategySingleBounded, StrategyGroup, StrategyDual:
	default:
		return fmt.Errorf("unknown strategy: %q", c.Strategy)
	}
	switch c.Environment {
	case EnvironmentBranch, EnvironmentTarget:
	default:
		return fmt.Errorf("unknown environment: %q", c.Environment)
	}
	if c.Strategy == StrategySingleBounded && c.MaxAccepted <= 0 {
		return errors.New("max_accepted must be > 0 for single-bounded")
	}
	if c.Iterations <= 0 {
		return errors.New("iterations must be > 0")
	}
	if c.Capacity <= 0 {
		return errors.New("capacity must be > 0")
	}
	if c.Threshold <= 0 || c.Threshold >= c.Capacity {
		return errors.New("threshold must be > 0 and < capacity")
	}
	if c.RecombineSlots < 0 || c.RecombineSlots > c.Capacity-c.Threshold {
		return errors.New("recombine_slots must be in [0, capacity-threshold]")
	}
	if c.SwapOneIn <= 0 {
		return errors.New("swap_one_in must be > 0")
	}
	if c.MinMutations <= 0 || c.MaxMutations < c.MinMutations {
		return errors.New("mutation bounds must satisfy 0 < min_mutations <= max_mutations")
	}
	if c.CrossoverMutateOneIn <= 0 || c.MaxGeneLength <= 0 || c.MaxGenes <= 0 {
		return errors.New("crossover_mutate_one_in, max_gene_length and max_genes must be > 0")
	}
	for name, w := range c.OperatorWeights {
		if w < 0 {
			return fmt.Errorf("operator weight for %s must be >= 0", name)
		}
	}
	if c.Alphabet < 0 || c.Alphabet > 253 {
		return errors.New("alphabet must be in [0, 253]")
	}
	switch c.Store {
	case "memory":
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("db_path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown store: %q", c.Store)
	}
	if c.LogVerbosity < 0 {
		return errors.New("log_verbosity must be >= 0")
	}
	return nil
}
