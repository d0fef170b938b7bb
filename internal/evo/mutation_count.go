package evo

import (
	"fmt"
	"math"
	"math/rand"

	"genelab/internal/dna"
)

// MutationCountPolicy determines how many operators one Mutate call applies.
type MutationCountPolicy interface {
	Name() string
	Validate() error
	MutationCount(d dna.DNA, rng *rand.Rand) int
}

type ConstMutationCount struct {
	Count int
}

func (ConstMutationCount) Name() string {
	return "const"
}

func (p ConstMutationCount) Validate() error {
	if p.Count <= 0 {
		return fmt.Errorf("const mutation count must be > 0")
	}
	return nil
}

func (p ConstMutationCount) MutationCount(dna.DNA, *rand.Rand) int {
	return max(1, p.Count)
}

// UniformMutationCount draws uniformly from [Min, Max].
type UniformMutationCount struct {
	Min int
	Max int
}

func (UniformMutationCount) Name() string {
	return "uniform"
}

func (p UniformMutationCount) Validate() error {
	if p.Min <= 0 {
		return fmt.Errorf("uniform mutation min must be > 0")
	}
	if p.Max < p.Min {
		return fmt.Errorf("uniform mutation max must be >= min")
	}
	return nil
}

func (p UniformMutationCount) MutationCount(_ dna.DNA, rng *rand.Rand) int {
	lo := max(1, p.Min)
	hi := max(lo, p.Max)
	return lo + rng.Intn(hi-lo+1)
}

// GeneLinearMutationCount scales with the number of genes.
type GeneLinearMutationCount struct {
	Multiplier float64
	MaxCount   int
}

func (GeneLinearMutationCount) Name() string {
	return "gene_linear"
}

func (p GeneLinearMutationCount) Validate() error {
	if p.Multiplier <= 0 {
		return fmt.Errorf("linear multiplier must be > 0")
	}
	return nil
}

func (p GeneLinearMutationCount) MutationCount(d dna.DNA, _ *rand.Rand) int {
	count := int(math.Round(float64(d.Genes()) * p.Multiplier))
	if count < 1 {
		count = 1
	}
	if p.MaxCount > 0 && count > p.MaxCount {
		count = p.MaxCount
	}
	return count
}
