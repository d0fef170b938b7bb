package evo

import (
	"errors"
	"fmt"
	"math/rand"
)

const (
	DefaultMinMutations         = 1
	DefaultMaxMutations         = 5
	DefaultCrossoverMutateOneIn = 5
	DefaultMaxGeneLength        = 8
	DefaultMaxGenes             = 64
)

// MutationPolicy drives Client.Mutate and Client.Crossover. Zero fields take
// the package defaults.
type MutationPolicy struct {
	Count     MutationCountPolicy
	Operators []WeightedOperator
	// CrossoverMutateOneIn is N in the 1-in-N chance that a crossover child is
	// mutated once more.
	CrossoverMutateOneIn int
	MaxGeneLength        int
	// MaxGenes caps growth at DNA level and the length of crossover children.
	MaxGenes int
}

func DefaultMutationPolicy() MutationPolicy {
	return MutationPolicy{}.withDefaults()
}

func (p MutationPolicy) withDefaults() MutationPolicy {
	if p.Count == nil {
		p.Count = UniformMutationCount{Min: DefaultMinMutations, Max: DefaultMaxMutations}
	}
	if len(p.Operators) == 0 {
		ops, err := ResolveOperators(ListOperators())
		if err == nil {
			p.Operators = ops
		}
	}
	if p.CrossoverMutateOneIn <= 0 {
		p.CrossoverMutateOneIn = DefaultCrossoverMutateOneIn
	}
	if p.MaxGeneLength <= 0 {
		p.MaxGeneLength = DefaultMaxGeneLength
	}
	if p.MaxGenes <= 0 {
		p.MaxGenes = DefaultMaxGenes
	}
	return p
}

func (p MutationPolicy) Validate() error {
	if p.Count != nil {
		if err := p.Count.Validate(); err != nil {
			return err
		}
	}
	for _, item := range p.Operators {
		if item.Operator == nil {
			return errors.New("weighted operator is required")
		}
		if item.Weight < 0 {
			return fmt.Errorf("operator %s weight must be >= 0", item.Operator.Name())
		}
	}
	if p.CrossoverMutateOneIn < 0 || p.MaxGeneLength < 0 || p.MaxGenes < 0 {
		return errors.New("mutation policy limits must be >= 0")
	}
	return nil
}

// chooseOperator picks a level uniformly and then an operator of that level by
// weight. It returns nil when the level has no positively weighted operator.
func (p MutationPolicy) chooseOperator(rng *rand.Rand) Operator {
	level := levels[rng.Intn(len(levels))]

	total := 0.0
	for _, item := range p.Operators {
		if item.Operator.Level() == level && item.Weight > 0 {
			total += item.Weight
		}
	}
	if total <= 0 {
		return nil
	}
	pick := rng.Float64() * total
	acc := 0.0
	var last Operator
	for _, item := range p.Operators {
		if item.Operator.Level() != level || item.Weight <= 0 {
			continue
		}
		acc += item.Weight
		last = item.Operator
		if pick <= acc {
			return item.Operator
		}
	}
	return last
}
