package evo

import (
	"fmt"
	"math"
)

const sizeProportionalEfficiency = 0.05

// FitnessPostprocessor adjusts a raw environment score before ranking.
type FitnessPostprocessor interface {
	Name() string
	Process(c Client, fitness float64) float64
}

type NoopFitnessPostprocessor struct{}

func (NoopFitnessPostprocessor) Name() string {
	return "none"
}

func (NoopFitnessPostprocessor) Process(_ Client, fitness float64) float64 {
	return fitness
}

// SizeProportionalPostprocessor penalizes longer DNA by its codon count.
type SizeProportionalPostprocessor struct{}

func (SizeProportionalPostprocessor) Name() string {
	return "size_proportional"
}

func (SizeProportionalPostprocessor) Process(c Client, fitness float64) float64 {
	complexity := float64(c.DNA.Len())
	if complexity < 1 {
		complexity = 1
	}
	return fitness / math.Pow(complexity, sizeProportionalEfficiency)
}

func PostprocessorByName(name string) (FitnessPostprocessor, error) {
	switch name {
	case "", "none":
		return NoopFitnessPostprocessor{}, nil
	case "size_proportional":
		return SizeProportionalPostprocessor{}, nil
	default:
		return nil, fmt.Errorf("unknown fitness postprocessor: %s", name)
	}
}
