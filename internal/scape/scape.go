package scape

import "genelab/internal/dna"

// Environment scores candidate DNA and steers the evolution loop.
type Environment interface {
	// Fitness scores d; higher is better. Structurally invalid DNA gets the
	// environment's minimum score rather than a panic.
	Fitness(d dna.DNA) float64
	// Alphabet is the inclusive upper bound for generated codon values.
	Alphabet() int
	// Update is called with every new best-ever DNA.
	Update(d dna.DNA)
	// Condition is polled once per iteration; evolution continues while true.
	Condition() bool
}

// Base supplies the default no-op Update hook.
type Base struct{}

func (Base) Update(dna.DNA) {}

// Budget is a Condition that holds for a fixed number of polls.
type Budget struct {
	remaining int
}

func NewBudget(polls int) *Budget {
	return &Budget{remaining: polls}
}

func (b *Budget) Condition() bool {
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

func (b *Budget) Remaining() int {
	return b.remaining
}
