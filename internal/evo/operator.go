package evo

import (
	"math/rand"

	"genelab/internal/dna"
	"genelab/internal/grammar"
)

// Level is the granularity a mutation operator works at.
type Level int

const (
	LevelDNA Level = iota
	LevelGene
	LevelCodon
)

var levels = []Level{LevelDNA, LevelGene, LevelCodon}

func (l Level) String() string {
	switch l {
	case LevelDNA:
		return "dna"
	case LevelGene:
		return "gene"
	case LevelCodon:
		return "codon"
	default:
		return "unknown"
	}
}

// Mutation carries what operators need to produce new material.
type Mutation struct {
	Rand          *rand.Rand
	Alphabet      int
	MaxGeneLength int
	MaxGenes      int
}

// Codon draws a codon uniformly from [1, alphabet], the zero-based range
// [0, alphabet) shifted up by one. The alphabet is clamped to the function
// range so the gene separator and the sentinel never appear inside a gene.
func (m Mutation) Codon() byte {
	alphabet := m.Alphabet
	if alphabet < 1 {
		alphabet = 1
	}
	if alphabet > int(grammar.LastFunction) {
		alphabet = int(grammar.LastFunction)
	}
	return byte(1 + m.Rand.Intn(alphabet))
}

// Gene draws a gene of 1..MaxGeneLength random codons.
func (m Mutation) Gene() []byte {
	maxLen := m.MaxGeneLength
	if maxLen < 1 {
		maxLen = 1
	}
	gene := make([]byte, 1+m.Rand.Intn(maxLen))
	for i := range gene {
		gene[i] = m.Codon()
	}
	return gene
}

// Operator transforms a DNA into a new one. Operators never fail: degenerate
// input comes back unchanged.
type Operator interface {
	Name() string
	Level() Level
	Apply(m Mutation, d dna.DNA) dna.DNA
}

type WeightedOperator struct {
	Operator Operator
	Weight   float64
}
