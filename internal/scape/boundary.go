package scape

import (
	"fmt"

	"genelab/internal/dna"
	"genelab/internal/grammar"
	"genelab/internal/logging"
)

var log = logging.Get("scape")

// Evaluator scores a DNA and may fail; failures mean the candidate is invalid.
type Evaluator interface {
	Evaluate(d dna.DNA) (float64, error)
}

type EvaluatorFunc func(d dna.DNA) (float64, error)

func (f EvaluatorFunc) Evaluate(d dna.DNA) (float64, error) {
	return f(d)
}

// Boundary is where evaluation failures stop. Any error or panic raised while
// scoring maps to MinFitness and is counted per taxonomy kind.
type Boundary struct {
	Evaluator  Evaluator
	MinFitness float64

	rejected map[grammar.Kind]int
}

func NewBoundary(e Evaluator, minFitness float64) *Boundary {
	return &Boundary{Evaluator: e, MinFitness: minFitness}
}

func (b *Boundary) Fitness(d dna.DNA) (fitness float64) {
	defer func() {
		if r := recover(); r != nil {
			b.reject(d, fmt.Errorf("%w: panic during evaluation: %v", grammar.ErrGeneric, r))
			fitness = b.MinFitness
		}
	}()

	f, err := b.Evaluator.Evaluate(d)
	if err != nil {
		b.reject(d, err)
		return b.MinFitness
	}
	return f
}

// Rejected reports how many candidates were mapped to MinFitness, by kind.
func (b *Boundary) Rejected() map[grammar.Kind]int {
	out := make(map[grammar.Kind]int, len(b.rejected))
	for k, v := range b.rejected {
		out[k] = v
	}
	return out
}

func (b *Boundary) reject(d dna.DNA, err error) {
	if b.rejected == nil {
		b.rejected = make(map[grammar.Kind]int)
	}
	kind := grammar.KindOf(err)
	b.rejected[kind]++
	log.Debugf("rejected %s candidate %s: %v", kind, d.Fingerprint()[:12], err)
}
