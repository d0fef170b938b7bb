package scape

import (
	"errors"
	"fmt"

	"genelab/internal/dna"
	"genelab/internal/grammar"
	"genelab/internal/interp"
)

// Score turns one execution into a fitness value.
type Score func(res interp.Result) (float64, error)

type ProgramConfig struct {
	Name        string
	Interpreter *interp.Interpreter
	Score       Score
	MinFitness  float64
	// Polls bounds Condition; zero or less never stops on its own.
	Polls int
	// Alphabet overrides the codon bound derived from the grammar.
	Alphabet int
}

// Program is an Environment that executes candidates with an interpreter and
// scores the execution trace.
type Program struct {
	name     string
	in       *interp.Interpreter
	boundary *Boundary
	budget   *Budget
	alphabet int

	best    dna.DNA
	updates int

	// OnUpdate observes new best-ever DNA after it is recorded.
	OnUpdate func(d dna.DNA)
}

func NewProgram(cfg ProgramConfig) (*Program, error) {
	if cfg.Interpreter == nil {
		return nil, errors.New("interpreter is required")
	}
	if cfg.Score == nil {
		return nil, errors.New("score is required")
	}
	if cfg.Alphabet < 0 || cfg.Alphabet > int(grammar.LastFunction) {
		return nil, fmt.Errorf("alphabet must be in [0, %d]", grammar.LastFunction)
	}
	alphabet := cfg.Alphabet
	if alphabet == 0 {
		alphabet = deriveAlphabet(cfg.Interpreter.Grammar())
	}
	p := &Program{
		name:     cfg.Name,
		in:       cfg.Interpreter,
		alphabet: alphabet,
	}
	if cfg.Polls > 0 {
		p.budget = NewBudget(cfg.Polls)
	}
	score := cfg.Score
	p.boundary = NewBoundary(EvaluatorFunc(func(d dna.DNA) (float64, error) {
		res, err := p.in.Execute(d)
		if err != nil {
			return 0, err
		}
		return score(res)
	}), cfg.MinFitness)
	return p, nil
}

func (p *Program) Name() string {
	return p.name
}

func (p *Program) Fitness(d dna.DNA) float64 {
	return p.boundary.Fitness(d)
}

func (p *Program) Alphabet() int {
	return p.alphabet
}

func (p *Program) Update(d dna.DNA) {
	p.best = d
	p.updates++
	log.Infof("%s: new best %s", p.name, d)
	if p.OnUpdate != nil {
		p.OnUpdate(d)
	}
}

func (p *Program) Condition() bool {
	if p.budget == nil {
		return true
	}
	return p.budget.Condition()
}

// Best returns the last DNA passed to Update and how many updates happened.
func (p *Program) Best() (dna.DNA, int) {
	return p.best, p.updates
}

func (p *Program) Rejected() map[grammar.Kind]int {
	return p.boundary.Rejected()
}

// BranchCount scores the number of conditional bodies that executed.
func BranchCount(res interp.Result) (float64, error) {
	return float64(res.BranchesTaken), nil
}

// TargetValue scores how close the final gene value lands to target. The best
// score is 256; a non-INT final value is invalid.
func TargetValue(target int64) Score {
	return func(res interp.Result) (float64, error) {
		last := res.Last()
		if last.Type() != grammar.TypeInt {
			return 0, fmt.Errorf("%w: final value %s is not INT", grammar.ErrArgument, last)
		}
		diff := last.Int() - target
		if diff < 0 {
			diff = -diff
		}
		if diff > 256 {
			diff = 256
		}
		return float64(256 - diff), nil
	}
}

func NewBranchCounter(in *interp.Interpreter, polls int) (*Program, error) {
	return NewProgram(ProgramConfig{
		Name:        "branch",
		Interpreter: in,
		Score:       BranchCount,
		Polls:       polls,
	})
}

func NewTargetValue(in *interp.Interpreter, target int64, polls int) (*Program, error) {
	return NewProgram(ProgramConfig{
		Name:        "target",
		Interpreter: in,
		Score:       TargetValue(target),
		Polls:       polls,
	})
}

func deriveAlphabet(g *grammar.Grammar) int {
	ids := g.FunctionIDs()
	if len(ids) == 0 {
		return int(grammar.Int)
	}
	return int(ids[len(ids)-1])
}
