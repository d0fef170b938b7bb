package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"genelab/internal/scape"
)

const (
	StrategyGroup = "group"

	DefaultCapacity  = 50
	DefaultThreshold = 10
)

// ErrNoSuccessfulMutations ends a run whose generation produced no candidate
// with a usable fitness.
var ErrNoSuccessfulMutations = errors.New("no successful mutations")

type GroupConfig struct {
	Capacity  int
	Threshold int
	Policy    MutationPolicy
	// Selector picks which survivor each refilled slot copies.
	Selector      Selector
	Postprocessor FitnessPostprocessor
	// RecombineSlots is how many refilled slots are crossover children rather
	// than copies.
	RecombineSlots int
	// Generations > 0 caps the run in addition to the environment condition.
	Generations int
	Seed        int64
}

func (cfg GroupConfig) withDefaults() GroupConfig {
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = max(1, min(DefaultThreshold, cfg.Capacity-1))
	}
	if cfg.Selector == nil {
		cfg.Selector = EliteSelector{}
	}
	if cfg.Postprocessor == nil {
		cfg.Postprocessor = NoopFitnessPostprocessor{}
	}
	cfg.Policy = cfg.Policy.withDefaults()
	return cfg
}

func (cfg GroupConfig) validate() error {
	if cfg.Capacity <= 0 {
		return fmt.Errorf("capacity must be > 0")
	}
	if cfg.Threshold <= 0 || cfg.Threshold >= cfg.Capacity {
		return fmt.Errorf("threshold must be in [1, capacity)")
	}
	if cfg.RecombineSlots < 0 || cfg.RecombineSlots > cfg.Capacity-cfg.Threshold {
		return fmt.Errorf("recombine slots must be in [0, capacity-threshold]")
	}
	if cfg.Generations < 0 {
		return fmt.Errorf("generations must be >= 0")
	}
	return cfg.Policy.Validate()
}

// GroupStraight keeps the top Threshold clients each generation and refills
// the rest of the buffer from them.
type GroupStraight struct {
	env scape.Environment
	cfg GroupConfig
	rng *rand.Rand
	pop *Population

	best        CachedClient
	hasBest     bool
	generation  int
	accepted    int
	evaluations int
	result      RunResult
}

func NewGroupStraight(env scape.Environment, seed Client, cfg GroupConfig) (*GroupStraight, error) {
	if env == nil {
		return nil, errors.New("environment is required")
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	pop, err := NewPopulation(cfg.Capacity)
	if err != nil {
		return nil, err
	}
	if seed.Alphabet <= 0 {
		seed.Alphabet = env.Alphabet()
	}
	if err := pop.Init(seed); err != nil {
		return nil, err
	}

	g := &GroupStraight{
		env:    env,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		pop:    pop,
		result: RunResult{Strategy: StrategyGroup},
	}
	evaluated, rejected := pop.Evaluate(env, 0, pop.Cap(), cfg.Postprocessor)
	g.evaluations += evaluated + rejected
	pop.Sort()
	g.promote()
	return g, nil
}

func (g *GroupStraight) Population() *Population {
	return g.pop
}

// Best returns the best-ever client and false when nothing has been
// evaluated successfully yet.
func (g *GroupStraight) Best() (CachedClient, bool) {
	return g.best, g.hasBest
}

func (g *GroupStraight) Generation() int {
	return g.generation
}

// Step runs one generation: clean, refill, shuffle, mutate, evaluate, sort.
func (g *GroupStraight) Step() error {
	g.generation++
	threshold, capacity := g.cfg.Threshold, g.pop.Cap()

	g.pop.Clean(threshold)
	if g.cfg.RecombineSlots > 0 {
		if _, err := g.pop.Recombine(g.rng, threshold, threshold+g.cfg.RecombineSlots, g.cfg.Policy, g.generation); err != nil {
			return err
		}
	}
	if _, err := g.pop.Fill(g.rng, threshold, g.cfg.Selector, g.generation); err != nil {
		return err
	}
	g.pop.Shuffle(g.rng, threshold, capacity)
	g.pop.Mutate(g.rng, threshold, capacity, g.cfg.Policy)

	evaluated, rejected := g.pop.Evaluate(g.env, 0, capacity, g.cfg.Postprocessor)
	g.evaluations += evaluated + rejected
	g.pop.Sort()

	diag := g.pop.Diagnostics(g.generation, evaluated, rejected)
	g.result.Diagnostics = append(g.result.Diagnostics, diag)
	if evaluated == 0 {
		return fmt.Errorf("%w: generation %d rejected %d candidates", ErrNoSuccessfulMutations, g.generation, rejected)
	}
	g.promote()
	g.result.BestByGeneration = append(g.result.BestByGeneration, g.best.Fitness)
	log.Debugf("group: generation %d best %g mean %g diversity %d", g.generation, diag.BestFitness, diag.MeanFitness, diag.FingerprintDiversity)
	return nil
}

func (g *GroupStraight) Run(ctx context.Context) (RunResult, error) {
	start := time.Now()
	for g.cfg.Generations == 0 || g.generation < g.cfg.Generations {
		if err := ctx.Err(); err != nil {
			return g.finish(start), err
		}
		if !g.env.Condition() {
			break
		}
		if err := g.Step(); err != nil {
			return g.finish(start), err
		}
	}
	return g.finish(start), nil
}

// promote records slot 0 as the new best only on strict improvement.
func (g *GroupStraight) promote() bool {
	top := g.pop.Best()
	if top == nil {
		return false
	}
	if g.hasBest && top.Fitness <= g.best.Fitness {
		return false
	}
	g.best = *top
	g.hasBest = true
	if g.generation > 0 {
		g.accepted++
	}
	g.result.Lineage = append(g.result.Lineage, top.lineage())
	g.env.Update(top.DNA)
	log.Infof("group: generation %d improved to %g via %s", g.generation, top.Fitness, top.Operation)
	return true
}

func (g *GroupStraight) finish(start time.Time) RunResult {
	out := g.result
	out.Best = g.best
	if !g.hasBest {
		out.Best.Fitness = Unevaluated
	}
	out.Generations = g.generation
	out.Accepted = g.accepted
	out.Evaluations = g.evaluations
	out.Elapsed = time.Since(start)
	return out
}
