package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"genelab/internal/dna"
	"genelab/internal/scape"
)

const (
	StrategyDual = "dual"

	DefaultSwapOneIn = 27
)

type DualConfig struct {
	// Group configures both populations; the second one runs with Seed+1.
	Group GroupConfig
	// SwapOneIn is N in the 1-in-N chance per turn that the populations
	// exchange their best clients.
	SwapOneIn int
}

// PopulationDual alternates generations between two group-straight
// populations and occasionally swaps their best clients.
type PopulationDual struct {
	env    scape.Environment
	cfg    DualConfig
	rng    *rand.Rand
	groups [2]*GroupStraight

	best     CachedClient
	hasBest  bool
	turn     int
	accepted int
	swaps    int
	result   RunResult
}

// localEnv hides Update from the inner populations so only dual-wide
// improvements reach the environment.
type localEnv struct {
	scape.Environment
}

func (localEnv) Update(dna.DNA) {}

func NewPopulationDual(env scape.Environment, seed Client, cfg DualConfig) (*PopulationDual, error) {
	if env == nil {
		return nil, errors.New("environment is required")
	}
	if cfg.SwapOneIn == 0 {
		cfg.SwapOneIn = DefaultSwapOneIn
	}
	if cfg.SwapOneIn < 0 {
		return nil, fmt.Errorf("swap one-in must be > 0")
	}

	d := &PopulationDual{
		env:    env,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Group.Seed + 2)),
		result: RunResult{Strategy: StrategyDual},
	}
	for i := range d.groups {
		groupCfg := cfg.Group
		groupCfg.Seed = cfg.Group.Seed + int64(i)
		g, err := NewGroupStraight(localEnv{env}, seed, groupCfg)
		if err != nil {
			return nil, fmt.Errorf("population %d: %w", i, err)
		}
		d.groups[i] = g
	}
	d.promote()
	return d, nil
}

func (d *PopulationDual) Groups() [2]*GroupStraight {
	return d.groups
}

func (d *PopulationDual) Swaps() int {
	return d.swaps
}

// Step gives the next population its turn and then maybe swaps champions.
func (d *PopulationDual) Step() error {
	d.turn++
	g := d.groups[(d.turn-1)%2]
	if err := g.Step(); err != nil {
		return fmt.Errorf("population %d: %w", (d.turn-1)%2, err)
	}
	diag := g.result.Diagnostics[len(g.result.Diagnostics)-1]
	diag.Generation = d.turn
	d.result.Diagnostics = append(d.result.Diagnostics, diag)

	if d.rng.Intn(d.cfg.SwapOneIn) == 0 {
		d.swapBest()
	}
	d.promote()
	d.result.BestByGeneration = append(d.result.BestByGeneration, d.best.Fitness)
	return nil
}

func (d *PopulationDual) Run(ctx context.Context) (RunResult, error) {
	start := time.Now()
	for d.cfg.Group.Generations == 0 || d.turn < d.cfg.Group.Generations {
		if err := ctx.Err(); err != nil {
			return d.finish(start), err
		}
		if !d.env.Condition() {
			break
		}
		if err := d.Step(); err != nil {
			return d.finish(start), err
		}
	}
	return d.finish(start), nil
}

// swapBest exchanges slot 0 between the populations and re-sorts both.
func (d *PopulationDual) swapBest() {
	a, b := d.groups[0].pop, d.groups[1].pop
	if a.Best() == nil || b.Best() == nil {
		return
	}
	a.slots[0], b.slots[0] = b.slots[0], a.slots[0]
	a.Sort()
	b.Sort()
	d.swaps++
	log.Debugf("dual: turn %d swapped best clients", d.turn)
}

func (d *PopulationDual) promote() {
	for _, g := range d.groups {
		top, ok := g.Best()
		if !ok || (d.hasBest && top.Fitness <= d.best.Fitness) {
			continue
		}
		if d.hasBest {
			d.accepted++
		}
		d.best = top
		d.hasBest = true
		d.result.Lineage = append(d.result.Lineage, top.lineage())
		d.env.Update(top.DNA)
		log.Infof("dual: turn %d improved to %g", d.turn, top.Fitness)
	}
}

func (d *PopulationDual) finish(start time.Time) RunResult {
	out := d.result
	out.Best = d.best
	if !d.hasBest {
		out.Best.Fitness = Unevaluated
	}
	out.Generations = d.turn
	out.Accepted = d.accepted
	for _, g := range d.groups {
		out.Evaluations += g.evaluations
	}
	out.Elapsed = time.Since(start)
	return out
}
