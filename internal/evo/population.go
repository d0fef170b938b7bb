package evo

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"genelab/internal/model"
	"genelab/internal/scape"
)

// Unevaluated marks a client whose fitness has not been computed or whose
// evaluation produced nothing usable. It is never promoted.
const Unevaluated = -1.0

var ErrNoSurvivors = errors.New("no survivors to replicate")

// CachedClient is a Client with its last computed fitness and the lineage of
// how it was produced.
type CachedClient struct {
	Client
	Fitness float64

	Parent    string
	Operation string
	Born      int
}

func (c *CachedClient) Evaluated() bool {
	return c != nil && c.Fitness != Unevaluated
}

func (c *CachedClient) lineage() model.LineageRecord {
	return model.LineageRecord{
		Fingerprint:       c.DNA.Fingerprint(),
		ParentFingerprint: c.Parent,
		Generation:        c.Born,
		Operation:         c.Operation,
	}
}

// Population is a fixed-capacity buffer of clients. Empty slots are nil; a
// slot is only written while it is empty.
type Population struct {
	slots []*CachedClient
}

func NewPopulation(capacity int) (*Population, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("population capacity must be > 0")
	}
	return &Population{slots: make([]*CachedClient, capacity)}, nil
}

func (p *Population) Cap() int {
	return len(p.slots)
}

// Len counts occupied slots.
func (p *Population) Len() int {
	n := 0
	for _, c := range p.slots {
		if c != nil {
			n++
		}
	}
	return n
}

// Init empties the buffer and places seeds, unevaluated, in the first slots.
func (p *Population) Init(seeds ...Client) error {
	if len(seeds) > len(p.slots) {
		return fmt.Errorf("%d seeds exceed capacity %d", len(seeds), len(p.slots))
	}
	clear(p.slots)
	for i, seed := range seeds {
		p.slots[i] = &CachedClient{Client: seed, Fitness: Unevaluated, Operation: "seed"}
	}
	return nil
}

func (p *Population) Slot(i int) *CachedClient {
	if i < 0 || i >= len(p.slots) {
		return nil
	}
	return p.slots[i]
}

// Best returns slot 0 when it holds an evaluated client. Call Sort first.
func (p *Population) Best() *CachedClient {
	if len(p.slots) == 0 || !p.slots[0].Evaluated() {
		return nil
	}
	return p.slots[0]
}

// Sort orders evaluated clients by descending fitness, then unevaluated ones,
// then empty slots. Ties keep their order.
func (p *Population) Sort() {
	sort.SliceStable(p.slots, func(i, j int) bool {
		a, b := p.slots[i], p.slots[j]
		ra, rb := sortRank(a), sortRank(b)
		if ra != rb {
			return ra < rb
		}
		if ra == 0 {
			return a.Fitness > b.Fitness
		}
		return false
	})
}

func sortRank(c *CachedClient) int {
	switch {
	case c == nil:
		return 2
	case !c.Evaluated():
		return 1
	default:
		return 0
	}
}

// Clean evicts every client from index from onward.
func (p *Population) Clean(from int) {
	from = p.clamp(from)
	clear(p.slots[from:])
}

// Fill copies survivors from [0, from) into the empty slots at or after from.
// Evaluated survivors are preferred; parents are chosen by selector.
func (p *Population) Fill(rng *rand.Rand, from int, selector Selector, generation int) (int, error) {
	from = p.clamp(from)
	survivors := p.survivors(from)
	if len(survivors) == 0 {
		return 0, ErrNoSurvivors
	}
	if selector == nil {
		selector = EliteSelector{}
	}
	filled := 0
	for i := from; i < len(p.slots); i++ {
		if p.slots[i] != nil {
			continue
		}
		parent, err := selector.PickParent(rng, survivors, len(survivors))
		if err != nil {
			return filled, err
		}
		p.slots[i] = &CachedClient{
			Client:    parent.Client,
			Fitness:   Unevaluated,
			Parent:    parent.DNA.Fingerprint(),
			Operation: "copy",
			Born:      generation,
		}
		filled++
	}
	return filled, nil
}

// Recombine writes crossover children of survivor pairs into the empty slots
// of [from, to).
func (p *Population) Recombine(rng *rand.Rand, from, to int, policy MutationPolicy, generation int) (int, error) {
	from, to = p.clamp(from), p.clamp(to)
	survivors := p.survivors(from)
	if len(survivors) == 0 {
		return 0, ErrNoSurvivors
	}
	made := 0
	for i := from; i < to; i++ {
		if p.slots[i] != nil {
			continue
		}
		ai := rng.Intn(len(survivors))
		a, b := survivors[ai], survivors[ai]
		if len(survivors) > 1 {
			b = survivors[otherIndex(rng, len(survivors), ai)]
		}
		child, op := a.CrossoverTraced(rng, b.Client, policy)
		p.slots[i] = &CachedClient{
			Client:    child,
			Fitness:   Unevaluated,
			Parent:    a.DNA.Fingerprint(),
			Operation: op,
			Born:      generation,
		}
		made++
	}
	return made, nil
}

// Mutate replaces every unevaluated client in [from, to) with a mutated copy.
func (p *Population) Mutate(rng *rand.Rand, from, to int, policy MutationPolicy) {
	from, to = p.clamp(from), p.clamp(to)
	for i := from; i < to; i++ {
		c := p.slots[i]
		if c == nil || c.Evaluated() {
			continue
		}
		mutated, op := c.MutateTraced(rng, policy)
		next := *c
		next.Client = mutated
		if op != "" {
			next.Operation = joinOps(c.Operation, op)
		}
		p.slots[i] = &next
	}
}

func (p *Population) Shuffle(rng *rand.Rand, from, to int) {
	from, to = p.clamp(from), p.clamp(to)
	if to-from < 2 {
		return
	}
	window := p.slots[from:to]
	rng.Shuffle(len(window), func(i, j int) {
		window[i], window[j] = window[j], window[i]
	})
}

// Evaluate scores unevaluated clients in [from, to). A NaN or sentinel score
// leaves the client unevaluated and counts as rejected.
func (p *Population) Evaluate(env scape.Environment, from, to int, post FitnessPostprocessor) (evaluated, rejected int) {
	from, to = p.clamp(from), p.clamp(to)
	if post == nil {
		post = NoopFitnessPostprocessor{}
	}
	for i := from; i < to; i++ {
		c := p.slots[i]
		if c == nil || c.Evaluated() {
			continue
		}
		raw := env.Fitness(c.DNA)
		if math.IsNaN(raw) || raw == Unevaluated {
			rejected++
			continue
		}
		c.Fitness = post.Process(c.Client, raw)
		evaluated++
	}
	return evaluated, rejected
}

// Diagnostics summarizes the evaluated clients in the buffer.
func (p *Population) Diagnostics(generation, evaluated, rejected int) model.GenerationDiagnostics {
	diag := model.GenerationDiagnostics{
		Generation: generation,
		Evaluated:  evaluated,
		Rejected:   rejected,
	}
	fingerprints := make(map[string]struct{}, len(p.slots))
	total, n := 0.0, 0
	for _, c := range p.slots {
		if c == nil {
			continue
		}
		fingerprints[c.DNA.Fingerprint()] = struct{}{}
		if !c.Evaluated() {
			continue
		}
		if n == 0 || c.Fitness > diag.BestFitness {
			diag.BestFitness = c.Fitness
		}
		if n == 0 || c.Fitness < diag.MinFitness {
			diag.MinFitness = c.Fitness
		}
		total += c.Fitness
		n++
	}
	if n > 0 {
		diag.MeanFitness = total / float64(n)
	}
	diag.FingerprintDiversity = len(fingerprints)
	return diag
}

func (p *Population) survivors(from int) []*CachedClient {
	var evaluated, rest []*CachedClient
	for _, c := range p.slots[:from] {
		switch {
		case c == nil:
		case c.Evaluated():
			evaluated = append(evaluated, c)
		default:
			rest = append(rest, c)
		}
	}
	if len(evaluated) > 0 {
		return evaluated
	}
	return rest
}

func (p *Population) clamp(i int) int {
	return min(max(i, 0), len(p.slots))
}

func joinOps(prev, op string) string {
	if prev == "" || prev == "copy" {
		return op
	}
	return prev + "+" + op
}
