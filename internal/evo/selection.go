package evo

import (
	"fmt"
	"math/rand"
)

// Selector chooses a parent among ranked survivors.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []*CachedClient, eliteCount int) (*CachedClient, error)
}

// EliteSelector picks uniformly from the top elite set.
type EliteSelector struct{}

func (EliteSelector) Name() string {
	return "elite"
}

func (EliteSelector) PickParent(rng *rand.Rand, ranked []*CachedClient, eliteCount int) (*CachedClient, error) {
	if err := checkPick(rng, ranked, eliteCount); err != nil {
		return nil, err
	}
	return ranked[rng.Intn(eliteCount)], nil
}

// TournamentSelector samples candidates and picks the best fitness among them.
type TournamentSelector struct {
	PoolSize       int
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []*CachedClient, eliteCount int) (*CachedClient, error) {
	if err := checkPick(rng, ranked, eliteCount); err != nil {
		return nil, err
	}

	poolSize := s.PoolSize
	if poolSize <= 0 {
		poolSize = eliteCount * 2
	}
	if poolSize < eliteCount {
		poolSize = eliteCount
	}
	if poolSize > len(ranked) {
		poolSize = len(ranked)
	}

	tournamentSize := s.TournamentSize
	if tournamentSize <= 0 {
		tournamentSize = 3
	}
	if tournamentSize > poolSize {
		tournamentSize = poolSize
	}

	best := ranked[rng.Intn(poolSize)]
	for i := 1; i < tournamentSize; i++ {
		candidate := ranked[rng.Intn(poolSize)]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best, nil
}

// SelectorByName maps configuration names to selectors.
func SelectorByName(name string) (Selector, error) {
	switch name {
	case "", "elite":
		return EliteSelector{}, nil
	case "tournament":
		return TournamentSelector{}, nil
	default:
		return nil, fmt.Errorf("unknown selector: %s", name)
	}
}

func checkPick(rng *rand.Rand, ranked []*CachedClient, eliteCount int) error {
	if rng == nil {
		return fmt.Errorf("random source is required")
	}
	if eliteCount <= 0 || eliteCount > len(ranked) {
		return fmt.Errorf("invalid elite count: %d", eliteCount)
	}
	return nil
}
