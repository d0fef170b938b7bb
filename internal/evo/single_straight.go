package evo

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"genelab/internal/model"
	"genelab/internal/scape"
)

const StrategySingle = "single"

type SingleConfig struct {
	Policy MutationPolicy
	// MaxAccepted > 0 stops the run after that many accepted improvements.
	MaxAccepted int
	// Iterations > 0 caps the run in addition to the environment condition.
	Iterations int
	Seed       int64
}

// SingleStraight evolves one incumbent: every iteration mutates a copy and
// keeps it only when it is strictly fitter.
type SingleStraight struct {
	env     scape.Environment
	cfg     SingleConfig
	rng     *rand.Rand
	current CachedClient

	iteration   int
	accepted    int
	evaluations int
	result      RunResult
}

func NewSingleStraight(env scape.Environment, seed Client, cfg SingleConfig) (*SingleStraight, error) {
	if env == nil {
		return nil, errors.New("environment is required")
	}
	if cfg.MaxAccepted < 0 || cfg.Iterations < 0 {
		return nil, errors.New("single straight bounds must be >= 0")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	cfg.Policy = cfg.Policy.withDefaults()
	if seed.Alphabet <= 0 {
		seed.Alphabet = env.Alphabet()
	}

	s := &SingleStraight{
		env: env,
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		current: CachedClient{
			Client:    seed,
			Operation: "seed",
		},
	}
	s.current.Fitness = s.score(seed)
	s.result = RunResult{Strategy: s.name()}
	s.result.Lineage = append(s.result.Lineage, s.current.lineage())
	return s, nil
}

func (s *SingleStraight) name() string {
	if s.cfg.MaxAccepted > 0 {
		return StrategySingle + "-bounded"
	}
	return StrategySingle
}

func (s *SingleStraight) Current() CachedClient {
	return s.current
}

// Step runs one iteration and reports whether the mutant replaced the
// incumbent.
func (s *SingleStraight) Step() bool {
	s.iteration++
	mutant, op := s.current.MutateTraced(s.rng, s.cfg.Policy)
	fitness := s.score(mutant)

	rejected := 0
	if fitness == Unevaluated {
		rejected = 1
	}
	improved := fitness != Unevaluated && fitness > s.current.Fitness
	if improved {
		s.current = CachedClient{
			Client:    mutant,
			Fitness:   fitness,
			Parent:    s.current.DNA.Fingerprint(),
			Operation: op,
			Born:      s.iteration,
		}
		s.accepted++
		s.result.Lineage = append(s.result.Lineage, s.current.lineage())
		s.env.Update(s.current.DNA)
		log.Infof("single: iteration %d improved to %g via %s", s.iteration, fitness, op)
	}

	s.result.BestByGeneration = append(s.result.BestByGeneration, s.current.Fitness)
	s.result.Diagnostics = append(s.result.Diagnostics, singleDiagnostics(s.iteration, s.current.Fitness, 1-rejected, rejected))
	return improved
}

func (s *SingleStraight) Run(ctx context.Context) (RunResult, error) {
	start := time.Now()
	for s.running() {
		if err := ctx.Err(); err != nil {
			return s.finish(start), err
		}
		if !s.env.Condition() {
			break
		}
		s.Step()
		log.Debugf("single: iteration %d best %g", s.iteration, s.current.Fitness)
	}
	return s.finish(start), nil
}

func (s *SingleStraight) running() bool {
	if s.cfg.MaxAccepted > 0 && s.accepted >= s.cfg.MaxAccepted {
		return false
	}
	if s.cfg.Iterations > 0 && s.iteration >= s.cfg.Iterations {
		return false
	}
	return true
}

func (s *SingleStraight) finish(start time.Time) RunResult {
	out := s.result
	out.Best = s.current
	out.Generations = s.iteration
	out.Accepted = s.accepted
	out.Evaluations = s.evaluations
	out.Elapsed = time.Since(start)
	return out
}

func (s *SingleStraight) score(c Client) float64 {
	s.evaluations++
	f := s.env.Fitness(c.DNA)
	if math.IsNaN(f) {
		return Unevaluated
	}
	return f
}

func singleDiagnostics(iteration int, best float64, evaluated, rejected int) model.GenerationDiagnostics {
	return model.GenerationDiagnostics{
		Generation:           iteration,
		BestFitness:          best,
		MeanFitness:          best,
		MinFitness:           best,
		Evaluated:            evaluated,
		Rejected:             rejected,
		FingerprintDiversity: 1,
	}
}
