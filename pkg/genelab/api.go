package genelab

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"genelab/internal/dna"
	"genelab/internal/evo"
	"genelab/internal/grammar"
	"genelab/internal/interp"
	"genelab/internal/logging"
	"genelab/internal/model"
	"genelab/internal/scape"
	"genelab/internal/scapeid"
	"genelab/internal/storage"
)

var log = logging.Get("api")

const (
	StrategySingle        = "single"
	StrategySingleBounded = "single-bounded"
	StrategyGroup         = "group"
	StrategyDual          = "dual"

	EnvironmentBranch = "branch"
	EnvironmentTarget = "target"

	defaultIterations = 100
	defaultExportsDir = "exports"

	// createdAtLayout is fixed width so stored timestamps sort as strings.
	createdAtLayout = "2006-01-02T15:04:05.000000000Z"
)

// SeedProgram is the default seed: one gene holding IF(TRUE){}.
var SeedProgram = dna.New([]byte{
	grammar.If, grammar.ArgOpen, grammar.Bool, 255, grammar.ArgClose,
	grammar.InstrOpen, grammar.InstrClose,
})

type Options struct {
	StoreKind string
	DBPath    string
	// ExportsDir is where Export writes run artifacts when the request names
	// no directory.
	ExportsDir string
}

type Client struct {
	store      storage.Store
	exportsDir string

	mu          sync.Mutex
	initialized bool
}

type RunRequest struct {
	RunID       string
	Strategy    string
	Environment string
	Target      int64
	// SeedDNA defaults to SeedProgram.
	SeedDNA *dna.DNA

	// Iterations caps single-straight iterations and population generations.
	Iterations     int
	MaxAccepted    int
	Capacity       int
	Threshold      int
	RecombineSlots int
	SwapOneIn      int
	Selection      string
	// FitnessPostprocessor names an evo postprocessor; population strategies
	// only.
	FitnessPostprocessor string

	MinMutations         int
	MaxMutations         int
	CrossoverMutateOneIn int
	MaxGeneLength        int
	MaxGenes             int
	// OperatorWeights restricts mutation to the named operators.
	OperatorWeights map[string]float64

	// Alphabet overrides the environment's codon bound when > 0.
	Alphabet int
	Seed     int64
}

type RunSummary struct {
	RunID            string
	Strategy         string
	Environment      string
	BestByGeneration []float64
	FinalBestFitness float64
	BestDNA          dna.DNA
	Generations      int
	Accepted         int
	Evaluations      int
	// Text is the human readable run summary.
	Text string
}

func New(opts Options) (*Client, error) {
	kind := opts.StoreKind
	if kind == "" {
		kind = storage.DefaultStoreKind
	}
	store, err := storage.NewStore(kind, opts.DBPath)
	if err != nil {
		return nil, err
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	return &Client{store: store, exportsDir: exportsDir}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// NewInterpreter builds the interpreter the built-in environments use: a
// grammar with the arithmetic, logic and variable functions installed.
func NewInterpreter() (*interp.Interpreter, error) {
	g := grammar.New()
	if err := g.Setup(grammar.Arithmetic, grammar.Logic, grammar.Variables); err != nil {
		return nil, err
	}
	return interp.New(g), nil
}

// NewEnvironment returns a built-in environment by name.
func NewEnvironment(name string, target int64) (*scape.Program, error) {
	in, err := NewInterpreter()
	if err != nil {
		return nil, err
	}
	switch scapeid.Normalize(name) {
	case "", EnvironmentBranch:
		return scape.NewBranchCounter(in, 0)
	case EnvironmentTarget:
		return scape.NewTargetValue(in, target, 0)
	default:
		return nil, fmt.Errorf("unsupported environment: %s", name)
	}
}

// Run evolves against one of the built-in environments.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	req.Environment = scapeid.Normalize(req.Environment)
	if req.Environment == "" {
		req.Environment = EnvironmentBranch
	}
	env, err := NewEnvironment(req.Environment, req.Target)
	if err != nil {
		return RunSummary{}, err
	}
	return c.RunWithEnvironment(ctx, env, req)
}

// RunWithEnvironment evolves against a caller supplied environment and
// persists the outcome. A run that ends with evo.ErrNoSuccessfulMutations is
// still persisted and its summary is returned along with the error.
func (c *Client) RunWithEnvironment(ctx context.Context, env scape.Environment, req RunRequest) (RunSummary, error) {
	if env == nil {
		return RunSummary{}, errors.New("environment is required")
	}
	req.Strategy = scapeid.Strategy(req.Strategy)
	if req.Strategy == "" {
		req.Strategy = StrategySingle
	}
	if req.Iterations <= 0 {
		req.Iterations = defaultIterations
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	policy, err := mutationPolicy(req)
	if err != nil {
		return RunSummary{}, err
	}
	seedDNA := SeedProgram
	if req.SeedDNA != nil {
		seedDNA = *req.SeedDNA
	}
	seed := evo.NewClient(seedDNA, req.Alphabet)

	var (
		result  evo.RunResult
		members []*evo.CachedClient
		runErr  error
	)
	switch req.Strategy {
	case StrategySingle, StrategySingleBounded:
		cfg := evo.SingleConfig{Policy: policy, Iterations: req.Iterations, Seed: req.Seed}
		if req.Strategy == StrategySingleBounded {
			if req.MaxAccepted <= 0 {
				return RunSummary{}, errors.New("max accepted must be > 0 for single-bounded")
			}
			cfg.MaxAccepted = req.MaxAccepted
		}
		s, err := evo.NewSingleStraight(env, seed, cfg)
		if err != nil {
			return RunSummary{}, err
		}
		result, runErr = s.Run(ctx)
		current := s.Current()
		members = []*evo.CachedClient{&current}
	case StrategyGroup, StrategyDual:
		groupCfg, err := groupConfig(req, policy)
		if err != nil {
			return RunSummary{}, err
		}
		if req.Strategy == StrategyGroup {
			g, err := evo.NewGroupStraight(env, seed, groupCfg)
			if err != nil {
				return RunSummary{}, err
			}
			result, runErr = g.Run(ctx)
			members = liveMembers(g.Population())
		} else {
			d, err := evo.NewPopulationDual(env, seed, evo.DualConfig{Group: groupCfg, SwapOneIn: req.SwapOneIn})
			if err != nil {
				return RunSummary{}, err
			}
			result, runErr = d.Run(ctx)
			for _, g := range d.Groups() {
				members = append(members, liveMembers(g.Population())...)
			}
		}
	default:
		return RunSummary{}, fmt.Errorf("unsupported strategy: %s", req.Strategy)
	}
	if runErr != nil && !errors.Is(runErr, evo.ErrNoSuccessfulMutations) {
		return RunSummary{}, runErr
	}
	result.Strategy = req.Strategy

	if err := c.persist(ctx, req, envName(env, req), result, members); err != nil {
		return RunSummary{}, err
	}
	log.Infof("run %s: %s", req.RunID, result.Summary())

	summary := RunSummary{
		RunID:            req.RunID,
		Strategy:         req.Strategy,
		Environment:      envName(env, req),
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
		FinalBestFitness: result.Best.Fitness,
		BestDNA:          result.Best.DNA,
		Generations:      result.Generations,
		Accepted:         result.Accepted,
		Evaluations:      result.Evaluations,
		Text:             result.Summary(),
	}
	return summary, runErr
}

func (c *Client) persist(ctx context.Context, req RunRequest, environment string, result evo.RunResult, members []*evo.CachedClient) error {
	bestID, err := c.saveDNA(ctx, result.Best)
	if err != nil {
		return err
	}

	population := model.Population{
		VersionedRecord: storage.CurrentVersion(),
		ID:              uuid.NewString(),
		Generation:      result.Generations,
	}
	for _, m := range members {
		id, err := c.saveDNA(ctx, *m)
		if err != nil {
			return err
		}
		population.MemberIDs = append(population.MemberIDs, id)
	}
	if err := c.store.SavePopulation(ctx, population); err != nil {
		return err
	}

	if err := c.store.SaveFitnessHistory(ctx, req.RunID, result.BestByGeneration); err != nil {
		return err
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, req.RunID, result.Diagnostics); err != nil {
		return err
	}
	if err := c.store.SaveLineage(ctx, req.RunID, result.Lineage); err != nil {
		return err
	}
	return c.store.SaveRun(ctx, model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              req.RunID,
		Strategy:        req.Strategy,
		Environment:     environment,
		Seed:            req.Seed,
		Generations:     result.Generations,
		Accepted:        result.Accepted,
		BestFitness:     result.Best.Fitness,
		BestDNAID:       bestID,
		PopulationID:    population.ID,
		CreatedAtUTC:    time.Now().UTC().Format(createdAtLayout),
	})
}

func (c *Client) saveDNA(ctx context.Context, m evo.CachedClient) (string, error) {
	id := uuid.NewString()
	err := c.store.SaveDNA(ctx, model.DNARecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              id,
		Framed:          m.DNA.FramedBytes(),
		Alphabet:        m.Alphabet,
		Fitness:         m.Fitness,
		Fingerprint:     m.DNA.Fingerprint(),
	})
	return id, err
}

func mutationPolicy(req RunRequest) (evo.MutationPolicy, error) {
	policy := evo.MutationPolicy{
		CrossoverMutateOneIn: req.CrossoverMutateOneIn,
		MaxGeneLength:        req.MaxGeneLength,
		MaxGenes:             req.MaxGenes,
	}
	if req.MinMutations > 0 || req.MaxMutations > 0 {
		lo, hi := max(1, req.MinMutations), req.MaxMutations
		if hi == 0 {
			hi = max(lo, evo.DefaultMaxMutations)
		}
		policy.Count = evo.UniformMutationCount{Min: lo, Max: hi}
	}
	if len(req.OperatorWeights) > 0 {
		names := make([]string, 0, len(req.OperatorWeights))
		for name := range req.OperatorWeights {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			op, err := evo.ResolveOperator(name)
			if err != nil {
				return evo.MutationPolicy{}, err
			}
			policy.Operators = append(policy.Operators, evo.WeightedOperator{Operator: op, Weight: req.OperatorWeights[name]})
		}
	}
	return policy, policy.Validate()
}

func groupConfig(req RunRequest, policy evo.MutationPolicy) (evo.GroupConfig, error) {
	selector, err := evo.SelectorByName(req.Selection)
	if err != nil {
		return evo.GroupConfig{}, err
	}
	post, err := evo.PostprocessorByName(req.FitnessPostprocessor)
	if err != nil {
		return evo.GroupConfig{}, err
	}
	return evo.GroupConfig{
		Capacity:       req.Capacity,
		Threshold:      req.Threshold,
		Policy:         policy,
		Selector:       selector,
		Postprocessor:  post,
		RecombineSlots: req.RecombineSlots,
		Generations:    req.Iterations,
		Seed:           req.Seed,
	}, nil
}

func liveMembers(p *evo.Population) []*evo.CachedClient {
	var out []*evo.CachedClient
	for i := 0; i < p.Cap(); i++ {
		if c := p.Slot(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func envName(env scape.Environment, req RunRequest) string {
	if named, ok := env.(interface{ Name() string }); ok && named.Name() != "" {
		return named.Name()
	}
	if req.Environment != "" {
		return req.Environment
	}
	return fmt.Sprintf("%T", env)
}
