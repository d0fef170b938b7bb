package interp

import (
	"fmt"

	"genelab/internal/dna"
	"genelab/internal/grammar"
)

const (
	DefaultMaxDepth = 64
	DefaultMaxLoop  = 256
	DefaultMaxSteps = 100000
)

type Option func(*Interpreter)

// WithMaxDepth bounds the nesting depth, and with it the recursion depth.
func WithMaxDepth(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxDepth = n
		}
	}
}

// WithMaxLoop bounds the iterations of a single WHILE.
func WithMaxLoop(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxLoop = n
		}
	}
}

// WithMaxSteps bounds the total work of one session: every evaluated
// instruction and every loop iteration costs one step.
func WithMaxSteps(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxSteps = n
		}
	}
}

// Interpreter evaluates DNA against a grammar. It holds no per-run state and
// may be reused; each Execute gets its own Session.
type Interpreter struct {
	grammar  *grammar.Grammar
	maxDepth int
	maxLoop  int
	maxSteps int
}

func New(g *grammar.Grammar, opts ...Option) *Interpreter {
	in := &Interpreter{
		grammar:  g,
		maxDepth: DefaultMaxDepth,
		maxLoop:  DefaultMaxLoop,
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

func (in *Interpreter) Grammar() *grammar.Grammar {
	return in.grammar
}

// Result summarizes one execution.
type Result struct {
	// Values holds the value of the last instruction of every gene.
	Values          []grammar.Value
	Calls           int
	BranchesTaken   int
	BranchesSkipped int
	LoopIterations  int
}

// Last returns the value of the final gene, or VOID for an empty DNA.
func (r Result) Last() grammar.Value {
	if len(r.Values) == 0 {
		return grammar.VoidValue()
	}
	return r.Values[len(r.Values)-1]
}

// Execute runs every gene of d as an independent instruction stream.
func (in *Interpreter) Execute(d dna.DNA) (Result, error) {
	s := in.NewSession()
	s.scope.Clear()

	values := make([]grammar.Value, 0, d.Genes())
	for i := 0; i < d.Genes(); i++ {
		in.grammar.Block(s.scope)
		v, err := s.Run(d.Gene(i))
		if err != nil {
			return Result{}, fmt.Errorf("gene %d: %w", i, err)
		}
		values = append(values, v)
	}

	res := s.result
	res.Values = values
	return res, nil
}

func (in *Interpreter) NewSession() *Session {
	return &Session{in: in, scope: grammar.NewScope()}
}

// Session is the state of one execution: the variable scope, the current
// nesting depth, the steps spent and trace counters.
type Session struct {
	in     *Interpreter
	scope  *grammar.Scope
	depth  int
	steps  int
	result Result
}

func (s *Session) Scope() *grammar.Scope {
	return s.scope
}

func (s *Session) Result() Result {
	return s.result
}

// Run evaluates instructions until stream is consumed and returns the value of
// the last one. An empty stream is VOID.
func (s *Session) Run(stream []byte) (grammar.Value, error) {
	last := grammar.VoidValue()
	for pos := 0; pos < len(stream); {
		v, next, err := s.Evaluate(stream, pos)
		if err != nil {
			return grammar.Value{}, err
		}
		last = v
		pos = next
	}
	return last, nil
}

// Evaluate evaluates the instruction starting at block[pos] and returns its
// value and the index just past it.
func (s *Session) Evaluate(block []byte, pos int) (grammar.Value, int, error) {
	return s.evaluate(block, pos, false)
}

func (s *Session) evaluate(block []byte, pos int, nested bool) (grammar.Value, int, error) {
	if pos >= len(block) {
		return grammar.Value{}, 0, fmt.Errorf("%w: unexpected end of block at %d", grammar.ErrSyntax, pos)
	}
	if s.depth >= s.in.maxDepth {
		return grammar.Value{}, 0, fmt.Errorf("%w: nesting too deep at %d (max %d)", grammar.ErrSyntax, pos, s.in.maxDepth)
	}
	if err := s.step(pos); err != nil {
		return grammar.Value{}, 0, err
	}
	s.depth++
	defer func() { s.depth-- }()

	b := block[pos]
	switch {
	case grammar.IsConditional(b):
		if nested {
			return grammar.Value{}, 0, fmt.Errorf("%w: conditional used as expression at %d", grammar.ErrSyntax, pos)
		}
		return s.conditional(block, pos)
	case s.in.grammar.IsFunction(b):
		return s.call(block, pos)
	case grammar.IsData(b):
		return literal(block, pos)
	default:
		return grammar.Value{}, 0, fmt.Errorf("%w: unknown byte identifier %d at %d", grammar.ErrSyntax, b, pos)
	}
}

func literal(block []byte, pos int) (grammar.Value, int, error) {
	tag := block[pos]
	if tag == grammar.Void {
		return grammar.VoidValue(), pos + 1, nil
	}
	if pos+1 >= len(block) {
		return grammar.Value{}, 0, fmt.Errorf("%w: missing payload for data tag %d at %d", grammar.ErrSyntax, tag, pos)
	}
	payload := block[pos+1]
	if tag == grammar.Bool {
		return grammar.BoolValue(payload >= 128), pos + 2, nil
	}
	return grammar.IntValue(int64(payload)), pos + 2, nil
}

func (s *Session) call(block []byte, pos int) (grammar.Value, int, error) {
	id := block[pos]
	spans, next, err := Extract(block, pos+1, grammar.ArgOpen, grammar.ArgSep, grammar.ArgClose)
	if err != nil {
		return grammar.Value{}, 0, err
	}
	args := make([]grammar.Value, 0, len(spans))
	for _, span := range spans {
		v, err := s.argument(block, span)
		if err != nil {
			return grammar.Value{}, 0, err
		}
		args = append(args, v)
	}
	s.result.Calls++
	out, err := s.in.grammar.CallFunction(s.scope, id, args)
	if err != nil {
		return grammar.Value{}, 0, err
	}
	return out, next, nil
}

// argument evaluates exactly one expression filling span.
func (s *Session) argument(block []byte, span Span) (grammar.Value, error) {
	if span.Len() == 0 {
		return grammar.Value{}, fmt.Errorf("%w: empty argument at %d", grammar.ErrSyntax, span.Start)
	}
	v, end, err := s.evaluate(block[:span.End], span.Start, true)
	if err != nil {
		return grammar.Value{}, err
	}
	if end != span.End {
		return grammar.Value{}, fmt.Errorf("%w: trailing bytes in argument at %d", grammar.ErrSyntax, end)
	}
	return v, nil
}

func (s *Session) conditional(block []byte, pos int) (grammar.Value, int, error) {
	op := block[pos]
	args, next, err := Extract(block, pos+1, grammar.ArgOpen, grammar.ArgSep, grammar.ArgClose)
	if err != nil {
		return grammar.Value{}, 0, err
	}
	if len(args) != 1 {
		return grammar.Value{}, 0, fmt.Errorf("%w: conditional at %d takes 1 argument, got %d", grammar.ErrSyntax, pos, len(args))
	}
	body, end, err := Extract(block, next, grammar.InstrOpen, grammar.InstrSep, grammar.InstrClose)
	if err != nil {
		return grammar.Value{}, 0, err
	}

	test := func() (bool, error) {
		v, err := s.argument(block, args[0])
		if err != nil {
			return false, err
		}
		if v.Type() != grammar.TypeBool {
			return false, fmt.Errorf("%w: conditional at %d expects BOOL, got %s", grammar.ErrSyntax, pos, v.Type())
		}
		if op == grammar.Unless {
			return !v.Bool(), nil
		}
		return v.Bool(), nil
	}

	if op != grammar.While {
		ok, err := test()
		if err != nil {
			return grammar.Value{}, 0, err
		}
		if !ok {
			s.result.BranchesSkipped++
			return grammar.VoidValue(), end, nil
		}
		s.result.BranchesTaken++
		if err := s.body(block, body); err != nil {
			return grammar.Value{}, 0, err
		}
		return grammar.VoidValue(), end, nil
	}

	iterations := 0
	for {
		ok, err := test()
		if err != nil {
			return grammar.Value{}, 0, err
		}
		if !ok {
			break
		}
		if iterations >= s.in.maxLoop {
			return grammar.Value{}, 0, fmt.Errorf("%w: loop at %d exceeded %d iterations", grammar.ErrConditional, pos, s.in.maxLoop)
		}
		if err := s.step(pos); err != nil {
			return grammar.Value{}, 0, err
		}
		iterations++
		s.result.LoopIterations++
		if err := s.body(block, body); err != nil {
			return grammar.Value{}, 0, err
		}
	}
	if iterations > 0 {
		s.result.BranchesTaken++
	} else {
		s.result.BranchesSkipped++
	}
	return grammar.VoidValue(), end, nil
}

func (s *Session) body(block []byte, instructions []Span) error {
	for _, span := range instructions {
		if _, err := s.Run(block[span.Start:span.End]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) step(pos int) error {
	if s.steps >= s.in.maxSteps {
		return fmt.Errorf("%w: step budget of %d exhausted at %d", grammar.ErrConditional, s.in.maxSteps, pos)
	}
	s.steps++
	return nil
}
