package interp

import (
	"errors"
	"testing"

	"genelab/internal/dna"
	"genelab/internal/grammar"
)

const (
	f1  byte = 30
	add byte = 31
	ret byte = 32

	// Auto-assigned by grammar.Logic and grammar.Variables after the explicit
	// registrations above.
	lt  byte = 28
	set byte = 33
	get byte = 34
)

const (
	o  = grammar.ArgOpen
	c  = grammar.ArgSep
	cl = grammar.ArgClose
	io = grammar.InstrOpen
	is = grammar.InstrSep
	ic = grammar.InstrClose
)

var (
	trueLit  = []byte{grammar.Bool, 200}
	falseLit = []byte{grammar.Bool, 3}
	f1Call   = []byte{f1, o, cl}
)

// counterGrammar registers f1() -> VOID counting its calls, add(INT, INT) and
// ret(INT) -> BOOL which returns an INT to trip the return check.
func counterGrammar(t *testing.T, counter *int) *grammar.Grammar {
	t.Helper()
	g := grammar.New()
	err := g.Setup(func(g *grammar.Grammar) error {
		if err := g.CreateFunctionAt(f1, "f1", nil, grammar.TypeVoid, grammar.CallableFunc(func(*grammar.Scope, []grammar.Value) (grammar.Value, error) {
			*counter++
			return grammar.VoidValue(), nil
		})); err != nil {
			return err
		}
		if err := g.CreateFunctionAt(add, "add", []grammar.Type{grammar.TypeInt, grammar.TypeInt}, grammar.TypeInt, grammar.CallableFunc(func(_ *grammar.Scope, a []grammar.Value) (grammar.Value, error) {
			return grammar.IntValue(a[0].Int() + a[1].Int()), nil
		})); err != nil {
			return err
		}
		return g.CreateFunctionAt(ret, "ret", []grammar.Type{grammar.TypeInt}, grammar.TypeBool, grammar.CallableFunc(func(_ *grammar.Scope, a []grammar.Value) (grammar.Value, error) {
			return a[0], nil
		}))
	}, grammar.Logic, grammar.Variables)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return g
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func conditional(op byte, test []byte, body ...[]byte) []byte {
	out := cat([]byte{op, o}, test, []byte{cl, io})
	for i, instr := range body {
		if i > 0 {
			out = append(out, is)
		}
		out = append(out, instr...)
	}
	return append(out, ic)
}

func runGene(t *testing.T, gene []byte) (int, Result, error) {
	t.Helper()
	counter := 0
	in := New(counterGrammar(t, &counter))
	res, err := in.Execute(dna.New(gene))
	return counter, res, err
}

func TestIfTrueExecutesOnce(t *testing.T) {
	counter, res, err := runGene(t, conditional(grammar.If, trueLit, f1Call))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if counter != 1 {
		t.Fatalf("expected f1 once, got %d", counter)
	}
	if res.BranchesTaken != 1 || res.BranchesSkipped != 0 {
		t.Fatalf("unexpected branch counts: %+v", res)
	}
}

func TestIfFalseSkipsBodyAndAdvances(t *testing.T) {
	gene := cat(conditional(grammar.If, falseLit, f1Call), f1Call)
	counter, res, err := runGene(t, gene)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if counter != 1 {
		t.Fatalf("expected only the trailing f1 to run, got %d", counter)
	}
	if res.BranchesSkipped != 1 {
		t.Fatalf("expected skipped branch, got %+v", res)
	}
}

func TestUnlessInvertsTest(t *testing.T) {
	counter, _, err := runGene(t, conditional(grammar.Unless, falseLit, f1Call, f1Call))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if counter != 2 {
		t.Fatalf("expected body of two instructions to run, got %d", counter)
	}
	counter, _, err = runGene(t, conditional(grammar.Unless, trueLit, f1Call))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if counter != 0 {
		t.Fatalf("expected body to be skipped, got %d", counter)
	}
}

func TestNestedConditionalInBody(t *testing.T) {
	inner := conditional(grammar.If, trueLit, f1Call)
	counter, res, err := runGene(t, conditional(grammar.If, trueLit, inner, f1Call))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if counter != 2 || res.BranchesTaken != 2 {
		t.Fatalf("unexpected counts: counter=%d res=%+v", counter, res)
	}
}

func TestWhileLoopsOverVariables(t *testing.T) {
	getVar := func(key byte) []byte { return []byte{get, o, grammar.Int, key, cl} }
	setVar := func(key byte, value []byte) []byte {
		return cat([]byte{set, o, grammar.Int, key, c}, value, []byte{cl})
	}
	// while lt(get(1), 5) { set(1, add(get(1), 1)); f1() }
	test := cat([]byte{lt, o}, getVar(1), []byte{c, grammar.Int, 5, cl})
	step := setVar(1, cat([]byte{add, o}, getVar(1), []byte{c, grammar.Int, 1, cl}))
	counter, res, err := runGene(t, conditional(grammar.While, test, step, f1Call))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if counter != 5 || res.LoopIterations != 5 {
		t.Fatalf("expected 5 iterations, counter=%d res=%+v", counter, res)
	}
}

func TestWhileBound(t *testing.T) {
	counter := 0
	in := New(counterGrammar(t, &counter), WithMaxLoop(3))
	_, err := in.Execute(dna.New(conditional(grammar.While, trueLit, f1Call)))
	if !errors.Is(err, grammar.ErrConditional) {
		t.Fatalf("expected ErrConditional, got %v", err)
	}
	if counter != 3 {
		t.Fatalf("expected 3 iterations before the bound, got %d", counter)
	}
}

func TestNestedWhileExhaustsStepBudget(t *testing.T) {
	getVar := func(key byte) []byte { return []byte{get, o, grammar.Int, key, cl} }
	setVar := func(key byte, value []byte) []byte {
		return cat([]byte{set, o, grammar.Int, key, c}, value, []byte{cl})
	}
	// while lt(get(k), 250) { set(k, add(get(k), 1)); set(k+1, 0); <inner> }
	loop := func(key byte, inner []byte) []byte {
		test := cat([]byte{lt, o}, getVar(key), []byte{c, grammar.Int, 250, cl})
		incr := setVar(key, cat([]byte{add, o}, getVar(key), []byte{c, grammar.Int, 1, cl}))
		reset := setVar(key+1, []byte{grammar.Int, 0})
		return conditional(grammar.While, test, incr, reset, inner)
	}
	gene := loop(1, loop(2, loop(3, f1Call)))

	counter := 0
	in := New(counterGrammar(t, &counter))
	_, err := in.Execute(dna.New(gene))
	if !errors.Is(err, grammar.ErrConditional) {
		t.Fatalf("expected ErrConditional, got %v", err)
	}
	if counter >= DefaultMaxSteps {
		t.Fatalf("expected the budget to stop the innermost body early, got %d calls", counter)
	}

	res, err := in.Execute(dna.New(conditional(grammar.If, trueLit, f1Call)))
	if err != nil {
		t.Fatalf("budget must reset per execution: %v", err)
	}
	if res.BranchesTaken != 1 {
		t.Fatalf("unexpected result after exhausted run: %+v", res)
	}
}

func TestMaxSteps(t *testing.T) {
	counter := 0
	in := New(counterGrammar(t, &counter), WithMaxSteps(4))
	// f1() costs one step per call, plus one per iteration.
	_, err := in.Execute(dna.New(conditional(grammar.While, trueLit, f1Call)))
	if !errors.Is(err, grammar.ErrConditional) {
		t.Fatalf("expected ErrConditional, got %v", err)
	}
	if counter != 1 {
		t.Fatalf("expected one body run within 4 steps, got %d", counter)
	}
}

func TestFunctionCallNesting(t *testing.T) {
	// add(add(1, 2), add(3, 4))
	gene := cat(
		[]byte{add, o},
		[]byte{add, o, grammar.Int, 1, c, grammar.Int, 2, cl},
		[]byte{c},
		[]byte{add, o, grammar.Int, 3, c, grammar.Int, 4, cl},
		[]byte{cl},
	)
	_, res, err := runGene(t, gene)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := res.Last(); got != grammar.IntValue(10) {
		t.Fatalf("unexpected value: %v", got)
	}
	if res.Calls != 3 {
		t.Fatalf("expected 3 calls, got %d", res.Calls)
	}
}

func TestPayloadBytesAreNotBrackets(t *testing.T) {
	// add(INT 1, INT 3): payloads equal ArgOpen and ArgClose.
	_, res, err := runGene(t, []byte{add, o, grammar.Int, o, c, grammar.Int, cl, cl})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := res.Last(); got != grammar.IntValue(4) {
		t.Fatalf("unexpected value: %v", got)
	}
}

func TestExecuteGenesIndependently(t *testing.T) {
	counter := 0
	in := New(counterGrammar(t, &counter))
	d := dna.New(
		[]byte{set, o, grammar.Int, 1, c, grammar.Int, 9, cl},
		[]byte{get, o, grammar.Int, 1, cl},
		nil,
	)
	res, err := in.Execute(d)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Values) != 3 {
		t.Fatalf("expected one value per gene, got %d", len(res.Values))
	}
	if res.Values[1] != grammar.IntValue(0) {
		t.Fatalf("scope must be cleared between genes, got %v", res.Values[1])
	}
	if res.Values[2] != grammar.VoidValue() {
		t.Fatalf("empty gene should be VOID, got %v", res.Values[2])
	}
}

func TestDataLiterals(t *testing.T) {
	s := New(grammar.New()).NewSession()
	cases := []struct {
		block []byte
		want  grammar.Value
		next  int
	}{
		{[]byte{grammar.Void}, grammar.VoidValue(), 1},
		{[]byte{grammar.Bool, 128}, grammar.BoolValue(true), 2},
		{[]byte{grammar.Bool, 127}, grammar.BoolValue(false), 2},
		{[]byte{grammar.Int, 77, 99}, grammar.IntValue(77), 2},
	}
	for _, tc := range cases {
		v, next, err := s.Evaluate(tc.block, 0)
		if err != nil {
			t.Fatalf("evaluate %v: %v", tc.block, err)
		}
		if v != tc.want || next != tc.next {
			t.Fatalf("evaluate %v: got=(%v,%d) want=(%v,%d)", tc.block, v, next, tc.want, tc.next)
		}
	}
}

func TestSyntaxErrors(t *testing.T) {
	cases := []struct {
		name string
		gene []byte
	}{
		{"unknown byte", []byte{200}},
		{"syntax byte", []byte{o}},
		{"missing payload", []byte{grammar.Int}},
		{"unbalanced call", []byte{add, o, grammar.Int, 1, c, grammar.Int, 2}},
		{"missing arg list", []byte{f1}},
		{"conditional arity", cat([]byte{grammar.If, o}, trueLit, []byte{c}, trueLit, []byte{cl, io, ic})},
		{"conditional no args", []byte{grammar.If, o, cl, io, ic}},
		{"conditional int test", conditional(grammar.If, []byte{grammar.Int, 1}, f1Call)},
		{"conditional missing body", cat([]byte{grammar.If, o}, trueLit, []byte{cl})},
		{"conditional as argument", cat([]byte{ret, o}, conditional(grammar.If, trueLit, f1Call), []byte{cl})},
		{"empty argument", []byte{add, o, c, grammar.Int, 1, cl}},
		{"trailing argument bytes", []byte{add, o, grammar.Int, 1, grammar.Int, 2, c, grammar.Int, 1, cl}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := runGene(t, tc.gene)
			if !errors.Is(err, grammar.ErrSyntax) {
				t.Fatalf("expected ErrSyntax, got %v", err)
			}
		})
	}
}

func TestFunctionErrorsPropagate(t *testing.T) {
	cases := []struct {
		name string
		gene []byte
	}{
		{"arity", []byte{add, o, grammar.Int, 1, cl}},
		{"argument type", cat([]byte{add, o}, trueLit, []byte{c, grammar.Int, 1, cl})},
		{"return type", []byte{ret, o, grammar.Int, 1, cl}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := runGene(t, tc.gene)
			if !errors.Is(err, grammar.ErrFunction) {
				t.Fatalf("expected ErrFunction, got %v", err)
			}
		})
	}
}

func TestMaxDepth(t *testing.T) {
	counter := 0
	in := New(counterGrammar(t, &counter), WithMaxDepth(4))
	// add(add(add(add(1,1),1),1),1) nests five calls.
	gene := []byte{grammar.Int, 1}
	for i := 0; i < 5; i++ {
		gene = cat([]byte{add, o}, gene, []byte{c, grammar.Int, 1, cl})
	}
	_, err := in.Execute(dna.New(gene))
	if !errors.Is(err, grammar.ErrSyntax) {
		t.Fatalf("expected ErrSyntax for deep nesting, got %v", err)
	}
}
