package grammar

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func addImpl() CallableFunc {
	return func(_ *Scope, args []Value) (Value, error) {
		return IntValue(args[0].Int() + args[1].Int()), nil
	}
}

func TestSetupRunsOnce(t *testing.T) {
	g := New()
	if err := g.Setup(); err != nil {
		t.Fatalf("first setup: %v", err)
	}
	err := g.Setup()
	if !errors.Is(err, ErrGeneric) || !strings.Contains(err.Error(), "already set up") {
		t.Fatalf("expected already set up error, got %v", err)
	}
}

func TestSetupSealsRegistry(t *testing.T) {
	g := New()
	if err := g.Setup(Arithmetic); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if !g.IsSetUp() {
		t.Fatal("expected grammar to report set up")
	}
	if _, err := g.CreateFunction("late", nil, TypeVoid, addImpl()); !errors.Is(err, ErrFunction) {
		t.Fatalf("expected ErrFunction for registration after setup, got %v", err)
	}
}

func TestSetupPropagatesInstallerError(t *testing.T) {
	g := New()
	boom := errors.New("boom")
	err := g.Setup(Arithmetic, func(*Grammar) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected installer error, got %v", err)
	}
	if g.IsSetUp() {
		t.Fatal("failed setup must not report set up")
	}
	if ids := g.FunctionIDs(); len(ids) != 0 {
		t.Fatalf("failed setup must roll back registrations, got %v", ids)
	}

	if err := g.Setup(Arithmetic); err != nil {
		t.Fatalf("retry setup: %v", err)
	}
	if !g.IsSetUp() {
		t.Fatal("expected grammar to report set up after retry")
	}
	if _, err := g.CreateFunction("late", nil, TypeVoid, addImpl()); !errors.Is(err, ErrFunction) {
		t.Fatalf("expected sealed registry after retry, got %v", err)
	}
}

func TestCreateFunctionAssignsFirstFreeByte(t *testing.T) {
	g := New()
	id, err := g.CreateFunction("add", []Type{TypeInt, TypeInt}, TypeInt, addImpl())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != FirstFunction {
		t.Fatalf("expected first function byte %d, got %d", FirstFunction, id)
	}
	if err := g.CreateFunctionAt(26, "explicit", nil, TypeVoid, addImpl()); err != nil {
		t.Fatalf("create at: %v", err)
	}
	next, err := g.CreateFunction("next", nil, TypeVoid, addImpl())
	if err != nil {
		t.Fatalf("create next: %v", err)
	}
	if next != 25 {
		t.Fatalf("expected byte 25, got %d", next)
	}
	if got := len(g.Functions()); got != 3 {
		t.Fatalf("expected 3 functions, got %d", got)
	}
}

func TestCreateFunctionAtDuplicate(t *testing.T) {
	g := New()
	if err := g.CreateFunctionAt(30, "first", nil, TypeVoid, addImpl()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := g.CreateFunctionAt(30, "second", nil, TypeVoid, addImpl()); !errors.Is(err, ErrFunction) {
		t.Fatalf("expected ErrFunction on duplicate byte, got %v", err)
	}
	fn, ok := g.Lookup(30)
	if !ok || fn.Name != "first" {
		t.Fatalf("duplicate must not overwrite: %+v", fn)
	}
}

func TestCreateFunctionAtReserved(t *testing.T) {
	for _, id := range []byte{0, ArgOpen, If, Int, 254, 255} {
		g := New()
		if err := g.CreateFunctionAt(id, "bad", nil, TypeVoid, addImpl()); !errors.Is(err, ErrFunction) {
			t.Fatalf("byte %d: expected ErrFunction, got %v", id, err)
		}
	}
}

func TestCreateFunctionExhausted(t *testing.T) {
	g := New()
	for i := int(FirstFunction); i <= int(LastFunction); i++ {
		if _, err := g.CreateFunction(fmt.Sprintf("f%d", i), nil, TypeVoid, addImpl()); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	_, err := g.CreateFunction("overflow", nil, TypeVoid, addImpl())
	if !errors.Is(err, ErrFunction) || !strings.Contains(err.Error(), "exhausted") {
		t.Fatalf("expected exhausted error, got %v", err)
	}
}

func TestCreateFunctionValidation(t *testing.T) {
	g := New()
	if _, err := g.CreateFunction("", nil, TypeVoid, addImpl()); !errors.Is(err, ErrArgument) {
		t.Fatalf("expected ErrArgument for empty name, got %v", err)
	}
	if _, err := g.CreateFunction("nil", nil, TypeVoid, nil); !errors.Is(err, ErrArgument) {
		t.Fatalf("expected ErrArgument for nil impl, got %v", err)
	}
	if _, err := g.CreateFunction("bad", []Type{Type(9)}, TypeVoid, addImpl()); !errors.Is(err, ErrArgument) {
		t.Fatalf("expected ErrArgument for invalid type, got %v", err)
	}
}

func TestCallFunctionTypeChecking(t *testing.T) {
	g := New()
	id, err := g.CreateFunction("add", []Type{TypeInt, TypeInt}, TypeInt, addImpl())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	s := NewScope()

	_, err = g.CallFunction(s, id, []Value{BoolValue(true)})
	if !errors.Is(err, ErrFunction) {
		t.Fatalf("expected ErrFunction for mismatched args, got %v", err)
	}
	if !strings.Contains(err.Error(), "[INT INT]") || !strings.Contains(err.Error(), "[BOOL]") {
		t.Fatalf("expected type lists in message, got %v", err)
	}

	out, err := g.CallFunction(s, id, []Value{IntValue(2), IntValue(40)})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if out.Type() != TypeInt || out.Int() != 42 {
		t.Fatalf("unexpected result: %v", out)
	}
}

func TestCallFunctionUnknownAndReturnMismatch(t *testing.T) {
	g := New()
	id, err := g.CreateFunction("liar", nil, TypeInt, CallableFunc(func(*Scope, []Value) (Value, error) {
		return BoolValue(true), nil
	}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := g.CallFunction(NewScope(), 200, nil); !errors.Is(err, ErrFunction) {
		t.Fatalf("expected ErrFunction for unknown byte, got %v", err)
	}
	if _, err := g.CallFunction(NewScope(), id, nil); !errors.Is(err, ErrFunction) {
		t.Fatalf("expected ErrFunction for return mismatch, got %v", err)
	}
}

func TestBlockClearsScope(t *testing.T) {
	g := New()
	hooked := 0
	g.OnBlock = func(s *Scope) {
		hooked++
		if s.Len() != 0 {
			t.Fatalf("scope must be cleared before the hook, len=%d", s.Len())
		}
	}
	s := NewScope()
	s.Set(1, IntValue(5))
	g.Block(s)
	if s.Len() != 0 {
		t.Fatalf("expected empty scope, len=%d", s.Len())
	}
	if hooked != 1 {
		t.Fatalf("expected hook to run once, ran %d", hooked)
	}
}

func TestClassification(t *testing.T) {
	g := New()
	if err := g.Setup(Arithmetic); err != nil {
		t.Fatalf("setup: %v", err)
	}
	cases := []struct {
		b                                        byte
		reserved, syntax, conditional, data, fnc bool
	}{
		{b: 0, reserved: true},
		{b: ArgOpen, reserved: true, syntax: true},
		{b: InstrClose, reserved: true, syntax: true},
		{b: 7, reserved: true},
		{b: If, reserved: true, conditional: true},
		{b: While, reserved: true, conditional: true},
		{b: Void, reserved: true, data: true},
		{b: Int, reserved: true, data: true},
		{b: FirstFunction, fnc: true},
		{b: 100},
		{b: 254, reserved: true},
		{b: 255, reserved: true},
	}
	for _, tc := range cases {
		if IsReserved(tc.b) != tc.reserved || IsSyntax(tc.b) != tc.syntax ||
			IsConditional(tc.b) != tc.conditional || IsData(tc.b) != tc.data ||
			g.IsFunction(tc.b) != tc.fnc {
			t.Fatalf("classification mismatch for byte %d", tc.b)
		}
	}
}

func TestKindOf(t *testing.T) {
	cases := map[error]Kind{
		fmt.Errorf("%w: x", ErrSyntax):      KindSyntax,
		fmt.Errorf("%w: x", ErrFunction):    KindFunction,
		fmt.Errorf("%w: x", ErrConditional): KindConditional,
		fmt.Errorf("%w: x", ErrArgument):    KindArgument,
		errors.New("other"):                 KindGeneric,
	}
	for err, want := range cases {
		if got := KindOf(err); got != want {
			t.Fatalf("KindOf(%v)=%s want=%s", err, got, want)
		}
	}
}
