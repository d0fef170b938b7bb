package grammar

import "fmt"

// Reserved byte identifiers.
const (
	ArgOpen    byte = 1
	ArgSep     byte = 2
	ArgClose   byte = 3
	InstrOpen  byte = 4
	InstrSep   byte = 5
	InstrClose byte = 6

	If     byte = 10
	Unless byte = 11
	While  byte = 12

	Void byte = 21
	Bool byte = 22
	Int  byte = 23

	FirstFunction byte = 24
	LastFunction  byte = 253
)

// Callable is the implementation behind a registered function byte.
type Callable interface {
	Call(s *Scope, args []Value) (Value, error)
}

// CallableFunc adapts a plain function to Callable.
type CallableFunc func(s *Scope, args []Value) (Value, error)

func (f CallableFunc) Call(s *Scope, args []Value) (Value, error) {
	return f(s, args)
}

type Function struct {
	ID     byte
	Name   string
	Params []Type
	Return Type
	Impl   Callable
}

// Installer registers a group of functions during Setup.
type Installer func(g *Grammar) error

// Grammar maps byte identifiers to their meaning. Registration is only
// possible until Setup completes; afterwards the registry is read-only and may
// be shared between interpreters.
type Grammar struct {
	functions [256]*Function
	setup     bool
	sealed    bool

	// OnBlock runs after the scope is cleared at each top-level instruction
	// stream.
	OnBlock func(s *Scope)
}

func New() *Grammar {
	return &Grammar{}
}

// Setup runs the installers and seals the registry. It may only run once
// successfully; a failing installer rolls back every registration made by
// Setup and leaves the grammar ready for another attempt.
func (g *Grammar) Setup(installers ...Installer) error {
	if g.setup {
		return fmt.Errorf("%w: already set up", ErrGeneric)
	}
	g.setup = true
	before := g.functions
	for _, install := range installers {
		if install == nil {
			continue
		}
		if err := install(g); err != nil {
			g.functions = before
			g.setup = false
			return err
		}
	}
	g.sealed = true
	return nil
}

func (g *Grammar) IsSetUp() bool {
	return g.sealed
}

// CreateFunction registers a function at the first free identifier.
func (g *Grammar) CreateFunction(name string, params []Type, ret Type, impl Callable) (byte, error) {
	if err := g.checkRegistration(name, params, ret, impl); err != nil {
		return 0, err
	}
	for id := int(FirstFunction); id <= int(LastFunction); id++ {
		if g.functions[id] == nil {
			g.store(byte(id), name, params, ret, impl)
			return byte(id), nil
		}
	}
	return 0, fmt.Errorf("%w: registration space exhausted registering %s", ErrFunction, name)
}

// CreateFunctionAt registers a function at an explicit identifier.
func (g *Grammar) CreateFunctionAt(id byte, name string, params []Type, ret Type, impl Callable) error {
	if err := g.checkRegistration(name, params, ret, impl); err != nil {
		return err
	}
	if IsReserved(id) {
		return fmt.Errorf("%w: byte %d is reserved", ErrFunction, id)
	}
	if existing := g.functions[id]; existing != nil {
		return fmt.Errorf("%w: byte %d already assigned to %s", ErrFunction, id, existing.Name)
	}
	g.store(id, name, params, ret, impl)
	return nil
}

func (g *Grammar) checkRegistration(name string, params []Type, ret Type, impl Callable) error {
	if g.sealed {
		return fmt.Errorf("%w: registry sealed, cannot register %s", ErrFunction, name)
	}
	if name == "" {
		return fmt.Errorf("%w: function name is required", ErrArgument)
	}
	if impl == nil {
		return fmt.Errorf("%w: implementation is required for %s", ErrArgument, name)
	}
	if !ret.valid() {
		return fmt.Errorf("%w: invalid return type %s for %s", ErrArgument, ret, name)
	}
	for _, p := range params {
		if !p.valid() {
			return fmt.Errorf("%w: invalid parameter type %s for %s", ErrArgument, p, name)
		}
	}
	return nil
}

func (g *Grammar) store(id byte, name string, params []Type, ret Type, impl Callable) {
	g.functions[id] = &Function{
		ID:     id,
		Name:   name,
		Params: append([]Type(nil), params...),
		Return: ret,
		Impl:   impl,
	}
}

// CallFunction type checks args against the signature of id, dispatches and
// checks the result against the declared return type.
func (g *Grammar) CallFunction(s *Scope, id byte, args []Value) (Value, error) {
	fn := g.functions[id]
	if fn == nil {
		return Value{}, fmt.Errorf("%w: unknown function byte %d", ErrFunction, id)
	}
	if !matches(fn.Params, args) {
		return Value{}, fmt.Errorf("%w: %s expects %s, got %s",
			ErrFunction, fn.Name, typeList(fn.Params), typeList(valueTypes(args)))
	}
	out, err := fn.Impl.Call(s, args)
	if err != nil {
		return Value{}, fmt.Errorf("call %s: %w", fn.Name, err)
	}
	if out.Type() != fn.Return {
		return Value{}, fmt.Errorf("%w: %s declared return %s, returned %s",
			ErrFunction, fn.Name, fn.Return, out.Type())
	}
	return out, nil
}

// Block is invoked once per top-level instruction stream.
func (g *Grammar) Block(s *Scope) {
	s.Clear()
	if g.OnBlock != nil {
		g.OnBlock(s)
	}
}

func (g *Grammar) Lookup(id byte) (Function, bool) {
	fn := g.functions[id]
	if fn == nil {
		return Function{}, false
	}
	return *fn, true
}

func (g *Grammar) IsFunction(b byte) bool {
	return g.functions[b] != nil
}

// Functions lists the registered functions ordered by identifier.
func (g *Grammar) Functions() []Function {
	out := make([]Function, 0)
	for _, fn := range g.functions {
		if fn != nil {
			out = append(out, *fn)
		}
	}
	return out
}

// FunctionIDs returns the registered identifiers in ascending order.
func (g *Grammar) FunctionIDs() []byte {
	out := make([]byte, 0)
	for id, fn := range g.functions {
		if fn != nil {
			out = append(out, byte(id))
		}
	}
	return out
}

func matches(params []Type, args []Value) bool {
	if len(params) != len(args) {
		return false
	}
	for i := range params {
		if args[i].Type() != params[i] {
			return false
		}
	}
	return true
}

func IsReserved(b byte) bool {
	return b < FirstFunction || b > LastFunction
}

func IsSyntax(b byte) bool {
	return b >= ArgOpen && b <= InstrClose
}

func IsConditional(b byte) bool {
	return b >= If && b <= While
}

func IsData(b byte) bool {
	return b >= Void && b <= Int
}
