package grammar

import "fmt"

var (
	intPair  = []Type{TypeInt, TypeInt}
	boolPair = []Type{TypeBool, TypeBool}
)

// Arithmetic installs add, sub, mul, mod and neg over INT.
func Arithmetic(g *Grammar) error {
	return register(g,
		builtin{"add", intPair, TypeInt, func(_ *Scope, a []Value) (Value, error) {
			return IntValue(a[0].Int() + a[1].Int()), nil
		}},
		builtin{"sub", intPair, TypeInt, func(_ *Scope, a []Value) (Value, error) {
			return IntValue(a[0].Int() - a[1].Int()), nil
		}},
		builtin{"mul", intPair, TypeInt, func(_ *Scope, a []Value) (Value, error) {
			return IntValue(a[0].Int() * a[1].Int()), nil
		}},
		builtin{"mod", intPair, TypeInt, func(_ *Scope, a []Value) (Value, error) {
			if a[1].Int() == 0 {
				return Value{}, fmt.Errorf("%w: modulo by zero", ErrArgument)
			}
			return IntValue(a[0].Int() % a[1].Int()), nil
		}},
		builtin{"neg", []Type{TypeInt}, TypeInt, func(_ *Scope, a []Value) (Value, error) {
			return IntValue(-a[0].Int()), nil
		}},
	)
}

// Logic installs boolean connectives and integer comparisons.
func Logic(g *Grammar) error {
	return register(g,
		builtin{"not", []Type{TypeBool}, TypeBool, func(_ *Scope, a []Value) (Value, error) {
			return BoolValue(!a[0].Bool()), nil
		}},
		builtin{"and", boolPair, TypeBool, func(_ *Scope, a []Value) (Value, error) {
			return BoolValue(a[0].Bool() && a[1].Bool()), nil
		}},
		builtin{"or", boolPair, TypeBool, func(_ *Scope, a []Value) (Value, error) {
			return BoolValue(a[0].Bool() || a[1].Bool()), nil
		}},
		builtin{"eq", intPair, TypeBool, func(_ *Scope, a []Value) (Value, error) {
			return BoolValue(a[0].Int() == a[1].Int()), nil
		}},
		builtin{"lt", intPair, TypeBool, func(_ *Scope, a []Value) (Value, error) {
			return BoolValue(a[0].Int() < a[1].Int()), nil
		}},
		builtin{"gt", intPair, TypeBool, func(_ *Scope, a []Value) (Value, error) {
			return BoolValue(a[0].Int() > a[1].Int()), nil
		}},
	)
}

// Variables installs set(key, value) and get(key) over the session scope.
// Reading an unset key yields 0.
func Variables(g *Grammar) error {
	return register(g,
		builtin{"set", intPair, TypeVoid, func(s *Scope, a []Value) (Value, error) {
			s.Set(a[0].Int(), a[1])
			return VoidValue(), nil
		}},
		builtin{"get", []Type{TypeInt}, TypeInt, func(s *Scope, a []Value) (Value, error) {
			v, ok := s.Get(a[0].Int())
			if !ok {
				return IntValue(0), nil
			}
			return v, nil
		}},
	)
}

type builtin struct {
	name   string
	params []Type
	ret    Type
	fn     CallableFunc
}

func register(g *Grammar, items ...builtin) error {
	for _, item := range items {
		if _, err := g.CreateFunction(item.name, item.params, item.ret, item.fn); err != nil {
			return err
		}
	}
	return nil
}
