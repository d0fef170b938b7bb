package grammar

import "errors"

// Kind classifies interpreter and registry failures.
type Kind int

const (
	KindGeneric Kind = iota
	KindSyntax
	KindFunction
	KindConditional
	KindArgument
)

var (
	ErrGeneric     = errors.New("generic error")
	ErrSyntax      = errors.New("syntax error")
	ErrFunction    = errors.New("function error")
	ErrConditional = errors.New("conditional error")
	ErrArgument    = errors.New("argument error")
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindFunction:
		return "function"
	case KindConditional:
		return "conditional"
	case KindArgument:
		return "argument"
	default:
		return "generic"
	}
}

// KindOf maps err back to its taxonomy kind. Errors outside the taxonomy are
// generic.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrSyntax):
		return KindSyntax
	case errors.Is(err, ErrFunction):
		return KindFunction
	case errors.Is(err, ErrConditional):
		return KindConditional
	case errors.Is(err, ErrArgument):
		return KindArgument
	default:
		return KindGeneric
	}
}
