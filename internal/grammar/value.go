package grammar

import (
	"fmt"
	"strings"
)

type Type uint8

const (
	TypeVoid Type = iota
	TypeBool
	TypeInt
)

func (t Type) String() string {
	switch t {
	case TypeVoid:
		return "VOID"
	case TypeBool:
		return "BOOL"
	case TypeInt:
		return "INT"
	default:
		return fmt.Sprintf("TYPE(%d)", uint8(t))
	}
}

func (t Type) valid() bool {
	return t <= TypeInt
}

// Value is a tagged union over the interpreter's types.
type Value struct {
	typ Type
	b   bool
	n   int64
}

func VoidValue() Value {
	return Value{typ: TypeVoid}
}

func BoolValue(b bool) Value {
	return Value{typ: TypeBool, b: b}
}

func IntValue(n int64) Value {
	return Value{typ: TypeInt, n: n}
}

func (v Value) Type() Type {
	return v.typ
}

func (v Value) Bool() bool {
	return v.b
}

func (v Value) Int() int64 {
	return v.n
}

func (v Value) String() string {
	switch v.typ {
	case TypeBool:
		return fmt.Sprintf("BOOL(%t)", v.b)
	case TypeInt:
		return fmt.Sprintf("INT(%d)", v.n)
	default:
		return "VOID"
	}
}

func typeList(types []Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func valueTypes(values []Value) []Type {
	out := make([]Type, len(values))
	for i, v := range values {
		out[i] = v.typ
	}
	return out
}
