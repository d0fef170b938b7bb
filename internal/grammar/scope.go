package grammar

// Scope holds the variables of one execution session. It is created fresh
// per execution and never shared between sessions.
type Scope struct {
	vars map[int64]Value
}

func NewScope() *Scope {
	return &Scope{vars: make(map[int64]Value)}
}

func (s *Scope) Get(key int64) (Value, bool) {
	v, ok := s.vars[key]
	return v, ok
}

func (s *Scope) Set(key int64, v Value) {
	s.vars[key] = v
}

func (s *Scope) Len() int {
	return len(s.vars)
}

func (s *Scope) Clear() {
	clear(s.vars)
}
