package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrOperatorExists   = errors.New("operator already registered")
	ErrOperatorNotFound = errors.New("operator not found")
)

var operatorRegistry = struct {
	mu sync.RWMutex
	m  map[string]Operator
}{
	m: make(map[string]Operator),
}

func init() {
	registerDefaultOperators()
}

func registerDefaultOperators() {
	for _, op := range DefaultOperators() {
		if err := RegisterOperator(op); err != nil {
			panic(err)
		}
	}
}

// RegisterOperator makes op resolvable by its name.
func RegisterOperator(op Operator) error {
	if op == nil {
		return errors.New("operator is required")
	}
	name := op.Name()
	if name == "" {
		return errors.New("operator name is required")
	}

	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()

	if _, exists := operatorRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrOperatorExists, name)
	}
	operatorRegistry.m[name] = op
	return nil
}

func ResolveOperator(name string) (Operator, error) {
	operatorRegistry.mu.RLock()
	op, ok := operatorRegistry.m[name]
	operatorRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, name)
	}
	return op, nil
}

// ResolveOperators resolves names into uniformly weighted operators.
func ResolveOperators(names []string) ([]WeightedOperator, error) {
	out := make([]WeightedOperator, 0, len(names))
	for _, name := range names {
		op, err := ResolveOperator(name)
		if err != nil {
			return nil, err
		}
		out = append(out, WeightedOperator{Operator: op, Weight: 1})
	}
	return out, nil
}

func ListOperators() []string {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()

	names := make([]string, 0, len(operatorRegistry.m))
	for name := range operatorRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetOperatorRegistryForTests() {
	operatorRegistry.mu.Lock()
	operatorRegistry.m = make(map[string]Operator)
	operatorRegistry.mu.Unlock()
	registerDefaultOperators()
}
