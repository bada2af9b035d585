package jexpr

import (
	"fmt"
	"maps"
	"slices"
)

// Env maps variable names to values. Names are literal keys: a dot in a
// name such as `project.outputs` does not imply nesting. An Env must not be
// shared between concurrent evaluations.
type Env map[string]Value

func NewEnv() Env { return make(Env) }

// EnvFromGo converts native Go values with FromGo.
func EnvFromGo(vars map[string]any) (Env, error) {
	env := make(Env, len(vars))
	for name, raw := range vars {
		v, err := FromGo(raw)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		env[name] = v
	}
	return env, nil
}

func (e Env) Clone() Env {
	if e == nil {
		return make(Env)
	}
	return maps.Clone(e)
}

// Keys returns the variable names in sorted order.
func (e Env) Keys() []string {
	return slices.Sorted(maps.Keys(e))
}

func (e Env) Lookup(name string) (Value, bool) {
	v, ok := e[name]
	return v, ok
}
