package jexpr

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// Unbounded is the MaxArity of a variadic function.
const Unbounded = -1

// Capability flags behaviour a function declares at registration time.
type Capability uint8

const (
	// CapMutatesEnv allows the function to assign or remove variables in
	// the caller's environment through Call.SetVariable.
	CapMutatesEnv Capability = 1 << iota
	// CapNonDeterministic marks functions whose result may differ between
	// evaluations with equal inputs (random numbers, clocks, filesystem).
	CapNonDeterministic
)

func (c Capability) Has(flag Capability) bool { return c&flag != 0 }

func (c Capability) String() string {
	var parts []string
	if c.Has(CapMutatesEnv) {
		parts = append(parts, "mutates-env")
	}
	if c.Has(CapNonDeterministic) {
		parts = append(parts, "non-deterministic")
	}
	return strings.Join(parts, ",")
}

// ApplyFunc receives eagerly evaluated arguments.
type ApplyFunc func(call *Call, args []Value) (Value, error)

// LazyApplyFunc receives argument thunks and decides which to evaluate.
type LazyApplyFunc func(call *Call, args []Thunk) (Value, error)

// Thunk evaluates one argument subtree each time it is called.
type Thunk func() (Value, error)

// Function is a registry entry. Exactly one of Apply and ApplyLazy is set.
type Function struct {
	Name         string
	Description  string
	MinArity     int
	MaxArity     int
	Capabilities Capability
	Apply        ApplyFunc
	ApplyLazy    LazyApplyFunc
}

var functionNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (f Function) validate() error {
	if !functionNamePattern.MatchString(f.Name) {
		return &RegistryError{Operation: "register", Name: f.Name, Message: "invalid function name"}
	}
	if f.MinArity < 0 {
		return &RegistryError{Operation: "register", Name: f.Name, Message: "negative minimum arity"}
	}
	if f.MaxArity != Unbounded && f.MaxArity < f.MinArity {
		return &RegistryError{Operation: "register", Name: f.Name, Message: "maximum arity below minimum"}
	}
	if (f.Apply == nil) == (f.ApplyLazy == nil) {
		return &RegistryError{Operation: "register", Name: f.Name, Message: "exactly one of Apply and ApplyLazy must be set"}
	}
	return nil
}

func (f Function) acceptsArity(n int) bool {
	return n >= f.MinArity && (f.MaxArity == Unbounded || n <= f.MaxArity)
}

// RegistryError reports an invalid registration.
type RegistryError struct {
	Operation string
	Name      string
	Message   string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry %s %q: %s", e.Operation, e.Name, e.Message)
}

// FunctionTable is an immutable snapshot of the registry.
type FunctionTable struct {
	funcs   map[string]*Function
	names   []string
	version string
}

func newFunctionTable(funcs map[string]*Function) *FunctionTable {
	names := make([]string, 0, len(funcs))
	for name := range funcs {
		names = append(names, name)
	}
	slices.Sort(names)

	h := sha256.New()
	for _, name := range names {
		fn := funcs[name]
		fmt.Fprintf(h, "%s/%d/%d/%d;", name, fn.MinArity, fn.MaxArity, fn.Capabilities)
	}
	return &FunctionTable{
		funcs:   funcs,
		names:   names,
		version: hex.EncodeToString(h.Sum(nil))[:12],
	}
}

// Lookup returns the function registered under name.
func (t *FunctionTable) Lookup(name string) (*Function, bool) {
	fn, ok := t.funcs[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func (t *FunctionTable) Names() []string { return slices.Clone(t.names) }

func (t *FunctionTable) Len() int { return len(t.funcs) }

// Version is a short digest of the registered names, arities and
// capabilities. Tables with the same signatures share a version.
func (t *FunctionTable) Version() string { return t.version }

// Functions returns copies of all entries sorted by name.
func (t *FunctionTable) Functions() []Function {
	out := make([]Function, len(t.names))
	for i, name := range t.names {
		out[i] = *t.funcs[name]
	}
	return out
}

// Registry maps function names to callables. Readers take a snapshot and
// never observe a partially applied update: every write builds a new
// table and swaps it in atomically.
type Registry struct {
	table  atomic.Pointer[FunctionTable]
	mu     sync.Mutex
	onSwap func(*FunctionTable)
}

// NewRegistry creates a registry holding fns.
func NewRegistry(fns ...Function) (*Registry, error) {
	r := &Registry{}
	r.table.Store(newFunctionTable(map[string]*Function{}))
	if err := r.Register(fns...); err != nil {
		return nil, err
	}
	return r, nil
}

// Snapshot returns the current table.
func (r *Registry) Snapshot() *FunctionTable {
	return r.table.Load()
}

// Register adds fns, replacing any existing entries with the same names.
func (r *Registry) Register(fns ...Function) error {
	return r.update(func(funcs map[string]*Function) error {
		for _, fn := range fns {
			if err := fn.validate(); err != nil {
				return err
			}
			entry := fn
			funcs[fn.Name] = &entry
		}
		return nil
	}, false)
}

// RegisterFunc registers an eagerly evaluated function.
func (r *Registry) RegisterFunc(name string, minArity, maxArity int, apply ApplyFunc) error {
	return r.Register(Function{Name: name, MinArity: minArity, MaxArity: maxArity, Apply: apply})
}

// Unregister removes the named functions. Unknown names are ignored.
func (r *Registry) Unregister(names ...string) error {
	return r.update(func(funcs map[string]*Function) error {
		for _, name := range names {
			delete(funcs, name)
		}
		return nil
	}, false)
}

// Replace swaps the whole table for one holding exactly fns.
func (r *Registry) Replace(fns ...Function) error {
	return r.update(func(funcs map[string]*Function) error {
		for _, fn := range fns {
			if err := fn.validate(); err != nil {
				return err
			}
			entry := fn
			funcs[fn.Name] = &entry
		}
		return nil
	}, true)
}

func (r *Registry) update(mutate func(map[string]*Function) error, fresh bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	funcs := make(map[string]*Function)
	if !fresh {
		if current := r.table.Load(); current != nil {
			for name, fn := range current.funcs {
				funcs[name] = fn
			}
		}
	}
	if err := mutate(funcs); err != nil {
		return err
	}

	table := newFunctionTable(funcs)
	r.table.Store(table)
	if r.onSwap != nil {
		r.onSwap(table)
	}
	return nil
}
