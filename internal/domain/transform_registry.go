package domain

import (
	"sort"
	"sync"
	"sync/atomic"
)

// TransformFunc is a pure value-to-value conversion. It must not retain or
// mutate its input and must report unsupported input kinds as errors.
type TransformFunc func(Value) (Value, error)

// TransformRegistry maps transform names to functions. Registration happens
// during bootstrap; after Freeze the registry is read-only and safe for
// concurrent use.
type TransformRegistry struct {
	mu     sync.RWMutex
	fns    map[string]TransformFunc
	frozen atomic.Bool
}

func NewTransformRegistry() *TransformRegistry {
	return &TransformRegistry{fns: make(map[string]TransformFunc)}
}

// Register adds fn under name.
func (r *TransformRegistry) Register(name string, fn TransformFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return ErrRegistryFrozen
	}
	if _, exists := r.fns[name]; exists {
		return &DuplicateNameError{Name: name}
	}
	r.fns[name] = fn
	return nil
}

// Freeze makes the registry read-only.
func (r *TransformRegistry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen.Store(true)
}

func (r *TransformRegistry) Frozen() bool { return r.frozen.Load() }

func (r *TransformRegistry) lookup(name string) (TransformFunc, bool) {
	if r.frozen.Load() {
		fn, ok := r.fns[name]
		return fn, ok
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.fns[name]
	return fn, ok
}

// Apply runs the named transform on v.
func (r *TransformRegistry) Apply(name string, v Value) (Value, error) {
	fn, ok := r.lookup(name)
	if !ok {
		return Value{}, &UnknownTransformError{Name: name}
	}
	out, err := fn(v)
	if err != nil {
		return Value{}, &TransformExecutionError{Transform: name, Input: v, Err: err}
	}
	return out, nil
}

func (r *TransformRegistry) Has(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// Names returns all registered names in sorted order.
func (r *TransformRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.fns))
	for n := range r.fns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
