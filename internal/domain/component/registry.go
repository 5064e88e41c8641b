package component

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errors for registry and resolution operations.
var (
	ErrDuplicateComponent = errors.New("component with this key already exists")
	ErrUnknownComponent   = errors.New("unknown component")
	ErrMissingDep         = errors.New("component depends on nonexistent component")
	ErrCyclicDependency   = errors.New("cyclic dependency detected")
	ErrNoSteps            = errors.New("component has no steps")
)

// Registry is the ordered table of components.
// Definition order is the canonical order used for menus and ties in dispatch.
type Registry struct {
	specs []*Spec
	index map[string]int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Add appends a component to the table.
func (r *Registry) Add(spec *Spec) error {
	if err := ValidateKey(spec.Key); err != nil {
		return fmt.Errorf("component %q: %w", spec.Key, err)
	}
	if _, exists := r.index[spec.Key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateComponent, spec.Key)
	}
	if len(spec.Steps) == 0 {
		return fmt.Errorf("%w: %q", ErrNoSteps, spec.Key)
	}
	r.index[spec.Key] = len(r.specs)
	r.specs = append(r.specs, spec)
	return nil
}

// MustAdd adds a component, panicking on error.
// Use this for statically known catalogs.
func (r *Registry) MustAdd(spec *Spec) {
	if err := r.Add(spec); err != nil {
		panic(err)
	}
}

// Len returns the number of components.
func (r *Registry) Len() int {
	return len(r.specs)
}

// Get retrieves a component by key.
func (r *Registry) Get(key string) (*Spec, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.specs[i], true
}

// All returns every component in definition order.
func (r *Registry) All() []*Spec {
	out := make([]*Spec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Keys returns every component key in definition order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.specs))
	for i, s := range r.specs {
		keys[i] = s.Key
	}
	return keys
}

// Group returns the components of one group in definition order.
func (r *Registry) Group(group string) []*Spec {
	out := make([]*Spec, 0)
	for _, s := range r.specs {
		if s.Group == group {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks that every dependency exists and that there are no cycles.
func (r *Registry) Validate() error {
	for _, s := range r.specs {
		for _, dep := range s.DependsOn {
			if _, ok := r.index[dep]; !ok {
				return fmt.Errorf("%w: %q depends on %q", ErrMissingDep, s.Key, dep)
			}
		}
	}
	_, err := r.order(r.Keys())
	return err
}

// Resolve returns the selected components plus their transitive
// dependencies, dependencies first. Ties keep definition order, so the
// result does not depend on the order keys were toggled in.
func (r *Registry) Resolve(keys []string) ([]*Spec, error) {
	closure := make(map[string]bool)
	var visit func(key, from string) error
	visit = func(key, from string) error {
		if closure[key] {
			return nil
		}
		spec, ok := r.Get(key)
		if !ok {
			if from == "" {
				return fmt.Errorf("%w: %q", ErrUnknownComponent, key)
			}
			return fmt.Errorf("%w: %q depends on %q", ErrMissingDep, from, key)
		}
		closure[key] = true
		for _, dep := range spec.DependsOn {
			if err := visit(dep, key); err != nil {
				return err
			}
		}
		return nil
	}

	for _, key := range keys {
		if err := visit(key, ""); err != nil {
			return nil, err
		}
	}

	selected := make([]string, 0, len(closure))
	for key := range closure {
		selected = append(selected, key)
	}
	return r.order(selected)
}

// Canonical returns keys sorted into definition order without adding
// dependencies. Unknown keys are an error.
func (r *Registry) Canonical(keys []string) ([]*Spec, error) {
	seen := make(map[string]bool, len(keys))
	out := make([]*Spec, 0, len(keys))
	for _, key := range keys {
		spec, ok := r.Get(key)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, key)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, spec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return r.index[out[i].Key] < r.index[out[j].Key]
	})
	return out, nil
}

// Dependents returns the keys of components that directly depend on key.
func (r *Registry) Dependents(key string) []string {
	out := make([]string, 0)
	for _, s := range r.specs {
		for _, dep := range s.DependsOn {
			if dep == key {
				out = append(out, s.Key)
				break
			}
		}
	}
	return out
}

// order topologically sorts keys (Kahn's algorithm). Among ready
// components the earliest defined one is emitted first.
func (r *Registry) order(keys []string) ([]*Spec, error) {
	pending := make(map[string]bool, len(keys))
	for _, k := range keys {
		pending[k] = true
	}

	// Count only dependencies that are part of this resolution
	inDegree := make(map[string]int, len(keys))
	for k := range pending {
		spec := r.specs[r.index[k]]
		for _, dep := range spec.DependsOn {
			if pending[dep] {
				inDegree[k]++
			}
		}
	}

	sorted := make([]*Spec, 0, len(keys))
	for len(pending) > 0 {
		var next *Spec
		for _, s := range r.specs {
			if pending[s.Key] && inDegree[s.Key] == 0 {
				next = s
				break
			}
		}
		if next == nil {
			remaining := make([]string, 0, len(pending))
			for _, s := range r.specs {
				if pending[s.Key] {
					remaining = append(remaining, s.Key)
				}
			}
			return nil, fmt.Errorf("%w among %s", ErrCyclicDependency, strings.Join(remaining, ", "))
		}

		delete(pending, next.Key)
		sorted = append(sorted, next)
		for _, dependent := range r.Dependents(next.Key) {
			if pending[dependent] {
				inDegree[dependent]--
			}
		}
	}

	return sorted, nil
}
