package rules

import (
	"sort"

	"github.com/leapstack-labs/leapguard/internal/dataset"
	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// CheckFunc evaluates a user-defined check over a dataset. The returned
// fraction is the share of records passing, in [0,1]; detail is an
// optional human-readable message; affected is the failing record count.
// Errors are converted into a failing RuleResult by the evaluator.
type CheckFunc func(ds *dataset.Dataset, params map[string]any) (fraction float64, affected int, detail string, err error)

// Registry is an immutable lookup table of user-defined check kinds.
// Build it once at process start with NewRegistry; there is no global
// mutable registration.
type Registry struct {
	funcs map[string]CheckFunc
}

// NewRegistry builds a registry from a map of kind name to callback.
// The map is copied; later mutation of the argument has no effect.
func NewRegistry(funcs map[string]CheckFunc) *Registry {
	copied := make(map[string]CheckFunc, len(funcs))
	for name, fn := range funcs {
		copied[name] = fn
	}
	return &Registry{funcs: copied}
}

// Lookup returns the callback registered under a kind name.
func (r *Registry) Lookup(name string) (CheckFunc, bool) {
	if r == nil {
		return nil, false
	}
	fn, ok := r.funcs[name]
	return fn, ok
}

// Has reports whether a kind name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Kinds returns the registered kind names in sorted order.
func (r *Registry) Kinds() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateKind checks that a kind name is either built-in or registered.
// Unknown kinds are a load-time configuration error, not a runtime
// lookup failure.
func (r *Registry) ValidateKind(name string) error {
	if _, ok := builtinKinds[name]; ok {
		return nil
	}
	if r.Has(name) {
		return nil
	}
	return quality.NewConfigurationError("unknown rule kind %q", name)
}
