package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapguard/internal/rules"
)

// Registry owns parsed Template values keyed by (id, version).
// Callers receive immutable references; templates are never re-parsed
// or replaced once registered.
type Registry struct {
	mu sync.RWMutex

	// byKey maps "id@version" to the parsed template.
	byKey map[string]*Template

	// latest maps id to the highest registered version.
	latest map[string]string
}

// NewRegistry creates an empty template registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey:  make(map[string]*Template),
		latest: make(map[string]string),
	}
}

func key(id, version string) string { return id + "@" + version }

// Register adds a parsed template. Re-registering the same (id,
// version) with different content is an error; templates are versioned,
// not mutated.
func (r *Registry) Register(t *Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(t.ID, t.Version)
	if _, exists := r.byKey[k]; exists {
		return fmt.Errorf("template %s already registered", k)
	}
	r.byKey[k] = t
	if current, ok := r.latest[t.ID]; !ok || versionLess(current, t.Version) {
		r.latest[t.ID] = t.Version
	}
	return nil
}

// Get returns the template registered under (id, version). An empty
// version resolves to the highest registered version of the id.
func (r *Registry) Get(id, version string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if version == "" {
		latest, ok := r.latest[id]
		if !ok {
			return nil, &NotFoundError{ID: id}
		}
		version = latest
	}
	t, ok := r.byKey[key(id, version)]
	if !ok {
		return nil, &NotFoundError{ID: id, Version: version}
	}
	return t, nil
}

// List returns all registered templates sorted by id then version.
func (r *Registry) List() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Template, 0, len(r.byKey))
	for _, t := range r.byKey {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return versionLess(out[i].Version, out[j].Version)
	})
	return out
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}

// LoadDir loads every *.yaml and *.yml template under a directory into
// the registry. Returns the number of templates loaded.
func (r *Registry) LoadDir(dir string, reg *rules.Registry) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read templates directory: %w", err)
	}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		t, err := Load(filepath.Join(dir, entry.Name()), reg)
		if err != nil {
			return loaded, err
		}
		if err := r.Register(t); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}

// versionLess compares numeric dotted versions.
func versionLess(a, b string) bool {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			// Loader validation restricts parts to digits, so numeric
			// width comparison is sufficient.
			if len(as[i]) != len(bs[i]) {
				return len(as[i]) < len(bs[i])
			}
			return as[i] < bs[i]
		}
	}
	return len(as) < len(bs)
}
