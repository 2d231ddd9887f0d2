package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/vk/ganbootstrap/internal/cfgerr"
	"github.com/vk/ganbootstrap/internal/component"
)

// Module is the interface that all component modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds every registered component type for a single application
// instance.
type Registry struct {
	mu     sync.RWMutex
	sealed bool
	types  map[string]*Registration
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{types: make(map[string]*Registration)}
}

// Seal makes the registry read-only. Registering a type afterwards panics.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

func (r *Registry) add(reg *Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		panic(fmt.Sprintf("cannot register %s '%s': registry is sealed", reg.Kind, reg.Name))
	}
	if prev, exists := r.types[reg.Name]; exists {
		panic(fmt.Sprintf("type '%s' already registered as %s", reg.Name, prev.Kind))
	}
	slog.Debug("Registering component type.", "name", reg.Name, "kind", reg.Kind, "args", len(reg.Args))
	r.types[reg.Name] = reg
}

// Lookup returns the registration for name, which must be registered under
// kind. path is the configuration key path reported in the error.
func (r *Registry) Lookup(path, name string, kind component.Kind) (*Registration, error) {
	r.mu.RLock()
	reg, ok := r.types[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &cfgerr.UnknownTypeError{Path: path, Type: name, Kind: string(kind)}
	}
	if reg.Kind != kind {
		return nil, &cfgerr.UnknownTypeError{Path: path, Type: name, Kind: string(kind), RegisteredAs: string(reg.Kind)}
	}
	return reg, nil
}

// Describe returns every registration sorted by kind, then name.
func (r *Registry) Describe() []*Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Registration, 0, len(r.types))
	for _, reg := range r.types {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Names returns the registered type names of one kind in sorted order.
func (r *Registry) Names(kind component.Kind) []string {
	var names []string
	for _, reg := range r.Describe() {
		if reg.Kind == kind {
			names = append(names, reg.Name)
		}
	}
	return names
}
