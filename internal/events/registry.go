package events

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateKind = errors.New("duplicate event kind")
	ErrUnknownBase   = errors.New("unknown base event kind")
	ErrNoGenerator   = errors.New("event kind has no generator")
)

// Registry is the static kind table. A kind may only name bases that are
// already registered, so registration order is a topological order of the
// derivation graph and a single forward pass resolves every cascade.
type Registry struct {
	kinds []Kind
	index map[Name]int
}

func NewRegistry() *Registry {
	return &Registry{index: map[Name]int{}}
}

func (r *Registry) Register(k Kind) error {
	if k.Name == "" {
		return fmt.Errorf("register kind: name is required")
	}
	if _, exists := r.index[k.Name]; exists {
		return fmt.Errorf("register %s: %w", k.Name, ErrDuplicateKind)
	}
	if k.Generate == nil {
		return fmt.Errorf("register %s: %w", k.Name, ErrNoGenerator)
	}
	for _, base := range k.Bases {
		if _, ok := r.index[base]; !ok {
			return fmt.Errorf("register %s: %w %q", k.Name, ErrUnknownBase, base)
		}
	}
	r.index[k.Name] = len(r.kinds)
	r.kinds = append(r.kinds, k)
	return nil
}

// MustRegister panics on the first invalid kind. Tables are built once at
// startup, so a bad table is a programming error.
func (r *Registry) MustRegister(kinds ...Kind) *Registry {
	for _, k := range kinds {
		if err := r.Register(k); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Lookup(name Name) (Kind, bool) {
	i, ok := r.index[name]
	if !ok {
		return Kind{}, false
	}
	return r.kinds[i], true
}

// Names lists kinds in registration order.
func (r *Registry) Names() []Name {
	out := make([]Name, len(r.kinds))
	for i, k := range r.kinds {
		out[i] = k.Name
	}
	return out
}

// Descendants lists every kind that derives, directly or transitively, from
// name.
func (r *Registry) Descendants(name Name) []Name {
	reached := map[Name]bool{name: true}
	var out []Name
	for _, k := range r.kinds {
		for _, base := range k.Bases {
			if reached[base] {
				reached[k.Name] = true
				out = append(out, k.Name)
				break
			}
		}
	}
	return out
}
