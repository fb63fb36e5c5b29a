package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrNamespaceExists = errors.New("registry: namespace already exists")

// Namespaces is a set of isolated registries, keyed by namespace name. Two
// namespaces never see each other's types; each sees its parent's, if any.
type Namespaces struct {
	mu     sync.RWMutex
	parent Resolver
	spaces map[string]*TypeRegistry
}

// NewNamespaces creates an empty set. Every namespace created in it inherits
// from parent, which may be nil for fully isolated namespaces.
func NewNamespaces(parent Resolver) *Namespaces {
	return &Namespaces{
		parent: parent,
		spaces: make(map[string]*TypeRegistry),
	}
}

// Create adds a new namespace.
func (n *Namespaces) Create(name string) (*TypeRegistry, error) {
	if name == "" {
		return nil, fmt.Errorf("registry: namespace name must not be empty")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.spaces[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrNamespaceExists, name)
	}
	r := NewChild(n.parent)
	r.name = name
	n.spaces[name] = r
	return r, nil
}

// Get returns the namespace called name.
func (n *Namespaces) Get(name string) (*TypeRegistry, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	r, ok := n.spaces[name]
	return r, ok
}

// GetOrCreate returns the namespace called name, creating it if needed.
func (n *Namespaces) GetOrCreate(name string) (*TypeRegistry, error) {
	if r, ok := n.Get(name); ok {
		return r, nil
	}
	r, err := n.Create(name)
	if errors.Is(err, ErrNamespaceExists) {
		// lost a race with another creator
		r, _ = n.Get(name)
		return r, nil
	}
	return r, err
}

// Remove drops the namespace called name, for example when a plugin unloads.
func (n *Namespaces) Remove(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.spaces[name]
	delete(n.spaces, name)
	return ok
}

// Names returns the namespace names, sorted.
func (n *Namespaces) Names() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	names := make([]string, 0, len(n.spaces))
	for name := range n.spaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
