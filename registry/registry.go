// Package registry maps wire-level type names to factories that rebuild
// concrete values from a JSON object.
//
// A TypeRegistry is a resolution context. The codec asks it to Resolve the
// string held in an object's "type" field; the factory it returns receives the
// object and a Scope. Scope.Decode rebuilds nested fields with the same
// resolver and decoder settings as the enclosing object:
//
//	reg := registry.New()
//	registry.Register(reg, "Point", func(obj *jsonvalue.Object, _ registry.Scope) (*Point, error) {
//		...
//	})
//
// Registries may have a parent. Names registered locally shadow the parent,
// anything else is delegated to it. Namespaces holds a set of isolated
// registries keyed by name, one per plugin or tenant.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"typecodec/jsonvalue"
)

var (
	ErrInvalidTypeName = errors.New("registry: type name must not be empty")
	ErrDuplicateType   = errors.New("registry: type already registered")
	ErrNilFactory      = errors.New("registry: factory must not be nil")
)

// Factory builds a value from the fields of obj. s is the scope the object was
// decoded in; nested fields go through s.Decode.
type Factory func(obj *jsonvalue.Object, s Scope) (any, error)

// Resolver looks a type name up to a Factory.
type Resolver interface {
	Resolve(typeName string) (Factory, bool)
}

// Scope is what a factory decodes nested values with. It resolves like the
// registry the enclosing object was found in and decodes with the settings of
// the decoder that called the factory.
type Scope interface {
	Resolver
	Decode(v jsonvalue.Value) any
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(typeName string) (Factory, bool)

func (f ResolverFunc) Resolve(typeName string) (Factory, bool) {
	return f(typeName)
}

// TypeRegistry is a concurrency-safe name to Factory table.
type TypeRegistry struct {
	mu        sync.RWMutex
	name      string
	factories map[string]Factory
	parent    Resolver
}

// New creates an empty registry with no parent.
func New() *TypeRegistry {
	return &TypeRegistry{factories: make(map[string]Factory)}
}

// NewChild creates an empty registry that falls back to parent for names it
// does not hold itself.
func NewChild(parent Resolver) *TypeRegistry {
	r := New()
	r.parent = parent
	return r
}

// Default is the ambient registry used when a caller supplies no resolution
// context.
var Default = New()

// Name returns the namespace name of r, empty for registries created outside
// a Namespaces set.
func (r *TypeRegistry) Name() string {
	if r == nil {
		return ""
	}
	return r.name
}

// Register adds factory under typeName.
func (r *TypeRegistry) Register(typeName string, factory Factory) error {
	if typeName == "" {
		return ErrInvalidTypeName
	}
	if factory == nil {
		return fmt.Errorf("%w: %s", ErrNilFactory, typeName)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[typeName]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateType, typeName)
	}
	r.factories[typeName] = factory
	return nil
}

// MustRegister is Register that panics on error. It is meant for package
// init functions, where a duplicate name is a programming error.
func (r *TypeRegistry) MustRegister(typeName string, factory Factory) {
	if err := r.Register(typeName, factory); err != nil {
		panic(err)
	}
}

// RegisterAll registers every entry of factories. All entries are attempted;
// the returned error combines every failure.
func (r *TypeRegistry) RegisterAll(factories map[string]Factory) error {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)

	var err error
	for _, name := range names {
		err = multierr.Append(err, r.Register(name, factories[name]))
	}
	return err
}

// Unregister removes typeName from r. It reports whether the name was present.
func (r *TypeRegistry) Unregister(typeName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.factories[typeName]
	delete(r.factories, typeName)
	return ok
}

// Resolve implements Resolver. A nil registry resolves nothing.
func (r *TypeRegistry) Resolve(typeName string) (Factory, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	f, ok := r.factories[typeName]
	r.mu.RUnlock()
	if ok {
		return f, true
	}
	if r.parent != nil {
		return r.parent.Resolve(typeName)
	}
	return nil, false
}

// Names returns the locally registered type names, sorted.
func (r *TypeRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds a typed factory to r. The factory's result is stored as any,
// so the codec reifies arrays of it as []T.
func Register[T any](r *TypeRegistry, typeName string, fn func(obj *jsonvalue.Object, s Scope) (T, error)) error {
	if fn == nil {
		return fmt.Errorf("%w: %s", ErrNilFactory, typeName)
	}
	return r.Register(typeName, func(obj *jsonvalue.Object, s Scope) (any, error) {
		return fn(obj, s)
	})
}
