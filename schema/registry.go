package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/jinzhu/inflection"
)

// ErrNotRegistered is returned when metadata is requested for a model
// that was never registered.
var ErrNotRegistered = errors.New("schema: model not registered")

// ReverseRelation is a relation accessor contributed to a model by
// another model that declares a relation pointing at it.
type ReverseRelation struct {
	Name   string  // accessor name on this model's side, e.g. "Posts"
	Source string  // the declaring model, e.g. "Post"
	Field  string  // the declaring field on the source, e.g. "Author"
	Kind   RelKind // relation kind as declared on the source
	Many   bool    // multiple-cardinality from this model's side
}

// Registry holds the schemas of all registered models and the indexes
// derived from them. It is the metadata table the inspector and the
// ORM managers read; models must be registered before either can see
// them.
type Registry struct {
	mu       sync.RWMutex
	byType   map[reflect.Type]*Schema
	byName   map[string]*Schema
	reverse  map[string][]ReverseRelation // target model name -> contributed accessors
	generics bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithGenericRelations enables the generic (polymorphic) foreign-key
// section of the registry. Without it, `rel:"generic"` declarations are
// not surfaced and GenericRelations reports the capability as absent.
func WithGenericRelations() Option {
	return func(r *Registry) { r.generics = true }
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byType:  make(map[reflect.Type]*Schema),
		byName:  make(map[string]*Schema),
		reverse: make(map[string][]ReverseRelation),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register builds and stores the schema for each given model (a struct
// value, pointer, or reflect.Type) and indexes the reverse relations it
// contributes to other models. Registering the same type again replaces
// its schema but not previously contributed reverse entries, so models
// should be registered once, at startup.
func (r *Registry) Register(models ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, model := range models {
		t, err := TypeOf(model)
		if err != nil {
			return err
		}
		s, err := build(t)
		if err != nil {
			return err
		}
		r.byType[t] = s
		r.byName[s.Name] = s

		for _, rel := range s.Relations {
			r.reverse[rel.Target] = append(r.reverse[rel.Target], reverseOf(s.Name, rel))
		}
	}
	return nil
}

// reverseOf derives the accessor a declared relation contributes to its
// target. The cardinality mirrors the declaring kind: a belongs_to
// foreign key is traversed back as a collection, a has_one or has_many
// is traversed back as the single owning row, and many_to_many is many
// from both sides.
func reverseOf(source string, rel Relation) ReverseRelation {
	rev := ReverseRelation{
		Source: source,
		Field:  rel.Name,
		Kind:   rel.Kind,
	}
	switch rel.Kind {
	case BelongsTo, ManyToMany:
		rev.Name = inflection.Plural(source)
		rev.Many = true
	default: // has_one, has_many
		rev.Name = source
		rev.Many = false
	}
	return rev
}

// Schema returns the metadata descriptor for the given model.
func (r *Registry) Schema(model any) (*Schema, error) {
	t, err := TypeOf(model)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byType[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, t)
	}
	return s, nil
}

// SchemaByName returns the metadata descriptor for the model with the
// given struct name.
func (r *Registry) SchemaByName(name string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	return s, nil
}

// ReverseRelations returns the reverse accessors other registered
// models contribute to the given model. Accessors shadowed by a member
// the model declares itself are dropped.
func (r *Registry) ReverseRelations(model any) ([]ReverseRelation, error) {
	s, err := r.Schema(model)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var revs []ReverseRelation
	for _, rev := range r.reverse[s.Name] {
		if s.Declares(rev.Name) {
			continue
		}
		revs = append(revs, rev)
	}
	return revs, nil
}

// GenericRelations returns the generic foreign keys declared by the
// given model. The second return value reports whether the registry
// carries the generic-relation capability at all; when it is false the
// slice is always empty and callers must treat the feature as absent,
// not as an error.
func (r *Registry) GenericRelations(model any) ([]GenericRelation, bool) {
	r.mu.RLock()
	generics := r.generics
	r.mu.RUnlock()
	if !generics {
		return nil, false
	}
	s, err := r.Schema(model)
	if err != nil {
		return nil, true
	}
	return s.Generics, true
}

// Reset clears all registered schemas and indexes (used for testing).
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType = make(map[reflect.Type]*Schema)
	r.byName = make(map[string]*Schema)
	r.reverse = make(map[string][]ReverseRelation)
}

// defaultRegistry backs the package-level helpers. The generic-relation
// capability is enabled by default; construct a dedicated Registry to
// opt out.
var defaultRegistry = NewRegistry(WithGenericRelations())

// Default returns the package-level registry.
func Default() *Registry { return defaultRegistry }

// Register registers models in the package-level registry.
func Register(models ...any) error { return defaultRegistry.Register(models...) }
