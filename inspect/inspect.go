// Package inspect classifies the exposed members of a registered model
// type into fields, relation fields, many-valued relation fields, plain
// attributes, zero-argument methods, and computed properties. Tooling
// such as admin generators, serializers, and documentation generators
// uses the classification to enumerate what a model offers without
// hand-maintained lists.
package inspect

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mickamy/modelinspect/orm"
	"github.com/mickamy/modelinspect/schema"
)

// LifecycleMethods is the fixed set of framework-provided method names
// excluded from method classification: persistence and validation hooks
// a model may implement for the ORM, plus the metadata interface
// methods every registered model may carry.
var LifecycleMethods = NewSet(
	"Check",
	"Clean",
	"CleanFields",
	"Delete",
	"FullClean",
	"Save",
	"SaveBase",
	"ValidateUnique",
	"TableName",
	"ModelProperties",
)

// notAttribute holds the predicates that disqualify a struct field from
// the plain-attribute category: values that are machinery rather than
// data.
var notAttribute = []func(reflect.Type) bool{
	func(t reflect.Type) bool { return t.Kind() == reflect.Func },
	func(t reflect.Type) bool { return t.Kind() == reflect.Chan },
	func(t reflect.Type) bool { return t.Kind() == reflect.UnsafePointer },
	isManager,
}

var managerType = reflect.TypeOf((*orm.ModelManager)(nil)).Elem()

// isManager reports whether a field holds a query manager.
func isManager(t reflect.Type) bool {
	return t.Implements(managerType) || reflect.PointerTo(t).Implements(managerType)
}

// Inspector holds the classified member names of one model type.
// All classification runs during New; an Inspector is a read-only view
// of the model's metadata at construction time and is never refreshed.
type Inspector struct {
	// Model is the resolved struct type being inspected.
	Model reflect.Type

	Fields         Set // column-backed scalar fields
	RelationFields Set // single-valued relations (belongs_to, has_one, reverse, generic FK)
	ManyFields     Set // multi-valued relations (has_many, many_to_many, reverse)
	Attributes     Set // plain data attributes that are not fields
	Methods        Set // zero-argument methods outside the lifecycle set
	Properties     Set // computed properties
	Items          Set // union of all of the above

	reg       *schema.Registry
	lifecycle Set
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithRegistry inspects against the given registry instead of the
// package-level default.
func WithRegistry(reg *schema.Registry) Option {
	return func(ins *Inspector) { ins.reg = reg }
}

// WithLifecycleMethods replaces the default lifecycle denylist.
func WithLifecycleMethods(names ...string) Option {
	return func(ins *Inspector) { ins.lifecycle = NewSet(names...) }
}

// New inspects a model and returns its classified members. The model
// may be a struct value, a pointer to one (an instance), or a
// reflect.Type (the model type itself); instances are resolved to
// their type before any classification runs. The model must be
// registered in the schema registry; metadata failures abort
// construction.
func New(model any, opts ...Option) (*Inspector, error) {
	ins := &Inspector{
		Fields:         NewSet(),
		RelationFields: NewSet(),
		ManyFields:     NewSet(),
		Attributes:     NewSet(),
		Methods:        NewSet(),
		Properties:     NewSet(),
		Items:          NewSet(),
		reg:            schema.Default(),
		lifecycle:      LifecycleMethods,
	}
	for _, opt := range opts {
		opt(ins)
	}

	sch, err := ins.reg.Schema(model)
	if err != nil {
		return nil, err
	}
	ins.Model = sch.Type

	if err := ins.updateFields(sch); err != nil {
		return nil, err
	}
	ins.updateAttributes(sch)
	ins.updateMethods()
	ins.updateProperties(sch)
	return ins, nil
}

// Of inspects the model type T.
func Of[T any](opts ...Option) (*Inspector, error) {
	return New(reflect.TypeOf((*T)(nil)), opts...)
}

// updateFields classifies the schema's field metadata.
//
// Three different kinds of fields:
//   - column-backed fields: scalar columns declared on this model
//   - relation fields: belongs_to and has_one (declared or reverse),
//     and generic foreign keys
//   - many fields: has_many and many_to_many (declared or reverse)
func (ins *Inspector) updateFields(sch *schema.Schema) error {
	for _, f := range sch.Fields {
		ins.addItem(f.Name, ins.Fields)
	}

	for _, rel := range sch.Relations {
		if rel.Kind.Many() {
			ins.addItem(rel.Name, ins.ManyFields)
		} else {
			ins.addItem(rel.Name, ins.RelationFields)
		}
	}

	// Reverse accessors contributed by other registered models.
	// Shadowed accessors were already dropped by the registry.
	revs, err := ins.reg.ReverseRelations(sch.Type)
	if err != nil {
		return err
	}
	for _, rev := range revs {
		if ins.Items.Contains(rev.Name) {
			continue
		}
		if rev.Many {
			ins.addItem(rev.Name, ins.ManyFields)
		} else {
			ins.addItem(rev.Name, ins.RelationFields)
		}
	}

	// Generic foreign keys, when the registry carries the capability.
	// Absence of the capability means zero such fields, not an error.
	if gens, ok := ins.reg.GenericRelations(sch.Type); ok {
		for _, g := range gens {
			ins.addItem(g.Name, ins.RelationFields)
		}
	}
	return nil
}

// updateAttributes classifies exported struct fields that are plain
// data: not already classified, not internal, not a manager, and not
// machinery (func-, chan-, or unsafe-pointer-typed). Generic FK fields
// stay out even when the registry lacks the capability; a relation
// declaration never degrades into a plain attribute.
func (ins *Inspector) updateAttributes(sch *schema.Schema) {
	for _, sf := range reflect.VisibleFields(ins.Model) {
		if sf.Anonymous || isInternal(sf.Name) {
			continue
		}
		if ins.Items.Contains(sf.Name) || declaresGeneric(sch, sf.Name) {
			continue
		}
		if ins.excludedFromAttributes(sf.Type) {
			continue
		}
		ins.addItem(sf.Name, ins.Attributes)
	}
}

func declaresGeneric(sch *schema.Schema, name string) bool {
	for _, g := range sch.Generics {
		if g.Name == name {
			return true
		}
	}
	return false
}

func (ins *Inspector) excludedFromAttributes(t reflect.Type) bool {
	for _, check := range notAttribute {
		if check(t) {
			return true
		}
	}
	return false
}

// updateMethods classifies exported methods callable with no arguments
// beyond the receiver, excluding lifecycle methods and names already
// classified. The pointer method set is used so that both value and
// pointer receivers are seen.
func (ins *Inspector) updateMethods() {
	pt := reflect.PointerTo(ins.Model)
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		if isInternal(m.Name) || ins.Items.Contains(m.Name) {
			continue
		}
		if ins.lifecycle.Contains(m.Name) {
			continue
		}
		if !zeroArg(m.Type) {
			continue
		}
		ins.addItem(m.Name, ins.Methods)
	}
}

// zeroArg reports whether a method (whose first input is the receiver)
// requires no further arguments. A single variadic parameter does not
// count as required.
func zeroArg(ft reflect.Type) bool {
	if ft.NumIn() == 1 {
		return true
	}
	return ft.NumIn() == 2 && ft.IsVariadic()
}

// updateProperties classifies the computed properties the model type
// declares. Resolution is class-level: the schema collected these from
// a zero value of the type, never from the inspected instance.
func (ins *Inspector) updateProperties(sch *schema.Schema) {
	for _, p := range sch.Properties {
		if isInternal(p.Name) || ins.Items.Contains(p.Name) {
			continue
		}
		ins.addItem(p.Name, ins.Properties)
	}
}

// addItem is the single write path into the category sets; it keeps
// Items in sync with every category.
func (ins *Inspector) addItem(name string, category Set) {
	category.add(name)
	ins.Items.add(name)
}

// isInternal reports whether a member name follows the internal naming
// convention: unexported, or explicitly underscore-prefixed.
func isInternal(name string) bool {
	if name == "" || strings.HasPrefix(name, "_") {
		return true
	}
	r, _ := utf8.DecodeRuneInString(name)
	return !unicode.IsUpper(r)
}
