// Package schema builds metadata for model structs at registration time.
// The metadata describes everything the ORM and the inspector need to
// know about a model: its table, its column-backed fields, its declared
// relations, optional generic (polymorphic) foreign keys, and computed
// properties.
package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/mickamy/modelinspect/internal/naming"
)

// RelKind identifies the kind of a declared relation.
type RelKind string

const (
	BelongsTo  RelKind = "belongs_to"
	HasOne     RelKind = "has_one"
	HasMany    RelKind = "has_many"
	ManyToMany RelKind = "many_to_many"
)

// Many reports whether the relation holds multiple rows from the
// declaring side.
func (k RelKind) Many() bool {
	return k == HasMany || k == ManyToMany
}

// Field holds metadata for one column-backed struct field.
type Field struct {
	Name       string       // Go field name, e.g. "ID"
	Column     string       // DB column name from `db:"id"` tag
	Type       reflect.Type // Go type of the field
	Index      []int        // struct field index for reflect access
	PrimaryKey bool         // true if tag contains "primaryKey" (or name is "ID")
	CreatedAt  bool         // auto-set on insert
	UpdatedAt  bool         // auto-set on insert and update
}

// Relation holds metadata for one declared relation field.
type Relation struct {
	Name       string  // Go field name, e.g. "Author"
	Kind       RelKind // belongs_to, has_one, has_many, or many_to_many
	Target     string  // target model name, e.g. "Author"
	ForeignKey string  // FK column; for many_to_many, the source column in the join table
	JoinTable  string  // many_to_many only
	References string  // many_to_many only: target column in the join table
}

// GenericRelation holds metadata for a generic (polymorphic) foreign
// key: a relation that may point at any registered model, keyed by a
// type-discriminator column plus a raw identifier column.
type GenericRelation struct {
	Name       string // Go field name, e.g. "Subject"
	TypeColumn string // e.g. "subject_type"
	IDColumn   string // e.g. "subject_id"
}

// Schema is the metadata descriptor for one registered model type.
type Schema struct {
	Name       string       // struct name, e.g. "Article"
	Type       reflect.Type // the struct type itself
	Table      string       // table name (TableNamer override or derived)
	Fields     []Field      // column-backed fields
	Relations  []Relation   // relations declared on this struct
	Generics   []GenericRelation
	Properties []Property // computed properties declared by the type

	declared map[string]struct{} // all declared member (field) names
}

// PrimaryKey returns the primary key field, or an error if none or
// multiple are defined.
func (s *Schema) PrimaryKey() (*Field, error) {
	var pk *Field
	for i := range s.Fields {
		if s.Fields[i].PrimaryKey {
			if pk != nil {
				return nil, fmt.Errorf("schema: multiple primary keys on %s: %s and %s", s.Name, pk.Name, s.Fields[i].Name)
			}
			pk = &s.Fields[i]
		}
	}
	if pk == nil {
		return nil, fmt.Errorf("schema: no primary key defined for %s", s.Name)
	}
	return pk, nil
}

// Columns returns the column names of all column-backed fields, in
// declaration order.
func (s *Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Relation returns the declared relation with the given Go field name.
func (s *Schema) Relation(name string) (*Relation, bool) {
	for i := range s.Relations {
		if s.Relations[i].Name == name {
			return &s.Relations[i], true
		}
	}
	return nil, false
}

// Declares reports whether the struct declares a member with the given
// Go field name. Reverse accessors shadowed by declared members are
// dropped during reverse-relation resolution.
func (s *Schema) Declares(name string) bool {
	_, ok := s.declared[name]
	return ok
}

// TableNamer can be implemented by model structs to override the
// auto-derived table name.
type TableNamer interface {
	TableName() string
}

// build constructs a Schema for the given struct type. Generic
// declarations are always collected; whether they are exposed is the
// registry's concern.
func build(t reflect.Type) (*Schema, error) {
	s := &Schema{
		Name:     t.Name(),
		Type:     t,
		Table:    tableNameOf(t),
		declared: make(map[string]struct{}),
	}

	for _, sf := range reflect.VisibleFields(t) {
		if sf.Anonymous || !sf.IsExported() {
			continue
		}
		s.declared[sf.Name] = struct{}{}

		if relTag, ok := sf.Tag.Lookup("rel"); ok {
			if err := s.addRelation(sf, relTag); err != nil {
				return nil, err
			}
			continue
		}

		f, skip := parseField(sf)
		if skip {
			continue
		}
		s.Fields = append(s.Fields, f)
	}

	s.Properties = propertiesOf(t)
	return s, nil
}

// parseField extracts column metadata from a struct field, following
// the db tag grammar: `db:"column[,primaryKey][,createdAt][,updatedAt]"`.
func parseField(sf reflect.StructField) (Field, bool) {
	// Defaults: column inferred from field name, ID field is primary key,
	// CreatedAt/UpdatedAt are timestamp columns by convention.
	f := Field{
		Name:       sf.Name,
		Column:     naming.CamelToSnake(sf.Name),
		Type:       sf.Type,
		Index:      sf.Index,
		PrimaryKey: sf.Name == "ID",
		CreatedAt:  sf.Name == "CreatedAt",
		UpdatedAt:  sf.Name == "UpdatedAt",
	}

	dbTag, ok := sf.Tag.Lookup("db")
	if !ok {
		return f, false
	}
	if dbTag == "-" {
		return Field{}, true // explicitly skipped
	}

	parts := strings.Split(dbTag, ",")
	if parts[0] != "" {
		f.Column = parts[0]
	}
	for _, opt := range parts[1:] {
		switch opt {
		case "primaryKey":
			f.PrimaryKey = true
		case "createdAt":
			f.CreatedAt = true
		case "updatedAt":
			f.UpdatedAt = true
		}
	}
	return f, false
}

// addRelation parses a rel tag and appends the resulting Relation or
// GenericRelation to the schema.
func (s *Schema) addRelation(sf reflect.StructField, tag string) error {
	parts := strings.Split(tag, ",")
	kind := parts[0]
	opts := make(map[string]string, len(parts)-1)
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(p, ":")
		if !ok {
			return fmt.Errorf("schema: %s.%s: malformed rel option %q", s.Name, sf.Name, p)
		}
		opts[k] = v
	}

	if kind == "generic" {
		base := naming.CamelToSnake(sf.Name)
		g := GenericRelation{
			Name:       sf.Name,
			TypeColumn: base + "_type",
			IDColumn:   base + "_id",
		}
		if v, ok := opts["type_column"]; ok {
			g.TypeColumn = v
		}
		if v, ok := opts["id_column"]; ok {
			g.IDColumn = v
		}
		s.Generics = append(s.Generics, g)
		return nil
	}

	target, err := relationTarget(sf.Type)
	if err != nil {
		return fmt.Errorf("schema: %s.%s: %w", s.Name, sf.Name, err)
	}

	rel := Relation{
		Name:   sf.Name,
		Kind:   RelKind(kind),
		Target: target,
	}
	switch rel.Kind {
	case BelongsTo:
		rel.ForeignKey = naming.CamelToSnake(target) + "_id"
	case HasOne, HasMany:
		rel.ForeignKey = naming.CamelToSnake(s.Name) + "_id"
	case ManyToMany:
		rel.ForeignKey = naming.CamelToSnake(s.Name) + "_id"
		rel.JoinTable = naming.CamelToSnake(s.Name) + "_" + inflection.Plural(naming.CamelToSnake(target))
		rel.References = naming.CamelToSnake(target) + "_id"
	default:
		return fmt.Errorf("schema: %s.%s: unknown relation kind %q", s.Name, sf.Name, kind)
	}
	if v, ok := opts["foreign_key"]; ok {
		rel.ForeignKey = v
	}
	if v, ok := opts["join_table"]; ok {
		rel.JoinTable = v
	}
	if v, ok := opts["references"]; ok {
		rel.References = v
	}

	s.Relations = append(s.Relations, rel)
	return nil
}

// relationTarget resolves the target model name from the relation
// field's type: *T, T, or []T.
func relationTarget(t reflect.Type) (string, error) {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return "", fmt.Errorf("relation target must be a struct type, got %s", t.Kind())
	}
	return t.Name(), nil
}

// tableNameOf returns the table name for a model type. If the type
// implements TableNamer (value or pointer receiver), that name is used;
// otherwise the name is the pluralized snake case of the struct name.
func tableNameOf(t reflect.Type) string {
	if tn, ok := reflect.New(t).Interface().(TableNamer); ok {
		return tn.TableName()
	}
	return inflection.Plural(naming.CamelToSnake(t.Name()))
}

// TypeOf resolves a model reference (a struct value, a pointer to one,
// or a reflect.Type) to its struct type.
func TypeOf(model any) (reflect.Type, error) {
	if model == nil {
		return nil, fmt.Errorf("schema: model is nil")
	}
	t, ok := model.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(model)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: model must be a struct, got %s", t.Kind())
	}
	return t, nil
}
