package orm

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"time"

	"github.com/mickamy/modelinspect/schema"
)

// ModelManager identifies manager values independently of their type
// parameter. Member scans (notably the inspector's attribute pass) use
// it to recognize and skip manager-valued members.
type ModelManager interface {
	// ManagedTable returns the table the manager queries.
	ManagedTable() string
}

// Manager is the query entry point bound to one registered model type.
// The row-mapping functions a Query needs are derived from the model's
// schema by reflection at construction time, so no generated code is
// involved.
type Manager[T any] struct {
	db       Querier
	sch      *schema.Schema
	pk       schema.Field
	columns  []string
	colIndex map[string][]int // column name -> struct field index
	autoPK   bool
}

var _ ModelManager = (*Manager[struct{}])(nil)

// NewManager builds a Manager for T from its registered schema.
// T must have been registered in reg beforehand.
func NewManager[T any](db Querier, reg *schema.Registry) (*Manager[T], error) {
	sch, err := reg.Schema((*T)(nil))
	if err != nil {
		return nil, err
	}
	pk, err := sch.PrimaryKey()
	if err != nil {
		return nil, err
	}

	m := &Manager[T]{
		db:       db,
		sch:      sch,
		pk:       *pk,
		columns:  sch.Columns(),
		colIndex: make(map[string][]int, len(sch.Fields)),
		autoPK:   isIntKind(pk.Type.Kind()),
	}
	for _, f := range sch.Fields {
		m.colIndex[f.Column] = f.Index
	}
	return m, nil
}

// ManagedTable returns the table the manager queries.
func (m *Manager[T]) ManagedTable() string { return m.sch.Table }

// Schema returns the schema the manager was built from.
func (m *Manager[T]) Schema() *schema.Schema { return m.sch }

// Query returns a fresh Query for the managed table.
func (m *Manager[T]) Query() *Query[T] {
	var setPK SetPKFunc[T]
	if m.autoPK {
		setPK = m.setPK
	}
	return NewQuery[T](m.db, m.sch.Table, m.columns, m.pk.Column, m.scan, m.columnValues, setPK)
}

// All returns every row of the managed table.
func (m *Manager[T]) All(ctx context.Context) ([]T, error) {
	return m.Query().All(ctx)
}

// Find returns the row with the given primary key.
// Returns ErrNotFound if no such row exists.
func (m *Manager[T]) Find(ctx context.Context, id any) (T, error) {
	return m.Query().Where(m.pk.Column+" = ?", id).First(ctx)
}

// Count returns the number of rows in the managed table.
func (m *Manager[T]) Count(ctx context.Context) (int64, error) {
	return m.Query().Count(ctx)
}

// Create inserts t. Zero createdAt/updatedAt columns are set from the
// context Clock first; an auto-increment primary key is populated on t
// after the insert.
func (m *Manager[T]) Create(ctx context.Context, t *T) error {
	m.touchTimestamps(ctx, t, false)
	return m.Query().Create(ctx, t)
}

// Update updates the row identified by t's primary key, refreshing
// updatedAt columns from the context Clock.
func (m *Manager[T]) Update(ctx context.Context, t *T) error {
	m.touchTimestamps(ctx, t, true)
	return m.Query().Update(ctx, t)
}

// Delete deletes the row with the given primary key.
func (m *Manager[T]) Delete(ctx context.Context, id any) error {
	return m.Query().Where(m.pk.Column+" = ?", id).Delete(ctx)
}

// RelatedIDs traverses the named many_to_many relation and returns the
// related ids grouped by source id.
func (m *Manager[T]) RelatedIDs(ctx context.Context, relation string, sourceIDs []int64) (map[int64][]int64, error) {
	rel, ok := m.sch.Relation(relation)
	if !ok {
		return nil, fmt.Errorf("orm: %s has no relation %q", m.sch.Name, relation)
	}
	if rel.Kind != schema.ManyToMany {
		return nil, fmt.Errorf("orm: relation %s.%s is %s, not %s", m.sch.Name, relation, rel.Kind, schema.ManyToMany)
	}
	pairs, err := QueryJoinTable[int64, int64](ctx, m.db, rel.JoinTable, rel.ForeignKey, rel.References, sourceIDs)
	if err != nil {
		return nil, err
	}
	return GroupBySource(pairs), nil
}

// --- schema-derived row mapping ---

// scan maps one row onto a fresh T, matching result columns to struct
// fields by column name. Unknown columns are discarded.
func (m *Manager[T]) scan(rows *sql.Rows) (T, error) {
	var v T
	cols, err := rows.Columns()
	if err != nil {
		return v, err //nolint:wrapcheck // pass through
	}
	rv := reflect.ValueOf(&v).Elem()
	dest := make([]any, len(cols))
	for i, col := range cols {
		if idx, ok := m.colIndex[col]; ok {
			dest[i] = rv.FieldByIndex(idx).Addr().Interface()
		} else {
			dest[i] = new(any)
		}
	}
	err = rows.Scan(dest...)
	return v, err //nolint:wrapcheck // pass through
}

// columnValues extracts column names and values from t in schema order.
func (m *Manager[T]) columnValues(t *T, includesPK bool) ([]string, []any) {
	rv := reflect.ValueOf(t).Elem()
	columns := make([]string, 0, len(m.sch.Fields))
	values := make([]any, 0, len(m.sch.Fields))
	for _, f := range m.sch.Fields {
		if f.PrimaryKey && !includesPK {
			continue
		}
		columns = append(columns, f.Column)
		values = append(values, rv.FieldByIndex(f.Index).Interface())
	}
	return columns, values
}

// setPK writes an auto-generated primary key back onto t.
func (m *Manager[T]) setPK(t *T, id int64) {
	f := reflect.ValueOf(t).Elem().FieldByIndex(m.pk.Index)
	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f.SetInt(id)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f.SetUint(uint64(id))
	}
}

// touchTimestamps sets createdAt/updatedAt columns from the context
// Clock. On insert, only zero values are filled; on update, updatedAt
// is always refreshed.
func (m *Manager[T]) touchTimestamps(ctx context.Context, t *T, update bool) {
	ts := now(ctx)
	rv := reflect.ValueOf(t).Elem()
	for _, f := range m.sch.Fields {
		if !f.CreatedAt && !f.UpdatedAt {
			continue
		}
		fv := rv.FieldByIndex(f.Index)
		cur, ok := fv.Interface().(time.Time)
		if !ok {
			continue
		}
		if (f.UpdatedAt && update) || cur.IsZero() {
			fv.Set(reflect.ValueOf(ts))
		}
	}
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}
