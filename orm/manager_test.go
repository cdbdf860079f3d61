package orm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mickamy/modelinspect/orm"
	"github.com/mickamy/modelinspect/schema"
)

type account struct {
	ID        int
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Labels    []label `db:"-" rel:"many_to_many,join_table:account_labels,foreign_key:account_id,references:label_id"`
}

type label struct {
	ID   int
	Name string
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

func newManagerRegistry(t *testing.T) *schema.Registry {
	t.Helper()

	reg := schema.NewRegistry()
	if err := reg.Register(&account{}, &label{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return reg
}

func TestNewManagerUnregistered(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.SQLite)
	_, err := orm.NewManager[label](tq, schema.NewRegistry())
	if !errors.Is(err, schema.ErrNotRegistered) {
		t.Fatalf("err = %v, want ErrNotRegistered", err)
	}
}

func TestManagerManagedTable(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.SQLite)
	m, err := orm.NewManager[account](tq, newManagerRegistry(t))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if got := m.ManagedTable(); got != "accounts" {
		t.Errorf("ManagedTable() = %q, want %q", got, "accounts")
	}
}

func TestManagerAll(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.SQLite)
	m, err := orm.NewManager[account](tq, newManagerRegistry(t))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	_, _ = m.All(context.Background())

	got := tq.LastQuery()
	want := `SELECT "id", "name", "email", "created_at", "updated_at" FROM "accounts"`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

func TestManagerFind(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.SQLite)
	m, err := orm.NewManager[account](tq, newManagerRegistry(t))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	_, _ = m.Find(context.Background(), 7)

	got := tq.LastQuery()
	want := `SELECT "id", "name", "email", "created_at", "updated_at" FROM "accounts" WHERE id = ? LIMIT 1`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if len(got.Args) != 1 || got.Args[0] != 7 {
		t.Errorf("Args = %v", got.Args)
	}
}

func TestManagerCreateSetsTimestampsAndPK(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.SQLite)
	m, err := orm.NewManager[account](tq, newManagerRegistry(t))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	ctx := orm.WithClock(context.Background(), fixedClock{t: now})

	a := account{Name: "alice", Email: "alice@example.com"}
	if err := m.Create(ctx, &a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got := tq.LastQuery()
	want := `INSERT INTO "accounts" ("name", "email", "created_at", "updated_at") VALUES (?, ?, ?, ?)`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if !a.CreatedAt.Equal(now) || !a.UpdatedAt.Equal(now) {
		t.Errorf("timestamps = %v / %v, want %v", a.CreatedAt, a.UpdatedAt, now)
	}
	if a.ID != 1 {
		t.Errorf("ID = %d, want 1 (from LastInsertId)", a.ID)
	}
}

func TestManagerUpdateRefreshesUpdatedAt(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.SQLite)
	m, err := orm.NewManager[account](tq, newManagerRegistry(t))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	ctx := orm.WithClock(context.Background(), fixedClock{t: now})

	a := account{ID: 3, Name: "bob", CreatedAt: created, UpdatedAt: created}
	if err := m.Update(ctx, &a); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got := tq.LastQuery()
	want := `UPDATE "accounts" SET "name" = ?, "email" = ?, "created_at" = ?, "updated_at" = ? WHERE "id" = ?`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if !a.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed on update: %v", a.CreatedAt)
	}
	if !a.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", a.UpdatedAt, now)
	}
}

func TestManagerDelete(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.SQLite)
	m, err := orm.NewManager[account](tq, newManagerRegistry(t))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if err := m.Delete(context.Background(), 3); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got := tq.LastQuery()
	want := `DELETE FROM "accounts" WHERE id = ?`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

func TestManagerRelatedIDs(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.SQLite)
	m, err := orm.NewManager[account](tq, newManagerRegistry(t))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	// The mock Querier cannot return rows; only the generated SQL is
	// asserted here.
	_, _ = m.RelatedIDs(context.Background(), "Labels", []int64{1, 2})

	got := tq.LastQuery()
	want := `SELECT "account_id", "label_id" FROM "account_labels" WHERE "account_id" IN (?, ?)`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

func TestManagerRelatedIDsUnknownRelation(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.SQLite)
	m, err := orm.NewManager[account](tq, newManagerRegistry(t))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := m.RelatedIDs(context.Background(), "Friends", []int64{1}); err == nil {
		t.Fatal("expected error for unknown relation, got nil")
	}
}
