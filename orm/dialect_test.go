package orm_test

import (
	"testing"

	"github.com/mickamy/modelinspect/orm"
)

func TestMySQLPlaceholder(t *testing.T) {
	t.Parallel()

	for _, index := range []int{1, 2, 10} {
		if got := orm.MySQL.Placeholder(index); got != "?" {
			t.Errorf("Placeholder(%d) = %q, want %q", index, got, "?")
		}
	}
}

func TestMySQLQuoteIdent(t *testing.T) {
	t.Parallel()

	if got := orm.MySQL.QuoteIdent("users"); got != "`users`" {
		t.Errorf("QuoteIdent = %q, want %q", got, "`users`")
	}
}

func TestMySQLUseReturning(t *testing.T) {
	t.Parallel()

	if orm.MySQL.UseReturning() {
		t.Error("MySQL.UseReturning() = true, want false")
	}
}

func TestPostgreSQLPlaceholder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		index int
		want  string
	}{
		{1, "$1"},
		{2, "$2"},
		{10, "$10"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := orm.PostgreSQL.Placeholder(tt.index); got != tt.want {
				t.Errorf("Placeholder(%d) = %q, want %q", tt.index, got, tt.want)
			}
		})
	}
}

func TestPostgreSQLUseReturning(t *testing.T) {
	t.Parallel()

	if !orm.PostgreSQL.UseReturning() {
		t.Error("PostgreSQL.UseReturning() = false, want true")
	}
}

func TestPostgreSQLReturningClause(t *testing.T) {
	t.Parallel()

	if got := orm.PostgreSQL.ReturningClause("id"); got != ` RETURNING "id"` {
		t.Errorf("ReturningClause(\"id\") = %q", got)
	}
}

func TestSQLitePlaceholder(t *testing.T) {
	t.Parallel()

	for _, index := range []int{1, 2, 10} {
		if got := orm.SQLite.Placeholder(index); got != "?" {
			t.Errorf("Placeholder(%d) = %q, want %q", index, got, "?")
		}
	}
}

func TestSQLiteQuoteIdent(t *testing.T) {
	t.Parallel()

	if got := orm.SQLite.QuoteIdent("users"); got != `"users"` {
		t.Errorf("QuoteIdent = %q, want %q", got, `"users"`)
	}
}

func TestSQLiteUseReturning(t *testing.T) {
	t.Parallel()

	if orm.SQLite.UseReturning() {
		t.Error("SQLite.UseReturning() = true, want false")
	}
}
