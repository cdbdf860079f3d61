package model

import (
	"strings"
	"time"

	"github.com/mickamy/modelinspect/schema"
)

type Article struct {
	ID        int    `db:"id,primaryKey"`
	Title     string `db:"title"`
	Body      string `db:"body"`
	AuthorID  int    `db:"author_id"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Author *Author `db:"-" rel:"belongs_to,foreign_key:author_id"`
	Tags   []Tag   `db:"-" rel:"many_to_many,join_table:article_tags,references:tag_id"`

	// Draft is held in memory only; it has no column.
	Draft string `db:"-"`
}

// Summary returns the first 80 characters of the body.
func (a Article) Summary() string {
	if len(a.Body) <= 80 {
		return a.Body
	}
	return a.Body[:80] + "..."
}

func (a *Article) ModelProperties() []schema.Property {
	return []schema.Property{
		{Name: "WordCount", Get: func(model any) any {
			return len(strings.Fields(model.(*Article).Body))
		}},
	}
}
