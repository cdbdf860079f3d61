package model

import "time"

type Author struct {
	ID        int    `db:"id,primaryKey"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Articles []Article `db:"-" rel:"has_many,foreign_key:author_id"`
}

// ContactLine renders the author in "Name <email>" form.
func (a Author) ContactLine() string {
	return a.Name + " <" + a.Email + ">"
}
