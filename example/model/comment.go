package model

import "time"

// Comment can be attached to any registered model via its generic
// subject columns.
type Comment struct {
	ID          int    `db:"id,primaryKey"`
	Body        string `db:"body"`
	SubjectType string `db:"subject_type"`
	SubjectID   int64  `db:"subject_id"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Subject any `db:"-" rel:"generic"`
}
