package model

type Tag struct {
	ID   int    `db:"id,primaryKey"`
	Name string `db:"name"`
}
