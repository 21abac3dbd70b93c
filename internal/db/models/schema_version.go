package models

import "time"

// SchemaVersion is one published schema revision of a target. The version
// string is operator-supplied and ordered semantically, not lexically.
type SchemaVersion struct {
	ID           string    `db:"id" json:"id"`
	TargetID     string    `db:"target_id" json:"targetId"`
	Version      string    `db:"version" json:"version"`
	IsComposable bool      `db:"is_composable" json:"isComposable"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
