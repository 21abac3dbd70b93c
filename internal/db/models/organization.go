// Package models - organization.go defines the Organization model representing a tenant
// namespace in the console with a URL-safe clean identifier and human-readable name.
package models

import "time"

// Organization represents an organization/tenant in the console
type Organization struct {
	ID        string    `db:"id" json:"id"`
	CleanID   string    `db:"clean_id" json:"cleanId"` // URL-safe identifier (used in route paths)
	Name      string    `db:"name" json:"name"`        // Human-readable display name
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
