package models

import "time"

// Project types distinguish how schemas in the project compose.
const (
	ProjectTypeSingle     = "single"
	ProjectTypeFederation = "federation"
	ProjectTypeStitching  = "stitching"
)

// Project represents a schema project within an organization
type Project struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organizationId"`
	CleanID        string    `db:"clean_id" json:"cleanId"` // URL-safe identifier, unique within the organization
	Name           string    `db:"name" json:"name"`
	Type           string    `db:"type" json:"type"` // one of the ProjectType* constants
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}
