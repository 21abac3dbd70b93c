package models

import "time"

// User represents a console user account, provisioned on first SSO login
type User struct {
	ID         string    `db:"id" json:"id"`
	ExternalID *string   `db:"external_id" json:"externalId"` // OIDC subject claim
	Email      string    `db:"email" json:"email"`
	Name       string    `db:"name" json:"name"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}
