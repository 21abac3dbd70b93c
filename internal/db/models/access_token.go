package models

import "time"

// AccessToken is a long-lived credential for CLI access to the console API.
// Only the bcrypt hash and a short plaintext lookup prefix are stored.
type AccessToken struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"userId"`
	OrganizationID *string    `db:"organization_id" json:"organizationId"`
	Name           string     `db:"name" json:"name"`
	TokenPrefix    string     `db:"token_prefix" json:"tokenPrefix"`
	TokenHash      string     `db:"token_hash" json:"-"`
	Scopes         []string   `db:"-" json:"scopes"`
	ExpiresAt      *time.Time `db:"expires_at" json:"expiresAt"`
	LastUsedAt     *time.Time `db:"last_used_at" json:"lastUsedAt"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}
