package models

import "time"

// RoleTemplate is a named, reusable scope set assigned to organization members.
// Scopes are checked at request time rather than baked into session tokens, so
// a role change takes effect on the member's next request.
type RoleTemplate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Scopes      []string  `json:"scopes"`
	CreatedAt   time.Time `json:"createdAt"`
}
