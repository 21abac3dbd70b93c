package models

import "time"

// OrganizationMember links a user to an organization with a role template
type OrganizationMember struct {
	OrganizationID string    `db:"organization_id" json:"organizationId"`
	UserID         string    `db:"user_id" json:"userId"`
	RoleTemplateID *string   `db:"role_template_id" json:"roleTemplateId"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// OrganizationMemberWithRole is a membership joined with its role template,
// carrying the resolved scope set the access gate evaluates.
type OrganizationMemberWithRole struct {
	OrganizationID          string    `json:"organizationId"`
	UserID                  string    `json:"userId"`
	RoleTemplateID          *string   `json:"roleTemplateId"`
	CreatedAt               time.Time `json:"createdAt"`
	UserName                string    `json:"userName"`
	UserEmail               string    `json:"userEmail"`
	RoleTemplateName        *string   `json:"roleTemplateName"`
	RoleTemplateDisplayName *string   `json:"roleTemplateDisplayName"`
	RoleTemplateScopes      []string  `json:"roleTemplateScopes"`
}
