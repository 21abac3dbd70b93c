// organization_repository.go implements OrganizationRepository, providing database
// queries for organization lookup, membership resolution, and role scope lookup.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/schema-registry/console-backend/internal/db/models"
)

// OrganizationRepository handles database operations for organizations
type OrganizationRepository struct {
	db *sqlx.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *sqlx.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// GetByCleanID retrieves an organization by its URL-safe identifier
func (r *OrganizationRepository) GetByCleanID(ctx context.Context, cleanID string) (*models.Organization, error) {
	query := `
		SELECT id, clean_id, name, created_at, updated_at
		FROM organizations
		WHERE clean_id = $1
	`

	org := &models.Organization{}
	err := r.db.GetContext(ctx, org, query, cleanID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	query := `
		SELECT id, clean_id, name, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`

	org := &models.Organization{}
	err := r.db.GetContext(ctx, org, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

// Create creates a new organization
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (clean_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, org.CleanID, org.Name).Scan(
		&org.ID,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	return nil
}

// List retrieves organizations a user belongs to, oldest first
func (r *OrganizationRepository) ListForUser(ctx context.Context, userID string) ([]*models.Organization, error) {
	query := `
		SELECT o.id, o.clean_id, o.name, o.created_at, o.updated_at
		FROM organizations o
		INNER JOIN organization_members om ON o.id = om.organization_id
		WHERE om.user_id = $1
		ORDER BY o.created_at ASC
	`

	orgs := make([]*models.Organization, 0)
	if err := r.db.SelectContext(ctx, &orgs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	return orgs, nil
}

// === Membership Operations ===

// AddMember adds a user to an organization with the specified role template
func (r *OrganizationRepository) AddMember(ctx context.Context, orgID, userID string, roleTemplateID *string) error {
	query := `
		INSERT INTO organization_members (organization_id, user_id, role_template_id, created_at)
		VALUES ($1, $2, $3, NOW())
	`

	_, err := r.db.ExecContext(ctx, query, orgID, userID, roleTemplateID)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

// GetMember retrieves a user's membership in an organization
func (r *OrganizationRepository) GetMember(ctx context.Context, orgID, userID string) (*models.OrganizationMember, error) {
	query := `
		SELECT organization_id, user_id, role_template_id, created_at
		FROM organization_members
		WHERE organization_id = $1 AND user_id = $2
	`

	member := &models.OrganizationMember{}
	err := r.db.GetContext(ctx, member, query, orgID, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// GetMemberWithRole retrieves a user's membership with its role template resolved,
// including the scope set the access gate evaluates. Returns nil when the user is
// not a member of the organization.
func (r *OrganizationRepository) GetMemberWithRole(ctx context.Context, orgID, userID string) (*models.OrganizationMemberWithRole, error) {
	query := `
		SELECT om.organization_id, om.user_id, om.role_template_id, om.created_at,
		       COALESCE(u.name, '') as user_name, COALESCE(u.email, '') as user_email,
		       rt.name as role_template_name, rt.display_name as role_template_display_name,
		       COALESCE(rt.scopes, '[]'::jsonb) as role_template_scopes
		FROM organization_members om
		LEFT JOIN users u ON om.user_id = u.id
		LEFT JOIN role_templates rt ON om.role_template_id = rt.id
		WHERE om.organization_id = $1 AND om.user_id = $2
	`

	member := &models.OrganizationMemberWithRole{}
	var scopesJSON []byte
	err := r.db.QueryRowContext(ctx, query, orgID, userID).Scan(
		&member.OrganizationID,
		&member.UserID,
		&member.RoleTemplateID,
		&member.CreatedAt,
		&member.UserName,
		&member.UserEmail,
		&member.RoleTemplateName,
		&member.RoleTemplateDisplayName,
		&scopesJSON,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	if len(scopesJSON) > 0 {
		if err := json.Unmarshal(scopesJSON, &member.RoleTemplateScopes); err != nil {
			return nil, fmt.Errorf("failed to parse scopes: %w", err)
		}
	}

	return member, nil
}

// GetRoleTemplateByName retrieves a role template by its name
func (r *OrganizationRepository) GetRoleTemplateByName(ctx context.Context, name string) (*models.RoleTemplate, error) {
	query := `
		SELECT id, name, display_name, COALESCE(scopes, '[]'::jsonb) as scopes, created_at
		FROM role_templates
		WHERE name = $1
	`

	tpl := &models.RoleTemplate{}
	var scopesJSON []byte
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&tpl.ID,
		&tpl.Name,
		&tpl.DisplayName,
		&scopesJSON,
		&tpl.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role template: %w", err)
	}

	if len(scopesJSON) > 0 {
		if err := json.Unmarshal(scopesJSON, &tpl.Scopes); err != nil {
			return nil, fmt.Errorf("failed to parse scopes: %w", err)
		}
	}

	return tpl, nil
}
