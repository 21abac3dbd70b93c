// project_repository.go implements ProjectRepository, providing database queries
// for project lookup within an organization.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/schema-registry/console-backend/internal/db/models"
)

// ProjectRepository handles database operations for projects
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// GetByCleanID retrieves a project by its URL-safe identifier within an organization
func (r *ProjectRepository) GetByCleanID(ctx context.Context, orgID, cleanID string) (*models.Project, error) {
	query := `
		SELECT id, organization_id, clean_id, name, type, created_at, updated_at
		FROM projects
		WHERE organization_id = $1 AND clean_id = $2
	`

	project := &models.Project{}
	err := r.db.GetContext(ctx, project, query, orgID, cleanID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := `
		SELECT id, organization_id, clean_id, name, type, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	project := &models.Project{}
	err := r.db.GetContext(ctx, project, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (organization_id, clean_id, name, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		project.OrganizationID,
		project.CleanID,
		project.Name,
		project.Type,
	).Scan(
		&project.ID,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// ListByOrganization retrieves all projects in an organization, oldest first
func (r *ProjectRepository) ListByOrganization(ctx context.Context, orgID string) ([]*models.Project, error) {
	query := `
		SELECT id, organization_id, clean_id, name, type, created_at, updated_at
		FROM projects
		WHERE organization_id = $1
		ORDER BY created_at ASC
	`

	projects := make([]*models.Project, 0)
	if err := r.db.SelectContext(ctx, &projects, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}
