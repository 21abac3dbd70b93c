// target_repository.go implements TargetRepository, providing database queries
// for targets and their published schema versions.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	goversion "github.com/hashicorp/go-version"
	"github.com/jmoiron/sqlx"

	"github.com/schema-registry/console-backend/internal/db/models"
)

// TargetRepository handles database operations for targets and schema versions
type TargetRepository struct {
	db *sqlx.DB
}

// NewTargetRepository creates a new target repository
func NewTargetRepository(db *sqlx.DB) *TargetRepository {
	return &TargetRepository{db: db}
}

// GetByCleanID retrieves a target by its URL-safe identifier within a project
func (r *TargetRepository) GetByCleanID(ctx context.Context, projectID, cleanID string) (*models.Target, error) {
	query := `
		SELECT id, project_id, clean_id, name, created_at, updated_at
		FROM targets
		WHERE project_id = $1 AND clean_id = $2
	`

	target := &models.Target{}
	err := r.db.GetContext(ctx, target, query, projectID, cleanID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get target: %w", err)
	}

	return target, nil
}

// GetByID retrieves a target by ID
func (r *TargetRepository) GetByID(ctx context.Context, id string) (*models.Target, error) {
	query := `
		SELECT id, project_id, clean_id, name, created_at, updated_at
		FROM targets
		WHERE id = $1
	`

	target := &models.Target{}
	err := r.db.GetContext(ctx, target, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get target: %w", err)
	}

	return target, nil
}

// Create creates a new target
func (r *TargetRepository) Create(ctx context.Context, target *models.Target) error {
	query := `
		INSERT INTO targets (project_id, clean_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		target.ProjectID,
		target.CleanID,
		target.Name,
	).Scan(
		&target.ID,
		&target.CreatedAt,
		&target.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create target: %w", err)
	}

	return nil
}

// ListByProject retrieves all targets in a project as an ordered list with the
// total count. Ordering is oldest first so switcher entries stay stable as new
// targets are added.
func (r *TargetRepository) ListByProject(ctx context.Context, projectID string) (*models.TargetList, error) {
	query := `
		SELECT id, project_id, clean_id, name, created_at, updated_at
		FROM targets
		WHERE project_id = $1
		ORDER BY created_at ASC
	`

	targets := make([]*models.Target, 0)
	if err := r.db.SelectContext(ctx, &targets, query, projectID); err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}

	return &models.TargetList{Items: targets, Total: len(targets)}, nil
}

// === Schema Version Operations ===

// ListSchemaVersions retrieves the published schema versions of a target,
// newest first
func (r *TargetRepository) ListSchemaVersions(ctx context.Context, targetID string, limit, offset int) ([]*models.SchemaVersion, error) {
	query := `
		SELECT id, target_id, version, is_composable, created_at
		FROM schema_versions
		WHERE target_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	versions := make([]*models.SchemaVersion, 0)
	if err := r.db.SelectContext(ctx, &versions, query, targetID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list schema versions: %w", err)
	}

	return versions, nil
}

// GetLatestComposableVersion returns the highest composable schema version of a
// target by semantic version order, or nil when the target has no composable
// versions. Version strings that do not parse are skipped.
func (r *TargetRepository) GetLatestComposableVersion(ctx context.Context, targetID string) (*models.SchemaVersion, error) {
	query := `
		SELECT id, target_id, version, is_composable, created_at
		FROM schema_versions
		WHERE target_id = $1 AND is_composable = true
	`

	versions := make([]*models.SchemaVersion, 0)
	if err := r.db.SelectContext(ctx, &versions, query, targetID); err != nil {
		return nil, fmt.Errorf("failed to list composable versions: %w", err)
	}

	var latest *models.SchemaVersion
	var latestParsed *goversion.Version
	for _, v := range versions {
		parsed, err := goversion.NewVersion(v.Version)
		if err != nil {
			continue
		}
		if latestParsed == nil || parsed.GreaterThan(latestParsed) {
			latest = v
			latestParsed = parsed
		}
	}

	return latest, nil
}

// CountSchemaVersions returns the number of published versions of a target
func (r *TargetRepository) CountSchemaVersions(ctx context.Context, targetID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM schema_versions WHERE target_id = $1`
	if err := r.db.GetContext(ctx, &count, query, targetID); err != nil {
		return 0, fmt.Errorf("failed to count schema versions: %w", err)
	}

	return count, nil
}
