// access_token_repository.go implements AccessTokenRepository, providing database
// queries for CLI access tokens. Tokens are looked up by plaintext prefix and then
// verified against the stored bcrypt hash by the caller.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/schema-registry/console-backend/internal/db/models"
)

// AccessTokenRepository handles database operations for access tokens
type AccessTokenRepository struct {
	db *sqlx.DB
}

// NewAccessTokenRepository creates a new access token repository
func NewAccessTokenRepository(db *sqlx.DB) *AccessTokenRepository {
	return &AccessTokenRepository{db: db}
}

const accessTokenColumns = `
	id, user_id, organization_id, name, token_prefix, token_hash,
	COALESCE(scopes, '[]'::jsonb) as scopes, expires_at, last_used_at, created_at
`

func scanAccessToken(row *sql.Row) (*models.AccessToken, error) {
	token := &models.AccessToken{}
	var scopesJSON []byte
	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.OrganizationID,
		&token.Name,
		&token.TokenPrefix,
		&token.TokenHash,
		&scopesJSON,
		&token.ExpiresAt,
		&token.LastUsedAt,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(scopesJSON) > 0 {
		if err := json.Unmarshal(scopesJSON, &token.Scopes); err != nil {
			return nil, fmt.Errorf("failed to parse scopes: %w", err)
		}
	}

	return token, nil
}

// Create stores a new access token. The caller supplies the bcrypt hash and the
// plaintext prefix; the raw token is never persisted.
func (r *AccessTokenRepository) Create(ctx context.Context, token *models.AccessToken) error {
	scopesJSON, err := json.Marshal(token.Scopes)
	if err != nil {
		return fmt.Errorf("failed to marshal scopes: %w", err)
	}

	query := `
		INSERT INTO access_tokens (user_id, organization_id, name, token_prefix, token_hash, scopes, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err = r.db.QueryRowContext(ctx, query,
		token.UserID,
		token.OrganizationID,
		token.Name,
		token.TokenPrefix,
		token.TokenHash,
		scopesJSON,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create access token: %w", err)
	}

	return nil
}

// GetByPrefix retrieves an access token by its plaintext lookup prefix
func (r *AccessTokenRepository) GetByPrefix(ctx context.Context, prefix string) (*models.AccessToken, error) {
	query := `SELECT ` + accessTokenColumns + `
		FROM access_tokens
		WHERE token_prefix = $1
	`

	token, err := scanAccessToken(r.db.QueryRowContext(ctx, query, prefix))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	return token, nil
}

// GetByID retrieves an access token by ID
func (r *AccessTokenRepository) GetByID(ctx context.Context, id string) (*models.AccessToken, error) {
	query := `SELECT ` + accessTokenColumns + `
		FROM access_tokens
		WHERE id = $1
	`

	token, err := scanAccessToken(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	return token, nil
}

// ListByUser retrieves all access tokens owned by a user, newest first
func (r *AccessTokenRepository) ListByUser(ctx context.Context, userID string) ([]*models.AccessToken, error) {
	query := `SELECT ` + accessTokenColumns + `
		FROM access_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list access tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]*models.AccessToken, 0)
	for rows.Next() {
		token := &models.AccessToken{}
		var scopesJSON []byte
		err := rows.Scan(
			&token.ID,
			&token.UserID,
			&token.OrganizationID,
			&token.Name,
			&token.TokenPrefix,
			&token.TokenHash,
			&scopesJSON,
			&token.ExpiresAt,
			&token.LastUsedAt,
			&token.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access token: %w", err)
		}
		if len(scopesJSON) > 0 {
			if err := json.Unmarshal(scopesJSON, &token.Scopes); err != nil {
				return nil, fmt.Errorf("failed to parse scopes: %w", err)
			}
		}
		tokens = append(tokens, token)
	}

	return tokens, rows.Err()
}

// UpdateLastUsed records the time a token was last accepted for authentication
func (r *AccessTokenRepository) UpdateLastUsed(ctx context.Context, id string, usedAt time.Time) error {
	query := `UPDATE access_tokens SET last_used_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, usedAt)
	if err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}

	return nil
}

// Delete removes an access token
func (r *AccessTokenRepository) Delete(ctx context.Context, id, userID string) error {
	query := `DELETE FROM access_tokens WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete access token: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete access token: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
