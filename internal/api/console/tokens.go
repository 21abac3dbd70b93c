// tokens.go implements self-service access token management. Users create,
// list, and revoke their own CLI tokens; the raw token value is returned
// exactly once, at creation time.
package console

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schema-registry/console-backend/internal/auth"
	"github.com/schema-registry/console-backend/internal/db/models"
	"github.com/schema-registry/console-backend/internal/db/repositories"
	"github.com/schema-registry/console-backend/internal/middleware"
)

// TokenHandlers serves access token CRUD for the authenticated user
type TokenHandlers struct {
	tokenRepo *repositories.AccessTokenRepository
}

// NewTokenHandlers creates token handlers
func NewTokenHandlers(tokenRepo *repositories.AccessTokenRepository) *TokenHandlers {
	return &TokenHandlers{tokenRepo: tokenRepo}
}

// CreateTokenRequest is the payload for creating an access token
type CreateTokenRequest struct {
	Name           string   `json:"name" binding:"required"`
	OrganizationID *string  `json:"organization_id"`
	Scopes         []string `json:"scopes"`
	ExpiresInDays  int      `json:"expires_in_days"`
}

// ListTokens returns the caller's access tokens. Hashes are never serialized.
// GET /api/v1/tokens
func (h *TokenHandlers) ListTokens(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	tokens, err := h.tokenRepo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// CreateToken mints a new access token for the caller
// POST /api/v1/tokens
func (h *TokenHandlers) CreateToken(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	var req CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = auth.GetDefaultScopes()
	}
	if err := auth.ValidateScopes(scopes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rawToken, prefix, hash, err := auth.GenerateAccessToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	token := &models.AccessToken{
		UserID:         userID,
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		TokenPrefix:    prefix,
		TokenHash:      hash,
		Scopes:         scopes,
	}
	if req.ExpiresInDays > 0 {
		expiresAt := time.Now().AddDate(0, 0, req.ExpiresInDays)
		token.ExpiresAt = &expiresAt
	}

	if err := h.tokenRepo.Create(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	// The raw token is only available here; afterwards only the hash exists.
	c.JSON(http.StatusCreated, gin.H{
		"token":        token,
		"access_token": rawToken,
	})
}

// DeleteToken revokes one of the caller's tokens. Ownership is enforced by the
// delete query itself, so a foreign token ID looks identical to a missing one.
// DELETE /api/v1/tokens/:id
func (h *TokenHandlers) DeleteToken(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	tokenID := c.Param("id")

	err := h.tokenRepo.Delete(c.Request.Context(), tokenID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Token not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Token deleted"})
}
