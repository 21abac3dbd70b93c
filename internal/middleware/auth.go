// Package middleware provides Gin HTTP middleware for authentication,
// authorization, rate limiting, security headers, and request metrics.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RateLimit → Auth → RBAC → Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before auth to block brute-force attacks before any DB work.
// Auth populates the user identity and scopes; RBAC reads from that context.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schema-registry/console-backend/internal/auth"
	"github.com/schema-registry/console-backend/internal/db/models"
	"github.com/schema-registry/console-backend/internal/db/repositories"
)

// Context keys set by the auth middleware.
const (
	ContextUser       = "user"
	ContextUserID     = "user_id"
	ContextAuthMethod = "auth_method"
	ContextScopes     = "scopes"
)

// AuthMiddleware validates authentication (browser session JWT or CLI access token)
func AuthMiddleware(userRepo *repositories.UserRepository, tokenRepo *repositories.AccessTokenRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing or malformed authorization header",
			})
			return
		}

		// Try JWT first. It is stateless, so it needs no database round-trip;
		// access token validation always costs a prefix lookup plus a bcrypt
		// comparison.
		if claims, err := auth.ValidateJWT(token); err == nil {
			user, err := userRepo.GetByID(c.Request.Context(), claims.UserID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Failed to load user",
				})
				return
			}
			if user == nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "User not found",
				})
				return
			}

			c.Set(ContextUser, user)
			c.Set(ContextUserID, user.ID)
			c.Set(ContextAuthMethod, "jwt")
			c.Next()
			return
		}

		// Try an access token. Only the bcrypt hash is stored; the plaintext
		// prefix narrows the lookup to one indexed row before the expensive
		// comparison runs.
		accessToken, err := authenticateAccessToken(c.Request.Context(), token, tokenRepo)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Authentication failed",
			})
			return
		}

		if accessToken != nil {
			if accessToken.ExpiresAt != nil && time.Now().After(*accessToken.ExpiresAt) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Access token expired",
				})
				return
			}

			// Last-used tracking is best-effort. A synchronous write here would
			// add a DB write to every authenticated CLI request.
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tokenRepo.UpdateLastUsed(ctx, accessToken.ID, time.Now())
			}()

			user, err := userRepo.GetByID(c.Request.Context(), accessToken.UserID)
			if err != nil || user == nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "User not found",
				})
				return
			}

			c.Set(ContextUser, user)
			c.Set(ContextUserID, user.ID)
			c.Set(ContextAuthMethod, "access_token")
			c.Set(ContextScopes, accessToken.Scopes)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid credentials",
		})
	}
}

// OptionalAuthMiddleware - same as AuthMiddleware but doesn't abort if no auth
func OptionalAuthMiddleware(userRepo *repositories.UserRepository, tokenRepo *repositories.AccessTokenRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		if claims, err := auth.ValidateJWT(token); err == nil {
			user, err := userRepo.GetByID(c.Request.Context(), claims.UserID)
			if err == nil && user != nil {
				c.Set(ContextUser, user)
				c.Set(ContextUserID, user.ID)
				c.Set(ContextAuthMethod, "jwt")
			}
			c.Next()
			return
		}

		accessToken, _ := authenticateAccessToken(c.Request.Context(), token, tokenRepo)
		if accessToken != nil {
			if accessToken.ExpiresAt == nil || time.Now().Before(*accessToken.ExpiresAt) {
				user, _ := userRepo.GetByID(c.Request.Context(), accessToken.UserID)
				if user != nil {
					c.Set(ContextUser, user)
					c.Set(ContextUserID, user.ID)
					c.Set(ContextAuthMethod, "access_token")
					c.Set(ContextScopes, accessToken.Scopes)
				}
			}
		}

		c.Next()
	}
}

// bearerToken extracts and trims the bearer token from the Authorization header
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

// authenticateAccessToken attempts prefix lookup and bcrypt validation of a raw token
func authenticateAccessToken(ctx context.Context, raw string, tokenRepo *repositories.AccessTokenRepository) (*models.AccessToken, error) {
	token, err := tokenRepo.GetByPrefix(ctx, auth.TokenPrefix(raw))
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, nil
	}
	if !auth.ValidateAccessToken(raw, token.TokenHash) {
		return nil, nil
	}
	return token, nil
}
