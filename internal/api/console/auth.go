// auth.go implements HTTP handlers for OIDC login, the OAuth callback, logout,
// and the current-user endpoint.
package console

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schema-registry/console-backend/internal/auth"
	"github.com/schema-registry/console-backend/internal/auth/oidc"
	"github.com/schema-registry/console-backend/internal/config"
	"github.com/schema-registry/console-backend/internal/db/models"
	"github.com/schema-registry/console-backend/internal/db/repositories"
	"github.com/schema-registry/console-backend/internal/middleware"
)

// AuthHandlers handles authentication-related endpoints
type AuthHandlers struct {
	cfg          *config.Config
	userRepo     *repositories.UserRepository
	oidcProvider *oidc.Provider

	mu           sync.Mutex
	sessionStore map[string]*sessionState // In-memory state store; one console replica per deployment
}

// sessionState represents OAuth state during the authentication flow
type sessionState struct {
	State     string
	CreatedAt time.Time
}

// NewAuthHandlers creates a new AuthHandlers instance. The OIDC provider is
// initialized eagerly when SSO is enabled so a misconfigured issuer fails at
// startup instead of on the first login.
func NewAuthHandlers(cfg *config.Config, userRepo *repositories.UserRepository) (*AuthHandlers, error) {
	h := &AuthHandlers{
		cfg:          cfg,
		userRepo:     userRepo,
		sessionStore: make(map[string]*sessionState),
	}

	if cfg.Auth.OIDC.Enabled {
		provider, err := oidc.NewProvider(&cfg.Auth.OIDC)
		if err != nil {
			return nil, err
		}
		h.oidcProvider = provider
	}

	return h, nil
}

// generateState generates a random state string for OAuth CSRF protection
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// LoginHandler initiates the OIDC login flow
// GET /api/v1/auth/login
func (h *AuthHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.oidcProvider == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "SSO is not configured",
			})
			return
		}

		state, err := generateState()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate state",
			})
			return
		}

		h.mu.Lock()
		h.sessionStore[state] = &sessionState{State: state, CreatedAt: time.Now()}
		h.mu.Unlock()

		c.Redirect(http.StatusFound, h.oidcProvider.GetAuthURL(state))
	}
}

// CallbackHandler handles the OIDC callback
// GET /api/v1/auth/callback?code=...&state=...
func (h *AuthHandlers) CallbackHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		frontendBase := h.cfg.Server.GetPublicURL()

		// callbackError sends the browser back to the frontend callback page with
		// error details so the user sees a friendly message instead of raw JSON.
		callbackError := func(errCode, description string) {
			if frontendBase == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": description})
				return
			}
			target := fmt.Sprintf(
				"%s/auth/callback?error=%s&error_description=%s",
				frontendBase,
				url.QueryEscape(errCode),
				url.QueryEscape(description),
			)
			c.Redirect(http.StatusFound, target)
		}

		if h.oidcProvider == nil {
			callbackError("provider_not_configured", "SSO is not configured.")
			return
		}

		code := c.Query("code")
		state := c.Query("state")

		h.mu.Lock()
		session, exists := h.sessionStore[state]
		if exists {
			// One-shot: delete immediately to prevent replay.
			delete(h.sessionStore, state)
		}
		h.mu.Unlock()

		if !exists {
			callbackError("invalid_state", "Invalid state parameter. Please try logging in again.")
			return
		}
		if time.Since(session.CreatedAt) > 5*time.Minute {
			callbackError("state_expired", "Login session expired. Please try logging in again.")
			return
		}

		ctx := context.Background()

		token, err := h.oidcProvider.ExchangeCode(ctx, code)
		if err != nil {
			callbackError("token_exchange_failed", "Failed to exchange authorization code for token.")
			return
		}

		rawIDToken, ok := token.Extra("id_token").(string)
		if !ok {
			callbackError("no_id_token", "The identity provider did not return an ID token.")
			return
		}

		idToken, err := h.oidcProvider.VerifyIDToken(ctx, rawIDToken)
		if err != nil {
			callbackError("id_token_invalid", "The ID token could not be verified.")
			return
		}

		sub, email, name, err := h.oidcProvider.ExtractUserInfo(idToken)
		if err != nil {
			callbackError("user_info_failed", "Failed to extract user information from the ID token.")
			return
		}

		user, err := h.userRepo.UpsertByExternalID(ctx, sub, email, name)
		if err != nil {
			callbackError("user_creation_failed", "Failed to look up or create your account.")
			return
		}

		sessionTTL := h.cfg.Auth.SessionTTL
		if sessionTTL <= 0 {
			sessionTTL = 24 * time.Hour
		}
		jwtToken, err := auth.GenerateJWT(user.ID, user.Email, sessionTTL)
		if err != nil {
			callbackError("jwt_failed", "Failed to generate an authentication token.")
			return
		}

		redirectTarget := fmt.Sprintf("%s/auth/callback?token=%s", frontendBase, url.QueryEscape(jwtToken))
		c.Redirect(http.StatusFound, redirectTarget)
	}
}

// LogoutHandler ends the session. The JWT is stateless, so logout is a
// client-side operation; when the identity provider exposes an end-session
// endpoint the browser is sent there to clear the upstream session too.
// GET /api/v1/auth/logout
func (h *AuthHandlers) LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.oidcProvider != nil {
			if endSession := h.oidcProvider.GetEndSessionEndpoint(); endSession != "" {
				c.Redirect(http.StatusFound, endSession)
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

// MeHandler returns the authenticated user
// GET /api/v1/auth/me
func (h *AuthHandlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userVal, exists := c.Get(middleware.ContextUser)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		user, ok := userVal.(*models.User)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}
