// Package middleware (rbac.go) implements scope-based authorization middleware.
//
// Scopes are checked at request time rather than being embedded in the session
// JWT: when a member's role template changes, the change takes effect on their
// next request without reissuing tokens. CLI access tokens are the exception,
// they carry their own scope set fixed at creation time.

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schema-registry/console-backend/internal/auth"
	"github.com/schema-registry/console-backend/internal/db/repositories"
)

// RequireScope checks that token-based requests carry the required scope.
// JWT sessions pass through; their scopes come from the organization role and
// are checked by RequireOrgScope on organization-scoped routes.
func RequireScope(scope auth.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextAuthMethod) == "jwt" {
			c.Next()
			return
		}

		scopesVal, exists := c.Get(ContextScopes)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}

		userScopes, ok := scopesVal.([]string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Invalid scopes format",
			})
			return
		}

		if !auth.HasScope(userScopes, scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Missing required scope",
				"details": "Required scope: " + string(scope),
			})
			return
		}

		c.Next()
	}
}

// RequireOrgScope checks that the user holds the required scope in the routed
// organization. The organization is resolved from the :organization route
// parameter by clean identifier; the scope comes from the member's role
// template. The resolved organization ID and membership are stored in context
// for the handler.
func RequireOrgScope(scope auth.Scope, orgRepo *repositories.OrganizationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "User not authenticated",
			})
			return
		}

		orgCleanID := c.Param("organization")
		if orgCleanID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Organization context not found",
			})
			return
		}

		org, err := orgRepo.GetByCleanID(c.Request.Context(), orgCleanID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to resolve organization",
			})
			return
		}
		if org == nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error": "Organization not found",
			})
			return
		}

		memberWithRole, err := orgRepo.GetMemberWithRole(c.Request.Context(), org.ID, userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to check organization membership",
			})
			return
		}
		if memberWithRole == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Not a member of organization",
			})
			return
		}

		if !auth.HasScope(memberWithRole.RoleTemplateScopes, scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Missing required scope for organization",
				"details": "Required scope: " + string(scope),
			})
			return
		}

		c.Set("organization", org)
		c.Set("organization_id", org.ID)
		c.Set("org_member", memberWithRole)
		c.Set("org_role_template_scopes", memberWithRole.RoleTemplateScopes)

		c.Next()
	}
}
