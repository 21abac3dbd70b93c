// Package auth - scopes.go defines permission scope constants for console resources
// and provides HasScope, HasAnyScope, and HasAllScopes helper functions for scope checking.
package auth

import (
	"errors"
	"fmt"
)

// Scope represents a permission/scope type
type Scope string

const (
	// Target scopes
	ScopeTargetRead     Scope = "target:read"     // View a target and its navigation shell
	ScopeTargetSettings Scope = "target:settings" // View and change target settings

	// Schema registry scopes
	ScopeRegistryRead  Scope = "registry:read"  // View schemas, history, operations, laboratory
	ScopeRegistryWrite Scope = "registry:write" // Publish and delete schema versions

	// Project scopes
	ScopeProjectsRead Scope = "projects:read" // View projects and their target lists

	// Organization management scopes
	ScopeOrganizationsRead  Scope = "organizations:read"  // View organizations and members
	ScopeOrganizationsWrite Scope = "organizations:write" // Manage organizations and members

	// Access token management scope
	ScopeTokensManage Scope = "tokens:manage"

	// Admin scope (wildcard - all permissions)
	ScopeAdmin Scope = "admin"
)

// AllScopes returns all valid scopes
func AllScopes() []Scope {
	return []Scope{
		ScopeTargetRead,
		ScopeTargetSettings,
		ScopeRegistryRead,
		ScopeRegistryWrite,
		ScopeProjectsRead,
		ScopeOrganizationsRead,
		ScopeOrganizationsWrite,
		ScopeTokensManage,
		ScopeAdmin,
	}
}

// ValidScopes returns a map of valid scope strings
func ValidScopes() map[string]bool {
	validScopes := make(map[string]bool)
	for _, scope := range AllScopes() {
		validScopes[string(scope)] = true
	}
	return validScopes
}

// ValidateScopes checks if all provided scopes are valid
func ValidateScopes(scopes []string) error {
	validScopes := ValidScopes()

	for _, scope := range scopes {
		if !validScopes[scope] {
			return fmt.Errorf("invalid scope: %s", scope)
		}
	}

	return nil
}

// HasScope checks if a scope set grants the required scope.
// Supports wildcard admin scope.
func HasScope(userScopes []string, required Scope) bool {
	requiredStr := string(required)

	for _, scope := range userScopes {
		// Check for exact match
		if scope == requiredStr {
			return true
		}

		// Check for admin wildcard
		if scope == string(ScopeAdmin) {
			return true
		}

		// Write permission implies the matching read permission, and settings
		// access implies basic target visibility.
		if required == ScopeRegistryRead && scope == string(ScopeRegistryWrite) {
			return true
		}
		if required == ScopeOrganizationsRead && scope == string(ScopeOrganizationsWrite) {
			return true
		}
		if required == ScopeTargetRead && scope == string(ScopeTargetSettings) {
			return true
		}
	}

	return false
}

// HasAnyScope checks if a scope set grants at least one of the required scopes
func HasAnyScope(userScopes []string, requiredScopes []Scope) bool {
	for _, required := range requiredScopes {
		if HasScope(userScopes, required) {
			return true
		}
	}
	return false
}

// HasAllScopes checks if a scope set grants all of the required scopes
func HasAllScopes(userScopes []string, requiredScopes []Scope) bool {
	for _, required := range requiredScopes {
		if !HasScope(userScopes, required) {
			return false
		}
	}
	return true
}

// GetDefaultScopes returns default scopes for a new access token
func GetDefaultScopes() []string {
	return []string{
		string(ScopeTargetRead),
		string(ScopeRegistryRead),
	}
}

// GetAdminScopes returns all scopes including admin
func GetAdminScopes() []string {
	scopes := make([]string, 0)
	for _, scope := range AllScopes() {
		scopes = append(scopes, string(scope))
	}
	return scopes
}

// ValidateScopeString validates a single scope string
func ValidateScopeString(scope string) error {
	validScopes := ValidScopes()
	if !validScopes[scope] {
		return errors.New("invalid scope")
	}
	return nil
}
