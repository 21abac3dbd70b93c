// access.go implements the target access gate: pure functions that decide what an
// actor may see on a target page from their organization membership record.
package auth

// Member is the subset of an organization membership the access gate needs:
// the scope set granted by the member's role. A nil *Member means the actor
// has no membership in the organization that owns the target.
type Member struct {
	UserID string
	Scopes []string
}

// CanAccessTarget reports whether the member's role grants the given scope on
// targets of their organization. A missing membership grants nothing.
func CanAccessTarget(scope Scope, member *Member) bool {
	if member == nil {
		return false
	}
	return HasScope(member.Scopes, scope)
}

// TargetCapabilities is the capability set the navigation layout is gated on.
type TargetCapabilities struct {
	// CanAccessSchema gates the Schema, History, Operations, and Laboratory tabs.
	CanAccessSchema bool
	// CanAccessSettings gates the Settings tab.
	CanAccessSettings bool
}

// CapabilitiesFor computes the layout capability set from a membership record.
func CapabilitiesFor(member *Member) TargetCapabilities {
	return TargetCapabilities{
		CanAccessSchema:   CanAccessTarget(ScopeRegistryRead, member),
		CanAccessSettings: CanAccessTarget(ScopeTargetSettings, member),
	}
}
