package auth

import "testing"

func TestCanAccessTarget(t *testing.T) {
	tests := []struct {
		name   string
		scope  Scope
		member *Member
		want   bool
	}{
		{"nil member denied", ScopeTargetRead, nil, false},
		{"member without scopes denied", ScopeTargetRead, &Member{UserID: "u1"}, false},
		{"member with read allowed", ScopeTargetRead, &Member{UserID: "u1", Scopes: []string{"target:read"}}, true},
		{"member with settings gets read", ScopeTargetRead, &Member{UserID: "u1", Scopes: []string{"target:settings"}}, true},
		{"admin member gets settings", ScopeTargetSettings, &Member{UserID: "u1", Scopes: []string{"admin"}}, true},
		{"registry read does not grant settings", ScopeTargetSettings, &Member{UserID: "u1", Scopes: []string{"registry:read"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccessTarget(tt.scope, tt.member); got != tt.want {
				t.Errorf("CanAccessTarget(%q, %+v) = %v, want %v", tt.scope, tt.member, got, tt.want)
			}
		})
	}
}

func TestCapabilitiesFor(t *testing.T) {
	tests := []struct {
		name         string
		member       *Member
		wantSchema   bool
		wantSettings bool
	}{
		{"nil member has nothing", nil, false, false},
		{"read only member has nothing extra", &Member{Scopes: []string{"target:read"}}, false, false},
		{"registry read unlocks schema tabs", &Member{Scopes: []string{"target:read", "registry:read"}}, true, false},
		{"settings scope unlocks settings tab", &Member{Scopes: []string{"target:settings"}}, false, true},
		{"registry write counts as registry read", &Member{Scopes: []string{"registry:write"}}, true, false},
		{"admin unlocks everything", &Member{Scopes: []string{"admin"}}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := CapabilitiesFor(tt.member)
			if caps.CanAccessSchema != tt.wantSchema {
				t.Errorf("CanAccessSchema = %v, want %v", caps.CanAccessSchema, tt.wantSchema)
			}
			if caps.CanAccessSettings != tt.wantSettings {
				t.Errorf("CanAccessSettings = %v, want %v", caps.CanAccessSettings, tt.wantSettings)
			}
		})
	}
}
