package routepath

import "testing"

func TestBuildTargetPath(t *testing.T) {
	tests := []struct {
		name      string
		org       string
		project   string
		target    string
		tabSuffix string
		want      string
	}{
		{"base path", "acme", "api", "prod", "", "/acme/api/prod"},
		{"history tab", "acme", "api", "prod", "history", "/acme/api/prod/history"},
		{"settings tab", "acme", "api", "staging", "settings", "/acme/api/staging/settings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildTargetPath(tt.org, tt.project, tt.target, tt.tabSuffix)
			if got != tt.want {
				t.Errorf("BuildTargetPath() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuildProjectPath(t *testing.T) {
	if got := BuildProjectPath("acme", "api"); got != "/acme/api" {
		t.Errorf("BuildProjectPath() = %s, want /acme/api", got)
	}
}

func TestBuildOrganizationPath(t *testing.T) {
	if got := BuildOrganizationPath("acme"); got != "/acme" {
		t.Errorf("BuildOrganizationPath() = %s, want /acme", got)
	}
}

func TestStripFragment(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"no fragment", "/acme/api/prod", "/acme/api/prod"},
		{"with fragment", "/acme/api/prod#section", "/acme/api/prod"},
		{"fragment only", "#top", ""},
		{"empty", "", ""},
		{"fragment with slash", "/404#/acme", "/404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFragment(tt.path); got != tt.want {
				t.Errorf("StripFragment(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
