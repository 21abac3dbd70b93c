package navigation

import (
	"errors"
	"testing"

	"github.com/schema-registry/console-backend/internal/auth"
	"github.com/schema-registry/console-backend/internal/db/models"
)

var (
	acme = &models.Organization{ID: "org-1", CleanID: "acme", Name: "Acme Corp"}
	api  = &models.Project{ID: "proj-1", OrganizationID: "org-1", CleanID: "api", Name: "API"}
	prod = &models.Target{ID: "tgt-1", ProjectID: "proj-1", CleanID: "prod", Name: "Production"}
)

func twoTargets() *models.TargetList {
	stage := &models.Target{ID: "tgt-2", ProjectID: "proj-1", CleanID: "stage", Name: "Staging"}
	return &models.TargetList{Items: []*models.Target{prod, stage}, Total: 2}
}

func oneTarget() *models.TargetList {
	return &models.TargetList{Items: []*models.Target{prod}, Total: 1}
}

func fullCaps() auth.TargetCapabilities {
	return auth.TargetCapabilities{CanAccessSchema: true, CanAccessSettings: true}
}

func TestBuildLayoutView_Breadcrumb(t *testing.T) {
	view, err := BuildLayoutView(acme, api, prod, oneTarget(), fullCaps(), TabSchema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.Breadcrumb.OrganizationName != "Acme Corp" {
		t.Errorf("OrganizationName = %s, want Acme Corp", view.Breadcrumb.OrganizationName)
	}
	if view.Breadcrumb.OrganizationPath != "/acme" {
		t.Errorf("OrganizationPath = %s, want /acme", view.Breadcrumb.OrganizationPath)
	}
	if view.Breadcrumb.ProjectName != "API" {
		t.Errorf("ProjectName = %s, want API", view.Breadcrumb.ProjectName)
	}
	if view.Breadcrumb.ProjectPath != "/acme/api" {
		t.Errorf("ProjectPath = %s, want /acme/api", view.Breadcrumb.ProjectPath)
	}
	if view.TargetName != "Production" {
		t.Errorf("TargetName = %s, want Production", view.TargetName)
	}
}

func TestBuildLayoutView_SwitcherListsOthersOnly(t *testing.T) {
	view, err := BuildLayoutView(acme, api, prod, twoTargets(), fullCaps(), TabSchema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(view.Switcher) != 1 {
		t.Fatalf("Switcher has %d entries, want 1", len(view.Switcher))
	}
	if view.Switcher[0].Name != "Staging" {
		t.Errorf("entry Name = %s, want Staging", view.Switcher[0].Name)
	}
	if view.Switcher[0].Path != "/acme/api/stage" {
		t.Errorf("entry Path = %s, want /acme/api/stage", view.Switcher[0].Path)
	}
}

func TestBuildLayoutView_NoSwitcherForSingleTarget(t *testing.T) {
	view, err := BuildLayoutView(acme, api, prod, oneTarget(), fullCaps(), TabSchema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Switcher) != 0 {
		t.Errorf("Switcher = %v, want empty for single-target project", view.Switcher)
	}
}

func TestBuildLayoutView_AllTabsWithFullCapabilities(t *testing.T) {
	view, err := BuildLayoutView(acme, api, prod, oneTarget(), fullCaps(), TabSchema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		value Tab
		path  string
	}{
		{TabSchema, "/acme/api/prod"},
		{TabHistory, "/acme/api/prod/history"},
		{TabOperations, "/acme/api/prod/operations"},
		{TabLaboratory, "/acme/api/prod/laboratory"},
		{TabSettings, "/acme/api/prod/settings"},
	}

	if len(view.Tabs) != len(want) {
		t.Fatalf("Tabs has %d entries, want %d", len(view.Tabs), len(want))
	}
	for i, w := range want {
		if view.Tabs[i].Value != w.value {
			t.Errorf("Tabs[%d].Value = %s, want %s", i, view.Tabs[i].Value, w.value)
		}
		if view.Tabs[i].Path != w.path {
			t.Errorf("Tabs[%d].Path = %s, want %s", i, view.Tabs[i].Path, w.path)
		}
	}
}

func TestBuildLayoutView_SchemaTabsGatedByRegistryRead(t *testing.T) {
	caps := auth.TargetCapabilities{CanAccessSchema: false, CanAccessSettings: true}

	view, err := BuildLayoutView(acme, api, prod, oneTarget(), caps, TabSettings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(view.Tabs) != 1 {
		t.Fatalf("Tabs has %d entries, want only settings", len(view.Tabs))
	}
	if view.Tabs[0].Value != TabSettings {
		t.Errorf("Tabs[0] = %s, want settings", view.Tabs[0].Value)
	}
}

func TestBuildLayoutView_SettingsTabGatedBySettingsScope(t *testing.T) {
	caps := auth.TargetCapabilities{CanAccessSchema: true, CanAccessSettings: false}

	view, err := BuildLayoutView(acme, api, prod, oneTarget(), caps, TabSchema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, tab := range view.Tabs {
		if tab.Value == TabSettings {
			t.Error("Settings tab rendered without settings scope")
		}
	}
	if len(view.Tabs) != 4 {
		t.Errorf("Tabs has %d entries, want 4 schema-gated tabs", len(view.Tabs))
	}
}

func TestBuildLayoutView_GatedActiveTabRejected(t *testing.T) {
	caps := auth.TargetCapabilities{CanAccessSchema: true, CanAccessSettings: false}

	_, err := BuildLayoutView(acme, api, prod, oneTarget(), caps, TabSettings)
	if !errors.Is(err, ErrTabNotAvailable) {
		t.Errorf("err = %v, want ErrTabNotAvailable", err)
	}
}

func TestBuildLayoutView_ContentCarriesResolvedEntities(t *testing.T) {
	view, err := BuildLayoutView(acme, api, prod, oneTarget(), fullCaps(), TabHistory)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.ActiveTab != TabHistory {
		t.Errorf("ActiveTab = %s, want history", view.ActiveTab)
	}
	if view.Content.Organization != acme || view.Content.Project != api || view.Content.Target != prod {
		t.Error("Content does not carry the resolved entities")
	}
}

func TestParseTab(t *testing.T) {
	tests := []struct {
		value  string
		want   Tab
		wantOK bool
	}{
		{"", TabSchema, true},
		{"schema", TabSchema, true},
		{"history", TabHistory, true},
		{"operations", TabOperations, true},
		{"laboratory", TabLaboratory, true},
		{"settings", TabSettings, true},
		{"bogus", "", false},
		{"SCHEMA", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseTab(tt.value)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseTab(%q) = (%s, %v), want (%s, %v)", tt.value, got, ok, tt.want, tt.wantOK)
		}
	}
}
