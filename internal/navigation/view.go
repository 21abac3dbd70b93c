// Package navigation computes the layout view model for a target page: the
// breadcrumb, the target switcher, and the tab set the actor may see. The
// result is what the console frontend renders; all gating decisions are made
// here so the frontend never sees a tab it must hide.
package navigation

import (
	"errors"

	"github.com/schema-registry/console-backend/internal/auth"
	"github.com/schema-registry/console-backend/internal/db/models"
	"github.com/schema-registry/console-backend/pkg/routepath"
)

// Tab identifies one of the target page's tab values.
type Tab string

const (
	TabSchema     Tab = "schema"
	TabHistory    Tab = "history"
	TabOperations Tab = "operations"
	TabLaboratory Tab = "laboratory"
	TabSettings   Tab = "settings"
)

// ErrTabNotAvailable is returned when the requested tab does not exist or the
// actor's capabilities do not include it.
var ErrTabNotAvailable = errors.New("tab not available")

// tabOrder fixes the rendering order of tab triggers.
var tabOrder = []Tab{TabSchema, TabHistory, TabOperations, TabLaboratory, TabSettings}

// tabSuffix maps a tab to its path suffix. The schema tab is the target's base
// path.
var tabSuffix = map[Tab]string{
	TabSchema:     "",
	TabHistory:    "history",
	TabOperations: "operations",
	TabLaboratory: "laboratory",
	TabSettings:   "settings",
}

var tabLabel = map[Tab]string{
	TabSchema:     "Schema",
	TabHistory:    "History",
	TabOperations: "Operations",
	TabLaboratory: "Laboratory",
	TabSettings:   "Settings",
}

// ParseTab maps a tab query value to a Tab. An empty value selects the schema
// tab, matching the target's base path.
func ParseTab(value string) (Tab, bool) {
	if value == "" {
		return TabSchema, true
	}
	tab := Tab(value)
	if _, ok := tabSuffix[tab]; !ok {
		return "", false
	}
	return tab, true
}

// visible reports whether the capability set includes a tab.
func visible(tab Tab, caps auth.TargetCapabilities) bool {
	if tab == TabSettings {
		return caps.CanAccessSettings
	}
	return caps.CanAccessSchema
}

// Breadcrumb is the organization and project trail above the tab bar.
type Breadcrumb struct {
	OrganizationName string `json:"organizationName"`
	OrganizationPath string `json:"organizationPath"`
	ProjectName      string `json:"projectName"`
	ProjectPath      string `json:"projectPath"`
}

// TabLink is one rendered tab trigger.
type TabLink struct {
	Value Tab    `json:"value"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

// SwitcherEntry is one alternative target in the switcher dropdown.
type SwitcherEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Content carries the resolved entities the active tab's body is rendered
// from.
type Content struct {
	Organization *models.Organization `json:"organization"`
	Project      *models.Project      `json:"project"`
	Target       *models.Target       `json:"target"`
}

// LayoutView is the complete navigation view model for one target page.
type LayoutView struct {
	Breadcrumb Breadcrumb `json:"breadcrumb"`
	TargetName string     `json:"targetName"`
	// Switcher lists the project's other targets. It is empty when the project
	// has one target, so the frontend renders no dropdown.
	Switcher  []SwitcherEntry `json:"switcher"`
	Tabs      []TabLink       `json:"tabs"`
	ActiveTab Tab             `json:"activeTab"`
	Content   Content         `json:"content"`
}

// BuildLayoutView assembles the view model from resolved entities. The caller
// guarantees the target belongs to the list. Returns ErrTabNotAvailable when
// the active tab is gated off for this actor.
func BuildLayoutView(
	org *models.Organization,
	project *models.Project,
	target *models.Target,
	targetList *models.TargetList,
	caps auth.TargetCapabilities,
	active Tab,
) (*LayoutView, error) {
	if !visible(active, caps) {
		return nil, ErrTabNotAvailable
	}

	view := &LayoutView{
		Breadcrumb: Breadcrumb{
			OrganizationName: org.Name,
			OrganizationPath: routepath.BuildOrganizationPath(org.CleanID),
			ProjectName:      project.Name,
			ProjectPath:      routepath.BuildProjectPath(org.CleanID, project.CleanID),
		},
		TargetName: target.Name,
		Switcher:   buildSwitcher(org, project, target, targetList),
		Tabs:       buildTabs(org, project, target, caps),
		ActiveTab:  active,
		Content: Content{
			Organization: org,
			Project:      project,
			Target:       target,
		},
	}

	return view, nil
}

// buildSwitcher returns the other targets of the project as navigation links.
// A single-target project gets no switcher at all.
func buildSwitcher(org *models.Organization, project *models.Project, current *models.Target, list *models.TargetList) []SwitcherEntry {
	if list == nil || list.Total <= 1 {
		return []SwitcherEntry{}
	}

	entries := make([]SwitcherEntry, 0, list.Total-1)
	for _, t := range list.Items {
		if t.CleanID == current.CleanID {
			continue
		}
		entries = append(entries, SwitcherEntry{
			Name: t.Name,
			Path: routepath.BuildTargetPath(org.CleanID, project.CleanID, t.CleanID, ""),
		})
	}
	return entries
}

func buildTabs(org *models.Organization, project *models.Project, target *models.Target, caps auth.TargetCapabilities) []TabLink {
	tabs := make([]TabLink, 0, len(tabOrder))
	for _, tab := range tabOrder {
		if !visible(tab, caps) {
			continue
		}
		tabs = append(tabs, TabLink{
			Value: tab,
			Label: tabLabel[tab],
			Path:  routepath.BuildTargetPath(org.CleanID, project.CleanID, target.CleanID, tabSuffix[tab]),
		})
	}
	return tabs
}
