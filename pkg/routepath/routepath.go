// Package routepath builds and normalizes console route paths. Console pages
// live at /{organization}/{project}/{target}[/{tab}], where each segment is the
// resource's URL-safe clean identifier.
package routepath

import "strings"

// BuildOrganizationPath returns the path of an organization page.
func BuildOrganizationPath(org string) string {
	return "/" + org
}

// BuildProjectPath returns the path of a project page.
func BuildProjectPath(org, project string) string {
	return "/" + org + "/" + project
}

// BuildTargetPath returns the path of a target page. An empty tabSuffix yields
// the target's base path, which serves the default tab.
func BuildTargetPath(org, project, target, tabSuffix string) string {
	path := "/" + org + "/" + project + "/" + target
	if tabSuffix != "" {
		path += "/" + tabSuffix
	}
	return path
}

// StripFragment removes a fragment identifier from a path. Redirect targets
// must not carry fragments: a fragment on the redirect location re-triggers
// client-side navigation handling and can loop the redirect.
func StripFragment(path string) string {
	if i := strings.IndexByte(path, '#'); i >= 0 {
		return path[:i]
	}
	return path
}
