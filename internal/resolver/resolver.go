// Package resolver decides what a target page request resolves to: the page
// content, a loading or error state, or a redirect. It is the explicit state
// machine behind the console's navigation shell.
//
// Two independent queries feed each evaluation: one resolving the organization,
// project, and the actor's membership, and one listing the project's targets.
// The queries carry no ordering guarantee, so the resolver looks only at their
// settled snapshots. Evaluation is a pure function: one call per settle, and a
// settle that finds a missing resource or a denied actor produces exactly one
// redirect.
package resolver

import (
	"github.com/schema-registry/console-backend/internal/auth"
	"github.com/schema-registry/console-backend/internal/db/models"
	"github.com/schema-registry/console-backend/pkg/routepath"
)

// Phase is the observable state of a target page evaluation.
type Phase int

const (
	// PhaseLoading means at least one query has not settled yet.
	PhaseLoading Phase = iota
	// PhaseError means at least one query failed. The page shows an error
	// display instead of the layout.
	PhaseError
	// PhaseReady means both queries settled, every routed resource exists, and
	// the actor may view the target.
	PhaseReady
	// PhaseRedirecting is the terminal side exit: a routed resource is missing
	// or the actor lacks read access.
	PhaseRedirecting
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseError:
		return "error"
	case PhaseReady:
		return "ready"
	case PhaseRedirecting:
		return "redirecting"
	default:
		return "unknown"
	}
}

// RedirectReason records why an evaluation exited to a redirect.
type RedirectReason string

const (
	ReasonOrganizationNotFound RedirectReason = "org_not_found"
	ReasonProjectNotFound      RedirectReason = "project_not_found"
	ReasonTargetNotFound       RedirectReason = "target_not_found"
	ReasonNoReadAccess         RedirectReason = "no_read_access"
)

// Redirect is the navigation side effect of a PhaseRedirecting evaluation.
// Path never carries a fragment.
type Redirect struct {
	Path   string
	Reason RedirectReason
}

// ProjectSnapshot is the settled payload of the project query: the routed
// organization and project plus the actor's membership in that organization.
// Any field may be nil when the corresponding resource does not exist.
type ProjectSnapshot struct {
	Organization *models.Organization               `json:"organization"`
	Project      *models.Project                    `json:"project"`
	Member       *models.OrganizationMemberWithRole `json:"member"`
}

// Input carries everything one evaluation looks at.
type Input struct {
	// TargetCleanID is the target segment of the requested route.
	TargetCleanID string
	// RequestPath is the path being evaluated. Fragments are stripped before
	// it is used in a redirect.
	RequestPath string

	Project ProjectSnapshot
	Targets *models.TargetList

	ProjectPending bool
	TargetsPending bool
	ProjectErr     error
	TargetsErr     error
}

// Resolution is the outcome of one evaluation. Fields beyond Phase are only
// meaningful for the phase that sets them: Err for PhaseError, Redirect for
// PhaseRedirecting, the resolved entities and capabilities for PhaseReady.
type Resolution struct {
	Phase    Phase
	Err      error
	Redirect *Redirect

	Organization *models.Organization
	Project      *models.Project
	Target       *models.Target
	Targets      *models.TargetList
	Member       *models.OrganizationMemberWithRole
	Capabilities auth.TargetCapabilities
}

// Resolver evaluates target page requests against configured redirect targets.
type Resolver struct {
	notFoundPath string
	noAccessPath string
}

// New creates a resolver. notFoundPath receives redirects for missing
// resources; noAccessPath receives redirects for actors without read access.
func New(notFoundPath, noAccessPath string) *Resolver {
	return &Resolver{
		notFoundPath: routepath.StripFragment(notFoundPath),
		noAccessPath: routepath.StripFragment(noAccessPath),
	}
}

// Evaluate runs the state machine over one settled (or partially settled)
// input. The checks run in a fixed order, so an input with several problems
// still yields a single redirect: organization existence, then project, then
// target membership in the fetched list, then the actor's read scope.
func (r *Resolver) Evaluate(in Input) Resolution {
	if in.ProjectErr != nil {
		return Resolution{Phase: PhaseError, Err: in.ProjectErr}
	}
	if in.TargetsErr != nil {
		return Resolution{Phase: PhaseError, Err: in.TargetsErr}
	}

	if in.ProjectPending || in.TargetsPending {
		return Resolution{Phase: PhaseLoading}
	}

	if in.Project.Organization == nil {
		return r.redirectNotFound(ReasonOrganizationNotFound)
	}
	if in.Project.Project == nil {
		return r.redirectNotFound(ReasonProjectNotFound)
	}

	// The rendered target must come from the list fetched for this project.
	// An empty settled list redirects like any other miss.
	var target *models.Target
	if in.Targets != nil {
		target = in.Targets.FindByCleanID(in.TargetCleanID)
	}
	if target == nil {
		return r.redirectNotFound(ReasonTargetNotFound)
	}

	member := memberForGate(in.Project.Member)
	if !auth.CanAccessTarget(auth.ScopeTargetRead, member) {
		return Resolution{
			Phase:    PhaseRedirecting,
			Redirect: &Redirect{Path: r.noAccessPath, Reason: ReasonNoReadAccess},
		}
	}

	return Resolution{
		Phase:        PhaseReady,
		Organization: in.Project.Organization,
		Project:      in.Project.Project,
		Target:       target,
		Targets:      in.Targets,
		Member:       in.Project.Member,
		Capabilities: auth.CapabilitiesFor(member),
	}
}

func (r *Resolver) redirectNotFound(reason RedirectReason) Resolution {
	return Resolution{
		Phase:    PhaseRedirecting,
		Redirect: &Redirect{Path: r.notFoundPath, Reason: reason},
	}
}

// memberForGate converts a membership row into the access gate's member shape.
// A nil row stays nil, which the gate treats as no access.
func memberForGate(m *models.OrganizationMemberWithRole) *auth.Member {
	if m == nil {
		return nil
	}
	return &auth.Member{
		UserID: m.UserID,
		Scopes: m.RoleTemplateScopes,
	}
}
