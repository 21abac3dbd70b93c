// layout.go implements the target page layout endpoint. It runs the two
// queries behind a target page (project resolution and the project's target
// list), feeds them to the resolver state machine, and answers with either the
// navigation view model or a redirect.
package console

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schema-registry/console-backend/internal/config"
	"github.com/schema-registry/console-backend/internal/db/models"
	"github.com/schema-registry/console-backend/internal/db/repositories"
	"github.com/schema-registry/console-backend/internal/jobs"
	"github.com/schema-registry/console-backend/internal/middleware"
	"github.com/schema-registry/console-backend/internal/navigation"
	"github.com/schema-registry/console-backend/internal/query"
	"github.com/schema-registry/console-backend/internal/resolver"
	"github.com/schema-registry/console-backend/internal/telemetry"
)

// ViewTracker records which projects have been viewed so their snapshots can
// be kept warm in the background. Implemented by jobs.TargetCacheRefresher.
type ViewTracker interface {
	Track(orgCleanID, projectCleanID string)
}

// LayoutHandler serves the navigation layout of target pages
type LayoutHandler struct {
	orgRepo     *repositories.OrganizationRepository
	projectRepo *repositories.ProjectRepository
	targetRepo  *repositories.TargetRepository
	executor    *query.Executor
	resolver    *resolver.Resolver
	tracker     ViewTracker
}

// NewLayoutHandler creates a layout handler. tracker may be nil when no
// background refresher runs.
func NewLayoutHandler(
	cfg *config.Config,
	orgRepo *repositories.OrganizationRepository,
	projectRepo *repositories.ProjectRepository,
	targetRepo *repositories.TargetRepository,
	executor *query.Executor,
	tracker ViewTracker,
) *LayoutHandler {
	return &LayoutHandler{
		orgRepo:     orgRepo,
		projectRepo: projectRepo,
		targetRepo:  targetRepo,
		executor:    executor,
		resolver:    resolver.New(cfg.Console.NotFoundPath, cfg.Console.NoAccessPath),
		tracker:     tracker,
	}
}

// layoutResponse is the JSON body of a ready layout evaluation. Fetching flags
// report whether the corresponding snapshot came from cache with a refresh in
// flight, mirroring the query layer's cache-and-network semantics.
type layoutResponse struct {
	Phase           string                 `json:"phase"`
	ProjectFetching bool                   `json:"projectFetching"`
	TargetsFetching bool                   `json:"targetsFetching"`
	Layout          *navigation.LayoutView `json:"layout"`
}

// GetLayout evaluates and returns the layout of one target page.
// GET /api/v1/layout/:organization/:project/:target?tab={schema|history|operations|laboratory|settings}
func (h *LayoutHandler) GetLayout(c *gin.Context) {
	orgCleanID := c.Param("organization")
	projectCleanID := c.Param("project")
	targetCleanID := c.Param("target")
	userID := c.GetString(middleware.ContextUserID)

	activeTab, ok := navigation.ParseTab(c.Query("tab"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown tab value"})
		return
	}

	if h.tracker != nil {
		h.tracker.Track(orgCleanID, projectCleanID)
	}

	// The two queries are independent: the project query resolves the
	// organization, project, and the actor's membership; the targets query
	// resolves the project's target list. Each caches under its own key.
	projectRes := query.Run(c.Request.Context(), h.executor,
		"project",
		"layout:project:"+orgCleanID+"/"+projectCleanID+":"+userID,
		h.projectFetch(orgCleanID, projectCleanID, userID),
	)

	targetsRes := query.Run(c.Request.Context(), h.executor,
		"targets",
		jobs.TargetsSnapshotKey(orgCleanID, projectCleanID),
		h.targetsFetch(orgCleanID, projectCleanID),
	)

	res := h.resolver.Evaluate(resolver.Input{
		TargetCleanID: targetCleanID,
		RequestPath:   c.Request.URL.Path,
		Project:       projectRes.Data,
		Targets:       targetsRes.Data,
		ProjectErr:    projectRes.Err,
		TargetsErr:    targetsRes.Err,
	})

	switch res.Phase {
	case resolver.PhaseError:
		telemetry.LayoutRequestsTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load page data",
		})
		return

	case resolver.PhaseRedirecting:
		telemetry.LayoutRequestsTotal.WithLabelValues("redirect").Inc()
		telemetry.LayoutRedirectsTotal.WithLabelValues(string(res.Redirect.Reason)).Inc()
		c.Redirect(http.StatusFound, res.Redirect.Path)
		return

	case resolver.PhaseReady:
		view, err := navigation.BuildLayoutView(
			res.Organization, res.Project, res.Target, res.Targets,
			res.Capabilities, activeTab,
		)
		if err != nil {
			if errors.Is(err, navigation.ErrTabNotAvailable) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Tab not available"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build layout"})
			return
		}

		telemetry.LayoutRequestsTotal.WithLabelValues("ready").Inc()
		c.JSON(http.StatusOK, layoutResponse{
			Phase:           res.Phase.String(),
			ProjectFetching: projectRes.Fetching,
			TargetsFetching: targetsRes.Fetching,
			Layout:          view,
		})
		return
	}

	// Queries ran synchronously, so a loading phase means a resolver bug.
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected evaluation phase"})
}

// projectFetch resolves the organization, project, and the actor's membership.
// Missing resources come back as nil fields, not errors; the resolver decides
// what a nil means.
func (h *LayoutHandler) projectFetch(orgCleanID, projectCleanID, userID string) func(ctx context.Context) (resolver.ProjectSnapshot, error) {
	return func(ctx context.Context) (resolver.ProjectSnapshot, error) {
		var snap resolver.ProjectSnapshot

		org, err := h.orgRepo.GetByCleanID(ctx, orgCleanID)
		if err != nil {
			return snap, err
		}
		if org == nil {
			return snap, nil
		}
		snap.Organization = org

		project, err := h.projectRepo.GetByCleanID(ctx, org.ID, projectCleanID)
		if err != nil {
			return snap, err
		}
		if project == nil {
			return snap, nil
		}
		snap.Project = project

		if userID != "" {
			member, err := h.orgRepo.GetMemberWithRole(ctx, org.ID, userID)
			if err != nil {
				return snap, err
			}
			snap.Member = member
		}

		return snap, nil
	}
}

// targetsFetch resolves the project's target list. The list is scoped by the
// route's clean identifiers so its cache entry is shared by every member of
// the organization.
func (h *LayoutHandler) targetsFetch(orgCleanID, projectCleanID string) func(ctx context.Context) (*models.TargetList, error) {
	return func(ctx context.Context) (*models.TargetList, error) {
		org, err := h.orgRepo.GetByCleanID(ctx, orgCleanID)
		if err != nil {
			return nil, err
		}
		if org == nil {
			return &models.TargetList{Items: []*models.Target{}}, nil
		}

		project, err := h.projectRepo.GetByCleanID(ctx, org.ID, projectCleanID)
		if err != nil {
			return nil, err
		}
		if project == nil {
			return &models.TargetList{Items: []*models.Target{}}, nil
		}

		return h.targetRepo.ListByProject(ctx, project.ID)
	}
}
