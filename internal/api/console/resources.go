// resources.go implements read endpoints for organizations, projects, targets,
// and schema versions. These back the console's navigation and listing pages
// outside the layout shell itself.
package console

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/schema-registry/console-backend/internal/db/models"
	"github.com/schema-registry/console-backend/internal/db/repositories"
	"github.com/schema-registry/console-backend/internal/middleware"
)

// ResourceHandlers serves organization, project, and target reads
type ResourceHandlers struct {
	orgRepo     *repositories.OrganizationRepository
	projectRepo *repositories.ProjectRepository
	targetRepo  *repositories.TargetRepository
}

// NewResourceHandlers creates resource read handlers
func NewResourceHandlers(
	orgRepo *repositories.OrganizationRepository,
	projectRepo *repositories.ProjectRepository,
	targetRepo *repositories.TargetRepository,
) *ResourceHandlers {
	return &ResourceHandlers{
		orgRepo:     orgRepo,
		projectRepo: projectRepo,
		targetRepo:  targetRepo,
	}
}

// ListOrganizations returns the organizations the authenticated user belongs to
// GET /api/v1/organizations
func (h *ResourceHandlers) ListOrganizations(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	orgs, err := h.orgRepo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list organizations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"organizations": orgs})
}

// GetOrganization returns one organization by clean identifier. RequireOrgScope
// already resolved it into the context.
// GET /api/v1/organizations/:organization
func (h *ResourceHandlers) GetOrganization(c *gin.Context) {
	org, ok := organizationFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Organization context missing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"organization": org})
}

// ListProjects returns the projects of an organization
// GET /api/v1/organizations/:organization/projects
func (h *ResourceHandlers) ListProjects(c *gin.Context) {
	org, ok := organizationFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Organization context missing"})
		return
	}

	projects, err := h.projectRepo.ListByOrganization(c.Request.Context(), org.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list projects"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// GetProject returns one project by clean identifier
// GET /api/v1/organizations/:organization/projects/:project
func (h *ResourceHandlers) GetProject(c *gin.Context) {
	org, ok := organizationFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Organization context missing"})
		return
	}

	project, err := h.projectRepo.GetByCleanID(c.Request.Context(), org.ID, c.Param("project"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get project"})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// ListTargets returns the target list of a project
// GET /api/v1/organizations/:organization/projects/:project/targets
func (h *ResourceHandlers) ListTargets(c *gin.Context) {
	org, ok := organizationFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Organization context missing"})
		return
	}

	project, err := h.projectRepo.GetByCleanID(c.Request.Context(), org.ID, c.Param("project"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get project"})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	list, err := h.targetRepo.ListByProject(c.Request.Context(), project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list targets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"targets": list.Items, "total": list.Total})
}

// ListSchemaVersions returns the published schema versions of a target,
// newest first
// GET /api/v1/organizations/:organization/projects/:project/targets/:target/versions
func (h *ResourceHandlers) ListSchemaVersions(c *gin.Context) {
	org, ok := organizationFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Organization context missing"})
		return
	}

	project, err := h.projectRepo.GetByCleanID(c.Request.Context(), org.ID, c.Param("project"))
	if err != nil || project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	target, err := h.targetRepo.GetByCleanID(c.Request.Context(), project.ID, c.Param("target"))
	if err != nil || target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Target not found"})
		return
	}

	limit := parsePositiveInt(c.DefaultQuery("limit", "20"), 20)
	if limit > 100 {
		limit = 100
	}
	offset := parsePositiveInt(c.DefaultQuery("offset", "0"), 0)

	versions, err := h.targetRepo.ListSchemaVersions(c.Request.Context(), target.ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list schema versions"})
		return
	}

	total, err := h.targetRepo.CountSchemaVersions(c.Request.Context(), target.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count schema versions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": versions, "total": total})
}

// GetLatestSchemaVersion returns the highest composable version of a target by
// semantic version order
// GET /api/v1/organizations/:organization/projects/:project/targets/:target/versions/latest
func (h *ResourceHandlers) GetLatestSchemaVersion(c *gin.Context) {
	org, ok := organizationFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Organization context missing"})
		return
	}

	project, err := h.projectRepo.GetByCleanID(c.Request.Context(), org.ID, c.Param("project"))
	if err != nil || project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	target, err := h.targetRepo.GetByCleanID(c.Request.Context(), project.ID, c.Param("target"))
	if err != nil || target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Target not found"})
		return
	}

	version, err := h.targetRepo.GetLatestComposableVersion(c.Request.Context(), target.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve latest version"})
		return
	}
	if version == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No composable version published"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"version": version})
}

func organizationFromContext(c *gin.Context) (*models.Organization, bool) {
	orgVal, exists := c.Get("organization")
	if !exists {
		return nil, false
	}
	org, ok := orgVal.(*models.Organization)
	return org, ok
}

func parsePositiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
