package console

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/schema-registry/console-backend/internal/db/models"
	"github.com/schema-registry/console-backend/internal/db/repositories"
	"github.com/schema-registry/console-backend/internal/middleware"
)

// newResourceRouter stands in for the authenticated route group: the stub
// middleware injects the user and the resolved organization the scope
// middleware would normally provide.
func newResourceRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	sdb := sqlx.NewDb(db, "sqlmock")

	handler := NewResourceHandlers(
		repositories.NewOrganizationRepository(sdb),
		repositories.NewProjectRepository(sdb),
		repositories.NewTargetRepository(sdb),
	)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, "user-1")
		if c.Param("organization") != "" {
			c.Set("organization", &models.Organization{
				ID: "org-1", CleanID: c.Param("organization"), Name: "Acme",
			})
		}
		c.Next()
	})
	r.GET("/api/v1/organizations", handler.ListOrganizations)
	r.GET("/api/v1/organizations/:organization/projects", handler.ListProjects)
	r.GET("/api/v1/organizations/:organization/projects/:project", handler.GetProject)
	r.GET("/api/v1/organizations/:organization/projects/:project/targets", handler.ListTargets)
	r.GET("/api/v1/organizations/:organization/projects/:project/targets/:target/versions", handler.ListSchemaVersions)
	r.GET("/api/v1/organizations/:organization/projects/:project/targets/:target/versions/latest", handler.GetLatestSchemaVersion)
	return r, mock
}

func getResource(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestListOrganizations(t *testing.T) {
	r, mock := newResourceRouter(t)

	mock.ExpectQuery("SELECT.*FROM organizations").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(orgColumns).
			AddRow("org-1", "acme", "Acme", time.Now(), time.Now()).
			AddRow("org-2", "globex", "Globex", time.Now(), time.Now()))

	w := getResource(r, "/api/v1/organizations")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "globex") {
		t.Errorf("expected both organizations in response: %s", w.Body.String())
	}
}

func TestGetProject_NotFound(t *testing.T) {
	r, mock := newResourceRouter(t)

	mock.ExpectQuery("SELECT.*FROM projects").
		WillReturnRows(sqlmock.NewRows(projectColumns))

	w := getResource(r, "/api/v1/organizations/acme/projects/ghost")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body = %s", w.Code, w.Body.String())
	}
}

func TestListTargets(t *testing.T) {
	r, mock := newResourceRouter(t)

	expectProject(mock)
	expectTwoTargets(mock)

	w := getResource(r, "/api/v1/organizations/acme/projects/api/targets")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"total":2`) {
		t.Errorf("expected total of 2 in response: %s", w.Body.String())
	}
}

func TestListSchemaVersions(t *testing.T) {
	r, mock := newResourceRouter(t)

	expectProject(mock)
	mock.ExpectQuery("SELECT.*FROM targets").
		WillReturnRows(sqlmock.NewRows(targetColumns).
			AddRow("tgt-1", "proj-1", "prod", "Production", time.Now(), time.Now()))
	mock.ExpectQuery("SELECT.*FROM schema_versions").
		WithArgs("tgt-1", 5, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "target_id", "version", "is_composable", "created_at"}).
			AddRow("ver-2", "tgt-1", "1.1.0", true, time.Now()).
			AddRow("ver-1", "tgt-1", "1.0.0", true, time.Now()))
	mock.ExpectQuery("SELECT COUNT.*FROM schema_versions").
		WithArgs("tgt-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	w := getResource(r, "/api/v1/organizations/acme/projects/api/targets/prod/versions?limit=5")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"total":7`) {
		t.Errorf("expected total of 7 in response: %s", w.Body.String())
	}
}

func TestGetLatestSchemaVersion(t *testing.T) {
	r, mock := newResourceRouter(t)

	expectProject(mock)
	mock.ExpectQuery("SELECT.*FROM targets").
		WillReturnRows(sqlmock.NewRows(targetColumns).
			AddRow("tgt-1", "proj-1", "prod", "Production", time.Now(), time.Now()))
	mock.ExpectQuery("SELECT.*FROM schema_versions").
		WithArgs("tgt-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "target_id", "version", "is_composable", "created_at"}).
			AddRow("ver-1", "tgt-1", "1.9.0", true, time.Now()).
			AddRow("ver-2", "tgt-1", "1.10.0", true, time.Now()))

	w := getResource(r, "/api/v1/organizations/acme/projects/api/targets/prod/versions/latest")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "1.10.0") {
		t.Errorf("expected 1.10.0 as latest version: %s", w.Body.String())
	}
}

func TestGetLatestSchemaVersion_NoneComposable(t *testing.T) {
	r, mock := newResourceRouter(t)

	expectProject(mock)
	mock.ExpectQuery("SELECT.*FROM targets").
		WillReturnRows(sqlmock.NewRows(targetColumns).
			AddRow("tgt-1", "proj-1", "prod", "Production", time.Now(), time.Now()))
	mock.ExpectQuery("SELECT.*FROM schema_versions").
		WithArgs("tgt-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "target_id", "version", "is_composable", "created_at"}))

	w := getResource(r, "/api/v1/organizations/acme/projects/api/targets/prod/versions/latest")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body = %s", w.Code, w.Body.String())
	}
}
