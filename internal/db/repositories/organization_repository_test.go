package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

// ---------------------------------------------------------------------------
// Column definitions
// ---------------------------------------------------------------------------

var orgCols = []string{"id", "clean_id", "name", "created_at", "updated_at"}
var orgMemberWithRoleCols = []string{
	"organization_id", "user_id", "role_template_id", "created_at",
	"user_name", "user_email",
	"role_template_name", "role_template_display_name", "role_template_scopes",
}

// ---------------------------------------------------------------------------
// Row builders
// ---------------------------------------------------------------------------

func sampleOrgRow() *sqlmock.Rows {
	return sqlmock.NewRows(orgCols).
		AddRow("org-1", "acme", "Acme Corp", time.Now(), time.Now())
}

func emptyOrgRow() *sqlmock.Rows {
	return sqlmock.NewRows(orgCols)
}

func newOrgRepo(t *testing.T) (*OrganizationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewOrganizationRepository(sqlx.NewDb(db, "sqlmock")), mock
}

// ---------------------------------------------------------------------------
// GetByCleanID
// ---------------------------------------------------------------------------

func TestOrgGetByCleanID_Found(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectQuery("SELECT.*FROM organizations").
		WithArgs("acme").
		WillReturnRows(sampleOrgRow())

	org, err := repo.GetByCleanID(context.Background(), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org == nil {
		t.Fatal("expected org, got nil")
	}
	if org.CleanID != "acme" {
		t.Errorf("CleanID = %s, want acme", org.CleanID)
	}
	if org.Name != "Acme Corp" {
		t.Errorf("Name = %s, want Acme Corp", org.Name)
	}
}

func TestOrgGetByCleanID_NotFound(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectQuery("SELECT.*FROM organizations").
		WillReturnRows(emptyOrgRow())

	org, err := repo.GetByCleanID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org != nil {
		t.Error("expected nil for missing org, got non-nil")
	}
}

// ---------------------------------------------------------------------------
// GetMemberWithRole
// ---------------------------------------------------------------------------

func TestGetMemberWithRole_Found(t *testing.T) {
	repo, mock := newOrgRepo(t)
	rtID := "rt-1"
	rows := sqlmock.NewRows(orgMemberWithRoleCols).
		AddRow("org-1", "user-1", rtID, time.Now(),
			"Jane Doe", "jane@acme.io",
			"developer", "Developer",
			[]byte(`["registry:read", "registry:write", "projects:read"]`))
	mock.ExpectQuery("SELECT.*FROM organization_members").
		WithArgs("org-1", "user-1").
		WillReturnRows(rows)

	member, err := repo.GetMemberWithRole(context.Background(), "org-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if member == nil {
		t.Fatal("expected member, got nil")
	}
	if len(member.RoleTemplateScopes) != 3 {
		t.Errorf("scopes = %v, want 3 entries", member.RoleTemplateScopes)
	}
	if member.RoleTemplateScopes[0] != "registry:read" {
		t.Errorf("first scope = %s, want registry:read", member.RoleTemplateScopes[0])
	}
}

func TestGetMemberWithRole_NotAMember(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectQuery("SELECT.*FROM organization_members").
		WillReturnRows(sqlmock.NewRows(orgMemberWithRoleCols))

	member, err := repo.GetMemberWithRole(context.Background(), "org-1", "stranger")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if member != nil {
		t.Error("expected nil for non-member, got non-nil")
	}
}

// ---------------------------------------------------------------------------
// GetRoleTemplateByName
// ---------------------------------------------------------------------------

func TestGetRoleTemplateByName(t *testing.T) {
	repo, mock := newOrgRepo(t)
	rows := sqlmock.NewRows([]string{"id", "name", "display_name", "scopes", "created_at"}).
		AddRow("rt-1", "viewer", "Viewer", []byte(`["registry:read"]`), time.Now())
	mock.ExpectQuery("SELECT.*FROM role_templates").
		WithArgs("viewer").
		WillReturnRows(rows)

	tpl, err := repo.GetRoleTemplateByName(context.Background(), "viewer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl == nil {
		t.Fatal("expected role template, got nil")
	}
	if len(tpl.Scopes) != 1 || tpl.Scopes[0] != "registry:read" {
		t.Errorf("Scopes = %v, want [registry:read]", tpl.Scopes)
	}
}
