package jobs

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/schema-registry/console-backend/internal/db/models"
	"github.com/schema-registry/console-backend/internal/db/repositories"
	"github.com/schema-registry/console-backend/internal/query"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func newRefresher(t *testing.T, cache query.Cache) (*TargetCacheRefresher, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	sdb := sqlx.NewDb(db, "sqlmock")

	j := NewTargetCacheRefresher(
		query.NewExecutor(cache, time.Minute),
		repositories.NewOrganizationRepository(sdb),
		repositories.NewProjectRepository(sdb),
		repositories.NewTargetRepository(sdb),
		time.Minute,
	)
	return j, mock
}

func TestRefreshAll_WarmsTrackedProject(t *testing.T) {
	cache := newMemCache()
	j, mock := newRefresher(t, cache)

	mock.ExpectQuery("SELECT.*FROM organizations").
		WillReturnRows(sqlmock.NewRows([]string{"id", "clean_id", "name", "created_at", "updated_at"}).
			AddRow("org-1", "acme", "Acme", time.Now(), time.Now()))
	mock.ExpectQuery("SELECT.*FROM projects").
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "clean_id", "name", "type", "created_at", "updated_at"}).
			AddRow("proj-1", "org-1", "api", "API", "single", time.Now(), time.Now()))
	mock.ExpectQuery("SELECT.*FROM targets").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "clean_id", "name", "created_at", "updated_at"}).
			AddRow("tgt-1", "proj-1", "prod", "Production", time.Now(), time.Now()))

	j.Track("acme", "api")
	j.refreshAll(context.Background())

	raw, ok, _ := cache.Get(context.Background(), TargetsSnapshotKey("acme", "api"))
	if !ok {
		t.Fatal("snapshot not warmed")
	}

	var list models.TargetList
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if list.Total != 1 || list.Items[0].CleanID != "prod" {
		t.Errorf("snapshot = %+v, want one target prod", list)
	}
}

func TestRefreshAll_DropsIdleEntries(t *testing.T) {
	cache := newMemCache()
	j, _ := newRefresher(t, cache)

	j.Track("acme", "api")
	j.mu.Lock()
	for _, entry := range j.viewed {
		entry.lastViewed = time.Now().Add(-2 * time.Hour)
	}
	j.mu.Unlock()

	j.refreshAll(context.Background())

	j.mu.Lock()
	remaining := len(j.viewed)
	j.mu.Unlock()
	if remaining != 0 {
		t.Errorf("viewed entries = %d, want 0 after retention window", remaining)
	}
	if _, ok, _ := cache.Get(context.Background(), TargetsSnapshotKey("acme", "api")); ok {
		t.Error("idle project snapshot should not be warmed")
	}
}

func TestRefreshAll_MissingProjectWarmsEmptyList(t *testing.T) {
	cache := newMemCache()
	j, mock := newRefresher(t, cache)

	mock.ExpectQuery("SELECT.*FROM organizations").
		WillReturnRows(sqlmock.NewRows([]string{"id", "clean_id", "name", "created_at", "updated_at"}))

	j.Track("ghost", "api")
	j.refreshAll(context.Background())

	raw, ok, _ := cache.Get(context.Background(), TargetsSnapshotKey("ghost", "api"))
	if !ok {
		t.Fatal("snapshot not warmed")
	}
	if !strings.Contains(string(raw), `"total":0`) {
		t.Errorf("snapshot = %s, want empty list", raw)
	}
}

func TestTrack_RefreshesLastViewed(t *testing.T) {
	cache := newMemCache()
	j, _ := newRefresher(t, cache)

	j.Track("acme", "api")
	j.mu.Lock()
	first := j.viewed[TargetsSnapshotKey("acme", "api")].lastViewed
	j.mu.Unlock()

	time.Sleep(5 * time.Millisecond)
	j.Track("acme", "api")

	j.mu.Lock()
	second := j.viewed[TargetsSnapshotKey("acme", "api")].lastViewed
	j.mu.Unlock()

	if !second.After(first) {
		t.Error("second Track call did not refresh lastViewed")
	}
}
