// Package jobs contains background workers that run on a schedule.
// The target cache refresher keeps target list snapshots warm for recently
// viewed projects, so layout requests keep hitting fresh cache entries instead
// of paying a database round trip after every TTL expiry.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/schema-registry/console-backend/internal/db/models"
	"github.com/schema-registry/console-backend/internal/db/repositories"
	"github.com/schema-registry/console-backend/internal/query"
	"github.com/schema-registry/console-backend/internal/safego"
)

// viewedRetention is how long a project stays in the refresh set after its
// last layout view.
const viewedRetention = time.Hour

// TargetsSnapshotKey is the cache key of a project's target list snapshot.
// The layout handler and the refresher must agree on it.
func TargetsSnapshotKey(orgCleanID, projectCleanID string) string {
	return "layout:targets:" + orgCleanID + "/" + projectCleanID
}

type viewedProject struct {
	orgCleanID     string
	projectCleanID string
	lastViewed     time.Time
}

// TargetCacheRefresher re-warms target list snapshots for projects that were
// viewed recently. Views are reported by the layout handler through Track.
type TargetCacheRefresher struct {
	executor    *query.Executor
	orgRepo     *repositories.OrganizationRepository
	projectRepo *repositories.ProjectRepository
	targetRepo  *repositories.TargetRepository
	interval    time.Duration

	mu     sync.Mutex
	viewed map[string]*viewedProject

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewTargetCacheRefresher creates a refresher that re-warms snapshots every
// interval.
func NewTargetCacheRefresher(
	executor *query.Executor,
	orgRepo *repositories.OrganizationRepository,
	projectRepo *repositories.ProjectRepository,
	targetRepo *repositories.TargetRepository,
	interval time.Duration,
) *TargetCacheRefresher {
	return &TargetCacheRefresher{
		executor:    executor,
		orgRepo:     orgRepo,
		projectRepo: projectRepo,
		targetRepo:  targetRepo,
		interval:    interval,
		viewed:      make(map[string]*viewedProject),
		stopCh:      make(chan struct{}),
	}
}

// Track records that a project's layout was viewed. Safe for concurrent use.
func (j *TargetCacheRefresher) Track(orgCleanID, projectCleanID string) {
	key := TargetsSnapshotKey(orgCleanID, projectCleanID)

	j.mu.Lock()
	defer j.mu.Unlock()
	entry, ok := j.viewed[key]
	if !ok {
		entry = &viewedProject{orgCleanID: orgCleanID, projectCleanID: projectCleanID}
		j.viewed[key] = entry
	}
	entry.lastViewed = time.Now()
}

// Start launches the refresh loop. Call Stop to end it.
func (j *TargetCacheRefresher) Start(ctx context.Context) {
	safego.Go(func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				j.refreshAll(ctx)
			case <-j.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	})
}

// Stop ends the refresh loop. Safe to call more than once.
func (j *TargetCacheRefresher) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
}

// refreshAll re-warms the snapshot of every tracked project and drops entries
// that have not been viewed within the retention window.
func (j *TargetCacheRefresher) refreshAll(ctx context.Context) {
	now := time.Now()

	j.mu.Lock()
	batch := make([]*viewedProject, 0, len(j.viewed))
	for key, entry := range j.viewed {
		if now.Sub(entry.lastViewed) > viewedRetention {
			delete(j.viewed, key)
			continue
		}
		batch = append(batch, entry)
	}
	j.mu.Unlock()

	for _, entry := range batch {
		if err := j.refreshOne(ctx, entry); err != nil {
			slog.Warn("target cache refresh failed",
				"organization", entry.orgCleanID,
				"project", entry.projectCleanID,
				"error", err)
		}
	}
}

func (j *TargetCacheRefresher) refreshOne(ctx context.Context, entry *viewedProject) error {
	key := TargetsSnapshotKey(entry.orgCleanID, entry.projectCleanID)
	return query.Warm(ctx, j.executor, "targets", key, func(ctx context.Context) (*models.TargetList, error) {
		org, err := j.orgRepo.GetByCleanID(ctx, entry.orgCleanID)
		if err != nil {
			return nil, err
		}
		if org == nil {
			return &models.TargetList{Items: []*models.Target{}}, nil
		}

		project, err := j.projectRepo.GetByCleanID(ctx, org.ID, entry.projectCleanID)
		if err != nil {
			return nil, err
		}
		if project == nil {
			return &models.TargetList{Items: []*models.Target{}}, nil
		}

		return j.targetRepo.ListByProject(ctx, project.ID)
	})
}
