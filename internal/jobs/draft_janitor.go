package jobs

import (
	"context"
	"log/slog"
	"time"

	"sellerdesk/internal/cache"
)

// DraftPurger deletes non-final drafts last updated before a cutoff.
type DraftPurger interface {
	DeleteStaleDrafts(ctx context.Context, before time.Time) (int64, error)
}

// DraftJanitor removes abandoned drafts in the background.
type DraftJanitor struct {
	drafts    DraftPurger
	cache     *cache.Cache
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewDraftJanitor creates a new draft janitor.
func NewDraftJanitor(drafts DraftPurger, c *cache.Cache, interval, retention time.Duration, logger *slog.Logger) *DraftJanitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DraftJanitor{
		drafts:    drafts,
		cache:     c,
		interval:  interval,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Start begins the cleanup loop and blocks until ctx is cancelled.
func (j *DraftJanitor) Start(ctx context.Context) {
	j.logger.Info("draft janitor started", "interval", j.interval, "retention", j.retention)

	// Run immediately on start
	j.sweep(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("draft janitor stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

// sweep deletes stale drafts and drops cached generations that may
// reference them. It returns the number of drafts removed.
func (j *DraftJanitor) sweep(ctx context.Context) int64 {
	cutoff := j.now().Add(-j.retention)
	n, err := j.drafts.DeleteStaleDrafts(ctx, cutoff)
	if err != nil {
		j.logger.Warn("draft janitor: failed to delete stale drafts", "error", err)
		return 0
	}
	if n == 0 {
		return 0
	}

	keys := j.cache.InvalidatePattern(ctx, "listing:draft:*")
	j.logger.Info("draft janitor: removed stale drafts", "drafts", n, "cache_keys", keys, "cutoff", cutoff)
	return n
}
