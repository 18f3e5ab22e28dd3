package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/gh-inbox/internal/model"
	"github.com/nhle/gh-inbox/internal/store"
)

// Cleaner runs the retention sweep for a user.
type Cleaner struct {
	store store.Store
	log   *zap.Logger
}

// NewCleaner creates a Cleaner. A nil logger disables logging.
func NewCleaner(s store.Store, log *zap.Logger) *Cleaner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cleaner{store: s, log: log}
}

// PolicyFromConfig derives the store cleanup policy from configuration,
// anchored at the given time. A zero retention disables the sweep by
// returning false.
func PolicyFromConfig(cfg model.CleanupConfig, now time.Time) (store.CleanupPolicy, bool) {
	if cfg.RetentionDays <= 0 {
		return store.CleanupPolicy{}, false
	}
	return store.CleanupPolicy{
		CutoffDate:     now.AddDate(0, 0, -cfg.RetentionDays),
		ProtectStarred: cfg.ProtectStarred,
		ProtectTagged:  cfg.ProtectTagged,
	}, true
}

// Sweep deletes one batch of retention-eligible notifications and
// returns how many rows went.
func (c *Cleaner) Sweep(
	ctx context.Context,
	userID int64,
	policy store.CleanupPolicy,
	batchSize int,
) (int64, error) {
	eligible, err := c.store.EligibleForCleanupCount(ctx, userID, policy)
	if err != nil {
		return 0, fmt.Errorf("counting eligible notifications: %w", err)
	}
	if eligible == 0 {
		return 0, nil
	}

	deleted, err := c.store.DeleteEligible(ctx, userID, policy, batchSize)
	if err != nil {
		return 0, fmt.Errorf("deleting eligible notifications: %w", err)
	}

	c.log.Info("retention sweep complete",
		zap.Int64("user_id", userID),
		zap.Int64("eligible", eligible),
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", policy.CutoffDate),
	)
	return deleted, nil
}
