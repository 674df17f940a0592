package cache

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
	"git.home.luguber.info/inful/rulesweb/internal/logfields"
	"git.home.luguber.info/inful/rulesweb/internal/metrics"
	"git.home.luguber.info/inful/rulesweb/internal/versioning"
)

// staleDeleter is implemented by stores that can drop stale entries in bulk.
type staleDeleter interface {
	DeleteStale(ctx context.Context, version string) (int, error)
}

// Cleaner removes entries built from another content version.
type Cleaner struct {
	store    Store
	versions versioning.Provider
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewCleaner creates a cleaner. A nil recorder disables metrics.
func NewCleaner(store Store, versions versioning.Provider, recorder metrics.Recorder, logger *slog.Logger) *Cleaner {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{store: store, versions: versions, recorder: recorder, logger: logger}
}

// Clean deletes stale entries and returns how many were removed. Entries that
// vanish concurrently are not an error.
func (c *Cleaner) Clean(ctx context.Context) (int, error) {
	version, err := c.versions.CurrentPatchVersion()
	if err != nil {
		return 0, err
	}

	removed := 0
	if bulk, ok := c.store.(staleDeleter); ok {
		removed, err = bulk.DeleteStale(ctx, version)
		if err != nil {
			return 0, errors.CacheError(err, "failed to clean cache").Build()
		}
	} else {
		infos, err := c.store.List(ctx)
		if err != nil {
			return 0, errors.CacheError(err, "failed to list cache entries").Build()
		}
		for _, info := range infos {
			if info.VersionStamp == version {
				continue
			}
			if err := c.store.Delete(ctx, info.Key); err != nil {
				if IsNotFound(err) {
					continue
				}
				c.recorder.AddCacheEntriesRemoved(removed)
				return removed, errors.CacheError(err, "failed to delete stale cache entry").
					WithContext("cache_id", info.Key).Build()
			}
			removed++
		}
	}

	c.recorder.AddCacheEntriesRemoved(removed)
	c.logger.Info("Cache cleaned", logfields.Version(version), logfields.Count(removed))
	return removed, nil
}
