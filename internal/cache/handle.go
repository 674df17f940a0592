package cache

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
	"git.home.luguber.info/inful/rulesweb/internal/logfields"
	"git.home.luguber.info/inful/rulesweb/internal/versioning"
)

// Lookup is the result of probing a cache slot.
type Lookup struct {
	Hit  bool
	Body []byte
}

// Miss is the Lookup of an absent, stale or unreadable slot.
var Miss = Lookup{}

// Handle is the cache slot of one request.
type Handle interface {
	Lookup(ctx context.Context) Lookup
	Store(ctx context.Context, body []byte) error
	ID() string
}

// Versioned is implemented by handles that know the content version they stamp.
// StoreVersion writes body stamped with a version the caller read earlier, so
// a page built from one version is never stored under a later one.
type Versioned interface {
	Version() (string, error)
	StoreVersion(ctx context.Context, version string, body []byte) error
}

var errNotValid = errors.CacheError(nil, "cached content is not valid").Build()

// WebCache is the Handle of one (tag, identity) slot in a Store.
type WebCache struct {
	store       Store
	versions    versioning.Provider
	tag         Tag
	identity    string
	key         string
	development bool
	logger      *slog.Logger
	now         func() time.Time
}

// HandleOption configures a WebCache.
type HandleOption func(*WebCache)

// WithDevelopmentMode makes every lookup miss so pages are always rebuilt.
func WithDevelopmentMode(development bool) HandleOption {
	return func(w *WebCache) { w.development = development }
}

// WithHandleLogger sets the logger for read and write failures.
func WithHandleLogger(logger *slog.Logger) HandleOption {
	return func(w *WebCache) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWebCache creates the handle for identity within the tag's slots.
func NewWebCache(store Store, versions versioning.Provider, tag Tag, identity string, opts ...HandleOption) *WebCache {
	w := &WebCache{
		store:    store,
		versions: versions,
		tag:      tag,
		identity: identity,
		key:      SlotKey(tag, identity),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ID is the slot key. It is stable across content versions.
func (w *WebCache) ID() string {
	return w.key
}

// Identity returns the canonical request identity.
func (w *WebCache) Identity() string {
	return w.identity
}

// Tag returns the slot tag.
func (w *WebCache) Tag() Tag {
	return w.tag
}

// Version returns the current content version.
func (w *WebCache) Version() (string, error) {
	return w.versions.CurrentPatchVersion()
}

// Lookup returns the stored body when it was built from the current version.
// Read failures are logged and reported as a miss.
func (w *WebCache) Lookup(ctx context.Context) Lookup {
	if w.development {
		return Miss
	}
	version, err := w.Version()
	if err != nil {
		w.logger.Warn("Cannot determine content version, treating cache as empty",
			logfields.CacheID(w.key), logfields.Error(err))
		return Miss
	}
	entry, err := w.store.Get(ctx, w.key)
	if err != nil {
		if !IsNotFound(err) {
			w.logger.Warn("Cache read failed, treating as miss",
				logfields.CacheID(w.key), logfields.Identity(w.identity),
				logfields.Error(errors.CacheError(err, "failed to read cache entry").Build()))
		}
		return Miss
	}
	if entry.VersionStamp != version {
		w.logger.Debug("Cached entry is stale",
			logfields.CacheID(w.key), logfields.Version(entry.VersionStamp), slog.String("current_version", version))
		return Miss
	}
	return Lookup{Hit: true, Body: entry.Body}
}

// Store writes body into the slot stamped with the current version.
// Failures are returned as cache category warnings.
func (w *WebCache) Store(ctx context.Context, body []byte) error {
	version, err := w.Version()
	if err != nil {
		return errors.CacheError(err, "failed to write cache entry").
			WithContext("cache_id", w.key).WithContext("reason", "unknown version").Build()
	}
	return w.StoreVersion(ctx, version, body)
}

// StoreVersion writes body into the slot stamped with version.
func (w *WebCache) StoreVersion(ctx context.Context, version string, body []byte) error {
	err := w.store.Put(ctx, &Entry{
		Key:          w.key,
		Identity:     w.identity,
		VersionStamp: version,
		Body:         body,
		CreatedAt:    w.now(),
	})
	if err != nil {
		return errors.CacheError(err, "failed to write cache entry").
			WithContext("cache_id", w.key).WithContext("identity", w.identity).Build()
	}
	return nil
}

// IsValid reports whether the slot holds a page of the current version.
func (w *WebCache) IsValid(ctx context.Context) bool {
	return w.Lookup(ctx).Hit
}

// CachedContent returns the cached page or an error when there is no valid one.
func (w *WebCache) CachedContent(ctx context.Context) ([]byte, error) {
	lookup := w.Lookup(ctx)
	if !lookup.Hit {
		return nil, errNotValid.WithContext("cache_id", w.key)
	}
	return lookup.Body, nil
}

// CacheContent stores body, see Store.
func (w *WebCache) CacheContent(ctx context.Context, body []byte) error {
	return w.Store(ctx, body)
}
