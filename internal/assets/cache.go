package assets

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/rulesweb/internal/logfields"
	"git.home.luguber.info/inful/rulesweb/internal/metrics"
)

// Cache memoizes resolved asset lists per root until the root changes on disk.
type Cache struct {
	resolver *Resolver
	recorder metrics.Recorder
	logger   *slog.Logger

	mu      sync.RWMutex
	entries map[string][]string
	// generation changes on every invalidation; a resolve only memoizes
	// when no invalidation happened while it ran.
	generation uint64

	watchMu  sync.Mutex
	watcher  *fsnotify.Watcher
	watched  []string
	stopChan chan struct{}
}

// NewCache creates a cache in front of resolver. A nil recorder disables metrics.
func NewCache(resolver *Resolver, recorder metrics.Recorder, logger *slog.Logger) *Cache {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		resolver: resolver,
		recorder: recorder,
		logger:   logger,
		entries:  make(map[string][]string),
	}
}

// Resolver returns the underlying resolver.
func (c *Cache) Resolver() *Resolver {
	return c.resolver
}

// Get returns the asset list for root, resolving it on first use.
// Results that came with scan errors are returned but not memoized.
func (c *Cache) Get(root string) ([]string, error) {
	key := cacheKey(root)
	c.mu.RLock()
	cached, ok := c.entries[key]
	generation := c.generation
	c.mu.RUnlock()
	if ok {
		return append([]string(nil), cached...), nil
	}

	start := time.Now()
	paths, err := c.resolver.Resolve(root)
	c.recorder.ObserveAssetScan(c.resolver.Suffix(), time.Since(start), len(paths))
	if err != nil {
		return paths, err
	}

	c.mu.Lock()
	if c.generation == generation {
		c.entries[key] = paths
	}
	c.mu.Unlock()
	return append([]string(nil), paths...), nil
}

// Invalidate forgets every memoized root at or below path.
func (c *Cache) Invalidate(path string) {
	target := cacheKey(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	for key := range c.entries {
		if key == target || isWithin(target, key) || isWithin(key, target) {
			delete(c.entries, key)
		}
	}
}

// Reset forgets all memoized roots.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.generation++
	c.entries = make(map[string][]string)
	c.mu.Unlock()
}

// Watch starts invalidating roots when files below them change.
// Watching stops when ctx is done or Close is called.
func (c *Cache) Watch(ctx context.Context, roots ...string) error {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	if c.watcher != nil {
		return fmt.Errorf("asset cache is already watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create asset watcher: %w", err)
	}
	for _, root := range roots {
		if err := addTree(watcher, cacheKey(root)); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch asset root %s: %w", root, err)
		}
		c.watched = append(c.watched, cacheKey(root))
	}
	c.watcher = watcher
	c.stopChan = make(chan struct{})

	c.logger.Info("Watching asset roots", logfields.Count(len(roots)), logfields.Suffix(c.resolver.Suffix()))
	go c.watchLoop(ctx, watcher, c.stopChan)
	return nil
}

// Close stops the watcher, if any.
func (c *Cache) Close() error {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	if c.watcher == nil {
		return nil
	}
	close(c.stopChan)
	err := c.watcher.Close()
	c.watcher = nil
	c.watched = nil
	return err
}

func (c *Cache) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, stop <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				// new folders must be watched as well
				_ = addTree(watcher, event.Name)
			}
			c.logger.Debug("Asset change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			c.invalidateContaining(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.logger.Error("Asset watcher error", logfields.Error(err))
			c.Reset()
		}
	}
}

func (c *Cache) invalidateContaining(changed string) {
	changed = filepath.Clean(changed)
	c.watchMu.Lock()
	roots := append([]string(nil), c.watched...)
	c.watchMu.Unlock()
	for _, root := range roots {
		if changed == root || isWithin(root, changed) {
			c.Invalidate(root)
		}
	}
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ignoredDirName && path != root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func cacheKey(root string) string {
	return filepath.Clean(trimRoot(root))
}

func isWithin(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
