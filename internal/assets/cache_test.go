package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rulesweb/internal/metrics"
)

type scanRecorder struct {
	scans int
	files int
	// onScan runs after a resolve and before its result is memoized.
	onScan func()
}

func (r *scanRecorder) IncCacheLookup(string, metrics.LookupResult) {}
func (r *scanRecorder) IncCacheWriteFailure(string)                 {}
func (r *scanRecorder) ObserveBuildDuration(string, time.Duration)  {}
func (r *scanRecorder) IncRenderOutcome(string, metrics.Outcome)    {}
func (r *scanRecorder) AddCacheEntriesRemoved(int)                  {}

func (r *scanRecorder) ObserveAssetScan(_ string, _ time.Duration, files int) {
	r.scans++
	r.files = files
	if r.onScan != nil {
		r.onScan()
	}
}

func TestCache_MemoizesUntilInvalidated(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/x.css")
	rec := &scanRecorder{}
	c := NewCache(NewResolver(".css"), rec, nil)

	first, err := c.Get(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/x.css"}, first)

	writeTree(t, root, "top.css")
	second, err := c.Get(root)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, rec.scans)

	c.Invalidate(root)
	third, err := c.Get(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/x.css", "top.css"}, third)
	assert.Equal(t, 2, rec.scans)
	assert.Equal(t, 2, rec.files)
}

func TestCache_InvalidationDuringResolveIsNotLost(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/x.css")
	rec := &scanRecorder{}
	c := NewCache(NewResolver(".css"), rec, nil)
	rec.onScan = func() {
		rec.onScan = nil
		writeTree(t, root, "top.css")
		c.Invalidate(root)
	}

	first, err := c.Get(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/x.css"}, first)

	second, err := c.Get(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/x.css", "top.css"}, second)
	assert.Equal(t, 2, rec.scans)

	third, err := c.Get(root)
	require.NoError(t, err)
	assert.Equal(t, second, third)
	assert.Equal(t, 2, rec.scans)
}

func TestCache_ReturnedSliceIsACopy(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "x.css")
	c := NewCache(NewResolver(".css"), nil, nil)

	got, err := c.Get(root)
	require.NoError(t, err)
	got[0] = "mutated"

	again, err := c.Get(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"x.css"}, again)
}

func TestCache_MissingRootIsNotMemoized(t *testing.T) {
	root := filepath.Join(t.TempDir(), "later")
	c := NewCache(NewResolver(".css"), nil, nil)

	_, err := c.Get(root)
	require.ErrorIs(t, err, ErrRootMissing)

	writeTree(t, root, "x.css")
	got, err := c.Get(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"x.css"}, got)
}

func TestCache_InvalidateBelowRoot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/x.css")
	c := NewCache(NewResolver(".css"), nil, nil)
	_, err := c.Get(root)
	require.NoError(t, err)

	writeTree(t, root, "a/y.css")
	c.Invalidate(filepath.Join(root, "a"))

	got, err := c.Get(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a/x.css", "a/y.css"}, got)
}

func TestCache_WatchInvalidatesOnChange(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/x.css")
	c := NewCache(NewResolver(".css"), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Watch(ctx, root))
	t.Cleanup(func() { _ = c.Close() })

	_, err := c.Get(root)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "new.css"), []byte("b{}"), 0o600))

	assert.Eventually(t, func() bool {
		got, err := c.Get(root)
		return err == nil && len(got) == 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestCache_WatchTwiceFails(t *testing.T) {
	root := t.TempDir()
	c := NewCache(NewResolver(".css"), nil, nil)
	require.NoError(t, c.Watch(context.Background(), root))
	t.Cleanup(func() { _ = c.Close() })
	require.Error(t, c.Watch(context.Background(), root))
}

func TestCache_CloseWithoutWatch(t *testing.T) {
	c := NewCache(NewResolver(".css"), nil, nil)
	assert.NoError(t, c.Close())
}
