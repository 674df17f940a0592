package assets

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte("/* "+f+" */"), 0o600))
	}
}

func TestResolve_DeeperFilesComeFirst(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/x.css", "a/b/y.css", "a/ignore/z.css")

	got, err := NewResolver(".css").Resolve(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/y.css", "a/x.css"}, got)
}

func TestResolve_RootFilesComeLast(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "main.css", "generic/base/reset.css", "generic/fonts.css")

	got, err := NewResolver(".css").Resolve(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"generic/base/reset.css", "generic/fonts.css", "main.css"}, got)
}

func TestResolve_EmptyAndNonMatching(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		got, err := NewResolver(".css").Resolve(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NotNil(t, got)
	})

	t.Run("no matching suffix", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "a/readme.md", "b/app.js", ".gitignore")
		got, err := NewResolver(".css").Resolve(root)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestResolve_SkipsIgnoredSubtreeAtAnyDepth(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "ignore/top.css", "a/b/ignore/c/deep.css", "a/b/kept.css")

	got, err := NewResolver(".css").Resolve(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/kept.css"}, got)
}

func TestResolve_SuffixIsConfigurable(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "app.js", "lib/vendor.js", "style.css")

	got, err := NewResolver(ScriptSuffix).Resolve(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/vendor.js", "app.js"}, got)
}

func TestResolve_DefaultSuffix(t *testing.T) {
	assert.Equal(t, DefaultSuffix, NewResolver("").Suffix())
}

func TestResolve_TrailingSeparatorOnRoot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "x.css")

	got, err := NewResolver(".css").Resolve(root + string(os.PathSeparator))
	require.NoError(t, err)
	assert.Equal(t, []string{"x.css"}, got)
}

func TestResolve_MissingRoot(t *testing.T) {
	got, err := NewResolver(".css").Resolve(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Nil(t, got)
	require.ErrorIs(t, err, ErrRootMissing)
	assert.Equal(t, ferrors.CategoryNotFound, ferrors.GetCategory(err))
}

func TestResolve_RootIsFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "x.css")

	_, err := NewResolver(".css").Resolve(filepath.Join(root, "x.css"))
	require.ErrorIs(t, err, ErrRootMissing)
}

func TestResolve_UnreadableSubtreeKeepsPartialResult(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	root := t.TempDir()
	writeTree(t, root, "ok/a.css", "locked/b.css", "root.css")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o750) })

	got, err := NewResolver(".css").Resolve(root)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrScanIO)
	assert.Equal(t, []string{"ok/a.css", "root.css"}, got)
}

func TestLayers_ReportsDepth(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/b/y.css", "a/x.css", "z.css")

	layers, err := NewResolver(".css").Layers(root)
	require.NoError(t, err)
	assert.Equal(t, []Layer{
		{Depth: 3, RelativePath: "a/b/y.css"},
		{Depth: 2, RelativePath: "a/x.css"},
		{Depth: 1, RelativePath: "z.css"},
	}, layers)
}

func TestResolve_SortedSiblings(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "c.css", "a.css", "b.css", "sub/z.css", "sub/y.css")

	got, err := NewResolver(".css", WithSortedSiblings()).Resolve(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"sub/y.css", "sub/z.css", "a.css", "b.css", "c.css"}, got)
}

func TestResolve_IsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/x.css", "a/b/y.css", "c/d/e/f.css", "top.css")

	r := NewResolver(".css")
	first, err := r.Resolve(root)
	require.NoError(t, err)
	second, err := r.Resolve(root)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolve_FollowsSymlinkedDirectories(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	shared := t.TempDir()
	writeTree(t, shared, "shared.css")
	root := t.TempDir()
	require.NoError(t, os.Symlink(shared, filepath.Join(root, "linked")))

	got, err := NewResolver(".css").Resolve(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"linked/shared.css"}, got)
}
