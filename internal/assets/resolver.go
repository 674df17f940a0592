package assets

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ferrors "git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
	"git.home.luguber.info/inful/rulesweb/internal/logfields"
)

const (
	// DefaultSuffix is the suffix tracked when none is configured.
	DefaultSuffix = ".css"
	// ScriptSuffix is the suffix used for the script layer.
	ScriptSuffix = ".js"

	ignoredDirName = "ignore"
)

var skippedNames = map[string]struct{}{
	".":          {},
	"..":         {},
	".gitignore": {},
}

const (
	msgRootMissing = "asset resolution root not found"
	msgScanFailed  = "asset directory could not be scanned"
)

var (
	// ErrRootMissing matches (via errors.Is) the error returned when the scan root does not exist.
	ErrRootMissing = ferrors.NotFoundError(msgRootMissing).Build()
	// ErrScanIO matches (via errors.Is) the error reported for an unreadable subtree.
	ErrScanIO = ferrors.FileSystemError(nil, msgScanFailed).Warning().Build()
)

// Layer is one discovered asset file and the depth at which it was found.
type Layer struct {
	Depth        int
	RelativePath string
}

// Resolver scans directory trees for files with one suffix.
// It holds no state between calls; every Resolve is a fresh snapshot.
type Resolver struct {
	suffix       string
	sortSiblings bool
	logger       *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSortedSiblings orders assets of the same depth lexicographically by
// relative path instead of by directory enumeration order.
func WithSortedSiblings() Option {
	return func(r *Resolver) { r.sortSiblings = true }
}

// WithLogger sets the logger used to report unreadable subtrees.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver tracking files ending in suffix (".css" when empty).
func NewResolver(suffix string, opts ...Option) *Resolver {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	r := &Resolver{suffix: suffix, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Suffix returns the tracked file suffix.
func (r *Resolver) Suffix() string {
	return r.suffix
}

// Resolve returns the relative paths of all tracked files below root in link order.
//
// A missing root fails with ErrRootMissing. Unreadable subdirectories are
// left out of the result and reported as a joined error next to the paths
// that could be resolved, so callers may either ignore or propagate them.
func (r *Resolver) Resolve(root string) ([]string, error) {
	layers, err := r.Layers(root)
	if layers == nil {
		return nil, err
	}
	paths := make([]string, len(layers))
	for i, l := range layers {
		paths[i] = l.RelativePath
	}
	return paths, err
}

// Layers is Resolve with the depth of every file.
func (r *Resolver) Layers(root string) ([]Layer, error) {
	root = trimRoot(root)
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrRootMissing.WithContext("root", root)
		}
		return nil, ferrors.FileSystemError(err, "asset resolution root not accessible").
			Fatal().WithContext("root", root).Build()
	}
	if !info.IsDir() {
		return nil, ErrRootMissing.WithContext("root", root).WithContext("reason", "not a directory")
	}

	var scanErrs []error
	byLevel := r.scan(root, "", 1, &scanErrs)

	levels := make([]int, 0, len(byLevel))
	for level := range byLevel {
		levels = append(levels, level)
	}
	// deeper means more generic and goes first
	sort.Sort(sort.Reverse(sort.IntSlice(levels)))

	layers := make([]Layer, 0)
	for _, level := range levels {
		sameLevel := byLevel[level]
		if r.sortSiblings {
			sort.SliceStable(sameLevel, func(i, j int) bool {
				return sameLevel[i].RelativePath < sameLevel[j].RelativePath
			})
		}
		layers = append(layers, sameLevel...)
	}
	return layers, errors.Join(scanErrs...)
}

// scan returns the tracked files below dir grouped by their depth. The
// recursion merges child groups into the caller's groups without renumbering.
func (r *Resolver) scan(dir, relative string, level int, scanErrs *[]error) map[int][]Layer {
	entries, err := readDirUnsorted(dir)
	if err != nil {
		r.logger.Warn("Skipping unreadable asset directory",
			logfields.Path(dir), logfields.Suffix(r.suffix), logfields.Error(err))
		*scanErrs = append(*scanErrs, ErrScanIO.WithContext("dir", dir).WithContext("cause", err.Error()))
		return nil
	}

	found := make(map[int][]Layer)
	for _, entry := range entries {
		name := entry.Name()
		if _, skip := skippedNames[name]; skip {
			continue
		}
		entryPath := filepath.Join(dir, name)
		entryRelative := joinRelative(relative, name)

		isDir, isRegular := entryKind(entry, entryPath)
		switch {
		case isDir:
			if name == ignoredDirName {
				continue
			}
			for childLevel, childLayers := range r.scan(entryPath, entryRelative, level+1, scanErrs) {
				found[childLevel] = append(found[childLevel], childLayers...)
			}
		case isRegular && strings.HasSuffix(name, r.suffix):
			found[level] = append(found[level], Layer{Depth: level, RelativePath: entryRelative})
		}
	}
	return found
}

// readDirUnsorted lists dir in the order the filesystem returns entries.
// os.ReadDir would sort by name, which this package deliberately does not do.
func readDirUnsorted(dir string) ([]fs.DirEntry, error) {
	f, err := os.Open(dir) // #nosec G304 -- dir is below the configured asset root
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return f.ReadDir(-1)
}

// entryKind follows symlinks so linked asset folders are scanned like real ones.
func entryKind(entry fs.DirEntry, path string) (isDir, isRegular bool) {
	mode := entry.Type()
	if mode&fs.ModeSymlink != 0 {
		info, err := os.Stat(path)
		if err != nil {
			return false, false
		}
		return info.IsDir(), info.Mode().IsRegular()
	}
	return mode.IsDir(), mode.IsRegular()
}

func joinRelative(relative, name string) string {
	if relative == "" {
		return name
	}
	return relative + "/" + name
}

func trimRoot(root string) string {
	trimmed := strings.TrimRight(root, `/\`)
	if trimmed == "" {
		return root
	}
	return trimmed
}
