package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	entriesDir   = "entries"
	metaSuffix   = ".meta.json"
	bodySuffix   = ".html"
	tmpSuffix    = ".tmp"
	dirPerm      = 0o750
	filePerm     = 0o600
	minKeyLength = 3
)

// FSStore keeps entries on disk, sharded by the first two key characters:
//
//	<base>/
//	  entries/
//	    ab/
//	      cd1234....html       (page body)
//	      cd1234....meta.json  (identity, version stamp, creation time)
type FSStore struct {
	basePath string
	mu       sync.RWMutex
}

type fsMeta struct {
	Identity     string    `json:"identity"`
	VersionStamp string    `json:"version_stamp"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewFSStore creates the directory layout below basePath.
func NewFSStore(basePath string) (*FSStore, error) {
	if err := os.MkdirAll(filepath.Join(basePath, entriesDir), dirPerm); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", basePath, err)
	}
	return &FSStore{basePath: basePath}, nil
}

// BasePath returns the cache directory.
func (s *FSStore) BasePath() string {
	return s.basePath
}

func (s *FSStore) Get(_ context.Context, key string) (*Entry, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	// #nosec G304 -- path is built from a validated hex key
	body, err := os.ReadFile(s.bodyPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound{Key: key}
		}
		return nil, fmt.Errorf("read cache entry: %w", err)
	}
	meta, err := s.readMeta(key)
	if err != nil {
		return nil, err
	}
	return &Entry{
		Key:          key,
		Identity:     meta.Identity,
		VersionStamp: meta.VersionStamp,
		Body:         body,
		CreatedAt:    meta.CreatedAt,
	}, nil
}

func (s *FSStore) Put(_ context.Context, entry *Entry) error {
	if err := validateKey(entry.Key); err != nil {
		return err
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	meta, err := json.Marshal(fsMeta{Identity: entry.Identity, VersionStamp: entry.VersionStamp, CreatedAt: createdAt})
	if err != nil {
		return fmt.Errorf("marshal cache metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.bodyPath(entry.Key)), dirPerm); err != nil {
		return fmt.Errorf("create entry directory: %w", err)
	}
	// metadata last so a reader never sees a new stamp with an old body
	if err := writeAtomic(s.bodyPath(entry.Key), entry.Body); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := writeAtomic(s.metaPath(entry.Key), meta); err != nil {
		return fmt.Errorf("write cache metadata: %w", err)
	}
	return nil
}

func (s *FSStore) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteUnlocked(key)
}

func (s *FSStore) List(_ context.Context) ([]EntryInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var infos []EntryInfo
	root := filepath.Join(s.basePath, entriesDir)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, bodySuffix) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		key := strings.ReplaceAll(strings.TrimSuffix(rel, bodySuffix), string(filepath.Separator), "")
		info := EntryInfo{Key: key}
		if meta, err := s.readMeta(key); err == nil {
			info.Identity = meta.Identity
			info.VersionStamp = meta.VersionStamp
			info.CreatedAt = meta.CreatedAt
		}
		if fi, err := d.Info(); err == nil {
			info.Size = fi.Size()
		}
		infos = append(infos, info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk cache entries: %w", err)
	}
	return infos, nil
}

func (s *FSStore) Close() error {
	return nil
}

func (s *FSStore) deleteUnlocked(key string) error {
	if err := os.Remove(s.bodyPath(key)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound{Key: key}
		}
		return fmt.Errorf("delete cache entry: %w", err)
	}
	_ = os.Remove(s.metaPath(key))
	// drops the shard directory once it is empty
	_ = os.Remove(filepath.Dir(s.bodyPath(key)))
	return nil
}

func (s *FSStore) entryPath(key string) string {
	return filepath.Join(s.basePath, entriesDir, key[:2], key[2:])
}

func (s *FSStore) bodyPath(key string) string {
	return s.entryPath(key) + bodySuffix
}

func (s *FSStore) metaPath(key string) string {
	return s.entryPath(key) + metaSuffix
}

func (s *FSStore) readMeta(key string) (fsMeta, error) {
	// #nosec G304 -- path is built from a validated hex key
	data, err := os.ReadFile(s.metaPath(key))
	if err != nil {
		return fsMeta{}, fmt.Errorf("read cache metadata: %w", err)
	}
	var meta fsMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return fsMeta{}, fmt.Errorf("unmarshal cache metadata: %w", err)
	}
	return meta, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + tmpSuffix
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func validateKey(key string) error {
	if len(key) < minKeyLength {
		return fmt.Errorf("invalid cache key %q", key)
	}
	for _, r := range key {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return fmt.Errorf("invalid cache key %q", key)
		}
	}
	return nil
}
