// Package cache persists built pages keyed by request identity and tagged with
// the content version they were built from.
package cache

import (
	"context"
	stderrors "errors"
	"time"
)

// Entry is one cached page.
type Entry struct {
	// Key is the slot the entry lives in, see SlotKey.
	Key string
	// Identity is the canonical request identity the page was built for.
	Identity string
	// VersionStamp is the content version at build time. An entry whose stamp
	// differs from the current version is treated as absent.
	VersionStamp string
	Body         []byte
	CreatedAt    time.Time
}

// EntryInfo describes an entry without its body.
type EntryInfo struct {
	Key          string
	Identity     string
	VersionStamp string
	CreatedAt    time.Time
	Size         int64
}

// Store persists entries. Writes to one key replace the previous entry
// (last writer wins). Implementations are safe for concurrent use.
type Store interface {
	// Get returns the entry for key, or ErrNotFound.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put stores entry under entry.Key, replacing any previous one.
	Put(ctx context.Context, entry *Entry) error

	// Delete removes the entry for key. Deleting a missing key returns ErrNotFound.
	Delete(ctx context.Context, key string) error

	// List describes all stored entries.
	List(ctx context.Context) ([]EntryInfo, error)

	// Close releases any resources held by the store.
	Close() error
}

// ErrNotFound is returned when no entry exists for a key.
type ErrNotFound struct {
	Key string
}

func (e ErrNotFound) Error() string {
	return "cache entry not found: " + e.Key
}

// IsNotFound returns true if err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return stderrors.As(err, &nf)
}

func copyEntry(e *Entry) *Entry {
	cp := *e
	cp.Body = append([]byte(nil), e.Body...)
	return &cp
}
