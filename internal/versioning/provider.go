// Package versioning determines the content version that built pages are
// stamped with. A change of version invalidates every cached page.
package versioning

import (
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
)

// Provider reports the version of the content currently being served.
type Provider interface {
	CurrentPatchVersion() (string, error)
}

// Static always reports the same version.
type Static string

func (s Static) CurrentPatchVersion() (string, error) {
	v := strings.TrimSpace(string(s))
	if v == "" {
		return "", errors.NewError(errors.CategoryVersion, "no static version configured").Build()
	}
	return v, nil
}

// Cached memoizes another provider's answer for a fixed time.
type Cached struct {
	inner Provider
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	version   string
	expiresAt time.Time
}

// NewCached wraps inner. A non-positive ttl memoizes forever.
func NewCached(inner Provider, ttl time.Duration) *Cached {
	return &Cached{inner: inner, ttl: ttl, now: time.Now}
}

func (c *Cached) CurrentPatchVersion() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.version != "" && (c.ttl <= 0 || c.now().Before(c.expiresAt)) {
		return c.version, nil
	}
	v, err := c.inner.CurrentPatchVersion()
	if err != nil {
		return "", err
	}
	c.version = v
	c.expiresAt = c.now().Add(c.ttl)
	return v, nil
}

// Forget drops the memoized version.
func (c *Cached) Forget() {
	c.mu.Lock()
	c.version = ""
	c.mu.Unlock()
}
