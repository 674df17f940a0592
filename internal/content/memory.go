package content

import (
	"runtime/debug"
	"sync"
)

// memoryCeiling raises the runtime soft memory limit while at least one build
// holds it and restores the previous limit when the last holder releases.
type memoryCeiling struct {
	limit int64

	mu     sync.Mutex
	active int
	saved  int64
}

// acquire raises the limit and returns the release func. It never lowers an
// already higher limit.
func (m *memoryCeiling) acquire() func() {
	if m == nil || m.limit <= 0 {
		return func() {}
	}
	m.mu.Lock()
	if m.active == 0 {
		m.saved = debug.SetMemoryLimit(-1)
		if m.limit > m.saved {
			debug.SetMemoryLimit(m.limit)
		}
	}
	m.active++
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.active--
			if m.active == 0 {
				debug.SetMemoryLimit(m.saved)
			}
		})
	}
}
