// Package notify announces freshly built pages to other services.
package notify

import (
	"context"
	"time"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "rulesweb.content.rendered"

// RenderedEvent is published after a page was built and cached.
type RenderedEvent struct {
	RenderID   string    `json:"render_id"`
	Identity   string    `json:"identity"`
	Kind       string    `json:"kind"`
	Version    string    `json:"version"`
	CacheID    string    `json:"cache_id"`
	Bytes      int       `json:"bytes"`
	RenderedAt time.Time `json:"rendered_at"`
}

// Publisher delivers events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event RenderedEvent) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, RenderedEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
