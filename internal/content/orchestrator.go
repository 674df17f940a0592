package content

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"git.home.luguber.info/inful/rulesweb/internal/cache"
	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
	"git.home.luguber.info/inful/rulesweb/internal/logfields"
	"git.home.luguber.info/inful/rulesweb/internal/metrics"
	"git.home.luguber.info/inful/rulesweb/internal/notify"
	"git.home.luguber.info/inful/rulesweb/internal/observability"
	"git.home.luguber.info/inful/rulesweb/internal/transform"
)

// Orchestrator decides between serving a cached page and building a new one.
//
// Without coalescing, concurrent misses for one slot each build the page and
// the last write wins.
type Orchestrator struct {
	pipeline  *transform.Pipeline
	recorder  metrics.Recorder
	publisher notify.Publisher
	logger    *slog.Logger
	memory    *memoryCeiling
	coalesce  bool
	group     singleflight.Group
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

func WithPublisher(p notify.Publisher) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.publisher = p
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMemoryCeiling raises the runtime memory limit to bytes while a page is built.
func WithMemoryCeiling(bytes int64) Option {
	return func(o *Orchestrator) { o.memory = &memoryCeiling{limit: bytes} }
}

// WithCoalescing lets concurrent misses of one slot share a single build.
func WithCoalescing(enabled bool) Option {
	return func(o *Orchestrator) { o.coalesce = enabled }
}

// NewOrchestrator creates an orchestrator running pipeline on every build.
func NewOrchestrator(pipeline *transform.Pipeline, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		pipeline:  pipeline,
		recorder:  metrics.NoopRecorder{},
		publisher: notify.NoopPublisher{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Render produces the bytes served for one request.
//
// PDF sources are returned as is. Other kinds are served from handle when it
// holds a page of the current version, and built, stored and served
// otherwise. The redirect, if any, is applied to the served bytes only.
func (o *Orchestrator) Render(ctx context.Context, kind Kind, source Source, handle cache.Handle, redirect *Redirect) ([]byte, error) {
	ctx = observability.WithRenderID(ctx, uuid.NewString())
	ctx = observability.WithKind(ctx, kind.String())
	logger := observability.Logger(ctx, o.logger)
	label := kind.String()

	if !kind.Cached() {
		value, err := source.Value()
		if err != nil {
			o.recorder.IncRenderOutcome(label, metrics.OutcomeFailed)
			return nil, upstreamError(err)
		}
		o.recorder.IncRenderOutcome(label, metrics.OutcomeBypassed)
		return []byte(value), nil
	}

	var body []byte
	outcome := metrics.OutcomeServed
	if lookup := handle.Lookup(ctx); lookup.Hit {
		o.recorder.IncCacheLookup(label, metrics.LookupHit)
		logger.Debug("Serving cached page", logfields.CacheID(handle.ID()))
		body = lookup.Body
	} else {
		o.recorder.IncCacheLookup(label, metrics.LookupMiss)
		built, err := o.build(ctx, logger, kind, source, handle)
		if err != nil {
			o.recorder.IncRenderOutcome(label, metrics.OutcomeFailed)
			return nil, err
		}
		body = built
		outcome = metrics.OutcomeBuilt
	}

	if redirect != nil {
		redirected, err := InjectRedirect(body, *redirect)
		if err != nil {
			o.recorder.IncRenderOutcome(label, metrics.OutcomeFailed)
			return nil, err
		}
		logger.Debug("Redirect applied", logfields.Redirect(redirect.Target))
		body = redirected
	}
	o.recorder.IncRenderOutcome(label, outcome)
	return body, nil
}

func (o *Orchestrator) build(ctx context.Context, logger *slog.Logger, kind Kind, source Source, handle cache.Handle) ([]byte, error) {
	if !o.coalesce {
		return o.buildAndStore(ctx, logger, kind, source, handle)
	}
	v, err, shared := o.group.Do(handle.ID(), func() (any, error) {
		return o.buildAndStore(ctx, logger, kind, source, handle)
	})
	if err != nil {
		return nil, err
	}
	body := v.([]byte)
	if shared {
		logger.Debug("Joined in-flight build", logfields.CacheID(handle.ID()))
	}
	return body, nil
}

// buildAndStore runs the pipeline once and writes the redirect-free page to handle.
func (o *Orchestrator) buildAndStore(ctx context.Context, logger *slog.Logger, kind Kind, source Source, handle cache.Handle) ([]byte, error) {
	release := o.memory.acquire()
	defer release()

	start := o.now()
	doc, err := source.Document()
	if err != nil {
		return nil, upstreamError(err)
	}

	version := ""
	store := handle.Store
	if v, ok := handle.(cache.Versioned); ok {
		if version, err = v.Version(); err != nil {
			logger.Warn("Building without content version", logfields.Error(err))
			version = ""
		} else {
			// the entry must carry the version the page was built from
			store = func(ctx context.Context, body []byte) error {
				return v.StoreVersion(ctx, version, body)
			}
		}
	}

	built, err := o.pipeline.Run(doc, transform.BuildInfo{Version: version, CacheID: handle.ID(), CachedAt: start})
	if err != nil {
		return nil, upstreamError(err)
	}
	body, err := built.Render()
	if err != nil {
		return nil, upstreamError(err)
	}
	o.recorder.ObserveBuildDuration(kind.String(), o.now().Sub(start))

	if err := store(ctx, body); err != nil {
		o.recorder.IncCacheWriteFailure(kind.String())
		logger.Warn("Failed to cache built page", logfields.CacheID(handle.ID()), logfields.Error(err))
		return body, nil
	}
	logger.Info("Page built and cached",
		logfields.CacheID(handle.ID()), logfields.Version(version), logfields.Bytes(len(body)),
		logfields.Duration(o.now().Sub(start)))

	o.announce(ctx, logger, kind, handle, version, len(body))
	return body, nil
}

func (o *Orchestrator) announce(ctx context.Context, logger *slog.Logger, kind Kind, handle cache.Handle, version string, size int) {
	event := notify.RenderedEvent{
		RenderID:   observability.GetContext(ctx).RenderID,
		Kind:       kind.String(),
		Version:    version,
		CacheID:    handle.ID(),
		Bytes:      size,
		RenderedAt: o.now(),
	}
	if ident, ok := handle.(interface{ Identity() string }); ok {
		event.Identity = ident.Identity()
	}
	if err := o.publisher.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish rendered event", logfields.Error(err))
	}
}

// upstreamError keeps classified source errors (content, not found) and
// classifies everything else as content failures.
func upstreamError(err error) error {
	if errors.IsClassified(err) {
		return err
	}
	return errors.ContentError(err, "failed to build page").Build()
}
