package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/rulesweb/internal/assets"
	"git.home.luguber.info/inful/rulesweb/internal/cache"
	"git.home.luguber.info/inful/rulesweb/internal/config"
	"git.home.luguber.info/inful/rulesweb/internal/content"
	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
	"git.home.luguber.info/inful/rulesweb/internal/logfields"
	"git.home.luguber.info/inful/rulesweb/internal/markdown"
	"git.home.luguber.info/inful/rulesweb/internal/metrics"
	"git.home.luguber.info/inful/rulesweb/internal/notify"
	"git.home.luguber.info/inful/rulesweb/internal/transform"
	"git.home.luguber.info/inful/rulesweb/internal/versioning"
)

const (
	notFoundBody = `<h1 id="not_found">404</h1><p>Tato stránka neexistuje.</p>`
	gatewayBody  = `<div id="gateway"><p>Pro přístup k pravidlům je potřeba licence.</p></div>`
)

// App holds the collaborators built from one configuration. It is shared by
// the HTTP server and the command line.
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	Store        cache.Store
	Versions     versioning.Provider
	Styles       *assets.Cache
	Scripts      *assets.Cache
	Head         *content.Head
	Pipeline     *transform.Pipeline
	Orchestrator *content.Orchestrator
	Publisher    notify.Publisher
	Recorder     metrics.Recorder
	Registry     *prom.Registry
	Redirects    content.RedirectRules

	markdown *markdown.Renderer
}

// NewApp builds every collaborator cfg describes. Close releases them.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Recorder: metrics.NoopRecorder{},
		markdown: markdown.NewRenderer(),
	}

	if cfg.Monitoring.Metrics.Enabled {
		app.Registry = prom.NewRegistry()
		app.Recorder = metrics.NewPrometheusRecorder(app.Registry)
	}

	store, err := newStore(cfg.Cache)
	if err != nil {
		return nil, err
	}
	app.Store = store

	app.Versions = newVersionProvider(cfg.Versioning)

	var resolverOpts []assets.Option
	if cfg.Assets.SortSiblings {
		resolverOpts = append(resolverOpts, assets.WithSortedSiblings())
	}
	resolverOpts = append(resolverOpts, assets.WithLogger(logger))
	app.Styles = assets.NewCache(assets.NewResolver(assets.DefaultSuffix, resolverOpts...), app.Recorder, logger)
	app.Scripts = assets.NewCache(assets.NewResolver(assets.ScriptSuffix, resolverOpts...), app.Recorder, logger)

	app.Head = content.NewHead(content.HeadConfig{
		Title:       cfg.Site.Title,
		Description: cfg.Site.Description,
		Favicon:     cfg.Site.Favicon,
		Language:    cfg.Site.Language,
		Styles:      assetDirs(cfg.Assets.Styles),
		Scripts:     assetDirs(cfg.Assets.Scripts),
	}, app.Styles, app.Scripts, app.Versions, logger)

	app.Pipeline = transform.New(transform.Options{
		Environment:       cfg.Environment,
		MenuHTML:          menuOf(cfg.Menu).Render(),
		OwnHosts:          cfg.Links.OwnHosts,
		InstanceDomain:    cfg.Links.InstanceDomain,
		LocalDomain:       cfg.Links.LocalDomain,
		TableAnchorPrefix: cfg.Links.TableAnchorPrefix,
		RepositoryURL:     cfg.Links.RepositoryURL,
		Branch:            cfg.Links.Branch,
		DisplayMode:       cfg.Site.DisplayMode,
		Logger:            logger,
	})

	app.Publisher = notify.NoopPublisher{}
	if n := cfg.Notify.NATS; n != nil {
		publisher, err := notify.NewNATSPublisher(notify.NATSConfig{
			URL:            n.URL,
			Subject:        n.Subject,
			JetStream:      n.JetStream,
			ConnectTimeout: n.ConnectTimeout,
			PublishTimeout: n.PublishTimeout,
		}, logger)
		if err != nil {
			// pages are still served, just not announced
			logger.Warn("Render notifications disabled", logfields.Error(err))
		} else {
			app.Publisher = publisher
		}
	}

	opts := []content.Option{
		content.WithRecorder(app.Recorder),
		content.WithPublisher(app.Publisher),
		content.WithLogger(logger),
		content.WithCoalescing(cfg.Cache.CoalesceBuilds),
	}
	if cfg.Cache.MemoryCeilingMB > 0 {
		opts = append(opts, content.WithMemoryCeiling(cfg.Cache.MemoryCeilingMB<<20))
	}
	app.Orchestrator = content.NewOrchestrator(app.Pipeline, opts...)

	app.Redirects = make(content.RedirectRules, len(cfg.Redirects))
	for path, rd := range cfg.Redirects {
		app.Redirects[path] = content.Redirect{Target: rd.Target, AfterSeconds: rd.AfterSeconds}
	}
	return app, nil
}

func newStore(cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Backend {
	case config.CacheBackendFS:
		return cache.NewFSStore(cfg.Path)
	case config.CacheBackendSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, errors.FileSystemError(err, "failed to create cache directory").
					WithContext("path", dir).Fatal().Build()
			}
		}
		return cache.NewSQLiteStore(cfg.Path)
	default:
		return cache.NewMemoryStore(), nil
	}
}

func newVersionProvider(cfg config.VersioningConfig) versioning.Provider {
	var provider versioning.Provider
	switch cfg.Strategy {
	case config.VersionGit:
		provider = versioning.NewGit(cfg.RepoPath, cfg.MinorVersion)
	case config.VersionFingerprint:
		provider = versioning.NewFingerprint(cfg.RepoPath)
	default:
		provider = versioning.Static(cfg.Static)
	}
	if cfg.CacheTTL > 0 {
		return versioning.NewCached(provider, cfg.CacheTTL)
	}
	return provider
}

func assetDirs(dirs []config.AssetDirConfig) []content.AssetDir {
	out := make([]content.AssetDir, len(dirs))
	for i, d := range dirs {
		out[i] = content.AssetDir{Root: d.Root, URLPrefix: d.URLPrefix}
	}
	return out
}

func menuOf(cfg config.MenuConfig) content.Menu {
	m := content.Menu{HomeLabel: cfg.HomeLabel, HomeHref: cfg.HomeHref}
	for _, item := range cfg.Items {
		m.Items = append(m.Items, content.MenuItem{Label: item.Label, Href: item.Href})
	}
	return m
}

// Route is the page a request resolves to.
type Route struct {
	Kind     content.Kind
	Identity string
	// Tables is the raw list of wanted table ids for the tables page.
	Tables string
}

// Resolve maps a request URL onto the fixed route table.
func Resolve(u *url.URL) Route {
	identity := cache.Identity(u)
	canonical, err := url.Parse(identity)
	if err != nil {
		return Route{Kind: content.KindNotFound, Identity: "/"}
	}
	switch canonical.Path {
	case "/":
		return Route{Kind: content.KindMain, Identity: identity}
	case cache.TablesPath:
		return Route{Kind: content.KindTables, Identity: identity, Tables: canonical.Query().Get(cache.TablesParam)}
	case "/pdf":
		return Route{Kind: content.KindPDF, Identity: "/pdf"}
	case "/gateway":
		return Route{Kind: content.KindGateway, Identity: "/gateway"}
	default:
		// every unknown path shares one not found page
		return Route{Kind: content.KindNotFound, Identity: "/"}
	}
}

// Source returns the raw content of a route.
func (a *App) Source(route Route) content.Source {
	main := content.NewWebSource(a.Config.Content.WebDir, a.Head, a.markdown)
	switch route.Kind {
	case content.KindTables:
		return content.NewTablesSource(main, a.Head, route.Tables)
	case content.KindPDF:
		return &content.PDFSource{Dir: a.Config.Content.PDFDir}
	case content.KindGateway:
		return &content.PageSource{
			Head:      a.Head,
			Title:     a.Config.Site.Title,
			Body:      gatewayBody,
			BodyFile:  a.Config.Content.GatewayFile,
			BodyClass: "gateway",
		}
	case content.KindNotFound:
		return &content.PageSource{
			Head:      a.Head,
			Title:     a.Config.Site.Title,
			Body:      notFoundBody,
			BodyFile:  a.Config.Content.NotFoundFile,
			BodyClass: "not-found",
		}
	default:
		return main
	}
}

// Handle returns the cache slot of a route.
func (a *App) Handle(route Route) *cache.WebCache {
	return cache.NewWebCache(a.Store, a.Versions, route.Kind.Tag(), route.Identity,
		cache.WithDevelopmentMode(a.Config.IsDevelopment()),
		cache.WithHandleLogger(a.Logger))
}

// Render produces the page of u.
func (a *App) Render(ctx context.Context, u *url.URL) (Route, []byte, error) {
	route := Resolve(u)
	var handle cache.Handle
	if route.Kind.Cached() {
		handle = a.Handle(route)
	}
	body, err := a.Orchestrator.Render(ctx, route.Kind, a.Source(route), handle, a.Redirects.Match(u.Path))
	return route, body, err
}

// Cleaner returns a cleaner of the configured store.
func (a *App) Cleaner() *cache.Cleaner {
	return cache.NewCleaner(a.Store, a.Versions, a.Recorder, a.Logger)
}

// Close releases the store, the publisher and any asset watchers.
func (a *App) Close() error {
	return stderrors.Join(
		a.Styles.Close(),
		a.Scripts.Close(),
		a.Publisher.Close(),
		a.Store.Close(),
	)
}
