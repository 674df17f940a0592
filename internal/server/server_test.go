package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rulesweb/internal/cache"
	"git.home.luguber.info/inful/rulesweb/internal/config"
	"git.home.luguber.info/inful/rulesweb/internal/content"
	"git.home.luguber.info/inful/rulesweb/internal/transform"
	"git.home.luguber.info/inful/rulesweb/internal/versioning"
)

type site struct {
	root string
	web  string
	css  string
	pdf  string
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func newSite(t *testing.T) site {
	t.Helper()
	root := t.TempDir()
	s := site{
		root: root,
		web:  filepath.Join(root, "web"),
		css:  filepath.Join(root, "css"),
		pdf:  filepath.Join(root, "pdf"),
	}
	writeFile(t, filepath.Join(s.web, "01-intro.html"), `<h1 id="Úvod">Úvod</h1><p><a href="https://other.example.org/x">jinde</a></p>`)
	writeFile(t, filepath.Join(s.web, "02-tables.md"), "---\ntitle: Pravidla boje\n---\n"+
		"<table><caption>Zbroj</caption><tr><th>Zbroj</th></tr></table>\n\n"+
		"<table><caption>Štíty</caption><tr><th>Štít</th></tr></table>\n")
	writeFile(t, filepath.Join(s.css, "main.css"), "body{}")
	writeFile(t, filepath.Join(s.css, "generic", "base.css"), "html{}")
	writeFile(t, filepath.Join(s.pdf, "rules.pdf"), "%PDF-1.4 rules")
	return s
}

func (s site) config(t *testing.T, extra string) *config.Config {
	t.Helper()
	yaml := fmt.Sprintf(`site:
  title: Pravidla
content:
  web_dir: %s
  pdf_dir: %s
assets:
  styles:
    - root: %s
      url_prefix: /css
versioning:
  strategy: static
  static: 1.0.0
links:
  own_hosts: [pravidla.example.com]
  instance_domain: example.com
menu:
  home_label: Domů
monitoring:
  metrics:
    enabled: true
server:
  addr: 127.0.0.1:0
%s`, s.web, s.pdf, s.css, extra)
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := NewApp(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestResolve(t *testing.T) {
	tests := []struct {
		target   string
		kind     content.Kind
		identity string
		tables   string
	}{
		{"/", content.KindMain, "/", ""},
		{"/?trial=1&fbclid=abc", content.KindMain, "/", ""},
		{"/?b=2&a=1", content.KindMain, "/?a=1&b=2", ""},
		{"/tables?tables=zbroj", content.KindTables, "/tables?tables=zbroj", "zbroj"},
		{"/tabulky?tabulky=stity", content.KindTables, "/tables?tables=stity", "stity"},
		{"/?tables=zbroj", content.KindTables, "/tables?tables=zbroj", "zbroj"},
		{"/pdf", content.KindPDF, "/pdf", ""},
		{"/gateway/", content.KindGateway, "/gateway", ""},
		{"/missing/page", content.KindNotFound, "/", ""},
		{"/other", content.KindNotFound, "/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			u, err := url.Parse(tt.target)
			require.NoError(t, err)
			route := Resolve(u)
			assert.Equal(t, tt.kind, route.Kind)
			assert.Equal(t, tt.identity, route.Identity)
			assert.Equal(t, tt.tables, route.Tables)
		})
	}
}

func TestHandler_MainPageIsBuiltOnceAndCached(t *testing.T) {
	s := newSite(t)
	app := newTestApp(t, s.config(t, ""))
	h := NewHandler(app)

	first := get(t, h, "/")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "text/html; charset=utf-8", first.Header().Get("Content-Type"))

	body := first.Body.String()
	assert.Contains(t, body, `id="`+transform.MenuWrapperID+`"`)
	assert.Contains(t, body, `/css/generic/base.css?version=1.0.0`)
	assert.Contains(t, body, `data-content-version="1.0.0"`)
	assert.Contains(t, body, `id="uvod"`)
	assert.Contains(t, body, "<title>Pravidla boje</title>")
	assert.Contains(t, body, "external-url")

	second := get(t, h, "/?trial=1")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, body, second.Body.String())

	store, ok := app.Store.(*cache.MemoryStore)
	require.True(t, ok)
	assert.Equal(t, 1, store.Len())
}

func TestHandler_VersionChangeRebuilds(t *testing.T) {
	s := newSite(t)
	app := newTestApp(t, s.config(t, ""))
	h := NewHandler(app)

	require.Contains(t, get(t, h, "/").Body.String(), `data-content-version="1.0.0"`)

	app.Versions = versioning.Static("1.0.1")
	app.Head = content.NewHead(content.HeadConfig{Title: "Pravidla"}, app.Styles, app.Scripts, app.Versions, nil)

	assert.Contains(t, get(t, h, "/").Body.String(), `data-content-version="1.0.1"`)
}

func TestHandler_TablesPage(t *testing.T) {
	s := newSite(t)
	h := NewHandler(newTestApp(t, s.config(t, "")))

	rec := get(t, h, "/tabulky?tabulky=Zbroj")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="zbroj"`)
	assert.NotContains(t, body, "Štít")
	assert.Contains(t, body, "<title>Tables for Pravidla</title>")
}

func TestHandler_PDFBypassesCache(t *testing.T) {
	s := newSite(t)
	app := newTestApp(t, s.config(t, ""))
	h := NewHandler(app)

	rec := get(t, h, "/pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4 rules", rec.Body.String())
	assert.Equal(t, 0, app.Store.(*cache.MemoryStore).Len())
}

func TestHandler_NotFoundAndGateway(t *testing.T) {
	s := newSite(t)
	h := NewHandler(newTestApp(t, s.config(t, "")))

	rec := get(t, h, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="not_found"`)

	rec = get(t, h, "/gateway")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="gateway"`)
}

func TestHandler_RedirectIsServedButNotCached(t *testing.T) {
	s := newSite(t)
	app := newTestApp(t, s.config(t, "redirects:\n  /:\n    target: https://pravidla.example.com/new\n    after_seconds: 5\n"))
	h := NewHandler(app)

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="meta_redirect"`)
	assert.Contains(t, rec.Body.String(), "5; url=https://pravidla.example.com/new")

	route := Resolve(&url.URL{Path: "/"})
	lookup := app.Handle(route).Lookup(context.Background())
	require.True(t, lookup.Hit)
	assert.NotContains(t, string(lookup.Body), "meta_redirect")
}

func TestHandler_StaticAssets(t *testing.T) {
	s := newSite(t)
	h := NewHandler(newTestApp(t, s.config(t, "")))

	rec := get(t, h, "/css/generic/base.css?version=1.0.0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "html{}", rec.Body.String())
	assert.Equal(t, immutableCacheControl, rec.Header().Get("Cache-Control"))
}

func TestHandler_HealthAndMetrics(t *testing.T) {
	s := newSite(t)
	h := NewHandler(newTestApp(t, s.config(t, "")))

	rec := get(t, h, healthPath)
	require.Equal(t, http.StatusOK, rec.Code)
	var health healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "1.0.0", health.Content)
	assert.Equal(t, "production", health.Environment)

	get(t, h, "/")
	rec = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rulesweb_render_outcomes_total")
	assert.Contains(t, rec.Body.String(), "rulesweb_cache_lookups_total")
}

func TestHandler_Errors(t *testing.T) {
	s := newSite(t)
	cfg := s.config(t, "")
	cfg.Content.WebDir = filepath.Join(s.root, "missing")
	h := NewHandler(newTestApp(t, cfg))

	assert.Equal(t, http.StatusBadGateway, get(t, h, "/").Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("x")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "GET, HEAD", rec.Header().Get("Allow"))
}

func TestHandler_DevelopmentAlwaysRebuilds(t *testing.T) {
	s := newSite(t)
	app := newTestApp(t, s.config(t, "environment: development\n"))
	h := NewHandler(app)

	require.Equal(t, http.StatusOK, get(t, h, "/").Code)
	writeFile(t, filepath.Join(s.web, "03-new.html"), `<p id="fresh">nové</p>`)
	assert.Contains(t, get(t, h, "/").Body.String(), `id="fresh"`)
}

func TestServer_StartServeStop(t *testing.T) {
	s := newSite(t)
	srv := New(newTestApp(t, s.config(t, "")))

	require.NoError(t, srv.Start(context.Background()))
	assert.Error(t, srv.Start(context.Background()))

	resp, err := http.Get("http://" + srv.Addr().String() + healthPath)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	require.NoError(t, srv.Stop(ctx))
}

func TestScheduler_CleansStaleEntries(t *testing.T) {
	store := cache.NewMemoryStore()
	ctx := context.Background()
	stale := cache.NewWebCache(store, versioning.Static("0.9.0"), cache.TagMain, "/")
	require.NoError(t, stale.Store(ctx, []byte("<html></html>")))
	require.Equal(t, 1, store.Len())

	scheduler, err := NewScheduler(nil)
	require.NoError(t, err)
	cleaner := cache.NewCleaner(store, versioning.Static("1.0.0"), nil, nil)
	_, err = scheduler.ScheduleCacheClean(ctx, cleaner, 20*time.Millisecond)
	require.NoError(t, err)
	scheduler.Start()
	t.Cleanup(func() { _ = scheduler.Stop() })

	assert.Eventually(t, func() bool { return store.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestDetermineCacheControl(t *testing.T) {
	assert.Equal(t, immutableCacheControl, determineCacheControl("/css/main.css"))
	assert.Equal(t, immutableCacheControl, determineCacheControl("/js/APP.JS"))
	assert.Equal(t, "public, max-age=604800", determineCacheControl("/favicon.ico"))
	assert.Equal(t, "public, max-age=86400", determineCacheControl("/rules.pdf"))
	assert.Equal(t, "no-cache, must-revalidate", determineCacheControl("/"))
	assert.Empty(t, determineCacheControl("/data.json"))
}
