package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/rulesweb/internal/assets"
	"git.home.luguber.info/inful/rulesweb/internal/document"
	ferrors "git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
	"git.home.luguber.info/inful/rulesweb/internal/versioning"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
}

func newTestHead(t *testing.T) (*Head, string) {
	t.Helper()
	cssRoot := t.TempDir()
	writeFiles(t, cssRoot, map[string]string{
		"main.css":           "body{}",
		"generic/base.css":   "html{}",
		"ignore/draft.css":   "x{}",
		"generic/.gitignore": "*",
	})
	jsRoot := t.TempDir()
	writeFiles(t, jsRoot, map[string]string{"app.js": "", "vendor/lib.js": ""})

	head := NewHead(HeadConfig{
		Title:       "Pravidla",
		Description: "Pravidla DrD+",
		Favicon:     "/favicon.ico",
		Styles:      []AssetDir{{Root: cssRoot, URLPrefix: "/css"}},
		Scripts:     []AssetDir{{Root: jsRoot, URLPrefix: "/js"}},
	},
		assets.NewCache(assets.NewResolver(assets.DefaultSuffix), nil, nil),
		assets.NewCache(assets.NewResolver(assets.ScriptSuffix), nil, nil),
		versioning.Static("1.2.0"), nil)
	return head, cssRoot
}

func TestHead_LinksAssetsInLayerOrder(t *testing.T) {
	head, _ := newTestHead(t)

	markup, err := head.Render("")
	require.NoError(t, err)

	base := strings.Index(markup, `/css/generic/base.css?version=1.2.0`)
	main := strings.Index(markup, `/css/main.css?version=1.2.0`)
	require.NotEqual(t, -1, base)
	require.NotEqual(t, -1, main)
	assert.Less(t, base, main, "deeper stylesheet is linked first")
	assert.NotContains(t, markup, "draft.css")
	assert.Less(t, strings.Index(markup, "/js/vendor/lib.js"), strings.Index(markup, "/js/app.js"))
	assert.Contains(t, markup, "<title>Pravidla</title>")
	assert.Contains(t, markup, `content="Pravidla DrD+"`)
}

func TestHead_MissingAssetRootFails(t *testing.T) {
	head := NewHead(HeadConfig{Styles: []AssetDir{{Root: filepath.Join(t.TempDir(), "missing")}}},
		assets.NewCache(assets.NewResolver(""), nil, nil), nil, nil, nil)

	_, err := head.Render("x")
	require.ErrorIs(t, err, assets.ErrRootMissing)
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "/css/a/b.css", joinURL("/css/", "a/b.css"))
	assert.Equal(t, "/a.css", joinURL("", "a.css"))
	assert.Equal(t, "https://cdn.example.com/x/a.css", joinURL("https://cdn.example.com/x/", "a.css"))
}

func TestMenu_Render(t *testing.T) {
	m := Menu{HomeLabel: "Domů", Items: []MenuItem{{Label: "Tabulky", Href: "/tables"}, {Label: "<PDF>", Href: "/pdf"}}}
	out := m.Render()

	assert.Contains(t, out, `<a class="home" href="/">Domů</a>`)
	assert.Contains(t, out, `<li><a href="/tables">Tabulky</a></li>`)
	assert.Contains(t, out, "&lt;PDF&gt;")
	assert.Equal(t, `<nav class="menu"></nav>`, Menu{}.Render())
}

func TestWebSource_AssemblesPartsInNameOrder(t *testing.T) {
	head, _ := newTestHead(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"02-combat.md":  "---\ntitle: Boj\n---\n## Boj na blízko\n",
		"01-intro.html": `<p id="intro">Úvod</p>`,
		"notes.txt":     "skipped",
		".hidden.html":  "skipped",
	})

	src := NewWebSource(dir, head, nil)
	value, err := src.Value()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(value, "<!DOCTYPE html>"))
	assert.Less(t, strings.Index(value, "Úvod"), strings.Index(value, "Boj na blízko"))
	assert.NotContains(t, value, "skipped")
	assert.Contains(t, value, "<title>Boj</title>")

	doc, err := src.Document()
	require.NoError(t, err)
	assert.NotNil(t, doc.ElementByID("intro"))
}

func TestWebSource_MissingDirIsContentError(t *testing.T) {
	_, err := NewWebSource(filepath.Join(t.TempDir(), "missing"), nil, nil).Document()
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryContent, ferrors.GetCategory(err))
}

func TestTablesSource_OnlyWantedTables(t *testing.T) {
	head, _ := newTestHead(t)
	base := &stringSource{value: `<html><body>
<table><caption>Zbraně na blízko</caption><tr><th>Zbraň</th></tr></table>
<table id="Zbroj"><tr><th>Zbroj</th></tr></table>
<table><tr><th>Štíty</th></tr></table>
</body></html>`}

	src := NewTablesSource(base, head, "zbroj, Štíty")
	doc, err := src.Document()
	require.NoError(t, err)

	assert.Nil(t, doc.ElementByID("zbrane_na_blizko"))
	assert.NotNil(t, doc.ElementByID("zbroj"))
	assert.NotNil(t, doc.ElementByID("stity"))
	value, err := src.Value()
	require.NoError(t, err)
	assert.Contains(t, value, "<title>Tables for Pravidla</title>")
}

func TestTablesSource_AllTablesWhenNoneWanted(t *testing.T) {
	base := &stringSource{value: `<table><caption>A</caption></table><table><caption>B</caption></table>`}
	doc, err := NewTablesSource(base, nil, "").Document()
	require.NoError(t, err)

	tables := document.Elements(doc.Root(), func(n *html.Node) bool { return n.Data == "table" })
	assert.Len(t, tables, 2)
}

func TestPageSource(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"gateway.html": `<form id="gate">Kup si pravidla</form>`})

	src := &PageSource{Title: "Brána", BodyFile: filepath.Join(dir, "gateway.html")}
	doc, err := src.Document()
	require.NoError(t, err)
	assert.NotNil(t, doc.ElementByID("gate"))

	inline := &PageSource{Title: "Nenalezeno", Body: `<h1 id="nf">404</h1>`, BodyClass: "not-found"}
	doc, err = inline.Document()
	require.NoError(t, err)
	assert.True(t, document.HasClass(doc.Body(), "not-found"))

	_, err = (&PageSource{BodyFile: filepath.Join(dir, "missing.html")}).Value()
	assert.Equal(t, ferrors.CategoryContent, ferrors.GetCategory(err))
}

func TestPDFSource(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"b.PDF": "second", "a.pdf": "%PDF first", "readme.txt": "x"})

	src := &PDFSource{Dir: dir}
	value, err := src.Value()
	require.NoError(t, err)
	assert.Equal(t, "%PDF first", value)

	_, err = src.Document()
	assert.Error(t, err)

	_, err = (&PDFSource{Dir: t.TempDir()}).Value()
	assert.Equal(t, ferrors.CategoryNotFound, ferrors.GetCategory(err))
}

func TestKind(t *testing.T) {
	for _, k := range []Kind{KindMain, KindTables, KindPDF, KindGateway, KindNotFound} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	assert.False(t, KindPDF.Cached())
	assert.True(t, KindGateway.Cached())
	assert.NotEqual(t, KindMain.Tag(), KindNotFound.Tag())
	_, err := ParseKind("bogus")
	assert.Error(t, err)
}
