package transform

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/rulesweb/internal/document"
)

const (
	ClassExternalURL = "external-url"
	ClassRemoteTable = "remote-table"
	ClassSourceCode  = "source-code"

	tablesPath = "/tables"
)

func anchors(doc *document.Document) []*html.Node {
	return doc.ElementsByTag(atom.A)
}

// absoluteURL parses href when it points to another origin (absolute http(s)
// or protocol-relative). Relative links return nil.
func absoluteURL(href string) *url.URL {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") && !strings.HasPrefix(href, "//") {
		return nil
	}
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return nil
	}
	return u
}

func (p *Pipeline) markExternalLinks(doc *document.Document, _ BuildInfo) (*document.Document, error) {
	for _, a := range anchors(doc) {
		href, ok := document.Attr(a, "href")
		if !ok {
			continue
		}
		u := absoluteURL(href)
		if u == nil || p.opts.isOwnHost(u.Hostname()) {
			continue
		}
		document.AddClass(a, ClassExternalURL)
	}
	return doc, nil
}

// injectRemoteTables embeds tables of sibling sites instead of linking to them.
func (p *Pipeline) injectRemoteTables(doc *document.Document, _ BuildInfo) (*document.Document, error) {
	for _, a := range anchors(doc) {
		if !document.HasClass(a, ClassExternalURL) {
			continue
		}
		href, _ := document.Attr(a, "href")
		u := absoluteURL(href)
		if u == nil || !p.opts.isInstanceHost(u.Hostname()) {
			continue
		}
		fragment := u.Fragment
		if fragment == "" || !strings.HasPrefix(fragment, p.opts.TableAnchorPrefix) {
			continue
		}
		scheme := u.Scheme
		if scheme == "" {
			scheme = "https"
		}
		src := scheme + "://" + u.Host + tablesPath + "?tables=" + url.QueryEscape(fragment)
		iframe := document.NewElement(atom.Iframe, "class", ClassRemoteTable, "src", src)
		document.Replace(a, iframe)
	}
	return doc, nil
}

func (p *Pipeline) rewriteSourceCodeLinks(doc *document.Document, _ BuildInfo) (*document.Document, error) {
	if p.opts.RepositoryURL == "" {
		return doc, nil
	}
	base := strings.TrimRight(p.opts.RepositoryURL, "/") + "/blob/" + p.opts.Branch + "/"
	for _, a := range anchors(doc) {
		if !document.HasClass(a, ClassSourceCode) {
			continue
		}
		href, ok := document.Attr(a, "href")
		if !ok || !isRelativePath(href) {
			continue
		}
		path := strings.TrimPrefix(strings.TrimLeft(href, "/"), "./")
		document.SetAttr(a, "href", base+path)
	}
	return doc, nil
}

func isRelativePath(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "//") {
		return false
	}
	u, err := url.Parse(href)
	return err == nil && u.Scheme == "" && u.Host == ""
}

// rewriteToLocalLinks points links to sibling sites at their local copies.
func (p *Pipeline) rewriteToLocalLinks(doc *document.Document, _ BuildInfo) (*document.Document, error) {
	if p.opts.Environment != EnvDevelopment || p.opts.InstanceDomain == "" || p.opts.LocalDomain == "" {
		return doc, nil
	}
	for _, n := range document.Elements(doc.Root(), func(n *html.Node) bool {
		return document.HasAttr(n, "href") || document.HasAttr(n, "src")
	}) {
		for _, key := range []string{"href", "src"} {
			val, ok := document.Attr(n, key)
			if !ok {
				continue
			}
			if local, changed := p.localURL(val); changed {
				document.SetAttr(n, key, local)
			}
		}
	}
	return doc, nil
}

func (p *Pipeline) localURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !strings.EqualFold(u.Scheme, "https") || !p.opts.isInstanceHost(u.Hostname()) {
		return raw, false
	}
	host := strings.ToLower(u.Hostname())
	sub := strings.TrimSuffix(strings.TrimSuffix(host, p.opts.InstanceDomain), ".")
	local := p.opts.LocalDomain
	if sub != "" {
		local = sub + "." + local
	}
	if port := u.Port(); port != "" {
		local += ":" + port
	}
	u.Scheme = "http"
	u.Host = local
	return u.String(), true
}
