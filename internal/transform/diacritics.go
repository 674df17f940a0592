package transform

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	textransform "golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/rulesweb/internal/document"
)

// Slug turns a human readable name into an anchor id:
// "Příprava postavy" becomes "priprava_postavy".
func Slug(s string) string {
	folded, _, err := textransform.String(textransform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	var sb strings.Builder
	sb.Grow(len(folded))
	pendingSeparator := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingSeparator && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			pendingSeparator = false
			sb.WriteRune(r)
			continue
		}
		pendingSeparator = true
	}
	return sb.String()
}

func (p *Pipeline) removeDiacritics(doc *document.Document, _ BuildInfo) (*document.Document, error) {
	for _, n := range document.Elements(doc.Root(), func(n *html.Node) bool { return document.HasAttr(n, "id") }) {
		id, _ := document.Attr(n, "id")
		if slug := Slug(id); slug != "" && slug != id {
			document.SetAttr(n, "id", slug)
		}
	}
	for _, a := range anchors(doc) {
		href, ok := document.Attr(a, "href")
		if !ok {
			continue
		}
		if rewritten, changed := p.normalizeFragment(href); changed {
			document.SetAttr(a, "href", rewritten)
		}
	}
	return doc, nil
}

// normalizeFragment slugs the fragment of links that stay within this site or
// its sibling sites. Hash-bang fragments are client side routes and are kept.
func (p *Pipeline) normalizeFragment(href string) (string, bool) {
	hash := strings.IndexByte(href, '#')
	if hash < 0 || hash == len(href)-1 {
		return href, false
	}
	target, fragment := href[:hash], href[hash+1:]
	if strings.HasPrefix(fragment, "!") {
		return href, false
	}
	if u := absoluteURL(target); u != nil {
		if !p.opts.isOwnHost(u.Hostname()) && !p.opts.isInstanceHost(u.Hostname()) {
			return href, false
		}
	} else if strings.Contains(target, ":") && !isRelativePath(target) {
		// mailto:, javascript: and friends
		return href, false
	}
	if decoded, err := url.PathUnescape(fragment); err == nil {
		fragment = decoded
	}
	slug := Slug(fragment)
	if slug == "" || slug == href[hash+1:] {
		return href, false
	}
	return target + "#" + slug, true
}
