package content

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/rulesweb/internal/document"
	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
	"git.home.luguber.info/inful/rulesweb/internal/markdown"
)

// WebSource assembles the main page from the parts in a directory: ".html"
// files verbatim and ".md" files rendered, in file name order.
type WebSource struct {
	Dir      string
	Head     *Head
	Markdown *markdown.Renderer
	// BodyClass is set on <body> when not empty.
	BodyClass string
}

// NewWebSource creates a source for the parts in dir.
func NewWebSource(dir string, head *Head, md *markdown.Renderer) *WebSource {
	if md == nil {
		md = markdown.NewRenderer()
	}
	return &WebSource{Dir: dir, Head: head, Markdown: md}
}

func (s *WebSource) Value() (string, error) {
	body, title, err := s.renderParts()
	if err != nil {
		return "", err
	}
	return assemblePage(s.Head, title, s.BodyClass, body)
}

func (s *WebSource) Document() (*document.Document, error) {
	return parseValue(s)
}

// renderParts concatenates the parts and returns the first front matter title.
func (s *WebSource) renderParts() (string, string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return "", "", errors.ContentError(err, "failed to read web parts").WithContext("dir", s.Dir).Build()
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && isWebPart(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var sb strings.Builder
	title := ""
	for _, name := range names {
		path := filepath.Join(s.Dir, name)
		// #nosec G304 -- parts are listed from the configured web directory
		data, err := os.ReadFile(path)
		if err != nil {
			return "", "", errors.ContentError(err, "failed to read web part").WithContext("path", path).Build()
		}
		if strings.HasSuffix(name, ".md") {
			part, err := s.Markdown.Render(data)
			if err != nil {
				return "", "", errors.ContentError(err, "failed to render markdown part").WithContext("path", path).Build()
			}
			if title == "" {
				title = part.Title()
			}
			sb.WriteString(part.HTML)
		} else {
			sb.Write(data)
		}
		sb.WriteByte('\n')
	}
	return sb.String(), title, nil
}

func isWebPart(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.HasSuffix(name, ".html") || strings.HasSuffix(name, ".md")
}

// assemblePage wraps body markup into a full HTML page.
func assemblePage(head *Head, title, bodyClass, body string) (string, error) {
	lang := "cs"
	headMarkup := "<title>" + html.EscapeString(title) + "</title>"
	if head != nil {
		lang = head.Language()
		var err error
		if headMarkup, err = head.Render(title); err != nil {
			return "", errors.ContentError(err, "failed to assemble page head").Build()
		}
	}
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString(`<html lang="` + html.EscapeString(lang) + `"><head>`)
	sb.WriteString(headMarkup)
	sb.WriteString("</head><body")
	if bodyClass != "" {
		sb.WriteString(` class="` + html.EscapeString(bodyClass) + `"`)
	}
	sb.WriteString(">\n")
	sb.WriteString(body)
	sb.WriteString("</body></html>")
	return sb.String(), nil
}
