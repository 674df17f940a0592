package content

import (
	"strconv"
	"strings"

	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/rulesweb/internal/document"
	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
)

// RedirectMetaID is the id of the injected refresh instruction.
const RedirectMetaID = "meta_redirect"

// Redirect tells the client to move to Target after AfterSeconds.
// It is applied per request and never cached.
type Redirect struct {
	Target       string `yaml:"target"`
	AfterSeconds int    `yaml:"after_seconds"`
}

// RedirectRules maps request paths to redirects.
type RedirectRules map[string]Redirect

// Match returns the redirect configured for path, if any.
func (r RedirectRules) Match(path string) *Redirect {
	if len(r) == 0 {
		return nil
	}
	if rd, ok := r[path]; ok {
		return &rd
	}
	if trimmed := strings.TrimRight(path, "/"); trimmed != path && trimmed != "" {
		if rd, ok := r[trimmed]; ok {
			return &rd
		}
	}
	return nil
}

// InjectRedirect returns a copy of page with a refresh instruction appended
// to its head. page itself is not modified.
func InjectRedirect(page []byte, redirect Redirect) ([]byte, error) {
	doc, err := document.ParseString(string(page))
	if err != nil {
		return nil, err
	}
	head := doc.Head()
	if head == nil {
		return nil, errors.ContentError(nil, "page has no head for redirect").Build()
	}
	if existing := doc.ElementByID(RedirectMetaID); existing != nil {
		existing.Parent.RemoveChild(existing)
	}
	after := redirect.AfterSeconds
	if after < 0 {
		after = 0
	}
	head.AppendChild(document.NewElement(atom.Meta,
		"http-equiv", "Refresh",
		"content", strconv.Itoa(after)+"; url="+redirect.Target,
		"id", RedirectMetaID,
	))
	return doc.Render()
}
