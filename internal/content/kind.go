// Package content builds and serves rule pages: raw sources, head and menu
// assembly, redirects and the cached render orchestration.
package content

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/rulesweb/internal/cache"
)

// Kind selects the rendering variant of a request.
type Kind int

const (
	KindMain Kind = iota
	KindTables
	KindPDF
	KindGateway
	KindNotFound
)

var kindNames = map[Kind]string{
	KindMain:     "main",
	KindTables:   "tables",
	KindPDF:      "pdf",
	KindGateway:  "gateway",
	KindNotFound: "not_found",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Cached reports whether pages of this kind go through the cache and pipeline.
func (k Kind) Cached() bool {
	return k != KindPDF
}

// Tag returns the cache slot tag of the kind.
func (k Kind) Tag() cache.Tag {
	switch k {
	case KindTables:
		return cache.TagTables
	case KindGateway:
		return cache.TagGateway
	case KindNotFound:
		return cache.TagNotFound
	default:
		return cache.TagMain
	}
}

// ParseKind parses the String form of a kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown content kind %q", s)
}
