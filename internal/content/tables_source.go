package content

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/rulesweb/internal/document"
	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
	"git.home.luguber.info/inful/rulesweb/internal/transform"
)

// TablesSource extracts the tables of another source into a page of their own.
// Remote pages embed it through an iframe, asking for specific table ids.
type TablesSource struct {
	Base Source
	Head *Head
	// WantedIDs limits the page to these tables; empty keeps all of them.
	WantedIDs []string
}

// NewTablesSource creates a tables page of base. wanted is the raw,
// comma separated "tables" query value.
func NewTablesSource(base Source, head *Head, wanted string) *TablesSource {
	var ids []string
	for _, id := range strings.Split(wanted, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return &TablesSource{Base: base, Head: head, WantedIDs: ids}
}

func (s *TablesSource) Value() (string, error) {
	base, err := s.Base.Document()
	if err != nil {
		return "", err
	}

	wanted := make(map[string]struct{}, len(s.WantedIDs))
	for _, id := range s.WantedIDs {
		wanted[transform.Slug(id)] = struct{}{}
	}

	var sb strings.Builder
	for _, table := range base.ElementsByTag(atom.Table) {
		id := tableID(table)
		if len(wanted) > 0 {
			if _, ok := wanted[id]; !ok {
				continue
			}
		}
		if id != "" {
			document.SetAttr(table, "id", id)
		}
		if err := html.Render(&sb, table); err != nil {
			return "", errors.ContentError(err, "failed to render table").Build()
		}
		sb.WriteByte('\n')
	}

	title := "Tables"
	if s.Head != nil && s.Head.Title() != "" {
		title = "Tables for " + s.Head.Title()
	}
	return assemblePage(s.Head, title, "tables", sb.String())
}

func (s *TablesSource) Document() (*document.Document, error) {
	return parseValue(s)
}

// tableID is the id a table ends up with on the built page.
func tableID(table *html.Node) string {
	if id, ok := document.Attr(table, "id"); ok && strings.TrimSpace(id) != "" {
		return transform.Slug(id)
	}
	if caption := document.FirstChildElement(table, atom.Caption); caption != nil {
		if text := strings.TrimSpace(document.Text(caption)); text != "" {
			return transform.Slug(text)
		}
	}
	if th := document.FirstElement(table, atom.Th); th != nil {
		return transform.Slug(document.Text(th))
	}
	return ""
}
