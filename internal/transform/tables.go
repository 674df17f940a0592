package transform

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/rulesweb/internal/document"
)

// assignTableIDs names anonymous tables after their caption, or their first
// header cell when there is no caption.
func (p *Pipeline) assignTableIDs(doc *document.Document, _ BuildInfo) (*document.Document, error) {
	taken := existingIDs(doc)
	for _, table := range doc.ElementsByTag(atom.Table) {
		if id, ok := document.Attr(table, "id"); ok && strings.TrimSpace(id) != "" {
			continue
		}
		name := tableName(table)
		if name == "" {
			continue
		}
		id := uniqueID(name, taken)
		taken[id] = struct{}{}
		document.SetAttr(table, "id", id)
	}
	return doc, nil
}

func tableName(table *html.Node) string {
	if caption := document.FirstChildElement(table, atom.Caption); caption != nil {
		if text := collapseSpace(document.Text(caption)); text != "" {
			return text
		}
	}
	if th := document.FirstElement(table, atom.Th); th != nil {
		return collapseSpace(document.Text(th))
	}
	return ""
}

func existingIDs(doc *document.Document) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, n := range document.Elements(doc.Root(), func(n *html.Node) bool { return document.HasAttr(n, "id") }) {
		id, _ := document.Attr(n, "id")
		ids[id] = struct{}{}
	}
	return ids
}

func uniqueID(base string, taken map[string]struct{}) string {
	if _, ok := taken[base]; !ok {
		return base
	}
	for i := 2; ; i++ {
		candidate := base + "_" + strconv.Itoa(i)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
