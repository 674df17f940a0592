package transform

import (
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/rulesweb/internal/document"
)

const (
	attrDisplayMode = "data-display-mode"
	attrDisplay     = "data-display"
)

func (p *Pipeline) applyDisplayMode(doc *document.Document, _ BuildInfo) (*document.Document, error) {
	mode := p.opts.DisplayMode
	if mode == DisplayDefault {
		return doc, nil
	}
	if body := doc.Body(); body != nil {
		document.SetAttr(body, attrDisplayMode, string(mode))
	}
	for _, details := range doc.ElementsByTag(atom.Details) {
		if document.HasAttr(details, attrDisplay) {
			continue
		}
		switch mode {
		case DisplayExpanded:
			document.SetAttr(details, "open", "")
		case DisplayCollapsed:
			document.RemoveAttr(details, "open")
		}
	}
	return doc, nil
}
