package transform

import (
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/rulesweb/internal/document"
	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
)

// MenuWrapperID is the id of the element holding the navigation menu.
const MenuWrapperID = "menu_wrapper"

func (p *Pipeline) injectMenu(doc *document.Document, _ BuildInfo) (*document.Document, error) {
	body := doc.Body()
	if body == nil {
		return nil, errors.ContentError(nil, "document has no body").Build()
	}
	if doc.ElementByID(MenuWrapperID) != nil {
		return doc, nil
	}
	wrapper := document.NewElement(atom.Div, "id", MenuWrapperID)
	if p.opts.MenuHTML != "" {
		if err := document.AppendHTML(wrapper, p.opts.MenuHTML); err != nil {
			return nil, err
		}
	}
	document.PrependChild(body, wrapper)
	return doc, nil
}
