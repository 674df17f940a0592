package content

import (
	"git.home.luguber.info/inful/rulesweb/internal/document"
)

// Source supplies the unrendered material of a page.
type Source interface {
	// Value returns the raw serialized content.
	Value() (string, error)
	// Document returns a freshly parsed tree the caller owns.
	Document() (*document.Document, error)
}

// parseValue implements Source.Document on top of Source.Value.
func parseValue(s Source) (*document.Document, error) {
	v, err := s.Value()
	if err != nil {
		return nil, err
	}
	return document.ParseString(v)
}
