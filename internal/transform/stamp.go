package transform

import (
	"time"

	"git.home.luguber.info/inful/rulesweb/internal/document"
	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
)

// Attributes written on the <html> element of every built page.
const (
	AttrContentVersion = "data-content-version"
	AttrCachedAt       = "data-cached-at"
	AttrCacheStamp     = "data-cache-stamp"
)

func (p *Pipeline) stamp(doc *document.Document, info BuildInfo) (*document.Document, error) {
	root := doc.HTML()
	if root == nil {
		return nil, errors.ContentError(nil, "document has no html element").Build()
	}
	document.SetAttr(root, AttrContentVersion, info.Version)
	document.SetAttr(root, AttrCachedAt, info.CachedAt.Format(time.RFC3339))
	document.SetAttr(root, AttrCacheStamp, info.CacheID)
	return doc, nil
}
