// Package transform runs the fixed sequence of structural HTML rewrites
// applied to every freshly built page before it is cached.
package transform

import (
	"time"

	"git.home.luguber.info/inful/rulesweb/internal/document"
	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
	"git.home.luguber.info/inful/rulesweb/internal/logfields"
)

// Step rewrites a document and hands it on. A step owns the document until it returns.
type Step func(doc *document.Document, info BuildInfo) (*document.Document, error)

type namedStep struct {
	name string
	run  Step
}

// Stage names, in the order they first appear.
const (
	StageInjectMenu        = "inject-menu"
	StageTableIDs          = "table-ids"
	StageMarkExternalLinks = "mark-external-links"
	StageRemoteTables      = "remote-tables"
	StageSourceCodeLinks   = "source-code-links"
	StageDiacritics        = "diacritics"
	StageDisplayMode       = "display-mode"
	StageLocalLinks        = "local-links"
	StageStamp             = "stamp"
)

// Pipeline is the ordered transformation chain.
type Pipeline struct {
	opts  Options
	steps []namedStep
}

// New builds the pipeline. The step order is fixed; table ids are assigned
// twice and external links are processed twice because later steps create
// or rename the elements earlier steps look at.
func New(opts Options) *Pipeline {
	opts = opts.withDefaults()
	p := &Pipeline{opts: opts}
	p.steps = []namedStep{
		{StageInjectMenu, p.injectMenu},
		{StageTableIDs, p.assignTableIDs},
		{StageMarkExternalLinks, p.markExternalLinks},
		{StageRemoteTables, p.injectRemoteTables},
		{StageSourceCodeLinks, p.rewriteSourceCodeLinks},
		{StageTableIDs, p.assignTableIDs},
		{StageDiacritics, p.removeDiacritics},
		{StageDisplayMode, p.applyDisplayMode},
		{StageMarkExternalLinks, p.markExternalLinks},
		{StageRemoteTables, p.injectRemoteTables},
		{StageLocalLinks, p.rewriteToLocalLinks},
		{StageStamp, p.stamp},
	}
	return p
}

// Options returns the effective options.
func (p *Pipeline) Options() Options {
	return p.opts
}

// StageNames lists the steps in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.name
	}
	return names
}

// Run applies every step to doc. A failing step aborts the run; the partially
// transformed document must not be used.
func (p *Pipeline) Run(doc *document.Document, info BuildInfo) (*document.Document, error) {
	if doc == nil {
		return nil, errors.ContentError(nil, "no document to transform").Build()
	}
	if info.CachedAt.IsZero() {
		info.CachedAt = time.Now()
	}
	for i, s := range p.steps {
		start := time.Now()
		next, err := s.run(doc, info)
		if err != nil {
			if classified, ok := errors.AsClassified(err); ok {
				return nil, classified.WithContext("stage", s.name).WithContext("step", i+1)
			}
			return nil, errors.ContentError(err, "transform step failed").
				WithContext("stage", s.name).WithContext("step", i+1).Build()
		}
		if next == nil {
			return nil, errors.ContentError(nil, "transform step returned no document").
				WithContext("stage", s.name).WithContext("step", i+1).Build()
		}
		doc = next
		p.opts.Logger.Debug("Transform step done", logfields.Stage(s.name), logfields.Duration(time.Since(start)))
	}
	return doc, nil
}
