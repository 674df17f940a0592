// Package markdown turns Markdown web parts into HTML fragments.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Part is one rendered Markdown file.
type Part struct {
	// Meta holds the YAML front matter, empty when there was none.
	Meta map[string]any
	HTML string
}

// Title returns the "title" front matter field.
func (p Part) Title() string {
	if t, ok := p.Meta["title"].(string); ok {
		return t
	}
	return ""
}

// Renderer converts Markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a renderer with GitHub flavored tables and raw HTML passthrough,
// since rule parts freely mix Markdown with hand written markup.
func NewRenderer() *Renderer {
	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)}
}

// Render converts a Markdown part, front matter included.
func (r *Renderer) Render(source []byte) (Part, error) {
	fm, body, _, err := Split(source)
	if err != nil {
		return Part{}, err
	}
	meta, err := ParseYAML(fm)
	if err != nil {
		return Part{}, fmt.Errorf("parse front matter: %w", err)
	}
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return Part{}, fmt.Errorf("render markdown: %w", err)
	}
	return Part{Meta: meta, HTML: buf.String()}, nil
}
