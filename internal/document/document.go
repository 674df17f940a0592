// Package document wraps a parsed HTML page for in-place transformation.
package document

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
)

// Document is a mutable HTML tree. It always has html, head and body elements.
type Document struct {
	root *html.Node
}

// Parse reads a full HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, errors.ContentError(err, "failed to parse HTML").Build()
	}
	return &Document{root: root}, nil
}

// ParseString parses an HTML page held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// HTML returns the <html> element.
func (d *Document) HTML() *html.Node {
	return FirstElement(d.root, atom.Html)
}

// Head returns the <head> element.
func (d *Document) Head() *html.Node {
	return FirstElement(d.root, atom.Head)
}

// Body returns the <body> element.
func (d *Document) Body() *html.Node {
	return FirstElement(d.root, atom.Body)
}

// Render serializes the whole tree.
func (d *Document) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return nil, errors.ContentError(err, "failed to render HTML").Build()
	}
	return buf.Bytes(), nil
}

// String renders the tree, returning an empty string on failure.
func (d *Document) String() string {
	out, err := d.Render()
	if err != nil {
		return ""
	}
	return string(out)
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	return &Document{root: cloneNode(d.root)}
}

// Elements returns every element below n (n included) for which match is true,
// in document order.
func Elements(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && match(node) {
			found = append(found, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

// ElementsByTag returns all elements with the given tag.
func (d *Document) ElementsByTag(tag atom.Atom) []*html.Node {
	return Elements(d.root, func(n *html.Node) bool { return n.DataAtom == tag })
}

// ElementByID returns the first element whose id equals id.
func (d *Document) ElementByID(id string) *html.Node {
	found := Elements(d.root, func(n *html.Node) bool {
		v, ok := Attr(n, "id")
		return ok && v == id
	})
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// FirstElement finds the first element with the given tag below n.
func FirstElement(n *html.Node, tag atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FirstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// FirstChildElement returns the first element child of n, or nil.
func FirstChildElement(n *html.Node, tag atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == tag {
			return c
		}
	}
	return nil
}

// NewElement creates a detached element. attrs are key/value pairs.
func NewElement(tag atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: tag, Data: tag.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		SetAttr(n, attrs[i], attrs[i+1])
	}
	return n
}

// ParseFragment parses markup in the context of parent and returns the top level nodes.
func ParseFragment(markup string, parent *html.Node) ([]*html.Node, error) {
	context := parent
	if context == nil {
		context = NewElement(atom.Body)
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, errors.ContentError(err, "failed to parse HTML fragment").Build()
	}
	return nodes, nil
}

// AppendHTML parses markup and appends the result to parent.
func AppendHTML(parent *html.Node, markup string) error {
	nodes, err := ParseFragment(markup, parent)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}

// PrependChild inserts child as the first child of parent.
func PrependChild(parent, child *html.Node) {
	if parent.FirstChild == nil {
		parent.AppendChild(child)
		return
	}
	parent.InsertBefore(child, parent.FirstChild)
}

// Replace puts replacement where old was and detaches old.
func Replace(old, replacement *html.Node) {
	old.Parent.InsertBefore(replacement, old)
	old.Parent.RemoveChild(old)
}

// Attr returns the value of attribute key.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether attribute key is present.
func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// SetAttr sets or replaces attribute key.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes attribute key if present.
func RemoveAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// Classes returns the class list of n.
func Classes(n *html.Node) []string {
	v, _ := Attr(n, "class")
	return strings.Fields(v)
}

// HasClass reports whether n carries class.
func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass adds class to n unless already present.
func AddClass(n *html.Node, class string) {
	if HasClass(n, class) {
		return
	}
	SetAttr(n, "class", strings.TrimSpace(strings.Join(append(Classes(n), class), " ")))
}

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func cloneNode(n *html.Node) *html.Node {
	cp := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		cp.AppendChild(cloneNode(c))
	}
	return cp
}
