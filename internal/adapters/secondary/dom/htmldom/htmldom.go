// Package htmldom implements the DOM port over golang.org/x/net/html, the
// HTML5 parsing algorithm browsers use for the live preview.
package htmldom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

// Name is the backend identifier used in configuration
const Name = "html"

// Parser parses fragments with the HTML5 algorithm in a <div> context
type Parser struct{}

// NewParser creates a new HTML5 fragment parser
func NewParser() *Parser {
	return &Parser{}
}

// Name returns the backend identifier
func (p *Parser) Name() string {
	return Name
}

// Parse wraps the fragment in a root <div>. The HTML5 algorithm never rejects input.
func (p *Parser) Parse(fragment string) ports.Document {
	root := newElement("div")
	context := newElement("div")

	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		// only reader errors end up here; keep the text so nothing is lost
		root.AppendChild(&html.Node{Type: html.TextNode, Data: fragment})
		return &Document{root: root}
	}

	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		root.AppendChild(n)
	}

	return &Document{root: root}
}

// Document is a parsed fragment
type Document struct {
	root *html.Node
}

// Root returns the wrapper element
func (d *Document) Root() ports.Node {
	return wrap(d.root)
}

// CreateElement creates a detached element
func (d *Document) CreateElement(tag string) ports.Node {
	return wrap(newElement(tag))
}

// CreateText creates a detached text node
func (d *Document) CreateText(text string) ports.Node {
	return wrap(&html.Node{Type: html.TextNode, Data: text})
}

// OuterHTML serializes n including its tag
func (d *Document) OuterHTML(n ports.Node) string {
	raw := unwrap(n)
	if raw == nil {
		return ""
	}
	var buf bytes.Buffer
	_ = html.Render(&buf, raw)
	return buf.String()
}

// InnerHTML serializes the children of n
func (d *Document) InnerHTML(n ports.Node) string {
	raw := unwrap(n)
	if raw == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := raw.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

func newElement(tag string) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// node wraps *html.Node; it is comparable so identity checks work through the interface
type node struct {
	n *html.Node
}

func wrap(n *html.Node) ports.Node {
	if n == nil {
		return nil
	}
	return node{n: n}
}

func unwrap(n ports.Node) *html.Node {
	if n == nil {
		return nil
	}
	if w, ok := n.(node); ok {
		return w.n
	}
	return nil
}

func (w node) Type() ports.NodeType {
	switch w.n.Type {
	case html.ElementNode:
		return ports.ElementNode
	case html.TextNode:
		return ports.TextNode
	case html.CommentNode:
		return ports.CommentNode
	default:
		return ports.OtherNode
	}
}

func (w node) TagName() string {
	if w.n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(w.n.Data)
}

func (w node) Data() string {
	if w.n.Type == html.ElementNode {
		return ""
	}
	return w.n.Data
}

func (w node) ChildNodes() []ports.Node {
	var out []ports.Node
	for c := w.n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, node{n: c})
	}
	return out
}

func (w node) Children() []ports.Node {
	var out []ports.Node
	for c := w.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, node{n: c})
		}
	}
	return out
}

func (w node) Parent() ports.Node {
	return wrap(w.n.Parent)
}

func (w node) NextSibling() ports.Node {
	return wrap(w.n.NextSibling)
}

func (w node) GetAttribute(name string) string {
	for _, a := range w.n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func (w node) HasAttribute(name string) bool {
	for _, a := range w.n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return true
		}
	}
	return false
}

func (w node) SetAttribute(name, value string) {
	for i, a := range w.n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			w.n.Attr[i].Val = value
			return
		}
	}
	w.n.Attr = append(w.n.Attr, html.Attribute{Key: strings.ToLower(name), Val: value})
}

func (w node) Classes() []string {
	return strings.Fields(w.GetAttribute("class"))
}

func (w node) HasClass(class string) bool {
	for _, c := range w.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

func (w node) AddClass(class string) {
	if w.n.Type != html.ElementNode || w.HasClass(class) {
		return
	}
	w.SetAttribute("class", strings.TrimSpace(w.GetAttribute("class")+" "+class))
}

func (w node) TextContent() string {
	var b strings.Builder
	collectText(w.n, &b)
	return b.String()
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func (w node) GetElementsByTagName(tag string) []ports.Node {
	tag = strings.ToLower(tag)
	var out []ports.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (tag == "*" || strings.ToLower(c.Data) == tag) {
				out = append(out, node{n: c})
			}
			walk(c)
		}
	}
	walk(w.n)
	return out
}

func (w node) AppendChild(child ports.Node) {
	c := unwrap(child)
	if c == nil {
		return
	}
	detach(c)
	w.n.AppendChild(c)
}

func (w node) InsertBefore(child, ref ports.Node) {
	c := unwrap(child)
	if c == nil {
		return
	}
	r := unwrap(ref)
	if r == c {
		return
	}
	if r != nil && r.Parent != w.n {
		r = nil
	}
	detach(c)
	w.n.InsertBefore(c, r)
}

func (w node) RemoveChild(child ports.Node) {
	c := unwrap(child)
	if c == nil || c.Parent != w.n {
		return
	}
	w.n.RemoveChild(c)
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

var _ ports.DOMParser = (*Parser)(nil)
