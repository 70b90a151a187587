// Package xmldom implements the DOM port with a lenient encoding/xml
// decoder. It is the server-side backend used by the file exporters and has
// no notion of the HTML5 insertion modes, so text content is collected by
// walking descendant text nodes.
package xmldom

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

// Name is the backend identifier used in configuration
const Name = "xml"

const xlinkNamespace = "http://www.w3.org/1999/xlink"

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var rawTextElements = map[string]bool{
	"script": true, "style": true,
}

// foreignRoots start subtrees whose names follow the svg and mathml casing
var foreignRoots = map[string]bool{
	"svg": true, "math": true,
}

// Parser builds a node tree from a non-strict XML token stream
type Parser struct{}

// NewParser creates a new lenient XML fragment parser
func NewParser() *Parser {
	return &Parser{}
}

// Name returns the backend identifier
func (p *Parser) Name() string {
	return Name
}

// Parse wraps the fragment in a root <div>. When the decoder hits a syntax
// error, such as a bare "<" in prose, the rest of the input is read with the
// HTML tokenizer so no content after it is lost.
func (p *Parser) Parse(fragment string) ports.Document {
	root := &xnode{kind: ports.ElementNode, tag: "div"}
	input := "<div>" + fragment + "</div>"

	dec := xml.NewDecoder(strings.NewReader(input))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	b := &builder{}
	for {
		offset := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if len(b.stack) == 0 {
				b.stack = append(b.stack, root)
			}
			b.tokenize(input[int(offset):])
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			// the synthetic wrapper start tag maps to root
			if len(b.stack) == 0 {
				b.stack = append(b.stack, root)
				continue
			}
			el := b.start(t.Name.Local, true)
			for _, a := range t.Attr {
				el.attrs = append(el.attrs, attr{name: attrName(a.Name, el.ns), value: a.Value})
			}
		case xml.EndElement:
			if len(b.stack) > 0 {
				b.stack = b.stack[:len(b.stack)-1]
			}
		case xml.CharData:
			b.text(ports.TextNode, string(t))
		case xml.Comment:
			b.text(ports.CommentNode, string(t))
		}
	}

	return &Document{root: root}
}

// builder keeps the open elements while the tree is built
type builder struct {
	stack []*xnode
}

// start appends an element to the innermost open one. Names are lowercased,
// then svg names get back their camel case as an HTML parser restores it.
func (b *builder) start(name string, push bool) *xnode {
	parent := b.stack[len(b.stack)-1]
	tag := strings.ToLower(name)

	ns := parent.ns
	if ns == "" && foreignRoots[tag] {
		ns = tag
	}
	if adjusted, ok := svgTagNames[tag]; ok && ns == "svg" {
		tag = adjusted
	}

	el := &xnode{kind: ports.ElementNode, tag: tag, ns: ns}
	parent.appendChild(el)
	if push {
		b.stack = append(b.stack, el)
	}
	return el
}

func (b *builder) text(kind ports.NodeType, data string) {
	if len(b.stack) > 0 {
		b.stack[len(b.stack)-1].appendChild(&xnode{kind: kind, data: data})
	}
}

// closeTag pops up to the innermost open element named tag. The root is
// never closed and unmatched end tags are ignored.
func (b *builder) closeTag(tag string) {
	for i := len(b.stack) - 1; i > 0; i-- {
		if strings.EqualFold(b.stack[i].tag, tag) {
			b.stack = b.stack[:i]
			return
		}
	}
}

// tokenize reads rest with the HTML tokenizer, which accepts the text the
// XML decoder rejects
func (b *builder) tokenize(rest string) {
	z := html.NewTokenizer(strings.NewReader(rest))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return
		case html.TextToken:
			b.text(ports.TextNode, string(z.Text()))
		case html.CommentToken:
			b.text(ports.CommentNode, string(z.Text()))
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			push := tt == html.StartTagToken && !voidElements[tok.Data]
			el := b.start(tok.Data, push)
			for _, a := range tok.Attr {
				key := adjustAttr(el.ns, a.Key)
				if a.Namespace != "" {
					key = a.Namespace + ":" + a.Key
				}
				el.attrs = append(el.attrs, attr{name: key, value: a.Val})
			}
		case html.EndTagToken:
			b.closeTag(z.Token().Data)
		}
	}
}

func attrName(n xml.Name, ns string) string {
	switch {
	case n.Space == "":
		return adjustAttr(ns, strings.ToLower(n.Local))
	case n.Space == "xmlns":
		return "xmlns:" + n.Local
	case n.Space == xlinkNamespace:
		return "xlink:" + n.Local
	case !strings.Contains(n.Space, "/"):
		return n.Space + ":" + n.Local
	default:
		return n.Local
	}
}

// adjustAttr restores the camel case of a lowercased svg or mathml attribute
func adjustAttr(ns, key string) string {
	switch ns {
	case "svg":
		if adjusted, ok := svgAttrNames[key]; ok {
			return adjusted
		}
	case "math":
		if key == "definitionurl" {
			return "definitionURL"
		}
	}
	return key
}

type attr struct {
	name  string
	value string
}

type xnode struct {
	kind     ports.NodeType
	tag      string
	ns       string
	attrs    []attr
	data     string
	parent   *xnode
	children []*xnode
}

func (x *xnode) appendChild(c *xnode) {
	c.parent = x
	x.children = append(x.children, c)
}

func (x *xnode) indexOf(c *xnode) int {
	for i, child := range x.children {
		if child == c {
			return i
		}
	}
	return -1
}

func (x *xnode) detach() {
	if x.parent == nil {
		return
	}
	if i := x.parent.indexOf(x); i >= 0 {
		x.parent.children = append(x.parent.children[:i], x.parent.children[i+1:]...)
	}
	x.parent = nil
}

// Document is a parsed fragment
type Document struct {
	root *xnode
}

// Root returns the wrapper element
func (d *Document) Root() ports.Node {
	return wrap(d.root)
}

// CreateElement creates a detached element
func (d *Document) CreateElement(tag string) ports.Node {
	return wrap(&xnode{kind: ports.ElementNode, tag: strings.ToLower(tag)})
}

// CreateText creates a detached text node
func (d *Document) CreateText(text string) ports.Node {
	return wrap(&xnode{kind: ports.TextNode, data: text})
}

// OuterHTML serializes n including its tag
func (d *Document) OuterHTML(n ports.Node) string {
	x := unwrap(n)
	if x == nil {
		return ""
	}
	var b strings.Builder
	render(&b, x, false)
	return b.String()
}

// InnerHTML serializes the children of n
func (d *Document) InnerHTML(n ports.Node) string {
	x := unwrap(n)
	if x == nil {
		return ""
	}
	var b strings.Builder
	raw := rawTextElements[x.tag]
	for _, c := range x.children {
		render(&b, c, raw)
	}
	return b.String()
}

func render(b *strings.Builder, x *xnode, rawText bool) {
	switch x.kind {
	case ports.TextNode:
		if rawText {
			b.WriteString(x.data)
		} else {
			b.WriteString(html.EscapeString(x.data))
		}
	case ports.CommentNode:
		b.WriteString("<!--")
		b.WriteString(x.data)
		b.WriteString("-->")
	case ports.ElementNode:
		b.WriteByte('<')
		b.WriteString(x.tag)
		for _, a := range x.attrs {
			b.WriteByte(' ')
			b.WriteString(a.name)
			b.WriteString(`="`)
			b.WriteString(html.EscapeString(a.value))
			b.WriteByte('"')
		}
		if voidElements[x.tag] {
			b.WriteString("/>")
			return
		}
		b.WriteByte('>')
		raw := rawTextElements[x.tag]
		for _, c := range x.children {
			render(b, c, raw)
		}
		b.WriteString("</")
		b.WriteString(x.tag)
		b.WriteByte('>')
	}
}

type node struct {
	x *xnode
}

func wrap(x *xnode) ports.Node {
	if x == nil {
		return nil
	}
	return node{x: x}
}

func unwrap(n ports.Node) *xnode {
	if n == nil {
		return nil
	}
	if w, ok := n.(node); ok {
		return w.x
	}
	return nil
}

func (w node) Type() ports.NodeType {
	return w.x.kind
}

func (w node) TagName() string {
	return w.x.tag
}

func (w node) Data() string {
	return w.x.data
}

func (w node) ChildNodes() []ports.Node {
	out := make([]ports.Node, 0, len(w.x.children))
	for _, c := range w.x.children {
		out = append(out, node{x: c})
	}
	return out
}

func (w node) Children() []ports.Node {
	var out []ports.Node
	for _, c := range w.x.children {
		if c.kind == ports.ElementNode {
			out = append(out, node{x: c})
		}
	}
	return out
}

func (w node) Parent() ports.Node {
	return wrap(w.x.parent)
}

func (w node) NextSibling() ports.Node {
	p := w.x.parent
	if p == nil {
		return nil
	}
	i := p.indexOf(w.x)
	if i < 0 || i+1 >= len(p.children) {
		return nil
	}
	return node{x: p.children[i+1]}
}

func (w node) GetAttribute(name string) string {
	for _, a := range w.x.attrs {
		if strings.EqualFold(a.name, name) {
			return a.value
		}
	}
	return ""
}

func (w node) HasAttribute(name string) bool {
	for _, a := range w.x.attrs {
		if strings.EqualFold(a.name, name) {
			return true
		}
	}
	return false
}

func (w node) SetAttribute(name, value string) {
	for i, a := range w.x.attrs {
		if strings.EqualFold(a.name, name) {
			w.x.attrs[i].value = value
			return
		}
	}
	name = adjustAttr(w.x.ns, strings.ToLower(name))
	w.x.attrs = append(w.x.attrs, attr{name: name, value: value})
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
	if w.x.kind != ports.ElementNode || w.HasClass(class) {
		return
	}
	w.SetAttribute("class", strings.TrimSpace(w.GetAttribute("class")+" "+class))
}

// TextContent concatenates descendant text nodes recursively
func (w node) TextContent() string {
	var b strings.Builder
	var walk func(*xnode)
	walk = func(x *xnode) {
		if x.kind == ports.TextNode {
			b.WriteString(x.data)
			return
		}
		for _, c := range x.children {
			walk(c)
		}
	}
	walk(w.x)
	return b.String()
}

func (w node) GetElementsByTagName(tag string) []ports.Node {
	var out []ports.Node
	var walk func(*xnode)
	walk = func(x *xnode) {
		for _, c := range x.children {
			if c.kind == ports.ElementNode && (tag == "*" || strings.EqualFold(c.tag, tag)) {
				out = append(out, node{x: c})
			}
			walk(c)
		}
	}
	walk(w.x)
	return out
}

func (w node) AppendChild(child ports.Node) {
	c := unwrap(child)
	if c == nil || c == w.x {
		return
	}
	c.detach()
	w.x.appendChild(c)
}

func (w node) InsertBefore(child, ref ports.Node) {
	c := unwrap(child)
	if c == nil || c == w.x {
		return
	}
	r := unwrap(ref)
	if r == c {
		return
	}
	c.detach()
	i := -1
	if r != nil {
		i = w.x.indexOf(r)
	}
	if i < 0 {
		w.x.appendChild(c)
		return
	}
	c.parent = w.x
	w.x.children = append(w.x.children, nil)
	copy(w.x.children[i+1:], w.x.children[i:])
	w.x.children[i] = c
}

func (w node) RemoveChild(child ports.Node) {
	c := unwrap(child)
	if c == nil || c.parent != w.x {
		return
	}
	c.detach()
}

var _ ports.DOMParser = (*Parser)(nil)
