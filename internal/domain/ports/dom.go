package ports

// NodeType is the kind of a DOM node
type NodeType int

const (
	// ElementNode is a tag
	ElementNode NodeType = iota
	// TextNode is character data
	TextNode
	// CommentNode is a comment
	CommentNode
	// OtherNode covers doctype and other node kinds
	OtherNode
)

// Node is the traversal and mutation surface shared by every DOM backend.
// Two nodes are the same node when they compare equal with ==.
type Node interface {
	Type() NodeType

	// TagName returns the lower-case tag name, or "" for non-elements
	TagName() string

	// Data returns the text of text and comment nodes
	Data() string

	// ChildNodes returns all children in order
	ChildNodes() []Node

	// Children returns the element children in order
	Children() []Node

	// Parent returns the parent node, or nil for the root
	Parent() Node

	// NextSibling returns the following sibling, or nil
	NextSibling() Node

	GetAttribute(name string) string
	HasAttribute(name string) bool
	SetAttribute(name, value string)

	// HasClass reports whether the class attribute contains class
	HasClass(class string) bool

	// Classes returns the class list in order
	Classes() []string

	// AddClass appends a class if not present
	AddClass(class string)

	// TextContent recursively concatenates descendant text
	TextContent() string

	// GetElementsByTagName returns descendant elements with the tag in document order.
	// "*" matches every element.
	GetElementsByTagName(tag string) []Node

	// AppendChild moves child to the end of this node's children
	AppendChild(child Node)

	// InsertBefore moves child before ref; a nil ref appends
	InsertBefore(child, ref Node)

	// RemoveChild detaches child
	RemoveChild(child Node)
}

// Document is a parsed fragment wrapped in a root element
type Document interface {
	// Root is the wrapper element holding the parsed fragment
	Root() Node

	CreateElement(tag string) Node
	CreateText(text string) Node

	// OuterHTML serializes a node including its own tag
	OuterHTML(n Node) string

	// InnerHTML serializes the children of a node
	InnerHTML(n Node) string
}

// DOMParser parses HTML fragments. Parsing never fails: malformed markup is
// corrected or dropped on a best-effort basis.
type DOMParser interface {
	Parse(fragment string) Document
	Name() string
}
