package services

import (
	"strings"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

// Class names shared by the normalizer, the outline structurer and the exporters
const (
	ClassSlide             = "slide"
	ClassSlideContent      = "slide-content"
	ClassSectionTitle      = "section-title"
	ClassTitleSlide        = "title-slide"
	ClassSectionContainer  = "section-container"
	ClassHeadingGroup      = "heading-content-group"
	ClassOutlineStructured = "outline-structured"
)

// headingLevel returns 1-6 for h1-h6 elements and 0 otherwise
func headingLevel(n ports.Node) int {
	if n == nil || n.Type() != ports.ElementNode {
		return 0
	}
	tag := n.TagName()
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func isHeading(n ports.Node) bool {
	return headingLevel(n) > 0
}

// isSlideLike reports whether n is already a slide block
func isSlideLike(n ports.Node) bool {
	return n != nil && n.Type() == ports.ElementNode && (n.TagName() == "section" || n.HasClass(ClassSlide))
}

func hasAnyClass(n ports.Node, classes ...string) bool {
	if n == nil || n.Type() != ports.ElementNode {
		return false
	}
	for _, c := range classes {
		if n.HasClass(c) {
			return true
		}
	}
	return false
}

// meaningful drops comments and whitespace-only text
func meaningful(nodes []ports.Node) []ports.Node {
	out := make([]ports.Node, 0, len(nodes))
	for _, n := range nodes {
		if isMeaningful(n) {
			out = append(out, n)
		}
	}
	return out
}

func isMeaningful(n ports.Node) bool {
	switch n.Type() {
	case ports.ElementNode:
		return true
	case ports.TextNode:
		return strings.TrimSpace(n.Data()) != ""
	default:
		return false
	}
}

// outermost returns elements under root matching pred that have no matching ancestor below root
func outermost(root ports.Node, pred func(ports.Node) bool) []ports.Node {
	var out []ports.Node
	var walk func(ports.Node)
	walk = func(n ports.Node) {
		for _, c := range n.Children() {
			if pred(c) {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// hasAncestor reports whether an ancestor of n strictly below stop satisfies pred
func hasAncestor(n, stop ports.Node, pred func(ports.Node) bool) bool {
	for p := n.Parent(); p != nil && p != stop; p = p.Parent() {
		if pred(p) {
			return true
		}
	}
	return false
}

// collapse trims and folds runs of whitespace into single spaces
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func textOf(n ports.Node) string {
	if n == nil {
		return ""
	}
	return collapse(n.TextContent())
}

// firstHeading returns the first h1-h6 under n in document order, ignoring speaker notes
func firstHeading(n ports.Node) ports.Node {
	for _, el := range n.GetElementsByTagName("*") {
		if isHeading(el) && !isSpeakerNotes(el) && !hasAncestor(el, n, isSpeakerNotes) {
			return el
		}
	}
	return nil
}

// setStyleProperty replaces or appends one declaration in an inline style
func setStyleProperty(style, prop, value string) string {
	var decls []string
	replaced := false
	for _, d := range strings.Split(style, ";") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		name, _, _ := strings.Cut(d, ":")
		if strings.EqualFold(strings.TrimSpace(name), prop) {
			if !replaced {
				decls = append(decls, prop+": "+value)
				replaced = true
			}
			continue
		}
		decls = append(decls, d)
	}
	if !replaced {
		decls = append(decls, prop+": "+value)
	}
	return strings.Join(decls, "; ") + ";"
}
