package services

import (
	"fmt"
	"strings"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

// NormalizeMode reports which branch of the normalization ran
type NormalizeMode string

const (
	// ModeSegmented means every top-level block was already a slide
	ModeSegmented NormalizeMode = "segmented"
	// ModePartial means some slides existed and the fragment was passed through
	ModePartial NormalizeMode = "partial"
	// ModeContainers means slides were built from boundary containers
	ModeContainers NormalizeMode = "containers"
	// ModeHeadings means slides were cut at headings
	ModeHeadings NormalizeMode = "headings"
	// ModeEmpty means the fragment had no content
	ModeEmpty NormalizeMode = "empty"
)

// SlideLayoutStyle is the inline layout every slide block receives
const SlideLayoutStyle = "min-height: 100%; overflow: visible; display: flex; flex-direction: column; padding: 20px 40px;"

// DefaultMaxSlideNodes bounds the number of nodes the heading walk puts on one slide
const DefaultMaxSlideNodes = 10

var boundaryClasses = []string{ClassSlideContent, ClassSectionTitle, ClassTitleSlide, ClassSectionContainer}

// NormalizeResult describes a normalized fragment
type NormalizeResult struct {
	Mode   NormalizeMode
	Slides []ports.Node
}

// SlideCount returns the number of slide blocks
func (r NormalizeResult) SlideCount() int {
	return len(r.Slides)
}

// SlideNormalizer partitions an HTML fragment into slide blocks
type SlideNormalizer struct {
	maxNodes int
	logger   ports.Logger
}

// NewSlideNormalizer creates a normalizer. maxNodes <= 0 uses DefaultMaxSlideNodes.
func NewSlideNormalizer(maxNodes int, logger ports.Logger) *SlideNormalizer {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxSlideNodes
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &SlideNormalizer{maxNodes: maxNodes, logger: logger}
}

// Normalize rewrites doc in place so that it holds one slide block per slide
func (n *SlideNormalizer) Normalize(doc ports.Document) NormalizeResult {
	root := doc.Root()
	top := meaningful(root.ChildNodes())
	if len(top) == 0 {
		n.logger.Warn("fragment has no content, nothing to normalize")
		return NormalizeResult{Mode: ModeEmpty}
	}

	// a lone wrapper such as <div class="slides"> holding only slides
	parent := root
	if len(top) == 1 && top[0].Type() == ports.ElementNode && !isSlideLike(top[0]) {
		inner := meaningful(top[0].ChildNodes())
		if len(inner) > 0 && allSlideLike(inner) {
			parent, top = top[0], inner
		}
	}

	var result NormalizeResult
	switch {
	case allSlideLike(top):
		result = NormalizeResult{Mode: ModeSegmented, Slides: top}
	case len(outermost(parent, isSlideLike)) > 0:
		result = NormalizeResult{Mode: ModePartial, Slides: outermost(parent, isSlideLike)}
	default:
		containers := outermost(parent, func(el ports.Node) bool { return hasAnyClass(el, boundaryClasses...) })
		if len(containers) > 0 {
			result = NormalizeResult{Mode: ModeContainers, Slides: n.wrapContainers(doc, containers)}
		} else {
			result = NormalizeResult{Mode: ModeHeadings, Slides: n.splitAtHeadings(doc, parent)}
		}
	}

	for i, slide := range result.Slides {
		n.finishSlide(doc, slide, i)
	}

	n.logger.Debug("normalized fragment into %d slides (mode %s)", len(result.Slides), result.Mode)
	return result
}

// NormalizeHTML parses, normalizes and serializes a fragment
func (n *SlideNormalizer) NormalizeHTML(parser ports.DOMParser, fragment string) (string, NormalizeResult) {
	doc := parser.Parse(fragment)
	result := n.Normalize(doc)
	return doc.InnerHTML(doc.Root()), result
}

func allSlideLike(nodes []ports.Node) bool {
	for _, c := range nodes {
		if !isSlideLike(c) {
			return false
		}
	}
	return true
}

func (n *SlideNormalizer) wrapContainers(doc ports.Document, containers []ports.Node) []ports.Node {
	slides := make([]ports.Node, 0, len(containers))
	for _, c := range containers {
		section := doc.CreateElement("section")
		section.AddClass(ClassSlide)
		for _, role := range []string{ClassTitleSlide, ClassSectionTitle} {
			if c.HasClass(role) {
				section.AddClass(role)
			}
		}
		c.Parent().InsertBefore(section, c)
		section.AppendChild(c)
		slides = append(slides, section)
	}
	return slides
}

// splitAtHeadings cuts the direct children of parent into slides. A slide
// starts at every h1/h2, and at h3 until the first h1/h2 has been seen.
func (n *SlideNormalizer) splitAtHeadings(doc ports.Document, parent ports.Node) []ports.Node {
	nodes := parent.ChildNodes()

	var slides []ports.Node
	var current []ports.Node
	count := 0
	seenTopHeading := false

	flush := func() {
		if count == 0 {
			return
		}
		section := doc.CreateElement("section")
		section.AddClass(ClassSlide)
		parent.InsertBefore(section, current[0])
		for _, c := range current {
			section.AppendChild(c)
		}
		slides = append(slides, section)
		current, count = nil, 0
	}

	for i, node := range nodes {
		level := headingLevel(node)
		startsSlide := level == 1 || level == 2 || (level == 3 && !seenTopHeading)
		if level == 1 || level == 2 {
			seenTopHeading = true
		}

		if startsSlide {
			flush()
		}

		current = append(current, node)
		if isMeaningful(node) {
			count++
		}

		if count > n.maxNodes || i == len(nodes)-1 {
			flush()
		}
	}

	return slides
}

func (n *SlideNormalizer) finishSlide(doc ports.Document, slide ports.Node, index int) {
	if strings.TrimSpace(slide.GetAttribute("id")) == "" {
		slide.SetAttribute("id", fmt.Sprintf("slide-%d", index+1))
	}

	if !slide.HasAttribute("data-role") {
		slide.SetAttribute("data-role", string(slideRole(slide)))
	}

	groupHeadings(doc, slide)

	style := strings.TrimSpace(slide.GetAttribute("style"))
	if !strings.Contains(style, SlideLayoutStyle) {
		if style != "" && !strings.HasSuffix(style, ";") {
			style += ";"
		}
		slide.SetAttribute("style", strings.TrimSpace(style+" "+SlideLayoutStyle))
	}
}

// slideRole derives the role from the slide classes, then from its first child element
func slideRole(slide ports.Node) entities.SlideRole {
	if role := entities.RoleFromClasses(slide.Classes()); role != entities.RoleContent {
		return role
	}
	if children := slide.Children(); len(children) > 0 {
		return entities.RoleFromClasses(children[0].Classes())
	}
	return entities.RoleContent
}

// groupHeadings wraps every heading and its following non-heading siblings
// in a heading-content-group. Headings already grouped are left alone.
func groupHeadings(doc ports.Document, scope ports.Node) {
	var headings []ports.Node
	for _, el := range scope.GetElementsByTagName("*") {
		if isHeading(el) {
			headings = append(headings, el)
		}
	}

	for _, h := range headings {
		parent := h.Parent()
		if parent == nil || parent.HasClass(ClassHeadingGroup) {
			continue
		}

		group := doc.CreateElement("div")
		group.AddClass(ClassHeadingGroup)
		parent.InsertBefore(group, h)

		next := h.NextSibling()
		group.AppendChild(h)
		for next != nil && !isHeading(next) && !next.HasClass(ClassHeadingGroup) {
			following := next.NextSibling()
			group.AppendChild(next)
			next = following
		}
	}
}
