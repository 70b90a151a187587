package services

import (
	"strings"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

var (
	featurePanelClasses = []string{"feature-panel", "feature-card"}
	timelineItemClasses = []string{"timeline-item"}
	gridClasses         = []string{"grid-container"}
	diagramClasses      = []string{"diagram", "diagram-container", "chart", "chart-container", "mermaid"}
)

// blockExtractor walks one slide. Processors run in a fixed order; each
// marks the elements it took so later processors skip their descendants.
type blockExtractor struct {
	doc      ports.Document
	slide    ports.Node
	title    ports.Node
	elements []ports.Node
	taken    map[ports.Node]bool
	blocks   []entities.ContentBlock
}

// ExtractBlocks recognizes the content blocks of a slide. The first heading
// comes first, then feature panels, timeline items, grids, paragraphs and
// sub-headings, unordered lists, ordered lists, tables, quotes, code,
// standalone SVGs, diagrams and canvases.
func ExtractBlocks(doc ports.Document, slide ports.Node) []entities.ContentBlock {
	e := &blockExtractor{
		doc:      doc,
		slide:    slide,
		title:    firstHeading(slide),
		elements: slide.GetElementsByTagName("*"),
		taken:    make(map[ports.Node]bool),
	}
	for _, n := range notesNodes(slide) {
		e.take(n)
	}

	if e.title != nil {
		e.take(e.title)
		e.add(entities.ContentBlock{Kind: entities.BlockHeading, Level: headingLevel(e.title), Text: textOf(e.title)})
	}

	e.featurePanels()
	e.timelineItems()
	e.grids()
	e.paragraphs()
	e.lists("ul", false)
	e.lists("ol", true)
	e.tables()
	e.quotes()
	e.code()
	e.svgs()
	e.diagrams()
	e.canvases()

	return e.blocks
}

func (e *blockExtractor) add(b entities.ContentBlock) {
	e.blocks = append(e.blocks, b)
}

func (e *blockExtractor) take(n ports.Node) {
	e.taken[n] = true
}

// available reports whether neither n nor an ancestor was taken
func (e *blockExtractor) available(n ports.Node) bool {
	if e.taken[n] {
		return false
	}
	return !hasAncestor(n, e.slide, func(p ports.Node) bool { return e.taken[p] })
}

func (e *blockExtractor) each(pred func(ports.Node) bool, fn func(ports.Node)) {
	for _, el := range e.elements {
		if pred(el) && e.available(el) {
			e.take(el)
			fn(el)
		}
	}
}

func (e *blockExtractor) featurePanels() {
	e.each(func(n ports.Node) bool { return hasAnyClass(n, featurePanelClasses...) }, func(n ports.Node) {
		if text := textOf(n); text != "" {
			e.add(entities.ContentBlock{Kind: entities.BlockFeaturePanel, Text: text})
		}
	})
}

func (e *blockExtractor) timelineItems() {
	e.each(func(n ports.Node) bool { return hasAnyClass(n, timelineItemClasses...) }, func(n ports.Node) {
		block := entities.ContentBlock{Kind: entities.BlockTimelineItem}
		var parts []string

		for _, el := range n.GetElementsByTagName("*") {
			switch {
			case block.Number == "" && hasClassContaining(el, "number", "marker", "date"):
				block.Number = textOf(el)
			case block.Title == "" && (isHeading(el) || hasClassContaining(el, "title")):
				block.Title = textOf(el)
			case el.TagName() == "p":
				parts = append(parts, textOf(el))
			}
		}

		block.Text = strings.Join(parts, "\n")
		if block.Text == "" && block.Title == "" {
			block.Text = textOf(n)
		}
		e.add(block)
	})
}

func (e *blockExtractor) grids() {
	e.each(func(n ports.Node) bool { return hasAnyClass(n, gridClasses...) }, func(n ports.Node) {
		block := entities.ContentBlock{Kind: entities.BlockGrid}
		for _, item := range n.Children() {
			block.GridItems = append(block.GridItems, gridItem(item))
		}
		if len(block.GridItems) > 0 {
			e.add(block)
		}
	})
}

func gridItem(item ports.Node) entities.GridItem {
	var title ports.Node
	for _, el := range item.GetElementsByTagName("*") {
		if isHeading(el) || el.TagName() == "strong" || hasClassContaining(el, "title") {
			title = el
			break
		}
	}
	if title == nil {
		return entities.GridItem{Text: textOf(item)}
	}

	full := textOf(item)
	head := textOf(title)
	return entities.GridItem{
		Title: head,
		Text:  strings.TrimSpace(strings.Replace(full, head, "", 1)),
	}
}

// paragraphs also emits sub-headings so that the text flow keeps its order
func (e *blockExtractor) paragraphs() {
	inList := func(n ports.Node) bool {
		return hasAncestor(n, e.slide, func(p ports.Node) bool {
			switch p.TagName() {
			case "li", "blockquote", "td", "th", "figure", "pre":
				return true
			}
			return false
		})
	}

	e.each(func(n ports.Node) bool {
		return (n.TagName() == "p" || isHeading(n)) && !inList(n) && !e.inDiagram(n)
	}, func(n ports.Node) {
		text := textOf(n)
		if text == "" {
			return
		}
		if level := headingLevel(n); level > 0 {
			e.add(entities.ContentBlock{Kind: entities.BlockHeading, Level: level, Text: text})
			return
		}
		e.add(entities.ContentBlock{Kind: entities.BlockParagraph, Text: text})
	})
}

func (e *blockExtractor) lists(tag string, ordered bool) {
	e.each(func(n ports.Node) bool { return n.TagName() == tag }, func(n ports.Node) {
		var items []string
		for _, li := range n.Children() {
			if li.TagName() != "li" {
				continue
			}
			if text := listItemText(li); text != "" {
				items = append(items, text)
			}
		}
		if len(items) > 0 {
			e.add(entities.ContentBlock{Kind: entities.BlockList, Ordered: ordered, Items: items})
		}
	})
}

// listItemText is the text of an item without its nested lists
func listItemText(li ports.Node) string {
	var b strings.Builder
	var walk func(ports.Node)
	walk = func(n ports.Node) {
		for _, c := range n.ChildNodes() {
			switch {
			case c.Type() == ports.TextNode:
				b.WriteString(c.Data())
				b.WriteByte(' ')
			case c.TagName() == "ul" || c.TagName() == "ol":
			default:
				walk(c)
			}
		}
	}
	walk(li)
	return collapse(b.String())
}

func (e *blockExtractor) tables() {
	e.each(func(n ports.Node) bool { return n.TagName() == "table" }, func(n ports.Node) {
		block := entities.ContentBlock{Kind: entities.BlockTable}
		for i, tr := range n.GetElementsByTagName("tr") {
			var row []string
			headerRow := true
			for _, cell := range tr.Children() {
				switch cell.TagName() {
				case "th":
					row = append(row, textOf(cell))
				case "td":
					headerRow = false
					row = append(row, textOf(cell))
				}
			}
			if len(row) == 0 {
				continue
			}
			if i == 0 && headerRow {
				block.HasHeader = true
			}
			block.Rows = append(block.Rows, row)
		}
		if len(block.Rows) > 0 {
			e.add(block)
		}
	})
}

func (e *blockExtractor) quotes() {
	e.each(func(n ports.Node) bool { return n.TagName() == "blockquote" }, func(n ports.Node) {
		if text := textOf(n); text != "" {
			e.add(entities.ContentBlock{Kind: entities.BlockQuote, Text: text})
		}
	})
}

func (e *blockExtractor) code() {
	e.each(func(n ports.Node) bool { return n.TagName() == "pre" }, func(n ports.Node) {
		text := strings.Trim(n.TextContent(), "\n")
		if strings.TrimSpace(text) != "" {
			e.add(entities.ContentBlock{Kind: entities.BlockCode, Text: text})
		}
	})
}

func (e *blockExtractor) inDiagram(n ports.Node) bool {
	return hasAncestor(n, e.slide, func(p ports.Node) bool {
		return p.TagName() == "div" && hasAnyClass(p, diagramClasses...)
	})
}

func (e *blockExtractor) svgs() {
	e.each(func(n ports.Node) bool { return n.TagName() == "svg" && !e.inDiagram(n) }, func(n ports.Node) {
		e.add(entities.ContentBlock{
			Kind:    entities.BlockSVG,
			Markup:  e.doc.OuterHTML(n),
			Caption: figureCaption(n, e.slide),
		})
	})
}

// diagrams takes diagram containers holding an SVG or only text. Containers
// drawn on a canvas are left to the canvas processor.
func (e *blockExtractor) diagrams() {
	isDiagram := func(n ports.Node) bool {
		return n.TagName() == "div" && hasAnyClass(n, diagramClasses...) && len(n.GetElementsByTagName("canvas")) == 0
	}
	e.each(isDiagram, func(n ports.Node) {
		block := entities.ContentBlock{Kind: entities.BlockDiagram, Caption: figureCaption(n, e.slide)}
		if svgs := n.GetElementsByTagName("svg"); len(svgs) > 0 {
			block.Markup = e.doc.OuterHTML(svgs[0])
		} else {
			block.Text = textOf(n)
		}
		if block.Markup != "" || block.Text != "" {
			e.add(block)
		}
	})
}

// canvases ignores taken ancestors: every canvas yields a placeholder
func (e *blockExtractor) canvases() {
	for _, el := range e.elements {
		if el.TagName() != "canvas" {
			continue
		}
		e.take(el)
		e.add(entities.ContentBlock{
			Kind:    entities.BlockCanvas,
			Caption: entities.CanvasPlaceholderCaption,
			Title:   figureCaption(el, e.slide),
		})
	}
}

// figureCaption returns the figcaption of the closest enclosing figure
func figureCaption(n, stop ports.Node) string {
	for p := n.Parent(); p != nil && p != stop; p = p.Parent() {
		if p.TagName() != "figure" {
			continue
		}
		for _, c := range p.Children() {
			if c.TagName() == "figcaption" {
				return textOf(c)
			}
		}
		return ""
	}
	return ""
}

func hasClassContaining(n ports.Node, parts ...string) bool {
	for _, c := range n.Classes() {
		for _, p := range parts {
			if strings.Contains(c, p) {
				return true
			}
		}
	}
	return false
}
