package services

import (
	"html"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

// Default title slide used when the generated HTML has none
const (
	DefaultDeckTitle    = "Présentation"
	DefaultDeckSubtitle = "Généré par DiapoAI"
	PlaceholderText     = "Contenu à venir..."
)

var containerClasses = []string{ClassSlide, ClassSlideContent, ClassSectionContainer}

// OutlineStructurer reorders generated HTML to follow an approved outline
type OutlineStructurer struct {
	parser ports.DOMParser
	logger ports.Logger
}

// NewOutlineStructurer creates a structurer parsing with parser
func NewOutlineStructurer(parser ports.DOMParser, logger ports.Logger) *OutlineStructurer {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &OutlineStructurer{parser: parser, logger: logger}
}

// IsStructured reports whether fragment is already the output of Structure
func (s *OutlineStructurer) IsStructured(fragment string) bool {
	doc := s.parser.Parse(fragment)
	for _, el := range doc.Root().GetElementsByTagName("*") {
		if el.HasClass(ClassOutlineStructured) {
			return true
		}
	}
	return false
}

// Structure emits a title slide, then one section-title slide per section
// followed by one content slide per subsection. Subsections without
// matching content get a placeholder slide. Already structured input is
// returned unchanged.
func (s *OutlineStructurer) Structure(rawHTML string, outline entities.Outline) string {
	doc := s.parser.Parse(rawHTML)
	root := doc.Root()
	elements := root.GetElementsByTagName("*")

	for _, el := range elements {
		if el.HasClass(ClassOutlineStructured) {
			s.logger.Debug("fragment already structured, leaving it unchanged")
			return rawHTML
		}
	}

	var b strings.Builder
	b.WriteString(`<div class="` + ClassOutlineStructured + `">`)

	b.WriteString(s.titleSlide(doc, elements))

	placeholders := 0
	for _, section := range outline {
		b.WriteString(`<section class="` + ClassSectionTitle + `"><h2>`)
		b.WriteString(html.EscapeString(section.Title))
		b.WriteString(`</h2></section>`)

		for _, sub := range section.Subsections {
			body, found := s.findContent(doc, elements, sub)
			if !found {
				placeholders++
				body = "<h3>" + html.EscapeString(sub) + "</h3><p>" + PlaceholderText + "</p>"
			}
			b.WriteString(`<section class="` + ClassSlideContent + `">`)
			b.WriteString(body)
			b.WriteString(`</section>`)
		}
	}

	b.WriteString(`</div>`)

	s.logger.Debug("structured %d sections (%d slides, %d placeholders)", len(outline), outline.SlideCount(), placeholders)
	return b.String()
}

func (s *OutlineStructurer) titleSlide(doc ports.Document, elements []ports.Node) string {
	for _, el := range elements {
		if !el.HasClass(ClassTitleSlide) {
			continue
		}
		if el.TagName() == "section" {
			return doc.OuterHTML(el)
		}
		return `<section class="` + ClassTitleSlide + `">` + doc.OuterHTML(el) + `</section>`
	}

	return `<section class="` + ClassTitleSlide + `"><h1>` + DefaultDeckTitle + `</h1><p>` + DefaultDeckSubtitle + `</p></section>`
}

// findContent looks for an exact heading match first, then for the
// innermost element whose text contains the title
func (s *OutlineStructurer) findContent(doc ports.Document, elements []ports.Node, title string) (string, bool) {
	key := matchKey(title)
	if key == "" {
		return "", false
	}

	for _, el := range elements {
		if level := headingLevel(el); level == 0 || level > 4 {
			continue
		}
		if matchKey(el.TextContent()) != key {
			continue
		}

		var b strings.Builder
		b.WriteString(doc.OuterHTML(el))
		for sib := el.NextSibling(); sib != nil && !isHeading(sib); sib = sib.NextSibling() {
			b.WriteString(doc.OuterHTML(sib))
		}
		return b.String(), true
	}

	leaf := innermostContaining(doc.Root(), key)
	if leaf == nil {
		return "", false
	}

	for n := leaf; n != nil && n != doc.Root(); n = n.Parent() {
		if n.TagName() == "section" || n.TagName() == "article" {
			return doc.InnerHTML(n), true
		}
		if hasAnyClass(n, containerClasses...) {
			return doc.OuterHTML(n), true
		}
	}

	return doc.OuterHTML(leaf), true
}

// innermostContaining returns the first element in document order whose
// text contains key while none of its element children do
func innermostContaining(root ports.Node, key string) ports.Node {
	var found ports.Node
	var walk func(ports.Node) bool
	walk = func(n ports.Node) bool {
		for _, c := range n.Children() {
			if !strings.Contains(matchKey(c.TextContent()), key) {
				continue
			}
			if !walk(c) {
				found = c
			}
			return true
		}
		return false
	}
	walk(root)
	return found
}

// matchKey is the comparison form of a title: trimmed, whitespace
// collapsed, NFC-normalized and case-folded
func matchKey(s string) string {
	return cases.Fold().String(norm.NFC.String(collapse(s)))
}
