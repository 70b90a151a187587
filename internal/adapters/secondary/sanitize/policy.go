// Package sanitize cleans generated slide HTML before it is parsed.
package sanitize

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

var (
	colorValue = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$|^[a-zA-Z]+$|^rgba?\([0-9.,\s%]+\)$`)
	svgNumber  = regexp.MustCompile(`^[-0-9.,\s%a-zA-Z()#]*$`)
)

// svgElements is the drawing subset kept for inline diagrams
var svgElements = []string{
	"svg", "g", "defs", "title", "desc", "path", "rect", "circle", "ellipse",
	"line", "polyline", "polygon", "text", "tspan", "marker", "lineargradient",
	"radialgradient", "stop", "use",
}

var svgAttrs = []string{
	"viewbox", "width", "height", "x", "y", "x1", "y1", "x2", "y2", "cx", "cy",
	"r", "rx", "ry", "d", "points", "fill", "stroke", "stroke-width",
	"stroke-dasharray", "opacity", "transform", "text-anchor", "font-size",
	"font-family", "font-weight", "offset", "stop-color", "marker-end",
	"marker-start", "preserveaspectratio", "xmlns", "refx", "refy",
	"markerwidth", "markerheight", "orient",
}

// Sanitizer implements ports.HTMLSanitizer with a bluemonday policy that keeps
// slide structure and drops scripts and event handlers
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New builds the slide policy
func New(cfg entities.SanitizerConfig) *Sanitizer {
	return &Sanitizer{policy: slidePolicy(cfg)}
}

func slidePolicy(cfg entities.SanitizerConfig) *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements("section", "article", "header", "footer", "aside", "div", "span")
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowElements("p", "br", "hr", "small", "sub", "sup")
	p.AllowElements("strong", "b", "em", "i", "u", "s", "mark")
	p.AllowElements("ul", "ol", "li", "dl", "dt", "dd")
	p.AllowElements("blockquote", "pre", "code", "cite")
	p.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption")
	p.AllowElements("figure", "figcaption", "canvas")
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("th", "td")
	p.AllowAttrs("width", "height").Matching(bluemonday.Integer).OnElements("canvas")

	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.AllowElements("a")
	p.AllowImages()

	p.AllowAttrs("class", "id", "title").Globally()
	p.AllowDataAttributes()
	p.AllowStyling()
	p.AllowStyles("color", "background-color", "border-color").Matching(colorValue).Globally()
	p.AllowStyles("text-align").MatchingEnum("left", "right", "center", "justify").Globally()
	p.AllowStyles("font-weight").MatchingEnum("normal", "bold", "600", "700").Globally()
	p.AllowStyles("font-style").MatchingEnum("normal", "italic").Globally()

	p.AllowElements(svgElements...)
	p.AllowAttrs(svgAttrs...).Matching(svgNumber).OnElements(svgElements...)

	if cfg.AllowIframes {
		p.AllowElements("iframe")
		p.AllowAttrs("src").Matching(regexp.MustCompile(`^https://`)).OnElements("iframe")
		p.AllowAttrs("width", "height").Matching(bluemonday.Integer).OnElements("iframe")
		p.AllowAttrs("allowfullscreen").OnElements("iframe")
	}

	return p
}

// Sanitize returns fragment with disallowed markup removed
func (s *Sanitizer) Sanitize(fragment string) string {
	return s.policy.Sanitize(fragment)
}

var _ ports.HTMLSanitizer = (*Sanitizer)(nil)
