package services

import (
	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

// themedTags maps the elements that receive inline colors to the theme role they use
var themedTags = map[string]func(entities.ColorTheme) string{
	"h1": primaryColor, "h2": primaryColor, "h3": primaryColor,
	"h4": primaryColor, "h5": primaryColor, "h6": primaryColor,
	"p": textColor, "ul": textColor, "ol": textColor, "li": textColor,
}

func primaryColor(t entities.ColorTheme) string { return t.Primary }
func textColor(t entities.ColorTheme) string    { return t.Text }

// ApplyInlineTheme writes the theme colors into the style attribute of every
// heading, paragraph, list and list item under each slide. The slide-show
// engine has no theming API, so this runs again after every content change.
func ApplyInlineTheme(slides []ports.Node, theme entities.ColorTheme) int {
	theme = theme.WithDefaults()
	count := 0
	for _, slide := range slides {
		for _, el := range slide.GetElementsByTagName("*") {
			color, ok := themedTags[el.TagName()]
			if !ok {
				continue
			}
			el.SetAttribute("style", setStyleProperty(el.GetAttribute("style"), "color", color(theme)))
			count++
		}
	}
	return count
}

// ApplyInlineThemeHTML parses a normalized fragment, themes its slides and serializes it back
func ApplyInlineThemeHTML(parser ports.DOMParser, fragment string, theme entities.ColorTheme) string {
	doc := parser.Parse(fragment)
	slides := outermost(doc.Root(), isSlideLike)
	if len(slides) == 0 {
		slides = []ports.Node{doc.Root()}
	}
	ApplyInlineTheme(slides, theme)
	return doc.InnerHTML(doc.Root())
}
