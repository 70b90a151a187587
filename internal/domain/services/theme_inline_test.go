package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

func TestApplyInlineTheme(t *testing.T) {
	theme := entities.ColorTheme{Primary: "#1B4D3E", Secondary: "#FF9B7A", Background: "#FFFFFF", Text: "#333333"}

	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		doc := parser.Parse(`<section><h2 style="font-size: 2em; color: red">T</h2><p>a</p><ul><li>x</li></ul><span>s</span></section>`)
		slides := outermost(doc.Root(), isSlideLike)

		count := ApplyInlineTheme(slides, theme)

		assert.Equal(t, 4, count)
		h2 := doc.Root().GetElementsByTagName("h2")[0]
		assert.Equal(t, "font-size: 2em; color: #1B4D3E;", h2.GetAttribute("style"))
		assert.Equal(t, "color: #333333;", doc.Root().GetElementsByTagName("p")[0].GetAttribute("style"))
		assert.Equal(t, "color: #333333;", doc.Root().GetElementsByTagName("li")[0].GetAttribute("style"))
		assert.False(t, doc.Root().GetElementsByTagName("span")[0].HasAttribute("style"))
	})
}

func TestApplyInlineTheme_ReapplyReplacesColor(t *testing.T) {
	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		out := ApplyInlineThemeHTML(parser, `<section><h1>T</h1></section>`, entities.DefaultColorTheme())
		out = ApplyInlineThemeHTML(parser, out, entities.ColorTheme{Primary: "#000000"})

		doc := parser.Parse(out)
		h1 := doc.Root().GetElementsByTagName("h1")
		require.Len(t, h1, 1)
		assert.Equal(t, "color: #000000;", h1[0].GetAttribute("style"))
	})
}

func TestSetStyleProperty(t *testing.T) {
	assert.Equal(t, "color: blue;", setStyleProperty("", "color", "blue"))
	assert.Equal(t, "margin: 0; color: blue;", setStyleProperty("margin: 0; COLOR: red;", "color", "blue"))
	assert.Equal(t, "color: blue;", setStyleProperty("color: red; color: green", "color", "blue"))
}
