package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

func TestSlideNormalizer_HeadingWalk(t *testing.T) {
	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		doc := parser.Parse(`<h2>A</h2><p>a1</p><p>a2</p><h2>B</h2><ul><li>x</li></ul>`)

		result := NewSlideNormalizer(0, nil).Normalize(doc)

		assert.Equal(t, ModeHeadings, result.Mode)
		require.Equal(t, 2, result.SlideCount())
		assert.Equal(t, []string{"slide-1", "slide-2"}, ids(result.Slides))
		assert.Equal(t, []string{"section", "section"}, childTags(doc.Root()))

		groups := elementsWithClass(doc.Root(), ClassHeadingGroup)
		require.Len(t, groups, 2)
		assert.Equal(t, []string{"h2", "p", "p"}, childTags(groups[0]))
		assert.Equal(t, []string{"h2", "ul"}, childTags(groups[1]))
	})
}

func TestSlideNormalizer_H3StartsSlidesUntilTopHeading(t *testing.T) {
	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		t.Run("only h3", func(t *testing.T) {
			doc := parser.Parse(`<h3>A</h3><p>x</p><h3>B</h3><p>y</p>`)
			result := NewSlideNormalizer(0, nil).Normalize(doc)
			assert.Equal(t, 2, result.SlideCount())
		})

		t.Run("h3 after h2 stays on the slide", func(t *testing.T) {
			doc := parser.Parse(`<h2>A</h2><p>x</p><h3>B</h3><p>y</p>`)
			result := NewSlideNormalizer(0, nil).Normalize(doc)
			require.Equal(t, 1, result.SlideCount())
			assert.Len(t, elementsWithClass(doc.Root(), ClassHeadingGroup), 2)
		})
	})
}

func TestSlideNormalizer_BoundsSlideSize(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 25; i++ {
		fmt.Fprintf(&b, "<p>%d</p>", i)
	}

	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		doc := parser.Parse(b.String())
		result := NewSlideNormalizer(10, nil).Normalize(doc)

		require.Equal(t, 3, result.SlideCount())
		assert.Len(t, result.Slides[0].Children(), 11)
		assert.Len(t, result.Slides[1].Children(), 11)
		assert.Len(t, result.Slides[2].Children(), 3)
	})
}

func TestSlideNormalizer_Segmented(t *testing.T) {
	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		doc := parser.Parse(`<section><h2>A</h2><p>x</p></section><div class="slide" id="keep"><h2>B</h2></div>`)

		result := NewSlideNormalizer(0, nil).Normalize(doc)

		assert.Equal(t, ModeSegmented, result.Mode)
		assert.Equal(t, []string{"slide-1", "keep"}, ids(result.Slides))
		assert.Equal(t, []string{"section", "div"}, childTags(doc.Root()))
		for _, s := range result.Slides {
			assert.Contains(t, s.GetAttribute("style"), SlideLayoutStyle)
		}
	})
}

func TestSlideNormalizer_Idempotent(t *testing.T) {
	inputs := []string{
		`<section><h2>A</h2><p>x</p><h3>B</h3><p>y</p></section><section><h2>C</h2></section>`,
		`<h2>A</h2><p>a</p><h2>B</h2><p>b</p><h2>C</h2>`,
		`<div class="slide-content"><h3>C</h3><p>x</p></div><div class="section-title"><h2>S</h2></div>`,
	}

	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		n := NewSlideNormalizer(0, nil)
		for _, in := range inputs {
			once, first := n.NormalizeHTML(parser, in)
			twice, second := n.NormalizeHTML(parser, once)

			assert.Equal(t, first.SlideCount(), second.SlideCount(), in)
			assert.Equal(t, ids(first.Slides), ids(second.Slides), in)
			assert.Equal(t, ModeSegmented, second.Mode, in)

			onceDoc, twiceDoc := parser.Parse(once), parser.Parse(twice)
			assert.Equal(t,
				len(elementsWithClass(onceDoc.Root(), ClassHeadingGroup)),
				len(elementsWithClass(twiceDoc.Root(), ClassHeadingGroup)), in)
			assert.Equal(t, 1, strings.Count(second.Slides[0].GetAttribute("style"), "min-height"), in)
		}
	})
}

func TestSlideNormalizer_PartialPassThrough(t *testing.T) {
	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		doc := parser.Parse(`<section><h2>A</h2><p>x</p></section><p>loose</p><h2>Orphan</h2>`)

		result := NewSlideNormalizer(0, nil).Normalize(doc)

		assert.Equal(t, ModePartial, result.Mode)
		require.Equal(t, 1, result.SlideCount())
		assert.Equal(t, []string{"section", "p", "h2"}, childTags(doc.Root()))
		assert.Len(t, elementsWithClass(result.Slides[0], ClassHeadingGroup), 1)
	})
}

func TestSlideNormalizer_BoundaryContainers(t *testing.T) {
	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		doc := parser.Parse(`<div class="title-slide"><h1>T</h1></div><div class="slide-content"><h3>C</h3><p>x</p></div>`)

		result := NewSlideNormalizer(0, nil).Normalize(doc)

		assert.Equal(t, ModeContainers, result.Mode)
		require.Equal(t, 2, result.SlideCount())
		assert.True(t, result.Slides[0].HasClass(ClassTitleSlide))
		assert.Equal(t, "title-slide", result.Slides[0].GetAttribute("data-role"))
		assert.Equal(t, "content", result.Slides[1].GetAttribute("data-role"))
		assert.Equal(t, []string{"div"}, childTags(result.Slides[1]))
	})
}

func TestSlideNormalizer_UnwrapsSlideContainer(t *testing.T) {
	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		doc := parser.Parse(`<div class="slides"><section><h2>A</h2></section><section><h2>B</h2></section></div>`)

		result := NewSlideNormalizer(0, nil).Normalize(doc)

		assert.Equal(t, ModeSegmented, result.Mode)
		assert.Equal(t, 2, result.SlideCount())
	})
}

func TestSlideNormalizer_KeepsExistingStyle(t *testing.T) {
	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		doc := parser.Parse(`<section style="color: red"><p>x</p></section>`)

		result := NewSlideNormalizer(0, nil).Normalize(doc)

		require.Equal(t, 1, result.SlideCount())
		assert.Equal(t, "color: red; "+SlideLayoutStyle, result.Slides[0].GetAttribute("style"))
	})
}

func TestSlideNormalizer_Empty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		for _, in := range []string{"", "   ", "<!-- nothing -->"} {
			logger := &recordingLogger{}
			doc := parser.Parse(in)

			result := NewSlideNormalizer(0, logger).Normalize(doc)

			assert.Equal(t, ModeEmpty, result.Mode)
			assert.Zero(t, result.SlideCount())
			assert.Len(t, logger.warns, 1)
		}
	})
}

// Every heading ends up in one wrapper with the siblings that followed it
func TestSlideNormalizer_HeadingGroupProperty(t *testing.T) {
	fragments := []string{
		`<h2>A</h2><p>1</p><p>2</p>`,
		`<section><h1>T</h1><p>sub</p><h3>x</h3><ul><li>a</li></ul><table><tr><td>1</td></tr></table></section>`,
		`<section><div class="feature-panel"><h4>F</h4><p>f</p></div><h3>N</h3><blockquote>q</blockquote></section>`,
		`<h3>A</h3><p>1</p><h4>B</h4><pre>code</pre><h2>C</h2><p>3</p>`,
	}

	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		for _, fragment := range fragments {
			before := parser.Parse(fragment)
			expected := map[string][]string{}
			for _, h := range before.Root().GetElementsByTagName("*") {
				if !isHeading(h) {
					continue
				}
				var followers []string
				for sib := h.NextSibling(); sib != nil && !isHeading(sib); sib = sib.NextSibling() {
					if sib.Type() == ports.ElementNode {
						followers = append(followers, sib.TagName())
					}
				}
				expected[textOf(h)] = followers
			}

			doc := parser.Parse(fragment)
			NewSlideNormalizer(0, nil).Normalize(doc)

			for _, h := range doc.Root().GetElementsByTagName("*") {
				if !isHeading(h) {
					continue
				}
				group := h.Parent()
				require.True(t, group.HasClass(ClassHeadingGroup), fragment)
				tags := childTags(group)
				assert.Equal(t, h.TagName(), tags[0], fragment)
				assert.Equal(t, expected[textOf(h)], tags[1:], fragment)
			}
		}
	})
}
