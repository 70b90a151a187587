package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

func tagNames(nodes []ports.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.TagName())
	}
	return out
}

func TestNewParser(t *testing.T) {
	t.Run("known backends", func(t *testing.T) {
		for _, name := range Backends {
			p, err := NewParser(name)
			require.NoError(t, err)
			assert.Equal(t, name, p.Name())
		}
	})

	t.Run("empty defaults to html", func(t *testing.T) {
		p, err := NewParser("")
		require.NoError(t, err)
		assert.Equal(t, "html", p.Name())
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewParser("jsdom")
		assert.Error(t, err)
	})
}

func TestBackendsAgreeOnWellFormedFragments(t *testing.T) {
	fragment := `<section class="slide intro" id="s1"><h2>Titre</h2><p>Un <strong>texte</strong> important</p>` +
		`<ul><li>A</li><li>B</li></ul></section><section class="slide"><h3>Suite</h3></section>`

	for _, name := range Backends {
		t.Run(name, func(t *testing.T) {
			p, err := NewParser(name)
			require.NoError(t, err)

			doc := p.Parse(fragment)
			root := doc.Root()

			sections := root.Children()
			require.Len(t, sections, 2)
			assert.Equal(t, "section", sections[0].TagName())
			assert.True(t, sections[0].HasClass("slide"))
			assert.True(t, sections[0].HasClass("intro"))
			assert.False(t, sections[0].HasClass("outro"))
			assert.Equal(t, "s1", sections[0].GetAttribute("id"))

			assert.Equal(t, []string{"h2", "p", "strong", "ul", "li", "li"}, tagNames(sections[0].GetElementsByTagName("*")))
			assert.Len(t, root.GetElementsByTagName("li"), 2)
			assert.Equal(t, "Un texte important", sections[0].GetElementsByTagName("p")[0].TextContent())
			assert.Equal(t, "TitreUn texte importantAB", sections[0].TextContent())
			assert.Equal(t, root, sections[0].Parent())
			assert.Equal(t, sections[1], sections[0].NextSibling())
			assert.Nil(t, sections[1].NextSibling())
		})
	}
}

func TestBackendsMutation(t *testing.T) {
	for _, name := range Backends {
		t.Run(name, func(t *testing.T) {
			p, err := NewParser(name)
			require.NoError(t, err)

			doc := p.Parse(`<h2>A</h2><p>x</p><h2>B</h2>`)
			root := doc.Root()
			children := root.Children()
			require.Len(t, children, 3)

			wrapper := doc.CreateElement("div")
			wrapper.AddClass("group")
			wrapper.AddClass("group")
			root.InsertBefore(wrapper, children[0])
			wrapper.AppendChild(children[0])
			wrapper.AppendChild(children[1])

			assert.Equal(t, "group", wrapper.GetAttribute("class"))
			assert.Equal(t, []string{"div", "h2"}, tagNames(root.Children()))
			assert.Equal(t, []string{"h2", "p"}, tagNames(wrapper.Children()))
			assert.Equal(t, wrapper, children[0].Parent())

			root.RemoveChild(children[2])
			assert.Nil(t, children[2].Parent())
			assert.Len(t, root.Children(), 1)

			wrapper.AppendChild(doc.CreateText("fin"))
			html := doc.InnerHTML(root)
			assert.Contains(t, html, `<div class="group"><h2>A</h2><p>x</p>fin</div>`)
		})
	}
}

func TestBackendsTolerateMalformedMarkup(t *testing.T) {
	inputs := []string{
		`<p>unclosed <strong>bold`,
		`<div><p>a<p>b</div>`,
		`<br><img src="x.png">texte &nbsp; suite`,
		``,
	}

	for _, name := range Backends {
		p, err := NewParser(name)
		require.NoError(t, err)
		for _, in := range inputs {
			assert.NotPanics(t, func() {
				doc := p.Parse(in)
				_ = doc.InnerHTML(doc.Root())
				_ = doc.Root().TextContent()
			}, "%s: %q", name, in)
		}
	}
}

func TestXMLBackendSerializesVoidElements(t *testing.T) {
	p, err := NewParser("xml")
	require.NoError(t, err)

	doc := p.Parse(`<p>a<br>b</p>`)
	out := doc.InnerHTML(doc.Root())
	assert.True(t, strings.Contains(out, "<br/>"), out)
	assert.Equal(t, "ab", doc.Root().TextContent())
}

func TestBackendsKeepSVGNameCase(t *testing.T) {
	const want = `<svg viewBox="0 0 10 10"><linearGradient id="g"><stop offset="0"></stop></linearGradient>` +
		`<rect width="10" height="10" fill="url(#g)"></rect></svg>`

	inputs := map[string]string{
		"authored": want,
		// the sanitizer lowercases every name it re-serializes
		"sanitized": strings.ToLower(want),
	}

	for _, name := range Backends {
		for label, in := range inputs {
			t.Run(name+"/"+label, func(t *testing.T) {
				p, err := NewParser(name)
				require.NoError(t, err)

				doc := p.Parse(`<section><h2>Schéma</h2>` + in + `</section>`)
				svgs := doc.Root().GetElementsByTagName("svg")
				require.Len(t, svgs, 1)

				assert.Equal(t, want, doc.OuterHTML(svgs[0]))
				assert.Equal(t, "0 0 10 10", svgs[0].GetAttribute("viewbox"))
				assert.Len(t, doc.Root().GetElementsByTagName("lineargradient"), 1)
				assert.Equal(t, "section", doc.Root().Children()[0].TagName())
			})
		}
	}
}

func TestBackendsReadPastStrayLessThan(t *testing.T) {
	fragment := `<section><h2>Un</h2><p>si a < b alors</p></section>` +
		`<section><h2>Deux</h2><p>a<br>b</p></section>` +
		`<section><h2>Trois</h2><svg><linearGradient id="h"></linearGradient></svg></section>`

	for _, name := range Backends {
		t.Run(name, func(t *testing.T) {
			p, err := NewParser(name)
			require.NoError(t, err)

			doc := p.Parse(fragment)
			sections := doc.Root().Children()
			require.Len(t, sections, 3)

			assert.Equal(t, "si a < b alors", sections[0].GetElementsByTagName("p")[0].TextContent())
			assert.Equal(t, "Deuxab", sections[1].TextContent())
			assert.Len(t, sections[1].GetElementsByTagName("br"), 1)
			assert.Equal(t, "Trois", sections[2].GetElementsByTagName("h2")[0].TextContent())

			gradients := sections[2].GetElementsByTagName("lineargradient")
			require.Len(t, gradients, 1)
			assert.Equal(t, "linearGradient", gradients[0].TagName())
		})
	}
}
