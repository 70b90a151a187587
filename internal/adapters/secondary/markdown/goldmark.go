// Package markdown converts markdown-shaped generation answers to HTML.
package markdown

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

// notePrefix marks a speaker note line
const notePrefix = "Note:"

// Frontmatter is the optional YAML header of a markdown answer
type Frontmatter struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
}

// GoldmarkConverter implements ports.MarkdownConverter. A "---" line
// separates slides; each slide becomes a section and "Note:" lines become
// reveal.js speaker notes.
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewGoldmarkConverter creates a GFM converter
func NewGoldmarkConverter() *GoldmarkConverter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)

	return &GoldmarkConverter{md: md}
}

// ToHTML converts source. A single slide without frontmatter is returned
// unwrapped so the normalizer can segment it at headings.
func (c *GoldmarkConverter) ToHTML(source []byte) (string, error) {
	fm, body := extractFrontmatter(source)
	parts := splitSlides(body)

	if fm == nil && len(parts) == 1 {
		main, notes := extractNotes(parts[0])
		out, err := c.render(main)
		if err != nil {
			return "", err
		}
		return out + notesHTML(notes), nil
	}

	var b strings.Builder
	if fm != nil && fm.Title != "" {
		b.WriteString(`<section class="title-slide"><h1>`)
		b.WriteString(html.EscapeString(fm.Title))
		b.WriteString(`</h1>`)
		if fm.Subtitle != "" {
			b.WriteString(`<p>`)
			b.WriteString(html.EscapeString(fm.Subtitle))
			b.WriteString(`</p>`)
		}
		b.WriteString(`</section>`)
	}

	for i, part := range parts {
		main, notes := extractNotes(part)
		out, err := c.render(main)
		if err != nil {
			return "", fmt.Errorf("rendering slide %d: %w", i+1, err)
		}
		b.WriteString("<section>")
		b.WriteString(out)
		b.WriteString(notesHTML(notes))
		b.WriteString("</section>")
	}

	return b.String(), nil
}

func (c *GoldmarkConverter) render(source string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// extractFrontmatter splits a leading YAML block off content. Invalid YAML
// leaves content untouched.
func extractFrontmatter(content []byte) (*Frontmatter, []byte) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return nil, content
	}

	lines := bytes.Split(content, []byte("\n"))
	end := -1
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, content
	}

	var fm Frontmatter
	if err := yaml.Unmarshal(bytes.Join(lines[1:end], []byte("\n")), &fm); err != nil {
		return nil, content
	}

	return &fm, bytes.Join(lines[end+1:], []byte("\n"))
}

// splitSlides splits on "---" lines and drops empty parts
func splitSlides(content []byte) []string {
	var slides []string
	for _, part := range strings.Split("\n"+string(content)+"\n", "\n---\n") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			slides = append(slides, trimmed)
		}
	}
	if len(slides) == 0 {
		return []string{""}
	}
	return slides
}

func extractNotes(content string) (main string, notes []string) {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, notePrefix) {
			notes = append(notes, strings.TrimSpace(strings.TrimPrefix(trimmed, notePrefix)))
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), notes
}

func notesHTML(notes []string) string {
	if len(notes) == 0 {
		return ""
	}
	return `<aside class="notes">` + html.EscapeString(strings.Join(notes, "\n")) + `</aside>`
}

var _ ports.MarkdownConverter = (*GoldmarkConverter)(nil)
