package services

import (
	"html"
	"regexp"
	"strings"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

// ClassNotes marks speaker notes, which the slide-show engine hides from the audience
const ClassNotes = "notes"

var (
	// <!-- NOTES: --> ... <!-- END NOTES -->, ending early at the slide's closing tag
	notesBlockPattern = regexp.MustCompile(`(?is)<!--\s*NOTES:\s*-->(.*?)(?:<!--\s*END\s*NOTES\s*-->|(</section>)|$)`)
	// <!-- NOTES: text -->
	notesInlinePattern = regexp.MustCompile(`(?is)<!--\s*NOTES:\s*(\S.*?)\s*-->`)
)

// NotesCommentsToAsides rewrites comment-style notes into <aside class="notes">
// elements so they survive sanitizing and parsing
func NotesCommentsToAsides(raw string) string {
	if !strings.Contains(raw, "<!--") {
		return raw
	}

	raw = notesBlockPattern.ReplaceAllStringFunc(raw, func(m string) string {
		parts := notesBlockPattern.FindStringSubmatch(m)
		if strings.TrimSpace(parts[1]) == "" {
			return parts[2]
		}
		return notesAside(strings.TrimSpace(parts[1])) + parts[2]
	})

	return notesInlinePattern.ReplaceAllStringFunc(raw, func(m string) string {
		parts := notesInlinePattern.FindStringSubmatch(m)
		return notesAside(html.EscapeString(parts[1]))
	})
}

func notesAside(body string) string {
	return `<aside class="` + ClassNotes + `">` + body + `</aside>`
}

// isSpeakerNotes reports whether n holds speaker notes
func isSpeakerNotes(n ports.Node) bool {
	return (n.TagName() == "aside" && n.HasClass(ClassNotes)) || n.HasClass("speaker-notes")
}

// notesNodes returns the outermost notes elements of a slide
func notesNodes(slide ports.Node) []ports.Node {
	return outermost(slide, isSpeakerNotes)
}

// SpeakerNotes returns the notes of a slide, one paragraph per notes element
func SpeakerNotes(slide ports.Node) string {
	var parts []string
	for _, n := range notesNodes(slide) {
		if text := textOf(n); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}
