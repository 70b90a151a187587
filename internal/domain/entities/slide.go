package entities

import (
	"errors"
	"strconv"
	"strings"
)

// SlideRole tags how a slide is laid out by renderers
type SlideRole string

const (
	RoleTitle   SlideRole = "title-slide"
	RoleSection SlideRole = "section-title"
	RoleContent SlideRole = "content"
)

// Slide is one normalized slide block of a SlideDocument
type Slide struct {
	// ID is the stable identifier (slide-{n}) assigned during normalization
	ID string `json:"id"`

	// Index is the slide position in the document (0-based)
	Index int `json:"index"`

	// Role is the layout role derived from the slide's classes
	Role SlideRole `json:"role"`

	// Title is the text of the first heading, or a generated title
	Title string `json:"title"`

	// HTML is the outer HTML of the slide block
	HTML string `json:"html"`

	// Blocks are the typed content blocks recognized in the slide
	Blocks []ContentBlock `json:"blocks,omitempty"`

	// Notes are the speaker notes, hidden from the audience
	Notes string `json:"notes,omitempty"`
}

// Validate ensures the slide has content
func (s *Slide) Validate() error {
	if strings.TrimSpace(s.HTML) == "" {
		return errors.New("slide html cannot be empty")
	}

	if s.Index < 0 {
		return errors.New("slide index must be non-negative")
	}

	return nil
}

// DisplayTitle returns the title or "Slide n" when the slide has no heading
func (s *Slide) DisplayTitle() string {
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	return "Slide " + strconv.Itoa(s.Index+1)
}

// RoleFromClasses maps slide classes to a role
func RoleFromClasses(classes []string) SlideRole {
	for _, c := range classes {
		switch c {
		case string(RoleTitle):
			return RoleTitle
		case string(RoleSection):
			return RoleSection
		}
	}
	return RoleContent
}

// SlideDocument is the in-memory result of one generation cycle. It is never persisted.
type SlideDocument struct {
	// HTML is the normalized markup containing every slide block
	HTML string `json:"html"`

	// Slides are the slide blocks in order
	Slides []Slide `json:"slides"`

	// Theme is the palette the document is rendered with
	Theme ColorTheme `json:"theme"`

	// Transition is the slide-show transition name (e.g. "slide", "fade")
	Transition string `json:"transition"`
}

// SlideCount returns the total number of slides
func (d *SlideDocument) SlideCount() int {
	return len(d.Slides)
}

// IsEmpty reports whether the document has no slides
func (d *SlideDocument) IsEmpty() bool {
	return d == nil || len(d.Slides) == 0
}
