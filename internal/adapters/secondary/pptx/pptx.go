// Package pptx writes PresentationML (.pptx) packages: one 16:9 slide master,
// one blank layout, a color theme and absolutely positioned shapes.
package pptx

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"time"
)

// Slide geometry, in EMU
const (
	EMUPerInch  int64 = 914400
	EMUPerPoint int64 = 12700

	SlideWidth  int64 = 12192000
	SlideHeight int64 = 6858000
)

// MimeType is the content type of a .pptx file
const MimeType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// ErrNoSlides is returned when writing a presentation without slides
var ErrNoSlides = errors.New("presentation has no slides")

// Inches converts inches to EMU
func Inches(in float64) int64 {
	return int64(in * float64(EMUPerInch))
}

// Points converts points to EMU
func Points(pt float64) int64 {
	return int64(pt * float64(EMUPerPoint))
}

// Palette holds the theme colors as RRGGBB hex digits
type Palette struct {
	Dark    string
	Light   string
	Accent1 string
	Accent2 string
}

// Presentation is an in-memory deck. It is not safe for concurrent use.
type Presentation struct {
	Title   string
	Author  string
	Created time.Time
	Palette Palette

	slides []*Slide
	media  []mediaPart
}

type mediaPart struct {
	name string
	ext  string
	data []byte
}

// New creates an empty presentation
func New(title string, palette Palette) *Presentation {
	return &Presentation{
		Title:   title,
		Author:  "DiapoAI",
		Created: time.Now().UTC(),
		Palette: palette,
	}
}

// AddSlide appends a slide and returns it
func (p *Presentation) AddSlide() *Slide {
	s := &Slide{
		pres:   p,
		number: len(p.slides) + 1,
		nextID: 2,
	}
	p.slides = append(p.slides, s)
	return s
}

// SlideCount returns the number of slides
func (p *Presentation) SlideCount() int {
	return len(p.slides)
}

// addMedia stores a media part and returns its path relative to a slide
func (p *Presentation) addMedia(ext string, data []byte) string {
	name := fmt.Sprintf("image%d.%s", len(p.media)+1, ext)
	p.media = append(p.media, mediaPart{name: name, ext: ext, data: data})
	return "../media/" + name
}

// Write serializes the package
func (p *Presentation) Write(w io.Writer) error {
	if len(p.slides) == 0 {
		return ErrNoSlides
	}

	zw := zip.NewWriter(w)

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", p.contentTypesXML()},
		{"_rels/.rels", rootRelsXML},
		{"docProps/core.xml", p.corePropsXML()},
		{"docProps/app.xml", p.appPropsXML()},
		{"ppt/presentation.xml", p.presentationXML()},
		{"ppt/_rels/presentation.xml.rels", p.presentationRelsXML()},
		{"ppt/presProps.xml", presPropsXML},
		{"ppt/tableStyles.xml", tableStylesXML},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterXML},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayoutXML},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML},
		{"ppt/theme/theme1.xml", p.themeXML()},
	}

	for _, part := range parts {
		if err := writePart(zw, part.name, []byte(part.content)); err != nil {
			return err
		}
	}

	for _, s := range p.slides {
		if err := writePart(zw, fmt.Sprintf("ppt/slides/slide%d.xml", s.number), []byte(s.xml())); err != nil {
			return err
		}
		if err := writePart(zw, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", s.number), []byte(s.relsXML())); err != nil {
			return err
		}
	}

	for _, m := range p.media {
		if err := writePart(zw, "ppt/media/"+m.name, m.data); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing package: %w", err)
	}
	return nil
}

func writePart(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("write zip entry %s: %w", name, err)
	}
	return nil
}
