package entities

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOutlineIndex is returned when an edit targets a section or subsection that does not exist
var ErrOutlineIndex = errors.New("outline index out of range")

// Section is one top-level entry of an outline
type Section struct {
	Title       string   `json:"section" yaml:"section"`
	Subsections []string `json:"subsections" yaml:"subsections"`
}

// Outline is the ordered plan of a presentation as approved by the user.
// Every edit returns a new Outline; the receiver is never mutated.
// Sections with zero subsections are allowed.
type Outline []Section

// TotalSubsections returns the number of subsections across all sections
func (o Outline) TotalSubsections() int {
	total := 0
	for _, s := range o {
		total += len(s.Subsections)
	}
	return total
}

// SlideCount is the number of slides a structured deck built from this outline holds
func (o Outline) SlideCount() int {
	return 1 + len(o) + o.TotalSubsections()
}

// Validate checks that titles are present
func (o Outline) Validate() error {
	for i, s := range o {
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("section %d: title is required", i+1)
		}
		for j, sub := range s.Subsections {
			if strings.TrimSpace(sub) == "" {
				return fmt.Errorf("section %d subsection %d: title is required", i+1, j+1)
			}
		}
	}
	return nil
}

// Clone returns a deep copy
func (o Outline) Clone() Outline {
	if o == nil {
		return nil
	}
	out := make(Outline, len(o))
	for i, s := range o {
		out[i] = Section{
			Title:       s.Title,
			Subsections: append([]string(nil), s.Subsections...),
		}
	}
	return out
}

// MoveSection moves the section at from to position to
func (o Outline) MoveSection(from, to int) (Outline, error) {
	if !o.validSection(from) || !o.validSection(to) {
		return o, fmt.Errorf("move section %d -> %d: %w", from, to, ErrOutlineIndex)
	}
	out := o.Clone()
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append(Outline{moved}, out[to:]...)...)
	return out, nil
}

// MoveSubsection moves a subsection inside one section
func (o Outline) MoveSubsection(section, from, to int) (Outline, error) {
	if !o.validSubsection(section, from) || !o.validSubsection(section, to) {
		return o, fmt.Errorf("move subsection %d.%d -> %d.%d: %w", section, from, section, to, ErrOutlineIndex)
	}
	out := o.Clone()
	subs := out[section].Subsections
	moved := subs[from]
	subs = append(subs[:from], subs[from+1:]...)
	subs = append(subs[:to], append([]string{moved}, subs[to:]...)...)
	out[section].Subsections = subs
	return out, nil
}

// AddSection appends a new empty section
func (o Outline) AddSection(title string) Outline {
	out := o.Clone()
	return append(out, Section{Title: title, Subsections: []string{}})
}

// AddSubsection appends a subsection to a section
func (o Outline) AddSubsection(section int, title string) (Outline, error) {
	if !o.validSection(section) {
		return o, fmt.Errorf("add subsection to %d: %w", section, ErrOutlineIndex)
	}
	out := o.Clone()
	out[section].Subsections = append(out[section].Subsections, title)
	return out, nil
}

// RemoveSection removes a section and its subsections
func (o Outline) RemoveSection(section int) (Outline, error) {
	if !o.validSection(section) {
		return o, fmt.Errorf("remove section %d: %w", section, ErrOutlineIndex)
	}
	out := o.Clone()
	return append(out[:section], out[section+1:]...), nil
}

// RemoveSubsection removes one subsection. Removing the last one leaves an empty section.
func (o Outline) RemoveSubsection(section, index int) (Outline, error) {
	if !o.validSubsection(section, index) {
		return o, fmt.Errorf("remove subsection %d.%d: %w", section, index, ErrOutlineIndex)
	}
	out := o.Clone()
	subs := out[section].Subsections
	out[section].Subsections = append(subs[:index], subs[index+1:]...)
	return out, nil
}

// RenameSection changes a section title
func (o Outline) RenameSection(section int, title string) (Outline, error) {
	if !o.validSection(section) {
		return o, fmt.Errorf("rename section %d: %w", section, ErrOutlineIndex)
	}
	out := o.Clone()
	out[section].Title = title
	return out, nil
}

// RenameSubsection changes a subsection title
func (o Outline) RenameSubsection(section, index int, title string) (Outline, error) {
	if !o.validSubsection(section, index) {
		return o, fmt.Errorf("rename subsection %d.%d: %w", section, index, ErrOutlineIndex)
	}
	out := o.Clone()
	out[section].Subsections[index] = title
	return out, nil
}

func (o Outline) validSection(i int) bool {
	return i >= 0 && i < len(o)
}

func (o Outline) validSubsection(section, i int) bool {
	return o.validSection(section) && i >= 0 && i < len(o[section].Subsections)
}
