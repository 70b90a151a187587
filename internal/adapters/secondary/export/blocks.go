package export

import (
	"sort"

	"github.com/sydologie/diapoai/internal/domain/entities"
)

// processorOrder is the fixed order file exporters lay blocks out in
var processorOrder = map[entities.BlockKind]int{
	entities.BlockFeaturePanel: 0,
	entities.BlockTimelineItem: 1,
	entities.BlockGrid:         2,
	entities.BlockParagraph:    3,
	entities.BlockHeading:      3,
	entities.BlockList:         4, // ordered lists get 5
	entities.BlockTable:        6,
	entities.BlockQuote:        7,
	entities.BlockCode:         8,
	entities.BlockSVG:          9,
	entities.BlockDiagram:      10,
	entities.BlockCanvas:       11,
}

func priority(b entities.ContentBlock) int {
	p, ok := processorOrder[b.Kind]
	if !ok {
		return len(processorOrder)
	}
	if b.Kind == entities.BlockList && b.Ordered {
		return 5
	}
	return p
}

// slideLayout separates the slide heading from its body blocks
type slideLayout struct {
	heading *entities.ContentBlock
	body    []entities.ContentBlock
}

func layoutOf(s entities.Slide) slideLayout {
	var l slideLayout
	blocks := s.Blocks
	if len(blocks) > 0 && blocks[0].Kind == entities.BlockHeading {
		h := blocks[0]
		l.heading = &h
		blocks = blocks[1:]
	}

	l.body = make([]entities.ContentBlock, len(blocks))
	copy(l.body, blocks)
	sort.SliceStable(l.body, func(i, j int) bool {
		return priority(l.body[i]) < priority(l.body[j])
	})
	return l
}

// title returns the heading text, falling back to the slide title
func (l slideLayout) title(s entities.Slide) string {
	if l.heading != nil {
		return l.heading.Text
	}
	return s.Title
}

// subtitle is the first paragraph of a title slide
func (l slideLayout) subtitle() string {
	for _, b := range l.body {
		if b.Kind == entities.BlockParagraph {
			return b.Text
		}
	}
	return ""
}

func deckTitle(deck *entities.SlideDocument, options *ExportOptions) string {
	if options != nil && options.Title != "" {
		return options.Title
	}
	for _, s := range deck.Slides {
		if s.Role == entities.RoleTitle && s.Title != "" {
			return s.Title
		}
	}
	return "Présentation"
}
