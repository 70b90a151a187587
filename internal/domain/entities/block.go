package entities

// BlockKind identifies the structural type of a ContentBlock
type BlockKind string

const (
	BlockHeading      BlockKind = "heading"
	BlockParagraph    BlockKind = "paragraph"
	BlockList         BlockKind = "list"
	BlockTable        BlockKind = "table"
	BlockQuote        BlockKind = "blockquote"
	BlockCode         BlockKind = "code"
	BlockFeaturePanel BlockKind = "feature-panel"
	BlockTimelineItem BlockKind = "timeline-item"
	BlockGrid         BlockKind = "grid-container"
	BlockSVG          BlockKind = "svg"
	BlockDiagram      BlockKind = "diagram"
	BlockCanvas       BlockKind = "canvas"
)

// CanvasPlaceholderCaption is emitted wherever a canvas cannot be materialized
const CanvasPlaceholderCaption = "Graphique (non exportable)"

// GridItem is one title/text cell of a grid container
type GridItem struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// ContentBlock is one recognized block inside a slide.
// Only the fields relevant to Kind are set.
type ContentBlock struct {
	Kind BlockKind `json:"kind"`

	// Level is the heading level (1-6)
	Level int `json:"level,omitempty"`

	// Text is the flattened text of paragraphs, quotes, code, panels and timeline items
	Text string `json:"text,omitempty"`

	// Title is the timeline item title
	Title string `json:"title,omitempty"`

	// Number is the timeline item marker
	Number string `json:"number,omitempty"`

	// Ordered marks numbered lists
	Ordered bool `json:"ordered,omitempty"`

	// Items are list items
	Items []string `json:"items,omitempty"`

	// Rows are table cells, row by row
	Rows [][]string `json:"rows,omitempty"`

	// HasHeader is true when the first table row is made of th cells
	HasHeader bool `json:"has_header,omitempty"`

	// GridItems are the cells of a grid container
	GridItems []GridItem `json:"grid_items,omitempty"`

	// Markup is the serialized SVG
	Markup string `json:"markup,omitempty"`

	// Caption is the figure caption of an SVG, diagram or canvas
	Caption string `json:"caption,omitempty"`
}

// LineCount returns the number of text lines a block occupies, at least 1
func (b ContentBlock) LineCount() int {
	n := 1
	for _, r := range b.Text {
		if r == '\n' {
			n++
		}
	}
	return n
}
