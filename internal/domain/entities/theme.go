package entities

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Default palette used when a session starts.
const (
	DefaultPrimaryColor    = "#1B4D3E"
	DefaultSecondaryColor  = "#FF9B7A"
	DefaultBackgroundColor = "#FFFFFF"
	DefaultTextColor       = "#333333"
)

// ColorTheme is the four-color palette shared by every renderer and exporter.
// It is a value: a color change replaces the whole theme.
type ColorTheme struct {
	// Primary colors headings and accents
	Primary string `toml:"primary" json:"primary"`

	// Secondary colors highlights, quote borders and timeline markers
	Secondary string `toml:"secondary" json:"secondary"`

	// Background is the slide background color
	Background string `toml:"background" json:"background"`

	// Text is the body text color
	Text string `toml:"text" json:"text"`
}

// DefaultColorTheme returns the palette a new editing session starts with
func DefaultColorTheme() ColorTheme {
	return ColorTheme{
		Primary:    DefaultPrimaryColor,
		Secondary:  DefaultSecondaryColor,
		Background: DefaultBackgroundColor,
		Text:       DefaultTextColor,
	}
}

// Validate ensures every color is a valid hex color
func (t ColorTheme) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"primary", t.Primary},
		{"secondary", t.Secondary},
		{"background", t.Background},
		{"text", t.Text},
	}

	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%s color is required", f.name)
		}
		if _, _, _, err := ParseHexColor(f.value); err != nil {
			return fmt.Errorf("%s color: %w", f.name, err)
		}
	}

	return nil
}

// WithDefaults fills empty colors from the default palette
func (t ColorTheme) WithDefaults() ColorTheme {
	def := DefaultColorTheme()
	if t.Primary == "" {
		t.Primary = def.Primary
	}
	if t.Secondary == "" {
		t.Secondary = def.Secondary
	}
	if t.Background == "" {
		t.Background = def.Background
	}
	if t.Text == "" {
		t.Text = def.Text
	}
	return t
}

// ErrInvalidHexColor is returned for strings that are not #RGB or #RRGGBB
var ErrInvalidHexColor = errors.New("invalid hex color")

// ParseHexColor parses #RRGGBB or #RGB (leading # optional) into its components
func ParseHexColor(hex string) (r, g, b uint8, err error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")

	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidHexColor, hex)
	}

	v, parseErr := strconv.ParseUint(s, 16, 32)
	if parseErr != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidHexColor, hex)
	}

	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// HexToRGB returns the "r, g, b" triplet of a hex color, used for rgba() blending.
// Invalid input yields "0, 0, 0".
func HexToRGB(hex string) string {
	r, g, b, err := ParseHexColor(hex)
	if err != nil {
		return "0, 0, 0"
	}
	return fmt.Sprintf("%d, %d, %d", r, g, b)
}

// Lighten mixes a color with white. amount is clamped to [0, 1].
func Lighten(hex string, amount float64) string {
	r, g, b, err := ParseHexColor(hex)
	if err != nil {
		return hex
	}
	amount = math.Max(0, math.Min(1, amount))

	mix := func(c uint8) uint8 {
		return uint8(math.Round(float64(c) + (255-float64(c))*amount))
	}

	return fmt.Sprintf("#%02X%02X%02X", mix(r), mix(g), mix(b))
}

// HexDigits returns the upper-case RRGGBB form without '#', as used by OOXML
func HexDigits(hex string) string {
	r, g, b, err := ParseHexColor(hex)
	if err != nil {
		return "000000"
	}
	return fmt.Sprintf("%02X%02X%02X", r, g, b)
}
