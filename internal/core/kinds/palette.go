package kinds

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is an opaque 24-bit color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func (c RGB) Hex() string { return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B) }

// ParseRGB accepts "#RRGGBB", "RRGGBB" and "0xFFRRGGBB".
func ParseRGB(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(s, "#"), "0x"), "0X")
	if len(h) == 8 {
		h = h[2:]
	}
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Style is how the presentation layer draws a kind.
type Style struct {
	Color    RGB     `json:"color"`
	TextSize float64 `json:"text_size"`
	Glyph    string  `json:"glyph"`
}

// Palette maps kinds to presentation attributes. It is kept apart from Table
// so the merge core never depends on rendering data.
type Palette struct {
	styles []Style
}

var fallbackStyle = Style{Color: RGB{R: 0x80, G: 0x80, B: 0x80}, TextSize: 10}

// NewPalette derives styles from the definitions the table was built from.
func NewPalette(defs []Definition) (*Palette, error) {
	p := &Palette{styles: make([]Style, len(defs))}
	for i, d := range defs {
		st := fallbackStyle
		if d.Color != "" {
			c, err := ParseRGB(d.Color)
			if err != nil {
				return nil, fmt.Errorf("kind %s: %w", d.Name, err)
			}
			st.Color = c
		}
		if d.TextSize > 0 {
			st.TextSize = d.TextSize
		}
		label := d.Label
		if label == "" {
			label = d.Name
		}
		st.Glyph = firstRune(label)
		p.styles[i] = st
	}
	return p, nil
}

func (p *Palette) Style(k Kind) Style {
	if k.Rank < 0 || k.Rank >= len(p.styles) {
		return fallbackStyle
	}
	return p.styles[k.Rank]
}

func (p *Palette) Color(k Kind) RGB        { return p.Style(k).Color }
func (p *Palette) TextSize(k Kind) float64 { return p.Style(k).TextSize }

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
