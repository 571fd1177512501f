package compositor

import (
	"fmt"
	"log"
	"math"

	css "github.com/mazznoer/csscolorparser"
)

const (
	// Stops is the number of palette colours.
	Stops = 7
	// Transitions is the number of blends between neighbouring stops.
	Transitions = Stops - 1
)

// DefaultPaletteHex runs cold to hot.
var DefaultPaletteHex = [Stops]string{
	"#000000",
	"#073dff",
	"#53d5fd",
	"#fefcdd",
	"#ffec6a",
	"#f9d400",
	"#a61904",
}

// Temperatures at which each transition is half way, and the half-width
// of each smoothstep.
var (
	DefaultBlendCenters = [Transitions]float32{0.12, 0.3, 0.46, 0.6, 0.74, 0.9}
	DefaultFadeWidths   = [Transitions]float32{0.1, 0.1, 0.08, 0.08, 0.08, 0.1}
)

// Palette holds sRGB encoded 0..1 RGB triples, as written in CSS.
type Palette [Stops][3]float32

// Linearize decodes every stop from sRGB to linear light.
func (p Palette) Linearize() Palette {
	for i := range p {
		for j := range p[i] {
			p[i][j] = srgbToLinear(p[i][j])
		}
	}
	return p
}

func srgbToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return float32(math.Pow((float64(c)+0.055)/1.055, 2.4))
}

func DefaultPalette() Palette {
	p, _ := ParsePalette(DefaultPaletteHex[:])
	return p
}

func parseColor(s string) ([3]float32, error) {
	c, err := css.Parse(s)
	if err != nil {
		return [3]float32{}, err
	}
	return [3]float32{float32(c.R), float32(c.G), float32(c.B)}, nil
}

// ParsePalette parses up to Stops CSS colours. Missing or invalid entries
// fall back to the default stop at the same index; the returned error
// lists the entries that were replaced.
func ParsePalette(colors []string) (Palette, error) {
	var p Palette
	var bad []string
	for i := 0; i < Stops; i++ {
		if i < len(colors) {
			if c, err := parseColor(colors[i]); err == nil {
				p[i] = c
				continue
			}
			bad = append(bad, fmt.Sprintf("%d:%q", i, colors[i]))
		}
		c, err := parseColor(DefaultPaletteHex[i])
		if err != nil {
			log.Printf("Warning: default palette entry %d is invalid: %v", i, err)
		}
		p[i] = c
	}
	if len(colors) > Stops {
		bad = append(bad, fmt.Sprintf("%d extra entries", len(colors)-Stops))
	}
	if len(bad) > 0 {
		return p, fmt.Errorf("palette entries replaced with defaults: %v", bad)
	}
	return p, nil
}
