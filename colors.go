package termloom

import "fmt"

// Palette indexes are one-based so 0 can mean "no override": 1..16 are the
// standard colors, 17..232 the 6x6x6 cube, 233..256 the grey ramp ending in
// white.

// standardTriples are the RGB values engines report for the sixteen
// standard colors, in palette order.
var standardTriples = []struct {
	r, g, b uint8
	idx     int
}{
	{0, 0, 0, 1},        // black
	{224, 0, 0, 2},      // dark red
	{0, 224, 0, 3},      // dark green
	{224, 224, 0, 4},    // dark yellow
	{0, 0, 224, 5},      // dark blue
	{224, 0, 224, 6},    // dark magenta
	{0, 224, 224, 7},    // dark cyan
	{224, 224, 224, 8},  // light grey
	{128, 128, 128, 9},  // dark grey
	{255, 64, 64, 10},   // light red
	{64, 255, 64, 11},   // light green
	{255, 255, 64, 12},  // yellow
	{64, 64, 255, 13},   // light blue
	{255, 64, 255, 14},  // light magenta
	{64, 255, 255, 15},  // light cyan
	{255, 255, 255, 16}, // white
}

// greyCutoffs are the luminance breakpoints of the 24-step grey ramp; a
// grey below greyCutoffs[i] maps to ramp entry i.
var greyCutoffs = [23]uint8{
	0x05, 0x10, 0x1b, 0x26, 0x31, 0x3c, 0x47, 0x52,
	0x5d, 0x68, 0x73, 0x7f, 0x8a, 0x95, 0xa0, 0xab,
	0xb6, 0xc1, 0xcc, 0xd7, 0xe2, 0xed, 0xf9,
}

// quantizeIndex maps an RGB color onto a palette of the given size.
// Exact standard triples resolve on any palette; palettes of 256 or more
// additionally resolve greys through the ramp and everything else through
// the color cube. The result is 0 ("no override") only on small palettes
// with no exact match.
func quantizeIndex(c CellColor, palette int) int {
	for _, t := range standardTriples {
		if c.R == t.r && c.G == t.g && c.B == t.b {
			return t.idx
		}
	}
	if palette < 256 {
		return 0
	}
	if c.R == c.G && c.G == c.B {
		for i, cut := range greyCutoffs {
			if c.R < cut {
				return 233 + i
			}
		}
		return 256
	}
	return 17 + cubeStep(c.R)*36 + cubeStep(c.G)*6 + cubeStep(c.B)
}

// cubeStep rounds one channel to its 0..5 cube coordinate.
func cubeStep(v uint8) int {
	return (int(v) + 0x19) / 0x33
}

// cellStyle derives the host-facing style of one cell for the given
// capability. Engine-default colors carry no override either way.
func cellStyle(cell Cell, caps ColorCaps) Style {
	st := Style{Attrs: cell.Attrs}
	st.Fg = styleColor(cell.Fg, caps)
	st.Bg = styleColor(cell.Bg, caps)
	return st
}

func styleColor(c CellColor, caps ColorCaps) StyleColor {
	if c.Default {
		return StyleColor{}
	}
	if caps.TrueColor {
		return StyleColor{RGB: c, IsRGB: true}
	}
	return StyleColor{Index: quantizeIndex(c, caps.Palette)}
}

// rgbText renders a color the way scrape output reports it.
func rgbText(c CellColor) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
