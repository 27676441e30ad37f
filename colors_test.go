package termloom

import "testing"

func TestQuantizeStandardTriples(t *testing.T) {
	for _, tc := range standardTriples {
		c := CellColor{R: tc.r, G: tc.g, B: tc.b}
		if got := quantizeIndex(c, 16); got != tc.idx {
			t.Errorf("quantizeIndex(%v, 16) = %d, want %d", c, got, tc.idx)
		}
		if got := quantizeIndex(c, 256); got != tc.idx {
			t.Errorf("quantizeIndex(%v, 256) = %d, want %d", c, got, tc.idx)
		}
	}
}

func TestQuantizeLowPaletteFallsBackToNoOverride(t *testing.T) {
	c := CellColor{R: 12, G: 34, B: 56}
	if got := quantizeIndex(c, 16); got != 0 {
		t.Fatalf("quantizeIndex(%v, 16) = %d, want 0", c, got)
	}
	if got := quantizeIndex(c, 8); got != 0 {
		t.Fatalf("quantizeIndex(%v, 8) = %d, want 0", c, got)
	}
}

func TestQuantizeGreyRamp(t *testing.T) {
	cases := []struct {
		v    uint8
		want int
	}{
		{0x04, 233},
		{0x08, 234},
		{0x30, 237},
		{0xf8, 255},
		{0xfa, 256},
	}
	for _, tc := range cases {
		c := CellColor{R: tc.v, G: tc.v, B: tc.v}
		if got := quantizeIndex(c, 256); got != tc.want {
			t.Errorf("grey %#02x = %d, want %d", tc.v, got, tc.want)
		}
	}
}

func TestQuantizeColorCube(t *testing.T) {
	cases := []struct {
		c    CellColor
		want int
	}{
		{CellColor{R: 255}, 17 + 5*36},
		{CellColor{B: 255}, 17 + 5},
		{CellColor{R: 51, G: 102, B: 153}, 17 + 1*36 + 2*6 + 3},
	}
	for _, tc := range cases {
		if got := quantizeIndex(tc.c, 256); got != tc.want {
			t.Errorf("quantizeIndex(%v, 256) = %d, want %d", tc.c, got, tc.want)
		}
	}
}

func TestQuantizeIsTotal(t *testing.T) {
	// Every triple maps to exactly one index in range, for every
	// capability.
	for _, palette := range []int{8, 16, 256} {
		for r := 0; r < 256; r += 17 {
			for g := 0; g < 256; g += 17 {
				for b := 0; b < 256; b += 17 {
					c := CellColor{R: uint8(r), G: uint8(g), B: uint8(b)}
					got := quantizeIndex(c, palette)
					if got < 0 || got > 256 {
						t.Fatalf("quantizeIndex(%v, %d) = %d out of range", c, palette, got)
					}
					if again := quantizeIndex(c, palette); again != got {
						t.Fatalf("quantizeIndex(%v, %d) not stable: %d then %d", c, palette, got, again)
					}
				}
			}
		}
	}
}

func TestCellStyleTrueColorPassThrough(t *testing.T) {
	cell := Cell{
		Fg:    CellColor{R: 10, G: 20, B: 30},
		Bg:    CellColor{Default: true},
		Attrs: AttrBold | AttrUnderline,
	}
	st := cellStyle(cell, ColorCaps{TrueColor: true})
	if !st.Fg.IsRGB || st.Fg.RGB != cell.Fg {
		t.Fatalf("fg = %+v, want RGB pass-through", st.Fg)
	}
	if st.Bg != (StyleColor{}) {
		t.Fatalf("bg = %+v, want no override for the default color", st.Bg)
	}
	if st.Attrs != AttrBold|AttrUnderline {
		t.Fatalf("attrs = %v", st.Attrs)
	}
}

func TestCellStylePaletteQuantizes(t *testing.T) {
	cell := Cell{Fg: CellColor{R: 224}, Bg: CellColor{R: 255, G: 255, B: 255}}
	st := cellStyle(cell, ColorCaps{Palette: 256})
	if st.Fg.IsRGB || st.Fg.Index != 2 {
		t.Fatalf("fg = %+v, want palette index 2", st.Fg)
	}
	if st.Bg.Index != 16 {
		t.Fatalf("bg = %+v, want palette index 16", st.Bg)
	}
}

func TestRGBText(t *testing.T) {
	if got := rgbText(CellColor{R: 0xab, G: 0x00, B: 0xff}); got != "#ab00ff" {
		t.Fatalf("rgbText = %q", got)
	}
}
