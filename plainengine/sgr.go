package plainengine

import (
	"strconv"
	"strings"

	"github.com/termloom/termloom"
)

// ansiColors are the RGB values reported for the sixteen standard colors,
// in ANSI order: normal 0..7, bright 8..15.
var ansiColors = [16]termloom.CellColor{
	{R: 0, G: 0, B: 0},
	{R: 224, G: 0, B: 0},
	{R: 0, G: 224, B: 0},
	{R: 224, G: 224, B: 0},
	{R: 0, G: 0, B: 224},
	{R: 224, G: 0, B: 224},
	{R: 0, G: 224, B: 224},
	{R: 224, G: 224, B: 224},
	{R: 128, G: 128, B: 128},
	{R: 255, G: 64, B: 64},
	{R: 64, G: 255, B: 64},
	{R: 255, G: 255, B: 64},
	{R: 64, G: 64, B: 255},
	{R: 255, G: 64, B: 255},
	{R: 64, G: 255, B: 255},
	{R: 255, G: 255, B: 255},
}

func (e *Engine) dispatchCSI(params string, final byte) {
	switch final {
	case 'm':
		e.applySGR(params)
	case 'h':
		e.setPrivateModes(params, true)
	case 'l':
		e.setPrivateModes(params, false)
	}
}

func (e *Engine) applySGR(params string) {
	args := parseParams(params)
	if len(args) == 0 {
		args = []int{0}
	}
	for i := 0; i < len(args); i++ {
		switch n := args[i]; {
		case n == 0:
			e.penAttrs = 0
			e.penFg, e.penBg = e.defFg, e.defBg
		case n == 1:
			e.penAttrs |= termloom.AttrBold
		case n == 3:
			e.penAttrs |= termloom.AttrItalic
		case n == 4:
			e.penAttrs |= termloom.AttrUnderline
		case n == 7:
			e.penAttrs |= termloom.AttrReverse
		case n == 9:
			e.penAttrs |= termloom.AttrStrike
		case n == 22:
			e.penAttrs &^= termloom.AttrBold
		case n == 23:
			e.penAttrs &^= termloom.AttrItalic
		case n == 24:
			e.penAttrs &^= termloom.AttrUnderline
		case n == 27:
			e.penAttrs &^= termloom.AttrReverse
		case n == 29:
			e.penAttrs &^= termloom.AttrStrike
		case n >= 30 && n <= 37:
			e.penFg = ansiColors[n-30]
		case n == 38:
			c, skip, ok := extendedColor(args[i+1:])
			if !ok {
				return
			}
			e.penFg = c
			i += skip
		case n == 39:
			e.penFg = e.defFg
		case n >= 40 && n <= 47:
			e.penBg = ansiColors[n-40]
		case n == 48:
			c, skip, ok := extendedColor(args[i+1:])
			if !ok {
				return
			}
			e.penBg = c
			i += skip
		case n == 49:
			e.penBg = e.defBg
		case n >= 90 && n <= 97:
			e.penFg = ansiColors[n-90+8]
		case n >= 100 && n <= 107:
			e.penBg = ansiColors[n-100+8]
		}
	}
}

// extendedColor decodes the 38/48 sub-parameters: "2;r;g;b" direct color
// or "5;n" palette color.
func extendedColor(rest []int) (termloom.CellColor, int, bool) {
	if len(rest) >= 4 && rest[0] == 2 {
		return termloom.CellColor{R: clamp255(rest[1]), G: clamp255(rest[2]), B: clamp255(rest[3])}, 4, true
	}
	if len(rest) >= 2 && rest[0] == 5 {
		return palette256(rest[1]), 2, true
	}
	return termloom.CellColor{}, 0, false
}

// palette256 is the xterm 256-color palette as RGB.
func palette256(n int) termloom.CellColor {
	switch {
	case n >= 0 && n < 16:
		return ansiColors[n]
	case n < 232:
		steps := [6]uint8{0, 95, 135, 175, 215, 255}
		n -= 16
		return termloom.CellColor{R: steps[n/36], G: steps[n/6%6], B: steps[n%6]}
	case n < 256:
		v := uint8(8 + 10*(n-232))
		return termloom.CellColor{R: v, G: v, B: v}
	}
	return termloom.CellColor{Default: true}
}

func (e *Engine) setPrivateModes(params string, on bool) {
	if !strings.HasPrefix(params, "?") {
		return
	}
	for _, n := range parseParams(params[1:]) {
		switch n {
		case 25:
			if e.curVisible != on {
				e.curVisible = on
				e.cursorMoved = true
				if e.events != nil {
					e.events.SetCursorVisible(on)
				}
			}
		case 1000, 1002, 1003:
			e.mouseReport = on
		case 1006:
			e.mouseSGR = on
		}
	}
}

func (e *Engine) dispatchOSC(s string) {
	code, rest, ok := strings.Cut(s, ";")
	if !ok {
		return
	}
	if (code == "0" || code == "2") && e.events != nil {
		e.events.SetTitle(rest)
	}
}

func parseParams(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	args := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			n = 0
		}
		args = append(args, n)
	}
	return args
}

func clamp255(n int) uint8 {
	if n > 255 {
		return 255
	}
	if n < 0 {
		return 0
	}
	return uint8(n)
}
