package plainengine

import (
	"fmt"
	"unicode/utf8"

	"github.com/termloom/termloom"
)

// csiLetterKeys encode as CSI <letter>, or CSI 1;<mod><letter> when
// modified.
var csiLetterKeys = map[termloom.EngineKey]byte{
	termloom.EngineKeyUp:    'A',
	termloom.EngineKeyDown:  'B',
	termloom.EngineKeyRight: 'C',
	termloom.EngineKeyLeft:  'D',
	termloom.EngineKeyHome:  'H',
	termloom.EngineKeyEnd:   'F',
}

// csiTildeKeys encode as CSI <n>~, or CSI <n>;<mod>~ when modified.
var csiTildeKeys = map[termloom.EngineKey]int{
	termloom.EngineKeyInsert:   2,
	termloom.EngineKeyDelete:   3,
	termloom.EngineKeyPageUp:   5,
	termloom.EngineKeyPageDown: 6,
	termloom.EngineKeyF5:       15,
	termloom.EngineKeyF6:       17,
	termloom.EngineKeyF7:       18,
	termloom.EngineKeyF8:       19,
	termloom.EngineKeyF9:       20,
	termloom.EngineKeyF10:      21,
	termloom.EngineKeyF11:      23,
	termloom.EngineKeyF12:      24,
}

// ss3Keys encode as SS3 <letter>.
var ss3Keys = map[termloom.EngineKey]byte{
	termloom.EngineKeyF1: 'P',
	termloom.EngineKeyF2: 'Q',
	termloom.EngineKeyF3: 'R',
	termloom.EngineKeyF4: 'S',
}

// plainKeys encode as a single byte; the keypad reports its plain
// characters since keypad application mode is never entered.
var plainKeys = map[termloom.EngineKey]byte{
	termloom.EngineKeyEnter:      0x0d,
	termloom.EngineKeyTab:        0x09,
	termloom.EngineKeyEscape:     0x1b,
	termloom.EngineKeyKP0:        '0',
	termloom.EngineKeyKP1:        '1',
	termloom.EngineKeyKP2:        '2',
	termloom.EngineKeyKP3:        '3',
	termloom.EngineKeyKP4:        '4',
	termloom.EngineKeyKP5:        '5',
	termloom.EngineKeyKP6:        '6',
	termloom.EngineKeyKP7:        '7',
	termloom.EngineKeyKP8:        '8',
	termloom.EngineKeyKP9:        '9',
	termloom.EngineKeyKPPeriod:   '.',
	termloom.EngineKeyKPPlus:     '+',
	termloom.EngineKeyKPMinus:    '-',
	termloom.EngineKeyKPMultiply: '*',
	termloom.EngineKeyKPDivide:   '/',
	termloom.EngineKeyKPEnter:    0x0d,
}

func (e *Engine) KeyNamed(key termloom.EngineKey, mods termloom.KeyMod) {
	e.out = append(e.out, encodeNamedKey(key, mods)...)
}

func encodeNamedKey(key termloom.EngineKey, mods termloom.KeyMod) []byte {
	m := modCode(mods)
	if b, ok := csiLetterKeys[key]; ok {
		if m > 1 {
			return fmt.Appendf(nil, "\x1b[1;%d%c", m, b)
		}
		return []byte{0x1b, '[', b}
	}
	if n, ok := csiTildeKeys[key]; ok {
		if m > 1 {
			return fmt.Appendf(nil, "\x1b[%d;%d~", n, m)
		}
		return fmt.Appendf(nil, "\x1b[%d~", n)
	}
	if b, ok := ss3Keys[key]; ok {
		if m > 1 {
			return fmt.Appendf(nil, "\x1b[1;%d%c", m, b)
		}
		return []byte{0x1b, 'O', b}
	}
	if b, ok := plainKeys[key]; ok {
		if mods&termloom.ModAlt != 0 {
			return []byte{0x1b, b}
		}
		return []byte{b}
	}
	return nil
}

// modCode is the xterm modifier parameter: 1 plus shift 1, alt 2, ctrl 4.
func modCode(mods termloom.KeyMod) int {
	code := 1
	if mods&termloom.ModShift != 0 {
		code++
	}
	if mods&termloom.ModAlt != 0 {
		code += 2
	}
	if mods&termloom.ModCtrl != 0 {
		code += 4
	}
	return code
}

func (e *Engine) KeyUnichar(r rune, mods termloom.KeyMod) {
	var buf []byte
	if mods&termloom.ModCtrl != 0 {
		if b, ok := ctrlByte(r); ok {
			buf = []byte{b}
		}
	}
	if buf == nil {
		if r < 0x20 || r == 0x7f {
			buf = []byte{byte(r)}
		} else {
			buf = utf8.AppendRune(nil, r)
		}
	}
	if mods&termloom.ModAlt != 0 {
		buf = append([]byte{0x1b}, buf...)
	}
	e.out = append(e.out, buf...)
}

func ctrlByte(r rune) (byte, bool) {
	switch {
	case r == ' ':
		return 0, true
	case r >= 'a' && r <= 'z':
		return byte(r - 0x60), true
	case r >= '@' && r <= '_':
		return byte(r - 0x40), true
	case r == '?':
		return 0x7f, true
	}
	return 0, false
}

// MouseMove records the position the next button event reports at.
func (e *Engine) MouseMove(row, col int, mods termloom.KeyMod) {
	e.lastMouse = termloom.Pos{Row: row, Col: col}
}

// MouseButton encodes a button transition at the recorded position.
// Nothing is encoded until the application enables mouse reporting, so
// mouse input to line-oriented programs is swallowed.
func (e *Engine) MouseButton(button int, pressed bool, mods termloom.KeyMod) {
	if !e.mouseReport {
		return
	}
	code, ok := mouseCode(button)
	if !ok {
		return
	}
	if mods&termloom.ModShift != 0 {
		code += 4
	}
	if mods&termloom.ModAlt != 0 {
		code += 8
	}
	if mods&termloom.ModCtrl != 0 {
		code += 16
	}
	col, row := e.lastMouse.Col+1, e.lastMouse.Row+1
	if e.mouseSGR {
		final := byte('M')
		if !pressed {
			final = 'm'
		}
		e.out = append(e.out, fmt.Appendf(nil, "\x1b[<%d;%d;%d%c", code, col, row, final)...)
		return
	}
	if !pressed {
		code = code&^3 | 3
	}
	if col > 223 {
		col = 223
	}
	if row > 223 {
		row = 223
	}
	e.out = append(e.out, 0x1b, '[', 'M', byte(32+code), byte(32+col), byte(32+row))
}

// mouseCode maps engine button numbers onto the wire encoding: buttons
// 1..3 directly, 4 and 5 as the wheel pair.
func mouseCode(button int) (int, bool) {
	switch button {
	case 1:
		return 0, true
	case 2:
		return 1, true
	case 3:
		return 2, true
	case 4:
		return 64, true
	case 5:
		return 65, true
	}
	return 0, false
}

func (e *Engine) ReadOutput(p []byte) int {
	n := copy(p, e.out)
	e.out = e.out[n:]
	if len(e.out) == 0 {
		e.out = nil
	}
	return n
}
