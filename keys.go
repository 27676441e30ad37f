package termloom

// KeyMod is a bitmask of key/mouse modifiers.
type KeyMod uint8

const (
	ModShift KeyMod = 1 << iota
	ModAlt
	ModCtrl
)

// Key identifies a host input key. KeyRune carries a literal code point in
// KeyEvent.Rune; the named values cover editing, navigation, function and
// keypad keys plus host-reserved keys that deliberately translate to
// nothing.
type Key int

const (
	KeyRune Key = iota
	KeyEnter
	KeyTab
	KeyEscape
	KeyBackspace
	KeyDelete
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyInsert
	KeyPageUp
	KeyPageDown
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyKeypad0
	KeyKeypad1
	KeyKeypad2
	KeyKeypad3
	KeyKeypad4
	KeyKeypad5
	KeyKeypad6
	KeyKeypad7
	KeyKeypad8
	KeyKeypad9
	KeyKeypadPoint
	KeyKeypadPlus
	KeyKeypadMinus
	KeyKeypadMultiply
	KeyKeypadDivide
	KeyKeypadEnter
	// Keypad navigation keys report as their digit equivalents.
	KeyKeypadHome
	KeyKeypadEnd
	KeyKeypadInsert
	KeyKeypadDelete
	KeyKeypadPageUp
	KeyKeypadPageDown
	// Host-reserved keys; translating them produces zero bytes.
	KeyHelp
	KeyUndo
	KeyIgnore
)

// EngineKey is a named key symbol understood by the engine's keyboard
// encoder.
type EngineKey int

const (
	EngineKeyNone EngineKey = iota
	EngineKeyEnter
	EngineKeyTab
	EngineKeyEscape
	EngineKeyUp
	EngineKeyDown
	EngineKeyLeft
	EngineKeyRight
	EngineKeyInsert
	EngineKeyDelete
	EngineKeyHome
	EngineKeyEnd
	EngineKeyPageUp
	EngineKeyPageDown
	EngineKeyF1
	EngineKeyF2
	EngineKeyF3
	EngineKeyF4
	EngineKeyF5
	EngineKeyF6
	EngineKeyF7
	EngineKeyF8
	EngineKeyF9
	EngineKeyF10
	EngineKeyF11
	EngineKeyF12
	EngineKeyKP0
	EngineKeyKP1
	EngineKeyKP2
	EngineKeyKP3
	EngineKeyKP4
	EngineKeyKP5
	EngineKeyKP6
	EngineKeyKP7
	EngineKeyKP8
	EngineKeyKP9
	EngineKeyKPPeriod
	EngineKeyKPPlus
	EngineKeyKPMinus
	EngineKeyKPMultiply
	EngineKeyKPDivide
	EngineKeyKPEnter
)

// KeyEvent is one host keyboard event.
type KeyEvent struct {
	Key  Key
	Rune rune
	Mods KeyMod
}

// MouseAction distinguishes mouse event kinds.
type MouseAction int

const (
	MousePress MouseAction = iota
	MouseDrag
	MouseRelease
	MouseWheelUp
	MouseWheelDown
)

// MouseButton numbering follows the engine encoder: 1 left, 2 middle,
// 3 right.
type MouseButton int

const (
	MouseNone   MouseButton = 0
	MouseLeft   MouseButton = 1
	MouseMiddle MouseButton = 2
	MouseRight  MouseButton = 3
)

// MouseEvent is one host mouse event at a zero-based screen position.
type MouseEvent struct {
	Action MouseAction
	Button MouseButton
	Row    int
	Col    int
	Mods   KeyMod
}

// namedEngineKeys maps directly translatable keys to engine symbols.
// Backspace and Delete are absent on purpose: they go through the character
// encoder as their raw control bytes.
var namedEngineKeys = map[Key]EngineKey{
	KeyEnter:          EngineKeyEnter,
	KeyTab:            EngineKeyTab,
	KeyEscape:         EngineKeyEscape,
	KeyUp:             EngineKeyUp,
	KeyDown:           EngineKeyDown,
	KeyLeft:           EngineKeyLeft,
	KeyRight:          EngineKeyRight,
	KeyHome:           EngineKeyHome,
	KeyEnd:            EngineKeyEnd,
	KeyInsert:         EngineKeyInsert,
	KeyPageUp:         EngineKeyPageUp,
	KeyPageDown:       EngineKeyPageDown,
	KeyF1:             EngineKeyF1,
	KeyF2:             EngineKeyF2,
	KeyF3:             EngineKeyF3,
	KeyF4:             EngineKeyF4,
	KeyF5:             EngineKeyF5,
	KeyF6:             EngineKeyF6,
	KeyF7:             EngineKeyF7,
	KeyF8:             EngineKeyF8,
	KeyF9:             EngineKeyF9,
	KeyF10:            EngineKeyF10,
	KeyF11:            EngineKeyF11,
	KeyF12:            EngineKeyF12,
	KeyKeypad0:        EngineKeyKP0,
	KeyKeypad1:        EngineKeyKP1,
	KeyKeypad2:        EngineKeyKP2,
	KeyKeypad3:        EngineKeyKP3,
	KeyKeypad4:        EngineKeyKP4,
	KeyKeypad5:        EngineKeyKP5,
	KeyKeypad6:        EngineKeyKP6,
	KeyKeypad7:        EngineKeyKP7,
	KeyKeypad8:        EngineKeyKP8,
	KeyKeypad9:        EngineKeyKP9,
	KeyKeypadPoint:    EngineKeyKPPeriod,
	KeyKeypadPlus:     EngineKeyKPPlus,
	KeyKeypadMinus:    EngineKeyKPMinus,
	KeyKeypadMultiply: EngineKeyKPMultiply,
	KeyKeypadDivide:   EngineKeyKPDivide,
	KeyKeypadEnter:    EngineKeyKPEnter,
	// Keypad navigation reports as the digit keys it shares caps with.
	KeyKeypadHome:     EngineKeyKP7,
	KeyKeypadEnd:      EngineKeyKP1,
	KeyKeypadInsert:   EngineKeyKP0,
	KeyKeypadPageUp:   EngineKeyKP9,
	KeyKeypadPageDown: EngineKeyKP3,
}

// keysByName maps the wire names external surfaces use to key values.
var keysByName = map[string]Key{
	"Enter":      KeyEnter,
	"Tab":        KeyTab,
	"Escape":     KeyEscape,
	"Backspace":  KeyBackspace,
	"Delete":     KeyDelete,
	"Up":         KeyUp,
	"Down":       KeyDown,
	"Left":       KeyLeft,
	"Right":      KeyRight,
	"Home":       KeyHome,
	"End":        KeyEnd,
	"Insert":     KeyInsert,
	"PageUp":     KeyPageUp,
	"PageDown":   KeyPageDown,
	"F1":         KeyF1,
	"F2":         KeyF2,
	"F3":         KeyF3,
	"F4":         KeyF4,
	"F5":         KeyF5,
	"F6":         KeyF6,
	"F7":         KeyF7,
	"F8":         KeyF8,
	"F9":         KeyF9,
	"F10":        KeyF10,
	"F11":        KeyF11,
	"F12":        KeyF12,
	"KP0":        KeyKeypad0,
	"KP1":        KeyKeypad1,
	"KP2":        KeyKeypad2,
	"KP3":        KeyKeypad3,
	"KP4":        KeyKeypad4,
	"KP5":        KeyKeypad5,
	"KP6":        KeyKeypad6,
	"KP7":        KeyKeypad7,
	"KP8":        KeyKeypad8,
	"KP9":        KeyKeypad9,
	"KPPoint":    KeyKeypadPoint,
	"KPPlus":     KeyKeypadPlus,
	"KPMinus":    KeyKeypadMinus,
	"KPMultiply": KeyKeypadMultiply,
	"KPDivide":   KeyKeypadDivide,
	"KPEnter":    KeyKeypadEnter,
	"KPHome":     KeyKeypadHome,
	"KPEnd":      KeyKeypadEnd,
	"KPInsert":   KeyKeypadInsert,
	"KPDelete":   KeyKeypadDelete,
	"KPPageUp":   KeyKeypadPageUp,
	"KPPageDown": KeyKeypadPageDown,
	"Help":       KeyHelp,
	"Undo":       KeyUndo,
}

// KeyByName resolves a wire key name, for surfaces that receive keys as
// strings.
func KeyByName(name string) (Key, bool) {
	k, ok := keysByName[name]
	return k, ok
}

// translateKey feeds one key event through the engine's keyboard encoder
// and returns the bytes to transmit. Unsupported keys produce nil.
func translateKey(e Engine, ev KeyEvent) []byte {
	switch ev.Key {
	case KeyRune:
		if ev.Rune == 0 {
			return nil
		}
		e.KeyUnichar(ev.Rune, ev.Mods)
	case KeyBackspace:
		e.KeyUnichar(0x08, ev.Mods)
	case KeyDelete, KeyKeypadDelete:
		e.KeyUnichar(0x7f, ev.Mods)
	case KeyHelp, KeyUndo, KeyIgnore:
		return nil
	default:
		sym, ok := namedEngineKeys[ev.Key]
		if !ok {
			return nil
		}
		e.KeyNamed(sym, ev.Mods)
	}
	return drainOutput(e)
}

// translateMouse feeds one mouse event through the engine's mouse encoder
// and returns the bytes to transmit, nil when nothing was encoded.
func translateMouse(e Engine, ev MouseEvent) []byte {
	switch ev.Action {
	case MouseWheelUp:
		e.MouseMove(ev.Row, ev.Col, ev.Mods)
		e.MouseButton(4, true, ev.Mods)
	case MouseWheelDown:
		e.MouseMove(ev.Row, ev.Col, ev.Mods)
		e.MouseButton(5, true, ev.Mods)
	case MousePress, MouseDrag:
		if ev.Button == MouseNone {
			return nil
		}
		e.MouseMove(ev.Row, ev.Col, ev.Mods)
		e.MouseButton(int(ev.Button), true, ev.Mods)
	case MouseRelease:
		if ev.Button == MouseNone {
			return nil
		}
		e.MouseMove(ev.Row, ev.Col, ev.Mods)
		e.MouseButton(int(ev.Button), false, ev.Mods)
	default:
		return nil
	}
	return drainOutput(e)
}

// keyOutputBufSize bounds one drain read; multiple reads handle longer
// encoder output.
const keyOutputBufSize = 200

func drainOutput(e Engine) []byte {
	var out []byte
	buf := make([]byte, keyOutputBufSize)
	for {
		n := e.ReadOutput(buf)
		if n <= 0 {
			break
		}
		out = append(out, buf[:n]...)
	}
	return out
}
