package tui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/termloom/termloom"
)

var tcellKeys = map[tcell.Key]termloom.Key{
	tcell.KeyEnter:      termloom.KeyEnter,
	tcell.KeyTab:        termloom.KeyTab,
	tcell.KeyEscape:     termloom.KeyEscape,
	tcell.KeyBackspace:  termloom.KeyBackspace,
	tcell.KeyBackspace2: termloom.KeyBackspace,
	tcell.KeyDelete:     termloom.KeyDelete,
	tcell.KeyUp:         termloom.KeyUp,
	tcell.KeyDown:       termloom.KeyDown,
	tcell.KeyLeft:       termloom.KeyLeft,
	tcell.KeyRight:      termloom.KeyRight,
	tcell.KeyHome:       termloom.KeyHome,
	tcell.KeyEnd:        termloom.KeyEnd,
	tcell.KeyInsert:     termloom.KeyInsert,
	tcell.KeyPgUp:       termloom.KeyPageUp,
	tcell.KeyPgDn:       termloom.KeyPageDown,
	tcell.KeyF1:         termloom.KeyF1,
	tcell.KeyF2:         termloom.KeyF2,
	tcell.KeyF3:         termloom.KeyF3,
	tcell.KeyF4:         termloom.KeyF4,
	tcell.KeyF5:         termloom.KeyF5,
	tcell.KeyF6:         termloom.KeyF6,
	tcell.KeyF7:         termloom.KeyF7,
	tcell.KeyF8:         termloom.KeyF8,
	tcell.KeyF9:         termloom.KeyF9,
	tcell.KeyF10:        termloom.KeyF10,
	tcell.KeyF11:        termloom.KeyF11,
	tcell.KeyF12:        termloom.KeyF12,
	tcell.KeyHelp:       termloom.KeyHelp,
}

func (a *App) handleKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyCtrlRightSq {
		a.toggleFreeze()
		return
	}
	if a.session.Mode() == termloom.ModeLive {
		if kev, ok := keyEventFromTcell(ev); ok {
			if err := a.session.SendKey(kev); err != nil {
				a.logger.Debug("key rejected", "error", err)
			}
		}
		return
	}
	a.handleScrollbackKey(ev)
}

// handleScrollbackKey navigates the document while frozen or finished.
func (a *App) handleScrollbackKey(ev *tcell.EventKey) {
	_, h := a.screen.Size()
	page := viewRows(h) - 1
	if page < 1 {
		page = 1
	}
	switch ev.Key() {
	case tcell.KeyUp:
		a.scrollBy(-1)
	case tcell.KeyDown:
		a.scrollBy(1)
	case tcell.KeyPgUp:
		a.scrollBy(-page)
	case tcell.KeyPgDn:
		a.scrollBy(page)
	case tcell.KeyHome:
		a.follow = false
		a.top = 1
	case tcell.KeyEnd:
		a.follow = true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			a.quit()
			return
		case 'i':
			a.resume()
			return
		case 'k':
			a.scrollBy(-1)
		case 'j':
			a.scrollBy(1)
		case 'g':
			a.follow = false
			a.top = 1
		case 'G':
			a.follow = true
		}
	default:
		return
	}
	a.requestRedraw()
}

func (a *App) scrollBy(delta int) {
	if a.follow {
		a.follow = false
	}
	a.top += delta
	if a.top < 1 {
		a.top = 1
	}
}

func (a *App) toggleFreeze() {
	switch a.session.Mode() {
	case termloom.ModeLive:
		if err := a.session.Freeze(); err != nil {
			a.logger.Debug("freeze failed", "error", err)
			return
		}
		a.follow = true
	case termloom.ModeFrozen:
		a.resume()
	}
	a.requestRedraw()
}

func (a *App) resume() {
	if err := a.session.Resume(); err != nil {
		a.logger.Debug("resume failed", "error", err)
		return
	}
	a.requestRedraw()
}

func (a *App) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	buttons := ev.Buttons()
	mods := modsFromTcell(ev.Modifiers())
	live := a.session.Mode() == termloom.ModeLive

	if buttons&tcell.WheelUp != 0 {
		if live {
			a.sendMouse(termloom.MouseEvent{Action: termloom.MouseWheelUp, Row: y, Col: x, Mods: mods})
		} else {
			a.scrollBy(-3)
			a.requestRedraw()
		}
		return
	}
	if buttons&tcell.WheelDown != 0 {
		if live {
			a.sendMouse(termloom.MouseEvent{Action: termloom.MouseWheelDown, Row: y, Col: x, Mods: mods})
		} else {
			a.scrollBy(3)
			a.requestRedraw()
		}
		return
	}
	if !live {
		return
	}

	prev := a.prevButtons
	a.prevButtons = buttons
	for _, m := range buttonOrder {
		held := buttons&m.mask != 0
		was := prev&m.mask != 0
		switch {
		case held && !was:
			a.sendMouse(termloom.MouseEvent{Action: termloom.MousePress, Button: m.button, Row: y, Col: x, Mods: mods})
		case held && was:
			a.sendMouse(termloom.MouseEvent{Action: termloom.MouseDrag, Button: m.button, Row: y, Col: x, Mods: mods})
		case !held && was:
			a.sendMouse(termloom.MouseEvent{Action: termloom.MouseRelease, Button: m.button, Row: y, Col: x, Mods: mods})
		}
	}
}

var buttonOrder = []struct {
	mask   tcell.ButtonMask
	button termloom.MouseButton
}{
	{tcell.Button1, termloom.MouseLeft},
	{tcell.Button2, termloom.MouseRight},
	{tcell.Button3, termloom.MouseMiddle},
}

func (a *App) sendMouse(ev termloom.MouseEvent) {
	if err := a.session.SendMouse(ev); err != nil {
		a.logger.Debug("mouse rejected", "error", err)
	}
}

func keyEventFromTcell(ev *tcell.EventKey) (termloom.KeyEvent, bool) {
	mods := modsFromTcell(ev.Modifiers())
	if k, ok := tcellKeys[ev.Key()]; ok {
		return termloom.KeyEvent{Key: k, Mods: mods}, true
	}
	if ev.Key() == tcell.KeyRune {
		return termloom.KeyEvent{Rune: ev.Rune(), Mods: mods}, true
	}
	// remaining control keys carry their byte as the rune
	if ev.Key() < ' ' {
		return termloom.KeyEvent{Rune: rune(ev.Key()), Mods: mods}, true
	}
	return termloom.KeyEvent{}, false
}

func modsFromTcell(m tcell.ModMask) termloom.KeyMod {
	var mods termloom.KeyMod
	if m&tcell.ModShift != 0 {
		mods |= termloom.ModShift
	}
	if m&tcell.ModAlt != 0 {
		mods |= termloom.ModAlt
	}
	if m&tcell.ModCtrl != 0 {
		mods |= termloom.ModCtrl
	}
	return mods
}

func tcellStyle(st termloom.Style) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(tcellColor(st.Fg)).
		Background(tcellColor(st.Bg))
	if st.Attrs&termloom.AttrBold != 0 {
		style = style.Bold(true)
	}
	if st.Attrs&termloom.AttrUnderline != 0 {
		style = style.Underline(true)
	}
	if st.Attrs&termloom.AttrItalic != 0 {
		style = style.Italic(true)
	}
	if st.Attrs&termloom.AttrStrike != 0 {
		style = style.StrikeThrough(true)
	}
	if st.Attrs&termloom.AttrReverse != 0 {
		style = style.Reverse(true)
	}
	return style
}

// tcellColor maps a style color onto tcell: direct RGB when the host runs
// truecolor, otherwise the one-based palette index shifted to tcell's
// zero-based palette.
func tcellColor(sc termloom.StyleColor) tcell.Color {
	switch {
	case sc.IsRGB:
		return tcell.NewRGBColor(int32(sc.RGB.R), int32(sc.RGB.G), int32(sc.RGB.B))
	case sc.Index > 0:
		return tcell.PaletteColor(sc.Index - 1)
	}
	return tcell.ColorDefault
}
