package tui

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/termloom/termloom"
)

func TestKeyEventFromTcell(t *testing.T) {
	ev, ok := keyEventFromTcell(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModShift))
	if !ok || ev.Key != termloom.KeyUp || ev.Mods != termloom.ModShift {
		t.Fatalf("up = %+v %v", ev, ok)
	}
	ev, ok = keyEventFromTcell(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone))
	if !ok || ev.Rune != 'x' || ev.Key != termloom.KeyRune {
		t.Fatalf("rune = %+v %v", ev, ok)
	}
	ev, ok = keyEventFromTcell(tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone))
	if !ok || ev.Key != termloom.KeyBackspace {
		t.Fatalf("backspace2 = %+v %v", ev, ok)
	}
}

func TestModsFromTcell(t *testing.T) {
	mods := modsFromTcell(tcell.ModShift | tcell.ModCtrl)
	if mods != termloom.ModShift|termloom.ModCtrl {
		t.Fatalf("mods = %d", mods)
	}
	if modsFromTcell(tcell.ModNone) != 0 {
		t.Fatal("no mods should map to zero")
	}
}

func TestTcellColorMapping(t *testing.T) {
	if got := tcellColor(termloom.StyleColor{}); got != tcell.ColorDefault {
		t.Fatalf("default = %v", got)
	}
	if got := tcellColor(termloom.StyleColor{Index: 2}); got != tcell.PaletteColor(1) {
		t.Fatalf("indexed = %v", got)
	}
	rgb := termloom.StyleColor{IsRGB: true, RGB: termloom.CellColor{R: 1, G: 2, B: 3}}
	if got := tcellColor(rgb); got != tcell.NewRGBColor(1, 2, 3) {
		t.Fatalf("rgb = %v", got)
	}
}

func TestTcellStyleAttrs(t *testing.T) {
	st := tcellStyle(termloom.Style{Attrs: termloom.AttrBold | termloom.AttrReverse})
	_, _, attrs := st.Decompose()
	if attrs&tcell.AttrBold == 0 || attrs&tcell.AttrReverse == 0 {
		t.Fatalf("attrs = %v", attrs)
	}
	if attrs&tcell.AttrUnderline != 0 {
		t.Fatal("underline set without being asked for")
	}
}
