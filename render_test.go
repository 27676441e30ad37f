package termloom

import "testing"

func TestRenderWindowLive(t *testing.T) {
	host := newFakeHost(ColorCaps{TrueColor: true})
	var eng *fakeEngine
	starter := &fakeStarter{}
	// Both axes pinned: the 4x10 window must not resize the 2x6 grid.
	_, s := openTestSession(t, host, &eng, starter, OpenRequest{
		Command: []string{"cat"},
		Size:    SizeSpec{Rows: 2, Cols: 6},
	})
	w := newFakeWindow(4, 10)
	host.attach(s.Document(), w)

	eng.setCell(0, 0, Cell{Runes: []rune{'a'}, Width: 1, Fg: CellColor{R: 255}, Bg: CellColor{Default: true}})
	eng.setCell(0, 1, Cell{Runes: []rune{'漢'}, Width: 2, Fg: CellColor{Default: true}, Bg: CellColor{Default: true}})
	s.RenderWindow(w)

	if rows, cols := s.Size(); rows != 2 || cols != 6 {
		t.Fatalf("pinned size changed to %dx%d", rows, cols)
	}
	row := w.rows[0]
	if len(row) != 10 {
		t.Fatalf("rendered row width = %d, want the 10-column viewport", len(row))
	}
	if string(row[0].Runes) != "a" || row[0].Attr == 0 {
		t.Fatalf("cell 0 = %+v, want a styled 'a'", row[0])
	}
	if string(row[1].Runes) != "漢" || row[1].Width != 2 {
		t.Fatalf("cell 1 = %+v, want a wide character", row[1])
	}
	if len(row[2].Runes) != 0 || row[2].Width != 1 || row[2].Attr != row[1].Attr {
		t.Fatalf("cell 2 = %+v, want the blank filler column sharing the wide cell's attr", row[2])
	}
	for col := 6; col < 10; col++ {
		if len(row[col].Runes) != 0 || row[col].Attr != 0 {
			t.Fatalf("cell %d = %+v, want blank beyond the emulated width", col, row[col])
		}
	}
	// Rows beyond the emulated height render empty.
	for vrow := 2; vrow < 4; vrow++ {
		blank := w.rows[vrow]
		if len(blank) != 10 {
			t.Fatalf("row %d width = %d", vrow, len(blank))
		}
		for _, cell := range blank {
			if len(cell.Runes) != 0 || cell.Attr != 0 {
				t.Fatalf("row %d cell = %+v, want blank", vrow, cell)
			}
		}
	}
	if w.cursor != s.cursorPos {
		t.Fatalf("window cursor %v, session cursor %v", w.cursor, s.cursorPos)
	}
}

func TestRenderWindowSkipsFrozenSessions(t *testing.T) {
	host := newFakeHost(ColorCaps{TrueColor: true})
	var eng *fakeEngine
	starter := &fakeStarter{}
	_, s := openTestSession(t, host, &eng, starter, OpenRequest{Command: []string{"cat"}})
	w := newFakeWindow(4, 10)
	host.attach(s.Document(), w)

	starter.events.Output([]byte("hello"))
	if err := s.Freeze(); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	s.RenderWindow(w)
	if len(w.rows) != 0 {
		t.Fatalf("frozen session rendered %d rows; the document is the render source", len(w.rows))
	}
}

func TestScrollbackCellsServeFrozenRendering(t *testing.T) {
	host := newFakeHost(ColorCaps{TrueColor: true})
	var eng *fakeEngine
	starter := &fakeStarter{}
	_, s := openTestSession(t, host, &eng, starter, OpenRequest{Command: []string{"cat"}})

	eng.setCell(0, 0, Cell{Runes: []rune{'z'}, Width: 1, Attrs: AttrReverse, Fg: CellColor{Default: true}, Bg: CellColor{Default: true}})
	if err := s.Freeze(); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	cells := s.ScrollbackCells(1)
	if len(cells) != 1 || string(cells[0].Runes) != "z" || cells[0].Attr == 0 {
		t.Fatalf("ScrollbackCells(1) = %+v, want the styled 'z'", cells)
	}
	if got := s.ScrollbackCells(2); got != nil {
		t.Fatalf("line beyond the store = %+v, want nil", got)
	}
}
