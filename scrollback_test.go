package termloom

import "testing"

func cellsOf(s string) []Cell {
	cells := make([]Cell, 0, len(s))
	for _, r := range s {
		if r == ' ' {
			cells = append(cells, Cell{})
			continue
		}
		cells = append(cells, Cell{Runes: []rune{r}, Width: 1})
	}
	return cells
}

func TestScrollbackAppendTrimsTrailingBlanks(t *testing.T) {
	var sb Scrollback
	sb.Append(cellsOf("ab   "))
	line, ok := sb.Line(0)
	if !ok || line.Cols != 2 || len(line.Cells) != 2 {
		t.Fatalf("line = %+v, want width 2", line)
	}
}

func TestScrollbackFullyBlankRowStoresEmptyEntry(t *testing.T) {
	var sb Scrollback
	sb.Append(cellsOf("    "))
	sb.AppendEmpty()
	if sb.Len() != 2 {
		t.Fatalf("length = %d, want 2", sb.Len())
	}
	for i := 0; i < 2; i++ {
		line, ok := sb.Line(i)
		if !ok || line.Cols != 0 || line.Cells != nil {
			t.Fatalf("line %d = %+v, want an empty entry", i, line)
		}
	}
}

func TestScrollbackCellAtBounds(t *testing.T) {
	var sb Scrollback
	sb.Append(cellsOf("xy"))
	if cell, ok := sb.CellAt(0, 1); !ok || cell.Runes[0] != 'y' {
		t.Fatalf("CellAt(0,1) = %+v, %v", cell, ok)
	}
	if _, ok := sb.CellAt(0, 2); ok {
		t.Fatalf("CellAt beyond captured width reported ok")
	}
	if _, ok := sb.CellAt(1, 0); ok {
		t.Fatalf("CellAt beyond store length reported ok")
	}
	if _, ok := sb.CellAt(-1, 0); ok {
		t.Fatalf("CellAt(-1, 0) reported ok")
	}
}

func TestScrollbackTrimLast(t *testing.T) {
	var sb Scrollback
	sb.Append(cellsOf("a"))
	sb.Append(cellsOf("b"))
	sb.Append(cellsOf("c"))
	sb.TrimLast(2)
	if sb.Len() != 1 {
		t.Fatalf("length = %d, want 1", sb.Len())
	}
	if line, _ := sb.Line(0); line.Cells[0].Runes[0] != 'a' {
		t.Fatalf("wrong line survived: %+v", line)
	}
	sb.TrimLast(5)
	if sb.Len() != 0 {
		t.Fatalf("over-trim left %d lines", sb.Len())
	}
}

func TestEffectiveWidth(t *testing.T) {
	cases := []struct {
		cells []Cell
		want  int
	}{
		{nil, 0},
		{cellsOf("    "), 0},
		{cellsOf("ab"), 2},
		{cellsOf("ab  "), 2},
		{cellsOf("  b "), 3},
	}
	for _, tc := range cases {
		if got := effectiveWidth(tc.cells); got != tc.want {
			t.Errorf("effectiveWidth(%d cells) = %d, want %d", len(tc.cells), got, tc.want)
		}
	}
}

func TestLineTextSkipsWideFiller(t *testing.T) {
	cells := []Cell{
		{Runes: []rune{'漢'}, Width: 2},
		{}, // filler column of the wide character
		{Runes: []rune{'x'}, Width: 1},
	}
	if got := lineText(cells); got != "漢x" {
		t.Fatalf("lineText = %q, want %q", got, "漢x")
	}
	if got := lineText(cellsOf("a b")); got != "a b" {
		t.Fatalf("lineText = %q, want %q", got, "a b")
	}
}
