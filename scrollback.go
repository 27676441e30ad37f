package termloom

import "strings"

// CapturedLine is one immutable row snapshot in the scrollback store:
// the effective width in cells (trailing blanks already trimmed) and the
// owned cell array. Cells of a two-column character include the blank
// filler cell after it, so columns stay screen-addressable.
type CapturedLine struct {
	Cols  int
	Cells []Cell
}

// Scrollback is the append-only record of rows evicted from the live
// screen. Entries are never reordered; the store owns its cell arrays.
type Scrollback struct {
	lines []CapturedLine
}

func (sb *Scrollback) Len() int {
	return len(sb.lines)
}

// Append stores a row, taking ownership of cells. The effective width is
// computed here; a fully blank row is stored as a zero-width entry.
func (sb *Scrollback) Append(cells []Cell) {
	width := effectiveWidth(cells)
	if width == 0 {
		sb.AppendEmpty()
		return
	}
	sb.lines = append(sb.lines, CapturedLine{Cols: width, Cells: cells[:width]})
}

// AppendEmpty stores an empty row.
func (sb *Scrollback) AppendEmpty() {
	sb.lines = append(sb.lines, CapturedLine{})
}

// Line returns the i-th captured line, zero-based.
func (sb *Scrollback) Line(i int) (CapturedLine, bool) {
	if i < 0 || i >= len(sb.lines) {
		return CapturedLine{}, false
	}
	return sb.lines[i], true
}

// CellAt returns the cell at a zero-based (row, col); ok is false when the
// row is beyond the store or the column beyond that row's captured width.
func (sb *Scrollback) CellAt(row, col int) (Cell, bool) {
	if row < 0 || row >= len(sb.lines) {
		return Cell{}, false
	}
	line := sb.lines[row]
	if col < 0 || col >= line.Cols {
		return Cell{}, false
	}
	return line.Cells[col], true
}

// TrimLast removes the n most recently appended lines.
func (sb *Scrollback) TrimLast(n int) {
	if n <= 0 {
		return
	}
	if n > len(sb.lines) {
		n = len(sb.lines)
	}
	sb.lines = sb.lines[:len(sb.lines)-n]
}

// Clear releases every captured line.
func (sb *Scrollback) Clear() {
	sb.lines = nil
}

// effectiveWidth is the count of cells up to and including the last one
// with content; a fully blank row has width zero.
func effectiveWidth(cells []Cell) int {
	for i := len(cells) - 1; i >= 0; i-- {
		if len(cells[i].Runes) > 0 {
			return i + 1
		}
	}
	return 0
}

// lineText renders cells as plain text: blanks become spaces, the filler
// cell after a two-column character is skipped.
func lineText(cells []Cell) string {
	var b strings.Builder
	for i := 0; i < len(cells); i++ {
		cell := cells[i]
		if len(cell.Runes) == 0 {
			b.WriteByte(' ')
			continue
		}
		for _, r := range cell.Runes {
			b.WriteRune(r)
		}
		if cell.Width == 2 {
			i++
		}
	}
	return b.String()
}
