// Package plainengine is a line-oriented screen engine: it keeps a cell
// grid with styling, scrolling and damage tracking, and encodes keyboard
// and mouse input, but it is not a full terminal emulator. Text styling
// (SGR), title reports and mouse/cursor modes are understood; control
// sequences that address the screen are consumed and ignored, so
// full-screen applications need a real emulation engine instead.
package plainengine

import (
	"fmt"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/termloom/termloom"
)

const tabWidth = 8

// parser states for the escape-sequence scanner.
const (
	stGround = iota
	stEscape
	stCSI
	stOSC
	stOSCEscape
)

// Engine implements termloom.Engine over an in-memory grid. It is not
// safe for concurrent use; the owning session serializes all calls.
type Engine struct {
	events termloom.EngineEvents

	rows, cols int
	grid       [][]termloom.Cell
	cursor     termloom.Pos
	curVisible bool

	defFg, defBg termloom.CellColor
	penFg, penBg termloom.CellColor
	penAttrs     termloom.AttrMask

	// pending damage, as a half-open row range
	dirtyStart, dirtyEnd int
	cursorMoved          bool

	state   int
	seq     []byte // escape sequence being collected
	partial []byte // incomplete UTF-8 tail from the previous feed

	mouseReport bool
	mouseSGR    bool
	lastMouse   termloom.Pos

	out      []byte
	released bool
}

// New creates an engine with the given grid size. It satisfies
// termloom.EngineFactory.
func New(rows, cols int, events termloom.EngineEvents) (termloom.Engine, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("plainengine: invalid size %dx%d", rows, cols)
	}
	e := &Engine{
		events:     events,
		rows:       rows,
		cols:       cols,
		curVisible: true,
		defFg:      termloom.CellColor{Default: true},
		defBg:      termloom.CellColor{Default: true},
		dirtyStart: rows,
	}
	e.penFg, e.penBg = e.defFg, e.defBg
	e.grid = make([][]termloom.Cell, rows)
	for r := range e.grid {
		e.grid[r] = e.blankRow(cols)
	}
	return e, nil
}

func (e *Engine) blankRow(cols int) []termloom.Cell {
	row := make([]termloom.Cell, cols)
	for c := range row {
		row[c] = termloom.Cell{Width: 1, Fg: e.defFg, Bg: e.defBg}
	}
	return row
}

func (e *Engine) Feed(p []byte) {
	if e.released {
		return
	}
	data := p
	if len(e.partial) > 0 {
		data = append(e.partial, p...)
		e.partial = nil
	}
	for len(data) > 0 {
		b := data[0]
		switch e.state {
		case stGround:
			switch {
			case b == 0x1b:
				e.state = stEscape
				data = data[1:]
			case b < 0x20 || b == 0x7f:
				e.control(b)
				data = data[1:]
			default:
				r, size := utf8.DecodeRune(data)
				if r == utf8.RuneError && size == 1 && !utf8.FullRune(data) {
					// incomplete sequence, wait for the next feed
					e.partial = append(e.partial, data...)
					return
				}
				e.print(r)
				data = data[size:]
			}
		case stEscape:
			switch b {
			case '[':
				e.state = stCSI
				e.seq = e.seq[:0]
			case ']':
				e.state = stOSC
				e.seq = e.seq[:0]
			default:
				// two-byte escapes we do not interpret
				e.state = stGround
			}
			data = data[1:]
		case stCSI:
			if b >= 0x40 && b <= 0x7e {
				e.dispatchCSI(string(e.seq), b)
				e.state = stGround
			} else {
				e.seq = append(e.seq, b)
			}
			data = data[1:]
		case stOSC:
			switch b {
			case 0x07:
				e.dispatchOSC(string(e.seq))
				e.state = stGround
			case 0x1b:
				e.state = stOSCEscape
			default:
				e.seq = append(e.seq, b)
			}
			data = data[1:]
		case stOSCEscape:
			if b == '\\' {
				e.dispatchOSC(string(e.seq))
			}
			e.state = stGround
			data = data[1:]
		}
	}
}

func (e *Engine) control(b byte) {
	switch b {
	case '\n', 0x0b, 0x0c:
		e.lineFeed()
	case '\r':
		e.moveCursor(e.cursor.Row, 0)
	case 0x08:
		if e.cursor.Col > 0 {
			e.moveCursor(e.cursor.Row, e.cursor.Col-1)
		}
	case '\t':
		col := (e.cursor.Col/tabWidth + 1) * tabWidth
		if col > e.cols-1 {
			col = e.cols - 1
		}
		e.moveCursor(e.cursor.Row, col)
	}
}

func (e *Engine) print(r rune) {
	width := runewidth.RuneWidth(r)
	if width == 0 {
		// combining mark, attach to the previous cell
		col := e.cursor.Col - 1
		if col >= 0 && len(e.grid[e.cursor.Row][col].Runes) > 0 {
			e.grid[e.cursor.Row][col].Runes = append(e.grid[e.cursor.Row][col].Runes, r)
			e.damage(e.cursor.Row, e.cursor.Row+1)
		}
		return
	}
	if e.cursor.Col+width > e.cols {
		e.moveCursor(e.cursor.Row, 0)
		e.lineFeed()
	}
	row, col := e.cursor.Row, e.cursor.Col
	e.grid[row][col] = termloom.Cell{
		Runes: []rune{r},
		Width: width,
		Fg:    e.penFg,
		Bg:    e.penBg,
		Attrs: e.penAttrs,
	}
	if width == 2 && col+1 < e.cols {
		e.grid[row][col+1] = termloom.Cell{Width: 1, Fg: e.penFg, Bg: e.penBg, Attrs: e.penAttrs}
	}
	e.damage(row, row+1)
	// The cursor may sit one past the last column; the next printable
	// wraps, a carriage return cancels the pending wrap.
	e.moveCursor(row, col+width)
}

func (e *Engine) lineFeed() {
	if e.cursor.Row+1 < e.rows {
		e.moveCursor(e.cursor.Row+1, e.cursor.Col)
		return
	}
	e.scrollUp()
}

// scrollUp evicts the top row through the push-line callback and shifts
// the grid.
func (e *Engine) scrollUp() {
	top := e.grid[0]
	if e.events != nil {
		evicted := make([]termloom.Cell, len(top))
		copy(evicted, top)
		e.events.PushLine(evicted)
	}
	copy(e.grid, e.grid[1:])
	e.grid[e.rows-1] = e.blankRow(e.cols)
	e.damage(0, e.rows)
}

func (e *Engine) moveCursor(row, col int) {
	if row == e.cursor.Row && col == e.cursor.Col {
		return
	}
	e.cursor = termloom.Pos{Row: row, Col: col}
	e.cursorMoved = true
}

func (e *Engine) damage(start, end int) {
	if start < e.dirtyStart {
		e.dirtyStart = start
	}
	if end > e.dirtyEnd {
		e.dirtyEnd = end
	}
}

func (e *Engine) FlushDamage() {
	if e.events == nil {
		e.dirtyStart, e.dirtyEnd = e.rows, 0
		e.cursorMoved = false
		return
	}
	if e.dirtyStart < e.dirtyEnd {
		e.events.Damage(e.dirtyStart, e.dirtyEnd)
	}
	e.dirtyStart, e.dirtyEnd = e.rows, 0
	if e.cursorMoved {
		e.events.MoveCursor(e.cursor, e.curVisible)
		e.cursorMoved = false
	}
}

func (e *Engine) Size() (rows, cols int) {
	return e.rows, e.cols
}

// Resize regrows the grid in place. Shrinking below the cursor row evicts
// rows from the top through push-line so content above is not lost.
func (e *Engine) Resize(rows, cols int) {
	if rows < 1 || cols < 1 || (rows == e.rows && cols == e.cols) {
		return
	}
	for rows < e.rows && e.cursor.Row >= rows {
		e.scrollUp()
		if e.cursor.Row > 0 {
			e.cursor.Row--
			e.cursorMoved = true
		}
	}
	grid := make([][]termloom.Cell, rows)
	for r := 0; r < rows; r++ {
		if r < e.rows {
			row := e.grid[r]
			if cols <= len(row) {
				grid[r] = row[:cols]
			} else {
				grid[r] = append(row, e.blankRow(cols-len(row))...)
			}
		} else {
			grid[r] = e.blankRow(cols)
		}
	}
	e.grid = grid
	e.rows, e.cols = rows, cols
	if e.cursor.Row >= rows {
		e.cursor.Row = rows - 1
		e.cursorMoved = true
	}
	if e.cursor.Col >= cols {
		e.cursor.Col = cols - 1
		e.cursorMoved = true
	}
	e.dirtyStart, e.dirtyEnd = 0, rows
	if e.events != nil {
		e.events.Resized(rows, cols)
	}
}

func (e *Engine) Cursor() (termloom.Pos, bool) {
	return e.cursor, e.curVisible
}

func (e *Engine) Cell(pos termloom.Pos) (termloom.Cell, bool) {
	if pos.Row < 0 || pos.Row >= e.rows || pos.Col < 0 || pos.Col >= e.cols {
		return termloom.Cell{}, false
	}
	return e.grid[pos.Row][pos.Col], true
}

func (e *Engine) SetDefaultColors(fg, bg termloom.CellColor) {
	e.defFg, e.defBg = fg, bg
	e.penFg, e.penBg = fg, bg
	for r := range e.grid {
		for c := range e.grid[r] {
			cell := &e.grid[r][c]
			if len(cell.Runes) == 0 {
				cell.Fg, cell.Bg = fg, bg
			}
		}
	}
	e.damage(0, e.rows)
}

func (e *Engine) Release() {
	e.released = true
	e.grid = nil
	e.out = nil
}
