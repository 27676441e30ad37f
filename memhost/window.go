package memhost

import (
	"sync"

	"github.com/termloom/termloom"
)

// Window is a render target with an explicit viewport. It remembers the
// cells, cursor and scroll target the session last set, for the owner to
// paint or encode from.
type Window struct {
	mu    sync.Mutex
	vrows int
	vcols int
	inner [2]int
	rows  [][]termloom.ScreenCell

	cursor  termloom.Pos
	visible bool
	topLine int
}

func NewWindow(rows, cols int) *Window {
	return &Window{vrows: rows, vcols: cols, rows: make([][]termloom.ScreenCell, rows)}
}

func (w *Window) Viewport() (rows, cols int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.vrows, w.vcols
}

// SetViewport records a geometry change on the owner's side. The owner
// renegotiates session size afterwards.
func (w *Window) SetViewport(rows, cols int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	w.vrows, w.vcols = rows, cols
	if len(w.rows) > rows {
		w.rows = w.rows[:rows]
	}
	for len(w.rows) < rows {
		w.rows = append(w.rows, nil)
	}
}

// Resize records the emulated size the session settled on.
func (w *Window) Resize(rows, cols int) {
	w.mu.Lock()
	w.inner = [2]int{rows, cols}
	w.mu.Unlock()
}

// Inner returns the emulated size last announced through Resize.
func (w *Window) Inner() (rows, cols int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inner[0], w.inner[1]
}

func (w *Window) SetCells(row int, cells []termloom.ScreenCell) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if row < 0 || row >= len(w.rows) {
		return
	}
	w.rows[row] = append([]termloom.ScreenCell(nil), cells...)
}

// Row returns a snapshot of a rendered viewport row; nil when the row was
// never rendered.
func (w *Window) Row(row int) []termloom.ScreenCell {
	w.mu.Lock()
	defer w.mu.Unlock()
	if row < 0 || row >= len(w.rows) || w.rows[row] == nil {
		return nil
	}
	return append([]termloom.ScreenCell(nil), w.rows[row]...)
}

func (w *Window) SetCursor(pos termloom.Pos, visible bool) {
	w.mu.Lock()
	w.cursor = pos
	w.visible = visible
	w.mu.Unlock()
}

func (w *Window) Cursor() (termloom.Pos, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor, w.visible
}

func (w *Window) GoToLine(lnum int) {
	w.mu.Lock()
	w.topLine = lnum
	w.mu.Unlock()
}

// TopLine returns the document line GoToLine last targeted, zero if never
// set.
func (w *Window) TopLine() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.topLine
}
