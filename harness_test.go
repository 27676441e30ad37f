package termloom

import (
	"errors"
	"sync"
	"unicode/utf8"
)

// fakeEngine is a minimal glass-TTY grid for tests: printable runes,
// CR/LF, scroll-with-push-line and coalesced damage, plus a deterministic
// key/mouse encoder.
type fakeEngine struct {
	events EngineEvents

	rows, cols int
	grid       [][]Cell
	cursor     Pos
	visible    bool

	pendStart, pendEnd int

	out      []byte
	released bool

	defFg, defBg CellColor
}

func newFakeEngine(rows, cols int, events EngineEvents) (Engine, error) {
	e := &fakeEngine{
		events:    events,
		rows:      rows,
		cols:      cols,
		visible:   true,
		pendStart: maxDirtyRow,
		defFg:     CellColor{Default: true},
		defBg:     CellColor{Default: true},
	}
	e.grid = make([][]Cell, rows)
	for i := range e.grid {
		e.grid[i] = e.blankRow(cols)
	}
	return e, nil
}

func (e *fakeEngine) blankRow(cols int) []Cell {
	row := make([]Cell, cols)
	for i := range row {
		row[i] = Cell{Fg: e.defFg, Bg: e.defBg}
	}
	return row
}

func fakeEngineFactory(captured **fakeEngine) EngineFactory {
	return func(rows, cols int, events EngineEvents) (Engine, error) {
		e, err := newFakeEngine(rows, cols, events)
		if err != nil {
			return nil, err
		}
		if captured != nil {
			*captured = e.(*fakeEngine)
		}
		return e, nil
	}
}

func (e *fakeEngine) Feed(p []byte) {
	for len(p) > 0 {
		r, size := utf8.DecodeRune(p)
		p = p[size:]
		switch r {
		case '\r':
			e.cursor.Col = 0
		case '\n':
			e.lineFeed()
		default:
			if e.cursor.Col >= e.cols {
				e.cursor.Col = 0
				e.lineFeed()
			}
			e.grid[e.cursor.Row][e.cursor.Col] = Cell{Runes: []rune{r}, Width: 1, Fg: e.defFg, Bg: e.defBg}
			e.addDamage(e.cursor.Row, e.cursor.Row+1)
			e.cursor.Col++
		}
	}
}

func (e *fakeEngine) lineFeed() {
	if e.cursor.Row+1 < e.rows {
		e.cursor.Row++
		return
	}
	e.events.PushLine(e.grid[0])
	copy(e.grid, e.grid[1:])
	e.grid[e.rows-1] = e.blankRow(e.cols)
	e.addDamage(0, e.rows)
}

func (e *fakeEngine) addDamage(start, end int) {
	if start < e.pendStart {
		e.pendStart = start
	}
	if end > e.pendEnd {
		e.pendEnd = end
	}
}

func (e *fakeEngine) FlushDamage() {
	if e.pendStart < e.pendEnd {
		e.events.Damage(e.pendStart, e.pendEnd)
		e.pendStart, e.pendEnd = maxDirtyRow, 0
	}
	e.events.MoveCursor(e.cursor, e.visible)
}

func (e *fakeEngine) Size() (int, int) { return e.rows, e.cols }

func (e *fakeEngine) Resize(rows, cols int) {
	grid := make([][]Cell, rows)
	for i := range grid {
		grid[i] = e.blankRow(cols)
		if i < e.rows {
			copy(grid[i], e.grid[i])
		}
	}
	e.grid = grid
	e.rows, e.cols = rows, cols
	if e.cursor.Row >= rows {
		e.cursor.Row = rows - 1
	}
	if e.cursor.Col >= cols {
		e.cursor.Col = cols - 1
	}
}

func (e *fakeEngine) Cursor() (Pos, bool) { return e.cursor, e.visible }

func (e *fakeEngine) Cell(pos Pos) (Cell, bool) {
	if pos.Row < 0 || pos.Row >= e.rows || pos.Col < 0 || pos.Col >= e.cols {
		return Cell{}, false
	}
	return e.grid[pos.Row][pos.Col], true
}

func (e *fakeEngine) KeyNamed(key EngineKey, mods KeyMod) {
	e.out = append(e.out, 0x1b, 'N', byte(key), byte(mods))
}

func (e *fakeEngine) KeyUnichar(r rune, mods KeyMod) {
	if mods&ModCtrl != 0 && r >= 'a' && r <= 'z' {
		e.out = append(e.out, byte(r-'a'+1))
		return
	}
	e.out = utf8.AppendRune(e.out, r)
}

func (e *fakeEngine) MouseMove(row, col int, mods KeyMod) {
	e.out = append(e.out, 0x1b, 'm', byte(row), byte(col))
}

func (e *fakeEngine) MouseButton(button int, pressed bool, mods KeyMod) {
	p := byte(0)
	if pressed {
		p = 1
	}
	e.out = append(e.out, 0x1b, 'b', byte(button), p)
}

func (e *fakeEngine) SetDefaultColors(fg, bg CellColor) { e.defFg, e.defBg = fg, bg }

func (e *fakeEngine) ReadOutput(p []byte) int {
	n := copy(p, e.out)
	e.out = e.out[n:]
	return n
}

func (e *fakeEngine) Release() { e.released = true }

// setCell primes grid content directly, bypassing Feed.
func (e *fakeEngine) setCell(row, col int, cell Cell) {
	e.grid[row][col] = cell
}

// fakeJob records everything the session sends and does.
type fakeJob struct {
	mu       sync.Mutex
	sent     []byte
	status   JobStatus
	stops    []string
	resizes  [][2]int
	released bool
}

func (j *fakeJob) Send(p []byte) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sent = append(j.sent, p...)
	return nil
}

func (j *fakeJob) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

func (j *fakeJob) Stop(signal string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stops = append(j.stops, signal)
	j.status = JobEnded
}

func (j *fakeJob) NotifyResize(rows, cols int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.resizes = append(j.resizes, [2]int{rows, cols})
}

func (j *fakeJob) Release() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.released = true
}

func (j *fakeJob) sentBytes() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]byte(nil), j.sent...)
}

// fakeStarter hands out fakeJobs and keeps the event sink so tests can
// deliver output and the close notification.
type fakeStarter struct {
	failWith error
	job      *fakeJob
	events   JobEvents
	spec     JobSpec
}

func (st *fakeStarter) Start(spec JobSpec, events JobEvents) (Job, error) {
	if st.failWith != nil {
		return nil, st.failWith
	}
	st.spec = spec
	st.events = events
	st.job = &fakeJob{status: JobRunning}
	return st.job, nil
}

// fakeDoc mirrors the host document contract: one-based lines, a
// placeholder line that the first append replaces.
type fakeDoc struct {
	id          string
	name        string
	lines       []string
	placeholder bool
	discarded   bool
}

func newFakeDoc(id, name string) *fakeDoc {
	return &fakeDoc{id: id, name: name, lines: []string{""}, placeholder: true}
}

func (d *fakeDoc) ID() string     { return d.id }
func (d *fakeDoc) Name() string   { return d.name }
func (d *fakeDoc) LineCount() int { return len(d.lines) }

func (d *fakeDoc) Line(index int) string {
	if index < 1 || index > len(d.lines) {
		return ""
	}
	return d.lines[index-1]
}

func (d *fakeDoc) AppendLine(after int, text string) error {
	if after < 0 || after > len(d.lines) {
		return errors.New("append out of range")
	}
	d.lines = append(d.lines, "")
	copy(d.lines[after+1:], d.lines[after:])
	d.lines[after] = text
	d.placeholder = false
	return nil
}

func (d *fakeDoc) DeleteLine(index int) error {
	if index < 1 || index > len(d.lines) {
		return errors.New("delete out of range")
	}
	d.lines = append(d.lines[:index-1], d.lines[index:]...)
	if len(d.lines) == 0 {
		d.lines = []string{""}
		d.placeholder = true
	}
	return nil
}

func (d *fakeDoc) Empty() bool { return d.placeholder }

// fakeWindow records what the session rendered into it.
type fakeWindow struct {
	vrows, vcols int
	inner        [2]int
	rows         map[int][]ScreenCell
	cursor       Pos
	visible      bool
	topLine      int
}

func newFakeWindow(rows, cols int) *fakeWindow {
	return &fakeWindow{vrows: rows, vcols: cols, rows: make(map[int][]ScreenCell)}
}

func (w *fakeWindow) Viewport() (int, int) { return w.vrows, w.vcols }

func (w *fakeWindow) Resize(rows, cols int) { w.inner = [2]int{rows, cols} }

func (w *fakeWindow) SetCells(row int, cells []ScreenCell) {
	w.rows[row] = append([]ScreenCell(nil), cells...)
}

func (w *fakeWindow) SetCursor(pos Pos, visible bool) {
	w.cursor = pos
	w.visible = visible
}

func (w *fakeWindow) GoToLine(lnum int) { w.topLine = lnum }

// fakeHost is the in-test document and window model.
type fakeHost struct {
	mu      sync.Mutex
	caps    ColorCaps
	nextID  int
	docs    map[string]*fakeDoc
	windows map[string][]Window

	attrs     []Style
	attrIndex map[Style]int

	dirty      [][2]int
	titles     []string
	statusHits int
}

func newFakeHost(caps ColorCaps) *fakeHost {
	return &fakeHost{
		caps:      caps,
		docs:      make(map[string]*fakeDoc),
		windows:   make(map[string][]Window),
		attrs:     []Style{{}},
		attrIndex: map[Style]int{{}: 0},
	}
}

func (h *fakeHost) NewDocument(name string) (Document, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	d := newFakeDoc(string(rune('A'+h.nextID-1)), name)
	h.docs[d.id] = d
	return d, nil
}

func (h *fakeHost) DiscardDocument(doc Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d, ok := h.docs[doc.ID()]; ok {
		d.discarded = true
	}
	delete(h.docs, doc.ID())
	delete(h.windows, doc.ID())
}

func (h *fakeHost) attach(doc Document, w Window) {
	h.mu.Lock()
	h.windows[doc.ID()] = append(h.windows[doc.ID()], w)
	h.mu.Unlock()
}

func (h *fakeHost) detach(doc Document, w Window) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ws := h.windows[doc.ID()]
	for i, cur := range ws {
		if cur == w {
			h.windows[doc.ID()] = append(ws[:i], ws[i+1:]...)
			return
		}
	}
}

func (h *fakeHost) ForEachWindow(doc Document, fn func(Window)) {
	h.mu.Lock()
	ws := append([]Window(nil), h.windows[doc.ID()]...)
	h.mu.Unlock()
	for _, w := range ws {
		fn(w)
	}
}

func (h *fakeHost) MarkDirty(doc Document, startRow, endRow int) {
	h.mu.Lock()
	h.dirty = append(h.dirty, [2]int{startRow, endRow})
	h.mu.Unlock()
}

func (h *fakeHost) AttrIndex(style Style) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i, ok := h.attrIndex[style]; ok {
		return i
	}
	h.attrs = append(h.attrs, style)
	i := len(h.attrs) - 1
	h.attrIndex[style] = i
	return i
}

func (h *fakeHost) ColorCaps() ColorCaps { return h.caps }

func (h *fakeHost) TitleChanged(doc Document, title string) {
	h.mu.Lock()
	h.titles = append(h.titles, title)
	h.mu.Unlock()
}

func (h *fakeHost) StatusInvalidated(doc Document) {
	h.mu.Lock()
	h.statusHits++
	h.mu.Unlock()
}

// testManager wires a manager over the fakes with a 4x10 default grid.
func testManager(t interface{ Helper() }, host *fakeHost, eng **fakeEngine, starter *fakeStarter) *Manager {
	t.Helper()
	return NewManager(host, ManagerConfig{
		NewEngine:   fakeEngineFactory(eng),
		StartJob:    starter.Start,
		DefaultRows: 4,
		DefaultCols: 10,
	})
}
