package termloom

import "errors"

// AttrMask is the set of text attributes a cell can carry.
type AttrMask uint8

const (
	AttrBold AttrMask = 1 << iota
	AttrUnderline
	AttrItalic
	AttrStrike
	AttrReverse
)

// CellColor is a color as reported by the emulation engine. Engines report
// concrete RGB values; Default marks the engine's default foreground or
// background, which hosts render with no color override.
type CellColor struct {
	R, G, B uint8
	Default bool
}

// Cell is one screen cell: the base code point plus any combining marks,
// its display width, and its styling. An empty Runes slice is a blank cell.
type Cell struct {
	Runes []rune
	Width int
	Fg    CellColor
	Bg    CellColor
	Attrs AttrMask
}

// Pos is a zero-based (row, column) screen position.
type Pos struct {
	Row int
	Col int
}

// Rect is a half-open cell rectangle [StartRow,EndRow) x [StartCol,EndCol).
type Rect struct {
	StartRow int
	EndRow   int
	StartCol int
	EndCol   int
}

// StyleColor is one side of a host-facing style after capability mapping:
// either a pass-through RGB value (true-color hosts) or a palette index
// where 0 means "no override".
type StyleColor struct {
	RGB   CellColor
	Index int
	IsRGB bool
}

// Style is the host-facing attribute bundle derived from a single cell.
// The zero value renders as plain text in host default colors.
type Style struct {
	Attrs AttrMask
	Fg    StyleColor
	Bg    StyleColor
}

// ScreenCell is one rendered cell written into a host window's row buffer.
// Attr is an index into the host's attribute table (0 = plain).
type ScreenCell struct {
	Runes []rune
	Width int
	Attr  int
}

// ColorCaps describes a host display's color capability.
type ColorCaps struct {
	// TrueColor hosts receive cell colors as RGB, unquantized.
	TrueColor bool
	// Palette is the number of indexed colors available when TrueColor is
	// false. Hosts with fewer than 256 colors only resolve the standard
	// sixteen; everything else falls back to "no override".
	Palette int
}

// EngineEvents receives the emulation engine's callbacks. The engine invokes
// them synchronously while it is being fed bytes; implementations must not
// feed the engine again from inside a callback.
type EngineEvents interface {
	// Damage reports that rows [startRow, endRow) changed.
	Damage(startRow, endRow int)
	// MoveRect reports a rectangle move. Receivers may treat it as damage
	// over both rectangles instead of scrolling.
	MoveRect(dest, src Rect)
	// MoveCursor reports the new cursor position and visibility.
	MoveCursor(pos Pos, visible bool)
	// SetTitle reports a title change requested by the child process.
	SetTitle(title string)
	// SetCursorVisible reports a cursor visibility change.
	SetCursorVisible(visible bool)
	// Resized reports that the child process requested a new screen size.
	Resized(rows, cols int)
	// PushLine hands over a row being evicted off the top of the screen.
	// The receiver owns the slice.
	PushLine(cells []Cell)
	// PopLine asks for the most recent pushed line back when the screen
	// grows. Returning nil declines.
	PopLine() []Cell
}

// Engine is the external screen-emulation engine: it parses a terminal byte
// stream into a grid of styled cells and reports changes through
// EngineEvents. Key and mouse encoder calls append to an internal output
// buffer drained with ReadOutput.
type Engine interface {
	Feed(p []byte)
	// FlushDamage forces pending damage callbacks to fire.
	FlushDamage()
	Size() (rows, cols int)
	Resize(rows, cols int)
	Cursor() (Pos, bool)
	// Cell returns the cell at pos; ok is false outside the screen.
	Cell(pos Pos) (cell Cell, ok bool)
	KeyNamed(key EngineKey, mods KeyMod)
	KeyUnichar(r rune, mods KeyMod)
	MouseMove(row, col int, mods KeyMod)
	MouseButton(button int, pressed bool, mods KeyMod)
	// SetDefaultColors sets the colors blank cells report.
	SetDefaultColors(fg, bg CellColor)
	// ReadOutput drains encoded key/mouse bytes into p.
	ReadOutput(p []byte) int
	Release()
}

// EngineFactory constructs an engine of the given size with its callbacks
// already registered.
type EngineFactory func(rows, cols int, events EngineEvents) (Engine, error)

// JobStatus is the lifecycle state of a session's child process.
type JobStatus int

const (
	JobNotStarted JobStatus = iota
	JobRunning
	JobEnded
	JobFailed
)

// String returns the status in the form hosts display it.
func (s JobStatus) String() string {
	switch s {
	case JobRunning:
		return "running"
	case JobEnded:
		return "finished"
	case JobFailed:
		return "failed"
	default:
		return "not started"
	}
}

// JobEvents delivers channel-side events for a running job. Calls arrive on
// the collaborator's own delivery goroutine; Session methods are safe to
// call from it.
type JobEvents interface {
	// Output delivers a chunk of raw child output.
	Output(p []byte)
	// Closed reports that the channel closed; no Output call follows it.
	Closed()
}

// JobSpec describes the child process to start.
type JobSpec struct {
	// Command is the argv to run. An empty slice means the collaborator's
	// default shell.
	Command []string
	Dir     string
	Env     []string
	Rows    int
	Cols    int
}

// Job is the channel/job collaborator wrapping one child process. The
// collaborator refcounts the underlying channel; Release drops this core's
// reference and never assumes immediate destruction.
type Job interface {
	Send(p []byte) error
	Status() JobStatus
	// Stop requests termination with a named signal ("term", "kill", "hup").
	Stop(signal string)
	// NotifyResize reports the new terminal size to the child process.
	NotifyResize(rows, cols int)
	Release()
}

// JobStarter launches a child process per spec, delivering its output and
// close notification through events. A non-nil error means the process never
// started.
type JobStarter func(spec JobSpec, events JobEvents) (Job, error)

// Document is the host-side line store a session mirrors into. Lines are
// numbered from 1; AppendLine(0, ...) inserts before the first line.
type Document interface {
	ID() string
	Name() string
	LineCount() int
	Line(index int) string
	AppendLine(after int, text string) error
	DeleteLine(index int) error
	// Empty reports whether the document still holds only its initial
	// placeholder line.
	Empty() bool
}

// Window is one host viewport displaying a session's document.
type Window interface {
	Viewport() (rows, cols int)
	Resize(rows, cols int)
	// SetCells replaces the rendered content of a zero-based viewport row.
	SetCells(row int, cells []ScreenCell)
	// SetCursor positions the display cursor within the viewport.
	SetCursor(pos Pos, visible bool)
	// GoToLine moves the window's document cursor to a one-based line.
	GoToLine(lnum int)
}

// Host is the document/display model a manager attaches sessions to.
// Callbacks such as MarkDirty and TitleChanged are invoked synchronously
// from whichever goroutine delivered the triggering event, with the session
// locked; implementations must hand off to their own event loop instead of
// calling Session or Manager methods inline.
type Host interface {
	NewDocument(name string) (Document, error)
	DiscardDocument(doc Document)
	// ForEachWindow calls fn for every window currently showing doc.
	ForEachWindow(doc Document, fn func(Window))
	// MarkDirty schedules a redraw of viewport rows [startRow, endRow).
	MarkDirty(doc Document, startRow, endRow int)
	// AttrIndex interns a style into the host attribute table and returns
	// its index. The zero Style must map to 0.
	AttrIndex(style Style) int
	ColorCaps() ColorCaps
	TitleChanged(doc Document, title string)
	// StatusInvalidated signals that cached status text went stale; hosts
	// re-read Session.StatusText when convenient.
	StatusInvalidated(doc Document)
}

// EventHandler observes manager-level session lifecycle. Handlers are called
// without session locks held.
type EventHandler interface {
	OnSessionOpened(s *Session)
	// OnSessionFinished fires when a session's job ended and its screen was
	// flushed; the session is still registered, read-only.
	OnSessionFinished(s *Session)
	OnSessionClosed(sessionID string)
	OnSessionError(sessionID string, err error)
}

var (
	// ErrEngineAbsent reports an operation that needs the emulation engine
	// on a session already torn down to Finished.
	ErrEngineAbsent = errors.New("terminal engine not available")
	// ErrSessionNotFound reports a registry lookup miss.
	ErrSessionNotFound = errors.New("session not found")
)
