package termloom

import (
	"context"
	"sync"
	"time"
)

// Mode is a session's input/rendering mode.
type Mode int

const (
	// ModeLive forwards input to the child process and renders from the
	// engine's screen.
	ModeLive Mode = iota
	// ModeFrozen redirects input to local navigation; the host document
	// is the rendering source.
	ModeFrozen
	// ModeFinished means the engine is gone; content lives only in the
	// host document and the scrollback store.
	ModeFinished
)

func (m Mode) String() string {
	switch m {
	case ModeFrozen:
		return "frozen"
	case ModeFinished:
		return "finished"
	default:
		return "live"
	}
}

// maxDirtyRow is the "all rows" sentinel; a clean session holds the dirty
// range (maxDirtyRow, 0) so damage unions need no emptiness branch.
const maxDirtyRow = 999999

// Session is one managed terminal: a child process wired through an
// emulation engine into a host document, with mode-dependent input routing.
// Create sessions through Manager.OpenSession.
type Session struct {
	// ID is a stable unique identifier used by external surfaces.
	ID string
	// Name is the display name derived from the command line, deduplicated
	// per manager.
	Name string

	mu sync.RWMutex

	host    Host
	doc     Document
	cfg     ManagerConfig
	logger  Logger
	handler EventHandler

	engine Engine // nil once Finished
	job    Job    // nil before start and after release

	rows      int
	cols      int
	rowsFixed bool
	colsFixed bool

	frozen        bool
	channelClosed bool
	// flushedRows counts document lines added by the freeze flush; zero
	// means the screen has not been flushed. It is the explicit guard
	// against flushing twice and the exact rollback amount on resume.
	flushedRows int

	title  string
	status string // cached; empty means recompute

	dirtyStart int
	dirtyEnd   int

	cursorPos     Pos
	cursorVisible bool

	// scrolled counts scrollback lines appended by push-line since the
	// job started; it is the offset between screen rows and document
	// lines once the session is finished.
	scrolled int
	sb       Scrollback
	index    *SearchIndex

	lastOutput time.Time
	closed     bool
}

// Mode returns the session's current mode.
func (s *Session) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modeLocked()
}

func (s *Session) modeLocked() Mode {
	if s.engine == nil {
		return ModeFinished
	}
	if s.frozen {
		return ModeFrozen
	}
	return ModeLive
}

// Size returns the session's current size.
func (s *Session) Size() (rows, cols int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows, s.cols
}

// Cursor returns the cursor position and visibility.
func (s *Session) Cursor() (Pos, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursorPos, s.cursorVisible
}

// Document returns the host document this session mirrors into.
func (s *Session) Document() Document {
	return s.doc
}

// JobStatus reports the child process state; JobEnded once the channel has
// closed and no job handle remains.
func (s *Session) JobStatus() JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.job == nil {
		return JobEnded
	}
	if s.channelClosed {
		return JobEnded
	}
	return s.job.Status()
}

// Scrolled returns the count of scrollback lines appended by the engine
// since the job started.
func (s *Session) Scrolled() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scrolled
}

// ScrollbackLen returns the number of captured lines currently stored.
func (s *Session) ScrollbackLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sb.Len()
}

// Freeze flushes the live screen into the scrollback store and host
// document and enters Frozen mode. No-op when already frozen; reports
// ErrEngineAbsent on a finished session.
func (s *Session) Freeze() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return ErrEngineAbsent
	}
	if s.frozen {
		return nil
	}
	s.flushScreenLocked()
	s.frozen = true
	s.invalidateStatusLocked()
	s.logger.Debug("session frozen", "sessionID", s.ID, "flushedRows", s.flushedRows)
	return nil
}

// Resume rolls back the rows added by Freeze and returns to Live mode.
// If the channel closed while frozen the session is already Finished and
// Resume reports ErrEngineAbsent.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return ErrEngineAbsent
	}
	if !s.frozen {
		return nil
	}
	if s.channelClosed {
		// Closed while frozen; finish instead of resuming.
		s.finishLocked()
		return nil
	}
	s.rollbackFlushLocked()
	s.frozen = false
	s.invalidateStatusLocked()
	s.markAllDirtyLocked()
	s.logger.Debug("session resumed", "sessionID", s.ID)
	return nil
}

// flushScreenLocked appends the current screen contents to the scrollback
// store and host document. Consecutive empty rows are held back as a skip
// count and only materialize when a later row has content, so trailing
// empty rows are never written. Records the added line count in
// flushedRows.
func (s *Session) flushScreenLocked() {
	if s.engine == nil || s.flushedRows != 0 {
		return
	}
	rows, cols := s.engine.Size()
	skipped := 0
	added := 0
	for row := 0; row < rows; row++ {
		width := s.rowWidthLocked(row, cols)
		if width == 0 {
			skipped++
			continue
		}
		for ; skipped > 0; skipped-- {
			s.sb.AppendEmpty()
			s.indexCapturedLocked(s.sb.Len()-1, "")
			s.appendDocLineLocked("")
			added++
		}
		cells := s.captureRowLocked(row, width)
		text := lineText(cells)
		s.sb.Append(cells)
		s.indexCapturedLocked(s.sb.Len()-1, text)
		s.appendDocLineLocked(text)
		added++
	}
	s.flushedRows = added

	last := s.doc.LineCount()
	s.host.ForEachWindow(s.doc, func(w Window) {
		w.GoToLine(last)
	})
	s.markAllDirtyLocked()
}

// rollbackFlushLocked removes exactly the rows the freeze flush added,
// from both the host document and the scrollback store.
func (s *Session) rollbackFlushLocked() {
	for i := 0; i < s.flushedRows; i++ {
		lnum := s.doc.LineCount()
		if err := s.doc.DeleteLine(lnum); err != nil {
			s.logger.Warn("rollback delete failed", "sessionID", s.ID, "line", lnum, "error", err)
			break
		}
		s.unindexCapturedLocked(s.sb.Len() - 1)
		s.sb.TrimLast(1)
	}
	s.flushedRows = 0
}

// finishLocked tears the engine down after the channel closed: flush the
// screen unless a freeze already did, then release the engine. The session
// stays registered, read-only.
func (s *Session) finishLocked() {
	if s.engine == nil {
		return
	}
	s.flushScreenLocked()
	s.engine.Release()
	s.engine = nil
	s.frozen = false
	s.title = ""
	s.invalidateStatusLocked()
	s.markAllDirtyLocked()
	s.logger.Info("session finished", "sessionID", s.ID, "scrollback", s.sb.Len())
}

// rowWidthLocked is the effective width of a live screen row: the last
// column holding content, plus one.
func (s *Session) rowWidthLocked(row, cols int) int {
	for col := cols - 1; col >= 0; col-- {
		if cell, ok := s.engine.Cell(Pos{Row: row, Col: col}); ok && len(cell.Runes) > 0 {
			return col + 1
		}
	}
	return 0
}

// captureRowLocked copies one screen row's cells up to width.
func (s *Session) captureRowLocked(row, width int) []Cell {
	cells := make([]Cell, width)
	for col := 0; col < width; col++ {
		if cell, ok := s.engine.Cell(Pos{Row: row, Col: col}); ok {
			cells[col] = cell
		}
	}
	return cells
}

// appendDocLineLocked appends one rendered line to the host document. The
// very first line of content replaces the document's placeholder line. A
// failed append skips the line rather than corrupting the store.
func (s *Session) appendDocLineLocked(text string) {
	if s.doc.Empty() {
		if err := s.doc.AppendLine(0, text); err != nil {
			s.logger.Warn("line append failed", "sessionID", s.ID, "error", err)
			return
		}
		if s.doc.LineCount() > 1 {
			_ = s.doc.DeleteLine(2)
		}
		return
	}
	if err := s.doc.AppendLine(s.doc.LineCount(), text); err != nil {
		s.logger.Warn("line append failed", "sessionID", s.ID, "error", err)
	}
}

// SendKey translates one key event and transmits the encoded bytes to the
// child process. Unsupported keys produce zero bytes and are swallowed;
// frozen sessions swallow everything; finished sessions report
// ErrEngineAbsent.
func (s *Session) SendKey(ev KeyEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return ErrEngineAbsent
	}
	if s.frozen || s.job == nil {
		return nil
	}
	out := translateKey(s.engine, ev)
	if len(out) == 0 {
		return nil
	}
	return s.job.Send(out)
}

// SendMouse translates one mouse event and transmits the encoded bytes to
// the child process.
func (s *Session) SendMouse(ev MouseEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return ErrEngineAbsent
	}
	if s.frozen || s.job == nil {
		return nil
	}
	out := translateMouse(s.engine, ev)
	if len(out) == 0 {
		return nil
	}
	return s.job.Send(out)
}

// SendText passes literal text through the engine's character encoder,
// producing one byte sequence for the channel. Used for paste-style input.
func (s *Session) SendText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return ErrEngineAbsent
	}
	if s.frozen || s.job == nil {
		return nil
	}
	for _, r := range text {
		s.engine.KeyUnichar(r, 0)
	}
	out := drainOutput(s.engine)
	if len(out) == 0 {
		return nil
	}
	return s.job.Send(out)
}

// DropScrollback releases the captured lines of a finished session, used
// when the host document is about to be edited and stale per-cell styling
// must not survive. Attribute lookups return no attribute afterwards.
func (s *Session) DropScrollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine != nil {
		return
	}
	if s.sb.Len() == 0 {
		return
	}
	s.sb.Clear()
	s.markAllDirtyLocked()
	s.logger.Debug("scrollback dropped", "sessionID", s.ID)
}

// WaitQuiet blocks until no child output has arrived for idle, or ctx
// ends. A finished session returns immediately.
func (s *Session) WaitQuiet(ctx context.Context, idle time.Duration) error {
	start := time.Now()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		s.mu.RLock()
		last := s.lastOutput
		finished := s.engine == nil
		s.mu.RUnlock()
		if finished {
			return nil
		}
		since := last
		if since.IsZero() {
			since = start
		}
		if time.Since(since) >= idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// TakeDirty returns and clears the pending dirty row range. ok is false
// when nothing is pending.
func (s *Session) TakeDirty() (start, end int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirtyStart >= s.dirtyEnd {
		return 0, 0, false
	}
	start, end = s.dirtyStart, s.dirtyEnd
	s.dirtyStart, s.dirtyEnd = maxDirtyRow, 0
	return start, end, true
}

func (s *Session) markAllDirtyLocked() {
	s.damageLocked(0, maxDirtyRow)
}

// damageLocked unions a row range into the dirty range and schedules a
// host redraw. Redraw itself happens later, on the host's own loop.
func (s *Session) damageLocked(startRow, endRow int) {
	if startRow < s.dirtyStart {
		s.dirtyStart = startRow
	}
	if endRow > s.dirtyEnd {
		s.dirtyEnd = endRow
	}
	s.host.MarkDirty(s.doc, startRow, endRow)
}

func (s *Session) invalidateStatusLocked() {
	s.status = ""
	s.host.StatusInvalidated(s.doc)
}

// destroy releases everything the session owns. A still-running job gets a
// best-effort kill; exit is observed later by the channel collaborator,
// not awaited here.
func (s *Session) destroy() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	job := s.job
	s.job = nil
	if s.engine != nil {
		s.engine.Release()
		s.engine = nil
	}
	s.sb.Clear()
	idx := s.index
	s.index = nil
	s.mu.Unlock()

	if job != nil {
		if job.Status() == JobRunning {
			job.Stop("kill")
		}
		job.Release()
	}
	if idx != nil {
		if err := idx.Close(); err != nil {
			s.logger.Warn("search index close failed", "sessionID", s.ID, "error", err)
		}
	}
}

func (s *Session) indexCapturedLocked(lineIdx int, text string) {
	if s.index == nil {
		return
	}
	s.index.IndexLine(int64(lineIdx), time.Now(), text)
}

func (s *Session) unindexCapturedLocked(lineIdx int) {
	if s.index == nil || lineIdx < 0 {
		return
	}
	if err := s.index.DeleteLine(int64(lineIdx)); err != nil {
		s.logger.Debug("search index delete failed", "sessionID", s.ID, "line", lineIdx, "error", err)
	}
}
