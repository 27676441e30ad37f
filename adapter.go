package termloom

import (
	"bytes"
	"time"
)

// adapter receives the engine's callbacks for one session. Callbacks fire
// synchronously while the session is feeding or resizing the engine, so
// the session lock is already held; everything here stays on *Locked
// helpers and host calls.
type adapter struct {
	s *Session
}

func (a adapter) Damage(startRow, endRow int) {
	a.s.damageLocked(startRow, endRow)
}

// MoveRect is handled as damage over both rectangles; correctness over a
// differential scroll.
func (a adapter) MoveRect(dest, src Rect) {
	start := dest.StartRow
	if src.StartRow < start {
		start = src.StartRow
	}
	end := dest.EndRow
	if src.EndRow > end {
		end = src.EndRow
	}
	a.s.damageLocked(start, end)
}

func (a adapter) MoveCursor(pos Pos, visible bool) {
	s := a.s
	s.cursorPos = pos
	s.cursorVisible = visible
	s.host.ForEachWindow(s.doc, func(w Window) {
		w.SetCursor(pos, visible)
	})
}

func (a adapter) SetTitle(title string) {
	s := a.s
	s.title = title
	s.invalidateStatusLocked()
	s.host.TitleChanged(s.doc, title)
}

func (a adapter) SetCursorVisible(visible bool) {
	s := a.s
	s.cursorVisible = visible
	s.host.ForEachWindow(s.doc, func(w Window) {
		w.SetCursor(s.cursorPos, visible)
	})
}

// Resized means the child process requested a size change; host windows
// follow the engine.
func (a adapter) Resized(rows, cols int) {
	s := a.s
	s.rows = rows
	s.cols = cols
	s.host.ForEachWindow(s.doc, func(w Window) {
		w.Resize(rows, cols)
	})
	s.markAllDirtyLocked()
}

// PushLine captures a row being evicted off the top of the screen. The
// store keeps even fully blank rows here; ordering against the live
// screen requires the document append to happen now, not deferred.
func (a adapter) PushLine(cells []Cell) {
	s := a.s
	width := effectiveWidth(cells)
	var text string
	if width == 0 {
		s.sb.AppendEmpty()
	} else {
		s.sb.Append(cells)
		text = lineText(cells[:width])
	}
	s.scrolled++
	s.indexCapturedLocked(s.sb.Len()-1, text)
	s.appendDocLineLocked(text)
}

func (a adapter) PopLine() []Cell {
	return nil
}

// handleOutput feeds one delivered chunk of child output to the engine and
// forces pending damage callbacks to fire before returning.
func (s *Session) handleOutput(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOutput = time.Now()
	if s.closed || s.engine == nil {
		return
	}
	feedEngine(s.engine, p)
	s.engine.FlushDamage()
}

// feedEngine writes raw child output, translating each line feed into
// carriage return plus line feed; the engine expects canonical line
// endings. Carriage returns already present pass through untouched.
func feedEngine(e Engine, p []byte) {
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			e.Feed(p)
			return
		}
		if i > 0 {
			e.Feed(p[:i])
		}
		e.Feed([]byte{'\r', '\n'})
		p = p[i+1:]
	}
}

// handleChannelClosed reacts to the channel's close notification: the
// session finishes immediately, skipping the flush when a freeze already
// wrote the screen out.
func (s *Session) handleChannelClosed() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.channelClosed = true
	job := s.job
	s.job = nil
	finished := s.engine != nil
	if finished {
		s.finishLocked()
	}
	handler := s.handler
	s.mu.Unlock()

	if job != nil {
		job.Release()
	}
	if finished && handler != nil {
		handler.OnSessionFinished(s)
	}
}

// jobEvents adapts channel callbacks onto a session.
type jobEvents struct {
	s *Session
}

func (j jobEvents) Output(p []byte) {
	j.s.handleOutput(p)
}

func (j jobEvents) Closed() {
	j.s.handleChannelClosed()
}
