package termloom

// negotiateSizeLocked fits the emulated grid to the windows currently
// showing the session. Each axis takes the smallest viewport extent
// across those windows, independently, unless pinned by SetSize. No
// windows means no change.
func (s *Session) negotiateSizeLocked() {
	if s.engine == nil {
		return
	}
	if s.rowsFixed && s.colsFixed {
		return
	}
	minRows, minCols, seen := 0, 0, false
	s.host.ForEachWindow(s.doc, func(w Window) {
		r, c := w.Viewport()
		if r <= 0 || c <= 0 {
			return
		}
		if !seen || r < minRows {
			minRows = r
		}
		if !seen || c < minCols {
			minCols = c
		}
		seen = true
	})
	if !seen {
		return
	}
	rows, cols := s.rows, s.cols
	if !s.rowsFixed {
		rows = minRows
	}
	if !s.colsFixed {
		cols = minCols
	}
	rows, cols = clampSize(rows, cols)
	if rows == s.rows && cols == s.cols {
		return
	}
	s.applySizeLocked(rows, cols)
}

// SetSize pins the emulated grid to an explicit geometry. A zero value
// on either axis leaves that axis negotiated from window viewports;
// pinned axes are never altered by window changes until unpinned.
func (s *Session) SetSize(rows, cols int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return ErrEngineAbsent
	}
	s.rowsFixed = rows > 0
	s.colsFixed = cols > 0
	r, c := s.rows, s.cols
	if rows > 0 {
		r = rows
	}
	if cols > 0 {
		c = cols
	}
	r, c = clampSize(r, c)
	if r != s.rows || c != s.cols {
		s.applySizeLocked(r, c)
	}
	s.negotiateSizeLocked()
	return nil
}

// ObserverChanged renegotiates the emulated size after a window showing
// the session changed geometry, or windows were attached or detached.
func (s *Session) ObserverChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.negotiateSizeLocked()
}

func (s *Session) applySizeLocked(rows, cols int) {
	s.rows, s.cols = rows, cols
	s.engine.Resize(rows, cols)
	if er, ec := s.engine.Size(); er > 0 && ec > 0 {
		s.rows, s.cols = er, ec
	}
	if s.job != nil {
		s.job.NotifyResize(s.rows, s.cols)
	}
	pos, visible := s.engine.Cursor()
	s.cursorPos = pos
	s.cursorVisible = visible
	s.host.ForEachWindow(s.doc, func(w Window) {
		w.Resize(s.rows, s.cols)
		w.SetCursor(pos, visible)
	})
	s.markAllDirtyLocked()
	s.logger.Debug("terminal resized", "sessionID", s.ID, "rows", s.rows, "cols", s.cols)
}
