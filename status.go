package termloom

// Title returns the window title most recently announced by the child
// application; empty when none was set or the session finished.
func (s *Session) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.title
}

// StatusText returns the display text for status lines: the title (or the
// session name when no title is set) followed by the state marker, e.g.
// "bash [running]". The text is cached and recomputed only after a state
// change invalidates it.
func (s *Session) StatusText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == "" {
		s.status = s.statusTextLocked()
	}
	return s.status
}

func (s *Session) statusTextLocked() string {
	label := s.title
	if label == "" {
		label = s.Name
	}
	var state string
	switch {
	case s.engine == nil:
		state = "finished"
	case s.frozen:
		state = "running (frozen)"
	default:
		state = "running"
	}
	return label + " [" + state + "]"
}

// LineText returns one line of session text. While the engine is present
// row indexes the live screen, zero-based; afterwards it indexes the
// flushed document. Out of range returns the empty string.
func (s *Session) LineText(row int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.engine != nil {
		if row < 0 || row >= s.rows {
			return ""
		}
		width := s.rowWidthLocked(row, s.cols)
		if width == 0 {
			return ""
		}
		return lineText(s.captureRowLocked(row, width))
	}
	// Row 0 of the final screen sits after the lines pushed out while
	// the session ran, so the document line is offset by scrolled.
	if row < 0 || row+s.scrolled >= s.doc.LineCount() {
		return ""
	}
	return s.doc.Line(row + s.scrolled + 1)
}

// ScrapedCell is one inspected cell: its text, colors as "#rrggbb", raw
// attributes and display width.
type ScrapedCell struct {
	Chars string
	Fg    string
	Bg    string
	Attrs AttrMask
	Width int
}

// Scrape returns the styled cells of one row, skipping the blank second
// column of wide characters. While the engine is present row indexes the
// live screen; afterwards it indexes the scrollback store. Out of range
// returns nil.
func (s *Session) Scrape(row int) []ScrapedCell {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.engine != nil {
		if row < 0 || row >= s.rows {
			return nil
		}
		width := s.rowWidthLocked(row, s.cols)
		return scrapeCells(s.captureRowLocked(row, width))
	}
	if row < 0 {
		return nil
	}
	line, ok := s.sb.Line(row + s.scrolled)
	if !ok {
		return nil
	}
	return scrapeCells(line.Cells)
}

func scrapeCells(cells []Cell) []ScrapedCell {
	scraped := make([]ScrapedCell, 0, len(cells))
	for i := 0; i < len(cells); i++ {
		cell := cells[i]
		width := cell.Width
		if width < 1 {
			width = 1
		}
		runes := cell.Runes
		if len(runes) == 0 {
			runes = []rune{' '}
		}
		scraped = append(scraped, ScrapedCell{
			Chars: string(runes),
			Fg:    rgbText(cell.Fg),
			Bg:    rgbText(cell.Bg),
			Attrs: cell.Attrs,
			Width: width,
		})
		if width == 2 {
			i++
		}
	}
	return scraped
}

// SearchScrollback runs a full-text query over the session's captured
// lines. Reports ErrNoSearchIndex when indexing was not configured.
func (s *Session) SearchScrollback(query string, limit int) ([]SearchResult, error) {
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()
	if idx == nil {
		return nil, ErrNoSearchIndex
	}
	return idx.Search(query, limit)
}
