package termloom

// RenderWindow projects the live screen onto one host window: geometry is
// re-negotiated first, then every viewport row is rebuilt from engine
// cells. Wide characters take two host columns with the second blank; rows
// beyond the emulated height render empty. Frozen and finished sessions
// are not rendered here; the host document is their rendering source,
// with per-cell styling served by ScrollbackStyle.
func (s *Session) RenderWindow(w Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil || s.frozen {
		return
	}
	s.negotiateSizeLocked()

	caps := s.host.ColorCaps()
	vrows, vcols := w.Viewport()
	for row := 0; row < vrows; row++ {
		if row >= s.rows {
			w.SetCells(row, blankCells(vcols))
			continue
		}
		cells := make([]ScreenCell, 0, vcols)
		limit := s.cols
		if vcols < limit {
			limit = vcols
		}
		for col := 0; col < limit; {
			cell, ok := s.engine.Cell(Pos{Row: row, Col: col})
			if !ok {
				cells = append(cells, ScreenCell{Width: 1})
				col++
				continue
			}
			// Blank cells keep their attr: erased regions can carry a
			// styled background.
			attr := s.host.AttrIndex(cellStyle(cell, caps))
			if len(cell.Runes) == 0 {
				cells = append(cells, ScreenCell{Width: 1, Attr: attr})
				col++
				continue
			}
			width := cell.Width
			if width < 1 {
				width = 1
			}
			cells = append(cells, ScreenCell{Runes: cell.Runes, Width: width, Attr: attr})
			col++
			if width == 2 && col < limit {
				cells = append(cells, ScreenCell{Width: 1, Attr: attr})
				col++
			}
		}
		for len(cells) < vcols {
			cells = append(cells, ScreenCell{Width: 1})
		}
		w.SetCells(row, cells)
	}
	w.SetCursor(s.cursorPos, s.cursorVisible)
}

func blankCells(n int) []ScreenCell {
	cells := make([]ScreenCell, n)
	for i := range cells {
		cells[i].Width = 1
	}
	return cells
}

// ScrollbackStyle returns the style of the captured cell addressed by a
// one-based document line and zero-based column. The zero Style means "no
// attribute": the line is beyond the store or the column beyond that
// line's captured width.
func (s *Session) ScrollbackStyle(lnum, col int) Style {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cell, ok := s.sb.CellAt(lnum-1, col)
	if !ok {
		return Style{}
	}
	return cellStyle(cell, s.host.ColorCaps())
}

// ScrollbackAttr is ScrollbackStyle interned through the host attribute
// table; 0 means no attribute.
func (s *Session) ScrollbackAttr(lnum, col int) int {
	st := s.ScrollbackStyle(lnum, col)
	if st == (Style{}) {
		return 0
	}
	return s.host.AttrIndex(st)
}

// ScrollbackCells renders one captured line, addressed by one-based
// document line, into host cells, so hosts can paint frozen and finished
// content with its original styling. Nil when the line is beyond the
// store.
func (s *Session) ScrollbackCells(lnum int) []ScreenCell {
	s.mu.RLock()
	defer s.mu.RUnlock()
	line, ok := s.sb.Line(lnum - 1)
	if !ok {
		return nil
	}
	caps := s.host.ColorCaps()
	cells := make([]ScreenCell, 0, len(line.Cells))
	for _, cell := range line.Cells {
		attr := s.host.AttrIndex(cellStyle(cell, caps))
		width := cell.Width
		if width < 1 {
			width = 1
		}
		if len(cell.Runes) == 0 {
			cells = append(cells, ScreenCell{Width: 1, Attr: attr})
			continue
		}
		cells = append(cells, ScreenCell{Runes: cell.Runes, Width: width, Attr: attr})
	}
	return cells
}
