package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/coder/websocket"

	"github.com/termloom/termloom"
	"github.com/termloom/termloom/memhost"
)

const noDamage = 1 << 30

// span is a run of cells sharing one style. Wide characters occupy two
// columns; their filler cell is not encoded.
type span struct {
	Text  string `json:"text"`
	Fg    string `json:"fg,omitempty"`
	Bg    string `json:"bg,omitempty"`
	Attrs int    `json:"attrs,omitempty"`
}

type snapshotFrame struct {
	Type    string   `json:"type"`
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Mode    string   `json:"mode"`
	Status  string   `json:"status"`
	Title   string   `json:"title,omitempty"`
	Rows    int      `json:"rows"`
	Cols    int      `json:"cols"`
	Screen  [][]span `json:"screen,omitempty"`
	CurRow  int      `json:"cur_row"`
	CurCol  int      `json:"cur_col"`
	Visible bool     `json:"cur_visible"`
}

type rowsFrame struct {
	Type  string   `json:"type"`
	Start int      `json:"start"`
	Rows  [][]span `json:"rows"`
}

type cursorFrame struct {
	Type    string `json:"type"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Visible bool   `json:"visible"`
}

type titleFrame struct {
	Type  string `json:"type"`
	Title string `json:"title"`
}

type statusFrame struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

// docFrame carries the tail of the document for frozen and finished
// sessions; earlier lines page in through the lines endpoint.
type docFrame struct {
	Type      string   `json:"type"`
	LineCount int      `json:"line_count"`
	First     int      `json:"first"`
	Lines     []string `json:"lines"`
	Top       int      `json:"top,omitempty"`
}

type eventFrame struct {
	Type string `json:"type"`
}

type inboundFrame struct {
	Type   string `json:"type"`
	Key    string `json:"key,omitempty"`
	Rune   string `json:"rune,omitempty"`
	Mods   int    `json:"mods,omitempty"`
	Text   string `json:"text,omitempty"`
	Action string `json:"action,omitempty"`
	Button int    `json:"button,omitempty"`
	Row    int    `json:"row,omitempty"`
	Col    int    `json:"col,omitempty"`
	Rows   int    `json:"rows,omitempty"`
	Cols   int    `json:"cols,omitempty"`
}

// client is one websocket connection observing a session through its own
// window.
type client struct {
	s       *Server
	session *termloom.Session
	window  *memhost.Window
	conn    *websocket.Conn
	logger  termloom.Logger
	limiter *byteRateLimiter

	send      chan []byte
	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	mu          sync.Mutex
	dirtyStart  int
	dirtyEnd    int
	snapshot    bool
	titleDirty  bool
	statusDirty bool
	finished    bool
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Get(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	rows := intQuery(r, "rows", defaultViewRows)
	cols := intQuery(r, "cols", defaultViewCols)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.AllowedOrigins,
	})
	if err != nil {
		s.logger.Debug("websocket accept failed", "error", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := &client{
		s:          s,
		session:    sess,
		window:     memhost.NewWindow(rows, cols),
		conn:       conn,
		logger:     s.logger,
		limiter:    newByteRateLimiter(inputBytesPerSec, inputBurst),
		send:       make(chan []byte, sendBufferSize),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		dirtyStart: noDamage,
	}
	s.addClient(sess.Document().ID(), c)
	s.host.AttachWindow(sess.Document(), c.window)
	sess.ObserverChanged()
	s.logger.Debug("client connected", "sessionID", sess.ID, "rows", rows, "cols", cols)

	c.markSnapshot()
	go c.writeLoop()
	go c.flushLoop()
	c.readLoop(r.Context())
	c.close("")
}

func (c *client) close(reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		doc := c.session.Document()
		c.s.removeClient(doc.ID(), c)
		c.s.host.DetachWindow(doc, c.window)
		c.session.ObserverChanged()
		if reason == "" {
			reason = "bye"
		}
		c.conn.Close(websocket.StatusNormalClosure, reason)
		c.logger.Debug("client disconnected", "sessionID", c.session.ID, "reason", reason)
	})
}

// addDamage unions a dirty row range; safe to call while the session is
// locked.
func (c *client) addDamage(startRow, endRow int) {
	c.mu.Lock()
	if startRow < c.dirtyStart {
		c.dirtyStart = startRow
	}
	if endRow > c.dirtyEnd {
		c.dirtyEnd = endRow
	}
	c.mu.Unlock()
	c.notify()
}

func (c *client) markSnapshot() {
	c.mu.Lock()
	c.snapshot = true
	c.mu.Unlock()
	c.notify()
}

func (c *client) markTitle() {
	c.mu.Lock()
	c.titleDirty = true
	c.mu.Unlock()
	c.notify()
}

func (c *client) markStatus() {
	c.mu.Lock()
	c.statusDirty = true
	c.mu.Unlock()
	c.notify()
}

func (c *client) markFinished() {
	c.mu.Lock()
	c.finished = true
	c.mu.Unlock()
	c.notify()
}

func (c *client) notify() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// flushLoop coalesces damage bursts into single frames.
func (c *client) flushLoop() {
	for {
		select {
		case <-c.wake:
		case <-c.done:
			return
		}
		time.Sleep(frameCoalesce)
		select {
		case <-c.wake:
		default:
		}
		c.flush()
	}
}

func (c *client) flush() {
	c.mu.Lock()
	snapshot := c.snapshot
	start, end := c.dirtyStart, c.dirtyEnd
	title := c.titleDirty
	status := c.statusDirty
	finished := c.finished
	c.snapshot, c.titleDirty, c.statusDirty, c.finished = false, false, false, false
	c.dirtyStart, c.dirtyEnd = noDamage, 0
	c.mu.Unlock()

	mode := c.session.Mode()
	switch {
	case snapshot:
		c.sendSnapshot(mode)
	case start < end:
		if mode == termloom.ModeLive {
			c.sendRows(start, end)
		} else {
			c.sendDocTail()
		}
	}
	if title {
		c.enqueueJSON(titleFrame{Type: "title", Title: c.session.Title()})
	}
	if status {
		c.enqueueJSON(statusFrame{Type: "status", Status: c.session.StatusText(), Mode: c.session.Mode().String()})
	}
	if finished {
		c.enqueueJSON(eventFrame{Type: "finished"})
	}
}

func (c *client) sendSnapshot(mode termloom.Mode) {
	rows, cols := c.session.Size()
	f := snapshotFrame{
		Type:   "snapshot",
		ID:     c.session.ID,
		Name:   c.session.Name,
		Mode:   mode.String(),
		Status: c.session.StatusText(),
		Title:  c.session.Title(),
		Rows:   rows,
		Cols:   cols,
	}
	if mode == termloom.ModeLive {
		c.session.RenderWindow(c.window)
		vrows, _ := c.window.Viewport()
		f.Screen = make([][]span, 0, vrows)
		for row := 0; row < vrows; row++ {
			f.Screen = append(f.Screen, c.encodeRow(c.window.Row(row)))
		}
		pos, visible := c.window.Cursor()
		f.CurRow, f.CurCol, f.Visible = pos.Row, pos.Col, visible
		c.enqueueJSON(f)
		return
	}
	c.enqueueJSON(f)
	c.sendDocTail()
}

func (c *client) sendRows(start, end int) {
	c.session.RenderWindow(c.window)
	vrows, _ := c.window.Viewport()
	if start < 0 {
		start = 0
	}
	if end > vrows {
		end = vrows
	}
	if start >= end {
		return
	}
	f := rowsFrame{Type: "rows", Start: start, Rows: make([][]span, 0, end-start)}
	for row := start; row < end; row++ {
		f.Rows = append(f.Rows, c.encodeRow(c.window.Row(row)))
	}
	c.enqueueJSON(f)
	pos, visible := c.window.Cursor()
	c.enqueueJSON(cursorFrame{Type: "cursor", Row: pos.Row, Col: pos.Col, Visible: visible})
}

func (c *client) sendDocTail() {
	doc := c.session.Document()
	count := doc.LineCount()
	vrows, _ := c.window.Viewport()
	first := count - vrows + 1
	if first < 1 {
		first = 1
	}
	f := docFrame{
		Type:      "doc",
		LineCount: count,
		First:     first,
		Lines:     make([]string, 0, count-first+1),
		Top:       c.window.TopLine(),
	}
	for i := first; i <= count; i++ {
		f.Lines = append(f.Lines, doc.Line(i))
	}
	c.enqueueJSON(f)
}

// encodeRow folds a rendered row into spans, merging runs that share a
// style and dropping wide-character fillers.
func (c *client) encodeRow(cells []termloom.ScreenCell) []span {
	var spans []span
	for i := 0; i < len(cells); i++ {
		cell := cells[i]
		text := string(cell.Runes)
		if text == "" {
			text = " "
		}
		st, _ := c.s.host.StyleAt(cell.Attr)
		fg, bg := styleText(st.Fg), styleText(st.Bg)
		attrs := int(st.Attrs)
		if n := len(spans); n > 0 && spans[n-1].Fg == fg && spans[n-1].Bg == bg && spans[n-1].Attrs == attrs {
			spans[n-1].Text += text
		} else {
			spans = append(spans, span{Text: text, Fg: fg, Bg: bg, Attrs: attrs})
		}
		if cell.Width == 2 && i+1 < len(cells) {
			i++
		}
	}
	return spans
}

func styleText(sc termloom.StyleColor) string {
	switch {
	case sc.IsRGB:
		return fmt.Sprintf("#%02x%02x%02x", sc.RGB.R, sc.RGB.G, sc.RGB.B)
	case sc.Index > 0:
		return fmt.Sprintf("%d", sc.Index)
	}
	return ""
}

func (c *client) enqueueJSON(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("frame marshal failed", "error", err)
		return
	}
	select {
	case c.send <- msg:
	default:
		// the session must never block on a stalled client
		c.logger.Warn("client too slow, disconnecting", "sessionID", c.session.ID)
		go c.close("too slow")
	}
}

func (c *client) writeLoop() {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case msg := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				c.close("write failed")
				return
			}
		case <-ping.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				c.close("ping failed")
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) readLoop(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		c.handleMessage(data)
	}
}

func (c *client) handleMessage(data []byte) {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		c.logger.Debug("bad frame", "error", err)
		return
	}
	switch f.Type {
	case "key":
		if !c.limiter.Allow(len(data)) {
			return
		}
		ev, ok := keyEventFrom(f)
		if !ok {
			return
		}
		if err := c.session.SendKey(ev); err != nil {
			c.logger.Debug("key rejected", "sessionID", c.session.ID, "error", err)
		}
	case "text":
		if !c.limiter.Allow(len(f.Text)) {
			return
		}
		if err := c.session.SendText(f.Text); err != nil {
			c.logger.Debug("text rejected", "sessionID", c.session.ID, "error", err)
		}
	case "mouse":
		ev, ok := mouseEventFrom(f)
		if !ok {
			return
		}
		if err := c.session.SendMouse(ev); err != nil {
			c.logger.Debug("mouse rejected", "sessionID", c.session.ID, "error", err)
		}
	case "resize":
		c.window.SetViewport(f.Rows, f.Cols)
		c.session.ObserverChanged()
		c.markSnapshot()
	case "freeze":
		if err := c.session.Freeze(); err != nil {
			c.logger.Debug("freeze rejected", "sessionID", c.session.ID, "error", err)
		}
	case "resume":
		if err := c.session.Resume(); err != nil {
			c.logger.Debug("resume rejected", "sessionID", c.session.ID, "error", err)
		}
	default:
		c.logger.Debug("unknown frame type", "type", f.Type)
	}
}

func keyEventFrom(f inboundFrame) (termloom.KeyEvent, bool) {
	ev := termloom.KeyEvent{Mods: termloom.KeyMod(f.Mods)}
	if f.Key != "" {
		k, ok := termloom.KeyByName(f.Key)
		if !ok {
			return ev, false
		}
		ev.Key = k
		return ev, true
	}
	r, _ := utf8.DecodeRuneInString(f.Rune)
	if r == utf8.RuneError {
		return ev, false
	}
	ev.Rune = r
	return ev, true
}

func mouseEventFrom(f inboundFrame) (termloom.MouseEvent, bool) {
	ev := termloom.MouseEvent{
		Button: termloom.MouseButton(f.Button),
		Row:    f.Row,
		Col:    f.Col,
		Mods:   termloom.KeyMod(f.Mods),
	}
	switch f.Action {
	case "press":
		ev.Action = termloom.MousePress
	case "drag":
		ev.Action = termloom.MouseDrag
	case "release":
		ev.Action = termloom.MouseRelease
	case "wheelup":
		ev.Action = termloom.MouseWheelUp
	case "wheeldown":
		ev.Action = termloom.MouseWheelDown
	default:
		return ev, false
	}
	return ev, true
}
