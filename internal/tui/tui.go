// Package tui is the interactive terminal front end: one session shown
// full screen with a status bar, live input forwarding, and Ctrl-]
// toggling into scrollback navigation.
package tui

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/termloom/termloom"
	"github.com/termloom/termloom/memhost"
)

// Config wires an App.
type Config struct {
	Logger  termloom.Logger
	Manager termloom.ManagerConfig
	Caps    termloom.ColorCaps
	Command []string
	Dir     string
	Name    string
	Size    termloom.SizeSpec
}

// App drives one session on a tcell screen.
type App struct {
	cfg     Config
	logger  termloom.Logger
	screen  tcell.Screen
	host    *memhost.Host
	manager *termloom.Manager
	session *termloom.Session
	window  *memhost.Window

	redraw   chan struct{}
	done     chan struct{}
	quitOnce sync.Once

	// scrollback view state, touched only by the event loop
	follow bool
	top    int

	prevButtons tcell.ButtonMask
}

// Run opens a session and blocks in the event loop until the user quits
// or the session is closed.
func Run(cfg Config) error {
	if cfg.Logger == nil {
		cfg.Logger = termloom.NopLogger{}
	}
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	a := &App{
		cfg:    cfg,
		logger: cfg.Logger,
		screen: screen,
		redraw: make(chan struct{}, 1),
		done:   make(chan struct{}),
		follow: true,
	}
	a.host = memhost.New(memhost.Config{
		Caps:     cfg.Caps,
		OnDirty:  func(string, int, int) { a.requestRedraw() },
		OnTitle:  func(string, string) { a.requestRedraw() },
		OnStatus: func(string) { a.requestRedraw() },
	})
	mcfg := cfg.Manager
	if mcfg.Logger == nil {
		mcfg.Logger = cfg.Logger
	}
	a.manager = termloom.NewManager(a.host, mcfg)
	a.manager.SetEventHandler(appEvents{a})
	defer a.manager.Shutdown()

	session, err := a.manager.OpenSession(termloom.OpenRequest{
		Command: cfg.Command,
		Dir:     cfg.Dir,
		Name:    cfg.Name,
		Size:    cfg.Size,
	})
	if err != nil {
		return err
	}
	a.session = session

	w, h := screen.Size()
	a.window = memhost.NewWindow(viewRows(h), w)
	a.host.AttachWindow(session.Document(), a.window)
	session.ObserverChanged()
	a.requestRedraw()

	return a.loop()
}

// viewRows is the screen height minus the status bar.
func viewRows(h int) int {
	if h <= 1 {
		return 1
	}
	return h - 1
}

func (a *App) loop() error {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-a.done:
				return
			}
		}
	}()

	for {
		select {
		case <-a.done:
			return nil
		case ev := <-events:
			a.handleEvent(ev)
		case <-a.redraw:
			a.paint()
		}
	}
}

func (a *App) quit() {
	a.quitOnce.Do(func() { close(a.done) })
}

func (a *App) requestRedraw() {
	select {
	case a.redraw <- struct{}{}:
	default:
	}
}

func (a *App) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		w, h := ev.Size()
		a.window.SetViewport(viewRows(h), w)
		a.session.ObserverChanged()
		a.screen.Sync()
		a.requestRedraw()
	case *tcell.EventKey:
		a.handleKey(ev)
	case *tcell.EventMouse:
		a.handleMouse(ev)
	}
}

func (a *App) paint() {
	mode := a.session.Mode()
	w, h := a.screen.Size()
	view := viewRows(h)
	if mode == termloom.ModeLive {
		a.session.RenderWindow(a.window)
		for row := 0; row < view; row++ {
			a.paintCells(row, w, a.window.Row(row))
		}
		pos, visible := a.window.Cursor()
		if visible && pos.Row < view {
			a.screen.ShowCursor(pos.Col, pos.Row)
		} else {
			a.screen.HideCursor()
		}
	} else {
		a.paintDocument(view, w)
		a.screen.HideCursor()
	}
	a.paintStatus(h-1, w, mode)
	a.screen.Show()
}

func (a *App) paintCells(row, width int, cells []termloom.ScreenCell) {
	col := 0
	for i := 0; i < len(cells) && col < width; i++ {
		cell := cells[i]
		style := a.cellStyle(cell.Attr)
		r := ' '
		var combining []rune
		if len(cell.Runes) > 0 {
			r = cell.Runes[0]
			combining = cell.Runes[1:]
		}
		a.screen.SetContent(col, row, r, combining, style)
		if cell.Width == 2 {
			col += 2
			// skip the filler cell
			if i+1 < len(cells) {
				i++
			}
			continue
		}
		col++
	}
	for ; col < width; col++ {
		a.screen.SetContent(col, row, ' ', nil, tcell.StyleDefault)
	}
}

// paintDocument shows the host document, used in frozen and finished
// modes. Captured styling is reapplied per line where the scrollback
// store still has it.
func (a *App) paintDocument(view, width int) {
	doc := a.session.Document()
	count := doc.LineCount()
	maxTop := count - view + 1
	if maxTop < 1 {
		maxTop = 1
	}
	top := a.top
	if a.follow {
		top = maxTop
	}
	if top < 1 {
		top = 1
	}
	if top > maxTop {
		top = maxTop
	}
	a.top = top
	for row := 0; row < view; row++ {
		lnum := top + row
		if lnum > count {
			a.paintCells(row, width, nil)
			continue
		}
		if cells := a.session.ScrollbackCells(lnum); cells != nil {
			a.paintCells(row, width, cells)
			continue
		}
		a.paintText(row, width, doc.Line(lnum))
	}
}

func (a *App) paintText(row, width int, text string) {
	col := 0
	for _, r := range text {
		if col >= width {
			break
		}
		a.screen.SetContent(col, row, r, nil, tcell.StyleDefault)
		col += runewidth.RuneWidth(r)
	}
	for ; col < width; col++ {
		a.screen.SetContent(col, row, ' ', nil, tcell.StyleDefault)
	}
}

func (a *App) paintStatus(row, width int, mode termloom.Mode) {
	var hint string
	switch mode {
	case termloom.ModeLive:
		hint = "Ctrl-] scrollback"
	case termloom.ModeFrozen:
		hint = "i resume  q quit"
	default:
		hint = "q quit"
	}
	left := " " + a.session.StatusText()
	style := tcell.StyleDefault.Reverse(true)
	col := 0
	for _, r := range left {
		if col >= width {
			break
		}
		a.screen.SetContent(col, row, r, nil, style)
		col += runewidth.RuneWidth(r)
	}
	gap := width - col - runewidth.StringWidth(hint) - 1
	for i := 0; i < gap; i++ {
		a.screen.SetContent(col, row, ' ', nil, style)
		col++
	}
	for _, r := range hint {
		if col >= width {
			break
		}
		a.screen.SetContent(col, row, r, nil, style)
		col += runewidth.RuneWidth(r)
	}
	for ; col < width; col++ {
		a.screen.SetContent(col, row, ' ', nil, style)
	}
}

func (a *App) cellStyle(attr int) tcell.Style {
	st, ok := a.host.StyleAt(attr)
	if !ok {
		return tcell.StyleDefault
	}
	return tcellStyle(st)
}

// appEvents reacts to manager lifecycle; calls arrive without session
// locks held.
type appEvents struct {
	a *App
}

func (e appEvents) OnSessionOpened(s *termloom.Session) {}

func (e appEvents) OnSessionFinished(s *termloom.Session) {
	e.a.requestRedraw()
}

func (e appEvents) OnSessionClosed(sessionID string) {
	e.a.quit()
}

func (e appEvents) OnSessionError(sessionID string, err error) {
	e.a.logger.Warn("session error", "sessionID", sessionID, "error", err)
}
