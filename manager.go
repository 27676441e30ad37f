package termloom

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// OpenRequest describes one session to open. An empty Command falls back
// to the job starter's default shell. A nonzero Size axis pins the
// emulated grid on that axis; zero axes follow window geometry.
type OpenRequest struct {
	Command []string
	Dir     string
	Name    string
	Size    SizeSpec
}

// Manager owns every session attached to one host: it opens them, routes
// lookups, and tears them down. All methods are safe for concurrent use.
type Manager struct {
	cfg  ManagerConfig
	host Host

	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
	handler  EventHandler
}

// NewManager creates a manager bound to host. Zero config fields take
// defaults; NewEngine and StartJob must be set before OpenSession.
func NewManager(host Host, cfg ManagerConfig) *Manager {
	cfg = cfg.applyDefaults()
	return &Manager{
		cfg:      cfg,
		host:     host,
		sessions: make(map[string]*Session),
	}
}

// SetEventHandler registers the lifecycle observer. It applies to all
// sessions, including ones already open.
func (m *Manager) SetEventHandler(h EventHandler) {
	m.mu.Lock()
	m.handler = h
	m.mu.Unlock()
}

// OpenSession creates a host document, builds the engine and starts the
// child process, registering the session before the first byte of output
// can arrive.
func (m *Manager) OpenSession(req OpenRequest) (*Session, error) {
	if m.cfg.NewEngine == nil || m.cfg.StartJob == nil {
		return nil, fmt.Errorf("open session: manager not configured")
	}
	name := m.claimName(req)

	rows, cols := m.cfg.DefaultRows, m.cfg.DefaultCols
	rowsFixed := req.Size.Rows > 0
	colsFixed := req.Size.Cols > 0
	if rowsFixed {
		rows = req.Size.Rows
	}
	if colsFixed {
		cols = req.Size.Cols
	}
	rows, cols = clampSize(rows, cols)

	doc, err := m.host.NewDocument(name)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	s := &Session{
		ID:            uuid.NewString(),
		Name:          name,
		host:          m.host,
		doc:           doc,
		cfg:           m.cfg,
		logger:        m.cfg.Logger,
		handler:       managerEvents{m},
		rows:          rows,
		cols:          cols,
		rowsFixed:     rowsFixed,
		colsFixed:     colsFixed,
		dirtyStart:    maxDirtyRow,
		cursorVisible: true,
	}

	engine, err := m.cfg.NewEngine(rows, cols, &adapter{s: s})
	if err != nil {
		m.host.DiscardDocument(doc)
		return nil, fmt.Errorf("create engine: %w", err)
	}
	s.engine = engine
	if m.cfg.LightBackground {
		engine.SetDefaultColors(CellColor{}, CellColor{R: 255, G: 255, B: 255})
	}

	if m.cfg.SearchIndexDir != "" {
		idx, err := OpenSearchIndex(filepath.Join(m.cfg.SearchIndexDir, s.ID+".db"), m.cfg.Logger)
		if err != nil {
			m.cfg.Logger.Warn("search index unavailable", "sessionID", s.ID, "error", err)
		} else {
			s.index = idx
		}
	}

	// Register before starting the job so output and close events always
	// find the session.
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.order = append(m.order, s.ID)
	m.mu.Unlock()

	job, err := m.cfg.StartJob(JobSpec{
		Command: req.Command,
		Dir:     req.Dir,
		Env:     m.cfg.Env,
		Rows:    rows,
		Cols:    cols,
	}, jobEvents{s: s})
	if err != nil {
		m.detach(s.ID)
		s.destroy()
		m.host.DiscardDocument(doc)
		return nil, fmt.Errorf("start job: %w", err)
	}
	s.mu.Lock()
	s.job = job
	s.mu.Unlock()

	m.cfg.Logger.Info("session opened",
		"sessionID", s.ID, "name", name, "rows", rows, "cols", cols)
	if h := m.eventHandler(); h != nil {
		h.OnSessionOpened(s)
	}
	return s, nil
}

// claimName derives the session display name from the request and
// deduplicates it against open sessions, "!bash", "!bash (1)", ...
func (m *Manager) claimName(req OpenRequest) string {
	base := req.Name
	if base == "" {
		if len(req.Command) > 0 {
			base = "!" + filepath.Base(req.Command[0])
		} else {
			base = "!shell"
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.nameTakenLocked(base) {
		return base
	}
	for i := 1; ; i++ {
		cand := fmt.Sprintf("%s (%d)", base, i)
		if !m.nameTakenLocked(cand) {
			return cand
		}
	}
}

func (m *Manager) nameTakenLocked(name string) bool {
	for _, s := range m.sessions {
		if strings.EqualFold(s.Name, name) {
			return true
		}
	}
	return false
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Sessions returns all open sessions in opening order.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.order))
	for _, id := range m.order {
		if s, ok := m.sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// FindByDocument returns the session mirroring into doc, or nil.
func (m *Manager) FindByDocument(doc Document) *Session {
	if doc == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.doc.ID() == doc.ID() {
			return s
		}
	}
	return nil
}

// CloseSession destroys a session and discards its document. A running
// job gets a best-effort kill.
func (m *Manager) CloseSession(id string) error {
	s := m.detach(id)
	if s == nil {
		return ErrSessionNotFound
	}
	s.destroy()
	m.host.DiscardDocument(s.doc)
	m.cfg.Logger.Info("session closed", "sessionID", id)
	if h := m.eventHandler(); h != nil {
		h.OnSessionClosed(id)
	}
	return nil
}

// DocumentDiscarded tells the manager the host already dropped a
// session's document, for example when the user closed it; the session is
// destroyed without discarding the document again.
func (m *Manager) DocumentDiscarded(doc Document) {
	s := m.FindByDocument(doc)
	if s == nil {
		return
	}
	m.detach(s.ID)
	s.destroy()
	m.cfg.Logger.Info("session closed", "sessionID", s.ID, "reason", "document discarded")
	if h := m.eventHandler(); h != nil {
		h.OnSessionClosed(s.ID)
	}
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	for _, s := range m.Sessions() {
		if err := m.CloseSession(s.ID); err != nil {
			m.cfg.Logger.Warn("close failed", "sessionID", s.ID, "error", err)
		}
	}
}

func (m *Manager) detach(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	delete(m.sessions, id)
	for i, sid := range m.order {
		if sid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return s
}

func (m *Manager) eventHandler() EventHandler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handler
}

// managerEvents forwards session-level events to the manager's current
// handler, so handlers registered after a session opened still see it.
type managerEvents struct {
	m *Manager
}

func (e managerEvents) OnSessionOpened(s *Session) {
	if h := e.m.eventHandler(); h != nil {
		h.OnSessionOpened(s)
	}
}

func (e managerEvents) OnSessionFinished(s *Session) {
	if h := e.m.eventHandler(); h != nil {
		h.OnSessionFinished(s)
	}
}

func (e managerEvents) OnSessionClosed(id string) {
	if h := e.m.eventHandler(); h != nil {
		h.OnSessionClosed(id)
	}
}

func (e managerEvents) OnSessionError(id string, err error) {
	if h := e.m.eventHandler(); h != nil {
		h.OnSessionError(id, err)
	}
}
