// Package server exposes sessions over HTTP: a JSON API for lifecycle and
// queries, plus a websocket stream per session where every connected
// client is one observing window, participating in size negotiation like
// any other.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/termloom/termloom"
	"github.com/termloom/termloom/memhost"
)

// Config wires a Server.
type Config struct {
	Addr           string
	Logger         termloom.Logger
	AllowedOrigins []string
	Manager        termloom.ManagerConfig
}

// Server hosts a session manager over an in-memory document model and
// serves it to websocket and REST clients.
type Server struct {
	cfg     Config
	logger  termloom.Logger
	host    *memhost.Host
	manager *termloom.Manager
	httpSrv *http.Server

	mu      sync.RWMutex
	clients map[string]map[*client]struct{} // doc ID -> observing clients
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = termloom.NopLogger{}
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:7171"
	}
	s := &Server{
		cfg:     cfg,
		logger:  cfg.Logger,
		clients: make(map[string]map[*client]struct{}),
	}
	s.host = memhost.New(memhost.Config{
		Caps:     termloom.ColorCaps{TrueColor: true},
		OnDirty:  s.onDirty,
		OnTitle:  s.onTitle,
		OnStatus: s.onStatus,
	})
	mcfg := cfg.Manager
	if mcfg.Logger == nil {
		mcfg.Logger = cfg.Logger
	}
	s.manager = termloom.NewManager(s.host, mcfg)
	s.manager.SetEventHandler(sessionEvents{s})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("POST /api/sessions", s.handleOpenSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleCloseSession)
	mux.HandleFunc("POST /api/sessions/{id}/freeze", s.handleFreeze)
	mux.HandleFunc("POST /api/sessions/{id}/resume", s.handleResume)
	mux.HandleFunc("POST /api/sessions/{id}/size", s.handleSetSize)
	mux.HandleFunc("POST /api/sessions/{id}/input", s.handleInput)
	mux.HandleFunc("GET /api/sessions/{id}/lines", s.handleLines)
	mux.HandleFunc("GET /api/sessions/{id}/search", s.handleSearch)
	mux.HandleFunc("GET /api/sessions/{id}/ws", s.handleWS)
	s.httpSrv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Manager exposes the session manager for embedding callers.
func (s *Server) Manager() *termloom.Manager { return s.manager }

// ListenAndServe blocks serving until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server listening", "addr", s.cfg.Addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown disconnects all clients, closes every session and stops the
// HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	var all []*client
	for _, set := range s.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	s.clients = make(map[string]map[*client]struct{})
	s.mu.Unlock()
	for _, c := range all {
		c.close("server shutting down")
	}
	s.manager.Shutdown()
	return s.httpSrv.Shutdown(ctx)
}

// onDirty, onTitle and onStatus run while the triggering session is
// locked; they only flag pending work and wake the client flushers.
func (s *Server) onDirty(docID string, startRow, endRow int) {
	for _, c := range s.clientsFor(docID) {
		c.addDamage(startRow, endRow)
	}
}

func (s *Server) onTitle(docID, title string) {
	for _, c := range s.clientsFor(docID) {
		c.markTitle()
	}
}

func (s *Server) onStatus(docID string) {
	for _, c := range s.clientsFor(docID) {
		c.markStatus()
	}
}

func (s *Server) clientsFor(docID string) []*client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.clients[docID]
	out := make([]*client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (s *Server) addClient(docID string, c *client) {
	s.mu.Lock()
	set := s.clients[docID]
	if set == nil {
		set = make(map[*client]struct{})
		s.clients[docID] = set
	}
	set[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) removeClient(docID string, c *client) {
	s.mu.Lock()
	if set := s.clients[docID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(s.clients, docID)
		}
	}
	s.mu.Unlock()
}

// sessionEvents pushes manager lifecycle transitions to observing
// clients.
type sessionEvents struct {
	s *Server
}

func (e sessionEvents) OnSessionOpened(sess *termloom.Session) {}

func (e sessionEvents) OnSessionFinished(sess *termloom.Session) {
	for _, c := range e.s.clientsFor(sess.Document().ID()) {
		c.markStatus()
		c.markFinished()
	}
}

func (e sessionEvents) OnSessionClosed(sessionID string) {
	e.s.mu.RLock()
	var closing []*client
	for _, set := range e.s.clients {
		for c := range set {
			if c.session.ID == sessionID {
				closing = append(closing, c)
			}
		}
	}
	e.s.mu.RUnlock()
	for _, c := range closing {
		c.close("session closed")
	}
}

func (e sessionEvents) OnSessionError(sessionID string, err error) {
	e.s.logger.Warn("session error", "sessionID", sessionID, "error", err)
}
