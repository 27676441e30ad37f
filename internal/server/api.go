package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/termloom/termloom"
)

type sessionInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Status   string `json:"status"`
	Mode     string `json:"mode"`
	Job      string `json:"job"`
	Rows     int    `json:"rows"`
	Cols     int    `json:"cols"`
	Scrolled int    `json:"scrolled"`
	Lines    int    `json:"lines"`
}

func infoFor(s *termloom.Session) sessionInfo {
	rows, cols := s.Size()
	return sessionInfo{
		ID:       s.ID,
		Name:     s.Name,
		Title:    s.Title(),
		Status:   s.StatusText(),
		Mode:     s.Mode().String(),
		Job:      s.JobStatus().String(),
		Rows:     rows,
		Cols:     cols,
		Scrolled: s.Scrolled(),
		Lines:    s.Document().LineCount(),
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.manager.Sessions()
	infos := make([]sessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, infoFor(sess))
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": infos})
}

type openSessionRequest struct {
	Command []string `json:"command"`
	Dir     string   `json:"dir"`
	Name    string   `json:"name"`
	Rows    int      `json:"rows"`
	Cols    int      `json:"cols"`
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := s.manager.OpenSession(termloom.OpenRequest{
		Command: req.Command,
		Dir:     req.Dir,
		Name:    req.Name,
		Size:    termloom.SizeSpec{Rows: req.Rows, Cols: req.Cols},
	})
	if err != nil {
		s.logger.Warn("open session failed", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, infoFor(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Get(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, infoFor(sess))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.CloseSession(r.PathValue("id")); err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFreeze(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Get(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err := sess.Freeze(); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Get(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err := sess.Resume(); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setSizeRequest struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

func (s *Server) handleSetSize(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Get(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	var req setSizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := sess.SetSize(req.Rows, req.Cols); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type inputRequest struct {
	Text string `json:"text"`
}

// handleInput pastes text into the session, for scripted drivers that do
// not hold a websocket.
func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Get(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := sess.SendText(req.Text); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLines(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Get(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	doc := sess.Document()
	count := doc.LineCount()
	first := intQuery(r, "start", 1)
	if first < 1 {
		first = 1
	}
	n := intQuery(r, "count", 100)
	if n > maxDocLines {
		n = maxDocLines
	}
	lines := make([]string, 0, n)
	for i := first; i <= count && len(lines) < n; i++ {
		lines = append(lines, doc.Line(i))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"first":      first,
		"line_count": count,
		"lines":      lines,
	})
}

type searchResult struct {
	Line int64  `json:"line"`
	At   string `json:"at"`
	Text string `json:"text"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Get(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	results, err := sess.SearchScrollback(query, intQuery(r, "limit", 50))
	if err != nil {
		if errors.Is(err, termloom.ErrNoSearchIndex) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]searchResult, 0, len(results))
	for _, res := range results {
		out = append(out, searchResult{
			Line: res.Line,
			At:   res.At.UTC().Format(time.RFC3339),
			Text: res.Text,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": out})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func intQuery(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
