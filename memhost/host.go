// Package memhost is an in-memory document and window model implementing
// the host side of a session manager. The serving and terminal UI layers
// build on it; tests use it directly.
package memhost

import (
	"sync"

	"github.com/termloom/termloom"
)

// Config tunes a Host. The On* hooks fire synchronously while the
// triggering session is locked; implementations must only hand the event
// off to their own loop.
type Config struct {
	Caps     termloom.ColorCaps
	OnDirty  func(docID string, startRow, endRow int)
	OnTitle  func(docID string, title string)
	OnStatus func(docID string)
}

// Host implements termloom.Host with documents as line slices and an
// interned attribute table. Windows attach explicitly per document.
type Host struct {
	cfg Config

	mu      sync.Mutex
	docs    map[string]*Document
	windows map[string][]termloom.Window

	attrMu    sync.Mutex
	attrs     []termloom.Style
	attrIndex map[termloom.Style]int
}

// New creates an empty host. A zero Caps defaults to a 256-color palette.
func New(cfg Config) *Host {
	if !cfg.Caps.TrueColor && cfg.Caps.Palette == 0 {
		cfg.Caps.Palette = 256
	}
	return &Host{
		cfg:       cfg,
		docs:      make(map[string]*Document),
		windows:   make(map[string][]termloom.Window),
		attrs:     []termloom.Style{{}},
		attrIndex: map[termloom.Style]int{{}: 0},
	}
}

func (h *Host) NewDocument(name string) (termloom.Document, error) {
	d := newDocument(name)
	h.mu.Lock()
	h.docs[d.id] = d
	h.mu.Unlock()
	return d, nil
}

func (h *Host) DiscardDocument(doc termloom.Document) {
	h.mu.Lock()
	delete(h.docs, doc.ID())
	delete(h.windows, doc.ID())
	h.mu.Unlock()
}

// Doc returns a document by ID.
func (h *Host) Doc(id string) (*Document, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.docs[id]
	return d, ok
}

// AttachWindow registers a window as showing doc. The caller renegotiates
// session geometry afterwards.
func (h *Host) AttachWindow(doc termloom.Document, w termloom.Window) {
	h.mu.Lock()
	h.windows[doc.ID()] = append(h.windows[doc.ID()], w)
	h.mu.Unlock()
}

// DetachWindow removes a window from doc.
func (h *Host) DetachWindow(doc termloom.Document, w termloom.Window) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ws := h.windows[doc.ID()]
	for i, cur := range ws {
		if cur == w {
			h.windows[doc.ID()] = append(ws[:i], ws[i+1:]...)
			return
		}
	}
}

func (h *Host) ForEachWindow(doc termloom.Document, fn func(termloom.Window)) {
	h.mu.Lock()
	ws := append([]termloom.Window(nil), h.windows[doc.ID()]...)
	h.mu.Unlock()
	for _, w := range ws {
		fn(w)
	}
}

func (h *Host) MarkDirty(doc termloom.Document, startRow, endRow int) {
	if h.cfg.OnDirty != nil {
		h.cfg.OnDirty(doc.ID(), startRow, endRow)
	}
}

// AttrIndex interns a style; the zero style is always index 0.
func (h *Host) AttrIndex(style termloom.Style) int {
	h.attrMu.Lock()
	defer h.attrMu.Unlock()
	if i, ok := h.attrIndex[style]; ok {
		return i
	}
	i := len(h.attrs)
	h.attrs = append(h.attrs, style)
	h.attrIndex[style] = i
	return i
}

// StyleAt resolves an interned attribute index back to its style.
func (h *Host) StyleAt(index int) (termloom.Style, bool) {
	h.attrMu.Lock()
	defer h.attrMu.Unlock()
	if index < 0 || index >= len(h.attrs) {
		return termloom.Style{}, false
	}
	return h.attrs[index], true
}

func (h *Host) ColorCaps() termloom.ColorCaps {
	return h.cfg.Caps
}

func (h *Host) TitleChanged(doc termloom.Document, title string) {
	if h.cfg.OnTitle != nil {
		h.cfg.OnTitle(doc.ID(), title)
	}
}

func (h *Host) StatusInvalidated(doc termloom.Document) {
	if h.cfg.OnStatus != nil {
		h.cfg.OnStatus(doc.ID())
	}
}
