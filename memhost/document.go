package memhost

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Document is a line store with one-based indexing. A fresh document
// holds a single placeholder line, which the first appended line replaces;
// deleting the last remaining line restores the placeholder, a document
// never has zero lines.
type Document struct {
	id   string
	name string

	mu          sync.Mutex
	lines       []string
	placeholder bool
}

func newDocument(name string) *Document {
	return &Document{
		id:          uuid.NewString(),
		name:        name,
		lines:       []string{""},
		placeholder: true,
	}
}

func (d *Document) ID() string   { return d.id }
func (d *Document) Name() string { return d.name }

func (d *Document) LineCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.lines)
}

// Line returns the one-based line, empty when out of range.
func (d *Document) Line(index int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 1 || index > len(d.lines) {
		return ""
	}
	return d.lines[index-1]
}

// AppendLine inserts text after the given one-based line; zero inserts
// before the first line.
func (d *Document) AppendLine(after int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if after < 0 || after > len(d.lines) {
		return fmt.Errorf("append after line %d of %d", after, len(d.lines))
	}
	d.lines = append(d.lines, "")
	copy(d.lines[after+1:], d.lines[after:])
	d.lines[after] = text
	d.placeholder = false
	return nil
}

func (d *Document) DeleteLine(index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 1 || index > len(d.lines) {
		return fmt.Errorf("delete line %d of %d", index, len(d.lines))
	}
	d.lines = append(d.lines[:index-1], d.lines[index:]...)
	if len(d.lines) == 0 {
		d.lines = []string{""}
		d.placeholder = true
	}
	return nil
}

func (d *Document) Empty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.placeholder
}

// Lines returns a snapshot of all lines.
func (d *Document) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.lines...)
}
