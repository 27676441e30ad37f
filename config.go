package termloom

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultRows = 24
	defaultCols = 80

	// Hard bounds applied to any negotiated or requested size. The floor
	// is 1x1; the caps guard against absurd observer geometry.
	maxRows = 200
	maxCols = 500
)

// ManagerConfig configures a Manager and every session it opens.
type ManagerConfig struct {
	// NewEngine constructs the screen-emulation engine for a session.
	// Required.
	NewEngine EngineFactory

	// StartJob launches a session's child process. Required.
	StartJob JobStarter

	// Logger receives diagnostics. Nil logs nothing.
	Logger Logger

	// DefaultRows and DefaultCols size a session when neither the open
	// request nor any host window pins a dimension. Defaults 24x80.
	DefaultRows int
	DefaultCols int

	// LightBackground selects black-on-white engine default colors.
	LightBackground bool

	// Env is appended to each job's environment.
	Env []string

	// SearchIndexDir enables the scrollback search index when non-empty,
	// one database per session under this directory.
	SearchIndexDir string
}

func (c ManagerConfig) applyDefaults() ManagerConfig {
	if c.Logger == nil {
		c.Logger = NopLogger{}
	}
	if c.DefaultRows <= 0 {
		c.DefaultRows = defaultRows
	}
	if c.DefaultCols <= 0 {
		c.DefaultCols = defaultCols
	}
	return c
}

// SizeSpec is a requested session size. A zero dimension means "derive
// from host window geometry"; a nonzero dimension is pinned and excluded
// from resize negotiation.
type SizeSpec struct {
	Rows int
	Cols int
}

// ParseSizeSpec parses "rows x cols" requests such as "24x80". Either side
// may be empty or zero. The empty string is a valid all-derived spec.
func ParseSizeSpec(s string) (SizeSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SizeSpec{}, nil
	}
	rowsPart, colsPart, ok := strings.Cut(s, "x")
	if !ok {
		return SizeSpec{}, fmt.Errorf("invalid size %q: want rowsxcols", s)
	}
	spec := SizeSpec{}
	var err error
	if spec.Rows, err = parseDim(rowsPart); err != nil {
		return SizeSpec{}, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if spec.Cols, err = parseDim(colsPart); err != nil {
		return SizeSpec{}, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return spec, nil
}

func parseDim(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("bad dimension %q", s)
	}
	return n, nil
}

// clampSize bounds a size to the supported range.
func clampSize(rows, cols int) (int, int) {
	if rows < 1 {
		rows = 1
	}
	if rows > maxRows {
		rows = maxRows
	}
	if cols < 1 {
		cols = 1
	}
	if cols > maxCols {
		cols = maxCols
	}
	return rows, cols
}
