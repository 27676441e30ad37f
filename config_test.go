package termloom

import "testing"

func TestParseSizeSpec(t *testing.T) {
	cases := []struct {
		in      string
		want    SizeSpec
		wantErr bool
	}{
		{"", SizeSpec{}, false},
		{"24x80", SizeSpec{Rows: 24, Cols: 80}, false},
		{" 24 x 80 ", SizeSpec{Rows: 24, Cols: 80}, false},
		{"x80", SizeSpec{Cols: 80}, false},
		{"24x", SizeSpec{Rows: 24}, false},
		{"x", SizeSpec{}, false},
		{"0x0", SizeSpec{}, false},
		{"24", SizeSpec{}, true},
		{"ax80", SizeSpec{}, true},
		{"24x-1", SizeSpec{}, true},
	}
	for _, tc := range cases {
		got, err := ParseSizeSpec(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSizeSpec(%q) succeeded with %+v, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSizeSpec(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSizeSpec(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestClampSize(t *testing.T) {
	cases := []struct {
		rows, cols         int
		wantRows, wantCols int
	}{
		{0, 0, 1, 1},
		{-3, 5, 1, 5},
		{24, 80, 24, 80},
		{10000, 10000, maxRows, maxCols},
	}
	for _, tc := range cases {
		r, c := clampSize(tc.rows, tc.cols)
		if r != tc.wantRows || c != tc.wantCols {
			t.Errorf("clampSize(%d, %d) = (%d, %d), want (%d, %d)",
				tc.rows, tc.cols, r, c, tc.wantRows, tc.wantCols)
		}
	}
}

func TestManagerConfigDefaults(t *testing.T) {
	cfg := ManagerConfig{}.applyDefaults()
	if cfg.Logger == nil {
		t.Fatalf("default logger is nil")
	}
	if cfg.DefaultRows != 24 || cfg.DefaultCols != 80 {
		t.Fatalf("default size = %dx%d, want 24x80", cfg.DefaultRows, cfg.DefaultCols)
	}
}
