package layout

import (
	"math"
	"testing"
)

const tolerance = 0.0001

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestToPoints(t *testing.T) {
	tests := []struct {
		value    float64
		unit     Unit
		expected float64
	}{
		{1, Pt, 1},
		{1, In, 72},
		{2.54, Cm, 72},
		{25.4, Mm, 72},
	}

	for _, tt := range tests {
		result := ToPoints(tt.value, tt.unit)
		if !floatEqual(result, tt.expected) {
			t.Errorf("ToPoints(%v, %v) = %v, want %v", tt.value, tt.unit, result, tt.expected)
		}
	}
}

func TestParseUnit(t *testing.T) {
	for name, want := range map[string]Unit{"": Pt, "pt": Pt, "IN": In, "cm": Cm, "mm": Mm} {
		got, err := ParseUnit(name)
		if err != nil || got != want {
			t.Errorf("ParseUnit(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseUnit("furlong"); err == nil {
		t.Error("Expected error for unknown unit")
	}
}

func TestLookupPageSize(t *testing.T) {
	size, ok := LookupPageSize("Letter")
	if !ok || size != Letter {
		t.Errorf("Expected Letter, got %v %v", size, ok)
	}
	if _, ok := LookupPageSize("B7"); ok {
		t.Error("B7 should not be known")
	}
}

func TestPageSizeLandscape(t *testing.T) {
	if got := A4.Landscape(); got != (PageSize{842, 595}) {
		t.Errorf("Unexpected landscape size %v", got)
	}
	if got := A4.Landscape().Landscape(); got != (PageSize{842, 595}) {
		t.Errorf("Landscape should be idempotent, got %v", got)
	}
}

func TestRectangleScaleToFit(t *testing.T) {
	tests := []struct {
		name       string
		rect       Rectangle
		maxW, maxH float64
		expectW    float64
		expectH    float64
	}{
		{"width bound", NewRectangle(0, 0, 200, 100), 100, 100, 100, 50},
		{"height bound", NewRectangle(0, 0, 100, 200), 100, 100, 50, 100},
		{"upscale", NewRectangle(0, 0, 10, 5), 120, 40, 80, 40},
		{"exact", NewRectangle(0, 0, 30, 40), 30, 40, 30, 40},
		{"degenerate", NewRectangle(0, 0, 0, 10), 30, 40, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rect.ScaleToFit(tt.maxW, tt.maxH)
			if !floatEqual(got.Width, tt.expectW) || !floatEqual(got.Height, tt.expectH) {
				t.Errorf("ScaleToFit = %vx%v, want %vx%v", got.Width, got.Height, tt.expectW, tt.expectH)
			}
		})
	}
}

func TestRectangleScaleToFitKeepsOrigin(t *testing.T) {
	got := NewRectangle(15, 25, 4, 2).ScaleToFit(8, 8)
	if got.X != 15 || got.Y != 25 {
		t.Errorf("Expected origin (15,25), got (%v,%v)", got.X, got.Y)
	}
	if !floatEqual(got.Top(), 29) {
		t.Errorf("Expected top 29, got %v", got.Top())
	}
}
