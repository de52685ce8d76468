// Package layout provides page sizes, units and rectangle fitting.
package layout

import (
	"fmt"
	"math"
	"strings"
)

// Unit represents a measurement unit.
type Unit float64

const (
	// Points - the base PDF unit (1/72 inch)
	Pt Unit = 1
	// Inches
	In Unit = 72
	// Centimeters
	Cm Unit = 72 / 2.54
	// Millimeters
	Mm Unit = 72 / 25.4
)

// ToPoints converts a value in the given unit to points.
func ToPoints(value float64, unit Unit) float64 {
	return value * float64(unit)
}

// ParseUnit parses "pt", "in", "cm" or "mm".
func ParseUnit(name string) (Unit, error) {
	switch strings.ToLower(name) {
	case "", "pt":
		return Pt, nil
	case "in":
		return In, nil
	case "cm":
		return Cm, nil
	case "mm":
		return Mm, nil
	}
	return 0, fmt.Errorf("unknown unit %q", name)
}

// PageSize represents standard page dimensions.
type PageSize struct {
	Width  float64
	Height float64
}

// Standard page sizes in points
var (
	A3     = PageSize{842, 1191}
	A4     = PageSize{595, 842}
	A5     = PageSize{420, 595}
	Letter = PageSize{612, 792}
	Legal  = PageSize{612, 1008}
)

var namedSizes = map[string]PageSize{
	"a3":     A3,
	"a4":     A4,
	"a5":     A5,
	"letter": Letter,
	"legal":  Legal,
}

// LookupPageSize returns a named page size (case-insensitive).
func LookupPageSize(name string) (PageSize, bool) {
	size, ok := namedSizes[strings.ToLower(name)]
	return size, ok
}

// Landscape returns the page size in landscape orientation.
func (p PageSize) Landscape() PageSize {
	if p.Width < p.Height {
		return PageSize{Width: p.Height, Height: p.Width}
	}
	return p
}

// Rectangle represents a rectangle with origin at bottom-left (PDF coordinates).
type Rectangle struct {
	X, Y          float64 // Bottom-left corner
	Width, Height float64
}

// NewRectangle creates a new rectangle.
func NewRectangle(x, y, width, height float64) Rectangle {
	return Rectangle{X: x, Y: y, Width: width, Height: height}
}

// Top returns the top edge Y coordinate.
func (r Rectangle) Top() float64 {
	return r.Y + r.Height
}

// ScaleToFit scales the rectangle by min(maxWidth/Width, maxHeight/Height),
// keeping the bottom-left corner. Small rectangles are scaled up.
func (r Rectangle) ScaleToFit(maxWidth, maxHeight float64) Rectangle {
	if r.Width == 0 || r.Height == 0 {
		return r
	}

	scale := math.Min(maxWidth/r.Width, maxHeight/r.Height)
	return Rectangle{X: r.X, Y: r.Y, Width: r.Width * scale, Height: r.Height * scale}
}
