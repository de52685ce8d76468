package field

// Geometry is a field box in page units: XPoints is the left edge, TopY the
// top edge measured from the bottom of the page.
type Geometry struct {
	XPoints   float64
	BoxWidth  float64
	BoxHeight float64
	TopY      float64
}

// Bottom returns the y coordinate of the lower edge.
func (g Geometry) Bottom() float64 {
	return g.TopY - g.BoxHeight
}

// Transform converts a box given in percent of the page, origin top-left,
// into page units with the origin bottom-left. Values outside 0..100 are
// not clamped.
func Transform(pageWidth, pageHeight, x, y, width, height float64) Geometry {
	return Geometry{
		XPoints:   x / 100 * pageWidth,
		BoxWidth:  width / 100 * pageWidth,
		BoxHeight: height / 100 * pageHeight,
		TopY:      pageHeight - y/100*pageHeight,
	}
}

// Geometry places p on a page of the given size.
func (p Placement) Geometry(pageWidth, pageHeight float64) Geometry {
	return Transform(pageWidth, pageHeight, p.X, p.Y, p.Width, p.Height)
}
