package field

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/georgepadayatti/pdfburn/pdf/fonts"
	"github.com/georgepadayatti/pdfburn/pdf/layout"
	"github.com/georgepadayatti/pdfburn/stamp"
)

// ErrorKind classifies a field that could not be rendered.
type ErrorKind string

// Render error kinds.
const (
	InvalidImage     ErrorKind = "invalid_image"
	UnsupportedValue ErrorKind = "unsupported_value"
	DrawFailed       ErrorKind = "draw_failed"
)

// RenderError is returned when a field cannot be drawn.
type RenderError struct {
	Kind ErrorKind
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Canvas is the page a field is drawn on.
type Canvas interface {
	Width() float64
	Height() float64
	DrawText(run stamp.TextRun) error
	DrawImage(img *stamp.Image, rect layout.Rectangle) error
}

// ImageLoader decodes image data URLs for a document.
type ImageLoader interface {
	LoadImage(dataURL string) (*stamp.Image, error)
}

// Default rendering parameters.
const (
	DefaultLineHeight = 24
	MinFontSize       = 8

	textSizeRatio     = 0.6
	textBaselineRatio = 0.25
	markSizeRatio     = 0.8
	markWidthRatio    = 0.6
	markBaselineRatio = 0.15
)

// Renderer draws field content. The zero value is not usable; use
// NewRenderer.
type Renderer struct {
	Regular *fonts.StandardType1Font
	Bold    *fonts.StandardType1Font
	// LineHeight is the distance between wrapped lines of text.
	LineHeight float64
	// DateLayout, when set, reformats ISO dates before drawing.
	DateLayout string
}

// NewRenderer returns a renderer using Helvetica and Helvetica-Bold.
func NewRenderer() *Renderer {
	return &Renderer{
		Regular:    fonts.MustStandardFont(fonts.Helvetica),
		Bold:       fonts.MustStandardFont(fonts.HelveticaBold),
		LineHeight: DefaultLineHeight,
	}
}

// Render draws p on page. drawn is false when the field has nothing to
// draw (empty value, unchecked radio). Failures are *RenderError.
func (r *Renderer) Render(loader ImageLoader, page Canvas, p Placement) (drawn bool, err error) {
	g := p.Geometry(page.Width(), page.Height())

	switch c := p.Content.(type) {
	case Text:
		return r.drawText(page, g, c.Value)
	case Date:
		return r.drawText(page, g, r.formatDate(c.Value))
	case Image:
		return r.drawImage(loader, page, g, c.DataURL)
	case Signature:
		return r.drawImage(loader, page, g, c.DataURL)
	case Radio:
		if !c.Checked {
			return false, nil
		}
		return r.drawMark(page, g)
	case Unsupported:
		return false, &RenderError{Kind: UnsupportedValue, Err: errors.New(c.Reason)}
	case nil:
		return false, &RenderError{Kind: UnsupportedValue, Err: errors.New("field has no content")}
	default:
		return false, &RenderError{Kind: UnsupportedValue, Err: fmt.Errorf("unhandled content %T", c)}
	}
}

// TextSize returns the font size used for text in a box of height boxHeight.
func TextSize(boxHeight float64) float64 {
	return math.Max(MinFontSize, boxHeight*textSizeRatio)
}

func (r *Renderer) drawText(page Canvas, g Geometry, text string) (bool, error) {
	if text == "" {
		return false, nil
	}
	size := TextSize(g.BoxHeight)
	lines := fonts.NewTextLayout(r.Regular, size).WrapText(text, g.BoxWidth)
	for _, line := range lines {
		if err := r.Regular.CanEncode(line); err != nil {
			return false, &RenderError{Kind: UnsupportedValue, Err: err}
		}
	}

	err := page.DrawText(stamp.TextRun{
		Font:    r.Regular,
		Size:    size,
		Leading: r.LineHeight,
		X:       g.XPoints,
		Y:       g.Bottom() + g.BoxHeight*textBaselineRatio,
		Lines:   lines,
	})
	if err != nil {
		return false, &RenderError{Kind: DrawFailed, Err: err}
	}
	return true, nil
}

// formatDate reformats value with DateLayout when it is an ISO date.
func (r *Renderer) formatDate(value string) string {
	if r.DateLayout == "" {
		return value
	}
	for _, iso := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(iso, value); err == nil {
			return t.Format(r.DateLayout)
		}
	}
	return value
}

func (r *Renderer) drawImage(loader ImageLoader, page Canvas, g Geometry, dataURL string) (bool, error) {
	if dataURL == "" {
		return false, nil
	}
	img, err := loader.LoadImage(dataURL)
	if err != nil {
		return false, &RenderError{Kind: InvalidImage, Err: err}
	}

	w, h := img.Size()
	rect := layout.NewRectangle(g.XPoints, 0, float64(w), float64(h)).ScaleToFit(g.BoxWidth, g.BoxHeight)
	rect.Y = g.TopY - rect.Height

	if err := page.DrawImage(img, rect); err != nil {
		return false, &RenderError{Kind: DrawFailed, Err: err}
	}
	return true, nil
}

// drawMark draws the bold "X" of a checked radio field, centred
// horizontally in the box.
func (r *Renderer) drawMark(page Canvas, g Geometry) (bool, error) {
	size := g.BoxHeight * markSizeRatio
	xOffset := (g.BoxWidth - size*markWidthRatio) / 2

	err := page.DrawText(stamp.TextRun{
		Font:    r.Bold,
		Size:    size,
		Leading: r.LineHeight,
		X:       g.XPoints + xOffset,
		Y:       g.Bottom() + g.BoxHeight*markBaselineRatio,
		Lines:   []string{"X"},
	})
	if err != nil {
		return false, &RenderError{Kind: DrawFailed, Err: err}
	}
	return true, nil
}
