// Package fonts provides metrics and encoding for the PDF standard Type 1
// fonts used to draw field values.
package fonts

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/georgepadayatti/pdfburn/pdf/generic"
)

// Common errors
var (
	ErrFontNotFound = errors.New("font not found")
	ErrUnencodable  = errors.New("character not in font encoding")
)

// StandardFont represents a PDF standard font name.
type StandardFont string

// Standard fonts with built-in metrics.
const (
	Helvetica            StandardFont = "Helvetica"
	HelveticaBold        StandardFont = "Helvetica-Bold"
	HelveticaOblique     StandardFont = "Helvetica-Oblique"
	HelveticaBoldOblique StandardFont = "Helvetica-BoldOblique"
	Times                StandardFont = "Times-Roman"
	TimesBold            StandardFont = "Times-Bold"
	Courier              StandardFont = "Courier"
	CourierBold          StandardFont = "Courier-Bold"
	CourierOblique       StandardFont = "Courier-Oblique"
	CourierBoldOblique   StandardFont = "Courier-BoldOblique"
)

// IsStandardFont checks if a font name has built-in metrics.
func IsStandardFont(name string) bool {
	_, ok := widthTables[StandardFont(name)]
	return ok
}

// FontMetrics holds font metrics for text layout. Widths are in 1/1000 em.
type FontMetrics struct {
	Ascender     float64
	Descender    float64
	UnitsPerEm   float64
	Widths       map[rune]float64
	DefaultWidth float64
}

// GetWidth returns the advance width of a character. Characters without an
// entry use the width of their base letter (so "é" measures as "e"), then
// DefaultWidth.
func (m *FontMetrics) GetWidth(r rune) float64 {
	if w, ok := m.Widths[r]; ok {
		return w
	}
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	if base, _ := utf8.DecodeRune(norm.NFD.Bytes(buf[:n])); base != r {
		if w, ok := m.Widths[base]; ok {
			return w
		}
	}
	return m.DefaultWidth
}

// GetStringWidth calculates the width of a string at a given font size.
func (m *FontMetrics) GetStringWidth(s string, fontSize float64) float64 {
	var width float64
	for _, r := range s {
		width += m.GetWidth(r)
	}
	return width * fontSize / m.UnitsPerEm
}

// Font is a font that can be used to show text in a content stream.
type Font interface {
	// Name returns the PostScript name.
	Name() string
	// Metrics returns the font metrics.
	Metrics() *FontMetrics
	// Encode encodes a string for use in a PDF content stream.
	Encode(s string) []byte
	// MeasureString returns the advance width of s at size, as drawn.
	MeasureString(s string, size float64) float64
}

// StandardType1Font is a non-embedded standard font drawn with
// WinAnsiEncoding.
type StandardType1Font struct {
	name    StandardFont
	metrics *FontMetrics
}

// NewStandardFont returns the standard font with the given name.
func NewStandardFont(name StandardFont) (*StandardType1Font, error) {
	table, ok := widthTables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFontNotFound, name)
	}
	m := &FontMetrics{
		Ascender:     718,
		Descender:    -207,
		UnitsPerEm:   1000,
		Widths:       make(map[rune]float64, len(table)+len(typographicWidths)),
		DefaultWidth: 556,
	}
	fixedPitch := false
	switch name {
	case Times, TimesBold:
		m.Ascender, m.Descender, m.DefaultWidth = 683, -217, 500
	case Courier, CourierBold, CourierOblique, CourierBoldOblique:
		m.Ascender, m.Descender, m.DefaultWidth = 629, -157, 600
		fixedPitch = true
	}
	for i, w := range table {
		m.Widths[rune(32+i)] = float64(w)
	}
	for r, w := range typographicWidths {
		if fixedPitch {
			w = 600
		}
		m.Widths[r] = w
	}
	return &StandardType1Font{name: name, metrics: m}, nil
}

// MustStandardFont is NewStandardFont for names known at compile time.
func MustStandardFont(name StandardFont) *StandardType1Font {
	f, err := NewStandardFont(name)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the font name.
func (f *StandardType1Font) Name() string {
	return string(f.name)
}

// Metrics returns the font metrics.
func (f *StandardType1Font) Metrics() *FontMetrics {
	return f.metrics
}

// CanEncode returns an error wrapping ErrUnencodable when s has a
// character outside WinAnsiEncoding.
func (f *StandardType1Font) CanEncode(s string) error {
	return CheckWinAnsi(s)
}

// Encode encodes a string for use in a PDF content stream.
func (f *StandardType1Font) Encode(s string) []byte {
	return EncodeWinAnsi(s)
}

// MeasureString measures s the way Encode will draw it: characters that
// cannot be encoded measure as '?'.
func (f *StandardType1Font) MeasureString(s string, size float64) float64 {
	var width float64
	for _, r := range prepare(s) {
		if _, ok := encodeRune(r); !ok {
			r = '?'
		}
		width += f.metrics.GetWidth(r)
	}
	return width * size / f.metrics.UnitsPerEm
}

// Dictionary returns the font resource dictionary.
func (f *StandardType1Font) Dictionary() *generic.DictionaryObject {
	d := generic.NewDictionary()
	d.Set("Type", generic.NameObject("Font"))
	d.Set("Subtype", generic.NameObject("Type1"))
	d.Set("BaseFont", generic.NameObject(f.name))
	d.Set("Encoding", generic.NameObject("WinAnsiEncoding"))
	return d
}

func prepare(s string) string {
	return strings.ReplaceAll(norm.NFC.String(s), "\t", " ")
}

func encodeRune(r rune) (byte, bool) {
	if r < 0x20 {
		return 0, false
	}
	return charmap.Windows1252.EncodeRune(r)
}

// CheckWinAnsi reports the first character of s that EncodeWinAnsi would
// replace with '?'.
func CheckWinAnsi(s string) error {
	for _, r := range prepare(s) {
		if _, ok := encodeRune(r); !ok {
			return fmt.Errorf("%w: %q (%U)", ErrUnencodable, r, r)
		}
	}
	return nil
}

// EncodeWinAnsi NFC-normalizes s and encodes it to Windows-1252. Characters
// outside the code page, and control characters, become '?'.
func EncodeWinAnsi(s string) []byte {
	s = prepare(s)
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := encodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

// TextLayout provides text layout utilities.
type TextLayout struct {
	Font     Font
	FontSize float64
}

// NewTextLayout creates a new text layout.
func NewTextLayout(font Font, fontSize float64) *TextLayout {
	return &TextLayout{Font: font, FontSize: fontSize}
}

// MeasureString measures the width of a string.
func (l *TextLayout) MeasureString(s string) float64 {
	return l.Font.MeasureString(s, l.FontSize)
}

// WrapText splits text at explicit line breaks, then packs words greedily
// into lines no wider than maxWidth. A word wider than maxWidth gets a line
// of its own. Blank input lines are kept.
func (l *TextLayout) WrapText(text string, maxWidth float64) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		currentLine := words[0]
		for _, word := range words[1:] {
			testLine := currentLine + " " + word
			if l.MeasureString(testLine) <= maxWidth {
				currentLine = testLine
			} else {
				lines = append(lines, currentLine)
				currentLine = word
			}
		}
		lines = append(lines, currentLine)
	}
	return lines
}
