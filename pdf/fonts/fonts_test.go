package fonts

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIsStandardFont(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"Helvetica", true},
		{"Helvetica-Bold", true},
		{"Times-Roman", true},
		{"Courier", true},
		{"Courier-BoldOblique", true},
		{"Arial", false},
		{"CustomFont", false},
	}

	for _, tt := range tests {
		result := IsStandardFont(tt.name)
		if result != tt.expected {
			t.Errorf("IsStandardFont(%s) = %v, want %v", tt.name, result, tt.expected)
		}
	}
}

func TestNewStandardFontUnknown(t *testing.T) {
	if _, err := NewStandardFont("Arial"); !errors.Is(err, ErrFontNotFound) {
		t.Errorf("Expected ErrFontNotFound, got %v", err)
	}
}

func TestWidths(t *testing.T) {
	tests := []struct {
		font  StandardFont
		r     rune
		width float64
	}{
		{Helvetica, ' ', 278},
		{Helvetica, 'H', 722},
		{Helvetica, 'i', 222},
		{Helvetica, '@', 1015},
		{Helvetica, '~', 584},
		{HelveticaBold, 'X', 667},
		{HelveticaBold, 'i', 278},
		{Times, 'm', 778},
		{Courier, 'W', 600},
		{Courier, '—', 600},
		{Helvetica, '—', 1000},
		// accented letters measure as their base letter
		{Helvetica, 'é', 556},
		{HelveticaBold, 'Å', 722},
	}
	for _, tt := range tests {
		f := MustStandardFont(tt.font)
		if got := f.Metrics().GetWidth(tt.r); got != tt.width {
			t.Errorf("%s width of %q = %v, want %v", tt.font, tt.r, got, tt.width)
		}
	}
}

func TestMeasureString(t *testing.T) {
	f := MustStandardFont(Helvetica)

	// "Hi" = 722 + 222 units
	if got := f.MeasureString("Hi", 24); got != (722+222)*24.0/1000 {
		t.Errorf("MeasureString(Hi) = %v", got)
	}
	// unencodable characters measure as '?'
	if got, want := f.MeasureString("日", 10), f.MeasureString("?", 10); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestEncodeWinAnsi(t *testing.T) {
	tests := []struct {
		input    string
		expected []byte
	}{
		{"Hello", []byte("Hello")},
		{"café", []byte{'c', 'a', 'f', 0xE9}},
		// decomposed input is composed first
		{"cafe\u0301", []byte{'c', 'a', 'f', 0xE9}},
		{"€5", []byte{0x80, '5'}},
		{"a—b", []byte{'a', 0x97, 'b'}},
		{"日本", []byte("??")},
		{"a\tb", []byte("a b")},
		{"a\x01b", []byte("a?b")},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.expected, EncodeWinAnsi(tt.input)); diff != "" {
			t.Errorf("EncodeWinAnsi(%q) mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
}

func TestCheckWinAnsi(t *testing.T) {
	f := MustStandardFont(Helvetica)
	for _, s := range []string{"", "Hello", "café €5", "cafe\u0301", "a\tb"} {
		if err := f.CanEncode(s); err != nil {
			t.Errorf("CanEncode(%q) = %v", s, err)
		}
	}
	for _, s := range []string{"Name: 张伟", "ok ✓", "a\x01b", "Жж"} {
		if err := f.CanEncode(s); !errors.Is(err, ErrUnencodable) {
			t.Errorf("CanEncode(%q) = %v, want ErrUnencodable", s, err)
		}
	}
	if err := CheckWinAnsi("Name: 张伟"); err == nil || !strings.Contains(err.Error(), "U+5F20") {
		t.Errorf("Error should name the first unencodable character, got %v", err)
	}
}

func TestDictionary(t *testing.T) {
	d := MustStandardFont(HelveticaBold).Dictionary()
	if d.GetName("BaseFont") != "Helvetica-Bold" {
		t.Errorf("Unexpected BaseFont %q", d.GetName("BaseFont"))
	}
	if d.GetName("Subtype") != "Type1" || d.GetName("Encoding") != "WinAnsiEncoding" {
		t.Errorf("Unexpected font dictionary keys %v", d.Keys())
	}
}

func TestWrapText(t *testing.T) {
	// Courier makes widths easy: each character is 6pt at size 10.
	layout := NewTextLayout(MustStandardFont(Courier), 10)

	tests := []struct {
		name     string
		text     string
		width    float64
		expected []string
	}{
		{"fits", "Hi", 100, []string{"Hi"}},
		{"wraps at words", "aaa bbb ccc", 42, []string{"aaa bbb", "ccc"}},
		{"exact fit", "aaa bbb", 42, []string{"aaa bbb"}},
		{"long word alone", "a bbbbbbbbbbbb c", 30, []string{"a", "bbbbbbbbbbbb", "c"}},
		{"explicit newlines", "one\ntwo three", 1000, []string{"one", "two three"}},
		{"blank line kept", "one\n\ntwo", 1000, []string{"one", "", "two"}},
		{"crlf", "one\r\ntwo", 1000, []string{"one", "two"}},
		{"collapses spaces", "a    b", 1000, []string{"a b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.expected, layout.WrapText(tt.text, tt.width)); diff != "" {
				t.Errorf("WrapText mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
