package generic

import (
	"errors"
	"testing"
)

func TestParseScalars(t *testing.T) {
	tests := []struct {
		input    string
		expected PdfObject
	}{
		{"null", NullObject{}},
		{"true", BooleanObject(true)},
		{"false", BooleanObject(false)},
		{"42", IntegerObject(42)},
		{"-17", IntegerObject(-17)},
		{"3.25", RealObject(3.25)},
		{".5", RealObject(0.5)},
		{"/Name#20X", NameObject("Name X")},
	}

	for _, tt := range tests {
		obj, err := NewParserFromBytes([]byte(tt.input)).ParseObject()
		if err != nil {
			t.Fatalf("ParseObject(%q) failed: %v", tt.input, err)
		}
		if obj != tt.expected {
			t.Errorf("ParseObject(%q) = %#v, want %#v", tt.input, obj, tt.expected)
		}
	}
}

func TestParseStrings(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`(Hello)`, "Hello"},
		{`(a (nested) b)`, "a (nested) b"},
		{`(line\nbreak)`, "line\nbreak"},
		{`(\101\102)`, "AB"},
		{"(cont\\\ninued)", "continued"},
		{`<48 65 6C6C6F>`, "Hello"},
		{`<414>`, "A@"},
	}

	for _, tt := range tests {
		obj, err := NewParserFromBytes([]byte(tt.input)).ParseObject()
		if err != nil {
			t.Fatalf("ParseObject(%q) failed: %v", tt.input, err)
		}
		s, ok := obj.(*StringObject)
		if !ok {
			t.Fatalf("Expected StringObject for %q", tt.input)
		}
		if string(s.Value) != tt.expected {
			t.Errorf("Parse(%q) = %q, want %q", tt.input, s.Value, tt.expected)
		}
	}
}

func TestParseDictionaryWithReferences(t *testing.T) {
	p := NewParserFromBytes([]byte("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Rotate 90 >>"))
	obj, err := p.ParseObject()
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}
	dict, ok := obj.(*DictionaryObject)
	if !ok {
		t.Fatal("Expected dictionary")
	}

	if dict.GetName("Type") != "Page" {
		t.Errorf("Unexpected Type: %s", dict.GetName("Type"))
	}
	if ref, ok := dict.Get("Parent").(Reference); !ok || ref.ObjectNumber != 2 {
		t.Errorf("Expected Parent reference, got %#v", dict.Get("Parent"))
	}
	if box := dict.GetArray("MediaBox"); len(box) != 4 || box[2] != IntegerObject(612) {
		t.Errorf("Unexpected MediaBox: %#v", box)
	}
	if rot, ok := dict.GetInt("Rotate"); !ok || rot != 90 {
		t.Errorf("Unexpected Rotate: %d", rot)
	}
}

func TestParseArrayOfPlainNumbers(t *testing.T) {
	obj, err := NewParserFromBytes([]byte("[1 2 3 0 R 4]")).ParseObject()
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}
	arr := obj.(ArrayObject)
	if len(arr) != 4 {
		t.Fatalf("Expected 4 elements, got %d: %#v", len(arr), arr)
	}
	if arr[0] != IntegerObject(1) || arr[3] != IntegerObject(4) {
		t.Errorf("Unexpected plain numbers: %#v", arr)
	}
	if ref, ok := arr[2].(Reference); !ok || ref.ObjectNumber != 3 {
		t.Errorf("Expected 3 0 R at index 2, got %#v", arr[2])
	}
}

func TestParseIndirectStream(t *testing.T) {
	input := "7 0 obj\n<< /Length 5 >>\nstream\nhello\nendstream\nendobj\n"
	obj, err := NewParserFromBytes([]byte(input)).ParseIndirectObject()
	if err != nil {
		t.Fatalf("ParseIndirectObject failed: %v", err)
	}
	if obj.ObjectNumber != 7 {
		t.Errorf("Expected object 7, got %d", obj.ObjectNumber)
	}
	stream, ok := obj.Object.(*StreamObject)
	if !ok {
		t.Fatal("Expected stream")
	}
	if string(stream.Data) != "hello" {
		t.Errorf("Unexpected stream data %q", stream.Data)
	}
}

func TestParseStreamWithIndirectLength(t *testing.T) {
	input := "3 0 obj\n<< /Length 9 0 R >>\nstream\r\nabc def\r\nendstream\nendobj"

	// Without a resolver the parser scans for endstream.
	obj, err := NewParserFromBytes([]byte(input)).ParseIndirectObject()
	if err != nil {
		t.Fatalf("ParseIndirectObject failed: %v", err)
	}
	if got := string(obj.Object.(*StreamObject).Data); got != "abc def" {
		t.Errorf("Unexpected scanned data %q", got)
	}

	p := NewParserFromBytes([]byte(input))
	p.ResolveLength = func(ref Reference) (int64, bool) {
		if ref.ObjectNumber == 9 {
			return 3, false
		}
		return 0, false
	}
	obj, err = p.ParseIndirectObject()
	if err != nil {
		t.Fatalf("ParseIndirectObject failed: %v", err)
	}
	if got := string(obj.Object.(*StreamObject).Data); got != "abc def" {
		t.Errorf("Failed resolver should fall back to scanning, got %q", got)
	}
}

func TestParseStreamWithWrongLength(t *testing.T) {
	input := "1 0 obj\n<< /Length 999 >>\nstream\nshort\nendstream\nendobj"
	obj, err := NewParserFromBytes([]byte(input)).ParseIndirectObject()
	if err != nil {
		t.Fatalf("ParseIndirectObject failed: %v", err)
	}
	if got := string(obj.Object.(*StreamObject).Data); got != "short" {
		t.Errorf("Expected fallback to endstream, got %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		err   error
	}{
		{"(unterminated", ErrInvalidString},
		{"<< /A 1", ErrInvalidDictionary},
		{"[1 2", ErrInvalidArray},
		{"bogus", ErrInvalidObject},
		{"-", ErrInvalidNumber},
	}

	for _, tt := range tests {
		_, err := NewParserFromBytes([]byte(tt.input)).ParseObject()
		if !errors.Is(err, tt.err) {
			t.Errorf("ParseObject(%q) error = %v, want %v", tt.input, err, tt.err)
		}
	}

	if _, err := NewParserFromBytes([]byte("1 0 obj\n<< >>\nstream\nno end")).ParseIndirectObject(); !errors.Is(err, ErrInvalidStream) {
		t.Errorf("Expected ErrInvalidStream, got %v", err)
	}
}
