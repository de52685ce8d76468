// Package generic provides the PDF object model shared by the reader,
// the writer and the drawing layers.
package generic

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
)

// PdfObject is the base interface for all PDF objects.
type PdfObject interface {
	// Write serializes the object in PDF syntax.
	Write(w io.Writer) error
	// Clone creates a deep copy of the object.
	Clone() PdfObject
}

// Reference is an indirect reference ("n g R").
type Reference struct {
	ObjectNumber     int
	GenerationNumber int
}

// NewReference creates a new reference.
func NewReference(objNum, genNum int) Reference {
	return Reference{ObjectNumber: objNum, GenerationNumber: genNum}
}

// Write implements PdfObject.
func (r Reference) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d %d R", r.ObjectNumber, r.GenerationNumber)
	return err
}

// Clone implements PdfObject.
func (r Reference) Clone() PdfObject { return r }

func (r Reference) String() string {
	return fmt.Sprintf("%d %d R", r.ObjectNumber, r.GenerationNumber)
}

// IndirectObject pairs an object with its object and generation numbers.
type IndirectObject struct {
	ObjectNumber     int
	GenerationNumber int
	Object           PdfObject
}

// NewIndirectObject creates a new indirect object.
func NewIndirectObject(objNum, genNum int, obj PdfObject) *IndirectObject {
	return &IndirectObject{ObjectNumber: objNum, GenerationNumber: genNum, Object: obj}
}

// Write implements PdfObject.
func (i *IndirectObject) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%d %d obj\n", i.ObjectNumber, i.GenerationNumber); err != nil {
		return err
	}
	if i.Object != nil {
		if err := i.Object.Write(w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\nendobj\n")
	return err
}

// Clone implements PdfObject.
func (i *IndirectObject) Clone() PdfObject {
	c := &IndirectObject{ObjectNumber: i.ObjectNumber, GenerationNumber: i.GenerationNumber}
	if i.Object != nil {
		c.Object = i.Object.Clone()
	}
	return c
}

// Reference returns a reference to this object.
func (i *IndirectObject) Reference() Reference {
	return Reference{ObjectNumber: i.ObjectNumber, GenerationNumber: i.GenerationNumber}
}

// NullObject is the PDF null.
type NullObject struct{}

// Write implements PdfObject.
func (NullObject) Write(w io.Writer) error {
	_, err := io.WriteString(w, "null")
	return err
}

// Clone implements PdfObject.
func (n NullObject) Clone() PdfObject { return n }

// BooleanObject is a PDF boolean.
type BooleanObject bool

// Write implements PdfObject.
func (b BooleanObject) Write(w io.Writer) error {
	_, err := io.WriteString(w, strconv.FormatBool(bool(b)))
	return err
}

// Clone implements PdfObject.
func (b BooleanObject) Clone() PdfObject { return b }

// IntegerObject is a PDF integer.
type IntegerObject int64

// Write implements PdfObject.
func (i IntegerObject) Write(w io.Writer) error {
	_, err := io.WriteString(w, strconv.FormatInt(int64(i), 10))
	return err
}

// Clone implements PdfObject.
func (i IntegerObject) Clone() PdfObject { return i }

// RealObject is a PDF real number.
type RealObject float64

// Write implements PdfObject.
func (r RealObject) Write(w io.Writer) error {
	_, err := io.WriteString(w, FormatNumber(float64(r)))
	return err
}

// Clone implements PdfObject.
func (r RealObject) Clone() PdfObject { return r }

// FormatNumber renders a number the way every writer in this module emits
// reals: at most four decimals, no exponent, no trailing zeros.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	v = math.Round(v*1e4) / 1e4
	if v == 0 {
		// avoid "-0"
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NameObject is a PDF name, stored without the leading slash.
type NameObject string

// Write implements PdfObject.
func (n NameObject) Write(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteByte('/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c < '!' || c > '~' || bytes.IndexByte([]byte("#%/()<>[]{}"), c) >= 0 {
			fmt.Fprintf(&buf, "#%02X", c)
			continue
		}
		buf.WriteByte(c)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Clone implements PdfObject.
func (n NameObject) Clone() PdfObject { return n }

func (n NameObject) String() string { return string(n) }

// StringObject is a PDF string. The bytes are kept as-is; callers pick the
// encoding.
type StringObject struct {
	Value []byte
	IsHex bool
}

// NewLiteralString creates a literal string.
func NewLiteralString(s string) *StringObject {
	return &StringObject{Value: []byte(s)}
}

// NewHexString creates a hex string.
func NewHexString(data []byte) *StringObject {
	return &StringObject{Value: data, IsHex: true}
}

// Write implements PdfObject.
func (s *StringObject) Write(w io.Writer) error {
	var buf bytes.Buffer
	if s.IsHex {
		fmt.Fprintf(&buf, "<%X>", s.Value)
		_, err := w.Write(buf.Bytes())
		return err
	}
	buf.WriteByte('(')
	for _, b := range s.Value {
		switch b {
		case '\\', '(', ')':
			buf.WriteByte('\\')
			buf.WriteByte(b)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if b < 32 || b > 126 {
				fmt.Fprintf(&buf, "\\%03o", b)
			} else {
				buf.WriteByte(b)
			}
		}
	}
	buf.WriteByte(')')
	_, err := w.Write(buf.Bytes())
	return err
}

// Clone implements PdfObject.
func (s *StringObject) Clone() PdfObject {
	return &StringObject{Value: bytes.Clone(s.Value), IsHex: s.IsHex}
}

// Text decodes the string as UTF-16BE when it carries a BOM, otherwise
// returns the raw bytes.
func (s *StringObject) Text() string {
	if len(s.Value) >= 2 && s.Value[0] == 0xFE && s.Value[1] == 0xFF {
		runes := make([]rune, 0, len(s.Value)/2)
		for i := 2; i+1 < len(s.Value); i += 2 {
			runes = append(runes, rune(s.Value[i])<<8|rune(s.Value[i+1]))
		}
		return string(runes)
	}
	return string(s.Value)
}

// ArrayObject is a PDF array.
type ArrayObject []PdfObject

// NewArray creates a new array.
func NewArray(items ...PdfObject) ArrayObject {
	return ArrayObject(items)
}

// Write implements PdfObject.
func (a ArrayObject) Write(w io.Writer) error {
	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}
	for i, item := range a {
		if i > 0 {
			if _, err := io.WriteString(w, " "); err != nil {
				return err
			}
		}
		if err := item.Write(w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "]")
	return err
}

// Clone implements PdfObject.
func (a ArrayObject) Clone() PdfObject {
	out := make(ArrayObject, len(a))
	for i, item := range a {
		out[i] = item.Clone()
	}
	return out
}

// Get returns the item at index, or nil when out of range.
func (a ArrayObject) Get(index int) PdfObject {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// DictionaryObject is a PDF dictionary that preserves insertion order, so
// serialization is stable.
type DictionaryObject struct {
	entries map[string]PdfObject
	order   []string
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *DictionaryObject {
	return &DictionaryObject{entries: make(map[string]PdfObject)}
}

// Write implements PdfObject.
func (d *DictionaryObject) Write(w io.Writer) error {
	if _, err := io.WriteString(w, "<<"); err != nil {
		return err
	}
	for _, key := range d.order {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		if err := NameObject(key).Write(w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, " "); err != nil {
			return err
		}
		if err := d.entries[key].Write(w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n>>")
	return err
}

// Clone implements PdfObject.
func (d *DictionaryObject) Clone() PdfObject {
	out := NewDictionary()
	for _, key := range d.order {
		out.Set(key, d.entries[key].Clone())
	}
	return out
}

// Set stores a value. New keys are appended to the key order.
func (d *DictionaryObject) Set(key string, value PdfObject) {
	if _, exists := d.entries[key]; !exists {
		d.order = append(d.order, key)
	}
	d.entries[key] = value
}

// Get returns the value for key, or nil.
func (d *DictionaryObject) Get(key string) PdfObject {
	return d.entries[key]
}

// GetName returns a name value, or "".
func (d *DictionaryObject) GetName(key string) string {
	if name, ok := d.entries[key].(NameObject); ok {
		return string(name)
	}
	return ""
}

// GetInt returns a direct integer value.
func (d *DictionaryObject) GetInt(key string) (int64, bool) {
	if i, ok := d.entries[key].(IntegerObject); ok {
		return int64(i), true
	}
	return 0, false
}

// GetArray returns a direct array value.
func (d *DictionaryObject) GetArray(key string) ArrayObject {
	if arr, ok := d.entries[key].(ArrayObject); ok {
		return arr
	}
	return nil
}

// GetDict returns a direct dictionary value.
func (d *DictionaryObject) GetDict(key string) *DictionaryObject {
	if dict, ok := d.entries[key].(*DictionaryObject); ok {
		return dict
	}
	return nil
}

// Delete removes a key.
func (d *DictionaryObject) Delete(key string) {
	if _, exists := d.entries[key]; !exists {
		return
	}
	delete(d.entries, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Has reports whether key is present.
func (d *DictionaryObject) Has(key string) bool {
	_, exists := d.entries[key]
	return exists
}

// Keys returns the keys in insertion order.
func (d *DictionaryObject) Keys() []string {
	return d.order
}

// Len returns the number of entries.
func (d *DictionaryObject) Len() int {
	return len(d.entries)
}

// StreamObject is a PDF stream. Data holds the bytes exactly as they appear
// in the file (still filtered); Decoded is filled by the reader when the
// filters could be applied.
type StreamObject struct {
	Dictionary *DictionaryObject
	Data       []byte
	Decoded    []byte
}

// NewStream creates a stream whose raw bytes are data.
func NewStream(dict *DictionaryObject, data []byte) *StreamObject {
	if dict == nil {
		dict = NewDictionary()
	}
	return &StreamObject{Dictionary: dict, Data: data}
}

// Write implements PdfObject. Length is always rewritten from Data.
func (s *StreamObject) Write(w io.Writer) error {
	s.Dictionary.Set("Length", IntegerObject(len(s.Data)))
	if err := s.Dictionary.Write(w); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\nstream\n"); err != nil {
		return err
	}
	if _, err := w.Write(s.Data); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\nendstream")
	return err
}

// Clone implements PdfObject.
func (s *StreamObject) Clone() PdfObject {
	return &StreamObject{
		Dictionary: s.Dictionary.Clone().(*DictionaryObject),
		Data:       bytes.Clone(s.Data),
		Decoded:    bytes.Clone(s.Decoded),
	}
}

// DecodedData returns the unfiltered content when known, otherwise the raw
// bytes.
func (s *StreamObject) DecodedData() []byte {
	if s.Decoded != nil {
		return s.Decoded
	}
	return s.Data
}

// Rectangle is a PDF rectangle given by its lower-left and upper-right
// corners.
type Rectangle struct {
	LLX, LLY float64
	URX, URY float64
}

// NewRectangle builds a normalized rectangle from a four-number array.
func NewRectangle(arr ArrayObject) (*Rectangle, error) {
	if len(arr) != 4 {
		return nil, fmt.Errorf("%w: rectangle must have 4 elements, got %d", ErrInvalidObject, len(arr))
	}
	var v [4]float64
	for i, obj := range arr {
		n, ok := Number(obj)
		if !ok {
			return nil, fmt.Errorf("%w: rectangle element %d is not numeric", ErrInvalidObject, i)
		}
		v[i] = n
	}
	return &Rectangle{
		LLX: math.Min(v[0], v[2]),
		LLY: math.Min(v[1], v[3]),
		URX: math.Max(v[0], v[2]),
		URY: math.Max(v[1], v[3]),
	}, nil
}

// ToArray converts the rectangle to a PDF array.
func (r *Rectangle) ToArray() ArrayObject {
	return ArrayObject{RealObject(r.LLX), RealObject(r.LLY), RealObject(r.URX), RealObject(r.URY)}
}

// Width returns the rectangle width.
func (r *Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns the rectangle height.
func (r *Rectangle) Height() float64 { return r.URY - r.LLY }

// Number returns the numeric value of an integer or real object.
func Number(obj PdfObject) (float64, bool) {
	switch v := obj.(type) {
	case IntegerObject:
		return float64(v), true
	case RealObject:
		return float64(v), true
	}
	return 0, false
}

// TrailerDictionary is a file trailer (or the dictionary of an xref stream).
type TrailerDictionary struct {
	*DictionaryObject
}

// GetRoot returns the catalog reference.
func (t *TrailerDictionary) GetRoot() *Reference {
	if ref, ok := t.Get("Root").(Reference); ok {
		return &ref
	}
	return nil
}

// GetInfo returns the info dictionary reference.
func (t *TrailerDictionary) GetInfo() *Reference {
	if ref, ok := t.Get("Info").(Reference); ok {
		return &ref
	}
	return nil
}

// GetSize returns /Size.
func (t *TrailerDictionary) GetSize() int64 {
	size, _ := t.GetInt("Size")
	return size
}

// GetPrev returns the offset of the previous cross-reference section.
func (t *TrailerDictionary) GetPrev() (int64, bool) {
	return t.GetInt("Prev")
}
