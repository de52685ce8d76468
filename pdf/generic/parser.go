package generic

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Common errors
var (
	ErrInvalidObject     = errors.New("invalid PDF object")
	ErrInvalidStream     = errors.New("invalid PDF stream")
	ErrInvalidDictionary = errors.New("invalid PDF dictionary")
	ErrInvalidArray      = errors.New("invalid PDF array")
	ErrInvalidString     = errors.New("invalid PDF string")
	ErrInvalidName       = errors.New("invalid PDF name")
	ErrInvalidNumber     = errors.New("invalid PDF number")
)

// LengthResolver resolves an indirect /Length of a stream.
type LengthResolver func(ref Reference) (int64, bool)

// Parser parses PDF objects from an in-memory buffer.
type Parser struct {
	data []byte
	pos  int

	// ResolveLength is consulted when a stream's /Length is an indirect
	// reference. When nil, or when it fails, the parser scans for
	// "endstream".
	ResolveLength LengthResolver
}

// NewParserFromBytes creates a parser over data.
func NewParserFromBytes(data []byte) *Parser {
	return &Parser{data: data}
}

// Pos returns the current read offset.
func (p *Parser) Pos() int { return p.pos }

// Peek returns the next byte without consuming it.
func (p *Parser) Peek() (byte, bool) {
	if p.pos >= len(p.data) {
		return 0, false
	}
	return p.data[p.pos], true
}

// Skip advances n bytes, stopping at the end of data.
func (p *Parser) Skip(n int) {
	p.pos = min(p.pos+n, len(p.data))
}

// Remaining returns the unread data.
func (p *Parser) Remaining() []byte { return p.data[p.pos:] }

func (p *Parser) readByte() (byte, error) {
	if p.pos >= len(p.data) {
		return 0, io.EOF
	}
	b := p.data[p.pos]
	p.pos++
	return b, nil
}

func (p *Parser) peekByte() (byte, error) {
	if p.pos >= len(p.data) {
		return 0, io.EOF
	}
	return p.data[p.pos], nil
}

// SkipWhitespace skips whitespace and comments.
func (p *Parser) SkipWhitespace() {
	for p.pos < len(p.data) {
		b := p.data[p.pos]
		switch {
		case IsWhitespace(b):
			p.pos++
		case b == '%':
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
		default:
			return
		}
	}
}

// IsWhitespace reports whether b is PDF whitespace.
func IsWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == 0 || b == '\f'
}

// IsDelimiter reports whether b is a PDF delimiter.
func IsDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// ReadToken reads a run of regular characters.
func (p *Parser) ReadToken() string {
	p.SkipWhitespace()
	start := p.pos
	for p.pos < len(p.data) && !IsWhitespace(p.data[p.pos]) && !IsDelimiter(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

// ParseObject parses a direct object. Bare integers are returned as
// integers; use ParseObjectOrReference where "n g R" may appear.
func (p *Parser) ParseObject() (PdfObject, error) {
	p.SkipWhitespace()
	b, err := p.peekByte()
	if err != nil {
		return nil, fmt.Errorf("%w: unexpected end of data", ErrInvalidObject)
	}

	switch {
	case b == '(':
		return p.parseLiteralString()
	case b == '<':
		if p.pos+1 < len(p.data) && p.data[p.pos+1] == '<' {
			p.pos += 2
			return p.parseDictionary()
		}
		return p.parseHexString()
	case b == '[':
		return p.parseArray()
	case b == '/':
		return p.parseName()
	case b == '-' || b == '+' || b == '.' || (b >= '0' && b <= '9'):
		return p.parseNumber()
	}

	switch tok := p.ReadToken(); tok {
	case "true":
		return BooleanObject(true), nil
	case "false":
		return BooleanObject(false), nil
	case "null":
		return NullObject{}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected token %q", ErrInvalidObject, tok)
	}
}

// ParseObjectOrReference parses an object, recognising "n g R".
func (p *Parser) ParseObjectOrReference() (PdfObject, error) {
	p.SkipWhitespace()
	start := p.pos
	obj, err := p.ParseObject()
	if err != nil {
		return nil, err
	}
	num, ok := obj.(IntegerObject)
	if !ok || num < 0 {
		return obj, nil
	}

	afterNum := p.pos
	p.SkipWhitespace()
	if b, err := p.peekByte(); err != nil || b < '0' || b > '9' {
		p.pos = afterNum
		return obj, nil
	}
	gen, err := p.parseNumber()
	genInt, isInt := gen.(IntegerObject)
	if err != nil || !isInt {
		p.pos = afterNum
		return obj, nil
	}
	p.SkipWhitespace()
	if b, err := p.peekByte(); err == nil && b == 'R' {
		p.pos++
		return Reference{ObjectNumber: int(num), GenerationNumber: int(genInt)}, nil
	}

	// two plain numbers in a row
	p.pos = start
	return p.parseNumber()
}

func (p *Parser) parseLiteralString() (*StringObject, error) {
	p.pos++ // (
	var buf bytes.Buffer
	depth := 1
	for {
		b, err := p.readByte()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated string", ErrInvalidString)
		}
		switch b {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return &StringObject{Value: buf.Bytes()}, nil
			}
		case '\\':
			e, err := p.readByte()
			if err != nil {
				return nil, fmt.Errorf("%w: unterminated escape", ErrInvalidString)
			}
			switch e {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '\r':
				if nb, err := p.peekByte(); err == nil && nb == '\n' {
					p.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for i := 0; i < 2; i++ {
						nb, err := p.peekByte()
						if err != nil || nb < '0' || nb > '7' {
							break
						}
						p.pos++
						val = val*8 + int(nb-'0')
					}
					buf.WriteByte(byte(val))
				} else {
					buf.WriteByte(e)
				}
			}
			continue
		}
		buf.WriteByte(b)
	}
}

func (p *Parser) parseHexString() (*StringObject, error) {
	p.pos++ // <
	end := bytes.IndexByte(p.data[p.pos:], '>')
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated hex string", ErrInvalidString)
	}
	digits := make([]byte, 0, end)
	for _, c := range p.data[p.pos : p.pos+end] {
		if !IsWhitespace(c) {
			digits = append(digits, c)
		}
	}
	p.pos += end + 1
	if len(digits)%2 != 0 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidString, err)
	}
	return &StringObject{Value: out, IsHex: true}, nil
}

func (p *Parser) parseDictionary() (*DictionaryObject, error) {
	dict := NewDictionary()
	for {
		p.SkipWhitespace()
		b, err := p.peekByte()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated dictionary", ErrInvalidDictionary)
		}
		if b == '>' {
			if p.pos+1 >= len(p.data) || p.data[p.pos+1] != '>' {
				return nil, fmt.Errorf("%w: expected '>>'", ErrInvalidDictionary)
			}
			p.pos += 2
			return dict, nil
		}
		if b != '/' {
			return nil, fmt.Errorf("%w: key must be a name", ErrInvalidDictionary)
		}
		key, err := p.parseName()
		if err != nil {
			return nil, err
		}
		value, err := p.ParseObjectOrReference()
		if err != nil {
			return nil, fmt.Errorf("%w: value for /%s: %v", ErrInvalidDictionary, key, err)
		}
		dict.Set(string(key), value)
	}
}

func (p *Parser) parseArray() (ArrayObject, error) {
	p.pos++ // [
	arr := ArrayObject{}
	for {
		p.SkipWhitespace()
		b, err := p.peekByte()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated array", ErrInvalidArray)
		}
		if b == ']' {
			p.pos++
			return arr, nil
		}
		obj, err := p.ParseObjectOrReference()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArray, err)
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseName() (NameObject, error) {
	if b, err := p.readByte(); err != nil || b != '/' {
		return "", ErrInvalidName
	}
	var buf bytes.Buffer
	for p.pos < len(p.data) {
		b := p.data[p.pos]
		if IsWhitespace(b) || IsDelimiter(b) {
			break
		}
		p.pos++
		if b == '#' && p.pos+1 < len(p.data) {
			v, err := strconv.ParseUint(string(p.data[p.pos:p.pos+2]), 16, 8)
			if err == nil {
				buf.WriteByte(byte(v))
				p.pos += 2
				continue
			}
		}
		buf.WriteByte(b)
	}
	return NameObject(buf.String()), nil
}

func (p *Parser) parseNumber() (PdfObject, error) {
	start := p.pos
	isReal := false
	for p.pos < len(p.data) {
		b := p.data[p.pos]
		if b == '.' {
			if isReal {
				break
			}
			isReal = true
		} else if b == '-' || b == '+' {
			if p.pos != start {
				break
			}
		} else if b < '0' || b > '9' {
			break
		}
		p.pos++
	}
	str := string(p.data[start:p.pos])
	switch str {
	case "", "-", "+", ".", "-.", "+.":
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, str)
	}
	if isReal {
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidNumber, err)
		}
		return RealObject(v), nil
	}
	v, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNumber, err)
	}
	return IntegerObject(v), nil
}

// ParseIndirectObject parses "n g obj ... endobj", including stream bodies.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	p.SkipWhitespace()
	numObj, err := p.parseNumber()
	if err != nil {
		return nil, fmt.Errorf("%w: object number: %v", ErrInvalidObject, err)
	}
	p.SkipWhitespace()
	genObj, err := p.parseNumber()
	if err != nil {
		return nil, fmt.Errorf("%w: generation number: %v", ErrInvalidObject, err)
	}
	num, ok1 := numObj.(IntegerObject)
	gen, ok2 := genObj.(IntegerObject)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%w: object header must be integers", ErrInvalidObject)
	}
	if tok := p.ReadToken(); tok != "obj" {
		return nil, fmt.Errorf("%w: expected 'obj', got %q", ErrInvalidObject, tok)
	}

	obj, err := p.ParseObjectOrReference()
	if err != nil {
		return nil, err
	}

	if dict, ok := obj.(*DictionaryObject); ok {
		p.SkipWhitespace()
		if bytes.HasPrefix(p.data[p.pos:], []byte("stream")) {
			p.pos += len("stream")
			data, err := p.readStreamData(dict)
			if err != nil {
				return nil, err
			}
			obj = NewStream(dict, data)
		}
	}

	// endobj is optional in damaged files
	save := p.pos
	if p.ReadToken() != "endobj" {
		p.pos = save
	}
	return NewIndirectObject(int(num), int(gen), obj), nil
}

// readStreamData reads the stream body that starts after the "stream"
// keyword.
func (p *Parser) readStreamData(dict *DictionaryObject) ([]byte, error) {
	if p.pos < len(p.data) && p.data[p.pos] == '\r' {
		p.pos++
	}
	if p.pos < len(p.data) && p.data[p.pos] == '\n' {
		p.pos++
	}
	start := p.pos

	length := int64(-1)
	switch l := dict.Get("Length").(type) {
	case IntegerObject:
		length = int64(l)
	case Reference:
		if p.ResolveLength != nil {
			if v, ok := p.ResolveLength(l); ok {
				length = v
			}
		}
	}

	if length >= 0 && start+int(length) <= len(p.data) {
		rest := p.data[start+int(length):]
		trimmed := bytes.TrimLeft(rest, " \t\r\n\f\x00")
		if bytes.HasPrefix(trimmed, []byte("endstream")) {
			p.pos = start + int(length) + (len(rest) - len(trimmed)) + len("endstream")
			return p.data[start : start+int(length)], nil
		}
	}

	// Length missing or wrong: fall back to the endstream keyword.
	end := bytes.Index(p.data[start:], []byte("endstream"))
	if end < 0 {
		return nil, fmt.Errorf("%w: missing endstream", ErrInvalidStream)
	}
	body := p.data[start : start+end]
	if bytes.HasSuffix(body, []byte("\r\n")) {
		body = body[:len(body)-2]
	} else if bytes.HasSuffix(body, []byte("\n")) || bytes.HasSuffix(body, []byte("\r")) {
		body = body[:len(body)-1]
	}
	p.pos = start + end + len("endstream")
	return body, nil
}
