// Package content provides PDF content stream handling.
package content

import (
	"bytes"
	"fmt"

	"github.com/georgepadayatti/pdfburn/pdf/generic"
)

// Operator represents a PDF content stream operator.
type Operator string

// Common PDF operators
const (
	// Graphics state operators
	OpSaveState    Operator = "q"
	OpRestoreState Operator = "Q"
	OpSetCTM       Operator = "cm"

	// Text object operators
	OpBeginText Operator = "BT"
	OpEndText   Operator = "ET"

	// Text state operators
	OpSetLeading Operator = "TL"
	OpSetFont    Operator = "Tf"

	// Text positioning operators
	OpTextMove      Operator = "Td"
	OpSetTextMatrix Operator = "Tm"
	OpTextNextLine  Operator = "T*"

	// Text showing operators
	OpShowText      Operator = "Tj"
	OpShowTextArray Operator = "TJ"

	// Color operators
	OpSetFillGray Operator = "g"
	OpSetFillRGB  Operator = "rg"

	// XObject operators
	OpPaintXObject Operator = "Do"

	// Inline image operators
	OpBeginInlineImage Operator = "BI"
	OpBeginImageData   Operator = "ID"
	OpEndInlineImage   Operator = "EI"
)

// ContentStream represents a parsed PDF content stream.
type ContentStream struct {
	Operations []Operation
}

// Operation represents a single operation in a content stream.
type Operation struct {
	Operator Operator
	Operands []generic.PdfObject
}

// NewContentStream creates a new empty content stream.
func NewContentStream() *ContentStream {
	return &ContentStream{
		Operations: make([]Operation, 0),
	}
}

// AddOperation adds an operation to the content stream.
func (cs *ContentStream) AddOperation(op Operator, operands ...generic.PdfObject) {
	cs.Operations = append(cs.Operations, Operation{
		Operator: op,
		Operands: operands,
	})
}

// Operators lists the operators in order.
func (cs *ContentStream) Operators() []Operator {
	ops := make([]Operator, len(cs.Operations))
	for i, op := range cs.Operations {
		ops[i] = op.Operator
	}
	return ops
}

// Find returns the operations using op, in order.
func (cs *ContentStream) Find(op Operator) []Operation {
	var found []Operation
	for _, o := range cs.Operations {
		if o.Operator == op {
			found = append(found, o)
		}
	}
	return found
}

// Render renders the content stream to bytes, one operation per line.
func (cs *ContentStream) Render() []byte {
	var buf bytes.Buffer

	for _, op := range cs.Operations {
		for _, operand := range op.Operands {
			operand.Write(&buf)
			buf.WriteByte(' ')
		}
		buf.WriteString(string(op.Operator))
		buf.WriteByte('\n')
	}

	return buf.Bytes()
}

// Number returns operand i of op as a number.
func (op Operation) Number(i int) (float64, bool) {
	if i < 0 || i >= len(op.Operands) {
		return 0, false
	}
	return generic.Number(op.Operands[i])
}

// Parser parses PDF content streams.
type Parser struct {
	p *generic.Parser
}

// NewParser creates a new content stream parser.
func NewParser(data []byte) *Parser {
	return &Parser{p: generic.NewParserFromBytes(data)}
}

// Parse parses the content stream. Inline image data is skipped.
func (p *Parser) Parse() (*ContentStream, error) {
	cs := NewContentStream()
	var operands []generic.PdfObject

	for {
		p.p.SkipWhitespace()
		b, ok := p.p.Peek()
		if !ok {
			break
		}

		if startsOperand(b) {
			obj, err := p.p.ParseObject()
			if err != nil {
				return nil, fmt.Errorf("content operand at %d: %w", p.p.Pos(), err)
			}
			operands = append(operands, obj)
			continue
		}

		tok := p.p.ReadToken()
		switch tok {
		case "":
			// stray delimiter
			p.p.Skip(1)
			continue
		case "true":
			operands = append(operands, generic.BooleanObject(true))
			continue
		case "false":
			operands = append(operands, generic.BooleanObject(false))
			continue
		case "null":
			operands = append(operands, generic.NullObject{})
			continue
		}

		cs.AddOperation(Operator(tok), operands...)
		operands = nil
		if Operator(tok) == OpBeginImageData {
			p.skipInlineImage()
			cs.AddOperation(OpEndInlineImage)
		}
	}

	return cs, nil
}

// skipInlineImage moves past the image data and its EI operator.
func (p *Parser) skipInlineImage() {
	rest := p.p.Remaining()
	for i := 1; i+2 <= len(rest); i++ {
		if !generic.IsWhitespace(rest[i-1]) || rest[i] != 'E' || rest[i+1] != 'I' {
			continue
		}
		if i+2 == len(rest) || generic.IsWhitespace(rest[i+2]) {
			p.p.Skip(i + 2)
			return
		}
	}
	p.p.Skip(len(rest))
}

func startsOperand(b byte) bool {
	switch {
	case b == '(' || b == '<' || b == '[' || b == '/':
		return true
	case b == '-' || b == '+' || b == '.' || (b >= '0' && b <= '9'):
		return true
	}
	return false
}

// ContentBuilder provides a fluent interface for building content streams.
type ContentBuilder struct {
	stream *ContentStream
}

// NewContentBuilder creates a new content builder.
func NewContentBuilder() *ContentBuilder {
	return &ContentBuilder{
		stream: NewContentStream(),
	}
}

func nums(vals ...float64) []generic.PdfObject {
	out := make([]generic.PdfObject, len(vals))
	for i, v := range vals {
		out[i] = generic.RealObject(v)
	}
	return out
}

// SaveState saves the graphics state.
func (cb *ContentBuilder) SaveState() *ContentBuilder {
	cb.stream.AddOperation(OpSaveState)
	return cb
}

// RestoreState restores the graphics state.
func (cb *ContentBuilder) RestoreState() *ContentBuilder {
	cb.stream.AddOperation(OpRestoreState)
	return cb
}

// Transform applies a transformation matrix.
func (cb *ContentBuilder) Transform(a, b, c, d, e, f float64) *ContentBuilder {
	cb.stream.AddOperation(OpSetCTM, nums(a, b, c, d, e, f)...)
	return cb
}

// Translate moves the origin.
func (cb *ContentBuilder) Translate(tx, ty float64) *ContentBuilder {
	return cb.Transform(1, 0, 0, 1, tx, ty)
}

// BeginText begins a text object.
func (cb *ContentBuilder) BeginText() *ContentBuilder {
	cb.stream.AddOperation(OpBeginText)
	return cb
}

// EndText ends a text object.
func (cb *ContentBuilder) EndText() *ContentBuilder {
	cb.stream.AddOperation(OpEndText)
	return cb
}

// SetFont sets the font resource and size.
func (cb *ContentBuilder) SetFont(font string, size float64) *ContentBuilder {
	cb.stream.AddOperation(OpSetFont, generic.NameObject(font), generic.RealObject(size))
	return cb
}

// SetLeading sets the distance T* moves down.
func (cb *ContentBuilder) SetLeading(leading float64) *ContentBuilder {
	cb.stream.AddOperation(OpSetLeading, generic.RealObject(leading))
	return cb
}

// TextMatrix sets the text matrix and line matrix.
func (cb *ContentBuilder) TextMatrix(a, b, c, d, e, f float64) *ContentBuilder {
	cb.stream.AddOperation(OpSetTextMatrix, nums(a, b, c, d, e, f)...)
	return cb
}

// TextPosition moves to the start of the next line, offset by (x, y).
func (cb *ContentBuilder) TextPosition(x, y float64) *ContentBuilder {
	cb.stream.AddOperation(OpTextMove, nums(x, y)...)
	return cb
}

// ShowText shows already-encoded text.
func (cb *ContentBuilder) ShowText(encoded []byte) *ContentBuilder {
	cb.stream.AddOperation(OpShowText, &generic.StringObject{Value: encoded})
	return cb
}

// NextLine moves to the next line using the current leading.
func (cb *ContentBuilder) NextLine() *ContentBuilder {
	cb.stream.AddOperation(OpTextNextLine)
	return cb
}

// SetFillGray sets the fill color (grayscale).
func (cb *ContentBuilder) SetFillGray(gray float64) *ContentBuilder {
	cb.stream.AddOperation(OpSetFillGray, generic.RealObject(gray))
	return cb
}

// SetFillColor sets the fill color (RGB).
func (cb *ContentBuilder) SetFillColor(r, g, b float64) *ContentBuilder {
	cb.stream.AddOperation(OpSetFillRGB, nums(r, g, b)...)
	return cb
}

// PaintXObject paints an XObject.
func (cb *ContentBuilder) PaintXObject(name string) *ContentBuilder {
	cb.stream.AddOperation(OpPaintXObject, generic.NameObject(name))
	return cb
}

// Build returns the content stream.
func (cb *ContentBuilder) Build() *ContentStream {
	return cb.stream
}

// Render renders the content stream to bytes.
func (cb *ContentBuilder) Render() []byte {
	return cb.stream.Render()
}
