package burn

import (
	"fmt"

	"github.com/georgepadayatti/pdfburn/field"
)

// DecodeError is returned when the input is not a document this engine
// can rewrite. No output is produced.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError is returned when the mutated document cannot be
// serialized. No output is produced.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode failed: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// FieldRenderError records a field that could not be drawn. The pass
// continues past it.
type FieldRenderError struct {
	Index int
	ID    string
	Kind  field.ErrorKind
	Err   error
}

func (e *FieldRenderError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("field %d (%s): %s: %v", e.Index, e.ID, e.Kind, e.Err)
	}
	return fmt.Sprintf("field %d: %s: %v", e.Index, e.Kind, e.Err)
}

func (e *FieldRenderError) Unwrap() error {
	return e.Err
}

// Diagnostic is the reportable form of a FieldRenderError.
type Diagnostic struct {
	FieldIndex int             `json:"field_index"`
	FieldID    string          `json:"field_id,omitempty"`
	Kind       field.ErrorKind `json:"kind"`
	Message    string          `json:"message"`
}

// Diagnostic converts e for reporting.
func (e *FieldRenderError) Diagnostic() Diagnostic {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return Diagnostic{FieldIndex: e.Index, FieldID: e.ID, Kind: e.Kind, Message: msg}
}
