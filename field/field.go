// Package field models the placeable fields of a document and renders them
// onto pages.
//
// A Placement pairs a box, given in percent of the page with the origin at
// the top-left corner, with typed Content. Content is a closed set of
// variants; values whose shape does not match their declared type decode
// to Unsupported and fail at render time instead of at decode time.
package field

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the declared type of a field.
type Kind string

// Field kinds.
const (
	KindText      Kind = "text"
	KindDate      Kind = "date"
	KindImage     Kind = "image"
	KindSignature Kind = "signature"
	KindRadio     Kind = "radio"
)

// Content is the value of a field.
type Content interface {
	Kind() Kind
	isContent()
}

// Text is a free text value.
type Text struct{ Value string }

// Date is a date value, drawn as text.
type Date struct{ Value string }

// Image is an image given as a base64 data URL.
type Image struct{ DataURL string }

// Signature is a captured signature given as a base64 data URL.
type Signature struct{ DataURL string }

// Radio is a checkbox state.
type Radio struct{ Checked bool }

// Unsupported is a field whose type is unknown or whose value has the
// wrong shape for its type.
type Unsupported struct {
	Type   Kind
	Reason string
}

func (Text) Kind() Kind          { return KindText }
func (Date) Kind() Kind          { return KindDate }
func (Image) Kind() Kind         { return KindImage }
func (Signature) Kind() Kind     { return KindSignature }
func (Radio) Kind() Kind         { return KindRadio }
func (u Unsupported) Kind() Kind { return u.Type }

func (Text) isContent()        {}
func (Date) isContent()        {}
func (Image) isContent()       {}
func (Signature) isContent()   {}
func (Radio) isContent()       {}
func (Unsupported) isContent() {}

// Placement is one field on one page.
type Placement struct {
	ID string
	// Page is the 1-based page ordinal.
	Page int
	// X, Y, Width and Height are percentages of the page size.
	X, Y, Width, Height float64
	Content             Content
}

// Kind returns the declared type of the field.
func (p Placement) Kind() Kind {
	if p.Content == nil {
		return ""
	}
	return p.Content.Kind()
}

type wireHeader struct {
	ID     string  `json:"id" yaml:"id"`
	Type   string  `json:"type" yaml:"type"`
	Page   int     `json:"page" yaml:"page"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

func (h wireHeader) placement(content Content) Placement {
	return Placement{
		ID:      h.ID,
		Page:    h.Page,
		X:       h.X,
		Y:       h.Y,
		Width:   h.Width,
		Height:  h.Height,
		Content: content,
	}
}

// value is a decoded field value: a string, a bool, null, or something
// else described by other.
type value struct {
	str     *string
	boolean *bool
	null    bool
	other   string
}

func newContent(kind Kind, v value) Content {
	switch kind {
	case KindText, KindDate, KindImage, KindSignature:
		var s string
		switch {
		case v.str != nil:
			s = *v.str
		case v.null:
		default:
			return Unsupported{Type: kind, Reason: fmt.Sprintf("%s field needs a string value, got %s", kind, v.other)}
		}
		switch kind {
		case KindText:
			return Text{Value: s}
		case KindDate:
			return Date{Value: s}
		case KindImage:
			return Image{DataURL: s}
		default:
			return Signature{DataURL: s}
		}
	case KindRadio:
		switch {
		case v.boolean != nil:
			return Radio{Checked: *v.boolean}
		case v.null:
			return Radio{}
		case v.str != nil:
			return Unsupported{Type: kind, Reason: "radio field needs a boolean value, got string"}
		default:
			return Unsupported{Type: kind, Reason: "radio field needs a boolean value, got " + v.other}
		}
	default:
		return Unsupported{Type: kind, Reason: fmt.Sprintf("unknown field type %q", kind)}
	}
}

type wireJSON struct {
	wireHeader
	Value json.RawMessage `json:"value"`
}

// UnmarshalJSON decodes the editor wire shape
// {"id","type","page","x","y","width","height","value"}.
func (p *Placement) UnmarshalJSON(data []byte) error {
	var w wireJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = w.placement(newContent(Kind(w.Type), jsonValue(w.Value)))
	return nil
}

func jsonValue(raw json.RawMessage) value {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return value{null: true}
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return value{str: &s}
		}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return value{boolean: &b}
		}
	case '{':
		return value{other: "object"}
	case '[':
		return value{other: "array"}
	}
	return value{other: "number"}
}

type wireYAML struct {
	wireHeader `yaml:",inline"`
	Value      yaml.Node `yaml:"value"`
}

// UnmarshalYAML decodes the same shape as UnmarshalJSON from YAML.
func (p *Placement) UnmarshalYAML(node *yaml.Node) error {
	var w wireYAML
	if err := node.Decode(&w); err != nil {
		return err
	}
	*p = w.placement(newContent(Kind(w.Type), yamlValue(&w.Value)))
	return nil
}

func yamlValue(n *yaml.Node) value {
	if n.Kind == 0 {
		return value{null: true}
	}
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!str":
			s := n.Value
			return value{str: &s}
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err == nil {
				return value{boolean: &b}
			}
		case "!!null":
			return value{null: true}
		}
		return value{other: strings.TrimPrefix(n.ShortTag(), "!!")}
	case yaml.MappingNode:
		return value{other: "object"}
	case yaml.SequenceNode:
		return value{other: "array"}
	}
	return value{other: "unknown"}
}

// ParsePlacements decodes a field list from JSON or YAML. The list may be
// bare or wrapped in an object under "fields".
func ParsePlacements(data []byte) ([]Placement, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var wrapped struct {
		Fields []Placement `json:"fields" yaml:"fields"`
	}
	var list []Placement

	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode field list: %w", err)
		}
		return list, nil
	case '{':
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("decode field list: %w", err)
		}
		return wrapped.Fields, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(trimmed, &root); err != nil {
		return nil, fmt.Errorf("decode field list: %w", err)
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind == yaml.SequenceNode {
		if err := doc.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode field list: %w", err)
		}
		return list, nil
	}
	if err := doc.Decode(&wrapped); err != nil {
		return nil, fmt.Errorf("decode field list: %w", err)
	}
	return wrapped.Fields, nil
}
