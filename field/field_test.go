package field

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestTransform(t *testing.T) {
	tests := []struct {
		name         string
		w, h         float64
		x, y, bw, bh float64
		want         Geometry
	}{
		{"scenario", 600, 800, 10, 10, 30, 5, Geometry{XPoints: 60, BoxWidth: 180, BoxHeight: 40, TopY: 720}},
		{"origin", 612, 792, 0, 0, 100, 100, Geometry{XPoints: 0, BoxWidth: 612, BoxHeight: 792, TopY: 792}},
		{"bottom edge", 612, 792, 50, 100, 10, 10, Geometry{XPoints: 306, BoxWidth: 61.2, BoxHeight: 79.2, TopY: 0}},
		{"extrapolates", 100, 200, -10, 120, 150, 5, Geometry{XPoints: -10, BoxWidth: 150, BoxHeight: 10, TopY: -40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transform(tt.w, tt.h, tt.x, tt.y, tt.bw, tt.bh)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("Transform mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPlacementGeometry(t *testing.T) {
	p := Placement{X: 10, Y: 10, Width: 30, Height: 5}
	g := p.Geometry(600, 800)
	if diff := cmp.Diff(Geometry{XPoints: 60, BoxWidth: 180, BoxHeight: 40, TopY: 720}, g, approx); diff != "" {
		t.Errorf("Geometry mismatch (-want +got):\n%s", diff)
	}
	if !cmp.Equal(g.Bottom(), 680.0, approx) {
		t.Errorf("Bottom = %v, want 680", g.Bottom())
	}
}

func TestParsePlacementsJSON(t *testing.T) {
	data := []byte(`[
		{"id": "a", "type": "text", "page": 1, "x": 10, "y": 10, "width": 30, "height": 5, "value": "Hi"},
		{"id": "b", "type": "date", "page": 2, "x": 1, "y": 2, "width": 3, "height": 4, "value": "2024-03-05"},
		{"id": "c", "type": "image", "page": 1, "x": 0, "y": 0, "width": 1, "height": 1, "value": "data:image/png;base64,AAAA"},
		{"id": "d", "type": "signature", "page": 1, "x": 0, "y": 0, "width": 1, "height": 1, "value": null},
		{"id": "e", "type": "radio", "page": 3, "x": 0, "y": 0, "width": 1, "height": 1, "value": true},
		{"id": "f", "type": "radio", "page": 3, "x": 0, "y": 0, "width": 1, "height": 1},
		{"id": "g", "type": "radio", "page": 3, "x": 0, "y": 0, "width": 1, "height": 1, "value": "yes"},
		{"id": "h", "type": "text", "page": 1, "x": 0, "y": 0, "width": 1, "height": 1, "value": 42},
		{"id": "i", "type": "stamp", "page": 1, "x": 0, "y": 0, "width": 1, "height": 1, "value": "x"}
	]`)

	got, err := ParsePlacements(data)
	if err != nil {
		t.Fatalf("ParsePlacements: %v", err)
	}
	want := []Placement{
		{ID: "a", Page: 1, X: 10, Y: 10, Width: 30, Height: 5, Content: Text{Value: "Hi"}},
		{ID: "b", Page: 2, X: 1, Y: 2, Width: 3, Height: 4, Content: Date{Value: "2024-03-05"}},
		{ID: "c", Page: 1, Width: 1, Height: 1, Content: Image{DataURL: "data:image/png;base64,AAAA"}},
		{ID: "d", Page: 1, Width: 1, Height: 1, Content: Signature{}},
		{ID: "e", Page: 3, Width: 1, Height: 1, Content: Radio{Checked: true}},
		{ID: "f", Page: 3, Width: 1, Height: 1, Content: Radio{}},
		{ID: "g", Page: 3, Width: 1, Height: 1, Content: Unsupported{Type: KindRadio, Reason: "radio field needs a boolean value, got string"}},
		{ID: "h", Page: 1, Width: 1, Height: 1, Content: Unsupported{Type: KindText, Reason: "text field needs a string value, got number"}},
		{ID: "i", Page: 1, Width: 1, Height: 1, Content: Unsupported{Type: "stamp", Reason: `unknown field type "stamp"`}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Placements mismatch (-want +got):\n%s", diff)
	}
	if got[4].Kind() != KindRadio || got[8].Kind() != "stamp" {
		t.Errorf("Unexpected kinds %q %q", got[4].Kind(), got[8].Kind())
	}
}

func TestParsePlacementsWrapped(t *testing.T) {
	got, err := ParsePlacements([]byte(`{"fields": [{"id": "a", "type": "text", "page": 1, "value": "x"}]}`))
	if err != nil {
		t.Fatalf("ParsePlacements: %v", err)
	}
	if len(got) != 1 || got[0].Content != (Text{Value: "x"}) {
		t.Errorf("Unexpected placements %+v", got)
	}
}

func TestParsePlacementsYAML(t *testing.T) {
	data := []byte(`
fields:
  - id: a
    type: text
    page: 1
    x: 10
    y: 10
    width: 30
    height: 5
    value: Hi
  - id: b
    type: radio
    page: 2
    value: true
  - id: c
    type: text
    page: 1
    value: "123"
  - id: d
    type: date
    page: 1
    value: [1, 2]
  - id: e
    type: signature
    page: 1
    value: ~
  - id: f
    type: radio
    page: 1
    value: 1
`)
	got, err := ParsePlacements(data)
	if err != nil {
		t.Fatalf("ParsePlacements: %v", err)
	}
	want := []Placement{
		{ID: "a", Page: 1, X: 10, Y: 10, Width: 30, Height: 5, Content: Text{Value: "Hi"}},
		{ID: "b", Page: 2, Content: Radio{Checked: true}},
		{ID: "c", Page: 1, Content: Text{Value: "123"}},
		{ID: "d", Page: 1, Content: Unsupported{Type: KindDate, Reason: "date field needs a string value, got array"}},
		{ID: "e", Page: 1, Content: Signature{}},
		{ID: "f", Page: 1, Content: Unsupported{Type: KindRadio, Reason: "radio field needs a boolean value, got int"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Placements mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePlacementsBareYAMLList(t *testing.T) {
	got, err := ParsePlacements([]byte("- id: a\n  type: radio\n  page: 1\n"))
	if err != nil {
		t.Fatalf("ParsePlacements: %v", err)
	}
	if len(got) != 1 || got[0].Content != (Radio{}) {
		t.Errorf("Unexpected placements %+v", got)
	}
}

func TestParsePlacementsEmpty(t *testing.T) {
	got, err := ParsePlacements([]byte("  \n"))
	if err != nil || len(got) != 0 {
		t.Errorf("ParsePlacements(empty) = %v, %v", got, err)
	}
}

func TestParsePlacementsErrors(t *testing.T) {
	for _, in := range []string{
		`[{"id": "a", "page": "one"}]`,
		`{"fields": 3}`,
		"fields: [a: b: c",
	} {
		if _, err := ParsePlacements([]byte(in)); err == nil {
			t.Errorf("ParsePlacements(%q) should fail", in)
		}
	}
}
