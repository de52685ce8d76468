package burn

import (
	"errors"
	"io"
	"log/slog"

	"github.com/georgepadayatti/pdfburn/field"
	"github.com/georgepadayatti/pdfburn/stamp"
)

// Outcome summarizes one mutation pass.
type Outcome struct {
	Drawn   int
	Skipped int
	Errors  []*FieldRenderError
}

// Diagnostics returns the reportable form of every failed field, in
// input order.
func (o Outcome) Diagnostics() []Diagnostic {
	diags := make([]Diagnostic, 0, len(o.Errors))
	for _, err := range o.Errors {
		diags = append(diags, err.Diagnostic())
	}
	return diags
}

// Mutator applies field placements to a document.
type Mutator struct {
	renderer *field.Renderer
	logger   *slog.Logger
}

// NewMutator returns a Mutator drawing with renderer. A nil logger
// discards output.
func NewMutator(renderer *field.Renderer, logger *slog.Logger) *Mutator {
	if renderer == nil {
		renderer = field.NewRenderer()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Mutator{renderer: renderer, logger: logger}
}

// Apply draws placements on doc in input order. Later fields are painted
// over earlier ones. A field on a page the document does not have is
// skipped silently; a field that fails to draw is recorded and the pass
// continues.
func (m *Mutator) Apply(doc *stamp.Document, placements []field.Placement) Outcome {
	var out Outcome
	for i, p := range placements {
		page, ok := doc.Page(p.Page)
		if !ok {
			m.logger.Debug("page not found, skipping field",
				"index", i, "id", p.ID, "page", p.Page, "pages", doc.PageCount())
			out.Skipped++
			continue
		}

		drawn, err := m.renderer.Render(doc, page, p)
		switch {
		case err != nil:
			fieldErr := &FieldRenderError{Index: i, ID: p.ID, Kind: field.DrawFailed, Err: err}
			var renderErr *field.RenderError
			if errors.As(err, &renderErr) {
				fieldErr.Kind = renderErr.Kind
				fieldErr.Err = renderErr.Err
			}
			m.logger.Warn("field not drawn",
				"index", i, "id", p.ID, "type", string(p.Kind()), "kind", string(fieldErr.Kind), "error", fieldErr.Err)
			out.Errors = append(out.Errors, fieldErr)
		case drawn:
			out.Drawn++
		default:
			m.logger.Debug("empty field, skipping", "index", i, "id", p.ID, "type", string(p.Kind()))
			out.Skipped++
		}
	}
	return out
}
