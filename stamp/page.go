package stamp

import (
	"fmt"

	"github.com/georgepadayatti/pdfburn/pdf/content"
	"github.com/georgepadayatti/pdfburn/pdf/fonts"
	"github.com/georgepadayatti/pdfburn/pdf/generic"
	"github.com/georgepadayatti/pdfburn/pdf/layout"
	"github.com/georgepadayatti/pdfburn/pdf/reader"
)

// Resource name prefixes for burned content.
const (
	FontPrefix  = "BurnF"
	ImagePrefix = "BurnIm"
)

// Page is the draw surface of one page. Coordinates are in points with
// the origin at the bottom-left corner of the MediaBox.
type Page struct {
	doc     *Document
	index   int
	info    *reader.Page
	wrapped bool

	names    map[generic.Reference]string
	fontSeq  int
	imageSeq int
}

// Number returns the 1-based page ordinal.
func (p *Page) Number() int { return p.index + 1 }

// Width returns the page width in points.
func (p *Page) Width() float64 { return p.info.Width() }

// Height returns the page height in points.
func (p *Page) Height() float64 { return p.info.Height() }

// origin returns the lower-left corner of the MediaBox.
func (p *Page) origin() (x, y float64) {
	return p.info.MediaBox.LLX, p.info.MediaBox.LLY
}

// TextRun is a block of lines drawn with one font. X and Y give the
// baseline of the first line; each further line sits Leading points
// lower.
type TextRun struct {
	Font    *fonts.StandardType1Font
	Size    float64
	Leading float64
	X, Y    float64
	Lines   []string
}

// DrawText draws the run in black.
func (p *Page) DrawText(run TextRun) error {
	if run.Font == nil {
		return fmt.Errorf("text run has no font")
	}
	if err := p.wrap(); err != nil {
		return err
	}

	ref := p.doc.fontRef(run.Font)
	name, err := p.resourceName("Font", FontPrefix, ref, &p.fontSeq)
	if err != nil {
		return err
	}

	cb := p.begin()
	cb.BeginText().
		SetFont(name, run.Size).
		SetFillGray(0).
		SetLeading(run.Leading).
		TextMatrix(1, 0, 0, 1, run.X, run.Y)
	for i, line := range run.Lines {
		if i > 0 {
			cb.NextLine()
		}
		if line != "" {
			cb.ShowText(run.Font.Encode(line))
		}
	}
	cb.EndText().RestoreState()

	return p.append(cb.Render(), "Font", name, ref)
}

// DrawImage paints img stretched to rect.
func (p *Page) DrawImage(img *Image, rect layout.Rectangle) error {
	if err := p.wrap(); err != nil {
		return err
	}

	ref := p.doc.embed(img)
	name, err := p.resourceName("XObject", ImagePrefix, ref, &p.imageSeq)
	if err != nil {
		return err
	}

	cb := p.begin()
	cb.Transform(rect.Width, 0, 0, rect.Height, rect.X, rect.Y).
		PaintXObject(name).
		RestoreState()

	return p.append(cb.Render(), "XObject", name, ref)
}

// begin opens a field's graphics state, moving the origin to the
// MediaBox corner when the box does not start at zero.
func (p *Page) begin() *content.ContentBuilder {
	cb := content.NewContentBuilder().SaveState()
	if x, y := p.origin(); x != 0 || y != 0 {
		cb.Translate(x, y)
	}
	return cb
}

// wrap isolates the existing page content in q/Q the first time the page
// is drawn on, so burned content starts from the default graphics state.
func (p *Page) wrap() error {
	if p.wrapped {
		return nil
	}
	w := p.doc.writer

	qRef := w.AddObject(generic.NewStream(nil, []byte("q")))
	if _, err := w.AddStreamToPage(p.index, qRef, nil, true); err != nil {
		return err
	}
	bigQRef := w.AddObject(generic.NewStream(nil, []byte("Q")))
	if _, err := w.AddStreamToPage(p.index, bigQRef, nil, false); err != nil {
		return err
	}

	p.wrapped = true
	return nil
}

func (p *Page) append(data []byte, category, name string, ref generic.Reference) error {
	streamRef, err := p.doc.contentStream(data)
	if err != nil {
		return err
	}

	resources := generic.NewDictionary()
	entry := generic.NewDictionary()
	entry.Set(name, ref)
	resources.Set(category, entry)

	_, err = p.doc.writer.AddStreamToPage(p.index, streamRef, resources, false)
	return err
}

// resourceName returns the page-local name for ref, allocating
// the next prefix+N that the page's resources do not already use.
func (p *Page) resourceName(category, prefix string, ref generic.Reference, seq *int) (string, error) {
	if name, ok := p.names[ref]; ok {
		return name, nil
	}

	taken, err := p.existingNames(category)
	if err != nil {
		return "", err
	}
	var name string
	for {
		*seq++
		name = fmt.Sprintf("%s%d", prefix, *seq)
		if !taken.Has(name) {
			break
		}
	}
	p.names[ref] = name
	return name, nil
}

func (p *Page) existingNames(category string) (*generic.DictionaryObject, error) {
	w := p.doc.writer
	res, err := w.PageResources(p.index)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Get(category) == nil {
		return generic.NewDictionary(), nil
	}
	obj, err := w.Resolve(res.Get(category))
	if err != nil {
		return nil, fmt.Errorf("resources /%s: %w", category, err)
	}
	if d, ok := obj.(*generic.DictionaryObject); ok {
		return d, nil
	}
	return generic.NewDictionary(), nil
}
