// Package stamp burns text and images into the pages of an existing PDF.
//
// A Document is decoded once, drawn on page by page and encoded as an
// incremental update. Page sizes and the page count never change; only
// content streams, fonts and image XObjects are appended.
package stamp

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/minio/highwayhash"

	"github.com/georgepadayatti/pdfburn/pdf/filters"
	"github.com/georgepadayatti/pdfburn/pdf/fonts"
	"github.com/georgepadayatti/pdfburn/pdf/generic"
	"github.com/georgepadayatti/pdfburn/pdf/images"
	"github.com/georgepadayatti/pdfburn/pdf/reader"
	"github.com/georgepadayatti/pdfburn/pdf/writer"
)

// Common errors
var (
	ErrDecode = errors.New("cannot decode document")
	ErrEncode = errors.New("cannot encode document")
)

var imageKey = []byte("pdfburn-image-dedup-key-32-bytes")

// Options configures a Document.
type Options struct {
	// Compress applies FlateDecode to appended content streams.
	Compress bool
	// MaxImagePixels bounds embedded image size; zero disables it.
	MaxImagePixels int
}

// DefaultOptions returns the default document options.
func DefaultOptions() Options {
	return Options{
		Compress:       true,
		MaxImagePixels: 16 * 1024 * 1024,
	}
}

// Document is a decoded PDF open for drawing.
type Document struct {
	reader *reader.PdfFileReader
	writer *writer.IncrementalPdfFileWriter
	opts   Options

	pages  map[int]*Page
	fonts  map[string]generic.Reference
	images map[uint64]*Image
}

// Decode parses data into a Document.
func Decode(data []byte, opts Options) (*Document, error) {
	r, err := reader.NewPdfFileReaderFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &Document{
		reader: r,
		writer: writer.NewIncrementalPdfFileWriter(r),
		opts:   opts,
		pages:  make(map[int]*Page),
		fonts:  make(map[string]generic.Reference),
		images: make(map[uint64]*Image),
	}, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.reader.GetPageCount()
}

// Page returns the page with the given 1-based ordinal. ok is false when
// the document has no such page.
func (d *Document) Page(ordinal int) (page *Page, ok bool) {
	index := ordinal - 1
	if p, ok := d.pages[index]; ok {
		return p, true
	}
	info, err := d.reader.GetPage(index)
	if err != nil {
		return nil, false
	}
	p := &Page{
		doc:   d,
		index: index,
		info:  info,
		names: make(map[generic.Reference]string),
	}
	d.pages[index] = p
	return p, true
}

// Changed reports whether anything has been drawn.
func (d *Document) Changed() bool {
	return d.writer.HasChanges()
}

// Encode serializes the document. When nothing was drawn the original
// bytes are returned unchanged.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.writer.Write(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// fontRef returns the document-wide object for a standard font, adding it
// on first use.
func (d *Document) fontRef(font *fonts.StandardType1Font) generic.Reference {
	if ref, ok := d.fonts[font.Name()]; ok {
		return ref
	}
	ref := d.writer.AddObject(font.Dictionary())
	d.fonts[font.Name()] = ref
	return ref
}

// Image is a decoded image that can be drawn on any page of the document
// it was loaded from. Its XObject is written once, on first draw.
type Image struct {
	source string
	pdf    *images.PDFImage
	ref    *generic.Reference
}

// Size returns the pixel dimensions.
func (i *Image) Size() (width, height int) {
	return i.pdf.Width, i.pdf.Height
}

// LoadImage decodes a data URL. Identical payloads share one Image.
func (d *Document) LoadImage(dataURL string) (*Image, error) {
	h, err := highwayhash.New64(imageKey)
	if err != nil {
		return nil, err
	}
	if _, err := h.Write([]byte(dataURL)); err != nil {
		return nil, err
	}
	key := h.Sum64()
	if img, ok := d.images[key]; ok && img.source == dataURL {
		return img, nil
	}

	pdfImg, err := images.NewPDFImageFromDataURL(dataURL, d.opts.MaxImagePixels)
	if err != nil {
		return nil, err
	}
	img := &Image{source: dataURL, pdf: pdfImg}
	if _, taken := d.images[key]; !taken {
		d.images[key] = img
	}
	return img, nil
}

func (d *Document) embed(img *Image) generic.Reference {
	if img.ref != nil {
		return *img.ref
	}
	var smask *generic.Reference
	if mask := img.pdf.MaskXObject(); mask != nil {
		ref := d.writer.AddObject(mask)
		smask = &ref
	}
	ref := d.writer.AddObject(img.pdf.XObject(smask))
	img.ref = &ref
	return ref
}

// contentStream builds an appended stream object, compressed if enabled.
func (d *Document) contentStream(data []byte) (generic.Reference, error) {
	stream := generic.NewStream(nil, data)
	if d.opts.Compress {
		compressed, err := filters.EncodeFlate(data)
		if err != nil {
			return generic.Reference{}, err
		}
		stream.Data = compressed
		stream.Decoded = data
		stream.Dictionary.Set("Filter", generic.NameObject("FlateDecode"))
	}
	return d.writer.AddObject(stream), nil
}
