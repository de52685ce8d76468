// Package reader provides PDF file reading and parsing.
package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/georgepadayatti/pdfburn/pdf/filters"
	"github.com/georgepadayatti/pdfburn/pdf/generic"
)

// Common errors
var (
	ErrInvalidPDF     = errors.New("invalid PDF file")
	ErrNoXRef         = errors.New("no xref found")
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidXRef    = errors.New("invalid xref")
	ErrEncrypted      = errors.New("PDF is encrypted")
	ErrNoPages        = errors.New("document has no pages")
)

// DefaultMediaBox is used for pages that declare no MediaBox anywhere in
// their ancestry (US Letter).
var DefaultMediaBox = generic.Rectangle{LLX: 0, LLY: 0, URX: 612, URY: 792}

// maxPageTreeDepth bounds recursion on malformed page trees.
const maxPageTreeDepth = 64

// Page is a leaf of the page tree together with the attributes it
// inherits from its ancestors.
type Page struct {
	// Ref is the indirect reference of the page object. It is zero for
	// pages stored as direct objects, which cannot be updated.
	Ref generic.Reference
	// Dict is the page dictionary as stored in the file.
	Dict *generic.DictionaryObject
	// MediaBox is the effective media box.
	MediaBox generic.Rectangle
	// Resources is the effective /Resources entry (direct or a reference);
	// nil when no node in the ancestry has one.
	Resources generic.PdfObject
	// Rotate is the effective /Rotate in degrees.
	Rotate int
}

// Width returns the page width in points.
func (p *Page) Width() float64 { return p.MediaBox.Width() }

// Height returns the page height in points.
func (p *Page) Height() float64 { return p.MediaBox.Height() }

// PdfFileReader reads and parses PDF files.
type PdfFileReader struct {
	data    []byte
	Version string
	Trailer *generic.TrailerDictionary
	XRef    map[int]*XRefEntry
	objects map[int]generic.PdfObject

	Root  *generic.DictionaryObject
	Info  *generic.DictionaryObject
	Pages []*Page

	// XRefOffsets lists cross-reference section offsets, newest first.
	XRefOffsets []int64
	// HasXRefStream is set when any section is a cross-reference stream.
	HasXRefStream bool
	// Rebuilt is set when the cross-reference data was unusable and the
	// table was reconstructed by scanning the file.
	Rebuilt bool
}

// NewPdfFileReader reads all of r and parses it.
func NewPdfFileReader(r io.Reader) (*PdfFileReader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF data: %w", err)
	}
	return NewPdfFileReaderFromBytes(data)
}

// NewPdfFileReaderFromBytes parses a PDF held in memory. The reader keeps
// a reference to data; callers must not modify it afterwards.
func NewPdfFileReaderFromBytes(data []byte) (*PdfFileReader, error) {
	r := &PdfFileReader{
		data:    data,
		XRef:    make(map[int]*XRefEntry),
		objects: make(map[int]generic.PdfObject),
	}
	if err := r.parse(); err != nil {
		return nil, err
	}
	return r, nil
}

var headerRegex = regexp.MustCompile(`%PDF-(\d+\.\d+)`)

func (r *PdfFileReader) parse() error {
	head := r.data[:min(1024, len(r.data))]
	m := headerRegex.FindSubmatch(head)
	if m == nil {
		return fmt.Errorf("%w: missing PDF header", ErrInvalidPDF)
	}
	r.Version = string(m[1])

	if err := r.readXRef(); err != nil {
		r.XRefOffsets = nil
		r.HasXRefStream = false
		r.Trailer = nil
		if rerr := r.rebuildXRef(); rerr != nil {
			return fmt.Errorf("%w (rebuild failed: %v)", err, rerr)
		}
		r.Rebuilt = true
	}

	if r.Trailer.Has("Encrypt") {
		return ErrEncrypted
	}

	if err := r.loadCatalog(); err != nil {
		if r.Rebuilt {
			return err
		}
		// The xref parsed but points at garbage; try once more by scanning.
		r.XRefOffsets = nil
		r.HasXRefStream = false
		if rerr := r.rebuildXRef(); rerr != nil {
			return err
		}
		r.Rebuilt = true
		if r.Trailer.Has("Encrypt") {
			return ErrEncrypted
		}
		return r.loadCatalog()
	}
	return nil
}

func (r *PdfFileReader) readXRef() error {
	i := bytes.LastIndex(r.data, []byte("startxref"))
	if i < 0 {
		return ErrNoXRef
	}
	p := generic.NewParserFromBytes(r.data[i+len("startxref"):])
	tok := p.ReadToken()
	offset, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad startxref %q", ErrInvalidXRef, tok)
	}
	return r.parseXRefChain(offset)
}

func (r *PdfFileReader) loadCatalog() error {
	rootRef := r.Trailer.GetRoot()
	if rootRef == nil {
		return fmt.Errorf("%w: missing Root", ErrInvalidPDF)
	}
	root, err := r.GetDict(*rootRef)
	if err != nil {
		return fmt.Errorf("%w: catalog: %v", ErrInvalidPDF, err)
	}
	r.Root = root

	if infoRef := r.Trailer.GetInfo(); infoRef != nil {
		r.Info, _ = r.GetDict(*infoRef)
	}

	r.Pages = nil
	pagesObj := root.Get("Pages")
	pagesRef, _ := pagesObj.(generic.Reference)
	pages, err := r.resolveDict(pagesObj)
	if err != nil || pages == nil {
		return fmt.Errorf("%w: missing page tree", ErrInvalidPDF)
	}
	inherited := &Page{MediaBox: DefaultMediaBox}
	if err := r.walkPageTree(pagesRef, pages, inherited, map[int]bool{}, 0); err != nil {
		return err
	}
	if len(r.Pages) == 0 {
		return ErrNoPages
	}
	return nil
}

// walkPageTree flattens the page tree in document order.
func (r *PdfFileReader) walkPageTree(ref generic.Reference, node *generic.DictionaryObject, inherited *Page, seen map[int]bool, depth int) error {
	if depth > maxPageTreeDepth {
		return fmt.Errorf("%w: page tree too deep", ErrInvalidPDF)
	}
	if ref.ObjectNumber > 0 {
		if seen[ref.ObjectNumber] {
			// cycle or a node listed twice
			return nil
		}
		seen[ref.ObjectNumber] = true
	}

	attrs := *inherited
	if box, ok := r.resolveRect(node.Get("MediaBox")); ok {
		attrs.MediaBox = box
	}
	if res := node.Get("Resources"); res != nil {
		attrs.Resources = res
	}
	if rot, ok := r.resolveInt(node.Get("Rotate")); ok {
		attrs.Rotate = int(rot)
	}

	kids, isTree := r.resolveArray(node.Get("Kids"))
	if node.GetName("Type") == "Page" || (!isTree && node.GetName("Type") != "Pages") {
		attrs.Ref = ref
		attrs.Dict = node
		r.Pages = append(r.Pages, &attrs)
		return nil
	}

	for _, kid := range kids {
		kidRef, _ := kid.(generic.Reference)
		kidDict, err := r.resolveDict(kid)
		if err != nil || kidDict == nil {
			continue
		}
		if err := r.walkPageTree(kidRef, kidDict, &attrs, seen, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (r *PdfFileReader) resolveRect(obj generic.PdfObject) (generic.Rectangle, bool) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return generic.Rectangle{}, false
	}
	arr, ok := resolved.(generic.ArrayObject)
	if !ok {
		return generic.Rectangle{}, false
	}
	vals := make(generic.ArrayObject, len(arr))
	for i, item := range arr {
		vals[i], _ = r.Resolve(item)
	}
	rect, err := generic.NewRectangle(vals)
	if err != nil || rect.Width() <= 0 || rect.Height() <= 0 {
		return generic.Rectangle{}, false
	}
	return *rect, true
}

func (r *PdfFileReader) resolveInt(obj generic.PdfObject) (int64, bool) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return 0, false
	}
	i, ok := resolved.(generic.IntegerObject)
	return int64(i), ok
}

func (r *PdfFileReader) resolveArray(obj generic.PdfObject) (generic.ArrayObject, bool) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, false
	}
	arr, ok := resolved.(generic.ArrayObject)
	return arr, ok
}

func (r *PdfFileReader) resolveDict(obj generic.PdfObject) (*generic.DictionaryObject, error) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	d, _ := resolved.(*generic.DictionaryObject)
	return d, nil
}

// GetDict resolves ref and requires a dictionary.
func (r *PdfFileReader) GetDict(ref generic.Reference) (*generic.DictionaryObject, error) {
	obj, err := r.GetObject(ref.ObjectNumber)
	if err != nil {
		return nil, err
	}
	d, ok := obj.(*generic.DictionaryObject)
	if !ok {
		return nil, fmt.Errorf("object %d is not a dictionary", ref.ObjectNumber)
	}
	return d, nil
}

// Resolve follows a reference; other objects are returned unchanged. A nil
// object resolves to nil.
func (r *PdfFileReader) Resolve(obj generic.PdfObject) (generic.PdfObject, error) {
	if ref, ok := obj.(generic.Reference); ok {
		return r.GetObject(ref.ObjectNumber)
	}
	return obj, nil
}

// GetObject returns object objNum, decoding stream filters where it can.
// Streams with unsupported filters (images, for instance) keep Decoded
// nil.
func (r *PdfFileReader) GetObject(objNum int) (generic.PdfObject, error) {
	if obj, ok := r.objects[objNum]; ok {
		return obj, nil
	}
	entry, ok := r.XRef[objNum]
	if !ok || !entry.InUse {
		return nil, fmt.Errorf("%w: object %d", ErrObjectNotFound, objNum)
	}

	// Placeholder guards against reference cycles through /Length.
	r.objects[objNum] = generic.NullObject{}

	var obj generic.PdfObject
	var err error
	if entry.InObjectStream() {
		obj, err = r.objectFromStream(entry.ObjectStreamRef, entry.IndexInStream)
	} else {
		obj, err = r.objectAt(entry.Offset, objNum)
	}
	if err != nil {
		delete(r.objects, objNum)
		return nil, err
	}
	r.objects[objNum] = obj
	return obj, nil
}

func (r *PdfFileReader) newParser(offset int) *generic.Parser {
	p := generic.NewParserFromBytes(r.data[offset:])
	p.ResolveLength = func(ref generic.Reference) (int64, bool) {
		obj, err := r.GetObject(ref.ObjectNumber)
		if err != nil {
			return 0, false
		}
		n, ok := obj.(generic.IntegerObject)
		return int64(n), ok
	}
	return p
}

func (r *PdfFileReader) objectAt(offset int64, objNum int) (generic.PdfObject, error) {
	if offset < 0 || offset >= int64(len(r.data)) {
		return nil, fmt.Errorf("%w: object %d offset out of bounds", ErrObjectNotFound, objNum)
	}
	ind, err := r.newParser(int(offset)).ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("object %d: %w", objNum, err)
	}
	if ind.ObjectNumber != objNum {
		return nil, fmt.Errorf("%w: expected object %d at offset %d, found %d", ErrInvalidXRef, objNum, offset, ind.ObjectNumber)
	}
	if stream, ok := ind.Object.(*generic.StreamObject); ok {
		if decoded, err := filters.DecodeStream(stream); err == nil {
			stream.Decoded = decoded
		}
	}
	return ind.Object, nil
}

func (r *PdfFileReader) objectFromStream(streamNum, index int) (generic.PdfObject, error) {
	obj, err := r.GetObject(streamNum)
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*generic.StreamObject)
	if !ok || stream.Decoded == nil {
		return nil, fmt.Errorf("object stream %d is not decodable", streamNum)
	}
	data := stream.Decoded
	n, _ := stream.Dictionary.GetInt("N")
	first, _ := stream.Dictionary.GetInt("First")
	if int64(index) >= n || first > int64(len(data)) {
		return nil, fmt.Errorf("%w: index %d in object stream %d", ErrObjectNotFound, index, streamNum)
	}

	p := generic.NewParserFromBytes(data[:first])
	var offset int64 = -1
	for i := 0; i <= index; i++ {
		if _, err := p.ParseObject(); err != nil {
			return nil, fmt.Errorf("object stream %d header: %w", streamNum, err)
		}
		off, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("object stream %d header: %w", streamNum, err)
		}
		if i == index {
			v, _ := off.(generic.IntegerObject)
			offset = int64(v)
		}
	}
	if offset < 0 || first+offset > int64(len(data)) {
		return nil, fmt.Errorf("%w: bad offset in object stream %d", ErrInvalidPDF, streamNum)
	}
	return generic.NewParserFromBytes(data[first+offset:]).ParseObjectOrReference()
}

// GetPageCount returns the number of pages.
func (r *PdfFileReader) GetPageCount() int {
	return len(r.Pages)
}

// GetPage returns a page by 0-based index.
func (r *PdfFileReader) GetPage(index int) (*Page, error) {
	if index < 0 || index >= len(r.Pages) {
		return nil, fmt.Errorf("page index %d out of bounds", index)
	}
	return r.Pages[index], nil
}

// Data returns the bytes the reader was built from.
func (r *PdfFileReader) Data() []byte {
	return r.data
}
