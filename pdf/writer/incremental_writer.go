// Package writer provides PDF file writing and incremental update support.
// This file contains the IncrementalPdfFileWriter for incremental updates.
package writer

import (
	"bytes"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/georgepadayatti/pdfburn/pdf/filters"
	"github.com/georgepadayatti/pdfburn/pdf/generic"
	"github.com/georgepadayatti/pdfburn/pdf/reader"
)

// Common errors for incremental writer
var (
	ErrNoRoot         = errors.New("document has no root reference")
	ErrPageNotInFile  = errors.New("page is not an indirect object")
	ErrPageOutOfRange = errors.New("page index out of range")
)

// IncrementalPdfFileWriter handles incremental updates to existing PDFs.
// Incremental updates append modifications to the end of the file, so the
// original bytes are a prefix of the output.
type IncrementalPdfFileWriter struct {
	// Reader is the underlying PDF reader
	Reader *reader.PdfFileReader

	// Objects contains modified/new objects to be written
	Objects map[ObjectKey]*generic.IndirectObject

	// nextObjNum is the next object number to use
	nextObjNum int

	// originalData stores the original PDF data
	originalData []byte

	rootRef generic.Reference
	infoRef *generic.Reference

	// streamXRefs writes the update's cross-reference section as a stream,
	// matching inputs that use xref streams.
	streamXRefs bool

	// fullXRef writes a complete table without /Prev. It is used when the
	// input's cross-reference data had to be rebuilt.
	fullXRef bool

	// pages holds the updated page dictionaries by page index.
	pages map[int]*generic.DictionaryObject
}

// ObjectKey uniquely identifies an object by number and generation
type ObjectKey struct {
	ObjectNumber int
	Generation   int
}

// NewIncrementalPdfFileWriter creates an incremental writer from an existing PDF.
func NewIncrementalPdfFileWriter(r *reader.PdfFileReader) *IncrementalPdfFileWriter {
	maxObjNum := 0
	for objNum := range r.XRef {
		maxObjNum = max(maxObjNum, objNum)
	}
	next := maxObjNum + 1
	if size := int(r.Trailer.GetSize()); size > next {
		next = size
	}

	var rootRef generic.Reference
	if root := r.Trailer.GetRoot(); root != nil {
		rootRef = *root
	}

	return &IncrementalPdfFileWriter{
		Reader:       r,
		Objects:      make(map[ObjectKey]*generic.IndirectObject),
		nextObjNum:   next,
		originalData: r.Data(),
		rootRef:      rootRef,
		infoRef:      r.Trailer.GetInfo(),
		streamXRefs:  r.HasXRefStream && !r.Rebuilt,
		fullXRef:     r.Rebuilt,
		pages:        make(map[int]*generic.DictionaryObject),
	}
}

// GetObject retrieves an object by number, preferring modified versions.
func (w *IncrementalPdfFileWriter) GetObject(objNum int) (generic.PdfObject, error) {
	gen := 0
	if entry := w.Reader.XRef[objNum]; entry != nil {
		gen = entry.Generation
	}
	if obj, ok := w.Objects[ObjectKey{ObjectNumber: objNum, Generation: gen}]; ok {
		return obj.Object, nil
	}
	return w.Reader.GetObject(objNum)
}

// Resolve follows references through GetObject.
func (w *IncrementalPdfFileWriter) Resolve(obj generic.PdfObject) (generic.PdfObject, error) {
	if ref, ok := obj.(generic.Reference); ok {
		return w.GetObject(ref.ObjectNumber)
	}
	return obj, nil
}

// AddObject adds a new object and returns its reference.
func (w *IncrementalPdfFileWriter) AddObject(obj generic.PdfObject) generic.Reference {
	objNum := w.nextObjNum
	w.nextObjNum++

	key := ObjectKey{ObjectNumber: objNum, Generation: 0}
	w.Objects[key] = generic.NewIndirectObject(objNum, 0, obj)

	return generic.Reference{ObjectNumber: objNum, GenerationNumber: 0}
}

// UpdateObject replaces an existing object in the update section.
func (w *IncrementalPdfFileWriter) UpdateObject(objNum int, obj generic.PdfObject) {
	gen := 0
	if entry := w.Reader.XRef[objNum]; entry != nil {
		gen = entry.Generation
	}

	key := ObjectKey{ObjectNumber: objNum, Generation: gen}
	w.Objects[key] = generic.NewIndirectObject(objNum, gen, obj)
}

// RootRef returns the root catalog reference.
func (w *IncrementalPdfFileWriter) RootRef() generic.Reference {
	return w.rootRef
}

// NextObjectNumber returns the next available object number.
func (w *IncrementalPdfFileWriter) NextObjectNumber() int {
	return w.nextObjNum
}

// HasChanges returns true if there are pending changes.
func (w *IncrementalPdfFileWriter) HasChanges() bool {
	return len(w.Objects) > 0
}

// StreamXRefs returns true if using xref streams.
func (w *IncrementalPdfFileWriter) StreamXRefs() bool {
	return w.streamXRefs
}

// SetStreamXRefs sets whether to use xref streams.
func (w *IncrementalPdfFileWriter) SetStreamXRefs(use bool) {
	w.streamXRefs = use && !w.fullXRef
}

// PageResources returns the effective resource dictionary of a page as the
// update currently sees it. The result must not be modified.
func (w *IncrementalPdfFileWriter) PageResources(pageIndex int) (*generic.DictionaryObject, error) {
	if page, ok := w.pages[pageIndex]; ok {
		return w.resolveDict(page.Get("Resources"))
	}
	p, err := w.Reader.GetPage(pageIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrPageOutOfRange, pageIndex)
	}
	return w.resolveDict(p.Resources)
}

// pageForUpdate returns the page dictionary that will be written for the
// page, creating it from the reader's copy on first use. Inherited
// attributes the update touches are materialized on the page itself.
func (w *IncrementalPdfFileWriter) pageForUpdate(pageIndex int) (*generic.DictionaryObject, generic.Reference, error) {
	p, err := w.Reader.GetPage(pageIndex)
	if err != nil {
		return nil, generic.Reference{}, fmt.Errorf("%w: %d", ErrPageOutOfRange, pageIndex)
	}
	if p.Ref.ObjectNumber == 0 {
		return nil, generic.Reference{}, fmt.Errorf("%w: page %d", ErrPageNotInFile, pageIndex)
	}
	if page, ok := w.pages[pageIndex]; ok {
		return page, p.Ref, nil
	}

	page := p.Dict.Clone().(*generic.DictionaryObject)
	res, err := w.resolveDict(p.Resources)
	if err != nil {
		return nil, generic.Reference{}, err
	}
	if res != nil {
		page.Set("Resources", res.Clone())
	} else {
		page.Set("Resources", generic.NewDictionary())
	}

	w.pages[pageIndex] = page
	w.UpdateObject(p.Ref.ObjectNumber, page)
	return page, p.Ref, nil
}

func (w *IncrementalPdfFileWriter) resolveDict(obj generic.PdfObject) (*generic.DictionaryObject, error) {
	if obj == nil {
		return nil, nil
	}
	resolved, err := w.Resolve(obj)
	if err != nil {
		return nil, err
	}
	d, _ := resolved.(*generic.DictionaryObject)
	return d, nil
}

// contentArray returns the page's /Contents as a list of stream
// references. An indirect array is flattened.
func (w *IncrementalPdfFileWriter) contentArray(page *generic.DictionaryObject) (generic.ArrayObject, error) {
	switch c := page.Get("Contents").(type) {
	case nil:
		return generic.ArrayObject{}, nil
	case generic.ArrayObject:
		return append(generic.ArrayObject{}, c...), nil
	case generic.Reference:
		resolved, err := w.GetObject(c.ObjectNumber)
		if err != nil {
			return nil, fmt.Errorf("page contents: %w", err)
		}
		if arr, ok := resolved.(generic.ArrayObject); ok {
			return append(generic.ArrayObject{}, arr...), nil
		}
		return generic.ArrayObject{c}, nil
	default:
		return nil, fmt.Errorf("unexpected /Contents type %T", c)
	}
}

// AddStreamToPage adds a content stream to a page, optionally prepending it.
// If resources is provided, its categories are merged into the page's
// resources. Returns a reference to the page.
func (w *IncrementalPdfFileWriter) AddStreamToPage(pageIndex int, streamRef generic.Reference, resources *generic.DictionaryObject, prepend bool) (generic.Reference, error) {
	page, pageRef, err := w.pageForUpdate(pageIndex)
	if err != nil {
		return generic.Reference{}, err
	}

	contents, err := w.contentArray(page)
	if err != nil {
		return generic.Reference{}, err
	}
	if prepend {
		contents = append(generic.ArrayObject{streamRef}, contents...)
	} else {
		contents = append(contents, streamRef)
	}
	page.Set("Contents", contents)

	if resources != nil {
		if err := w.mergeResources(page, resources); err != nil {
			return generic.Reference{}, err
		}
	}
	return pageRef, nil
}

// AddResource registers a single named resource on a page without touching
// its content.
func (w *IncrementalPdfFileWriter) AddResource(pageIndex int, category, name string, value generic.PdfObject) error {
	page, _, err := w.pageForUpdate(pageIndex)
	if err != nil {
		return err
	}
	res := generic.NewDictionary()
	entry := generic.NewDictionary()
	entry.Set(name, value)
	res.Set(category, entry)
	return w.mergeResources(page, res)
}

func (w *IncrementalPdfFileWriter) mergeResources(page *generic.DictionaryObject, resources *generic.DictionaryObject) error {
	pageResources := page.GetDict("Resources")
	for _, key := range resources.Keys() {
		resVal := resources.Get(key)
		resDict, ok := resVal.(*generic.DictionaryObject)
		if !ok {
			pageResources.Set(key, resVal)
			continue
		}
		existing, err := w.resolveDict(pageResources.Get(key))
		if err != nil {
			return fmt.Errorf("resources /%s: %w", key, err)
		}
		if existing == nil {
			existing = generic.NewDictionary()
		} else {
			existing = existing.Clone().(*generic.DictionaryObject)
		}
		for _, k := range resDict.Keys() {
			existing.Set(k, resDict.Get(k))
		}
		pageResources.Set(key, existing)
	}
	return nil
}

// DocumentID returns the /ID pair written with the update. The first part
// is preserved from the input when present; the second part is derived
// from the original bytes and the serialized update so identical updates
// produce identical files.
func (w *IncrementalPdfFileWriter) DocumentID(body []byte) generic.ArrayObject {
	var id1 []byte
	if idArray := w.Reader.Trailer.GetArray("ID"); len(idArray) >= 1 {
		if str, ok := idArray[0].(*generic.StringObject); ok {
			id1 = str.Value
		}
	}
	if id1 == nil {
		sum := md5.Sum(w.originalData)
		id1 = sum[:]
	}

	h := md5.New()
	h.Write(w.originalData)
	h.Write(body)
	id2 := h.Sum(nil)

	return generic.ArrayObject{generic.NewHexString(id1), generic.NewHexString(id2)}
}

// populateTrailer fills the entries an update trailer carries. Keys
// specific to the previous section (xref stream fields, XRefStm) are not
// copied.
func (w *IncrementalPdfFileWriter) populateTrailer(trailer *generic.DictionaryObject, body []byte) {
	trailer.Set("Size", generic.IntegerObject(w.nextObjNum))
	if !w.fullXRef && len(w.Reader.XRefOffsets) > 0 {
		trailer.Set("Prev", generic.IntegerObject(w.Reader.XRefOffsets[0]))
	}
	trailer.Set("Root", w.rootRef)
	if w.infoRef != nil {
		trailer.Set("Info", *w.infoRef)
	}
	trailer.Set("ID", w.DocumentID(body))
}

// Write writes the original bytes followed by the update. Without changes
// the original bytes are written unchanged.
func (w *IncrementalPdfFileWriter) Write(out io.Writer) error {
	if len(w.Objects) == 0 {
		_, err := out.Write(w.originalData)
		return err
	}
	if w.rootRef.ObjectNumber == 0 {
		return ErrNoRoot
	}

	var buf bytes.Buffer
	buf.Write(w.originalData)
	// An update must start on a fresh line.
	if n := len(w.originalData); n > 0 && w.originalData[n-1] != '\n' && w.originalData[n-1] != '\r' {
		buf.WriteByte('\n')
	}
	bodyStart := buf.Len()

	keys := make([]ObjectKey, 0, len(w.Objects))
	for k := range w.Objects {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ObjectNumber != keys[j].ObjectNumber {
			return keys[i].ObjectNumber < keys[j].ObjectNumber
		}
		return keys[i].Generation < keys[j].Generation
	})

	offsets := make(map[int]xrefRow, len(keys))
	for _, key := range keys {
		obj := w.Objects[key]
		offsets[key.ObjectNumber] = xrefRow{offset: int64(buf.Len()), gen: key.Generation}
		if err := obj.Write(&buf); err != nil {
			return fmt.Errorf("failed to write object %d: %w", key.ObjectNumber, err)
		}
	}
	body := buf.Bytes()[bodyStart:]

	xrefOffset := int64(buf.Len())
	var err error
	if w.streamXRefs {
		err = w.writeXRefStream(&buf, offsets, xrefOffset, body)
	} else {
		err = w.writeXRefTable(&buf, offsets, xrefOffset, body)
	}
	if err != nil {
		return err
	}

	_, err = out.Write(buf.Bytes())
	return err
}

type xrefRow struct {
	offset int64
	gen    int
}

// tableRows returns the rows of the section being written. A full table
// also lists every object still found at its original offset.
func (w *IncrementalPdfFileWriter) tableRows(offsets map[int]xrefRow) map[int]xrefRow {
	if !w.fullXRef {
		return offsets
	}
	rows := make(map[int]xrefRow, len(w.Reader.XRef)+len(offsets))
	for num, e := range w.Reader.XRef {
		if e.InUse && !e.InObjectStream() {
			rows[num] = xrefRow{offset: e.Offset, gen: e.Generation}
		}
	}
	for num, row := range offsets {
		rows[num] = row
	}
	return rows
}

type subsection struct {
	start int
	nums  []int
}

func subsections(nums []int) []subsection {
	sort.Ints(nums)
	var subs []subsection
	for _, n := range nums {
		if len(subs) > 0 {
			cur := &subs[len(subs)-1]
			if n == cur.start+len(cur.nums) {
				cur.nums = append(cur.nums, n)
				continue
			}
		}
		subs = append(subs, subsection{start: n, nums: []int{n}})
	}
	return subs
}

// writeXRefTable writes a traditional xref table.
func (w *IncrementalPdfFileWriter) writeXRefTable(buf *bytes.Buffer, offsets map[int]xrefRow, xrefOffset int64, body []byte) error {
	rows := w.tableRows(offsets)
	nums := make([]int, 0, len(rows)+1)
	for n := range rows {
		nums = append(nums, n)
	}
	if w.fullXRef {
		nums = append(nums, 0)
	}

	buf.WriteString("xref\n")
	for _, sub := range subsections(nums) {
		fmt.Fprintf(buf, "%d %d\n", sub.start, len(sub.nums))
		for _, n := range sub.nums {
			if n == 0 {
				buf.WriteString("0000000000 65535 f \n")
				continue
			}
			fmt.Fprintf(buf, "%010d %05d n \n", rows[n].offset, rows[n].gen)
		}
	}

	trailer := generic.NewDictionary()
	w.populateTrailer(trailer, body)

	buf.WriteString("trailer\n")
	if err := trailer.Write(buf); err != nil {
		return err
	}
	fmt.Fprintf(buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	return nil
}

// writeXRefStream writes the section as a cross-reference stream with
// /W [1 4 2]. The stream lists itself.
func (w *IncrementalPdfFileWriter) writeXRefStream(buf *bytes.Buffer, offsets map[int]xrefRow, xrefOffset int64, body []byte) error {
	selfNum := w.nextObjNum
	w.nextObjNum++
	defer func() { w.nextObjNum-- }()

	rows := make(map[int]xrefRow, len(offsets)+1)
	for n, row := range offsets {
		rows[n] = row
	}
	rows[selfNum] = xrefRow{offset: xrefOffset}

	nums := make([]int, 0, len(rows))
	for n := range rows {
		nums = append(nums, n)
	}
	var index generic.ArrayObject
	var data bytes.Buffer
	for _, sub := range subsections(nums) {
		index = append(index, generic.IntegerObject(sub.start), generic.IntegerObject(len(sub.nums)))
		for _, n := range sub.nums {
			off, gen := rows[n].offset, rows[n].gen
			data.Write([]byte{1, byte(off >> 24), byte(off >> 16), byte(off >> 8), byte(off), byte(gen >> 8), byte(gen)})
		}
	}

	encoded, err := filters.EncodeFlate(data.Bytes())
	if err != nil {
		return fmt.Errorf("xref stream: %w", err)
	}

	dict := generic.NewDictionary()
	dict.Set("Type", generic.NameObject("XRef"))
	w.populateTrailer(dict, body)
	dict.Set("Index", index)
	dict.Set("W", generic.NewArray(generic.IntegerObject(1), generic.IntegerObject(4), generic.IntegerObject(2)))
	dict.Set("Filter", generic.NameObject("FlateDecode"))

	stream := generic.NewStream(dict, encoded)
	if err := generic.NewIndirectObject(selfNum, 0, stream).Write(buf); err != nil {
		return err
	}
	fmt.Fprintf(buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)
	return nil
}
