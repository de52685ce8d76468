package reader

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/georgepadayatti/pdfburn/pdf/filters"
	"github.com/georgepadayatti/pdfburn/pdf/generic"
)

// XRefEntry is one cross-reference entry. Compressed objects carry the
// number of their object stream and their index inside it.
type XRefEntry struct {
	Offset          int64
	Generation      int
	InUse           bool
	ObjectStreamRef int
	IndexInStream   int
}

// InObjectStream reports whether the object lives in an object stream.
func (e *XRefEntry) InObjectStream() bool {
	return e.ObjectStreamRef > 0
}

// parseXRefChain walks startxref -> Prev links, newest first. Entries from
// newer sections win.
func (r *PdfFileReader) parseXRefChain(offset int64) error {
	visited := make(map[int64]bool)
	for offset > 0 {
		if visited[offset] {
			break
		}
		visited[offset] = true
		if offset >= int64(len(r.data)) {
			return fmt.Errorf("%w: xref offset %d out of bounds", ErrInvalidXRef, offset)
		}
		r.XRefOffsets = append(r.XRefOffsets, offset)

		pos := int(offset)
		for pos < len(r.data) && generic.IsWhitespace(r.data[pos]) {
			pos++
		}

		var trailer *generic.TrailerDictionary
		var err error
		if bytes.HasPrefix(r.data[pos:], []byte("xref")) {
			trailer, err = r.parseXRefTable(pos + len("xref"))
		} else {
			trailer, err = r.parseXRefStream(pos)
			r.HasXRefStream = true
		}
		if err != nil {
			return err
		}
		if r.Trailer == nil {
			r.Trailer = trailer
		}

		// Hybrid files point at a supplementary xref stream.
		if stm, ok := trailer.GetInt("XRefStm"); ok && !visited[stm] && stm < int64(len(r.data)) {
			visited[stm] = true
			if _, err := r.parseXRefStream(int(stm)); err != nil {
				return err
			}
		}

		prev, ok := trailer.GetPrev()
		if !ok {
			break
		}
		offset = prev
	}
	if r.Trailer == nil {
		return ErrNoXRef
	}
	return nil
}

func (r *PdfFileReader) addEntry(objNum int, e *XRefEntry) {
	if _, exists := r.XRef[objNum]; !exists {
		r.XRef[objNum] = e
	}
}

// parseXRefTable parses a classic table starting right after "xref".
func (r *PdfFileReader) parseXRefTable(pos int) (*generic.TrailerDictionary, error) {
	for {
		skip(r.data, &pos)
		if bytes.HasPrefix(r.data[pos:], []byte("trailer")) {
			pos += len("trailer")
			break
		}
		start, count, ok := readTwoInts(r.data, &pos)
		if !ok {
			return nil, fmt.Errorf("%w: bad subsection header at %d", ErrInvalidXRef, pos)
		}
		for i := 0; i < count; i++ {
			skip(r.data, &pos)
			if pos+18 > len(r.data) {
				return nil, fmt.Errorf("%w: truncated xref entry", ErrInvalidXRef)
			}
			line := r.data[pos : pos+18]
			off, err1 := strconv.ParseInt(string(bytes.TrimSpace(line[:10])), 10, 64)
			gen, err2 := strconv.Atoi(string(bytes.TrimSpace(line[11:16])))
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("%w: bad entry %q", ErrInvalidXRef, line)
			}
			r.addEntry(start+i, &XRefEntry{Offset: off, Generation: gen, InUse: line[17] == 'n'})
			pos += 18
		}
	}

	obj, err := generic.NewParserFromBytes(r.data[pos:]).ParseObject()
	if err != nil {
		return nil, fmt.Errorf("%w: trailer: %v", ErrInvalidXRef, err)
	}
	dict, ok := obj.(*generic.DictionaryObject)
	if !ok {
		return nil, fmt.Errorf("%w: trailer is not a dictionary", ErrInvalidXRef)
	}
	return &generic.TrailerDictionary{DictionaryObject: dict}, nil
}

func skip(data []byte, pos *int) {
	for *pos < len(data) && generic.IsWhitespace(data[*pos]) {
		*pos++
	}
}

func readTwoInts(data []byte, pos *int) (int, int, bool) {
	var vals [2]int
	for i := range vals {
		for *pos < len(data) && (data[*pos] == ' ' || data[*pos] == '\t') {
			*pos++
		}
		start := *pos
		for *pos < len(data) && data[*pos] >= '0' && data[*pos] <= '9' {
			*pos++
		}
		if start == *pos {
			return 0, 0, false
		}
		vals[i], _ = strconv.Atoi(string(data[start:*pos]))
	}
	return vals[0], vals[1], true
}

// parseXRefStream parses a cross-reference stream object at pos.
func (r *PdfFileReader) parseXRefStream(pos int) (*generic.TrailerDictionary, error) {
	ind, err := r.newParser(pos).ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("%w: xref stream: %v", ErrInvalidXRef, err)
	}
	stream, ok := ind.Object.(*generic.StreamObject)
	if !ok || stream.Dictionary.GetName("Type") != "XRef" {
		return nil, fmt.Errorf("%w: expected xref stream at %d", ErrInvalidXRef, pos)
	}
	data, err := filters.DecodeStream(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: xref stream: %v", ErrInvalidXRef, err)
	}

	dict := stream.Dictionary
	wArr := dict.GetArray("W")
	if len(wArr) != 3 {
		return nil, fmt.Errorf("%w: invalid /W", ErrInvalidXRef)
	}
	var w [3]int
	for i, v := range wArr {
		n, _ := v.(generic.IntegerObject)
		w[i] = int(n)
	}
	entrySize := w[0] + w[1] + w[2]
	if entrySize == 0 {
		return nil, fmt.Errorf("%w: zero entry size", ErrInvalidXRef)
	}

	var index []int
	for _, v := range dict.GetArray("Index") {
		if n, ok := v.(generic.IntegerObject); ok {
			index = append(index, int(n))
		}
	}
	if len(index) == 0 {
		size, _ := dict.GetInt("Size")
		index = []int{0, int(size)}
	}

	at := 0
	for i := 0; i+1 < len(index); i += 2 {
		for j := 0; j < index[i+1] && at+entrySize <= len(data); j++ {
			rec := data[at : at+entrySize]
			at += entrySize
			typ := field(rec, 0, w[0])
			if w[0] == 0 {
				typ = 1
			}
			f2, f3 := field(rec, w[0], w[1]), field(rec, w[0]+w[1], w[2])
			var e *XRefEntry
			switch typ {
			case 0:
				e = &XRefEntry{InUse: false, Generation: int(f3)}
			case 1:
				e = &XRefEntry{Offset: f2, Generation: int(f3), InUse: true}
			case 2:
				e = &XRefEntry{ObjectStreamRef: int(f2), IndexInStream: int(f3), InUse: true}
			default:
				continue
			}
			r.addEntry(index[i]+j, e)
		}
	}
	return &generic.TrailerDictionary{DictionaryObject: dict}, nil
}

func field(rec []byte, start, width int) int64 {
	var v int64
	for i := 0; i < width; i++ {
		v = v<<8 | int64(rec[start+i])
	}
	return v
}

var objHeader = regexp.MustCompile(`(?m)(?:^|\s)(\d+)\s+(\d+)\s+obj\b`)

// rebuildXRef reconstructs the table by scanning for object headers. It is
// used when the cross-reference data is missing or broken. Later
// definitions of an object number replace earlier ones, as an incremental
// update would.
func (r *PdfFileReader) rebuildXRef() error {
	r.XRef = make(map[int]*XRefEntry)
	r.objects = make(map[int]generic.PdfObject)
	for _, m := range objHeader.FindAllSubmatchIndex(r.data, -1) {
		num, err1 := strconv.Atoi(string(r.data[m[2]:m[3]]))
		gen, err2 := strconv.Atoi(string(r.data[m[4]:m[5]]))
		if err1 != nil || err2 != nil {
			continue
		}
		r.XRef[num] = &XRefEntry{Offset: int64(m[2]), Generation: gen, InUse: true}
	}
	if len(r.XRef) == 0 {
		return ErrNoXRef
	}

	if i := bytes.LastIndex(r.data, []byte("trailer")); i >= 0 {
		obj, err := generic.NewParserFromBytes(r.data[i+len("trailer"):]).ParseObject()
		if dict, ok := obj.(*generic.DictionaryObject); err == nil && ok && dict.Has("Root") {
			r.Trailer = &generic.TrailerDictionary{DictionaryObject: dict}
			return nil
		}
	}

	// No usable trailer: find the catalog.
	trailer := generic.NewDictionary()
	for num := range r.XRef {
		obj, err := r.GetObject(num)
		if err != nil {
			continue
		}
		if d, ok := obj.(*generic.DictionaryObject); ok && d.GetName("Type") == "Catalog" {
			if cur, ok := trailer.Get("Root").(generic.Reference); !ok || num > cur.ObjectNumber {
				trailer.Set("Root", generic.NewReference(num, r.XRef[num].Generation))
			}
		}
	}
	if !trailer.Has("Root") {
		return fmt.Errorf("%w: no catalog found", ErrInvalidPDF)
	}
	r.Trailer = &generic.TrailerDictionary{DictionaryObject: trailer}
	return nil
}
