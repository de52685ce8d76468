package writer

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"time"

	"github.com/georgepadayatti/pdfburn/pdf/filters"
	"github.com/georgepadayatti/pdfburn/pdf/generic"
)

// PdfFileWriter creates new PDF files. Output is a pure function of the
// calls made on the writer: the file ID is derived from the body and no
// creation date is written unless one is set.
type PdfFileWriter struct {
	Version    string
	Objects    map[int]*generic.IndirectObject
	nextObjNum int
	Root       *generic.DictionaryObject
	Info       *generic.DictionaryObject
	Pages      *generic.DictionaryObject
	pagesRef   generic.Reference
	rootRef    generic.Reference
	infoRef    generic.Reference
	fonts      map[string]generic.Reference

	// Compress stores page content with /FlateDecode.
	Compress bool
}

// NewPdfFileWriter creates a new PDF writer.
func NewPdfFileWriter(version string) *PdfFileWriter {
	if version == "" {
		version = "1.7"
	}

	w := &PdfFileWriter{
		Version:    version,
		Objects:    make(map[int]*generic.IndirectObject),
		nextObjNum: 1,
		fonts:      make(map[string]generic.Reference),
		Compress:   true,
	}

	w.Pages = generic.NewDictionary()
	w.Pages.Set("Type", generic.NameObject("Pages"))
	w.Pages.Set("Kids", generic.ArrayObject{})
	w.Pages.Set("Count", generic.IntegerObject(0))
	w.pagesRef = w.AddObject(w.Pages)

	w.Root = generic.NewDictionary()
	w.Root.Set("Type", generic.NameObject("Catalog"))
	w.Root.Set("Pages", w.pagesRef)
	w.rootRef = w.AddObject(w.Root)

	w.Info = generic.NewDictionary()
	w.Info.Set("Producer", generic.NewLiteralString("pdfburn"))
	w.infoRef = w.AddObject(w.Info)

	return w
}

// SetCreationDate records a creation date in the info dictionary.
func (w *PdfFileWriter) SetCreationDate(t time.Time) {
	w.Info.Set("CreationDate", generic.NewLiteralString(formatPdfDate(t)))
}

// AddObject adds an object and returns its reference.
func (w *PdfFileWriter) AddObject(obj generic.PdfObject) generic.Reference {
	objNum := w.nextObjNum
	w.nextObjNum++

	w.Objects[objNum] = generic.NewIndirectObject(objNum, 0, obj)
	return generic.Reference{ObjectNumber: objNum, GenerationNumber: 0}
}

// AddStandardFont adds (once) a Type1 standard font dictionary and returns
// its reference.
func (w *PdfFileWriter) AddStandardFont(baseFont string) generic.Reference {
	if ref, ok := w.fonts[baseFont]; ok {
		return ref
	}
	font := generic.NewDictionary()
	font.Set("Type", generic.NameObject("Font"))
	font.Set("Subtype", generic.NameObject("Type1"))
	font.Set("BaseFont", generic.NameObject(baseFont))
	font.Set("Encoding", generic.NameObject("WinAnsiEncoding"))
	ref := w.AddObject(font)
	w.fonts[baseFont] = ref
	return ref
}

// AddPage adds a page to the document. contents may be nil.
func (w *PdfFileWriter) AddPage(mediaBox *generic.Rectangle, contents []byte) generic.Reference {
	return w.AddPageWithResources(mediaBox, contents, nil)
}

// AddPageWithResources adds a page with its own resource dictionary.
func (w *PdfFileWriter) AddPageWithResources(mediaBox *generic.Rectangle, contents []byte, resources *generic.DictionaryObject) generic.Reference {
	page := generic.NewDictionary()
	page.Set("Type", generic.NameObject("Page"))
	page.Set("Parent", w.pagesRef)
	page.Set("MediaBox", mediaBox.ToArray())
	if resources == nil {
		resources = generic.NewDictionary()
	}
	page.Set("Resources", resources)

	if contents != nil {
		stream := generic.NewStream(nil, contents)
		if w.Compress {
			if encoded, err := filters.EncodeFlate(contents); err == nil {
				stream.Data = encoded
				stream.Dictionary.Set("Filter", generic.NameObject("FlateDecode"))
			}
		}
		page.Set("Contents", w.AddObject(stream))
	}

	pageRef := w.AddObject(page)

	kids := append(w.Pages.GetArray("Kids"), pageRef)
	w.Pages.Set("Kids", kids)
	w.Pages.Set("Count", generic.IntegerObject(len(kids)))

	return pageRef
}

// Write writes the PDF to the given writer.
func (w *PdfFileWriter) Write(out io.Writer) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%%PDF-%s\n", w.Version)
	// Binary marker comment
	buf.Write([]byte{0x25, 0xE2, 0xE3, 0xCF, 0xD3, 0x0A})

	bodyStart := buf.Len()
	offsets := make([]int64, w.nextObjNum)
	for objNum := 1; objNum < w.nextObjNum; objNum++ {
		obj := w.Objects[objNum]
		if obj == nil {
			continue
		}
		offsets[objNum] = int64(buf.Len())
		if err := obj.Write(&buf); err != nil {
			return fmt.Errorf("failed to write object %d: %w", objNum, err)
		}
	}
	fileID := md5.Sum(buf.Bytes()[bodyStart:])

	xrefOffset := int64(buf.Len())
	fmt.Fprintf(&buf, "xref\n0 %d\n", w.nextObjNum)
	buf.WriteString("0000000000 65535 f \n")
	for objNum := 1; objNum < w.nextObjNum; objNum++ {
		fmt.Fprintf(&buf, "%010d %05d n \n", offsets[objNum], 0)
	}

	trailer := generic.NewDictionary()
	trailer.Set("Size", generic.IntegerObject(w.nextObjNum))
	trailer.Set("Root", w.rootRef)
	trailer.Set("Info", w.infoRef)
	trailer.Set("ID", generic.ArrayObject{
		generic.NewHexString(fileID[:]),
		generic.NewHexString(fileID[:]),
	})

	buf.WriteString("trailer\n")
	if err := trailer.Write(&buf); err != nil {
		return err
	}
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)

	_, err := out.Write(buf.Bytes())
	return err
}

// Bytes renders the document into memory.
func (w *PdfFileWriter) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := w.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatPdfDate formats a time as a PDF date string.
func formatPdfDate(t time.Time) string {
	_, offset := t.Zone()
	offsetHours := offset / 3600
	offsetMinutes := (offset % 3600) / 60

	sign := "+"
	if offset < 0 {
		sign = "-"
		offsetHours = -offsetHours
		offsetMinutes = -offsetMinutes
	}

	return fmt.Sprintf("D:%04d%02d%02d%02d%02d%02d%s%02d'%02d'",
		t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(),
		sign, offsetHours, offsetMinutes)
}
