// Package filters implements the PDF stream filters needed to read
// cross-reference streams, object streams and page content.
package filters

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/georgepadayatti/pdfburn/pdf/generic"
)

// Common errors
var (
	ErrUnsupportedFilter = errors.New("unsupported filter")
	ErrDecodeFailed      = errors.New("decode failed")
)

// Decoder reverses one stream filter.
type Decoder interface {
	// Decode decodes data. parms is the filter's /DecodeParms entry and
	// may be nil.
	Decode(data []byte, parms *generic.DictionaryObject) ([]byte, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(data []byte, parms *generic.DictionaryObject) ([]byte, error)

// Decode implements Decoder.
func (f DecoderFunc) Decode(data []byte, parms *generic.DictionaryObject) ([]byte, error) {
	return f(data, parms)
}

// registry maps full and abbreviated filter names to decoders.
var registry = map[string]Decoder{
	"FlateDecode":     DecoderFunc(decodeFlate),
	"Fl":              DecoderFunc(decodeFlate),
	"ASCIIHexDecode":  DecoderFunc(decodeASCIIHex),
	"AHx":             DecoderFunc(decodeASCIIHex),
	"ASCII85Decode":   DecoderFunc(decodeASCII85),
	"A85":             DecoderFunc(decodeASCII85),
	"RunLengthDecode": DecoderFunc(decodeRunLength),
	"RL":              DecoderFunc(decodeRunLength),
}

// Supported reports whether a filter name can be decoded.
func Supported(name string) bool {
	_, ok := registry[name]
	return ok
}

// DecodeStream applies the stream's /Filter chain to its raw data.
func DecodeStream(stream *generic.StreamObject) ([]byte, error) {
	names, parms := filterChain(stream.Dictionary)
	data := stream.Data
	for i, name := range names {
		dec, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFilter, name)
		}
		var err error
		if data, err = dec.Decode(data, parms[i]); err != nil {
			return nil, fmt.Errorf("filter %s: %w", name, err)
		}
	}
	return data, nil
}

func filterChain(dict *generic.DictionaryObject) ([]string, []*generic.DictionaryObject) {
	var names []string
	switch f := dict.Get("Filter").(type) {
	case generic.NameObject:
		names = []string{string(f)}
	case generic.ArrayObject:
		for _, item := range f {
			if n, ok := item.(generic.NameObject); ok {
				names = append(names, string(n))
			}
		}
	}

	parms := make([]*generic.DictionaryObject, len(names))
	switch p := dict.Get("DecodeParms").(type) {
	case *generic.DictionaryObject:
		if len(parms) > 0 {
			parms[0] = p
		}
	case generic.ArrayObject:
		for i := 0; i < len(p) && i < len(parms); i++ {
			parms[i], _ = p[i].(*generic.DictionaryObject)
		}
	}
	return names, parms
}

// EncodeFlate compresses data with zlib for a /FlateDecode stream.
func EncodeFlate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("flate encode failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flate encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeFlate(data []byte, parms *generic.DictionaryObject) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	// Truncated zlib trailers are common; keep what decompressed.
	return applyPredictor(out, parms)
}

func intParm(parms *generic.DictionaryObject, key string, def int) int {
	if parms == nil {
		return def
	}
	if v, ok := parms.GetInt(key); ok {
		return int(v)
	}
	return def
}

// applyPredictor undoes PNG predictors (Predictor >= 10). TIFF predictor 2
// is not used by cross-reference streams and is left untouched.
func applyPredictor(data []byte, parms *generic.DictionaryObject) ([]byte, error) {
	predictor := intParm(parms, "Predictor", 1)
	if predictor < 10 {
		return data, nil
	}
	colors := intParm(parms, "Colors", 1)
	bpc := intParm(parms, "BitsPerComponent", 8)
	columns := intParm(parms, "Columns", 1)

	bpp := (colors*bpc + 7) / 8
	rowLen := (columns*colors*bpc + 7) / 8
	if rowLen <= 0 {
		return nil, fmt.Errorf("%w: bad predictor parameters", ErrDecodeFailed)
	}

	out := make([]byte, 0, len(data))
	prev := make([]byte, rowLen)
	for i := 0; i+rowLen+1 <= len(data); i += rowLen + 1 {
		kind := data[i]
		row := append([]byte(nil), data[i+1:i+1+rowLen]...)
		for j := range row {
			var left, upLeft byte
			if j >= bpp {
				left = row[j-bpp]
				upLeft = prev[j-bpp]
			}
			up := prev[j]
			switch kind {
			case 1:
				row[j] += left
			case 2:
				row[j] += up
			case 3:
				row[j] += byte((int(left) + int(up)) / 2)
			case 4:
				row[j] += paeth(left, up, upLeft)
			}
		}
		out = append(out, row...)
		prev = row
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func decodeASCIIHex(data []byte, _ *generic.DictionaryObject) ([]byte, error) {
	digits := make([]byte, 0, len(data))
	for _, c := range data {
		if c == '>' {
			break
		}
		if !generic.IsWhitespace(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 != 0 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return out, nil
}

func decodeASCII85(data []byte, _ *generic.DictionaryObject) ([]byte, error) {
	data = bytes.TrimPrefix(bytes.TrimSpace(data), []byte("<~"))
	if i := bytes.Index(data, []byte("~>")); i >= 0 {
		data = data[:i]
	}
	out := make([]byte, 4*len(data))
	n, _, err := ascii85.Decode(out, data, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return out[:n], nil
}

func decodeRunLength(data []byte, _ *generic.DictionaryObject) ([]byte, error) {
	var out bytes.Buffer
	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		switch {
		case n == 128:
			return out.Bytes(), nil
		case n < 128:
			if i+n+1 > len(data) {
				return nil, fmt.Errorf("%w: truncated run-length data", ErrDecodeFailed)
			}
			out.Write(data[i : i+n+1])
			i += n + 1
		default:
			if i >= len(data) {
				return nil, fmt.Errorf("%w: truncated run-length data", ErrDecodeFailed)
			}
			out.Write(bytes.Repeat(data[i:i+1], 257-n))
			i++
		}
	}
	return out.Bytes(), nil
}
