// Package images turns data-URL image payloads into PDF image XObjects.
package images

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	"golang.org/x/image/draw"

	"github.com/georgepadayatti/pdfburn/pdf/filters"
	"github.com/georgepadayatti/pdfburn/pdf/generic"
)

// Common errors
var (
	ErrInvalidDataURL    = errors.New("invalid data URL")
	ErrInvalidImage      = errors.New("invalid image data")
	ErrDecodeFailed      = errors.New("image decode failed")
	ErrInvalidDimensions = errors.New("invalid image dimensions")
)

// ColorSpace represents a PDF color space.
type ColorSpace string

const (
	ColorSpaceGray ColorSpace = "DeviceGray"
	ColorSpaceRGB  ColorSpace = "DeviceRGB"
	ColorSpaceCMYK ColorSpace = "DeviceCMYK"
)

// ImageFormat represents an image format.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "PNG"
	FormatJPEG ImageFormat = "JPEG"
)

// jpegQuality is used when a JPEG has to be re-encoded after downscaling.
const jpegQuality = 90

// maxOversize bounds how far past the pixel budget a PNG may be before it
// is rejected instead of decoded and downscaled.
const maxOversize = 16

// PDFImage represents an image ready for PDF embedding.
type PDFImage struct {
	Width            int
	Height           int
	BitsPerComponent int
	ColorSpace       ColorSpace
	Components       int
	// Data is the stream payload, already filtered with Filter.
	Data   []byte
	Filter string
	// AlphaData is the Flate-compressed 8-bit soft mask, nil when the
	// image is opaque.
	AlphaData      []byte
	OriginalFormat ImageFormat
}

// HasAlpha returns true if the image carries a soft mask.
func (img *PDFImage) HasAlpha() bool {
	return len(img.AlphaData) > 0
}

// DataURL is a parsed `data:` URL.
type DataURL struct {
	MediaType string
	Format    ImageFormat
	Payload   []byte
}

// ParseDataURL splits a data URL into its media type and base64 payload.
// The format is JPEG when the URL starts with data:image/jpeg or
// data:image/jpg and PNG otherwise; the payload is everything after the
// first comma.
func ParseDataURL(s string) (*DataURL, error) {
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return nil, fmt.Errorf("%w: no comma separator", ErrInvalidDataURL)
	}

	u := &DataURL{Format: FormatPNG}
	if strings.HasPrefix(s, "data:image/jpeg") || strings.HasPrefix(s, "data:image/jpg") {
		u.Format = FormatJPEG
	}
	if header, ok := strings.CutPrefix(s[:comma], "data:"); ok {
		u.MediaType, _, _ = strings.Cut(header, ";")
	}

	payload, err := decodeBase64(s[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidDataURL)
	}
	u.Payload = payload
	return u, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
	if strings.HasSuffix(s, "=") || len(s)%4 == 0 {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// NewPDFImageFromDataURL decodes a data URL into an embeddable image.
// Images with more than maxPixels pixels are downscaled first; zero
// disables the limit.
func NewPDFImageFromDataURL(s string, maxPixels int) (*PDFImage, error) {
	u, err := ParseDataURL(s)
	if err != nil {
		return nil, err
	}
	return NewPDFImageFromBytes(u.Format, u.Payload, maxPixels)
}

// NewPDFImageFromBytes decodes raw image bytes of the given format.
func NewPDFImageFromBytes(format ImageFormat, data []byte, maxPixels int) (*PDFImage, error) {
	switch format {
	case FormatJPEG:
		return decodeJPEG(data, maxPixels)
	case FormatPNG:
		return decodePNG(data, maxPixels)
	default:
		return nil, fmt.Errorf("%w: format %q", ErrInvalidImage, format)
	}
}

// decodeJPEG keeps the JPEG bytes as a DCTDecode stream unless the image
// must be downscaled.
func decodeJPEG(data []byte, maxPixels int) (*PDFImage, error) {
	config, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if config.Width <= 0 || config.Height <= 0 {
		return nil, ErrInvalidDimensions
	}

	if exceeds(config.Width, config.Height, maxPixels) {
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, Downscale(img, maxPixels), &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
		return decodeJPEG(buf.Bytes(), 0)
	}

	var colorSpace ColorSpace
	var components int
	switch config.ColorModel {
	case color.GrayModel:
		colorSpace = ColorSpaceGray
		components = 1
	case color.CMYKModel:
		colorSpace = ColorSpaceCMYK
		components = 4
	default:
		colorSpace = ColorSpaceRGB
		components = 3
	}

	return &PDFImage{
		Width:            config.Width,
		Height:           config.Height,
		BitsPerComponent: 8,
		ColorSpace:       colorSpace,
		Components:       components,
		Data:             data,
		Filter:           "DCTDecode",
		OriginalFormat:   FormatJPEG,
	}, nil
}

func decodePNG(data []byte, maxPixels int) (*PDFImage, error) {
	config, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if config.Width <= 0 || config.Height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if exceeds(config.Width, config.Height, maxPixels*maxOversize) {
		return nil, fmt.Errorf("%w: %dx%d is far above the %d pixel limit",
			ErrInvalidDimensions, config.Width, config.Height, maxPixels)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	b := img.Bounds()
	if exceeds(b.Dx(), b.Dy(), maxPixels) {
		img = Downscale(img, maxPixels)
	}

	pdfImg, err := NewPDFImageFromImage(img)
	if err != nil {
		return nil, err
	}
	pdfImg.OriginalFormat = FormatPNG
	return pdfImg, nil
}

func exceeds(w, h, maxPixels int) bool {
	return maxPixels > 0 && w*h > maxPixels
}

// Downscale resamples img with Catmull-Rom so that it has at most maxPixels
// pixels, keeping the aspect ratio.
func Downscale(img image.Image, maxPixels int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if !exceeds(w, h, maxPixels) {
		return img
	}

	scale := math.Sqrt(float64(maxPixels) / float64(w*h))
	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))

	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// NewPDFImageFromImage creates a Flate-compressed PDFImage from a Go image.
// Non-opaque images get a soft mask.
func NewPDFImageFromImage(img image.Image) (*PDFImage, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}

	colorSpace := ColorSpaceRGB
	components := 3
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		colorSpace = ColorSpaceGray
		components = 1
	}

	hasAlpha := false
	if o, ok := img.(interface{ Opaque() bool }); ok {
		hasAlpha = !o.Opaque()
	}

	pixelData := make([]byte, 0, width*height*components)
	var alphaData []byte
	if hasAlpha {
		alphaData = make([]byte, 0, width*height)
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if colorSpace == ColorSpaceGray {
				pixelData = append(pixelData, c.R)
			} else {
				pixelData = append(pixelData, c.R, c.G, c.B)
			}
			if hasAlpha {
				alphaData = append(alphaData, c.A)
			}
		}
	}

	compressed, err := filters.EncodeFlate(pixelData)
	if err != nil {
		return nil, err
	}

	pdfImg := &PDFImage{
		Width:            width,
		Height:           height,
		BitsPerComponent: 8,
		ColorSpace:       colorSpace,
		Components:       components,
		Data:             compressed,
		Filter:           "FlateDecode",
	}

	if hasAlpha {
		compressedAlpha, err := filters.EncodeFlate(alphaData)
		if err != nil {
			return nil, err
		}
		pdfImg.AlphaData = compressedAlpha
	}

	return pdfImg, nil
}

func (img *PDFImage) baseDictionary() *generic.DictionaryObject {
	dict := generic.NewDictionary()
	dict.Set("Type", generic.NameObject("XObject"))
	dict.Set("Subtype", generic.NameObject("Image"))
	dict.Set("Width", generic.IntegerObject(img.Width))
	dict.Set("Height", generic.IntegerObject(img.Height))
	dict.Set("BitsPerComponent", generic.IntegerObject(img.BitsPerComponent))
	return dict
}

// XObject returns the image XObject stream. smask, when non-nil, is set as
// the /SMask entry.
func (img *PDFImage) XObject(smask *generic.Reference) *generic.StreamObject {
	dict := img.baseDictionary()
	dict.Set("ColorSpace", generic.NameObject(img.ColorSpace))
	dict.Set("Filter", generic.NameObject(img.Filter))
	if img.ColorSpace == ColorSpaceCMYK && img.Filter == "DCTDecode" {
		// CMYK JPEGs are stored inverted
		dict.Set("Decode", generic.NewArray(
			generic.IntegerObject(1), generic.IntegerObject(0),
			generic.IntegerObject(1), generic.IntegerObject(0),
			generic.IntegerObject(1), generic.IntegerObject(0),
			generic.IntegerObject(1), generic.IntegerObject(0),
		))
	}
	if smask != nil {
		dict.Set("SMask", *smask)
	}
	return generic.NewStream(dict, img.Data)
}

// MaskXObject returns the soft mask stream, or nil for opaque images.
func (img *PDFImage) MaskXObject() *generic.StreamObject {
	if !img.HasAlpha() {
		return nil
	}
	dict := img.baseDictionary()
	dict.Set("ColorSpace", generic.NameObject(ColorSpaceGray))
	dict.Set("Filter", generic.NameObject("FlateDecode"))
	return generic.NewStream(dict, img.AlphaData)
}
