package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// ErrNoPages is returned for PDFs that open fine but contain no pages.
var ErrNoPages = errors.New("pdf has no pages")

// DPI bounds. Values outside are clamped, not rejected.
const (
	MinDPI     = 36
	MaxDPI     = 600
	DefaultDPI = 200
)

// PageImage is one rendered page. Number is 1-based.
type PageImage struct {
	Number int
	Width  int
	Height int
	PNG    []byte
}

// ClampDPI normalizes a requested DPI into the supported range.
// Non-positive values take the default.
func ClampDPI(dpi int) int {
	if dpi <= 0 {
		return DefaultDPI
	}
	if dpi < MinDPI {
		return MinDPI
	}
	if dpi > MaxDPI {
		return MaxDPI
	}
	return dpi
}

// RenderPDF rasterizes every page of the PDF to PNG at the given DPI.
func RenderPDF(data []byte, dpi int) ([]PageImage, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	dpi = ClampDPI(dpi)

	pages := make([]PageImage, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.ImageDPI(n, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", n+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", n+1, err)
		}

		bounds := img.Bounds()
		pages = append(pages, PageImage{
			Number: n + 1,
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
			PNG:    buf.Bytes(),
		})
	}

	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	return pages, nil
}
