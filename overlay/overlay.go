package overlay

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/fogleman/gg"

	"github.com/em0-omg/pdf-highlight-api/llm"
)

// Supported highlight shapes.
const (
	ShapeRect   = "rect"
	ShapeCircle = "circle"
)

// Highlighter yellow, translucent enough to keep text readable.
const (
	fillR, fillG, fillB, fillA = 1.0, 0.85, 0.0, 0.28
	edgeR, edgeG, edgeB, edgeA = 0.95, 0.65, 0.0, 0.9
	strokeWidth                = 3.0
)

// ValidShape reports whether s is a supported highlight shape.
func ValidShape(s string) bool {
	return s == ShapeRect || s == ShapeCircle
}

// ToPixels converts a normalized 0..1000 box to pixel coordinates on an
// image of the given size. Returns x, y of the top-left corner plus width
// and height.
func ToPixels(box llm.Box, imgW, imgH int) (x, y, w, h float64) {
	x = box.XMin / 1000 * float64(imgW)
	y = box.YMin / 1000 * float64(imgH)
	w = (box.XMax - box.XMin) / 1000 * float64(imgW)
	h = (box.YMax - box.YMin) / 1000 * float64(imgH)
	return x, y, w, h
}

// DrawDetections paints highlights over a rendered page and re-encodes it
// as PNG. Detections for other pages must be filtered out by the caller.
func DrawDetections(pagePNG []byte, dets []llm.Detection, shape string) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(pagePNG))
	if err != nil {
		return nil, fmt.Errorf("decode page png: %w", err)
	}

	dc := gg.NewContextForImage(img)
	paint(dc, dets, shape, dc.Width(), dc.Height())

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode highlighted png: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildStamp renders highlights on a transparent canvas of the given size,
// for stamping into a PDF page as a watermark image.
func BuildStamp(width, height int, dets []llm.Detection, shape string) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid stamp size %dx%d", width, height)
	}

	dc := gg.NewContext(width, height)
	paint(dc, dets, shape, width, height)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode stamp png: %w", err)
	}
	return buf.Bytes(), nil
}

func paint(dc *gg.Context, dets []llm.Detection, shape string, imgW, imgH int) {
	for _, det := range dets {
		x, y, w, h := ToPixels(det.Box, imgW, imgH)
		if w <= 0 || h <= 0 {
			continue
		}

		switch shape {
		case ShapeCircle:
			cx, cy := x+w/2, y+h/2
			r := maxf(w, h) / 2
			dc.SetRGBA(fillR, fillG, fillB, fillA)
			dc.DrawCircle(cx, cy, r)
			dc.Fill()
			dc.SetRGBA(edgeR, edgeG, edgeB, edgeA)
			dc.SetLineWidth(strokeWidth)
			dc.DrawCircle(cx, cy, r)
			dc.Stroke()
		default:
			dc.SetRGBA(fillR, fillG, fillB, fillA)
			dc.DrawRectangle(x, y, w, h)
			dc.Fill()
			dc.SetRGBA(edgeR, edgeG, edgeB, edgeA)
			dc.SetLineWidth(strokeWidth)
			dc.DrawRectangle(x, y, w, h)
			dc.Stroke()
		}
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
