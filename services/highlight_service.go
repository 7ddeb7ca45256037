package services

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/em0-omg/pdf-highlight-api/llm"
	"github.com/em0-omg/pdf-highlight-api/logger"
	"github.com/em0-omg/pdf-highlight-api/overlay"
	"github.com/em0-omg/pdf-highlight-api/raster"
)

// HighlightedPage is one rendered page with its highlights applied.
type HighlightedPage struct {
	Page        int             `json:"page"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	ImageBase64 string          `json:"image_base64"`
	Detections  []llm.Detection `json:"detections"`
}

// HighlightResult is the full outcome of a highlight run.
type HighlightResult struct {
	Query           string            `json:"query"`
	Shape           string            `json:"shape"`
	DPI             int               `json:"dpi"`
	Provider        string            `json:"provider"`
	PageCount       int               `json:"page_count"`
	TotalDetections int               `json:"total_detections"`
	Pages           []HighlightedPage `json:"pages"`
}

// HighlightService runs the render, detect, and overlay pipeline.
type HighlightService struct {
	analyzer llm.Analyzer
}

func NewHighlightService(analyzer llm.Analyzer) *HighlightService {
	return &HighlightService{analyzer: analyzer}
}

// Run renders the PDF, detects regions, and paints the highlights.
// progress, if non-nil, is called after each processed page and forces
// page-by-page detection; without it, providers that accept raw PDF
// bytes get the whole document in one call.
func (s *HighlightService) Run(ctx context.Context, pdfData []byte, query, shape string, dpi int, progress func(done, total int)) (*HighlightResult, []raster.PageImage, error) {
	pages, err := raster.RenderPDF(pdfData, dpi)
	if err != nil {
		return nil, nil, fmt.Errorf("render pdf: %w", err)
	}

	result := &HighlightResult{
		Query:     query,
		Shape:     shape,
		DPI:       raster.ClampDPI(dpi),
		Provider:  s.analyzer.Name(),
		PageCount: len(pages),
		Pages:     make([]HighlightedPage, 0, len(pages)),
	}

	var oneShot map[int][]llm.Detection
	if pd, ok := s.analyzer.(llm.PDFDetector); ok && progress == nil {
		dets, err := pd.DetectRegionsPDF(ctx, pdfData, query)
		if err != nil {
			return nil, nil, fmt.Errorf("detect: %w", err)
		}
		oneShot = make(map[int][]llm.Detection)
		for _, d := range dets {
			if d.Page < 1 || d.Page > len(pages) {
				continue
			}
			oneShot[d.Page] = append(oneShot[d.Page], d)
		}
	}

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		var dets []llm.Detection
		if oneShot != nil {
			dets = oneShot[page.Number]
		} else {
			dets, err = s.analyzer.DetectRegions(ctx, pages[i:i+1], query)
			if err != nil {
				return nil, nil, fmt.Errorf("detect on page %d: %w", page.Number, err)
			}
			for j := range dets {
				dets[j].Page = page.Number
			}
		}

		pngData := page.PNG
		if len(dets) > 0 {
			pngData, err = overlay.DrawDetections(page.PNG, dets, shape)
			if err != nil {
				return nil, nil, fmt.Errorf("highlight page %d: %w", page.Number, err)
			}
		}

		result.TotalDetections += len(dets)
		result.Pages = append(result.Pages, HighlightedPage{
			Page:        page.Number,
			Width:       page.Width,
			Height:      page.Height,
			ImageBase64: base64.StdEncoding.EncodeToString(pngData),
			Detections:  dets,
		})

		if progress != nil {
			progress(i+1, len(pages))
		}
	}

	logger.Info("Highlight run completed",
		"provider", result.Provider,
		"pages", result.PageCount,
		"detections", result.TotalDetections)

	return result, pages, nil
}

// Detections flattens the per-page detections of a result.
func (r *HighlightResult) Detections() []llm.Detection {
	var all []llm.Detection
	for _, p := range r.Pages {
		all = append(all, p.Detections...)
	}
	return all
}
