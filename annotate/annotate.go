package annotate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/em0-omg/pdf-highlight-api/llm"
	"github.com/em0-omg/pdf-highlight-api/logger"
	"github.com/em0-omg/pdf-highlight-api/overlay"
	"github.com/em0-omg/pdf-highlight-api/raster"
)

// watermarkDesc centers the stamp and scales it to fill the page. The
// stamp is rendered with the page's aspect ratio, so a relative scale of
// 1.0 makes stamp coordinates line up with page coordinates.
const watermarkDesc = "pos:c, scale:1.0 rel, rot:0"

// StampHighlights burns detected regions into the PDF itself and returns
// the annotated document. Pages supply per-page pixel dimensions for the
// stamp canvases. A document with no detections is returned unchanged.
func StampHighlights(pdfData []byte, pages []raster.PageImage, dets []llm.Detection, shape string) ([]byte, error) {
	byPage := make(map[int][]llm.Detection)
	for _, d := range dets {
		byPage[d.Page] = append(byPage[d.Page], d)
	}
	if len(byPage) == 0 {
		return pdfData, nil
	}

	dims := make(map[int]raster.PageImage, len(pages))
	for _, p := range pages {
		dims[p.Number] = p
	}

	tmpDir, err := os.MkdirTemp("", "pdf-annotate-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inFile := filepath.Join(tmpDir, "in.pdf")
	outFile := filepath.Join(tmpDir, "out.pdf")
	if err := os.WriteFile(inFile, pdfData, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ValidateFile(inFile, conf); err != nil {
		return nil, fmt.Errorf("validate pdf: %w", err)
	}
	pageCount, err := api.PageCountFile(inFile)
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}

	wms := make(map[int]*model.Watermark, len(byPage))
	for page, pageDets := range byPage {
		if page < 1 || page > pageCount {
			logger.Warn("Skipping detection on nonexistent page", "page", page, "pages", pageCount)
			continue
		}
		dim, ok := dims[page]
		if !ok {
			logger.Warn("No rendered dimensions for page, skipping", "page", page)
			continue
		}

		stamp, err := overlay.BuildStamp(dim.Width, dim.Height, pageDets, shape)
		if err != nil {
			return nil, fmt.Errorf("build stamp for page %d: %w", page, err)
		}

		wm, err := api.ImageWatermarkForReader(bytes.NewReader(stamp), watermarkDesc, true, false, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("watermark for page %d: %w", page, err)
		}
		wms[page] = wm
	}

	if len(wms) == 0 {
		return pdfData, nil
	}

	if err := api.AddWatermarksMapFile(inFile, outFile, wms, conf); err != nil {
		return nil, fmt.Errorf("stamp pdf: %w", err)
	}

	out, err := os.ReadFile(outFile)
	if err != nil {
		return nil, fmt.Errorf("read stamped pdf: %w", err)
	}
	return out, nil
}

// Validate checks that the bytes form a structurally sound PDF.
func Validate(pdfData []byte) error {
	tmp, err := os.CreateTemp("", "pdf-validate-*.pdf")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(pdfData); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	if err := api.ValidateFile(tmp.Name(), model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("validate pdf: %w", err)
	}
	return nil
}

// PageCount reports the number of pages without rasterizing.
func PageCount(pdfData []byte) (int, error) {
	tmp, err := os.CreateTemp("", "pdf-count-*.pdf")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(pdfData); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	n, err := api.PageCountFile(tmp.Name())
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}
