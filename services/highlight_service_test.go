package services

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/em0-omg/pdf-highlight-api/llm"
	"github.com/em0-omg/pdf-highlight-api/raster"
)

// makePDF builds a minimal valid PDF with the given number of blank
// 200x200pt pages, with a correct xref table.
func makePDF(t *testing.T, pageCount int) []byte {
	t.Helper()

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")

	objCount := 2 + pageCount
	offsets := make([]int, objCount+1)
	writeObj := func(n int, body string) {
		offsets[n] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", n, body)
	}

	kids := ""
	for i := 0; i < pageCount; i++ {
		if i > 0 {
			kids += " "
		}
		kids += fmt.Sprintf("%d 0 R", 3+i)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pageCount))
	for i := 0; i < pageCount; i++ {
		writeObj(3+i, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] >>")
	}

	xrefStart := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", objCount+1)
	for n := 1; n <= objCount; n++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", objCount+1, xrefStart)

	return b.Bytes()
}

// stubAnalyzer detects one fixed region per DetectRegions call, always
// claiming the page number it was configured with.
type stubAnalyzer struct {
	pageCalls    int
	reportedPage int
}

func (s *stubAnalyzer) Name() string { return "stub" }

func (s *stubAnalyzer) DetectRegions(_ context.Context, _ []raster.PageImage, _ string) ([]llm.Detection, error) {
	s.pageCalls++
	return []llm.Detection{{
		Label: "hit",
		Page:  s.reportedPage,
		Box:   llm.Box{YMin: 100, XMin: 100, YMax: 300, XMax: 300},
	}}, nil
}

func (s *stubAnalyzer) DescribePage(context.Context, raster.PageImage, string) (string, error) {
	return "", nil
}

func (s *stubAnalyzer) DescribeDocument(context.Context, []raster.PageImage, string) (string, error) {
	return "", nil
}

// stubPDFAnalyzer additionally supports whole-document detection.
type stubPDFAnalyzer struct {
	stubAnalyzer
	pdfCalls int
	pdfDets  []llm.Detection
}

func (s *stubPDFAnalyzer) DetectRegionsPDF(context.Context, []byte, string) ([]llm.Detection, error) {
	s.pdfCalls++
	return s.pdfDets, nil
}

func TestRun_OneShotForPDFDetectors(t *testing.T) {
	stub := &stubPDFAnalyzer{
		pdfDets: []llm.Detection{
			{Label: "on page", Page: 1, Box: llm.Box{YMin: 100, XMin: 100, YMax: 300, XMax: 300}},
			{Label: "beyond document", Page: 5, Box: llm.Box{YMin: 100, XMin: 100, YMax: 300, XMax: 300}},
		},
	}

	result, pages, err := NewHighlightService(stub).Run(context.Background(), makePDF(t, 1), "find it", "rect", 72, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stub.pdfCalls, "whole-document detection should run exactly once")
	assert.Equal(t, 0, stub.pageCalls, "no per-page detection without a progress callback")

	require.Len(t, pages, 1)
	require.Len(t, result.Pages, 1)
	assert.Equal(t, 1, result.TotalDetections, "detections beyond the last page are dropped")
	require.Len(t, result.Pages[0].Detections, 1)
	assert.Equal(t, "on page", result.Pages[0].Detections[0].Label)
	assert.NotEmpty(t, result.Pages[0].ImageBase64)
	assert.Equal(t, "stub", result.Provider)
}

func TestRun_ProgressForcesPerPageDetection(t *testing.T) {
	stub := &stubPDFAnalyzer{}
	stub.reportedPage = 1

	var calls [][2]int
	progress := func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}

	result, _, err := NewHighlightService(stub).Run(context.Background(), makePDF(t, 2), "find it", "rect", 72, progress)
	require.NoError(t, err)

	assert.Equal(t, 0, stub.pdfCalls, "progress callback must bypass whole-document detection")
	assert.Equal(t, 2, stub.pageCalls, "one detection call per page")
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, calls)
	assert.Equal(t, 2, result.PageCount)
	assert.Equal(t, 2, result.TotalDetections)
}

func TestRun_PinsModelPageNumbers(t *testing.T) {
	stub := &stubAnalyzer{reportedPage: 99}

	result, _, err := NewHighlightService(stub).Run(context.Background(), makePDF(t, 2), "find it", "rect", 72, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, stub.pageCalls, "providers without PDF support detect per page")
	require.Len(t, result.Pages, 2)
	for i, page := range result.Pages {
		require.Len(t, page.Detections, 1)
		assert.Equal(t, i+1, page.Detections[0].Page, "detection page must match the rendered page")
	}
}

func TestRun_InvalidPDF(t *testing.T) {
	stub := &stubAnalyzer{reportedPage: 1}
	_, _, err := NewHighlightService(stub).Run(context.Background(), []byte("not a pdf"), "q", "rect", 72, nil)
	assert.Error(t, err)
}
