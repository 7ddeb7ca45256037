package controllers

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestPDFToImages_SinglePageReturnsPNG(t *testing.T) {
	req := multipartPDFRequest(t, "drawing.pdf", makePDF(t, 1), map[string]string{"dpi": "72"})
	rec := httptest.NewRecorder()

	PDFToImages(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="drawing.png"`)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestPDFToImages_MultiPageReturnsZip(t *testing.T) {
	req := multipartPDFRequest(t, "drawing.pdf", makePDF(t, 2), map[string]string{"dpi": "72"})
	rec := httptest.NewRecorder()

	PDFToImages(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="drawing_images.zip"`)

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "page_1.png", zr.File[0].Name)
	assert.Equal(t, "page_2.png", zr.File[1].Name)
}

func TestPDFToImages_RejectsNonPDF(t *testing.T) {
	req := multipartPDFRequest(t, "drawing.txt", []byte("hello"), nil)
	rec := httptest.NewRecorder()

	PDFToImages(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
