package controllers

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/em0-omg/pdf-highlight-api/logger"
	"github.com/em0-omg/pdf-highlight-api/raster"
)

// PDFToImages renders every page of the uploaded PDF to PNG.
// A single-page document comes back as a PNG attachment; multi-page
// documents are zipped, one page_N.png per page.
func PDFToImages(w http.ResponseWriter, r *http.Request) {
	logger.Info("Received pdf-to-images request")

	data, fileName, status, err := readPDFUpload(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	dpi := raster.ClampDPI(formInt(r, "dpi", raster.DefaultDPI))
	pages, err := raster.RenderPDF(data, dpi)
	if err != nil {
		logger.Error("Failed to render pdf", "file", fileName, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render pdf: "+err.Error())
		return
	}

	stem := fileStem(fileName)
	logger.Info("Rendered pdf", "file", fileName, "pages", len(pages), "dpi", dpi)

	if len(pages) == 1 {
		name := stem + ".png"
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", contentDisposition(name))
		w.Header().Set("Content-Length", strconv.Itoa(len(pages[0].PNG)))
		w.Write(pages[0].PNG)
		return
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, page := range pages {
		f, err := zw.Create(fmt.Sprintf("page_%d.png", page.Number))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to build zip: "+err.Error())
			return
		}
		if _, err := f.Write(page.PNG); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to build zip: "+err.Error())
			return
		}
	}
	if err := zw.Close(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build zip: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", contentDisposition(stem+"_images.zip"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}
