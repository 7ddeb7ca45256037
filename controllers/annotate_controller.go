package controllers

import (
	"net/http"
	"strconv"

	"github.com/em0-omg/pdf-highlight-api/annotate"
	"github.com/em0-omg/pdf-highlight-api/llm"
	"github.com/em0-omg/pdf-highlight-api/logger"
	"github.com/em0-omg/pdf-highlight-api/services"
)

// AnnotatePDF runs detection and returns the PDF itself with the
// highlights stamped into the pages.
func AnnotatePDF(w http.ResponseWriter, r *http.Request) {
	logger.Info("Received annotate request")

	data, fileName, status, err := readPDFUpload(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	query, shape, dpi, errMsg := highlightParams(r)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	if err := annotate.Validate(data); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	analyzer, err := llm.NewAnalyzer()
	if err != nil {
		logger.Error("Failed to build analyzer", "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	svc := services.NewHighlightService(analyzer)
	result, pages, err := svc.Run(r.Context(), data, query, shape, dpi, nil)
	if err != nil {
		logger.Error("Highlight run failed", "file", fileName, "error", err)
		writeError(w, http.StatusBadGateway, "highlight failed: "+err.Error())
		return
	}

	stamped, err := annotate.StampHighlights(data, pages, result.Detections(), shape)
	if err != nil {
		logger.Error("Failed to stamp pdf", "file", fileName, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to stamp pdf: "+err.Error())
		return
	}

	if _, err := upsertDocument(fileName, data, result.PageCount); err != nil {
		logger.Warn("Failed to record document", "file", fileName, "error", err)
	}

	logger.Info("Annotated pdf ready", "file", fileName, "detections", result.TotalDetections)

	name := fileStem(fileName) + "_highlighted.pdf"
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", contentDisposition(name))
	w.Header().Set("Content-Length", strconv.Itoa(len(stamped)))
	w.Header().Set("X-Detection-Count", strconv.Itoa(result.TotalDetections))
	w.Write(stamped)
}
