package controllers

import (
	"net/http"

	"github.com/em0-omg/pdf-highlight-api/llm"
	"github.com/em0-omg/pdf-highlight-api/logger"
	"github.com/em0-omg/pdf-highlight-api/services"
)

type HighlightResponse struct {
	DocumentID uint `json:"document_id"`
	*services.HighlightResult
}

// HighlightPDF runs the full pipeline synchronously: render pages, ask
// the model for regions matching the query, and return the pages with
// highlights painted on.
func HighlightPDF(w http.ResponseWriter, r *http.Request) {
	logger.Info("Received highlight request")

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

	analyzer, err := llm.NewAnalyzer()
	if err != nil {
		logger.Error("Failed to build analyzer", "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	svc := services.NewHighlightService(analyzer)
	result, _, err := svc.Run(r.Context(), data, query, shape, dpi, nil)
	if err != nil {
		logger.Error("Highlight run failed", "file", fileName, "error", err)
		writeError(w, http.StatusBadGateway, "highlight failed: "+err.Error())
		return
	}

	doc, err := upsertDocument(fileName, data, result.PageCount)
	if err != nil {
		logger.Error("Failed to record document", "file", fileName, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, HighlightResponse{
		DocumentID:      doc.ID,
		HighlightResult: result,
	})
}
