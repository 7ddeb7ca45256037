package controllers

import (
	"net/http"

	"github.com/em0-omg/pdf-highlight-api/extractor"
	"github.com/em0-omg/pdf-highlight-api/logger"
)

type TextResponse struct {
	FileName  string               `json:"file_name"`
	PageCount int                  `json:"page_count"`
	Pages     []extractor.PageText `json:"pages"`
}

// ExtractText returns the embedded text of each page. Scanned documents
// with no text layer come back with empty page texts; use the analyze
// endpoint for those.
func ExtractText(w http.ResponseWriter, r *http.Request) {
	logger.Info("Received text extraction request")

	data, fileName, status, err := readPDFUpload(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	pages, err := extractor.ExtractText(data)
	if err != nil {
		logger.Error("Failed to extract text", "file", fileName, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to extract text: "+err.Error())
		return
	}

	logger.Info("Text extracted", "file", fileName, "pages", len(pages))
	writeJSON(w, http.StatusOK, TextResponse{
		FileName:  fileName,
		PageCount: len(pages),
		Pages:     pages,
	})
}
