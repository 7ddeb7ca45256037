package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/em0-omg/pdf-highlight-api/llm"
	"github.com/em0-omg/pdf-highlight-api/logger"
	"github.com/em0-omg/pdf-highlight-api/raster"
)

type PageAnalysis struct {
	Page     int    `json:"page"`
	Analysis string `json:"analysis"`
}

type AnalyzeResponse struct {
	OverallAnalysis string         `json:"overall_analysis"`
	PageAnalyses    []PageAnalysis `json:"page_analyses"`
	TotalPages      int            `json:"total_pages"`
	AnalysisType    string         `json:"analysis_type"`
	Provider        string         `json:"provider"`
}

// AnalyzePDF asks the model about the whole document and each page.
// A failing page does not fail the request; its error is recorded in
// that page's analysis text.
func AnalyzePDF(w http.ResponseWriter, r *http.Request) {
	logger.Info("Received pdf analysis request")

	data, fileName, status, err := readPDFUpload(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	analysisType := strings.ToLower(strings.TrimSpace(r.FormValue("analysis_type")))
	if analysisType == "" {
		analysisType = llm.AnalysisGeneral
	}
	if !llm.ValidAnalysisType(analysisType) {
		writeError(w, http.StatusBadRequest,
			"analysis_type must be one of: general, summary, extract_text, highlight_points")
		return
	}

	analyzer, err := llm.NewAnalyzer()
	if err != nil {
		logger.Error("Failed to build analyzer", "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	dpi := raster.ClampDPI(formInt(r, "dpi", raster.DefaultDPI))
	pages, err := raster.RenderPDF(data, dpi)
	if err != nil {
		logger.Error("Failed to render pdf", "file", fileName, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render pdf: "+err.Error())
		return
	}

	ctx := r.Context()
	instruction := llm.AnalysisInstruction(analysisType)

	var overall string
	if pa, ok := analyzer.(llm.PDFAnalyzer); ok {
		overall, err = pa.DescribePDF(ctx, data, instruction)
	} else {
		overall, err = analyzer.DescribeDocument(ctx, pages, instruction)
	}
	if err != nil {
		logger.Error("Document analysis failed", "file", fileName, "error", err)
		writeError(w, http.StatusBadGateway, "analysis failed: "+err.Error())
		return
	}

	analyses := make([]PageAnalysis, 0, len(pages))
	for _, page := range pages {
		text, err := analyzer.DescribePage(ctx, page, llm.PageInstruction(analysisType, page.Number))
		if err != nil {
			logger.Warn("Page analysis failed", "file", fileName, "page", page.Number, "error", err)
			text = fmt.Sprintf("Error analyzing page %d: %s", page.Number, err.Error())
		}
		analyses = append(analyses, PageAnalysis{Page: page.Number, Analysis: text})
	}

	logger.Info("Analysis completed", "file", fileName, "type", analysisType, "pages", len(pages))
	writeJSON(w, http.StatusOK, AnalyzeResponse{
		OverallAnalysis: overall,
		PageAnalyses:    analyses,
		TotalPages:      len(pages),
		AnalysisType:    analysisType,
		Provider:        analyzer.Name(),
	})
}
