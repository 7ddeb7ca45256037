package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/em0-omg/pdf-highlight-api/config"
	"github.com/em0-omg/pdf-highlight-api/raster"
)

// Box is a detected region in normalized page coordinates.
// The model reports boxes on a 0..1000 grid regardless of render size.
type Box struct {
	YMin float64 `json:"ymin"`
	XMin float64 `json:"xmin"`
	YMax float64 `json:"ymax"`
	XMax float64 `json:"xmax"`
}

// Detection is one region the model matched against the query.
type Detection struct {
	Label      string  `json:"label"`
	Page       int     `json:"page"`
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Analyzer is the provider-agnostic interface for multimodal analysis.
type Analyzer interface {
	Name() string
	// DetectRegions finds regions matching the query across rendered pages.
	DetectRegions(ctx context.Context, pages []raster.PageImage, query string) ([]Detection, error)
	// DescribePage answers an instruction about a single rendered page.
	DescribePage(ctx context.Context, page raster.PageImage, instruction string) (string, error)
	// DescribeDocument answers an instruction about the document as a whole.
	DescribeDocument(ctx context.Context, pages []raster.PageImage, instruction string) (string, error)
}

// PDFAnalyzer is implemented by providers that accept raw PDF bytes
// directly, skipping rasterization for whole-document analysis.
type PDFAnalyzer interface {
	DescribePDF(ctx context.Context, pdfData []byte, instruction string) (string, error)
}

// PDFDetector is implemented by providers that can detect regions from
// raw PDF bytes in a single call instead of per-page images.
type PDFDetector interface {
	DetectRegionsPDF(ctx context.Context, pdfData []byte, query string) ([]Detection, error)
}

// Analysis types accepted by the document analysis endpoint.
const (
	AnalysisGeneral         = "general"
	AnalysisSummary         = "summary"
	AnalysisExtractText     = "extract_text"
	AnalysisHighlightPoints = "highlight_points"
)

// ValidAnalysisType reports whether t is a supported analysis type.
func ValidAnalysisType(t string) bool {
	switch t {
	case AnalysisGeneral, AnalysisSummary, AnalysisExtractText, AnalysisHighlightPoints:
		return true
	}
	return false
}

// NewAnalyzer builds the analyzer selected by LLM_PROVIDER.
// Supported values: gemini (default), openai, simulated.
func NewAnalyzer() (Analyzer, error) {
	provider := strings.ToLower(config.GetEnv("LLM_PROVIDER", "gemini"))
	switch provider {
	case "gemini":
		return NewGeminiAnalyzer()
	case "openai":
		return NewOpenAIAnalyzer()
	case "simulated":
		return NewSimulatedAnalyzer(), nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", provider)
	}
}

// detectionInstruction is the shared prompt for region detection.
func detectionInstruction(query string) string {
	var sb strings.Builder
	sb.WriteString("You are given one or more page images of a PDF document. ")
	sb.WriteString("Locate every region that matches the following request: ")
	sb.WriteString(query)
	sb.WriteString("\nRespond with JSON only: an array of objects, each with ")
	sb.WriteString(`"label" (short description), "page" (1-based page number), `)
	sb.WriteString(`"box_2d" ([ymin, xmin, ymax, xmax] on a 0-1000 scale relative to the page image), `)
	sb.WriteString(`and "confidence" (0 to 1). `)
	sb.WriteString("Return an empty array if nothing matches.")
	return sb.String()
}

// AnalysisInstruction maps an analysis type to its model instruction.
func AnalysisInstruction(analysisType string) string {
	switch analysisType {
	case AnalysisSummary:
		return "Summarize this document concisely. Cover its purpose, main points, and conclusions."
	case AnalysisExtractText:
		return "Transcribe all readable text from this document, preserving reading order."
	case AnalysisHighlightPoints:
		return "List the key points of this document as a bulleted list, most important first."
	default:
		return "Describe this document: its type, structure, and notable content."
	}
}

// PageInstruction scopes an analysis instruction to a single page.
func PageInstruction(analysisType string, page int) string {
	return fmt.Sprintf("%s Focus only on page %d, shown in the image.", AnalysisInstruction(analysisType), page)
}
