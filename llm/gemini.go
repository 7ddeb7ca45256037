package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/em0-omg/pdf-highlight-api/config"
	"github.com/em0-omg/pdf-highlight-api/logger"
	"github.com/em0-omg/pdf-highlight-api/raster"
)

// GeminiAnalyzer talks to the Gemini API with structured JSON output.
type GeminiAnalyzer struct {
	client     *genai.Client
	model      string
	maxRetries uint64
}

// detectionSchema constrains detection responses to the expected shape.
var detectionSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"label": {Type: genai.TypeString},
			"page":  {Type: genai.TypeInteger},
			"box_2d": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeNumber},
			},
			"confidence": {Type: genai.TypeNumber},
		},
		Required: []string{"label", "page", "box_2d"},
	},
}

// NewGeminiAnalyzer builds a Gemini-backed analyzer from the environment.
// Requires GEMINI_API_KEY.
func NewGeminiAnalyzer() (*GeminiAnalyzer, error) {
	apiKey := config.GetEnv("GEMINI_API_KEY", "")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiAnalyzer{
		client:     client,
		model:      config.GetEnv("GEMINI_MODEL", "gemini-2.5-pro"),
		maxRetries: uint64(config.GetEnvInt("LLM_MAX_RETRIES", 3)),
	}, nil
}

func (g *GeminiAnalyzer) Name() string { return "gemini" }

// DetectRegions sends all pages in one request and asks for structured
// detections over the whole document.
func (g *GeminiAnalyzer) DetectRegions(ctx context.Context, pages []raster.PageImage, query string) ([]Detection, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = detectionSchema

	parts := make([]genai.Part, 0, len(pages)*2+1)
	parts = append(parts, genai.Text(detectionInstruction(query)))
	for _, p := range pages {
		parts = append(parts, genai.Text(fmt.Sprintf("Page %d:", p.Number)))
		parts = append(parts, genai.ImageData("png", p.PNG))
	}

	raw, err := g.generate(ctx, model, parts)
	if err != nil {
		return nil, err
	}
	return ParseDetections(raw, 0)
}

func (g *GeminiAnalyzer) DescribePage(ctx context.Context, page raster.PageImage, instruction string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.4)

	return g.generate(ctx, model, []genai.Part{
		genai.Text(instruction),
		genai.ImageData("png", page.PNG),
	})
}

func (g *GeminiAnalyzer) DescribeDocument(ctx context.Context, pages []raster.PageImage, instruction string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.4)

	parts := make([]genai.Part, 0, len(pages)*2+1)
	parts = append(parts, genai.Text(instruction))
	for _, p := range pages {
		parts = append(parts, genai.Text(fmt.Sprintf("Page %d:", p.Number)))
		parts = append(parts, genai.ImageData("png", p.PNG))
	}
	return g.generate(ctx, model, parts)
}

// DetectRegionsPDF runs detection over the raw PDF in a single call.
func (g *GeminiAnalyzer) DetectRegionsPDF(ctx context.Context, pdfData []byte, query string) ([]Detection, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = detectionSchema

	raw, err := g.generate(ctx, model, []genai.Part{
		genai.Text(detectionInstruction(query)),
		genai.Blob{MIMEType: "application/pdf", Data: pdfData},
	})
	if err != nil {
		return nil, err
	}
	return ParseDetections(raw, 0)
}

// DescribePDF sends the PDF bytes directly instead of page images.
func (g *GeminiAnalyzer) DescribePDF(ctx context.Context, pdfData []byte, instruction string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.4)

	return g.generate(ctx, model, []genai.Part{
		genai.Text(instruction),
		genai.Blob{MIMEType: "application/pdf", Data: pdfData},
	})
}

// generate runs one GenerateContent call with exponential backoff and
// flattens the text parts of the first candidate.
func (g *GeminiAnalyzer) generate(ctx context.Context, model *genai.GenerativeModel, parts []genai.Part) (string, error) {
	op := func() (string, error) {
		resp, err := model.GenerateContent(ctx, parts...)
		if err != nil {
			logger.Warn("Gemini request failed", "error", err)
			return "", classifyGeminiErr(err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", backoff.Permanent(fmt.Errorf("gemini returned no candidates"))
		}

		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		out := strings.TrimSpace(sb.String())
		if out == "" {
			return "", backoff.Permanent(fmt.Errorf("gemini returned empty response"))
		}
		return out, nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), g.maxRetries), ctx)
	return backoff.RetryWithData(op, policy)
}

// classifyGeminiErr marks API client errors as permanent so the backoff
// loop stops instead of retrying them. 429 stays retryable.
func classifyGeminiErr(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) &&
		gerr.Code >= 400 && gerr.Code < 500 &&
		gerr.Code != http.StatusTooManyRequests {
		return backoff.Permanent(err)
	}
	return err
}
