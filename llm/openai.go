package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"

	"github.com/em0-omg/pdf-highlight-api/config"
	"github.com/em0-omg/pdf-highlight-api/logger"
	"github.com/em0-omg/pdf-highlight-api/raster"
)

// OpenAIAnalyzer talks to an OpenAI-compatible chat completion API.
// LLM_BASE_URL can point it at a compatible local or proxy endpoint.
type OpenAIAnalyzer struct {
	client     *openai.Client
	model      string
	maxRetries uint64
}

// NewOpenAIAnalyzer builds an OpenAI-backed analyzer from the environment.
// Requires OPENAI_API_KEY.
func NewOpenAIAnalyzer() (*OpenAIAnalyzer, error) {
	apiKey := config.GetEnv("OPENAI_API_KEY", "")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL := config.GetEnv("LLM_BASE_URL", ""); baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIAnalyzer{
		client:     openai.NewClientWithConfig(cfg),
		model:      config.GetEnv("OPENAI_MODEL", "gpt-4o"),
		maxRetries: uint64(config.GetEnvInt("LLM_MAX_RETRIES", 3)),
	}, nil
}

func (o *OpenAIAnalyzer) Name() string { return "openai" }

// DetectRegions runs one request per page. The chat API carries no page
// numbering, so each response is pinned to its page on parse.
func (o *OpenAIAnalyzer) DetectRegions(ctx context.Context, pages []raster.PageImage, query string) ([]Detection, error) {
	instruction := detectionInstruction(query) +
		"\n" + `Because the response format is a JSON object, wrap the array as {"detections": [...]}.`

	var all []Detection
	for _, page := range pages {
		parts := []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: instruction},
			imagePart(page.PNG),
		}

		raw, err := o.complete(ctx, parts, true)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page.Number, err)
		}
		dets, err := ParseDetections(raw, page.Number)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page.Number, err)
		}
		for i := range dets {
			dets[i].Page = page.Number
		}
		all = append(all, dets...)
	}
	return all, nil
}

func (o *OpenAIAnalyzer) DescribePage(ctx context.Context, page raster.PageImage, instruction string) (string, error) {
	return o.complete(ctx, []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: instruction},
		imagePart(page.PNG),
	}, false)
}

func (o *OpenAIAnalyzer) DescribeDocument(ctx context.Context, pages []raster.PageImage, instruction string) (string, error) {
	parts := make([]openai.ChatMessagePart, 0, len(pages)+1)
	parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: instruction})
	for _, p := range pages {
		parts = append(parts, imagePart(p.PNG))
	}
	return o.complete(ctx, parts, false)
}

func imagePart(pngData []byte) openai.ChatMessagePart {
	return openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{
			URL:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData),
			Detail: openai.ImageURLDetailHigh,
		},
	}
}

func (o *OpenAIAnalyzer) complete(ctx context.Context, parts []openai.ChatMessagePart, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	op := func() (string, error) {
		resp, err := o.client.CreateChatCompletion(ctx, req)
		if err != nil {
			logger.Warn("OpenAI request failed", "error", err)
			return "", classifyOpenAIErr(err)
		}
		if len(resp.Choices) == 0 {
			return "", backoff.Permanent(fmt.Errorf("openai returned no choices"))
		}
		out := strings.TrimSpace(resp.Choices[0].Message.Content)
		if out == "" {
			return "", backoff.Permanent(fmt.Errorf("openai returned empty response"))
		}
		return out, nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), o.maxRetries), ctx)
	return backoff.RetryWithData(op, policy)
}

// classifyOpenAIErr marks API client errors as permanent so the backoff
// loop stops instead of retrying them. 429 stays retryable.
func classifyOpenAIErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) &&
		apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 &&
		apiErr.HTTPStatusCode != http.StatusTooManyRequests {
		return backoff.Permanent(err)
	}
	return err
}
