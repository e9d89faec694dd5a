package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Analyzer defines the generative-AI collaborator used by the pipeline.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, data []byte, mimeType string) (*Analysis, error)
	AnalyzeText(ctx context.Context, text string) (*Analysis, error)
	GenerateBookingReply(ctx context.Context, transcript string, questions []string, faqContent string) (string, error)
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Client wraps the Gemini API client.
type Client struct {
	genaiClient *genai.Client
	modelName   string
	retry       RetryPolicy
}

var _ Analyzer = (*Client)(nil)

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{
		genaiClient: client,
		modelName:   modelName,
		retry:       DefaultRetry,
	}, nil
}

// Close closes the underlying client.
func (c *Client) Close() error {
	return c.genaiClient.Close()
}

// AnalyzeImage sends a screenshot to Gemini and returns the validated
// extraction result. Malformed output is retried with backoff.
func (c *Client) AnalyzeImage(ctx context.Context, data []byte, mimeType string) (*Analysis, error) {
	model := c.jsonModel(0.1, 4096)
	img := genai.ImageData(formatFromMime(mimeType), data)

	var result *Analysis
	err := c.retry.Do(ctx, func() error {
		raw, err := generate(ctx, model, img, genai.Text(imageAnalysisPrompt))
		if err != nil {
			return err
		}
		result, err = ParseAnalysis(raw, KindImage)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("image analysis failed: %w", err)
	}
	return result, nil
}

// AnalyzeText sends a text note to Gemini and returns the validated
// extraction result.
func (c *Client) AnalyzeText(ctx context.Context, text string) (*Analysis, error) {
	model := c.jsonModel(0.1, 8192)
	doc := genai.Text("\n\n---\nDOCUMENT TO ANALYZE:\n---\n\n" + text)

	var result *Analysis
	err := c.retry.Do(ctx, func() error {
		raw, err := generate(ctx, model, genai.Text(textAnalysisPrompt), doc)
		if err != nil {
			return err
		}
		result, err = ParseAnalysis(raw, KindText)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("text analysis failed: %w", err)
	}
	return result, nil
}

// GenerateBookingReply drafts a reply to a booking inquiry from the FAQ. If
// the FAQ is empty no model call is made and a placeholder is returned.
func (c *Client) GenerateBookingReply(ctx context.Context, transcript string, questions []string, faqContent string) (string, error) {
	if strings.TrimSpace(faqContent) == "" {
		return "[FAQ file is empty. Fill in 2-Areas/Clients/FAQ.md with your pricing and info]", nil
	}

	model := c.genaiClient.GenerativeModel(c.modelName)
	model.SetTemperature(0.7)
	model.SetMaxOutputTokens(1024)

	raw, err := generate(ctx, model, genai.Text(BookingReplyPrompt(transcript, questions, faqContent)))
	if err != nil {
		return "", fmt.Errorf("booking reply generation failed: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

// GenerateJSON runs an arbitrary prompt expecting a JSON object back, with
// retry. Used by the proactive digest engine.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	model := c.jsonModel(0.7, 2048)

	var raw string
	err := c.retry.Do(ctx, func() error {
		out, err := generate(ctx, model, genai.Text(prompt))
		if err != nil {
			return err
		}
		raw = CleanJSON(out)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("json generation failed: %w", err)
	}
	return raw, nil
}

func (c *Client) jsonModel(temperature float32, maxTokens int32) *genai.GenerativeModel {
	model := c.genaiClient.GenerativeModel(c.modelName)
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(maxTokens)
	model.ResponseMIMEType = "application/json"
	return model
}

func generate(ctx context.Context, model *genai.GenerativeModel, parts ...genai.Part) (string, error) {
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

// formatFromMime converts "image/png" to the "png" format string the genai
// SDK expects.
func formatFromMime(mimeType string) string {
	if _, format, ok := strings.Cut(mimeType, "/"); ok && format != "" {
		return format
	}
	return "png"
}
