// Package normalize turns arbitrary vendor statement exports into the
// canonical transaction schema by way of an external text-generation model,
// and validates that the model's output actually exposes that schema.
package normalize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Normalizer converts raw statement text into canonical-schema CSV. The
// returned text is model-controlled and must not be trusted until ValidateCSV
// accepts it.
type Normalizer interface {
	Normalize(ctx context.Context, rawCSV, cardLabel string) (string, error)
}

// GeminiNormalizer sends statements to Gemini as a single-turn request.
type GeminiNormalizer struct {
	model      string
	apiVersion string
	timeout    time.Duration
}

// NewGeminiNormalizer creates a normalizer backed by the named Gemini model.
// Every call is bounded by timeout; a timeout is a normalization failure.
func NewGeminiNormalizer(model, apiVersion string, timeout time.Duration) *GeminiNormalizer {
	return &GeminiNormalizer{
		model:      model,
		apiVersion: apiVersion,
		timeout:    timeout,
	}
}

// Normalize sends the raw statement plus the fixed instruction template to the
// model and returns the response text with any Markdown fences stripped.
func (n *GeminiNormalizer) Normalize(ctx context.Context, rawCSV, cardLabel string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: n.apiVersion},
	})
	if err != nil {
		return "", fmt.Errorf("Normalize: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildPrompt(rawCSV, cardLabel)},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, n.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Normalize: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", fmt.Errorf("Normalize: empty response from model")
	}

	return cleanModelCSV(rawText), nil
}

// buildPrompt assembles the fixed instruction template: task, required output
// header line, formatting constraints, the target card label, and the raw
// statement text.
func buildPrompt(rawCSV, cardLabel string) string {
	basePrompt :=
		"You are a financial transaction normalizer.\n" +
			"Given raw CSV data from a credit card statement, return only valid transaction rows in CSV format with the headers:\n" +
			strings.Join(CanonicalHeaders, ",") + "\n\n"

	rulesPrompt :=
		"Requirements:\n" +
			"- Dates must be ISO format: YYYY-MM-DD\n" +
			"- Amount must be numeric, no currency symbols, no thousands separators\n" +
			"- Card must be set to: " + cardLabel + "\n" +
			"- No introductory/explanatory text. Just CSV output.\n" +
			"- Do NOT wrap the response in code fences or Markdown.\n"

	return basePrompt + rulesPrompt + "\nHere is the raw data:\n" + rawCSV
}

// cleanModelCSV strips Markdown code fences the model sometimes adds despite
// instructions, leaving the header line first.
func cleanModelCSV(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```csv).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}
