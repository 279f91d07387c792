package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider generates text with the Gemini API.
type GeminiProvider struct {
	Model       string
	Temperature float64
	client      *genai.Client
}

// NewGeminiProvider connects a Gemini client. An empty apiKey yields an
// unconfigured provider.
func NewGeminiProvider(ctx context.Context, model, apiKey string, temperature float64) (*GeminiProvider, error) {
	g := &GeminiProvider{Model: model, Temperature: temperature}
	if apiKey == "" {
		return g, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to Gemini API: %w", err)
	}
	g.client = client
	return g, nil
}

// IsConfigured reports whether a client was created.
func (g *GeminiProvider) IsConfigured() bool {
	return g.client != nil
}

// Generate sends a single-part prompt and returns the response text.
func (g *GeminiProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("Gemini API key not configured")
	}

	temp := float32(g.Temperature)
	result, err := g.client.Models.GenerateContent(ctx, g.Model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		&genai.GenerateContentConfig{
			Temperature:     &temp,
			MaxOutputTokens: int32(maxTokens),
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if result == nil {
		return "", fmt.Errorf("gemini returned nil result")
	}
	return result.Text(), nil
}
