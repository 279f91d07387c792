package llm

import (
	"context"
	"fmt"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

// AnthropicProvider generates text with Claude through llmkit.
type AnthropicProvider struct {
	Model        string
	APIKey       string
	Temperature  float64
	SystemPrompt string

	// prompt performs the blocking request; replaced in tests.
	prompt func(system, user string, settings types.RequestSettings) (string, error)
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(model, apiKey string, temperature float64) *AnthropicProvider {
	a := &AnthropicProvider{Model: model, APIKey: apiKey, Temperature: temperature}
	a.prompt = a.send
	return a
}

// IsConfigured checks if the API key is set.
func (a *AnthropicProvider) IsConfigured() bool {
	return a.APIKey != ""
}

// Generate sends prompt as the user turn. llmkit takes no context, so the
// request runs in its own goroutine and Generate returns as soon as ctx is
// done; the abandoned request finishes in the background.
func (a *AnthropicProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if a.APIKey == "" {
		return "", fmt.Errorf("Anthropic API key not configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	settings := types.RequestSettings{
		Model:       a.Model,
		MaxTokens:   maxTokens,
		Temperature: a.Temperature,
	}

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		text, err := a.prompt(a.SystemPrompt, prompt, settings)
		done <- reply{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.text, r.err
	}
}

func (a *AnthropicProvider) send(system, user string, settings types.RequestSettings) (string, error) {
	response, err := anthropic.PromptWithSettings(system, user, "", a.APIKey, settings)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in Anthropic response")
	}
	return response.Content[0].Text, nil
}
