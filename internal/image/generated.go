package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const defaultPrompt = "modern technology blog concept, clean minimalist design, professional"

// promptHints maps Korean keyword fragments to English image prompts. The
// first matching entry wins.
var promptHints = []struct {
	fragment string
	prompt   string
}{
	{"블로그", "modern blog writing workspace with laptop and coffee, minimalist style"},
	{"AI", "artificial intelligence concept, neural network visualization, futuristic blue tones"},
	{"자동화", "automation and robotics concept, gears and technology, modern illustration"},
	{"워드프레스", "wordpress website design on laptop screen, professional workspace"},
	{"SEO", "search engine optimization concept, magnifying glass on search bar, digital marketing"},
	{"글쓰기", "creative writing concept, person typing on laptop, warm lighting"},
	{"수익", "online business success, growth chart, professional setting"},
	{"애드센스", "digital advertising concept, website monetization, modern design"},
	{"프로그램", "software development, code on screen, modern tech workspace"},
	{"포스팅", "content creation, social media marketing, digital workspace"},
}

// PromptFor returns the English image prompt for keyword.
func PromptFor(keyword string) string {
	for _, h := range promptHints {
		if strings.Contains(keyword, h.fragment) {
			return h.prompt
		}
	}
	return defaultPrompt
}

// Generated creates images with the OpenAI images API.
type Generated struct {
	Model   string
	Size    string
	APIKey  string
	BaseURL string
	client  *http.Client
}

// NewGenerated creates a generated-image source.
func NewGenerated(model, size, apiKey string) *Generated {
	return &Generated{
		Model:   model,
		Size:    size,
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (g *Generated) Name() string { return "generated" }

// Find generates one image for keyword.
func (g *Generated) Find(ctx context.Context, keyword string) (*Image, error) {
	if g.APIKey == "" {
		return nil, fmt.Errorf("image API key not configured")
	}

	prompt := PromptFor(keyword) + ", high quality, 16:9 aspect ratio, no text"
	body, err := json.Marshal(map[string]any{
		"model":   g.Model,
		"prompt":  prompt,
		"n":       1,
		"size":    g.Size,
		"quality": "standard",
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	log.Printf("Generating image: %s", prompt)
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("image API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return nil, nil
	}

	return &Image{
		URL:    result.Data[0].URL,
		Alt:    keyword,
		Credit: "AI Generated",
	}, nil
}
