package image

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Stock searches Unsplash for a landscape photo.
type Stock struct {
	AccessKey string
	BaseURL   string
	client    *http.Client
}

// NewStock creates a stock-photo source.
func NewStock(accessKey string) *Stock {
	return &Stock{
		AccessKey: accessKey,
		BaseURL:   "https://api.unsplash.com",
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *Stock) Name() string { return "stock" }

// Find returns the first landscape result for the keyword's English prompt.
func (s *Stock) Find(ctx context.Context, keyword string) (*Image, error) {
	if s.AccessKey == "" {
		return nil, fmt.Errorf("stock photo access key not configured")
	}

	params := url.Values{
		"query":       {PromptFor(keyword)},
		"per_page":    {"1"},
		"orientation": {"landscape"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+s.AccessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stock API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("stock API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Results []struct {
			URLs struct {
				Regular string `json:"regular"`
			} `json:"urls"`
			AltDescription string `json:"alt_description"`
			User           struct {
				Name  string `json:"name"`
				Links struct {
					HTML string `json:"html"`
				} `json:"links"`
			} `json:"user"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(result.Results) == 0 {
		return nil, nil
	}

	photo := result.Results[0]
	return &Image{
		URL:       photo.URLs.Regular,
		Alt:       keyword,
		Credit:    photo.User.Name,
		CreditURL: photo.User.Links.HTML,
	}, nil
}
