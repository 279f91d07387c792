package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rladydgns3001-ui/autopost/internal/config"
)

// Client queries SerpAPI's Google engine.
type Client struct {
	cfg    config.Search
	apiKey string
	client *http.Client
}

// NewClient creates a new search client.
func NewClient(cfg config.Search, apiKey string) *Client {
	return &Client{
		cfg:    cfg,
		apiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// IsConfigured returns whether the API key is available.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Search returns organic results for keyword. When a recent window is
// configured and yields nothing, the query is repeated once without it.
// No results is not an error.
func (c *Client) Search(ctx context.Context, keyword string) ([]RawResult, error) {
	if c.cfg.RecentWindow != "" {
		results, ok, err := c.query(ctx, keyword, c.cfg.Num, c.cfg.RecentWindow)
		if err != nil {
			return nil, err
		}
		if ok {
			log.Printf("Search %q: %d results within %s", keyword, len(results), c.cfg.RecentWindow)
			return results, nil
		}
		log.Printf("No recent results for %q, retrying without date filter", keyword)
	}

	results, ok, err := c.query(ctx, keyword, c.cfg.Num, "")
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Printf("No search results for %q", keyword)
		return nil, nil
	}
	log.Printf("Search %q: %d results", keyword, len(results))
	return results, nil
}

// SearchOfficial runs a site-restricted query over the configured official
// sites. Every result is authoritative. Failures are logged and yield nil.
func (c *Client) SearchOfficial(ctx context.Context, keyword string) []SearchResult {
	if len(c.cfg.OfficialSites) == 0 {
		return nil
	}

	sites := make([]string, len(c.cfg.OfficialSites))
	for i, s := range c.cfg.OfficialSites {
		sites[i] = "site:" + s
	}
	q := fmt.Sprintf("%s (%s)", keyword, strings.Join(sites, " OR "))

	raw, ok, err := c.query(ctx, q, 5, "")
	if err != nil {
		log.Printf("Official search failed: %v", err)
		return nil
	}
	if !ok || len(raw) == 0 {
		log.Println("No official results")
		return nil
	}

	results := make([]SearchResult, 0, len(raw))
	for i, r := range raw {
		results = append(results, SearchResult{
			Title:           strings.TrimSpace(r.Title),
			URL:             r.Link,
			Snippet:         r.Snippet,
			Rank:            i + 1,
			IsAuthoritative: true,
			PublishDate:     r.Date,
		})
	}
	return results
}

// query performs one request. ok is false when the response carried no
// organic_results field at all.
func (c *Client) query(ctx context.Context, q string, num int, tbs string) ([]RawResult, bool, error) {
	if c.apiKey == "" {
		return nil, false, fmt.Errorf("search API key not configured")
	}

	params := url.Values{
		"q":             {q},
		"location":      {c.cfg.Location},
		"hl":            {c.cfg.Language},
		"gl":            {c.cfg.Country},
		"google_domain": {c.cfg.GoogleDomain},
		"num":           {strconv.Itoa(num)},
		"api_key":       {c.apiKey},
	}
	if tbs != "" {
		params.Set("tbs", tbs)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("search API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("search API returned %d", resp.StatusCode)
	}

	var result struct {
		OrganicResults *[]RawResult `json:"organic_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false, fmt.Errorf("decoding response: %w", err)
	}
	if result.OrganicResults == nil {
		return nil, false, nil
	}

	var out []RawResult
	for _, r := range *result.OrganicResults {
		if r.Link == "" {
			continue
		}
		out = append(out, r)
	}
	return out, true, nil
}
