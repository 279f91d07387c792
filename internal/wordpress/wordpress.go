// Package wordpress is a small client for the WordPress REST API
// authenticated with an application password.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIError is a non-success response from the REST API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("WordPress API error: %d - %s", e.StatusCode, e.Body)
}

// Client talks to one WordPress site.
type Client struct {
	baseURL  string
	user     string
	password string
	client   *http.Client
}

// NewClient creates a client for the site at baseURL.
func NewClient(baseURL, user, appPassword string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		user:     user,
		password: appPassword,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// IsConfigured reports whether the site URL and credentials are set.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.user != "" && c.password != ""
}

// Media is an uploaded attachment.
type Media struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
}

// PostRequest is the payload for a new post.
type PostRequest struct {
	Title           string
	Content         string
	Status          string
	MetaDescription string
	FeaturedMedia   int64
}

// Post is a created post.
type Post struct {
	ID     int64  `json:"id"`
	Link   string `json:"link"`
	Status string `json:"status"`
}

// Page is a created or updated page.
type Page struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
}

// UploadMedia uploads raw file bytes to the media library.
func (c *Client) UploadMedia(ctx context.Context, filename, contentType string, data []byte) (*Media, error) {
	headers := map[string]string{
		"Content-Type":        contentType,
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, filename),
	}
	var m Media
	if err := c.do(ctx, http.MethodPost, "/wp/v2/media", bytes.NewReader(data), headers, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// CreatePost publishes a post. The meta description is sent as the excerpt
// and as the Yoast SEO description.
func (c *Client) CreatePost(ctx context.Context, p PostRequest) (*Post, error) {
	body := map[string]any{
		"title":   p.Title,
		"content": p.Content,
		"status":  p.Status,
		"excerpt": p.MetaDescription,
		"meta": map[string]string{
			"_yoast_wpseo_metadesc": p.MetaDescription,
		},
	}
	if p.FeaturedMedia > 0 {
		body["featured_media"] = p.FeaturedMedia
	}

	var post Post
	if err := c.doJSON(ctx, http.MethodPost, "/wp/v2/posts", body, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePage creates a page.
func (c *Client) CreatePage(ctx context.Context, title, content, status string) (*Page, error) {
	body := map[string]any{
		"title":   title,
		"content": content,
		"status":  status,
	}
	var page Page
	if err := c.doJSON(ctx, http.MethodPost, "/wp/v2/pages", body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePage replaces the content of an existing page.
func (c *Client) UpdatePage(ctx context.Context, id int64, content string) (*Page, error) {
	var page Page
	path := fmt.Sprintf("/wp/v2/pages/%d", id)
	if err := c.doJSON(ctx, http.MethodPut, path, map[string]any{"content": content}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SetFrontPage makes pageID the static front page.
func (c *Client) SetFrontPage(ctx context.Context, pageID int64) error {
	body := map[string]any{
		"show_on_front": "page",
		"page_on_front": pageID,
	}
	return c.doJSON(ctx, http.MethodPost, "/wp/v2/settings", body, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	headers := map[string]string{"Content-Type": "application/json"}
	return c.do(ctx, method, path, bytes.NewReader(data), headers, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, headers map[string]string, out any) error {
	if !c.IsConfigured() {
		return fmt.Errorf("WordPress credentials not configured")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/wp-json"+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.user, c.password)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("WordPress request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
