// Package image finds an illustration for a keyword.
package image

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rladydgns3001-ui/autopost/internal/config"
)

const maxImageBytes = 20 << 20

// Image is a remote illustration.
type Image struct {
	URL         string
	Alt         string
	Credit      string
	CreditURL   string
	ContentType string
}

// Source finds an image for a keyword. A nil image with a nil error means
// the source has nothing to offer.
type Source interface {
	Find(ctx context.Context, keyword string) (*Image, error)
	Name() string
}

// None never returns an image.
type None struct{}

func (None) Find(context.Context, string) (*Image, error) { return nil, nil }
func (None) Name() string                                 { return "none" }

// NewSource returns the source selected by cfg.Source.
func NewSource(cfg config.Image, apiKey string) (Source, error) {
	switch cfg.Source {
	case "generated":
		return NewGenerated(cfg.Model, cfg.Size, apiKey), nil
	case "stock":
		return NewStock(apiKey), nil
	case "none", "":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown image source %q", cfg.Source)
	}
}

// Download fetches the image bytes and the served content type.
func Download(ctx context.Context, client *http.Client, url string) ([]byte, string, error) {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("downloading image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("downloading image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("reading image: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// Extension returns the file extension for an image content type.
func Extension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
