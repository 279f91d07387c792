// Package sample fetches a bounded number of ranked pages and extracts the
// text, headings and publish date the analysis step needs.
package sample

import (
	"context"
	"log"

	"golang.org/x/time/rate"

	"github.com/rladydgns3001-ui/autopost/internal/config"
	"github.com/rladydgns3001-ui/autopost/internal/search"
)

// PageSample is what was extracted from one successfully fetched page.
type PageSample struct {
	URL         string
	TextExcerpt string
	Headings    []string
	PublishDate string
}

// Sample pairs an attempted result with its page. Page is nil when the
// fetch failed and the page was dropped.
type Sample struct {
	Result search.SearchResult
	Page   *PageSample
}

// PageFetcher returns the raw markup of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Sampler fetches pages sequentially in ranking order.
type Sampler struct {
	fetcher     PageFetcher
	readability bool
	limiter     *rate.Limiter
}

// New creates a sampler. A positive RequestsPerSecond paces fetches.
func New(fetcher PageFetcher, cfg config.Sampling) *Sampler {
	s := &Sampler{
		fetcher:     fetcher,
		readability: cfg.Extractor == "readability",
	}
	if cfg.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return s
}

// Sample attempts the first maxPages results. The returned slice is
// index-aligned with the attempted results; failed fetches are logged and
// carry a nil Page. Failures are never returned or retried.
func (s *Sampler) Sample(ctx context.Context, results []search.SearchResult, maxPages int) []Sample {
	n := min(maxPages, len(results))
	if n < 0 {
		n = 0
	}
	samples := make([]Sample, 0, n)

	for _, r := range results[:n] {
		sm := Sample{Result: r}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				log.Printf("Sampling stopped: %v", err)
				samples = append(samples, sm)
				continue
			}
		}

		html, err := s.fetcher.Fetch(ctx, r.URL)
		if err != nil {
			log.Printf("Dropping %s: %v", r.URL, err)
			samples = append(samples, sm)
			continue
		}

		sm.Page = s.extract(r.URL, html)
		samples = append(samples, sm)
	}

	log.Printf("Sampled %d/%d pages", len(Pages(samples)), n)
	return samples
}

func (s *Sampler) extract(pageURL, html string) *PageSample {
	page := &PageSample{
		URL:         pageURL,
		Headings:    ExtractHeadings(html),
		PublishDate: ExtractDate(html),
	}
	if s.readability {
		if text, ok := readableText(html, pageURL); ok {
			page.TextExcerpt = text
			return page
		}
	}
	page.TextExcerpt = ExtractText(html)
	return page
}

// Pages returns the pages that were fetched, in order.
func Pages(samples []Sample) []PageSample {
	var pages []PageSample
	for _, s := range samples {
		if s.Page != nil {
			pages = append(pages, *s.Page)
		}
	}
	return pages
}

// Dropped counts samples whose fetch failed.
func Dropped(samples []Sample) int {
	n := 0
	for _, s := range samples {
		if s.Page == nil {
			n++
		}
	}
	return n
}
