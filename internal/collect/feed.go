// Package collect imports candidate keywords from RSS and Atom feeds.
package collect

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedImporter turns feed item titles into keywords.
type FeedImporter struct {
	parser   *gofeed.Parser
	daysBack int
}

// NewFeedImporter creates an importer. Items older than daysBack are
// skipped; zero keeps every item.
func NewFeedImporter(userAgent string, daysBack int) *FeedImporter {
	parser := gofeed.NewParser()
	if userAgent != "" {
		parser.UserAgent = userAgent
	}
	return &FeedImporter{parser: parser, daysBack: daysBack}
}

// Import fetches feedURL and returns up to limit distinct item titles in
// feed order. A non-positive limit keeps all of them.
func (fi *FeedImporter) Import(ctx context.Context, feedURL string, limit int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	feed, err := fi.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", feedURL, err)
	}

	var cutoff time.Time
	if fi.daysBack > 0 {
		cutoff = time.Now().AddDate(0, 0, -fi.daysBack)
	}

	seen := make(map[string]struct{})
	var keywords []string
	for _, item := range feed.Items {
		if limit > 0 && len(keywords) >= limit {
			break
		}
		title := cleanTitle(item.Title)
		if title == "" {
			continue
		}
		if !cutoff.IsZero() && !isWithinWindow(item, cutoff) {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		keywords = append(keywords, title)
	}

	log.Printf("Imported %d keywords from %s", len(keywords), feed.Title)
	return keywords, nil
}

func isWithinWindow(item *gofeed.Item, cutoff time.Time) bool {
	pub := item.PublishedParsed
	if pub == nil {
		pub = item.UpdatedParsed
	}
	if pub == nil {
		return true
	}
	return !pub.Before(cutoff)
}

func cleanTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}
