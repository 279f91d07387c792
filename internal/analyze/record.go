package analyze

import (
	"fmt"
	"strings"
	"time"

	"github.com/rladydgns3001-ui/autopost/internal/sample"
	"github.com/rladydgns3001-ui/autopost/internal/search"
)

// Excerpt is a sampled authoritative source.
type Excerpt struct {
	Title   string
	URL     string
	Snippet string
	Excerpt string
}

// RecentSource is a sampled source whose publish date is recent or unknown.
type RecentSource struct {
	Title   string
	URL     string
	Date    string
	Snippet string
}

// Record is the read-only analysis built once per run.
type Record struct {
	Keyword               string
	RankedTitles          []string
	OutlineHints          []string
	Snippets              []string
	AuthoritativeExcerpts []Excerpt
	RecentExcerpts        []RecentSource
	Sampled               int
	Dropped               int
}

// Options bound the record.
type Options struct {
	OutlineSize  int
	ExcerptChars int
	RecentMonths int
	Now          time.Time
}

// Build assembles the record from every ranked result and the samples taken
// from them. Dropped samples are skipped.
func Build(keyword string, results []search.SearchResult, samples []sample.Sample, opts Options) *Record {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	rec := &Record{
		Keyword:      keyword,
		RankedTitles: make([]string, 0, len(results)),
		OutlineHints: Outline(sample.Pages(samples), opts.OutlineSize),
		Dropped:      sample.Dropped(samples),
	}
	for _, r := range results {
		rec.RankedTitles = append(rec.RankedTitles, r.Title)
		if r.Snippet != "" {
			rec.Snippets = append(rec.Snippets, r.Snippet)
		}
	}

	for _, s := range samples {
		if s.Page == nil {
			continue
		}
		rec.Sampled++
		if s.Result.IsAuthoritative {
			rec.AuthoritativeExcerpts = append(rec.AuthoritativeExcerpts, Excerpt{
				Title:   s.Result.Title,
				URL:     s.Result.URL,
				Snippet: s.Result.Snippet,
				Excerpt: truncate(s.Page.TextExcerpt, opts.ExcerptChars),
			})
		}
		if sample.IsRecent(s.Page.PublishDate, opts.Now, opts.RecentMonths) {
			rec.RecentExcerpts = append(rec.RecentExcerpts, RecentSource{
				Title:   s.Result.Title,
				URL:     s.Result.URL,
				Date:    s.Page.PublishDate,
				Snippet: s.Result.Snippet,
			})
		}
	}
	return rec
}

// Markdown renders a human-readable summary of the record.
func (r *Record) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Analysis: %s\n\n", r.Keyword)
	fmt.Fprintf(&b, "%d pages sampled, %d dropped.\n\n", r.Sampled, r.Dropped)

	b.WriteString("## Ranked titles\n\n")
	for i, t := range r.RankedTitles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}

	b.WriteString("\n## Outline hints\n\n")
	if len(r.OutlineHints) == 0 {
		b.WriteString("_none_\n")
	}
	for _, h := range r.OutlineHints {
		fmt.Fprintf(&b, "- %s\n", h)
	}

	b.WriteString("\n## Authoritative sources\n\n")
	if len(r.AuthoritativeExcerpts) == 0 {
		b.WriteString("_none_\n")
	}
	for _, e := range r.AuthoritativeExcerpts {
		fmt.Fprintf(&b, "- [%s](%s): %s\n", e.Title, e.URL, e.Snippet)
	}

	b.WriteString("\n## Recent sources\n\n")
	if len(r.RecentExcerpts) == 0 {
		b.WriteString("_none_\n")
	}
	for _, s := range r.RecentExcerpts {
		date := s.Date
		if date == "" {
			date = "undated"
		}
		fmt.Fprintf(&b, "- [%s] [%s](%s): %s\n", date, s.Title, s.URL, s.Snippet)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
