// Package search queries the search provider and orders its results.
package search

import (
	"sort"
	"strings"
)

// RawResult is an organic result as returned by the search provider.
// Position is the provider's 1-based rank.
type RawResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
	Date     string `json:"date"`
}

// SearchResult is a normalized, ranked result. Treat as immutable.
type SearchResult struct {
	Title           string
	URL             string
	Snippet         string
	Rank            int
	IsAuthoritative bool
	PublishDate     string
}

// IsAuthoritative reports whether url contains any allowlisted domain.
// Matching is plain case-sensitive substring containment against the whole
// URL, not a hostname comparison.
func IsAuthoritative(url string, allowlist []string) bool {
	for _, domain := range allowlist {
		if domain != "" && strings.Contains(url, domain) {
			return true
		}
	}
	return false
}

// Rank normalizes raw provider results, flags authoritative sources and
// returns at most max results ordered authoritative-first, then by original
// rank. A max <= 0 means no limit.
func Rank(raw []RawResult, allowlist []string, max int) []SearchResult {
	results := make([]SearchResult, 0, len(raw))
	for i, r := range raw {
		rank := r.Position
		if rank <= 0 {
			rank = i + 1
		}
		results = append(results, SearchResult{
			Title:           strings.TrimSpace(r.Title),
			URL:             r.Link,
			Snippet:         r.Snippet,
			Rank:            rank,
			IsAuthoritative: IsAuthoritative(r.Link, allowlist),
			PublishDate:     r.Date,
		})
	}
	return Order(results, max)
}

// Order stably sorts results authoritative-first, then by ascending rank,
// and truncates to max. The input slice is not modified.
func Order(results []SearchResult, max int) []SearchResult {
	out := make([]SearchResult, len(results))
	copy(out, results)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsAuthoritative != out[j].IsAuthoritative {
			return out[i].IsAuthoritative
		}
		return out[i].Rank < out[j].Rank
	})

	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// Merge appends official-search results to the ranked list, drops URLs that
// were already present and moves authoritative entries to the front while
// keeping relative order inside each group.
func Merge(ranked, official []SearchResult) []SearchResult {
	seen := make(map[string]struct{}, len(ranked)+len(official))
	var all []SearchResult
	for _, list := range [][]SearchResult{ranked, official} {
		for _, r := range list {
			if _, ok := seen[r.URL]; ok {
				continue
			}
			seen[r.URL] = struct{}{}
			all = append(all, r)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].IsAuthoritative && !all[j].IsAuthoritative
	})
	return all
}
