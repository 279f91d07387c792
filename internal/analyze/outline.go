// Package analyze turns ranked results and sampled pages into the analysis
// record handed to draft generation.
package analyze

import (
	"sort"
	"strings"

	"github.com/rladydgns3001-ui/autopost/internal/sample"
)

// Heading is an outline hint with its frequency across sampled pages.
type Heading struct {
	Text  string
	Count int
}

// CountHeadings tallies headings case-insensitively across pages. Each
// entry keeps the casing it was first seen with; the result is sorted by
// descending count with ties in first-seen order.
func CountHeadings(pages []sample.PageSample) []Heading {
	index := make(map[string]int)
	var counts []Heading
	for _, p := range pages {
		for _, h := range p.Headings {
			key := strings.ToLower(h)
			if i, ok := index[key]; ok {
				counts[i].Count++
				continue
			}
			index[key] = len(counts)
			counts = append(counts, Heading{Text: h, Count: 1})
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// Outline returns the n most frequent headings. A non-positive n returns
// them all.
func Outline(pages []sample.PageSample, n int) []string {
	counts := CountHeadings(pages)
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.Text
	}
	return out
}
