package normalize

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// BodyStats summarizes a normalized body.
type BodyStats struct {
	TextLength int
	H2Count    int
	LinkCount  int
	ImageCount int
}

// Stats parses body as an HTML fragment and counts visible text runes,
// h2 headings, links and images.
func Stats(body string) (BodyStats, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return BodyStats{}, err
	}
	text := strings.Join(strings.Fields(doc.Text()), " ")
	return BodyStats{
		TextLength: utf8.RuneCountInString(text),
		H2Count:    doc.Find("h2").Length(),
		LinkCount:  doc.Find("a[href]").Length(),
		ImageCount: doc.Find("img").Length(),
	}, nil
}
