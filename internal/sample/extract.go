package sample

import (
	"net/url"
	"regexp"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

const (
	maxTextRunes = 3000
	maxHeadings  = 10
)

var (
	scriptRe  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
	spaceRe   = regexp.MustCompile(`\s+`)
	h2Re      = regexp.MustCompile(`(?i)<h2[^>]*>(.*?)</h2>`)
	datePatts = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<meta[^>]*property="article:published_time"[^>]*content="([^"]+)"`),
		regexp.MustCompile(`(?i)<meta[^>]*name="date"[^>]*content="([^"]+)"`),
		regexp.MustCompile(`(?i)<meta[^>]*name="pubdate"[^>]*content="([^"]+)"`),
		regexp.MustCompile(`(\d{4}[-/.]\d{1,2}[-/.]\d{1,2})`),
		regexp.MustCompile(`(\d{4}년\s*\d{1,2}월\s*\d{1,2}일)`),
	}
)

// ExtractText strips script and style blocks and every remaining tag, then
// collapses whitespace and keeps the first 3000 characters.
func ExtractText(html string) string {
	text := scriptRe.ReplaceAllString(html, "")
	text = styleRe.ReplaceAllString(text, "")
	text = tagRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
	return truncateRunes(text, maxTextRunes)
}

// ExtractHeadings returns the tag-stripped text of the first ten h2
// elements. Headings spanning several lines are not matched.
func ExtractHeadings(html string) []string {
	matches := h2Re.FindAllStringSubmatch(html, -1)
	headings := make([]string, 0, min(len(matches), maxHeadings))
	for _, m := range matches {
		if len(headings) == maxHeadings {
			break
		}
		headings = append(headings, strings.TrimSpace(tagRe.ReplaceAllString(m[1], "")))
	}
	return headings
}

// ExtractDate returns the first publish date candidate found, trying meta
// tags before free-text patterns. Empty means no date was found.
func ExtractDate(html string) string {
	for _, re := range datePatts {
		if m := re.FindStringSubmatch(html); m != nil {
			return m[1]
		}
	}
	return ""
}

// readableText extracts the main article text with readability.
func readableText(html, pageURL string) (string, bool) {
	u, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil {
		return "", false
	}
	text := strings.TrimSpace(spaceRe.ReplaceAllString(article.TextContent, " "))
	if text == "" {
		return "", false
	}
	return truncateRunes(text, maxTextRunes), true
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
