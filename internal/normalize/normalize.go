// Package normalize rewrites a generated draft into publishable HTML.
//
// The body goes through a fixed list of passes. Each pass is a pure
// string-to-string function and sees only the output of the pass before it.
package normalize

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

const (
	ImagePlaceholder = "[IMAGE_PLACEHOLDER]"
	CTAPlaceholder   = "[CTA_PLACEHOLDER]"
)

// Draft is the structured output of the generation step.
type Draft struct {
	Title           string `json:"title"`
	MetaDescription string `json:"metaDescription"`
	Body            string `json:"content"`
}

// Article is a draft whose body has been fully normalized.
type Article struct {
	Title           string
	MetaDescription string
	Body            string
}

type pass struct {
	name  string
	apply func(body string) string
}

var (
	h2LineRe = regexp.MustCompile(`(?m)^## (.+)$`)
	h3LineRe = regexp.MustCompile(`(?m)^### (.+)$`)
	strongRe = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	emRe     = regexp.MustCompile(`\*([^*]+)\*`)
	listRe   = regexp.MustCompile(`(?m)^- (.+)$`)
	h2OpenRe = regexp.MustCompile(`(?i)<h2[^>]*>`)
	crlf     = strings.NewReplacer("\r\n", "\n")
)

// passes builds the ordered rewrite list for one article.
func passes(hero, cta, mid string) []pass {
	return []pass{
		{"headings", func(s string) string {
			s = h2LineRe.ReplaceAllString(s, "<h2>$1</h2>")
			return h3LineRe.ReplaceAllString(s, "<h3>$1</h3>")
		}},
		{"strong", func(s string) string {
			return strongRe.ReplaceAllString(s, "<strong>$1</strong>")
		}},
		{"emphasis", func(s string) string {
			return emRe.ReplaceAllString(s, "<em>$1</em>")
		}},
		// Items are emitted bare, without a <ul> wrapper.
		{"list-items", func(s string) string {
			return listRe.ReplaceAllString(s, "<li>$1</li>")
		}},
		{"hero-image", func(s string) string {
			return strings.Replace(s, ImagePlaceholder, hero, 1)
		}},
		{"mid-cta", func(s string) string {
			return insertBeforeThirdH2(s, mid)
		}},
		// Appended only when neither the token nor the markup is present.
		{"cta", func(s string) string {
			if strings.Contains(s, CTAPlaceholder) {
				return strings.Replace(s, CTAPlaceholder, cta, 1)
			}
			if cta != "" && strings.Contains(s, cta) {
				return s
			}
			return s + cta
		}},
	}
}

// Normalize applies every pass to the draft body in order. It never fails;
// a pass whose pattern does not match leaves the body unchanged.
func Normalize(d Draft, hero, cta, mid string) Article {
	body := crlf.Replace(d.Body)
	for _, p := range passes(hero, cta, mid) {
		body = p.apply(body)
	}
	return Article{
		Title:           strings.TrimSpace(d.Title),
		MetaDescription: strings.TrimSpace(d.MetaDescription),
		Body:            body,
	}
}

// PassNames lists the rewrite passes in execution order.
func PassNames() []string {
	ps := passes("", "", "")
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.name
	}
	return names
}

func insertBeforeThirdH2(body, mid string) string {
	if mid == "" || strings.Contains(body, mid) {
		return body
	}
	locs := h2OpenRe.FindAllStringIndex(body, 3)
	if len(locs) < 3 {
		return body
	}
	at := locs[2][0]
	return body[:at] + mid + body[at:]
}

// HeroImageHTML returns the figure block used for the hero image.
func HeroImageHTML(src, alt string) string {
	return fmt.Sprintf("\n<figure class=\"wp-block-image size-large\">\n  <img src=\"%s\" alt=\"%s\" />\n</figure>",
		html.EscapeString(src), html.EscapeString(alt))
}
