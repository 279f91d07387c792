// Package compose asks the generation provider for an article draft built
// from the run's analysis record.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/rladydgns3001-ui/autopost/internal/analyze"
	"github.com/rladydgns3001-ui/autopost/internal/config"
	"github.com/rladydgns3001-ui/autopost/internal/llm"
	"github.com/rladydgns3001-ui/autopost/internal/normalize"
)

// ErrNoDraft is returned when the provider response holds no usable draft.
var ErrNoDraft = errors.New("no usable draft in generation response")

const (
	ProfileStrictHTML         = "strict-html"
	ProfilePermissiveMarkdown = "permissive-markdown"
)

const writerPrompt = `당신은 10년 경력의 블로그 작가이자 구글 SEO 전문가입니다.

원칙:
- 공식문서와 공공기관 자료를 가장 먼저 참고합니다.
- 최근 %d개월 이내의 정보만 사용하고, 확인되지 않은 수치는 쓰지 않습니다.
- "~해요", "~거든요" 같은 자연스러운 구어체로 쓰고 이모지는 쓰지 않습니다.

%s

SEO:
- 제목은 55자 이내, 키워드를 앞쪽에 둡니다.
- 첫 100자 안에 키워드를 넣고, 키워드를 7-10회 자연스럽게 사용합니다.
- H2 소제목 3-5개, 각 소제목에 키워드 변형을 넣습니다.
- 메타 설명은 150자 이내, 키워드를 포함합니다.

구조:
- 도입부 2-3문장 뒤에 %s 토큰을 그대로 넣습니다.
- 본문 중간에 내부 링크를 자연스럽게 넣습니다: <a href="%s">%s</a>
- 결론은 핵심 3줄 요약과 다음 행동 유도로 마무리합니다.
- 글 마지막에 %s 토큰을 그대로 넣습니다.
- 본문은 1500자 이상입니다.

키워드: %s
작성 기준일: %s (이 날짜 기준 최신 정보 사용)

## 공식문서/공신력 있는 출처
%s

## 최근 정보
%s

## 경쟁 분석
- 상위 노출 제목: %s
- 자주 쓰인 소제목: %s

JSON으로만 응답하세요:
{
  "title": "제목",
  "metaDescription": "메타 설명",
  "content": "본문"
}`

const strictRules = `형식 (반드시 지킬 것):
- 마크다운 문법(##, **, *, -)은 절대 사용하지 않습니다.
- 소제목은 <h2>, 강조는 <strong>, 문단은 <p>, 목록은 <ul><li>로 씁니다.
- 순수 HTML만 출력합니다.`

const permissiveRules = `형식:
- 본문은 HTML을 기본으로 쓰되 소제목(## ), 강조(**텍스트**), 목록(- 항목) 같은 간단한 마크다운도 쓸 수 있습니다.
- 문단은 <p>로 감쌉니다.`

// Composer generates drafts with an LLM provider.
type Composer struct {
	provider     llm.Provider
	cfg          config.Generation
	recentMonths int
}

// NewComposer creates a new draft composer.
func NewComposer(provider llm.Provider, cfg config.Generation, recentMonths int) *Composer {
	if recentMonths <= 0 {
		recentMonths = 3
	}
	return &Composer{provider: provider, cfg: cfg, recentMonths: recentMonths}
}

// Compose requests a draft for the record. Any failure is fatal to the run:
// provider errors are returned wrapped and an unusable response yields
// ErrNoDraft.
func (c *Composer) Compose(ctx context.Context, rec *analyze.Record, today time.Time) (*normalize.Draft, error) {
	if c.provider == nil {
		return nil, fmt.Errorf("no generation provider configured")
	}

	prompt := BuildPrompt(rec, c.cfg, c.recentMonths, today)
	log.Printf("Generating draft for %q (%s)", rec.Keyword, c.profile())

	text, err := c.provider.Generate(ctx, prompt, c.cfg.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generating draft: %w", err)
	}

	var d normalize.Draft
	if !llm.ParseJSONResponse(text, &d) {
		return nil, ErrNoDraft
	}
	if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Body) == "" {
		return nil, fmt.Errorf("%w: missing title or content", ErrNoDraft)
	}

	log.Printf("Draft generated: %q", d.Title)
	return &d, nil
}

func (c *Composer) profile() string {
	if c.cfg.Profile == "" {
		return ProfileStrictHTML
	}
	return c.cfg.Profile
}

// BuildPrompt renders the writer prompt for a record.
func BuildPrompt(rec *analyze.Record, cfg config.Generation, recentMonths int, today time.Time) string {
	rules := strictRules
	if cfg.Profile == ProfilePermissiveMarkdown {
		rules = permissiveRules
	}

	return fmt.Sprintf(writerPrompt,
		recentMonths,
		rules,
		normalize.ImagePlaceholder,
		cfg.InternalLink.URL, cfg.InternalLink.Text,
		normalize.CTAPlaceholder,
		rec.Keyword,
		today.Format("2006-01-02"),
		formatOfficial(rec.AuthoritativeExcerpts),
		formatRecent(rec.RecentExcerpts),
		joinOr(rec.RankedTitles, " | "),
		joinOr(rec.OutlineHints, ", "),
	)
}

func formatOfficial(excerpts []analyze.Excerpt) string {
	if len(excerpts) == 0 {
		return "공식문서 검색 결과 없음"
	}
	var b strings.Builder
	for _, e := range excerpts {
		fmt.Fprintf(&b, "- %s: %s\n", e.Title, e.Snippet)
		if e.Excerpt != "" {
			fmt.Fprintf(&b, "  발췌: %s\n", e.Excerpt)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRecent(sources []analyze.RecentSource) string {
	if len(sources) == 0 {
		return "최근 정보 없음"
	}
	lines := make([]string, len(sources))
	for i, s := range sources {
		date := s.Date
		if date == "" {
			date = "최근"
		}
		lines[i] = fmt.Sprintf("- [%s] %s: %s", date, s.Title, s.Snippet)
	}
	return strings.Join(lines, "\n")
}

func joinOr(items []string, sep string) string {
	if len(items) == 0 {
		return "없음"
	}
	return strings.Join(items, sep)
}
