package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rladydgns3001-ui/autopost/internal/analyze"
	"github.com/rladydgns3001-ui/autopost/internal/config"
	"github.com/rladydgns3001-ui/autopost/internal/cursor"
	"github.com/rladydgns3001-ui/autopost/internal/database"
	"github.com/rladydgns3001-ui/autopost/internal/image"
	"github.com/rladydgns3001-ui/autopost/internal/normalize"
	"github.com/rladydgns3001-ui/autopost/internal/sample"
	"github.com/rladydgns3001-ui/autopost/internal/search"
	"github.com/rladydgns3001-ui/autopost/internal/wordpress"
)

type mockSearcher struct {
	raw      []search.RawResult
	err      error
	official []search.SearchResult
	calls    int
}

func (m *mockSearcher) Search(_ context.Context, _ string) ([]search.RawResult, error) {
	m.calls++
	return m.raw, m.err
}

func (m *mockSearcher) SearchOfficial(_ context.Context, _ string) []search.SearchResult {
	return m.official
}

type mockSampler struct{}

func (mockSampler) Sample(_ context.Context, results []search.SearchResult, maxPages int) []sample.Sample {
	n := min(maxPages, len(results))
	out := make([]sample.Sample, n)
	for i := range n {
		out[i] = sample.Sample{Result: results[i]}
		if i == 0 {
			out[i].Page = &sample.PageSample{
				URL:         results[i].URL,
				TextExcerpt: "본문 발췌",
				Headings:    []string{"신청 방법", "자격 조건"},
				PublishDate: "2026-09-01",
			}
		}
	}
	return out
}

type mockDrafter struct {
	draft *normalize.Draft
	err   error
	got   *analyze.Record
}

func (m *mockDrafter) Compose(_ context.Context, rec *analyze.Record, _ time.Time) (*normalize.Draft, error) {
	m.got = rec
	return m.draft, m.err
}

type mockImages struct {
	img *image.Image
	err error
}

func (m mockImages) Find(context.Context, string) (*image.Image, error) { return m.img, m.err }
func (m mockImages) Name() string                                       { return "stock" }

type mockPublisher struct {
	uploads   []string
	posts     []wordpress.PostRequest
	uploadErr error
	postErr   error
}

func (m *mockPublisher) UploadMedia(_ context.Context, filename, _ string, _ []byte) (*wordpress.Media, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	m.uploads = append(m.uploads, filename)
	return &wordpress.Media{ID: 77, SourceURL: "https://blog.example/wp-content/hero.png"}, nil
}

func (m *mockPublisher) CreatePost(_ context.Context, p wordpress.PostRequest) (*wordpress.Post, error) {
	if m.postErr != nil {
		return nil, m.postErr
	}
	m.posts = append(m.posts, p)
	return &wordpress.Post{ID: 501, Link: "https://blog.example/?p=501", Status: p.Status}, nil
}

type mockHistory struct {
	runs []database.Run
}

func (m *mockHistory) InsertRun(r database.Run) (string, error) {
	m.runs = append(m.runs, r)
	return "run-1", nil
}

type mockArchive struct {
	keys []string
	err  error
}

func (m *mockArchive) Put(_ context.Context, keyword, _, _ string, _ time.Time) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	key := "autopost/" + keyword + ".html"
	m.keys = append(m.keys, key)
	return key, nil
}

type fixture struct {
	cfg       *config.Config
	searcher  *mockSearcher
	drafter   *mockDrafter
	publisher *mockPublisher
	history   *mockHistory
	archive   *mockArchive
	images    mockImages
}

func newFixture(t *testing.T, state cursor.State) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keywords.json")
	if err := cursor.Save(path, state); err != nil {
		t.Fatalf("saving cursor: %v", err)
	}

	cfg := &config.Config{
		Search:   config.Search{MaxResults: 7, OfficialSearch: true},
		Sampling: config.Sampling{MaxPages: 5},
		Analysis: config.Analysis{
			OutlineSize:          8,
			ExcerptChars:         1000,
			RecentMonths:         3,
			AuthoritativeDomains: []string{"gov.kr"},
		},
		Publish: config.Publish{
			Status:     "draft",
			CTAHTML:    `<div class="cta">cta</div>`,
			MidCTAHTML: `<div class="mid">mid</div>`,
		},
		Cursor: config.Cursor{Path: path},
	}

	return &fixture{
		cfg: cfg,
		searcher: &mockSearcher{raw: []search.RawResult{
			{Title: "블로그 글", Link: "https://blog.example/post", Snippet: "s1", Position: 1},
			{Title: "정부 안내", Link: "https://www.gov.kr/info", Snippet: "s2", Position: 2},
		}},
		drafter: &mockDrafter{draft: &normalize.Draft{
			Title:           " 청년 지원금 신청 방법 ",
			MetaDescription: "요약",
			Body:            "[IMAGE_PLACEHOLDER]\n<p>intro</p>\n## 첫째\n<p>a</p>\n<h2>둘째</h2>\n<p>b</p>\n<h2>셋째</h2>\n<p>c</p>\n[CTA_PLACEHOLDER]",
		}},
		publisher: &mockPublisher{},
		history:   &mockHistory{},
		archive:   &mockArchive{},
		images:    mockImages{img: &image.Image{URL: "https://images.example/hero.png"}},
	}
}

func (f *fixture) pipeline() *Pipeline {
	return New(f.cfg, Deps{
		Search:    f.searcher,
		Sampler:   mockSampler{},
		Drafter:   f.drafter,
		Images:    f.images,
		Download:  func(context.Context, string) ([]byte, string, error) { return []byte("png"), "image/png", nil },
		Publisher: f.publisher,
		Archive:   f.archive,
		History:   f.history,
		Now:       func() time.Time { return time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC) },
	})
}

func loadCursor(t *testing.T, path string) cursor.State {
	t.Helper()
	s, err := cursor.Load(path)
	if err != nil {
		t.Fatalf("loading cursor: %v", err)
	}
	return s
}

func TestRunPublishesAndAdvances(t *testing.T) {
	f := newFixture(t, cursor.State{Keywords: []string{"청년 지원금", "전세 대출"}})

	r, err := f.pipeline().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if r.Keyword != "청년 지원금" {
		t.Errorf("keyword = %q", r.Keyword)
	}
	if r.PostURL != "https://blog.example/?p=501" {
		t.Errorf("post url = %q", r.PostURL)
	}
	if len(f.publisher.posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(f.publisher.posts))
	}

	post := f.publisher.posts[0]
	if post.Status != "draft" {
		t.Errorf("status = %q, want draft", post.Status)
	}
	if post.Title != "청년 지원금 신청 방법" {
		t.Errorf("title = %q, want trimmed", post.Title)
	}
	if post.FeaturedMedia != 77 {
		t.Errorf("featured media = %d, want 77", post.FeaturedMedia)
	}
	if !strings.Contains(post.Content, `<img src="https://blog.example/wp-content/hero.png"`) {
		t.Error("hero image missing from content")
	}
	if !strings.Contains(post.Content, `<h2>첫째</h2>`) {
		t.Error("markdown heading not rewritten")
	}
	if !strings.Contains(post.Content, `<div class="cta">cta</div>`) || !strings.Contains(post.Content, `<div class="mid">mid</div>`) {
		t.Error("CTA blocks not inserted")
	}
	if len(f.publisher.uploads) != 1 || !strings.HasSuffix(f.publisher.uploads[0], ".png") {
		t.Errorf("uploads = %v", f.publisher.uploads)
	}

	if got := loadCursor(t, f.cfg.Cursor.Path).CurrentIndex; got != 1 {
		t.Errorf("cursor = %d, want 1", got)
	}
	if len(f.archive.keys) != 1 {
		t.Errorf("archive puts = %d, want 1", len(f.archive.keys))
	}

	if len(f.history.runs) != 1 {
		t.Fatalf("history runs = %d, want 1", len(f.history.runs))
	}
	run := f.history.runs[0]
	if run.Outcome != database.OutcomePublished {
		t.Errorf("outcome = %q", run.Outcome)
	}
	if run.PostID == nil || *run.PostID != 501 {
		t.Errorf("post id = %v", run.PostID)
	}
	if len(run.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(run.Sources))
	}
	if !run.Sources[0].Authoritative || run.Sources[0].URL != "https://www.gov.kr/info" {
		t.Errorf("first source = %+v, want authoritative gov.kr", run.Sources[0])
	}
	if !run.Sources[0].Sampled || run.Sources[1].Sampled {
		t.Errorf("sampled flags = %v/%v, want true/false", run.Sources[0].Sampled, run.Sources[1].Sampled)
	}
}

func TestRunExhaustedIsNoop(t *testing.T) {
	f := newFixture(t, cursor.State{CurrentIndex: 1, Keywords: []string{"a"}})

	r, err := f.pipeline().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !r.Exhausted {
		t.Error("expected exhausted result")
	}
	if f.searcher.calls != 0 || len(f.publisher.posts) != 0 || len(f.history.runs) != 0 {
		t.Error("exhausted run should not touch collaborators")
	}
	if got := loadCursor(t, f.cfg.Cursor.Path).CurrentIndex; got != 1 {
		t.Errorf("cursor = %d, want 1", got)
	}
}

func TestRunGenerateFailureKeepsCursor(t *testing.T) {
	f := newFixture(t, cursor.State{Keywords: []string{"a", "b"}})
	f.drafter.draft = nil
	f.drafter.err = errors.New("model returned no JSON")

	_, err := f.pipeline().Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.publisher.posts) != 0 {
		t.Error("nothing should be published")
	}
	if got := loadCursor(t, f.cfg.Cursor.Path).CurrentIndex; got != 0 {
		t.Errorf("cursor = %d, want 0", got)
	}
	if len(f.history.runs) != 1 || f.history.runs[0].Outcome != database.OutcomeFailed {
		t.Fatalf("history = %+v, want one failed run", f.history.runs)
	}
	if e := f.history.runs[0].Error; e == nil || !strings.Contains(*e, "no JSON") {
		t.Errorf("recorded error = %v", e)
	}
}

func TestRunPublishFailureKeepsCursor(t *testing.T) {
	f := newFixture(t, cursor.State{Keywords: []string{"a"}})
	f.publisher.postErr = &wordpress.APIError{StatusCode: 401, Body: "rest_cannot_create"}

	_, err := f.pipeline().Run(context.Background())
	var apiErr *wordpress.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if got := loadCursor(t, f.cfg.Cursor.Path).CurrentIndex; got != 0 {
		t.Errorf("cursor = %d, want 0", got)
	}
	if len(f.archive.keys) != 0 {
		t.Error("failed publish should not archive")
	}
	if run := f.history.runs[0]; run.Outcome != database.OutcomeFailed || run.BodyHTML == nil {
		t.Errorf("failed run should keep the generated body: %+v", run)
	}
}

func TestRunWithoutImage(t *testing.T) {
	tests := []struct {
		name      string
		images    mockImages
		uploadErr error
	}{
		{name: "source error", images: mockImages{err: errors.New("quota exceeded")}},
		{name: "no result", images: mockImages{}},
		{name: "upload error", images: mockImages{img: &image.Image{URL: "https://images.example/x.png"}}, uploadErr: errors.New("413")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, cursor.State{Keywords: []string{"a"}})
			f.images = tt.images
			f.publisher.uploadErr = tt.uploadErr

			if _, err := f.pipeline().Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			post := f.publisher.posts[0]
			if post.FeaturedMedia != 0 {
				t.Errorf("featured media = %d, want 0", post.FeaturedMedia)
			}
			if strings.Contains(post.Content, "<figure") {
				t.Error("content should have no hero image")
			}
			if got := loadCursor(t, f.cfg.Cursor.Path).CurrentIndex; got != 1 {
				t.Errorf("cursor = %d, want 1", got)
			}
		})
	}
}

func TestRunSearchFailureContinues(t *testing.T) {
	f := newFixture(t, cursor.State{Keywords: []string{"a"}})
	f.searcher.raw = nil
	f.searcher.err = errors.New("search unavailable")

	r, err := f.pipeline().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.drafter.got == nil || len(f.drafter.got.RankedTitles) != 0 {
		t.Errorf("drafter should receive an empty record, got %+v", f.drafter.got)
	}
	if r.Steps[0].Name != "Search" || !strings.Contains(r.Steps[0].Summary, "unavailable") {
		t.Errorf("search step = %+v", r.Steps[0])
	}
}

func TestRunArchiveFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, cursor.State{Keywords: []string{"a"}})
	f.archive.err = errors.New("access denied")

	if _, err := f.pipeline().Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := loadCursor(t, f.cfg.Cursor.Path).CurrentIndex; got != 1 {
		t.Errorf("cursor = %d, want 1", got)
	}
}

func TestDryRun(t *testing.T) {
	f := newFixture(t, cursor.State{Keywords: []string{"청년 지원금"}})

	r, err := f.pipeline().DryRun(context.Background())
	if err != nil {
		t.Fatalf("DryRun: %v", err)
	}
	if r.Analysis == nil || len(r.Analysis.OutlineHints) == 0 {
		t.Errorf("analysis = %+v, want outline hints", r.Analysis)
	}
	if f.drafter.got != nil || len(f.publisher.posts) != 0 {
		t.Error("dry run should not generate or publish")
	}
	if got := loadCursor(t, f.cfg.Cursor.Path).CurrentIndex; got != 0 {
		t.Errorf("cursor = %d, want 0", got)
	}
	if len(f.history.runs) != 1 || f.history.runs[0].Outcome != database.OutcomeDryRun {
		t.Errorf("history = %+v, want one dry_run", f.history.runs)
	}
}

func TestRunOnceExhaustedNeedsNoCredentials(t *testing.T) {
	f := newFixture(t, cursor.State{CurrentIndex: 2, Keywords: []string{"a", "b"}})

	for _, dry := range []bool{false, true} {
		r, err := RunOnce(context.Background(), f.cfg, config.Secrets{}, nil, dry)
		if err != nil {
			t.Fatalf("RunOnce(dryRun=%v): %v", dry, err)
		}
		if !r.Exhausted || r.Total != 2 {
			t.Errorf("expected exhausted result for 2 keywords, got %+v", r)
		}
	}
}

func TestRunOnceRequiresCredentialsWithWorkLeft(t *testing.T) {
	f := newFixture(t, cursor.State{Keywords: []string{"a"}})

	_, err := RunOnce(context.Background(), f.cfg, config.Secrets{}, nil, false)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
	if got := loadCursor(t, f.cfg.Cursor.Path).CurrentIndex; got != 0 {
		t.Errorf("cursor = %d, want 0", got)
	}
}
