// Package pipeline runs one keyword from search to publication.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rladydgns3001-ui/autopost/internal/analyze"
	"github.com/rladydgns3001-ui/autopost/internal/config"
	"github.com/rladydgns3001-ui/autopost/internal/cursor"
	"github.com/rladydgns3001-ui/autopost/internal/database"
	"github.com/rladydgns3001-ui/autopost/internal/image"
	"github.com/rladydgns3001-ui/autopost/internal/metrics"
	"github.com/rladydgns3001-ui/autopost/internal/normalize"
	"github.com/rladydgns3001-ui/autopost/internal/sample"
	"github.com/rladydgns3001-ui/autopost/internal/search"
	"github.com/rladydgns3001-ui/autopost/internal/wordpress"
)

// Searcher queries the search provider.
type Searcher interface {
	Search(ctx context.Context, keyword string) ([]search.RawResult, error)
	SearchOfficial(ctx context.Context, keyword string) []search.SearchResult
}

// PageSampler samples ranked pages.
type PageSampler interface {
	Sample(ctx context.Context, results []search.SearchResult, maxPages int) []sample.Sample
}

// Drafter produces a draft from an analysis record.
type Drafter interface {
	Compose(ctx context.Context, rec *analyze.Record, today time.Time) (*normalize.Draft, error)
}

// Publisher uploads media and creates posts.
type Publisher interface {
	UploadMedia(ctx context.Context, filename, contentType string, data []byte) (*wordpress.Media, error)
	CreatePost(ctx context.Context, p wordpress.PostRequest) (*wordpress.Post, error)
}

// Archiver keeps a copy of published articles.
type Archiver interface {
	Put(ctx context.Context, keyword, title, body string, t time.Time) (string, error)
}

// History records runs.
type History interface {
	InsertRun(r database.Run) (string, error)
}

// Downloader fetches image bytes and their content type.
type Downloader func(ctx context.Context, url string) ([]byte, string, error)

// Deps are the collaborators of a pipeline. Archive, History and Metrics
// are optional.
type Deps struct {
	Search    Searcher
	Sampler   PageSampler
	Drafter   Drafter
	Images    image.Source
	Download  Downloader
	Publisher Publisher
	Archive   Archiver
	History   History
	Metrics   *metrics.Recorder
	Now       func() time.Time
}

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Keyword   string
	Index     int
	Total     int
	Exhausted bool
	RunID     string
	PostURL   string
	Analysis  *analyze.Record
	Article   *normalize.Article
	Steps     []StepResult
}

// Pipeline orchestrates search, sampling, analysis, generation and
// publication for the keyword at the cursor.
type Pipeline struct {
	cfg  *config.Config
	deps Deps
}

// New creates a new pipeline.
func New(cfg *config.Config, deps Deps) *Pipeline {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Images == nil {
		deps.Images = image.None{}
	}
	return &Pipeline{cfg: cfg, deps: deps}
}

// run is the state carried between steps.
type run struct {
	state    cursor.State
	keyword  string
	ranked   []search.SearchResult
	samples  []sample.Sample
	record   *analyze.Record
	hero     string
	imageURL string
	mediaID  int64
	article  normalize.Article
	stats    normalize.BodyStats
	post     *wordpress.Post
}

// Run processes the keyword at the cursor. An exhausted cursor is a no-op.
// Search, sampling, image and archive failures degrade the run; generation
// and publish failures abort it and leave the cursor where it was.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	r, st, err := p.begin()
	if err != nil || r.Exhausted {
		return r, err
	}

	p.gather(ctx, r, st)
	p.attachImage(ctx, r, st)

	if err := p.step(r, "Generate", func() StepResult { return p.generate(ctx, st) }); err != nil {
		return r, p.fail(r, st, err)
	}
	r.Article = &st.article

	if err := p.step(r, "Publish", func() StepResult { return p.publish(ctx, st) }); err != nil {
		return r, p.fail(r, st, err)
	}
	r.PostURL = st.post.Link

	p.step(r, "Archive", func() StepResult { return p.archive(ctx, st) })
	r.RunID = p.record(st, database.OutcomePublished, nil)

	next := st.state.Advance()
	if err := cursor.Save(p.cfg.Cursor.Path, next); err != nil {
		p.finish(database.OutcomeFailed, next)
		return r, fmt.Errorf("post published at %s but cursor not saved: %w", st.post.Link, err)
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Cursor",
		Summary: fmt.Sprintf("Advanced to %d/%d", next.CurrentIndex, len(next.Keywords)),
	})

	p.finish(database.OutcomePublished, next)
	return r, nil
}

// DryRun searches, samples and analyzes the keyword at the cursor without
// generating, publishing or advancing the cursor.
func (p *Pipeline) DryRun(ctx context.Context) (*Result, error) {
	r, st, err := p.begin()
	if err != nil || r.Exhausted {
		return r, err
	}

	p.gather(ctx, r, st)
	r.RunID = p.record(st, database.OutcomeDryRun, nil)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Publish",
		Summary: fmt.Sprintf("[dry-run] Would publish %q with status %s", st.keyword, p.cfg.Publish.Status),
	})
	p.finish(database.OutcomeDryRun, st.state)
	return r, nil
}

func (p *Pipeline) begin() (*Result, *run, error) {
	state, err := cursor.Load(p.cfg.Cursor.Path)
	if err != nil {
		return &Result{}, nil, err
	}

	r := &Result{Index: state.CurrentIndex, Total: len(state.Keywords)}
	keyword, ok := state.Current()
	if !ok {
		log.Printf("All %d keywords processed", len(state.Keywords))
		r.Exhausted = true
		return r, nil, nil
	}

	r.Keyword = keyword
	log.Printf("Keyword %d/%d: %q", state.CurrentIndex+1, len(state.Keywords), keyword)
	return r, &run{state: state, keyword: keyword}, nil
}

// gather runs the search, sample and analyze steps, none of which is fatal.
func (p *Pipeline) gather(ctx context.Context, r *Result, st *run) {
	p.step(r, "Search", func() StepResult { return p.search(ctx, st) })
	p.step(r, "Sample", func() StepResult { return p.sample(ctx, st) })
	p.step(r, "Analyze", func() StepResult { return p.analyze(st) })
	r.Analysis = st.record
}

// step runs fn, appends its result and records its duration.
func (p *Pipeline) step(r *Result, name string, fn func() StepResult) error {
	start := time.Now()
	res := fn()
	res.Name = name
	r.Steps = append(r.Steps, res)
	if p.deps.Metrics != nil {
		p.deps.Metrics.ObserveStep(name, time.Since(start))
	}
	if res.Err != nil {
		log.Printf("%s failed: %v", name, res.Err)
	}
	return res.Err
}

func (p *Pipeline) search(ctx context.Context, st *run) StepResult {
	log.Println("Searching...")
	raw, err := p.deps.Search.Search(ctx, st.keyword)
	if err != nil {
		log.Printf("Search failed, continuing without results: %v", err)
	}
	st.ranked = search.Rank(raw, p.cfg.Analysis.AuthoritativeDomains, p.cfg.Search.MaxResults)

	var official []search.SearchResult
	if p.cfg.Search.OfficialSearch {
		official = p.deps.Search.SearchOfficial(ctx, st.keyword)
		st.ranked = search.Merge(st.ranked, official)
	}

	authoritative := 0
	for _, res := range st.ranked {
		if res.IsAuthoritative {
			authoritative++
		}
	}
	summary := fmt.Sprintf("%d results (%d authoritative, %d from official search)", len(st.ranked), authoritative, len(official))
	if err != nil {
		summary = "Search unavailable: " + err.Error()
	}
	return StepResult{Summary: summary}
}

func (p *Pipeline) sample(ctx context.Context, st *run) StepResult {
	log.Println("Sampling top pages...")
	st.samples = p.deps.Sampler.Sample(ctx, st.ranked, p.cfg.Sampling.MaxPages)
	dropped := sample.Dropped(st.samples)
	if p.deps.Metrics != nil {
		p.deps.Metrics.PagesSampled.Set(float64(len(st.samples) - dropped))
		p.deps.Metrics.PagesDropped.Set(float64(dropped))
	}
	return StepResult{Summary: fmt.Sprintf("Sampled %d pages, %d dropped", len(st.samples)-dropped, dropped)}
}

func (p *Pipeline) analyze(st *run) StepResult {
	st.record = analyze.Build(st.keyword, st.ranked, st.samples, analyze.Options{
		OutlineSize:  p.cfg.Analysis.OutlineSize,
		ExcerptChars: p.cfg.Analysis.ExcerptChars,
		RecentMonths: p.cfg.Analysis.RecentMonths,
		Now:          p.deps.Now(),
	})
	return StepResult{Summary: fmt.Sprintf("%d titles, %d outline hints, %d authoritative, %d recent",
		len(st.record.RankedTitles), len(st.record.OutlineHints),
		len(st.record.AuthoritativeExcerpts), len(st.record.RecentExcerpts))}
}

// attachImage finds, downloads and uploads the hero image. Any failure
// leaves the article without one.
func (p *Pipeline) attachImage(ctx context.Context, r *Result, st *run) {
	p.step(r, "Image", func() StepResult {
		src := p.deps.Images
		img, err := src.Find(ctx, st.keyword)
		if err != nil {
			return StepResult{Summary: "No image: " + err.Error()}
		}
		if img == nil {
			return StepResult{Summary: fmt.Sprintf("No image from %s source", src.Name())}
		}

		data, contentType, err := p.deps.Download(ctx, img.URL)
		if err != nil {
			return StepResult{Summary: "No image: " + err.Error()}
		}

		filename := fmt.Sprintf("blog-image-%d%s", p.deps.Now().UnixMilli(), image.Extension(contentType))
		media, err := p.deps.Publisher.UploadMedia(ctx, filename, contentType, data)
		if err != nil {
			return StepResult{Summary: "Image upload failed: " + err.Error()}
		}

		st.mediaID = media.ID
		st.imageURL = media.SourceURL
		st.hero = normalize.HeroImageHTML(media.SourceURL, st.keyword)
		return StepResult{Summary: fmt.Sprintf("Uploaded %s image as media %d", src.Name(), media.ID)}
	})
}

func (p *Pipeline) generate(ctx context.Context, st *run) StepResult {
	draft, err := p.deps.Drafter.Compose(ctx, st.record, p.deps.Now())
	if err != nil {
		return StepResult{Err: err}
	}

	st.article = normalize.Normalize(*draft, st.hero, p.cfg.Publish.CTAHTML, p.cfg.Publish.MidCTAHTML)
	stats, err := normalize.Stats(st.article.Body)
	if err != nil {
		log.Printf("Could not measure article: %v", err)
	}
	st.stats = stats
	log.Printf("Article length: %d characters, %d h2", stats.TextLength, stats.H2Count)
	if p.deps.Metrics != nil {
		p.deps.Metrics.TextLength.Set(float64(stats.TextLength))
	}
	return StepResult{Summary: fmt.Sprintf("%q (%d characters)", st.article.Title, stats.TextLength)}
}

func (p *Pipeline) publish(ctx context.Context, st *run) StepResult {
	post, err := p.deps.Publisher.CreatePost(ctx, wordpress.PostRequest{
		Title:           st.article.Title,
		Content:         st.article.Body,
		Status:          p.cfg.Publish.Status,
		MetaDescription: st.article.MetaDescription,
		FeaturedMedia:   st.mediaID,
	})
	if err != nil {
		return StepResult{Err: err}
	}
	st.post = post
	log.Printf("Published: %s", post.Link)
	return StepResult{Summary: fmt.Sprintf("Post %d: %s", post.ID, post.Link)}
}

func (p *Pipeline) archive(ctx context.Context, st *run) StepResult {
	if p.deps.Archive == nil {
		return StepResult{Summary: "Archive disabled"}
	}
	key, err := p.deps.Archive.Put(ctx, st.keyword, st.article.Title, st.article.Body, p.deps.Now())
	if err != nil {
		return StepResult{Summary: "Archive failed: " + err.Error()}
	}
	return StepResult{Summary: "Archived to " + key}
}

// fail records a failed run and returns err.
func (p *Pipeline) fail(r *Result, st *run, err error) error {
	r.RunID = p.record(st, database.OutcomeFailed, err)
	p.finish(database.OutcomeFailed, st.state)
	return err
}

// record stores the run in the history. Failures are logged only.
func (p *Pipeline) record(st *run, outcome string, runErr error) string {
	if p.deps.History == nil {
		return ""
	}

	rec := database.Run{
		Keyword:     st.keyword,
		CursorIndex: st.state.CurrentIndex,
		Outcome:     outcome,
		TextLength:  st.stats.TextLength,
		H2Count:     st.stats.H2Count,
		Sources:     runSources(st.ranked, st.samples),
	}
	if st.record != nil {
		rec.AnalysisMarkdown = strPtr(st.record.Markdown())
	}
	if st.article.Body != "" {
		rec.Title = strPtr(st.article.Title)
		rec.MetaDescription = strPtr(st.article.MetaDescription)
		rec.BodyHTML = strPtr(st.article.Body)
	}
	if st.imageURL != "" {
		rec.ImageSource = strPtr(p.deps.Images.Name())
		rec.ImageURL = strPtr(st.imageURL)
	}
	if st.post != nil {
		rec.PostID = &st.post.ID
		rec.PostURL = strPtr(st.post.Link)
		rec.PostStatus = strPtr(p.cfg.Publish.Status)
	}
	if runErr != nil {
		rec.Error = strPtr(runErr.Error())
	}

	id, err := p.deps.History.InsertRun(rec)
	if err != nil {
		log.Printf("Failed to record run: %v", err)
		return ""
	}
	return id
}

func (p *Pipeline) finish(outcome string, state cursor.State) {
	m := p.deps.Metrics
	if m == nil {
		return
	}
	m.KeywordsLeft.Set(float64(state.Remaining()))
	m.Finish(outcome, p.deps.Now())
	if err := m.WriteTextfile(p.cfg.Metrics.Textfile); err != nil {
		log.Printf("Failed to write metrics: %v", err)
	}
}

func runSources(ranked []search.SearchResult, samples []sample.Sample) []database.RunSource {
	pages := make(map[string]*sample.PageSample, len(samples))
	for _, s := range samples {
		if s.Page != nil {
			pages[s.Result.URL] = s.Page
		}
	}

	sources := make([]database.RunSource, len(ranked))
	for i, r := range ranked {
		src := database.RunSource{
			Title:         r.Title,
			URL:           r.URL,
			SearchRank:    r.Rank,
			Authoritative: r.IsAuthoritative,
		}
		if page, ok := pages[r.URL]; ok {
			src.Sampled = true
			if page.PublishDate != "" {
				src.PublishDate = strPtr(page.PublishDate)
			}
		}
		sources[i] = src
	}
	return sources
}

func strPtr(s string) *string { return &s }
