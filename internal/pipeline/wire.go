package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/rladydgns3001-ui/autopost/internal/archive"
	"github.com/rladydgns3001-ui/autopost/internal/compose"
	"github.com/rladydgns3001-ui/autopost/internal/config"
	"github.com/rladydgns3001-ui/autopost/internal/cursor"
	"github.com/rladydgns3001-ui/autopost/internal/database"
	"github.com/rladydgns3001-ui/autopost/internal/fetch"
	"github.com/rladydgns3001-ui/autopost/internal/image"
	"github.com/rladydgns3001-ui/autopost/internal/llm"
	"github.com/rladydgns3001-ui/autopost/internal/metrics"
	"github.com/rladydgns3001-ui/autopost/internal/sample"
	"github.com/rladydgns3001-ui/autopost/internal/search"
	"github.com/rladydgns3001-ui/autopost/internal/wordpress"
)

// ErrNotConfigured is returned when a required collaborator lacks credentials.
var ErrNotConfigured = errors.New("not configured")

// RunOnce processes the keyword at the cursor with production
// collaborators. An exhausted cursor returns before anything is built, so it
// needs no credentials and does no network work.
func RunOnce(ctx context.Context, cfg *config.Config, secrets config.Secrets, db *database.DB, dryRun bool) (*Result, error) {
	state, err := cursor.Load(cfg.Cursor.Path)
	if err != nil {
		return nil, err
	}
	if state.IsExhausted() {
		log.Printf("All %d keywords processed", len(state.Keywords))
		return &Result{Index: state.CurrentIndex, Total: len(state.Keywords), Exhausted: true}, nil
	}

	pipe, err := Build(ctx, cfg, secrets, db, dryRun)
	if err != nil {
		return nil, err
	}
	if dryRun {
		return pipe.DryRun(ctx)
	}
	return pipe.Run(ctx)
}

// Build wires the production collaborators from cfg and secrets. The
// generation provider and CMS are only required for publishing runs.
func Build(ctx context.Context, cfg *config.Config, secrets config.Secrets, db *database.DB, dryRun bool) (*Pipeline, error) {
	searcher := search.NewClient(cfg.Search, secrets.SearchAPIKey)
	if !searcher.IsConfigured() {
		return nil, fmt.Errorf("search: %w (set %s)", ErrNotConfigured, cfg.Search.APIKeyEnv)
	}

	deps := Deps{
		Search:  searcher,
		Sampler: sample.New(fetch.New(cfg.Sampling.UserAgent, cfg.Sampling.Timeout), cfg.Sampling),
		Metrics: metrics.NewRecorder(),
	}
	if db != nil {
		deps.History = db
	}
	if dryRun {
		return New(cfg, deps), nil
	}

	provider, err := llm.CreateProvider(ctx, cfg.Generation, secrets.GenerationAPIKey)
	if err != nil {
		return nil, err
	}
	deps.Drafter = compose.NewComposer(provider, cfg.Generation, cfg.Analysis.RecentMonths)

	wp := wordpress.NewClient(secrets.WordPressURL, secrets.WordPressUser, secrets.WordPressPassword)
	if !wp.IsConfigured() {
		return nil, fmt.Errorf("wordpress: %w (set %s, %s and %s)", ErrNotConfigured,
			cfg.Publish.WordPress.URLEnv, cfg.Publish.WordPress.UserEnv, cfg.Publish.WordPress.PasswordEnv)
	}
	deps.Publisher = wp

	src, err := image.NewSource(cfg.Image, secrets.ImageAPIKey)
	if err != nil {
		return nil, err
	}
	deps.Images = src
	deps.Download = func(ctx context.Context, url string) ([]byte, string, error) {
		return image.Download(ctx, nil, url)
	}

	arch, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		return nil, err
	}
	if arch != nil {
		deps.Archive = arch
	}

	return New(cfg, deps), nil
}
