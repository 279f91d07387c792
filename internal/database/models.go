package database

// Run outcomes.
const (
	OutcomePublished = "published"
	OutcomeFailed    = "failed"
	OutcomeDryRun    = "dry_run"
)

// Run is one pipeline invocation for a keyword.
type Run struct {
	ID               string
	Keyword          string
	CursorIndex      int
	Outcome          string
	Title            *string
	MetaDescription  *string
	PostID           *int64
	PostURL          *string
	PostStatus       *string
	ImageSource      *string
	ImageURL         *string
	TextLength       int
	H2Count          int
	AnalysisMarkdown *string
	BodyHTML         *string
	Error            *string
	CreatedAt        *string
	Sources          []RunSource
}

// RunSource is a search result considered during a run.
type RunSource struct {
	Position      int
	Title         string
	URL           string
	SearchRank    int
	Authoritative bool
	Sampled       bool
	PublishDate   *string
}

// Stats summarizes the run history.
type Stats struct {
	TotalRuns     int
	Published     int
	Failed        int
	DryRuns       int
	LastPublished *string
	AvgTextLength float64
}
