package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "runs",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    keyword TEXT NOT NULL,
    cursor_index INTEGER NOT NULL,
    outcome TEXT NOT NULL CHECK(outcome IN ('published', 'failed', 'dry_run')),
    title TEXT,
    meta_description TEXT,
    post_id INTEGER,
    post_url TEXT,
    post_status TEXT,
    image_source TEXT,
    image_url TEXT,
    text_length INTEGER DEFAULT 0,
    h2_count INTEGER DEFAULT 0,
    analysis_markdown TEXT,
    body_html TEXT,
    error TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_keyword ON runs(keyword);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "run sources",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS run_sources (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    title TEXT NOT NULL,
    url TEXT NOT NULL,
    search_rank INTEGER NOT NULL,
    authoritative INTEGER DEFAULT 0,
    sampled INTEGER DEFAULT 0,
    publish_date TEXT,
    PRIMARY KEY (run_id, position)
);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
