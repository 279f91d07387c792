package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const runColumns = `id, keyword, cursor_index, outcome, title, meta_description, post_id, post_url,
	post_status, image_source, image_url, text_length, h2_count, analysis_markdown, body_html,
	error, created_at`

// InsertRun stores a run and its sources. An empty ID is filled with a new
// UUID, which is returned.
func (db *DB) InsertRun(r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, keyword, cursor_index, outcome, title, meta_description, post_id,
		post_url, post_status, image_source, image_url, text_length, h2_count, analysis_markdown,
		body_html, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Keyword, r.CursorIndex, r.Outcome, r.Title, r.MetaDescription, r.PostID,
		r.PostURL, r.PostStatus, r.ImageSource, r.ImageURL, r.TextLength, r.H2Count,
		r.AnalysisMarkdown, r.BodyHTML, r.Error,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for i, s := range r.Sources {
		_, err := tx.Exec(
			`INSERT INTO run_sources (run_id, position, title, url, search_rank, authoritative, sampled, publish_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, i+1, s.Title, s.URL, s.SearchRank, s.Authoritative, s.Sampled, s.PublishDate,
		)
		if err != nil {
			return "", fmt.Errorf("inserting run source: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return r.ID, nil
}

// GetRuns returns the most recent runs, newest first, without sources or
// bodies.
func (db *DB) GetRuns(limit int) ([]Run, error) {
	rows, err := db.conn.Query(
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		r.AnalysisMarkdown = nil
		r.BodyHTML = nil
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun returns one run with its sources, or nil if it does not exist.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.conn.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(
		`SELECT position, title, url, search_rank, authoritative, sampled, publish_date
		FROM run_sources WHERE run_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s RunSource
		if err := rows.Scan(&s.Position, &s.Title, &s.URL, &s.SearchRank, &s.Authoritative, &s.Sampled, &s.PublishDate); err != nil {
			return nil, err
		}
		r.Sources = append(r.Sources, s)
	}
	return r, rows.Err()
}

// GetStats aggregates the run history.
func (db *DB) GetStats() (*Stats, error) {
	var s Stats
	err := db.conn.QueryRow(
		`SELECT COUNT(*),
			COALESCE(SUM(outcome = 'published'), 0),
			COALESCE(SUM(outcome = 'failed'), 0),
			COALESCE(SUM(outcome = 'dry_run'), 0),
			MAX(CASE WHEN outcome = 'published' THEN created_at END),
			COALESCE(AVG(CASE WHEN outcome = 'published' THEN text_length END), 0)
		FROM runs`,
	).Scan(&s.TotalRuns, &s.Published, &s.Failed, &s.DryRuns, &s.LastPublished, &s.AvgTextLength)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// HasPublished reports whether keyword already has a published run.
func (db *DB) HasPublished(keyword string) (bool, error) {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM runs WHERE keyword = ? AND outcome = 'published'`, keyword,
	).Scan(&count)
	return count > 0, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	err := s.Scan(&r.ID, &r.Keyword, &r.CursorIndex, &r.Outcome, &r.Title, &r.MetaDescription,
		&r.PostID, &r.PostURL, &r.PostStatus, &r.ImageSource, &r.ImageURL, &r.TextLength,
		&r.H2Count, &r.AnalysisMarkdown, &r.BodyHTML, &r.Error, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
