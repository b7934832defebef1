// Package ledger persists the set of already-seen postings for deduplication.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gupywatch/gupywatch/internal/model"
)

// Entry is one recorded posting, as read back for inspection.
type Entry struct {
	GupyID      int64
	SearchTitle string
	Title       string
	Company     string
	WorkModel   string
	URL         string
	FirstSeen   time.Time
}

// SQLiteLedger records found postings in a SQLite database, keyed by
// (gupy_id, search_title).
type SQLiteLedger struct {
	db *sql.DB
}

var _ model.JobLedger = (*SQLiteLedger)(nil)

// NewSQLiteLedger opens (or creates) a SQLite database at dbPath and ensures
// the found_jobs table exists.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS found_jobs (
		gupy_id      INTEGER NOT NULL,
		search_title TEXT NOT NULL,
		job_name     TEXT,
		company      TEXT,
		work_model   TEXT,
		job_url      TEXT,
		publish_date TEXT,
		first_seen   DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (gupy_id, search_title)
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating found_jobs table: %w", err)
	}

	return &SQLiteLedger{db: db}, nil
}

// Exists returns true if the given posting key has already been recorded.
func (l *SQLiteLedger) Exists(key model.JobKey) (bool, error) {
	var exists int
	err := l.db.QueryRow(
		"SELECT 1 FROM found_jobs WHERE gupy_id = ? AND search_title = ?",
		key.GupyID, key.SearchTitle,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking key %s: %w", key, err)
	}
	return true, nil
}

// Insert records a posting. If its key already exists the call is a no-op.
func (l *SQLiteLedger) Insert(job model.Job) error {
	var published any
	if job.PublishedAt != nil {
		published = job.PublishedAt.UTC().Format(time.RFC3339)
	}
	_, err := l.db.Exec(
		`INSERT OR IGNORE INTO found_jobs
			(gupy_id, search_title, job_name, company, work_model, job_url, publish_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.GupyID, job.SearchTitle, job.Title, job.Company, job.WorkModel, job.URL, published,
	)
	if err != nil {
		return fmt.Errorf("inserting job %s: %w", job.Key(), err)
	}
	return nil
}

// HasTerm returns true if any posting has been recorded under the given term.
func (l *SQLiteLedger) HasTerm(term string) (bool, error) {
	var exists int
	err := l.db.QueryRow(
		"SELECT 1 FROM found_jobs WHERE search_title = ? LIMIT 1", term,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking term %q: %w", term, err)
	}
	return true, nil
}

// ClearAll deletes every recorded posting. Used after a connectivity outage
// ends, so postings published during the outage are picked up again.
func (l *SQLiteLedger) ClearAll() error {
	if _, err := l.db.Exec("DELETE FROM found_jobs"); err != nil {
		return fmt.Errorf("clearing found jobs: %w", err)
	}
	return nil
}

// RecentByTerm returns the most recently recorded postings for a term,
// newest first, up to limit.
func (l *SQLiteLedger) RecentByTerm(term string, limit int) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT gupy_id, search_title, job_name, company, work_model, job_url, first_seen
		FROM found_jobs WHERE search_title = ?
		ORDER BY first_seen DESC LIMIT ?`,
		term, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing jobs for %q: %w", term, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var name, company, workModel, url sql.NullString
		if err := rows.Scan(&e.GupyID, &e.SearchTitle, &name, &company, &workModel, &url, &e.FirstSeen); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		e.Title = name.String
		e.Company = company.String
		e.WorkModel = workModel.String
		e.URL = url.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job rows: %w", err)
	}
	return entries, nil
}

// TermsWithJobs returns the distinct search terms present in the ledger.
func (l *SQLiteLedger) TermsWithJobs() ([]string, error) {
	rows, err := l.db.Query("SELECT DISTINCT search_title FROM found_jobs ORDER BY search_title")
	if err != nil {
		return nil, fmt.Errorf("listing terms: %w", err)
	}
	defer rows.Close()

	var terms []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, fmt.Errorf("scanning term row: %w", err)
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating term rows: %w", err)
	}
	return terms, nil
}

// Close closes the underlying database connection.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
