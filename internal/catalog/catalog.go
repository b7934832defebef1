// Package catalog supplies the ordered list of search terms to poll.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/gupywatch/gupywatch/internal/model"
)

// Static serves a fixed, config-supplied term list.
type Static struct {
	terms []string
}

var _ model.TermCatalog = (*Static)(nil)

func NewStatic(terms []string) *Static {
	return &Static{terms: terms}
}

func (s *Static) Terms(ctx context.Context) ([]string, error) {
	out := make([]string, len(s.terms))
	copy(out, s.terms)
	return out, nil
}

// SQLite reads terms from a search_terms table, so the list can be edited
// without restarting the monitor. Terms are re-read every cycle.
type SQLite struct {
	db *sql.DB
}

var _ model.TermCatalog = (*SQLite)(nil)

// NewSQLite opens the catalog database at dbPath and ensures the
// search_terms table exists.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening terms db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging terms db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS search_terms (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		term TEXT NOT NULL UNIQUE
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating search_terms table: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (c *SQLite) Terms(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT term FROM search_terms ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing search terms: %w", err)
	}
	defer rows.Close()

	var terms []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, fmt.Errorf("scanning search term: %w", err)
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search terms: %w", err)
	}
	return terms, nil
}

// Add inserts a term at the end of the catalog. Duplicates are rejected.
func (c *SQLite) Add(term string) error {
	if _, err := c.db.Exec("INSERT INTO search_terms (term) VALUES (?)", term); err != nil {
		return fmt.Errorf("adding search term %q: %w", term, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (c *SQLite) Close() error {
	return c.db.Close()
}
