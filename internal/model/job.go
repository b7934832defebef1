package model

import (
	"context"
	"fmt"
	"time"
)

// Job is a single Gupy posting, normalized from the portal API.
type Job struct {
	GupyID      int64      // posting ID assigned by Gupy
	SearchTitle string     // the search term this posting was found under
	Title       string     // job title
	Company     string     // career page name
	WorkModel   string     // "Remote", "Hybrid - city - state", "Onsite - city - state"
	URL         string     // direct apply link
	Description string     // full posting description (not persisted)
	PublishedAt *time.Time // nullable (not always provided)
}

// Key returns the composite key identifying this posting within its term.
func (j Job) Key() JobKey {
	return JobKey{GupyID: j.GupyID, SearchTitle: j.SearchTitle}
}

// JobKey is the composite key (gupy_id, search_title). The same posting found
// under two different search terms is two distinct keys.
type JobKey struct {
	GupyID      int64
	SearchTitle string
}

func (k JobKey) String() string {
	return fmt.Sprintf("%d/%s", k.GupyID, k.SearchTitle)
}

// Summary is the structured output of the AI summarizer. When the model's
// response could not be split into recognizable sections, Structured is false
// and Raw holds the cleaned full text.
type Summary struct {
	Responsibilities []string
	MandatorySkills  []string
	Benefits         []string
	Raw              []string // cleaned lines, fallback when Structured is false
	Structured       bool
}

// PageFetcher fetches one page of postings for a term. Pages are newest-first;
// page indexes start at 0.
type PageFetcher interface {
	FetchPage(ctx context.Context, term string, page int) ([]Job, error)
}

// JobLedger is the persisted deduplication store of previously seen postings.
// Entries are created once and never mutated; ClearAll is the only removal.
type JobLedger interface {
	Exists(key JobKey) (bool, error)
	Insert(job Job) error
	HasTerm(term string) (bool, error)
	ClearAll() error
}

// TermCatalog supplies the ordered list of search terms to poll.
type TermCatalog interface {
	Terms(ctx context.Context) ([]string, error)
}

// Summarizer condenses a posting description into a Summary.
type Summarizer interface {
	Summarize(ctx context.Context, description string) (Summary, error)
}

// Notifier formats and delivers an alert for one new posting.
type Notifier interface {
	Send(ctx context.Context, job Job, summary Summary) error
}
