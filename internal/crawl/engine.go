// Package crawl implements the per-term crawl pass over the job board.
package crawl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gupywatch/gupywatch/internal/model"
)

// Engine runs one crawl pass per search term. A term's first pass bootstraps
// the ledger silently; later passes walk pages newest-first and stop at the
// first already-seen posting.
type Engine struct {
	fetcher  model.PageFetcher
	ledger   model.JobLedger
	pageSize int
	maxPages int
	logger   *slog.Logger
}

// NewEngine creates a crawl engine. pageSize must match the fetcher's page
// size so short pages can be detected. maxPages caps a monitor pass as a
// runaway guard, zero for no cap.
func NewEngine(fetcher model.PageFetcher, ledger model.JobLedger, pageSize, maxPages int, logger *slog.Logger) *Engine {
	return &Engine{
		fetcher:  fetcher,
		ledger:   ledger,
		pageSize: pageSize,
		maxPages: maxPages,
		logger:   logger,
	}
}

// RunTerm crawls one term and returns the new postings to notify, in the
// order found. Returned postings are already recorded in the ledger. A page
// fetch failure returns the postings collected so far together with the
// error, so they are still announced.
func (e *Engine) RunTerm(ctx context.Context, term string) ([]model.Job, error) {
	bootstrapped, err := e.ledger.HasTerm(term)
	if err != nil {
		return nil, fmt.Errorf("checking term %q: %w", term, err)
	}

	if !bootstrapped {
		return nil, e.bootstrap(ctx, term)
	}
	return e.monitor(ctx, term)
}

// bootstrap records the first page of a never-seen term without announcing
// anything, so a fresh term does not flood the notifier with old postings.
func (e *Engine) bootstrap(ctx context.Context, term string) error {
	e.logger.Info("bootstrapping new term", "term", term)

	jobs, err := e.fetcher.FetchPage(ctx, term, 0)
	if err != nil {
		return fmt.Errorf("bootstrap fetch for %q: %w", term, err)
	}

	inserted := 0
	for _, job := range jobs {
		if err := e.ledger.Insert(job); err != nil {
			return fmt.Errorf("bootstrap insert for %q: %w", term, err)
		}
		inserted++
	}

	e.logger.Info("term bootstrapped", "term", term, "recorded", inserted)
	return nil
}

// monitor walks pages newest-first, collecting unseen postings until it hits
// one already in the ledger or a page shorter than the page size. Postings
// are inserted before they are collected, so a crash cannot announce the
// same posting twice.
func (e *Engine) monitor(ctx context.Context, term string) ([]model.Job, error) {
	var found []model.Job

	for page := 0; ; page++ {
		if e.maxPages > 0 && page >= e.maxPages {
			e.logger.Warn("page cap reached", "term", term, "pages", page)
			return found, nil
		}

		jobs, err := e.fetcher.FetchPage(ctx, term, page)
		if err != nil {
			return found, fmt.Errorf("monitor fetch for %q page %d: %w", term, page, err)
		}

		for _, job := range jobs {
			seen, err := e.ledger.Exists(job.Key())
			if err != nil {
				return found, fmt.Errorf("checking %s: %w", job.Key(), err)
			}
			if seen {
				// Everything past this point was seen on an earlier pass.
				e.logger.Debug("reached known posting", "term", term, "key", job.Key().String(), "new", len(found))
				return found, nil
			}

			if err := e.ledger.Insert(job); err != nil {
				return found, fmt.Errorf("inserting %s: %w", job.Key(), err)
			}
			found = append(found, job)
		}

		if len(jobs) < e.pageSize {
			// Short or empty page means the listing is exhausted.
			return found, nil
		}
	}
}
