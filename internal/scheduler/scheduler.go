// Package scheduler owns the main monitoring loop.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gupywatch/gupywatch/internal/crawl"
	"github.com/gupywatch/gupywatch/internal/model"
	"github.com/gupywatch/gupywatch/internal/netcheck"
	"github.com/gupywatch/gupywatch/internal/summarize"
)

// ConnectivityChecker performs a single reachability probe.
type ConnectivityChecker interface {
	Check(ctx context.Context) bool
}

// Scheduler ticks on an interval and runs one full cycle each tick: probe
// connectivity, crawl every term sequentially, summarize and announce each
// new posting.
type Scheduler struct {
	engine     *crawl.Engine
	catalog    model.TermCatalog
	ledger     model.JobLedger
	prober     ConnectivityChecker
	netmon     *netcheck.Monitor
	summarizer model.Summarizer
	notifier   model.Notifier
	interval   time.Duration
	termPause  time.Duration
	logger     *slog.Logger
}

// NewScheduler wires the full cycle together.
func NewScheduler(
	engine *crawl.Engine,
	catalog model.TermCatalog,
	ledger model.JobLedger,
	prober ConnectivityChecker,
	summarizer model.Summarizer,
	notifier model.Notifier,
	interval time.Duration,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		engine:     engine,
		catalog:    catalog,
		ledger:     ledger,
		prober:     prober,
		netmon:     netcheck.NewMonitor(),
		summarizer: summarizer,
		notifier:   notifier,
		interval:   interval,
		termPause:  1 * time.Second,
		logger:     logger,
	}
}

// Run starts the monitoring loop. It runs one immediate cycle, then ticks on
// the configured interval. It returns nil when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.runCycle(ctx)
		}
	}
}

// RunOnce runs a single cycle without the connectivity gate. Used by the
// one-shot check command.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.crawlAll(ctx)
}

// runCycle probes connectivity, resets the ledger after an outage ends, and
// crawls all terms. A cycle with the network down is skipped entirely.
func (s *Scheduler) runCycle(ctx context.Context) {
	up := s.prober.Check(ctx)
	recovered := s.netmon.Observe(up)

	if !up {
		s.logger.Warn("network down, skipping cycle")
		return
	}

	if recovered {
		// Postings published during the outage would be buried behind the
		// early-stop heuristic. Clearing the ledger forces a re-bootstrap
		// so nothing stays silently missed.
		s.logger.Info("connectivity restored, clearing ledger")
		if err := s.ledger.ClearAll(); err != nil {
			s.logger.Error("clearing ledger after recovery", "error", err)
			return
		}
	}

	if err := s.crawlAll(ctx); err != nil {
		s.logger.Error("cycle failed", "error", err)
	}
}

// crawlAll crawls each term sequentially with a small pause between terms.
// A failing term is logged and the cycle moves on.
func (s *Scheduler) crawlAll(ctx context.Context) error {
	terms, err := s.catalog.Terms(ctx)
	if err != nil {
		return err
	}

	for i, term := range terms {
		if ctx.Err() != nil {
			return nil
		}

		found, err := s.engine.RunTerm(ctx, term)
		if err != nil {
			s.logger.Error("term crawl failed", "term", term, "error", err)
		}
		// Postings collected before a failure are still announced; they are
		// already recorded in the ledger.
		for _, job := range found {
			s.announce(ctx, job)
		}

		// Small pause between terms to be polite, except after the last one.
		if i < len(terms)-1 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.termPause):
			}
		}
	}

	return nil
}

// announce summarizes and delivers one posting. A summarization failure
// skips the notification for that posting only; the posting stays recorded
// either way, so it is never retried or re-announced.
func (s *Scheduler) announce(ctx context.Context, job model.Job) {
	summary, err := s.summarizer.Summarize(ctx, job.Description)
	if err != nil {
		if errors.Is(err, summarize.ErrUnavailable) {
			s.logger.Warn("summarizer unavailable, skipping notification", "key", job.Key().String())
		} else {
			s.logger.Error("summarization failed, skipping notification", "key", job.Key().String(), "error", err)
		}
		return
	}

	if err := s.notifier.Send(ctx, job, summary); err != nil {
		s.logger.Error("notification failed", "key", job.Key().String(), "error", err)
	}
}
