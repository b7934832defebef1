package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gupywatch/gupywatch/internal/crawl"
	"github.com/gupywatch/gupywatch/internal/model"
	"github.com/gupywatch/gupywatch/internal/summarize"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLedger records calls; HasTerm is always true so the engine monitors.
type fakeLedger struct {
	mu      sync.Mutex
	entries map[model.JobKey]bool
	cleared int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: make(map[model.JobKey]bool)}
}

func (l *fakeLedger) Exists(key model.JobKey) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries[key], nil
}

func (l *fakeLedger) Insert(job model.Job) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[job.Key()] = true
	return nil
}

func (l *fakeLedger) HasTerm(term string) (bool, error) { return true, nil }

func (l *fakeLedger) ClearAll() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[model.JobKey]bool)
	l.cleared++
	return nil
}

func (l *fakeLedger) clearCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cleared
}

// fakeFetcher serves each term one page with a fresh posting per cycle.
type fakeFetcher struct {
	mu     sync.Mutex
	nextID int64
	err    error
}

func (f *fakeFetcher) FetchPage(ctx context.Context, term string, page int) ([]model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if page > 0 {
		return nil, nil
	}
	f.nextID++
	return []model.Job{{
		GupyID:      f.nextID,
		SearchTitle: term,
		Title:       fmt.Sprintf("Job %d", f.nextID),
		Description: "description",
	}}, nil
}

// fakeProber returns scripted probe results, repeating the last one.
type fakeProber struct {
	mu      sync.Mutex
	results []bool
	calls   int
}

func (p *fakeProber) Check(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	p.calls++
	if i >= len(p.results) {
		i = len(p.results) - 1
	}
	return p.results[i]
}

type fakeSummarizer struct {
	err error
}

func (s *fakeSummarizer) Summarize(ctx context.Context, description string) (model.Summary, error) {
	if s.err != nil {
		return model.Summary{}, s.err
	}
	return model.Summary{Raw: []string{"summary"}}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []model.Job
	err  error
}

func (n *fakeNotifier) Send(ctx context.Context, job model.Job, summary model.Summary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, job)
	return n.err
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type deps struct {
	ledger     *fakeLedger
	fetcher    *fakeFetcher
	prober     *fakeProber
	summarizer *fakeSummarizer
	notifier   *fakeNotifier
}

func newTestScheduler(d deps, interval time.Duration) *Scheduler {
	engine := crawl.NewEngine(d.fetcher, d.ledger, 10, 0, discardLogger())
	catalog := staticCatalog{"backend"}
	s := NewScheduler(engine, catalog, d.ledger, d.prober, d.summarizer, d.notifier, interval, discardLogger())
	s.termPause = 0
	return s
}

type staticCatalog []string

func (c staticCatalog) Terms(ctx context.Context) ([]string, error) {
	return c, nil
}

func defaultDeps() deps {
	return deps{
		ledger:     newFakeLedger(),
		fetcher:    &fakeFetcher{},
		prober:     &fakeProber{results: []bool{true}},
		summarizer: &fakeSummarizer{},
		notifier:   &fakeNotifier{},
	}
}

func runFor(t *testing.T, s *Scheduler, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(d)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}

func TestRun_NotifiesNewPostings(t *testing.T) {
	d := defaultDeps()
	s := newTestScheduler(d, time.Hour)

	runFor(t, s, 100*time.Millisecond)

	if d.notifier.sentCount() != 1 {
		t.Errorf("sent %d notifications, want 1", d.notifier.sentCount())
	}
	if d.ledger.clearCount() != 0 {
		t.Errorf("ledger cleared %d times, want 0", d.ledger.clearCount())
	}
}

func TestRun_TicksOnInterval(t *testing.T) {
	d := defaultDeps()
	s := newTestScheduler(d, 50*time.Millisecond)

	runFor(t, s, 180*time.Millisecond)

	// Immediate cycle plus at least two ticks, each finding one new posting.
	if d.notifier.sentCount() < 3 {
		t.Errorf("sent %d notifications, want at least 3", d.notifier.sentCount())
	}
}

func TestRun_SkipsCycleWhenDown(t *testing.T) {
	d := defaultDeps()
	d.prober = &fakeProber{results: []bool{false}}
	s := newTestScheduler(d, 20*time.Millisecond)

	runFor(t, s, 100*time.Millisecond)

	if d.notifier.sentCount() != 0 {
		t.Errorf("sent %d notifications while down, want 0", d.notifier.sentCount())
	}
	if d.ledger.clearCount() != 0 {
		t.Errorf("ledger cleared %d times, want 0", d.ledger.clearCount())
	}
}

func TestRun_ClearsLedgerOnRecovery(t *testing.T) {
	d := defaultDeps()
	d.prober = &fakeProber{results: []bool{false, true, true}}
	s := newTestScheduler(d, 20*time.Millisecond)

	runFor(t, s, 150*time.Millisecond)

	if d.ledger.clearCount() != 1 {
		t.Errorf("ledger cleared %d times, want exactly 1 (the recovery edge)", d.ledger.clearCount())
	}
}

func TestRun_FirstUpIsNotRecovery(t *testing.T) {
	d := defaultDeps()
	s := newTestScheduler(d, time.Hour)

	runFor(t, s, 100*time.Millisecond)

	if d.ledger.clearCount() != 0 {
		t.Errorf("ledger cleared %d times on first up, want 0", d.ledger.clearCount())
	}
}

func TestRun_SummarizerUnavailableSkipsNotification(t *testing.T) {
	d := defaultDeps()
	d.summarizer = &fakeSummarizer{err: fmt.Errorf("%w: boom", summarize.ErrUnavailable)}
	s := newTestScheduler(d, time.Hour)

	runFor(t, s, 100*time.Millisecond)

	if d.notifier.sentCount() != 0 {
		t.Errorf("sent %d notifications, want 0 when summarization fails", d.notifier.sentCount())
	}
	// The posting is still recorded, so it is never announced again.
	if len(d.ledger.entries) == 0 {
		t.Error("posting should stay recorded despite the skipped notification")
	}
}

func TestRun_NotifierErrorDoesNotAbortCycle(t *testing.T) {
	d := defaultDeps()
	d.notifier = &fakeNotifier{err: errors.New("send failed")}
	s := newTestScheduler(d, 30*time.Millisecond)

	runFor(t, s, 100*time.Millisecond)

	// Later cycles keep running after a failed send.
	if d.notifier.sentCount() < 2 {
		t.Errorf("sent %d attempts, want at least 2", d.notifier.sentCount())
	}
}

func TestRun_FetchErrorDoesNotAbortLoop(t *testing.T) {
	d := defaultDeps()
	d.fetcher = &fakeFetcher{err: errors.New("fetch failed")}
	s := newTestScheduler(d, 20*time.Millisecond)

	runFor(t, s, 100*time.Millisecond)

	if d.prober.calls < 2 {
		t.Errorf("probe calls = %d, want loop to keep ticking", d.prober.calls)
	}
}

func TestRunOnce_SingleCycle(t *testing.T) {
	d := defaultDeps()
	s := newTestScheduler(d, time.Hour)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if d.notifier.sentCount() != 1 {
		t.Errorf("sent %d notifications, want 1", d.notifier.sentCount())
	}
	// RunOnce never probes connectivity.
	if d.prober.calls != 0 {
		t.Errorf("probe calls = %d, want 0", d.prober.calls)
	}
}
