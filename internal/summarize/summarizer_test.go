package summarize

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gupywatch/gupywatch/internal/model"
	"github.com/gupywatch/gupywatch/internal/retry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockProvider returns queued responses or errors in order.
type mockProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (m *mockProvider) Complete(ctx context.Context, prompt string) (string, error) {
	i := m.calls
	m.calls++
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return "", errors.New("no more responses")
}

func testSummarizer(p Provider, maxAttempts int) *Summarizer {
	policy := retry.Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
	}
	return NewSummarizer(p, JobSummaryTemplate, policy, discardLogger())
}

const structuredResponse = `**Responsibilities:**
- Build and maintain backend services
- Review code

**Mandatory skills:**
- Go
- SQL

**Benefits:**
- Health insurance
`

func TestSummarize_StructuredResponse(t *testing.T) {
	p := &mockProvider{responses: []string{structuredResponse}}
	s := testSummarizer(p, 3)

	summary, err := s.Summarize(context.Background(), "some long description")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if !summary.Structured {
		t.Fatal("summary should be structured")
	}
	if len(summary.Responsibilities) != 2 || summary.Responsibilities[0] != "Build and maintain backend services" {
		t.Errorf("Responsibilities = %v", summary.Responsibilities)
	}
	if len(summary.MandatorySkills) != 2 || summary.MandatorySkills[1] != "SQL" {
		t.Errorf("MandatorySkills = %v", summary.MandatorySkills)
	}
	if len(summary.Benefits) != 1 || summary.Benefits[0] != "Health insurance" {
		t.Errorf("Benefits = %v", summary.Benefits)
	}
}

func TestSummarize_PortugueseSections(t *testing.T) {
	response := `Aqui está o resumo conciso da vaga:

Responsabilidades:
- Desenvolver APIs

Requisitos obrigatórios:
- Go

Benefícios:
- Vale refeição
`
	p := &mockProvider{responses: []string{response}}
	s := testSummarizer(p, 3)

	summary, err := s.Summarize(context.Background(), "descrição")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !summary.Structured {
		t.Fatal("summary should be structured")
	}
	if len(summary.Responsibilities) != 1 || summary.Responsibilities[0] != "Desenvolver APIs" {
		t.Errorf("Responsibilities = %v", summary.Responsibilities)
	}
	if len(summary.MandatorySkills) != 1 || summary.MandatorySkills[0] != "Go" {
		t.Errorf("MandatorySkills = %v", summary.MandatorySkills)
	}
	if len(summary.Benefits) != 1 || summary.Benefits[0] != "Vale refeição" {
		t.Errorf("Benefits = %v", summary.Benefits)
	}
}

func TestSummarize_UnstructuredFallsBackToRaw(t *testing.T) {
	p := &mockProvider{responses: []string{"This role involves building APIs.\nGood pay."}}
	s := testSummarizer(p, 3)

	summary, err := s.Summarize(context.Background(), "description")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.Structured {
		t.Error("summary should not be structured")
	}
	if len(summary.Raw) != 2 || summary.Raw[0] != "This role involves building APIs." {
		t.Errorf("Raw = %v", summary.Raw)
	}
}

func TestSummarize_StripsGreeting(t *testing.T) {
	p := &mockProvider{responses: []string{"Here is the concise summary:\nJust one line."}}
	s := testSummarizer(p, 3)

	summary, err := s.Summarize(context.Background(), "description")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(summary.Raw) != 1 || summary.Raw[0] != "Just one line." {
		t.Errorf("Raw = %v, want greeting stripped", summary.Raw)
	}
}

func TestSummarize_RetriesTransientError(t *testing.T) {
	p := &mockProvider{
		errs:      []error{&model.HTTPError{StatusCode: http.StatusServiceUnavailable}, nil},
		responses: []string{"", structuredResponse},
	}
	s := testSummarizer(p, 3)

	summary, err := s.Summarize(context.Background(), "description")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if p.calls != 2 {
		t.Errorf("provider calls = %d, want 2", p.calls)
	}
	if !summary.Structured {
		t.Error("summary should be structured after retry")
	}
}

func TestSummarize_ExhaustionReturnsErrUnavailable(t *testing.T) {
	p := &mockProvider{
		errs: []error{
			&model.HTTPError{StatusCode: 429},
			&model.HTTPError{StatusCode: 429},
			&model.HTTPError{StatusCode: 429},
		},
	}
	s := testSummarizer(p, 3)

	_, err := s.Summarize(context.Background(), "description")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
	if p.calls != 3 {
		t.Errorf("provider calls = %d, want 3", p.calls)
	}
}

func TestSummarize_FatalErrorNotRetried(t *testing.T) {
	p := &mockProvider{
		errs: []error{&model.HTTPError{StatusCode: http.StatusUnauthorized}},
	}
	s := testSummarizer(p, 5)

	_, err := s.Summarize(context.Background(), "description")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("fatal error should not be reported as unavailability")
	}
	if p.calls != 1 {
		t.Errorf("provider calls = %d, want 1", p.calls)
	}
}

func TestSummarize_EmptyDescription(t *testing.T) {
	p := &mockProvider{}
	s := testSummarizer(p, 3)

	summary, err := s.Summarize(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.Structured || len(summary.Raw) != 0 {
		t.Errorf("summary = %+v, want empty", summary)
	}
	if p.calls != 0 {
		t.Errorf("provider should not be called, got %d calls", p.calls)
	}
}

func TestNopSummarizer(t *testing.T) {
	s := NewNopSummarizer()
	summary, err := s.Summarize(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.Structured || len(summary.Raw) != 0 {
		t.Errorf("summary = %+v, want empty", summary)
	}
}
