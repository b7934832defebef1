package summarize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/gupywatch/gupywatch/internal/model"
	"github.com/gupywatch/gupywatch/internal/retry"
)

// ErrUnavailable is returned when the summarizer gave up after exhausting its
// retry attempts.
var ErrUnavailable = errors.New("summarizer unavailable")

// Summarizer condenses posting descriptions via an LLM provider, retrying
// transient provider failures with exponential backoff.
type Summarizer struct {
	provider Provider
	tmpl     *template.Template
	policy   retry.Policy
	logger   *slog.Logger
}

var _ model.Summarizer = (*Summarizer)(nil)

// NewSummarizer creates a Summarizer using the given provider and retry policy.
func NewSummarizer(provider Provider, tmpl *template.Template, policy retry.Policy, logger *slog.Logger) *Summarizer {
	policy.Logger = logger
	return &Summarizer{
		provider: provider,
		tmpl:     tmpl,
		policy:   policy,
		logger:   logger,
	}
}

// Summarize renders the prompt, calls the provider under the retry policy,
// and parses the response into sections. On exhaustion the error wraps
// ErrUnavailable.
func (s *Summarizer) Summarize(ctx context.Context, description string) (model.Summary, error) {
	// Nothing to condense; the notification goes out with the posting
	// fields only.
	if strings.TrimSpace(description) == "" {
		return model.Summary{}, nil
	}

	var promptBuf bytes.Buffer
	if err := s.tmpl.Execute(&promptBuf, struct{ Description string }{
		Description: description,
	}); err != nil {
		return model.Summary{}, fmt.Errorf("render prompt: %w", err)
	}

	var raw string
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var callErr error
		raw, callErr = s.provider.Complete(ctx, promptBuf.String())
		return callErr
	})
	if err != nil {
		if retryClass(err) == retry.Fatal {
			return model.Summary{}, fmt.Errorf("llm complete: %w", err)
		}
		return model.Summary{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return parseSummary(raw), nil
}

func retryClass(err error) retry.Class {
	return retry.DefaultClassify(err)
}

// parseSummary cleans the model's response and splits it into the three
// known sections. If no section heading is recognized, the cleaned lines are
// returned as Raw with Structured false.
func parseSummary(raw string) model.Summary {
	lines := cleanLines(raw)

	var summary model.Summary
	var current *[]string
	matched := false

	for _, line := range lines {
		if section := matchSection(line); section != nil {
			switch *section {
			case "responsibilities":
				current = &summary.Responsibilities
			case "skills":
				current = &summary.MandatorySkills
			case "benefits":
				current = &summary.Benefits
			}
			matched = true
			continue
		}
		if current != nil {
			*current = append(*current, line)
		}
	}

	if !matched {
		summary.Raw = lines
		return summary
	}

	summary.Structured = true
	return summary
}

// greetings are boilerplate openers some models prepend despite instructions.
var greetings = []string{
	"here is the concise summary",
	"here's the concise summary",
	"aqui está o resumo conciso",
}

// cleanLines strips markdown markers, bullet prefixes, and greeting
// boilerplate, returning the remaining non-empty lines.
func cleanLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.ReplaceAll(line, "**", "")
		line = strings.ReplaceAll(line, "*", "")
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "•")
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "#")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isGreeting(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func isGreeting(line string) bool {
	lower := strings.ToLower(line)
	for _, g := range greetings {
		if strings.HasPrefix(lower, g) {
			return true
		}
	}
	return false
}

// matchSection recognizes a section heading line, in English or Portuguese.
// A heading is short (a few words, often ending with ":") and carries no
// bullet content of its own.
func matchSection(line string) *string {
	trimmed := strings.TrimSpace(line)
	if !strings.HasSuffix(trimmed, ":") && len(strings.Fields(trimmed)) > 3 {
		return nil
	}

	lower := strings.ToLower(strings.TrimSuffix(trimmed, ":"))
	var name string
	switch {
	case strings.Contains(lower, "respons"):
		name = "responsibilities"
	case strings.Contains(lower, "skill"),
		strings.Contains(lower, "requisit"),
		strings.Contains(lower, "requirement"),
		strings.Contains(lower, "mandat"),
		strings.Contains(lower, "obrigat"):
		name = "skills"
	case strings.Contains(lower, "benef"):
		name = "benefits"
	default:
		return nil
	}
	return &name
}
