package notify

import (
	"context"
	"log/slog"

	"github.com/gupywatch/gupywatch/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes new postings to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each posting via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the posting with company, title, work model, and URL.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Send(ctx context.Context, job model.Job, summary model.Summary) error {
	args := []any{
		"search", job.SearchTitle,
		"company", job.Company,
		"title", job.Title,
		"work_model", job.WorkModel,
		"url", job.URL,
	}
	if job.PublishedAt != nil {
		args = append(args, "published_at", *job.PublishedAt)
	}
	if summary.Structured {
		args = append(args, "skills", summary.MandatorySkills)
	}
	n.logger.Info("new job", args...)
	return nil
}
