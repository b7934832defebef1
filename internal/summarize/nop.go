package summarize

import (
	"context"

	"github.com/gupywatch/gupywatch/internal/model"
)

// NopSummarizer is used when AI summarization is disabled. It returns an
// empty summary, so notifications carry the posting fields only.
type NopSummarizer struct{}

var _ model.Summarizer = (*NopSummarizer)(nil)

func NewNopSummarizer() *NopSummarizer { return &NopSummarizer{} }

func (s *NopSummarizer) Summarize(ctx context.Context, description string) (model.Summary, error) {
	return model.Summary{}, nil
}
