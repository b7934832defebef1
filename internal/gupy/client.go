// Package gupy implements the job-board API client for the Gupy portal.
package gupy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/gupywatch/gupywatch/internal/model"
)

const defaultBaseURL = "https://portal.api.gupy.io/api/v1"

// gupyJob represents a single posting in the Gupy API response.
type gupyJob struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	CareerPageName string `json:"careerPageName"`
	WorkplaceType  string `json:"workplaceType"`
	City           string `json:"city"`
	State          string `json:"state"`
	PublishedDate  string `json:"publishedDate"`
	JobURL         string `json:"jobUrl"`
	Description    string `json:"description"`
}

// gupyResponse is the top-level Gupy jobs API response.
type gupyResponse struct {
	Data []gupyJob `json:"data"`
}

// Client fetches pages of postings from the Gupy portal API, newest-first,
// using limit/offset pagination.
type Client struct {
	baseURL  string
	pageSize int
	client   *http.Client
	limiter  *rate.Limiter
}

var _ model.PageFetcher = (*Client)(nil)

// NewClient creates a Gupy API client. An empty baseURL selects the public
// portal endpoint. rps bounds the request rate toward the API.
func NewClient(baseURL string, pageSize int, rps float64, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:  baseURL,
		pageSize: pageSize,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// FetchPage retrieves one page of postings for the given term and normalizes
// them into the unified Job model. Page indexes start at 0.
func (c *Client) FetchPage(ctx context.Context, term string, page int) ([]model.Job, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("gupy fetch for %q: %w", term, err)
	}

	q := url.Values{}
	q.Set("jobName", term)
	q.Set("limit", strconv.Itoa(c.pageSize))
	q.Set("offset", strconv.Itoa(page*c.pageSize))
	reqURL := fmt.Sprintf("%s/jobs?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("gupy fetch for %q: %w", term, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gupy fetch for %q: %w", term, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("gupy fetch for %q", term),
		}
	}

	var gr gupyResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("gupy fetch for %q: %w", term, err)
	}

	jobs := make([]model.Job, 0, len(gr.Data))
	for _, gj := range gr.Data {
		job := model.Job{
			GupyID:      gj.ID,
			SearchTitle: term,
			Title:       gj.Name,
			Company:     gj.CareerPageName,
			WorkModel:   workModel(gj),
			URL:         gj.JobURL,
			Description: gj.Description,
		}

		if gj.PublishedDate != "" {
			t, err := time.Parse(time.RFC3339, gj.PublishedDate)
			if err == nil {
				job.PublishedAt = &t
			}
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}

// workModel normalizes workplaceType/city/state into a display string.
func workModel(gj gupyJob) string {
	switch gj.WorkplaceType {
	case "remote":
		return "Remote"
	case "hybrid":
		return fmt.Sprintf("Hybrid - %s - %s", orUnknown(gj.City), orUnknown(gj.State))
	default:
		return fmt.Sprintf("Onsite - %s - %s", orUnknown(gj.City), orUnknown(gj.State))
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
