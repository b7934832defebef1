// Package netcheck probes internet reachability and tracks connectivity
// transitions across polling cycles.
package netcheck

import (
	"context"
	"log/slog"
	"net/http"
)

// Prober performs a single reachability check against a well-known URL.
type Prober struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewProber(url string, client *http.Client, logger *slog.Logger) *Prober {
	return &Prober{url: url, client: client, logger: logger}
}

// Check reports whether the probe URL is reachable. Any error, timeout, or
// non-2xx status counts as unreachable; Check itself never fails.
func (p *Prober) Check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		p.logger.Warn("building connectivity probe request", "url", p.url, "error", err)
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("connectivity probe failed", "url", p.url, "error", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
