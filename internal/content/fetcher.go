package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/avikon/lessonview/internal/logging"
)

// Fetcher retrieves raw locale resources and documents by URL relative
// to the locale root.
type Fetcher interface {
	Fetch(ctx context.Context, docURL string) (string, error)
}

// HTTPFetcher fetches resources over HTTP(S) from a base URL. It
// imposes no timeout of its own; cancellation comes from the caller's
// context only.
type HTTPFetcher struct {
	base   *url.URL
	client *http.Client
	log    *slog.Logger
}

// NewHTTPFetcher creates a fetcher rooted at baseURL.
func NewHTTPFetcher(baseURL string) (*HTTPFetcher, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	return &HTTPFetcher{
		base:   base,
		client: &http.Client{},
		log:    logging.Component("fetcher"),
	}, nil
}

// Fetch issues a GET for the resource and returns its body as text.
func (f *HTTPFetcher) Fetch(ctx context.Context, docURL string) (string, error) {
	ref, err := url.Parse(docURL)
	if err != nil {
		return "", fmt.Errorf("invalid document URL %q: %w", docURL, err)
	}
	target := f.base.ResolveReference(ref).String()

	requestID := uuid.NewString()
	log := f.log.With("request_id", requestID, "url", target)
	log.Debug("fetching document")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %q: %w", target, err)
	}
	req.Header.Set("X-Request-ID", requestID)

	resp, err := f.client.Do(req)
	if err != nil {
		log.Warn("fetch failed", "error", err)
		return "", fmt.Errorf("fetching %q: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("fetch returned non-success status", "status", resp.StatusCode)
		return "", fmt.Errorf("fetching %q: unexpected status %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", target, err)
	}
	return string(body), nil
}
