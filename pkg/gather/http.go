package gather

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// HTTP gathers pages with a plain GET: no JavaScript execution, so the
// script inventory is whatever the server-rendered HTML declares.
type HTTP struct {
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

// HTTPOption configures an HTTP gatherer.
type HTTPOption func(*HTTP)

// WithClient replaces the page-fetch HTTP client.
func WithClient(client *http.Client) HTTPOption {
	return func(g *HTTP) {
		if client != nil {
			g.client = client
		}
	}
}

// WithMaxBytes caps the retained HTML size.
func WithMaxBytes(n int64) HTTPOption {
	return func(g *HTTP) {
		if n > 0 {
			g.maxBytes = n
		}
	}
}

// WithLogger sets the gatherer's logger.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(g *HTTP) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewHTTP creates an HTTP gatherer.
func NewHTTP(opts ...HTTPOption) *HTTP {
	g := &HTTP{
		client:   http.DefaultClient,
		maxBytes: DefaultMaxSourceBytes,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Gather implements Gatherer.
func (g *HTTP) Gather(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building page request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching page: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("reading page body: %w", err)
	}

	page, err := newPage(pageURL, string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	g.logger.Debug("gathered page",
		slog.String("url", pageURL),
		slog.Int("inlineScripts", len(page.InlineScripts)),
		slog.Int("externalScripts", len(page.ExternalScripts)))
	return page, nil
}
