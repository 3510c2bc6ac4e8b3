package gather

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/imoan723/JSRecon-Buddy/pkg/types"
	"golang.org/x/time/rate"
)

// Fetch defaults.
const (
	DefaultMaxConcurrency = 8
	DefaultMaxSourceBytes = 10 << 20
	DefaultFetchRate      = 20 // requests per second against one site
)

// Fetcher downloads external script bodies with bounded concurrency and a
// polite per-site rate limit. Individual failures are logged at debug and
// skipped.
type Fetcher struct {
	client         *http.Client
	limiter        *rate.Limiter
	maxConcurrency int
	maxSourceBytes int64
	logger         *slog.Logger
}

// FetchOption configures a Fetcher.
type FetchOption func(*Fetcher)

// WithHTTPClient replaces the HTTP client used for script downloads.
func WithHTTPClient(client *http.Client) FetchOption {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithMaxConcurrency bounds the script-download fan-out.
func WithMaxConcurrency(n int) FetchOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxConcurrency = n
		}
	}
}

// WithMaxSourceBytes caps how much of a script body is retained; larger
// bodies are truncated and flagged TooLarge.
func WithMaxSourceBytes(n int64) FetchOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxSourceBytes = n
		}
	}
}

// WithFetchRate sets the per-second request rate limit.
func WithFetchRate(perSecond float64) FetchOption {
	return func(f *Fetcher) {
		if perSecond > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithFetchLogger sets the fetch logger.
func WithFetchLogger(logger *slog.Logger) FetchOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a Fetcher with default limits.
func NewFetcher(opts ...FetchOption) *Fetcher {
	f := &Fetcher{
		client:         http.DefaultClient,
		limiter:        rate.NewLimiter(rate.Limit(DefaultFetchRate), 1),
		maxConcurrency: DefaultMaxConcurrency,
		maxSourceBytes: DefaultMaxSourceBytes,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Sources turns a gathered page into the content-source list the scan
// engine consumes: the HTML document, each inline script, then each
// external script body that could be fetched, in inventory order.
func (f *Fetcher) Sources(ctx context.Context, page *Page) []types.ContentSource {
	sources := make([]types.ContentSource, 0, 1+len(page.InlineScripts)+len(page.ExternalScripts))
	sources = append(sources, types.ContentSource{Source: types.MainDocument, Code: page.HTML})
	for i, body := range page.InlineScripts {
		sources = append(sources, types.ContentSource{Source: types.InlineScript(i + 1), Code: body})
	}

	// Fan out over external scripts; slots keep inventory order stable
	// regardless of completion order.
	fetched := make([]*types.ContentSource, len(page.ExternalScripts))
	var wg sync.WaitGroup
	sem := make(chan struct{}, f.maxConcurrency)
	for i, scriptURL := range page.ExternalScripts {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(i int, scriptURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			src, err := f.fetchOne(ctx, scriptURL)
			if err != nil {
				f.logger.Debug("external script unavailable",
					slog.String("url", scriptURL), slog.String("error", err.Error()))
				return
			}
			fetched[i] = src
		}(i, scriptURL)
	}
	wg.Wait()

	for _, src := range fetched {
		if src != nil {
			sources = append(sources, *src)
		}
	}
	return sources
}

func (f *Fetcher) fetchOne(ctx context.Context, scriptURL string) (*types.ContentSource, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scriptURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// Read one byte past the cap to distinguish "exactly at the limit"
	// from "truncated".
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSourceBytes+1))
	if err != nil {
		return nil, err
	}
	src := &types.ContentSource{Source: scriptURL}
	if int64(len(body)) > f.maxSourceBytes {
		src.Code = string(body[:f.maxSourceBytes])
		src.TooLarge = true
	} else {
		src.Code = string(body)
	}
	return src, nil
}
