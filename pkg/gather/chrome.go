package gather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// Chrome gathers pages through headless Chrome, so the HTML reflects the
// DOM after client-side rendering: scripts injected by frameworks are part
// of the inventory, which a plain GET would miss.
type Chrome struct {
	timeout time.Duration
	logger  *slog.Logger
	// execAllocator options appended to chromedp defaults.
	allocatorOpts []chromedp.ExecAllocatorOption
}

// ChromeOption configures a Chrome gatherer.
type ChromeOption func(*Chrome)

// WithTimeout bounds one page render. Default 30s.
func WithTimeout(d time.Duration) ChromeOption {
	return func(g *Chrome) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithChromeLogger sets the gatherer's logger.
func WithChromeLogger(logger *slog.Logger) ChromeOption {
	return func(g *Chrome) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithAllocatorOptions appends chromedp allocator options (proxy,
// custom binary path).
func WithAllocatorOptions(opts ...chromedp.ExecAllocatorOption) ChromeOption {
	return func(g *Chrome) {
		g.allocatorOpts = append(g.allocatorOpts, opts...)
	}
}

// NewChrome creates a headless-Chrome gatherer.
func NewChrome(opts ...ChromeOption) *Chrome {
	g := &Chrome{
		timeout: 30 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Gather implements Gatherer.
func (g *Chrome) Gather(ctx context.Context, pageURL string) (*Page, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], g.allocatorOpts...)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, g.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}

	page, err := newPage(pageURL, html)
	if err != nil {
		return nil, fmt.Errorf("parsing rendered page: %w", err)
	}
	g.logger.Debug("rendered page",
		slog.String("url", pageURL),
		slog.Int("inlineScripts", len(page.InlineScripts)),
		slog.Int("externalScripts", len(page.ExternalScripts)))
	return page, nil
}
