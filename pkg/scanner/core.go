// Package scanner is the scan engine: it applies every active detector to
// every content source, validates candidates per category, and accumulates
// findings grouped by category and deduplicated by value.
package scanner

import (
	"context"
	"log/slog"
	"net/url"
	"runtime"
	"strings"

	"github.com/imoan723/JSRecon-Buddy/pkg/entropy"
	"github.com/imoan723/JSRecon-Buddy/pkg/matcher"
	"github.com/imoan723/JSRecon-Buddy/pkg/prefilter"
	"github.com/imoan723/JSRecon-Buddy/pkg/scope"
	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

// Core wraps a compiled detector set and keyword prefilter for scanning.
// A Core is safe for concurrent use: all per-scan state lives on the
// stack of Scan.
type Core struct {
	detectors *matcher.DetectorSet
	pre       *prefilter.Prefilter
	logger    *slog.Logger

	yieldEvery int
	onYield    func()
	chunkCfg   matcher.ChunkConfig
}

// NewCore compiles rules and params into a ready scan engine. Rules with
// invalid patterns are skipped by the compiler, not fatal.
func NewCore(rules []*types.Rule, params []string, opts ...Option) (*Core, error) {
	c := &Core{
		logger:     slog.Default(),
		yieldEvery: defaultYieldEvery,
		onYield:    runtime.Gosched,
		chunkCfg:   matcher.DefaultChunkConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}

	ds, err := matcher.Compile(matcher.Config{Rules: rules, Params: params, Logger: c.logger})
	if err != nil {
		return nil, err
	}
	c.detectors = ds
	c.pre = prefilter.New(rules)
	return c, nil
}

// DetectorCount returns the number of compiled detectors, for logging.
func (c *Core) DetectorCount() int {
	return c.detectors.Len()
}

// Scan applies the full detector set to sources and returns the grouped,
// deduplicated result. pageURL anchors subdomain scoping; a page with no
// hostname (about:blank and friends) produces no Subdomains findings.
//
// Sources are processed in batches with a cooperative yield between them
// so a surrounding event loop stays responsive on multi-megabyte inputs.
// Cancellation discards all partial work: the error is returned and the
// result is nil.
func (c *Core) Scan(ctx context.Context, pageURL string, sources []types.ContentSource) (*types.ScanResult, error) {
	hostname := ""
	if u, err := url.Parse(pageURL); err == nil {
		hostname = strings.ToLower(u.Hostname())
	}

	result := types.NewScanResult()
	for i, src := range sources {
		if i > 0 && i%c.yieldEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			c.onYield()
		}
		c.scanSource(ctx, src, hostname, result)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if result.Empty() {
		// Nothing of interest found; retaining full page content for
		// context lookups has no value.
		result.ContentMap = nil
	}
	return result, nil
}

func (c *Core) scanSource(ctx context.Context, src types.ContentSource, hostname string, result *types.ScanResult) {
	if strings.TrimSpace(src.Code) == "" {
		c.logger.Debug("skipping empty source", slog.String("source", src.Source))
		return
	}

	decoded := Decode(src.Code)
	result.ContentMap[src.Source] = decoded

	// Structural() exposes the compiled set's own slice; copy it so
	// appending this source's rule detectors never writes into backing
	// array slots a concurrent Scan is reading.
	active := append([]*matcher.Detector(nil), c.detectors.Structural()...)
	for _, r := range c.pre.Filter(decoded) {
		if d := c.detectors.ForRule(r.ID); d != nil {
			active = append(active, d)
		}
	}

	chunks := matcher.ChunkContent(decoded, c.chunkCfg)
	for _, d := range active {
		for _, chunk := range chunks {
			if ctx.Err() != nil {
				return
			}
			spans, err := d.Find(chunk.Content)
			if err != nil {
				// Detector isolation: one pathological pattern must not
				// suppress the remaining detectors' findings.
				c.logger.Warn("detector failed on source",
					slog.String("source", src.Source),
					slog.String("category", d.Category),
					slog.String("rule", d.RuleID),
					slog.String("error", err.Error()))
			}
			for _, s := range spans {
				s = chunk.Adjust(s)
				if !c.validate(d, s.Value, hostname) {
					continue
				}
				result.Add(d.Category, s.Value, types.Occurrence{
					Source: src.Source,
					RuleID: d.RuleID,
					Offset: s.Offset,
					Length: s.Length,
				})
			}
			if len(chunks) > 1 {
				c.onYield()
			}
		}
	}
}

// validate applies category-specific acceptance rules to a candidate.
func (c *Core) validate(d *matcher.Detector, value, hostname string) bool {
	switch d.Category {
	case types.CategorySubdomains:
		return hostname != "" && scope.InScope(value, hostname)
	case types.CategorySecrets:
		return d.MinEntropy == 0 || entropy.Shannon(value) >= d.MinEntropy
	case types.CategoryEndpoints:
		return !degenerateEndpoint(value)
	default:
		return true
	}
}

// degenerateEndpoint reports paths that carry no information: values made
// entirely of slashes, or protocol-relative "//host" strings the endpoint
// pattern cannot exclude itself.
func degenerateEndpoint(path string) bool {
	if strings.HasPrefix(path, "//") {
		return true
	}
	return strings.Trim(path, "/") == ""
}
