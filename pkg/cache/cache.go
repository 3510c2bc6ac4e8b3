// Package cache persists completed scan results keyed by page identity.
// Entries expire after a fixed TTL checked at read time, and oversized
// entries are stored without their content map so the backing store's
// budget is never exceeded by retained page text.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

// Defaults. The TTL sits at the top of the observed range because page
// content changes slowly relative to a browsing session; the size budget
// keeps a single page's retained sources to tens of megabytes.
const (
	DefaultTTL           = 6 * time.Hour
	DefaultMaxEntryBytes = 32 << 20
)

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("cache: closed")

// Cache stores one ScanResult per page identity.
//
// Implementations enforce the TTL and entry-size policy themselves; the
// underlying storage primitive is structure-unaware.
type Cache interface {
	// Get returns the cached result for key, reporting absence for both
	// missing and expired entries. Expired entries are deleted on read.
	Get(ctx context.Context, key types.PageKey) (*types.ScanResult, bool, error)

	// Put stores res under key, replacing any previous entry.
	Put(ctx context.Context, key types.PageKey, res *types.ScanResult) error

	// Delete removes the entry for key, if any.
	Delete(ctx context.Context, key types.PageKey) error

	// DeleteTab removes every entry belonging to a tab.
	DeleteTab(ctx context.Context, tabID int) error

	Close() error
}

// Option configures a cache backend.
type Option func(*options)

type options struct {
	ttl      time.Duration
	maxBytes int
	now      func() time.Time
	logger   *slog.Logger
}

func newOptions(opts []Option) options {
	o := options{
		ttl:      DefaultTTL,
		maxBytes: DefaultMaxEntryBytes,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTTL overrides the entry time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithMaxEntryBytes overrides the serialized-entry size budget.
func WithMaxEntryBytes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBytes = n
		}
	}
}

// WithClock injects the wall-clock source. Tests use this to step time
// across the TTL boundary.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger for dropped-write diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// encodeEntry serializes res within the size budget. A result whose
// serialized form exceeds the budget is re-encoded without its content
// map: findings survive, interactive context lookups do not. Zero-finding
// results drop the content map up front.
func encodeEntry(res *types.ScanResult, maxBytes int) ([]byte, error) {
	if res.Empty() && res.ContentMap != nil {
		stripped := *res
		stripped.ContentMap = nil
		res = &stripped
	}

	data, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	if len(data) <= maxBytes || res.ContentMap == nil {
		return data, nil
	}

	stripped := *res
	stripped.ContentMap = nil
	return json.Marshal(&stripped)
}

func decodeEntry(data []byte) (*types.ScanResult, error) {
	var res types.ScanResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
