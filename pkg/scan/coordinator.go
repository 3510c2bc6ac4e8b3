// Package scan coordinates page scans across their lifecycle: navigation
// events trigger gathering and matching, completed results land in the
// cache, and status updates flow to a publisher. At most one scan runs per
// page identity; a forced rescan supersedes whatever is in flight.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/imoan723/JSRecon-Buddy/pkg/cache"
	"github.com/imoan723/JSRecon-Buddy/pkg/gather"
	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

// Sourcer expands a gathered page into the ordered content-source list the
// engine consumes. *gather.Fetcher is the production implementation.
type Sourcer interface {
	Sources(ctx context.Context, page *gather.Page) []types.ContentSource
}

// pageState tracks one page identity's lifecycle. Guarded by Coordinator.mu.
type pageState struct {
	status     types.ScanStatus
	count      int
	generation uint64
	inFlight   bool
	cancel     context.CancelFunc
}

// Coordinator owns the scan state machine. All exported methods are safe
// for concurrent use.
type Coordinator struct {
	gatherer gather.Gatherer
	sourcer  Sourcer
	delegate Delegate
	cache    cache.Cache
	pub      Publisher
	logger   *slog.Logger

	mu      sync.Mutex
	states  map[string]*pageState
	nextGen uint64
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithGatherer replaces the page gatherer.
func WithGatherer(g gather.Gatherer) CoordinatorOption {
	return func(c *Coordinator) {
		if g != nil {
			c.gatherer = g
		}
	}
}

// WithSourcer replaces the content-source builder.
func WithSourcer(s Sourcer) CoordinatorOption {
	return func(c *Coordinator) {
		if s != nil {
			c.sourcer = s
		}
	}
}

// WithCache sets the result cache.
func WithCache(store cache.Cache) CoordinatorOption {
	return func(c *Coordinator) {
		if store != nil {
			c.cache = store
		}
	}
}

// WithPublisher sets the status/count publisher.
func WithPublisher(p Publisher) CoordinatorOption {
	return func(c *Coordinator) {
		if p != nil {
			c.pub = p
		}
	}
}

// WithCoordinatorLogger sets the coordinator's logger.
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCoordinator creates a coordinator running scans through delegate.
// Defaults: plain HTTP gathering, an in-memory cache, and no publishing.
func NewCoordinator(delegate Delegate, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		gatherer: gather.NewHTTP(),
		sourcer:  gather.NewFetcher(),
		delegate: delegate,
		cache:    cache.NewMemory(),
		pub:      NopPublisher{},
		logger:   slog.Default(),
		states:   make(map[string]*pageState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scannable reports whether pageURL is something the coordinator will scan.
// Only http and https pages qualify; browser-internal and file URLs do not.
func Scannable(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// LoadingStarted records that a page began loading. A fresh cached result
// short-circuits straight to the complete status; otherwise the page shows
// as scanning until navigation completes and the scan runs.
func (c *Coordinator) LoadingStarted(ctx context.Context, key types.PageKey) {
	if !Scannable(key.URL) {
		c.pub.PublishStatus(key, types.StatusNotScannable)
		return
	}

	if res, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		count := res.FindingCount()
		c.mu.Lock()
		// Mutate in place: a state replacement would shed the inFlight
		// flag and cancel func of a scan already running for this key.
		st := c.state(key)
		st.status = types.StatusComplete
		st.count = count
		c.mu.Unlock()
		c.pub.PublishCount(key, count)
		c.pub.PublishStatus(key, types.StatusComplete)
		return
	}

	c.mu.Lock()
	st := c.state(key)
	if !st.inFlight {
		st.status = types.StatusScanning
	}
	c.mu.Unlock()
	c.pub.PublishStatus(key, types.StatusScanning)
}

// NavigationCompleted runs a scan for key if its top-level frame finished
// loading. Subframe completions are ignored, and a scan already in flight
// for the same identity is not duplicated unless force is set. The call is
// synchronous; run it in a goroutine for event-driven callers.
func (c *Coordinator) NavigationCompleted(ctx context.Context, key types.PageKey, topFrame, force bool) error {
	if !topFrame {
		return nil
	}
	if !Scannable(key.URL) {
		c.pub.PublishStatus(key, types.StatusNotScannable)
		return nil
	}

	c.mu.Lock()
	st := c.state(key)
	if st.inFlight {
		if !force {
			c.mu.Unlock()
			c.logger.Debug("scan already in flight", slog.String("key", key.String()))
			return nil
		}
		// Supersede: the running scan keeps executing but its commit is
		// rejected by the generation check below.
		if st.cancel != nil {
			st.cancel()
		}
		st.generation = c.nextGeneration()
	}
	scanCtx, cancelScan := context.WithCancel(ctx)
	st.inFlight = true
	st.status = types.StatusScanning
	st.cancel = cancelScan
	gen := st.generation
	c.mu.Unlock()

	defer func() {
		cancelScan()
		c.mu.Lock()
		if cur, ok := c.states[key.String()]; ok && cur.generation == gen {
			cur.inFlight = false
			cur.cancel = nil
		}
		c.mu.Unlock()
	}()

	c.pub.PublishStatus(key, types.StatusScanning)

	res, err := c.runScan(scanCtx, key)
	if err != nil {
		c.mu.Lock()
		if cur, ok := c.states[key.String()]; ok && cur.generation == gen {
			cur.status = types.StatusError
		}
		c.mu.Unlock()
		c.pub.PublishStatus(key, types.StatusError)
		return err
	}

	count := res.FindingCount()

	// Commit only if this scan is still the current one: the tab may have
	// closed or a forced rescan may have superseded it mid-flight.
	c.mu.Lock()
	cur, ok := c.states[key.String()]
	current := ok && cur.generation == gen
	if current {
		cur.status = types.StatusComplete
		cur.count = count
	}
	c.mu.Unlock()
	if !current {
		c.logger.Debug("discarding superseded scan result", slog.String("key", key.String()))
		return nil
	}

	if err := c.cache.Put(ctx, key, res); err != nil {
		c.logger.Warn("caching scan result",
			slog.String("key", key.String()), slog.String("error", err.Error()))
	}
	c.pub.PublishCount(key, count)
	c.pub.PublishStatus(key, types.StatusComplete)
	return nil
}

func (c *Coordinator) runScan(ctx context.Context, key types.PageKey) (*types.ScanResult, error) {
	page, err := c.gatherer.Gather(ctx, key.URL)
	if err != nil {
		return nil, fmt.Errorf("gathering page: %w", err)
	}
	sources := c.sourcer.Sources(ctx, page)
	res, err := c.delegate.Scan(ctx, key.URL, sources)
	if err != nil {
		return nil, fmt.Errorf("scanning page: %w", err)
	}
	return res, nil
}

// ForceRescan discards the cached result for key, cancels any scan in
// flight, and runs a fresh one.
func (c *Coordinator) ForceRescan(ctx context.Context, key types.PageKey) error {
	if err := c.cache.Delete(ctx, key); err != nil {
		c.logger.Warn("evicting cached result",
			slog.String("key", key.String()), slog.String("error", err.Error()))
	}
	return c.NavigationCompleted(ctx, key, true, true)
}

// TabClosed cancels every in-flight scan for the tab and drops its state
// and cached results. Unknown tabs are a no-op.
func (c *Coordinator) TabClosed(ctx context.Context, tabID int) {
	c.mu.Lock()
	for k, st := range c.states {
		if types.ParsePageKey(k).TabID != tabID {
			continue
		}
		if st.cancel != nil {
			st.cancel()
		}
		delete(c.states, k)
	}
	c.mu.Unlock()

	if err := c.cache.DeleteTab(ctx, tabID); err != nil {
		c.logger.Warn("purging tab cache",
			slog.Int("tabID", tabID), slog.String("error", err.Error()))
	}
}

// Status reports the lifecycle state of key. Pages the coordinator has no
// record of are idle; pages it will never scan are not-scannable.
func (c *Coordinator) Status(key types.PageKey) types.ScanStatus {
	if !Scannable(key.URL) {
		return types.StatusNotScannable
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.states[key.String()]; ok {
		return st.status
	}
	return types.StatusIdle
}

// Result returns the cached scan result for key, if present and fresh.
func (c *Coordinator) Result(ctx context.Context, key types.PageKey) (*types.ScanResult, bool, error) {
	return c.cache.Get(ctx, key)
}

// state returns the tracked state for key, creating it if needed. New
// states take a fresh generation so a scan outliving its tab can never
// commit against a later state for the same key. Callers hold c.mu.
func (c *Coordinator) state(key types.PageKey) *pageState {
	st, ok := c.states[key.String()]
	if !ok {
		st = &pageState{status: types.StatusIdle, generation: c.nextGeneration()}
		c.states[key.String()] = st
	}
	return st
}

func (c *Coordinator) nextGeneration() uint64 {
	c.nextGen++
	return c.nextGen
}
