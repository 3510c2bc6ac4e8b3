package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/imoan723/JSRecon-Buddy/pkg/cache"
	"github.com/imoan723/JSRecon-Buddy/pkg/gather"
	"github.com/imoan723/JSRecon-Buddy/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGatherer serves canned HTML without touching the network.
type fakeGatherer struct {
	html string
	err  error
}

func (g *fakeGatherer) Gather(ctx context.Context, pageURL string) (*gather.Page, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &gather.Page{URL: pageURL, HTML: g.html}, nil
}

// fakeDelegate counts invocations and hands out queued results. When block
// is set, the first call parks until the channel is closed, signalling
// started on entry.
type fakeDelegate struct {
	mu      sync.Mutex
	calls   int
	results []*types.ScanResult
	err     error
	block   chan struct{}
	started chan struct{}
}

func (d *fakeDelegate) Scan(ctx context.Context, pageURL string, sources []types.ContentSource) (*types.ScanResult, error) {
	d.mu.Lock()
	first := d.calls == 0
	d.calls++
	// Claim the result at entry so a later call parked behind this one
	// cannot steal it.
	var res *types.ScanResult
	if len(d.results) > 0 {
		res = d.results[0]
		d.results = d.results[1:]
	}
	d.mu.Unlock()

	if first && d.block != nil {
		if d.started != nil {
			close(d.started)
		}
		<-d.block
	}
	if d.err != nil {
		return nil, d.err
	}
	if res == nil {
		res = types.NewScanResult()
	}
	return res, nil
}

func (d *fakeDelegate) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// recordPublisher captures every update per key.
type recordPublisher struct {
	mu       sync.Mutex
	statuses map[string][]types.ScanStatus
	counts   map[string][]int
}

func newRecordPublisher() *recordPublisher {
	return &recordPublisher{
		statuses: make(map[string][]types.ScanStatus),
		counts:   make(map[string][]int),
	}
}

func (p *recordPublisher) PublishStatus(key types.PageKey, status types.ScanStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses[key.String()] = append(p.statuses[key.String()], status)
}

func (p *recordPublisher) PublishCount(key types.PageKey, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[key.String()] = append(p.counts[key.String()], count)
}

func (p *recordPublisher) statusesFor(key types.PageKey) []types.ScanStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.ScanStatus(nil), p.statuses[key.String()]...)
}

func (p *recordPublisher) countsFor(key types.PageKey) []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.counts[key.String()]...)
}

func resultWithFindings(n int) *types.ScanResult {
	res := types.NewScanResult()
	for i := 0; i < n; i++ {
		res.Add(types.CategoryEndpoints, "/api/"+string(rune('a'+i)), types.Occurrence{
			Source: types.MainDocument, Offset: i * 10, Length: 6,
		})
	}
	return res
}

func newTestCoordinator(delegate Delegate, pub Publisher) (*Coordinator, *cache.MemoryCache) {
	store := cache.NewMemory()
	coord := NewCoordinator(delegate,
		WithGatherer(&fakeGatherer{html: "<html><body>hi</body></html>"}),
		WithCache(store),
		WithPublisher(pub),
	)
	return coord, store
}

func TestNavigationCompletedScansAndCaches(t *testing.T) {
	delegate := &fakeDelegate{results: []*types.ScanResult{resultWithFindings(3)}}
	pub := newRecordPublisher()
	coord, _ := newTestCoordinator(delegate, pub)
	key := types.PageKey{TabID: 1, URL: "https://example.com/"}

	require.NoError(t, coord.NavigationCompleted(context.Background(), key, true, false))

	assert.Equal(t, 1, delegate.callCount())
	assert.Equal(t, types.StatusComplete, coord.Status(key))

	res, ok, err := coord.Result(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, res.FindingCount())

	assert.Equal(t, []types.ScanStatus{types.StatusScanning, types.StatusComplete}, pub.statusesFor(key))
	assert.Equal(t, []int{3}, pub.countsFor(key))
}

func TestNavigationCompletedIgnoresSubframes(t *testing.T) {
	delegate := &fakeDelegate{}
	coord, _ := newTestCoordinator(delegate, NopPublisher{})
	key := types.PageKey{TabID: 1, URL: "https://example.com/"}

	require.NoError(t, coord.NavigationCompleted(context.Background(), key, false, false))
	assert.Zero(t, delegate.callCount())
	assert.Equal(t, types.StatusIdle, coord.Status(key))
}

func TestSingleFlight(t *testing.T) {
	delegate := &fakeDelegate{
		block:   make(chan struct{}),
		started: make(chan struct{}),
		results: []*types.ScanResult{resultWithFindings(1)},
	}
	coord, _ := newTestCoordinator(delegate, NopPublisher{})
	key := types.PageKey{TabID: 1, URL: "https://example.com/"}

	done := make(chan error, 1)
	go func() { done <- coord.NavigationCompleted(context.Background(), key, true, false) }()

	select {
	case <-delegate.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first scan never started")
	}

	// Second trigger while the first is in flight is a no-op.
	require.NoError(t, coord.NavigationCompleted(context.Background(), key, true, false))

	close(delegate.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, delegate.callCount())
}

func TestTabClosedDiscardsInFlightScan(t *testing.T) {
	delegate := &fakeDelegate{
		block:   make(chan struct{}),
		started: make(chan struct{}),
		results: []*types.ScanResult{resultWithFindings(5)},
	}
	pub := newRecordPublisher()
	coord, store := newTestCoordinator(delegate, pub)
	key := types.PageKey{TabID: 7, URL: "https://example.com/"}

	done := make(chan error, 1)
	go func() { done <- coord.NavigationCompleted(context.Background(), key, true, false) }()

	select {
	case <-delegate.started:
	case <-time.After(2 * time.Second):
		t.Fatal("scan never started")
	}

	coord.TabClosed(context.Background(), 7)
	close(delegate.block)
	require.NoError(t, <-done)

	// The late completion must not surface anywhere.
	assert.Zero(t, store.Len())
	assert.Equal(t, types.StatusIdle, coord.Status(key))
	assert.Empty(t, pub.countsFor(key))
	assert.NotContains(t, pub.statusesFor(key), types.StatusComplete)
}

func TestForceRescanSupersedesInFlightScan(t *testing.T) {
	stale := resultWithFindings(1)
	fresh := resultWithFindings(4)
	delegate := &fakeDelegate{
		block:   make(chan struct{}),
		started: make(chan struct{}),
		results: []*types.ScanResult{stale, fresh},
	}
	coord, _ := newTestCoordinator(delegate, NopPublisher{})
	key := types.PageKey{TabID: 1, URL: "https://example.com/"}

	first := make(chan error, 1)
	go func() { first <- coord.NavigationCompleted(context.Background(), key, true, false) }()

	select {
	case <-delegate.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first scan never started")
	}

	// Forced rescan runs to completion while the first is still parked.
	require.NoError(t, coord.ForceRescan(context.Background(), key))
	close(delegate.block)
	require.NoError(t, <-first)

	assert.Equal(t, 2, delegate.callCount())
	res, ok, err := coord.Result(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fresh.FindingCount(), res.FindingCount())
}

func TestLoadingStartedCacheHit(t *testing.T) {
	delegate := &fakeDelegate{}
	pub := newRecordPublisher()
	coord, store := newTestCoordinator(delegate, pub)
	key := types.PageKey{TabID: 2, URL: "https://example.com/app"}

	require.NoError(t, store.Put(context.Background(), key, resultWithFindings(2)))

	coord.LoadingStarted(context.Background(), key)

	assert.Zero(t, delegate.callCount())
	assert.Equal(t, types.StatusComplete, coord.Status(key))
	assert.Equal(t, []int{2}, pub.countsFor(key))
	assert.Equal(t, []types.ScanStatus{types.StatusComplete}, pub.statusesFor(key))
}

func TestLoadingStartedCacheHitKeepsScanInFlight(t *testing.T) {
	delegate := &fakeDelegate{
		results: []*types.ScanResult{resultWithFindings(2)},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	pub := newRecordPublisher()
	coord, store := newTestCoordinator(delegate, pub)
	key := types.PageKey{TabID: 1, URL: "https://example.com/"}

	done := make(chan error, 1)
	go func() { done <- coord.NavigationCompleted(context.Background(), key, true, false) }()
	<-delegate.started

	// A revisit that hits the cache mid-scan reports complete but must not
	// shed the running scan's in-flight state.
	require.NoError(t, store.Put(context.Background(), key, resultWithFindings(1)))
	coord.LoadingStarted(context.Background(), key)
	assert.Equal(t, types.StatusComplete, coord.Status(key))

	// Single flight still holds.
	require.NoError(t, coord.NavigationCompleted(context.Background(), key, true, false))
	assert.Equal(t, 1, delegate.callCount())

	// The parked scan is still current and commits its own result.
	close(delegate.block)
	require.NoError(t, <-done)
	res, ok, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, res.FindingCount())
}

func TestLoadingStartedCacheMiss(t *testing.T) {
	pub := newRecordPublisher()
	coord, _ := newTestCoordinator(&fakeDelegate{}, pub)
	key := types.PageKey{TabID: 2, URL: "https://example.com/app"}

	coord.LoadingStarted(context.Background(), key)

	assert.Equal(t, types.StatusScanning, coord.Status(key))
	assert.Equal(t, []types.ScanStatus{types.StatusScanning}, pub.statusesFor(key))
}

func TestNotScannablePages(t *testing.T) {
	delegate := &fakeDelegate{}
	coord, _ := newTestCoordinator(delegate, NopPublisher{})

	for _, pageURL := range []string{"chrome://settings", "about:blank", "file:///etc/hosts", "::bad::"} {
		key := types.PageKey{TabID: 1, URL: pageURL}
		assert.Equal(t, types.StatusNotScannable, coord.Status(key), pageURL)
		require.NoError(t, coord.NavigationCompleted(context.Background(), key, true, false))
	}
	assert.Zero(t, delegate.callCount())
}

func TestGatherFailurePublishesError(t *testing.T) {
	pub := newRecordPublisher()
	store := cache.NewMemory()
	coord := NewCoordinator(&fakeDelegate{},
		WithGatherer(&fakeGatherer{err: errors.New("connection refused")}),
		WithCache(store),
		WithPublisher(pub),
	)
	key := types.PageKey{TabID: 3, URL: "https://down.example.com/"}

	err := coord.NavigationCompleted(context.Background(), key, true, false)
	require.Error(t, err)

	assert.Equal(t, types.StatusError, coord.Status(key))
	assert.Contains(t, pub.statusesFor(key), types.StatusError)
	assert.Zero(t, store.Len())
}

func TestDelegateFailurePublishesError(t *testing.T) {
	pub := newRecordPublisher()
	coord, store := newTestCoordinator(&fakeDelegate{err: errors.New("worker crashed")}, pub)
	key := types.PageKey{TabID: 3, URL: "https://example.com/"}

	require.Error(t, coord.NavigationCompleted(context.Background(), key, true, false))
	assert.Equal(t, types.StatusError, coord.Status(key))
	assert.Zero(t, store.Len())
}

func TestStatusUnknownKeyIsIdle(t *testing.T) {
	coord, _ := newTestCoordinator(&fakeDelegate{}, NopPublisher{})
	assert.Equal(t, types.StatusIdle, coord.Status(types.PageKey{TabID: 9, URL: "https://example.com/"}))
}

func TestTabClosedUnknownTab(t *testing.T) {
	coord, _ := newTestCoordinator(&fakeDelegate{}, NopPublisher{})
	coord.TabClosed(context.Background(), 42) // must not panic or error
}
