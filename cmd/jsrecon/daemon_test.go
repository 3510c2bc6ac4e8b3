package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/imoan723/JSRecon-Buddy/pkg/cache"
	"github.com/imoan723/JSRecon-Buddy/pkg/scan"
	"github.com/imoan723/JSRecon-Buddy/pkg/scanner"
	"github.com/imoan723/JSRecon-Buddy/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startDaemon wires a real engine and coordinator behind the HTTP routes,
// plus a page server for it to scan.
func startDaemon(t *testing.T) (api string, pageURL string) {
	t.Helper()

	pages := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(scanTestHTML))
	}))
	t.Cleanup(pages.Close)

	rules, err := loadCatalog("")
	require.NoError(t, err)
	core, err := scanner.NewCore(rules, nil)
	require.NoError(t, err)

	events := scan.NewBroadcastPublisher()
	coord := scan.NewCoordinator(scan.EngineDelegate{Core: core},
		scan.WithCache(cache.NewMemory()),
		scan.WithPublisher(events),
	)
	d := &daemon{coord: coord, rules: rules, events: events, logger: slog.Default()}

	srv := httptest.NewServer(d.routes())
	t.Cleanup(srv.Close)
	return srv.URL, pages.URL
}

func postScan(t *testing.T, api, pageURL string, tabID int, force bool) *http.Response {
	t.Helper()
	body, err := json.Marshal(map[string]any{"url": pageURL, "tabId": tabID, "force": force})
	require.NoError(t, err)
	resp, err := http.Post(api+"/api/scans", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func waitForStatus(t *testing.T, api, pageURL string, tabID int, want types.ScanStatus) {
	t.Helper()
	url := fmt.Sprintf("%s/api/scans/status?tab=%d&url=%s", api, tabID, pageURL)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		require.NoError(t, err)
		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		if body["status"] == string(want) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("status never became %s", want)
}

func TestDaemonScanLifecycle(t *testing.T) {
	api, pageURL := startDaemon(t)

	resp := postScan(t, api, pageURL, 5, false)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	waitForStatus(t, api, pageURL, 5, types.StatusComplete)

	// Result carries the engine's findings.
	res, err := http.Get(fmt.Sprintf("%s/api/scans/result?tab=5&url=%s", api, pageURL))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var result types.ScanResult
	require.NoError(t, json.NewDecoder(res.Body).Decode(&result))
	assert.Contains(t, result.Results[types.CategorySecrets],
		"AIzaSyD-FAKEKEYFAKEKEYFAKEKEYFAKEKEYFAKE")
}

func TestDaemonExport(t *testing.T) {
	api, pageURL := startDaemon(t)

	postScan(t, api, pageURL, 2, false).Body.Close()
	waitForStatus(t, api, pageURL, 2, types.StatusComplete)

	res, err := http.Get(fmt.Sprintf("%s/api/scans/export?tab=2&url=%s", api, pageURL))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Disposition"), "attachment")

	var doc map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&doc))
	assert.Equal(t, pageURL, doc["url"])
}

func TestDaemonTabClosedPurgesResult(t *testing.T) {
	api, pageURL := startDaemon(t)

	postScan(t, api, pageURL, 9, false).Body.Close()
	waitForStatus(t, api, pageURL, 9, types.StatusComplete)

	req, err := http.NewRequest(http.MethodDelete, api+"/api/tabs/9", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	res, err := http.Get(fmt.Sprintf("%s/api/scans/result?tab=9&url=%s", api, pageURL))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestDaemonEventStream(t *testing.T) {
	api, pageURL := startDaemon(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	postScan(t, api, pageURL, 4, false).Body.Close()

	// The stream carries the scan through to completion with a count.
	var sawComplete, sawCount bool
	lines := bufio.NewScanner(resp.Body)
	for lines.Scan() {
		line, ok := strings.CutPrefix(lines.Text(), "data: ")
		if !ok {
			continue
		}
		var ev scan.Event
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		if ev.Kind == scan.EventStatus && ev.Status == types.StatusComplete {
			sawComplete = true
		}
		if ev.Kind == scan.EventCount && ev.Count > 0 {
			sawCount = true
		}
		if sawComplete && sawCount {
			break
		}
	}
	assert.True(t, sawComplete)
	assert.True(t, sawCount)
}

func TestDaemonRejectsBadRequests(t *testing.T) {
	api, _ := startDaemon(t)

	// Missing url.
	resp, err := http.Post(api+"/api/scans", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unscannable scheme.
	resp = postScan(t, api, "chrome://settings", 1, false)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Status without url.
	res, err := http.Get(api + "/api/scans/status")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	// Bad tab ID on delete.
	req, err := http.NewRequest(http.MethodDelete, api+"/api/tabs/abc", nil)
	require.NoError(t, err)
	dresp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	dresp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, dresp.StatusCode)
}
