package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/imoan723/JSRecon-Buddy/pkg/cache"
	"github.com/imoan723/JSRecon-Buddy/pkg/export"
	"github.com/imoan723/JSRecon-Buddy/pkg/gather"
	"github.com/imoan723/JSRecon-Buddy/pkg/matcher"
	"github.com/imoan723/JSRecon-Buddy/pkg/scan"
	"github.com/imoan723/JSRecon-Buddy/pkg/scanner"
	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

var (
	daemonAddr      string
	daemonCachePath string
	daemonRender    bool
	daemonParams    []string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the scan coordinator behind an HTTP API",
	Long: `Run a long-lived daemon exposing the scan lifecycle over HTTP:
trigger scans, poll status, fetch results, and export reports. Browser
extensions and scripts drive it per tab; closing a tab purges its state.`,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&daemonAddr, "addr", "127.0.0.1:8475", "Listen address")
	daemonCmd.Flags().StringVar(&daemonCachePath, "cache", "", "SQLite cache path (in-memory when empty)")
	daemonCmd.Flags().BoolVar(&daemonRender, "render", false, "Render pages in headless Chrome before gathering")
	daemonCmd.Flags().StringSliceVar(&daemonParams, "params", nil, "Parameter names to flag (comma-separated, builtin list when unset)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	rules, err := loadCatalog("")
	if err != nil {
		return err
	}

	params := daemonParams
	if params == nil {
		params = matcher.DefaultParams
	}
	core, err := scanner.NewCore(rules, params)
	if err != nil {
		return fmt.Errorf("building scan engine: %w", err)
	}

	store := cache.Cache(cache.NewMemory())
	if daemonCachePath != "" {
		store, err = cache.NewSQLite(daemonCachePath)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
	}
	defer store.Close()

	var gatherer gather.Gatherer
	if daemonRender {
		gatherer = gather.NewChrome()
	} else {
		gatherer = gather.NewHTTP()
	}

	logger := slog.Default()
	events := scan.NewBroadcastPublisher()
	coord := scan.NewCoordinator(scan.EngineDelegate{Core: core},
		scan.WithGatherer(gatherer),
		scan.WithCache(store),
		scan.WithPublisher(scan.Publishers(events, scan.LogPublisher{Logger: logger})),
		scan.WithCoordinatorLogger(logger),
	)

	d := &daemon{coord: coord, rules: rules, events: events, logger: logger}

	srv := &http.Server{
		Addr:         daemonAddr,
		Handler:      d.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("daemon listening", slog.String("addr", daemonAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

type daemon struct {
	coord  *scan.Coordinator
	rules  []*types.Rule
	events *scan.BroadcastPublisher
	logger *slog.Logger
}

func (d *daemon) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(d.requestID)

	r.Route("/api", func(r chi.Router) {
		r.Post("/scans", d.handleScanRequest)
		r.Get("/scans/status", d.handleStatus)
		r.Get("/scans/result", d.handleResult)
		r.Get("/scans/export", d.handleExport)
		r.Get("/events", d.handleEvents)
		r.Delete("/tabs/{tabID}", d.handleTabClosed)
	})
	return r
}

// requestID tags every request with a UUID for log correlation.
func (d *daemon) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		d.logger.Debug("request",
			slog.String("id", id),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

type scanRequest struct {
	URL   string `json:"url"`
	TabID *int   `json:"tabId"`
	Force bool   `json:"force"`
}

func (d *daemon) handleScanRequest(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if !scan.Scannable(req.URL) {
		writeError(w, http.StatusUnprocessableEntity, "url is not scannable")
		return
	}

	key := types.PageKey{TabID: types.NoTab, URL: req.URL}
	if req.TabID != nil {
		key.TabID = *req.TabID
	}

	// Scans are asynchronous; callers poll /api/scans/status.
	go func() {
		ctx := context.Background()
		var err error
		if req.Force {
			err = d.coord.ForceRescan(ctx, key)
		} else {
			d.coord.LoadingStarted(ctx, key)
			err = d.coord.NavigationCompleted(ctx, key, true, false)
		}
		if err != nil {
			d.logger.Warn("scan failed",
				slog.String("key", key.String()), slog.String("error", err.Error()))
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": string(types.StatusScanning),
		"key":    key.String(),
	})
}

func (d *daemon) handleStatus(w http.ResponseWriter, r *http.Request) {
	key, err := pageKeyFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": string(d.coord.Status(key)),
	})
}

func (d *daemon) handleResult(w http.ResponseWriter, r *http.Request) {
	key, err := pageKeyFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, ok, err := d.coord.Result(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no result for page")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (d *daemon) handleExport(w http.ResponseWriter, r *http.Request) {
	key, err := pageKeyFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, ok, err := d.coord.Result(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no result for page")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(key.URL)))
	if err := export.JSON(w, export.NewDocument(key.URL, res)); err != nil {
		d.logger.Warn("writing export", slog.String("error", err.Error()))
	}
}

// handleEvents streams status and count updates as server-sent events
// until the client disconnects. Extensions use it to drive badges without
// polling.
func (d *daemon) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	if d.events == nil {
		writeError(w, http.StatusNotFound, "event stream disabled")
		return
	}

	// Subscribe before the response headers go out, so a scan triggered
	// right after the stream opens cannot slip past the subscription.
	ch, cancel := d.events.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (d *daemon) handleTabClosed(w http.ResponseWriter, r *http.Request) {
	tabID, err := strconv.Atoi(chi.URLParam(r, "tabID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tab ID")
		return
	}
	d.coord.TabClosed(r.Context(), tabID)
	w.WriteHeader(http.StatusNoContent)
}

func pageKeyFromQuery(r *http.Request) (types.PageKey, error) {
	pageURL := r.URL.Query().Get("url")
	if pageURL == "" {
		return types.PageKey{}, errors.New("url query parameter is required")
	}
	key := types.PageKey{TabID: types.NoTab, URL: pageURL}
	if tab := r.URL.Query().Get("tab"); tab != "" {
		id, err := strconv.Atoi(tab)
		if err != nil {
			return types.PageKey{}, errors.New("tab query parameter must be an integer")
		}
		key.TabID = id
	}
	return key, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
