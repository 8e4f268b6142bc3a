package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"inktycoon.dev/configs"
	"inktycoon.dev/internal/metrics"
	"inktycoon.dev/internal/persistence/kvstore"
	persistlog "inktycoon.dev/internal/persistence/log"
	"inktycoon.dev/internal/persistence/save"
	"inktycoon.dev/internal/protocol"
	"inktycoon.dev/internal/sim/catalogs"
	"inktycoon.dev/internal/sim/studio"
	"inktycoon.dev/internal/sim/tuning"
	"inktycoon.dev/internal/transport/ws"
)

func main() {
	cfg, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatalf("init: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	if err := a.serve(ctx); err != nil {
		logger.Fatalf("serve: %v", err)
	}
}

// app owns every long-lived component of the process.
type app struct {
	cfg    serverConfig
	log    *log.Logger
	studio *studio.Studio
	store  kvstore.Store
	gw     *save.Gateway
	writer *save.Writer
	ws     *ws.Server

	tickLog   *persistlog.TickLogger
	intentLog *persistlog.IntentLogger
}

func newApp(cfg serverConfig, logger *log.Logger) (*app, error) {
	cats, err := loadCatalogs(cfg.CatalogDir)
	if err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}
	tune, err := loadTuning(cfg.TuningPath)
	if err != nil {
		return nil, fmt.Errorf("load tuning: %w", err)
	}

	store, err := kvstore.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	gw := save.NewGateway(store, cats, save.GatewayConfig{Key: cfg.SaveKey, Logger: logger})
	writer := save.NewWriter(gw, logger)

	a := &app{cfg: cfg, log: logger, store: store, gw: gw, writer: writer}

	scfg := studio.Config{Tuning: tune, Seed: cfg.Seed, Logger: logger, Saves: writer}
	if !cfg.DisableLogs {
		a.tickLog = persistlog.NewTickLogger(cfg.DataDir)
		a.intentLog = persistlog.NewIntentLogger(cfg.DataDir)
		scfg.Ticks = a.tickLog
		scfg.Intents = a.intentLog
	}
	s, err := studio.New(scfg, cats)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("studio: %w", err)
	}
	a.studio = s

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if st, found := gw.Load(ctx); found {
		s.Restore(st)
		logger.Printf("resumed save=%s played_time=%ds money=%.0f", gw.Key(), st.Stats.PlayedTime, st.Resources.Money)
	} else {
		logger.Printf("no save at %s; starting fresh", gw.Key())
	}

	a.ws = ws.NewServer(s, protocol.StudioParams{
		TickIntervalMs:  tune.TickIntervalMs,
		TickSeconds:     tune.TickSeconds,
		DaySeconds:      tune.DaySeconds,
		AutosaveSeconds: tune.AutosaveSeconds,
		Seed:            int64(cfg.Seed),
	}, logger)
	return a, nil
}

func loadCatalogs(dir string) (*catalogs.Catalogs, error) {
	if strings.TrimSpace(dir) == "" {
		return catalogs.Default()
	}
	return catalogs.Load(dir)
}

func loadTuning(path string) (tuning.Tuning, error) {
	if strings.TrimSpace(path) != "" {
		return tuning.Load(path)
	}
	raw, err := fs.ReadFile(configs.FS, "tuning.yaml")
	if err != nil {
		return tuning.Tuning{}, err
	}
	return tuning.Parse(raw)
}

func (a *app) mux() *http.ServeMux {
	reg := metrics.NewRegistry(metrics.Sources{
		Studio:   a.studio.Metrics,
		Saves:    a.writer.Stats,
		Sessions: a.ws.Sessions,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler(reg))
	mux.HandleFunc("/v1/ws", a.ws.Handler())
	mux.HandleFunc("/v1/state", a.handleState)

	if a.cfg.AdminHTTP {
		mux.HandleFunc("/admin/v1/save", a.adminOnly(a.handleSave))
		mux.HandleFunc("/admin/v1/reset", a.adminOnly(a.handleReset))
		mux.HandleFunc("/admin/v1/saves", a.adminOnly(a.handleSaveStats))
	} else {
		a.log.Printf("admin endpoints disabled")
	}
	return mux
}

func (a *app) handleState(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	st, err := a.studio.Snapshot(ctx)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(rw, http.StatusOK, st)
}

func (a *app) handleSave(rw http.ResponseWriter, r *http.Request) {
	a.doIntent(rw, r, studio.Intent{Kind: studio.IntentManualSave})
}

// handleReset needs ?confirm=true; without it the request is refused before
// it reaches the studio.
func (a *app) handleReset(rw http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeJSON(rw, http.StatusBadRequest, map[string]any{"ok": false, "code": protocol.ErrConfirmRequired})
		return
	}
	a.doIntent(rw, r, studio.Intent{Kind: studio.IntentResetGame, Confirmed: true})
}

func (a *app) handleSaveStats(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]any{
		"key":    a.gw.Key(),
		"driver": a.store.Driver(),
		"writer": a.writer.Stats(),
	})
}

func (a *app) doIntent(rw http.ResponseWriter, r *http.Request, in studio.Intent) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	res, err := a.studio.Do(ctx, in)
	if err != nil {
		writeJSON(rw, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"ok": res.OK, "played_time": res.PlayedTime})
}

func (a *app) adminOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		h(rw, r)
	}
}

// serve runs the studio and the HTTP server until ctx is cancelled, then
// flushes the pending save and closes the store.
func (a *app) serve(ctx context.Context) error {
	runDone := make(chan error, 1)
	go func() { runDone <- a.studio.Run(ctx) }()

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), a.cfg.Shutdown)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	a.log.Printf("listening on %s store=%s key=%s", a.cfg.Addr, a.store.Driver(), a.gw.Key())
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	a.finish(runDone)
	return err
}

// finish stops the loop, queues the final state and flushes it to the store.
func (a *app) finish(runDone <-chan error) {
	a.studio.Stop()
	if rerr := <-runDone; rerr != nil && !errors.Is(rerr, context.Canceled) {
		a.log.Printf("studio stopped: %v", rerr)
	}
	// The loop has exited, so reading the state directly is race free.
	st := a.studio.State()
	if !a.writer.Enqueue(st) {
		a.log.Printf("final save not queued at played_time=%d", st.Stats.PlayedTime)
	}
	a.close()
}

func (a *app) close() {
	if err := a.writer.Close(); err != nil {
		a.log.Printf("save writer: %v", err)
	}
	if a.tickLog != nil {
		_ = a.tickLog.Close()
	}
	if a.intentLog != nil {
		_ = a.intentLog.Close()
	}
	if err := a.store.Close(); err != nil {
		a.log.Printf("close store: %v", err)
	}
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
