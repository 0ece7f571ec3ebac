package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/persistence/archive"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/persistence/indexdb"
	persistlog "github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/persistence/log"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/persistence/snapshot"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/layout"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/tuning"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/world"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/transport/observer"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 1337, "world seed (used only when starting a fresh world)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		layoutPath = flag.String("layout", "", "path to layout yaml (default: <configs>/layout.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite tick/diagnostics index")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
		snapKeep   = flag.Int("snapshot_keep", 8, "snapshots to retain on disk (<=0 keeps all)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)
	snapDir := filepath.Join(worldDir, "snapshots")

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	lp := strings.TrimSpace(*layoutPath)
	if lp == "" {
		lp = filepath.Join(*configDir, "layout.yaml")
	}
	lay, err := layout.Load(lp)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatalf("load layout: %v", err)
		}
		logger.Printf("layout not found (%s); using built-in default", lp)
		lay = layout.Default()
	}

	// Optional: read-model index (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
		if err := idx.RecordTuning(tune); err != nil {
			logger.Printf("index db: record tuning: %v", err)
		}
	}

	// Create world (fresh or resumed from snapshot).
	cfg := world.WorldConfig{
		ID:     *worldID,
		Seed:   *seed,
		Tuning: tune,
		Layout: lay,
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		if latest, err := archive.LatestSnapshot(snapDir); err == nil && latest != "" {
			snapshotToLoad = latest
		}
	}

	var w *world.World
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.WorldID != "" && snap.Header.WorldID != *worldID {
			logger.Fatalf("snapshot world id mismatch: flag=%s snap=%s", *worldID, snap.Header.WorldID)
		}
		w, err = world.ImportSnapshot(cfg, snap)
		if err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		logger.Printf("resumed from snapshot=%s tick=%d agents=%d",
			filepath.Base(snapshotToLoad), w.CurrentTick(), w.AgentCount())
	} else {
		w, err = world.New(cfg)
		if err != nil {
			logger.Fatalf("world: %v", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(worldDir)
	diagLog := persistlog.NewDiagnosticLogger(worldDir)
	defer tickLog.Close()
	defer diagLog.Close()
	w.SetTickLogger(multiTickLogger{a: tickLog, b: idx})
	w.SetDiagnosticLogger(multiDiagLogger{a: diagLog, b: idx})

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(snapDir, fmt.Sprintf("snap_%016d.bin", snap.Header.Tick))
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
				if removed, err := archive.PruneSnapshots(snapDir, *snapKeep); err != nil {
					logger.Printf("snapshot prune: %v", err)
				} else if removed > 0 {
					logger.Printf("pruned %d old snapshots", removed)
				}
			}
		}
	}()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsHandler(w, *worldID))

	enableAdminHTTP := envBool("NAV_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("NAV_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		// Local-only admin endpoints (do not affect simulation determinism).
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			stats := w.Stats()
			resp := struct {
				WorldID string            `json:"world_id"`
				Tick    uint64            `json:"tick"`
				Agents  int64             `json:"agents"`
				Clients int64             `json:"clients"`
				Events  map[string]uint64 `json:"events"`
			}{
				WorldID: *worldID,
				Tick:    w.CurrentTick(),
				Agents:  stats.Agents(),
				Clients: stats.Clients(),
				Events:  stats.EventCounts(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})

		obsSrv := observer.NewServer(w, logger)
		mux.HandleFunc("/admin/v1/observer/bootstrap", obsSrv.BootstrapHandler())
		mux.HandleFunc("/admin/v1/observer/ws", obsSrv.WSHandler())
	} else {
		logger.Printf("admin endpoints disabled (NAV_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func metricsHandler(w *world.World, worldID string) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		stats := w.Stats()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP navsim_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE navsim_world_tick gauge\n")
		fmt.Fprintf(rw, "navsim_world_tick{world=%q} %d\n", worldID, w.CurrentTick())

		fmt.Fprintf(rw, "# HELP navsim_world_agents Current number of agents in the world.\n")
		fmt.Fprintf(rw, "# TYPE navsim_world_agents gauge\n")
		fmt.Fprintf(rw, "navsim_world_agents{world=%q} %d\n", worldID, stats.Agents())

		fmt.Fprintf(rw, "# HELP navsim_world_clients Current number of connected clients.\n")
		fmt.Fprintf(rw, "# TYPE navsim_world_clients gauge\n")
		fmt.Fprintf(rw, "navsim_world_clients{world=%q} %d\n", worldID, stats.Clients())

		fmt.Fprintf(rw, "# HELP navsim_world_step_us Last tick step duration in microseconds.\n")
		fmt.Fprintf(rw, "# TYPE navsim_world_step_us gauge\n")
		fmt.Fprintf(rw, "navsim_world_step_us{world=%q} %d\n", worldID, stats.StepMicros())

		counts := stats.EventCounts()
		kinds := make([]string, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		fmt.Fprintf(rw, "# HELP navsim_events_total Navigation events by kind.\n")
		fmt.Fprintf(rw, "# TYPE navsim_events_total counter\n")
		for _, k := range kinds {
			fmt.Fprintf(rw, "navsim_events_total{world=%q,kind=%q} %d\n", worldID, k, counts[k])
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
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

func envBool(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

type multiTickLogger struct {
	a world.TickLogger
	b *indexdb.SQLiteIndex
}

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiDiagLogger struct {
	a world.DiagnosticLogger
	b *indexdb.SQLiteIndex
}

func (m multiDiagLogger) WriteDiagnostic(entry world.DiagnosticEntry) error {
	if m.a != nil {
		_ = m.a.WriteDiagnostic(entry)
	}
	if m.b != nil {
		_ = m.b.WriteDiagnostic(entry)
	}
	return nil
}
