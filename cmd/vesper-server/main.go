// Package main is the entry point for the Vesper House venue server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sablehall/vesper/server/internal/domain/agent"
	"github.com/sablehall/vesper/server/internal/domain/region"
	"github.com/sablehall/vesper/server/internal/engine"
	"github.com/sablehall/vesper/server/internal/events"
	"github.com/sablehall/vesper/server/internal/influence"
	"github.com/sablehall/vesper/server/internal/infra/storage"
	"github.com/sablehall/vesper/server/internal/network"
	"github.com/sablehall/vesper/server/internal/platform/config"
	"github.com/sablehall/vesper/server/internal/platform/logger"
	"github.com/sablehall/vesper/server/internal/platform/metrics"
)

// seedVenue registers the house layout and its resident agents. Regions and
// agents are fixed content; only their runtime state persists across sessions.
func seedVenue(core *engine.Core) {
	rooms := []struct {
		id, name  string
		neighbors []string
		sensitive bool
		drift     float64
	}{
		{"foyer", "The Foyer", []string{"parlor", "gallery"}, false, 1.0},
		{"parlor", "The Parlor", []string{"foyer", "conservatory", "library"}, false, 1.0},
		{"gallery", "The Long Gallery", []string{"foyer", "library", "attic_stair"}, false, 0.9},
		{"library", "The Library", []string{"parlor", "gallery", "cellar_door"}, true, 0.8},
		{"conservatory", "The Conservatory", []string{"parlor"}, false, 1.1},
		{"cellar_door", "The Cellar Door", []string{"library", "cellar"}, true, 0.7},
		{"cellar", "The Cellar", []string{"cellar_door"}, true, 0.6},
		{"attic_stair", "The Attic Stair", []string{"gallery"}, true, 0.7},
	}
	for _, r := range rooms {
		reg := region.NewMicrostate(r.id, r.name, r.neighbors)
		reg.Sensitive = r.sensitive
		reg.DriftRate = r.drift
		core.RegisterRegion(reg)
	}

	core.RegisterAgent(
		agent.NewAgent("A001", "Mrs. Halloran", "foyer", 400, 900),
		"nobody has lived in the cellar",
		"the house has always had seven rooms",
	)
	core.RegisterAgent(
		agent.NewAgent("A002", "Edmund Vesper", "library", 2500, 1200),
		"my brother left of his own accord",
		"the gallery portraits are all strangers",
	)
	core.RegisterAgent(
		agent.NewAgent("A003", "The Gardener", "conservatory", 150, 300),
		"the conservatory glass has never broken",
	)
	core.RegisterAgent(
		agent.NewAgent("A004", "Cousin Ida", "parlor", 800, 1600),
		"I have never been up the attic stair",
	)
}

func main() {
	appLogger := logger.NewLogger()
	appLogger.Info("Initializing Vesper House authoritative server...")

	cfg := config.DefaultConfig()
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	flag.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "entity influence catalog (JSON)")
	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "HTTP listen address")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "simulation RNG seed")
	lowResource := flag.Bool("low-resource", false, "use development (low resource) settings")
	flag.Parse()
	if *lowResource {
		listen, db, catalog, seed := cfg.ListenAddr, cfg.DBPath, cfg.CatalogPath, cfg.Seed
		cfg = config.LowResourceConfig()
		cfg.ListenAddr, cfg.DBPath, cfg.CatalogPath, cfg.Seed = listen, db, catalog, seed
	}

	appLogger.Info("Opening database at %s...", cfg.DBPath)
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to open storage: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	collector, err := metrics.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		appLogger.Error("Failed to register metrics: %v", err)
		os.Exit(1)
	}

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(storage.NewPersister(store, collector))

	catalog, err := influence.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		appLogger.Warn("Influence catalog unavailable (%v); running with zero influence", err)
		catalog = influence.NewEmptyCatalog()
	}

	appLogger.Info("Bootstrapping simulation core (seed %d)...", cfg.Seed)
	core := engine.NewCore(appLogger, eventLog, catalog, cfg.RouterCadenceTicks, cfg.Seed)
	seedVenue(core)
	core.SeedInfluence()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snap, found, err := store.LoadSnapshot(ctx)
	if err != nil {
		// Degraded, not fatal: an unreadable save starts a fresh session.
		appLogger.Warn("Failed to load snapshot, starting fresh: %v", err)
		found = false
	}
	if found {
		core.Restore(snap)
		appLogger.Info("Restored session %d at pressure %.1f", core.SessionCount(), snap.Level)
	} else {
		appLogger.Info("No saved session found. The House wakes fresh.")
	}

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(appLogger, collector, cfg.BroadcastChannelBuffer, cfg.ClientSendBuffer)
	go hub.Run(ctx)

	loop := engine.NewLoop(core, appLogger, collector, cfg.TickRate, hub.BroadcastHints)
	go loop.Run(ctx)

	// Automated state backup routine. Snapshots are requested through the
	// loop so a save never observes a tick in flight.
	go func() {
		saveTicker := time.NewTicker(cfg.AutosaveInterval)
		defer saveTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-saveTicker.C:
				snap, ok := loop.Snapshot()
				if !ok {
					return
				}
				if err := store.SaveSnapshot(ctx, snap); err != nil {
					appLogger.Error("Autosave failed: %v", err)
				}
			}
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, loop, w, r, appLogger)
	})
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		appLogger.Info("HTTP API & WS server listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed: %v", err)
			os.Exit(1)
		}
	}()

	appLogger.Info("Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	cancel()

	// Wait for the loop to stop; only then may main touch the core again.
	<-loop.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	// Final save so the next session resumes where this one left off.
	if err := store.SaveSnapshot(shutdownCtx, core.Snapshot()); err != nil {
		appLogger.Error("Final save failed: %v", err)
	} else {
		appLogger.Info("Session saved. The House sleeps.")
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow cross-origin requests from the renderer dev server
	},
}

// serveWs handles websocket requests from the peer.
func serveWs(hub *network.Hub, loop *engine.Loop, w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade websocket connection: %v", err)
		return
	}

	client := network.NewClient(hub, loop, conn)
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
