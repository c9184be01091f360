// Command hegemon runs the autonomous geopolitical simulation.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/hegemon/internal/api"
	"github.com/talgya/hegemon/internal/coalition"
	"github.com/talgya/hegemon/internal/diplomacy"
	"github.com/talgya/hegemon/internal/engine"
	"github.com/talgya/hegemon/internal/entropy"
	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/geo"
	"github.com/talgya/hegemon/internal/nation"
	"github.com/talgya/hegemon/internal/persistence"
	"github.com/talgya/hegemon/internal/refdata"
	"github.com/talgya/hegemon/internal/strategy"
	"github.com/talgya/hegemon/internal/war"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("HEGEMON — Autonomous Geopolitical Simulation")

	seed := int64(42)
	if env := os.Getenv("HEGEMON_SEED"); env != "" {
		if v, err := strconv.ParseInt(env, 10, 64); err == nil {
			seed = v
		}
	}
	dbPath := "data/hegemon.db"
	apiPort := 8080
	if env := os.Getenv("HEGEMON_PORT"); env != "" {
		if v, err := strconv.Atoi(env); err == nil && v > 0 {
			apiPort = v
		}
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll("data", 0755)
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	// ── World Wiring ─────────────────────────────────────────────────
	rng := entropy.NewSeeded(seed)
	ref := refdata.NewStatic(rng)
	events := event.NewLog()
	reg := nation.NewRegistry(ref, rng)
	geoSvc := geo.NullService{}
	wars := war.NewLedger(reg, geoSvc, events, rng, time.Second)
	coalitions := coalition.NewManager(reg, wars, events)
	office := diplomacy.NewOffice(reg, wars, events, rng)
	director := strategy.NewDirector(reg, coalitions, wars, rng)

	// ── Load or Generate World State ─────────────────────────────────
	var startTick uint64

	if db.HasWorldState() {
		slog.Info("found saved world state, loading...")

		nations, loadErr := db.LoadNations()
		if loadErr != nil {
			slog.Error("failed to load nations", "error", loadErr)
			os.Exit(1)
		}
		for _, n := range nations {
			reg.Restore(n)
		}

		loadedWars, loadErr := db.LoadWars()
		if loadErr != nil {
			slog.Error("failed to load wars", "error", loadErr)
			os.Exit(1)
		}
		for _, w := range loadedWars {
			wars.Restore(w)
		}

		loadedCoalitions, loadErr := db.LoadCoalitions()
		if loadErr != nil {
			slog.Error("failed to load coalitions", "error", loadErr)
			os.Exit(1)
		}
		for _, c := range loadedCoalitions {
			if err := coalitions.Restore(c); err != nil {
				slog.Warn("coalition restored without membership rule", "coalition", c.Name, "error", err)
			}
		}

		if tickStr, err := db.GetMeta("last_tick"); err == nil {
			if t, err := strconv.ParseUint(tickStr, 10, 64); err == nil {
				startTick = t
			}
		}

		// Fill any codes added since the save.
		reg.Initialize(ref.Codes())

		slog.Info("world state restored",
			"nations", reg.Len(),
			"wars", len(loadedWars),
			"coalitions", len(loadedCoalitions),
			"tick", startTick,
			"sim_time", engine.SimTime(startTick),
		)
	} else {
		slog.Info("no saved state found, initializing new world...")
		reg.Initialize(ref.Codes())
	}

	// ── Simulation ────────────────────────────────────────────────────
	sim := engine.NewSimulation(reg, wars, coalitions, office, director, events, geoSvc, rng)
	sim.LastTick = startTick

	saveState := func(tick uint64) error {
		return db.SaveWorldState(reg.All(), wars.All(), coalitions.All(), events.Recent(500), tick)
	}

	// Save on fresh generation only (loaded worlds are already saved).
	if startTick == 0 {
		if err := saveState(0); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	eng := engine.NewEngine()
	eng.Tick = startTick
	eng.Speed = 1

	// Wire tick callbacks — auto-save every sim-year.
	eng.OnTick = sim.TickMonth
	eng.OnYear = func(tick uint64) {
		sim.TickYear(tick)
		if err := saveState(tick); err != nil {
			slog.Error("annual save failed", "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("HEGEMON_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("HEGEMON_ADMIN_KEY not set — admin POST endpoints will be disabled")
	}
	relayKey := os.Getenv("HEGEMON_RELAY_KEY")
	if relayKey == "" {
		slog.Warn("HEGEMON_RELAY_KEY not set — event streaming will be disabled")
	}

	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		Port:     apiPort,
		AdminKey: adminKey,
		RelayKey: relayKey,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	totalPop := int64(0)
	for _, n := range reg.All() {
		totalPop += n.Population
	}
	fmt.Printf("\nThe world is in motion: %d nations, %s people.\n",
		reg.Len(), humanize.Comma(totalPop))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", apiPort)
	if startTick > 0 {
		fmt.Printf("Resuming from tick %d (%s)\n", startTick, engine.SimTime(startTick))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	// Final save on shutdown.
	slog.Info("final save...")
	if err := saveState(eng.Tick); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Simulation stopped. World state saved.")
}
