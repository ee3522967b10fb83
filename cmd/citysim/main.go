// Command citysim generates a road map, builds a city on it and runs the
// simulation until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/tilecity/internal/api"
	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/config"
	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/journal"
	"github.com/talgya/tilecity/internal/world"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	setupLogging(cfg.LogLevel)

	if err := run(cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("citysim stopped", "error", err)
		os.Exit(1)
	}
}

// setupLogging writes text logs to a terminal and JSON everywhere else.
func setupLogging(level string) {
	lvl, _ := config.ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Road map ──────────────────────────────────────────────────────
	slog.Info("generating road map", "size", cfg.Map.Size, "seed", cfg.Map.Seed)
	start := time.Now()
	m, gen, err := world.Generate(ctx, cfg.Map.Gen())
	if err != nil {
		return err
	}
	ts := world.MustDefaultTileSet()
	slog.Info("road map ready",
		"seed", gen.Seed,
		"steps", gen.Steps,
		"restarts", gen.Restarts,
		"took", time.Since(start).Round(time.Millisecond),
	)
	for t, n := range gen.Counts {
		slog.Debug("road tiles", "type", ts.Name(t), "count", n)
	}

	// ── Journal ───────────────────────────────────────────────────────
	var opts []city.Option
	var db *journal.DB
	if cfg.Journal.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0o755); err != nil {
			return fmt.Errorf("journal dir: %w", err)
		}
		db, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		slog.Info("journal opened", "path", cfg.Journal.Path)

		if _, err := db.SaveGeneration(ctx, gen, ts); err != nil {
			slog.Error("generation save failed", "error", err)
		}
		if err := db.SaveMeta(ctx, "seed", strconv.FormatInt(gen.Seed, 10)); err != nil {
			slog.Error("meta save failed", "error", err)
		}
		opts = append(opts, city.WithRecorder(db))
	} else {
		slog.Warn("journal disabled, weekly reports will not be kept")
	}

	// ── City ──────────────────────────────────────────────────────────
	opts = append(opts, city.WithEngineOptions(engine.WithRecover()))
	c, err := city.New(m, gen, cfg.City, opts...)
	if err != nil {
		return err
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.Port > 0 {
		if cfg.API.AdminKey == "" {
			slog.Warn("CITYSIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
		}
		srv := &api.Server{
			City:     c,
			TileSet:  ts,
			Port:     cfg.API.Port,
			AdminKey: cfg.API.AdminKey,
		}
		if db != nil {
			srv.Reports = db
		}
		httpSrv := srv.Start()
		defer func() {
			srv.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
		}()
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	}

	// ── Run ───────────────────────────────────────────────────────────
	fmt.Printf("\nTilecity is alive: %d citizens, %d houses, %d companies, %d shops on a %dx%d map.\n",
		len(c.Citizens), len(c.Houses), len(c.Companies), len(c.Shops), m.Size, m.Size)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	err = c.Engine.Run(ctx)

	var ticks uint64
	var stats city.Stats
	c.View(func(c *city.City) {
		ticks = c.Engine.Ticks()
		stats = c.Stats
	})
	if db != nil {
		if err := db.SaveMeta(context.Background(), "last_tick", strconv.FormatUint(ticks, 10)); err != nil {
			slog.Error("meta save failed", "error", err)
		}
	}
	fmt.Printf("Simulation stopped after %s ticks. Treasury: %s\n",
		humanize.Comma(int64(ticks)), humanize.Comma(int64(stats.Treasury)))
	return err
}
