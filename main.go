// Command denver-rink-schedule-viewer polls published ice rink
// schedules, normalizes them into canonical events, and serves a
// filtering API over the aggregated data.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/aggregator"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/clock"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/config"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/database"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/fetch"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/filter"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/logger"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/registry"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	dbPath := flag.String("db", "", "Override the database path from the config file")
	addr := flag.String("addr", "", "Override the listen address from the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log := logger.New(cfg.Logging.Level)

	reg, err := registry.New(cfg.FacilityModels(), cfg.RinkModels())
	if err != nil {
		log.Error("invalid rink registry", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Error("failed to open database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	client := fetch.NewClient(cfg.Retry, log)
	agg := aggregator.New(db, client, cfg.EnabledSources(), clock.Mountain, log)
	engine := filter.NewEngine(reg, clock.Mountain)
	srv := server.New(db, agg, reg, engine, log)

	poller := aggregator.NewPoller(agg, time.Duration(cfg.Polling.IntervalMinutes)*time.Minute, log)
	poller.Start()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Server.Addr)
		errCh <- srv.Start(cfg.Server.Addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		log.Error("server stopped", "error", err)
	}
	poller.Stop()
}
