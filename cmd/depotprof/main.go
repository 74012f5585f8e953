// depotprof drives a small simulation against a depot storage for profiling.
//
//	go build ./cmd/depotprof
//	DEPOT_CONFIG=prof.toml ./depotprof
//	go tool pprof -http=":8000" ./depotprof cpu.pprof
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/TheBitDrifter/bark"
	"github.com/pkg/profile"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config (default $"+configEnv+")")
	flag.Parse()
	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := Load(configPath)
	if err != nil {
		return err
	}
	bark.Wake(bark.Config{Environment: "development", Level: cfg.LogLevel})
	log := bark.For("depotprof")

	switch cfg.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	sim, err := newSimulation(cfg, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("populate storage: %w", err)
	}
	defer sim.close()
	log.Info("storage populated", "entities", sim.storage.Len(), "workers", sim.pool.Workers())

	start := time.Now()
	var replaced int
	for tick := range cfg.Ticks {
		tickStart := time.Now()
		stats, err := sim.step()
		if err != nil {
			return fmt.Errorf("tick %d: %w", tick, err)
		}
		replaced += stats.replaced
		log.Debug("tick",
			"tick", tick,
			"moved", stats.moved,
			"damaged", stats.damaged,
			"dead", stats.dead,
			"replaced", stats.replaced,
			bark.KeyDuration, time.Since(tickStart).Milliseconds(),
		)
	}

	if err := sim.storage.Verify(); err != nil {
		log.Error("storage inconsistent", bark.KeyError, err)
		return err
	}
	log.Info("run complete",
		"ticks", cfg.Ticks,
		"entities", sim.storage.Len(),
		"archetypes", len(sim.storage.Archetypes()),
		"replaced", replaced,
		bark.KeyDuration, time.Since(start).Milliseconds(),
	)
	return nil
}
