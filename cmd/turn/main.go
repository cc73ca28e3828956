package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/events"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/game"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/inventory"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/ledger"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/market"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/config"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/logger"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/metrics"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/migrate"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/rng"
)

// turn is a headless runner: it advances the simulation a fixed number of
// turns from the command line, without the HTTP surface. Useful for seeding
// demo data and for replaying a season under a fixed TYCOON_SIM_SEED.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "turn"})

	_ = godotenv.Load()

	initGame := flag.Bool("init", false, "wipe all state and seed a fresh game first")
	turns := flag.Int("turns", 1, "number of turns to process")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "turn",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "migrations", err)

	conn := dbClient.DB()
	books, err := ledger.NewService(dbClient, ledger.NewRepository(conn))
	requireResource(ctx, logg, "ledger service", err)

	planner, err := inventory.NewPlanner(inventory.NewRepository(conn))
	requireResource(ctx, logg, "inventory planner", err)

	rand := rng.New(cfg.Sim.Seed)
	engine, err := events.NewEngine(events.NewRepository(conn), rand, logg)
	requireResource(ctx, logg, "events engine", err)

	sim, err := market.NewSimulator(market.NewRepository(conn), inventory.NewRepository(conn), books, rand, cfg.Sim.BaseDemand)
	requireResource(ctx, logg, "market simulator", err)

	turnMetrics := metrics.NewTurnMetrics(prometheus.DefaultRegisterer)
	svc, err := game.NewService(dbClient, game.NewRepository(conn), books, planner, engine, sim, rand, logg, turnMetrics, cfg.Sim)
	requireResource(ctx, logg, "game service", err)

	if *initGame {
		playerID, err := svc.InitializeGame(ctx)
		requireResource(ctx, logg, "game init", err)
		fmt.Println("seeded fresh game, player company:", playerID)
	}

	for i := 0; i < *turns; i++ {
		result, err := svc.ProcessTurn(ctx)
		requireResource(ctx, logg, "turn", err)
		fmt.Printf("turn complete: %d/%d run=%s\n", result.Month, result.Year, result.RunID)
		for _, line := range result.Logs {
			fmt.Println("  " + line)
		}
	}

	summaries, err := svc.CompanySummaries(ctx)
	requireResource(ctx, logg, "company summaries", err)
	for _, c := range summaries {
		fmt.Printf("%-20s cash=%.2f brand=%.2f\n", c.Name, c.Cash, c.BrandEquity)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
