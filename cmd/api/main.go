package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/HasashiDaaku/ledger-tycoon-erp/api/routes"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/events"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/game"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/inventory"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/ledger"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/market"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/reports"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/config"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/logger"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/metrics"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/migrate"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/redis"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/rng"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	books, err := ledger.NewService(dbClient, ledger.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	planner, err := inventory.NewPlanner(inventory.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory planner", err)
		os.Exit(1)
	}
	rand := rng.New(cfg.Sim.Seed)
	engine, err := events.NewEngine(events.NewRepository(conn), rand, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create events engine", err)
		os.Exit(1)
	}
	sim, err := market.NewSimulator(market.NewRepository(conn), inventory.NewRepository(conn), books, rand, cfg.Sim.BaseDemand)
	if err != nil {
		logg.Error(context.Background(), "failed to create market simulator", err)
		os.Exit(1)
	}
	turnMetrics := metrics.NewTurnMetrics(prometheus.DefaultRegisterer)
	gameService, err := game.NewService(dbClient, game.NewRepository(conn), books, planner, engine, sim, rand, logg, turnMetrics, cfg.Sim)
	if err != nil {
		logg.Error(context.Background(), "failed to create game service", err)
		os.Exit(1)
	}
	reportsService, err := reports.NewService(reports.NewRepository(conn), books, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, gameService, reportsService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
