// Package routes assembles the HTTP surface: middleware chain, health
// endpoints, and the game and reporting APIs.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HasashiDaaku/ledger-tycoon-erp/api/controllers"
	"github.com/HasashiDaaku/ledger-tycoon-erp/api/middleware"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/game"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/reports"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/config"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/logger"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	cache *redis.Client,
	gameService game.Service,
	reportsService reports.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cache))
	})

	r.Route("/api/v1/game", func(r chi.Router) {
		r.Post("/start", controllers.GameStart(gameService, logg))
		r.Get("/state", controllers.GameState(gameService, logg))
		r.Post("/turn", controllers.GameProcessTurn(gameService, logg))
		r.Post("/purchase", controllers.GamePurchaseInventory(gameService, logg))
		r.Post("/price", controllers.GameSetPrice(gameService, logg))
		r.Get("/decisions", controllers.GamePendingDecisions(gameService, logg))
		r.Post("/decisions/{eventID}", controllers.GameDecide(gameService, logg))
	})

	r.Route("/api/v1/reports", func(r chi.Router) {
		r.Get("/balance-sheet", controllers.ReportsBalanceSheet(reportsService, logg))
		r.Get("/income-statement", controllers.ReportsIncomeStatement(reportsService, logg))
		r.Get("/metrics", controllers.ReportsKeyMetrics(reportsService, logg))
		r.Get("/history/market", controllers.ReportsMarketHistory(reportsService, logg))
		r.Get("/history/financial", controllers.ReportsFinancialHistory(reportsService, logg))
	})

	return r
}
