package controllers

import (
	"net/http"

	"github.com/HasashiDaaku/ledger-tycoon-erp/api/responses"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/config"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/logger"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "live", "env": cfg.App.Env})
	}
}

// HealthReady reports per-dependency readiness; a missing cache is reported
// but never fails readiness since reports degrade without it.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, cache *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["database"] = "down"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "database ping failed", err)
				}
			} else {
				checks["database"] = "ok"
			}
		}

		if cache == nil {
			checks["cache"] = "disabled"
		} else if err := cache.Ping(ctx); err != nil {
			checks["cache"] = "down"
			if logg != nil {
				logg.Error(ctx, "redis ping failed", err)
			}
		} else {
			checks["cache"] = "ok"
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": map[bool]string{true: "ready", false: "degraded"}[healthy],
			"env":    cfg.App.Env,
			"checks": checks,
		})
	}
}
