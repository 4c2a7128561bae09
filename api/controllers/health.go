package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/SC-Market/sc-market-backend-sub001/api/responses"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/config"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/db"
	pkgerrors "github.com/SC-Market/sc-market-backend-sub001/pkg/errors"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SCMarket-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SCMarket-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
