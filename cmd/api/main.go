package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/SC-Market/sc-market-backend-sub001/api/routes"
	"github.com/SC-Market/sc-market-backend-sub001/internal/accounts"
	"github.com/SC-Market/sc-market-backend-sub001/internal/allocations"
	"github.com/SC-Market/sc-market-backend-sub001/internal/listings"
	"github.com/SC-Market/sc-market-backend-sub001/internal/locations"
	"github.com/SC-Market/sc-market-backend-sub001/internal/orders"
	"github.com/SC-Market/sc-market-backend-sub001/internal/stock"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/config"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/db"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/logger"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/metrics"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/migrate"
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

	registry := prometheus.NewRegistry()
	stockMetrics := metrics.NewStockMetrics(registry)

	listingRepo := listings.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	accountRepo := accounts.NewRepository(dbClient.DB())
	locationRepo := locations.NewRepository(dbClient.DB())
	stockRepo := stock.NewRepository(dbClient.DB())
	allocationRepo := allocations.NewRepository(dbClient.DB())

	locationService, err := locations.NewService(locationRepo, accountRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create location service", err)
		os.Exit(1)
	}

	stockService, err := stock.NewService(stockRepo, dbClient, listingRepo, locationRepo, accountRepo, stockMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}

	allocationService, err := allocations.NewService(allocationRepo, stockRepo, dbClient, orderRepo, listingRepo, stockMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create allocation service", err)
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
		Handler: routes.NewRouter(cfg, logg, dbClient, registry, stockService, allocationService, locationService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
