package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SC-Market/sc-market-backend-sub001/api/controllers"
	"github.com/SC-Market/sc-market-backend-sub001/api/middleware"
	"github.com/SC-Market/sc-market-backend-sub001/internal/allocations"
	"github.com/SC-Market/sc-market-backend-sub001/internal/locations"
	"github.com/SC-Market/sc-market-backend-sub001/internal/stock"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/config"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/db"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	metricsGatherer prometheus.Gatherer,
	stockService stock.Service,
	allocationService allocations.Service,
	locationService locations.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP))
	})

	if metricsGatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(metricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/lots", func(r chi.Router) {
		r.Get("/", controllers.LotList(stockService, logg))
		r.Post("/", controllers.LotCreate(stockService, logg))
		r.Patch("/{lotID}", controllers.LotUpdate(stockService, logg))
		r.Delete("/{lotID}", controllers.LotDelete(stockService, logg))
		r.Post("/{lotID}/transfer", controllers.LotTransfer(stockService, logg))
	})

	r.Route("/api/v1/listings/{listingID}/stock", func(r chi.Router) {
		r.Get("/", controllers.ListingStockLevels(stockService, logg))
		r.Put("/", controllers.ListingSimpleStock(stockService, logg))
	})

	r.Route("/api/v1/allocations", func(r chi.Router) {
		r.Post("/", controllers.AllocationsManual(allocationService, logg))
		r.Post("/auto", controllers.AllocationsAuto(allocationService, logg))
		r.Post("/{allocationID}/release", controllers.AllocationRelease(allocationService, logg))
		r.Post("/{allocationID}/consume", controllers.AllocationConsume(allocationService, logg))
	})

	r.Get("/api/v1/orders/{orderID}/allocations", controllers.AllocationsByOrder(allocationService, logg))

	r.Route("/api/v1/locations", func(r chi.Router) {
		r.Get("/presets", controllers.LocationsPresets(locationService, logg))
		r.Get("/search", controllers.LocationsSearch(locationService, logg))
		r.Get("/owner/{ownerID}", controllers.LocationsByOwner(locationService, logg))
		r.Get("/{locationID}", controllers.LocationGet(locationService, logg))
		r.Post("/", controllers.LocationCreate(locationService, logg))
	})

	return r
}
