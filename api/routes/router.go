package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wyehealth/clinicbridge-backend/api/controllers"
	"github.com/wyehealth/clinicbridge-backend/api/middleware"
	"github.com/wyehealth/clinicbridge-backend/internal/deliveries"
	"github.com/wyehealth/clinicbridge-backend/internal/inventory"
	"github.com/wyehealth/clinicbridge-backend/internal/ledgerbook"
	"github.com/wyehealth/clinicbridge-backend/internal/registry"
	"github.com/wyehealth/clinicbridge-backend/internal/vendors"
	"github.com/wyehealth/clinicbridge-backend/pkg/config"
	"github.com/wyehealth/clinicbridge-backend/pkg/logger"
)

// Deps collects everything the router wires into handlers.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	// Health probes, keyed by dependency name.
	Probes map[string]controllers.Pinger

	// Prometheus gatherer backing /metrics; nil disables the endpoint.
	Metrics prometheus.Gatherer

	Inventory  inventory.Service
	Vendors    vendors.Service
	Deliveries deliveries.Service
	Ledger     ledgerbook.Service
	Registry   registry.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Probes))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ListItems(deps.Inventory, logg))
			r.Post("/", controllers.CreateItem(deps.Inventory, logg))
			r.Get("/{id}", controllers.GetItem(deps.Inventory, logg))
			r.Patch("/{id}", controllers.UpdateItem(deps.Inventory, logg))
			r.Delete("/{id}", controllers.DeleteItem(deps.Inventory, logg))
		})

		r.Route("/vendors", func(r chi.Router) {
			r.Get("/", controllers.ListVendors(deps.Vendors, logg))
			r.Post("/", controllers.CreateVendor(deps.Vendors, logg))
			r.Get("/{id}", controllers.GetVendor(deps.Vendors, logg))
			r.Patch("/{id}", controllers.UpdateVendor(deps.Vendors, logg))
			r.Delete("/{id}", controllers.DeleteVendor(deps.Vendors, logg))
		})

		r.Route("/deliveries", func(r chi.Router) {
			r.Get("/", controllers.ListDeliveryOrders(deps.Deliveries, logg))
			r.Post("/", controllers.CreateDeliveryOrder(deps.Deliveries, logg))
			r.Get("/{id}", controllers.GetDeliveryOrder(deps.Deliveries, logg))
			r.Post("/{id}/receive", controllers.ReceiveDeliveryOrder(deps.Deliveries, logg))
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/", controllers.ListLedgerEntries(deps.Ledger, logg))
			r.Post("/", controllers.RecordLedgerEntry(deps.Ledger, logg))
			r.Get("/{id}", controllers.GetLedgerEntry(deps.Ledger, logg))
			r.Delete("/{id}", controllers.DeleteLedgerEntry(deps.Ledger, logg))
		})

		r.Route("/registry", func(r chi.Router) {
			r.Get("/", controllers.ListRegisteredDrugs(deps.Registry, logg))
			r.Post("/import", controllers.ImportRegisteredDrugs(deps.Registry, logg))
			r.Get("/{regNo}", controllers.GetRegisteredDrug(deps.Registry, logg))
		})
	})

	return r
}
