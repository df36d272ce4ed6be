package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wyehealth/clinicbridge-backend/api/controllers"
	"github.com/wyehealth/clinicbridge-backend/api/routes"
	"github.com/wyehealth/clinicbridge-backend/internal/deliveries"
	"github.com/wyehealth/clinicbridge-backend/internal/inventory"
	"github.com/wyehealth/clinicbridge-backend/internal/ledgerbook"
	"github.com/wyehealth/clinicbridge-backend/internal/registry"
	"github.com/wyehealth/clinicbridge-backend/internal/vendors"
	"github.com/wyehealth/clinicbridge-backend/pkg/config"
	"github.com/wyehealth/clinicbridge-backend/pkg/db"
	"github.com/wyehealth/clinicbridge-backend/pkg/logger"
	"github.com/wyehealth/clinicbridge-backend/pkg/migrate"
	"github.com/wyehealth/clinicbridge-backend/pkg/redis"
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
		logg.Error(context.Background(), "failed to bootstrap primary database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing primary database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	cmsClient, err := db.NewCMS(context.Background(), cfg.CMSDB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap cms database", err)
		os.Exit(1)
	}
	defer func() {
		if err := cmsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing cms database", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	inventorySvc, err := inventory.NewService(inventory.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}
	vendorSvc, err := vendors.NewService(vendors.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create vendor service", err)
		os.Exit(1)
	}
	deliverySvc, err := deliveries.NewService(deliveries.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery service", err)
		os.Exit(1)
	}
	ledgerSvc, err := ledgerbook.NewService(ledgerbook.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	registrySvc, err := registry.NewService(registry.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create registry service", err)
		os.Exit(1)
	}

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := routes.NewRouter(routes.Deps{
		Config: cfg,
		Logger: logg,
		Probes: map[string]controllers.Pinger{
			"db":     dbClient,
			"cms_db": cmsClient,
			"redis":  redisClient,
		},
		Metrics:    metricsRegistry,
		Inventory:  inventorySvc,
		Vendors:    vendorSvc,
		Deliveries: deliverySvc,
		Ledger:     ledgerSvc,
		Registry:   registrySvc,
	})

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
		Handler: router,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
