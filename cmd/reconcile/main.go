package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/wyehealth/clinicbridge-backend/internal/cms"
	"github.com/wyehealth/clinicbridge-backend/internal/deliveries"
	"github.com/wyehealth/clinicbridge-backend/internal/inventory"
	"github.com/wyehealth/clinicbridge-backend/internal/reconcile"
	"github.com/wyehealth/clinicbridge-backend/internal/registry"
	"github.com/wyehealth/clinicbridge-backend/pkg/config"
	"github.com/wyehealth/clinicbridge-backend/pkg/db"
	"github.com/wyehealth/clinicbridge-backend/pkg/logger"
	"github.com/wyehealth/clinicbridge-backend/pkg/metrics"
	"github.com/wyehealth/clinicbridge-backend/pkg/redis"
)

type options struct {
	pass   string
	list   bool
	delete bool
	remove bool
	create bool
	force  bool
	yes    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.pass, "pass", "", "pass to run: utilization-cleanup|supplier-cleanup|propagate-registry-names|fix-cross-references|migrate-legacy-deliveries")
	flag.BoolVar(&opts.list, "list", false, "list known passes and exit")
	flag.BoolVar(&opts.delete, "delete", false, "utilization-cleanup: delete candidates instead of marking them")
	flag.BoolVar(&opts.remove, "remove", false, "utilization-cleanup: with -delete, remove rows already marked for deletion")
	flag.BoolVar(&opts.create, "create", false, "fix-cross-references: recreate missing legacy drugs for registry-linked items")
	flag.BoolVar(&opts.force, "force", false, "skip confirmation prompts")
	flag.BoolVar(&opts.yes, "yes", false, "answer confirmation prompts affirmatively (implies non-interactive)")
	flag.Parse()

	if err := run(opts); err != nil {
		os.Exit(1)
	}
}

func run(opts options) error {
	logg := logger.New(logger.Options{ServiceName: "reconcile"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		return err
	}

	cfg.Service.Kind = "reconcile"

	logg = logger.New(logger.Options{
		ServiceName: "reconcile",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"pass": opts.pass,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap primary database", err)
		return err
	}
	closers := []func() error{dbClient.Close}
	defer closeAll(ctx, logg, &closers)

	cmsClient, err := db.NewCMS(context.Background(), cfg.CMSDB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap cms database", err)
		return err
	}
	closers = append(closers, cmsClient.Close)

	// The maintenance lock serializes runs across operators. Without redis
	// the run proceeds unguarded, which is acceptable for local work.
	var lock reconcile.Lock = reconcile.NopLock{}
	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Warn(ctx, "redis unavailable, running without the maintenance lock")
	} else {
		closers = append(closers, redisClient.Close)
		lock, err = reconcile.NewRedisLock(redisClient, redis.Key("reconcile", "lock"), cfg.Reconcile.LockTTL)
		if err != nil {
			logg.Error(ctx, "failed to create maintenance lock", err)
			return err
		}
	}

	cmsRepo := cms.NewRepository(cmsClient.DB())
	registryRepo := registry.NewRepository(dbClient.DB())
	itemRepo := inventory.NewRepository(dbClient.DB())
	orderRepo := deliveries.NewRepository(dbClient.DB())

	var authorizer reconcile.Authorizer
	if opts.force || opts.yes {
		authorizer = reconcile.Force()
	} else {
		authorizer = reconcile.Prompt(os.Stdin, os.Stdout)
	}

	var chooser reconcile.NameChooser
	if opts.force || opts.yes {
		chooser = reconcile.QueueConflicts()
	} else {
		chooser = reconcile.PromptNames(os.Stdin, os.Stdout)
	}

	passRegistry, err := buildPasses(cmsRepo, registryRepo, itemRepo, orderRepo, logg, authorizer, chooser, cfg, opts)
	if err != nil {
		logg.Error(ctx, "failed to build passes", err)
		return err
	}

	if opts.list {
		for _, name := range passRegistry.Names() {
			fmt.Println(name)
		}
		return nil
	}

	if opts.pass == "" {
		fmt.Fprintf(os.Stderr, "missing -pass; known passes: %s\n", strings.Join(passRegistry.Names(), ", "))
		return fmt.Errorf("missing -pass")
	}
	pass := passRegistry.Lookup(opts.pass)
	if pass == nil {
		fmt.Fprintf(os.Stderr, "unknown pass %q; known passes: %s\n", opts.pass, strings.Join(passRegistry.Names(), ", "))
		return fmt.Errorf("unknown pass %q", opts.pass)
	}

	runner, err := reconcile.NewRunner(reconcile.RunnerParams{
		Logger:  logg,
		Lock:    lock,
		Metrics: metrics.NewPassMetrics(prometheus.DefaultRegisterer),
		Out:     os.Stdout,
	})
	if err != nil {
		logg.Error(ctx, "failed to build runner", err)
		return err
	}

	if _, err := runner.RunPass(ctx, pass); err != nil {
		logg.Error(ctx, "pass did not complete", err)
		return err
	}
	return nil
}

func buildPasses(
	cmsRepo *cms.Repository,
	registryRepo *registry.Repository,
	itemRepo *inventory.Repository,
	orderRepo *deliveries.Repository,
	logg *logger.Logger,
	authorizer reconcile.Authorizer,
	chooser reconcile.NameChooser,
	cfg *config.Config,
	opts options,
) (*reconcile.Registry, error) {
	utilization, err := reconcile.NewUtilizationPass(reconcile.UtilizationParams{
		Store:      cmsRepo,
		Logger:     logg,
		Authorizer: authorizer,
		Delete:     opts.delete,
		Remove:     opts.remove,
	})
	if err != nil {
		return nil, fmt.Errorf("utilization pass: %w", err)
	}

	supplierCleanup, err := reconcile.NewSupplierCleanupPass(reconcile.SupplierCleanupParams{
		Store:      cmsRepo,
		Registry:   registryRepo,
		Logger:     logg,
		Authorizer: authorizer,
	})
	if err != nil {
		return nil, fmt.Errorf("supplier cleanup pass: %w", err)
	}

	registryNames, err := reconcile.NewRegistryNamesPass(reconcile.RegistryNamesParams{
		Store:    cmsRepo,
		Registry: registryRepo,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("registry names pass: %w", err)
	}

	crossRef, err := reconcile.NewCrossRefPass(reconcile.CrossRefParams{
		Items:      itemRepo,
		CMS:        cmsRepo,
		Registry:   registryRepo,
		Logger:     logg,
		Authorizer: authorizer,
		Create:     opts.create,
	})
	if err != nil {
		return nil, fmt.Errorf("cross-reference pass: %w", err)
	}

	migration, err := reconcile.NewDeliveryMigrationPass(reconcile.DeliveryMigrationParams{
		CMS:           cmsRepo,
		Items:         itemRepo,
		Orders:        orderRepo,
		Logger:        logg,
		Chooser:       chooser,
		ProgressEvery: cfg.Reconcile.ProgressEvery,
	})
	if err != nil {
		return nil, fmt.Errorf("delivery migration pass: %w", err)
	}

	return reconcile.NewRegistry(
		utilization,
		supplierCleanup,
		registryNames,
		crossRef,
		migration,
	), nil
}

func closeAll(ctx context.Context, logg *logger.Logger, closers *[]func() error) {
	var combined error
	for i := len(*closers) - 1; i >= 0; i-- {
		combined = multierr.Append(combined, (*closers)[i]())
	}
	if combined != nil {
		logg.Error(ctx, "error closing resources", combined)
	}
}
