package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixfletscher/ollo-dev12/internal/billing"
	"github.com/felixfletscher/ollo-dev12/internal/cron"
	"github.com/felixfletscher/ollo-dev12/internal/customers"
	"github.com/felixfletscher/ollo-dev12/internal/deliveries"
	"github.com/felixfletscher/ollo-dev12/internal/intervals"
	"github.com/felixfletscher/ollo-dev12/internal/ledger"
	"github.com/felixfletscher/ollo-dev12/internal/orders"
	"github.com/felixfletscher/ollo-dev12/internal/reconcile"
	"github.com/felixfletscher/ollo-dev12/internal/subscriptions"
	"github.com/felixfletscher/ollo-dev12/pkg/config"
	"github.com/felixfletscher/ollo-dev12/pkg/db"
	"github.com/felixfletscher/ollo-dev12/pkg/logger"
	"github.com/felixfletscher/ollo-dev12/pkg/metrics"
	"github.com/felixfletscher/ollo-dev12/pkg/migrate"
	"github.com/felixfletscher/ollo-dev12/pkg/mollie"
	"github.com/felixfletscher/ollo-dev12/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	// The key is read from the environment on every call so a rotated
	// key takes effect without a restart.
	creds := mollie.CredentialFunc(func(ctx context.Context) (string, error) {
		if key := os.Getenv(config.EnvMollieAPIKey); key != "" {
			return key, nil
		}
		return cfg.Mollie.APIKey, nil
	})
	mollieClient, err := mollie.NewClient(cfg.Mollie, creds, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mollie client", err)
		os.Exit(1)
	}

	billingRepo := billing.NewRepository(dbClient.DB())
	customerRepo := customers.NewRepository(dbClient.DB())
	intervalRepo := intervals.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())

	intervalService, err := intervals.NewService(intervals.ServiceParams{Repo: intervalRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create interval service", err)
		os.Exit(1)
	}

	customerService, err := customers.NewService(customers.ServiceParams{
		Repo:            customerRepo,
		Payments:        billingRepo,
		Provider:        mollieClient,
		RedirectURL:     cfg.Mollie.RedirectURL,
		WebhookURL:      cfg.Mollie.WebhookURL,
		DefaultCurrency: cfg.Billing.DefaultCurrency,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create customer service", err)
		os.Exit(1)
	}

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:       billingRepo,
		Customers:  customerService,
		Intervals:  intervalService,
		IntervalDB: intervalRepo,
		Provider:   mollieClient,
		WebhookURL: cfg.Mollie.WebhookURL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	deliveryService, err := deliveries.NewService(deliveries.ServiceParams{
		Repo:          orderRepo,
		Intervals:     intervalRepo,
		Subscriptions: subscriptionService,
		Logg:          logg,
		BufferDays:    cfg.Billing.BufferDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery service", err)
		os.Exit(1)
	}

	reconcileService, err := reconcile.NewService(reconcile.ServiceParams{
		Billing:       billingRepo,
		Invoices:      orderRepo,
		Ledger:        ledgerService,
		Subscriptions: subscriptionService,
		Provider:      mollieClient,
		Logg:          logg,
		SweepLimit:    cfg.Cron.ReconcileLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	deliveryJob, err := cron.NewDeliverySubscriptionJob(cron.DeliverySubscriptionJobParams{
		Logger:     logg,
		Deliveries: deliveryService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery job", err)
		os.Exit(1)
	}
	refreshJob, err := cron.NewSubscriptionRefreshJob(cron.SubscriptionRefreshJobParams{
		Logger:        logg,
		Billing:       billingRepo,
		Subscriptions: subscriptionService,
		BatchSize:     cfg.Cron.ReconcileLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create refresh job", err)
		os.Exit(1)
	}
	reconcileJob, err := cron.NewPaymentReconcileJob(cron.PaymentReconcileJobParams{
		Logger:     logg,
		Reconciler: reconcileService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile job", err)
		os.Exit(1)
	}
	invoiceJob, err := cron.NewInvoiceStateJob(cron.InvoiceStateJobParams{
		Logger:     logg,
		Reconciler: reconcileService,
		BatchSize:  cfg.Cron.ReconcileLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice state job", err)
		os.Exit(1)
	}
	registry.Register(deliveryJob)
	registry.Register(refreshJob)
	registry.Register(reconcileJob)
	registry.Register(invoiceJob)

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

