package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/felixfletscher/ollo-dev12/api/routes"
	"github.com/felixfletscher/ollo-dev12/internal/billing"
	"github.com/felixfletscher/ollo-dev12/internal/customers"
	"github.com/felixfletscher/ollo-dev12/internal/intervals"
	"github.com/felixfletscher/ollo-dev12/internal/refunds"
	"github.com/felixfletscher/ollo-dev12/internal/subscriptions"
	"github.com/felixfletscher/ollo-dev12/pkg/config"
	"github.com/felixfletscher/ollo-dev12/pkg/db"
	"github.com/felixfletscher/ollo-dev12/pkg/logger"
	"github.com/felixfletscher/ollo-dev12/pkg/migrate"
	"github.com/felixfletscher/ollo-dev12/pkg/mollie"
	"github.com/felixfletscher/ollo-dev12/pkg/redis"
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

	refundService, err := refunds.NewService(refunds.ServiceParams{
		Repo:     billingRepo,
		Provider: mollieClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create refund service", err)
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
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Customers:     customerService,
			Subscriptions: subscriptionService,
			Refunds:       refundService,
			Intervals:     intervalService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
