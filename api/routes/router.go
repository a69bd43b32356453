package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/felixfletscher/ollo-dev12/api/controllers"
	"github.com/felixfletscher/ollo-dev12/api/middleware"
	"github.com/felixfletscher/ollo-dev12/internal/customers"
	"github.com/felixfletscher/ollo-dev12/internal/intervals"
	"github.com/felixfletscher/ollo-dev12/internal/refunds"
	"github.com/felixfletscher/ollo-dev12/internal/subscriptions"
	"github.com/felixfletscher/ollo-dev12/pkg/config"
	"github.com/felixfletscher/ollo-dev12/pkg/db"
	"github.com/felixfletscher/ollo-dev12/pkg/logger"
)

// Services groups the domain services the router exposes.
type Services struct {
	Customers     customers.Service
	Subscriptions subscriptions.Service
	Refunds       refunds.Service
	Intervals     intervals.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database db.Pinger,
	cache db.Pinger,
	services Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, database, cache))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/customers", func(r chi.Router) {
			r.Post("/", controllers.RegisterCustomer(services.Customers, logg))
			r.Route("/{customerID}", func(r chi.Router) {
				r.Get("/", controllers.GetCustomer(services.Customers, logg))
				r.Post("/first-payment", controllers.CustomerFirstPayment(services.Customers, logg))
				r.Post("/recharge", controllers.CustomerRecharge(services.Customers, logg))
				r.Get("/subscriptions", controllers.ListCustomerSubscriptions(services.Subscriptions, logg))
			})
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", controllers.CreateSubscription(services.Subscriptions, cfg.Billing.DefaultCurrency, logg))
			r.Route("/{subscriptionID}", func(r chi.Router) {
				r.Get("/", controllers.GetSubscription(services.Subscriptions, logg))
				r.Patch("/", controllers.UpdateSubscription(services.Subscriptions, logg))
				r.Delete("/", controllers.CancelSubscription(services.Subscriptions, logg))
				r.Post("/activate", controllers.ActivateSubscription(services.Subscriptions, logg))
				r.Post("/refresh", controllers.RefreshSubscription(services.Subscriptions, logg))
				r.Post("/payments/sync", controllers.SyncSubscriptionPayments(services.Subscriptions, logg))
			})
		})

		r.Post("/refunds", controllers.CreateRefund(services.Refunds, logg))

		r.Route("/intervals", func(r chi.Router) {
			r.Get("/", controllers.ListIntervals(services.Intervals, logg))
			r.Post("/resolve", controllers.ResolveInterval(services.Intervals, logg))
		})
	})

	return r
}
