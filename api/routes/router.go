package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oremusapp/oremus-backend/api/controllers"
	webhookcontrollers "github.com/oremusapp/oremus-backend/api/controllers/webhooks"
	"github.com/oremusapp/oremus-backend/api/middleware"
	"github.com/oremusapp/oremus-backend/internal/intentions"
	"github.com/oremusapp/oremus-backend/pkg/config"
	"github.com/oremusapp/oremus-backend/pkg/db"
	"github.com/oremusapp/oremus-backend/pkg/logger"
	"github.com/oremusapp/oremus-backend/pkg/redis"
)

// RouterParams collects everything the HTTP edge depends on.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          redis.Pinger
	Intentions     intentions.Service
	StripeWebhooks webhookcontrollers.StripeWebhookService
	Metrics        prometheus.Gatherer
}

// NewRouter builds the chi router for the API deployable.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(params.Logger),
		middleware.RequestID(params.Logger),
		middleware.Logging(params.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(params.Config))
		r.Get("/ready", controllers.HealthReady(params.Config, params.Logger, params.DB, params.Redis))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(params.Metrics, promhttp.HandlerOpts{}))
	}

	stripeWebhook := webhookcontrollers.StripePaymentWebhook(
		params.StripeWebhooks,
		params.Config.Stripe.WebhookSecret,
		params.Config.Stripe.HandleTimeout,
		params.Logger,
	)
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", stripeWebhook)
	})
	// Gateway-neutral path registered in the provider dashboard.
	r.Post("/webhooks/payment", stripeWebhook)

	r.Route("/api/v1/intentions", func(r chi.Router) {
		r.Post("/", controllers.CreateIntention(params.Intentions, params.Logger))
		r.Get("/{intentionID}", controllers.GetIntention(params.Intentions, params.Logger))
	})

	return r
}
