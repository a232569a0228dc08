package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freightline/freightline-backend/api/controllers"
	"github.com/freightline/freightline-backend/api/middleware"
	"github.com/freightline/freightline-backend/internal/evidence"
	"github.com/freightline/freightline-backend/internal/lifecycle"
	"github.com/freightline/freightline-backend/internal/pod"
	"github.com/freightline/freightline-backend/internal/signature"
	"github.com/freightline/freightline-backend/pkg/config"
	"github.com/freightline/freightline-backend/pkg/logger"
	"github.com/freightline/freightline-backend/pkg/metrics"
	pkgredis "github.com/freightline/freightline-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	httpMetrics *metrics.HTTPMetrics,
	readiness map[string]controllers.Pinger,
	redisClient *pkgredis.Client,
	lifecycleService lifecycle.Service,
	evidenceService evidence.Service,
	signatureService signature.Service,
	podService pod.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(middleware.RateLimitPolicy{
			Window: cfg.RateLimit.Window,
			Limit:  cfg.RateLimit.Limit,
		}, redisClient, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/jobs/{jobId}", func(r chi.Router) {
			r.Post("/status", controllers.StatusTransition(lifecycleService, logg))
			r.Get("/history", controllers.StatusHistory(lifecycleService, logg))

			r.Post("/evidence", controllers.EvidenceSubmit(evidenceService, logg))
			r.Get("/evidence", controllers.EvidenceList(evidenceService, logg))
			r.Delete("/evidence", controllers.EvidenceDelete(evidenceService, logg))

			r.Post("/signature", controllers.SignatureCapture(signatureService, logg))
			r.Get("/pod", controllers.PodLatest(podService, logg))
		})
	})

	return r
}
