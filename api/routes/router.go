package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stickerlandia/print-service/api/controllers"
	"github.com/stickerlandia/print-service/api/middleware"
	"github.com/stickerlandia/print-service/internal/printers"
	"github.com/stickerlandia/print-service/internal/printjobs"
	"github.com/stickerlandia/print-service/pkg/config"
	"github.com/stickerlandia/print-service/pkg/db"
	"github.com/stickerlandia/print-service/pkg/logger"
	"github.com/stickerlandia/print-service/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	printersService printers.Service,
	printersRepo printers.Repository,
	jobsService printjobs.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadyDeps(dbP, redisClient)))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.Idempotency(redisClient, logg)).
			Post("/printers", controllers.RegisterPrinter(printersService, logg))

		r.Route("/events/{eventName}", func(r chi.Router) {
			r.Delete("/", controllers.DeleteEventPrinters(printersService, logg))
			r.Get("/printers/status", controllers.PrinterStatuses(printersService, logg))
			r.Route("/printers/{printerName}", func(r chi.Router) {
				r.Delete("/", controllers.DeletePrinter(printersService, logg))
				r.With(middleware.Idempotency(redisClient, logg)).
					Post("/print-jobs", controllers.SubmitPrintJob(jobsService, printersRepo, logg))
			})
		})

		r.Route("/print-jobs", func(r chi.Router) {
			r.Use(middleware.PrinterKey(printersService, logg))
			r.Get("/", controllers.PollPrintJobs(jobsService, printersService, cfg.Printer.MaxClaimJobs, logg))
			r.Post("/{printJobId}/ack", controllers.AcknowledgePrintJob(jobsService, logg))
		})
	})

	return r
}
