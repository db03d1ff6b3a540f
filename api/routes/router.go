package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orchestraops/planning-service/api/controllers"
	"github.com/orchestraops/planning-service/api/middleware"
	concertsvc "github.com/orchestraops/planning-service/internal/concerts"
	rehearsalsvc "github.com/orchestraops/planning-service/internal/rehearsals"
	"github.com/orchestraops/planning-service/pkg/config"
	"github.com/orchestraops/planning-service/pkg/logger"
)

// Deps carries everything the HTTP surface needs. Nil readiness pingers are
// skipped by the probe.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB     controllers.Pinger
	PubSub controllers.Pinger

	Concerts   concertsvc.Service
	Rehearsals rehearsalsvc.Service
	DLQ        controllers.DLQLister
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.CorrelationID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":     deps.DB,
			"pubsub": deps.PubSub,
		}))
	})

	r.Route("/api/v1/concerts", func(r chi.Router) {
		r.Post("/", controllers.CreateConcert(deps.Concerts, logg))
		r.Get("/", controllers.ListConcerts(deps.Concerts, logg))
		r.Get("/{id}", controllers.GetConcert(deps.Concerts, logg))
		r.Put("/{id}", controllers.UpdateConcert(deps.Concerts, logg))
		r.Delete("/{id}", controllers.DeleteConcert(deps.Concerts, logg))
	})

	r.Route("/api/v1/rehearsals", func(r chi.Router) {
		r.Post("/", controllers.CreateRehearsal(deps.Rehearsals, logg))
		r.Get("/", controllers.ListRehearsals(deps.Rehearsals, logg))
		r.Get("/{id}", controllers.GetRehearsal(deps.Rehearsals, logg))
		r.Put("/{id}", controllers.UpdateRehearsal(deps.Rehearsals, logg))
		r.Delete("/{id}", controllers.DeleteRehearsal(deps.Rehearsals, logg))
	})

	r.Route("/api/v1/outbox", func(r chi.Router) {
		r.Get("/dlq", controllers.ListOutboxDLQ(deps.DLQ, logg))
	})

	return r
}
