package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/gatherly/event-service/internal/config"
	"github.com/gatherly/event-service/internal/transport/http/handlers"
	authmw "github.com/gatherly/event-service/internal/transport/http/middleware"
)

func New(
	h *handlers.EventsHandler,
	auth *authmw.AuthMiddleware,
	z *handlers.HealthHandler,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	r.Use(authmw.RequestID)
	r.Use(authmw.SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(authmw.AccessLog)

	if cfg.RLEnabled {
		r.Use(httprate.LimitByIP(cfg.RLLimit, cfg.RLWindow))
	}

	r.Get("/healthz", z.Healthz)

	r.Route("/event/v1", func(r chi.Router) {
		// Read paths take an optional token: members see private events and
		// join codes, everyone else sees the public surface.
		r.Group(func(r chi.Router) {
			r.Use(auth.Optional)
			r.Get("/events", h.ListPublic)
			r.Get("/events/{event_id}", h.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Require)
			r.Post("/events", h.Create)
			r.Patch("/events/{event_id}", h.Update)
			r.Delete("/events/{event_id}", h.Delete)
			r.Post("/events/join", h.Join)
			r.Get("/events/{event_id}/members", h.Members)
			r.Get("/organizer/events", h.ListMine)
		})
	})

	return r
}
