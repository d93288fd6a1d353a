package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/tennis-court-reservations/internal/auth"
	"github.com/robertarktes/tennis-court-reservations/internal/idempotency"
	"github.com/robertarktes/tennis-court-reservations/internal/observability"
	"github.com/robertarktes/tennis-court-reservations/internal/rateLimit"
)

func SetupRouter(h *Handlers, logger observability.Logger, tokens *auth.TokenManager, rl *rateLimit.RateLimiter, idemp *idempotency.Idempotency) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)

	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// Unauthenticated, rate limited by IP.
	r.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware(rl))
		r.Post("/v1/auth/register", h.Register)
		r.Post("/v1/auth/login", h.Login)
	})

	// Authenticated surface.
	r.Group(func(r chi.Router) {
		r.Use(JWTMiddleware(tokens))
		r.Use(RateLimitMiddleware(rl))

		r.Get("/v1/courts", h.ListCourts)
		r.Get("/v1/courts/{id}", h.GetCourt)
		r.Get("/v1/courts/{id}/availability", h.CheckAvailability)
		r.Get("/v1/courts/{id}/reservations", h.ListCourtReservations)

		r.Group(func(r chi.Router) {
			r.Use(IdempotencyMiddleware(idemp))
			r.Post("/v1/reservations", h.CreateReservation)
		})
		r.Get("/v1/reservations", h.ListReservations)
		r.Get("/v1/reservations/{id}", h.GetReservation)
		r.Put("/v1/reservations/{id}", h.UpdateReservation)
		r.Post("/v1/reservations/{id}/cancel", h.CancelReservation)
		r.Delete("/v1/reservations/{id}", h.DeleteReservation)

		r.Get("/v1/users/{id}", h.GetUser)
		r.Put("/v1/users/{id}", h.UpdateUser)

		// Admin surface.
		r.Group(func(r chi.Router) {
			r.Use(AdminOnly)
			r.Post("/v1/courts", h.CreateCourt)
			r.Put("/v1/courts/{id}", h.UpdateCourt)
			r.Delete("/v1/courts/{id}", h.DeleteCourt)
			r.Post("/v1/reservations/{id}/complete", h.CompleteReservation)
			r.Get("/v1/users", h.ListUsers)
			r.Delete("/v1/users/{id}", h.DeleteUser)
			r.Get("/v1/users/{id}/audit", h.UserAuditTrail)
			r.Get("/v1/stats", h.GetStats)
		})
	})

	return r
}
