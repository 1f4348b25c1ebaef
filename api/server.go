/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the calendar frontend

ROUTE GROUPS:
  /api/users/*        Roster and per-user calendar board
  /api/rooms          Room list
  /api/staff/*        Staff
  /api/attendance/*   Dialog save, quick toggle, delete
  /api/overnight/*    Reservations and room availability
  /api/visits/*       Home-visit appointments
  /api/summary        Daily summary rows for a month
  /api/import         Weekly-plan import pipeline

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.RegisterUser)
			r.Get("/{id}", h.GetUser)
			r.Delete("/{id}", h.DeleteUser)
			r.Get("/{id}/board", h.GetBoard)
		})

		r.Get("/rooms", h.ListRooms)

		r.Route("/staff", func(r chi.Router) {
			r.Get("/", h.ListStaff)
			r.Post("/", h.CreateStaff)
			r.Delete("/{id}", h.DeleteStaff)
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Post("/", h.SaveAttendance)
			r.Post("/toggle", h.ToggleAttendance)
			r.Delete("/{userId}/{date}", h.DeleteAttendance)
		})

		r.Route("/overnight", func(r chi.Router) {
			r.Get("/", h.ListReservations)
			r.Post("/", h.SaveReservation)
			r.Delete("/{id}", h.DeleteReservation)
			r.Get("/availability", h.RoomAvailability)
		})

		r.Route("/visits", func(r chi.Router) {
			r.Get("/", h.ListVisits)
			r.Post("/", h.SaveVisit)
			r.Delete("/{id}", h.DeleteVisit)
		})

		r.Get("/summary", h.GetSummary)
		r.Post("/import", h.ImportPlan)
	})

	return r
}
