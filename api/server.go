/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from proxy headers (TrustProxy only)
  3. Logger:     zerolog request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. Metrics:    Prometheus request counter and latency histogram
  6. CORS:       Cross-origin requests for the front-desk UI
  7. RateLimit:  Token bucket per client IP (429)

ROUTE GROUPS:
  /healthz               Liveness and database ping (public)
  /api/reservations/*    Reservation lifecycle and ledger
  /api/cash-drawer/*     Drawer sessions
  /api/rooms/*           Availability; status and relocation (admins only)
  /api/room-types/*      Room type catalog
  /api/concepts          Charge concept catalog
  /api/scenarios/*       Demo scenarios (public, not mounted in prod)

  Everything under /api except scenarios requires a bearer token.
  Metrics are served on their own listener (see cmd/server).

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Authenticate and RequireRole
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions carries the per-deployment middleware settings.
type RouterOptions struct {
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	// TrustProxy rewrites RemoteAddr from X-Forwarded-For/X-Real-IP. Leave
	// it off unless a proxy that sets those headers fronts every request.
	TrustProxy bool
	// Scenarios mounts the demo scenario routes.
	Scenarios bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(Logger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		if opts.Scenarios {
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
				r.Post("/reset", h.ResetDatabase)
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Authenticate)

			// Reservation routes
			r.Route("/reservations", func(r chi.Router) {
				r.Get("/", h.ListReservations)
				r.Post("/", h.CreateReservation)
				r.Get("/{id}", h.GetReservation)
				r.Put("/{id}", h.UpdateReservation)
				r.Post("/{id}/checkin", h.CheckIn)
				r.Post("/{id}/checkout", h.CheckOut)
				r.Put("/{id}/cancel", h.Cancel)
				r.Get("/{id}/movements", h.ListMovements)
				r.Post("/{id}/movements", h.RecordMovement)
			})

			// Cash drawer routes
			r.Route("/cash-drawer", func(r chi.Router) {
				r.Get("/", h.ListDrawerSessions)
				r.Post("/open", h.OpenDrawer)
				r.Get("/open", h.CurrentDrawer)
				r.Get("/preview", h.PreviewDrawer)
				r.Post("/close", h.CloseDrawer)
				r.Get("/{id}", h.GetDrawerSession)
			})

			// Room routes
			r.Route("/rooms", func(r chi.Router) {
				r.Get("/available", h.AvailableRooms)
				r.Get("/{id}/availability", h.RoomAvailability)
				r.Group(func(r chi.Router) {
					r.Use(RequireRole(RoleHotelAdmin, RoleChainAdmin))
					r.Put("/{id}/status", h.SetRoomStatus)
					r.Put("/{id}/relocate", h.RelocateRoom)
				})
			})

			// Catalog routes
			r.Get("/room-types", h.ListRoomTypes)
			r.Get("/room-types/{id}", h.GetRoomType)
			r.Get("/concepts", h.ListConcepts)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Not found"})
	})

	return r
}

// Health pings the database.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.Log.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "driver": h.Store.Driver()})
}
