// Package api binds the booking engine to HTTP/JSON.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"clinicbook/internal/availability"
	"clinicbook/internal/booking"
	"clinicbook/internal/database"
	"clinicbook/internal/errs"
)

// Server holds the handler dependencies.
type Server struct {
	db       *database.DB
	resolver *availability.Resolver
	bookings *booking.Service
	logger   *zerolog.Logger
}

// NewServer creates the API server.
func NewServer(db *database.DB, resolver *availability.Resolver, bookings *booking.Service, logger *zerolog.Logger) *Server {
	return &Server{db: db, resolver: resolver, bookings: bookings, logger: logger}
}

// Router builds the chi router with all routes configured.
func (s *Server) Router(allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/test", s.handleTest)

		r.Route("/doctors", func(r chi.Router) {
			r.Get("/", s.handleListDoctors)
			r.Post("/", s.handleAddDoctor)
			r.Put("/{id}", s.handleUpdateDoctor)
			r.Get("/{id}/availability", s.handleGetAvailability)
			r.Post("/{id}/availability", s.handleReplaceAvailability)
			r.Get("/{id}/blocked-dates", s.handleListBlockedDates)
			r.Post("/{id}/blocked-dates", s.handleAddBlockedDate)
			r.Delete("/{id}/blocked-dates/{date}", s.handleRemoveBlockedDate)
			r.Get("/{id}/slots/{date}", s.handleGetSlots)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", s.handleListBookings)
			r.Post("/", s.handleCreateBooking)
			r.Get("/export", s.handleExportBookings)
			r.Put("/{id}", s.handleUpdateBooking)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Store errors
// are logged with full context but surfaced as a generic failure.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errs.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errs.IsConflict(err):
		writeError(w, http.StatusConflict, "This time slot is already booked. Please choose a different time.")
	case errs.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
