package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"clinicbook/internal/availability"
	"clinicbook/internal/booking"
	"clinicbook/internal/database"
	"clinicbook/internal/export"
	"clinicbook/internal/metrics"
)

// handleTest is a liveness ping.
// GET /api/test
func (s *Server) handleTest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": "clinicbook is running"})
}

// handleListDoctors returns the active roster.
// GET /api/doctors
func (s *Server) handleListDoctors(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_doctors")

	doctors, err := s.db.ListActiveDoctors(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "doctors": doctors})
}

type doctorRequest struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Contact    string `json:"contact"`
	IsActive   *bool  `json:"is_active"`
}

// handleAddDoctor adds a doctor to the roster.
// POST /api/doctors
func (s *Server) handleAddDoctor(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("add_doctor")

	var req doctorRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Department == "" {
		writeError(w, http.StatusBadRequest, "name and department are required")
		return
	}

	id, err := s.db.CreateDoctor(r.Context(), req.Name, req.Department, req.Contact)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "doctorId": id})
}

// handleUpdateDoctor updates roster fields for a doctor.
// PUT /api/doctors/{id}
func (s *Server) handleUpdateDoctor(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("update_doctor")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req doctorRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Department == "" {
		writeError(w, http.StatusBadRequest, "name and department are required")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	found, err := s.db.UpdateDoctor(r.Context(), id, req.Name, req.Department, req.Contact, isActive)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("doctor %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleGetAvailability returns a doctor's active weekly rules.
// GET /api/doctors/{id}/availability
func (s *Server) handleGetAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_availability")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !s.requireDoctor(w, r, id) {
		return
	}

	rules, err := s.db.GetActiveRules(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "availability": rules})
}

// handleReplaceAvailability swaps a doctor's whole weekly schedule.
// POST /api/doctors/{id}/availability
func (s *Server) handleReplaceAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("replace_availability")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !s.requireDoctor(w, r, id) {
		return
	}

	var req struct {
		Availability []database.RuleInput `json:"availability"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.db.ReplaceRules(r.Context(), id, req.Availability); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleListBlockedDates returns a doctor's blocked dates.
// GET /api/doctors/{id}/blocked-dates
func (s *Server) handleListBlockedDates(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_blocked_dates")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !s.requireDoctor(w, r, id) {
		return
	}

	blocked, err := s.db.ListBlockedDates(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "blockedDates": blocked})
}

// handleAddBlockedDate blocks one calendar date for a doctor.
// POST /api/doctors/{id}/blocked-dates
func (s *Server) handleAddBlockedDate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("add_blocked_date")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !s.requireDoctor(w, r, id) {
		return
	}

	var req struct {
		Date   string `json:"date"`
		Reason string `json:"reason"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, err := availability.ParseDate(req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}

	if err := s.db.AddBlockedDate(r.Context(), id, req.Date, req.Reason); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleRemoveBlockedDate unblocks a date.
// DELETE /api/doctors/{id}/blocked-dates/{date}
func (s *Server) handleRemoveBlockedDate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("remove_blocked_date")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	date := chi.URLParam(r, "date")
	if _, err := availability.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}

	if err := s.db.RemoveBlockedDate(r.Context(), id, date); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleGetSlots returns the bookable slots for a doctor on a date.
// GET /api/doctors/{id}/slots/{date}
func (s *Server) handleGetSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_slots")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	date := chi.URLParam(r, "date")
	if _, err := availability.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}
	if !s.requireDoctor(w, r, id) {
		return
	}

	available, err := s.resolver.ResolveAvailableSlots(r.Context(), id, date)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if available == nil {
		available = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "availableSlots": available})
}

// handleCreateBooking books one slot.
// POST /api/bookings
func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")

	var req booking.Request
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	b, err := s.bookings.CreateBooking(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":          true,
		"bookingId":        b.ID,
		"bookingReference": b.BookingReference,
		"appointmentTime":  b.AppointmentTime,
		"message":          "Appointment booked successfully!",
	})
}

// handleListBookings lists bookings joined with doctor details.
// GET /api/bookings?status=&date=&doctorId=&search=
func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_bookings")

	filter, err := bookingFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := s.db.ListBookings(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "bookings": bookings})
}

// handleUpdateBooking changes a booking's status or notes.
// PUT /api/bookings/{id}
func (s *Server) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("update_booking")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Status string  `json:"status"`
		Notes  *string `json:"notes"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.bookings.UpdateBooking(r.Context(), id, booking.Update{Status: req.Status, Notes: req.Notes}); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleExportBookings streams an xlsx report of the filtered bookings.
// GET /api/bookings/export?status=&date=&doctorId=&search=
func (s *Server) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export_bookings")

	filter, err := bookingFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := s.db.ListBookings(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	filename := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.WriteBookings(w, bookings); err != nil {
		s.logger.Error().Err(err).Msg("export failed")
	}
}

func bookingFilterFromQuery(r *http.Request) (database.BookingFilter, error) {
	q := r.URL.Query()
	filter := database.BookingFilter{
		Status: q.Get("status"),
		Date:   q.Get("date"),
		Search: q.Get("search"),
	}
	if raw := q.Get("doctorId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid doctorId")
		}
		filter.DoctorID = id
	}
	return filter, nil
}

func decodeBody(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}

// requireDoctor answers 404 when the doctor id is unknown.
func (s *Server) requireDoctor(w http.ResponseWriter, r *http.Request, id int64) bool {
	doctor, err := s.db.GetDoctor(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return false
	}
	if doctor == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("doctor %d not found", id))
		return false
	}
	return true
}
