package server

import (
	"net/http"

	"carelink/internal/booking"
	"carelink/pkg/types"

	"github.com/alexedwards/flow"
)

type appointmentQuery struct {
	Status string `form:"status"`
	Date   string `form:"date"`
	UserID string `form:"user_id"`
}

type bookRequest struct {
	ScheduleID  string `json:"schedule_id" validate:"required"`
	NumVisitors int    `json:"num_visitors" validate:"required,min=1"`
	Purpose     string `json:"purpose" validate:"max=500"`
}

type reviewRequest struct {
	Status     string `json:"status" validate:"required,oneof=approved rejected"`
	AdminNotes string `json:"admin_notes" validate:"max=1000"`
}

func (s *Service) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	var query appointmentQuery
	if err := decodeQuery(r, &query); err != nil {
		s.writeError(w, r, err)
		return
	}

	filter := types.AppointmentFilter{
		UserID: query.UserID,
		Status: types.AppointmentStatus(query.Status),
	}
	if query.Date != "" {
		date, err := booking.ParseDate(query.Date)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		filter.Date = &date
	}

	list, err := s.booking.Appointments(r.Context(), s.currentIdentity(r), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Service) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	appointment, err := s.booking.Appointment(r.Context(), s.currentIdentity(r), flow.Param(r.Context(), "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, appointment)
}

func (s *Service) handleBookAppointment(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	appointment, err := s.booking.Book(r.Context(), s.currentIdentity(r).UserID, booking.BookInput{
		ScheduleID:  req.ScheduleID,
		NumVisitors: req.NumVisitors,
		Purpose:     req.Purpose,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, appointment)
}

func (s *Service) handleReviewAppointment(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	appointment, err := s.booking.UpdateStatus(r.Context(), flow.Param(r.Context(), "id"), booking.ReviewInput{
		Status:     types.AppointmentStatus(req.Status),
		AdminNotes: req.AdminNotes,
	}, s.currentIdentity(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, appointment)
}

// handleCancelAppointment lets owners cancel their own bookings. Admins take
// the privileged path and may cancel any booking.
func (s *Service) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	identity := s.currentIdentity(r)
	id := flow.Param(r.Context(), "id")

	var (
		appointment *types.Appointment
		err         error
	)
	if identity.IsAdmin() {
		appointment, err = s.booking.AdminCancel(r.Context(), id)
	} else {
		appointment, err = s.booking.Cancel(r.Context(), id, identity.UserID)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, appointment)
}
