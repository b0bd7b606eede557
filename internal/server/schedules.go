package server

import (
	"net/http"
	"time"

	"carelink/internal/booking"
	"carelink/pkg/types"

	"github.com/alexedwards/flow"
)

type scheduleQuery struct {
	From       string `form:"from"`
	To         string `form:"to"`
	ActiveOnly bool   `form:"active_only"`
}

type createScheduleRequest struct {
	Date        string `json:"date" validate:"required"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	MaxCapacity int    `json:"max_capacity" validate:"required,min=1"`
	IsActive    *bool  `json:"is_active"`
}

type updateScheduleRequest struct {
	Date        *string `json:"date"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	MaxCapacity *int    `json:"max_capacity" validate:"omitempty,min=1"`
	IsActive    *bool   `json:"is_active"`
}

func (q scheduleQuery) filter() (types.ScheduleFilter, error) {
	filter := types.ScheduleFilter{ActiveOnly: q.ActiveOnly}
	for _, bound := range []struct {
		raw string
		dst **time.Time
	}{
		{q.From, &filter.From},
		{q.To, &filter.To},
	} {
		if bound.raw == "" {
			continue
		}
		date, err := booking.ParseDate(bound.raw)
		if err != nil {
			return filter, err
		}
		*bound.dst = &date
	}
	return filter, nil
}

func (s *Service) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	var query scheduleQuery
	if err := decodeQuery(r, &query); err != nil {
		s.writeError(w, r, err)
		return
	}

	filter, err := query.filter()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	schedules, err := s.booking.Schedules(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, schedules)
}

func (s *Service) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := s.booking.Schedule(r.Context(), flow.Param(r.Context(), "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, schedule)
}

func (s *Service) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	schedule, err := s.booking.CreateSchedule(r.Context(), booking.CreateScheduleInput{
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MaxCapacity: req.MaxCapacity,
		IsActive:    req.IsActive,
	}, s.currentIdentity(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, schedule)
}

func (s *Service) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req updateScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	schedule, err := s.booking.UpdateSchedule(r.Context(), flow.Param(r.Context(), "id"), booking.UpdateScheduleInput{
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MaxCapacity: req.MaxCapacity,
		IsActive:    req.IsActive,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, schedule)
}

func (s *Service) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.booking.DeleteSchedule(r.Context(), flow.Param(r.Context(), "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		s.writeError(w, r, types.NewValidation("date is required"))
		return
	}

	summary, err := s.booking.DailySummary(r.Context(), date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}
