package booking

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"carelink/internal/utils"
	"carelink/pkg/types"

	"github.com/sirupsen/logrus"
)

type fakeState struct {
	schedules    map[string]types.VisitingSchedule
	appointments map[string]types.Appointment
}

func (s *fakeState) clone() *fakeState {
	out := &fakeState{
		schedules:    make(map[string]types.VisitingSchedule, len(s.schedules)),
		appointments: make(map[string]types.Appointment, len(s.appointments)),
	}
	for k, v := range s.schedules {
		out.schedules[k] = v
	}
	for k, v := range s.appointments {
		out.appointments[k] = v
	}
	return out
}

// fakeRepo is an in-memory Repository and Transactor. Transactions are
// serialised and restore a snapshot when fn fails. Its conditional updates
// mirror the SQL guards in the store package.
type fakeRepo struct {
	mu    sync.Mutex
	state *fakeState

	// beforeIncrement runs ahead of a positive AdjustBookings so tests can
	// simulate a booking committed by another transaction in between.
	beforeIncrement func(state *fakeState, scheduleID string)
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{state: &fakeState{
		schedules:    make(map[string]types.VisitingSchedule),
		appointments: make(map[string]types.Appointment),
	}}
}

func (f *fakeRepo) InTx(ctx context.Context, fn func(repo Repository) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := f.state.clone()
	if err := fn(f); err != nil {
		f.state = snapshot
		return err
	}
	return nil
}

func (f *fakeRepo) addSchedule(date string, capacity, booked int) types.VisitingSchedule {
	day, err := time.Parse(types.DateLayout, date)
	if err != nil {
		panic(err)
	}
	schedule := types.VisitingSchedule{
		ID:              utils.NanoID(),
		Date:            day,
		StartTime:       "10:00",
		EndTime:         "12:00",
		MaxCapacity:     capacity,
		CurrentBookings: booked,
		IsActive:        true,
	}
	f.state.schedules[schedule.ID] = schedule
	return schedule
}

func (f *fakeRepo) Schedule(ctx context.Context, scheduleID string) (*types.VisitingSchedule, error) {
	s, ok := f.state.schedules[scheduleID]
	if !ok {
		return nil, types.ErrScheduleNotFound
	}
	return &s, nil
}

func (f *fakeRepo) Schedules(ctx context.Context, filter types.ScheduleFilter) ([]*types.VisitingSchedule, error) {
	out := make([]*types.VisitingSchedule, 0)
	for _, s := range f.state.schedules {
		if filter.From != nil && s.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && s.Date.After(*filter.To) {
			continue
		}
		if filter.ActiveOnly && !s.IsActive {
			continue
		}
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (f *fakeRepo) SchedulesOn(ctx context.Context, date time.Time) ([]*types.VisitingSchedule, error) {
	return f.Schedules(ctx, types.ScheduleFilter{From: &date, To: &date})
}

func (f *fakeRepo) CreateSchedule(ctx context.Context, schedule *types.VisitingSchedule) error {
	schedule.ID = utils.NanoID()
	schedule.CurrentBookings = 0
	f.state.schedules[schedule.ID] = *schedule
	return nil
}

func (f *fakeRepo) UpdateSchedule(ctx context.Context, schedule *types.VisitingSchedule) (*types.VisitingSchedule, error) {
	current, ok := f.state.schedules[schedule.ID]
	if !ok || current.CurrentBookings > schedule.MaxCapacity {
		return nil, nil
	}
	schedule.CurrentBookings = current.CurrentBookings
	f.state.schedules[schedule.ID] = *schedule
	updated := *schedule
	return &updated, nil
}

func (f *fakeRepo) DeleteSchedule(ctx context.Context, scheduleID string) error {
	if _, ok := f.state.schedules[scheduleID]; !ok {
		return types.ErrScheduleNotFound
	}
	delete(f.state.schedules, scheduleID)
	for id, a := range f.state.appointments {
		if a.ScheduleID == scheduleID {
			delete(f.state.appointments, id)
		}
	}
	return nil
}

func (f *fakeRepo) AdjustBookings(ctx context.Context, scheduleID string, delta int) (bool, error) {
	if delta > 0 && f.beforeIncrement != nil {
		f.beforeIncrement(f.state, scheduleID)
	}

	s, ok := f.state.schedules[scheduleID]
	if !ok {
		return false, nil
	}
	if delta > 0 {
		if !s.IsActive || s.CurrentBookings+delta > s.MaxCapacity {
			return false, nil
		}
		s.CurrentBookings += delta
	} else {
		s.CurrentBookings = max(0, s.CurrentBookings+delta)
	}
	f.state.schedules[scheduleID] = s
	return true, nil
}

func (f *fakeRepo) Appointment(ctx context.Context, appointmentID string) (*types.Appointment, error) {
	a, ok := f.state.appointments[appointmentID]
	if !ok {
		return nil, types.ErrAppointmentNotFound
	}
	return &a, nil
}

func (f *fakeRepo) AppointmentForUpdate(ctx context.Context, appointmentID string) (*types.Appointment, error) {
	return f.Appointment(ctx, appointmentID)
}

func (f *fakeRepo) Appointments(ctx context.Context, filter types.AppointmentFilter) ([]*types.Appointment, error) {
	out := make([]*types.Appointment, 0)
	for _, a := range f.state.appointments {
		if filter.UserID != "" && a.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Date != nil && !f.state.schedules[a.ScheduleID].Date.Equal(*filter.Date) {
			continue
		}
		a := a
		out = append(out, &a)
	}
	return out, nil
}

func (f *fakeRepo) ActiveAppointmentExists(ctx context.Context, userID, scheduleID string) (bool, error) {
	for _, a := range f.state.appointments {
		if a.UserID == userID && a.ScheduleID == scheduleID && a.Status != types.AppointmentStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CreateAppointment(ctx context.Context, appointment *types.Appointment) error {
	exists, _ := f.ActiveAppointmentExists(ctx, appointment.UserID, appointment.ScheduleID)
	if exists {
		return types.NewConflict("You already have a booking for this slot")
	}
	appointment.ID = utils.NanoID()
	appointment.Status = types.AppointmentStatusPending
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt
	f.state.appointments[appointment.ID] = *appointment
	return nil
}

func (f *fakeRepo) ReviewAppointment(ctx context.Context, appointmentID string, status types.AppointmentStatus, adminNotes, reviewedBy string) (*types.Appointment, error) {
	a, ok := f.state.appointments[appointmentID]
	if !ok {
		return nil, types.ErrAppointmentNotFound
	}
	now := time.Now()
	a.Status = status
	if adminNotes != "" {
		a.AdminNotes = &adminNotes
	}
	a.ReviewedBy = &reviewedBy
	a.ReviewedAt = &now
	f.state.appointments[appointmentID] = a
	return &a, nil
}

func (f *fakeRepo) SetAppointmentStatus(ctx context.Context, appointmentID string, status types.AppointmentStatus) (*types.Appointment, error) {
	a, ok := f.state.appointments[appointmentID]
	if !ok {
		return nil, types.ErrAppointmentNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	f.state.appointments[appointmentID] = a
	return &a, nil
}

func (f *fakeRepo) bookings(scheduleID string) int {
	return f.state.schedules[scheduleID].CurrentBookings
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
