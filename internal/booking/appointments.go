package booking

import (
	"context"
	"strings"

	"carelink/pkg/types"

	"github.com/sirupsen/logrus"
)

type BookInput struct {
	ScheduleID  string
	NumVisitors int
	Purpose     string
}

// Book reserves numVisitors spots in a slot for userID. The capacity check,
// the appointment insert and the booking increment commit as one unit, and
// the increment itself only applies while the slot still has room, so
// concurrent bookings can never push a slot over capacity.
func (s *Service) Book(ctx context.Context, userID string, input BookInput) (appointment *types.Appointment, err error) {
	defer func() { s.metrics.IncBooking(outcome(err)) }()

	if input.NumVisitors < 1 {
		return nil, types.NewValidation("num_visitors must be at least 1")
	}

	err = s.tx.InTx(ctx, func(repo Repository) error {
		schedule, err := repo.Schedule(ctx, input.ScheduleID)
		if err != nil {
			return err
		}
		if !schedule.IsActive {
			return types.NewConflict("This slot is no longer available")
		}
		if schedule.Date.Format(types.DateLayout) < s.today() {
			return types.NewValidation("Cannot book a past date")
		}
		if available := schedule.Available(); available < input.NumVisitors {
			return capacityConflict(available)
		}

		exists, err := repo.ActiveAppointmentExists(ctx, userID, schedule.ID)
		if err != nil {
			return err
		}
		if exists {
			return types.NewConflict("You already have a booking for this slot")
		}

		created := &types.Appointment{
			UserID:      userID,
			ScheduleID:  schedule.ID,
			NumVisitors: input.NumVisitors,
		}
		if purpose := strings.TrimSpace(input.Purpose); purpose != "" {
			created.Purpose = &purpose
		}
		if err := repo.CreateAppointment(ctx, created); err != nil {
			return err
		}

		applied, err := repo.AdjustBookings(ctx, schedule.ID, input.NumVisitors)
		if err != nil {
			return err
		}
		if !applied {
			// Another booking took the remaining spots after the read above.
			current, err := repo.Schedule(ctx, schedule.ID)
			if err != nil {
				return err
			}
			if !current.IsActive {
				return types.NewConflict("This slot is no longer available")
			}
			return capacityConflict(current.Available())
		}

		appointment = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"appointment_id": appointment.ID,
		"schedule_id":    appointment.ScheduleID,
		"user_id":        userID,
		"num_visitors":   appointment.NumVisitors,
	}).Info("appointment booked")

	return appointment, nil
}

func capacityConflict(available int) error {
	return types.NewConflict("Only %d spots available in this slot", available).
		WithDetails(map[string]int{"available": available})
}

type ReviewInput struct {
	Status     types.AppointmentStatus
	AdminNotes string
}

// UpdateStatus records an admin decision on a pending appointment. Rejecting
// releases the visitors' spots; approving keeps them.
func (s *Service) UpdateStatus(ctx context.Context, appointmentID string, input ReviewInput, reviewerID string) (*types.Appointment, error) {
	if input.Status != types.AppointmentStatusApproved && input.Status != types.AppointmentStatusRejected {
		return nil, types.NewValidation("status must be %q or %q", types.AppointmentStatusApproved, types.AppointmentStatusRejected)
	}

	var reviewed *types.Appointment
	err := s.tx.InTx(ctx, func(repo Repository) error {
		current, err := repo.AppointmentForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if current.Status != types.AppointmentStatusPending {
			return types.NewConflict("appointment is already %s", current.Status)
		}

		reviewed, err = repo.ReviewAppointment(ctx, appointmentID, input.Status, strings.TrimSpace(input.AdminNotes), reviewerID)
		if err != nil {
			return err
		}

		if input.Status == types.AppointmentStatusRejected {
			return s.release(ctx, repo, current)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"appointment_id": appointmentID,
		"status":         input.Status,
		"user_id":        reviewerID,
	}).Info("appointment reviewed")

	return reviewed, nil
}

// Cancel lets the owner withdraw their appointment.
func (s *Service) Cancel(ctx context.Context, appointmentID, userID string) (*types.Appointment, error) {
	return s.cancel(ctx, appointmentID, func(appointment *types.Appointment) error {
		if appointment.UserID != userID {
			return types.NewForbidden("only the owner can cancel this appointment")
		}
		return nil
	})
}

// AdminCancel cancels any appointment on behalf of the organisation.
func (s *Service) AdminCancel(ctx context.Context, appointmentID string) (*types.Appointment, error) {
	return s.cancel(ctx, appointmentID, nil)
}

func (s *Service) cancel(ctx context.Context, appointmentID string, authorize func(*types.Appointment) error) (*types.Appointment, error) {
	var cancelled *types.Appointment
	err := s.tx.InTx(ctx, func(repo Repository) error {
		current, err := repo.AppointmentForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if authorize != nil {
			if err := authorize(current); err != nil {
				return err
			}
		}

		switch current.Status {
		case types.AppointmentStatusCancelled:
			return types.NewConflict("appointment is already cancelled")
		case types.AppointmentStatusRejected:
			return types.NewConflict("a rejected appointment cannot be cancelled")
		}

		cancelled, err = repo.SetAppointmentStatus(ctx, appointmentID, types.AppointmentStatusCancelled)
		if err != nil {
			return err
		}

		if current.Status.HoldsCapacity() {
			return s.release(ctx, repo, current)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"appointment_id": appointmentID,
		"schedule_id":    cancelled.ScheduleID,
	}).Info("appointment cancelled")

	return cancelled, nil
}

// release returns the appointment's visitors to its slot, floored at zero.
func (s *Service) release(ctx context.Context, repo Repository, appointment *types.Appointment) error {
	_, err := repo.AdjustBookings(ctx, appointment.ScheduleID, -appointment.NumVisitors)
	return err
}

// Appointment returns the appointment when identity owns it or is an admin.
func (s *Service) Appointment(ctx context.Context, identity types.Identity, appointmentID string) (*types.Appointment, error) {
	appointment, err := s.repo.Appointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !identity.IsAdmin() && appointment.UserID != identity.UserID {
		return nil, types.NewForbidden("appointment belongs to another user")
	}
	return appointment, nil
}

func (s *Service) Appointments(ctx context.Context, identity types.Identity, filter types.AppointmentFilter) ([]*types.Appointment, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, types.NewValidation("unknown appointment status %q", filter.Status)
	}
	if !identity.IsAdmin() {
		filter.UserID = identity.UserID
	}
	return s.repo.Appointments(ctx, filter)
}
