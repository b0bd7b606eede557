package booking

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"carelink/pkg/types"

	"github.com/sirupsen/logrus"
)

// clockPattern matches the zero-padded HH:MM form the schedules table stores.
var clockPattern = regexp.MustCompile(`^[0-2][0-9]:[0-5][0-9]$`)

type CreateScheduleInput struct {
	Date        string
	StartTime   string
	EndTime     string
	MaxCapacity int
	IsActive    *bool
}

type UpdateScheduleInput struct {
	Date        *string
	StartTime   *string
	EndTime     *string
	MaxCapacity *int
	IsActive    *bool
}

func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(types.DateLayout, value)
	if err != nil {
		return time.Time{}, types.NewValidation("date %q must be formatted as YYYY-MM-DD", value)
	}
	return date, nil
}

func parseClock(value string) (time.Time, error) {
	if !clockPattern.MatchString(value) {
		return time.Time{}, fmt.Errorf("clock %q is not zero-padded HH:MM", value)
	}
	return time.Parse(clockLayout, value)
}

func validateSlot(schedule *types.VisitingSchedule) error {
	start, err := parseClock(schedule.StartTime)
	if err != nil {
		return types.NewValidation("start_time %q must be formatted as HH:MM", schedule.StartTime)
	}
	end, err := parseClock(schedule.EndTime)
	if err != nil {
		return types.NewValidation("end_time %q must be formatted as HH:MM", schedule.EndTime)
	}
	if !end.After(start) {
		return types.NewValidation("end_time must be after start_time")
	}
	if schedule.MaxCapacity < 1 {
		return types.NewValidation("max_capacity must be at least 1")
	}
	return nil
}

func (s *Service) CreateSchedule(ctx context.Context, input CreateScheduleInput, actorID string) (*types.VisitingSchedule, error) {
	date, err := ParseDate(input.Date)
	if err != nil {
		return nil, err
	}

	schedule := &types.VisitingSchedule{
		Date:        date,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		MaxCapacity: input.MaxCapacity,
		IsActive:    input.IsActive == nil || *input.IsActive,
	}
	if actorID != "" {
		schedule.CreatedBy = &actorID
	}
	if err := validateSlot(schedule); err != nil {
		return nil, err
	}

	if err := s.repo.CreateSchedule(ctx, schedule); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"schedule_id": schedule.ID,
		"date":        input.Date,
	}).Info("visiting schedule created")

	return schedule, nil
}

// UpdateSchedule applies a partial change. Capacity can never drop below the
// visitors already booked into the slot.
func (s *Service) UpdateSchedule(ctx context.Context, scheduleID string, input UpdateScheduleInput) (*types.VisitingSchedule, error) {
	var updated *types.VisitingSchedule
	err := s.tx.InTx(ctx, func(repo Repository) error {
		schedule, err := repo.Schedule(ctx, scheduleID)
		if err != nil {
			return err
		}

		if input.Date != nil {
			date, err := ParseDate(*input.Date)
			if err != nil {
				return err
			}
			schedule.Date = date
		}
		if input.StartTime != nil {
			schedule.StartTime = *input.StartTime
		}
		if input.EndTime != nil {
			schedule.EndTime = *input.EndTime
		}
		if input.MaxCapacity != nil {
			schedule.MaxCapacity = *input.MaxCapacity
		}
		if input.IsActive != nil {
			schedule.IsActive = *input.IsActive
		}
		if err := validateSlot(schedule); err != nil {
			return err
		}

		updated, err = repo.UpdateSchedule(ctx, schedule)
		if err != nil {
			return err
		}
		if updated == nil {
			current, err := repo.Schedule(ctx, scheduleID)
			if err != nil {
				return err
			}
			return types.NewConflict(
				"max_capacity %d is below the %d visitors already booked",
				schedule.MaxCapacity, current.CurrentBookings,
			).WithDetails(map[string]int{"current_bookings": current.CurrentBookings})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithField("schedule_id", scheduleID).Info("visiting schedule updated")
	return updated, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, scheduleID string) error {
	if err := s.repo.DeleteSchedule(ctx, scheduleID); err != nil {
		return err
	}
	s.logger.WithField("schedule_id", scheduleID).Info("visiting schedule deleted")
	return nil
}

func (s *Service) Schedule(ctx context.Context, scheduleID string) (*types.VisitingSchedule, error) {
	return s.repo.Schedule(ctx, scheduleID)
}

func (s *Service) Schedules(ctx context.Context, filter types.ScheduleFilter) ([]*types.VisitingSchedule, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, types.NewValidation("to must not be before from")
	}
	return s.repo.Schedules(ctx, filter)
}

// DailySummary totals the slots, bookings and capacity for one date.
func (s *Service) DailySummary(ctx context.Context, date string) (*types.DailySummary, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	schedules, err := s.repo.SchedulesOn(ctx, day)
	if err != nil {
		return nil, err
	}

	summary := &types.DailySummary{
		Date:       day.Format(types.DateLayout),
		TotalSlots: len(schedules),
		Schedules:  schedules,
	}
	for _, schedule := range schedules {
		summary.TotalBookings += schedule.CurrentBookings
		summary.TotalCapacity += schedule.MaxCapacity
	}

	return summary, nil
}
