package store

import (
	"carelink/internal/db"
	"carelink/internal/utils"
	"carelink/pkg/types"
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const appointmentTableName = "appointments"

var appointmentColumns = utils.StructTagValues(types.Appointment{})

type AppointmentRepository struct {
	db Querier
}

func NewAppointmentRepository(db Querier) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Appointment(ctx context.Context, appointmentID string) (*types.Appointment, error) {
	return r.appointment(ctx, appointmentID, false)
}

// AppointmentForUpdate loads the appointment and locks its row until the
// surrounding transaction ends.
func (r *AppointmentRepository) AppointmentForUpdate(ctx context.Context, appointmentID string) (*types.Appointment, error) {
	return r.appointment(ctx, appointmentID, true)
}

func (r *AppointmentRepository) appointment(ctx context.Context, appointmentID string, lock bool) (*types.Appointment, error) {
	builder := psql().
		Select(appointmentColumns...).
		From(appointmentTableName).
		Where(sq.Eq{"id": appointmentID}).
		Limit(1)
	if lock {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate appointment query: %w", err)
	}

	var appointment = new(types.Appointment)
	err = pgxscan.Get(ctx, r.db, appointment, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to fetch appointment: %w", err)
	}

	return appointment, nil
}

func (r *AppointmentRepository) Appointments(ctx context.Context, filter types.AppointmentFilter) ([]*types.Appointment, error) {
	builder := psql().
		Select(utils.PrefixSliceOfStrings("a", appointmentColumns)...).
		From(appointmentTableName + " a").
		OrderBy("a.created_at DESC")

	if filter.UserID != "" {
		builder = builder.Where(sq.Eq{"a.user_id": filter.UserID})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"a.status": filter.Status})
	}
	if filter.Date != nil {
		builder = builder.
			Join(scheduleTableName + " s ON s.id = a.schedule_id").
			Where(sq.Eq{"s.date": filter.Date.Format(types.DateLayout)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate appointments query: %w", err)
	}

	var appointments = make([]*types.Appointment, 0)
	err = pgxscan.Select(ctx, r.db, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointments: %w", err)
	}

	return appointments, nil
}

func (r *AppointmentRepository) ActiveAppointmentExists(ctx context.Context, userID, scheduleID string) (bool, error) {
	query, args, err := psql().
		Select("1").
		From(appointmentTableName).
		Where(sq.Eq{"user_id": userID, "schedule_id": scheduleID}).
		Where(sq.NotEq{"status": types.AppointmentStatusCancelled}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to generate active appointment query: %w", err)
	}

	var found int
	err = pgxscan.Get(ctx, r.db, &found, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up active appointment: %w", err)
	}

	return true, nil
}

func (r *AppointmentRepository) CreateAppointment(ctx context.Context, appointment *types.Appointment) error {
	if appointment.ID == "" {
		appointment.ID = utils.NanoID()
	}
	now := time.Now()
	appointment.Status = types.AppointmentStatusPending
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	query, args, err := psql().
		Insert(appointmentTableName).
		SetMap(utils.StructToMap(appointment)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert appointment query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return types.NewConflict("You already have a booking for this slot")
		}
		if db.IsForeignKeyViolation(err) {
			return types.ErrScheduleNotFound
		}
		return writeError(err, "failed to create appointment")
	}

	return nil
}

// ReviewAppointment records an administrative decision on the appointment.
func (r *AppointmentRepository) ReviewAppointment(ctx context.Context, appointmentID string, status types.AppointmentStatus, adminNotes, reviewedBy string) (*types.Appointment, error) {
	now := time.Now()
	return r.updateAppointment(ctx, appointmentID, map[string]any{
		"status":      status,
		"admin_notes": nullable(adminNotes),
		"reviewed_by": reviewedBy,
		"reviewed_at": now,
		"updated_at":  now,
	})
}

func (r *AppointmentRepository) SetAppointmentStatus(ctx context.Context, appointmentID string, status types.AppointmentStatus) (*types.Appointment, error) {
	return r.updateAppointment(ctx, appointmentID, map[string]any{
		"status":     status,
		"updated_at": time.Now(),
	})
}

func (r *AppointmentRepository) updateAppointment(ctx context.Context, appointmentID string, values map[string]any) (*types.Appointment, error) {
	query, args, err := psql().
		Update(appointmentTableName).
		SetMap(values).
		Where(sq.Eq{"id": appointmentID}).
		Suffix("RETURNING " + joinColumns(appointmentColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate update appointment query: %w", err)
	}

	var appointment = new(types.Appointment)
	err = pgxscan.Get(ctx, r.db, appointment, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrAppointmentNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, types.NewConflict("You already have a booking for this slot")
		}
		return nil, fmt.Errorf("failed to update appointment %s: %w", appointmentID, err)
	}

	return appointment, nil
}
