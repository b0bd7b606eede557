package booking

import (
	"context"
	"time"

	"carelink/internal/db"
	"carelink/internal/store"
	"carelink/pkg/types"

	"github.com/jackc/pgx/v5"
)

type Repository interface {
	Schedule(ctx context.Context, scheduleID string) (*types.VisitingSchedule, error)
	Schedules(ctx context.Context, filter types.ScheduleFilter) ([]*types.VisitingSchedule, error)
	SchedulesOn(ctx context.Context, date time.Time) ([]*types.VisitingSchedule, error)
	CreateSchedule(ctx context.Context, schedule *types.VisitingSchedule) error
	UpdateSchedule(ctx context.Context, schedule *types.VisitingSchedule) (*types.VisitingSchedule, error)
	DeleteSchedule(ctx context.Context, scheduleID string) error
	AdjustBookings(ctx context.Context, scheduleID string, delta int) (bool, error)

	Appointment(ctx context.Context, appointmentID string) (*types.Appointment, error)
	AppointmentForUpdate(ctx context.Context, appointmentID string) (*types.Appointment, error)
	Appointments(ctx context.Context, filter types.AppointmentFilter) ([]*types.Appointment, error)
	ActiveAppointmentExists(ctx context.Context, userID, scheduleID string) (bool, error)
	CreateAppointment(ctx context.Context, appointment *types.Appointment) error
	ReviewAppointment(ctx context.Context, appointmentID string, status types.AppointmentStatus, adminNotes, reviewedBy string) (*types.Appointment, error)
	SetAppointmentStatus(ctx context.Context, appointmentID string, status types.AppointmentStatus) (*types.Appointment, error)
}

type Transactor interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error
}

type pgRepository struct {
	*store.ScheduleRepository
	*store.AppointmentRepository
}

func NewRepository(q store.Querier) Repository {
	return &pgRepository{
		ScheduleRepository:    store.NewScheduleRepository(q),
		AppointmentRepository: store.NewAppointmentRepository(q),
	}
}

type pgTransactor struct {
	runner *db.TxRunner
}

func NewTransactor(runner *db.TxRunner) Transactor {
	return &pgTransactor{runner: runner}
}

func (t *pgTransactor) InTx(ctx context.Context, fn func(repo Repository) error) error {
	return t.runner.InTx(ctx, func(tx pgx.Tx) error {
		return fn(NewRepository(tx))
	})
}
