package store

import (
	"carelink/internal/utils"
	"carelink/pkg/types"
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const scheduleTableName = "visiting_schedules"

var scheduleColumns = utils.StructTagValues(types.VisitingSchedule{})

type ScheduleRepository struct {
	db Querier
}

func NewScheduleRepository(db Querier) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Schedule(ctx context.Context, scheduleID string) (*types.VisitingSchedule, error) {
	query, args, err := psql().
		Select(scheduleColumns...).
		From(scheduleTableName).
		Where(sq.Eq{"id": scheduleID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate schedule query: %w", err)
	}

	var schedule = new(types.VisitingSchedule)
	err = pgxscan.Get(ctx, r.db, schedule, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}

	return schedule, nil
}

func (r *ScheduleRepository) Schedules(ctx context.Context, filter types.ScheduleFilter) ([]*types.VisitingSchedule, error) {
	builder := psql().
		Select(scheduleColumns...).
		From(scheduleTableName).
		OrderBy("date ASC", "start_time ASC")

	if filter.From != nil {
		builder = builder.Where(sq.GtOrEq{"date": filter.From.Format(types.DateLayout)})
	}
	if filter.To != nil {
		builder = builder.Where(sq.LtOrEq{"date": filter.To.Format(types.DateLayout)})
	}
	if filter.ActiveOnly {
		builder = builder.Where(sq.Eq{"is_active": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate schedules query: %w", err)
	}

	var schedules = make([]*types.VisitingSchedule, 0)
	err = pgxscan.Select(ctx, r.db, &schedules, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedules: %w", err)
	}

	return schedules, nil
}

func (r *ScheduleRepository) SchedulesOn(ctx context.Context, date time.Time) ([]*types.VisitingSchedule, error) {
	return r.Schedules(ctx, types.ScheduleFilter{From: &date, To: &date})
}

func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule *types.VisitingSchedule) error {
	if schedule.ID == "" {
		schedule.ID = utils.NanoID()
	}
	now := time.Now()
	schedule.CurrentBookings = 0
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	record := utils.StructToMap(schedule)
	record["date"] = schedule.Date.Format(types.DateLayout)

	query, args, err := psql().
		Insert(scheduleTableName).
		SetMap(record).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert schedule query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	return writeError(err, "failed to create schedule")
}

// UpdateSchedule writes the mutable slot fields. The capacity change only
// applies while it stays at or above the live booking count; a nil schedule
// with no error means that guard rejected the update.
func (r *ScheduleRepository) UpdateSchedule(ctx context.Context, schedule *types.VisitingSchedule) (*types.VisitingSchedule, error) {
	query, args, err := psql().
		Update(scheduleTableName).
		Set("date", schedule.Date.Format(types.DateLayout)).
		Set("start_time", schedule.StartTime).
		Set("end_time", schedule.EndTime).
		Set("max_capacity", schedule.MaxCapacity).
		Set("is_active", schedule.IsActive).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": schedule.ID}).
		Where(sq.LtOrEq{"current_bookings": schedule.MaxCapacity}).
		Suffix("RETURNING " + joinColumns(scheduleColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate update schedule query: %w", err)
	}

	var updated = new(types.VisitingSchedule)
	err = pgxscan.Get(ctx, r.db, updated, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, writeError(err, fmt.Sprintf("failed to update schedule %s", schedule.ID))
	}

	return updated, nil
}

func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, scheduleID string) error {
	query, args, err := psql().Delete(scheduleTableName).Where(sq.Eq{"id": scheduleID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete schedule query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete schedule %s: %w", scheduleID, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrScheduleNotFound
	}

	return nil
}

// AdjustBookings moves current_bookings by delta in a single statement.
// Increments only apply when the slot still has room and is active;
// decrements clamp at zero. The bool reports whether a row was changed.
func (r *ScheduleRepository) AdjustBookings(ctx context.Context, scheduleID string, delta int) (bool, error) {
	builder := psql().
		Update(scheduleTableName).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": scheduleID})

	if delta > 0 {
		builder = builder.
			Set("current_bookings", sq.Expr("current_bookings + ?", delta)).
			Where(sq.Expr("current_bookings + ? <= max_capacity", delta)).
			Where(sq.Eq{"is_active": true})
	} else {
		builder = builder.Set("current_bookings", sq.Expr("GREATEST(0, current_bookings + ?)", delta))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to generate booking adjustment query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to adjust bookings for schedule %s: %w", scheduleID, err)
	}

	return tag.RowsAffected() > 0, nil
}
