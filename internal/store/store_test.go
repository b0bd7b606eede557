package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"carelink/pkg/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoRows = errors.New("no rows in fake querier")

// recordingQuerier captures the statements a repository issues. Exec returns
// the configured tag and error; Query always fails with queryErr.
type recordingQuerier struct {
	sql      []string
	args     [][]any
	tag      pgconn.CommandTag
	execErr  error
	queryErr error
}

func (q *recordingQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.record(sql, args)
	return q.tag, q.execErr
}

func (q *recordingQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.record(sql, args)
	if q.queryErr != nil {
		return nil, q.queryErr
	}
	return nil, errNoRows
}

func (q *recordingQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("unexpected QueryRow")
}

func (q *recordingQuerier) record(sql string, args []any) {
	q.sql = append(q.sql, sql)
	q.args = append(q.args, args)
}

func (q *recordingQuerier) last(t *testing.T) (string, []any) {
	t.Helper()
	require.NotEmpty(t, q.sql, "no statement issued")
	return placeholders.ReplaceAllString(q.sql[len(q.sql)-1], "?"), q.args[len(q.args)-1]
}

var placeholders = regexp.MustCompile(`\$\d+`)

func TestAdjustBookings_IncrementIsConditional(t *testing.T) {
	q := &recordingQuerier{tag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewScheduleRepository(q)

	ok, err := repo.AdjustBookings(context.Background(), "slot-1", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	sql, args := q.last(t)
	assert.Contains(t, sql, "UPDATE visiting_schedules SET")
	assert.Contains(t, sql, "current_bookings = current_bookings + ?")
	assert.Contains(t, sql, "WHERE id = ? AND current_bookings + ? <= max_capacity AND is_active = ?")
	assert.NotContains(t, sql, "GREATEST")

	require.Len(t, args, 5)
	assert.IsType(t, time.Time{}, args[0])
	assert.Equal(t, []any{3, "slot-1", 3, true}, args[1:])
}

func TestAdjustBookings_FullSlotChangesNothing(t *testing.T) {
	q := &recordingQuerier{tag: pgconn.NewCommandTag("UPDATE 0")}
	repo := NewScheduleRepository(q)

	ok, err := repo.AdjustBookings(context.Background(), "slot-1", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdjustBookings_ReleaseFloorsAtZero(t *testing.T) {
	q := &recordingQuerier{tag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewScheduleRepository(q)

	ok, err := repo.AdjustBookings(context.Background(), "slot-1", -2)
	require.NoError(t, err)
	assert.True(t, ok)

	sql, args := q.last(t)
	assert.Contains(t, sql, "current_bookings = GREATEST(0, current_bookings + ?)")
	assert.Contains(t, sql, "WHERE id = ?")
	assert.NotContains(t, sql, "max_capacity")
	assert.NotContains(t, sql, "is_active")
	assert.Equal(t, []any{-2, "slot-1"}, args[1:])
}

func TestUpdateSchedule_GuardsShrinkBelowBookings(t *testing.T) {
	q := &recordingQuerier{}
	repo := NewScheduleRepository(q)

	schedule := &types.VisitingSchedule{
		ID:          "slot-1",
		Date:        time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		StartTime:   "09:00",
		EndTime:     "10:00",
		MaxCapacity: 4,
		IsActive:    true,
	}
	_, err := repo.UpdateSchedule(context.Background(), schedule)
	require.Error(t, err)

	sql, args := q.last(t)
	assert.Contains(t, sql, "WHERE id = ? AND current_bookings <= ?")
	assert.Contains(t, sql, "RETURNING ")
	require.GreaterOrEqual(t, len(args), 2)
	assert.Equal(t, []any{"slot-1", 4}, args[len(args)-2:])
}

func TestUpdateSchedule_CheckViolationIsValidation(t *testing.T) {
	q := &recordingQuerier{queryErr: &pgconn.PgError{Code: "23514"}}
	repo := NewScheduleRepository(q)

	_, err := repo.UpdateSchedule(context.Background(), &types.VisitingSchedule{ID: "slot-1", StartTime: "9:00", EndTime: "10:00", MaxCapacity: 1})
	assert.True(t, types.IsCode(err, types.CodeValidation), "got %v", err)
}

func TestMarkVerified_OnlyFromPledged(t *testing.T) {
	q := &recordingQuerier{}
	repo := NewDonationRepository(q)

	_, err := repo.MarkVerified(context.Background(), "don-1", "admin-1")
	require.Error(t, err)

	sql, args := q.last(t)
	assert.Contains(t, sql, "UPDATE donations SET status = ?")
	assert.Contains(t, sql, "WHERE id = ? AND status = ?")
	require.GreaterOrEqual(t, len(args), 2)
	assert.Equal(t, []any{"don-1", types.DonationStatusPledged}, args[len(args)-2:])
	assert.Equal(t, types.DonationStatusVerified, args[0])
}

func TestAddFulfilled_IsAdditive(t *testing.T) {
	q := &recordingQuerier{tag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewItemRepository(q)

	ok, err := repo.AddFulfilled(context.Background(), "item-1", decimal.RequireFromString("2.5"))
	require.NoError(t, err)
	assert.True(t, ok)

	sql, args := q.last(t)
	assert.Contains(t, sql, "fulfilled_qty = fulfilled_qty + ?")
	assert.True(t, decimal.RequireFromString("2.5").Equal(args[0].(decimal.Decimal)))
	assert.Equal(t, "item-1", args[len(args)-1])
}

func TestRestock_UpsertsAdditively(t *testing.T) {
	q := &recordingQuerier{tag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := NewInventoryRepository(q)

	require.NoError(t, repo.Restock(context.Background(), "item-1", decimal.NewFromInt(4), "admin-1"))

	sql, _ := q.last(t)
	assert.Contains(t, sql, "ON CONFLICT (item_id) DO UPDATE SET quantity_on_hand = inventory.quantity_on_hand + EXCLUDED.quantity_on_hand")
}

func TestWriteErrors(t *testing.T) {
	ctx := context.Background()

	q := &recordingQuerier{execErr: &pgconn.PgError{Code: "23514", ConstraintName: "donations_quantity_check"}}
	err := NewDonationRepository(q).CreateDonation(ctx, &types.Donation{UserID: "u", ItemID: "i", Quantity: decimal.Zero})
	assert.True(t, types.IsCode(err, types.CodeValidation), "got %v", err)

	q = &recordingQuerier{execErr: &pgconn.PgError{Code: "23503"}}
	err = NewDonationRepository(q).CreateDonation(ctx, &types.Donation{UserID: "u", ItemID: "i", Quantity: decimal.NewFromInt(1)})
	assert.True(t, types.IsCode(err, types.CodeNotFound), "got %v", err)

	q = &recordingQuerier{execErr: &pgconn.PgError{Code: "23505"}}
	err = NewAppointmentRepository(q).CreateAppointment(ctx, &types.Appointment{UserID: "u", ScheduleID: "s", NumVisitors: 1})
	assert.True(t, types.IsCode(err, types.CodeConflict), "got %v", err)

	q = &recordingQuerier{execErr: errors.New("connection reset")}
	err = NewScheduleRepository(q).CreateSchedule(ctx, &types.VisitingSchedule{StartTime: "09:00", EndTime: "10:00", MaxCapacity: 1})
	require.Error(t, err)
	assert.Nil(t, types.AsError(err))
	assert.Contains(t, err.Error(), "failed to create schedule")
}
