package types

import "time"

// DateLayout is the wire and query format for schedule dates.
const DateLayout = "2006-01-02"

type VisitingSchedule struct {
	ID              string    `db:"id" json:"id"`
	Date            time.Time `db:"date" json:"date"`
	StartTime       string    `db:"start_time" json:"start_time"`
	EndTime         string    `db:"end_time" json:"end_time"`
	MaxCapacity     int       `db:"max_capacity" json:"max_capacity"`
	CurrentBookings int       `db:"current_bookings" json:"current_bookings"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedBy       *string   `db:"created_by" json:"created_by"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Available is the number of visitor spots left in the slot.
func (s *VisitingSchedule) Available() int {
	if s.CurrentBookings >= s.MaxCapacity {
		return 0
	}
	return s.MaxCapacity - s.CurrentBookings
}

type ScheduleFilter struct {
	From       *time.Time
	To         *time.Time
	ActiveOnly bool
}

type DailySummary struct {
	Date          string              `json:"date"`
	TotalSlots    int                 `json:"total_slots"`
	TotalBookings int                 `json:"total_bookings"`
	TotalCapacity int                 `json:"total_capacity"`
	Schedules     []*VisitingSchedule `json:"schedules"`
}

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusApproved  AppointmentStatus = "approved"
	AppointmentStatusRejected  AppointmentStatus = "rejected"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusApproved, AppointmentStatusRejected, AppointmentStatusCancelled:
		return true
	}
	return false
}

// HoldsCapacity reports whether an appointment in this status still has its
// visitors counted against the slot.
func (s AppointmentStatus) HoldsCapacity() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusApproved
}

type Appointment struct {
	ID          string            `db:"id" json:"id"`
	UserID      string            `db:"user_id" json:"user_id"`
	ScheduleID  string            `db:"schedule_id" json:"schedule_id"`
	NumVisitors int               `db:"num_visitors" json:"num_visitors"`
	Purpose     *string           `db:"purpose" json:"purpose"`
	Status      AppointmentStatus `db:"status" json:"status"`
	AdminNotes  *string           `db:"admin_notes" json:"admin_notes"`
	ReviewedBy  *string           `db:"reviewed_by" json:"reviewed_by"`
	ReviewedAt  *time.Time        `db:"reviewed_at" json:"reviewed_at"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

type AppointmentFilter struct {
	UserID string
	Status AppointmentStatus
	Date   *time.Time
}
