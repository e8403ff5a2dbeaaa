package entity

import (
	"time"

	"github.com/google/uuid"
)

type ScheduleStatus string

const (
	ScheduleStatusReservable ScheduleStatus = "RESERVABLE"
	ScheduleStatusClosed     ScheduleStatus = "CLOSED"
)

func (s ScheduleStatus) Valid() bool {
	return s == ScheduleStatusReservable || s == ScheduleStatusClosed
}

// Schedule is one bookable occurrence of an explanation session.
// ReservedCount is only written by the booking and cancellation paths while
// the schedule row is locked.
type Schedule struct {
	BaseNoDelete
	ExplanationID *uuid.UUID     `db:"explanation_id"`
	RoundNo       int            `db:"round_no"`
	StartAt       time.Time      `db:"start_at"`
	EndAt         time.Time      `db:"end_at"`
	Location      string         `db:"location"`
	ApplyStartAt  time.Time      `db:"apply_start_at"`
	ApplyEndAt    time.Time      `db:"apply_end_at"`
	Status        ScheduleStatus `db:"status"`
	Capacity      *int           `db:"capacity"` // nil = unlimited
	ReservedCount int            `db:"reserved_count"`
	CreatedBy     *uuid.UUID     `db:"created_by"`
	UpdatedBy     *uuid.UUID     `db:"updated_by"`
}

// Remaining returns the free seats, or nil when capacity is unlimited
func (s *Schedule) Remaining() *int {
	if s.Capacity == nil {
		return nil
	}
	remaining := *s.Capacity - s.ReservedCount
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}
