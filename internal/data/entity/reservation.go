package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusRequested ReservationStatus = "REQUESTED"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusCanceled  ReservationStatus = "CANCELED"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusRequested, ReservationStatusConfirmed, ReservationStatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave this status
func (s ReservationStatus) Terminal() bool {
	return s == ReservationStatusCanceled
}

// Reservation holds a seat on one schedule. ScheduleID never changes after insert.
type Reservation struct {
	BaseNoDelete
	ScheduleID uuid.UUID         `db:"schedule_id"`
	Requester  Requester         `db:"-"`
	Status     ReservationStatus `db:"status"`
	Memo       *string           `db:"memo"`
	CanceledAt *time.Time        `db:"canceled_at"`
}

// IsActive reports whether the reservation occupies a seat
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationStatusConfirmed
}
