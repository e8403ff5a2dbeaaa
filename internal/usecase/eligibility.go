package usecase

import (
	"time"

	"explanation-booking/internal/data/entity"
)

// Evaluate reports whether schedule accepts a new reservation at now. When it
// does not, reason is the first failing check, in order: status, apply
// window (both ends inclusive), capacity.
func Evaluate(schedule *entity.Schedule, now time.Time) (reservable bool, reason error) {
	if schedule.Status != entity.ScheduleStatusReservable {
		return false, ErrNotOpen
	}
	if now.Before(schedule.ApplyStartAt) || now.After(schedule.ApplyEndAt) {
		return false, ErrOutOfWindow
	}
	if schedule.Capacity != nil && schedule.ReservedCount >= *schedule.Capacity {
		return false, ErrCapacityFull
	}
	return true, nil
}
