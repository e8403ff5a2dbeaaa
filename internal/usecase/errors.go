package usecase

import (
	"errors"

	"explanation-booking/internal/data/entity"
)

var (
	ErrScheduleNotFound      = errors.New("schedule not found")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrNotReservable         = errors.New("schedule is not reservable")
	ErrNotOpen               = errors.New("schedule is not open for reservations")
	ErrOutOfWindow           = errors.New("outside the reservation window")
	ErrCapacityFull          = errors.New("schedule is fully booked")
	ErrDuplicateReservation  = errors.New("requester already holds a reservation on this schedule")
	ErrForbidden             = errors.New("not allowed to manage this reservation")
	ErrValidation            = errors.New("validation failed")
	ErrInvalidSchedule       = errors.New("invalid schedule")
	ErrCapacityBelowReserved = errors.New("capacity is below the current reserved count")
)

// Wire codes returned to clients
const (
	CodeScheduleNotFound      = "SCHEDULE_NOT_FOUND"
	CodeReservationNotFound   = "RESERVATION_NOT_FOUND"
	CodeNotOpen               = "NOT_OPEN"
	CodeOutOfWindow           = "OUT_OF_WINDOW"
	CodeCapacityFull          = "CAPACITY_FULL"
	CodeDuplicateReservation  = "DUPLICATE_RESERVATION"
	CodeForbidden             = "FORBIDDEN"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeCapacityBelowReserved = "CAPACITY_BELOW_RESERVED"
	CodeInternal              = "INTERNAL"
)

// ErrorCode maps an error returned by this package to its wire code.
// Ineligibility resolves to the specific reason, never the generic wrapper.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrScheduleNotFound):
		return CodeScheduleNotFound
	case errors.Is(err, ErrReservationNotFound):
		return CodeReservationNotFound
	case errors.Is(err, ErrNotOpen):
		return CodeNotOpen
	case errors.Is(err, ErrOutOfWindow):
		return CodeOutOfWindow
	case errors.Is(err, ErrCapacityFull):
		return CodeCapacityFull
	case errors.Is(err, ErrDuplicateReservation):
		return CodeDuplicateReservation
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrCapacityBelowReserved):
		return CodeCapacityBelowReserved
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidSchedule), errors.Is(err, entity.ErrInvalidRequester):
		return CodeValidationFailed
	default:
		return CodeInternal
	}
}
