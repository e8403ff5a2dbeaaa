package repository

import (
	"time"

	"explanation-booking/internal/data/entity"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type ScheduleFilter struct {
	ExplanationID *uuid.UUID
	Status        *entity.ScheduleStatus
	StartFrom     *time.Time
	StartTo       *time.Time
	ApplyOpenAt   *time.Time // only schedules whose apply window contains this instant
	Limit         int
	Offset        int
}

type ReservationFilter struct {
	ScheduleID  *uuid.UUID
	Status      *entity.ReservationStatus
	MemberID    *uuid.UUID
	GuestPhone  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// paginate applies limit/offset; a zero limit means no limit
func paginate(b squirrel.SelectBuilder, limit, offset int) squirrel.SelectBuilder {
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}
	return b
}
