// Package notify informs requesters about reservation outcomes. Publishing is
// best effort: callers log failures and never roll back on them.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCanceled  = "reservation.canceled"
)

type ReservationEvent struct {
	Type          string     `json:"type"`
	ReservationID uuid.UUID  `json:"reservation_id"`
	ScheduleID    uuid.UUID  `json:"schedule_id"`
	MemberID      *uuid.UUID `json:"member_id,omitempty"`
	GuestName     *string    `json:"guest_name,omitempty"`
	GuestPhone    *string    `json:"guest_phone,omitempty"`
	StartAt       time.Time  `json:"start_at"`
	Location      string     `json:"location"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

type Notifier interface {
	Notify(ctx context.Context, event ReservationEvent) error
}

// LogNotifier writes events to the log. Used when no broker is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(zap.String("notifier", "log"))}
}

func (n *LogNotifier) Notify(_ context.Context, event ReservationEvent) error {
	n.log.Info("Reservation event",
		zap.String("type", event.Type),
		zap.String("reservation_id", event.ReservationID.String()),
		zap.String("schedule_id", event.ScheduleID.String()),
	)
	return nil
}
