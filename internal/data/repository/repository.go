package repository

import (
	"time"

	"explanation-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Schedule    ScheduleRepository
	Reservation ReservationRepository
	User        UserRepository
	Session     SessionRepository
	Tx          Transactor
}

func NewRepository(db database.PgxIface, lockTimeout time.Duration, log *zap.Logger) *Repository {
	return &Repository{
		Schedule:    NewScheduleRepository(db, log),
		Reservation: NewReservationRepository(db, log),
		User:        NewUserRepository(db, log),
		Session:     NewSessionRepository(db, log),
		Tx:          NewTransactor(db, lockTimeout),
	}
}
