package repository

import (
	"context"
	"time"

	"explanation-booking/pkg/database"
)

// Transactor runs fn as one atomic unit. Locks taken inside fn (see
// ScheduleRepository.FindByIDForUpdate) are held until fn returns and the
// unit commits or rolls back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type pgTransactor struct {
	db          database.PgxIface
	lockTimeout time.Duration
}

func NewTransactor(db database.PgxIface, lockTimeout time.Duration) Transactor {
	return &pgTransactor{db: db, lockTimeout: lockTimeout}
}

func (t *pgTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithinTx(ctx, t.db, t.lockTimeout, fn)
}
