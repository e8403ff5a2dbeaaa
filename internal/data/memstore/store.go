// Package memstore keeps schedules and reservations in process memory.
// It implements the repository interfaces with the same locking contract as
// the Postgres store: FindByIDForUpdate blocks other transactions on that
// schedule until the holder commits or rolls back.
package memstore

import (
	"context"
	"sync"

	"explanation-booking/internal/data/entity"
	"explanation-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store struct {
	mu           sync.RWMutex
	schedules    map[uuid.UUID]*entity.Schedule
	reservations map[uuid.UUID]*entity.Reservation
	seq          map[uuid.UUID]int64
	nextSeq      int64
	users        map[uuid.UUID]*entity.User
	sessions     map[string]*entity.Session

	locksMu sync.Mutex
	locks   map[uuid.UUID]chan struct{}

	log *zap.Logger
}

func New(log *zap.Logger) *Store {
	return &Store{
		schedules:    make(map[uuid.UUID]*entity.Schedule),
		reservations: make(map[uuid.UUID]*entity.Reservation),
		seq:          make(map[uuid.UUID]int64),
		users:        make(map[uuid.UUID]*entity.User),
		sessions:     make(map[string]*entity.Session),
		locks:        make(map[uuid.UUID]chan struct{}),
		log:          log.With(zap.String("repository", "memstore")),
	}
}

// Repository exposes the store through the repository interfaces
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		Schedule:    &scheduleRepo{s: s},
		Reservation: &reservationRepo{s: s},
		User:        &userRepo{s: s},
		Session:     &sessionRepo{s: s},
		Tx:          &transactor{s: s},
	}
}

// AddUser registers a member account, for local runs and tests
func (s *Store) AddUser(user *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.users[u.ID] = &u
}

// AddSession registers a session token, for local runs and tests
func (s *Store) AddSession(session *entity.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := *session
	s.sessions[sess.Token.String()] = &sess
}

func (s *Store) scheduleLock(id uuid.UUID) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

type txKey struct{}

type tx struct {
	held map[uuid.UUID]chan struct{}
	undo []func()
}

func txFrom(ctx context.Context) (*tx, bool) {
	t, ok := ctx.Value(txKey{}).(*tx)
	return t, ok
}

// recordUndo registers a compensation when ctx carries a transaction.
// Callers hold s.mu.
func recordUndo(ctx context.Context, fn func()) {
	if t, ok := txFrom(ctx); ok {
		t.undo = append(t.undo, fn)
	}
}

type transactor struct {
	s *Store
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	current := &tx{held: make(map[uuid.UUID]chan struct{})}
	committed := false

	defer func() {
		if !committed {
			t.s.mu.Lock()
			for i := len(current.undo) - 1; i >= 0; i-- {
				current.undo[i]()
			}
			t.s.mu.Unlock()
		}
		for _, ch := range current.held {
			<-ch
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, current)); err != nil {
		return err
	}
	committed = true
	return nil
}

func cloneSchedule(src *entity.Schedule) *entity.Schedule {
	dst := *src
	if src.Capacity != nil {
		capacity := *src.Capacity
		dst.Capacity = &capacity
	}
	return &dst
}

func cloneReservation(src *entity.Reservation) *entity.Reservation {
	dst := *src
	if src.Memo != nil {
		memo := *src.Memo
		dst.Memo = &memo
	}
	if src.CanceledAt != nil {
		at := *src.CanceledAt
		dst.CanceledAt = &at
	}
	return &dst
}
