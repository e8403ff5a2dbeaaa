package memstore

import (
	"context"
	"time"

	"explanation-booking/internal/data/entity"

	"github.com/google/uuid"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok || user.DeletedAt != nil {
		return nil, nil
	}
	u := *user
	return &u, nil
}

func (r *userRepo) FindDisplayNames(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	names := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		if user, ok := r.s.users[id]; ok {
			names[id] = user.Username
		}
	}
	return names, nil
}

type sessionRepo struct {
	s *Store
}

func (r *sessionRepo) FindValidSession(_ context.Context, token string) (*entity.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	session, ok := r.s.sessions[token]
	if !ok || !session.ValidAt(time.Now()) {
		return nil, nil
	}
	sess := *session
	return &sess, nil
}
