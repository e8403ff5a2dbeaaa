package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"explanation-booking/internal/data/entity"
	"explanation-booking/internal/data/repository"

	"github.com/google/uuid"
)

type reservationRepo struct {
	s *Store
}

func (r *reservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.reservations[res.ID]; exists {
		return fmt.Errorf("create reservation %s: duplicate id", res.ID.String())
	}
	r.s.reservations[res.ID] = cloneReservation(res)
	r.s.nextSeq++
	r.s.seq[res.ID] = r.s.nextSeq

	id := res.ID
	recordUndo(ctx, func() {
		delete(r.s.reservations, id)
		delete(r.s.seq, id)
	})
	return nil
}

func (r *reservationRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res, ok := r.s.reservations[id]
	if !ok {
		return nil, nil
	}
	return cloneReservation(res), nil
}

func (r *reservationRepo) FindBySchedule(_ context.Context, scheduleID uuid.UUID, status *entity.ReservationStatus) ([]*entity.Reservation, error) {
	return r.collect(func(res *entity.Reservation) bool {
		return res.ScheduleID == scheduleID && (status == nil || res.Status == *status)
	}), nil
}

func (r *reservationRepo) FindByRequester(_ context.Context, requester entity.Requester) ([]*entity.Reservation, error) {
	return r.collect(func(res *entity.Reservation) bool {
		return res.Requester.Same(requester)
	}), nil
}

func (r *reservationRepo) FindActiveByRequester(_ context.Context, scheduleID uuid.UUID, requester entity.Requester) (*entity.Reservation, error) {
	return first(r.collect(func(res *entity.Reservation) bool {
		return res.ScheduleID == scheduleID && res.IsActive() && res.Requester.Same(requester)
	})), nil
}

func (r *reservationRepo) FindLatestByRequester(_ context.Context, scheduleID uuid.UUID, requester entity.Requester) (*entity.Reservation, error) {
	return first(r.collect(func(res *entity.Reservation) bool {
		return res.ScheduleID == scheduleID && res.Requester.Same(requester)
	})), nil
}

func (r *reservationRepo) Search(_ context.Context, f repository.ReservationFilter) ([]*entity.Reservation, int64, error) {
	matched := r.collect(func(res *entity.Reservation) bool {
		if f.ScheduleID != nil && res.ScheduleID != *f.ScheduleID {
			return false
		}
		if f.Status != nil && res.Status != *f.Status {
			return false
		}
		if f.MemberID != nil && (res.Requester.MemberID == nil || *res.Requester.MemberID != *f.MemberID) {
			return false
		}
		if f.GuestPhone != nil && (res.Requester.GuestPhone == nil || *res.Requester.GuestPhone != *f.GuestPhone) {
			return false
		}
		if f.CreatedFrom != nil && res.CreatedAt.Before(*f.CreatedFrom) {
			return false
		}
		if f.CreatedTo != nil && res.CreatedAt.After(*f.CreatedTo) {
			return false
		}
		return true
	})

	total := int64(len(matched))
	return page(matched, f.Limit, f.Offset), total, nil
}

func (r *reservationRepo) CountByStatus(_ context.Context, scheduleID *uuid.UUID) (map[entity.ReservationStatus]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[entity.ReservationStatus]int64)
	for _, res := range r.s.reservations {
		if scheduleID != nil && res.ScheduleID != *scheduleID {
			continue
		}
		counts[res.Status]++
	}
	return counts, nil
}

func (r *reservationRepo) MarkCanceled(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, ok := r.s.reservations[id]
	if !ok || res.Status == entity.ReservationStatusCanceled {
		return false, nil
	}

	prevStatus, prevCanceled, prevUpdated := res.Status, res.CanceledAt, res.UpdatedAt
	canceledAt := at
	res.Status = entity.ReservationStatusCanceled
	res.CanceledAt = &canceledAt
	res.UpdatedAt = at

	recordUndo(ctx, func() {
		if res, ok := r.s.reservations[id]; ok {
			res.Status = prevStatus
			res.CanceledAt = prevCanceled
			res.UpdatedAt = prevUpdated
		}
	})
	return true, nil
}

func (r *reservationRepo) UpdateMemo(ctx context.Context, id uuid.UUID, memo *string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, ok := r.s.reservations[id]
	if !ok {
		return fmt.Errorf("reservation %s not found", id.String())
	}

	prevMemo, prevUpdated := res.Memo, res.UpdatedAt
	if memo != nil {
		m := *memo
		res.Memo = &m
	} else {
		res.Memo = nil
	}
	res.UpdatedAt = at

	recordUndo(ctx, func() {
		if res, ok := r.s.reservations[id]; ok {
			res.Memo = prevMemo
			res.UpdatedAt = prevUpdated
		}
	})
	return nil
}

// collect returns matching clones, newest first
func (r *reservationRepo) collect(match func(*entity.Reservation) bool) []*entity.Reservation {
	r.s.mu.RLock()
	var out []*entity.Reservation
	seq := make(map[uuid.UUID]int64)
	for id, res := range r.s.reservations {
		if match(res) {
			out = append(out, cloneReservation(res))
			seq[id] = r.s.seq[id]
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return seq[out[i].ID] > seq[out[j].ID]
	})
	return out
}

func first(items []*entity.Reservation) *entity.Reservation {
	if len(items) == 0 {
		return nil
	}
	return items[0]
}
