package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"explanation-booking/internal/data/entity"
	"explanation-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type scheduleRepo struct {
	s *Store
}

func (r *scheduleRepo) Create(ctx context.Context, schedule *entity.Schedule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.schedules[schedule.ID]; exists {
		return fmt.Errorf("create schedule %s: duplicate id", schedule.ID.String())
	}
	r.s.schedules[schedule.ID] = cloneSchedule(schedule)

	id := schedule.ID
	recordUndo(ctx, func() { delete(r.s.schedules, id) })
	return nil
}

func (r *scheduleRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Schedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	schedule, ok := r.s.schedules[id]
	if !ok {
		return nil, nil
	}
	return cloneSchedule(schedule), nil
}

func (r *scheduleRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Schedule, error) {
	t, ok := txFrom(ctx)
	if !ok {
		return nil, repository.ErrNotInTransaction
	}

	if _, held := t.held[id]; !held {
		ch := r.s.scheduleLock(id)
		select {
		case ch <- struct{}{}:
			t.held[id] = ch
		case <-ctx.Done():
			r.s.log.Warn("Gave up waiting for schedule lock",
				zap.String("schedule_id", id.String()),
				zap.Error(ctx.Err()),
			)
			return nil, fmt.Errorf("lock schedule %s: %w", id.String(), ctx.Err())
		}
	}

	return r.FindByID(ctx, id)
}

func (r *scheduleRepo) Search(_ context.Context, filter repository.ScheduleFilter) ([]*entity.Schedule, int64, error) {
	r.s.mu.RLock()
	var matched []*entity.Schedule
	for _, schedule := range r.s.schedules {
		if matchSchedule(schedule, filter) {
			matched = append(matched, cloneSchedule(schedule))
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].StartAt.Equal(matched[j].StartAt) {
			return matched[i].StartAt.Before(matched[j].StartAt)
		}
		return matched[i].RoundNo < matched[j].RoundNo
	})

	total := int64(len(matched))
	return page(matched, filter.Limit, filter.Offset), total, nil
}

func matchSchedule(s *entity.Schedule, f repository.ScheduleFilter) bool {
	if f.ExplanationID != nil && (s.ExplanationID == nil || *s.ExplanationID != *f.ExplanationID) {
		return false
	}
	if f.Status != nil && s.Status != *f.Status {
		return false
	}
	if f.StartFrom != nil && s.StartAt.Before(*f.StartFrom) {
		return false
	}
	if f.StartTo != nil && s.StartAt.After(*f.StartTo) {
		return false
	}
	if f.ApplyOpenAt != nil && (f.ApplyOpenAt.Before(s.ApplyStartAt) || f.ApplyOpenAt.After(s.ApplyEndAt)) {
		return false
	}
	return true
}

func (r *scheduleRepo) Update(ctx context.Context, schedule *entity.Schedule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.schedules[schedule.ID]
	if !ok {
		return fmt.Errorf("schedule %s not found", schedule.ID.String())
	}

	prev := cloneSchedule(current)
	next := cloneSchedule(schedule)
	next.ReservedCount = current.ReservedCount
	next.CreatedAt = current.CreatedAt
	next.CreatedBy = current.CreatedBy
	r.s.schedules[schedule.ID] = next

	recordUndo(ctx, func() {
		if s, ok := r.s.schedules[prev.ID]; ok {
			prev.ReservedCount = s.ReservedCount
		}
		r.s.schedules[prev.ID] = prev
	})
	return nil
}

func (r *scheduleRepo) IncrementReserved(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.adjust(ctx, id, at, 1)
}

func (r *scheduleRepo) DecrementReserved(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.adjust(ctx, id, at, -1)
}

func (r *scheduleRepo) adjust(ctx context.Context, id uuid.UUID, at time.Time, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	schedule, ok := r.s.schedules[id]
	if !ok {
		return fmt.Errorf("schedule %s not found", id.String())
	}

	prevCount, prevUpdated := schedule.ReservedCount, schedule.UpdatedAt
	schedule.ReservedCount += delta
	if schedule.ReservedCount < 0 {
		schedule.ReservedCount = 0
	}
	schedule.UpdatedAt = at

	recordUndo(ctx, func() {
		if s, ok := r.s.schedules[id]; ok {
			s.ReservedCount = prevCount
			s.UpdatedAt = prevUpdated
		}
	})
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
