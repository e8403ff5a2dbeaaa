package usecase

import (
	"context"
	"fmt"
	"time"

	"explanation-booking/internal/data/entity"
	"explanation-booking/internal/data/repository"
	"explanation-booking/internal/dto/request"
	"explanation-booking/internal/dto/response"
	"explanation-booking/pkg/notify"
	"explanation-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReservationService interface {
	// Reserve takes one seat on a schedule for the requester
	Reserve(ctx context.Context, req *request.ReserveRequest) (*response.ReservationResponse, error)
	// Cancel releases the seat. Repeating it reports AlreadyCanceled instead of failing.
	Cancel(ctx context.Context, req *request.CancelReservationRequest) (*response.CancelReservationResponse, error)
	UpdateMemo(ctx context.Context, reservationID string, req *request.UpdateMemoRequest) (*response.ReservationResponse, error)
}

const (
	outcomeConfirmed       = "CONFIRMED"
	outcomeCanceled        = "CANCELED"
	outcomeAlreadyCanceled = "ALREADY_CANCELED"
)

type reservationService struct {
	repo          *repository.Repository
	deps          Dependencies
	notifyTimeout time.Duration
	log           *zap.Logger
}

func NewReservationService(repo *repository.Repository, deps Dependencies, notifyTimeout time.Duration, log *zap.Logger) ReservationService {
	if notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
	}
	return &reservationService{
		repo:          repo,
		deps:          deps.withDefaults(log),
		notifyTimeout: notifyTimeout,
		log:           log.With(zap.String("service", "reservation")),
	}
}

func (s *reservationService) Reserve(ctx context.Context, req *request.ReserveRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Reserve validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	requester, err := req.Requester()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	scheduleID, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schedule ID %s", ErrValidation, req.ScheduleID)
	}

	var (
		created  *entity.Reservation
		snapshot *entity.Schedule
	)

	err = s.repo.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		waitStart := time.Now()
		schedule, err := s.repo.Schedule.FindByIDForUpdate(ctx, scheduleID)
		s.deps.Metrics.ObserveLockWait(time.Since(waitStart))
		if err != nil {
			return fmt.Errorf("lock schedule %s: %w", scheduleID.String(), err)
		}
		if schedule == nil {
			return ErrScheduleNotFound
		}

		// eligibility is judged on the locked row only
		now := s.deps.Now()
		if ok, reason := Evaluate(schedule, now); !ok {
			return fmt.Errorf("%w: %w", ErrNotReservable, reason)
		}

		existing, err := s.repo.Reservation.FindActiveByRequester(ctx, scheduleID, requester)
		if err != nil {
			return fmt.Errorf("check duplicate reservation: %w", err)
		}
		if existing != nil {
			return ErrDuplicateReservation
		}

		res := &entity.Reservation{
			BaseNoDelete: entity.BaseNoDelete{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			ScheduleID: scheduleID,
			Requester:  requester,
			Status:     entity.ReservationStatusConfirmed,
		}
		if err := s.repo.Reservation.Create(ctx, res); err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}
		if err := s.repo.Schedule.IncrementReserved(ctx, scheduleID, now); err != nil {
			return fmt.Errorf("increment reserved count: %w", err)
		}

		schedule.ReservedCount++
		schedule.UpdatedAt = now
		created, snapshot = res, schedule
		return nil
	})
	if err != nil {
		s.reject("Reservation", scheduleID, err)
		s.deps.Metrics.ReservationOutcome(ErrorCode(err))
		return nil, err
	}

	s.deps.Metrics.ReservationOutcome(outcomeConfirmed)
	s.deps.Cache.Invalidate(ctx, scheduleID)

	s.log.Info("Reservation confirmed",
		zap.String("reservation_id", created.ID.String()),
		zap.String("schedule_id", scheduleID.String()),
		zap.Int("reserved_count", snapshot.ReservedCount),
	)

	s.publish(notify.EventReservationConfirmed, created, snapshot)

	resp := response.ReservationToResponse(created)
	return &resp, nil
}

func (s *reservationService) Cancel(ctx context.Context, req *request.CancelReservationRequest) (*response.CancelReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Cancel validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	actor, err := req.Actor()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	reservationID, err := uuid.Parse(req.ReservationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid reservation ID %s", ErrValidation, req.ReservationID)
	}
	scheduleID, err := utils.ParseUUIDParam(req.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schedule ID %s", ErrValidation, req.ScheduleID)
	}

	res, err := s.repo.Reservation.FindByID(ctx, reservationID)
	if err != nil {
		s.log.Error("Failed to load reservation", zap.String("reservation_id", reservationID.String()), zap.Error(err))
		return nil, fmt.Errorf("find reservation: %w", err)
	}
	if res == nil || (scheduleID != nil && res.ScheduleID != *scheduleID) {
		s.deps.Metrics.CancellationOutcome(CodeReservationNotFound)
		return nil, ErrReservationNotFound
	}
	if !actor.CanManage(res) {
		s.log.Warn("Cancel rejected: not the owner",
			zap.String("reservation_id", reservationID.String()),
		)
		s.deps.Metrics.CancellationOutcome(CodeForbidden)
		return nil, ErrForbidden
	}

	var (
		alreadyCanceled bool
		canceled        *entity.Reservation
		snapshot        *entity.Schedule
	)

	err = s.repo.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		waitStart := time.Now()
		schedule, err := s.repo.Schedule.FindByIDForUpdate(ctx, res.ScheduleID)
		s.deps.Metrics.ObserveLockWait(time.Since(waitStart))
		if err != nil {
			return fmt.Errorf("lock schedule %s: %w", res.ScheduleID.String(), err)
		}
		if schedule == nil {
			return ErrScheduleNotFound
		}

		// status read under the lock decides whether this call owns the transition
		current, err := s.repo.Reservation.FindByID(ctx, reservationID)
		if err != nil {
			return fmt.Errorf("reload reservation: %w", err)
		}
		if current == nil {
			return ErrReservationNotFound
		}
		if current.Status.Terminal() {
			alreadyCanceled = true
			return nil
		}

		now := s.deps.Now()
		changed, err := s.repo.Reservation.MarkCanceled(ctx, reservationID, now)
		if err != nil {
			return fmt.Errorf("mark reservation canceled: %w", err)
		}
		if !changed {
			alreadyCanceled = true
			return nil
		}

		if current.IsActive() {
			if schedule.ReservedCount <= 0 {
				s.log.Warn("Reserved count already zero on cancel, clamping",
					zap.String("schedule_id", schedule.ID.String()),
					zap.String("reservation_id", reservationID.String()),
				)
				s.deps.Metrics.CounterFloorHit()
			}
			if err := s.repo.Schedule.DecrementReserved(ctx, schedule.ID, now); err != nil {
				return fmt.Errorf("decrement reserved count: %w", err)
			}
			if schedule.ReservedCount > 0 {
				schedule.ReservedCount--
			}
		}

		current.Status = entity.ReservationStatusCanceled
		current.CanceledAt = &now
		current.UpdatedAt = now
		canceled, snapshot = current, schedule
		return nil
	})
	if err != nil {
		s.reject("Cancellation", res.ScheduleID, err)
		s.deps.Metrics.CancellationOutcome(ErrorCode(err))
		return nil, err
	}

	result := &response.CancelReservationResponse{
		ReservationID:   reservationID.String(),
		AlreadyCanceled: alreadyCanceled,
	}

	if alreadyCanceled {
		s.deps.Metrics.CancellationOutcome(outcomeAlreadyCanceled)
		s.log.Info("Reservation already canceled", zap.String("reservation_id", reservationID.String()))
		return result, nil
	}

	s.deps.Metrics.CancellationOutcome(outcomeCanceled)
	s.deps.Cache.Invalidate(ctx, res.ScheduleID)

	s.log.Info("Reservation canceled",
		zap.String("reservation_id", reservationID.String()),
		zap.String("schedule_id", res.ScheduleID.String()),
		zap.Int("reserved_count", snapshot.ReservedCount),
		zap.Bool("by_admin", actor.IsAdmin),
	)

	s.publish(notify.EventReservationCanceled, canceled, snapshot)
	return result, nil
}

func (s *reservationService) UpdateMemo(ctx context.Context, reservationID string, req *request.UpdateMemoRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	id, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid reservation ID %s", ErrValidation, reservationID)
	}

	res, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find reservation: %w", err)
	}
	if res == nil {
		return nil, ErrReservationNotFound
	}

	now := s.deps.Now()
	if err := s.repo.Reservation.UpdateMemo(ctx, id, req.Memo, now); err != nil {
		s.log.Error("Failed to update memo", zap.String("reservation_id", reservationID), zap.Error(err))
		return nil, fmt.Errorf("update memo: %w", err)
	}

	res.Memo = req.Memo
	res.UpdatedAt = now
	resp := response.ReservationToResponse(res)
	return &resp, nil
}

func (s *reservationService) reject(action string, scheduleID uuid.UUID, err error) {
	code := ErrorCode(err)
	if code == CodeInternal {
		s.log.Error(action+" failed",
			zap.String("schedule_id", scheduleID.String()),
			zap.Error(err),
		)
		return
	}
	s.log.Warn(action+" rejected",
		zap.String("schedule_id", scheduleID.String()),
		zap.String("code", code),
	)
}

// publish hands the event to the notifier after commit. Its outcome never
// reaches the caller.
func (s *reservationService) publish(eventType string, res *entity.Reservation, schedule *entity.Schedule) {
	event := notify.ReservationEvent{
		Type:          eventType,
		ReservationID: res.ID,
		ScheduleID:    res.ScheduleID,
		MemberID:      res.Requester.MemberID,
		GuestName:     res.Requester.GuestName,
		GuestPhone:    res.Requester.GuestPhone,
		StartAt:       schedule.StartAt,
		Location:      schedule.Location,
		OccurredAt:    res.UpdatedAt,
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("Notifier panicked", zap.Any("panic", r), zap.String("type", eventType))
				s.deps.Metrics.NotifyFailed(eventType)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.deps.Notifier.Notify(ctx, event); err != nil {
			s.log.Warn("Notification failed",
				zap.String("type", eventType),
				zap.String("reservation_id", event.ReservationID.String()),
				zap.Error(err),
			)
			s.deps.Metrics.NotifyFailed(eventType)
		}
	}()
}
