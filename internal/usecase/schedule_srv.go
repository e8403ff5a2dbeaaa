package usecase

import (
	"context"
	"fmt"

	"explanation-booking/internal/data/entity"
	"explanation-booking/internal/data/repository"
	"explanation-booking/internal/dto/request"
	"explanation-booking/internal/dto/response"
	"explanation-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ScheduleService interface {
	// Admin endpoints
	CreateSchedule(ctx context.Context, actorID string, req *request.CreateScheduleRequest) (*response.ScheduleResponse, error)
	UpdateSchedule(ctx context.Context, actorID, scheduleID string, req *request.UpdateScheduleRequest) (*response.ScheduleResponse, error)
	UpdateScheduleStatus(ctx context.Context, actorID, scheduleID string, req *request.UpdateScheduleStatusRequest) (*response.ScheduleResponse, error)

	// Public endpoints
	GetSchedule(ctx context.Context, scheduleID string) (*response.ScheduleResponse, error)
	ListSchedules(ctx context.Context, req *request.ListSchedulesRequest) (*response.PaginatedResponse[response.ScheduleResponse], error)
}

type scheduleService struct {
	repo *repository.Repository
	deps Dependencies
	log  *zap.Logger
}

func NewScheduleService(repo *repository.Repository, deps Dependencies, log *zap.Logger) ScheduleService {
	return &scheduleService{
		repo: repo,
		deps: deps.withDefaults(log),
		log:  log.With(zap.String("service", "schedule")),
	}
}

func (s *scheduleService) CreateSchedule(ctx context.Context, actorID string, req *request.CreateScheduleRequest) (*response.ScheduleResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create schedule validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	explanationID, err := utils.ParseUUIDParam(derefString(req.ExplanationID))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid explanation ID", ErrValidation)
	}

	status := entity.ScheduleStatusClosed
	if req.Status != "" {
		status = entity.ScheduleStatus(req.Status)
	}

	now := s.deps.Now()
	schedule := &entity.Schedule{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ExplanationID: explanationID,
		RoundNo:       req.RoundNo,
		StartAt:       req.StartAt,
		EndAt:         req.EndAt,
		Location:      req.Location,
		ApplyStartAt:  req.ApplyStartAt,
		ApplyEndAt:    req.ApplyEndAt,
		Status:        status,
		Capacity:      req.Capacity,
		CreatedBy:     parseActor(actorID),
		UpdatedBy:     parseActor(actorID),
	}
	if err := validateSchedule(schedule); err != nil {
		return nil, err
	}

	if err := s.repo.Schedule.Create(ctx, schedule); err != nil {
		s.log.Error("Failed to create schedule", zap.Error(err))
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	s.log.Info("Schedule created",
		zap.String("schedule_id", schedule.ID.String()),
		zap.String("status", string(schedule.Status)),
	)
	return s.toResponse(schedule), nil
}

func (s *scheduleService) UpdateSchedule(ctx context.Context, actorID, scheduleID string, req *request.UpdateScheduleRequest) (*response.ScheduleResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	return s.edit(ctx, actorID, scheduleID, func(schedule *entity.Schedule) error {
		if req.Capacity != nil && *req.Capacity < schedule.ReservedCount {
			return fmt.Errorf("%w: capacity %d, reserved %d", ErrCapacityBelowReserved, *req.Capacity, schedule.ReservedCount)
		}
		schedule.StartAt = req.StartAt
		schedule.EndAt = req.EndAt
		schedule.Location = req.Location
		schedule.ApplyStartAt = req.ApplyStartAt
		schedule.ApplyEndAt = req.ApplyEndAt
		schedule.Capacity = req.Capacity
		schedule.Status = entity.ScheduleStatus(req.Status)
		return validateSchedule(schedule)
	})
}

func (s *scheduleService) UpdateScheduleStatus(ctx context.Context, actorID, scheduleID string, req *request.UpdateScheduleStatusRequest) (*response.ScheduleResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	return s.edit(ctx, actorID, scheduleID, func(schedule *entity.Schedule) error {
		schedule.Status = entity.ScheduleStatus(req.Status)
		return nil
	})
}

// edit applies mutate to the locked schedule, so admin changes serialize with
// booking and cancellation on the same row.
func (s *scheduleService) edit(ctx context.Context, actorID, scheduleID string, mutate func(*entity.Schedule) error) (*response.ScheduleResponse, error) {
	id, err := uuid.Parse(scheduleID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schedule ID %s", ErrValidation, scheduleID)
	}

	var updated *entity.Schedule
	err = s.repo.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		schedule, err := s.repo.Schedule.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("lock schedule %s: %w", scheduleID, err)
		}
		if schedule == nil {
			return ErrScheduleNotFound
		}

		if err := mutate(schedule); err != nil {
			return err
		}
		schedule.UpdatedAt = s.deps.Now()
		schedule.UpdatedBy = parseActor(actorID)

		if err := s.repo.Schedule.Update(ctx, schedule); err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}
		updated = schedule
		return nil
	})
	if err != nil {
		if ErrorCode(err) == CodeInternal {
			s.log.Error("Failed to update schedule", zap.String("schedule_id", scheduleID), zap.Error(err))
		} else {
			s.log.Warn("Schedule update rejected", zap.String("schedule_id", scheduleID), zap.Error(err))
		}
		return nil, err
	}

	s.deps.Cache.Invalidate(ctx, id)
	s.log.Info("Schedule updated",
		zap.String("schedule_id", scheduleID),
		zap.String("status", string(updated.Status)),
	)
	return s.toResponse(updated), nil
}

func (s *scheduleService) GetSchedule(ctx context.Context, scheduleID string) (*response.ScheduleResponse, error) {
	id, err := uuid.Parse(scheduleID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schedule ID %s", ErrValidation, scheduleID)
	}

	if cached, ok := s.deps.Cache.Get(ctx, id); ok {
		return s.toResponse(cached), nil
	}

	schedule, err := s.repo.Schedule.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get schedule", zap.String("schedule_id", scheduleID), zap.Error(err))
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if schedule == nil {
		return nil, ErrScheduleNotFound
	}

	s.deps.Cache.Set(ctx, schedule)
	return s.toResponse(schedule), nil
}

func (s *scheduleService) ListSchedules(ctx context.Context, req *request.ListSchedulesRequest) (*response.PaginatedResponse[response.ScheduleResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	filter := repository.ScheduleFilter{
		Limit:  req.Limit(),
		Offset: req.Offset(),
	}

	var err error
	if filter.ExplanationID, err = utils.ParseUUIDParam(req.ExplanationID); err != nil {
		return nil, fmt.Errorf("%w: explanation_id", ErrValidation)
	}
	if filter.StartFrom, err = utils.ParseTimeParam(req.StartFrom); err != nil {
		return nil, fmt.Errorf("%w: start_from", ErrValidation)
	}
	if filter.StartTo, err = utils.ParseTimeParam(req.StartTo); err != nil {
		return nil, fmt.Errorf("%w: start_to", ErrValidation)
	}
	if req.Status != "" {
		st := entity.ScheduleStatus(req.Status)
		filter.Status = &st
	}
	if req.OpenOnly {
		now := s.deps.Now()
		filter.ApplyOpenAt = &now
	}

	schedules, total, err := s.repo.Schedule.Search(ctx, filter)
	if err != nil {
		s.log.Error("Failed to list schedules", zap.Error(err))
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	data := make([]response.ScheduleResponse, 0, len(schedules))
	for _, schedule := range schedules {
		data = append(data, *s.toResponse(schedule))
	}
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *scheduleService) toResponse(schedule *entity.Schedule) *response.ScheduleResponse {
	resp := response.ScheduleToResponse(schedule)
	ok, reason := Evaluate(schedule, s.deps.Now())
	resp.Reservable = ok
	if reason != nil {
		resp.Reason = ErrorCode(reason)
	}
	return &resp
}

func validateSchedule(schedule *entity.Schedule) error {
	switch {
	case !schedule.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidSchedule, schedule.Status)
	case schedule.EndAt.Before(schedule.StartAt):
		return fmt.Errorf("%w: end_at before start_at", ErrInvalidSchedule)
	case schedule.ApplyEndAt.Before(schedule.ApplyStartAt):
		return fmt.Errorf("%w: apply_end_at before apply_start_at", ErrInvalidSchedule)
	case schedule.Capacity != nil && *schedule.Capacity < 1:
		return fmt.Errorf("%w: capacity must be at least 1", ErrInvalidSchedule)
	}
	return nil
}

func parseActor(actorID string) *uuid.UUID {
	id, err := uuid.Parse(actorID)
	if err != nil {
		return nil
	}
	return &id
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
