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

// QueryService serves read-only reservation lookups. Nothing here takes the
// schedule lock.
type QueryService interface {
	GetReservation(ctx context.Context, reservationID string) (*response.ReservationResponse, error)
	FindGuestReservation(ctx context.Context, req *request.GuestLookupRequest) (*response.ReservationResponse, error)
	MyReservation(ctx context.Context, scheduleID, memberID string) (*response.ReservationResponse, error)
	ListBySchedule(ctx context.Context, req *request.ListScheduleReservationsRequest) ([]response.ReservationResponse, error)
	ListByRequester(ctx context.Context, memberID string) ([]response.ReservationResponse, error)
	ListByGuest(ctx context.Context, req *request.GuestReservationsRequest) ([]response.ReservationResponse, error)
	Search(ctx context.Context, req *request.SearchReservationsRequest) (*response.PaginatedResponse[response.ReservationResponse], error)
	Statistics(ctx context.Context, scheduleID string) (*response.ReservationStatisticsResponse, error)
}

type queryService struct {
	repo *repository.Repository
	deps Dependencies
	log  *zap.Logger
}

func NewQueryService(repo *repository.Repository, deps Dependencies, log *zap.Logger) QueryService {
	return &queryService{
		repo: repo,
		deps: deps.withDefaults(log),
		log:  log.With(zap.String("service", "reservation_query")),
	}
}

func (s *queryService) GetReservation(ctx context.Context, reservationID string) (*response.ReservationResponse, error) {
	id, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid reservation ID %s", ErrValidation, reservationID)
	}

	res, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get reservation", zap.String("reservation_id", reservationID), zap.Error(err))
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	if res == nil {
		return nil, ErrReservationNotFound
	}

	items, err := s.withMemberNames(ctx, []*entity.Reservation{res})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *queryService) FindGuestReservation(ctx context.Context, req *request.GuestLookupRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
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

	res, err := s.repo.Reservation.FindActiveByRequester(ctx, scheduleID, requester)
	if err != nil {
		s.log.Error("Failed to look up guest reservation", zap.String("schedule_id", req.ScheduleID), zap.Error(err))
		return nil, fmt.Errorf("find guest reservation: %w", err)
	}
	if res == nil {
		return nil, ErrReservationNotFound
	}

	resp := response.ReservationToResponse(res)
	return &resp, nil
}

func (s *queryService) MyReservation(ctx context.Context, scheduleID, memberID string) (*response.ReservationResponse, error) {
	sid, err := uuid.Parse(scheduleID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schedule ID %s", ErrValidation, scheduleID)
	}
	mid, err := uuid.Parse(memberID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid member ID %s", ErrValidation, memberID)
	}

	res, err := s.repo.Reservation.FindLatestByRequester(ctx, sid, entity.MemberRequester(mid))
	if err != nil {
		return nil, fmt.Errorf("find member reservation: %w", err)
	}
	if res == nil {
		return nil, ErrReservationNotFound
	}

	resp := response.ReservationToResponse(res)
	return &resp, nil
}

func (s *queryService) ListBySchedule(ctx context.Context, req *request.ListScheduleReservationsRequest) ([]response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	scheduleID, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schedule ID %s", ErrValidation, req.ScheduleID)
	}

	schedule, err := s.repo.Schedule.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("find schedule: %w", err)
	}
	if schedule == nil {
		return nil, ErrScheduleNotFound
	}

	var status *entity.ReservationStatus
	if req.Status != "" {
		st := entity.ReservationStatus(req.Status)
		status = &st
	}

	items, err := s.repo.Reservation.FindBySchedule(ctx, scheduleID, status)
	if err != nil {
		s.log.Error("Failed to list reservations by schedule", zap.String("schedule_id", req.ScheduleID), zap.Error(err))
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return s.withMemberNames(ctx, items)
}

func (s *queryService) ListByRequester(ctx context.Context, memberID string) ([]response.ReservationResponse, error) {
	id, err := uuid.Parse(memberID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid member ID %s", ErrValidation, memberID)
	}

	items, err := s.repo.Reservation.FindByRequester(ctx, entity.MemberRequester(id))
	if err != nil {
		s.log.Error("Failed to list member reservations", zap.String("member_id", memberID), zap.Error(err))
		return nil, fmt.Errorf("list member reservations: %w", err)
	}
	return response.ReservationsToResponse(items), nil
}

// ListByGuest lists every reservation a guest made across schedules, any status
func (s *queryService) ListByGuest(ctx context.Context, req *request.GuestReservationsRequest) ([]response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	requester, err := req.Requester()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	items, err := s.repo.Reservation.FindByRequester(ctx, requester)
	if err != nil {
		s.log.Error("Failed to list guest reservations", zap.Error(err))
		return nil, fmt.Errorf("list guest reservations: %w", err)
	}
	return response.ReservationsToResponse(items), nil
}

func (s *queryService) Search(ctx context.Context, req *request.SearchReservationsRequest) (*response.PaginatedResponse[response.ReservationResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	filter := repository.ReservationFilter{
		Limit:  req.Limit(),
		Offset: req.Offset(),
	}

	var err error
	if filter.ScheduleID, err = utils.ParseUUIDParam(req.ScheduleID); err != nil {
		return nil, fmt.Errorf("%w: schedule_id", ErrValidation)
	}
	if filter.MemberID, err = utils.ParseUUIDParam(req.MemberID); err != nil {
		return nil, fmt.Errorf("%w: member_id", ErrValidation)
	}
	if filter.CreatedFrom, err = utils.ParseTimeParam(req.CreatedFrom); err != nil {
		return nil, fmt.Errorf("%w: created_from", ErrValidation)
	}
	if filter.CreatedTo, err = utils.ParseTimeParam(req.CreatedTo); err != nil {
		return nil, fmt.Errorf("%w: created_to", ErrValidation)
	}
	if req.Status != "" {
		st := entity.ReservationStatus(req.Status)
		filter.Status = &st
	}
	if req.GuestPhone != "" {
		phone := utils.NormalizePhone(req.GuestPhone)
		filter.GuestPhone = &phone
	}

	items, total, err := s.repo.Reservation.Search(ctx, filter)
	if err != nil {
		s.log.Error("Failed to search reservations", zap.Error(err))
		return nil, fmt.Errorf("search reservations: %w", err)
	}

	data, err := s.withMemberNames(ctx, items)
	if err != nil {
		return nil, err
	}
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *queryService) Statistics(ctx context.Context, scheduleID string) (*response.ReservationStatisticsResponse, error) {
	id, err := utils.ParseUUIDParam(scheduleID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schedule ID %s", ErrValidation, scheduleID)
	}

	counts, err := s.repo.Reservation.CountByStatus(ctx, id)
	if err != nil {
		s.log.Error("Failed to count reservations", zap.Error(err))
		return nil, fmt.Errorf("count reservations: %w", err)
	}

	stats := &response.ReservationStatisticsResponse{
		Requested: counts[entity.ReservationStatusRequested],
		Confirmed: counts[entity.ReservationStatusConfirmed],
		Canceled:  counts[entity.ReservationStatusCanceled],
	}
	stats.Total = stats.Requested + stats.Confirmed + stats.Canceled
	if id != nil {
		sid := id.String()
		stats.ScheduleID = &sid
	}
	return stats, nil
}

// withMemberNames converts items and resolves member display names through
// the identity collaborator. A lookup failure degrades to ids only.
func (s *queryService) withMemberNames(ctx context.Context, items []*entity.Reservation) ([]response.ReservationResponse, error) {
	out := response.ReservationsToResponse(items)

	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, res := range items {
		if id := res.Requester.MemberID; id != nil {
			if _, ok := seen[*id]; !ok {
				seen[*id] = struct{}{}
				ids = append(ids, *id)
			}
		}
	}
	if len(ids) == 0 {
		return out, nil
	}

	names, err := s.repo.User.FindDisplayNames(ctx, ids)
	if err != nil {
		s.log.Warn("Failed to resolve member names", zap.Int("count", len(ids)), zap.Error(err))
		return out, nil
	}

	for i, res := range items {
		if id := res.Requester.MemberID; id != nil {
			if name, ok := names[*id]; ok {
				n := name
				out[i].MemberName = &n
			}
		}
	}
	return out, nil
}
