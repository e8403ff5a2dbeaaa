package usecase

import (
	"context"
	"testing"
	"time"

	"explanation-booking/internal/data/entity"
	"explanation-booking/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindGuestReservation(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, nil)
	ctx := context.Background()

	res, err := env.svc.Reservation.Reserve(ctx, guestReserve(schedule.ID, "Kim", "010-1234-5678"))
	require.NoError(t, err)

	found, err := env.svc.Query.FindGuestReservation(ctx, &request.GuestLookupRequest{
		ScheduleID: schedule.ID.String(),
		GuestName:  "Kim",
		GuestPhone: "010 1234 5678",
	})
	require.NoError(t, err)
	assert.Equal(t, res.ID, found.ID)

	_, err = env.svc.Query.FindGuestReservation(ctx, &request.GuestLookupRequest{
		ScheduleID: schedule.ID.String(),
		GuestName:  "Lee",
		GuestPhone: "01012345678",
	})
	assert.ErrorIs(t, err, ErrReservationNotFound)

	_, err = env.svc.Query.FindGuestReservation(ctx, &request.GuestLookupRequest{ScheduleID: schedule.ID.String()})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMyReservation_ReturnsLatest(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, nil)
	memberID := uuid.New()
	ctx := context.Background()

	first, err := env.svc.Reservation.Reserve(ctx, memberReserve(schedule.ID, memberID))
	require.NoError(t, err)
	_, err = env.svc.Reservation.Cancel(ctx, &request.CancelReservationRequest{ReservationID: first.ID, MemberID: memberID.String()})
	require.NoError(t, err)

	env.now = env.now.Add(time.Minute)
	second, err := env.svc.Reservation.Reserve(ctx, memberReserve(schedule.ID, memberID))
	require.NoError(t, err)

	mine, err := env.svc.Query.MyReservation(ctx, schedule.ID.String(), memberID.String())
	require.NoError(t, err)
	assert.Equal(t, second.ID, mine.ID)
	assert.Equal(t, entity.ReservationStatusConfirmed, mine.Status)

	_, err = env.svc.Query.MyReservation(ctx, schedule.ID.String(), uuid.NewString())
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestListBySchedule(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, nil)
	ctx := context.Background()

	member := &entity.User{Base: entity.Base{ID: uuid.New()}, Username: "alice", Role: entity.RoleMember, IsActive: true}
	env.store.AddUser(member)

	memberRes, err := env.svc.Reservation.Reserve(ctx, memberReserve(schedule.ID, member.ID))
	require.NoError(t, err)
	guestRes, err := env.svc.Reservation.Reserve(ctx, guestReserve(schedule.ID, "Kim", "01012345678"))
	require.NoError(t, err)
	_, err = env.svc.Reservation.Cancel(ctx, &request.CancelReservationRequest{ReservationID: guestRes.ID, IsAdmin: true})
	require.NoError(t, err)

	all, err := env.svc.Query.ListBySchedule(ctx, &request.ListScheduleReservationsRequest{ScheduleID: schedule.ID.String()})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	confirmed, err := env.svc.Query.ListBySchedule(ctx, &request.ListScheduleReservationsRequest{
		ScheduleID: schedule.ID.String(),
		Status:     string(entity.ReservationStatusConfirmed),
	})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, memberRes.ID, confirmed[0].ID)
	require.NotNil(t, confirmed[0].MemberName)
	assert.Equal(t, "alice", *confirmed[0].MemberName)

	_, err = env.svc.Query.ListBySchedule(ctx, &request.ListScheduleReservationsRequest{ScheduleID: uuid.NewString()})
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestListByRequester(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	first := env.seedSchedule(t, nil)
	second := env.seedSchedule(t, nil)
	memberID := uuid.New()
	ctx := context.Background()

	for _, s := range []*entity.Schedule{first, second} {
		_, err := env.svc.Reservation.Reserve(ctx, memberReserve(s.ID, memberID))
		require.NoError(t, err)
	}
	_, err := env.svc.Reservation.Reserve(ctx, memberReserve(first.ID, uuid.New()))
	require.NoError(t, err)

	mine, err := env.svc.Query.ListByRequester(ctx, memberID.String())

	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, r := range mine {
		assert.Equal(t, memberID.String(), *r.MemberID)
	}
}

func TestListByGuest(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	first := env.seedSchedule(t, nil)
	second := env.seedSchedule(t, nil)
	ctx := context.Background()

	for _, s := range []*entity.Schedule{first, second} {
		_, err := env.svc.Reservation.Reserve(ctx, guestReserve(s.ID, "Kim", "010-1234-5678"))
		require.NoError(t, err)
	}
	_, err := env.svc.Reservation.Reserve(ctx, guestReserve(first.ID, "Kim", "010-9999-0000"))
	require.NoError(t, err)

	mine, err := env.svc.Query.ListByGuest(ctx, &request.GuestReservationsRequest{
		GuestName:  "Kim",
		GuestPhone: "010 1234 5678",
	})

	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, r := range mine {
		assert.Equal(t, "01012345678", *r.GuestPhone)
	}

	_, err = env.svc.Query.ListByGuest(ctx, &request.GuestReservationsRequest{GuestName: "Kim"})
	assert.Equal(t, CodeValidationFailed, ErrorCode(err))
}

func TestSearchAndStatistics(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, nil)
	other := env.seedSchedule(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.svc.Reservation.Reserve(ctx, memberReserve(schedule.ID, uuid.New()))
		require.NoError(t, err)
	}
	guest, err := env.svc.Reservation.Reserve(ctx, guestReserve(schedule.ID, "Kim", "010-5555-6666"))
	require.NoError(t, err)
	_, err = env.svc.Reservation.Cancel(ctx, &request.CancelReservationRequest{ReservationID: guest.ID, IsAdmin: true})
	require.NoError(t, err)
	_, err = env.svc.Reservation.Reserve(ctx, memberReserve(other.ID, uuid.New()))
	require.NoError(t, err)

	page, err := env.svc.Query.Search(ctx, &request.SearchReservationsRequest{
		ScheduleID:       schedule.ID.String(),
		Status:           string(entity.ReservationStatusConfirmed),
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	byPhone, err := env.svc.Query.Search(ctx, &request.SearchReservationsRequest{
		GuestPhone:       "010 5555 6666",
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 10},
	})
	require.NoError(t, err)
	require.Len(t, byPhone.Data, 1)
	assert.Equal(t, guest.ID, byPhone.Data[0].ID)

	stats, err := env.svc.Query.Statistics(ctx, schedule.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(3), stats.Confirmed)
	assert.Equal(t, int64(1), stats.Canceled)

	overall, err := env.svc.Query.Statistics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), overall.Total)
	assert.Nil(t, overall.ScheduleID)
}

func TestGetReservation(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, nil)
	ctx := context.Background()

	res, err := env.svc.Reservation.Reserve(ctx, guestReserve(schedule.ID, "Kim", "01012345678"))
	require.NoError(t, err)

	got, err := env.svc.Query.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)
	assert.Nil(t, got.MemberName)

	_, err = env.svc.Query.GetReservation(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrReservationNotFound)
}
