package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"explanation-booking/internal/data/entity"
	"explanation-booking/internal/dto/request"
	"explanation-booking/pkg/notify"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReserve_Member(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, intPtr(10))
	memberID := uuid.New()

	res, err := env.svc.Reservation.Reserve(context.Background(), memberReserve(schedule.ID, memberID))

	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusConfirmed, res.Status)
	assert.Equal(t, schedule.ID.String(), res.ScheduleID)
	require.NotNil(t, res.MemberID)
	assert.Equal(t, memberID.String(), *res.MemberID)
	assert.Nil(t, res.GuestName)
	assert.Equal(t, 1, env.schedule(t, schedule.ID).ReservedCount)
	assert.Equal(t, 1, env.confirmedCount(t, schedule.ID))
}

func TestReserve_GuestPhoneIsNormalized(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, nil)

	res, err := env.svc.Reservation.Reserve(context.Background(), guestReserve(schedule.ID, " Kim ", "010-1234-5678"))

	require.NoError(t, err)
	require.NotNil(t, res.GuestPhone)
	assert.Equal(t, "01012345678", *res.GuestPhone)
	assert.Equal(t, "Kim", *res.GuestName)
	assert.Nil(t, res.MemberID)
}

func TestReserve_ScheduleNotFound(t *testing.T) {
	env := newTestEnv(t, silentNotifier())

	_, err := env.svc.Reservation.Reserve(context.Background(), memberReserve(uuid.New(), uuid.New()))

	assert.ErrorIs(t, err, ErrScheduleNotFound)
	assert.Equal(t, CodeScheduleNotFound, ErrorCode(err))
}

func TestReserve_InvalidRequester(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, nil)

	tests := []struct {
		name string
		req  *request.ReserveRequest
	}{
		{name: "neither form", req: &request.ReserveRequest{ScheduleID: schedule.ID.String()}},
		{
			name: "both forms",
			req: &request.ReserveRequest{
				ScheduleID:    schedule.ID.String(),
				MemberID:      uuid.New().String(),
				GuestIdentity: request.GuestIdentity{GuestName: "Kim", GuestPhone: "01012345678"},
			},
		},
		{name: "guest without phone", req: guestReserve(schedule.ID, "Kim", "")},
		{name: "guest with bad phone", req: guestReserve(schedule.ID, "Kim", "abc")},
		{name: "bad schedule id", req: &request.ReserveRequest{ScheduleID: "nope", MemberID: uuid.New().String()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Reservation.Reserve(context.Background(), tt.req)

			assert.Error(t, err)
			assert.Equal(t, CodeValidationFailed, ErrorCode(err))
		})
	}
	assert.Equal(t, 0, env.schedule(t, schedule.ID).ReservedCount)
}

func TestReserve_NotOpen(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, intPtr(5), func(s *entity.Schedule) {
		s.Status = entity.ScheduleStatusClosed
	})

	_, err := env.svc.Reservation.Reserve(context.Background(), memberReserve(schedule.ID, uuid.New()))

	assert.ErrorIs(t, err, ErrNotReservable)
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.Equal(t, CodeNotOpen, ErrorCode(err))
}

func TestReserve_WindowEnforcement(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, intPtr(100))

	tests := []struct {
		name string
		now  time.Time
		want error
	}{
		{name: "before apply start", now: schedule.ApplyStartAt.Add(-time.Second), want: ErrOutOfWindow},
		{name: "after apply end", now: schedule.ApplyEndAt.Add(time.Second), want: ErrOutOfWindow},
		{name: "at apply start", now: schedule.ApplyStartAt},
		{name: "at apply end", now: schedule.ApplyEndAt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.now = tt.now
			before := env.schedule(t, schedule.ID).ReservedCount

			_, err := env.svc.Reservation.Reserve(context.Background(), memberReserve(schedule.ID, uuid.New()))

			after := env.schedule(t, schedule.ID).ReservedCount
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				assert.Equal(t, CodeOutOfWindow, ErrorCode(err))
				assert.Equal(t, before, after)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, before+1, after)
		})
	}
}

func TestReserve_DuplicateMember(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, intPtr(10))
	memberID := uuid.New()

	_, err := env.svc.Reservation.Reserve(context.Background(), memberReserve(schedule.ID, memberID))
	require.NoError(t, err)

	_, err = env.svc.Reservation.Reserve(context.Background(), memberReserve(schedule.ID, memberID))

	assert.ErrorIs(t, err, ErrDuplicateReservation)
	assert.Equal(t, CodeDuplicateReservation, ErrorCode(err))
	assert.Equal(t, 1, env.schedule(t, schedule.ID).ReservedCount)
	assert.Equal(t, 1, env.confirmedCount(t, schedule.ID))
}

func TestReserve_DuplicateGuest(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, intPtr(10))

	_, err := env.svc.Reservation.Reserve(context.Background(), guestReserve(schedule.ID, "Kim", "010-1234-5678"))
	require.NoError(t, err)

	_, err = env.svc.Reservation.Reserve(context.Background(), guestReserve(schedule.ID, "Kim", "01012345678"))
	assert.ErrorIs(t, err, ErrDuplicateReservation)

	// a different name on the same phone is a different guest
	_, err = env.svc.Reservation.Reserve(context.Background(), guestReserve(schedule.ID, "Lee", "01012345678"))
	assert.NoError(t, err)

	assert.Equal(t, 2, env.schedule(t, schedule.ID).ReservedCount)
}

func TestReserve_AfterCancelSameRequesterMayRebook(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, intPtr(1))
	memberID := uuid.New()
	ctx := context.Background()

	first, err := env.svc.Reservation.Reserve(ctx, memberReserve(schedule.ID, memberID))
	require.NoError(t, err)
	_, err = env.svc.Reservation.Cancel(ctx, &request.CancelReservationRequest{
		ScheduleID:    schedule.ID.String(),
		ReservationID: first.ID,
		MemberID:      memberID.String(),
	})
	require.NoError(t, err)

	second, err := env.svc.Reservation.Reserve(ctx, memberReserve(schedule.ID, memberID))

	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, env.schedule(t, schedule.ID).ReservedCount)
}

func TestReserve_NoOversellUnderConcurrency(t *testing.T) {
	const capacity, extra = 5, 7

	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, intPtr(capacity))

	var (
		wg        sync.WaitGroup
		confirmed atomic.Int32
		full      atomic.Int32
		other     atomic.Int32
		start     = make(chan struct{})
	)

	for i := 0; i < capacity+extra; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.svc.Reservation.Reserve(context.Background(), memberReserve(schedule.ID, uuid.New()))
			switch {
			case err == nil:
				confirmed.Add(1)
			case errors.Is(err, ErrCapacityFull):
				full.Add(1)
			default:
				other.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(capacity), confirmed.Load())
	assert.Equal(t, int32(extra), full.Load())
	assert.Zero(t, other.Load())
	assert.Equal(t, capacity, env.schedule(t, schedule.ID).ReservedCount)
	assert.Equal(t, capacity, env.confirmedCount(t, schedule.ID))
}

func TestReserve_LastSeatRace(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, intPtr(1))

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Reservation.Reserve(context.Background(), memberReserve(schedule.ID, uuid.New()))
		}(i)
	}
	wg.Wait()

	var ok, full int
	for _, err := range errs {
		if err == nil {
			ok++
		} else if ErrorCode(err) == CodeCapacityFull {
			full++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, full)
	assert.Equal(t, 1, env.schedule(t, schedule.ID).ReservedCount)
}

func TestReserve_CallerTimeoutLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, intPtr(3))

	// hold the schedule lock so the reserve below cannot get it
	locked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = env.repo.Tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
			_, err := env.repo.Schedule.FindByIDForUpdate(ctx, schedule.ID)
			close(locked)
			<-release
			return err
		})
	}()
	<-locked

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := env.svc.Reservation.Reserve(ctx, memberReserve(schedule.ID, uuid.New()))
	close(release)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, CodeInternal, ErrorCode(err))
	assert.Equal(t, 0, env.schedule(t, schedule.ID).ReservedCount)
	assert.Equal(t, 0, env.confirmedCount(t, schedule.ID))
}

func TestCancel_Idempotent(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, intPtr(2))
	memberID := uuid.New()
	ctx := context.Background()

	res, err := env.svc.Reservation.Reserve(ctx, memberReserve(schedule.ID, memberID))
	require.NoError(t, err)

	cancelReq := &request.CancelReservationRequest{
		ScheduleID:    schedule.ID.String(),
		ReservationID: res.ID,
		MemberID:      memberID.String(),
	}

	first, err := env.svc.Reservation.Cancel(ctx, cancelReq)
	require.NoError(t, err)
	assert.False(t, first.AlreadyCanceled)
	assert.Equal(t, 0, env.schedule(t, schedule.ID).ReservedCount)

	second, err := env.svc.Reservation.Cancel(ctx, cancelReq)
	require.NoError(t, err)
	assert.True(t, second.AlreadyCanceled)
	assert.Equal(t, 0, env.schedule(t, schedule.ID).ReservedCount)

	got, err := env.repo.Reservation.FindByID(ctx, uuid.MustParse(res.ID))
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusCanceled, got.Status)
	assert.NotNil(t, got.CanceledAt)
}

func TestCancel_ReleasesSeatForNewRequester(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, intPtr(2))
	memberID := uuid.New()
	ctx := context.Background()

	res, err := env.svc.Reservation.Reserve(ctx, memberReserve(schedule.ID, memberID))
	require.NoError(t, err)
	require.Equal(t, 1, env.schedule(t, schedule.ID).ReservedCount)

	_, err = env.svc.Reservation.Cancel(ctx, &request.CancelReservationRequest{
		ScheduleID:    schedule.ID.String(),
		ReservationID: res.ID,
		MemberID:      memberID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, env.schedule(t, schedule.ID).ReservedCount)

	_, err = env.svc.Reservation.Reserve(ctx, guestReserve(schedule.ID, "Park", "01099998888"))
	require.NoError(t, err)
	assert.Equal(t, 1, env.schedule(t, schedule.ID).ReservedCount)
	assert.Equal(t, 1, env.confirmedCount(t, schedule.ID))
}

func TestCancel_ConcurrentRepeatsDecrementOnce(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, intPtr(3))
	ctx := context.Background()

	_, err := env.svc.Reservation.Reserve(ctx, memberReserve(schedule.ID, uuid.New()))
	require.NoError(t, err)
	res, err := env.svc.Reservation.Reserve(ctx, guestReserve(schedule.ID, "Kim", "01012345678"))
	require.NoError(t, err)
	require.Equal(t, 2, env.schedule(t, schedule.ID).ReservedCount)

	const callers = 8
	var (
		wg        sync.WaitGroup
		effective atomic.Int32
		repeated  atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := env.svc.Reservation.Cancel(ctx, &request.CancelReservationRequest{
				ScheduleID:    schedule.ID.String(),
				ReservationID: res.ID,
				GuestIdentity: request.GuestIdentity{GuestName: "Kim", GuestPhone: "010-1234-5678"},
			})
			if !assert.NoError(t, err) {
				return
			}
			if out.AlreadyCanceled {
				repeated.Add(1)
			} else {
				effective.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), effective.Load())
	assert.Equal(t, int32(callers-1), repeated.Load())
	assert.Equal(t, 1, env.schedule(t, schedule.ID).ReservedCount)
	assert.Equal(t, 1, env.confirmedCount(t, schedule.ID))
}

func TestCancel_CounterFloor(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, intPtr(2))
	ctx := context.Background()
	memberID := uuid.New()

	// a confirmed row the counter does not know about
	drifted := &entity.Reservation{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: testNow, UpdatedAt: testNow},
		ScheduleID:   schedule.ID,
		Requester:    entity.MemberRequester(memberID),
		Status:       entity.ReservationStatusConfirmed,
	}
	require.NoError(t, env.repo.Reservation.Create(ctx, drifted))

	out, err := env.svc.Reservation.Cancel(ctx, &request.CancelReservationRequest{
		ReservationID: drifted.ID.String(),
		MemberID:      memberID.String(),
	})

	require.NoError(t, err)
	assert.False(t, out.AlreadyCanceled)
	assert.Equal(t, 0, env.schedule(t, schedule.ID).ReservedCount)
}

func TestCancel_NotFound(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, nil)
	other := env.seedSchedule(t, nil)
	memberID := uuid.New()
	ctx := context.Background()

	res, err := env.svc.Reservation.Reserve(ctx, memberReserve(schedule.ID, memberID))
	require.NoError(t, err)

	_, err = env.svc.Reservation.Cancel(ctx, &request.CancelReservationRequest{
		ReservationID: uuid.NewString(),
		MemberID:      memberID.String(),
	})
	assert.ErrorIs(t, err, ErrReservationNotFound)

	// the reservation exists, but not under this schedule
	_, err = env.svc.Reservation.Cancel(ctx, &request.CancelReservationRequest{
		ScheduleID:    other.ID.String(),
		ReservationID: res.ID,
		MemberID:      memberID.String(),
	})
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.Equal(t, 1, env.schedule(t, schedule.ID).ReservedCount)
}

func TestCancel_Ownership(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, nil)
	ctx := context.Background()
	owner := uuid.New()

	memberRes, err := env.svc.Reservation.Reserve(ctx, memberReserve(schedule.ID, owner))
	require.NoError(t, err)
	guestRes, err := env.svc.Reservation.Reserve(ctx, guestReserve(schedule.ID, "Kim", "01012345678"))
	require.NoError(t, err)

	tests := []struct {
		name string
		req  request.CancelReservationRequest
		want error
	}{
		{
			name: "another member",
			req:  request.CancelReservationRequest{ReservationID: memberRes.ID, MemberID: uuid.NewString()},
			want: ErrForbidden,
		},
		{
			name: "guest against a member reservation",
			req: request.CancelReservationRequest{
				ReservationID: memberRes.ID,
				GuestIdentity: request.GuestIdentity{GuestName: "Kim", GuestPhone: "01012345678"},
			},
			want: ErrForbidden,
		},
		{
			name: "guest with another phone",
			req: request.CancelReservationRequest{
				ReservationID: guestRes.ID,
				GuestIdentity: request.GuestIdentity{GuestName: "Kim", GuestPhone: "01000000000"},
			},
			want: ErrForbidden,
		},
		{
			name: "owner guest",
			req: request.CancelReservationRequest{
				ReservationID: guestRes.ID,
				GuestIdentity: request.GuestIdentity{GuestName: "Kim", GuestPhone: "010 1234 5678"},
			},
		},
		{
			name: "admin",
			req:  request.CancelReservationRequest{ReservationID: memberRes.ID, MemberID: uuid.NewString(), IsAdmin: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := env.svc.Reservation.Cancel(ctx, &req)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				assert.Equal(t, CodeForbidden, ErrorCode(err))
				return
			}
			assert.NoError(t, err)
		})
	}
	assert.Equal(t, 0, env.schedule(t, schedule.ID).ReservedCount)
}

func TestReserve_NotifiesAfterCommit(t *testing.T) {
	notifier := new(mockNotifier)
	env := newTestEnv(t, notifier)
	schedule := env.seedSchedule(t, intPtr(1))
	memberID := uuid.New()

	events := make(chan notify.ReservationEvent, 2)
	notifier.On("Notify", mock.Anything, mock.AnythingOfType("notify.ReservationEvent")).
		Run(func(args mock.Arguments) {
			events <- args.Get(1).(notify.ReservationEvent)
		}).
		Return(nil)

	res, err := env.svc.Reservation.Reserve(context.Background(), memberReserve(schedule.ID, memberID))
	require.NoError(t, err)

	select {
	case event := <-events:
		assert.Equal(t, notify.EventReservationConfirmed, event.Type)
		assert.Equal(t, res.ID, event.ReservationID.String())
		assert.Equal(t, schedule.ID, event.ScheduleID)
		require.NotNil(t, event.MemberID)
		assert.Equal(t, memberID, *event.MemberID)
		assert.Equal(t, "Main hall", event.Location)
	case <-time.After(time.Second):
		t.Fatal("notification was not published")
	}
	notifier.AssertExpectations(t)
}

func TestReserve_NotifierFailureDoesNotFailReservation(t *testing.T) {
	notifier := new(mockNotifier)
	env := newTestEnv(t, notifier)
	schedule := env.seedSchedule(t, intPtr(1))

	called := make(chan struct{}, 1)
	notifier.On("Notify", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { called <- struct{}{} }).
		Return(errors.New("broker down"))

	res, err := env.svc.Reservation.Reserve(context.Background(), memberReserve(schedule.ID, uuid.New()))

	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("notifier was not called")
	}
	assert.Equal(t, 1, env.schedule(t, schedule.ID).ReservedCount)
}

func TestCancel_NotifiesOnlyOnEffectiveCancel(t *testing.T) {
	notifier := new(mockNotifier)
	env := newTestEnv(t, notifier)
	schedule := env.seedSchedule(t, nil)
	memberID := uuid.New()
	ctx := context.Background()

	var canceledEvents atomic.Int32
	confirmed := make(chan struct{}, 1)
	canceled := make(chan struct{}, 2)
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e notify.ReservationEvent) bool {
		return e.Type == notify.EventReservationConfirmed
	})).Run(func(mock.Arguments) { confirmed <- struct{}{} }).Return(nil)
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e notify.ReservationEvent) bool {
		return e.Type == notify.EventReservationCanceled
	})).Run(func(mock.Arguments) {
		canceledEvents.Add(1)
		canceled <- struct{}{}
	}).Return(nil)

	res, err := env.svc.Reservation.Reserve(ctx, memberReserve(schedule.ID, memberID))
	require.NoError(t, err)
	<-confirmed

	req := &request.CancelReservationRequest{ReservationID: res.ID, MemberID: memberID.String()}
	_, err = env.svc.Reservation.Cancel(ctx, req)
	require.NoError(t, err)
	out, err := env.svc.Reservation.Cancel(ctx, req)
	require.NoError(t, err)
	require.True(t, out.AlreadyCanceled)

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("cancel notification was not published")
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), canceledEvents.Load())
}

func TestUpdateMemo(t *testing.T) {
	env := newTestEnv(t, silentNotifier())
	schedule := env.seedSchedule(t, nil)
	ctx := context.Background()

	res, err := env.svc.Reservation.Reserve(ctx, memberReserve(schedule.ID, uuid.New()))
	require.NoError(t, err)

	memo := "needs wheelchair access"
	out, err := env.svc.Reservation.UpdateMemo(ctx, res.ID, &request.UpdateMemoRequest{Memo: &memo})
	require.NoError(t, err)
	require.NotNil(t, out.Memo)
	assert.Equal(t, memo, *out.Memo)

	stored, err := env.repo.Reservation.FindByID(ctx, uuid.MustParse(res.ID))
	require.NoError(t, err)
	assert.Equal(t, memo, *stored.Memo)

	_, err = env.svc.Reservation.UpdateMemo(ctx, uuid.NewString(), &request.UpdateMemoRequest{Memo: &memo})
	assert.ErrorIs(t, err, ErrReservationNotFound)
}
