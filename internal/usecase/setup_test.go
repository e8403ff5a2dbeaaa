package usecase

import (
	"context"
	"testing"
	"time"

	"explanation-booking/internal/data/entity"
	"explanation-booking/internal/data/memstore"
	"explanation-booking/internal/data/repository"
	"explanation-booking/internal/dto/request"
	"explanation-booking/pkg/notify"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, event notify.ReservationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type testEnv struct {
	store *memstore.Store
	repo  *repository.Repository
	svc   *Service
	now   time.Time
}

func newTestEnv(t *testing.T, notifier notify.Notifier) *testEnv {
	t.Helper()

	log := zap.NewNop()
	store := memstore.New(log)
	env := &testEnv{
		store: store,
		repo:  store.Repository(),
		now:   testNow,
	}

	deps := Dependencies{
		Notifier: notifier,
		Now:      func() time.Time { return env.now },
	}
	env.svc = &Service{
		Reservation: NewReservationService(env.repo, deps, time.Second, log),
		Query:       NewQueryService(env.repo, deps, log),
		Schedule:    NewScheduleService(env.repo, deps, log),
	}
	return env
}

// seedSchedule stores an open schedule whose apply window spans testNow
func (e *testEnv) seedSchedule(t *testing.T, capacity *int, opts ...func(*entity.Schedule)) *entity.Schedule {
	t.Helper()

	schedule := &entity.Schedule{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: testNow, UpdatedAt: testNow},
		RoundNo:      1,
		StartAt:      testNow.Add(72 * time.Hour),
		EndAt:        testNow.Add(74 * time.Hour),
		Location:     "Main hall",
		ApplyStartAt: testNow.Add(-24 * time.Hour),
		ApplyEndAt:   testNow.Add(24 * time.Hour),
		Status:       entity.ScheduleStatusReservable,
		Capacity:     capacity,
	}
	for _, opt := range opts {
		opt(schedule)
	}
	require.NoError(t, e.repo.Schedule.Create(context.Background(), schedule))
	return schedule
}

func (e *testEnv) schedule(t *testing.T, id uuid.UUID) *entity.Schedule {
	t.Helper()
	schedule, err := e.repo.Schedule.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, schedule)
	return schedule
}

func (e *testEnv) confirmedCount(t *testing.T, scheduleID uuid.UUID) int {
	t.Helper()
	status := entity.ReservationStatusConfirmed
	items, err := e.repo.Reservation.FindBySchedule(context.Background(), scheduleID, &status)
	require.NoError(t, err)
	return len(items)
}

func intPtr(v int) *int { return &v }

func memberReserve(scheduleID, memberID uuid.UUID) *request.ReserveRequest {
	return &request.ReserveRequest{
		ScheduleID: scheduleID.String(),
		MemberID:   memberID.String(),
	}
}

func guestReserve(scheduleID uuid.UUID, name, phone string) *request.ReserveRequest {
	return &request.ReserveRequest{
		ScheduleID:    scheduleID.String(),
		GuestIdentity: request.GuestIdentity{GuestName: name, GuestPhone: phone},
	}
}

func silentNotifier() notify.Notifier {
	return notify.NewLogNotifier(zap.NewNop())
}
