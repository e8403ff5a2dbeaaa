package usecase

import (
	"time"

	"explanation-booking/internal/data/repository"
	"explanation-booking/pkg/cache"
	"explanation-booking/pkg/metrics"
	"explanation-booking/pkg/notify"
	"explanation-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Reservation ReservationService
	Query       QueryService
	Schedule    ScheduleService
}

// Dependencies are the collaborators around the stores. Zero values fall
// back to a log-only notifier, no cache, no metrics and the wall clock.
type Dependencies struct {
	Notifier notify.Notifier
	Cache    cache.ScheduleCache
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

func (d Dependencies) withDefaults(log *zap.Logger) Dependencies {
	if d.Notifier == nil {
		d.Notifier = notify.NewLogNotifier(log)
	}
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func NewService(repo *repository.Repository, deps Dependencies, config *utils.Config, log *zap.Logger) *Service {
	deps = deps.withDefaults(log)

	return &Service{
		Reservation: NewReservationService(repo, deps, config.Notify.Timeout, log),
		Query:       NewQueryService(repo, deps, log),
		Schedule:    NewScheduleService(repo, deps, log),
	}
}
