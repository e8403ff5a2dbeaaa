package wire

import (
	"explanation-booking/internal/adaptor"
	"explanation-booking/internal/data/repository"
	"explanation-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(
	r chi.Router,
	handler *adaptor.Handler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/explanations", func(r chi.Router) {
		// Require both authentication AND admin role
		r.Use(middleware.AuthSession(repo.Session, log))
		r.Use(middleware.Admin(repo.User, log))

		r.Route("/schedules", func(r chi.Router) {
			// POST /api/admin/explanations/schedules - Create schedule
			r.Post("/", handler.Schedule.CreateSchedule)

			// PUT /api/admin/explanations/schedules/{scheduleId} - Edit schedule
			r.Put("/{scheduleId}", handler.Schedule.UpdateSchedule)

			// PATCH /api/admin/explanations/schedules/{scheduleId}/status - Open or close
			r.Patch("/{scheduleId}/status", handler.Schedule.UpdateScheduleStatus)

			// GET /api/admin/explanations/schedules/{scheduleId}/reservations?status=
			r.Get("/{scheduleId}/reservations", handler.Admin.ListBySchedule)
		})

		r.Route("/reservations", func(r chi.Router) {
			// GET /api/admin/explanations/reservations - Search (filters + pagination)
			r.Get("/", handler.Admin.Search)

			// GET /api/admin/explanations/reservations/statistics?schedule_id=
			r.Get("/statistics", handler.Admin.Statistics)

			// GET /api/admin/explanations/reservations/{reservationId}
			r.Get("/{reservationId}", handler.Admin.GetReservation)

			// POST /api/admin/explanations/reservations/{reservationId}/cancel - Force cancel
			r.Post("/{reservationId}/cancel", handler.Admin.Cancel)

			// PUT /api/admin/explanations/reservations/{reservationId}/memo
			r.Put("/{reservationId}/memo", handler.Admin.UpdateMemo)
		})
	})
}
