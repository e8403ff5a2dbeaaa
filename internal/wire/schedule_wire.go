package wire

import (
	"explanation-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireSchedule(r chi.Router, scheduleHandler *adaptor.ScheduleHandler) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/explanations/schedules - List schedules (filters + pagination)
	r.Get("/api/explanations/schedules", scheduleHandler.ListSchedules)

	// GET /api/explanations/schedules/{scheduleId} - Schedule detail with remaining seats
	r.Get("/api/explanations/schedules/{scheduleId}", scheduleHandler.GetSchedule)
}
