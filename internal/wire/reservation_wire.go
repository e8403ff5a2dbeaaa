package wire

import (
	"explanation-booking/internal/adaptor"
	"explanation-booking/internal/data/repository"
	"explanation-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReservation(
	r chi.Router,
	reservationHandler *adaptor.ReservationHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	const base = "/api/explanations/schedules/{scheduleId}"

	// ==================== MEMBER OR GUEST ROUTES ====================
	// A bearer token identifies a member; without one the body carries the guest identity
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(repo.Session, log))

		// POST /api/explanations/schedules/{scheduleId}/reservations - Reserve a seat
		r.Post(base+"/reservations", reservationHandler.Reserve)

		// DELETE /api/explanations/schedules/{scheduleId}/reservations/{reservationId} - Cancel own reservation
		r.Delete(base+"/reservations/{reservationId}", reservationHandler.Cancel)
	})

	// ==================== PUBLIC ROUTES ====================
	// POST /api/explanations/schedules/{scheduleId}/guest/reservations/search - Guest lookup
	r.Post(base+"/guest/reservations/search", reservationHandler.GuestSearch)

	// POST /api/explanations/guest/reservations/search - All reservations of a guest
	r.Post("/api/explanations/guest/reservations/search", reservationHandler.GuestReservations)

	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// GET /api/explanations/schedules/{scheduleId}/my-reservation - Latest member reservation
		r.Get(base+"/my-reservation", reservationHandler.MyReservation)

		// GET /api/user/reservations - Reservation history of the member
		r.Get("/api/user/reservations", reservationHandler.MyReservations)
	})
}
