package adaptor

import (
	"net/http"

	"explanation-booking/internal/dto/request"
	"explanation-booking/internal/usecase"
	"explanation-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReservationHandler struct {
	service usecase.ReservationService
	query   usecase.QueryService
	log     *zap.Logger
}

func NewReservationHandler(service usecase.ReservationService, query usecase.QueryService, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		query:   query,
		log:     log.With(zap.String("handler", "reservation")),
	}
}

// Reserve handles POST /api/explanations/schedules/{scheduleId}/reservations.
// Members are taken from the session; guests send guest_name and guest_phone.
func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req request.ReserveRequest
	if err := decodeBody(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	req.ScheduleID = chi.URLParam(r, "scheduleId")
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		req.MemberID = userID.String()
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	reservation, err := h.service.Reserve(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "reserve")
		return
	}

	utils.ResponseCreated(w, "Reservation confirmed", reservation)
}

// Cancel handles DELETE /api/explanations/schedules/{scheduleId}/reservations/{reservationId}
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req request.CancelReservationRequest
	if err := decodeBody(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	req.ScheduleID = chi.URLParam(r, "scheduleId")
	req.ReservationID = chi.URLParam(r, "reservationId")
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		req.MemberID = userID.String()
	}

	result, err := h.service.Cancel(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "cancel reservation")
		return
	}

	message := "Reservation canceled"
	if result.AlreadyCanceled {
		message = "Reservation was already canceled"
	}
	utils.ResponseSuccess(w, message, result)
}

// GuestSearch handles POST /api/explanations/schedules/{scheduleId}/guest/reservations/search
func (h *ReservationHandler) GuestSearch(w http.ResponseWriter, r *http.Request) {
	var req request.GuestLookupRequest
	if err := decodeBody(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	req.ScheduleID = chi.URLParam(r, "scheduleId")

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	reservation, err := h.query.FindGuestReservation(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "guest reservation search")
		return
	}

	utils.ResponseSuccess(w, "success", reservation)
}

// MyReservation handles GET /api/explanations/schedules/{scheduleId}/my-reservation (protected)
func (h *ReservationHandler) MyReservation(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	reservation, err := h.query.MyReservation(r.Context(), chi.URLParam(r, "scheduleId"), userID.String())
	if err != nil {
		writeServiceError(w, h.log, err, "get my reservation")
		return
	}

	utils.ResponseSuccess(w, "success", reservation)
}

// MyReservations handles GET /api/user/reservations (protected)
func (h *ReservationHandler) MyReservations(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	reservations, err := h.query.ListByRequester(r.Context(), userID.String())
	if err != nil {
		writeServiceError(w, h.log, err, "list my reservations")
		return
	}

	utils.ResponseSuccess(w, "success", reservations)
}

// GuestReservations handles POST /api/explanations/guest/reservations/search
func (h *ReservationHandler) GuestReservations(w http.ResponseWriter, r *http.Request) {
	var req request.GuestReservationsRequest
	if err := decodeBody(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	reservations, err := h.query.ListByGuest(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "list guest reservations")
		return
	}

	utils.ResponseSuccess(w, "success", reservations)
}
