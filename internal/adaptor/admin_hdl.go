package adaptor

import (
	"net/http"

	"explanation-booking/internal/dto/request"
	"explanation-booking/internal/usecase"
	"explanation-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminHandler serves the administrative reservation views
type AdminHandler struct {
	service usecase.ReservationService
	query   usecase.QueryService
	log     *zap.Logger
}

func NewAdminHandler(service usecase.ReservationService, query usecase.QueryService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		query:   query,
		log:     log.With(zap.String("handler", "admin_reservation")),
	}
}

// ListBySchedule handles GET /api/admin/explanations/schedules/{scheduleId}/reservations?status=
func (h *AdminHandler) ListBySchedule(w http.ResponseWriter, r *http.Request) {
	req := request.ListScheduleReservationsRequest{
		ScheduleID: chi.URLParam(r, "scheduleId"),
		Status:     r.URL.Query().Get("status"),
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	reservations, err := h.query.ListBySchedule(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "list schedule reservations")
		return
	}

	utils.ResponseSuccess(w, "success", reservations)
}

// Search handles GET /api/admin/explanations/reservations
func (h *AdminHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := request.SearchReservationsRequest{
		ScheduleID:  query.Get("schedule_id"),
		Status:      query.Get("status"),
		MemberID:    query.Get("member_id"),
		GuestPhone:  query.Get("guest_phone"),
		CreatedFrom: query.Get("created_from"),
		CreatedTo:   query.Get("created_to"),
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 10),
		},
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	page, err := h.query.Search(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "search reservations")
		return
	}

	utils.ResponseSuccess(w, "success", page)
}

// Statistics handles GET /api/admin/explanations/reservations/statistics?schedule_id=
func (h *AdminHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.query.Statistics(r.Context(), r.URL.Query().Get("schedule_id"))
	if err != nil {
		writeServiceError(w, h.log, err, "reservation statistics")
		return
	}

	utils.ResponseSuccess(w, "success", stats)
}

// GetReservation handles GET /api/admin/explanations/reservations/{reservationId}
func (h *AdminHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.query.GetReservation(r.Context(), chi.URLParam(r, "reservationId"))
	if err != nil {
		writeServiceError(w, h.log, err, "get reservation")
		return
	}

	utils.ResponseSuccess(w, "success", reservation)
}

// Cancel handles POST /api/admin/explanations/reservations/{reservationId}/cancel.
// Admins bypass the ownership check.
func (h *AdminHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	adminID, _ := utils.GetUserIDFromContext(r.Context())

	req := request.CancelReservationRequest{
		ReservationID: chi.URLParam(r, "reservationId"),
		MemberID:      adminID.String(),
		IsAdmin:       utils.IsAdmin(r.Context()),
	}

	result, err := h.service.Cancel(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "admin cancel reservation")
		return
	}

	message := "Reservation canceled"
	if result.AlreadyCanceled {
		message = "Reservation was already canceled"
	}
	utils.ResponseSuccess(w, message, result)
}

// UpdateMemo handles PUT /api/admin/explanations/reservations/{reservationId}/memo
func (h *AdminHandler) UpdateMemo(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateMemoRequest
	if err := decodeBody(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	reservation, err := h.service.UpdateMemo(r.Context(), chi.URLParam(r, "reservationId"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update memo")
		return
	}

	utils.ResponseSuccess(w, "Memo updated", reservation)
}
