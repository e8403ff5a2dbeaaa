package adaptor

import (
	"net/http"

	"explanation-booking/internal/dto/request"
	"explanation-booking/internal/usecase"
	"explanation-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ScheduleHandler struct {
	service usecase.ScheduleService
	log     *zap.Logger
}

func NewScheduleHandler(service usecase.ScheduleService, log *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		log:     log.With(zap.String("handler", "schedule")),
	}
}

// GetSchedule handles GET /api/explanations/schedules/{scheduleId}
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.GetSchedule(r.Context(), chi.URLParam(r, "scheduleId"))
	if err != nil {
		writeServiceError(w, h.log, err, "get schedule")
		return
	}

	utils.ResponseSuccess(w, "success", schedule)
}

// ListSchedules handles GET /api/explanations/schedules
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := request.ListSchedulesRequest{
		ExplanationID: query.Get("explanation_id"),
		Status:        query.Get("status"),
		StartFrom:     query.Get("start_from"),
		StartTo:       query.Get("start_to"),
		OpenOnly:      query.Get("open_only") == "true",
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 10),
		},
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	schedules, err := h.service.ListSchedules(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "list schedules")
		return
	}

	utils.ResponseSuccess(w, "success", schedules)
}

// CreateSchedule handles POST /api/admin/explanations/schedules (admin)
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	adminID, _ := utils.GetUserIDFromContext(r.Context())

	var req request.CreateScheduleRequest
	if err := decodeBody(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	schedule, err := h.service.CreateSchedule(r.Context(), adminID.String(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create schedule")
		return
	}

	utils.ResponseCreated(w, "Schedule created", schedule)
}

// UpdateSchedule handles PUT /api/admin/explanations/schedules/{scheduleId} (admin)
func (h *ScheduleHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	adminID, _ := utils.GetUserIDFromContext(r.Context())

	var req request.UpdateScheduleRequest
	if err := decodeBody(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	schedule, err := h.service.UpdateSchedule(r.Context(), adminID.String(), chi.URLParam(r, "scheduleId"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update schedule")
		return
	}

	utils.ResponseSuccess(w, "Schedule updated", schedule)
}

// UpdateScheduleStatus handles PATCH /api/admin/explanations/schedules/{scheduleId}/status (admin)
func (h *ScheduleHandler) UpdateScheduleStatus(w http.ResponseWriter, r *http.Request) {
	adminID, _ := utils.GetUserIDFromContext(r.Context())

	var req request.UpdateScheduleStatusRequest
	if err := decodeBody(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	schedule, err := h.service.UpdateScheduleStatus(r.Context(), adminID.String(), chi.URLParam(r, "scheduleId"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update schedule status")
		return
	}

	utils.ResponseSuccess(w, "Schedule status updated", schedule)
}
