package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"explanation-booking/internal/usecase"
	"explanation-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Reservation *ReservationHandler
	Schedule    *ScheduleHandler
	Admin       *AdminHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Reservation: NewReservationHandler(service.Reservation, service.Query, log),
		Schedule:    NewScheduleHandler(service.Schedule, log),
		Admin:       NewAdminHandler(service.Reservation, service.Query, log),
	}
}

// decodeBody reads an optional JSON body; an empty body leaves dst untouched
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeServiceError maps usecase errors to the response envelope
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	code := usecase.ErrorCode(err)

	var status int
	switch code {
	case usecase.CodeScheduleNotFound, usecase.CodeReservationNotFound:
		status = http.StatusNotFound
	case usecase.CodeNotOpen, usecase.CodeOutOfWindow, usecase.CodeCapacityFull:
		status = http.StatusUnprocessableEntity
	case usecase.CodeDuplicateReservation, usecase.CodeCapacityBelowReserved:
		status = http.StatusConflict
	case usecase.CodeForbidden:
		status = http.StatusForbidden
	case usecase.CodeValidationFailed:
		status = http.StatusBadRequest
	default:
		log.Error(operation+" failed",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseError(w, http.StatusInternalServerError, usecase.CodeInternal, "Internal server error")
		return
	}

	log.Warn(operation+" rejected",
		zap.String("code", code),
		zap.String("operation", operation))
	utils.ResponseError(w, status, code, err.Error())
}
