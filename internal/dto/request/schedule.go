package request

import "time"

type CreateScheduleRequest struct {
	ExplanationID *string   `json:"explanation_id" validate:"omitempty,uuid"`
	RoundNo       int       `json:"round_no" validate:"min=0"`
	StartAt       time.Time `json:"start_at" validate:"required"`
	EndAt         time.Time `json:"end_at" validate:"required,gtefield=StartAt"`
	Location      string    `json:"location" validate:"required,max=255"`
	ApplyStartAt  time.Time `json:"apply_start_at" validate:"required"`
	ApplyEndAt    time.Time `json:"apply_end_at" validate:"required,gtefield=ApplyStartAt"`
	Capacity      *int      `json:"capacity" validate:"omitempty,min=1"`
	Status        string    `json:"status" validate:"omitempty,oneof=RESERVABLE CLOSED"`
}

type UpdateScheduleRequest struct {
	StartAt      time.Time `json:"start_at" validate:"required"`
	EndAt        time.Time `json:"end_at" validate:"required,gtefield=StartAt"`
	Location     string    `json:"location" validate:"required,max=255"`
	ApplyStartAt time.Time `json:"apply_start_at" validate:"required"`
	ApplyEndAt   time.Time `json:"apply_end_at" validate:"required,gtefield=ApplyStartAt"`
	Capacity     *int      `json:"capacity" validate:"omitempty,min=1"`
	Status       string    `json:"status" validate:"required,oneof=RESERVABLE CLOSED"`
}

type UpdateScheduleStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=RESERVABLE CLOSED"`
}

type ListSchedulesRequest struct {
	ExplanationID string `json:"explanation_id" validate:"omitempty,uuid"`
	Status        string `json:"status" validate:"omitempty,oneof=RESERVABLE CLOSED"`
	StartFrom     string `json:"start_from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	StartTo       string `json:"start_to" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	OpenOnly      bool   `json:"open_only"`
	PaginatedRequest
}
