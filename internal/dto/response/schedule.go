package response

import (
	"time"

	"explanation-booking/internal/data/entity"
)

type ScheduleResponse struct {
	ID            string                `json:"id"`
	ExplanationID *string               `json:"explanation_id,omitempty"`
	RoundNo       int                   `json:"round_no"`
	StartAt       time.Time             `json:"start_at"`
	EndAt         time.Time             `json:"end_at"`
	Location      string                `json:"location"`
	ApplyStartAt  time.Time             `json:"apply_start_at"`
	ApplyEndAt    time.Time             `json:"apply_end_at"`
	Status        entity.ScheduleStatus `json:"status"`
	Capacity      *int                  `json:"capacity"`
	ReservedCount int                   `json:"reserved_count"`
	Remaining     *int                  `json:"remaining"`
	Reservable    bool                  `json:"reservable"`
	Reason        string                `json:"reason,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// ScheduleToResponse fills everything but Reservable and Reason, which depend
// on the evaluation time.
func ScheduleToResponse(s *entity.Schedule) ScheduleResponse {
	resp := ScheduleResponse{
		ID:            s.ID.String(),
		RoundNo:       s.RoundNo,
		StartAt:       s.StartAt,
		EndAt:         s.EndAt,
		Location:      s.Location,
		ApplyStartAt:  s.ApplyStartAt,
		ApplyEndAt:    s.ApplyEndAt,
		Status:        s.Status,
		Capacity:      s.Capacity,
		ReservedCount: s.ReservedCount,
		Remaining:     s.Remaining(),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.ExplanationID != nil {
		id := s.ExplanationID.String()
		resp.ExplanationID = &id
	}
	return resp
}
