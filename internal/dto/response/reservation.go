package response

import (
	"time"

	"explanation-booking/internal/data/entity"
)

type ReservationResponse struct {
	ID         string                   `json:"id"`
	ScheduleID string                   `json:"schedule_id"`
	MemberID   *string                  `json:"member_id,omitempty"`
	MemberName *string                  `json:"member_name,omitempty"`
	GuestName  *string                  `json:"guest_name,omitempty"`
	GuestPhone *string                  `json:"guest_phone,omitempty"`
	Status     entity.ReservationStatus `json:"status"`
	Memo       *string                  `json:"memo,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
	CanceledAt *time.Time               `json:"canceled_at,omitempty"`
}

type CancelReservationResponse struct {
	ReservationID   string `json:"reservation_id"`
	AlreadyCanceled bool   `json:"already_canceled"`
}

type ReservationStatisticsResponse struct {
	ScheduleID *string `json:"schedule_id,omitempty"`
	Total      int64   `json:"total"`
	Requested  int64   `json:"requested"`
	Confirmed  int64   `json:"confirmed"`
	Canceled   int64   `json:"canceled"`
}

func ReservationToResponse(res *entity.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID:         res.ID.String(),
		ScheduleID: res.ScheduleID.String(),
		GuestName:  res.Requester.GuestName,
		GuestPhone: res.Requester.GuestPhone,
		Status:     res.Status,
		Memo:       res.Memo,
		CreatedAt:  res.CreatedAt,
		UpdatedAt:  res.UpdatedAt,
		CanceledAt: res.CanceledAt,
	}
	if res.Requester.MemberID != nil {
		id := res.Requester.MemberID.String()
		resp.MemberID = &id
	}
	return resp
}

func ReservationsToResponse(items []*entity.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(items))
	for _, res := range items {
		out = append(out, ReservationToResponse(res))
	}
	return out
}
