package request

import (
	"strings"

	"explanation-booking/internal/data/entity"
	"explanation-booking/pkg/utils"

	"github.com/google/uuid"
)

// GuestIdentity is the name+phone pair a guest books and looks up with
type GuestIdentity struct {
	GuestName  string `json:"guest_name" validate:"omitempty,max=50"`
	GuestPhone string `json:"guest_phone" validate:"omitempty,phone"`
}

func (g GuestIdentity) provided() bool {
	return strings.TrimSpace(g.GuestName) != "" || strings.TrimSpace(g.GuestPhone) != ""
}

// requester builds the identity from the session member id or the guest
// fields. Exactly one of the two must be present.
func requester(memberID string, guest GuestIdentity) (entity.Requester, error) {
	if memberID != "" {
		if guest.provided() {
			return entity.Requester{}, entity.ErrInvalidRequester
		}
		id, err := uuid.Parse(memberID)
		if err != nil {
			return entity.Requester{}, entity.ErrInvalidRequester
		}
		r := entity.MemberRequester(id)
		return r, r.Validate()
	}

	r := entity.GuestRequester(strings.TrimSpace(guest.GuestName), utils.NormalizePhone(guest.GuestPhone))
	return r, r.Validate()
}

type ReserveRequest struct {
	ScheduleID string `json:"-" validate:"required,uuid"`
	MemberID   string `json:"-" validate:"omitempty,uuid"`
	GuestIdentity
}

func (r ReserveRequest) Requester() (entity.Requester, error) {
	return requester(r.MemberID, r.GuestIdentity)
}

// CancelReservationRequest carries the acting identity. ScheduleID is empty
// on admin routes that address a reservation directly.
type CancelReservationRequest struct {
	ScheduleID    string `json:"-" validate:"omitempty,uuid"`
	ReservationID string `json:"-" validate:"required,uuid"`
	MemberID      string `json:"-" validate:"omitempty,uuid"`
	IsAdmin       bool   `json:"-"`
	GuestIdentity
}

func (r CancelReservationRequest) Actor() (entity.Actor, error) {
	if r.IsAdmin {
		actor := entity.Actor{IsAdmin: true}
		if id, err := uuid.Parse(r.MemberID); err == nil {
			actor.Requester = entity.MemberRequester(id)
		}
		return actor, nil
	}

	req, err := requester(r.MemberID, r.GuestIdentity)
	if err != nil {
		return entity.Actor{}, err
	}
	return entity.Actor{Requester: req}, nil
}

type GuestLookupRequest struct {
	ScheduleID string `json:"-" validate:"required,uuid"`
	GuestName  string `json:"guest_name" validate:"required,max=50"`
	GuestPhone string `json:"guest_phone" validate:"required,phone"`
}

func (r GuestLookupRequest) Requester() (entity.Requester, error) {
	return requester("", GuestIdentity{GuestName: r.GuestName, GuestPhone: r.GuestPhone})
}

type GuestReservationsRequest struct {
	GuestName  string `json:"guest_name" validate:"required,max=50"`
	GuestPhone string `json:"guest_phone" validate:"required,phone"`
}

func (r GuestReservationsRequest) Requester() (entity.Requester, error) {
	return requester("", GuestIdentity{GuestName: r.GuestName, GuestPhone: r.GuestPhone})
}

type ListScheduleReservationsRequest struct {
	ScheduleID string `json:"-" validate:"required,uuid"`
	Status     string `json:"status" validate:"omitempty,oneof=REQUESTED CONFIRMED CANCELED"`
}

type SearchReservationsRequest struct {
	ScheduleID  string `json:"schedule_id" validate:"omitempty,uuid"`
	Status      string `json:"status" validate:"omitempty,oneof=REQUESTED CONFIRMED CANCELED"`
	MemberID    string `json:"member_id" validate:"omitempty,uuid"`
	GuestPhone  string `json:"guest_phone" validate:"omitempty,phone"`
	CreatedFrom string `json:"created_from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	CreatedTo   string `json:"created_to" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	PaginatedRequest
}

type UpdateMemoRequest struct {
	Memo *string `json:"memo" validate:"omitempty,max=1000"`
}
