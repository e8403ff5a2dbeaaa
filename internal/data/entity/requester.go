package entity

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidRequester = errors.New("requester must be exactly one of member id or guest name+phone")

// Requester identifies who holds a reservation: a member, or a guest known
// by name and phone. Exactly one form is set.
type Requester struct {
	MemberID   *uuid.UUID `db:"member_id"`
	GuestName  *string    `db:"guest_name"`
	GuestPhone *string    `db:"guest_phone"`
}

func MemberRequester(memberID uuid.UUID) Requester {
	return Requester{MemberID: &memberID}
}

func GuestRequester(name, phone string) Requester {
	return Requester{GuestName: &name, GuestPhone: &phone}
}

func (r Requester) IsMember() bool {
	return r.MemberID != nil
}

func (r Requester) IsGuest() bool {
	return r.MemberID == nil && r.GuestName != nil && r.GuestPhone != nil
}

func (r Requester) Validate() error {
	memberSet := r.MemberID != nil
	guestSet := r.GuestName != nil || r.GuestPhone != nil
	if memberSet == guestSet {
		return ErrInvalidRequester
	}
	if memberSet {
		if *r.MemberID == uuid.Nil {
			return ErrInvalidRequester
		}
		return nil
	}
	if r.GuestName == nil || r.GuestPhone == nil || *r.GuestName == "" || *r.GuestPhone == "" {
		return ErrInvalidRequester
	}
	return nil
}

// Same compares identities the way duplicate detection does:
// member by id, guest by the name+phone pair.
func (r Requester) Same(other Requester) bool {
	if r.IsMember() || other.IsMember() {
		return r.MemberID != nil && other.MemberID != nil && *r.MemberID == *other.MemberID
	}
	return r.IsGuest() && other.IsGuest() &&
		*r.GuestName == *other.GuestName && *r.GuestPhone == *other.GuestPhone
}

// Actor is the identity performing a cancellation. Admins may cancel any
// reservation; everyone else must match the reservation's requester.
type Actor struct {
	Requester Requester
	IsAdmin   bool
}

func (a Actor) CanManage(res *Reservation) bool {
	return a.IsAdmin || a.Requester.Same(res.Requester)
}
