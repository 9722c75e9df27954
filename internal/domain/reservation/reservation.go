package reservation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hotelpms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReservationStatus represents the lifecycle status of a reservation
type ReservationStatus string

const (
	ReservationStatusBooked     ReservationStatus = "BOOKED"
	ReservationStatusCheckedIn  ReservationStatus = "CHECKED_IN"
	ReservationStatusCheckedOut ReservationStatus = "CHECKED_OUT"
	ReservationStatusCancelled  ReservationStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ReservationStatus
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusBooked, ReservationStatusCheckedIn, ReservationStatusCheckedOut, ReservationStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ReservationStatus
func (s ReservationStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the reservation can no longer change state
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusCheckedOut || s == ReservationStatusCancelled
}

// RoomType classifies the booked room
type RoomType string

const (
	RoomTypeStandard  RoomType = "STANDARD"
	RoomTypeDeluxe    RoomType = "DELUXE"
	RoomTypeSuite     RoomType = "SUITE"
	RoomTypePenthouse RoomType = "PENTHOUSE"
)

// IsValid checks if the room type is valid
func (r RoomType) IsValid() bool {
	switch r {
	case RoomTypeStandard, RoomTypeDeluxe, RoomTypeSuite, RoomTypePenthouse:
		return true
	}
	return false
}

// RateBreakdown is the charge decomposition a stay produces at checkout.
// The billing ledger consumes these components as-is.
type RateBreakdown struct {
	RoomSubtotal decimal.Decimal `json:"room_subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	ServiceFee   decimal.Decimal `json:"service_fee"`
	TotalDue     decimal.Decimal `json:"total_due"`
}

// Reservation is a guest's stay at a hotel property. Checkout finalizes
// the stay and hands its rate breakdown to the billing ledger.
type Reservation struct {
	shared.TenantAggregateRoot
	ConfirmationNumber string            `json:"confirmation_number"`
	GuestID            uuid.UUID         `json:"guest_id"`
	GuestName          string            `json:"guest_name"`
	RoomNumber         string            `json:"room_number"`
	RoomType           RoomType          `json:"room_type"`
	CheckInDate        time.Time         `json:"check_in_date"`
	CheckOutDate       time.Time         `json:"check_out_date"`
	NightlyRate        decimal.Decimal   `json:"nightly_rate"`
	Status             ReservationStatus `json:"status"`
	CheckedInAt        *time.Time        `json:"checked_in_at"`
	CheckedOutAt       *time.Time        `json:"checked_out_at"`
	CancelledAt        *time.Time        `json:"cancelled_at"`
	CancelReason       string            `json:"cancel_reason"`
	Remark             string            `json:"remark"`
}

// NewReservation creates a new booked reservation
func NewReservation(
	tenantID uuid.UUID,
	confirmationNumber string,
	guestID uuid.UUID,
	guestName string,
	roomNumber string,
	roomType RoomType,
	checkInDate, checkOutDate time.Time,
	nightlyRate decimal.Decimal,
) (*Reservation, error) {
	if confirmationNumber == "" {
		return nil, shared.NewDomainError("INVALID_CONFIRMATION", "Confirmation number cannot be empty")
	}
	if guestID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_GUEST", "Guest ID cannot be empty")
	}
	if roomNumber == "" {
		return nil, shared.NewDomainError("INVALID_ROOM", "Room number cannot be empty")
	}
	if !roomType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROOM", fmt.Sprintf("Unknown room type %q", roomType))
	}
	if !checkOutDate.After(checkInDate) {
		return nil, shared.NewDomainError("INVALID_DATES", "Check-out date must be after check-in date")
	}
	if nightlyRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Nightly rate cannot be negative")
	}

	r := &Reservation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ConfirmationNumber:  confirmationNumber,
		GuestID:             guestID,
		GuestName:           guestName,
		RoomNumber:          roomNumber,
		RoomType:            roomType,
		CheckInDate:         checkInDate,
		CheckOutDate:        checkOutDate,
		NightlyRate:         nightlyRate,
		Status:              ReservationStatusBooked,
	}

	r.AddDomainEvent(NewReservationCreatedEvent(r))

	return r, nil
}

// Nights returns the length of the stay in nights
func (r *Reservation) Nights() int {
	nights := int(r.CheckOutDate.Sub(r.CheckInDate).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	return nights
}

// RateBreakdown derives the charge components for the stay.
// taxRate is a fraction (0.10 means 10%); serviceFee is a flat amount.
func (r *Reservation) RateBreakdown(taxRate, serviceFee decimal.Decimal) RateBreakdown {
	subtotal := r.NightlyRate.Mul(decimal.NewFromInt(int64(r.Nights())))
	tax := subtotal.Mul(taxRate).Round(2)
	total := subtotal.Add(tax).Add(serviceFee)
	return RateBreakdown{
		RoomSubtotal: subtotal,
		Tax:          tax,
		ServiceFee:   serviceFee,
		TotalDue:     total,
	}
}

// CheckIn marks the guest as arrived
func (r *Reservation) CheckIn() error {
	if r.Status != ReservationStatusBooked {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot check in a reservation in %s status", r.Status))
	}

	now := time.Now()
	r.Status = ReservationStatusCheckedIn
	r.CheckedInAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewReservationCheckedInEvent(r))

	return nil
}

// CheckOut finalizes the stay. The caller creates the billing record
// from RateBreakdown after this transition succeeds.
func (r *Reservation) CheckOut() error {
	if r.Status != ReservationStatusCheckedIn {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot check out a reservation in %s status", r.Status))
	}

	now := time.Now()
	r.Status = ReservationStatusCheckedOut
	r.CheckedOutAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewReservationCheckedOutEvent(r))

	return nil
}

// Cancel cancels a booked reservation before arrival
func (r *Reservation) Cancel(reason string) error {
	if r.Status != ReservationStatusBooked {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel a reservation in %s status", r.Status))
	}

	now := time.Now()
	r.Status = ReservationStatusCancelled
	r.CancelledAt = &now
	r.CancelReason = reason
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewReservationCancelledEvent(r))

	return nil
}

// SetRemark sets the remark
func (r *Reservation) SetRemark(remark string) {
	r.Remark = remark
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// IsActive returns true if the reservation still occupies inventory
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationStatusBooked || r.Status == ReservationStatusCheckedIn
}
