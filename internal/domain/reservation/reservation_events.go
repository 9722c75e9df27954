package reservation

import (
	"time"

	"github.com/google/uuid"
	"github.com/hotelpms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReservationCreatedEvent is raised when a new reservation is booked
type ReservationCreatedEvent struct {
	shared.BaseDomainEvent
	ReservationID      uuid.UUID       `json:"reservation_id"`
	ConfirmationNumber string          `json:"confirmation_number"`
	GuestID            uuid.UUID       `json:"guest_id"`
	RoomNumber         string          `json:"room_number"`
	CheckInDate        time.Time       `json:"check_in_date"`
	CheckOutDate       time.Time       `json:"check_out_date"`
	NightlyRate        decimal.Decimal `json:"nightly_rate"`
}

// EventType returns the event type name
func (e *ReservationCreatedEvent) EventType() string {
	return "ReservationCreated"
}

// NewReservationCreatedEvent creates a new ReservationCreatedEvent
func NewReservationCreatedEvent(r *Reservation) *ReservationCreatedEvent {
	return &ReservationCreatedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent("ReservationCreated", "Reservation", r.ID, r.TenantID),
		ReservationID:      r.ID,
		ConfirmationNumber: r.ConfirmationNumber,
		GuestID:            r.GuestID,
		RoomNumber:         r.RoomNumber,
		CheckInDate:        r.CheckInDate,
		CheckOutDate:       r.CheckOutDate,
		NightlyRate:        r.NightlyRate,
	}
}

// ReservationCheckedInEvent is raised when the guest arrives
type ReservationCheckedInEvent struct {
	shared.BaseDomainEvent
	ReservationID      uuid.UUID `json:"reservation_id"`
	ConfirmationNumber string    `json:"confirmation_number"`
	RoomNumber         string    `json:"room_number"`
	CheckedInAt        time.Time `json:"checked_in_at"`
}

// EventType returns the event type name
func (e *ReservationCheckedInEvent) EventType() string {
	return "ReservationCheckedIn"
}

// NewReservationCheckedInEvent creates a new ReservationCheckedInEvent
func NewReservationCheckedInEvent(r *Reservation) *ReservationCheckedInEvent {
	checkedInAt := time.Now()
	if r.CheckedInAt != nil {
		checkedInAt = *r.CheckedInAt
	}
	return &ReservationCheckedInEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent("ReservationCheckedIn", "Reservation", r.ID, r.TenantID),
		ReservationID:      r.ID,
		ConfirmationNumber: r.ConfirmationNumber,
		RoomNumber:         r.RoomNumber,
		CheckedInAt:        checkedInAt,
	}
}

// ReservationCheckedOutEvent is raised when the stay is finalized
type ReservationCheckedOutEvent struct {
	shared.BaseDomainEvent
	ReservationID      uuid.UUID `json:"reservation_id"`
	ConfirmationNumber string    `json:"confirmation_number"`
	GuestID            uuid.UUID `json:"guest_id"`
	Nights             int       `json:"nights"`
	CheckedOutAt       time.Time `json:"checked_out_at"`
}

// EventType returns the event type name
func (e *ReservationCheckedOutEvent) EventType() string {
	return "ReservationCheckedOut"
}

// NewReservationCheckedOutEvent creates a new ReservationCheckedOutEvent
func NewReservationCheckedOutEvent(r *Reservation) *ReservationCheckedOutEvent {
	checkedOutAt := time.Now()
	if r.CheckedOutAt != nil {
		checkedOutAt = *r.CheckedOutAt
	}
	return &ReservationCheckedOutEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent("ReservationCheckedOut", "Reservation", r.ID, r.TenantID),
		ReservationID:      r.ID,
		ConfirmationNumber: r.ConfirmationNumber,
		GuestID:            r.GuestID,
		Nights:             r.Nights(),
		CheckedOutAt:       checkedOutAt,
	}
}

// ReservationCancelledEvent is raised when a booked reservation is cancelled
type ReservationCancelledEvent struct {
	shared.BaseDomainEvent
	ReservationID      uuid.UUID `json:"reservation_id"`
	ConfirmationNumber string    `json:"confirmation_number"`
	Reason             string    `json:"reason"`
	CancelledAt        time.Time `json:"cancelled_at"`
}

// EventType returns the event type name
func (e *ReservationCancelledEvent) EventType() string {
	return "ReservationCancelled"
}

// NewReservationCancelledEvent creates a new ReservationCancelledEvent
func NewReservationCancelledEvent(r *Reservation) *ReservationCancelledEvent {
	cancelledAt := time.Now()
	if r.CancelledAt != nil {
		cancelledAt = *r.CancelledAt
	}
	return &ReservationCancelledEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent("ReservationCancelled", "Reservation", r.ID, r.TenantID),
		ReservationID:      r.ID,
		ConfirmationNumber: r.ConfirmationNumber,
		Reason:             r.CancelReason,
		CancelledAt:        cancelledAt,
	}
}
