package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReservationFilter defines filter options for querying reservations
type ReservationFilter struct {
	Status       *ReservationStatus
	GuestID      *uuid.UUID
	RoomNumber   string
	ArrivalAfter *time.Time
	Page         int
	PageSize     int
	OrderBy      string
	OrderDir     string
}

// DefaultReservationFilter returns a filter with default pagination
func DefaultReservationFilter() ReservationFilter {
	return ReservationFilter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "check_in_date",
		OrderDir: "desc",
	}
}

// ReservationRepository defines the interface for reservation persistence
type ReservationRepository interface {
	// FindByID finds a reservation by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// FindByIDForTenant finds a reservation by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Reservation, error)

	// FindByConfirmationNumber finds by confirmation number for a tenant
	FindByConfirmationNumber(ctx context.Context, tenantID uuid.UUID, confirmationNumber string) (*Reservation, error)

	// FindAllForTenant finds all reservations for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ReservationFilter) ([]Reservation, error)

	// FindActiveByRoom finds active (booked or in-house) reservations for a room
	// overlapping the given date range
	FindActiveByRoom(ctx context.Context, tenantID uuid.UUID, roomNumber string, from, to time.Time) ([]Reservation, error)

	// Save creates or updates a reservation
	Save(ctx context.Context, reservation *Reservation) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, reservation *Reservation) error

	// Delete soft deletes a reservation
	Delete(ctx context.Context, id uuid.UUID) error

	// CountForTenant counts reservations for a tenant matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ReservationFilter) (int64, error)

	// GenerateConfirmationNumber generates a unique confirmation number for a tenant
	GenerateConfirmationNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
