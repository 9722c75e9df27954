package guest

import (
	"context"

	"github.com/google/uuid"
	"github.com/hotelpms/backend/internal/domain/shared"
)

// GuestRepository defines the interface for guest persistence
type GuestRepository interface {
	// FindByID finds a guest by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Guest, error)

	// FindByIDForTenant finds a guest by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Guest, error)

	// FindByEmail finds a guest by email for a tenant
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*Guest, error)

	// FindAllForTenant finds all guests for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Guest, error)

	// Save creates or updates a guest
	Save(ctx context.Context, guest *Guest) error

	// Delete soft deletes a guest
	Delete(ctx context.Context, id uuid.UUID) error

	// CountForTenant counts guests for a tenant matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}
