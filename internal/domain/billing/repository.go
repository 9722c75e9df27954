package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BillingRecordFilter defines filter options for querying billing records
type BillingRecordFilter struct {
	Status        *BillingStatus
	ReservationID *uuid.UUID
	GuestName     string
	DueBefore     *time.Time
	DueAfter      *time.Time
	Page          int
	PageSize      int
	OrderBy       string
	OrderDir      string
}

// DefaultBillingRecordFilter returns a filter with default pagination
func DefaultBillingRecordFilter() BillingRecordFilter {
	return BillingRecordFilter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}
}

// BillingRecordRepository defines the interface for billing record persistence
type BillingRecordRepository interface {
	// FindByID finds a billing record by ID
	FindByID(ctx context.Context, id uuid.UUID) (*BillingRecord, error)

	// FindByIDForTenant finds a billing record by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*BillingRecord, error)

	// FindByBillingNumber finds by billing number for a tenant
	FindByBillingNumber(ctx context.Context, tenantID uuid.UUID, billingNumber string) (*BillingRecord, error)

	// FindByReservation finds the billing record for a reservation
	FindByReservation(ctx context.Context, tenantID, reservationID uuid.UUID) (*BillingRecord, error)

	// FindAllForTenant finds all billing records for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter BillingRecordFilter) ([]BillingRecord, error)

	// FindByStatus finds billing records by status for a tenant
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status BillingStatus, filter BillingRecordFilter) ([]BillingRecord, error)

	// FindDueForOverdue finds unpaid records whose due date is before asOf.
	// Used by the overdue sweep; returns PENDING and PARTIAL records only.
	FindDueForOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]BillingRecord, error)

	// ListTenantIDs returns the distinct tenants that have billing records.
	// The overdue sweep uses it to enumerate hotel properties.
	ListTenantIDs(ctx context.Context) ([]uuid.UUID, error)

	// GenerateBillingNumber generates a unique billing number for a tenant
	GenerateBillingNumber(ctx context.Context, tenantID uuid.UUID) (string, error)

	// Save creates or updates a billing record
	Save(ctx context.Context, record *BillingRecord) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, record *BillingRecord) error

	// Delete soft deletes a billing record
	Delete(ctx context.Context, id uuid.UUID) error

	// CountForTenant counts billing records for a tenant matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter BillingRecordFilter) (int64, error)

	// CountByStatus counts billing records in a given status for a tenant
	CountByStatus(ctx context.Context, tenantID uuid.UUID, status BillingStatus) (int64, error)

	// Summarize computes collected and outstanding totals for a tenant in SQL
	Summarize(ctx context.Context, tenantID uuid.UUID) (*AggregateTotals, error)
}
