package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hotelpms/backend/internal/domain/billing"
	"github.com/hotelpms/backend/internal/domain/shared"
	"github.com/hotelpms/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormBillingRecordRepository implements BillingRecordRepository using GORM
type GormBillingRecordRepository struct {
	db *gorm.DB
}

// NewGormBillingRecordRepository creates a new GormBillingRecordRepository
func NewGormBillingRecordRepository(db *gorm.DB) *GormBillingRecordRepository {
	return &GormBillingRecordRepository{db: db}
}

// FindByID finds a billing record by its ID
func (r *GormBillingRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.BillingRecord, error) {
	var model models.BillingRecordModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a billing record by ID for a specific tenant
func (r *GormBillingRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.BillingRecord, error) {
	var model models.BillingRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBillingNumber finds by billing number for a tenant
func (r *GormBillingRecordRepository) FindByBillingNumber(ctx context.Context, tenantID uuid.UUID, billingNumber string) (*billing.BillingRecord, error) {
	var model models.BillingRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND billing_number = ?", tenantID, billingNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReservation finds the billing record for a reservation
func (r *GormBillingRecordRepository) FindByReservation(ctx context.Context, tenantID, reservationID uuid.UUID) (*billing.BillingRecord, error) {
	var model models.BillingRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reservation_id = ?", tenantID, reservationID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all billing records for a tenant with filtering
func (r *GormBillingRecordRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.BillingRecordFilter) ([]billing.BillingRecord, error) {
	var recordModels []models.BillingRecordModel
	query := r.db.WithContext(ctx).Model(&models.BillingRecordModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter)

	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}
	records := make([]billing.BillingRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// FindByStatus finds billing records by status for a tenant
func (r *GormBillingRecordRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status billing.BillingStatus, filter billing.BillingRecordFilter) ([]billing.BillingRecord, error) {
	filter.Status = &status
	return r.FindAllForTenant(ctx, tenantID, filter)
}

// FindDueForOverdue finds PENDING and PARTIAL records whose due date is before asOf
func (r *GormBillingRecordRepository) FindDueForOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]billing.BillingRecord, error) {
	var recordModels []models.BillingRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND due_date IS NOT NULL AND due_date < ? AND status IN ?", tenantID, asOf,
			[]billing.BillingStatus{billing.BillingStatusPending, billing.BillingStatusPartial}).
		Order("due_date ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	records := make([]billing.BillingRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// ListTenantIDs returns the distinct tenants that have billing records
func (r *GormBillingRecordRepository) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.BillingRecordModel{}).
		Distinct("tenant_id").
		Pluck("tenant_id", &tenantIDs).Error; err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

// GenerateBillingNumber generates a unique billing number
func (r *GormBillingRecordRepository) GenerateBillingNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	// Format: BL-YYYYMMDD-XXXXX
	date := time.Now().Format("20060102")
	prefix := fmt.Sprintf("BL-%s-", date)

	// Find the highest number for today
	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&models.BillingRecordModel{}).
		Select("billing_number").
		Where("tenant_id = ? AND billing_number LIKE ?", tenantID, prefix+"%").
		Order("billing_number DESC").
		Limit(1).
		Pluck("billing_number", &maxNumber).Error; err != nil {
		return "", err
	}

	var nextNum int
	if maxNumber != "" {
		parts := strings.Split(maxNumber, "-")
		if len(parts) == 3 {
			fmt.Sscanf(parts[2], "%d", &nextNum)
		}
	}
	nextNum++

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

// Save creates or updates a billing record
func (r *GormBillingRecordRepository) Save(ctx context.Context, record *billing.BillingRecord) error {
	model := models.BillingRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. The update only applies if the
// stored version matches the version the aggregate was loaded with; a zero
// row count means another writer won the race.
func (r *GormBillingRecordRepository) SaveWithLock(ctx context.Context, record *billing.BillingRecord) error {
	model := models.BillingRecordModelFromDomain(record)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", record.ID, record.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete soft deletes a billing record
func (r *GormBillingRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BillingRecordModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForTenant counts billing records for a tenant matching the filter
func (r *GormBillingRecordRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.BillingRecordFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.BillingRecordModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts billing records in a given status for a tenant
func (r *GormBillingRecordRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status billing.BillingStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BillingRecordModel{}).
		Where("tenant_id = ? AND status = ?", tenantID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Summarize computes collected and outstanding totals for a tenant in SQL.
// Collected sums amount_paid over every record; outstanding sums the
// positive remainder over records that are not fully paid.
func (r *GormBillingRecordRepository) Summarize(ctx context.Context, tenantID uuid.UUID) (*billing.AggregateTotals, error) {
	var result struct {
		TotalCollected   decimal.Decimal
		TotalOutstanding decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.BillingRecordModel{}).
		Select(`COALESCE(SUM(amount_paid), 0) as total_collected,
			COALESCE(SUM(CASE WHEN status != ? THEN GREATEST(total_due - amount_paid, 0) ELSE 0 END), 0) as total_outstanding`,
			billing.BillingStatusPaid).
		Where("tenant_id = ?", tenantID).
		Scan(&result).Error; err != nil {
		return nil, err
	}
	return &billing.AggregateTotals{
		TotalCollected:   result.TotalCollected,
		TotalOutstanding: result.TotalOutstanding,
	}, nil
}

// applyFilter applies filtering, ordering and pagination to the query
func (r *GormBillingRecordRepository) applyFilter(query *gorm.DB, filter billing.BillingRecordFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	if !isAllowedBillingOrderColumn(orderBy) {
		orderBy = "created_at"
	}
	orderDir := "DESC"
	if filter.OrderDir == "asc" {
		orderDir = "ASC"
	}
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Limit(filter.PageSize).Offset((page - 1) * filter.PageSize)
	}

	return query
}

// applyFilterWithoutPagination applies only the where clauses
func (r *GormBillingRecordRepository) applyFilterWithoutPagination(query *gorm.DB, filter billing.BillingRecordFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ReservationID != nil {
		query = query.Where("reservation_id = ?", *filter.ReservationID)
	}
	if filter.GuestName != "" {
		query = query.Where("guest_name ILIKE ?", "%"+filter.GuestName+"%")
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date < ?", *filter.DueBefore)
	}
	if filter.DueAfter != nil {
		query = query.Where("due_date > ?", *filter.DueAfter)
	}
	return query
}

// isAllowedBillingOrderColumn guards against SQL injection through order_by
func isAllowedBillingOrderColumn(column string) bool {
	switch column {
	case "created_at", "updated_at", "due_date", "total_due", "amount_paid", "status", "billing_number":
		return true
	}
	return false
}
