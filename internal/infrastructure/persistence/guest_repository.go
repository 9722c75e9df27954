package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hotelpms/backend/internal/domain/guest"
	"github.com/hotelpms/backend/internal/domain/shared"
	"github.com/hotelpms/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormGuestRepository implements GuestRepository using GORM
type GormGuestRepository struct {
	db *gorm.DB
}

// NewGormGuestRepository creates a new GormGuestRepository
func NewGormGuestRepository(db *gorm.DB) *GormGuestRepository {
	return &GormGuestRepository{db: db}
}

// FindByID finds a guest by its ID
func (r *GormGuestRepository) FindByID(ctx context.Context, id uuid.UUID) (*guest.Guest, error) {
	var model models.GuestModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a guest by ID for a specific tenant
func (r *GormGuestRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*guest.Guest, error) {
	var model models.GuestModel
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

// FindByEmail finds a guest by email for a tenant
func (r *GormGuestRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*guest.Guest, error) {
	var model models.GuestModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND email = ?", tenantID, email).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all guests for a tenant with filtering
func (r *GormGuestRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]guest.Guest, error) {
	var guestModels []models.GuestModel
	query := r.db.WithContext(ctx).Model(&models.GuestModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter)

	if err := query.Find(&guestModels).Error; err != nil {
		return nil, err
	}
	guests := make([]guest.Guest, len(guestModels))
	for i, model := range guestModels {
		guests[i] = *model.ToDomain()
	}
	return guests, nil
}

// Save creates or updates a guest
func (r *GormGuestRepository) Save(ctx context.Context, g *guest.Guest) error {
	model := models.GuestModelFromDomain(g)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete soft deletes a guest
func (r *GormGuestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.GuestModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForTenant counts guests for a tenant matching the filter
func (r *GormGuestRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.GuestModel{}).
		Where("tenant_id = ?", tenantID)
	if filter.Search != "" {
		query = r.applySearch(query, filter.Search)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies search, ordering and pagination to the query
func (r *GormGuestRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = r.applySearch(query, filter.Search)
	}

	orderBy := filter.OrderBy
	if !isAllowedGuestOrderColumn(orderBy) {
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

func (r *GormGuestRepository) applySearch(query *gorm.DB, search string) *gorm.DB {
	pattern := "%" + search + "%"
	return query.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", pattern, pattern, pattern)
}

// isAllowedGuestOrderColumn guards against SQL injection through order_by
func isAllowedGuestOrderColumn(column string) bool {
	switch column {
	case "created_at", "updated_at", "last_name", "first_name", "email", "loyalty_tier":
		return true
	}
	return false
}
