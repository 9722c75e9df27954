package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hotelpms/backend/internal/domain/reservation"
	"github.com/hotelpms/backend/internal/domain/shared"
	"github.com/hotelpms/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReservationRepository implements ReservationRepository using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindByID finds a reservation by its ID
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	var model models.ReservationModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a reservation by ID for a specific tenant
func (r *GormReservationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*reservation.Reservation, error) {
	var model models.ReservationModel
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

// FindByConfirmationNumber finds by confirmation number for a tenant
func (r *GormReservationRepository) FindByConfirmationNumber(ctx context.Context, tenantID uuid.UUID, confirmationNumber string) (*reservation.Reservation, error) {
	var model models.ReservationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND confirmation_number = ?", tenantID, confirmationNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all reservations for a tenant with filtering
func (r *GormReservationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter reservation.ReservationFilter) ([]reservation.Reservation, error) {
	var reservationModels []models.ReservationModel
	query := r.db.WithContext(ctx).Model(&models.ReservationModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter)

	if err := query.Find(&reservationModels).Error; err != nil {
		return nil, err
	}
	reservations := make([]reservation.Reservation, len(reservationModels))
	for i, model := range reservationModels {
		reservations[i] = *model.ToDomain()
	}
	return reservations, nil
}

// FindActiveByRoom finds active reservations for a room overlapping the date range
func (r *GormReservationRepository) FindActiveByRoom(ctx context.Context, tenantID uuid.UUID, roomNumber string, from, to time.Time) ([]reservation.Reservation, error) {
	var reservationModels []models.ReservationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND room_number = ? AND status IN ? AND check_in_date < ? AND check_out_date > ?",
			tenantID, roomNumber,
			[]reservation.ReservationStatus{reservation.ReservationStatusBooked, reservation.ReservationStatusCheckedIn},
			to, from).
		Find(&reservationModels).Error; err != nil {
		return nil, err
	}
	reservations := make([]reservation.Reservation, len(reservationModels))
	for i, model := range reservationModels {
		reservations[i] = *model.ToDomain()
	}
	return reservations, nil
}

// Save creates or updates a reservation
func (r *GormReservationRepository) Save(ctx context.Context, res *reservation.Reservation) error {
	model := models.ReservationModelFromDomain(res)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormReservationRepository) SaveWithLock(ctx context.Context, res *reservation.Reservation) error {
	model := models.ReservationModelFromDomain(res)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", res.ID, res.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete soft deletes a reservation
func (r *GormReservationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ReservationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForTenant counts reservations for a tenant matching the filter
func (r *GormReservationRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter reservation.ReservationFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ReservationModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GenerateConfirmationNumber generates a unique confirmation number
func (r *GormReservationRepository) GenerateConfirmationNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	// Format: RES-YYYYMMDD-XXXXX
	date := time.Now().Format("20060102")
	prefix := fmt.Sprintf("RES-%s-", date)

	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&models.ReservationModel{}).
		Select("confirmation_number").
		Where("tenant_id = ? AND confirmation_number LIKE ?", tenantID, prefix+"%").
		Order("confirmation_number DESC").
		Limit(1).
		Pluck("confirmation_number", &maxNumber).Error; err != nil {
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

// applyFilter applies filtering, ordering and pagination to the query
func (r *GormReservationRepository) applyFilter(query *gorm.DB, filter reservation.ReservationFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	orderBy := filter.OrderBy
	if !isAllowedReservationOrderColumn(orderBy) {
		orderBy = "check_in_date"
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
func (r *GormReservationRepository) applyFilterWithoutPagination(query *gorm.DB, filter reservation.ReservationFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.GuestID != nil {
		query = query.Where("guest_id = ?", *filter.GuestID)
	}
	if filter.RoomNumber != "" {
		query = query.Where("room_number = ?", filter.RoomNumber)
	}
	if filter.ArrivalAfter != nil {
		query = query.Where("check_in_date > ?", *filter.ArrivalAfter)
	}
	return query
}

// isAllowedReservationOrderColumn guards against SQL injection through order_by
func isAllowedReservationOrderColumn(column string) bool {
	switch column {
	case "created_at", "updated_at", "check_in_date", "check_out_date", "room_number", "status", "confirmation_number":
		return true
	}
	return false
}
