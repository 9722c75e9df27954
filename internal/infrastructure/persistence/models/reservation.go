package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hotelpms/backend/internal/domain/reservation"
	"github.com/hotelpms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReservationModel is the persistence model for the Reservation aggregate root.
type ReservationModel struct {
	TenantAggregateModel
	ConfirmationNumber string                        `gorm:"type:varchar(50);not null;uniqueIndex:idx_reservation_tenant_confirmation,priority:2"`
	GuestID            uuid.UUID                     `gorm:"type:uuid;not null;index"`
	GuestName          string                        `gorm:"type:varchar(200)"`
	RoomNumber         string                        `gorm:"type:varchar(20);not null;index"`
	RoomType           reservation.RoomType          `gorm:"type:varchar(20);not null"`
	CheckInDate        time.Time                     `gorm:"not null;index"`
	CheckOutDate       time.Time                     `gorm:"not null"`
	NightlyRate        decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	Status             reservation.ReservationStatus `gorm:"type:varchar(20);not null;default:'BOOKED';index"`
	CheckedInAt        *time.Time
	CheckedOutAt       *time.Time
	CancelledAt        *time.Time
	CancelReason       string `gorm:"type:varchar(500)"`
	Remark             string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ReservationModel) TableName() string {
	return "reservations"
}

// ToDomain converts the persistence model to a domain Reservation entity.
func (m *ReservationModel) ToDomain() *reservation.Reservation {
	return &reservation.Reservation{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID: m.TenantID,
		},
		ConfirmationNumber: m.ConfirmationNumber,
		GuestID:            m.GuestID,
		GuestName:          m.GuestName,
		RoomNumber:         m.RoomNumber,
		RoomType:           m.RoomType,
		CheckInDate:        m.CheckInDate,
		CheckOutDate:       m.CheckOutDate,
		NightlyRate:        m.NightlyRate,
		Status:             m.Status,
		CheckedInAt:        m.CheckedInAt,
		CheckedOutAt:       m.CheckedOutAt,
		CancelledAt:        m.CancelledAt,
		CancelReason:       m.CancelReason,
		Remark:             m.Remark,
	}
}

// FromDomain populates the persistence model from a domain Reservation entity.
func (m *ReservationModel) FromDomain(r *reservation.Reservation) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.ConfirmationNumber = r.ConfirmationNumber
	m.GuestID = r.GuestID
	m.GuestName = r.GuestName
	m.RoomNumber = r.RoomNumber
	m.RoomType = r.RoomType
	m.CheckInDate = r.CheckInDate
	m.CheckOutDate = r.CheckOutDate
	m.NightlyRate = r.NightlyRate
	m.Status = r.Status
	m.CheckedInAt = r.CheckedInAt
	m.CheckedOutAt = r.CheckedOutAt
	m.CancelledAt = r.CancelledAt
	m.CancelReason = r.CancelReason
	m.Remark = r.Remark
}

// ReservationModelFromDomain creates a new persistence model from a domain Reservation.
func ReservationModelFromDomain(r *reservation.Reservation) *ReservationModel {
	m := &ReservationModel{}
	m.FromDomain(r)
	return m
}
