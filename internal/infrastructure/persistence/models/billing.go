package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hotelpms/backend/internal/domain/billing"
	"github.com/hotelpms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BillingRecordModel is the persistence model for the BillingRecord aggregate root.
type BillingRecordModel struct {
	TenantAggregateModel
	BillingNumber  string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_billing_tenant_number,priority:2"`
	ReservationID  uuid.UUID              `gorm:"type:uuid;not null;index"`
	GuestName      string                 `gorm:"type:varchar(200)"`
	RoomSubtotal   decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Tax            decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	ServiceFee     decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	TotalDue       decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	AmountPaid     decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Status         billing.BillingStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	DueDate        *time.Time             `gorm:"index"`
	PaymentRecords billing.PaymentRecords `gorm:"type:jsonb;default:'[]'"`
	Remark         string                 `gorm:"type:text"`
	PaidAt         *time.Time
	OverdueAt      *time.Time
}

// TableName returns the table name for GORM
func (BillingRecordModel) TableName() string {
	return "billing_records"
}

// ToDomain converts the persistence model to a domain BillingRecord entity.
func (m *BillingRecordModel) ToDomain() *billing.BillingRecord {
	return &billing.BillingRecord{
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
		BillingNumber:  m.BillingNumber,
		ReservationID:  m.ReservationID,
		GuestName:      m.GuestName,
		RoomSubtotal:   m.RoomSubtotal,
		Tax:            m.Tax,
		ServiceFee:     m.ServiceFee,
		TotalDue:       m.TotalDue,
		AmountPaid:     m.AmountPaid,
		Status:         m.Status,
		DueDate:        m.DueDate,
		PaymentRecords: m.PaymentRecords,
		Remark:         m.Remark,
		PaidAt:         m.PaidAt,
		OverdueAt:      m.OverdueAt,
	}
}

// FromDomain populates the persistence model from a domain BillingRecord entity.
func (m *BillingRecordModel) FromDomain(br *billing.BillingRecord) {
	m.FromDomainTenantAggregateRoot(br.TenantAggregateRoot)
	m.BillingNumber = br.BillingNumber
	m.ReservationID = br.ReservationID
	m.GuestName = br.GuestName
	m.RoomSubtotal = br.RoomSubtotal
	m.Tax = br.Tax
	m.ServiceFee = br.ServiceFee
	m.TotalDue = br.TotalDue
	m.AmountPaid = br.AmountPaid
	m.Status = br.Status
	m.DueDate = br.DueDate
	m.PaymentRecords = br.PaymentRecords
	m.Remark = br.Remark
	m.PaidAt = br.PaidAt
	m.OverdueAt = br.OverdueAt
}

// BillingRecordModelFromDomain creates a new persistence model from a domain BillingRecord.
func BillingRecordModelFromDomain(br *billing.BillingRecord) *BillingRecordModel {
	m := &BillingRecordModel{}
	m.FromDomain(br)
	return m
}
