package models

import (
	"github.com/hotelpms/backend/internal/domain/guest"
	"github.com/hotelpms/backend/internal/domain/shared"
)

// GuestModel is the persistence model for the Guest aggregate root.
type GuestModel struct {
	TenantAggregateModel
	FirstName   string            `gorm:"type:varchar(100);not null"`
	LastName    string            `gorm:"type:varchar(100);not null;index"`
	Email       string            `gorm:"type:varchar(200);index"`
	Phone       string            `gorm:"type:varchar(50)"`
	LoyaltyTier guest.LoyaltyTier `gorm:"type:varchar(20);not null;default:'NONE'"`
	Remark      string            `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (GuestModel) TableName() string {
	return "guests"
}

// ToDomain converts the persistence model to a domain Guest entity.
func (m *GuestModel) ToDomain() *guest.Guest {
	return &guest.Guest{
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
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		Email:       m.Email,
		Phone:       m.Phone,
		LoyaltyTier: m.LoyaltyTier,
		Remark:      m.Remark,
	}
}

// FromDomain populates the persistence model from a domain Guest entity.
func (m *GuestModel) FromDomain(g *guest.Guest) {
	m.FromDomainTenantAggregateRoot(g.TenantAggregateRoot)
	m.FirstName = g.FirstName
	m.LastName = g.LastName
	m.Email = g.Email
	m.Phone = g.Phone
	m.LoyaltyTier = g.LoyaltyTier
	m.Remark = g.Remark
}

// GuestModelFromDomain creates a new persistence model from a domain Guest.
func GuestModelFromDomain(g *guest.Guest) *GuestModel {
	m := &GuestModel{}
	m.FromDomain(g)
	return m
}
