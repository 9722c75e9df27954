package guest

import (
	"strings"

	"time"

	"github.com/google/uuid"
	"github.com/hotelpms/backend/internal/domain/shared"
)

// LoyaltyTier represents a guest's loyalty program tier
type LoyaltyTier string

const (
	LoyaltyTierNone     LoyaltyTier = "NONE"
	LoyaltyTierSilver   LoyaltyTier = "SILVER"
	LoyaltyTierGold     LoyaltyTier = "GOLD"
	LoyaltyTierPlatinum LoyaltyTier = "PLATINUM"
)

// IsValid checks if the loyalty tier is valid
func (l LoyaltyTier) IsValid() bool {
	switch l {
	case LoyaltyTierNone, LoyaltyTierSilver, LoyaltyTierGold, LoyaltyTierPlatinum:
		return true
	}
	return false
}

// Guest is a hotel guest profile referenced by reservations
type Guest struct {
	shared.TenantAggregateRoot
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	LoyaltyTier LoyaltyTier `json:"loyalty_tier"`
	Remark      string      `json:"remark"`
}

// NewGuest creates a new guest profile
func NewGuest(tenantID uuid.UUID, firstName, lastName, email, phone string) (*Guest, error) {
	if strings.TrimSpace(firstName) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "First name cannot be empty")
	}
	if strings.TrimSpace(lastName) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Last name cannot be empty")
	}
	if email != "" && !strings.Contains(email, "@") {
		return nil, shared.NewDomainError("INVALID_INPUT", "Email address is not valid")
	}

	return &Guest{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		FirstName:           firstName,
		LastName:            lastName,
		Email:               email,
		Phone:               phone,
		LoyaltyTier:         LoyaltyTierNone,
	}, nil
}

// FullName returns the guest's display name
func (g *Guest) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}

// UpdateContact updates email and phone
func (g *Guest) UpdateContact(email, phone string) error {
	if email != "" && !strings.Contains(email, "@") {
		return shared.NewDomainError("INVALID_INPUT", "Email address is not valid")
	}

	g.Email = email
	g.Phone = phone
	g.UpdatedAt = time.Now()
	g.IncrementVersion()

	return nil
}

// SetLoyaltyTier updates the loyalty tier
func (g *Guest) SetLoyaltyTier(tier LoyaltyTier) error {
	if !tier.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Unknown loyalty tier")
	}

	g.LoyaltyTier = tier
	g.UpdatedAt = time.Now()
	g.IncrementVersion()

	return nil
}

// SetRemark sets the remark
func (g *Guest) SetRemark(remark string) {
	g.Remark = remark
	g.UpdatedAt = time.Now()
	g.IncrementVersion()
}
