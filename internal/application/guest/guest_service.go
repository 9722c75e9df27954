package guest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hotelpms/backend/internal/domain/guest"
	"github.com/hotelpms/backend/internal/domain/shared"
)

// GuestService handles guest profile application logic
type GuestService struct {
	repo   guest.GuestRepository
	logger *zap.Logger
}

// NewGuestService creates a new guest service
func NewGuestService(repo guest.GuestRepository, logger *zap.Logger) *GuestService {
	return &GuestService{
		repo:   repo,
		logger: logger,
	}
}

// CreateGuestRequest represents a request to register a guest profile
type CreateGuestRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Remark    string `json:"remark"`
}

// UpdateGuestRequest represents a request to update a guest profile
type UpdateGuestRequest struct {
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	LoyaltyTier *string `json:"loyalty_tier"`
	Remark      *string `json:"remark"`
}

// GuestListFilter defines query parameters for listing guests
type GuestListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// GuestResponse represents a guest in API responses
type GuestResponse struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	LoyaltyTier string    `json:"loyalty_tier"`
	Remark      string    `json:"remark,omitempty"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateGuest registers a new guest profile. An email already in use by
// another profile for the same property is rejected.
func (s *GuestService) CreateGuest(ctx context.Context, tenantID uuid.UUID, req *CreateGuestRequest) (*GuestResponse, error) {
	if req.Email != "" {
		existing, err := s.repo.FindByEmail(ctx, tenantID, req.Email)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("failed to check guest email: %w", err)
		}
		if existing != nil {
			return nil, shared.NewDomainError("ALREADY_EXISTS",
				fmt.Sprintf("A guest with email %s already exists", req.Email))
		}
	}

	g, err := guest.NewGuest(tenantID, req.FirstName, req.LastName, req.Email, req.Phone)
	if err != nil {
		return nil, err
	}

	if req.Remark != "" {
		g.SetRemark(req.Remark)
	}

	if err := s.repo.Save(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to save guest: %w", err)
	}

	s.logger.Info("Guest registered",
		zap.String("guest_id", g.ID.String()),
		zap.String("tenant_id", tenantID.String()))

	resp := toGuestResponse(g)
	return &resp, nil
}

// GetGuest retrieves a guest by ID
func (s *GuestService) GetGuest(ctx context.Context, tenantID, guestID uuid.UUID) (*GuestResponse, error) {
	g, err := s.repo.FindByIDForTenant(ctx, tenantID, guestID)
	if err != nil {
		return nil, err
	}
	resp := toGuestResponse(g)
	return &resp, nil
}

// UpdateGuest applies partial updates to a guest profile
func (s *GuestService) UpdateGuest(ctx context.Context, tenantID, guestID uuid.UUID, req *UpdateGuestRequest) (*GuestResponse, error) {
	g, err := s.repo.FindByIDForTenant(ctx, tenantID, guestID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil || req.Phone != nil {
		email := g.Email
		phone := g.Phone
		if req.Email != nil {
			email = *req.Email
		}
		if req.Phone != nil {
			phone = *req.Phone
		}
		if err := g.UpdateContact(email, phone); err != nil {
			return nil, err
		}
	}

	if req.LoyaltyTier != nil {
		if err := g.SetLoyaltyTier(guest.LoyaltyTier(*req.LoyaltyTier)); err != nil {
			return nil, err
		}
	}

	if req.Remark != nil {
		g.SetRemark(*req.Remark)
	}

	if err := s.repo.Save(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to save guest: %w", err)
	}

	resp := toGuestResponse(g)
	return &resp, nil
}

// ListGuests retrieves guests with search and pagination
func (s *GuestService) ListGuests(ctx context.Context, tenantID uuid.UUID, filter GuestListFilter) ([]GuestResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search

	guests, err := s.repo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list guests: %w", err)
	}

	total, err := s.repo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count guests: %w", err)
	}

	responses := make([]GuestResponse, len(guests))
	for i := range guests {
		responses[i] = toGuestResponse(&guests[i])
	}

	return responses, total, nil
}

// DeleteGuest removes a guest profile
func (s *GuestService) DeleteGuest(ctx context.Context, tenantID, guestID uuid.UUID) error {
	g, err := s.repo.FindByIDForTenant(ctx, tenantID, guestID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, g.ID); err != nil {
		return fmt.Errorf("failed to delete guest: %w", err)
	}

	s.logger.Info("Guest deleted",
		zap.String("guest_id", g.ID.String()),
		zap.String("tenant_id", tenantID.String()))

	return nil
}

func toGuestResponse(g *guest.Guest) GuestResponse {
	return GuestResponse{
		ID:          g.ID,
		FirstName:   g.FirstName,
		LastName:    g.LastName,
		FullName:    g.FullName(),
		Email:       g.Email,
		Phone:       g.Phone,
		LoyaltyTier: string(g.LoyaltyTier),
		Remark:      g.Remark,
		Version:     g.Version,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}
