package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appbilling "github.com/hotelpms/backend/internal/application/billing"
	"github.com/hotelpms/backend/internal/domain/guest"
	"github.com/hotelpms/backend/internal/domain/reservation"
	"github.com/hotelpms/backend/internal/domain/shared"
)

// BillingGateway is the slice of the billing service the checkout flow needs
type BillingGateway interface {
	CreateBilling(ctx context.Context, tenantID uuid.UUID, req *appbilling.CreateBillingRequest) (*appbilling.BillingResponse, error)
}

// ReservationService handles reservation-related application logic
type ReservationService struct {
	repo       reservation.ReservationRepository
	guestRepo  guest.GuestRepository
	billing    BillingGateway
	taxRate    decimal.Decimal
	serviceFee decimal.Decimal
	logger     *zap.Logger
}

// ReservationServiceConfig carries the property's rate settings
type ReservationServiceConfig struct {
	TaxRate    decimal.Decimal
	ServiceFee decimal.Decimal
}

// NewReservationService creates a new reservation service
func NewReservationService(
	repo reservation.ReservationRepository,
	guestRepo guest.GuestRepository,
	billing BillingGateway,
	cfg ReservationServiceConfig,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		repo:       repo,
		guestRepo:  guestRepo,
		billing:    billing,
		taxRate:    cfg.TaxRate,
		serviceFee: cfg.ServiceFee,
		logger:     logger,
	}
}

// CreateReservationRequest represents a request to book a stay
type CreateReservationRequest struct {
	GuestID      uuid.UUID       `json:"guest_id" binding:"required"`
	RoomNumber   string          `json:"room_number" binding:"required"`
	RoomType     string          `json:"room_type" binding:"required"`
	CheckInDate  time.Time       `json:"check_in_date" binding:"required"`
	CheckOutDate time.Time       `json:"check_out_date" binding:"required"`
	NightlyRate  decimal.Decimal `json:"nightly_rate" binding:"required"`
	Remark       string          `json:"remark"`
}

// CancelReservationRequest carries the cancellation reason
type CancelReservationRequest struct {
	Reason string `json:"reason"`
}

// ReservationListFilter defines query parameters for listing reservations
type ReservationListFilter struct {
	Status       string     `form:"status"`
	GuestID      string     `form:"guest_id"`
	RoomNumber   string     `form:"room_number"`
	ArrivalAfter *time.Time `form:"arrival_after" time_format:"2006-01-02"`
	Page         int        `form:"page"`
	PageSize     int        `form:"page_size"`
	OrderBy      string     `form:"order_by"`
	OrderDir     string     `form:"order_dir"`
}

// ReservationResponse represents a reservation in API responses
type ReservationResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ConfirmationNumber string          `json:"confirmation_number"`
	GuestID            uuid.UUID       `json:"guest_id"`
	GuestName          string          `json:"guest_name"`
	RoomNumber         string          `json:"room_number"`
	RoomType           string          `json:"room_type"`
	CheckInDate        time.Time       `json:"check_in_date"`
	CheckOutDate       time.Time       `json:"check_out_date"`
	Nights             int             `json:"nights"`
	NightlyRate        decimal.Decimal `json:"nightly_rate"`
	Status             string          `json:"status"`
	CheckedInAt        *time.Time      `json:"checked_in_at,omitempty"`
	CheckedOutAt       *time.Time      `json:"checked_out_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason       string          `json:"cancel_reason,omitempty"`
	Remark             string          `json:"remark,omitempty"`
	Version            int             `json:"version"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// CheckOutResponse bundles the finalized reservation with the billing
// record created for the stay
type CheckOutResponse struct {
	Reservation ReservationResponse         `json:"reservation"`
	Billing     *appbilling.BillingResponse `json:"billing"`
}

// CreateReservation books a stay after verifying the guest exists and the
// room is free for the requested dates
func (s *ReservationService) CreateReservation(ctx context.Context, tenantID uuid.UUID, req *CreateReservationRequest) (*ReservationResponse, error) {
	roomType := reservation.RoomType(req.RoomType)
	if !roomType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROOM", fmt.Sprintf("Unknown room type %q", req.RoomType))
	}

	g, err := s.guestRepo.FindByIDForTenant(ctx, tenantID, req.GuestID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("GUEST_NOT_FOUND", "Guest does not exist")
		}
		return nil, fmt.Errorf("failed to load guest: %w", err)
	}

	overlapping, err := s.repo.FindActiveByRoom(ctx, tenantID, req.RoomNumber, req.CheckInDate, req.CheckOutDate)
	if err != nil {
		return nil, fmt.Errorf("failed to check room availability: %w", err)
	}
	if len(overlapping) > 0 {
		return nil, shared.NewDomainError("ROOM_UNAVAILABLE",
			fmt.Sprintf("Room %s is already booked for the requested dates", req.RoomNumber))
	}

	confirmationNumber, err := s.repo.GenerateConfirmationNumber(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate confirmation number: %w", err)
	}

	r, err := reservation.NewReservation(
		tenantID,
		confirmationNumber,
		g.ID,
		g.FullName(),
		req.RoomNumber,
		roomType,
		req.CheckInDate,
		req.CheckOutDate,
		req.NightlyRate,
	)
	if err != nil {
		return nil, err
	}

	if req.Remark != "" {
		r.SetRemark(req.Remark)
	}

	if err := s.repo.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save reservation: %w", err)
	}

	s.logger.Info("Reservation created",
		zap.String("reservation_id", r.ID.String()),
		zap.String("confirmation_number", r.ConfirmationNumber),
		zap.String("room_number", r.RoomNumber),
		zap.String("tenant_id", tenantID.String()))

	resp := toReservationResponse(r)
	return &resp, nil
}

// GetReservation retrieves a reservation by ID
func (s *ReservationService) GetReservation(ctx context.Context, tenantID, reservationID uuid.UUID) (*ReservationResponse, error) {
	r, err := s.repo.FindByIDForTenant(ctx, tenantID, reservationID)
	if err != nil {
		return nil, err
	}
	resp := toReservationResponse(r)
	return &resp, nil
}

// GetByConfirmationNumber retrieves a reservation by its confirmation number
func (s *ReservationService) GetByConfirmationNumber(ctx context.Context, tenantID uuid.UUID, confirmationNumber string) (*ReservationResponse, error) {
	r, err := s.repo.FindByConfirmationNumber(ctx, tenantID, confirmationNumber)
	if err != nil {
		return nil, err
	}
	resp := toReservationResponse(r)
	return &resp, nil
}

// ListReservations retrieves reservations with filtering and pagination
func (s *ReservationService) ListReservations(ctx context.Context, tenantID uuid.UUID, filter ReservationListFilter) ([]ReservationResponse, int64, error) {
	domainFilter := reservation.DefaultReservationFilter()
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
	if filter.Status != "" {
		status := reservation.ReservationStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown reservation status %q", filter.Status))
		}
		domainFilter.Status = &status
	}
	if filter.GuestID != "" {
		guestID, err := uuid.Parse(filter.GuestID)
		if err != nil {
			return nil, 0, shared.NewDomainError("INVALID_INPUT", "Guest ID is not a valid UUID")
		}
		domainFilter.GuestID = &guestID
	}
	domainFilter.RoomNumber = filter.RoomNumber
	domainFilter.ArrivalAfter = filter.ArrivalAfter

	reservations, err := s.repo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reservations: %w", err)
	}

	total, err := s.repo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reservations: %w", err)
	}

	responses := make([]ReservationResponse, len(reservations))
	for i := range reservations {
		responses[i] = toReservationResponse(&reservations[i])
	}

	return responses, total, nil
}

// CheckIn marks the guest as arrived
func (s *ReservationService) CheckIn(ctx context.Context, tenantID, reservationID uuid.UUID) (*ReservationResponse, error) {
	r, err := s.repo.FindByIDForTenant(ctx, tenantID, reservationID)
	if err != nil {
		return nil, err
	}

	if err := r.CheckIn(); err != nil {
		return nil, err
	}

	if err := s.repo.SaveWithLock(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("Guest checked in",
		zap.String("reservation_id", r.ID.String()),
		zap.String("room_number", r.RoomNumber))

	resp := toReservationResponse(r)
	return &resp, nil
}

// CheckOut finalizes the stay and opens a billing record for its charges
func (s *ReservationService) CheckOut(ctx context.Context, tenantID, reservationID uuid.UUID) (*CheckOutResponse, error) {
	r, err := s.repo.FindByIDForTenant(ctx, tenantID, reservationID)
	if err != nil {
		return nil, err
	}

	if err := r.CheckOut(); err != nil {
		return nil, err
	}

	if err := s.repo.SaveWithLock(ctx, r); err != nil {
		return nil, err
	}

	breakdown := r.RateBreakdown(s.taxRate, s.serviceFee)

	billingResp, err := s.billing.CreateBilling(ctx, tenantID, &appbilling.CreateBillingRequest{
		ReservationID: r.ID,
		GuestName:     r.GuestName,
		RoomSubtotal:  breakdown.RoomSubtotal,
		Tax:           breakdown.Tax,
		ServiceFee:    breakdown.ServiceFee,
		Remark:        fmt.Sprintf("Stay %s, room %s, %d night(s)", r.ConfirmationNumber, r.RoomNumber, r.Nights()),
	})
	if err != nil {
		s.logger.Error("Checkout saved but billing record creation failed",
			zap.String("reservation_id", r.ID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create billing record for checkout: %w", err)
	}

	s.logger.Info("Guest checked out",
		zap.String("reservation_id", r.ID.String()),
		zap.String("billing_id", billingResp.ID.String()),
		zap.String("total_due", billingResp.TotalDue.String()))

	return &CheckOutResponse{
		Reservation: toReservationResponse(r),
		Billing:     billingResp,
	}, nil
}

// Cancel cancels a booked reservation
func (s *ReservationService) Cancel(ctx context.Context, tenantID, reservationID uuid.UUID, req *CancelReservationRequest) (*ReservationResponse, error) {
	r, err := s.repo.FindByIDForTenant(ctx, tenantID, reservationID)
	if err != nil {
		return nil, err
	}

	if err := r.Cancel(req.Reason); err != nil {
		return nil, err
	}

	if err := s.repo.SaveWithLock(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("Reservation cancelled",
		zap.String("reservation_id", r.ID.String()),
		zap.String("reason", req.Reason))

	resp := toReservationResponse(r)
	return &resp, nil
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:                 r.ID,
		ConfirmationNumber: r.ConfirmationNumber,
		GuestID:            r.GuestID,
		GuestName:          r.GuestName,
		RoomNumber:         r.RoomNumber,
		RoomType:           string(r.RoomType),
		CheckInDate:        r.CheckInDate,
		CheckOutDate:       r.CheckOutDate,
		Nights:             r.Nights(),
		NightlyRate:        r.NightlyRate,
		Status:             r.Status.String(),
		CheckedInAt:        r.CheckedInAt,
		CheckedOutAt:       r.CheckedOutAt,
		CancelledAt:        r.CancelledAt,
		CancelReason:       r.CancelReason,
		Remark:             r.Remark,
		Version:            r.Version,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}
