package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hotelpms/backend/internal/domain/billing"
	"github.com/hotelpms/backend/internal/domain/shared"
	"github.com/hotelpms/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BillingService provides application-level billing ledger operations
type BillingService struct {
	repo             billing.BillingRecordRepository
	idempotencyStore shared.IdempotencyStore
	idempotencyTTL   time.Duration
	paymentTermsDays int
	logger           *zap.Logger
}

// BillingServiceConfig holds the tunables the service reads from configuration
type BillingServiceConfig struct {
	PaymentTermsDays int
	IdempotencyTTL   time.Duration
}

// NewBillingService creates a new BillingService
func NewBillingService(
	repo billing.BillingRecordRepository,
	idempotencyStore shared.IdempotencyStore,
	cfg BillingServiceConfig,
	logger *zap.Logger,
) *BillingService {
	ttl := cfg.IdempotencyTTL
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyConfig().TTL
	}
	return &BillingService{
		repo:             repo,
		idempotencyStore: idempotencyStore,
		idempotencyTTL:   ttl,
		paymentTermsDays: cfg.PaymentTermsDays,
		logger:           logger,
	}
}

// CreateBillingRequest carries the charge components for a new billing record
type CreateBillingRequest struct {
	ReservationID uuid.UUID       `json:"reservation_id" binding:"required"`
	GuestName     string          `json:"guest_name"`
	RoomSubtotal  decimal.Decimal `json:"room_subtotal" binding:"required"`
	Tax           decimal.Decimal `json:"tax"`
	ServiceFee    decimal.Decimal `json:"service_fee"`
	DueDate       *time.Time      `json:"due_date"`
	Remark        string          `json:"remark"`
}

// ApplyPaymentRequest carries a payment against a billing record
type ApplyPaymentRequest struct {
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Method         string          `json:"method" binding:"required"`
	Reference      string          `json:"reference"`
	IdempotencyKey string          `json:"-"`
}

// BillingListFilter defines filtering options for billing list queries
type BillingListFilter struct {
	Status        string     `form:"status"`
	ReservationID *uuid.UUID `form:"reservation_id"`
	GuestName     string     `form:"guest_name"`
	DueBefore     *time.Time `form:"due_before"`
	DueAfter      *time.Time `form:"due_after"`
	Page          int        `form:"page"`
	PageSize      int        `form:"page_size"`
	OrderBy       string     `form:"order_by"`
	OrderDir      string     `form:"order_dir"`
}

// PaymentRecordResponse represents a payment record in API responses
type PaymentRecordResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference,omitempty"`
	AppliedAt time.Time       `json:"applied_at"`
}

// BillingResponse represents a billing record in API responses
type BillingResponse struct {
	ID            uuid.UUID               `json:"id"`
	TenantID      uuid.UUID               `json:"tenant_id"`
	BillingNumber string                  `json:"billing_number"`
	ReservationID uuid.UUID               `json:"reservation_id"`
	GuestName     string                  `json:"guest_name,omitempty"`
	RoomSubtotal  decimal.Decimal         `json:"room_subtotal"`
	Tax           decimal.Decimal         `json:"tax"`
	ServiceFee    decimal.Decimal         `json:"service_fee"`
	TotalDue      decimal.Decimal         `json:"total_due"`
	AmountPaid    decimal.Decimal         `json:"amount_paid"`
	Outstanding   decimal.Decimal         `json:"outstanding"`
	CreditAmount  decimal.Decimal         `json:"credit_amount"`
	Status        string                  `json:"status"`
	DueDate       *time.Time              `json:"due_date,omitempty"`
	Payments      []PaymentRecordResponse `json:"payments,omitempty"`
	Remark        string                  `json:"remark,omitempty"`
	PaidAt        *time.Time              `json:"paid_at,omitempty"`
	OverdueAt     *time.Time              `json:"overdue_at,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	Version       int                     `json:"version"`
}

// BillingSummaryResponse is the tenant-wide ledger summary
type BillingSummaryResponse struct {
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	PendingCount     int64           `json:"pending_count"`
	PartialCount     int64           `json:"partial_count"`
	PaidCount        int64           `json:"paid_count"`
	OverdueCount     int64           `json:"overdue_count"`
}

// CreateBilling creates a billing record for a finalized reservation.
// TotalDue is derived from the charge components; the due date defaults to
// the configured payment terms when the request leaves it unset.
func (s *BillingService) CreateBilling(ctx context.Context, tenantID uuid.UUID, req *CreateBillingRequest) (*BillingResponse, error) {
	if req.ReservationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RESERVATION", "Reservation ID is required")
	}

	// One billing record per reservation
	if existing, err := s.repo.FindByReservation(ctx, tenantID, req.ReservationID); err == nil && existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("Billing record %s already exists for this reservation", existing.BillingNumber))
	} else if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	billingNumber, err := s.repo.GenerateBillingNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	dueDate := req.DueDate
	if dueDate == nil && s.paymentTermsDays > 0 {
		d := time.Now().AddDate(0, 0, s.paymentTermsDays)
		dueDate = &d
	}

	record, err := billing.NewBillingRecord(
		tenantID,
		billingNumber,
		req.ReservationID,
		req.GuestName,
		valueobject.NewMoneyUSD(req.RoomSubtotal),
		valueobject.NewMoneyUSD(req.Tax),
		valueobject.NewMoneyUSD(req.ServiceFee),
		dueDate,
	)
	if err != nil {
		return nil, err
	}
	if req.Remark != "" {
		record.SetRemark(req.Remark)
	}

	if err := s.repo.Save(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("Billing record created",
		zap.String("billing_number", record.BillingNumber),
		zap.String("tenant_id", tenantID.String()),
		zap.String("reservation_id", req.ReservationID.String()),
		zap.String("total_due", record.TotalDue.String()),
	)

	return toBillingResponse(record), nil
}

// ApplyPayment applies a payment to a billing record. When the request
// carries an idempotency key, a replay of an already-processed key returns
// the current record without applying the payment again. The key is marked
// only after the version-CAS save succeeds, so a 409 retry with the same key
// still applies. Two concurrent requests with the same key cannot both
// commit: one loses the version race.
func (s *BillingService) ApplyPayment(ctx context.Context, tenantID, billingID uuid.UUID, req *ApplyPaymentRequest) (*BillingResponse, error) {
	method := billing.PaymentMethod(req.Method)
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD",
			fmt.Sprintf("Unknown payment method %q", req.Method))
	}

	var idempotencyKey string
	if req.IdempotencyKey != "" && s.idempotencyStore != nil {
		idempotencyKey = paymentIdempotencyKey(tenantID, billingID, req.IdempotencyKey)
		processed, err := s.idempotencyStore.IsProcessed(ctx, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if processed {
			// Replay: return current state without reapplying
			record, err := s.repo.FindByIDForTenant(ctx, tenantID, billingID)
			if err != nil {
				return nil, err
			}
			return toBillingResponse(record), nil
		}
	}

	record, err := s.repo.FindByIDForTenant(ctx, tenantID, billingID)
	if err != nil {
		return nil, err
	}

	if err := record.ApplyPayment(valueobject.NewMoneyUSD(req.Amount), method, req.Reference); err != nil {
		return nil, err
	}

	if err := s.repo.SaveWithLock(ctx, record); err != nil {
		s.logger.Warn("Payment save failed",
			zap.String("billing_number", record.BillingNumber),
			zap.Error(err),
		)
		return nil, err
	}

	if idempotencyKey != "" {
		if _, err := s.idempotencyStore.MarkProcessed(ctx, idempotencyKey, s.idempotencyTTL); err != nil {
			s.logger.Warn("Failed to record payment idempotency key",
				zap.String("billing_number", record.BillingNumber),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Payment applied",
		zap.String("billing_number", record.BillingNumber),
		zap.String("amount", req.Amount.String()),
		zap.String("status", string(record.Status)),
	)

	return toBillingResponse(record), nil
}

// MarkOverdue transitions a billing record to OVERDUE if it is unpaid and
// past its due date as of the given instant. Returns the record either way;
// marking a PAID or already-overdue record is a no-op.
func (s *BillingService) MarkOverdue(ctx context.Context, tenantID, billingID uuid.UUID, asOf time.Time) (*BillingResponse, error) {
	record, err := s.repo.FindByIDForTenant(ctx, tenantID, billingID)
	if err != nil {
		return nil, err
	}

	if record.MarkOverdue(asOf) {
		if err := s.repo.SaveWithLock(ctx, record); err != nil {
			return nil, err
		}
		s.logger.Info("Billing record marked overdue",
			zap.String("billing_number", record.BillingNumber),
			zap.Time("as_of", asOf),
		)
	}

	return toBillingResponse(record), nil
}

// RunOverdueSweep marks every unpaid, past-due billing record of a property
// as overdue. Version conflicts are skipped, not retried: a conflict means a
// concurrent writer (usually a payment) changed the record, and the next
// sweep re-evaluates it. Returns the number of records marked.
func (s *BillingService) RunOverdueSweep(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int, error) {
	records, err := s.repo.FindDueForOverdue(ctx, tenantID, asOf)
	if err != nil {
		return 0, err
	}

	marked := 0
	for i := range records {
		record := &records[i]
		if !record.MarkOverdue(asOf) {
			continue
		}
		if err := s.repo.SaveWithLock(ctx, record); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				s.logger.Debug("Overdue sweep skipped record after concurrent update",
					zap.String("billing_number", record.BillingNumber),
				)
				continue
			}
			return marked, err
		}
		marked++
	}

	if marked > 0 {
		s.logger.Info("Overdue sweep marked records",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("marked", marked),
		)
	}

	return marked, nil
}

// ListSweepTenants returns the properties the overdue sweep should visit
func (s *BillingService) ListSweepTenants(ctx context.Context) ([]uuid.UUID, error) {
	return s.repo.ListTenantIDs(ctx)
}

// GetBilling fetches a billing record by ID
func (s *BillingService) GetBilling(ctx context.Context, tenantID, billingID uuid.UUID) (*BillingResponse, error) {
	record, err := s.repo.FindByIDForTenant(ctx, tenantID, billingID)
	if err != nil {
		return nil, err
	}
	return toBillingResponse(record), nil
}

// ListBillings lists billing records with filtering and pagination
func (s *BillingService) ListBillings(ctx context.Context, tenantID uuid.UUID, filter BillingListFilter) ([]BillingResponse, int64, error) {
	domainFilter := billing.BillingRecordFilter{
		ReservationID: filter.ReservationID,
		GuestName:     filter.GuestName,
		DueBefore:     filter.DueBefore,
		DueAfter:      filter.DueAfter,
		Page:          filter.Page,
		PageSize:      filter.PageSize,
		OrderBy:       filter.OrderBy,
		OrderDir:      filter.OrderDir,
	}
	if domainFilter.Page < 1 {
		domainFilter.Page = 1
	}
	if domainFilter.PageSize <= 0 {
		domainFilter.PageSize = 20
	}
	if filter.Status != "" {
		status := billing.BillingStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Unknown billing status %q", filter.Status))
		}
		domainFilter.Status = &status
	}

	records, err := s.repo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]BillingResponse, len(records))
	for i := range records {
		responses[i] = *toBillingResponse(&records[i])
	}
	return responses, total, nil
}

// GetBillingSummary returns tenant-wide collected and outstanding totals
// with per-status counts, computed in SQL.
func (s *BillingService) GetBillingSummary(ctx context.Context, tenantID uuid.UUID) (*BillingSummaryResponse, error) {
	totals, err := s.repo.Summarize(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	summary := &BillingSummaryResponse{
		TotalCollected:   totals.TotalCollected,
		TotalOutstanding: totals.TotalOutstanding,
	}

	counts := []struct {
		status billing.BillingStatus
		dst    *int64
	}{
		{billing.BillingStatusPending, &summary.PendingCount},
		{billing.BillingStatusPartial, &summary.PartialCount},
		{billing.BillingStatusPaid, &summary.PaidCount},
		{billing.BillingStatusOverdue, &summary.OverdueCount},
	}
	for _, c := range counts {
		n, err := s.repo.CountByStatus(ctx, tenantID, c.status)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	return summary, nil
}

// paymentIdempotencyKey namespaces an idempotency key to a billing record
func paymentIdempotencyKey(tenantID, billingID uuid.UUID, key string) string {
	return fmt.Sprintf("billing:payment:%s:%s:%s", tenantID, billingID, key)
}

// toBillingResponse converts a domain record to its API representation
func toBillingResponse(record *billing.BillingRecord) *BillingResponse {
	payments := make([]PaymentRecordResponse, len(record.PaymentRecords))
	for i, p := range record.PaymentRecords {
		payments[i] = PaymentRecordResponse{
			ID:        p.ID,
			Amount:    p.Amount,
			Method:    string(p.Method),
			Reference: p.Reference,
			AppliedAt: p.AppliedAt,
		}
	}

	return &BillingResponse{
		ID:            record.ID,
		TenantID:      record.TenantID,
		BillingNumber: record.BillingNumber,
		ReservationID: record.ReservationID,
		GuestName:     record.GuestName,
		RoomSubtotal:  record.RoomSubtotal,
		Tax:           record.Tax,
		ServiceFee:    record.ServiceFee,
		TotalDue:      record.TotalDue,
		AmountPaid:    record.AmountPaid,
		Outstanding:   record.OutstandingBalance(),
		CreditAmount:  record.CreditAmount(),
		Status:        string(record.Status),
		DueDate:       record.DueDate,
		Payments:      payments,
		Remark:        record.Remark,
		PaidAt:        record.PaidAt,
		OverdueAt:     record.OverdueAt,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
		Version:       record.Version,
	}
}
