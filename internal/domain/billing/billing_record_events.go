package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/hotelpms/backend/internal/domain/shared"
	"github.com/hotelpms/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BillingCreatedEvent is raised when a new billing record is created
type BillingCreatedEvent struct {
	shared.BaseDomainEvent
	BillingID     uuid.UUID       `json:"billing_id"`
	BillingNumber string          `json:"billing_number"`
	ReservationID uuid.UUID       `json:"reservation_id"`
	GuestName     string          `json:"guest_name"`
	TotalDue      decimal.Decimal `json:"total_due"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
}

// EventType returns the event type name
func (e *BillingCreatedEvent) EventType() string {
	return "BillingCreated"
}

// NewBillingCreatedEvent creates a new BillingCreatedEvent
func NewBillingCreatedEvent(br *BillingRecord) *BillingCreatedEvent {
	return &BillingCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BillingCreated", "BillingRecord", br.ID, br.TenantID),
		BillingID:       br.ID,
		BillingNumber:   br.BillingNumber,
		ReservationID:   br.ReservationID,
		GuestName:       br.GuestName,
		TotalDue:        br.TotalDue,
		DueDate:         br.DueDate,
	}
}

// BillingPaymentAppliedEvent is raised when a payment is applied without fully settling the record
type BillingPaymentAppliedEvent struct {
	shared.BaseDomainEvent
	BillingID     uuid.UUID       `json:"billing_id"`
	BillingNumber string          `json:"billing_number"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Outstanding   decimal.Decimal `json:"outstanding"`
}

// EventType returns the event type name
func (e *BillingPaymentAppliedEvent) EventType() string {
	return "BillingPaymentApplied"
}

// NewBillingPaymentAppliedEvent creates a new BillingPaymentAppliedEvent
func NewBillingPaymentAppliedEvent(br *BillingRecord, payment valueobject.Money) *BillingPaymentAppliedEvent {
	return &BillingPaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BillingPaymentApplied", "BillingRecord", br.ID, br.TenantID),
		BillingID:       br.ID,
		BillingNumber:   br.BillingNumber,
		PaymentAmount:   payment.Amount(),
		AmountPaid:      br.AmountPaid,
		Outstanding:     br.OutstandingBalance(),
	}
}

// BillingPaidEvent is raised when a billing record is fully paid
type BillingPaidEvent struct {
	shared.BaseDomainEvent
	BillingID     uuid.UUID       `json:"billing_id"`
	BillingNumber string          `json:"billing_number"`
	TotalDue      decimal.Decimal `json:"total_due"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	CreditAmount  decimal.Decimal `json:"credit_amount"`
	PaidAt        time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *BillingPaidEvent) EventType() string {
	return "BillingPaid"
}

// NewBillingPaidEvent creates a new BillingPaidEvent
func NewBillingPaidEvent(br *BillingRecord) *BillingPaidEvent {
	paidAt := time.Now()
	if br.PaidAt != nil {
		paidAt = *br.PaidAt
	}
	return &BillingPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BillingPaid", "BillingRecord", br.ID, br.TenantID),
		BillingID:       br.ID,
		BillingNumber:   br.BillingNumber,
		TotalDue:        br.TotalDue,
		AmountPaid:      br.AmountPaid,
		CreditAmount:    br.CreditAmount(),
		PaidAt:          paidAt,
	}
}

// BillingOverdueEvent is raised when a billing record passes its due date unpaid
type BillingOverdueEvent struct {
	shared.BaseDomainEvent
	BillingID     uuid.UUID       `json:"billing_id"`
	BillingNumber string          `json:"billing_number"`
	GuestName     string          `json:"guest_name"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	DueDate       time.Time       `json:"due_date"`
	OverdueAt     time.Time       `json:"overdue_at"`
}

// EventType returns the event type name
func (e *BillingOverdueEvent) EventType() string {
	return "BillingOverdue"
}

// NewBillingOverdueEvent creates a new BillingOverdueEvent
func NewBillingOverdueEvent(br *BillingRecord) *BillingOverdueEvent {
	var dueDate time.Time
	if br.DueDate != nil {
		dueDate = *br.DueDate
	}
	var overdueAt time.Time
	if br.OverdueAt != nil {
		overdueAt = *br.OverdueAt
	}
	return &BillingOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BillingOverdue", "BillingRecord", br.ID, br.TenantID),
		BillingID:       br.ID,
		BillingNumber:   br.BillingNumber,
		GuestName:       br.GuestName,
		Outstanding:     br.OutstandingBalance(),
		DueDate:         dueDate,
		OverdueAt:       overdueAt,
	}
}
