package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hotelpms/backend/internal/domain/shared"
	"github.com/hotelpms/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BillingStatus represents the status of a billing record
type BillingStatus string

const (
	BillingStatusPending BillingStatus = "PENDING" // No payment applied yet
	BillingStatusPartial BillingStatus = "PARTIAL" // Partially paid, 0 < paid < total
	BillingStatusPaid    BillingStatus = "PAID"    // Fully paid, terminal
	BillingStatusOverdue BillingStatus = "OVERDUE" // Unpaid past due date
)

// IsValid checks if the status is a valid BillingStatus
func (s BillingStatus) IsValid() bool {
	switch s {
	case BillingStatusPending, BillingStatusPartial, BillingStatusPaid, BillingStatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of BillingStatus
func (s BillingStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the billing record is in a terminal state.
// PAID is the only terminal status; no transition ever leaves it.
func (s BillingStatus) IsTerminal() bool {
	return s == BillingStatusPaid
}

// CanApplyPayment returns true if payments can be applied in this status
func (s BillingStatus) CanApplyPayment() bool {
	return s == BillingStatusPending || s == BillingStatusPartial || s == BillingStatusOverdue
}

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodOnline   PaymentMethod = "ONLINE"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodOnline:
		return true
	}
	return false
}

// PaymentRecord represents a payment applied to the billing record
// This is a value object within the BillingRecord aggregate, stored as JSONB
type PaymentRecord struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Reference string          `json:"reference,omitempty"` // Gateway transaction reference
	AppliedAt time.Time       `json:"applied_at"`
}

// PaymentRecords is a slice of PaymentRecord that implements GORM Scanner/Valuer for JSONB storage
type PaymentRecords []PaymentRecord

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p PaymentRecords) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *PaymentRecords) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentRecords{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentRecords: unsupported type")
	}

	if len(bytes) == 0 {
		*p = PaymentRecords{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// NewPaymentRecord creates a new payment record
func NewPaymentRecord(amount valueobject.Money, method PaymentMethod, reference string) *PaymentRecord {
	return &PaymentRecord{
		ID:        uuid.New(),
		Amount:    amount.Amount(),
		Method:    method,
		Reference: reference,
		AppliedAt: time.Now(),
	}
}

// GetAmountMoney returns the amount as Money value object
func (p *PaymentRecord) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.Amount)
}

// BillingRecord is the authoritative ledger entry for one reservation's
// charges and payments. TotalDue is always derived from the three charge
// components; AmountPaid is the monotonic sum of applied payments.
type BillingRecord struct {
	shared.TenantAggregateRoot
	BillingNumber string          `json:"billing_number"`
	ReservationID uuid.UUID       `json:"reservation_id"`
	GuestName     string          `json:"guest_name"`
	RoomSubtotal  decimal.Decimal `json:"room_subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	ServiceFee    decimal.Decimal `json:"service_fee"`
	TotalDue      decimal.Decimal `json:"total_due"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Status        BillingStatus   `json:"status"`
	DueDate       *time.Time      `json:"due_date"`
	PaymentRecords PaymentRecords `json:"payment_records"`
	Remark        string          `json:"remark"`
	PaidAt        *time.Time      `json:"paid_at"`
	OverdueAt     *time.Time      `json:"overdue_at"`
}

// NewBillingRecord creates a new billing record for a finalized reservation.
// All three charge components must be non-negative; TotalDue is derived.
func NewBillingRecord(
	tenantID uuid.UUID,
	billingNumber string,
	reservationID uuid.UUID,
	guestName string,
	roomSubtotal, tax, serviceFee valueobject.Money,
	dueDate *time.Time,
) (*BillingRecord, error) {
	if billingNumber == "" {
		return nil, shared.NewDomainError("INVALID_BILLING_NUMBER", "Billing number cannot be empty")
	}
	if len(billingNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_BILLING_NUMBER", "Billing number cannot exceed 50 characters")
	}
	if reservationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RESERVATION", "Reservation ID cannot be empty")
	}
	if roomSubtotal.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Room subtotal cannot be negative")
	}
	if tax.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Tax cannot be negative")
	}
	if serviceFee.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Service fee cannot be negative")
	}

	totalDue := roomSubtotal.Amount().Add(tax.Amount()).Add(serviceFee.Amount())

	br := &BillingRecord{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BillingNumber:       billingNumber,
		ReservationID:       reservationID,
		GuestName:           guestName,
		RoomSubtotal:        roomSubtotal.Amount(),
		Tax:                 tax.Amount(),
		ServiceFee:          serviceFee.Amount(),
		TotalDue:            totalDue,
		AmountPaid:          decimal.Zero,
		Status:              BillingStatusPending,
		DueDate:             dueDate,
		PaymentRecords:      PaymentRecords{},
	}

	br.AddDomainEvent(NewBillingCreatedEvent(br))

	return br, nil
}

// ApplyPayment applies a payment to the billing record.
// The amount must be strictly positive. AmountPaid only ever increases.
// Overpayment is accepted: AmountPaid may exceed TotalDue and the excess
// is surfaced through CreditAmount as a refund-due signal.
func (br *BillingRecord) ApplyPayment(amount valueobject.Money, method PaymentMethod, reference string) error {
	if !br.Status.CanApplyPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to billing record in %s status", br.Status))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", method))
	}

	record := NewPaymentRecord(amount, method, reference)
	br.PaymentRecords = append(br.PaymentRecords, *record)

	br.AmountPaid = br.AmountPaid.Add(amount.Amount())

	if br.AmountPaid.GreaterThanOrEqual(br.TotalDue) {
		now := time.Now()
		br.Status = BillingStatusPaid
		br.PaidAt = &now
		br.AddDomainEvent(NewBillingPaidEvent(br))
	} else {
		br.Status = BillingStatusPartial
		br.AddDomainEvent(NewBillingPaymentAppliedEvent(br, amount))
	}

	br.UpdatedAt = time.Now()
	br.IncrementVersion()

	return nil
}

// MarkOverdue transitions a pending or partial record past its due date
// into OVERDUE as of the given time. Idempotent: marking an already
// overdue record, or one with no due date or a future due date, is a
// no-op. A paid record is never touched.
func (br *BillingRecord) MarkOverdue(asOf time.Time) bool {
	if br.Status.IsTerminal() || br.Status == BillingStatusOverdue {
		return false
	}
	if br.DueDate == nil || !asOf.After(*br.DueDate) {
		return false
	}

	br.Status = BillingStatusOverdue
	overdueAt := asOf
	br.OverdueAt = &overdueAt
	br.UpdatedAt = time.Now()
	br.IncrementVersion()

	br.AddDomainEvent(NewBillingOverdueEvent(br))

	return true
}

// OutstandingBalance returns the amount still owed, never negative.
func (br *BillingRecord) OutstandingBalance() decimal.Decimal {
	outstanding := br.TotalDue.Sub(br.AmountPaid)
	if outstanding.IsNegative() {
		return decimal.Zero
	}
	return outstanding
}

// CreditAmount returns the overpaid excess (refund-due signal), never negative.
func (br *BillingRecord) CreditAmount() decimal.Decimal {
	credit := br.AmountPaid.Sub(br.TotalDue)
	if credit.IsNegative() {
		return decimal.Zero
	}
	return credit
}

// SetDueDate updates the due date
func (br *BillingRecord) SetDueDate(dueDate *time.Time) error {
	if br.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify due date for a paid billing record")
	}

	br.DueDate = dueDate
	br.UpdatedAt = time.Now()
	br.IncrementVersion()

	return nil
}

// SetRemark sets the remark
func (br *BillingRecord) SetRemark(remark string) {
	br.Remark = remark
	br.UpdatedAt = time.Now()
	br.IncrementVersion()
}

// Helper methods

// GetRoomSubtotalMoney returns the room subtotal as Money
func (br *BillingRecord) GetRoomSubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(br.RoomSubtotal)
}

// GetTotalDueMoney returns total due as Money
func (br *BillingRecord) GetTotalDueMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(br.TotalDue)
}

// GetAmountPaidMoney returns amount paid as Money
func (br *BillingRecord) GetAmountPaidMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(br.AmountPaid)
}

// GetOutstandingMoney returns the outstanding balance as Money
func (br *BillingRecord) GetOutstandingMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(br.OutstandingBalance())
}

// IsPending returns true if no payment has been applied yet
func (br *BillingRecord) IsPending() bool {
	return br.Status == BillingStatusPending
}

// IsPartial returns true if the record is partially paid
func (br *BillingRecord) IsPartial() bool {
	return br.Status == BillingStatusPartial
}

// IsPaid returns true if the record is fully paid
func (br *BillingRecord) IsPaid() bool {
	return br.Status == BillingStatusPaid
}

// IsOverdue returns true if the record is past due date and not paid.
// This checks the due date, not the stored status; the overdue sweep
// persists the status transition.
func (br *BillingRecord) IsOverdue(asOf time.Time) bool {
	if br.Status.IsTerminal() {
		return false
	}
	if br.DueDate == nil {
		return false
	}
	return asOf.After(*br.DueDate)
}

// DaysOverdue returns the number of days past due (0 if not overdue)
func (br *BillingRecord) DaysOverdue(asOf time.Time) int {
	if !br.IsOverdue(asOf) {
		return 0
	}
	return int(asOf.Sub(*br.DueDate).Hours() / 24)
}

// PaymentCount returns the number of payments applied
func (br *BillingRecord) PaymentCount() int {
	return len(br.PaymentRecords)
}

// AggregateTotals is the result of aggregating a set of billing records
type AggregateTotals struct {
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

// Aggregate computes collected and outstanding totals over a snapshot of
// billing records. Pure function: safe for unsynchronized concurrent use.
// TotalCollected sums AmountPaid across all records; TotalOutstanding
// sums the outstanding balance of records that are not fully paid.
func Aggregate(records []BillingRecord) AggregateTotals {
	totals := AggregateTotals{
		TotalCollected:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
	}
	for i := range records {
		totals.TotalCollected = totals.TotalCollected.Add(records[i].AmountPaid)
		if records[i].Status != BillingStatusPaid {
			totals.TotalOutstanding = totals.TotalOutstanding.Add(records[i].OutstandingBalance())
		}
	}
	return totals
}
