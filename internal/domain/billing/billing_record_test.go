package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hotelpms/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func createTestBilling(t *testing.T, subtotal, tax, fee float64) *BillingRecord {
	tenantID := uuid.New()
	reservationID := uuid.New()

	br, err := NewBillingRecord(
		tenantID,
		"BL-20260115-00001",
		reservationID,
		"Ada Lovelace",
		valueobject.NewMoneyUSDFromFloat(subtotal),
		valueobject.NewMoneyUSDFromFloat(tax),
		valueobject.NewMoneyUSDFromFloat(fee),
		nil,
	)
	require.NoError(t, err)
	return br
}

func createTestBillingWithDueDate(t *testing.T, daysFromNow int) *BillingRecord {
	br := createTestBilling(t, 400.00, 40.00, 25.00)
	dueDate := time.Now().AddDate(0, 0, daysFromNow)
	br.DueDate = &dueDate
	return br
}

func usd(f float64) valueobject.Money {
	return valueobject.NewMoneyUSDFromFloat(f)
}

// ============================================
// BillingStatus Tests
// ============================================

func TestBillingStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  BillingStatus
		isValid bool
	}{
		{BillingStatusPending, true},
		{BillingStatusPartial, true},
		{BillingStatusPaid, true},
		{BillingStatusOverdue, true},
		{BillingStatus("INVALID"), false},
		{BillingStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestBillingStatus_IsTerminal(t *testing.T) {
	assert.True(t, BillingStatusPaid.IsTerminal())
	assert.False(t, BillingStatusPending.IsTerminal())
	assert.False(t, BillingStatusPartial.IsTerminal())
	assert.False(t, BillingStatusOverdue.IsTerminal())
}

func TestBillingStatus_CanApplyPayment(t *testing.T) {
	assert.True(t, BillingStatusPending.CanApplyPayment())
	assert.True(t, BillingStatusPartial.CanApplyPayment())
	assert.True(t, BillingStatusOverdue.CanApplyPayment())
	assert.False(t, BillingStatusPaid.CanApplyPayment())
}

// ============================================
// NewBillingRecord Tests
// ============================================

func TestNewBillingRecord(t *testing.T) {
	t.Run("creates pending record with derived total", func(t *testing.T) {
		br := createTestBilling(t, 400.00, 40.00, 25.00)

		assert.Equal(t, BillingStatusPending, br.Status)
		assert.True(t, br.TotalDue.Equal(decimal.NewFromFloat(465.00)))
		assert.True(t, br.AmountPaid.IsZero())
		assert.True(t, br.OutstandingBalance().Equal(decimal.NewFromFloat(465.00)))
		assert.Empty(t, br.PaymentRecords)
		assert.Equal(t, 1, br.Version)

		events := br.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "BillingCreated", events[0].EventType())
	})

	t.Run("allows zero-amount record", func(t *testing.T) {
		br := createTestBilling(t, 0, 0, 0)
		assert.True(t, br.TotalDue.IsZero())
		assert.True(t, br.OutstandingBalance().IsZero())
	})

	t.Run("rejects empty billing number", func(t *testing.T) {
		_, err := NewBillingRecord(uuid.New(), "", uuid.New(), "Guest", usd(100), usd(10), usd(5), nil)
		assert.Error(t, err)
	})

	t.Run("rejects nil reservation", func(t *testing.T) {
		_, err := NewBillingRecord(uuid.New(), "BL-20260115-00002", uuid.Nil, "Guest", usd(100), usd(10), usd(5), nil)
		assert.Error(t, err)
	})

	t.Run("rejects negative components", func(t *testing.T) {
		_, err := NewBillingRecord(uuid.New(), "BL-20260115-00003", uuid.New(), "Guest", usd(-1), usd(10), usd(5), nil)
		assert.Error(t, err)

		_, err = NewBillingRecord(uuid.New(), "BL-20260115-00004", uuid.New(), "Guest", usd(100), usd(-1), usd(5), nil)
		assert.Error(t, err)

		_, err = NewBillingRecord(uuid.New(), "BL-20260115-00005", uuid.New(), "Guest", usd(100), usd(10), usd(-1), nil)
		assert.Error(t, err)
	})
}

// ============================================
// ApplyPayment Tests
// ============================================

func TestBillingRecord_ApplyPayment(t *testing.T) {
	t.Run("partial payment moves pending to partial", func(t *testing.T) {
		br := createTestBilling(t, 400.00, 40.00, 25.00)
		br.ClearDomainEvents()

		err := br.ApplyPayment(usd(200.00), PaymentMethodCard, "txn-001")
		require.NoError(t, err)

		assert.Equal(t, BillingStatusPartial, br.Status)
		assert.True(t, br.AmountPaid.Equal(decimal.NewFromFloat(200.00)))
		assert.True(t, br.OutstandingBalance().Equal(decimal.NewFromFloat(265.00)))
		assert.Equal(t, 1, br.PaymentCount())
		assert.Equal(t, 2, br.Version)

		events := br.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "BillingPaymentApplied", events[0].EventType())
	})

	t.Run("covering payment settles the record", func(t *testing.T) {
		br := createTestBilling(t, 400.00, 40.00, 25.00)
		br.ClearDomainEvents()

		require.NoError(t, br.ApplyPayment(usd(200.00), PaymentMethodCard, "txn-001"))
		require.NoError(t, br.ApplyPayment(usd(265.00), PaymentMethodCash, ""))

		assert.Equal(t, BillingStatusPaid, br.Status)
		assert.True(t, br.OutstandingBalance().IsZero())
		assert.True(t, br.CreditAmount().IsZero())
		require.NotNil(t, br.PaidAt)
		assert.Equal(t, 2, br.PaymentCount())

		events := br.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, "BillingPaid", events[1].EventType())
	})

	t.Run("single exact payment goes pending to paid directly", func(t *testing.T) {
		br := createTestBilling(t, 400.00, 40.00, 25.00)

		require.NoError(t, br.ApplyPayment(usd(465.00), PaymentMethodTransfer, "wire-7"))

		assert.Equal(t, BillingStatusPaid, br.Status)
		assert.True(t, br.OutstandingBalance().IsZero())
	})

	t.Run("overpayment is accepted and tracked as credit", func(t *testing.T) {
		br := createTestBilling(t, 400.00, 40.00, 25.00)

		require.NoError(t, br.ApplyPayment(usd(500.00), PaymentMethodOnline, "gw-123"))

		assert.Equal(t, BillingStatusPaid, br.Status)
		assert.True(t, br.AmountPaid.Equal(decimal.NewFromFloat(500.00)))
		assert.True(t, br.OutstandingBalance().IsZero(), "outstanding balance clamps at zero")
		assert.True(t, br.CreditAmount().Equal(decimal.NewFromFloat(35.00)))
	})

	t.Run("rejects zero and negative amounts", func(t *testing.T) {
		br := createTestBilling(t, 400.00, 40.00, 25.00)

		err := br.ApplyPayment(usd(0), PaymentMethodCash, "")
		assert.Error(t, err)

		err = br.ApplyPayment(usd(-50), PaymentMethodCash, "")
		assert.Error(t, err)

		assert.Equal(t, BillingStatusPending, br.Status)
		assert.True(t, br.AmountPaid.IsZero())
	})

	t.Run("rejects unknown payment method", func(t *testing.T) {
		br := createTestBilling(t, 400.00, 40.00, 25.00)

		err := br.ApplyPayment(usd(100), PaymentMethod("BARTER"), "")
		assert.Error(t, err)
	})

	t.Run("rejects payment on paid record", func(t *testing.T) {
		br := createTestBilling(t, 400.00, 40.00, 25.00)
		require.NoError(t, br.ApplyPayment(usd(465.00), PaymentMethodCard, "txn-001"))

		err := br.ApplyPayment(usd(10.00), PaymentMethodCash, "")
		assert.Error(t, err)
		assert.Equal(t, BillingStatusPaid, br.Status)
		assert.True(t, br.AmountPaid.Equal(decimal.NewFromFloat(465.00)))
	})

	t.Run("payment on overdue record resumes the normal ladder", func(t *testing.T) {
		br := createTestBillingWithDueDate(t, -3)
		require.True(t, br.MarkOverdue(time.Now()))

		require.NoError(t, br.ApplyPayment(usd(100.00), PaymentMethodCash, ""))
		assert.Equal(t, BillingStatusPartial, br.Status)

		require.NoError(t, br.ApplyPayment(usd(365.00), PaymentMethodCard, "txn-9"))
		assert.Equal(t, BillingStatusPaid, br.Status)
	})

	t.Run("no float drift across many small payments", func(t *testing.T) {
		br, err := NewBillingRecord(uuid.New(), "BL-20260115-00009", uuid.New(), "Guest",
			valueobject.NewMoneyUSDFromFloat(0.30), valueobject.ZeroUSD(), valueobject.ZeroUSD(), nil)
		require.NoError(t, err)

		require.NoError(t, br.ApplyPayment(usd(0.10), PaymentMethodCash, ""))
		require.NoError(t, br.ApplyPayment(usd(0.10), PaymentMethodCash, ""))
		require.NoError(t, br.ApplyPayment(usd(0.10), PaymentMethodCash, ""))

		assert.Equal(t, BillingStatusPaid, br.Status)
		assert.True(t, br.OutstandingBalance().IsZero())
	})
}

// ============================================
// MarkOverdue Tests
// ============================================

func TestBillingRecord_MarkOverdue(t *testing.T) {
	t.Run("marks unpaid record past due date", func(t *testing.T) {
		br := createTestBillingWithDueDate(t, -5)
		br.ClearDomainEvents()

		asOf := time.Now()
		changed := br.MarkOverdue(asOf)

		assert.True(t, changed)
		assert.Equal(t, BillingStatusOverdue, br.Status)
		require.NotNil(t, br.OverdueAt)
		assert.Equal(t, asOf, *br.OverdueAt)

		events := br.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "BillingOverdue", events[0].EventType())
	})

	t.Run("marks partial record past due date", func(t *testing.T) {
		br := createTestBillingWithDueDate(t, -1)
		require.NoError(t, br.ApplyPayment(usd(100.00), PaymentMethodCash, ""))

		assert.True(t, br.MarkOverdue(time.Now()))
		assert.Equal(t, BillingStatusOverdue, br.Status)
	})

	t.Run("idempotent on already overdue record", func(t *testing.T) {
		br := createTestBillingWithDueDate(t, -5)
		require.True(t, br.MarkOverdue(time.Now()))
		br.ClearDomainEvents()
		versionBefore := br.Version
		overdueAtBefore := *br.OverdueAt

		assert.False(t, br.MarkOverdue(time.Now()))
		assert.Equal(t, versionBefore, br.Version)
		assert.Equal(t, overdueAtBefore, *br.OverdueAt)
		assert.Empty(t, br.GetDomainEvents())
	})

	t.Run("no-op before due date", func(t *testing.T) {
		br := createTestBillingWithDueDate(t, 5)

		assert.False(t, br.MarkOverdue(time.Now()))
		assert.Equal(t, BillingStatusPending, br.Status)
	})

	t.Run("no-op when due date is unset", func(t *testing.T) {
		br := createTestBilling(t, 400.00, 40.00, 25.00)

		assert.False(t, br.MarkOverdue(time.Now()))
		assert.Equal(t, BillingStatusPending, br.Status)
	})

	t.Run("never touches a paid record", func(t *testing.T) {
		br := createTestBillingWithDueDate(t, -5)
		require.NoError(t, br.ApplyPayment(usd(465.00), PaymentMethodCard, "txn-1"))

		assert.False(t, br.MarkOverdue(time.Now()))
		assert.Equal(t, BillingStatusPaid, br.Status)
		assert.Nil(t, br.OverdueAt)
	})

	t.Run("exactly at due date is not overdue", func(t *testing.T) {
		br := createTestBilling(t, 400.00, 40.00, 25.00)
		due := time.Now()
		br.DueDate = &due

		assert.False(t, br.MarkOverdue(due))
	})
}

// ============================================
// OutstandingBalance / CreditAmount Tests
// ============================================

func TestBillingRecord_OutstandingBalance(t *testing.T) {
	br := createTestBilling(t, 400.00, 40.00, 25.00)
	assert.True(t, br.OutstandingBalance().Equal(decimal.NewFromFloat(465.00)))

	require.NoError(t, br.ApplyPayment(usd(65.00), PaymentMethodCash, ""))
	assert.True(t, br.OutstandingBalance().Equal(decimal.NewFromFloat(400.00)))

	require.NoError(t, br.ApplyPayment(usd(450.00), PaymentMethodCash, ""))
	assert.True(t, br.OutstandingBalance().IsZero())
	assert.True(t, br.CreditAmount().Equal(decimal.NewFromFloat(50.00)))
}

func TestBillingRecord_DaysOverdue(t *testing.T) {
	br := createTestBillingWithDueDate(t, -10)
	assert.Equal(t, 10, br.DaysOverdue(time.Now()))

	paid := createTestBillingWithDueDate(t, -10)
	require.NoError(t, paid.ApplyPayment(usd(465.00), PaymentMethodCard, ""))
	assert.Equal(t, 0, paid.DaysOverdue(time.Now()))
}

// ============================================
// Aggregate Tests
// ============================================

func TestAggregate(t *testing.T) {
	t.Run("empty set yields zero totals", func(t *testing.T) {
		totals := Aggregate(nil)
		assert.True(t, totals.TotalCollected.IsZero())
		assert.True(t, totals.TotalOutstanding.IsZero())
	})

	t.Run("mixed statuses", func(t *testing.T) {
		pending := createTestBilling(t, 100.00, 10.00, 5.00) // due 115, paid 0

		partial := createTestBilling(t, 200.00, 20.00, 5.00) // due 225, paid 100
		require.NoError(t, partial.ApplyPayment(usd(100.00), PaymentMethodCash, ""))

		paid := createTestBilling(t, 50.00, 5.00, 5.00) // due 60, paid 60
		require.NoError(t, paid.ApplyPayment(usd(60.00), PaymentMethodCard, ""))

		overdue := createTestBillingWithDueDate(t, -2) // due 465, paid 0
		require.True(t, overdue.MarkOverdue(time.Now()))

		totals := Aggregate([]BillingRecord{*pending, *partial, *paid, *overdue})

		assert.True(t, totals.TotalCollected.Equal(decimal.NewFromFloat(160.00)))
		assert.True(t, totals.TotalOutstanding.Equal(decimal.NewFromFloat(715.00)))
	})

	t.Run("overpaid record contributes no negative outstanding", func(t *testing.T) {
		over := createTestBilling(t, 100.00, 0, 0)
		require.NoError(t, over.ApplyPayment(usd(150.00), PaymentMethodOnline, "gw-1"))

		totals := Aggregate([]BillingRecord{*over})
		assert.True(t, totals.TotalCollected.Equal(decimal.NewFromFloat(150.00)))
		assert.True(t, totals.TotalOutstanding.IsZero())
	})
}

// ============================================
// PaymentRecords JSONB Tests
// ============================================

func TestPaymentRecords_ValueAndScan(t *testing.T) {
	records := PaymentRecords{
		{ID: uuid.New(), Amount: decimal.NewFromFloat(120.50), Method: PaymentMethodCard, Reference: "txn-1", AppliedAt: time.Now().UTC().Truncate(time.Second)},
	}

	value, err := records.Value()
	require.NoError(t, err)

	var decoded PaymentRecords
	require.NoError(t, decoded.Scan(value))
	require.Len(t, decoded, 1)
	assert.Equal(t, records[0].ID, decoded[0].ID)
	assert.True(t, decoded[0].Amount.Equal(decimal.NewFromFloat(120.50)))
	assert.Equal(t, PaymentMethodCard, decoded[0].Method)
}

func TestPaymentRecords_ScanNil(t *testing.T) {
	var decoded PaymentRecords
	require.NoError(t, decoded.Scan(nil))
	assert.Empty(t, decoded)
}
