package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hotelpms/backend/internal/domain/billing"
	"github.com/hotelpms/backend/internal/domain/shared"
	"github.com/hotelpms/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockBillingRecordRepository is a mock implementation of billing.BillingRecordRepository
type MockBillingRecordRepository struct {
	mock.Mock
}

func (m *MockBillingRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.BillingRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.BillingRecord), args.Error(1)
}

func (m *MockBillingRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.BillingRecord, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.BillingRecord), args.Error(1)
}

func (m *MockBillingRecordRepository) FindByBillingNumber(ctx context.Context, tenantID uuid.UUID, billingNumber string) (*billing.BillingRecord, error) {
	args := m.Called(ctx, tenantID, billingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.BillingRecord), args.Error(1)
}

func (m *MockBillingRecordRepository) FindByReservation(ctx context.Context, tenantID, reservationID uuid.UUID) (*billing.BillingRecord, error) {
	args := m.Called(ctx, tenantID, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.BillingRecord), args.Error(1)
}

func (m *MockBillingRecordRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.BillingRecordFilter) ([]billing.BillingRecord, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.BillingRecord), args.Error(1)
}

func (m *MockBillingRecordRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status billing.BillingStatus, filter billing.BillingRecordFilter) ([]billing.BillingRecord, error) {
	args := m.Called(ctx, tenantID, status, filter)
	return args.Get(0).([]billing.BillingRecord), args.Error(1)
}

func (m *MockBillingRecordRepository) FindDueForOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]billing.BillingRecord, error) {
	args := m.Called(ctx, tenantID, asOf)
	return args.Get(0).([]billing.BillingRecord), args.Error(1)
}

func (m *MockBillingRecordRepository) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockBillingRecordRepository) GenerateBillingNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

func (m *MockBillingRecordRepository) Save(ctx context.Context, record *billing.BillingRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockBillingRecordRepository) SaveWithLock(ctx context.Context, record *billing.BillingRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockBillingRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBillingRecordRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.BillingRecordFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBillingRecordRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status billing.BillingStatus) (int64, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBillingRecordRepository) Summarize(ctx context.Context, tenantID uuid.UUID) (*billing.AggregateTotals, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.AggregateTotals), args.Error(1)
}

// memoryIdempotencyStore is a simple map-backed store for tests
type memoryIdempotencyStore struct {
	keys map[string]bool
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{keys: make(map[string]bool)}
}

func (s *memoryIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *memoryIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	return s.keys[key], nil
}

func (s *memoryIdempotencyStore) Close() error { return nil }

func newTestService(repo billing.BillingRecordRepository) *BillingService {
	return NewBillingService(repo, newMemoryIdempotencyStore(), BillingServiceConfig{
		PaymentTermsDays: 14,
		IdempotencyTTL:   time.Hour,
	}, zap.NewNop())
}

func newStoredRecord(t *testing.T, tenantID uuid.UUID, subtotal, tax, fee float64) *billing.BillingRecord {
	t.Helper()
	record, err := billing.NewBillingRecord(
		tenantID, "BL-20260301-00001", uuid.New(), "Ada Nakamura",
		valueobject.NewMoneyUSDFromFloat(subtotal),
		valueobject.NewMoneyUSDFromFloat(tax),
		valueobject.NewMoneyUSDFromFloat(fee),
		nil,
	)
	require.NoError(t, err)
	record.ClearDomainEvents()
	return record
}

func TestBillingService_CreateBilling(t *testing.T) {
	tenantID := uuid.New()
	reservationID := uuid.New()

	t.Run("creates record with derived total and default due date", func(t *testing.T) {
		repo := new(MockBillingRecordRepository)
		repo.On("FindByReservation", mock.Anything, tenantID, reservationID).Return(nil, shared.ErrNotFound)
		repo.On("GenerateBillingNumber", mock.Anything, tenantID).Return("BL-20260301-00001", nil)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*billing.BillingRecord")).Return(nil)

		svc := newTestService(repo)
		resp, err := svc.CreateBilling(context.Background(), tenantID, &CreateBillingRequest{
			ReservationID: reservationID,
			GuestName:     "Ada Nakamura",
			RoomSubtotal:  decimal.NewFromInt(100),
			Tax:           decimal.NewFromInt(10),
			ServiceFee:    decimal.NewFromInt(5),
		})

		require.NoError(t, err)
		assert.True(t, resp.TotalDue.Equal(decimal.NewFromInt(115)))
		assert.Equal(t, "PENDING", resp.Status)
		require.NotNil(t, resp.DueDate)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 14), *resp.DueDate, time.Minute)
		repo.AssertExpectations(t)
	})

	t.Run("rejects duplicate billing for a reservation", func(t *testing.T) {
		repo := new(MockBillingRecordRepository)
		existing := newStoredRecord(t, tenantID, 100, 10, 5)
		repo.On("FindByReservation", mock.Anything, tenantID, reservationID).Return(existing, nil)

		svc := newTestService(repo)
		_, err := svc.CreateBilling(context.Background(), tenantID, &CreateBillingRequest{
			ReservationID: reservationID,
			RoomSubtotal:  decimal.NewFromInt(100),
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	})

	t.Run("rejects negative components", func(t *testing.T) {
		repo := new(MockBillingRecordRepository)
		repo.On("FindByReservation", mock.Anything, tenantID, reservationID).Return(nil, shared.ErrNotFound)
		repo.On("GenerateBillingNumber", mock.Anything, tenantID).Return("BL-20260301-00002", nil)

		svc := newTestService(repo)
		_, err := svc.CreateBilling(context.Background(), tenantID, &CreateBillingRequest{
			ReservationID: reservationID,
			RoomSubtotal:  decimal.NewFromInt(-100),
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_AMOUNT", domainErr.Code)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("requires reservation id", func(t *testing.T) {
		svc := newTestService(new(MockBillingRecordRepository))
		_, err := svc.CreateBilling(context.Background(), tenantID, &CreateBillingRequest{
			RoomSubtotal: decimal.NewFromInt(100),
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_RESERVATION", domainErr.Code)
	})
}

func TestBillingService_ApplyPayment(t *testing.T) {
	tenantID := uuid.New()

	t.Run("partial then full payment", func(t *testing.T) {
		record := newStoredRecord(t, tenantID, 100, 10, 5)
		repo := new(MockBillingRecordRepository)
		repo.On("FindByIDForTenant", mock.Anything, tenantID, record.ID).Return(record, nil)
		repo.On("SaveWithLock", mock.Anything, record).Return(nil)

		svc := newTestService(repo)

		resp, err := svc.ApplyPayment(context.Background(), tenantID, record.ID, &ApplyPaymentRequest{
			Amount: decimal.NewFromInt(50),
			Method: "CARD",
		})
		require.NoError(t, err)
		assert.Equal(t, "PARTIAL", resp.Status)
		assert.True(t, resp.Outstanding.Equal(decimal.NewFromInt(65)))

		resp, err = svc.ApplyPayment(context.Background(), tenantID, record.ID, &ApplyPaymentRequest{
			Amount: decimal.NewFromInt(65),
			Method: "CARD",
		})
		require.NoError(t, err)
		assert.Equal(t, "PAID", resp.Status)
		assert.True(t, resp.Outstanding.IsZero())
	})

	t.Run("replayed idempotency key does not reapply", func(t *testing.T) {
		record := newStoredRecord(t, tenantID, 100, 10, 5)
		repo := new(MockBillingRecordRepository)
		repo.On("FindByIDForTenant", mock.Anything, tenantID, record.ID).Return(record, nil)
		repo.On("SaveWithLock", mock.Anything, record).Return(nil).Once()

		svc := newTestService(repo)
		req := &ApplyPaymentRequest{
			Amount:         decimal.NewFromInt(50),
			Method:         "CASH",
			IdempotencyKey: "retry-abc",
		}

		first, err := svc.ApplyPayment(context.Background(), tenantID, record.ID, req)
		require.NoError(t, err)
		second, err := svc.ApplyPayment(context.Background(), tenantID, record.ID, req)
		require.NoError(t, err)

		assert.True(t, first.AmountPaid.Equal(decimal.NewFromInt(50)))
		assert.True(t, second.AmountPaid.Equal(decimal.NewFromInt(50)))
		repo.AssertNumberOfCalls(t, "SaveWithLock", 1)
	})

	t.Run("conflict leaves key open for retry", func(t *testing.T) {
		record := newStoredRecord(t, tenantID, 100, 10, 5)
		repo := new(MockBillingRecordRepository)
		repo.On("FindByIDForTenant", mock.Anything, tenantID, record.ID).Return(record, nil)
		repo.On("SaveWithLock", mock.Anything, record).Return(shared.ErrConcurrencyConflict).Once()
		repo.On("SaveWithLock", mock.Anything, record).Return(nil).Once()

		svc := newTestService(repo)
		req := &ApplyPaymentRequest{
			Amount:         decimal.NewFromInt(50),
			Method:         "CARD",
			IdempotencyKey: "retry-409",
		}

		_, err := svc.ApplyPayment(context.Background(), tenantID, record.ID, req)
		assert.Equal(t, shared.ErrConcurrencyConflict, err)

		// Same key retries and applies this time
		resp, err := svc.ApplyPayment(context.Background(), tenantID, record.ID, req)
		require.NoError(t, err)
		assert.NotNil(t, resp)
		repo.AssertNumberOfCalls(t, "SaveWithLock", 2)
	})

	t.Run("rejects unknown payment method", func(t *testing.T) {
		svc := newTestService(new(MockBillingRecordRepository))
		_, err := svc.ApplyPayment(context.Background(), tenantID, uuid.New(), &ApplyPaymentRequest{
			Amount: decimal.NewFromInt(10),
			Method: "BARTER",
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PAYMENT_METHOD", domainErr.Code)
	})

	t.Run("not found surfaces", func(t *testing.T) {
		billingID := uuid.New()
		repo := new(MockBillingRecordRepository)
		repo.On("FindByIDForTenant", mock.Anything, tenantID, billingID).Return(nil, shared.ErrNotFound)

		svc := newTestService(repo)
		_, err := svc.ApplyPayment(context.Background(), tenantID, billingID, &ApplyPaymentRequest{
			Amount: decimal.NewFromInt(10),
			Method: "CASH",
		})

		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestBillingService_MarkOverdue(t *testing.T) {
	tenantID := uuid.New()

	t.Run("marks past-due record overdue", func(t *testing.T) {
		record := newStoredRecord(t, tenantID, 200, 0, 0)
		due := time.Now().Add(-48 * time.Hour)
		require.NoError(t, record.SetDueDate(&due))
		record.ClearDomainEvents()

		repo := new(MockBillingRecordRepository)
		repo.On("FindByIDForTenant", mock.Anything, tenantID, record.ID).Return(record, nil)
		repo.On("SaveWithLock", mock.Anything, record).Return(nil)

		svc := newTestService(repo)
		resp, err := svc.MarkOverdue(context.Background(), tenantID, record.ID, time.Now())

		require.NoError(t, err)
		assert.Equal(t, "OVERDUE", resp.Status)
		repo.AssertExpectations(t)
	})

	t.Run("paid record is a no-op", func(t *testing.T) {
		record := newStoredRecord(t, tenantID, 100, 10, 5)
		require.NoError(t, record.ApplyPayment(valueobject.NewMoneyUSDFromFloat(115), billing.PaymentMethodCash, ""))
		due := time.Now().Add(-48 * time.Hour)
		record.DueDate = &due

		repo := new(MockBillingRecordRepository)
		repo.On("FindByIDForTenant", mock.Anything, tenantID, record.ID).Return(record, nil)

		svc := newTestService(repo)
		resp, err := svc.MarkOverdue(context.Background(), tenantID, record.ID, time.Now())

		require.NoError(t, err)
		assert.Equal(t, "PAID", resp.Status)
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestBillingService_RunOverdueSweep(t *testing.T) {
	tenantID := uuid.New()
	asOf := time.Now()

	makeDue := func(t *testing.T) billing.BillingRecord {
		record := newStoredRecord(t, tenantID, 200, 0, 0)
		due := asOf.Add(-24 * time.Hour)
		require.NoError(t, record.SetDueDate(&due))
		record.ClearDomainEvents()
		return *record
	}

	t.Run("marks all past-due records", func(t *testing.T) {
		records := []billing.BillingRecord{makeDue(t), makeDue(t)}
		repo := new(MockBillingRecordRepository)
		repo.On("FindDueForOverdue", mock.Anything, tenantID, asOf).Return(records, nil)
		repo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*billing.BillingRecord")).Return(nil)

		svc := newTestService(repo)
		marked, err := svc.RunOverdueSweep(context.Background(), tenantID, asOf)

		require.NoError(t, err)
		assert.Equal(t, 2, marked)
	})

	t.Run("skips version conflicts", func(t *testing.T) {
		records := []billing.BillingRecord{makeDue(t), makeDue(t)}
		repo := new(MockBillingRecordRepository)
		repo.On("FindDueForOverdue", mock.Anything, tenantID, asOf).Return(records, nil)
		repo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*billing.BillingRecord")).Return(shared.ErrConcurrencyConflict).Once()
		repo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*billing.BillingRecord")).Return(nil).Once()

		svc := newTestService(repo)
		marked, err := svc.RunOverdueSweep(context.Background(), tenantID, asOf)

		require.NoError(t, err)
		assert.Equal(t, 1, marked)
	})

	t.Run("re-run finds nothing to mark", func(t *testing.T) {
		repo := new(MockBillingRecordRepository)
		repo.On("FindDueForOverdue", mock.Anything, tenantID, asOf).Return([]billing.BillingRecord{}, nil)

		svc := newTestService(repo)
		marked, err := svc.RunOverdueSweep(context.Background(), tenantID, asOf)

		require.NoError(t, err)
		assert.Equal(t, 0, marked)
	})
}

func TestBillingService_ListBillings(t *testing.T) {
	tenantID := uuid.New()

	t.Run("maps status filter and pagination defaults", func(t *testing.T) {
		repo := new(MockBillingRecordRepository)
		repo.On("FindAllForTenant", mock.Anything, tenantID, mock.MatchedBy(func(f billing.BillingRecordFilter) bool {
			return f.Status != nil && *f.Status == billing.BillingStatusOverdue && f.Page == 1 && f.PageSize == 20
		})).Return([]billing.BillingRecord{}, nil)
		repo.On("CountForTenant", mock.Anything, tenantID, mock.Anything).Return(int64(0), nil)

		svc := newTestService(repo)
		_, total, err := svc.ListBillings(context.Background(), tenantID, BillingListFilter{Status: "OVERDUE"})

		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		repo.AssertExpectations(t)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		svc := newTestService(new(MockBillingRecordRepository))
		_, _, err := svc.ListBillings(context.Background(), tenantID, BillingListFilter{Status: "LIMBO"})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})
}

func TestBillingService_GetBillingSummary(t *testing.T) {
	tenantID := uuid.New()

	t.Run("combines totals with status counts", func(t *testing.T) {
		repo := new(MockBillingRecordRepository)
		repo.On("Summarize", mock.Anything, tenantID).Return(&billing.AggregateTotals{
			TotalCollected:   decimal.NewFromInt(160),
			TotalOutstanding: decimal.NewFromInt(715),
		}, nil)
		repo.On("CountByStatus", mock.Anything, tenantID, billing.BillingStatusPending).Return(int64(2), nil)
		repo.On("CountByStatus", mock.Anything, tenantID, billing.BillingStatusPartial).Return(int64(1), nil)
		repo.On("CountByStatus", mock.Anything, tenantID, billing.BillingStatusPaid).Return(int64(3), nil)
		repo.On("CountByStatus", mock.Anything, tenantID, billing.BillingStatusOverdue).Return(int64(1), nil)

		svc := newTestService(repo)
		summary, err := svc.GetBillingSummary(context.Background(), tenantID)

		require.NoError(t, err)
		assert.True(t, summary.TotalCollected.Equal(decimal.NewFromInt(160)))
		assert.True(t, summary.TotalOutstanding.Equal(decimal.NewFromInt(715)))
		assert.Equal(t, int64(2), summary.PendingCount)
		assert.Equal(t, int64(1), summary.OverdueCount)
	})
}
