package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/segyhp/library-engine/internal/domain"
	"github.com/segyhp/library-engine/internal/repository"
)

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) LockUser(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockLoanRepository) CountOpenByUser(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockLoanRepository) FindOpenByBooks(ctx context.Context, bookIDs []int64) ([]*domain.Loan, error) {
	args := m.Called(ctx, bookIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) CreateBatch(ctx context.Context, loans []*domain.Loan) error {
	args := m.Called(ctx, loans)
	return args.Error(0)
}

func (m *MockLoanRepository) CloseOpen(ctx context.Context, userID int64, bookIDs []int64, returnedAt time.Time) ([]*domain.Loan, error) {
	args := m.Called(ctx, userID, bookIDs, returnedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ListOpenByUser(ctx context.Context, userID int64) ([]*domain.Loan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ListOpenBorrowedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Loan, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Count(ctx context.Context, filter domain.LoanFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

type MockFineHistoryRepository struct {
	mock.Mock
}

func (m *MockFineHistoryRepository) Create(ctx context.Context, history *domain.FineHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockFineHistoryRepository) MarkPaid(ctx context.Context, userID int64, ids []int64, paidAt time.Time) (int64, error) {
	args := m.Called(ctx, userID, ids, paidAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFineHistoryRepository) List(ctx context.Context, filter domain.FineHistoryFilter) ([]*domain.FineHistory, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FineHistory), args.Error(1)
}

func (m *MockFineHistoryRepository) SumUnpaidByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockUnitOfWork runs the callback against Repos. Its first return value
// fails the transaction before fn runs, the second fails the commit.
type MockUnitOfWork struct {
	mock.Mock
	Repos repository.Repositories
}

func NewMockUnitOfWork(loans *MockLoanRepository, fines *MockFineHistoryRepository) *MockUnitOfWork {
	return &MockUnitOfWork{Repos: repository.Repositories{Loans: loans, Fines: fines}}
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	if err := fn(ctx, m.Repos); err != nil {
		return err
	}
	return args.Error(1)
}

type MockFineCache struct {
	mock.Mock
}

func (m *MockFineCache) GetOutstanding(ctx context.Context, userID int64) (int64, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockFineCache) Version(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFineCache) SetOutstanding(ctx context.Context, userID int64, amount int64, version int64) (bool, error) {
	args := m.Called(ctx, userID, amount, version)
	return args.Bool(0), args.Error(1)
}

func (m *MockFineCache) Invalidate(ctx context.Context, userIDs ...int64) error {
	args := m.Called(ctx, userIDs)
	return args.Error(0)
}
