package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/library-engine/internal/domain"
)

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx, so every repository
// can run standalone or inside a unit of work.
type Querier = sqlx.ExtContext

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// LockUser serializes borrow decisions for one user until the surrounding transaction ends
	LockUser(ctx context.Context, userID int64) error

	// CountOpenByUser counts loans the user has not returned yet
	CountOpenByUser(ctx context.Context, userID int64) (int, error)

	// FindOpenByBooks returns open loans, held by anyone, for the given books
	FindOpenByBooks(ctx context.Context, bookIDs []int64) ([]*domain.Loan, error)

	// CreateBatch inserts all loans in one statement and fills in their IDs
	CreateBatch(ctx context.Context, loans []*domain.Loan) error

	// CloseOpen sets the return date on the user's open loans for the given books
	// and returns the loans it closed. Loans already closed are left alone.
	CloseOpen(ctx context.Context, userID int64, bookIDs []int64, returnedAt time.Time) ([]*domain.Loan, error)

	// ListOpenByUser returns the user's open loans, oldest first
	ListOpenByUser(ctx context.Context, userID int64) ([]*domain.Loan, error)

	// ListOpenBorrowedBefore returns every open loan borrowed at or before cutoff
	ListOpenBorrowedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Loan, error)

	// List returns loans, open or returned, matching the filter ordered by ID
	List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error)

	// Count counts loans matching the filter, ignoring offset and limit
	Count(ctx context.Context, filter domain.LoanFilter) (int64, error)
}

// FineHistoryRepository defines the interface for fine history data operations
type FineHistoryRepository interface {
	// Create inserts a fine history row and fills in its ID
	Create(ctx context.Context, history *domain.FineHistory) error

	// MarkPaid flags the user's fine histories as paid and returns how many rows matched
	MarkPaid(ctx context.Context, userID int64, ids []int64, paidAt time.Time) (int64, error)

	// List returns fine histories matching the filter, ordered by ID
	List(ctx context.Context, filter domain.FineHistoryFilter) ([]*domain.FineHistory, error)

	// SumUnpaidByUser totals the user's unpaid fines
	SumUnpaidByUser(ctx context.Context, userID int64) (int64, error)
}

// Repositories groups the repositories bound to one transaction
type Repositories struct {
	Loans LoanRepository
	Fines FineHistoryRepository
}

// UnitOfWork runs fn inside a single store transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
