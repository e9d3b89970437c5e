package domain

import (
	"time"

	"github.com/google/uuid"
)

// Loan represents one borrow event. It is open while ReturnDate is nil.
type Loan struct {
	ID         int64      `json:"id" db:"id"`
	UserID     int64      `json:"userId" db:"user_id"`
	BookID     int64      `json:"bookId" db:"book_id"`
	ReffKey    uuid.UUID  `json:"reffKey" db:"reff_key"`
	BorrowDate time.Time  `json:"borrowDate" db:"borrow_date"`
	ReturnDate *time.Time `json:"returnDate,omitempty" db:"return_date"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsOpen reports whether the book is still checked out
func (l *Loan) IsOpen() bool {
	return l.ReturnDate == nil
}

// ReturnResult is the outcome of one return transaction
type ReturnResult struct {
	Fine          int64   `json:"fine"`
	LoanIDs       []int64 `json:"loanIds"`
	FineHistoryID *int64  `json:"fineHistoryId,omitempty"`
}

// OverdueLoan is an open loan past its grace period with the fine accrued so far
type OverdueLoan struct {
	Loan        *Loan     `json:"loan"`
	DueDate     time.Time `json:"dueDate"`
	DaysOverdue int       `json:"daysOverdue"`
	AccruedFine int64     `json:"accruedFine"`
}

// DTOs for requests and responses

type BookRef struct {
	BookID int64 `json:"bookId" validate:"required,gt=0"`
}

// BorrowReturnRequest is the payload for both borrow and return
type BorrowReturnRequest struct {
	Books []BookRef `json:"books" validate:"required,min=1,dive"`
}

// BookIDs flattens the request, dropping repeated ids while keeping order
func (r *BorrowReturnRequest) BookIDs() []int64 {
	ids := make([]int64, 0, len(r.Books))
	for _, b := range r.Books {
		ids = append(ids, b.BookID)
	}
	return UniqueIDs(ids)
}

type BorrowResponse struct {
	Loans []*Loan `json:"loans"`
}

type ReturnResponse struct {
	Fine int64 `json:"fine"`
}

type OverdueReport struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Loans       []*OverdueLoan `json:"loans"`
	TotalFine   int64          `json:"totalFine"`
}

// LoanFilter selects loans for the history listing. Nil fields match everything.
type LoanFilter struct {
	UserID *int64
	BookID *int64
	// Open keeps only unreturned loans when true and only returned ones when false
	Open   *bool
	Offset int
	Limit  int
}

// Normalize clamps offset and limit the same way FineHistoryFilter does
func (f LoanFilter) Normalize() LoanFilter {
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	return f
}

type LoanCountResponse struct {
	Count int64 `json:"count"`
}
